package importer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/cutman/internal/assets"
	"github.com/fortuna/cutman/internal/identity"
	"github.com/fortuna/cutman/internal/snapshot"
	"github.com/fortuna/cutman/internal/store/storetest"
)

// stubFetcher maps upstream URLs to stored references; URLs in fail error
// out and URLs in placeholder return the placeholder sentinel.
type stubFetcher struct {
	refs        map[string]string
	fail        map[string]bool
	placeholder map[string]bool
	calls       int
}

func (s *stubFetcher) Fetch(_ context.Context, imageURL, entityName string) (string, error) {
	s.calls++
	if s.placeholder[imageURL] {
		return "", assets.ErrPlaceholder
	}
	if s.fail[imageURL] {
		return "", assert.AnError
	}
	if ref, ok := s.refs[imageURL]; ok {
		return ref, nil
	}
	return "https://cdn.example.com/" + entityName, nil
}

func fighterRef(name string) snapshot.FighterRecord {
	return snapshot.FighterRecord{DisplayName: name}
}

func testSnapshot() *snapshot.Snapshot {
	return &snapshot.Snapshot{
		Source:    "bkfc",
		ScrapedAt: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		Events: []snapshot.EventRecord{
			{
				Name:      "BKFC 71: Omaha",
				Promotion: "BKFC",
				Date:      time.Date(2026, 6, 13, 0, 0, 0, 0, time.UTC),
				SourceURL: "https://www.bkfc.com/events/bkfc-71-omaha",
				Fights: []snapshot.FightRecord{
					{
						FighterA:    fighterRef("Lorenzo Hunt"),
						FighterB:    fighterRef("Mike Perry"),
						WeightClass: "Light Heavyweight",
						TitleFight:  true,
					},
					{
						FighterA: fighterRef("Julian Lane"),
						FighterB: fighterRef("Lorenzo Hunt"),
					},
				},
			},
		},
	}
}

func newImporter(fake *storetest.Fake, images ImageFetcher) *Importer {
	resolver := identity.NewResolver(fake.Fighters())
	return New(resolver, fake.Events(), fake.Fights(), images)
}

func TestImportCreatesEverything(t *testing.T) {
	fake := storetest.NewFake()
	im := newImporter(fake, nil)

	result, err := im.Import(context.Background(), testSnapshot())
	require.NoError(t, err)

	assert.Equal(t, 1, result.EventsImported)
	assert.Equal(t, 2, result.FightsImported)
	assert.Equal(t, 0, result.FightsDropped)
	assert.Equal(t, 3, result.FightersCreated, "Hunt appears twice but is one identity")

	fighters, events, fights := fake.Counts()
	assert.Equal(t, 3, fighters)
	assert.Equal(t, 1, events)
	assert.Equal(t, 2, fights)

	event, ok := fake.EventByName("BKFC 71: Omaha")
	require.True(t, ok)
	assert.Equal(t, "upcoming", event.Status)
}

func TestImportIsIdempotent(t *testing.T) {
	fake := storetest.NewFake()
	im := newImporter(fake, nil)

	_, err := im.Import(context.Background(), testSnapshot())
	require.NoError(t, err)

	result, err := im.Import(context.Background(), testSnapshot())
	require.NoError(t, err)

	assert.Equal(t, 1, result.EventsImported)
	assert.Equal(t, 2, result.FightsImported)
	assert.Equal(t, 0, result.FightersCreated)
	assert.Equal(t, 3, result.FightersUpdated)

	// No net new rows on the second pass.
	assert.Equal(t, 3, fake.FighterInserts)
	assert.Equal(t, 1, fake.EventInserts)
	assert.Equal(t, 2, fake.FightInserts)
}

func TestImportDropsImplausibleBouts(t *testing.T) {
	fake := storetest.NewFake()
	im := newImporter(fake, nil)

	snap := testSnapshot()
	snap.Events[0].Fights = append(snap.Events[0].Fights, snapshot.FightRecord{
		FighterA: fighterRef("Main Card TBA"),
		FighterB: fighterRef("Julian Lane"),
	})

	result, err := im.Import(context.Background(), snap)
	require.NoError(t, err)

	assert.Equal(t, 2, result.FightsImported)
	assert.Equal(t, 1, result.FightsDropped)

	_, _, fights := fake.Counts()
	assert.Equal(t, 2, fights)
}

func TestImportDropsSelfPairing(t *testing.T) {
	fake := storetest.NewFake()
	im := newImporter(fake, nil)

	snap := testSnapshot()
	// Both corners are spellings of the same identity.
	snap.Events[0].Fights = []snapshot.FightRecord{
		{FighterA: fighterRef("Julian Lane"), FighterB: fighterRef("julian-lane")},
	}

	result, err := im.Import(context.Background(), snap)
	require.NoError(t, err)

	assert.Equal(t, 0, result.FightsImported)
	assert.Equal(t, 1, result.FightsDropped)
}

func TestImportMirrorsImages(t *testing.T) {
	fake := storetest.NewFake()
	fetcher := &stubFetcher{
		refs: map[string]string{
			"https://www.bkfc.com/images/hunt.png":          "https://cdn.example.com/lorenzo-hunt.png",
			"https://www.bkfc.com/images/bkfc71-banner.jpg": "https://cdn.example.com/bkfc-71-omaha.jpg",
		},
		placeholder: map[string]bool{"https://www.bkfc.com/images/silhouette.png": true},
		fail:        map[string]bool{"https://www.bkfc.com/images/perry.png": true},
	}
	im := newImporter(fake, fetcher)

	snap := testSnapshot()
	snap.Events[0].BannerURL = "https://www.bkfc.com/images/bkfc71-banner.jpg"
	snap.Events[0].Fights[0].FighterA.ImageURL = "https://www.bkfc.com/images/hunt.png"
	snap.Events[0].Fights[0].FighterB.ImageURL = "https://www.bkfc.com/images/perry.png"
	snap.Events[0].Fights[1].FighterA.ImageURL = "https://www.bkfc.com/images/silhouette.png"

	result, err := im.Import(context.Background(), snap)
	require.NoError(t, err)
	assert.Equal(t, 2, result.ImagesMirrored, "banner plus one fighter image")

	event, ok := fake.EventByName("BKFC 71: Omaha")
	require.True(t, ok)
	assert.Equal(t, "https://cdn.example.com/bkfc-71-omaha.jpg", event.BannerURL.String)

	hunt, err := fake.Fighters().GetByName(context.Background(), "Lorenzo", "Hunt")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/lorenzo-hunt.png", hunt.ImageURL.String)

	// A failed fetch keeps the upstream URL.
	perry, err := fake.Fighters().GetByName(context.Background(), "Mike", "Perry")
	require.NoError(t, err)
	assert.Equal(t, "https://www.bkfc.com/images/perry.png", perry.ImageURL.String)

	// A placeholder image yields no image at all.
	lane, err := fake.Fighters().GetByName(context.Background(), "Julian", "Lane")
	require.NoError(t, err)
	assert.False(t, lane.ImageURL.Valid)
}
