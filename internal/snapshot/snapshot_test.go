package snapshot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPairKeyUnordered(t *testing.T) {
	ab := FightRecord{
		FighterA: FighterRecord{DisplayName: "Julian Lane"},
		FighterB: FighterRecord{DisplayName: "Lorenzo Hunt"},
	}
	ba := FightRecord{
		FighterA: FighterRecord{DisplayName: "Lorenzo Hunt"},
		FighterB: FighterRecord{DisplayName: "Julian Lane"},
	}
	assert.Equal(t, ab.PairKey(), ba.PairKey())

	other := FightRecord{
		FighterA: FighterRecord{DisplayName: "Julian Lane"},
		FighterB: FighterRecord{DisplayName: "Mike Perry"},
	}
	assert.NotEqual(t, ab.PairKey(), other.PairKey())
}

func TestCollectAthletes(t *testing.T) {
	snap := &Snapshot{
		Source: "bkfc",
		Events: []EventRecord{
			{
				Name: "BKFC 50",
				Fights: []FightRecord{
					{
						FighterA: FighterRecord{DisplayName: "Julian Lane"},
						FighterB: FighterRecord{DisplayName: "Lorenzo Hunt"},
					},
					{
						// Bare mention of a fighter already seen with full data.
						FighterA: FighterRecord{DisplayName: "Lane"},
						FighterB: FighterRecord{DisplayName: "Mike Perry", RecordText: "14-8-0"},
					},
				},
			},
			{
				Name: "BKFC 51",
				Fights: []FightRecord{
					{
						// Fuller entry for a fighter first seen bare.
						FighterA: FighterRecord{DisplayName: "Julian Lane", RecordText: "12-9-0", ImageURL: "https://img/lane.jpg"},
						FighterB: FighterRecord{DisplayName: "", SourceURL: "ignored"},
					},
				},
			},
		},
	}

	snap.CollectAthletes()

	byName := make(map[string]FighterRecord)
	for _, a := range snap.Athletes {
		byName[a.Name().Key()] = a
	}

	// Six raw refs collapse to four identities: the two "Julian Lane"
	// sightings merge, "Lane" alone is its own single-name identity, and the
	// empty ref drops.
	require.Len(t, snap.Athletes, 4)

	lane := byName["julian|lane"]
	assert.Equal(t, "12-9-0", lane.RecordText, "fuller later sighting should win")
	assert.Equal(t, "https://img/lane.jpg", lane.ImageURL)
}

func TestWriterRoundTrip(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir)
	require.NoError(t, err)

	snap := &Snapshot{
		Source:    "tapology",
		ScrapedAt: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
		Events: []EventRecord{
			{
				Name: "BKFC 50: Hunt vs Lane",
				Date: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
				Fights: []FightRecord{
					{
						FighterA:    FighterRecord{DisplayName: "Lorenzo Hunt", RecordText: "21-1-0"},
						FighterB:    FighterRecord{DisplayName: "Julian Lane"},
						WeightClass: "Light Heavyweight",
						TitleFight:  true,
					},
				},
			},
		},
	}
	snap.CollectAthletes()

	require.NoError(t, w.Write(snap))

	// The latest copy must be overwritten by a second write.
	snap.ScrapedAt = snap.ScrapedAt.Add(time.Hour)
	snap.Events[0].Name = "BKFC 50: Hunt vs Lane II"
	require.NoError(t, w.Write(snap))

	got, err := LoadLatest(dir, "tapology")
	require.NoError(t, err)

	assert.Equal(t, "tapology", got.Source)
	require.Len(t, got.Events, 1)
	assert.Equal(t, "BKFC 50: Hunt vs Lane II", got.Events[0].Name)
	require.Len(t, got.Events[0].Fights, 1)
	assert.Equal(t, "Lorenzo Hunt", got.Events[0].Fights[0].FighterA.DisplayName)
	assert.Len(t, got.Athletes, 2)
}

func TestLoadLatestMissing(t *testing.T) {
	_, err := LoadLatest(t.TempDir(), "bkfc")
	assert.Error(t, err)
}
