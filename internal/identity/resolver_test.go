package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/cutman/internal/snapshot"
	"github.com/fortuna/cutman/internal/store/storetest"
)

func TestResolveCreatesOnFirstSighting(t *testing.T) {
	fake := storetest.NewFake()
	r := NewResolver(fake.Fighters())

	fighter, err := r.Resolve(context.Background(), snapshot.FighterRecord{
		DisplayName: "Lorenzo Hunt",
		RecordText:  "21-1-0, 15 KO",
		ImageURL:    "https://img/hunt.jpg",
	})
	require.NoError(t, err)

	assert.Equal(t, "Lorenzo", fighter.FirstName)
	assert.Equal(t, "Hunt", fighter.LastName)
	assert.Equal(t, 21, fighter.Wins)
	assert.Equal(t, 15, fighter.KOs)
	assert.NotZero(t, fighter.FighterID)

	created, updated := r.Stats()
	assert.Equal(t, 1, created)
	assert.Equal(t, 0, updated)
}

func TestResolveDeduplicatesWithinRun(t *testing.T) {
	fake := storetest.NewFake()
	r := NewResolver(fake.Fighters())
	ctx := context.Background()

	a, err := r.Resolve(ctx, snapshot.FighterRecord{DisplayName: "Julian Lane"})
	require.NoError(t, err)

	// Same identity via slug form and different casing.
	b, err := r.Resolve(ctx, snapshot.FighterRecord{DisplayName: "julian-lane"})
	require.NoError(t, err)

	assert.Equal(t, a.FighterID, b.FighterID)
	assert.Equal(t, 1, fake.FighterInserts)
}

func TestResolveRefreshesAcrossRuns(t *testing.T) {
	fake := storetest.NewFake()
	ctx := context.Background()

	r := NewResolver(fake.Fighters())
	first, err := r.Resolve(ctx, snapshot.FighterRecord{DisplayName: "Mike Perry"})
	require.NoError(t, err)

	// A second run sights the same fighter with richer data.
	r.Reset()
	second, err := r.Resolve(ctx, snapshot.FighterRecord{
		DisplayName: "Mike Perry",
		RecordText:  "14-8-0",
		ImageURL:    "https://img/perry.jpg",
	})
	require.NoError(t, err)

	assert.Equal(t, first.FighterID, second.FighterID, "identity is never re-keyed")
	assert.Equal(t, 1, fake.FighterInserts, "no duplicate row on a later sighting")

	created, updated := r.Stats()
	assert.Equal(t, 0, created)
	assert.Equal(t, 1, updated)

	stored, err := fake.Fighters().GetByName(ctx, "Mike", "Perry")
	require.NoError(t, err)
	assert.Equal(t, 14, stored.Wins)
	assert.Equal(t, "https://img/perry.jpg", stored.ImageURL.String)
}

func TestResolveRejectsImplausibleNames(t *testing.T) {
	fake := storetest.NewFake()
	r := NewResolver(fake.Fighters())
	ctx := context.Background()

	for _, bad := range []string{"", "Round 3", "Buy Tickets", "12345"} {
		_, err := r.Resolve(ctx, snapshot.FighterRecord{DisplayName: bad})
		assert.ErrorIs(t, err, ErrImplausibleName, "input %q", bad)
	}
	assert.Equal(t, 0, fake.FighterInserts)
}

func TestResolveDistinctSpellingsStayDistinct(t *testing.T) {
	// Exact-match identity only: a materially different spelling is a new
	// fighter, by design.
	fake := storetest.NewFake()
	r := NewResolver(fake.Fighters())
	ctx := context.Background()

	a, err := r.Resolve(ctx, snapshot.FighterRecord{DisplayName: "Jon Jones"})
	require.NoError(t, err)
	b, err := r.Resolve(ctx, snapshot.FighterRecord{DisplayName: "John Jones"})
	require.NoError(t, err)

	assert.NotEqual(t, a.FighterID, b.FighterID)
}
