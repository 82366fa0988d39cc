package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/cutman/internal/snapshot"
)

func fastOptions() Options {
	return Options{
		Mode:        ModeInteractive,
		PageTimeout: 100 * time.Millisecond,
		PageRetries: 2,
		PageDelay:   time.Millisecond,
	}
}

func TestVisitPagesRetriesAndSkips(t *testing.T) {
	attempts := 0
	succeeded := false

	tasks := []PageTask{
		{Name: "flaky", Fn: func(ctx context.Context) error {
			attempts++
			if attempts < 3 {
				return errors.New("transient")
			}
			return nil
		}},
		{Name: "broken", Fn: func(ctx context.Context) error {
			return errors.New("permanent")
		}},
		{Name: "healthy", Fn: func(ctx context.Context) error {
			succeeded = true
			return nil
		}},
	}

	failed := VisitPages(context.Background(), "test", fastOptions(), tasks)

	assert.Equal(t, 1, failed, "only the permanently broken page fails")
	assert.Equal(t, 3, attempts, "flaky page succeeds on its last attempt")
	assert.True(t, succeeded, "crawl continues past a failed page")
}

func TestVisitPagesHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	visited := 0
	tasks := []PageTask{
		{Name: "first", Fn: func(ctx context.Context) error {
			visited++
			cancel()
			return nil
		}},
		{Name: "second", Fn: func(ctx context.Context) error {
			visited++
			return nil
		}},
	}

	failed := VisitPages(ctx, "test", fastOptions(), tasks)

	assert.Equal(t, 1, visited)
	assert.Equal(t, 1, failed, "remaining pages count as failed")
}

func TestVisitPagesPerPageTimeout(t *testing.T) {
	opts := fastOptions()
	opts.PageRetries = 0

	tasks := []PageTask{
		{Name: "slow", Fn: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}},
	}

	start := time.Now()
	failed := VisitPages(context.Background(), "test", opts, tasks)

	assert.Equal(t, 1, failed)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestOptionsDelayByMode(t *testing.T) {
	assert.Equal(t, 1*time.Second, Options{Mode: ModeInteractive}.Delay())
	assert.Equal(t, 5*time.Second, Options{Mode: ModeUnattended}.Delay())
	assert.Equal(t, 10*time.Millisecond, Options{Mode: ModeUnattended, PageDelay: 10 * time.Millisecond}.Delay())
}

func TestDedupeFightsKeepsFullerEntry(t *testing.T) {
	sparse := snapshot.FightRecord{
		FighterA: snapshot.FighterRecord{DisplayName: "Lane"},
		FighterB: snapshot.FighterRecord{DisplayName: "Hunt"},
	}
	full := snapshot.FightRecord{
		FighterA: snapshot.FighterRecord{DisplayName: "Julian Lane", RecordText: "3-5"},
		FighterB: snapshot.FighterRecord{DisplayName: "Lorenzo Hunt", RecordText: "9-1"},
		WeightClass: "Heavyweight",
	}
	other := snapshot.FightRecord{
		FighterA: snapshot.FighterRecord{DisplayName: "Mike Perry"},
		FighterB: snapshot.FighterRecord{DisplayName: "Christine Ferea"},
	}

	out := DedupeFights([]snapshot.FightRecord{sparse, full, other})

	require.Len(t, out, 2)
	assert.Equal(t, "Julian Lane", out[0].FighterA.DisplayName, "fuller duplicate replaces the sparse one in place")
	assert.Equal(t, "Mike Perry", out[1].FighterA.DisplayName)
}

func TestDedupeFightsIgnoresCornerOrder(t *testing.T) {
	a := snapshot.FightRecord{
		FighterA: snapshot.FighterRecord{DisplayName: "Julian Lane"},
		FighterB: snapshot.FighterRecord{DisplayName: "Lorenzo Hunt"},
	}
	b := snapshot.FightRecord{
		FighterA: snapshot.FighterRecord{DisplayName: "Lorenzo Hunt"},
		FighterB: snapshot.FighterRecord{DisplayName: "Julian Lane"},
	}

	out := DedupeFights([]snapshot.FightRecord{a, b})
	assert.Len(t, out, 1)
}
