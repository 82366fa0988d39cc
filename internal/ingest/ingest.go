// Package ingest defines the source extractor contract and the shared
// page-visit machinery every upstream publisher extractor runs on.
package ingest

import (
	"context"
	"log"
	"time"

	"github.com/fortuna/cutman/internal/normalize"
	"github.com/fortuna/cutman/internal/snapshot"
)

// Mode selects the inter-page delay profile for a run.
type Mode string

const (
	// ModeInteractive keeps delays short for a human waiting on the run.
	ModeInteractive Mode = "interactive"

	// ModeUnattended spaces page visits out, trading wall-clock time for a
	// lower chance of upstream rate-limiting on scheduled runs.
	ModeUnattended Mode = "unattended"
)

// Source produces a scrape snapshot for one upstream publisher.
type Source interface {
	Name() string
	Scrape(ctx context.Context, opts Options) (*snapshot.Snapshot, error)
}

// Options carries per-run extraction configuration.
type Options struct {
	Mode        Mode
	PageTimeout time.Duration
	PageRetries int
	PageDelay   time.Duration // overrides the mode's profile when set
	Now         time.Time     // run time; zero means time.Now()
}

// DefaultOptions returns unattended-mode extraction options.
func DefaultOptions() Options {
	return Options{
		Mode:        ModeUnattended,
		PageTimeout: 45 * time.Second,
		PageRetries: 2,
	}
}

// Delay returns the inter-page delay for the run's mode.
func (o Options) Delay() time.Duration {
	if o.PageDelay > 0 {
		return o.PageDelay
	}
	switch o.Mode {
	case ModeInteractive:
		return 1 * time.Second
	default:
		return 5 * time.Second
	}
}

// RunTime returns the run's reference time for past-event filtering.
func (o Options) RunTime() time.Time {
	if o.Now.IsZero() {
		return time.Now()
	}
	return o.Now
}

// PageTask is one page visit within a source's sequential crawl.
type PageTask struct {
	Name string
	Fn   func(ctx context.Context) error
}

// VisitPages runs tasks one at a time with the options' inter-page delay,
// wrapping each in its own timeout and bounded retry. A page that fails all
// retries is logged and skipped; only parent-context cancellation stops the
// crawl. Returns the number of failed pages.
func VisitPages(ctx context.Context, source string, opts Options, tasks []PageTask) int {
	failed := 0

	for i, task := range tasks {
		if err := ctx.Err(); err != nil {
			log.Printf("[%s] ⚠️  Crawl aborted with %d page(s) remaining: %v", source, len(tasks)-i, err)
			return failed + (len(tasks) - i)
		}

		if err := visitPage(ctx, opts, task); err != nil {
			failed++
			log.Printf("[%s] ⚠️  Page %s failed, skipping: %v", source, task.Name, err)
		}

		if i < len(tasks)-1 {
			select {
			case <-ctx.Done():
			case <-time.After(opts.Delay()):
			}
		}
	}

	return failed
}

func visitPage(ctx context.Context, opts Options, task PageTask) error {
	attempts := opts.PageRetries + 1
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		pageCtx, cancel := context.WithTimeout(ctx, opts.PageTimeout)
		lastErr = task.Fn(pageCtx)
		cancel()

		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return lastErr
		}
		if attempt < attempts {
			log.Printf("  Retry %d/%d for page %s: %v", attempt, opts.PageRetries, task.Name, lastErr)
		}
	}

	return lastErr
}

// DedupeFights collapses duplicate pairings within one page by an unordered
// last-name pair key, so a "Lane vs Hunt" mention of a pairing already
// captured as "Julian Lane vs Lorenzo Hunt" is discarded in favor of the
// fuller entry.
func DedupeFights(fights []snapshot.FightRecord) []snapshot.FightRecord {
	type slot struct {
		index int
		score int
	}
	kept := make(map[string]slot)
	var out []snapshot.FightRecord

	for _, fight := range fights {
		key := lastNamePairKey(fight)
		if key == "" {
			continue
		}

		score := fightFullness(fight)
		existing, ok := kept[key]
		if !ok {
			kept[key] = slot{index: len(out), score: score}
			out = append(out, fight)
			continue
		}
		if score > existing.score {
			out[existing.index] = fight
			kept[key] = slot{index: existing.index, score: score}
		}
	}

	return out
}

func lastNamePairKey(fight snapshot.FightRecord) string {
	a := fight.FighterA.Name()
	b := fight.FighterB.Name()
	if a.IsZero() || b.IsZero() {
		return ""
	}

	ka, kb := lastKey(a.Last), lastKey(b.Last)
	if ka > kb {
		ka, kb = kb, ka
	}
	return ka + "::" + kb
}

func lastKey(last string) string {
	return normalize.Parse(last).Key()
}

func fightFullness(fight snapshot.FightRecord) int {
	score := 0
	for _, f := range []snapshot.FighterRecord{fight.FighterA, fight.FighterB} {
		name := f.Name()
		if name.First != "" {
			score += 2
		}
		if f.RecordText != "" {
			score++
		}
		if f.ImageURL != "" {
			score++
		}
		if f.SourceURL != "" {
			score++
		}
	}
	if fight.WeightClass != "" {
		score++
	}
	return score
}
