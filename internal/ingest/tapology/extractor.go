package tapology

import (
	"context"
	"fmt"
	"log"

	"github.com/fortuna/cutman/internal/ingest"
	"github.com/fortuna/cutman/internal/snapshot"
)

const fightcenterURL = BaseURL + "/fightcenter?group=upcoming&schedule=upcoming"

// Extractor implements the source contract for Tapology.
type Extractor struct {
	client *Client
}

func NewExtractor() *Extractor {
	return &Extractor{client: NewClient()}
}

func (e *Extractor) Name() string { return "tapology" }

// Scrape crawls the fightcenter listing and each upcoming event page.
// Individual page failures are skipped; Scrape only errors when the
// listing itself cannot be fetched.
func (e *Extractor) Scrape(ctx context.Context, opts ingest.Options) (*snapshot.Snapshot, error) {
	stubs, err := e.fetchEventList(ctx, opts)
	if err != nil {
		return nil, err
	}

	snap := &snapshot.Snapshot{
		Source:    e.Name(),
		ScrapedAt: opts.RunTime(),
	}

	tasks := make([]ingest.PageTask, 0, len(stubs))
	for _, stub := range stubs {
		stub := stub
		tasks = append(tasks, ingest.PageTask{
			Name: stub.URL,
			Fn: func(pageCtx context.Context) error {
				event, err := e.fetchEventPage(pageCtx, stub, opts)
				if err != nil {
					return err
				}
				if event != nil {
					snap.Events = append(snap.Events, *event)
				}
				return nil
			},
		})
	}

	failed := ingest.VisitPages(ctx, e.Name(), opts, tasks)
	snap.CollectAthletes()

	log.Printf("[tapology] ✓ Scraped %d event(s), %d athlete(s), %d page failure(s)",
		len(snap.Events), len(snap.Athletes), failed)
	return snap, nil
}

func (e *Extractor) fetchEventList(ctx context.Context, opts ingest.Options) ([]EventStub, error) {
	listCtx, cancel := context.WithTimeout(ctx, opts.PageTimeout)
	defer cancel()

	html, err := e.client.FetchPage(listCtx, fightcenterURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch fightcenter listing: %w", err)
	}

	doc, err := ParseHTML(html)
	if err != nil {
		return nil, fmt.Errorf("failed to parse fightcenter listing: %w", err)
	}

	return ParseEventList(doc), nil
}

func (e *Extractor) fetchEventPage(ctx context.Context, stub EventStub, opts ingest.Options) (*snapshot.EventRecord, error) {
	html, err := e.client.FetchPage(ctx, stub.URL)
	if err != nil {
		return nil, err
	}

	doc, err := ParseHTML(html)
	if err != nil {
		return nil, err
	}

	rec := ParseEventPage(doc)
	if rec.Promotion == "" {
		rec.Promotion = stub.Promotion
	}
	event, ok := rec.Convert(stub.URL, opts.RunTime())
	if !ok {
		return nil, nil
	}

	log.Printf("[tapology] ✓ %s: %d bout(s)", event.Name, len(event.Fights))
	return &event, nil
}
