// Package bkfc extracts upcoming fight cards from the BKFC website. The
// site renders its event pages with JavaScript, so pages are fetched
// through a headless browser before parsing.
package bkfc

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/fortuna/cutman/internal/ingest"
	"github.com/fortuna/cutman/internal/snapshot"
)

const eventsIndexURL = BaseURL + "/events"

// Extractor implements the source contract for BKFC.
type Extractor struct {
	mu     sync.Mutex
	client *Client
}

func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Name() string { return "bkfc" }

// Scrape crawls the events index and each upcoming event page, returning a
// snapshot of everything that parsed. Individual page failures are skipped;
// Scrape only errors when the index itself cannot be fetched.
func (e *Extractor) Scrape(ctx context.Context, opts ingest.Options) (*snapshot.Snapshot, error) {
	client, err := e.getClient()
	if err != nil {
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	stubs, err := e.fetchEventList(ctx, client, opts)
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
				event, err := e.fetchEventPage(pageCtx, client, stub.URL, opts)
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

	log.Printf("[bkfc] ✓ Scraped %d event(s), %d athlete(s), %d page failure(s)",
		len(snap.Events), len(snap.Athletes), failed)
	return snap, nil
}

// Close releases the headless browser if one was started.
func (e *Extractor) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client != nil {
		e.client.Close()
		e.client = nil
	}
}

func (e *Extractor) getClient() (*Client, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client == nil {
		client, err := NewClient()
		if err != nil {
			return nil, err
		}
		e.client = client
	}
	return e.client, nil
}

func (e *Extractor) fetchEventList(ctx context.Context, client *Client, opts ingest.Options) ([]EventStub, error) {
	indexCtx, cancel := context.WithTimeout(ctx, opts.PageTimeout)
	defer cancel()

	html, err := client.FetchPage(indexCtx, eventsIndexURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch events index: %w", err)
	}

	doc, err := ParseHTML(html)
	if err != nil {
		return nil, fmt.Errorf("failed to parse events index: %w", err)
	}

	return ParseEventList(doc), nil
}

// fetchEventPage returns nil with no error for events that parse but fall
// outside the upcoming window.
func (e *Extractor) fetchEventPage(ctx context.Context, client *Client, url string, opts ingest.Options) (*snapshot.EventRecord, error) {
	html, err := client.FetchPage(ctx, url)
	if err != nil {
		return nil, err
	}

	doc, err := ParseHTML(html)
	if err != nil {
		return nil, err
	}

	rec := ParseEventPage(doc)
	event, ok := rec.Convert(url, opts.RunTime())
	if !ok {
		return nil, nil
	}

	log.Printf("[bkfc] ✓ %s: %d bout(s)", event.Name, len(event.Fights))
	return &event, nil
}
