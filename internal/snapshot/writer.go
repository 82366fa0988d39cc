package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// eventsDoc and athletesDoc are the two interchange documents written per
// source. A "latest" copy of each is always overwritten so the import step can
// run independently from the most recent successful scrape.
type eventsDoc struct {
	Source    string        `json:"source"`
	ScrapedAt time.Time     `json:"scrapedAt"`
	Events    []EventRecord `json:"events"`
}

type athletesDoc struct {
	Source    string          `json:"source"`
	ScrapedAt time.Time       `json:"scrapedAt"`
	Athletes  []FighterRecord `json:"athletes"`
}

// Writer persists snapshots as JSON documents under a data directory.
type Writer struct {
	Dir string
}

// NewWriter creates a snapshot writer rooted at dir, creating it if needed.
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating snapshot dir: %w", err)
	}
	return &Writer{Dir: dir}, nil
}

// Write stores the snapshot's events and athletes documents, both as a
// timestamped copy and as the overwritten "latest" copy.
func (w *Writer) Write(snap *Snapshot) error {
	stamp := snap.ScrapedAt.UTC().Format("20060102T150405")

	events := eventsDoc{Source: snap.Source, ScrapedAt: snap.ScrapedAt, Events: snap.Events}
	athletes := athletesDoc{Source: snap.Source, ScrapedAt: snap.ScrapedAt, Athletes: snap.Athletes}

	if err := w.writeDoc(fmt.Sprintf("%s_events_%s.json", snap.Source, stamp), events); err != nil {
		return err
	}
	if err := w.writeDoc(fmt.Sprintf("%s_events_latest.json", snap.Source), events); err != nil {
		return err
	}
	if err := w.writeDoc(fmt.Sprintf("%s_athletes_%s.json", snap.Source, stamp), athletes); err != nil {
		return err
	}
	return w.writeDoc(fmt.Sprintf("%s_athletes_latest.json", snap.Source), athletes)
}

func (w *Writer) writeDoc(name string, doc any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}
	path := filepath.Join(w.Dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

// LoadLatest rehydrates the most recent snapshot for a source from its
// "latest" interchange documents.
func LoadLatest(dir, source string) (*Snapshot, error) {
	var events eventsDoc
	if err := readDoc(filepath.Join(dir, fmt.Sprintf("%s_events_latest.json", source)), &events); err != nil {
		return nil, err
	}

	var athletes athletesDoc
	if err := readDoc(filepath.Join(dir, fmt.Sprintf("%s_athletes_latest.json", source)), &athletes); err != nil {
		return nil, err
	}

	return &Snapshot{
		Source:    events.Source,
		ScrapedAt: events.ScrapedAt,
		Events:    events.Events,
		Athletes:  athletes.Athletes,
	}, nil
}

func readDoc(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading snapshot doc: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	return nil
}
