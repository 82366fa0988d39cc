package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/cutman/internal/importer"
	"github.com/fortuna/cutman/internal/ingest"
	"github.com/fortuna/cutman/internal/reconcile"
	"github.com/fortuna/cutman/internal/snapshot"
)

// stubSource fails failures times before returning its snapshot.
type stubSource struct {
	name     string
	snap     *snapshot.Snapshot
	failures int
	calls    int
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Scrape(_ context.Context, _ ingest.Options) (*snapshot.Snapshot, error) {
	s.calls++
	if s.calls <= s.failures {
		return nil, errors.New("upstream unavailable")
	}
	return s.snap, nil
}

type stubImporter struct {
	imported []*snapshot.Snapshot
	err      error
}

func (s *stubImporter) Import(_ context.Context, snap *snapshot.Snapshot) (*importer.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.imported = append(s.imported, snap)
	return &importer.Result{EventsImported: len(snap.Events)}, nil
}

type stubReconciler struct {
	reconciled []*snapshot.Snapshot
}

func (s *stubReconciler) Reconcile(_ context.Context, snap *snapshot.Snapshot) (*reconcile.Result, error) {
	s.reconciled = append(s.reconciled, snap)
	return &reconcile.Result{EventsChecked: len(snap.Events)}, nil
}

type stubCompleter struct{ n int64 }

func (s *stubCompleter) MarkElapsedCompleted(_ context.Context, _ time.Time) (int64, error) {
	return s.n, nil
}

func testSnap(source string) *snapshot.Snapshot {
	return &snapshot.Snapshot{
		Source:    source,
		ScrapedAt: time.Date(2026, 6, 10, 6, 0, 0, 0, time.UTC),
		Events:    []snapshot.EventRecord{{Name: "BKFC 71: Omaha", SourceURL: "https://example.com/71"}},
	}
}

func newTestOrchestrator(t *testing.T, sources ...ingest.Source) (*Orchestrator, *stubImporter, *stubReconciler) {
	t.Helper()

	writer, err := snapshot.NewWriter(t.TempDir())
	require.NoError(t, err)

	im := &stubImporter{}
	rec := &stubReconciler{}
	config := DefaultConfig()
	config.RetryDelay = time.Millisecond
	config.Extraction.PageDelay = time.Millisecond

	o := NewOrchestrator(Deps{
		Sources:    sources,
		Writer:     writer,
		Importer:   im,
		Reconciler: rec,
		Events:     &stubCompleter{n: 2},
		Fights:     &stubCompleter{n: 5},
	}, config)
	return o, im, rec
}

func TestTriggerRunPipeline(t *testing.T) {
	source := &stubSource{name: "bkfc", snap: testSnap("bkfc")}
	o, im, rec := newTestOrchestrator(t, source)

	report, err := o.TriggerRun(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Sources, 1)
	assert.Equal(t, "bkfc", report.Sources[0].Source)
	assert.Empty(t, report.Sources[0].Error)
	assert.Equal(t, 1, report.Sources[0].Import.EventsImported)
	assert.Equal(t, 1, report.Sources[0].Reconcile.EventsChecked)
	assert.Equal(t, "manual", report.Trigger)
	assert.Equal(t, int64(2), report.EventsCompleted)
	assert.Equal(t, int64(5), report.FightsCompleted)

	require.Len(t, im.imported, 1)
	require.Len(t, rec.reconciled, 1)
	assert.Same(t, report, o.LatestReport())
}

func TestRunRetriesScrape(t *testing.T) {
	source := &stubSource{name: "bkfc", snap: testSnap("bkfc"), failures: 2}
	o, im, _ := newTestOrchestrator(t, source)

	report, err := o.TriggerRun(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, source.calls)
	assert.Empty(t, report.Sources[0].Error)
	require.Len(t, im.imported, 1)
}

func TestRunSkipsExhaustedSource(t *testing.T) {
	broken := &stubSource{name: "bkfc", snap: testSnap("bkfc"), failures: 10}
	healthy := &stubSource{name: "tapology", snap: testSnap("tapology")}
	o, im, _ := newTestOrchestrator(t, broken, healthy)

	report, err := o.TriggerRun(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Sources, 2)
	assert.Contains(t, report.Sources[0].Error, "upstream unavailable")
	assert.Empty(t, report.Sources[1].Error)

	// Only the healthy source reached the importer.
	require.Len(t, im.imported, 1)
	assert.Equal(t, "tapology", im.imported[0].Source)
}

func TestRunFromLatestReplaysSnapshots(t *testing.T) {
	source := &stubSource{name: "bkfc", snap: testSnap("bkfc")}
	o, im, rec := newTestOrchestrator(t, source)

	// First run persists the snapshot documents.
	_, err := o.TriggerRun(context.Background())
	require.NoError(t, err)

	report, err := o.RunFromLatest(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "replay", report.Trigger)
	assert.Equal(t, 1, source.calls, "replay must not scrape")
	require.Len(t, im.imported, 2)
	require.Len(t, rec.reconciled, 2)
	assert.Equal(t, "BKFC 71: Omaha", im.imported[1].Events[0].Name)
}

func TestConcurrentRunRejected(t *testing.T) {
	source := &stubSource{name: "bkfc", snap: testSnap("bkfc")}
	o, _, _ := newTestOrchestrator(t, source)

	require.NoError(t, o.acquire())
	_, err := o.TriggerRun(context.Background())
	assert.ErrorIs(t, err, ErrRunInProgress)
	o.release()

	_, err = o.TriggerRun(context.Background())
	assert.NoError(t, err)
}
