// Package scheduler drives the ingestion pipeline: scrape each source,
// persist the snapshot, import it, then reconcile persisted state against
// it. Runs happen on a daily schedule and on manual trigger, never
// concurrently.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/fortuna/cutman/internal/importer"
	"github.com/fortuna/cutman/internal/ingest"
	"github.com/fortuna/cutman/internal/reconcile"
	"github.com/fortuna/cutman/internal/snapshot"
)

// SnapshotImporter applies a snapshot to the canonical store.
type SnapshotImporter interface {
	Import(ctx context.Context, snap *snapshot.Snapshot) (*importer.Result, error)
}

// SnapshotReconciler repairs persisted state against a snapshot.
type SnapshotReconciler interface {
	Reconcile(ctx context.Context, snap *snapshot.Snapshot) (*reconcile.Result, error)
}

// Completer transitions rows for elapsed events to completed.
type Completer interface {
	MarkElapsedCompleted(ctx context.Context, before time.Time) (int64, error)
}

// ReportCache stores the most recent run report.
type ReportCache interface {
	StoreLatestRun(ctx context.Context, report interface{}) error
}

// RunPublisher announces completed runs to downstream consumers.
type RunPublisher interface {
	PublishRunReport(ctx context.Context, report interface{}) error
}

// Deps wires the orchestrator's collaborators. Events, Fights, Cache and
// Publisher may be nil; the corresponding step is skipped.
type Deps struct {
	Sources    []ingest.Source
	Writer     *snapshot.Writer
	Importer   SnapshotImporter
	Reconciler SnapshotReconciler
	Events     Completer
	Fights     Completer
	Cache      ReportCache
	Publisher  RunPublisher
}

// Config holds scheduler configuration
type Config struct {
	DailyRunHour   int           // Default: 6 (6 AM)
	RunTimeout     time.Duration // Default: 30m, hard ceiling per run
	EnableDailyRun bool          // Default: true
	MaxRetries     int           // Default: 3, scrape attempts per source
	RetryDelay     time.Duration // Default: 5s
	Extraction     ingest.Options
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() *Config {
	return &Config{
		DailyRunHour:   6,
		RunTimeout:     30 * time.Minute,
		EnableDailyRun: true,
		MaxRetries:     3,
		RetryDelay:     5 * time.Second,
		Extraction:     ingest.DefaultOptions(),
	}
}

// SourceReport summarizes one source within a run.
type SourceReport struct {
	Source    string            `json:"source"`
	Events    int               `json:"events"`
	Athletes  int               `json:"athletes"`
	Error     string            `json:"error,omitempty"`
	Import    *importer.Result  `json:"import,omitempty"`
	Reconcile *reconcile.Result `json:"reconcile,omitempty"`
}

// Report summarizes one full pipeline run.
type Report struct {
	StartedAt       time.Time      `json:"started_at"`
	FinishedAt      time.Time      `json:"finished_at"`
	Duration        string         `json:"duration"`
	Trigger         string         `json:"trigger"`
	Sources         []SourceReport `json:"sources"`
	EventsCompleted int64          `json:"events_completed"`
	FightsCompleted int64          `json:"fights_completed"`
}

// ErrRunInProgress is returned when a trigger arrives while a run is active.
var ErrRunInProgress = errors.New("a pipeline run is already in progress")

// Orchestrator manages scheduled pipeline runs
type Orchestrator struct {
	deps   Deps
	config *Config

	mu      sync.Mutex
	running bool
	latest  *Report

	cancel context.CancelFunc
}

// NewOrchestrator creates a new scheduler orchestrator
func NewOrchestrator(deps Deps, config *Config) *Orchestrator {
	if config == nil {
		config = DefaultConfig()
	}
	return &Orchestrator{
		deps:   deps,
		config: config,
	}
}

// Start begins the daily schedule and blocks until the context is cancelled.
func (o *Orchestrator) Start(ctx context.Context) {
	log.Println("╔════════════════════════════════════════╗")
	log.Println("║   Cutman Pipeline Orchestrator         ║")
	log.Println("╚════════════════════════════════════════╝")
	log.Printf("Sources: %d", len(o.deps.Sources))
	log.Printf("Daily run: %v (at %02d:00)", o.config.EnableDailyRun, o.config.DailyRunHour)
	log.Printf("Run timeout: %v", o.config.RunTimeout)
	log.Println()

	ctx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	if o.config.EnableDailyRun {
		go o.runDailySchedule(ctx)
	}

	<-ctx.Done()
	log.Println("Scheduler orchestrator stopping...")
}

// Stop gracefully stops the scheduler
func (o *Orchestrator) Stop() {
	log.Println("Stopping scheduler orchestrator...")
	if o.cancel != nil {
		o.cancel()
	}
	log.Println("✓ Scheduler orchestrator stopped")
}

// runDailySchedule sleeps until the configured hour, runs, and repeats.
func (o *Orchestrator) runDailySchedule(ctx context.Context) {
	log.Printf("→ Daily pipeline schedule started (runs at %02d:00 daily)", o.config.DailyRunHour)

	for {
		now := time.Now()
		nextRun := time.Date(now.Year(), now.Month(), now.Day(), o.config.DailyRunHour, 0, 0, 0, now.Location())
		if now.After(nextRun) {
			nextRun = nextRun.Add(24 * time.Hour)
		}

		waitDuration := time.Until(nextRun)
		log.Printf("  Next pipeline run: %s (in %v)", nextRun.Format("2006-01-02 15:04:05"), waitDuration.Round(time.Second))

		select {
		case <-ctx.Done():
			log.Println("→ Daily pipeline schedule stopped")
			return
		case <-time.After(waitDuration):
			log.Println()
			log.Println("═══ Pipeline Run Starting ═══")
			if _, err := o.run(ctx, "schedule"); err != nil {
				log.Printf("❌ Pipeline run failed: %v", err)
			}
			log.Println("═══ Pipeline Run Complete ═══")
			log.Println()
		}
	}
}

// TriggerRun starts a full pipeline run immediately. Returns
// ErrRunInProgress when one is already active.
func (o *Orchestrator) TriggerRun(ctx context.Context) (*Report, error) {
	return o.run(ctx, "manual")
}

// StartRun launches a run in the background, reserving the run slot before
// returning so a second trigger fails fast with ErrRunInProgress.
func (o *Orchestrator) StartRun(replay bool) error {
	if err := o.acquire(); err != nil {
		return err
	}

	go func() {
		defer o.release()

		ctx, cancel := context.WithTimeout(context.Background(), o.config.RunTimeout)
		defer cancel()

		if replay {
			o.replayLocked(ctx)
			return
		}
		o.runLocked(ctx, "manual")
	}()
	return nil
}

// RunFromLatest replays the most recent persisted snapshots through import
// and reconciliation without scraping.
func (o *Orchestrator) RunFromLatest(ctx context.Context) (*Report, error) {
	if err := o.acquire(); err != nil {
		return nil, err
	}
	defer o.release()

	ctx, cancel := context.WithTimeout(ctx, o.config.RunTimeout)
	defer cancel()

	return o.replayLocked(ctx), nil
}

// replayLocked assumes the run slot is held.
func (o *Orchestrator) replayLocked(ctx context.Context) *Report {
	report := &Report{StartedAt: time.Now(), Trigger: "replay"}
	for _, source := range o.deps.Sources {
		snap, err := snapshot.LoadLatest(o.deps.Writer.Dir, source.Name())
		if err != nil {
			log.Printf("⚠️  No stored snapshot for %s: %v", source.Name(), err)
			report.Sources = append(report.Sources, SourceReport{Source: source.Name(), Error: err.Error()})
			continue
		}
		report.Sources = append(report.Sources, o.applySnapshot(ctx, snap))
	}

	o.finishRun(ctx, report)
	return report
}

// GetStatus returns current scheduler status
func (o *Orchestrator) GetStatus() map[string]interface{} {
	o.mu.Lock()
	defer o.mu.Unlock()

	sources := make([]string, 0, len(o.deps.Sources))
	for _, source := range o.deps.Sources {
		sources = append(sources, source.Name())
	}

	return map[string]interface{}{
		"sources":           sources,
		"daily_run_enabled": o.config.EnableDailyRun,
		"daily_run_hour":    o.config.DailyRunHour,
		"run_timeout":       o.config.RunTimeout.String(),
		"run_in_progress":   o.running,
	}
}

// LatestReport returns the most recent run's report, if any.
func (o *Orchestrator) LatestReport() *Report {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.latest
}

func (o *Orchestrator) acquire() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.running {
		return ErrRunInProgress
	}
	o.running = true
	return nil
}

func (o *Orchestrator) release() {
	o.mu.Lock()
	o.running = false
	o.mu.Unlock()
}

func (o *Orchestrator) run(ctx context.Context, trigger string) (*Report, error) {
	if err := o.acquire(); err != nil {
		return nil, err
	}
	defer o.release()

	ctx, cancel := context.WithTimeout(ctx, o.config.RunTimeout)
	defer cancel()

	return o.runLocked(ctx, trigger)
}

// runLocked assumes the run slot is held.
func (o *Orchestrator) runLocked(ctx context.Context, trigger string) (*Report, error) {
	report := &Report{StartedAt: time.Now(), Trigger: trigger}
	for _, source := range o.deps.Sources {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("run aborted: %w", err)
		}
		report.Sources = append(report.Sources, o.runSource(ctx, source))
	}

	o.finishRun(ctx, report)
	return report, nil
}

// runSource scrapes one source with bounded retry and applies the result.
// A source that fails every attempt is reported and skipped; the run
// continues with the remaining sources.
func (o *Orchestrator) runSource(ctx context.Context, source ingest.Source) SourceReport {
	var snap *snapshot.Snapshot
	var err error

	for attempt := 1; attempt <= o.config.MaxRetries; attempt++ {
		snap, err = source.Scrape(ctx, o.config.Extraction)
		if err == nil {
			break
		}

		log.Printf("  ⚠️  %s scrape attempt %d/%d failed: %v", source.Name(), attempt, o.config.MaxRetries, err)
		if attempt < o.config.MaxRetries {
			select {
			case <-ctx.Done():
				return SourceReport{Source: source.Name(), Error: ctx.Err().Error()}
			case <-time.After(o.config.RetryDelay):
			}
		}
	}
	if err != nil {
		return SourceReport{Source: source.Name(), Error: err.Error()}
	}

	if err := o.deps.Writer.Write(snap); err != nil {
		log.Printf("  ⚠️  Failed to persist %s snapshot: %v", snap.Source, err)
	}

	return o.applySnapshot(ctx, snap)
}

func (o *Orchestrator) applySnapshot(ctx context.Context, snap *snapshot.Snapshot) SourceReport {
	report := SourceReport{
		Source:   snap.Source,
		Events:   len(snap.Events),
		Athletes: len(snap.Athletes),
	}

	imported, err := o.deps.Importer.Import(ctx, snap)
	if err != nil {
		report.Error = err.Error()
		return report
	}
	report.Import = imported

	reconciled, err := o.deps.Reconciler.Reconcile(ctx, snap)
	if err != nil {
		report.Error = err.Error()
		return report
	}
	report.Reconcile = reconciled

	return report
}

// finishRun closes out lifecycle state for elapsed events, records the
// report, and announces it.
func (o *Orchestrator) finishRun(ctx context.Context, report *Report) {
	now := time.Now()
	cutoff := now.Truncate(24 * time.Hour)

	if o.deps.Fights != nil {
		n, err := o.deps.Fights.MarkElapsedCompleted(ctx, cutoff)
		if err != nil {
			log.Printf("  ⚠️  Failed to complete elapsed fights: %v", err)
		} else {
			report.FightsCompleted = n
		}
	}
	if o.deps.Events != nil {
		n, err := o.deps.Events.MarkElapsedCompleted(ctx, cutoff)
		if err != nil {
			log.Printf("  ⚠️  Failed to complete elapsed events: %v", err)
		} else {
			report.EventsCompleted = n
		}
	}

	report.FinishedAt = now
	report.Duration = now.Sub(report.StartedAt).Round(time.Millisecond).String()

	o.mu.Lock()
	o.latest = report
	o.mu.Unlock()

	if o.deps.Cache != nil {
		if err := o.deps.Cache.StoreLatestRun(ctx, report); err != nil {
			log.Printf("  ⚠️  Failed to cache run report: %v", err)
		}
	}
	if o.deps.Publisher != nil {
		if err := o.deps.Publisher.PublishRunReport(ctx, report); err != nil {
			log.Printf("  ⚠️  Failed to publish run report: %v", err)
		}
	}

	log.Printf("✓ Pipeline run complete in %s (%d source(s))", report.Duration, len(report.Sources))
}
