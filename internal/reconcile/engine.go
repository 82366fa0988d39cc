// Package reconcile compares a fresh scrape snapshot against the persisted
// fight state and applies repair transitions: bouts that vanished upstream
// close to fight night are cancelled, and cancelled bouts whose exact
// pairing reappears are restored. Completed fights are terminal and never
// revisited.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/fortuna/cutman/internal/snapshot"
	"github.com/fortuna/cutman/internal/store"
)

// EventStore is the slice of the event repository the engine needs.
type EventStore interface {
	GetBySourceURL(ctx context.Context, sourceURL string) (*store.Event, error)
	GetByNameAndDate(ctx context.Context, name string, date time.Time) (*store.Event, error)
}

// FightStore is the slice of the fight repository the engine needs.
type FightStore interface {
	GetPairingsByEventAndStatus(ctx context.Context, eventID int, statuses ...string) ([]store.FightPairing, error)
	SetStatus(ctx context.Context, fightID int, status string) error
}

// StatusChange describes one applied fight transition.
type StatusChange struct {
	FightID   int       `json:"fight_id"`
	EventID   int       `json:"event_id"`
	EventName string    `json:"event_name"`
	FighterA  string    `json:"fighter_a"`
	FighterB  string    `json:"fighter_b"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	ChangedAt time.Time `json:"changed_at"`
}

// Publisher receives applied transitions for downstream consumers.
type Publisher interface {
	PublishFightStatus(ctx context.Context, change StatusChange) error
}

// Config tunes the engine's cancellation behavior.
type Config struct {
	// CancelWindow is how close to fight night a bout must be before its
	// absence from a snapshot is treated as a cancellation rather than a
	// listing gap.
	CancelWindow time.Duration
}

func DefaultConfig() *Config {
	return &Config{CancelWindow: 7 * 24 * time.Hour}
}

// Result summarizes one reconciliation pass.
type Result struct {
	EventsChecked   int
	FightsCancelled int
	FightsRestored  int
}

// Engine applies snapshot-versus-store repair transitions.
type Engine struct {
	events    EventStore
	fights    FightStore
	publisher Publisher // nil disables publishing
	config    *Config
}

func NewEngine(events EventStore, fights FightStore, publisher Publisher, config *Config) *Engine {
	if config == nil {
		config = DefaultConfig()
	}
	return &Engine{
		events:    events,
		fights:    fights,
		publisher: publisher,
		config:    config,
	}
}

// Reconcile runs both passes for every event in the snapshot. Events the
// snapshot knows but the store does not are skipped; they belong to an
// import that has not happened yet.
func (e *Engine) Reconcile(ctx context.Context, snap *snapshot.Snapshot) (*Result, error) {
	now := snap.ScrapedAt
	if now.IsZero() {
		now = time.Now()
	}

	fighterKeys := snapshotFighterKeys(snap)

	result := &Result{}
	for i := range snap.Events {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		rec := &snap.Events[i]
		event, err := e.lookupEvent(ctx, rec)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			log.Printf("[reconcile] ⚠️  Lookup failed for %q, skipping: %v", rec.Name, err)
			continue
		}

		if err := e.reconcileEvent(ctx, event, rec, fighterKeys, now, result); err != nil {
			log.Printf("[reconcile] ⚠️  Event %q failed, skipping: %v", rec.Name, err)
			continue
		}
		result.EventsChecked++
	}

	log.Printf("[reconcile] ✓ %s: %d event(s) checked, %d cancelled, %d restored",
		snap.Source, result.EventsChecked, result.FightsCancelled, result.FightsRestored)
	return result, nil
}

func (e *Engine) lookupEvent(ctx context.Context, rec *snapshot.EventRecord) (*store.Event, error) {
	if rec.SourceURL != "" {
		return e.events.GetBySourceURL(ctx, rec.SourceURL)
	}
	return e.events.GetByNameAndDate(ctx, rec.Name, rec.Date)
}

// snapshotFighterKeys collects every fighter appearing anywhere in the
// snapshot, any event, any bout, plus the athlete roster. A fighter seen
// here while their persisted bout is missing has been rebooked, which is
// cancellation evidence even outside the cancel window.
func snapshotFighterKeys(snap *snapshot.Snapshot) map[string]bool {
	keys := make(map[string]bool)
	add := func(f snapshot.FighterRecord) {
		if name := f.Name(); !name.IsZero() {
			keys[name.Key()] = true
		}
	}
	for _, ev := range snap.Events {
		for _, fight := range ev.Fights {
			add(fight.FighterA)
			add(fight.FighterB)
		}
	}
	for _, athlete := range snap.Athletes {
		add(athlete)
	}
	return keys
}

func (e *Engine) reconcileEvent(ctx context.Context, event *store.Event, rec *snapshot.EventRecord, fighterKeys map[string]bool, now time.Time, result *Result) error {
	pairKeys := make(map[string]bool, len(rec.Fights))
	for _, fight := range rec.Fights {
		pairKeys[fight.PairKey()] = true
	}

	// Pass 1: active bouts missing from the snapshot.
	active, err := e.fights.GetPairingsByEventAndStatus(ctx, event.EventID,
		store.FightUpcoming, store.FightLive)
	if err != nil {
		return fmt.Errorf("loading active fights: %w", err)
	}

	withinWindow := event.EventDate.Sub(now) <= e.config.CancelWindow
	for _, pairing := range active {
		if pairKeys[pairing.PairKey()] {
			continue
		}

		// A fighter listed elsewhere in the snapshot while this bout is
		// missing has been rebooked, a cancellation signal regardless of
		// how far out the event is.
		rebooked := fighterKeys[pairing.FighterA.Key()] || fighterKeys[pairing.FighterB.Key()]
		if !withinWindow && !rebooked {
			continue
		}

		if err := e.transition(ctx, event, pairing, store.FightCancelled, now); err != nil {
			return err
		}
		result.FightsCancelled++
	}

	// Pass 2: cancelled bouts whose exact pairing is listed again.
	cancelled, err := e.fights.GetPairingsByEventAndStatus(ctx, event.EventID, store.FightCancelled)
	if err != nil {
		return fmt.Errorf("loading cancelled fights: %w", err)
	}

	for _, pairing := range cancelled {
		if !pairKeys[pairing.PairKey()] {
			continue
		}
		if err := e.transition(ctx, event, pairing, store.FightUpcoming, now); err != nil {
			return err
		}
		result.FightsRestored++
	}

	return nil
}

func (e *Engine) transition(ctx context.Context, event *store.Event, pairing store.FightPairing, to string, now time.Time) error {
	if err := e.fights.SetStatus(ctx, pairing.FightID, to); err != nil {
		return fmt.Errorf("transitioning fight %d to %s: %w", pairing.FightID, to, err)
	}

	log.Printf("[reconcile] %s vs %s: %s → %s (%s)",
		pairing.FighterA.Display(), pairing.FighterB.Display(), pairing.Status, to, event.Name)

	if e.publisher == nil {
		return nil
	}

	change := StatusChange{
		FightID:   pairing.FightID,
		EventID:   event.EventID,
		EventName: event.Name,
		FighterA:  pairing.FighterA.Display(),
		FighterB:  pairing.FighterB.Display(),
		From:      pairing.Status,
		To:        to,
		ChangedAt: now,
	}
	if err := e.publisher.PublishFightStatus(ctx, change); err != nil {
		log.Printf("[reconcile] ⚠️  Publish failed for fight %d: %v", pairing.FightID, err)
	}
	return nil
}
