// Package importer applies a scrape snapshot to the canonical store:
// fighters first, then the event, then its fights, so every foreign key
// exists before the row that references it. Re-importing the same snapshot
// is a no-op apart from refreshed mutable fields.
package importer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/fortuna/cutman/internal/assets"
	"github.com/fortuna/cutman/internal/identity"
	"github.com/fortuna/cutman/internal/snapshot"
	"github.com/fortuna/cutman/internal/store"
)

// FighterResolver resolves source fighter references to canonical rows.
type FighterResolver interface {
	Resolve(ctx context.Context, ref snapshot.FighterRecord) (*store.Fighter, error)
	Stats() (created, updated int)
	Reset()
}

// EventStore is the slice of the event repository the importer needs.
type EventStore interface {
	Upsert(ctx context.Context, event *store.Event) error
}

// FightStore is the slice of the fight repository the importer needs.
type FightStore interface {
	Upsert(ctx context.Context, fight *store.Fight) error
}

// ImageFetcher mirrors an upstream image and returns its stored reference.
type ImageFetcher interface {
	Fetch(ctx context.Context, imageURL, entityName string) (string, error)
}

// Result summarizes one snapshot import.
type Result struct {
	EventsImported  int
	EventsFailed    int
	FightsImported  int
	FightsDropped   int
	FightersCreated int
	FightersUpdated int
	ImagesMirrored  int
}

// Importer orchestrates the per-event upsert sequence.
type Importer struct {
	resolver FighterResolver
	events   EventStore
	fights   FightStore
	images   ImageFetcher // nil disables image mirroring
}

func New(resolver FighterResolver, events EventStore, fights FightStore, images ImageFetcher) *Importer {
	return &Importer{
		resolver: resolver,
		events:   events,
		fights:   fights,
		images:   images,
	}
}

// Import applies every event in the snapshot. An event that fails to upsert
// is logged and skipped; only context cancellation aborts the run.
func (im *Importer) Import(ctx context.Context, snap *snapshot.Snapshot) (*Result, error) {
	im.resolver.Reset()
	result := &Result{}

	for i := range snap.Events {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if err := im.importEvent(ctx, &snap.Events[i], result); err != nil {
			result.EventsFailed++
			log.Printf("[importer] ⚠️  Event %q failed, skipping: %v", snap.Events[i].Name, err)
			continue
		}
		result.EventsImported++
	}

	result.FightersCreated, result.FightersUpdated = im.resolver.Stats()

	log.Printf("[importer] ✓ %s: %d event(s), %d fight(s) (%d dropped), %d fighter(s) created, %d updated",
		snap.Source, result.EventsImported, result.FightsImported, result.FightsDropped,
		result.FightersCreated, result.FightersUpdated)
	return result, nil
}

func (im *Importer) importEvent(ctx context.Context, rec *snapshot.EventRecord, result *Result) error {
	event := &store.Event{
		Name:      rec.Name,
		Promotion: nullString(rec.Promotion),
		EventDate: rec.Date,
		StartTime: nullString(rec.StartTime),
		Venue:     nullString(rec.Venue),
		Location:  nullString(rec.Location),
		BannerURL: nullString(im.mirrorImage(ctx, rec.BannerURL, rec.Name, result)),
		SourceURL: nullString(rec.SourceURL),
		Status:    store.EventUpcoming,
	}

	if err := im.events.Upsert(ctx, event); err != nil {
		return err
	}

	for _, fightRec := range rec.Fights {
		if err := ctx.Err(); err != nil {
			return err
		}

		switch err := im.importFight(ctx, event.EventID, fightRec, result); {
		case err == nil:
			result.FightsImported++
		case errors.Is(err, identity.ErrImplausibleName), errors.Is(err, errSelfPairing):
			result.FightsDropped++
			log.Printf("[importer] ⚠️  Dropping bout %q vs %q: %v",
				fightRec.FighterA.DisplayName, fightRec.FighterB.DisplayName, err)
		default:
			return fmt.Errorf("upserting bout %q vs %q: %w",
				fightRec.FighterA.DisplayName, fightRec.FighterB.DisplayName, err)
		}
	}

	return nil
}

var errSelfPairing = errors.New("both corners resolve to the same fighter")

func (im *Importer) importFight(ctx context.Context, eventID int, rec snapshot.FightRecord, result *Result) error {
	fighterA, err := im.resolveFighter(ctx, rec.FighterA, result)
	if err != nil {
		return err
	}
	fighterB, err := im.resolveFighter(ctx, rec.FighterB, result)
	if err != nil {
		return err
	}
	if fighterA.FighterID == fighterB.FighterID {
		return errSelfPairing
	}

	fight := &store.Fight{
		EventID:         eventID,
		FighterAID:      fighterA.FighterID,
		FighterBID:      fighterB.FighterID,
		WeightClass:     nullString(rec.WeightClass),
		TitleFight:      rec.TitleFight,
		CardPosition:    nullInt32(rec.CardPosition),
		ScheduledRounds: nullInt32(rec.ScheduledRounds),
		Status:          store.FightUpcoming,
	}

	return im.fights.Upsert(ctx, fight)
}

func (im *Importer) resolveFighter(ctx context.Context, ref snapshot.FighterRecord, result *Result) (*store.Fighter, error) {
	ref.ImageURL = im.mirrorImage(ctx, ref.ImageURL, ref.DisplayName, result)
	return im.resolver.Resolve(ctx, ref)
}

// mirrorImage stores an upstream image and returns the stored reference.
// Placeholder images yield no reference at all; a failed fetch falls back to
// the upstream URL so the record is never worse off than the source's.
func (im *Importer) mirrorImage(ctx context.Context, imageURL, entityName string, result *Result) string {
	if im.images == nil || imageURL == "" {
		return imageURL
	}

	stored, err := im.images.Fetch(ctx, imageURL, entityName)
	switch {
	case err == nil:
		result.ImagesMirrored++
		return stored
	case errors.Is(err, assets.ErrPlaceholder):
		return ""
	default:
		log.Printf("[importer] ⚠️  Image fetch failed for %q, keeping upstream URL: %v", entityName, err)
		return imageURL
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt32(n int) sql.NullInt32 {
	return sql.NullInt32{Int32: int32(n), Valid: n > 0}
}
