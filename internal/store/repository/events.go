package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fortuna/cutman/internal/store"
)

// EventRepository handles canonical event data access
type EventRepository struct {
	db *store.Database
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *store.Database) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `event_id, name, promotion, event_date, start_time, venue,
	location, banner_url, source_url, status, created_at, updated_at`

// GetBySourceURL finds an event by its upstream page URL
func (r *EventRepository) GetBySourceURL(ctx context.Context, sourceURL string) (*store.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE source_url = $1`
	return r.scanEvent(r.db.DB().QueryRowContext(ctx, query, sourceURL))
}

// GetByNameAndDate finds an event by the (name, date) fallback key, used for
// publishers whose pages carry no stable URL
func (r *EventRepository) GetByNameAndDate(ctx context.Context, name string, date time.Time) (*store.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE LOWER(name) = LOWER($1) AND event_date::date = $2::date
	`
	return r.scanEvent(r.db.DB().QueryRowContext(ctx, query, name, date))
}

// GetUpcoming returns events at or after the given time
func (r *EventRepository) GetUpcoming(ctx context.Context, from time.Time, limit int) ([]*store.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE event_date >= $1 AND status <> 'completed'
		ORDER BY event_date
		LIMIT $2
	`

	rows, err := r.db.DB().QueryContext(ctx, query, from, limit)
	if err != nil {
		return nil, fmt.Errorf("querying upcoming events: %w", err)
	}
	defer rows.Close()

	var events []*store.Event
	for rows.Next() {
		event, err := r.scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// Upsert inserts or updates an event by its identity key: source URL when
// available, (name, date) otherwise. The same key never yields a second row.
// Status is set on insert only; lifecycle transitions go through SetStatus.
func (r *EventRepository) Upsert(ctx context.Context, event *store.Event) error {
	if event.SourceURL.Valid && event.SourceURL.String != "" {
		return r.upsertBySourceURL(ctx, event)
	}
	return r.upsertByNameAndDate(ctx, event)
}

func (r *EventRepository) upsertBySourceURL(ctx context.Context, event *store.Event) error {
	query := `
		INSERT INTO events (name, promotion, event_date, start_time, venue, location,
			banner_url, source_url, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (source_url) WHERE source_url IS NOT NULL DO UPDATE SET
			name = EXCLUDED.name,
			promotion = COALESCE(NULLIF(EXCLUDED.promotion, ''), events.promotion),
			event_date = EXCLUDED.event_date,
			start_time = COALESCE(NULLIF(EXCLUDED.start_time, ''), events.start_time),
			venue = COALESCE(NULLIF(EXCLUDED.venue, ''), events.venue),
			location = COALESCE(NULLIF(EXCLUDED.location, ''), events.location),
			banner_url = COALESCE(NULLIF(EXCLUDED.banner_url, ''), events.banner_url),
			updated_at = NOW()
		RETURNING event_id
	`

	err := r.db.DB().QueryRowContext(ctx, query,
		event.Name, event.Promotion, event.EventDate, event.StartTime,
		event.Venue, event.Location, event.BannerURL, event.SourceURL, event.Status,
	).Scan(&event.EventID)

	if err != nil {
		return fmt.Errorf("upserting event %q: %w", event.Name, err)
	}
	return nil
}

func (r *EventRepository) upsertByNameAndDate(ctx context.Context, event *store.Event) error {
	existing, err := r.GetByNameAndDate(ctx, event.Name, event.EventDate)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}

	if existing != nil {
		query := `
			UPDATE events SET
				promotion = COALESCE(NULLIF($2, ''), promotion),
				event_date = $3,
				start_time = COALESCE(NULLIF($4, ''), start_time),
				venue = COALESCE(NULLIF($5, ''), venue),
				location = COALESCE(NULLIF($6, ''), location),
				banner_url = COALESCE(NULLIF($7, ''), banner_url),
				updated_at = NOW()
			WHERE event_id = $1
		`
		if _, err := r.db.DB().ExecContext(ctx, query,
			existing.EventID, event.Promotion.String, event.EventDate, event.StartTime.String,
			event.Venue.String, event.Location.String, event.BannerURL.String,
		); err != nil {
			return fmt.Errorf("updating event %q: %w", event.Name, err)
		}
		event.EventID = existing.EventID
		return nil
	}

	query := `
		INSERT INTO events (name, promotion, event_date, start_time, venue, location,
			banner_url, source_url, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULL, $8)
		RETURNING event_id
	`
	err = r.db.DB().QueryRowContext(ctx, query,
		event.Name, event.Promotion, event.EventDate, event.StartTime,
		event.Venue, event.Location, event.BannerURL, event.Status,
	).Scan(&event.EventID)

	if err != nil {
		return fmt.Errorf("inserting event %q: %w", event.Name, err)
	}
	return nil
}

// MarkElapsedCompleted transitions events dated before the cutoff to
// completed, returning how many changed.
func (r *EventRepository) MarkElapsedCompleted(ctx context.Context, before time.Time) (int64, error) {
	query := `
		UPDATE events SET status = $2, updated_at = NOW()
		WHERE event_date < $1 AND status <> $2
	`
	res, err := r.db.DB().ExecContext(ctx, query, before, store.EventCompleted)
	if err != nil {
		return 0, fmt.Errorf("completing elapsed events: %w", err)
	}
	return res.RowsAffected()
}

// SetStatus transitions an event's lifecycle status
func (r *EventRepository) SetStatus(ctx context.Context, eventID int, status string) error {
	query := `UPDATE events SET status = $2, updated_at = NOW() WHERE event_id = $1`
	if _, err := r.db.DB().ExecContext(ctx, query, eventID, status); err != nil {
		return fmt.Errorf("setting event %d status: %w", eventID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *EventRepository) scanEvent(row rowScanner) (*store.Event, error) {
	event := &store.Event{}
	err := row.Scan(
		&event.EventID, &event.Name, &event.Promotion, &event.EventDate, &event.StartTime,
		&event.Venue, &event.Location, &event.BannerURL, &event.SourceURL, &event.Status,
		&event.CreatedAt, &event.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("event: %w", store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning event: %w", err)
	}
	return event, nil
}
