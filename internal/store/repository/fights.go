package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/fortuna/cutman/internal/store"
)

// FightRepository handles canonical fight data access
type FightRepository struct {
	db *store.Database
}

// NewFightRepository creates a new fight repository
func NewFightRepository(db *store.Database) *FightRepository {
	return &FightRepository{db: db}
}

// Upsert inserts or updates a fight by its (event, unordered fighter pair)
// key. The pair is made canonical before writing, so upserting A-vs-B and
// B-vs-A hits the same row. Mutable attributes refresh on conflict; status
// never changes here, only the reconciliation engine transitions it.
func (r *FightRepository) Upsert(ctx context.Context, fight *store.Fight) error {
	if fight.FighterAID == fight.FighterBID {
		return fmt.Errorf("fight on event %d references the same fighter twice (id %d)", fight.EventID, fight.FighterAID)
	}
	if fight.FighterAID > fight.FighterBID {
		fight.FighterAID, fight.FighterBID = fight.FighterBID, fight.FighterAID
	}
	if fight.Status == "" {
		fight.Status = store.FightUpcoming
	}

	query := `
		INSERT INTO fights (event_id, fighter_a_id, fighter_b_id, weight_class,
			title_fight, card_position, scheduled_rounds, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (event_id, fighter_a_id, fighter_b_id) DO UPDATE SET
			weight_class = COALESCE(NULLIF(EXCLUDED.weight_class, ''), fights.weight_class),
			title_fight = EXCLUDED.title_fight,
			card_position = COALESCE(EXCLUDED.card_position, fights.card_position),
			scheduled_rounds = COALESCE(EXCLUDED.scheduled_rounds, fights.scheduled_rounds),
			updated_at = NOW()
		RETURNING fight_id, status
	`

	err := r.db.DB().QueryRowContext(ctx, query,
		fight.EventID, fight.FighterAID, fight.FighterBID, fight.WeightClass,
		fight.TitleFight, fight.CardPosition, fight.ScheduledRounds, fight.Status,
	).Scan(&fight.FightID, &fight.Status)

	if err != nil {
		return fmt.Errorf("upserting fight %d-%d on event %d: %w",
			fight.FighterAID, fight.FighterBID, fight.EventID, err)
	}

	return nil
}

// GetPairingsByEventAndStatus returns the persisted fights on an event in any
// of the given statuses, joined with both fighter names, the shape the
// reconciliation engine compares a fresh snapshot against.
func (r *FightRepository) GetPairingsByEventAndStatus(ctx context.Context, eventID int, statuses ...string) ([]store.FightPairing, error) {
	query := `
		SELECT f.fight_id, f.event_id, f.status,
			fa.first_name, fa.last_name,
			fb.first_name, fb.last_name
		FROM fights f
		JOIN fighters fa ON fa.fighter_id = f.fighter_a_id
		JOIN fighters fb ON fb.fighter_id = f.fighter_b_id
		WHERE f.event_id = $1 AND f.status = ANY($2)
		ORDER BY f.fight_id
	`

	rows, err := r.db.DB().QueryContext(ctx, query, eventID, pq.Array(statuses))
	if err != nil {
		return nil, fmt.Errorf("querying fight pairings: %w", err)
	}
	defer rows.Close()

	var pairings []store.FightPairing
	for rows.Next() {
		var p store.FightPairing
		if err := rows.Scan(
			&p.FightID, &p.EventID, &p.Status,
			&p.FighterA.First, &p.FighterA.Last,
			&p.FighterB.First, &p.FighterB.Last,
		); err != nil {
			return nil, fmt.Errorf("scanning fight pairing: %w", err)
		}
		pairings = append(pairings, p)
	}

	return pairings, rows.Err()
}

// MarkElapsedCompleted transitions active fights on events dated before the
// cutoff to completed, returning how many changed. Cancelled fights stay
// cancelled.
func (r *FightRepository) MarkElapsedCompleted(ctx context.Context, before time.Time) (int64, error) {
	query := `
		UPDATE fights SET status = $2, updated_at = NOW()
		WHERE status IN ($3, $4)
		  AND event_id IN (SELECT event_id FROM events WHERE event_date < $1)
	`
	res, err := r.db.DB().ExecContext(ctx, query, before,
		store.FightCompleted, store.FightUpcoming, store.FightLive)
	if err != nil {
		return 0, fmt.Errorf("completing elapsed fights: %w", err)
	}
	return res.RowsAffected()
}

// SetStatus transitions a fight's status
func (r *FightRepository) SetStatus(ctx context.Context, fightID int, status string) error {
	query := `UPDATE fights SET status = $2, updated_at = NOW() WHERE fight_id = $1`
	if _, err := r.db.DB().ExecContext(ctx, query, fightID, status); err != nil {
		return fmt.Errorf("setting fight %d status: %w", fightID, err)
	}
	return nil
}
