package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/dukerupert/deltamc/internal/domain"
	"github.com/jackc/pgx/v5"
)

const (
	listEventsFrom = `
SELECT id, name, description, event_date, max_participants
FROM event_create
WHERE event_date >= $1
ORDER BY event_date ASC`

	countParticipants = `
SELECT event_name, COUNT(*)
FROM events
WHERE event_name = ANY($1)
GROUP BY event_name`

	lockEvent = `
SELECT name, max_participants
FROM event_create
WHERE id = $1
FOR UPDATE`

	countEventParticipants = `SELECT COUNT(*) FROM events WHERE event_name = $1`

	insertParticipant = `INSERT INTO events (event_name, username) VALUES ($1, $2)`
)

// ListEventsFrom returns events dated at or after from, soonest first.
// ParticipantCount is left zero; see CountParticipants.
func (s *Store) ListEventsFrom(ctx context.Context, from time.Time) ([]domain.Event, error) {
	rows, err := s.pool.Query(ctx, listEventsFrom, from)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	events, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Event, error) {
		var e domain.Event
		err := row.Scan(&e.ID, &e.Name, &e.Description, &e.EventDate, &e.MaxParticipants)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// CountParticipants returns the number of registrations per event name.
func (s *Store) CountParticipants(ctx context.Context, eventNames []string) (map[string]int, error) {
	counts := make(map[string]int, len(eventNames))
	if len(eventNames) == 0 {
		return counts, nil
	}

	rows, err := s.pool.Query(ctx, countParticipants, eventNames)
	if err != nil {
		return nil, fmt.Errorf("failed to count participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			name  string
			count int
		)
		if err := rows.Scan(&name, &count); err != nil {
			return nil, fmt.Errorf("failed to scan participant count: %w", err)
		}
		counts[name] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to count participants: %w", err)
	}
	return counts, nil
}

// JoinEvent registers username for the event. The event row is locked so the
// capacity check and the insert see the same participant count.
func (s *Store) JoinEvent(ctx context.Context, eventID int64, username string) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var (
			name            string
			maxParticipants int
		)
		err := tx.QueryRow(ctx, lockEvent, eventID).Scan(&name, &maxParticipants)
		if isNoRows(err) {
			return domain.ErrEventNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock event: %w", err)
		}

		if maxParticipants > 0 {
			var count int
			if err := tx.QueryRow(ctx, countEventParticipants, name).Scan(&count); err != nil {
				return fmt.Errorf("failed to count participants: %w", err)
			}
			if count >= maxParticipants {
				return domain.ErrEventFull
			}
		}

		if _, err := tx.Exec(ctx, insertParticipant, name, username); err != nil {
			if isUniqueViolation(err) {
				return domain.ErrAlreadyRegistered
			}
			return fmt.Errorf("failed to insert participant: %w", err)
		}
		return nil
	})
}
