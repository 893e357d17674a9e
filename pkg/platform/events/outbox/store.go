// Package outbox persists events in the caller's database transaction and
// relays them to a downstream publisher afterwards, so an event is published
// if and only if the state change that produced it committed.
package outbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"exportdocs/pkg/platform/events"
	txcontext "exportdocs/pkg/platform/tx"
)

// Store implements events.Publisher by inserting into the outbox table.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Publish writes envelopes to the outbox, joining a transaction in ctx.
func (s *Store) Publish(ctx context.Context, evs ...events.Envelope) error {
	const query = `
		INSERT INTO outbox (id, event_type, organization_id, aggregate_type, aggregate_id, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	conn := txcontext.Conn(ctx, s.db)
	for _, e := range evs {
		payload, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshal outbox payload: %w", err)
		}
		_, err = conn.ExecContext(ctx, query,
			uuid.UUID(e.ID),
			e.Type,
			uuid.UUID(e.OrganizationID),
			e.AggregateType,
			e.AggregateID,
			payload,
			e.OccurredAt,
		)
		if err != nil {
			return fmt.Errorf("insert outbox entry: %w", err)
		}
	}
	return nil
}

// Drain locks up to limit unpublished entries, hands them to fn in creation
// order and marks them published when fn succeeds. Concurrent relays skip
// each other's locked rows.
func (s *Store) Drain(ctx context.Context, limit int, fn func(ctx context.Context, evs []events.Envelope) error) (int, error) {
	n := 0
	err := txcontext.Run(ctx, s.db, func(ctx context.Context) error {
		conn := txcontext.Conn(ctx, s.db)
		rows, err := conn.QueryContext(ctx, `
			SELECT id, payload
			FROM outbox
			WHERE published_at IS NULL
			ORDER BY created_at, id
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		`, limit)
		if err != nil {
			return fmt.Errorf("select outbox entries: %w", err)
		}
		defer rows.Close()

		var ids []uuid.UUID
		var evs []events.Envelope
		for rows.Next() {
			var rowID uuid.UUID
			var payload []byte
			if err := rows.Scan(&rowID, &payload); err != nil {
				return fmt.Errorf("scan outbox entry: %w", err)
			}
			var e events.Envelope
			if err := json.Unmarshal(payload, &e); err != nil {
				return fmt.Errorf("decode outbox entry %s: %w", rowID, err)
			}
			ids = append(ids, rowID)
			evs = append(evs, e)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate outbox entries: %w", err)
		}
		if len(evs) == 0 {
			return nil
		}

		if err := fn(ctx, evs); err != nil {
			return err
		}

		if _, err := conn.ExecContext(ctx,
			`UPDATE outbox SET published_at = $1 WHERE id = ANY($2::uuid[])`,
			time.Now().UTC(), pq.Array(uuidStrings(ids)),
		); err != nil {
			return fmt.Errorf("mark outbox entries published: %w", err)
		}
		n = len(evs)
		return nil
	})
	return n, err
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, u := range ids {
		out[i] = u.String()
	}
	return out
}
