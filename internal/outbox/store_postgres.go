package outbox

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"reconciler/internal/platform/database"
	txcontext "reconciler/pkg/platform/tx"
)

// PostgresStore writes events to the outbox table, joining the transaction
// carried by ctx so events commit or roll back with the writes behind them.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	query := `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, query,
		event.ID,
		event.AggregateType,
		event.AggregateID,
		string(event.Type),
		[]byte(event.Payload),
		event.CreatedAt,
	)
	if err != nil {
		return database.Classify("insert outbox entry", err)
	}
	return nil
}

// ProcessBatch locks up to limit unpublished rows with SKIP LOCKED so
// concurrent workers split the backlog, hands them to fn, and marks them
// published in the same transaction.
func (s *PostgresStore) ProcessBatch(ctx context.Context, limit int, now time.Time, fn func(ctx context.Context, events []Event) error) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, database.Classify("begin outbox batch", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	rows, err := tx.QueryContext(ctx, `
		SELECT id, aggregate_type, aggregate_id, event_type, payload, created_at
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY created_at, id
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, limit)
	if err != nil {
		return 0, database.Classify("select outbox batch", err)
	}
	events, err := scanEvents(rows)
	if err != nil {
		return 0, err
	}
	if len(events) == 0 {
		return 0, nil
	}

	if err := fn(ctx, events); err != nil {
		return 0, err
	}

	ids := make([]uuid.UUID, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE outbox SET published_at = $2 WHERE id = ANY($1::uuid[])`,
		pq.Array(uuidStrings(ids)), now,
	); err != nil {
		return 0, database.Classify("mark outbox published", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, database.Classify("commit outbox batch", err)
	}
	return len(events), nil
}

func scanEvents(rows *sql.Rows) ([]Event, error) {
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e         Event
			eventType string
			payload   []byte
		)
		if err := rows.Scan(&e.ID, &e.AggregateType, &e.AggregateID, &eventType, &payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		e.Type = EventType(eventType)
		e.Payload = payload
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, database.Classify("iterate outbox entries", err)
	}
	return events, nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
