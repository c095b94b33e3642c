package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"reconciler/internal/contact/ports"
	"reconciler/internal/platform/database"
	txcontext "reconciler/pkg/platform/tx"
)

// PostgresTx runs each resolve in a SERIALIZABLE transaction. Two resolves
// racing on the same identity cannot both commit; the loser fails with
// sentinel.ErrConflict and the service re-runs it against the winner's state.
type PostgresTx struct {
	db      *sql.DB
	store   *PostgresStore
	timeout time.Duration
}

func NewPostgresTx(db *sql.DB, store *PostgresStore, timeout time.Duration) *PostgresTx {
	return &PostgresTx{db: db, store: store, timeout: timeout}
}

func (t *PostgresTx) RunInTx(ctx context.Context, fn func(ctx context.Context, store ports.Store) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("transaction aborted: %w", err)
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return database.Classify("begin resolve transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(txcontext.WithTx(ctx, tx), t.store); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return database.Classify("commit resolve transaction", err)
	}
	return nil
}
