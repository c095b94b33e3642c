package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"reconciler/internal/contact/ports"
)

// defaultTxTimeout is the maximum duration of one resolve transaction when
// the caller set no deadline.
const defaultTxTimeout = 5 * time.Second

// InMemoryTx serialises resolves with one coarse lock and undoes the writes of
// fn when it fails, so a failed resolve leaves no partial writes behind. A
// cluster merge can touch any contact, so there is no key to shard on.
type InMemoryTx struct {
	mu      sync.Mutex
	store   *InMemory
	timeout time.Duration
}

func NewInMemoryTx(store *InMemory, timeout time.Duration) *InMemoryTx {
	return &InMemoryTx{store: store, timeout: timeout}
}

func (t *InMemoryTx) RunInTx(ctx context.Context, fn func(ctx context.Context, store ports.Store) error) error {
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

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("transaction aborted: %w", err)
	}

	t.store.begin()
	if err := fn(ctx, t.store); err != nil {
		t.store.rollback()
		return err
	}
	t.store.commit()
	return nil
}
