// Package ports defines the interfaces the contact service depends on.
// Stores, the transaction runner, and the cluster cache implement them; the
// service never imports an implementation.
package ports

import (
	"context"
	"time"

	"reconciler/internal/contact/models"
	"reconciler/internal/outbox"
)

// Store is pure I/O over contact records. Every list it returns is ordered
// oldest first (CreatedAt, then ID).
type Store interface {
	// FindByEmailOrPhone returns contacts whose email equals email OR whose
	// phone number equals phone. A nil field matches nothing.
	FindByEmailOrPhone(ctx context.Context, email, phone *string) ([]*models.Contact, error)

	// FindByEmailsOrPhones is the set form used while expanding a cluster.
	FindByEmailsOrPhones(ctx context.Context, emails, phones []string) ([]*models.Contact, error)

	// FindByIdsOrLinkedIds returns contacts whose id is in ids OR whose
	// linked id is in ids.
	FindByIdsOrLinkedIds(ctx context.Context, ids []models.ContactID) ([]*models.Contact, error)

	// FindByID returns sentinel.ErrNotFound when the contact does not exist.
	FindByID(ctx context.Context, id models.ContactID) (*models.Contact, error)

	// Insert assigns the id and returns the stored record.
	Insert(ctx context.Context, contact *models.Contact) (*models.Contact, error)

	// UpdatePrecedence rewrites the link fields of one contact.
	UpdatePrecedence(ctx context.Context, id models.ContactID, precedence models.LinkPrecedence, linkedID *models.ContactID, now time.Time) error

	// RelinkSecondaries points every secondary of from at to and returns the
	// ids it moved.
	RelinkSecondaries(ctx context.Context, from, to models.ContactID, now time.Time) ([]models.ContactID, error)
}

// StoreTx provides the transactional boundary for one resolve. The ctx handed
// to fn carries the transaction so other stores (outbox, orders) join it.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, store Store) error) error
}

// ClusterCache caches cluster views by primary id. Implementations must
// tolerate being unavailable: a failed read is a miss.
type ClusterCache interface {
	Get(ctx context.Context, primaryID models.ContactID) (*models.ClusterView, bool)
	Set(ctx context.Context, view *models.ClusterView) error
	Invalidate(ctx context.Context, primaryIDs ...models.ContactID) error
}

// EventSink appends domain events, joining the transaction carried by ctx.
type EventSink interface {
	Append(ctx context.Context, event outbox.Event) error
}
