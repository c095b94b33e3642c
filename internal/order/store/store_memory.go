package store

import (
	"context"
	"sort"
	"sync"
	"time"

	contactmodels "reconciler/internal/contact/models"
	"reconciler/internal/order/models"
)

// InMemory keeps orders in process.
type InMemory struct {
	mu     sync.RWMutex
	orders map[models.OrderID]*models.Order
	nextID models.OrderID
}

func NewInMemory() *InMemory {
	return &InMemory{
		orders: make(map[models.OrderID]*models.Order),
		nextID: 1,
	}
}

func (s *InMemory) Insert(_ context.Context, order *models.Order) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *order
	stored.ID = s.nextID
	s.nextID++
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	s.orders[stored.ID] = &stored
	out := stored
	return &out, nil
}

// ListByContactIDs returns the orders of any of the given contacts, newest
// first.
func (s *InMemory) ListByContactIDs(_ context.Context, ids []contactmodels.ContactID) ([]*models.Order, error) {
	wanted := make(map[contactmodels.ContactID]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Order, 0)
	for _, o := range s.orders {
		if _, ok := wanted[o.ContactID]; ok {
			copied := *o
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}
