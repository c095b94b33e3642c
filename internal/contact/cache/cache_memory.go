package cache

import (
	"context"
	"sync"
	"time"

	"reconciler/internal/contact/models"
)

// InMemory is a process-local cluster cache used when Redis is not
// configured and in tests.
type InMemory struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[models.ContactID]memoryEntry
}

type memoryEntry struct {
	view      models.ClusterView
	expiresAt time.Time
}

func NewInMemory(ttl time.Duration) *InMemory {
	return &InMemory{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[models.ContactID]memoryEntry),
	}
}

func (c *InMemory) Get(_ context.Context, primaryID models.ContactID) (*models.ClusterView, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[primaryID]
	if !ok {
		return nil, false
	}
	if c.ttl > 0 && !c.now().Before(entry.expiresAt) {
		delete(c.entries, primaryID)
		return nil, false
	}
	return cloneView(&entry.view), true
}

func (c *InMemory) Set(_ context.Context, view *models.ClusterView) error {
	if view == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[view.PrimaryContactID] = memoryEntry{
		view:      *cloneView(view),
		expiresAt: c.now().Add(c.ttl),
	}
	return nil
}

func (c *InMemory) Invalidate(_ context.Context, primaryIDs ...models.ContactID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range primaryIDs {
		delete(c.entries, id)
	}
	return nil
}

// Len reports the number of cached views, expired ones included.
func (c *InMemory) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func cloneView(v *models.ClusterView) *models.ClusterView {
	return &models.ClusterView{
		PrimaryContactID:    v.PrimaryContactID,
		Emails:              append([]string{}, v.Emails...),
		PhoneNumbers:        append([]string{}, v.PhoneNumbers...),
		SecondaryContactIDs: append([]models.ContactID{}, v.SecondaryContactIDs...),
	}
}
