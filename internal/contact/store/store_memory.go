package store

import (
	"context"
	"sync"
	"time"

	"reconciler/internal/contact/models"
	"reconciler/pkg/platform/sentinel"
)

// InMemory keeps contacts in process. It hands out clones so callers never
// mutate stored records.
type InMemory struct {
	mu       sync.RWMutex
	contacts map[models.ContactID]*models.Contact
	nextID   models.ContactID
	undo     *undoLog
}

func NewInMemory() *InMemory {
	return &InMemory{
		contacts: make(map[models.ContactID]*models.Contact),
		nextID:   1,
	}
}

func (s *InMemory) FindByEmailOrPhone(_ context.Context, email, phone *string) ([]*models.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(c *models.Contact) bool {
		return (email != nil && c.Email != nil && *c.Email == *email) ||
			(phone != nil && c.PhoneNumber != nil && *c.PhoneNumber == *phone)
	}), nil
}

func (s *InMemory) FindByEmailsOrPhones(_ context.Context, emails, phones []string) ([]*models.Contact, error) {
	emailSet := toSet(emails)
	phoneSet := toSet(phones)

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(c *models.Contact) bool {
		if c.Email != nil {
			if _, ok := emailSet[*c.Email]; ok {
				return true
			}
		}
		if c.PhoneNumber != nil {
			if _, ok := phoneSet[*c.PhoneNumber]; ok {
				return true
			}
		}
		return false
	}), nil
}

func (s *InMemory) FindByIdsOrLinkedIds(_ context.Context, ids []models.ContactID) ([]*models.Contact, error) {
	idSet := make(map[models.ContactID]struct{}, len(ids))
	for _, id := range ids {
		idSet[id] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(c *models.Contact) bool {
		if _, ok := idSet[c.ID]; ok {
			return true
		}
		if c.LinkedID != nil {
			_, ok := idSet[*c.LinkedID]
			return ok
		}
		return false
	}), nil
}

func (s *InMemory) FindByID(_ context.Context, id models.ContactID) (*models.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.contacts[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return c.Clone(), nil
}

func (s *InMemory) Insert(_ context.Context, contact *models.Contact) (*models.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := contact.Clone()
	stored.ID = s.nextID
	s.nextID++
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = stored.CreatedAt
	}
	if stored.LinkedID != nil {
		if _, ok := s.contacts[*stored.LinkedID]; !ok {
			return nil, sentinel.ErrInvalidState
		}
	}
	s.remember(stored.ID, nil)
	s.contacts[stored.ID] = stored
	return stored.Clone(), nil
}

func (s *InMemory) UpdatePrecedence(_ context.Context, id models.ContactID, precedence models.LinkPrecedence, linkedID *models.ContactID, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.contacts[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	s.remember(id, c)
	c.LinkPrecedence = precedence
	if linkedID != nil {
		v := *linkedID
		c.LinkedID = &v
	} else {
		c.LinkedID = nil
	}
	c.UpdatedAt = now
	return nil
}

func (s *InMemory) RelinkSecondaries(_ context.Context, from, to models.ContactID, now time.Time) ([]models.ContactID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var moved []models.ContactID
	for _, c := range s.contacts {
		if c.IsPrimary() || c.LinkedID == nil || *c.LinkedID != from {
			continue
		}
		s.remember(c.ID, c)
		target := to
		c.LinkedID = &target
		c.UpdatedAt = now
		moved = append(moved, c.ID)
	}
	sortIDs(moved)
	return moved, nil
}

// All returns every contact oldest first.
func (s *InMemory) All() []*models.Contact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(*models.Contact) bool { return true })
}

func (s *InMemory) collect(match func(*models.Contact) bool) []*models.Contact {
	var out []*models.Contact
	for _, c := range s.contacts {
		if match(c) {
			out = append(out, c.Clone())
		}
	}
	models.SortOldestFirst(out)
	return out
}

// undoLog holds the state every contact had before the running transaction
// first wrote it. A nil entry marks a contact the transaction inserted.
type undoLog struct {
	before map[models.ContactID]*models.Contact
	nextID models.ContactID
}

// remember records c's current state unless the transaction already did.
// Callers hold s.mu.
func (s *InMemory) remember(id models.ContactID, c *models.Contact) {
	if s.undo == nil {
		return
	}
	if _, ok := s.undo.before[id]; ok {
		return
	}
	if c == nil {
		s.undo.before[id] = nil
		return
	}
	s.undo.before[id] = c.Clone()
}

func (s *InMemory) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.undo = &undoLog{before: make(map[models.ContactID]*models.Contact), nextID: s.nextID}
}

func (s *InMemory) commit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.undo = nil
}

// rollback puts back only the contacts the transaction touched.
func (s *InMemory) rollback() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.undo == nil {
		return
	}
	for id, prev := range s.undo.before {
		if prev == nil {
			delete(s.contacts, id)
			continue
		}
		s.contacts[id] = prev
	}
	s.nextID = s.undo.nextID
	s.undo = nil
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
