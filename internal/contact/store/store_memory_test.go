package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"reconciler/internal/contact/models"
	"reconciler/internal/contact/ports"
	dErrors "reconciler/pkg/domain-errors"
	"reconciler/pkg/platform/sentinel"
)

type ContactStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
	base  time.Time
}

func (s *ContactStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.base = time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC)
}

func TestContactStoreSuite(t *testing.T) {
	suite.Run(t, new(ContactStoreSuite))
}

func ptr(s string) *string { return &s }

func (s *ContactStoreSuite) insertPrimary(email, phone *string, minute int) *models.Contact {
	c, err := s.store.Insert(s.ctx, &models.Contact{
		Email:          email,
		PhoneNumber:    phone,
		LinkPrecedence: models.LinkPrecedencePrimary,
		CreatedAt:      s.base.Add(time.Duration(minute) * time.Minute),
	})
	s.Require().NoError(err)
	return c
}

func (s *ContactStoreSuite) insertSecondary(email, phone *string, primary models.ContactID, minute int) *models.Contact {
	c, err := s.store.Insert(s.ctx, &models.Contact{
		Email:          email,
		PhoneNumber:    phone,
		LinkPrecedence: models.LinkPrecedenceSecondary,
		LinkedID:       &primary,
		CreatedAt:      s.base.Add(time.Duration(minute) * time.Minute),
	})
	s.Require().NoError(err)
	return c
}

func ids(contacts []*models.Contact) []models.ContactID {
	out := make([]models.ContactID, len(contacts))
	for i, c := range contacts {
		out[i] = c.ID
	}
	return out
}

func (s *ContactStoreSuite) TestInsertAllocatesIncreasingIDs() {
	a := s.insertPrimary(ptr("a@x.io"), nil, 0)
	b := s.insertPrimary(ptr("b@x.io"), nil, 1)
	s.Equal(models.ContactID(1), a.ID)
	s.Equal(models.ContactID(2), b.ID)
	s.Equal(a.CreatedAt, a.UpdatedAt)
}

func (s *ContactStoreSuite) TestInsertRejectsUnknownLink() {
	missing := models.ContactID(42)
	_, err := s.store.Insert(s.ctx, &models.Contact{
		Email:          ptr("a@x.io"),
		LinkPrecedence: models.LinkPrecedenceSecondary,
		LinkedID:       &missing,
	})
	s.ErrorIs(err, sentinel.ErrInvalidState)
}

func (s *ContactStoreSuite) TestFindByEmailOrPhone() {
	a := s.insertPrimary(ptr("a@x.io"), ptr("111"), 0)
	b := s.insertPrimary(ptr("b@x.io"), ptr("222"), 1)
	s.insertPrimary(ptr("c@x.io"), ptr("333"), 2)

	s.Run("matches on either field", func() {
		found, err := s.store.FindByEmailOrPhone(s.ctx, ptr("a@x.io"), ptr("222"))
		s.Require().NoError(err)
		s.Equal([]models.ContactID{a.ID, b.ID}, ids(found))
	})

	s.Run("nil field matches nothing", func() {
		found, err := s.store.FindByEmailOrPhone(s.ctx, nil, nil)
		s.Require().NoError(err)
		s.Empty(found)
	})

	s.Run("comparison is exact", func() {
		found, err := s.store.FindByEmailOrPhone(s.ctx, ptr("A@x.io"), nil)
		s.Require().NoError(err)
		s.Empty(found)
	})
}

func (s *ContactStoreSuite) TestFindByIdsOrLinkedIds() {
	p := s.insertPrimary(ptr("a@x.io"), nil, 0)
	sec := s.insertSecondary(ptr("b@x.io"), nil, p.ID, 1)
	s.insertPrimary(ptr("c@x.io"), nil, 2)

	found, err := s.store.FindByIdsOrLinkedIds(s.ctx, []models.ContactID{p.ID})
	s.Require().NoError(err)
	s.Equal([]models.ContactID{p.ID, sec.ID}, ids(found))
}

func (s *ContactStoreSuite) TestResultsAreOldestFirstWithIDTieBreak() {
	same := 5
	late := s.insertPrimary(ptr("a@x.io"), nil, same+1)
	first := s.insertPrimary(nil, ptr("111"), same)
	second := s.insertPrimary(ptr("b@x.io"), ptr("111"), same)

	found, err := s.store.FindByEmailsOrPhones(s.ctx, []string{"a@x.io"}, []string{"111"})
	s.Require().NoError(err)
	s.Equal([]models.ContactID{first.ID, second.ID, late.ID}, ids(found))
}

func (s *ContactStoreSuite) TestUpdatePrecedenceAndRelink() {
	older := s.insertPrimary(ptr("a@x.io"), nil, 0)
	newer := s.insertPrimary(ptr("b@x.io"), nil, 1)
	sec1 := s.insertSecondary(ptr("c@x.io"), nil, newer.ID, 2)
	sec2 := s.insertSecondary(ptr("d@x.io"), nil, newer.ID, 3)
	now := s.base.Add(time.Hour)

	s.Require().NoError(s.store.UpdatePrecedence(s.ctx, newer.ID, models.LinkPrecedenceSecondary, &older.ID, now))
	moved, err := s.store.RelinkSecondaries(s.ctx, newer.ID, older.ID, now)
	s.Require().NoError(err)
	s.Equal([]models.ContactID{sec1.ID, sec2.ID}, moved)

	demoted, err := s.store.FindByID(s.ctx, newer.ID)
	s.Require().NoError(err)
	s.Equal(models.LinkPrecedenceSecondary, demoted.LinkPrecedence)
	s.Equal(older.ID, *demoted.LinkedID)
	s.Equal(now, demoted.UpdatedAt)

	for _, c := range s.store.All() {
		s.NoError(c.Validate())
		if c.ID != older.ID {
			s.Equal(older.ID, *c.LinkedID)
		}
	}
}

func (s *ContactStoreSuite) TestUpdatePrecedenceUnknownID() {
	err := s.store.UpdatePrecedence(s.ctx, 99, models.LinkPrecedenceSecondary, nil, s.base)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *ContactStoreSuite) TestReturnedRecordsAreCopies() {
	c := s.insertPrimary(ptr("a@x.io"), nil, 0)
	*c.Email = "mutated@x.io"

	found, err := s.store.FindByID(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Equal("a@x.io", *found.Email)
}

func TestInMemoryTxRollsBackOnError(t *testing.T) {
	st := NewInMemory()
	tx := NewInMemoryTx(st, time.Second)
	ctx := context.Background()

	boom := errors.New("boom")
	err := tx.RunInTx(ctx, func(ctx context.Context, s ports.Store) error {
		if _, err := s.Insert(ctx, &models.Contact{Email: ptr("a@x.io"), LinkPrecedence: models.LinkPrecedencePrimary}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if n := len(st.All()); n != 0 {
		t.Fatalf("expected rollback to leave no contacts, found %d", n)
	}

	err = tx.RunInTx(ctx, func(ctx context.Context, s ports.Store) error {
		c, err := s.Insert(ctx, &models.Contact{Email: ptr("a@x.io"), LinkPrecedence: models.LinkPrecedencePrimary})
		if err != nil {
			return err
		}
		if c.ID != 1 {
			t.Errorf("expected id sequence to be restored, got %d", c.ID)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestInMemoryTxRejectsCancelledContext(t *testing.T) {
	tx := NewInMemoryTx(NewInMemory(), time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := tx.RunInTx(ctx, func(context.Context, ports.Store) error {
		called = true
		return nil
	})
	if err == nil || called {
		t.Fatalf("expected cancelled context to abort before fn, err=%v called=%v", err, called)
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled in chain, got %v", err)
	}
	if _, coded := dErrors.As(err); coded {
		t.Fatalf("expected an uncoded error for the service to translate, got %v", err)
	}
}

func (s *ContactStoreSuite) TestTxRollbackUndoesOnlyTouchedContacts() {
	keep := s.insertPrimary(ptr("keep@x.io"), nil, 0)
	older := s.insertPrimary(ptr("older@x.io"), nil, 1)
	newer := s.insertPrimary(ptr("newer@x.io"), nil, 2)
	child := s.insertSecondary(ptr("child@x.io"), nil, newer.ID, 3)
	tx := NewInMemoryTx(s.store, time.Second)

	boom := errors.New("boom")
	err := tx.RunInTx(s.ctx, func(ctx context.Context, st ports.Store) error {
		s.Require().NoError(st.UpdatePrecedence(ctx, newer.ID, models.LinkPrecedenceSecondary, &older.ID, s.base))
		moved, err := st.RelinkSecondaries(ctx, newer.ID, older.ID, s.base)
		s.Require().NoError(err)
		s.Equal([]models.ContactID{child.ID}, moved)
		_, err = st.Insert(ctx, &models.Contact{Email: ptr("new@x.io"), LinkPrecedence: models.LinkPrecedenceSecondary, LinkedID: &older.ID})
		s.Require().NoError(err)
		return boom
	})
	s.Require().ErrorIs(err, boom)

	s.Equal([]models.ContactID{keep.ID, older.ID, newer.ID, child.ID}, ids(s.store.All()))
	restored, err := s.store.FindByID(s.ctx, newer.ID)
	s.Require().NoError(err)
	s.True(restored.IsPrimary())
	s.Nil(restored.LinkedID)
	restoredChild, err := s.store.FindByID(s.ctx, child.ID)
	s.Require().NoError(err)
	s.Equal(newer.ID, *restoredChild.LinkedID)
	s.Equal(child.UpdatedAt, restoredChild.UpdatedAt)

	err = tx.RunInTx(s.ctx, func(ctx context.Context, st ports.Store) error {
		c, err := st.Insert(ctx, &models.Contact{Email: ptr("next@x.io"), LinkPrecedence: models.LinkPrecedencePrimary})
		s.Require().NoError(err)
		s.Equal(models.ContactID(5), c.ID, "id sequence is restored on rollback")
		return nil
	})
	s.Require().NoError(err)
}

func (s *ContactStoreSuite) TestTxRollbackKeepsEarlierCommits() {
	tx := NewInMemoryTx(s.store, time.Second)

	s.Require().NoError(tx.RunInTx(s.ctx, func(ctx context.Context, st ports.Store) error {
		_, err := st.Insert(ctx, &models.Contact{Email: ptr("first@x.io"), LinkPrecedence: models.LinkPrecedencePrimary})
		return err
	}))

	err := tx.RunInTx(s.ctx, func(ctx context.Context, st ports.Store) error {
		s.Require().NoError(st.UpdatePrecedence(ctx, 1, models.LinkPrecedencePrimary, nil, s.base.Add(time.Hour)))
		return errors.New("boom")
	})
	s.Require().Error(err)

	all := s.store.All()
	s.Require().Len(all, 1)
	s.Equal("first@x.io", *all[0].Email)
	s.NotEqual(s.base.Add(time.Hour), all[0].UpdatedAt)
}
