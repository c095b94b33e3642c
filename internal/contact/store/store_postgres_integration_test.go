//go:build integration

package store_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"reconciler/internal/contact/models"
	"reconciler/internal/contact/ports"
	"reconciler/internal/contact/store"
	"reconciler/pkg/platform/sentinel"
	"reconciler/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	tx       *store.PostgresTx
	base     time.Time
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
	s.tx = store.NewPostgresTx(s.postgres.DB, s.store, 5*time.Second)
	s.base = time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC)
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "outbox", "orders", "contacts")
	s.Require().NoError(err)
}

func strPtr(v string) *string { return &v }

func (s *PostgresStoreSuite) insert(c *models.Contact) *models.Contact {
	stored, err := s.store.Insert(context.Background(), c)
	s.Require().NoError(err)
	return stored
}

func (s *PostgresStoreSuite) TestInsertAndFind() {
	ctx := context.Background()
	p := s.insert(&models.Contact{
		Email:          strPtr("lorraine@hillvalley.edu"),
		PhoneNumber:    strPtr("123456"),
		LinkPrecedence: models.LinkPrecedencePrimary,
		CreatedAt:      s.base,
	})
	s.Positive(int64(p.ID))
	s.True(p.CreatedAt.Equal(s.base))

	sec := s.insert(&models.Contact{
		Email:          strPtr("mcfly@hillvalley.edu"),
		PhoneNumber:    strPtr("123456"),
		LinkPrecedence: models.LinkPrecedenceSecondary,
		LinkedID:       &p.ID,
		CreatedAt:      s.base.Add(time.Minute),
	})

	found, err := s.store.FindByEmailOrPhone(ctx, nil, strPtr("123456"))
	s.Require().NoError(err)
	s.Require().Len(found, 2)
	s.Equal(p.ID, found[0].ID)
	s.Equal(sec.ID, found[1].ID)
	s.Equal(p.ID, *found[1].LinkedID)

	byEmails, err := s.store.FindByEmailsOrPhones(ctx, []string{"mcfly@hillvalley.edu"}, nil)
	s.Require().NoError(err)
	s.Require().Len(byEmails, 1)
	s.Equal(sec.ID, byEmails[0].ID)

	linked, err := s.store.FindByIdsOrLinkedIds(ctx, []models.ContactID{p.ID})
	s.Require().NoError(err)
	s.Len(linked, 2)

	_, err = s.store.FindByID(ctx, 9999)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestNullFieldsRoundTrip() {
	c := s.insert(&models.Contact{
		PhoneNumber:    strPtr("919191"),
		LinkPrecedence: models.LinkPrecedencePrimary,
	})
	found, err := s.store.FindByID(context.Background(), c.ID)
	s.Require().NoError(err)
	s.Nil(found.Email)
	s.Nil(found.LinkedID)
	s.Equal("919191", *found.PhoneNumber)
}

func (s *PostgresStoreSuite) TestDemoteAndRelink() {
	ctx := context.Background()
	older := s.insert(&models.Contact{Email: strPtr("george@hillvalley.edu"), PhoneNumber: strPtr("919191"), LinkPrecedence: models.LinkPrecedencePrimary, CreatedAt: s.base})
	newer := s.insert(&models.Contact{Email: strPtr("biffsucks@hillvalley.edu"), PhoneNumber: strPtr("717171"), LinkPrecedence: models.LinkPrecedencePrimary, CreatedAt: s.base.Add(time.Hour)})
	sec := s.insert(&models.Contact{Email: strPtr("biff@hillvalley.edu"), PhoneNumber: strPtr("717171"), LinkPrecedence: models.LinkPrecedenceSecondary, LinkedID: &newer.ID, CreatedAt: s.base.Add(2 * time.Hour)})

	now := s.base.Add(3 * time.Hour)
	err := s.tx.RunInTx(ctx, func(ctx context.Context, st ports.Store) error {
		if err := st.UpdatePrecedence(ctx, newer.ID, models.LinkPrecedenceSecondary, &older.ID, now); err != nil {
			return err
		}
		moved, err := st.RelinkSecondaries(ctx, newer.ID, older.ID, now)
		if err != nil {
			return err
		}
		s.Equal([]models.ContactID{sec.ID}, moved)
		return nil
	})
	s.Require().NoError(err)

	cluster, err := s.store.FindByIdsOrLinkedIds(ctx, []models.ContactID{older.ID})
	s.Require().NoError(err)
	s.Require().Len(cluster, 3)
	s.NoError(models.CheckCluster(cluster))
}

func (s *PostgresStoreSuite) TestRollbackOnError() {
	ctx := context.Background()
	boom := errors.New("boom")
	err := s.tx.RunInTx(ctx, func(ctx context.Context, st ports.Store) error {
		if _, err := st.Insert(ctx, &models.Contact{Email: strPtr("a@x.io"), LinkPrecedence: models.LinkPrecedencePrimary}); err != nil {
			return err
		}
		return boom
	})
	s.ErrorIs(err, boom)

	found, err := s.store.FindByEmailOrPhone(ctx, strPtr("a@x.io"), nil)
	s.Require().NoError(err)
	s.Empty(found)
}

func (s *PostgresStoreSuite) TestSchemaRejectsInconsistentLinks() {
	_, err := s.postgres.Exec(context.Background(),
		`INSERT INTO contacts (email, link_precedence, linked_id) VALUES ('x@x.io', 'secondary', NULL)`)
	s.Error(err)
}

// TestConcurrentBootstrapsConflict verifies that two serializable transactions
// that both see no match for the same email cannot both commit a primary.
func (s *PostgresStoreSuite) TestConcurrentBootstrapsConflict() {
	ctx := context.Background()
	const goroutines = 8

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	start := make(chan struct{})
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			err := s.tx.RunInTx(ctx, func(ctx context.Context, st ports.Store) error {
				found, err := st.FindByEmailOrPhone(ctx, strPtr("race@x.io"), nil)
				if err != nil {
					return err
				}
				if len(found) > 0 {
					return nil
				}
				_, err = st.Insert(ctx, &models.Contact{Email: strPtr("race@x.io"), LinkPrecedence: models.LinkPrecedencePrimary})
				return err
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, sentinel.ErrConflict):
				conflicts++
			}
		}()
	}
	close(start)
	wg.Wait()

	s.Equal(goroutines, successes+conflicts, "every failure must classify as a conflict")
	found, err := s.store.FindByEmailOrPhone(ctx, strPtr("race@x.io"), nil)
	s.Require().NoError(err)
	s.Len(found, 1)
}
