package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"reconciler/internal/contact/cache"
	"reconciler/internal/contact/models"
	"reconciler/internal/contact/ports"
	"reconciler/internal/contact/store"
	"reconciler/internal/outbox"
	"reconciler/internal/platform/config"
	dErrors "reconciler/pkg/domain-errors"
	"reconciler/pkg/platform/sentinel"
)

// =============================================================================
// Resolve Test Suite
// =============================================================================
// Runs the engine against the in-memory store so each test sees the full
// read-modify-write sequence, including rollback.

type ResolveSuite struct {
	suite.Suite
	ctx     context.Context
	store   *store.InMemory
	tx      *store.InMemoryTx
	outbox  *outbox.InMemoryStore
	cache   *cache.InMemory
	clock   *tickingClock
	service *Service
}

func TestResolveSuite(t *testing.T) {
	suite.Run(t, new(ResolveSuite))
}

func (s *ResolveSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = store.NewInMemory()
	s.tx = store.NewInMemoryTx(s.store, time.Second)
	s.outbox = outbox.NewInMemoryStore()
	s.cache = cache.NewInMemory(time.Minute)
	s.clock = &tickingClock{now: time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC)}
	s.service = s.newService()
}

func (s *ResolveSuite) newService(opts ...Option) *Service {
	base := []Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithCache(s.cache),
		WithEventSink(s.outbox),
		WithClock(s.clock.Now),
	}
	return New(s.store, s.tx, append(base, opts...)...)
}

// tickingClock advances one second per reading so creation order is strict.
type tickingClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func str(v string) *string { return &v }

func (s *ResolveSuite) resolve(email, phone *string) *models.ClusterView {
	view, err := s.service.Resolve(s.ctx, email, phone)
	s.Require().NoError(err)
	return view
}

// requireInvariants checks every stored cluster: one primary, secondaries
// linked straight to it.
func (s *ResolveSuite) requireInvariants() {
	all := s.store.All()
	byID := make(map[models.ContactID]*models.Contact, len(all))
	for _, c := range all {
		byID[c.ID] = c
	}
	for _, c := range all {
		s.Require().NoError(c.Validate())
		if c.IsPrimary() {
			continue
		}
		target, ok := byID[*c.LinkedID]
		s.Require().True(ok, "contact %d links to missing %d", c.ID, *c.LinkedID)
		s.Require().True(target.IsPrimary(), "contact %d links to secondary %d", c.ID, target.ID)
	}
}

func (s *ResolveSuite) TestBootstrap() {
	view := s.resolve(str("a@x.com"), nil)

	s.Equal(models.ContactID(1), view.PrimaryContactID)
	s.Equal([]string{"a@x.com"}, view.Emails)
	s.Equal([]string{}, view.PhoneNumbers)
	s.Equal([]models.ContactID{}, view.SecondaryContactIDs)

	all := s.store.All()
	s.Require().Len(all, 1)
	s.True(all[0].IsPrimary())
}

func (s *ResolveSuite) TestNoSharedFieldStaysIndependent() {
	first := s.resolve(str("a@x.com"), nil)
	second := s.resolve(nil, str("555"))

	s.NotEqual(first.PrimaryContactID, second.PrimaryContactID)
	s.Equal([]string{}, second.Emails)
	s.Equal([]string{"555"}, second.PhoneNumbers)
	for _, c := range s.store.All() {
		s.True(c.IsPrimary())
	}
}

func (s *ResolveSuite) TestSecondaryAttachAndIdempotence() {
	primary := s.resolve(str("a@x.com"), nil)

	attached := s.resolve(str("a@x.com"), str("555"))
	s.Equal(primary.PrimaryContactID, attached.PrimaryContactID)
	s.Equal([]string{"a@x.com"}, attached.Emails)
	s.Equal([]string{"555"}, attached.PhoneNumbers)
	s.Equal([]models.ContactID{2}, attached.SecondaryContactIDs)

	again := s.resolve(str("a@x.com"), str("555"))
	s.Equal(attached, again)
	s.Len(s.store.All(), 2)

	s.Run("a single known field adds nothing", func() {
		byPhone := s.resolve(nil, str("555"))
		s.Equal(attached, byPhone)
		s.Len(s.store.All(), 2)
	})
}

func (s *ResolveSuite) TestMergeDemotesYoungerPrimary() {
	a := s.resolve(str("p@x.com"), nil)
	b := s.resolve(nil, str("999"))
	bSecondary := s.resolve(str("q@x.com"), str("999"))
	s.Equal(b.PrimaryContactID, bSecondary.PrimaryContactID)

	merged := s.resolve(str("p@x.com"), str("999"))

	s.Equal(a.PrimaryContactID, merged.PrimaryContactID)
	s.Equal([]string{"p@x.com", "q@x.com"}, merged.Emails)
	s.Equal([]string{"999"}, merged.PhoneNumbers)
	s.Equal([]models.ContactID{2, 3, 4}, merged.SecondaryContactIDs)

	demoted, err := s.store.FindByID(s.ctx, b.PrimaryContactID)
	s.Require().NoError(err)
	s.Equal(models.LinkPrecedenceSecondary, demoted.LinkPrecedence)
	s.Equal(a.PrimaryContactID, *demoted.LinkedID)

	relinked, err := s.store.FindByID(s.ctx, 3)
	s.Require().NoError(err)
	s.Equal(a.PrimaryContactID, *relinked.LinkedID)

	s.requireInvariants()
}

func (s *ResolveSuite) TestMergeAddsBridgingContact() {
	// No existing contact holds both values, so the request is recorded as a
	// new secondary alongside the demotion.
	s.resolve(str("george@hillvalley.edu"), str("919191"))
	s.resolve(str("biffsucks@hillvalley.edu"), str("717171"))

	view := s.resolve(str("george@hillvalley.edu"), str("717171"))
	s.Equal(models.ContactID(1), view.PrimaryContactID)
	s.Equal([]string{"george@hillvalley.edu", "biffsucks@hillvalley.edu"}, view.Emails)
	s.Equal([]string{"919191", "717171"}, view.PhoneNumbers)
	s.Equal([]models.ContactID{2, 3}, view.SecondaryContactIDs)

	again := s.resolve(str("george@hillvalley.edu"), str("717171"))
	s.Equal(view, again)
	s.Len(s.store.All(), 3)
}

func (s *ResolveSuite) TestOrderingAndDedupe() {
	s.resolve(str("lorraine@hillvalley.edu"), str("123456"))
	s.resolve(str("mcfly@hillvalley.edu"), str("123456"))
	view := s.resolve(str("lorraine@hillvalley.edu"), str("654321"))

	s.Equal([]string{"lorraine@hillvalley.edu", "mcfly@hillvalley.edu"}, view.Emails)
	s.Equal([]string{"123456", "654321"}, view.PhoneNumbers)
	s.Equal([]models.ContactID{2, 3}, view.SecondaryContactIDs)
}

func (s *ResolveSuite) TestClosureRepairsLegacyChain() {
	// A legacy chain: c3 -> c2 -> c1, where c2 was demoted without its
	// secondaries being moved.
	base := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	c1 := s.seed(&models.Contact{Email: str("a@x.com"), LinkPrecedence: models.LinkPrecedencePrimary, CreatedAt: base})
	c2 := s.seed(&models.Contact{Email: str("b@x.com"), LinkPrecedence: models.LinkPrecedenceSecondary, LinkedID: &c1.ID, CreatedAt: base.Add(time.Hour)})
	s.seed(&models.Contact{Email: str("c@x.com"), LinkPrecedence: models.LinkPrecedenceSecondary, LinkedID: &c2.ID, CreatedAt: base.Add(2 * time.Hour)})

	view := s.resolve(str("c@x.com"), nil)

	s.Equal(c1.ID, view.PrimaryContactID)
	s.Equal([]string{"a@x.com", "b@x.com", "c@x.com"}, view.Emails)
	s.Equal([]models.ContactID{2, 3}, view.SecondaryContactIDs)
	s.requireInvariants()
}

func (s *ResolveSuite) TestSingleHopCannotReachChainHead() {
	base := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	c1 := s.seed(&models.Contact{Email: str("a@x.com"), LinkPrecedence: models.LinkPrecedencePrimary, CreatedAt: base})
	c2 := s.seed(&models.Contact{Email: str("b@x.com"), LinkPrecedence: models.LinkPrecedenceSecondary, LinkedID: &c1.ID, CreatedAt: base.Add(time.Hour)})
	s.seed(&models.Contact{Email: str("c@x.com"), LinkPrecedence: models.LinkPrecedenceSecondary, LinkedID: &c2.ID, CreatedAt: base.Add(2 * time.Hour)})

	svc := s.newService(WithExpansion(config.ExpansionSingleHop))
	_, err := svc.Resolve(s.ctx, str("c@x.com"), nil)

	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func (s *ResolveSuite) TestClosureFollowsSharedValues() {
	// Three clusters joined pairwise by later requests end up as one.
	s.resolve(str("a@x.com"), str("1"))
	s.resolve(str("b@x.com"), str("2"))
	s.resolve(str("c@x.com"), str("3"))

	s.resolve(str("a@x.com"), str("2"))
	view := s.resolve(str("c@x.com"), str("2"))

	s.Equal(models.ContactID(1), view.PrimaryContactID)
	s.Equal([]string{"a@x.com", "b@x.com", "c@x.com"}, view.Emails)
	s.Equal([]string{"1", "2", "3"}, view.PhoneNumbers)
	s.requireInvariants()

	primaries := 0
	for _, c := range s.store.All() {
		if c.IsPrimary() {
			primaries++
		}
	}
	s.Equal(1, primaries)
}

func (s *ResolveSuite) TestInvariantsHoldAcrossSequence() {
	requests := []struct{ email, phone string }{
		{"a@x.com", ""}, {"", "1"}, {"b@x.com", "2"}, {"a@x.com", "1"},
		{"c@x.com", "3"}, {"b@x.com", "1"}, {"d@x.com", "3"}, {"c@x.com", "2"},
		{"a@x.com", "1"}, {"", "3"}, {"e@x.com", ""},
	}
	for _, r := range requests {
		var email, phone *string
		if r.email != "" {
			email = str(r.email)
		}
		if r.phone != "" {
			phone = str(r.phone)
		}
		s.resolve(email, phone)
		s.requireInvariants()
	}
}

func (s *ResolveSuite) TestInputNormalisation() {
	s.Run("neither field is invalid input", func() {
		_, err := s.service.Resolve(s.ctx, nil, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("blank fields count as absent", func() {
		_, err := s.service.Resolve(s.ctx, str("  "), str(""))
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("surrounding whitespace is trimmed", func() {
		view := s.resolve(str("  z@x.com "), str(" "))
		s.Equal([]string{"z@x.com"}, view.Emails)
		s.Equal([]string{}, view.PhoneNumbers)

		again := s.resolve(str("z@x.com"), nil)
		s.Equal(view.PrimaryContactID, again.PrimaryContactID)
	})

	s.Run("case is significant", func() {
		upper := s.resolve(str("Z@x.com"), nil)
		lower := s.resolve(str("z@x.com"), nil)
		s.NotEqual(upper.PrimaryContactID, lower.PrimaryContactID)
	})
}

func (s *ResolveSuite) TestEventsFollowWrites() {
	s.resolve(str("p@x.com"), nil)
	s.resolve(nil, str("999"))
	s.resolve(str("p@x.com"), str("999"))
	s.resolve(str("p@x.com"), str("999"))

	var types []outbox.EventType
	for _, e := range s.outbox.All() {
		types = append(types, e.Type)
		s.Equal(outbox.AggregateContact, e.AggregateType)
	}
	s.Equal([]outbox.EventType{
		outbox.EventContactCreated,
		outbox.EventContactCreated,
		outbox.EventContactDemoted,
		outbox.EventContactCreated,
	}, types)
	s.Equal("1", s.outbox.All()[2].AggregateID)
}

func (s *ResolveSuite) TestCluster() {
	s.resolve(str("p@x.com"), nil)
	s.resolve(nil, str("999"))

	s.Run("unknown contact is not found", func() {
		_, err := s.service.Cluster(s.ctx, 404)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("reads populate the cache", func() {
		view, err := s.service.Cluster(s.ctx, 2)
		s.Require().NoError(err)
		s.Equal(models.ContactID(2), view.PrimaryContactID)
		_, cached := s.cache.Get(s.ctx, 2)
		s.True(cached)
	})

	s.Run("a merge invalidates every affected primary", func() {
		_, err := s.service.Cluster(s.ctx, 1)
		s.Require().NoError(err)

		merged := s.resolve(str("p@x.com"), str("999"))

		_, cached := s.cache.Get(s.ctx, 1)
		s.False(cached)
		_, cached = s.cache.Get(s.ctx, 2)
		s.False(cached)

		view, err := s.service.Cluster(s.ctx, 2)
		s.Require().NoError(err)
		s.Equal(merged, view)
	})
}

func (s *ResolveSuite) TestConcurrentBootstrapsYieldOnePrimary() {
	const goroutines = 20
	var wg sync.WaitGroup
	views := make([]*models.ClusterView, goroutines)
	errs := make([]error, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			views[i], errs[i] = s.service.Resolve(s.ctx, str("race@x.com"), str("42"))
		}(i)
	}
	wg.Wait()

	for i := range views {
		s.Require().NoError(errs[i])
		s.Equal(models.ContactID(1), views[i].PrimaryContactID)
	}
	s.Len(s.store.All(), 1)
}

func (s *ResolveSuite) TestFailedWriteRollsBackMerge() {
	s.resolve(str("p@x.com"), nil)
	s.resolve(nil, str("999"))

	boom := errors.New("disk full")
	tx := &wrappingTx{inner: s.tx, wrap: func(st ports.Store) ports.Store {
		return &failingInsertStore{Store: st, err: boom}
	}}
	svc := New(s.store, tx, WithClock(s.clock.Now), WithEventSink(s.outbox))

	_, err := svc.Resolve(s.ctx, str("p@x.com"), str("999"))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))

	for _, c := range s.store.All() {
		s.True(c.IsPrimary(), "contact %d must not stay demoted", c.ID)
	}
	s.Len(s.outbox.All(), 2, "no events from the failed resolve")
}

func (s *ResolveSuite) TestConflictRetry() {
	s.Run("a lost race is retried", func() {
		tx := &conflictingTx{inner: s.tx, failures: 2}
		svc := New(s.store, tx, WithClock(s.clock.Now), WithMaxAttempts(3))

		view, err := svc.Resolve(s.ctx, str("retry@x.com"), nil)
		s.Require().NoError(err)
		s.NotZero(view.PrimaryContactID)
		s.Equal(3, tx.calls)
	})

	s.Run("exhausted retries report the store as unavailable", func() {
		tx := &conflictingTx{inner: s.tx, failures: 5}
		svc := New(s.store, tx, WithClock(s.clock.Now), WithMaxAttempts(3))

		_, err := svc.Resolve(s.ctx, str("busy@x.com"), nil)
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
		s.Equal(3, tx.calls)
	})
}

func (s *ResolveSuite) TestStoreFailuresMapToUnavailable() {
	tx := &wrappingTx{inner: s.tx, wrap: func(st ports.Store) ports.Store {
		return &failingInsertStore{Store: st, err: fmt.Errorf("insert contact: %w", sentinel.ErrUnavailable)}
	}}
	svc := New(s.store, tx, WithClock(s.clock.Now))

	_, err := svc.Resolve(s.ctx, str("down@x.com"), nil)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	s.Empty(s.store.All())
}

func (s *ResolveSuite) TestCancelledContextMapsToUnavailable() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	_, err := s.service.Resolve(ctx, str("late@x.com"), nil)
	s.Require().Error(err)
	s.Equal(dErrors.CodeUnavailable, dErrors.CodeOf(err))
	s.ErrorIs(err, context.Canceled)
	s.Empty(s.store.All())
}

func (s *ResolveSuite) TestResolveWithRunsInsideTransaction() {
	boom := errors.New("order rejected")
	_, err := s.service.ResolveWith(s.ctx, str("o@x.com"), nil, func(ctx context.Context, view *models.ClusterView) error {
		s.Equal(models.ContactID(1), view.PrimaryContactID)
		return boom
	})
	s.ErrorIs(err, boom)
	s.Empty(s.store.All())
	s.Empty(s.outbox.All())
}

func (s *ResolveSuite) seed(c *models.Contact) *models.Contact {
	stored, err := s.store.Insert(s.ctx, c)
	s.Require().NoError(err)
	return stored
}

type wrappingTx struct {
	inner ports.StoreTx
	wrap  func(ports.Store) ports.Store
}

func (t *wrappingTx) RunInTx(ctx context.Context, fn func(ctx context.Context, st ports.Store) error) error {
	return t.inner.RunInTx(ctx, func(ctx context.Context, st ports.Store) error {
		return fn(ctx, t.wrap(st))
	})
}

type failingInsertStore struct {
	ports.Store
	err error
}

func (f *failingInsertStore) Insert(context.Context, *models.Contact) (*models.Contact, error) {
	return nil, f.err
}

// conflictingTx fails the first failures runs as a serializable database
// would when another transaction commits first.
type conflictingTx struct {
	inner    ports.StoreTx
	failures int
	calls    int
}

func (t *conflictingTx) RunInTx(ctx context.Context, fn func(ctx context.Context, st ports.Store) error) error {
	t.calls++
	if t.calls <= t.failures {
		return fmt.Errorf("commit resolve transaction: %w", sentinel.ErrConflict)
	}
	return t.inner.RunInTx(ctx, fn)
}
