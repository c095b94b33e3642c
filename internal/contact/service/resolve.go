package service

import (
	"context"
	"fmt"

	"reconciler/internal/contact/metrics"
	"reconciler/internal/contact/models"
	"reconciler/internal/contact/ports"
	"reconciler/internal/outbox"
	"reconciler/internal/platform/config"
)

// resolution is the outcome of one resolve inside a transaction.
type resolution struct {
	view     *models.ClusterView
	outcome  string
	size     int
	created  *models.Contact
	demoted  []models.ContactID
	relinked []models.ContactID
	events   []outbox.Event
}

func (s *Service) resolveTx(ctx context.Context, st ports.Store, email, phone *string) (*resolution, error) {
	now := s.now()
	res := &resolution{}

	matched, err := st.FindByEmailOrPhone(ctx, email, phone)
	if err != nil {
		return nil, err
	}

	if len(matched) == 0 {
		created, err := st.Insert(ctx, &models.Contact{
			Email:          email,
			PhoneNumber:    phone,
			LinkPrecedence: models.LinkPrecedencePrimary,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
		if err != nil {
			return nil, err
		}
		res.created = created
		res.outcome = metrics.OutcomeBootstrap
		res.size = 1
		res.view = models.BuildClusterView(created.ID, []*models.Contact{created})
		if err := s.recordCreated(res, created); err != nil {
			return nil, err
		}
		return res, nil
	}

	workingSet, err := s.expand(ctx, st, matched)
	if err != nil {
		return nil, err
	}

	primaryID, err := models.ResolvePrimary(workingSet)
	if err != nil {
		return nil, err
	}

	workingSet, err = s.demoteOthers(ctx, st, res, primaryID, workingSet)
	if err != nil {
		return nil, err
	}

	if !models.AnyMatchesSupplied(workingSet, email, phone) {
		linked := primaryID
		created, err := st.Insert(ctx, &models.Contact{
			Email:          email,
			PhoneNumber:    phone,
			LinkPrecedence: models.LinkPrecedenceSecondary,
			LinkedID:       &linked,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
		if err != nil {
			return nil, err
		}
		res.created = created
		if err := s.recordCreated(res, created); err != nil {
			return nil, err
		}
		workingSet = append(workingSet, created)
		models.SortOldestFirst(workingSet)
	}

	switch {
	case len(res.demoted) > 0, len(res.relinked) > 0:
		res.outcome = metrics.OutcomeMerged
	case res.created != nil:
		res.outcome = metrics.OutcomeAttached
	default:
		res.outcome = metrics.OutcomeMatched
	}
	res.size = len(workingSet)
	res.view = models.BuildClusterView(primaryID, workingSet)
	return res, nil
}

// demoteOthers turns every primary except primaryID into its secondary and
// moves their secondaries across, so no secondary ends up linked to another
// secondary. The working set is updated in place to mirror the writes.
func (s *Service) demoteOthers(ctx context.Context, st ports.Store, res *resolution, primaryID models.ContactID, workingSet []*models.Contact) ([]*models.Contact, error) {
	now := s.now()
	byID := make(map[models.ContactID]*models.Contact, len(workingSet))
	for _, c := range workingSet {
		byID[c.ID] = c
	}

	var missing []models.ContactID
	for _, c := range workingSet {
		if !c.IsPrimary() || c.ID == primaryID {
			continue
		}
		demotedID := c.ID
		if err := st.UpdatePrecedence(ctx, demotedID, models.LinkPrecedenceSecondary, &primaryID, now); err != nil {
			return nil, err
		}
		c.Demote(primaryID, now)
		res.demoted = append(res.demoted, demotedID)
		if err := s.record(res, outbox.EventContactDemoted, primaryID, demotedPayload{
			ContactID:        demotedID,
			PrimaryContactID: primaryID,
		}); err != nil {
			return nil, err
		}

		moved, err := st.RelinkSecondaries(ctx, demotedID, primaryID, now)
		if err != nil {
			return nil, err
		}
		for _, id := range moved {
			res.relinked = append(res.relinked, id)
			if err := s.record(res, outbox.EventContactRelinked, primaryID, relinkedPayload{
				ContactID:        id,
				FromContactID:    demotedID,
				PrimaryContactID: primaryID,
			}); err != nil {
				return nil, err
			}
			if member, ok := byID[id]; ok {
				target := primaryID
				member.LinkedID = &target
				member.UpdatedAt = now
				continue
			}
			missing = append(missing, id)
		}
	}

	// Secondaries left pointing at another secondary by older writes are
	// re-pointed at the cluster primary.
	for _, c := range workingSet {
		if c.IsPrimary() || *c.LinkedID == primaryID {
			continue
		}
		from := *c.LinkedID
		if err := st.UpdatePrecedence(ctx, c.ID, models.LinkPrecedenceSecondary, &primaryID, now); err != nil {
			return nil, err
		}
		c.Demote(primaryID, now)
		res.relinked = append(res.relinked, c.ID)
		if err := s.record(res, outbox.EventContactRelinked, primaryID, relinkedPayload{
			ContactID:        c.ID,
			FromContactID:    from,
			PrimaryContactID: primaryID,
		}); err != nil {
			return nil, err
		}
	}

	if len(missing) == 0 {
		return workingSet, nil
	}
	// Single-hop loading can miss secondaries of a demoted primary; they
	// still belong in the response.
	extra, err := st.FindByIdsOrLinkedIds(ctx, missing)
	if err != nil {
		return nil, err
	}
	for _, c := range extra {
		if _, ok := byID[c.ID]; !ok {
			byID[c.ID] = c
			workingSet = append(workingSet, c)
		}
	}
	models.SortOldestFirst(workingSet)
	return workingSet, nil
}

// expand loads the cluster around the direct matches.
func (s *Service) expand(ctx context.Context, st ports.Store, matched []*models.Contact) ([]*models.Contact, error) {
	if s.expansion == config.ExpansionSingleHop {
		return expandSingleHop(ctx, st, matched)
	}
	return expandClosure(ctx, st, matched)
}

// expandSingleHop loads the direct matches, their primaries, and the
// secondaries of those primaries.
func expandSingleHop(ctx context.Context, st ports.Store, matched []*models.Contact) ([]*models.Contact, error) {
	ws := newWorkingSet()
	ws.add(matched)

	primaryIDs := make([]models.ContactID, 0, len(matched))
	seen := make(map[models.ContactID]struct{}, len(matched))
	for _, c := range matched {
		id := c.PrimaryID()
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		primaryIDs = append(primaryIDs, id)
	}

	related, err := st.FindByIdsOrLinkedIds(ctx, primaryIDs)
	if err != nil {
		return nil, err
	}
	ws.add(related)
	return ws.sorted(), nil
}

// expandClosure walks links and shared values breadth first until a round
// adds no contact. Every id, email and phone number is queried at most once.
func expandClosure(ctx context.Context, st ports.Store, matched []*models.Contact) ([]*models.Contact, error) {
	ws := newWorkingSet()
	pending := ws.add(matched)

	queriedIDs := make(map[models.ContactID]struct{})
	queriedEmails := make(map[string]struct{})
	queriedPhones := make(map[string]struct{})

	for len(pending) > 0 {
		var (
			ids    []models.ContactID
			emails []string
			phones []string
		)
		for _, c := range pending {
			for _, id := range []models.ContactID{c.ID, c.PrimaryID()} {
				if _, ok := queriedIDs[id]; !ok {
					queriedIDs[id] = struct{}{}
					ids = append(ids, id)
				}
			}
			if c.Email != nil {
				if _, ok := queriedEmails[*c.Email]; !ok {
					queriedEmails[*c.Email] = struct{}{}
					emails = append(emails, *c.Email)
				}
			}
			if c.PhoneNumber != nil {
				if _, ok := queriedPhones[*c.PhoneNumber]; !ok {
					queriedPhones[*c.PhoneNumber] = struct{}{}
					phones = append(phones, *c.PhoneNumber)
				}
			}
		}

		pending = nil
		if len(ids) > 0 {
			linked, err := st.FindByIdsOrLinkedIds(ctx, ids)
			if err != nil {
				return nil, err
			}
			pending = append(pending, ws.add(linked)...)
		}
		if len(emails) > 0 || len(phones) > 0 {
			sharing, err := st.FindByEmailsOrPhones(ctx, emails, phones)
			if err != nil {
				return nil, err
			}
			pending = append(pending, ws.add(sharing)...)
		}
	}
	return ws.sorted(), nil
}

type workingSet struct {
	byID  map[models.ContactID]*models.Contact
	order []*models.Contact
}

func newWorkingSet() *workingSet {
	return &workingSet{byID: make(map[models.ContactID]*models.Contact)}
}

// add returns the contacts that were not already present.
func (w *workingSet) add(contacts []*models.Contact) []*models.Contact {
	var added []*models.Contact
	for _, c := range contacts {
		if _, ok := w.byID[c.ID]; ok {
			continue
		}
		w.byID[c.ID] = c
		w.order = append(w.order, c)
		added = append(added, c)
	}
	return added
}

func (w *workingSet) sorted() []*models.Contact {
	out := append([]*models.Contact(nil), w.order...)
	models.SortOldestFirst(out)
	return out
}

type createdPayload struct {
	ContactID      models.ContactID  `json:"contactId"`
	Email          *string           `json:"email"`
	PhoneNumber    *string           `json:"phoneNumber"`
	LinkPrecedence string            `json:"linkPrecedence"`
	LinkedID       *models.ContactID `json:"linkedId"`
}

type demotedPayload struct {
	ContactID        models.ContactID `json:"contactId"`
	PrimaryContactID models.ContactID `json:"primaryContactId"`
}

type relinkedPayload struct {
	ContactID        models.ContactID `json:"contactId"`
	FromContactID    models.ContactID `json:"fromContactId"`
	PrimaryContactID models.ContactID `json:"primaryContactId"`
}

func (s *Service) recordCreated(res *resolution, c *models.Contact) error {
	return s.record(res, outbox.EventContactCreated, c.PrimaryID(), createdPayload{
		ContactID:      c.ID,
		Email:          c.Email,
		PhoneNumber:    c.PhoneNumber,
		LinkPrecedence: string(c.LinkPrecedence),
		LinkedID:       c.LinkedID,
	})
}

// record buffers an event keyed by the cluster primary. Buffered events are
// appended only once every write of the resolve has succeeded.
func (s *Service) record(res *resolution, eventType outbox.EventType, primaryID models.ContactID, payload any) error {
	if s.events == nil {
		return nil
	}
	event, err := outbox.NewEvent(eventType, outbox.AggregateContact, primaryID.String(), payload, s.now())
	if err != nil {
		return fmt.Errorf("build %s event: %w", eventType, err)
	}
	res.events = append(res.events, event)
	return nil
}

func (s *Service) appendEvents(ctx context.Context, events []outbox.Event) error {
	for _, event := range events {
		if err := s.events.Append(ctx, event); err != nil {
			return fmt.Errorf("append %s event: %w", event.Type, err)
		}
	}
	return nil
}
