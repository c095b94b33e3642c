package models

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	dErrors "reconciler/pkg/domain-errors"
)

// ContactID is allocated by the store in strictly increasing order.
type ContactID int64

func (id ContactID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseContactID parses a decimal, positive contact id.
func ParseContactID(s string) (ContactID, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v <= 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "invalid contact id")
	}
	return ContactID(v), nil
}

// LinkPrecedence marks a contact as the canonical record of its cluster or
// as a fact linked to one.
type LinkPrecedence string

const (
	LinkPrecedencePrimary   LinkPrecedence = "primary"
	LinkPrecedenceSecondary LinkPrecedence = "secondary"
)

func (p LinkPrecedence) IsValid() bool {
	return p == LinkPrecedencePrimary || p == LinkPrecedenceSecondary
}

// ParseLinkPrecedence validates a stored precedence value.
func ParseLinkPrecedence(s string) (LinkPrecedence, error) {
	p := LinkPrecedence(s)
	if !p.IsValid() {
		return "", fmt.Errorf("unknown link precedence %q", s)
	}
	return p, nil
}

// Contact is one observed (email, phone) fact. Email and PhoneNumber never
// change after creation; only the link fields and UpdatedAt do.
type Contact struct {
	ID             ContactID
	Email          *string
	PhoneNumber    *string
	LinkPrecedence LinkPrecedence
	LinkedID       *ContactID
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (c *Contact) IsPrimary() bool {
	return c.LinkPrecedence == LinkPrecedencePrimary
}

// PrimaryID is the id of the primary this contact belongs to.
func (c *Contact) PrimaryID() ContactID {
	if c.LinkedID != nil {
		return *c.LinkedID
	}
	return c.ID
}

// Validate checks that LinkedID is present exactly for secondaries.
func (c *Contact) Validate() error {
	switch {
	case !c.LinkPrecedence.IsValid():
		return dErrors.New(dErrors.CodeInvariantViolation, "contact "+c.ID.String()+" has unknown link precedence")
	case c.IsPrimary() && c.LinkedID != nil:
		return dErrors.New(dErrors.CodeInvariantViolation, "primary contact "+c.ID.String()+" must not be linked")
	case !c.IsPrimary() && c.LinkedID == nil:
		return dErrors.New(dErrors.CodeInvariantViolation, "secondary contact "+c.ID.String()+" has no linked primary")
	case c.LinkedID != nil && *c.LinkedID == c.ID:
		return dErrors.New(dErrors.CodeInvariantViolation, "contact "+c.ID.String()+" is linked to itself")
	}
	return nil
}

// Clone returns a deep copy so callers cannot mutate store-owned records.
func (c *Contact) Clone() *Contact {
	out := *c
	if c.Email != nil {
		v := *c.Email
		out.Email = &v
	}
	if c.PhoneNumber != nil {
		v := *c.PhoneNumber
		out.PhoneNumber = &v
	}
	if c.LinkedID != nil {
		v := *c.LinkedID
		out.LinkedID = &v
	}
	return &out
}

// Demote turns a primary into a secondary of primaryID.
func (c *Contact) Demote(primaryID ContactID, now time.Time) {
	c.LinkPrecedence = LinkPrecedenceSecondary
	c.LinkedID = &primaryID
	c.UpdatedAt = now
}

// Less orders contacts oldest first; equal timestamps fall back to the
// smaller id, which reflects allocation order.
func Less(a, b *Contact) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

// SortOldestFirst sorts contacts in place by Less.
func SortOldestFirst(contacts []*Contact) {
	sort.SliceStable(contacts, func(i, j int) bool {
		return Less(contacts[i], contacts[j])
	})
}
