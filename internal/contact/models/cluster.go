package models

import (
	dErrors "reconciler/pkg/domain-errors"
	pstrings "reconciler/pkg/platform/strings"
)

// ClusterView is the consolidated identity returned to callers.
type ClusterView struct {
	PrimaryContactID    ContactID   `json:"primaryContactId"`
	Emails              []string    `json:"emails"`
	PhoneNumbers        []string    `json:"phoneNumbers"`
	SecondaryContactIDs []ContactID `json:"secondaryContactIds"`
}

// ResolvePrimary picks the oldest primary in the working set. A working set
// without any primary means a secondary points outside the loaded cluster.
func ResolvePrimary(workingSet []*Contact) (ContactID, error) {
	var oldest *Contact
	for _, c := range workingSet {
		if !c.IsPrimary() {
			continue
		}
		if oldest == nil || Less(c, oldest) {
			oldest = c
		}
	}
	if oldest == nil {
		return 0, dErrors.New(dErrors.CodeInvariantViolation, "working set has no primary contact")
	}
	return oldest.ID, nil
}

// MatchesSupplied reports whether c carries every supplied field. Fields that
// were not supplied do not constrain the match, so with neither supplied any
// contact matches.
func MatchesSupplied(c *Contact, email, phone *string) bool {
	if email != nil && (c.Email == nil || *c.Email != *email) {
		return false
	}
	if phone != nil && (c.PhoneNumber == nil || *c.PhoneNumber != *phone) {
		return false
	}
	return true
}

// AnyMatchesSupplied is MatchesSupplied over a working set.
func AnyMatchesSupplied(workingSet []*Contact, email, phone *string) bool {
	for _, c := range workingSet {
		if MatchesSupplied(c, email, phone) {
			return true
		}
	}
	return false
}

// BuildClusterView shapes the response. The working set must already be
// sorted oldest first; emails and phone numbers keep first-occurrence order.
func BuildClusterView(primaryID ContactID, workingSet []*Contact) *ClusterView {
	emails := make([]string, 0, len(workingSet))
	phones := make([]string, 0, len(workingSet))
	secondaries := make([]ContactID, 0, len(workingSet))

	for _, c := range workingSet {
		emails = append(emails, pstrings.Deref(c.Email))
		phones = append(phones, pstrings.Deref(c.PhoneNumber))
		if c.ID != primaryID && !c.IsPrimary() {
			secondaries = append(secondaries, c.ID)
		}
	}

	return &ClusterView{
		PrimaryContactID:    primaryID,
		Emails:              pstrings.DedupeAndTrim(emails),
		PhoneNumbers:        pstrings.DedupeAndTrim(phones),
		SecondaryContactIDs: secondaries,
	}
}

// CheckCluster verifies invariants 1 and 2 over a loaded cluster: exactly one
// primary, and every secondary links to it.
func CheckCluster(workingSet []*Contact) error {
	primaryID, err := ResolvePrimary(workingSet)
	if err != nil {
		return err
	}
	for _, c := range workingSet {
		if err := c.Validate(); err != nil {
			return err
		}
		if c.IsPrimary() && c.ID != primaryID {
			return dErrors.New(dErrors.CodeInvariantViolation, "cluster has more than one primary")
		}
		if !c.IsPrimary() && *c.LinkedID != primaryID {
			return dErrors.New(dErrors.CodeInvariantViolation, "secondary contact "+c.ID.String()+" is not linked to the cluster primary")
		}
	}
	return nil
}
