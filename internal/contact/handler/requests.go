package handler

import (
	dErrors "reconciler/pkg/domain-errors"
	"reconciler/pkg/platform/httputil"
	pstrings "reconciler/pkg/platform/strings"
)

// IdentifyRequest is the HTTP request body for POST /identify.
type IdentifyRequest struct {
	Email       *string             `json:"email"`
	PhoneNumber httputil.FlexString `json:"phoneNumber"`
}

// Validate trims both fields and requires at least one of them.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *IdentifyRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Email = pstrings.TrimToNil(r.Email)
	r.PhoneNumber.Value = pstrings.TrimToNil(r.PhoneNumber.Value)
	if r.Email == nil && r.PhoneNumber.Value == nil {
		return dErrors.New(dErrors.CodeBadRequest, "either email or phoneNumber must be provided")
	}
	return nil
}
