package handler

import (
	"reconciler/internal/order/models"
	dErrors "reconciler/pkg/domain-errors"
	"reconciler/pkg/platform/httputil"
	pstrings "reconciler/pkg/platform/strings"
)

// CreateOrderRequest is the HTTP request body for POST /order.
type CreateOrderRequest struct {
	Email       *string             `json:"email"`
	PhoneNumber httputil.FlexString `json:"phoneNumber"`
	ProductName string              `json:"productName"`
	OrderValue  float64             `json:"orderValue"`
}

// Validate normalises the request and checks the order fields first, then
// that the buyer can be identified.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *CreateOrderRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	domain := r.ToModel()
	domain.Normalize()
	if err := domain.Validate(); err != nil {
		return err
	}
	r.ProductName = domain.ProductName
	r.Email = pstrings.TrimToNil(r.Email)
	r.PhoneNumber.Value = pstrings.TrimToNil(r.PhoneNumber.Value)
	if r.Email == nil && r.PhoneNumber.Value == nil {
		return dErrors.New(dErrors.CodeBadRequest, "email or phoneNumber is required to identify the contact")
	}
	return nil
}

func (r *CreateOrderRequest) ToModel() models.CreateRequest {
	return models.CreateRequest{
		Email:       r.Email,
		PhoneNumber: r.PhoneNumber.Value,
		ProductName: r.ProductName,
		OrderValue:  r.OrderValue,
	}
}
