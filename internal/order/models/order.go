package models

import (
	"math"
	"strconv"
	"strings"
	"time"

	contactmodels "reconciler/internal/contact/models"
	dErrors "reconciler/pkg/domain-errors"
)

type OrderID int64

func (id OrderID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Order is attached to the primary contact of the buyer's cluster at the
// time it was placed.
type Order struct {
	ID          OrderID                 `json:"id"`
	ProductName string                  `json:"productName"`
	OrderValue  float64                 `json:"orderValue"`
	ContactID   contactmodels.ContactID `json:"contactId"`
	CreatedAt   time.Time               `json:"createdAt"`
}

// CreateRequest carries everything needed to place an order.
type CreateRequest struct {
	Email       *string
	PhoneNumber *string
	ProductName string
	OrderValue  float64
}

// Normalize trims the product name.
func (r *CreateRequest) Normalize() {
	r.ProductName = strings.TrimSpace(r.ProductName)
}

// Validate checks the order fields. Identity fields are checked by the
// resolver.
func (r *CreateRequest) Validate() error {
	if r.ProductName == "" {
		return dErrors.New(dErrors.CodeValidation, "productName is required")
	}
	if math.IsNaN(r.OrderValue) || math.IsInf(r.OrderValue, 0) || r.OrderValue <= 0 {
		return dErrors.New(dErrors.CodeValidation, "orderValue must be a positive number")
	}
	return nil
}
