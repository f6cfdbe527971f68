// Package payment charges card orders through a payment provider.
package payment

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrDisabled is returned by Disabled for every call.
var ErrDisabled = errors.New("payment: card payments are not configured")

// ChargeRequest is one off-session card charge.
type ChargeRequest struct {
	CustomerID      string
	PaymentMethodID string
	Amount          decimal.Decimal
	Currency        string
	Description     string
	// IdempotencyKey makes a retried charge safe on the provider side.
	IdempotencyKey string
}

// ChargeResult identifies a captured payment.
type ChargeResult struct {
	Reference string
}

// Card is a saved payment method as shown to the customer.
type Card struct {
	ID       string `json:"id"`
	Brand    string `json:"brand"`
	Last4    string `json:"last4"`
	ExpMonth int64  `json:"expMonth"`
	ExpYear  int64  `json:"expYear"`
}

// Setup is what the client needs to collect a new card.
type Setup struct {
	CustomerID   string `json:"customerId"`
	ClientSecret string `json:"clientSecret"`
}

// Gateway is the payment provider. Charge returns an *apperr.Error of kind
// PaymentFailed or PaymentTimeout when the charge does not go through.
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
	Refund(ctx context.Context, reference string) error
	CreateCustomer(ctx context.Context, email, name string) (string, error)
	CreateSetup(ctx context.Context, customerID string) (*Setup, error)
	ListCards(ctx context.Context, customerID string) ([]Card, error)
	DetachCard(ctx context.Context, customerID, paymentMethodID string) error
}

// ToMinorUnits converts an amount to cents, rounding half away from zero.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// Disabled is the Gateway used when no provider key is configured.
type Disabled struct{}

func (Disabled) Charge(context.Context, ChargeRequest) (*ChargeResult, error) {
	return nil, ErrDisabled
}
func (Disabled) Refund(context.Context, string) error { return ErrDisabled }
func (Disabled) CreateCustomer(context.Context, string, string) (string, error) {
	return "", ErrDisabled
}
func (Disabled) CreateSetup(context.Context, string) (*Setup, error) { return nil, ErrDisabled }
func (Disabled) ListCards(context.Context, string) ([]Card, error)   { return nil, ErrDisabled }
func (Disabled) DetachCard(context.Context, string, string) error    { return ErrDisabled }
