package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"github.com/01moynul/mealdrop-golang/internal/apperr"
)

// Stripe is the Gateway on the Stripe API.
type Stripe struct {
	sc *client.API
}

// NewStripe builds a client for secretKey. backends may be nil for the
// default HTTP backends.
func NewStripe(secretKey string, backends *stripe.Backends) *Stripe {
	return &Stripe{sc: client.New(secretKey, backends)}
}

// Charge creates and confirms an off-session PaymentIntent.
func (s *Stripe) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(ToMinorUnits(req.Amount)),
		Currency:      stripe.String(req.Currency),
		Customer:      stripe.String(req.CustomerID),
		PaymentMethod: stripe.String(req.PaymentMethodID),
		Description:   stripe.String(req.Description),
		Confirm:       stripe.Bool(true),
		OffSession:    stripe.Bool(true),
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	pi, err := s.sc.PaymentIntents.New(params)
	if err != nil {
		return nil, chargeError(ctx, err)
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return nil, apperr.PaymentFailed(fmt.Sprintf("payment %s", pi.Status), nil)
	}
	return &ChargeResult{Reference: pi.ID}, nil
}

// chargeError maps a Stripe failure onto the payment error kinds.
func chargeError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return apperr.PaymentTimeout(err)
	}
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		reason := stripeErr.Msg
		if reason == "" {
			reason = string(stripeErr.Code)
		}
		return apperr.PaymentFailed(reason, err)
	}
	return apperr.PaymentFailed("payment provider unavailable", err)
}

// Refund returns the full amount of a PaymentIntent.
func (s *Stripe) Refund(ctx context.Context, reference string) error {
	params := &stripe.RefundParams{PaymentIntent: stripe.String(reference)}
	params.Context = ctx
	if _, err := s.sc.Refunds.New(params); err != nil {
		return fmt.Errorf("refund %s: %w", reference, err)
	}
	return nil
}

func (s *Stripe) CreateCustomer(ctx context.Context, email, name string) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
		Name:  stripe.String(name),
	}
	params.Context = ctx
	cus, err := s.sc.Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("create customer: %w", err)
	}
	return cus.ID, nil
}

// CreateSetup opens a SetupIntent so the client can attach a card.
func (s *Stripe) CreateSetup(ctx context.Context, customerID string) (*Setup, error) {
	params := &stripe.SetupIntentParams{
		Customer:           stripe.String(customerID),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Usage:              stripe.String(string(stripe.SetupIntentUsageOffSession)),
	}
	params.Context = ctx
	si, err := s.sc.SetupIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("create setup intent: %w", err)
	}
	return &Setup{CustomerID: customerID, ClientSecret: si.ClientSecret}, nil
}

func (s *Stripe) ListCards(ctx context.Context, customerID string) ([]Card, error) {
	params := &stripe.PaymentMethodListParams{
		Customer: stripe.String(customerID),
		Type:     stripe.String(string(stripe.PaymentMethodTypeCard)),
	}
	params.Context = ctx

	cards := []Card{}
	iter := s.sc.PaymentMethods.List(params)
	for iter.Next() {
		pm := iter.PaymentMethod()
		if pm.Card == nil {
			continue
		}
		cards = append(cards, Card{
			ID:       pm.ID,
			Brand:    string(pm.Card.Brand),
			Last4:    pm.Card.Last4,
			ExpMonth: pm.Card.ExpMonth,
			ExpYear:  pm.Card.ExpYear,
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("list payment methods: %w", err)
	}
	return cards, nil
}

// DetachCard removes a card after checking it belongs to customerID.
func (s *Stripe) DetachCard(ctx context.Context, customerID, paymentMethodID string) error {
	getParams := &stripe.PaymentMethodParams{}
	getParams.Context = ctx
	pm, err := s.sc.PaymentMethods.Get(paymentMethodID, getParams)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode == 404 {
			return apperr.NotFound("Payment method")
		}
		return fmt.Errorf("get payment method: %w", err)
	}
	if pm.Customer == nil || pm.Customer.ID != customerID {
		return apperr.Unauthorized("This payment method does not belong to you")
	}

	detachParams := &stripe.PaymentMethodDetachParams{}
	detachParams.Context = ctx
	if _, err := s.sc.PaymentMethods.Detach(paymentMethodID, detachParams); err != nil {
		return fmt.Errorf("detach payment method: %w", err)
	}
	return nil
}
