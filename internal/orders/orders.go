// Package orders implements checkout and the order lifecycle.
package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/01moynul/mealdrop-golang/internal/apperr"
	"github.com/01moynul/mealdrop-golang/internal/cart"
	"github.com/01moynul/mealdrop-golang/internal/models"
	"github.com/01moynul/mealdrop-golang/internal/payment"
	"github.com/01moynul/mealdrop-golang/internal/store"
)

// maxNumberAttempts bounds retries on an order number collision.
const maxNumberAttempts = 3

// Config holds the checkout settings.
type Config struct {
	Currency       string
	PaymentTimeout time.Duration
	DeliveryETA    time.Duration
	PickupETA      time.Duration
}

// Notifier receives committed order changes. Implementations must not block.
type Notifier interface {
	OrderPlaced(o *models.Order)
	OrderStatusChanged(o *models.Order, previous models.OrderStatus)
	Go(task string, fn func(ctx context.Context) error)
}

// CatalogInvalidator drops cached listings after stock moves.
type CatalogInvalidator interface {
	Invalidate(ctx context.Context)
}

// Service is the order use-case layer.
type Service struct {
	store    store.Store
	carts    *cart.Service
	gateway  payment.Gateway
	notifier Notifier
	catalog  CatalogInvalidator
	cfg      Config
	log      *zap.Logger

	now       func() time.Time
	newNumber func(time.Time) string
	newKey    func() string
}

func NewService(
	s store.Store,
	carts *cart.Service,
	gateway payment.Gateway,
	notifier Notifier,
	catalog CatalogInvalidator,
	cfg Config,
	log *zap.Logger,
) *Service {
	return &Service{
		store:     s,
		carts:     carts,
		gateway:   gateway,
		notifier:  notifier,
		catalog:   catalog,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
		newNumber: NewOrderNumber,
		newKey:    NewIdempotencyKey,
	}
}

// PlaceOrderInput is the checkout request.
type PlaceOrderInput struct {
	PaymentMethod   models.PaymentMethod
	PaymentMethodID string
	DeliveryType    models.DeliveryType
	AddressID       *int64
	Notes           *string
}

func (in PlaceOrderInput) validate() error {
	fields := map[string]string{}
	switch in.PaymentMethod {
	case models.PaymentCashOnDelivery:
	case models.PaymentCard:
		if in.PaymentMethodID == "" {
			fields["payment_method_id"] = "is required for card payments"
		}
	default:
		fields["payment_method"] = "must be cash_on_delivery or card"
	}
	switch in.DeliveryType {
	case models.DeliveryPickup:
	case models.DeliveryHome:
		if in.AddressID == nil {
			fields["address_id"] = "is required for delivery"
		}
	default:
		fields["delivery_type"] = "must be delivery or pickup"
	}
	if len(fields) > 0 {
		return apperr.Validation("Invalid checkout request", fields)
	}
	return nil
}

// PlaceOrder turns the user's active cart into an order.
//
// The card charge happens before the transaction opens. If the transaction
// then fails the charge is refunded; a failed refund is logged with the
// payment reference for manual reconciliation.
func (s *Service) PlaceOrder(ctx context.Context, userID int64, in PlaceOrderInput) (*models.Order, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	// 1. --- Cart snapshot ---
	c, err := s.carts.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	// 2. --- Re-validate every line ---
	now := s.now()
	for _, item := range c.Items {
		if err := s.checkLine(ctx, item, now); err != nil {
			return nil, err
		}
	}

	// 3. --- Delivery address ---
	var address *models.Address
	if in.DeliveryType == models.DeliveryHome {
		if address, err = s.ownedAddress(ctx, userID, *in.AddressID); err != nil {
			return nil, err
		}
	}

	order := &models.Order{
		UserID:        userID,
		PaymentMethod: in.PaymentMethod,
		PaymentStatus: models.PaymentPending,
		DeliveryType:  in.DeliveryType,
		Subtotal:      c.Subtotal,
		Tax:           c.Tax,
		Discount:      c.Discount,
		Total:         c.Total,
		Notes:         in.Notes,
		Address:       address,
	}
	if address != nil {
		snapshot := address.Snapshot()
		order.AddressID = &address.ID
		order.DeliveryAddress = &snapshot
	}
	order.StampStatus(models.OrderPlaced, now)
	eta := now.Add(s.cfg.DeliveryETA)
	if in.DeliveryType == models.DeliveryPickup {
		eta = now.Add(s.cfg.PickupETA)
	}
	order.EstimatedDeliveryTime = &eta

	// 4. --- Payment ---
	if in.PaymentMethod == models.PaymentCard {
		ref, err := s.charge(ctx, userID, c, in.PaymentMethodID)
		if err != nil {
			return nil, err
		}
		order.PaymentStatus = models.PaymentPaid
		order.PaymentReference = &ref
	}

	// 5. --- Persist ---
	err = s.store.WithTx(ctx, func(q store.Queries) error {
		return s.persist(ctx, q, order, c)
	})
	if err != nil {
		if order.PaymentReference != nil {
			s.refundAfterFailure(ctx, order, err)
		}
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return nil, err
		}
		return nil, fmt.Errorf("place order: %w", err)
	}

	s.log.Info("order placed",
		zap.String("order_number", order.OrderNumber),
		zap.Int64("user_id", userID),
		zap.String("total", order.Total.StringFixed(2)),
		zap.String("payment_method", string(order.PaymentMethod)))

	// 6. --- Side effects ---
	s.notifier.OrderPlaced(order)
	if s.catalog != nil {
		s.notifier.Go("invalidate catalog", func(ctx context.Context) error {
			s.catalog.Invalidate(ctx)
			return nil
		})
	}
	return order, nil
}

// checkLine applies the stock guard to one cart line.
func (s *Service) checkLine(ctx context.Context, item models.CartItem, now time.Time) error {
	meal, err := s.store.GetMeal(ctx, item.MealID)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.ItemUnavailable(item.MealName)
	}
	if err != nil {
		return fmt.Errorf("load meal %d: %w", item.MealID, err)
	}
	if !meal.IsAvailableForSale() || meal.IsExpired(now) || !meal.IsInStock() {
		return apperr.ItemUnavailable(meal.Name)
	}
	if !meal.HasSufficientStock(item.Quantity) {
		return apperr.InsufficientStock(meal.Name, meal.StockQuantity)
	}
	return nil
}

func (s *Service) ownedAddress(ctx context.Context, userID, addressID int64) (*models.Address, error) {
	address, err := s.store.GetAddress(ctx, addressID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Address")
	}
	if err != nil {
		return nil, fmt.Errorf("load address: %w", err)
	}
	if address.UserID != userID {
		return nil, apperr.Unauthorized("This address does not belong to you")
	}
	return address, nil
}

// charge collects the cart total from the user's saved card.
func (s *Service) charge(ctx context.Context, userID int64, c *models.Cart, paymentMethodID string) (string, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load user: %w", err)
	}
	if user.StripeCustomerID == nil {
		return "", apperr.BusinessRule(apperr.CodeBusinessRule, "You have no saved payment methods")
	}

	chargeCtx, cancel := context.WithTimeout(ctx, s.cfg.PaymentTimeout)
	defer cancel()

	res, err := s.gateway.Charge(chargeCtx, payment.ChargeRequest{
		CustomerID:      *user.StripeCustomerID,
		PaymentMethodID: paymentMethodID,
		Amount:          c.Total,
		Currency:        s.cfg.Currency,
		Description:     fmt.Sprintf("MealDrop cart %d", c.ID),
		IdempotencyKey:  s.newKey(),
	})
	if err != nil {
		switch apperr.KindOf(err) {
		case apperr.KindPaymentFailed, apperr.KindPaymentTimeout:
			return "", err
		}
		if errors.Is(chargeCtx.Err(), context.DeadlineExceeded) {
			return "", apperr.PaymentTimeout(err)
		}
		return "", apperr.PaymentFailed("card payments are unavailable", err)
	}
	return res.Reference, nil
}

// persist writes the order, its lines, the stock decrements and the cart
// completion. It runs inside one transaction.
func (s *Service) persist(ctx context.Context, q store.Queries, order *models.Order, c *models.Cart) error {
	// 1. Order row, retrying on an order number collision.
	var err error
	for attempt := 1; attempt <= maxNumberAttempts; attempt++ {
		order.OrderNumber = s.newNumber(s.now())
		if err = q.CreateOrder(ctx, order); !errors.Is(err, store.ErrConflict) {
			break
		}
		s.log.Warn("order number collision", zap.String("order_number", order.OrderNumber), zap.Int("attempt", attempt))
	}
	if err != nil {
		return fmt.Errorf("create order: %w", err)
	}

	// 2. Lines, copied verbatim from the cart.
	order.Items = make([]models.OrderItem, 0, len(c.Items))
	for _, line := range c.Items {
		item := models.OrderItem{
			OrderID:        order.ID,
			MealID:         line.MealID,
			MealName:       line.MealName,
			Quantity:       line.Quantity,
			UnitPrice:      line.UnitPrice,
			DiscountAmount: line.DiscountAmount,
			Subtotal:       line.Subtotal,
		}
		if err := q.CreateOrderItem(ctx, &item); err != nil {
			return fmt.Errorf("create order item: %w", err)
		}
		order.Items = append(order.Items, item)

		// 3. Conditional stock decrement.
		ok, err := q.DecrementStock(ctx, line.MealID, line.Quantity)
		if err != nil {
			return fmt.Errorf("decrement stock: %w", err)
		}
		if !ok {
			available := 0
			meal, err := q.GetMeal(ctx, line.MealID)
			if err != nil {
				s.log.Warn("stock lookup after failed decrement",
					zap.Int64("meal_id", line.MealID), zap.Error(err))
			} else {
				available = meal.StockQuantity
			}
			return apperr.InsufficientStock(line.MealName, available)
		}
	}

	// 4. Close the cart.
	if err := q.CompleteCart(ctx, c.ID); err != nil {
		return fmt.Errorf("complete cart: %w", err)
	}
	if err := q.DeleteCartItems(ctx, c.ID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// refundAfterFailure compensates a charge whose order could not be saved.
// It uses a fresh context so a cancelled request still gets its refund.
func (s *Service) refundAfterFailure(ctx context.Context, order *models.Order, cause error) {
	refundCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.PaymentTimeout)
	defer cancel()

	ref := *order.PaymentReference
	if err := s.gateway.Refund(refundCtx, ref); err != nil {
		s.log.Error("refund after failed checkout failed; reconcile manually",
			zap.String("payment_reference", ref),
			zap.Int64("user_id", order.UserID),
			zap.String("total", order.Total.StringFixed(2)),
			zap.NamedError("cause", cause),
			zap.Error(err))
		return
	}
	s.log.Warn("charge refunded after failed checkout",
		zap.String("payment_reference", ref),
		zap.NamedError("cause", cause))
}
