package orders

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/01moynul/mealdrop-golang/internal/apperr"
	"github.com/01moynul/mealdrop-golang/internal/models"
	"github.com/01moynul/mealdrop-golang/internal/store"
)

// AdvanceStatus moves an order one step along placed → … → delivered, or to
// cancelled from any non-terminal status. The write only lands while the
// order still has the status it was read with, so concurrent updates cannot
// both apply. Cancelling a paid card order refunds it inside the same
// transaction, after the transition has been claimed.
func (s *Service) AdvanceStatus(ctx context.Context, orderID int64, next models.OrderStatus) (*models.Order, error) {
	if !next.IsValid() {
		return nil, apperr.Validation("Invalid status", map[string]string{"status": "unknown status " + string(next)})
	}

	o, err := s.store.GetOrder(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Order")
	}
	if err != nil {
		return nil, fmt.Errorf("get order %d: %w", orderID, err)
	}

	previous := o.Status
	if !previous.CanTransitionTo(next) {
		return nil, apperr.BusinessRulef(apperr.CodeInvalidTransition,
			"Cannot move order from %s to %s", previous, next)
	}

	refund := next == models.OrderCancelled && o.PaymentStatus == models.PaymentPaid && o.PaymentReference != nil
	if refund {
		o.PaymentStatus = models.PaymentRefunded
	}
	o.StampStatus(next, s.now())

	refunded := false
	err = s.store.WithTx(ctx, func(q store.Queries) error {
		if err := q.UpdateOrderStatus(ctx, o, previous); err != nil {
			return err
		}
		if refund {
			if err := s.gateway.Refund(ctx, *o.PaymentReference); err != nil {
				return fmt.Errorf("refund cancelled order: %w", err)
			}
			refunded = true
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, apperr.BusinessRulef(apperr.CodeInvalidTransition,
				"Order %s was updated by someone else; reload and try again", o.OrderNumber)
		}
		if refunded {
			s.log.Error("order refunded but status not saved; reconcile manually",
				zap.String("order_number", o.OrderNumber),
				zap.Stringp("payment_reference", o.PaymentReference),
				zap.Error(err))
		}
		return nil, fmt.Errorf("update order status: %w", err)
	}

	s.log.Info("order status changed",
		zap.String("order_number", o.OrderNumber),
		zap.String("from", string(previous)),
		zap.String("to", string(next)))

	s.notifier.OrderStatusChanged(o, previous)
	return o, nil
}
