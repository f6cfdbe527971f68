package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/01moynul/mealdrop-golang/internal/apperr"
	"github.com/01moynul/mealdrop-golang/internal/models"
	"github.com/01moynul/mealdrop-golang/internal/store"
)

// List returns the user's orders, newest first. Lines are not loaded.
func (s *Service) List(ctx context.Context, userID int64) ([]models.Order, error) {
	orders, err := s.store.ListOrders(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// Get returns one of the user's orders with lines and address.
func (s *Service) Get(ctx context.Context, userID, orderID int64) (*models.Order, error) {
	o, err := s.store.GetOrder(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Order")
	}
	if err != nil {
		return nil, fmt.Errorf("get order %d: %w", orderID, err)
	}
	if o.UserID != userID {
		return nil, apperr.Unauthorized("This order does not belong to you")
	}
	if err := s.loadDetails(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Service) loadDetails(ctx context.Context, o *models.Order) error {
	items, err := s.store.ListOrderItems(ctx, o.ID)
	if err != nil {
		return fmt.Errorf("list order items: %w", err)
	}
	o.Items = items

	if o.AddressID != nil {
		address, err := s.store.GetAddress(ctx, *o.AddressID)
		switch {
		case err == nil:
			o.Address = address
		case !errors.Is(err, store.ErrNotFound):
			return fmt.Errorf("load order address: %w", err)
		}
	}
	return nil
}

// Track returns the progress view of one of the user's orders.
func (s *Service) Track(ctx context.Context, userID int64, orderNumber string) (*models.OrderTracking, error) {
	if orderNumber == "" {
		return nil, apperr.Validation("Invalid tracking request", map[string]string{"order_number": "is required"})
	}

	o, err := s.store.GetOrderByNumber(ctx, orderNumber)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Order")
	}
	if err != nil {
		return nil, fmt.Errorf("track order %s: %w", orderNumber, err)
	}
	if o.UserID != userID {
		return nil, apperr.Unauthorized("This order does not belong to you")
	}

	tracking := o.Tracking()
	return &tracking, nil
}
