// Package cart implements the shopping cart aggregate: line mutations with
// stock checks and the derived totals.
package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/01moynul/mealdrop-golang/internal/apperr"
	"github.com/01moynul/mealdrop-golang/internal/models"
	"github.com/01moynul/mealdrop-golang/internal/store"
)

// Service is the cart use-case layer. Every mutation runs in one
// transaction and ends by recomputing and saving the cart totals.
type Service struct {
	store   store.Store
	taxRate decimal.Decimal
	log     *zap.Logger
	now     func() time.Time
}

func NewService(s store.Store, taxRate decimal.Decimal, log *zap.Logger) *Service {
	return &Service{store: s, taxRate: taxRate, log: log, now: time.Now}
}

// TaxRate is the rate applied by CalculateTotals.
func (s *Service) TaxRate() decimal.Decimal {
	return s.taxRate
}

// activeCart finds the user's active cart or creates one. A concurrent
// request may create it first; the unique key turns that into ErrConflict
// and we read the winner's row.
func (s *Service) activeCart(ctx context.Context, userID int64) (*models.Cart, error) {
	c, err := s.store.GetActiveCart(ctx, userID)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	c = &models.Cart{UserID: userID}
	err = s.store.CreateCart(ctx, c)
	if errors.Is(err, store.ErrConflict) {
		return s.store.GetActiveCart(ctx, userID)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// recalculate loads the lines of c, recomputes the totals and saves them.
func (s *Service) recalculate(ctx context.Context, q store.Queries, c *models.Cart) error {
	items, err := q.ListCartItems(ctx, c.ID)
	if err != nil {
		return err
	}
	c.Items = items
	c.CalculateTotals(s.taxRate)
	return q.SaveCartTotals(ctx, c)
}

// Get returns the user's active cart with its lines, creating it on first use.
func (s *Service) Get(ctx context.Context, userID int64) (*models.Cart, error) {
	c, err := s.activeCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if c.Items, err = s.store.ListCartItems(ctx, c.ID); err != nil {
		return nil, fmt.Errorf("load cart items: %w", err)
	}
	return c, nil
}

// Snapshot returns the active cart with its lines and persisted totals
// without creating a cart. A missing or empty cart is EmptyCart.
func (s *Service) Snapshot(ctx context.Context, userID int64) (*models.Cart, error) {
	c, err := s.store.GetActiveCart(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.EmptyCart()
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if c.Items, err = s.store.ListCartItems(ctx, c.ID); err != nil {
		return nil, fmt.Errorf("load cart items: %w", err)
	}
	if c.IsEmpty() {
		return nil, apperr.EmptyCart()
	}
	// Totals stay as stored: they are what the customer last saw.
	return c, nil
}

func validQuantity(qty int) error {
	if qty < 1 {
		return apperr.Validation("Invalid quantity", map[string]string{"quantity": "must be at least 1"})
	}
	return nil
}

// AddItem puts qty units of a meal in the cart, merging with an existing
// line for the same meal.
func (s *Service) AddItem(ctx context.Context, userID, mealID int64, qty int) (*models.Cart, error) {
	if err := validQuantity(qty); err != nil {
		return nil, err
	}

	c, err := s.activeCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	err = s.store.WithTx(ctx, func(q store.Queries) error {
		// 1. --- Stock guard ---
		meal, err := q.GetMeal(ctx, mealID)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("Meal")
		}
		if err != nil {
			return err
		}
		if !meal.CanBeOrdered(s.now()) {
			return apperr.Unavailable(meal.Name)
		}

		existing, err := q.FindCartItem(ctx, c.ID, mealID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}

		newQty := qty
		if existing != nil {
			newQty += existing.Quantity
		}
		if !meal.HasSufficientStock(newQty) {
			return apperr.InsufficientStock(meal.Name, meal.StockQuantity)
		}

		// 2. --- Upsert the line at the current effective price ---
		if existing != nil {
			existing.Quantity = newQty
			existing.UnitPrice = meal.EffectivePrice()
			existing.CalculateSubtotal()
			if err := q.UpdateCartItem(ctx, existing); err != nil {
				return err
			}
		} else {
			item := &models.CartItem{
				CartID:         c.ID,
				MealID:         mealID,
				Quantity:       newQty,
				UnitPrice:      meal.EffectivePrice(),
				DiscountAmount: decimal.Zero,
			}
			item.CalculateSubtotal()
			if err := q.InsertCartItem(ctx, item); err != nil {
				return err
			}
		}

		// 3. --- Totals ---
		return s.recalculate(ctx, q, c)
	})
	if err != nil {
		return nil, wrap("add item", err)
	}
	return c, nil
}

// ownedItem loads a line and checks it sits in the user's active cart.
func ownedItem(ctx context.Context, q store.Queries, c *models.Cart, itemID int64) (*models.CartItem, error) {
	item, err := q.GetCartItem(ctx, itemID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Cart item")
	}
	if err != nil {
		return nil, err
	}
	if item.CartID != c.ID {
		return nil, apperr.Unauthorized("This cart item does not belong to you")
	}
	return item, nil
}

// UpdateItem overwrites the quantity of a line.
func (s *Service) UpdateItem(ctx context.Context, userID, itemID int64, qty int) (*models.Cart, error) {
	if err := validQuantity(qty); err != nil {
		return nil, err
	}

	c, err := s.activeCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	err = s.store.WithTx(ctx, func(q store.Queries) error {
		item, err := ownedItem(ctx, q, c, itemID)
		if err != nil {
			return err
		}

		meal, err := q.GetMeal(ctx, item.MealID)
		if err != nil {
			return err
		}
		if !meal.HasSufficientStock(qty) {
			return apperr.InsufficientStock(meal.Name, meal.StockQuantity)
		}

		item.Quantity = qty
		item.CalculateSubtotal()
		if err := q.UpdateCartItem(ctx, item); err != nil {
			return err
		}
		return s.recalculate(ctx, q, c)
	})
	if err != nil {
		return nil, wrap("update item", err)
	}
	return c, nil
}

// RemoveItem deletes one line.
func (s *Service) RemoveItem(ctx context.Context, userID, itemID int64) (*models.Cart, error) {
	c, err := s.activeCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	err = s.store.WithTx(ctx, func(q store.Queries) error {
		if _, err := ownedItem(ctx, q, c, itemID); err != nil {
			return err
		}
		if err := q.DeleteCartItem(ctx, itemID); err != nil {
			return err
		}
		return s.recalculate(ctx, q, c)
	})
	if err != nil {
		return nil, wrap("remove item", err)
	}
	return c, nil
}

// Clear deletes every line; the totals drop to zero.
func (s *Service) Clear(ctx context.Context, userID int64) (*models.Cart, error) {
	c, err := s.activeCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	err = s.store.WithTx(ctx, func(q store.Queries) error {
		if err := q.DeleteCartItems(ctx, c.ID); err != nil {
			return err
		}
		return s.recalculate(ctx, q, c)
	})
	if err != nil {
		return nil, wrap("clear cart", err)
	}
	return c, nil
}

// wrap adds context to infrastructure errors and passes classified ones through.
func wrap(op string, err error) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
