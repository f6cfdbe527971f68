package store

import (
	"context"
	"time"

	"github.com/01moynul/mealdrop-golang/internal/models"
)

func (s *queries) GetActiveCart(ctx context.Context, userID int64) (*models.Cart, error) {
	var c models.Cart
	query := `
		SELECT id, user_id, status, subtotal, tax, discount, total, created_at, updated_at
		FROM carts
		WHERE user_id = ? AND status = 'active'`

	err := s.q.QueryRowContext(ctx, query, userID).Scan(
		&c.ID, &c.UserID, &c.Status, &c.Subtotal, &c.Tax, &c.Discount, &c.Total, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (s *queries) CreateCart(ctx context.Context, c *models.Cart) error {
	now := time.Now()
	c.Status = models.CartActive
	query := `
		INSERT INTO carts (user_id, status, subtotal, tax, discount, total, created_at, updated_at)
		VALUES (?, ?, 0, 0, 0, 0, ?, ?)`

	res, err := s.q.ExecContext(ctx, query, c.UserID, c.Status, now, now)
	if err != nil {
		// unique active_user_id: another request created the cart first
		return conflict(err)
	}
	if c.ID, err = res.LastInsertId(); err != nil {
		return err
	}
	c.CreatedAt, c.UpdatedAt = now, now
	return nil
}

func (s *queries) SaveCartTotals(ctx context.Context, c *models.Cart) error {
	c.UpdatedAt = time.Now()
	_, err := s.q.ExecContext(ctx, `
		UPDATE carts
		SET subtotal = ?, tax = ?, discount = ?, total = ?, updated_at = ?
		WHERE id = ?`,
		c.Subtotal, c.Tax, c.Discount, c.Total, c.UpdatedAt, c.ID)
	return err
}

func (s *queries) CompleteCart(ctx context.Context, cartID int64) error {
	res, err := s.q.ExecContext(ctx,
		"UPDATE carts SET status = 'completed', updated_at = ? WHERE id = ? AND status = 'active'",
		time.Now(), cartID)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

const cartItemSelect = `
	SELECT ci.id, ci.cart_id, ci.meal_id, ci.quantity, ci.unit_price, ci.discount_amount, ci.subtotal,
	       ci.created_at, ci.updated_at, m.name
	FROM cart_items ci
	JOIN meals m ON m.id = ci.meal_id`

func scanCartItem(row interface{ Scan(...interface{}) error }) (*models.CartItem, error) {
	var item models.CartItem
	if err := row.Scan(
		&item.ID, &item.CartID, &item.MealID, &item.Quantity, &item.UnitPrice, &item.DiscountAmount,
		&item.Subtotal, &item.CreatedAt, &item.UpdatedAt, &item.MealName,
	); err != nil {
		return nil, notFound(err)
	}
	return &item, nil
}

func (s *queries) ListCartItems(ctx context.Context, cartID int64) ([]models.CartItem, error) {
	rows, err := s.q.QueryContext(ctx, cartItemSelect+" WHERE ci.cart_id = ? ORDER BY ci.id ASC", cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.CartItem{}
	for rows.Next() {
		item, err := scanCartItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (s *queries) GetCartItem(ctx context.Context, itemID int64) (*models.CartItem, error) {
	return scanCartItem(s.q.QueryRowContext(ctx, cartItemSelect+" WHERE ci.id = ?", itemID))
}

func (s *queries) FindCartItem(ctx context.Context, cartID, mealID int64) (*models.CartItem, error) {
	return scanCartItem(s.q.QueryRowContext(ctx, cartItemSelect+" WHERE ci.cart_id = ? AND ci.meal_id = ?", cartID, mealID))
}

func (s *queries) InsertCartItem(ctx context.Context, item *models.CartItem) error {
	now := time.Now()
	query := `
		INSERT INTO cart_items (cart_id, meal_id, quantity, unit_price, discount_amount, subtotal, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := s.q.ExecContext(ctx, query,
		item.CartID, item.MealID, item.Quantity, item.UnitPrice, item.DiscountAmount, item.Subtotal, now, now)
	if err != nil {
		return conflict(err)
	}
	if item.ID, err = res.LastInsertId(); err != nil {
		return err
	}
	item.CreatedAt, item.UpdatedAt = now, now
	return nil
}

func (s *queries) UpdateCartItem(ctx context.Context, item *models.CartItem) error {
	item.UpdatedAt = time.Now()
	res, err := s.q.ExecContext(ctx, `
		UPDATE cart_items
		SET quantity = ?, unit_price = ?, discount_amount = ?, subtotal = ?, updated_at = ?
		WHERE id = ?`,
		item.Quantity, item.UnitPrice, item.DiscountAmount, item.Subtotal, item.UpdatedAt, item.ID)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func (s *queries) DeleteCartItem(ctx context.Context, itemID int64) error {
	res, err := s.q.ExecContext(ctx, "DELETE FROM cart_items WHERE id = ?", itemID)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func (s *queries) DeleteCartItems(ctx context.Context, cartID int64) error {
	_, err := s.q.ExecContext(ctx, "DELETE FROM cart_items WHERE cart_id = ?", cartID)
	return err
}
