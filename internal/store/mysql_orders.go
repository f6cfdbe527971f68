package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/01moynul/mealdrop-golang/internal/models"
)

const orderColumns = `
	id, order_number, user_id, address_id, delivery_address, payment_method, payment_status, payment_reference,
	delivery_type, status, subtotal, tax, discount, total, notes,
	placed_at, processing_at, shipping_at, out_for_delivery_at, delivered_at, cancelled_at,
	estimated_delivery_time, created_at, updated_at`

func scanOrder(row interface{ Scan(...interface{}) error }) (*models.Order, error) {
	var o models.Order
	var (
		addressID                                                 sql.NullInt64
		address, reference, notes                                 sql.NullString
		placed, processing, shipping, outFor, delivered, canceled sql.NullTime
		eta                                                       sql.NullTime
	)
	if err := row.Scan(
		&o.ID, &o.OrderNumber, &o.UserID, &addressID, &address, &o.PaymentMethod, &o.PaymentStatus, &reference,
		&o.DeliveryType, &o.Status, &o.Subtotal, &o.Tax, &o.Discount, &o.Total, &notes,
		&placed, &processing, &shipping, &outFor, &delivered, &canceled,
		&eta, &o.CreatedAt, &o.UpdatedAt,
	); err != nil {
		return nil, notFound(err)
	}

	o.AddressID = int64Ptr(addressID)
	o.DeliveryAddress = stringPtr(address)
	o.PaymentReference = stringPtr(reference)
	o.Notes = stringPtr(notes)
	o.PlacedAt = timePtr(placed)
	o.ProcessingAt = timePtr(processing)
	o.ShippingAt = timePtr(shipping)
	o.OutForDeliveryAt = timePtr(outFor)
	o.DeliveredAt = timePtr(delivered)
	o.CancelledAt = timePtr(canceled)
	o.EstimatedDeliveryTime = timePtr(eta)
	return &o, nil
}

func (s *queries) CreateOrder(ctx context.Context, o *models.Order) error {
	now := time.Now()
	query := `
		INSERT INTO orders
		(order_number, user_id, address_id, delivery_address, payment_method, payment_status, payment_reference,
		 delivery_type, status, subtotal, tax, discount, total, notes, placed_at, estimated_delivery_time,
		 created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := s.q.ExecContext(ctx, query,
		o.OrderNumber, o.UserID, o.AddressID, o.DeliveryAddress, o.PaymentMethod, o.PaymentStatus, o.PaymentReference,
		o.DeliveryType, o.Status, o.Subtotal, o.Tax, o.Discount, o.Total, o.Notes, o.PlacedAt, o.EstimatedDeliveryTime,
		now, now)
	if err != nil {
		return conflict(err)
	}
	if o.ID, err = res.LastInsertId(); err != nil {
		return err
	}
	o.CreatedAt, o.UpdatedAt = now, now
	return nil
}

func (s *queries) CreateOrderItem(ctx context.Context, item *models.OrderItem) error {
	now := time.Now()
	query := `
		INSERT INTO order_items (order_id, meal_id, meal_name, quantity, unit_price, discount_amount, subtotal, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := s.q.ExecContext(ctx, query,
		item.OrderID, item.MealID, item.MealName, item.Quantity, item.UnitPrice, item.DiscountAmount, item.Subtotal, now)
	if err != nil {
		return err
	}
	if item.ID, err = res.LastInsertId(); err != nil {
		return err
	}
	item.CreatedAt = now
	return nil
}

func (s *queries) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	return scanOrder(s.q.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = ?", id))
}

func (s *queries) GetOrderByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	return scanOrder(s.q.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE order_number = ?", orderNumber))
}

func (s *queries) ListOrders(ctx context.Context, userID int64) ([]models.Order, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE user_id = ? ORDER BY created_at DESC, id DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

func (s *queries) ListOrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, order_id, meal_id, meal_name, quantity, unit_price, discount_amount, subtotal, created_at
		FROM order_items
		WHERE order_id = ?
		ORDER BY id ASC`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.OrderItem{}
	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(
			&item.ID, &item.OrderID, &item.MealID, &item.MealName, &item.Quantity,
			&item.UnitPrice, &item.DiscountAmount, &item.Subtotal, &item.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *queries) UpdateOrderStatus(ctx context.Context, o *models.Order, from models.OrderStatus) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE orders
		SET status = ?, payment_status = ?, processing_at = ?, shipping_at = ?, out_for_delivery_at = ?,
		    delivered_at = ?, cancelled_at = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		o.Status, o.PaymentStatus, o.ProcessingAt, o.ShippingAt, o.OutForDeliveryAt,
		o.DeliveredAt, o.CancelledAt, o.UpdatedAt, o.ID, from)
	if err != nil {
		return err
	}
	// The caller has just read the row, so no match means another writer moved it.
	if err = mustAffect(res); errors.Is(err, ErrNotFound) {
		return ErrConflict
	}
	return err
}
