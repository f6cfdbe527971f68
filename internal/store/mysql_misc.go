package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/01moynul/mealdrop-golang/internal/models"
)

//
// --- Addresses ---
//

func (s *queries) CreateAddress(ctx context.Context, a *models.Address) error {
	now := time.Now()
	query := `
		INSERT INTO addresses (user_id, label, line1, line2, city, postcode, phone, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := s.q.ExecContext(ctx, query, a.UserID, a.Label, a.Line1, a.Line2, a.City, a.Postcode, a.Phone, now, now)
	if err != nil {
		return err
	}
	if a.ID, err = res.LastInsertId(); err != nil {
		return err
	}
	a.CreatedAt, a.UpdatedAt = now, now
	return nil
}

const addressColumns = `id, user_id, label, line1, line2, city, postcode, phone, created_at, updated_at`

func scanAddress(row interface{ Scan(...interface{}) error }) (*models.Address, error) {
	var a models.Address
	var line2 sql.NullString
	if err := row.Scan(&a.ID, &a.UserID, &a.Label, &a.Line1, &line2, &a.City, &a.Postcode, &a.Phone, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, notFound(err)
	}
	a.Line2 = stringPtr(line2)
	return &a, nil
}

func (s *queries) GetAddress(ctx context.Context, id int64) (*models.Address, error) {
	return scanAddress(s.q.QueryRowContext(ctx, "SELECT "+addressColumns+" FROM addresses WHERE id = ?", id))
}

func (s *queries) ListAddresses(ctx context.Context, userID int64) ([]models.Address, error) {
	rows, err := s.q.QueryContext(ctx, "SELECT "+addressColumns+" FROM addresses WHERE user_id = ? ORDER BY id ASC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	addresses := []models.Address{}
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, err
		}
		addresses = append(addresses, *a)
	}
	return addresses, rows.Err()
}

//
// --- Notifications ---
//

func (s *queries) CreateNotification(ctx context.Context, n *models.Notification) error {
	now := time.Now()
	res, err := s.q.ExecContext(ctx, `
		INSERT INTO notifications (user_id, message, link, is_read, created_at)
		VALUES (?, ?, ?, 0, ?)`,
		n.UserID, n.Message, n.Link, now)
	if err != nil {
		return err
	}
	if n.ID, err = res.LastInsertId(); err != nil {
		return err
	}
	n.CreatedAt = now
	return nil
}

func (s *queries) ListNotifications(ctx context.Context, userID int64) ([]models.Notification, error) {
	// Unread first, newest first, capped at 50.
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, user_id, message, link, is_read, created_at
		FROM notifications
		WHERE user_id = ?
		ORDER BY is_read ASC, created_at DESC
		LIMIT 50`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		var link sql.NullString
		if err := rows.Scan(&n.ID, &n.UserID, &n.Message, &link, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		n.Link = stringPtr(link)
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (s *queries) MarkNotificationRead(ctx context.Context, id, userID int64) (bool, error) {
	// Matching on user_id stops a user from touching someone else's inbox.
	res, err := s.q.ExecContext(ctx, "UPDATE notifications SET is_read = 1 WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

//
// --- Assistant history ---
//

func (s *queries) CreateChatHistory(ctx context.Context, h *models.ChatHistory) error {
	now := time.Now()
	res, err := s.q.ExecContext(ctx, `
		INSERT INTO ai_chat_history (user_id, user_message, ai_response, created_at)
		VALUES (?, ?, ?, ?)`,
		h.UserID, h.UserMessage, h.AIResponse, now)
	if err != nil {
		return err
	}
	if h.ID, err = res.LastInsertId(); err != nil {
		return err
	}
	h.CreatedAt = now
	return nil
}
