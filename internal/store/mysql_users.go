package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/01moynul/mealdrop-golang/internal/models"
)

const userColumns = `id, name, email, password_hash, role, stripe_customer_id, created_at, updated_at`

func scanUser(row interface{ Scan(...interface{}) error }) (*models.User, error) {
	var u models.User
	var stripeID sql.NullString
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &stripeID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, notFound(err)
	}
	u.StripeCustomerID = stringPtr(stripeID)
	return &u, nil
}

func (s *queries) CreateUser(ctx context.Context, u *models.User) error {
	now := time.Now()
	query := `
		INSERT INTO users (name, email, password_hash, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	res, err := s.q.ExecContext(ctx, query, u.Name, u.Email, u.PasswordHash, u.Role, now, now)
	if err != nil {
		return conflict(err)
	}
	if u.ID, err = res.LastInsertId(); err != nil {
		return err
	}
	u.CreatedAt, u.UpdatedAt = now, now
	return nil
}

func (s *queries) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return scanUser(s.q.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id))
}

func (s *queries) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(s.q.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", email))
}

func (s *queries) SetStripeCustomerID(ctx context.Context, userID int64, customerID string) error {
	res, err := s.q.ExecContext(ctx,
		"UPDATE users SET stripe_customer_id = ?, updated_at = ? WHERE id = ?",
		customerID, time.Now(), userID)
	if err != nil {
		return err
	}
	return mustAffect(res)
}
