package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/01moynul/mealdrop-golang/internal/models"
)

func (s *queries) CreateCategory(ctx context.Context, c *models.Category) error {
	now := time.Now()
	res, err := s.q.ExecContext(ctx,
		"INSERT INTO categories (name, slug, created_at, updated_at) VALUES (?, ?, ?, ?)",
		c.Name, c.Slug, now, now)
	if err != nil {
		return conflict(err)
	}
	if c.ID, err = res.LastInsertId(); err != nil {
		return err
	}
	c.CreatedAt, c.UpdatedAt = now, now
	return nil
}

func (s *queries) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := s.q.QueryContext(ctx, "SELECT id, name, slug, created_at, updated_at FROM categories ORDER BY name ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (s *queries) CreateMeal(ctx context.Context, m *models.Meal) error {
	now := time.Now()
	query := `
		INSERT INTO meals
		(category_id, name, slug, description, price, discount_price, stock_quantity, is_available, expiry_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := s.q.ExecContext(ctx, query,
		m.CategoryID, m.Name, m.Slug, m.Description, m.Price, m.DiscountPrice,
		m.StockQuantity, m.IsAvailable, m.ExpiryDate, now, now)
	if err != nil {
		return conflict(err)
	}
	if m.ID, err = res.LastInsertId(); err != nil {
		return err
	}
	m.CreatedAt, m.UpdatedAt = now, now
	return nil
}

const mealSelect = `
	SELECT m.id, m.category_id, m.name, m.slug, m.description, m.price, m.discount_price,
	       m.stock_quantity, m.is_available, m.expiry_date, m.created_at, m.updated_at, c.name
	FROM meals m
	JOIN categories c ON c.id = m.category_id`

func scanMeal(row interface{ Scan(...interface{}) error }) (*models.Meal, error) {
	var m models.Meal
	var expiry sql.NullTime
	if err := row.Scan(
		&m.ID, &m.CategoryID, &m.Name, &m.Slug, &m.Description, &m.Price, &m.DiscountPrice,
		&m.StockQuantity, &m.IsAvailable, &expiry, &m.CreatedAt, &m.UpdatedAt, &m.CategoryName,
	); err != nil {
		return nil, notFound(err)
	}
	m.ExpiryDate = timePtr(expiry)
	return &m, nil
}

func (s *queries) GetMeal(ctx context.Context, id int64) (*models.Meal, error) {
	return scanMeal(s.q.QueryRowContext(ctx, mealSelect+" WHERE m.id = ?", id))
}

func (s *queries) ListMeals(ctx context.Context, f models.MealFilter) ([]models.Meal, error) {
	// 1. --- Build WHERE clause from the filter ---
	var where []string
	var args []interface{}

	if f.CategorySlug != "" {
		where = append(where, "c.slug = ?")
		args = append(args, f.CategorySlug)
	}
	if f.Search != "" {
		where = append(where, "(m.name LIKE ? OR m.description LIKE ?)")
		like := "%" + f.Search + "%"
		args = append(args, like, like)
	}
	if f.OnlySellable {
		where = append(where, "m.is_available = 1 AND m.stock_quantity > 0 AND (m.expiry_date IS NULL OR m.expiry_date >= ?)")
		args = append(args, f.Now)
	}

	query := mealSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY m.name ASC"

	// 2. --- Execute & scan ---
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	meals := []models.Meal{}
	for rows.Next() {
		m, err := scanMeal(rows)
		if err != nil {
			return nil, err
		}
		meals = append(meals, *m)
	}
	return meals, rows.Err()
}

func (s *queries) SetMealStock(ctx context.Context, mealID int64, stock int) error {
	res, err := s.q.ExecContext(ctx,
		"UPDATE meals SET stock_quantity = ?, updated_at = ? WHERE id = ?",
		stock, time.Now(), mealID)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func (s *queries) DecrementStock(ctx context.Context, mealID int64, qty int) (bool, error) {
	// The guard in the WHERE clause makes the check-and-decrement atomic, so two
	// checkouts racing for the last units cannot drive stock negative.
	res, err := s.q.ExecContext(ctx, `
		UPDATE meals
		SET stock_quantity = stock_quantity - ?, updated_at = ?
		WHERE id = ? AND stock_quantity >= ?`,
		qty, time.Now(), mealID, qty)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
