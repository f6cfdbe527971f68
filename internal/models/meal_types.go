package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Meal is the model for the 'meals' table.
type Meal struct {
	ID            int64               `json:"id" db:"id"`
	CategoryID    int64               `json:"categoryId" db:"category_id"`
	Name          string              `json:"name" db:"name"`
	Slug          string              `json:"slug" db:"slug"`
	Description   string              `json:"description" db:"description"`
	Price         decimal.Decimal     `json:"price" db:"price"`
	DiscountPrice decimal.NullDecimal `json:"discountPrice" db:"discount_price"`
	StockQuantity int                 `json:"stock" db:"stock_quantity"`
	IsAvailable   bool                `json:"isAvailable" db:"is_available"`
	ExpiryDate    *time.Time          `json:"expiryDate,omitempty" db:"expiry_date"`
	CreatedAt     time.Time           `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time           `json:"updatedAt" db:"updated_at"`

	// Joined from categories
	CategoryName string `json:"categoryName,omitempty" db:"-"`
}

// EffectivePrice is the discount price when one is set, else the regular price.
func (m *Meal) EffectivePrice() decimal.Decimal {
	if m.DiscountPrice.Valid {
		return m.DiscountPrice.Decimal
	}
	return m.Price
}

// --- Stock guard ---

// IsAvailableForSale reports the availability flag.
func (m *Meal) IsAvailableForSale() bool {
	return m.IsAvailable
}

// IsInStock reports whether at least one unit is left.
func (m *Meal) IsInStock() bool {
	return m.StockQuantity > 0
}

// HasSufficientStock reports whether qty units can be taken.
func (m *Meal) HasSufficientStock(qty int) bool {
	return m.StockQuantity >= qty
}

// IsExpired reports whether the expiry date lies before now. Meals without
// an expiry date never expire.
func (m *Meal) IsExpired(now time.Time) bool {
	return m.ExpiryDate != nil && m.ExpiryDate.Before(now)
}

// CanBeOrdered combines the availability, stock and expiry checks.
func (m *Meal) CanBeOrdered(now time.Time) bool {
	return m.IsAvailableForSale() && m.IsInStock() && !m.IsExpired(now)
}

// MealFilter narrows a catalog listing.
type MealFilter struct {
	CategorySlug string
	Search       string
	OnlySellable bool
	Now          time.Time
}
