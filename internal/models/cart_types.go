package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartStatus is the lifecycle state of a cart.
type CartStatus string

const (
	CartActive    CartStatus = "active"
	CartCompleted CartStatus = "completed"
)

// Cart defines the struct for the 'carts' table.
// Subtotal, Tax, Discount and Total are caches derived from Items by CalculateTotals.
type Cart struct {
	ID        int64           `json:"id" db:"id"`
	UserID    int64           `json:"userId" db:"user_id"`
	Status    CartStatus      `json:"status" db:"status"`
	Subtotal  decimal.Decimal `json:"subtotal" db:"subtotal"`
	Tax       decimal.Decimal `json:"tax" db:"tax"`
	Discount  decimal.Decimal `json:"discount" db:"discount"`
	Total     decimal.Decimal `json:"total" db:"total"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time       `json:"updatedAt" db:"updated_at"`

	Items []CartItem `json:"items" db:"-"`
}

// CartItem defines the struct for the 'cart_items' table
type CartItem struct {
	ID             int64           `json:"id" db:"id"`
	CartID         int64           `json:"cartId" db:"cart_id"`
	MealID         int64           `json:"mealId" db:"meal_id"`
	Quantity       int             `json:"quantity" db:"quantity"`
	UnitPrice      decimal.Decimal `json:"unitPrice" db:"unit_price"` // effective meal price when added
	DiscountAmount decimal.Decimal `json:"discountAmount" db:"discount_amount"`
	Subtotal       decimal.Decimal `json:"subtotal" db:"subtotal"`
	CreatedAt      time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time       `json:"updatedAt" db:"updated_at"`

	// Joined from meals, not stored on the row.
	MealName string `json:"mealName,omitempty" db:"-"`
}

// CalculateSubtotal sets Subtotal to unit_price * quantity - discount_amount,
// floored at zero.
func (i *CartItem) CalculateSubtotal() {
	sub := i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity))).Sub(i.DiscountAmount)
	if sub.IsNegative() {
		sub = decimal.Zero
	}
	i.Subtotal = RoundMoney(sub)
}

// CalculateTotals recomputes the cart totals from its current items.
// It is idempotent; an empty cart ends with every total at zero.
func (c *Cart) CalculateTotals(taxRate decimal.Decimal) {
	subtotal := decimal.Zero
	discount := decimal.Zero
	for _, item := range c.Items {
		subtotal = subtotal.Add(item.Subtotal)
		discount = discount.Add(item.DiscountAmount)
	}

	c.Subtotal = RoundMoney(subtotal)
	c.Tax = RoundMoney(subtotal.Mul(taxRate))
	c.Discount = RoundMoney(discount)
	c.Total = c.Subtotal.Add(c.Tax)
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// RoundMoney rounds to cents, half away from zero.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
