package models

import (
	"fmt"
	"strings"
	"time"
)

// Address is the model for the 'addresses' table
type Address struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"userId" db:"user_id"`
	Label     string    `json:"label" db:"label"`
	Line1     string    `json:"line1" db:"line1"`
	Line2     *string   `json:"line2,omitempty" db:"line2"`
	City      string    `json:"city" db:"city"`
	Postcode  string    `json:"postcode" db:"postcode"`
	Phone     string    `json:"phone" db:"phone"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Snapshot renders the address as the single line copied onto an order.
func (a *Address) Snapshot() string {
	parts := []string{a.Line1}
	if a.Line2 != nil && *a.Line2 != "" {
		parts = append(parts, *a.Line2)
	}
	parts = append(parts, a.City, a.Postcode)
	return fmt.Sprintf("%s (tel. %s)", strings.Join(parts, ", "), a.Phone)
}
