package handlers

import (
	"time"

	"github.com/01moynul/mealdrop-golang/internal/catalog"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ListMeals is the handler for GET /api/meals?category=&search=
func (h *Handlers) ListMeals(c *gin.Context) {
	meals, err := h.Catalog.ListMeals(c.Request.Context(), c.Query("category"), c.Query("search"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, "Meals retrieved", meals)
}

// GetMeal is the handler for GET /api/meals/:id
func (h *Handlers) GetMeal(c *gin.Context) {
	mealID, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	meal, err := h.Catalog.GetMeal(c.Request.Context(), mealID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, "Meal retrieved", meal)
}

// ListCategories is the handler for GET /api/categories
func (h *Handlers) ListCategories(c *gin.Context) {
	categories, err := h.Catalog.ListCategories(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, "Categories retrieved", categories)
}

// --- Admin ---

type CreateCategoryInput struct {
	Name string `json:"name" binding:"required,max=255"`
}

// CreateCategory is the handler for POST /api/admin/categories
func (h *Handlers) CreateCategory(c *gin.Context) {
	var input CreateCategoryInput
	if err := bindJSON(c, &input); err != nil {
		h.respondError(c, err)
		return
	}
	category, err := h.Catalog.CreateCategory(c.Request.Context(), input.Name)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondCreated(c, "Category created", category)
}

// CreateMealInput is the body of POST /api/admin/meals. Prices are
// accepted as JSON numbers or strings.
type CreateMealInput struct {
	CategoryID    int64            `json:"category_id" binding:"required"`
	Name          string           `json:"name" binding:"required,max=255"`
	Description   string           `json:"description"`
	Price         decimal.Decimal  `json:"price"`
	DiscountPrice *decimal.Decimal `json:"discount_price"`
	StockQuantity int              `json:"stock_quantity"`
	IsAvailable   *bool            `json:"is_available"` // defaults to true
	ExpiryDate    *time.Time       `json:"expiry_date"`
}

// CreateMeal is the handler for POST /api/admin/meals
func (h *Handlers) CreateMeal(c *gin.Context) {
	// 1. --- Bind & Validate JSON ---
	var input CreateMealInput
	if err := bindJSON(c, &input); err != nil {
		h.respondError(c, err)
		return
	}

	// 2. --- Build the Service Input ---
	available := true
	if input.IsAvailable != nil {
		available = *input.IsAvailable
	}
	meal, err := h.Catalog.CreateMeal(c.Request.Context(), catalog.NewMeal{
		CategoryID:    input.CategoryID,
		Name:          input.Name,
		Description:   input.Description,
		Price:         input.Price,
		DiscountPrice: input.DiscountPrice,
		StockQuantity: input.StockQuantity,
		IsAvailable:   available,
		ExpiryDate:    input.ExpiryDate,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	respondCreated(c, "Meal created", meal)
}

type UpdateStockInput struct {
	StockQuantity *int `json:"stock_quantity" binding:"required"`
}

// UpdateMealStock is the handler for PATCH /api/admin/meals/:id/stock
func (h *Handlers) UpdateMealStock(c *gin.Context) {
	mealID, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	var input UpdateStockInput
	if err := bindJSON(c, &input); err != nil {
		h.respondError(c, err)
		return
	}
	meal, err := h.Catalog.UpdateStock(c.Request.Context(), mealID, *input.StockQuantity)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, "Stock updated", meal)
}
