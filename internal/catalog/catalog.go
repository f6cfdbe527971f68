// Package catalog serves meal and category browsing and the admin writes
// that change it.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/01moynul/mealdrop-golang/internal/apperr"
	"github.com/01moynul/mealdrop-golang/internal/models"
	"github.com/01moynul/mealdrop-golang/internal/store"
)

// MealsKeyPrefix prefixes every cached meal listing.
const MealsKeyPrefix = "catalog:meals:"

// Cache is the read-through cache for listings. A nil Cache disables caching.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, v any) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// Service is the catalog use-case layer.
type Service struct {
	store store.Store
	cache Cache
	log   *zap.Logger
	now   func() time.Time
}

// NewService builds a Service. cache may be nil.
func NewService(s store.Store, cache Cache, log *zap.Logger) *Service {
	return &Service{store: s, cache: cache, log: log, now: time.Now}
}

func mealsKey(categorySlug, search string) string {
	return MealsKeyPrefix + categorySlug + ":" + strings.ToLower(search)
}

// ListMeals returns the sellable meals, optionally narrowed by category slug
// and a name/description search.
func (s *Service) ListMeals(ctx context.Context, categorySlug, search string) ([]models.Meal, error) {
	search = strings.TrimSpace(search)
	key := mealsKey(categorySlug, search)

	// 1. --- Cache lookup ---
	if s.cache != nil {
		var cached []models.Meal
		hit, err := s.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			s.log.Warn("catalog cache read failed", zap.String("key", key), zap.Error(err))
		} else if hit {
			return cached, nil
		}
	}

	// 2. --- Database ---
	meals, err := s.store.ListMeals(ctx, models.MealFilter{
		CategorySlug: categorySlug,
		Search:       search,
		OnlySellable: true,
		Now:          s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("list meals: %w", err)
	}

	// 3. --- Fill cache ---
	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, meals); err != nil {
			s.log.Warn("catalog cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return meals, nil
}

func (s *Service) GetMeal(ctx context.Context, id int64) (*models.Meal, error) {
	meal, err := s.store.GetMeal(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Meal")
	}
	if err != nil {
		return nil, fmt.Errorf("get meal %d: %w", id, err)
	}
	return meal, nil
}

func (s *Service) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// Invalidate drops every cached listing. Errors are logged only.
func (s *Service) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeletePrefix(ctx, MealsKeyPrefix); err != nil {
		s.log.Warn("catalog cache invalidation failed", zap.Error(err))
	}
}

//
// --- Admin writes ---
//

func (s *Service) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("Invalid category", map[string]string{"name": "is required"})
	}

	c := &models.Category{Name: name, Slug: slug.Make(name)}
	if err := s.store.CreateCategory(ctx, c); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, apperr.BusinessRulef(apperr.CodeBusinessRule, "Category %q already exists", name)
		}
		return nil, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

// NewMeal is the admin input for a meal.
type NewMeal struct {
	CategoryID    int64
	Name          string
	Description   string
	Price         decimal.Decimal
	DiscountPrice *decimal.Decimal
	StockQuantity int
	IsAvailable   bool
	ExpiryDate    *time.Time
}

func (in NewMeal) validate() error {
	fields := map[string]string{}
	if strings.TrimSpace(in.Name) == "" {
		fields["name"] = "is required"
	}
	if !in.Price.IsPositive() {
		fields["price"] = "must be greater than 0"
	}
	if in.DiscountPrice != nil && (in.DiscountPrice.IsNegative() || in.DiscountPrice.GreaterThanOrEqual(in.Price)) {
		fields["discount_price"] = "must be between 0 and price"
	}
	if in.StockQuantity < 0 {
		fields["stock_quantity"] = "must not be negative"
	}
	if len(fields) > 0 {
		return apperr.Validation("Invalid meal", fields)
	}
	return nil
}

func (s *Service) CreateMeal(ctx context.Context, in NewMeal) (*models.Meal, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	m := &models.Meal{
		CategoryID:    in.CategoryID,
		Name:          strings.TrimSpace(in.Name),
		Slug:          slug.Make(in.Name),
		Description:   in.Description,
		Price:         models.RoundMoney(in.Price),
		StockQuantity: in.StockQuantity,
		IsAvailable:   in.IsAvailable,
		ExpiryDate:    in.ExpiryDate,
	}
	if in.DiscountPrice != nil {
		m.DiscountPrice = decimal.NewNullDecimal(models.RoundMoney(*in.DiscountPrice))
	}

	if err := s.store.CreateMeal(ctx, m); err != nil {
		switch {
		case errors.Is(err, store.ErrConflict):
			return nil, apperr.BusinessRulef(apperr.CodeBusinessRule, "Meal %q already exists", m.Name)
		case errors.Is(err, store.ErrNotFound):
			return nil, apperr.NotFound("Category")
		}
		return nil, fmt.Errorf("create meal: %w", err)
	}

	s.Invalidate(ctx)
	return m, nil
}

// UpdateStock sets the stock level of a meal.
func (s *Service) UpdateStock(ctx context.Context, mealID int64, stock int) (*models.Meal, error) {
	if stock < 0 {
		return nil, apperr.Validation("Invalid stock", map[string]string{"stock_quantity": "must not be negative"})
	}
	if err := s.store.SetMealStock(ctx, mealID, stock); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("Meal")
		}
		return nil, fmt.Errorf("update stock: %w", err)
	}

	s.Invalidate(ctx)
	return s.GetMeal(ctx, mealID)
}
