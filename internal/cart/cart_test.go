package cart

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/01moynul/mealdrop-golang/internal/apperr"
	"github.com/01moynul/mealdrop-golang/internal/models"
	"github.com/01moynul/mealdrop-golang/internal/store/memstore"
)

var taxRate = decimal.RequireFromString("0.10")

type fixture struct {
	svc   *Service
	store *memstore.Store
	cat   *models.Category
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ms := memstore.New()
	cat := &models.Category{Name: "Bowls", Slug: "bowls"}
	require.NoError(t, ms.CreateCategory(context.Background(), cat))
	return &fixture{svc: NewService(ms, taxRate, zap.NewNop()), store: ms, cat: cat}
}

func (f *fixture) meal(t *testing.T, name, price, discount string, stock int) *models.Meal {
	t.Helper()
	m := &models.Meal{
		CategoryID:    f.cat.ID,
		Name:          name,
		Slug:          name,
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
		IsAvailable:   true,
	}
	if discount != "" {
		m.DiscountPrice = decimal.NewNullDecimal(decimal.RequireFromString(discount))
	}
	require.NoError(t, f.store.CreateMeal(context.Background(), m))
	return m
}

// assertTotals checks the cart invariants against the stored lines.
func assertTotals(t *testing.T, c *models.Cart) {
	t.Helper()
	sum := decimal.Zero
	for _, item := range c.Items {
		sum = sum.Add(item.Subtotal)
	}
	assert.True(t, sum.Equal(c.Subtotal), "subtotal %s != sum %s", c.Subtotal, sum)
	assert.True(t, c.Subtotal.Add(c.Tax).Equal(c.Total), "total %s != %s + %s", c.Total, c.Subtotal, c.Tax)
}

func TestAddItem_ExampleScenario(t *testing.T) {
	f := newFixture(t)
	meal := f.meal(t, "poke", "10.00", "8.00", 10)

	c, err := f.svc.AddItem(context.Background(), 1, meal.ID, 3)
	require.NoError(t, err)

	require.Len(t, c.Items, 1)
	assert.Equal(t, "8.00", c.Items[0].UnitPrice.StringFixed(2))
	assert.Equal(t, "24.00", c.Items[0].Subtotal.StringFixed(2))
	assert.Equal(t, "24.00", c.Subtotal.StringFixed(2))
	assert.Equal(t, "2.40", c.Tax.StringFixed(2))
	assert.Equal(t, "26.40", c.Total.StringFixed(2))
	assert.Equal(t, "poke", c.Items[0].MealName)
}

func TestAddItem_MergesSameMeal(t *testing.T) {
	f := newFixture(t)
	meal := f.meal(t, "poke", "10.00", "", 5)
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, 1, meal.ID, 2)
	require.NoError(t, err)
	c, err := f.svc.AddItem(ctx, 1, meal.ID, 3)
	require.NoError(t, err)

	require.Len(t, c.Items, 1)
	assert.Equal(t, 5, c.Items[0].Quantity)

	_, err = f.svc.AddItem(ctx, 1, meal.ID, 1)
	assert.ErrorIs(t, err, apperr.InsufficientStock("", 0))

	c, err = f.svc.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, c.Items[0].Quantity, "failed add leaves the line untouched")
}

func TestAddItem_Unavailable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	past := time.Now().Add(-time.Minute)

	soldOut := f.meal(t, "sold-out", "5", "", 0)
	off := &models.Meal{CategoryID: f.cat.ID, Name: "off", Slug: "off", Price: decimal.NewFromInt(5), StockQuantity: 5}
	require.NoError(t, f.store.CreateMeal(ctx, off))
	old := &models.Meal{CategoryID: f.cat.ID, Name: "old", Slug: "old", Price: decimal.NewFromInt(5), StockQuantity: 5, IsAvailable: true, ExpiryDate: &past}
	require.NoError(t, f.store.CreateMeal(ctx, old))

	for _, id := range []int64{soldOut.ID, off.ID, old.ID} {
		_, err := f.svc.AddItem(ctx, 1, id, 1)
		assert.Equal(t, apperr.CodeUnavailable, apperr.CodeOf(err), "meal %d", id)
	}

	_, err := f.svc.AddItem(ctx, 1, 999, 1)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = f.svc.AddItem(ctx, 1, soldOut.ID, 0)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestUpdateItem(t *testing.T) {
	f := newFixture(t)
	meal := f.meal(t, "poke", "4.50", "", 6)
	ctx := context.Background()

	c, err := f.svc.AddItem(ctx, 1, meal.ID, 1)
	require.NoError(t, err)
	itemID := c.Items[0].ID

	c, err = f.svc.UpdateItem(ctx, 1, itemID, 4)
	require.NoError(t, err)
	assert.Equal(t, "18.00", c.Subtotal.StringFixed(2))
	assertTotals(t, c)

	_, err = f.svc.UpdateItem(ctx, 1, itemID, 7)
	assert.Equal(t, apperr.CodeInsufficientStock, apperr.CodeOf(err))

	_, err = f.svc.UpdateItem(ctx, 2, itemID, 2)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err), "another user's line")

	_, err = f.svc.UpdateItem(ctx, 1, 12345, 2)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestRemoveAndClear(t *testing.T) {
	f := newFixture(t)
	a := f.meal(t, "a", "3", "", 10)
	b := f.meal(t, "b", "7", "", 10)
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, 1, a.ID, 2)
	require.NoError(t, err)
	c, err := f.svc.AddItem(ctx, 1, b.ID, 1)
	require.NoError(t, err)
	require.Len(t, c.Items, 2)

	c, err = f.svc.RemoveItem(ctx, 1, c.Items[0].ID)
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, "7.00", c.Subtotal.StringFixed(2))

	c, err = f.svc.Clear(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, c.Items)
	assert.True(t, c.Subtotal.IsZero())
	assert.True(t, c.Tax.IsZero())
	assert.True(t, c.Total.IsZero())
}

func TestSnapshot_EmptyCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Snapshot(ctx, 1)
	assert.ErrorIs(t, err, apperr.EmptyCart(), "no cart at all")

	_, err = f.svc.Get(ctx, 1)
	require.NoError(t, err)
	_, err = f.svc.Snapshot(ctx, 1)
	assert.ErrorIs(t, err, apperr.EmptyCart(), "cart without lines")
}

func TestSnapshot_KeepsStoredTotalsAfterTaxChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	meal := f.meal(t, "poke", "10.00", "8.00", 10)
	_, err := f.svc.AddItem(ctx, 1, meal.ID, 3)
	require.NoError(t, err)

	// Same carts, new rate: nothing has been re-priced since the last edit.
	raised := NewService(f.store, decimal.RequireFromString("0.20"), zap.NewNop())
	c, err := raised.Snapshot(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "24.00", c.Subtotal.StringFixed(2))
	assert.Equal(t, "2.40", c.Tax.StringFixed(2))
	assert.Equal(t, "26.40", c.Total.StringFixed(2))
}

// TestTotalsInvariant runs random mutation sequences and checks the totals
// after every step.
func TestTotalsInvariant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	meals := []*models.Meal{
		f.meal(t, "m1", "2.99", "", 50),
		f.meal(t, "m2", "10.00", "7.49", 50),
		f.meal(t, "m3", "0.35", "", 50),
	}
	rng := rand.New(rand.NewSource(42))

	for step := 0; step < 200; step++ {
		c, err := f.svc.Get(ctx, 1)
		require.NoError(t, err)

		switch op := rng.Intn(3); {
		case op == 0 || len(c.Items) == 0:
			m := meals[rng.Intn(len(meals))]
			c, err = f.svc.AddItem(ctx, 1, m.ID, 1+rng.Intn(3))
		case op == 1:
			item := c.Items[rng.Intn(len(c.Items))]
			c, err = f.svc.UpdateItem(ctx, 1, item.ID, 1+rng.Intn(10))
		default:
			item := c.Items[rng.Intn(len(c.Items))]
			c, err = f.svc.RemoveItem(ctx, 1, item.ID)
		}
		if apperr.CodeOf(err) == apperr.CodeInsufficientStock {
			continue
		}
		require.NoError(t, err)
		assertTotals(t, c)

		for _, item := range c.Items {
			meal, err := f.store.GetMeal(ctx, item.MealID)
			require.NoError(t, err)
			assert.LessOrEqual(t, item.Quantity, meal.StockQuantity)
		}
	}
}
