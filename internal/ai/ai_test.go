package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/01moynul/mealdrop-golang/internal/apperr"
	"github.com/01moynul/mealdrop-golang/internal/models"
	"github.com/01moynul/mealdrop-golang/internal/store/memstore"
)

type fakeGenerator struct {
	prompt, message string
	err             error
}

func (g *fakeGenerator) Generate(_ context.Context, prompt, message string) (string, int, error) {
	g.prompt, g.message = prompt, message
	if g.err != nil {
		return "", 0, g.err
	}
	return "Try the Poke Bowl.", 42, nil
}

type staticCatalog []models.Meal

func (c staticCatalog) ListMeals(context.Context, string, string) ([]models.Meal, error) {
	return c, nil
}

var menu = staticCatalog{{
	ID:            1,
	Name:          "Poke Bowl",
	CategoryName:  "Bowls",
	Price:         decimal.RequireFromString("10"),
	DiscountPrice: decimal.NewNullDecimal(decimal.RequireFromString("8")),
	StockQuantity: 4,
}}

func TestCatalogJSON(t *testing.T) {
	raw, err := CatalogJSON(menu)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1,"name":"Poke Bowl","category":"Bowls","price":"8.00","regularPrice":"10.00","stock":4}]`, raw)
}

func TestChat_SendsCatalogAndStoresHistory(t *testing.T) {
	gen := &fakeGenerator{}
	ms := memstore.New()
	a := NewAssistant(gen, menu, ms, zap.NewNop())

	reply, err := a.Chat(context.Background(), 7, "  anything cheap?  ")
	require.NoError(t, err)
	assert.Equal(t, "Try the Poke Bowl.", reply.Response)
	assert.Equal(t, 42, reply.TokensUsed)

	assert.Equal(t, "anything cheap?", gen.message)
	assert.Contains(t, gen.prompt, `"name":"Poke Bowl"`)

	history := ms.ChatHistory()
	require.Len(t, history, 1)
	assert.Equal(t, int64(7), history[0].UserID)
	assert.Equal(t, "Try the Poke Bowl.", history[0].AIResponse)
}

func TestChat_HistoryFailureIsLogged(t *testing.T) {
	ms := memstore.New()
	ms.FailNext("CreateChatHistory", errors.New("db down"))
	core, logs := observer.New(zap.WarnLevel)
	a := NewAssistant(&fakeGenerator{}, menu, ms, zap.New(core))

	_, err := a.Chat(context.Background(), 7, "hi")
	require.NoError(t, err)
	assert.Equal(t, 1, logs.Len())
}

func TestChat_Validation(t *testing.T) {
	a := NewAssistant(&fakeGenerator{}, menu, memstore.New(), zap.NewNop())

	_, err := a.Chat(context.Background(), 1, "   ")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = a.Chat(context.Background(), 1, strings.Repeat("a", MaxMessageLength+1))
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestChat_GeneratorError(t *testing.T) {
	a := NewAssistant(&fakeGenerator{err: errors.New("quota")}, menu, memstore.New(), zap.NewNop())
	_, err := a.Chat(context.Background(), 1, "hi")
	assert.Error(t, err)
}

func TestResponseText(t *testing.T) {
	res := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text("Hello "), genai.Text("there")}},
		}},
	}
	assert.Equal(t, "Hello there", ResponseText(res))
	assert.Equal(t, "No response.", ResponseText(&genai.GenerateContentResponse{}))
}
