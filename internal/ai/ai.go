// Package ai is the catalog assistant: it answers customer questions with the
// current menu as context.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/01moynul/mealdrop-golang/internal/apperr"
	"github.com/01moynul/mealdrop-golang/internal/models"
)

// MaxMessageLength caps a user message, in characters.
const MaxMessageLength = 1000

// Generator produces one model reply for a system prompt and a user message.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, message string) (text string, tokens int, err error)
}

// MealLister is the catalog read the assistant needs.
type MealLister interface {
	ListMeals(ctx context.Context, categorySlug, search string) ([]models.Meal, error)
}

// HistoryWriter stores each exchange.
type HistoryWriter interface {
	CreateChatHistory(ctx context.Context, h *models.ChatHistory) error
}

// Assistant answers questions about the menu.
type Assistant struct {
	gen     Generator
	catalog MealLister
	history HistoryWriter
	log     *zap.Logger
}

func NewAssistant(gen Generator, catalog MealLister, history HistoryWriter, log *zap.Logger) *Assistant {
	return &Assistant{gen: gen, catalog: catalog, history: history, log: log}
}

// Reply is the assistant's answer.
type Reply struct {
	Response   string `json:"response"`
	TokensUsed int    `json:"tokensUsed"`
}

// catalogEntry is the compact meal shape sent to the model.
type catalogEntry struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    string  `json:"price"`
	Was      *string `json:"regularPrice,omitempty"`
	Stock    int     `json:"stock"`
	About    string  `json:"description,omitempty"`
}

// CatalogJSON renders meals as the JSON block embedded in the prompt.
func CatalogJSON(meals []models.Meal) (string, error) {
	entries := make([]catalogEntry, 0, len(meals))
	for _, m := range meals {
		e := catalogEntry{
			ID:       m.ID,
			Name:     m.Name,
			Category: m.CategoryName,
			Price:    m.EffectivePrice().StringFixed(2),
			Stock:    m.StockQuantity,
			About:    m.Description,
		}
		if m.DiscountPrice.Valid {
			was := m.Price.StringFixed(2)
			e.Was = &was
		}
		entries = append(entries, e)
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// SystemPrompt builds the instructions for the model around catalogJSON.
func SystemPrompt(catalogJSON string) string {
	return fmt.Sprintf(`You are the MealDrop assistant. You help customers choose meals and groceries.
Only recommend items from the catalog below; prices are in the store currency.
If something is not in the catalog, say so. Be concise and friendly.
Catalog (JSON): %s`, catalogJSON)
}

// Chat answers message for userID. Storing the exchange is best effort.
func (a *Assistant) Chat(ctx context.Context, userID int64, message string) (*Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apperr.Validation("Invalid message", map[string]string{"message": "is required"})
	}
	if utf8.RuneCountInString(message) > MaxMessageLength {
		return nil, apperr.Validation("Invalid message", map[string]string{
			"message": fmt.Sprintf("must be at most %d characters", MaxMessageLength),
		})
	}

	// 1. Catalog context
	meals, err := a.catalog.ListMeals(ctx, "", "")
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	catalogJSON, err := CatalogJSON(meals)
	if err != nil {
		return nil, fmt.Errorf("encode catalog: %w", err)
	}

	// 2. Model call
	text, tokens, err := a.gen.Generate(ctx, SystemPrompt(catalogJSON), message)
	if err != nil {
		return nil, fmt.Errorf("generate reply: %w", err)
	}

	// 3. History. The user already has an answer, so a failure is only logged.
	if err := a.history.CreateChatHistory(ctx, &models.ChatHistory{
		UserID:      userID,
		UserMessage: message,
		AIResponse:  text,
	}); err != nil {
		a.log.Warn("failed to save chat history", zap.Int64("user_id", userID), zap.Error(err))
	}

	return &Reply{Response: text, TokensUsed: tokens}, nil
}
