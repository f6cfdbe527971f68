package models

import (
	"time"
)

// Notification is the model for the 'notifications' table
type Notification struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"userId" db:"user_id"`
	Message   string    `json:"message" db:"message"`
	Link      *string   `json:"link,omitempty" db:"link"`
	IsRead    bool      `json:"isRead" db:"is_read"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// ChatHistory is one assistant exchange in 'ai_chat_history'.
type ChatHistory struct {
	ID          int64     `json:"id" db:"id"`
	UserID      int64     `json:"userId" db:"user_id"`
	UserMessage string    `json:"userMessage" db:"user_message"`
	AIResponse  string    `json:"aiResponse" db:"ai_response"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}
