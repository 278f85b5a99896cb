package models

import "time"

// Chat message authors
const (
	ChatTypeUser = "user"
	ChatTypeBot  = "bot"
)

// ChatMessage is one line of a user's help-chat transcript (PostgreSQL)
type ChatMessage struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"userId" gorm:"size:24;index"`
	Message   string    `json:"message" gorm:"type:text"`
	Type      string    `json:"type" gorm:"size:10"`
	CreatedAt time.Time `json:"createdAt"`
}

// ChatLine is a transcript line as posted by the client
type ChatLine struct {
	Message string `json:"message" validate:"required"`
	Type    string `json:"type" validate:"required,oneof=user bot"`
}

// SaveChatRequest defines the request body for appending to the transcript
type SaveChatRequest struct {
	Messages []ChatLine `json:"messages" validate:"required,min=1,dive"`
}
