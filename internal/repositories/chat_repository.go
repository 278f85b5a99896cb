package repositories

import (
	"github.com/anonto42/prehome/backend/internal/models"
	"gorm.io/gorm"
)

// ChatRepository stores help-chat transcripts
type ChatRepository interface {
	AppendMessages(userID string, messages []models.ChatMessage) error
	GetHistory(userID string, limit int) ([]models.ChatMessage, error)
}

type postgresChatRepository struct {
	db *gorm.DB
}

func NewPostgresChatRepository(db *gorm.DB) ChatRepository {
	return &postgresChatRepository{db: db}
}

// AppendMessages inserts the batch in one transaction, preserving order.
func (r *postgresChatRepository) AppendMessages(userID string, messages []models.ChatMessage) error {
	if len(messages) == 0 {
		return nil
	}
	for i := range messages {
		messages[i].UserID = userID
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&messages).Error
	})
}

// GetHistory returns the last limit messages, oldest first.
func (r *postgresChatRepository) GetHistory(userID string, limit int) ([]models.ChatMessage, error) {
	messages := []models.ChatMessage{}
	err := r.db.Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
