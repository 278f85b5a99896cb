package handlers

import (
	"net/http"
	"strconv"

	"github.com/anonto42/prehome/backend/internal/models"
	"github.com/anonto42/prehome/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// ChatHandler stores and replays the help-chat transcript
type ChatHandler struct {
	chatRepository repositories.ChatRepository
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(chatRepo repositories.ChatRepository) *ChatHandler {
	return &ChatHandler{chatRepository: chatRepo}
}

// RegisterChatRoutes registers chat routes
func (h *ChatHandler) RegisterChatRoutes(g *echo.Group) {
	g.POST("/chat/save-chat", h.SaveChat)
	g.GET("/chat/history", h.GetHistory)
}

// SaveChat appends a batch of transcript lines
func (h *ChatHandler) SaveChat(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	var req models.SaveChatRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	messages := make([]models.ChatMessage, len(req.Messages))
	for i, line := range req.Messages {
		messages[i] = models.ChatMessage{Message: line.Message, Type: line.Type}
	}
	if err := h.chatRepository.AppendMessages(userID, messages); err != nil {
		return repositoryError(c, err, "")
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "Chat saved successfully", "saved": len(messages)})
}

// GetHistory returns the caller's most recent lines, oldest first
func (h *ChatHandler) GetHistory(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 || limit > 500 {
		limit = 100
	}

	messages, err := h.chatRepository.GetHistory(userID, limit)
	if err != nil {
		return repositoryError(c, err, "")
	}
	return c.JSON(http.StatusOK, messages)
}
