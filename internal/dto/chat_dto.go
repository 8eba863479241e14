package dto

import (
	"time"

	"pdf-chat-be/pkg/llm"

	"github.com/google/uuid"
)

type SendMessageRequest struct {
	Message string    `json:"message" validate:"required"`
	PdfId   uuid.UUID `json:"pdfId" validate:"required"`
}

type MessageResponse struct {
	Id        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Sources   []string  `json:"sources"`
	Timestamp time.Time `json:"timestamp"`
}

type SendMessageResponse struct {
	Message        string     `json:"message"`
	Usage          *llm.Usage `json:"usage,omitempty"`
	Timestamp      time.Time  `json:"timestamp"`
	ConversationId uuid.UUID  `json:"conversationId"`
}

type ChatHistoryResponse struct {
	Messages       []MessageResponse `json:"messages"`
	ConversationId *uuid.UUID        `json:"conversationId"`
}

type ConnectionTestResponse struct {
	Connected bool `json:"connected"`
}
