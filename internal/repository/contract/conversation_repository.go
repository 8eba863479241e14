package contract

import (
	"context"

	"pdf-chat-be/internal/entity"
	"pdf-chat-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ConversationRepository interface {
	// FirstOrCreate loads the existing row for (UserId, DocumentId) into conversation when there is one.
	FirstOrCreate(ctx context.Context, conversation *entity.Conversation) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Conversation, error)
	DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error
}

type MessageRepository interface {
	Create(ctx context.Context, message *entity.Message) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error)
	DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error
}
