package contract

import (
	"context"
	"time"

	"pdf-chat-be/internal/entity"
	"pdf-chat-be/internal/repository/specification"

	"github.com/google/uuid"
)

type DocumentRepository interface {
	Create(ctx context.Context, document *entity.Document) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Document, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Document, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// UpdateProcessingResult writes only the processing columns.
	UpdateProcessingResult(ctx context.Context, id uuid.UUID, status entity.DocumentStatus, pageCount *int, chunks []string, processErr *string, processedAt *time.Time) error
	TransferOwnership(ctx context.Context, ids []uuid.UUID, ownerId uuid.UUID) error
}
