package unitofwork

import (
	"context"
	"errors"
	"time"

	"pdf-chat-be/internal/entity"
	"pdf-chat-be/internal/repository/specification"
	"pdf-chat-be/pkg/store"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DocumentStore exposes the document repository through the narrow
// store.DocumentStore contract used by retrieval and processing.
type DocumentStore struct {
	factory RepositoryFactory
}

func NewDocumentStore(factory RepositoryFactory) *DocumentStore {
	return &DocumentStore{factory: factory}
}

func (s *DocumentStore) FindByID(ctx context.Context, id uuid.UUID) (*store.Document, error) {
	uow := s.factory.NewUnitOfWork(ctx)
	doc, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, store.ErrDocumentNotFound
	}
	return ToStoreDocument(doc), nil
}

func (s *DocumentStore) UpdateStatusAndChunks(ctx context.Context, id uuid.UUID, status store.DocumentStatus, pageCount *int, chunks []string, processErr string) error {
	var errPtr *string
	if processErr != "" {
		errPtr = &processErr
	}

	var processedAt *time.Time
	if status != store.StatusProcessing {
		now := time.Now()
		processedAt = &now
	}

	uow := s.factory.NewUnitOfWork(ctx)
	err := uow.DocumentRepository().UpdateProcessingResult(ctx, id, entity.DocumentStatus(status), pageCount, chunks, errPtr, processedAt)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.ErrDocumentNotFound
	}
	return err
}

func ToStoreDocument(doc *entity.Document) *store.Document {
	return &store.Document{
		ID:           doc.Id,
		OwnerID:      doc.OwnerId,
		Name:         doc.Name,
		OriginalName: doc.OriginalName,
		Status:       store.DocumentStatus(doc.Status),
		PageCount:    doc.PageCount,
		StorageKey:   doc.StorageKey,
		Chunks:       doc.Chunks,
	}
}
