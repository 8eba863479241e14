package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pdf-chat-be/internal/pkg/logger"
	"pdf-chat-be/internal/tracer"
	"pdf-chat-be/pkg/chunker"
	"pdf-chat-be/pkg/events"
	"pdf-chat-be/pkg/lock"
	"pdf-chat-be/pkg/objectstore"
	"pdf-chat-be/pkg/pdf"
	"pdf-chat-be/pkg/store"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var ErrAlreadyProcessing = errors.New("document is already being processed")

// ITextExtractor is implemented by pdf.Extractor.
type ITextExtractor interface {
	ExtractText(ctx context.Context, data []byte) (*pdf.Result, error)
}

type IProcessingService interface {
	// Extract reads the stored PDF and returns its text without touching the document row.
	Extract(ctx context.Context, documentId uuid.UUID) (*store.Extraction, error)
	// Process runs the pipeline synchronously under the per-document lock.
	Process(ctx context.Context, documentId uuid.UUID) error
	// Start takes the lock synchronously and runs the pipeline in the background.
	Start(ctx context.Context, documentId uuid.UUID) error
}

type processingService struct {
	documents      store.DocumentStore
	objects        objectstore.Store
	extractor      ITextExtractor
	locker         lock.Locker
	lockTTL        time.Duration
	chunkSize      int
	eventPublisher IEventPublisher
	logger         logger.ILogger
}

func NewProcessingService(
	documents store.DocumentStore,
	objects objectstore.Store,
	extractor ITextExtractor,
	locker lock.Locker,
	lockTTL time.Duration,
	chunkSize int,
	eventPublisher IEventPublisher,
	logger logger.ILogger,
) IProcessingService {
	return &processingService{
		documents:      documents,
		objects:        objects,
		extractor:      extractor,
		locker:         locker,
		lockTTL:        lockTTL,
		chunkSize:      chunkSize,
		eventPublisher: eventPublisher,
		logger:         logger,
	}
}

func lockKey(documentId uuid.UUID) string {
	return "document:" + documentId.String()
}

func (s *processingService) Extract(ctx context.Context, documentId uuid.UUID) (*store.Extraction, error) {
	doc, err := s.documents.FindByID(ctx, documentId)
	if err != nil {
		return nil, err
	}

	exists, err := s.objects.Exists(ctx, doc.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("failed to check %s: %w", doc.StorageKey, err)
	}
	if !exists {
		return nil, fmt.Errorf("stored file %s is missing: %w", doc.StorageKey, objectstore.ErrNotFound)
	}

	data, err := s.objects.Get(ctx, doc.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", doc.StorageKey, err)
	}

	result, err := s.extractor.ExtractText(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PDF: %w", err)
	}

	return &store.Extraction{Text: result.Text, Pages: result.PageCount}, nil
}

func (s *processingService) acquire(ctx context.Context, documentId uuid.UUID) (lock.Unlock, error) {
	unlock, err := s.locker.TryLock(ctx, lockKey(documentId), s.lockTTL)
	if errors.Is(err, lock.ErrLocked) {
		return nil, ErrAlreadyProcessing
	}
	return unlock, err
}

func (s *processingService) release(documentId uuid.UUID, unlock lock.Unlock) {
	if err := unlock(context.Background()); err != nil {
		s.logger.Warn("PROCESSING", "Failed to release document lock", map[string]interface{}{
			"document_id": documentId.String(),
			"error":       err.Error(),
		})
	}
}

func (s *processingService) Process(ctx context.Context, documentId uuid.UUID) error {
	unlock, err := s.acquire(ctx, documentId)
	if err != nil {
		return err
	}
	defer s.release(documentId, unlock)

	return s.run(ctx, documentId)
}

func (s *processingService) Start(ctx context.Context, documentId uuid.UUID) error {
	unlock, err := s.acquire(ctx, documentId)
	if err != nil {
		return err
	}

	go func() {
		defer s.release(documentId, unlock)
		if err := s.run(context.Background(), documentId); err != nil {
			s.logger.Error("PROCESSING", "Manual processing failed", map[string]interface{}{
				"document_id": documentId.String(),
				"error":       err.Error(),
			})
		}
	}()
	return nil
}

func (s *processingService) run(ctx context.Context, documentId uuid.UUID) error {
	ctx, span := tracer.Start(ctx, "ProcessingService.Process")
	defer span.End()
	span.SetAttributes(attribute.String("document.id", documentId.String()))

	started := time.Now()
	s.logger.Info("PROCESSING", "Starting document processing", map[string]interface{}{"document_id": documentId.String()})

	if err := s.documents.UpdateStatusAndChunks(ctx, documentId, store.StatusProcessing, nil, nil, ""); err != nil {
		span.RecordError(err)
		return err
	}

	extraction, err := s.Extract(ctx, documentId)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "extraction failed")
		return s.fail(ctx, documentId, err)
	}

	chunks := chunker.Split(extraction.Text, s.chunkSize)
	pages := extraction.Pages
	if err := s.documents.UpdateStatusAndChunks(ctx, documentId, store.StatusReady, &pages, chunks, ""); err != nil {
		span.RecordError(err)
		return s.fail(ctx, documentId, err)
	}

	span.SetAttributes(attribute.Int("document.pages", pages), attribute.Int("document.chunks", len(chunks)))
	s.logger.Info("PROCESSING", "Document ready", map[string]interface{}{
		"document_id": documentId.String(),
		"pages":       pages,
		"chunks":      len(chunks),
		"duration_ms": time.Since(started).Milliseconds(),
	})
	publishEvent(ctx, s.eventPublisher, s.logger, events.DocumentProcessed, map[string]interface{}{
		"document_id": documentId.String(),
		"pages":       pages,
		"chunks":      len(chunks),
	})
	return nil
}

func (s *processingService) fail(ctx context.Context, documentId uuid.UUID, cause error) error {
	s.logger.Error("PROCESSING", "Document processing failed", map[string]interface{}{
		"document_id": documentId.String(),
		"error":       cause.Error(),
	})

	if err := s.documents.UpdateStatusAndChunks(ctx, documentId, store.StatusError, nil, nil, cause.Error()); err != nil {
		s.logger.Error("PROCESSING", "Failed to mark document as error", map[string]interface{}{
			"document_id": documentId.String(),
			"error":       err.Error(),
		})
	}

	publishEvent(ctx, s.eventPublisher, s.logger, events.DocumentFailed, map[string]interface{}{
		"document_id": documentId.String(),
		"error":       cause.Error(),
	})
	return cause
}
