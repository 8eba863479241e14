package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"pdf-chat-be/internal/dto"
	"pdf-chat-be/internal/entity"
	"pdf-chat-be/internal/pkg/logger"
	"pdf-chat-be/internal/repository/specification"
	"pdf-chat-be/internal/repository/unitofwork"
	"pdf-chat-be/pkg/events"
	"pdf-chat-be/pkg/objectstore"
	"pdf-chat-be/pkg/store"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const reprocessConcurrency = 10

var (
	ErrDocumentNotFound = store.ErrDocumentNotFound
	ErrForbidden        = errors.New("access denied")
	ErrNotPDF           = errors.New("only PDF files are allowed")
	ErrFileTooLarge     = errors.New("file size exceeds maximum limit")
	ErrEmptyFile        = errors.New("no PDF file uploaded")
)

// IPageCounter is implemented by pdf.Extractor.
type IPageCounter interface {
	PageCount(data []byte) (int, error)
}

type IDocumentService interface {
	Upload(ctx context.Context, req *dto.UploadDocumentRequest) (*dto.DocumentResponse, error)
	List(ctx context.Context, userId uuid.UUID, email string) ([]*dto.DocumentResponse, error)
	Get(ctx context.Context, userId, documentId uuid.UUID) (*dto.DocumentResponse, error)
	Delete(ctx context.Context, userId, documentId uuid.UUID) error
	Reprocess(ctx context.Context, userId, documentId uuid.UUID) error
	ReprocessAll(ctx context.Context, userId uuid.UUID) (*dto.ReprocessAllResponse, error)
}

type documentService struct {
	uowFactory       unitofwork.RepositoryFactory
	objects          objectstore.Store
	pages            IPageCounter
	publisherService IPublisherService
	processing       IProcessingService
	eventPublisher   IEventPublisher
	maxFileSize      int64
	logger           logger.ILogger
}

func NewDocumentService(
	uowFactory unitofwork.RepositoryFactory,
	objects objectstore.Store,
	pages IPageCounter,
	publisherService IPublisherService,
	processing IProcessingService,
	eventPublisher IEventPublisher,
	maxFileSize int64,
	logger logger.ILogger,
) IDocumentService {
	return &documentService{
		uowFactory:       uowFactory,
		objects:          objects,
		pages:            pages,
		publisherService: publisherService,
		processing:       processing,
		eventPublisher:   eventPublisher,
		maxFileSize:      maxFileSize,
		logger:           logger,
	}
}

// IsPDFUpload accepts a file by its declared content type or its extension.
func IsPDFUpload(fileName, contentType string) bool {
	if strings.EqualFold(filepath.Ext(fileName), ".pdf") {
		return true
	}
	mediaType := strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	return strings.EqualFold(mediaType, "application/pdf")
}

func (s *documentService) Upload(ctx context.Context, req *dto.UploadDocumentRequest) (*dto.DocumentResponse, error) {
	if req.Size == 0 || len(req.Data) == 0 {
		return nil, ErrEmptyFile
	}
	if !IsPDFUpload(req.FileName, req.ContentType) {
		return nil, ErrNotPDF
	}
	if s.maxFileSize > 0 && req.Size > s.maxFileSize {
		return nil, ErrFileTooLarge
	}

	pageCount, err := s.pages.PageCount(req.Data)
	if err != nil {
		s.logger.Warn("DOCUMENT", "Rejected unreadable PDF", map[string]interface{}{
			"file_name": req.FileName,
			"error":     err.Error(),
		})
		return nil, ErrNotPDF
	}

	key := objectstore.Key(req.OwnerId, req.FileName, time.Now())
	if err := s.objects.Put(ctx, key, bytes.NewReader(req.Data), "application/pdf"); err != nil {
		return nil, err
	}

	doc := &entity.Document{
		Id:           uuid.New(),
		OwnerId:      req.OwnerId,
		OwnerEmail:   normalizeEmail(req.OwnerEmail),
		Name:         path.Base(key),
		OriginalName: req.FileName,
		Size:         req.Size,
		PageCount:    pageCount,
		Status:       entity.DocumentStatusProcessing,
		StorageKey:   key,
		Chunks:       []string{},
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.DocumentRepository().Create(ctx, doc); err != nil {
		if delErr := s.objects.Delete(ctx, key); delErr != nil {
			s.logger.Warn("DOCUMENT", "Failed to clean up object after insert failure", map[string]interface{}{
				"key":   key,
				"error": delErr.Error(),
			})
		}
		return nil, err
	}

	s.logger.Info("DOCUMENT", "Document uploaded", map[string]interface{}{
		"document_id": doc.Id.String(),
		"user_id":     doc.OwnerId.String(),
		"size":        doc.Size,
	})

	// A lost job leaves the document in processing until the stale sweeper marks it.
	if err := s.enqueue(ctx, doc.Id); err != nil {
		s.logger.Error("DOCUMENT", "Failed to enqueue processing job", map[string]interface{}{
			"document_id": doc.Id.String(),
			"error":       err.Error(),
		})
	}

	publishEvent(ctx, s.eventPublisher, s.logger, events.DocumentUploaded, map[string]interface{}{
		"document_id": doc.Id.String(),
		"user_id":     doc.OwnerId.String(),
		"name":        doc.OriginalName,
		"size":        doc.Size,
	})

	return toDocumentResponse(doc), nil
}

func (s *documentService) enqueue(ctx context.Context, documentId uuid.UUID) error {
	payload, err := json.Marshal(dto.ProcessDocumentMessage{DocumentId: documentId})
	if err != nil {
		return err
	}
	return s.publisherService.Publish(ctx, payload)
}

func (s *documentService) List(ctx context.Context, userId uuid.UUID, email string) ([]*dto.DocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	newestFirst := specification.OrderBy{Field: "uploaded_at", Desc: true}

	docs, err := uow.DocumentRepository().FindAll(ctx, specification.ByOwner{OwnerID: userId}, newestFirst)
	if err != nil {
		return nil, err
	}

	if len(docs) == 0 && email != "" {
		docs, err = s.claimByEmail(ctx, uow, userId, normalizeEmail(email), newestFirst)
		if err != nil {
			return nil, err
		}
	}

	res := make([]*dto.DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		res = append(res, toDocumentResponse(doc))
	}
	return res, nil
}

// claimByEmail moves documents recorded under the caller's email to the caller's id.
func (s *documentService) claimByEmail(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, email string, order specification.Specification) ([]*entity.Document, error) {
	docs, err := uow.DocumentRepository().FindAll(ctx, specification.ByOwnerEmail{Email: email}, order)
	if err != nil || len(docs) == 0 {
		return docs, err
	}

	ids := make([]uuid.UUID, len(docs))
	for i, doc := range docs {
		ids[i] = doc.Id
		doc.OwnerId = userId
	}
	if err := uow.DocumentRepository().TransferOwnership(ctx, ids, userId); err != nil {
		return nil, err
	}

	s.logger.Info("DOCUMENT", "Transferred documents by owner email", map[string]interface{}{
		"user_id": userId.String(),
		"count":   len(docs),
	})
	return docs, nil
}

func (s *documentService) findOwned(ctx context.Context, uow unitofwork.UnitOfWork, userId, documentId uuid.UUID) (*entity.Document, error) {
	doc, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: documentId})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}
	if !doc.IsOwnedBy(userId) {
		return nil, ErrForbidden
	}
	return doc, nil
}

func (s *documentService) Get(ctx context.Context, userId, documentId uuid.UUID) (*dto.DocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	doc, err := s.findOwned(ctx, uow, userId, documentId)
	if err != nil {
		return nil, err
	}
	return toDocumentResponse(doc), nil
}

func (s *documentService) Delete(ctx context.Context, userId, documentId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	doc, err := s.findOwned(ctx, uow, userId, documentId)
	if err != nil {
		return err
	}

	if doc.StorageKey != "" {
		if err := s.objects.Delete(ctx, doc.StorageKey); err != nil && !errors.Is(err, objectstore.ErrNotFound) {
			s.logger.Warn("DOCUMENT", "Failed to delete object from storage", map[string]interface{}{
				"document_id": doc.Id.String(),
				"key":         doc.StorageKey,
				"error":       err.Error(),
			})
		}
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.MessageRepository().DeleteByDocumentId(ctx, doc.Id); err != nil {
		return err
	}
	if err := uow.ConversationRepository().DeleteByDocumentId(ctx, doc.Id); err != nil {
		return err
	}
	if err := uow.DocumentRepository().Delete(ctx, doc.Id); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	s.logger.Info("DOCUMENT", "Document deleted", map[string]interface{}{"document_id": doc.Id.String()})
	publishEvent(ctx, s.eventPublisher, s.logger, events.DocumentDeleted, map[string]interface{}{
		"document_id": doc.Id.String(),
		"user_id":     userId.String(),
	})
	return nil
}

func (s *documentService) Reprocess(ctx context.Context, userId, documentId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if _, err := s.findOwned(ctx, uow, userId, documentId); err != nil {
		return err
	}
	return s.processing.Start(ctx, documentId)
}

func (s *documentService) ReprocessAll(ctx context.Context, userId uuid.UUID) (*dto.ReprocessAllResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	docs, err := uow.DocumentRepository().FindAll(ctx,
		specification.ByOwner{OwnerID: userId},
		specification.ByStatus{Status: string(entity.DocumentStatusReady)},
	)
	if err != nil {
		return nil, err
	}

	var queued atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reprocessConcurrency)
	for _, doc := range docs {
		g.Go(func() error {
			if err := s.enqueue(gctx, doc.Id); err != nil {
				s.logger.Warn("DOCUMENT", "Failed to re-enqueue document", map[string]interface{}{
					"document_id": doc.Id.String(),
					"error":       err.Error(),
				})
				return nil
			}
			queued.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &dto.ReprocessAllResponse{Queued: int(queued.Load()), Total: len(docs)}, nil
}

func toDocumentResponse(doc *entity.Document) *dto.DocumentResponse {
	return &dto.DocumentResponse{
		Id:              doc.Id,
		Name:            doc.Name,
		OriginalName:    doc.OriginalName,
		Size:            doc.Size,
		Pages:           doc.PageCount,
		Status:          string(doc.Status),
		ProcessingError: doc.ProcessingError,
		UploadedAt:      doc.UploadedAt,
		ProcessedAt:     doc.ProcessedAt,
	}
}
