package service

import (
	"context"
	"time"

	"pdf-chat-be/internal/pkg/logger"
	"pdf-chat-be/internal/repository/specification"
	"pdf-chat-be/internal/repository/unitofwork"
	"pdf-chat-be/pkg/store"

	"github.com/robfig/cron/v3"
)

const staleProcessingMessage = "processing timed out"

// StaleDocumentSweeper fails documents whose worker died mid-processing so
// every document eventually reaches a terminal status.
type StaleDocumentSweeper struct {
	uowFactory unitofwork.RepositoryFactory
	documents  store.DocumentStore
	staleAfter time.Duration
	cron       *cron.Cron
	logger     logger.ILogger
	now        func() time.Time
}

func NewStaleDocumentSweeper(
	uowFactory unitofwork.RepositoryFactory,
	documents store.DocumentStore,
	staleAfter time.Duration,
	logger logger.ILogger,
) *StaleDocumentSweeper {
	return &StaleDocumentSweeper{
		uowFactory: uowFactory,
		documents:  documents,
		staleAfter: staleAfter,
		cron:       cron.New(),
		logger:     logger,
		now:        time.Now,
	}
}

// Start schedules Sweep on the given cron spec, e.g. "@every 5m".
func (s *StaleDocumentSweeper) Start(spec string) error {
	_, err := s.cron.AddFunc(spec, func() {
		if _, err := s.Sweep(context.Background()); err != nil {
			s.logger.Error("SWEEPER", "Stale document sweep failed", map[string]interface{}{"error": err.Error()})
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

func (s *StaleDocumentSweeper) Stop() {
	<-s.cron.Stop().Done()
}

func (s *StaleDocumentSweeper) Sweep(ctx context.Context) (int, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	stale, err := uow.DocumentRepository().FindAll(ctx, specification.ProcessingBefore{Cutoff: s.now().Add(-s.staleAfter)})
	if err != nil {
		return 0, err
	}

	marked := 0
	for _, doc := range stale {
		if err := s.documents.UpdateStatusAndChunks(ctx, doc.Id, store.StatusError, nil, nil, staleProcessingMessage); err != nil {
			s.logger.Warn("SWEEPER", "Failed to mark stale document", map[string]interface{}{
				"document_id": doc.Id.String(),
				"error":       err.Error(),
			})
			continue
		}
		marked++
	}

	if marked > 0 {
		s.logger.Info("SWEEPER", "Marked stale documents as error", map[string]interface{}{"count": marked})
	}
	return marked, nil
}
