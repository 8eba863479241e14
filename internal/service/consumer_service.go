package service

import (
	"context"
	"encoding/json"
	"errors"

	"pdf-chat-be/internal/dto"
	"pdf-chat-be/internal/pkg/logger"
	"pdf-chat-be/pkg/store"

	"github.com/ThreeDotsLabs/watermill/message"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	processing IProcessingService
	logger     logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	processing IProcessingService,
	logger logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		processing: processing,
		logger:     logger,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

// processMessage never nacks: failures are recorded on the document and
// recovered through the manual reprocess endpoints.
func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	var payload dto.ProcessDocumentMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("CONSUMER", "Failed to unmarshal message", map[string]interface{}{"error": err.Error()})
		return
	}

	err := cs.processing.Process(ctx, payload.DocumentId)
	switch {
	case err == nil:
	case errors.Is(err, ErrAlreadyProcessing):
		cs.logger.Info("CONSUMER", "Document already processing, dropping job", map[string]interface{}{
			"document_id": payload.DocumentId.String(),
		})
	case errors.Is(err, store.ErrDocumentNotFound):
		cs.logger.Warn("CONSUMER", "Document no longer exists", map[string]interface{}{
			"document_id": payload.DocumentId.String(),
		})
	default:
		cs.logger.Error("CONSUMER", "Document processing failed", map[string]interface{}{
			"document_id": payload.DocumentId.String(),
			"error":       err.Error(),
		})
	}
}
