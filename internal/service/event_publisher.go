package service

import (
	"context"

	"pdf-chat-be/internal/pkg/logger"
	"pdf-chat-be/pkg/events"
)

// IEventPublisher is satisfied by the NATS publisher. A nil publisher disables events.
type IEventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

func publishEvent(ctx context.Context, publisher IEventPublisher, log logger.ILogger, eventType string, data map[string]interface{}) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, events.New(eventType, data)); err != nil {
		log.Warn("EVENTS", "Failed to publish event", map[string]interface{}{
			"type":  eventType,
			"error": err.Error(),
		})
	}
}
