package events

import (
	"strings"
	"time"
)

// User lifecycle.
const (
	UserRegistered = "USER_REGISTERED"
	UserLogin      = "USER_LOGIN"
)

// Document lifecycle. Every upload ends in exactly one of PROCESSED or FAILED
// unless it is deleted first.
const (
	DocumentUploaded  = "DOCUMENT_UPLOADED"
	DocumentProcessed = "DOCUMENT_PROCESSED"
	DocumentFailed    = "DOCUMENT_FAILED"
	DocumentDeleted   = "DOCUMENT_DELETED"
)

type Event interface {
	EventType() string
	Payload() map[string]interface{}
	Timestamp() time.Time
}

// IsDocumentEvent reports whether eventType belongs to the document lifecycle.
func IsDocumentEvent(eventType string) bool {
	return strings.HasPrefix(eventType, "DOCUMENT_")
}

// BaseEvent is the only Event implementation; payloads are flat maps of
// ids and counts so they survive a JSON round trip unchanged.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func New(eventType string, data map[string]interface{}) BaseEvent {
	if data == nil {
		data = map[string]interface{}{}
	}
	return BaseEvent{Type: eventType, Data: data, OccurredAt: time.Now().UTC()}
}

func (e BaseEvent) EventType() string { return e.Type }

func (e BaseEvent) Payload() map[string]interface{} { return e.Data }

func (e BaseEvent) Timestamp() time.Time { return e.OccurredAt }
