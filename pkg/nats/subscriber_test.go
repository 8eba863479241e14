package nats

import (
	"encoding/json"
	"testing"
	"time"

	"pdf-chat-be/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubject(t *testing.T) {
	assert.Equal(t, "events.DOCUMENT_PROCESSED", Subject(events.DocumentProcessed))
	assert.Equal(t, "events.*", Subject("*"))
}

func TestDecode(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	raw, err := json.Marshal(envelope{
		Type:       events.DocumentFailed,
		Data:       map[string]interface{}{"document_id": "abc"},
		OccurredAt: at,
	})
	require.NoError(t, err)

	event, err := Decode("events.DOCUMENT_FAILED", raw)

	require.NoError(t, err)
	assert.Equal(t, events.DocumentFailed, event.EventType())
	assert.Equal(t, "abc", event.Payload()["document_id"])
	assert.True(t, at.Equal(event.Timestamp()))
}

func TestDecodeFallsBackToSubject(t *testing.T) {
	event, err := Decode("events.USER_LOGIN", []byte(`{"data":{"email":"ada@example.com"}}`))

	require.NoError(t, err)
	assert.Equal(t, events.UserLogin, event.EventType())
	assert.Equal(t, "ada@example.com", event.Payload()["email"])
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode("events.USER_LOGIN", []byte("not json"))

	assert.Error(t, err)
}
