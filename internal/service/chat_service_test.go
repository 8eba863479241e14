package service

import (
	"context"
	"testing"

	"pdf-chat-be/internal/dto"
	"pdf-chat-be/internal/entity"
	"pdf-chat-be/internal/pkg/logger"
	"pdf-chat-be/pkg/llm"
	"pdf-chat-be/pkg/rag/response"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChatFixture(t *testing.T) (*fakeDB, *fakeGenerator, IChatService, entity.Document) {
	t.Helper()
	db := newFakeDB()
	gen := &fakeGenerator{
		reply:     response.ChatResponse{Content: "The threshold is 5 volts.", Usage: &llm.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}},
		connected: true,
	}
	doc := entity.Document{Id: uuid.New(), OwnerId: uuid.New(), Name: "stored.pdf", OriginalName: "manual.pdf", Status: entity.DocumentStatusReady}
	db.putDocument(doc)
	return db, gen, NewChatService(db, gen, logger.NewNopLogger()), doc
}

func TestChatServiceSendMessage(t *testing.T) {
	db, gen, svc, doc := newChatFixture(t)
	ctx := context.Background()

	res, err := svc.SendMessage(ctx, doc.OwnerId, &dto.SendMessageRequest{Message: "What is the threshold?", PdfId: doc.Id})
	require.NoError(t, err)

	assert.Equal(t, "The threshold is 5 volts.", res.Message)
	assert.Equal(t, 15, res.Usage.TotalTokens)
	assert.NotEqual(t, uuid.Nil, res.ConversationId)

	require.Len(t, gen.histories, 1)
	assert.Equal(t, []llm.Message{{Role: llm.RoleUser, Content: "What is the threshold?"}}, gen.histories[0])

	require.Len(t, db.conversations, 1)
	assert.Equal(t, "Chat about manual.pdf", db.conversations[res.ConversationId].Title)

	require.Len(t, db.messages, 2)
	assert.Equal(t, entity.MessageRoleAssistant, db.messages[1].Role)
	assert.Equal(t, []string{}, db.messages[1].Sources)
}

func TestChatServiceSingleConversationPerDocument(t *testing.T) {
	db, gen, svc, doc := newChatFixture(t)
	ctx := context.Background()

	first, err := svc.SendMessage(ctx, doc.OwnerId, &dto.SendMessageRequest{Message: "first", PdfId: doc.Id})
	require.NoError(t, err)

	// A fresh service has a cold conversation cache and must still find the row.
	other := NewChatService(db, gen, logger.NewNopLogger())
	second, err := other.SendMessage(ctx, doc.OwnerId, &dto.SendMessageRequest{Message: "second", PdfId: doc.Id})
	require.NoError(t, err)

	assert.Equal(t, first.ConversationId, second.ConversationId)
	assert.Len(t, db.conversations, 1)

	require.Len(t, gen.histories, 2)
	assert.Equal(t, []llm.Message{
		{Role: llm.RoleUser, Content: "first"},
		{Role: llm.RoleAssistant, Content: "The threshold is 5 volts."},
		{Role: llm.RoleUser, Content: "second"},
	}, gen.histories[1])
}

func TestChatServiceAccess(t *testing.T) {
	_, gen, svc, doc := newChatFixture(t)
	ctx := context.Background()

	_, err := svc.SendMessage(ctx, uuid.New(), &dto.SendMessageRequest{Message: "hi", PdfId: doc.Id})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.SendMessage(ctx, doc.OwnerId, &dto.SendMessageRequest{Message: "hi", PdfId: uuid.New()})
	assert.ErrorIs(t, err, ErrDocumentNotFound)

	_, err = svc.GetHistory(ctx, uuid.New(), doc.Id)
	assert.ErrorIs(t, err, ErrForbidden)

	assert.Empty(t, gen.histories)
}

func TestChatServiceGetHistory(t *testing.T) {
	_, _, svc, doc := newChatFixture(t)
	ctx := context.Background()

	empty, err := svc.GetHistory(ctx, doc.OwnerId, doc.Id)
	require.NoError(t, err)
	assert.Empty(t, empty.Messages)
	assert.NotNil(t, empty.Messages)
	assert.Nil(t, empty.ConversationId)

	sent, err := svc.SendMessage(ctx, doc.OwnerId, &dto.SendMessageRequest{Message: "question", PdfId: doc.Id})
	require.NoError(t, err)

	history, err := svc.GetHistory(ctx, doc.OwnerId, doc.Id)
	require.NoError(t, err)
	require.NotNil(t, history.ConversationId)
	assert.Equal(t, sent.ConversationId, *history.ConversationId)
	require.Len(t, history.Messages, 2)
	assert.Equal(t, "user", history.Messages[0].Role)
	assert.Equal(t, "question", history.Messages[0].Content)
	assert.Equal(t, "assistant", history.Messages[1].Role)
	assert.True(t, history.Messages[0].Timestamp.Before(history.Messages[1].Timestamp))
}

func TestChatServiceTestConnection(t *testing.T) {
	_, gen, svc, _ := newChatFixture(t)

	assert.True(t, svc.TestConnection(context.Background()))
	gen.connected = false
	assert.False(t, svc.TestConnection(context.Background()))
}
