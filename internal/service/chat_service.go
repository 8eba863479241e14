package service

import (
	"context"
	"fmt"
	"time"

	"pdf-chat-be/internal/dto"
	"pdf-chat-be/internal/entity"
	"pdf-chat-be/internal/pkg/logger"
	"pdf-chat-be/internal/repository/specification"
	"pdf-chat-be/internal/repository/unitofwork"
	"pdf-chat-be/pkg/llm"
	"pdf-chat-be/pkg/rag/response"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// IResponseGenerator is implemented by response.Generator.
type IResponseGenerator interface {
	Generate(ctx context.Context, history []llm.Message, documentID uuid.UUID) response.ChatResponse
	TestConnection(ctx context.Context) bool
}

type IChatService interface {
	SendMessage(ctx context.Context, userId uuid.UUID, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error)
	GetHistory(ctx context.Context, userId, documentId uuid.UUID) (*dto.ChatHistoryResponse, error)
	TestConnection(ctx context.Context) bool
}

type chatService struct {
	uowFactory    unitofwork.RepositoryFactory
	generator     IResponseGenerator
	conversations *cache.Cache
	logger        logger.ILogger
}

func NewChatService(uowFactory unitofwork.RepositoryFactory, generator IResponseGenerator, logger logger.ILogger) IChatService {
	return &chatService{
		uowFactory:    uowFactory,
		generator:     generator,
		conversations: cache.New(1*time.Hour, 10*time.Minute),
		logger:        logger,
	}
}

func conversationCacheKey(userId, documentId uuid.UUID) string {
	return userId.String() + ":" + documentId.String()
}

func (s *chatService) ownedDocument(ctx context.Context, uow unitofwork.UnitOfWork, userId, documentId uuid.UUID) (*entity.Document, error) {
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

// conversationFor returns the single conversation for (user, document), creating it on first use.
func (s *chatService) conversationFor(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, doc *entity.Document) (uuid.UUID, error) {
	key := conversationCacheKey(userId, doc.Id)
	if id, found := s.conversations.Get(key); found {
		return id.(uuid.UUID), nil
	}

	name := doc.OriginalName
	if name == "" {
		name = doc.Name
	}
	conversation := &entity.Conversation{
		UserId:     userId,
		DocumentId: doc.Id,
		Title:      fmt.Sprintf("Chat about %s", name),
	}
	if err := uow.ConversationRepository().FirstOrCreate(ctx, conversation); err != nil {
		return uuid.Nil, err
	}

	s.conversations.SetDefault(key, conversation.Id)
	return conversation.Id, nil
}

func (s *chatService) SendMessage(ctx context.Context, userId uuid.UUID, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	doc, err := s.ownedDocument(ctx, uow, userId, req.PdfId)
	if err != nil {
		return nil, err
	}

	conversationId, err := s.conversationFor(ctx, uow, userId, doc)
	if err != nil {
		return nil, err
	}

	userMessage := &entity.Message{
		Id:             uuid.New(),
		ConversationId: conversationId,
		Role:           entity.MessageRoleUser,
		Content:        req.Message,
		Sources:        []string{},
	}
	if err := uow.MessageRepository().Create(ctx, userMessage); err != nil {
		return nil, err
	}

	stored, err := uow.MessageRepository().FindAll(ctx,
		specification.ByConversationID{ConversationID: conversationId},
		specification.ChronologicalOrder{},
	)
	if err != nil {
		return nil, err
	}

	history := make([]llm.Message, 0, len(stored))
	for _, m := range stored {
		history = append(history, llm.Message{Role: string(m.Role), Content: m.Content})
	}

	reply := s.generator.Generate(ctx, history, doc.Id)

	assistantMessage := &entity.Message{
		Id:             uuid.New(),
		ConversationId: conversationId,
		Role:           entity.MessageRoleAssistant,
		Content:        reply.Content,
		Sources:        []string{},
	}
	if err := uow.MessageRepository().Create(ctx, assistantMessage); err != nil {
		return nil, err
	}

	details := map[string]interface{}{
		"conversation_id": conversationId.String(),
		"document_id":     doc.Id.String(),
		"history":         len(history),
	}
	if reply.Usage != nil {
		details["total_tokens"] = reply.Usage.TotalTokens
	}
	s.logger.Info("CHAT", "Answered message", details)

	return &dto.SendMessageResponse{
		Message:        reply.Content,
		Usage:          reply.Usage,
		Timestamp:      time.Now(),
		ConversationId: conversationId,
	}, nil
}

func (s *chatService) GetHistory(ctx context.Context, userId, documentId uuid.UUID) (*dto.ChatHistoryResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if _, err := s.ownedDocument(ctx, uow, userId, documentId); err != nil {
		return nil, err
	}

	res := &dto.ChatHistoryResponse{Messages: []dto.MessageResponse{}}

	conversation, err := uow.ConversationRepository().FindOne(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.ByDocumentID{DocumentID: documentId},
	)
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		return res, nil
	}

	messages, err := uow.MessageRepository().FindAll(ctx,
		specification.ByConversationID{ConversationID: conversation.Id},
		specification.ChronologicalOrder{},
	)
	if err != nil {
		return nil, err
	}

	for _, m := range messages {
		res.Messages = append(res.Messages, dto.MessageResponse{
			Id:        m.Id,
			Role:      string(m.Role),
			Content:   m.Content,
			Sources:   m.Sources,
			Timestamp: m.CreatedAt,
		})
	}
	res.ConversationId = &conversation.Id
	return res, nil
}

func (s *chatService) TestConnection(ctx context.Context) bool {
	return s.generator.TestConnection(ctx)
}
