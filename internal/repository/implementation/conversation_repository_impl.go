package implementation

import (
	"context"
	"errors"

	"pdf-chat-be/internal/entity"
	"pdf-chat-be/internal/mapper"
	"pdf-chat-be/internal/model"
	"pdf-chat-be/internal/repository/contract"
	"pdf-chat-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ConversationRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ConversationMapper
}

func NewConversationRepository(db *gorm.DB) contract.ConversationRepository {
	return &ConversationRepositoryImpl{
		db:     db,
		mapper: mapper.NewConversationMapper(),
	}
}

func (r *ConversationRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ConversationRepositoryImpl) FirstOrCreate(ctx context.Context, conversation *entity.Conversation) error {
	var m model.Conversation
	err := r.db.WithContext(ctx).
		Where(model.Conversation{UserId: conversation.UserId, DocumentId: conversation.DocumentId}).
		Attrs(model.Conversation{Title: conversation.Title}).
		FirstOrCreate(&m).Error
	if err != nil {
		// A concurrent request may have won the unique index; read its row.
		existing, findErr := r.FindOne(ctx,
			specification.UserOwnedBy{UserID: conversation.UserId},
			specification.ByDocumentID{DocumentID: conversation.DocumentId},
		)
		if findErr != nil || existing == nil {
			return err
		}
		*conversation = *existing
		return nil
	}
	*conversation = *r.mapper.ToEntity(&m)
	return nil
}

func (r *ConversationRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Conversation, error) {
	var m model.Conversation
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *ConversationRepositoryImpl) DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("document_id = ?", documentId).Delete(&model.Conversation{}).Error
}

type MessageRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.MessageMapper
}

func NewMessageRepository(db *gorm.DB) contract.MessageRepository {
	return &MessageRepositoryImpl{
		db:     db,
		mapper: mapper.NewMessageMapper(),
	}
}

func (r *MessageRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *MessageRepositoryImpl) Create(ctx context.Context, message *entity.Message) error {
	m := r.mapper.ToModel(message)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*message = *r.mapper.ToEntity(m)
	return nil
}

func (r *MessageRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error) {
	var models []*model.Message
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

// DeleteByDocumentId must run before the conversations themselves are deleted.
func (r *MessageRepositoryImpl) DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	conversations := r.db.Model(&model.Conversation{}).Select("id").Where("document_id = ?", documentId)
	return r.db.WithContext(ctx).Where("conversation_id IN (?)", conversations).Delete(&model.Message{}).Error
}
