package unitofwork

import (
	"context"

	"pdf-chat-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	DocumentRepository() contract.DocumentRepository
	ConversationRepository() contract.ConversationRepository
	MessageRepository() contract.MessageRepository
}

// RepositoryFactory hands out units of work. Services depend on it instead
// of *gorm.DB so tests can swap in an in-memory implementation.
type RepositoryFactory interface {
	NewUnitOfWork(ctx context.Context) UnitOfWork
}
