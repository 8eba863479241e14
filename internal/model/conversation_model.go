package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Conversation struct {
	Id         uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId     uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_conversation_user_document"`
	DocumentId uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_conversation_user_document"`
	Title      string         `gorm:"type:varchar(255)"`
	CreatedAt  time.Time      `gorm:"autoCreateTime"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime"`
	DeletedAt  gorm.DeletedAt `gorm:"index"`
}

func (Conversation) TableName() string {
	return "conversations"
}

type Message struct {
	Id             uuid.UUID                   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ConversationId uuid.UUID                   `gorm:"type:uuid;not null;index"`
	Role           string                      `gorm:"type:varchar(20);not null"`
	Content        string                      `gorm:"type:text;not null"`
	Sources        datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	CreatedAt      time.Time                   `gorm:"autoCreateTime"`
	DeletedAt      gorm.DeletedAt              `gorm:"index"`
}

func (Message) TableName() string {
	return "messages"
}
