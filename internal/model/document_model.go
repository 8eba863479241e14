package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Document struct {
	Id              uuid.UUID                   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OwnerId         uuid.UUID                   `gorm:"type:uuid;not null;index"`
	OwnerEmail      string                      `gorm:"type:varchar(255);index"`
	Name            string                      `gorm:"type:varchar(255);not null"`
	OriginalName    string                      `gorm:"type:varchar(255);not null"`
	Size            int64                       `gorm:"not null;default:0"`
	PageCount       int                         `gorm:"default:0"`
	Status          string                      `gorm:"type:varchar(20);not null;default:'processing';index"`
	StorageKey      string                      `gorm:"type:text;not null"`
	Chunks          datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	ProcessingError *string                     `gorm:"type:text"`
	UploadedAt      time.Time                   `gorm:"autoCreateTime"`
	ProcessedAt     *time.Time
	UpdatedAt       time.Time      `gorm:"autoUpdateTime"`
	DeletedAt       gorm.DeletedAt `gorm:"index"`
}

func (Document) TableName() string {
	return "documents"
}
