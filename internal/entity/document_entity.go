package entity

import (
	"time"

	"github.com/google/uuid"
)

type DocumentStatus string

const (
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusReady      DocumentStatus = "ready"
	DocumentStatusError      DocumentStatus = "error"
)

type Document struct {
	Id              uuid.UUID
	OwnerId         uuid.UUID
	OwnerEmail      string
	Name            string
	OriginalName    string
	Size            int64
	PageCount       int
	Status          DocumentStatus
	StorageKey      string
	Chunks          []string
	ProcessingError *string
	UploadedAt      time.Time
	ProcessedAt     *time.Time
	UpdatedAt       time.Time
}

func (d *Document) IsOwnedBy(userId uuid.UUID) bool {
	return d.OwnerId == userId
}
