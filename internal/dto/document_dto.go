package dto

import (
	"time"

	"github.com/google/uuid"
)

type DocumentResponse struct {
	Id              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	OriginalName    string     `json:"originalName"`
	Size            int64      `json:"size"`
	Pages           int        `json:"pages"`
	Status          string     `json:"status"`
	ProcessingError *string    `json:"processingError,omitempty"`
	UploadedAt      time.Time  `json:"uploadedAt"`
	ProcessedAt     *time.Time `json:"processedAt,omitempty"`
}

type UploadDocumentRequest struct {
	OwnerId     uuid.UUID
	OwnerEmail  string
	FileName    string
	ContentType string
	Size        int64
	Data        []byte
}

type ReprocessAllResponse struct {
	Queued int `json:"queued"`
	Total  int `json:"total"`
}

type ProcessDocumentMessage struct {
	DocumentId uuid.UUID `json:"document_id"`
}
