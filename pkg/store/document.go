package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrDocumentNotFound = errors.New("document not found")

type DocumentStatus string

const (
	StatusProcessing DocumentStatus = "processing"
	StatusReady      DocumentStatus = "ready"
	StatusError      DocumentStatus = "error"
)

// Document is the read model the retrieval core works against.
type Document struct {
	ID           uuid.UUID
	OwnerID      uuid.UUID
	Name         string
	OriginalName string
	Status       DocumentStatus
	PageCount    int
	StorageKey   string
	Chunks       []string
}

// DisplayName prefers the name the user uploaded the file under.
func (d *Document) DisplayName() string {
	if d.OriginalName != "" {
		return d.OriginalName
	}
	return d.Name
}

// Extraction is the raw output of a PDF text extraction.
type Extraction struct {
	Text  string
	Pages int
}

// DocumentStore is the narrow persistence contract used by retrieval and
// background processing. FindByID returns ErrDocumentNotFound for unknown ids.
type DocumentStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Document, error)
	UpdateStatusAndChunks(ctx context.Context, id uuid.UUID, status DocumentStatus, pageCount *int, chunks []string, processErr string) error
}

// Extractor produces the full text of a stored document.
type Extractor interface {
	Extract(ctx context.Context, documentID uuid.UUID) (*Extraction, error)
}
