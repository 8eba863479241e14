package specification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ByOwner filters documents by the owning user.
type ByOwner struct {
	OwnerID uuid.UUID
}

func (s ByOwner) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("owner_id = ?", s.OwnerID)
}

// ByOwnerEmail matches documents by the email captured at upload time.
type ByOwnerEmail struct {
	Email string
}

func (s ByOwnerEmail) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("owner_email = ?", s.Email)
}

type ByStatus struct {
	Status string
}

func (s ByStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", s.Status)
}

// ProcessingBefore selects documents still processing that were last touched before Cutoff.
type ProcessingBefore struct {
	Cutoff time.Time
}

func (s ProcessingBefore) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ? AND updated_at < ?", "processing", s.Cutoff)
}
