package mapper

import (
	"pdf-chat-be/internal/entity"
	"pdf-chat-be/internal/model"

	"gorm.io/datatypes"
)

type DocumentMapper struct{}

func NewDocumentMapper() *DocumentMapper {
	return &DocumentMapper{}
}

func (m *DocumentMapper) ToEntity(d *model.Document) *entity.Document {
	if d == nil {
		return nil
	}
	chunks := []string(d.Chunks)
	if chunks == nil {
		chunks = []string{}
	}
	return &entity.Document{
		Id:              d.Id,
		OwnerId:         d.OwnerId,
		OwnerEmail:      d.OwnerEmail,
		Name:            d.Name,
		OriginalName:    d.OriginalName,
		Size:            d.Size,
		PageCount:       d.PageCount,
		Status:          entity.DocumentStatus(d.Status),
		StorageKey:      d.StorageKey,
		Chunks:          chunks,
		ProcessingError: d.ProcessingError,
		UploadedAt:      d.UploadedAt,
		ProcessedAt:     d.ProcessedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

func (m *DocumentMapper) ToModel(d *entity.Document) *model.Document {
	if d == nil {
		return nil
	}
	return &model.Document{
		Id:              d.Id,
		OwnerId:         d.OwnerId,
		OwnerEmail:      d.OwnerEmail,
		Name:            d.Name,
		OriginalName:    d.OriginalName,
		Size:            d.Size,
		PageCount:       d.PageCount,
		Status:          string(d.Status),
		StorageKey:      d.StorageKey,
		Chunks:          datatypes.JSONSlice[string](d.Chunks),
		ProcessingError: d.ProcessingError,
		UploadedAt:      d.UploadedAt,
		ProcessedAt:     d.ProcessedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

func (m *DocumentMapper) ToEntities(docs []*model.Document) []*entity.Document {
	entities := make([]*entity.Document, len(docs))
	for i, d := range docs {
		entities[i] = m.ToEntity(d)
	}
	return entities
}
