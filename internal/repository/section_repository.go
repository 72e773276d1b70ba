package repository

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/turmas-api/internal/models"
	"github.com/noah-isme/turmas-api/pkg/kvstore"
)

// SectionsKey is the document holding every class section.
const SectionsKey = "classes"

// SectionRepository persists the class section collection as one document.
type SectionRepository struct {
	docs documents
}

// NewSectionRepository constructs the repository.
func NewSectionRepository(store kvstore.Store, logger *zap.Logger, recorder CorruptionRecorder) *SectionRepository {
	return &SectionRepository{docs: newDocuments(store, logger, recorder)}
}

// List returns every section in storage order. Absent rosters decode as
// empty and absent vacancies as zero.
func (r *SectionRepository) List(ctx context.Context) ([]models.ClassSection, error) {
	sections, _, err := loadDocument[[]models.ClassSection](ctx, r.docs, SectionsKey)
	if err != nil {
		return nil, err
	}
	for i := range sections {
		if sections[i].Students == nil {
			sections[i].Students = []string{}
		}
	}
	if sections == nil {
		sections = []models.ClassSection{}
	}
	return sections, nil
}

// ReplaceAll overwrites the whole collection.
func (r *SectionRepository) ReplaceAll(ctx context.Context, sections []models.ClassSection) error {
	if sections == nil {
		sections = []models.ClassSection{}
	}
	return r.docs.save(ctx, SectionsKey, sections)
}
