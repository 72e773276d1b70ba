package repository

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/turmas-api/internal/models"
	"github.com/noah-isme/turmas-api/pkg/kvstore"
)

// CoursesKey is the document holding the course catalog.
const CoursesKey = "courses"

// CourseRepository persists the course catalog.
type CourseRepository struct {
	docs documents
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(store kvstore.Store, logger *zap.Logger, recorder CorruptionRecorder) *CourseRepository {
	return &CourseRepository{docs: newDocuments(store, logger, recorder)}
}

// List returns the catalog. found is false when no readable catalog has been
// stored yet.
func (r *CourseRepository) List(ctx context.Context) ([]models.Course, bool, error) {
	courses, found, err := loadDocument[[]models.Course](ctx, r.docs, CoursesKey)
	if err != nil {
		return nil, false, err
	}
	if courses == nil {
		courses = []models.Course{}
	}
	return courses, found, nil
}

// ReplaceAll overwrites the catalog.
func (r *CourseRepository) ReplaceAll(ctx context.Context, courses []models.Course) error {
	if courses == nil {
		courses = []models.Course{}
	}
	return r.docs.save(ctx, CoursesKey, courses)
}
