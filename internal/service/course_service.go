package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/turmas-api/internal/models"
	appErrors "github.com/noah-isme/turmas-api/pkg/errors"
)

type courseRepository interface {
	List(ctx context.Context) ([]models.Course, bool, error)
	ReplaceAll(ctx context.Context, courses []models.Course) error
}

type courseSectionLister interface {
	ListForCourse(ctx context.Context, ref models.CourseRef) ([]models.ClassSection, error)
}

// CourseService serves the course catalog.
type CourseService struct {
	repo     courseRepository
	sections courseSectionLister
	logger   *zap.Logger
}

// NewCourseService constructs a CourseService.
func NewCourseService(repo courseRepository, sections courseSectionLister, logger *zap.Logger) *CourseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, sections: sections, logger: logger}
}

// Seed stores catalog when no catalog exists yet. It reports whether it wrote.
func (s *CourseService) Seed(ctx context.Context, catalog []models.Course) (bool, error) {
	_, found, err := s.repo.List(ctx)
	if err != nil {
		return false, appErrors.Storage(err, "failed to load courses")
	}
	if found {
		return false, nil
	}
	if err := s.repo.ReplaceAll(ctx, catalog); err != nil {
		return false, appErrors.Storage(err, "failed to seed courses")
	}
	s.logger.Info("course catalog seeded", zap.Int("courses", len(catalog)))
	return true, nil
}

// List returns the catalog.
func (s *CourseService) List(ctx context.Context) ([]models.Course, error) {
	courses, _, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to load courses")
	}
	return courses, nil
}

// Get returns a course by id.
func (s *CourseService) Get(ctx context.Context, id string) (*models.Course, error) {
	courses, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, course := range courses {
		if course.ID == id {
			c := course
			return &c, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
}

// Detail returns a course together with the sections offered for it.
func (s *CourseService) Detail(ctx context.Context, id string) (*models.CourseDetail, error) {
	course, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	sections, err := s.sections.ListForCourse(ctx, course.Ref())
	if err != nil {
		return nil, err
	}
	return &models.CourseDetail{Course: *course, Sections: sections}, nil
}
