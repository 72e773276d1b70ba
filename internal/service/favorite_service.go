package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/turmas-api/internal/models"
	appErrors "github.com/noah-isme/turmas-api/pkg/errors"
)

type favoriteRepository interface {
	Get(ctx context.Context, email string) ([]string, error)
	Replace(ctx context.Context, email string, ids []string) error
	Delete(ctx context.Context, email string) error
}

type courseCatalog interface {
	Get(ctx context.Context, id string) (*models.Course, error)
	List(ctx context.Context) ([]models.Course, error)
}

// FavoriteService keeps each user's favorite courses.
type FavoriteService struct {
	repo     favoriteRepository
	courses  courseCatalog
	queue    mutationQueue
	accounts accountDirectory
	logger   *zap.Logger
}

// FavoriteOption customises a FavoriteService.
type FavoriteOption func(*FavoriteService)

// WithFavoriteAccounts rejects toggles for emails without an account.
func WithFavoriteAccounts(accounts accountDirectory) FavoriteOption {
	return func(s *FavoriteService) { s.accounts = accounts }
}

// NewFavoriteService constructs a FavoriteService.
func NewFavoriteService(repo favoriteRepository, courses courseCatalog, queue mutationQueue, logger *zap.Logger, opts ...FavoriteOption) *FavoriteService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &FavoriteService{repo: repo, courses: courses, queue: queue, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Toggle adds courseID to the favorites of email, or removes it when it is
// already there.
func (s *FavoriteService) Toggle(ctx context.Context, email, courseID string) (*models.FavoriteToggle, error) {
	if _, err := s.courses.Get(ctx, courseID); err != nil {
		return nil, err
	}

	result := &models.FavoriteToggle{CourseID: courseID}
	err := s.queue.Do(ctx, "favorites.toggle", func(ctx context.Context) error {
		if s.accounts != nil {
			found, err := s.accounts.Exists(ctx, email)
			if err != nil {
				return appErrors.Storage(err, "failed to load users")
			}
			if !found {
				return appErrors.Clone(appErrors.ErrUnauthorized, "account no longer exists")
			}
		}
		ids, err := s.repo.Get(ctx, email)
		if err != nil {
			return appErrors.Storage(err, "failed to load favorites")
		}
		next := make([]string, 0, len(ids)+1)
		for _, id := range ids {
			if id != courseID {
				next = append(next, id)
			}
		}
		if len(next) == len(ids) {
			next = append(next, courseID)
			result.Favorited = true
		}
		if err := s.repo.Replace(ctx, email, next); err != nil {
			return appErrors.Storage(err, "failed to save favorites")
		}
		return nil
	})
	if err := queueError(ctx, err); err != nil {
		return nil, err
	}
	s.logger.Debug("favorite toggled", zap.String("user", email), zap.String("course_id", courseID), zap.Bool("favorited", result.Favorited))
	return result, nil
}

// List returns the favorite courses of email in the order they were added.
// Ids no longer in the catalog are skipped.
func (s *FavoriteService) List(ctx context.Context, email string) ([]models.Course, error) {
	ids, err := s.repo.Get(ctx, email)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to load favorites")
	}
	catalog, err := s.courses.List(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.Course, len(catalog))
	for _, course := range catalog {
		byID[course.ID] = course
	}
	out := make([]models.Course, 0, len(ids))
	for _, id := range ids {
		if course, ok := byID[id]; ok {
			out = append(out, course)
		}
	}
	return out, nil
}

// Clear forgets every favorite of email.
func (s *FavoriteService) Clear(ctx context.Context, email string) error {
	err := s.queue.Do(ctx, "favorites.clear", func(ctx context.Context) error {
		if err := s.repo.Delete(ctx, email); err != nil {
			return appErrors.Storage(err, "failed to clear favorites")
		}
		return nil
	})
	return queueError(ctx, err)
}
