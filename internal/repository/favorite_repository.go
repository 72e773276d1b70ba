package repository

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/turmas-api/internal/models"
	"github.com/noah-isme/turmas-api/pkg/kvstore"
)

// FavoritesKey returns the per-user favorites document key.
func FavoritesKey(email string) string {
	return "favorites:" + models.NormalizeEmail(email)
}

// FavoriteRepository persists each user's favorite course ids.
type FavoriteRepository struct {
	docs documents
}

// NewFavoriteRepository constructs the repository.
func NewFavoriteRepository(store kvstore.Store, logger *zap.Logger, recorder CorruptionRecorder) *FavoriteRepository {
	return &FavoriteRepository{docs: newDocuments(store, logger, recorder)}
}

// Get returns the ordered course ids favorited by email.
func (r *FavoriteRepository) Get(ctx context.Context, email string) ([]string, error) {
	ids, _, err := loadDocument[[]string](ctx, r.docs, FavoritesKey(email))
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// Replace overwrites the favorites of email.
func (r *FavoriteRepository) Replace(ctx context.Context, email string, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	return r.docs.save(ctx, FavoritesKey(email), ids)
}

// Delete removes the favorites document of email.
func (r *FavoriteRepository) Delete(ctx context.Context, email string) error {
	return r.docs.remove(ctx, FavoritesKey(email))
}
