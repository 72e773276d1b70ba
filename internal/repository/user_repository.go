package repository

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/turmas-api/internal/models"
	"github.com/noah-isme/turmas-api/pkg/kvstore"
)

// UsersKey is the document holding every registered account.
const UsersKey = "users"

// UserRepository persists accounts as one document.
type UserRepository struct {
	docs documents
}

// NewUserRepository constructs the repository.
func NewUserRepository(store kvstore.Store, logger *zap.Logger, recorder CorruptionRecorder) *UserRepository {
	return &UserRepository{docs: newDocuments(store, logger, recorder)}
}

// List returns every user in registration order.
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	users, _, err := loadDocument[[]models.User](ctx, r.docs, UsersKey)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}

// ReplaceAll overwrites the whole collection.
func (r *UserRepository) ReplaceAll(ctx context.Context, users []models.User) error {
	if users == nil {
		users = []models.User{}
	}
	return r.docs.save(ctx, UsersKey, users)
}

// Exists reports whether an account is registered under email, compared
// case-insensitively.
func (r *UserRepository) Exists(ctx context.Context, email string) (bool, error) {
	users, err := r.List(ctx)
	if err != nil {
		return false, err
	}
	email = models.NormalizeEmail(email)
	for _, u := range users {
		if models.NormalizeEmail(u.Email) == email {
			return true, nil
		}
	}
	return false, nil
}
