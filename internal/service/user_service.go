package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/turmas-api/internal/models"
	"github.com/noah-isme/turmas-api/pkg/cpf"
	appErrors "github.com/noah-isme/turmas-api/pkg/errors"
	"github.com/noah-isme/turmas-api/pkg/validation"
)

type userRepository interface {
	List(ctx context.Context) ([]models.User, error)
	ReplaceAll(ctx context.Context, users []models.User) error
}

type rosterReleaser interface {
	ReleaseStudent(ctx context.Context, userID string) (int, error)
}

type favoriteCleaner interface {
	Clear(ctx context.Context, email string) error
}

// RegisterRequest represents payload for creating an account.
type RegisterRequest struct {
	Name            string          `json:"name" validate:"required"`
	Email           string          `json:"email" validate:"required,email"`
	Password        string          `json:"password" validate:"required,min=6"`
	ConfirmPassword string          `json:"confirmPassword" validate:"required,eqfield=Password"`
	Role            models.UserRole `json:"role" validate:"omitempty,oneof=funcionario responsavel aluno"`
	CPF             string          `json:"cpf" validate:"omitempty,cpf"`
}

// UpdateProfileRequest payload for profile edits. Nil fields are kept.
type UpdateProfileRequest struct {
	Name   *string `json:"name"`
	Avatar *string `json:"avatar"`
	CPF    *string `json:"cpf"`
}

// UserService handles account workflows over the users document.
type UserService struct {
	repo      userRepository
	queue     mutationQueue
	rosters   rosterReleaser
	favorites favoriteCleaner
	validator *validator.Validate
	logger    *zap.Logger
	hashCost  int
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, queue mutationQueue, rosters rosterReleaser, favorites favoriteCleaner, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validation.New()
	}
	return &UserService{
		repo:      repo,
		queue:     queue,
		rosters:   rosters,
		favorites: favorites,
		validator: validate,
		logger:    logger,
		hashCost:  bcrypt.DefaultCost,
	}
}

// Register creates an account. Guardians and students must supply a CPF.
// The staff role can only be self-assigned while no staff account exists.
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*models.UserInfo, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = models.NormalizeEmail(req.Email)
	if req.Role == "" {
		req.Role = models.RoleStudent
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid register payload", validation.Fields(err))
	}
	digits := cpf.OnlyDigits(req.CPF)
	if digits == "" && req.Role != models.RoleStaff {
		return nil, appErrors.Validation(nil, "invalid register payload", map[string]string{"cpf": "cpf is required for this role"})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         req.Role,
		CPF:          digits,
	}
	err = s.queue.Do(ctx, "users.register", func(ctx context.Context) error {
		users, err := s.repo.List(ctx)
		if err != nil {
			return appErrors.Storage(err, "failed to load users")
		}
		for _, existing := range users {
			if models.NormalizeEmail(existing.Email) == user.Email {
				return appErrors.Clone(appErrors.ErrConflict, "email already registered")
			}
			if user.CPF != "" && existing.CPF == user.CPF {
				return appErrors.Clone(appErrors.ErrConflict, "cpf already registered")
			}
			if user.Role == models.RoleStaff && existing.Role == models.RoleStaff {
				return appErrors.Clone(appErrors.ErrForbidden, "staff accounts are created by staff")
			}
		}
		if err := s.repo.ReplaceAll(ctx, append(users, user)); err != nil {
			return appErrors.Storage(err, "failed to save users")
		}
		return nil
	})
	if err := queueError(ctx, err); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", zap.String("email", user.Email), zap.String("role", string(user.Role)))
	info := user.Info()
	return &info, nil
}

// List returns every account.
func (s *UserService) List(ctx context.Context) ([]models.UserInfo, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to load users")
	}
	out := make([]models.UserInfo, 0, len(users))
	for _, u := range users {
		out = append(out, u.Info())
	}
	return out, nil
}

// Get returns an account by email.
func (s *UserService) Get(ctx context.Context, email string) (*models.UserInfo, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to load users")
	}
	i := indexOfUser(users, email)
	if i < 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}
	info := users[i].Info()
	return &info, nil
}

// UpdateProfile edits name, avatar and CPF of an account.
func (s *UserService) UpdateProfile(ctx context.Context, email string, req UpdateProfileRequest) (*models.UserInfo, error) {
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, appErrors.Validation(nil, "invalid profile payload", map[string]string{"name": "name is a required field"})
		}
		req.Name = &name
	}
	var digits string
	if req.CPF != nil {
		if !cpf.Validate(*req.CPF) {
			return nil, appErrors.Validation(nil, "invalid profile payload", map[string]string{"cpf": "cpf must be a valid CPF"})
		}
		digits = cpf.OnlyDigits(*req.CPF)
	}

	var updated models.User
	err := s.queue.Do(ctx, "users.update_profile", func(ctx context.Context) error {
		users, err := s.repo.List(ctx)
		if err != nil {
			return appErrors.Storage(err, "failed to load users")
		}
		i := indexOfUser(users, email)
		if i < 0 {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		if digits != "" {
			for j, other := range users {
				if j != i && other.CPF == digits {
					return appErrors.Clone(appErrors.ErrConflict, "cpf already registered")
				}
			}
			users[i].CPF = digits
		}
		if req.Name != nil {
			users[i].Name = *req.Name
		}
		if req.Avatar != nil {
			if *req.Avatar == "" {
				users[i].Avatar = nil
			} else {
				avatar := *req.Avatar
				users[i].Avatar = &avatar
			}
		}
		if err := s.repo.ReplaceAll(ctx, users); err != nil {
			return appErrors.Storage(err, "failed to save users")
		}
		updated = users[i]
		return nil
	})
	if err := queueError(ctx, err); err != nil {
		return nil, err
	}
	info := updated.Info()
	return &info, nil
}

// Remove frees the seats held by an account, drops its favorites and then
// deletes it, all in one queued task. The account goes last so a failed
// cleanup leaves it in place and a retry finishes the job.
func (s *UserService) Remove(ctx context.Context, email string) error {
	var (
		removed  string
		released int
	)
	err := s.queue.Do(ctx, "users.remove", func(ctx context.Context) error {
		users, err := s.repo.List(ctx)
		if err != nil {
			return appErrors.Storage(err, "failed to load users")
		}
		i := indexOfUser(users, email)
		if i < 0 {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		removed = models.NormalizeEmail(users[i].Email)

		if released, err = s.rosters.ReleaseStudent(ctx, removed); err != nil {
			return err
		}
		if err := s.favorites.Clear(ctx, removed); err != nil {
			return err
		}
		if err := s.repo.ReplaceAll(ctx, append(users[:i], users[i+1:]...)); err != nil {
			return appErrors.Storage(err, "failed to save users")
		}
		return nil
	})
	if err := queueError(ctx, err); err != nil {
		return err
	}
	s.logger.Info("user removed", zap.String("email", removed), zap.Int("sections_released", released))
	return nil
}

func indexOfUser(users []models.User, email string) int {
	email = models.NormalizeEmail(email)
	for i := range users {
		if models.NormalizeEmail(users[i].Email) == email {
			return i
		}
	}
	return -1
}
