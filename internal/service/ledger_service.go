package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/turmas-api/internal/models"
	appErrors "github.com/noah-isme/turmas-api/pkg/errors"
	"github.com/noah-isme/turmas-api/pkg/jobs"
	"github.com/noah-isme/turmas-api/pkg/validation"
)

type sectionRepository interface {
	List(ctx context.Context) ([]models.ClassSection, error)
	ReplaceAll(ctx context.Context, sections []models.ClassSection) error
}

// mutationQueue runs read-modify-write tasks one at a time.
type mutationQueue interface {
	Do(ctx context.Context, name string, task jobs.Task) error
}

// accountDirectory answers whether a user id still belongs to an account.
type accountDirectory interface {
	Exists(ctx context.Context, email string) (bool, error)
}

type ledgerMetrics interface {
	ObserveLedgerOperation(operation, result string, duration time.Duration)
}

// CreateSectionRequest is the payload for a new class section. Vacancies is
// the initial capacity.
type CreateSectionRequest struct {
	Name      string `json:"name" validate:"required"`
	CourseID  string `json:"courseId"`
	Course    string `json:"course"`
	Professor string `json:"professor"`
	Vacancies int    `json:"vacancies" validate:"gte=0"`
	Schedule  string `json:"schedule"`
}

// UpdateSectionRequest carries the fields to merge into a section. Nil
// fields are left untouched. Capacity resizes the section keeping its roster.
type UpdateSectionRequest struct {
	Name      *string `json:"name"`
	CourseID  *string `json:"courseId"`
	Course    *string `json:"course"`
	Professor *string `json:"professor"`
	Schedule  *string `json:"schedule"`
	Vacancies *int    `json:"vacancies" validate:"omitempty,gte=0"`
	Capacity  *int    `json:"capacity" validate:"omitempty,gte=0"`
}

// LedgerService owns class sections and their seat accounting. Every
// mutation reads the whole collection, changes it and writes it back inside
// a single queued task.
type LedgerService struct {
	repo      sectionRepository
	queue     mutationQueue
	validator *validator.Validate
	logger    *zap.Logger
	metrics   ledgerMetrics
	accounts  accountDirectory
	newID     func() string
}

// LedgerOption customises a LedgerService.
type LedgerOption func(*LedgerService)

// WithLedgerMetrics records operation outcomes.
func WithLedgerMetrics(m ledgerMetrics) LedgerOption {
	return func(s *LedgerService) { s.metrics = m }
}

// WithAccountDirectory makes Enroll admit only users with a registered
// account. The lookup runs inside the enroll task, so it is ordered with
// account removals on the same queue.
func WithAccountDirectory(accounts accountDirectory) LedgerOption {
	return func(s *LedgerService) { s.accounts = accounts }
}

// WithIDGenerator overrides section id generation.
func WithIDGenerator(fn func() string) LedgerOption {
	return func(s *LedgerService) { s.newID = fn }
}

// NewLedgerService constructs a LedgerService.
func NewLedgerService(repo sectionRepository, queue mutationQueue, validate *validator.Validate, logger *zap.Logger, opts ...LedgerOption) *LedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validation.New()
	}
	s := &LedgerService{repo: repo, queue: queue, validator: validate, logger: logger, newID: uuid.NewString}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns every section in storage order.
func (s *LedgerService) List(ctx context.Context) ([]models.ClassSection, error) {
	sections, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to load sections")
	}
	return sections, nil
}

// ListForCourse returns the sections offered for ref in storage order.
func (s *LedgerService) ListForCourse(ctx context.Context, ref models.CourseRef) ([]models.ClassSection, error) {
	sections, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.ClassSection, 0)
	for _, section := range sections {
		if section.BelongsTo(ref) {
			out = append(out, section)
		}
	}
	return out, nil
}

// Get returns a section by id.
func (s *LedgerService) Get(ctx context.Context, id string) (*models.ClassSection, error) {
	sections, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	i := indexOfSection(sections, id)
	if i < 0 {
		return nil, sectionNotFound(id)
	}
	section := sections[i]
	return &section, nil
}

// CountAndCapacity summarises the seats of a section.
func (s *LedgerService) CountAndCapacity(ctx context.Context, id string) (*models.SeatSummary, error) {
	section, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.SeatSummary{
		SectionID: section.ID,
		Enrolled:  len(section.Students),
		Vacancies: section.Vacancies,
		Capacity:  section.Capacity(),
	}, nil
}

// Create stores a new section with an empty roster.
func (s *LedgerService) Create(ctx context.Context, req CreateSectionRequest) (*models.ClassSection, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid section payload", validation.Fields(err))
	}

	section := models.ClassSection{
		ID:        s.newID(),
		Name:      req.Name,
		CourseID:  strings.TrimSpace(req.CourseID),
		Course:    strings.TrimSpace(req.Course),
		Professor: strings.TrimSpace(req.Professor),
		Vacancies: req.Vacancies,
		Schedule:  strings.TrimSpace(req.Schedule),
		Students:  []string{},
	}

	err := s.mutate(ctx, "create", func(sections []models.ClassSection) ([]models.ClassSection, bool, error) {
		if indexOfSection(sections, section.ID) >= 0 {
			return nil, false, appErrors.Clone(appErrors.ErrConflict, "section id already in use")
		}
		return append(sections, section), true, nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("section created", zap.String("section_id", section.ID), zap.String("name", section.Name), zap.Int("vacancies", section.Vacancies))
	return &section, nil
}

// Update merges the supplied fields into an existing section.
func (s *LedgerService) Update(ctx context.Context, id string, req UpdateSectionRequest) (*models.ClassSection, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid section payload", validation.Fields(err))
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, appErrors.Validation(nil, "invalid section payload", map[string]string{"name": "name is a required field"})
		}
		req.Name = &name
	}
	if req.Vacancies != nil && req.Capacity != nil {
		return nil, appErrors.Validation(nil, "supply either vacancies or capacity", map[string]string{"capacity": "capacity cannot be combined with vacancies"})
	}

	var updated models.ClassSection
	err := s.mutate(ctx, "update", func(sections []models.ClassSection) ([]models.ClassSection, bool, error) {
		i := indexOfSection(sections, id)
		if i < 0 {
			return nil, false, sectionNotFound(id)
		}
		section := &sections[i]
		if req.Capacity != nil {
			if *req.Capacity < len(section.Students) {
				return nil, false, appErrors.Validation(nil, "capacity is below the enrolled count",
					map[string]string{"capacity": "capacity must be at least the number of enrolled students"})
			}
			section.Vacancies = *req.Capacity - len(section.Students)
		}
		if req.Vacancies != nil {
			section.Vacancies = *req.Vacancies
		}
		if req.Name != nil {
			section.Name = *req.Name
		}
		if req.CourseID != nil {
			section.CourseID = strings.TrimSpace(*req.CourseID)
		}
		if req.Course != nil {
			section.Course = strings.TrimSpace(*req.Course)
		}
		if req.Professor != nil {
			section.Professor = strings.TrimSpace(*req.Professor)
		}
		if req.Schedule != nil {
			section.Schedule = strings.TrimSpace(*req.Schedule)
		}
		updated = section.Clone()
		return sections, true, nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("section updated", zap.String("section_id", id))
	return &updated, nil
}

// Delete removes a section. Deleting an unknown id succeeds without writing.
func (s *LedgerService) Delete(ctx context.Context, id string) error {
	removed := false
	err := s.mutate(ctx, "delete", func(sections []models.ClassSection) ([]models.ClassSection, bool, error) {
		i := indexOfSection(sections, id)
		if i < 0 {
			return nil, false, nil
		}
		removed = true
		return append(sections[:i], sections[i+1:]...), true, nil
	})
	if err != nil {
		return err
	}
	if removed {
		s.logger.Info("section deleted", zap.String("section_id", id))
	}
	return nil
}

// Enroll adds userID to the section roster taking one vacancy. Failures are
// reported in order: missing section, unknown account, already enrolled,
// no vacancy.
func (s *LedgerService) Enroll(ctx context.Context, sectionID, userID string) (*models.ClassSection, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, appErrors.Validation(nil, "user is required", map[string]string{"user": "user is a required field"})
	}

	var updated models.ClassSection
	err := s.mutate(ctx, "enroll", func(sections []models.ClassSection) ([]models.ClassSection, bool, error) {
		i := indexOfSection(sections, sectionID)
		if i < 0 {
			return nil, false, sectionNotFound(sectionID)
		}
		if err := s.checkAccount(ctx, userID); err != nil {
			return nil, false, err
		}
		section := &sections[i]
		if section.HasStudent(userID) {
			return nil, false, appErrors.Clone(appErrors.ErrAlreadyEnrolled, "user already enrolled in this section")
		}
		if section.Full() {
			return nil, false, appErrors.Clone(appErrors.ErrNoVacancy, "no vacancies left in this section")
		}
		section.AddStudent(userID)
		updated = section.Clone()
		return sections, true, nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("student enrolled", zap.String("section_id", sectionID), zap.String("user", userID), zap.Int("vacancies", updated.Vacancies))
	return &updated, nil
}

// Unenroll removes userID from the roster freeing one vacancy. A user that
// is not enrolled leaves the section unchanged.
func (s *LedgerService) Unenroll(ctx context.Context, sectionID, userID string) (*models.ClassSection, error) {
	return s.leave(ctx, "unenroll", sectionID, userID)
}

// RemoveStudent is the administrative form of Unenroll.
func (s *LedgerService) RemoveStudent(ctx context.Context, sectionID, userID string) (*models.ClassSection, error) {
	return s.leave(ctx, "remove_student", sectionID, userID)
}

func (s *LedgerService) leave(ctx context.Context, op, sectionID, userID string) (*models.ClassSection, error) {
	var updated models.ClassSection
	removed := false
	err := s.mutate(ctx, op, func(sections []models.ClassSection) ([]models.ClassSection, bool, error) {
		i := indexOfSection(sections, sectionID)
		if i < 0 {
			return nil, false, sectionNotFound(sectionID)
		}
		removed = sections[i].RemoveStudent(userID)
		updated = sections[i].Clone()
		return sections, removed, nil
	})
	if err != nil {
		return nil, err
	}
	if removed {
		s.logger.Debug("student left section", zap.String("operation", op), zap.String("section_id", sectionID), zap.String("user", userID))
	}
	return &updated, nil
}

// ReleaseStudent drops userID from every roster and returns how many
// sections changed.
func (s *LedgerService) ReleaseStudent(ctx context.Context, userID string) (int, error) {
	touched := 0
	err := s.mutate(ctx, "release_student", func(sections []models.ClassSection) ([]models.ClassSection, bool, error) {
		for i := range sections {
			if sections[i].RemoveStudent(userID) {
				touched++
			}
		}
		return sections, touched > 0, nil
	})
	if err != nil {
		return 0, err
	}
	if touched > 0 {
		s.logger.Info("student released from sections", zap.String("user", userID), zap.Int("sections", touched))
	}
	return touched, nil
}

func (s *LedgerService) checkAccount(ctx context.Context, userID string) error {
	if s.accounts == nil {
		return nil
	}
	found, err := s.accounts.Exists(ctx, userID)
	if err != nil {
		return appErrors.Storage(err, "failed to load users")
	}
	if !found {
		return appErrors.Clone(appErrors.ErrUnauthorized, "account no longer exists")
	}
	return nil
}

type sectionMutation func(sections []models.ClassSection) (next []models.ClassSection, write bool, err error)

// mutate runs fn against the current collection inside the queue and writes
// the result back when fn asks for it.
func (s *LedgerService) mutate(ctx context.Context, op string, fn sectionMutation) error {
	start := time.Now()
	err := s.queue.Do(ctx, "sections."+op, func(ctx context.Context) error {
		sections, err := s.repo.List(ctx)
		if err != nil {
			return appErrors.Storage(err, "failed to load sections")
		}
		next, write, err := fn(sections)
		if err != nil || !write {
			return err
		}
		if err := s.repo.ReplaceAll(ctx, next); err != nil {
			return appErrors.Storage(err, "failed to save sections")
		}
		return nil
	})
	err = queueError(ctx, err)
	s.observe(op, err, time.Since(start))
	return err
}

func (s *LedgerService) observe(op string, err error, d time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveLedgerOperation(op, resultLabel(err), d)
}

func indexOfSection(sections []models.ClassSection, id string) int {
	for i := range sections {
		if sections[i].ID == id {
			return i
		}
	}
	return -1
}

func sectionNotFound(id string) error {
	return appErrors.Clone(appErrors.ErrNotFound, "section "+id+" not found")
}

// queueError passes typed errors and caller cancellation through and
// reports queue failures, such as a stopped worker, as storage errors.
func queueError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) || ctx.Err() != nil {
		return err
	}
	return appErrors.Storage(err, "mutation queue unavailable")
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return strings.ToLower(appErr.Code)
	}
	return "error"
}
