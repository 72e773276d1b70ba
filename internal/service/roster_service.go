package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/turmas-api/internal/models"
	appErrors "github.com/noah-isme/turmas-api/pkg/errors"
	"github.com/noah-isme/turmas-api/pkg/export"
)

type rosterSectionReader interface {
	Get(ctx context.Context, id string) (*models.ClassSection, error)
}

type rosterUserReader interface {
	List(ctx context.Context) ([]models.User, error)
}

// RosterFile is a rendered roster ready to download.
type RosterFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// RosterService renders the students of a section as CSV or PDF.
type RosterService struct {
	sections rosterSectionReader
	users    rosterUserReader
	logger   *zap.Logger
}

// NewRosterService constructs a RosterService.
func NewRosterService(sections rosterSectionReader, users rosterUserReader, logger *zap.Logger) *RosterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterService{sections: sections, users: users, logger: logger}
}

var unsafeFilename = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// Export renders the roster of sectionID in format ("csv" or "pdf"). Rows
// follow roster order; students without an account keep only their email.
func (s *RosterService) Export(ctx context.Context, sectionID, format string) (*RosterFile, error) {
	exporter, err := export.ForFormat(format)
	if err != nil {
		return nil, appErrors.Validation(err, "unsupported roster format", map[string]string{"format": "format must be one of [csv pdf]"})
	}

	section, err := s.sections.Get(ctx, sectionID)
	if err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to load users")
	}
	byEmail := make(map[string]models.User, len(users))
	for _, u := range users {
		byEmail[models.NormalizeEmail(u.Email)] = u
	}

	rows := make([]map[string]string, 0, len(section.Students))
	for _, student := range section.Students {
		row := map[string]string{"email": student}
		if u, ok := byEmail[models.NormalizeEmail(student)]; ok {
			info := u.Info()
			row["name"] = info.Name
			row["cpf"] = info.CPF
		}
		rows = append(rows, row)
	}

	data := export.Dataset{
		Title:    section.Name,
		Subtitle: rosterSubtitle(section),
		Headers:  []string{"name", "email", "cpf"},
		Rows:     rows,
	}
	content, err := exporter.Render(data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster")
	}

	name := strings.Trim(unsafeFilename.ReplaceAllString(section.Name, "-"), "-")
	if name == "" {
		name = "turma"
	}
	s.logger.Debug("roster exported", zap.String("section_id", section.ID), zap.String("format", exporter.Extension()), zap.Int("students", len(rows)))
	return &RosterFile{
		Filename:    fmt.Sprintf("%s-%s.%s", name, section.ID, exporter.Extension()),
		ContentType: exporter.ContentType(),
		Content:     content,
	}, nil
}

func rosterSubtitle(section *models.ClassSection) []string {
	var lines []string
	if section.Course != "" {
		lines = append(lines, "Curso: "+section.Course)
	}
	if section.Professor != "" {
		lines = append(lines, "Professor: "+section.Professor)
	}
	if section.Schedule != "" {
		lines = append(lines, "Horário: "+section.Schedule)
	}
	lines = append(lines, fmt.Sprintf("Matriculados: %d / %d", len(section.Students), section.Capacity()))
	return lines
}
