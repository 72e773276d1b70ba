package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/turmas-api/internal/models"
	"github.com/noah-isme/turmas-api/internal/repository"
	appErrors "github.com/noah-isme/turmas-api/pkg/errors"
	"github.com/noah-isme/turmas-api/pkg/kvstore"
)

func TestCourseServiceSeedsOnce(t *testing.T) {
	store := kvstore.NewMemory()
	svc := NewCourseService(repository.NewCourseRepository(store, nil, nil), nil, nil)
	ctx := context.Background()

	wrote, err := svc.Seed(ctx, DefaultCatalog())
	require.NoError(t, err)
	assert.True(t, wrote)

	wrote, err = svc.Seed(ctx, []models.Course{{ID: "x", Title: "Outro"}})
	require.NoError(t, err)
	assert.False(t, wrote)

	courses, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, courses, 6)
	assert.Equal(t, "Assistente Administrativo", courses[0].Title)
}

func TestCourseServiceDetailIncludesSections(t *testing.T) {
	store := kvstore.NewMemory()
	ledger := newTestLedger(t, store)
	svc := NewCourseService(repository.NewCourseRepository(store, nil, nil), ledger, nil)
	ctx := context.Background()
	_, err := svc.Seed(ctx, DefaultCatalog())
	require.NoError(t, err)

	_, err = ledger.Create(ctx, CreateSectionRequest{Name: "Turma A", CourseID: "2", Vacancies: 5})
	require.NoError(t, err)
	_, err = ledger.Create(ctx, CreateSectionRequest{Name: "Turma B", Course: "Programação de Dispositivos Móveis", Vacancies: 5})
	require.NoError(t, err)
	_, err = ledger.Create(ctx, CreateSectionRequest{Name: "Turma C", CourseID: "3", Vacancies: 5})
	require.NoError(t, err)

	detail, err := svc.Detail(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "Programação de Dispositivos Móveis", detail.Title)
	require.Len(t, detail.Sections, 2)
	assert.Equal(t, "Turma A", detail.Sections[0].Name)
	assert.Equal(t, "Turma B", detail.Sections[1].Name)

	_, err = svc.Detail(ctx, "99")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}
