package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/turmas-api/internal/models"
	"github.com/noah-isme/turmas-api/pkg/kvstore"
)

type recorderStub struct {
	keys []string
}

func (r *recorderStub) RecordCorruptDocument(key string) {
	r.keys = append(r.keys, key)
}

type failingStore struct {
	err error
}

func (f failingStore) Get(context.Context, string) (string, bool, error) { return "", false, f.err }
func (f failingStore) Set(context.Context, string, string) error         { return f.err }
func (f failingStore) Delete(context.Context, string) error              { return f.err }

func TestSectionRepositoryEmpty(t *testing.T) {
	repo := NewSectionRepository(kvstore.NewMemory(), zap.NewNop(), nil)

	sections, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, sections)
	assert.Empty(t, sections)
}

func TestSectionRepositoryReadsLegacyDocument(t *testing.T) {
	store := kvstore.NewMemory()
	ctx := context.Background()
	legacy := `[{"id":"1712345678901","name":"Turma A - Matemática","course":"Assistente Administrativo","professor":"Ana"},
{"id":"1712345678902","name":"Turma B","courseId":"2","vacancies":3,"students":["a@x.com"],"schedule":"Seg, Qua - 19:00 às 21:00"}]`
	require.NoError(t, store.Set(ctx, SectionsKey, legacy))
	repo := NewSectionRepository(store, zap.NewNop(), nil)

	sections, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, sections, 2)
	assert.Equal(t, 0, sections[0].Vacancies)
	assert.Equal(t, []string{}, sections[0].Students)
	assert.Equal(t, "Assistente Administrativo", sections[0].Course)
	assert.Equal(t, "2", sections[1].CourseID)
	assert.Equal(t, 3, sections[1].Vacancies)
	assert.Equal(t, []string{"a@x.com"}, sections[1].Students)
}

func TestSectionRepositoryCorruptDocumentIsObservable(t *testing.T) {
	store := kvstore.NewMemory()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, SectionsKey, `{"not":"a list"`))

	core, logs := observer.New(zapcore.WarnLevel)
	recorder := &recorderStub{}
	repo := NewSectionRepository(store, zap.New(core), recorder)

	sections, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, sections)
	assert.Equal(t, []string{SectionsKey}, recorder.keys)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, SectionsKey, logs.All()[0].ContextMap()["key"])
}

func TestSectionRepositoryWrongShapeIsCorrupt(t *testing.T) {
	store := kvstore.NewMemory()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, SectionsKey, `[{"id":"1","vacancies":"two"}]`))
	recorder := &recorderStub{}
	repo := NewSectionRepository(store, nil, recorder)

	sections, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, sections)
	assert.Len(t, recorder.keys, 1)
}

func TestSectionRepositoryRoundTrip(t *testing.T) {
	store := kvstore.NewMemory()
	ctx := context.Background()
	repo := NewSectionRepository(store, nil, nil)

	in := []models.ClassSection{{ID: "s1", Name: "Turma A", Vacancies: 2, Students: []string{}}}
	require.NoError(t, repo.ReplaceAll(ctx, in))

	raw, _, err := store.Get(ctx, SectionsKey)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"s1","name":"Turma A","vacancies":2,"students":[]}]`, raw)

	out, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestSectionRepositoryPropagatesStoreErrors(t *testing.T) {
	cause := errors.New("storage offline")
	repo := NewSectionRepository(failingStore{err: cause}, nil, nil)

	_, err := repo.List(context.Background())
	assert.ErrorIs(t, err, cause)
	err = repo.ReplaceAll(context.Background(), nil)
	assert.ErrorIs(t, err, cause)
}
