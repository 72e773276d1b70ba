package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/turmas-api/internal/repository"
	appErrors "github.com/noah-isme/turmas-api/pkg/errors"
	"github.com/noah-isme/turmas-api/pkg/kvstore"
)

func newTestFavorites(t *testing.T, store kvstore.Store) *FavoriteService {
	t.Helper()
	courses := NewCourseService(repository.NewCourseRepository(store, nil, nil), nil, nil)
	_, err := courses.Seed(context.Background(), DefaultCatalog())
	require.NoError(t, err)
	return NewFavoriteService(repository.NewFavoriteRepository(store, nil, nil), courses, startQueue(t), nil)
}

func TestFavoriteToggleAddsAndRemoves(t *testing.T) {
	svc := newTestFavorites(t, kvstore.NewMemory())
	ctx := context.Background()

	res, err := svc.Toggle(ctx, "a@x.com", "3")
	require.NoError(t, err)
	assert.True(t, res.Favorited)
	res, err = svc.Toggle(ctx, "a@x.com", "1")
	require.NoError(t, err)
	assert.True(t, res.Favorited)

	courses, err := svc.List(ctx, "a@x.com")
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, "3", courses[0].ID)
	assert.Equal(t, "1", courses[1].ID)

	res, err = svc.Toggle(ctx, "a@x.com", "3")
	require.NoError(t, err)
	assert.False(t, res.Favorited)

	courses, err = svc.List(ctx, "a@x.com")
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "1", courses[0].ID)

	other, err := svc.List(ctx, "b@x.com")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestFavoriteToggleUnknownCourse(t *testing.T) {
	svc := newTestFavorites(t, kvstore.NewMemory())
	_, err := svc.Toggle(context.Background(), "a@x.com", "404")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestFavoriteListSkipsRetiredCourses(t *testing.T) {
	store := kvstore.NewMemory()
	svc := newTestFavorites(t, store)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, repository.FavoritesKey("a@x.com"), `["2","retired","5"]`))

	courses, err := svc.List(ctx, "a@x.com")
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, "2", courses[0].ID)
	assert.Equal(t, "5", courses[1].ID)
}

func TestFavoriteClear(t *testing.T) {
	store := kvstore.NewMemory()
	svc := newTestFavorites(t, store)
	ctx := context.Background()
	_, err := svc.Toggle(ctx, "a@x.com", "2")
	require.NoError(t, err)

	require.NoError(t, svc.Clear(ctx, "a@x.com"))
	_, found, err := store.Get(ctx, repository.FavoritesKey("a@x.com"))
	require.NoError(t, err)
	assert.False(t, found)
}
