package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/turmas-api/internal/models"
	"github.com/noah-isme/turmas-api/internal/repository"
	appErrors "github.com/noah-isme/turmas-api/pkg/errors"
	"github.com/noah-isme/turmas-api/pkg/jobs"
	"github.com/noah-isme/turmas-api/pkg/kvstore"
)

// countingStore counts writes reaching the backend.
type countingStore struct {
	kvstore.Store
	sets int32
}

func (c *countingStore) Set(ctx context.Context, key, value string) error {
	atomic.AddInt32(&c.sets, 1)
	return c.Store.Set(ctx, key, value)
}

func (c *countingStore) writes() int {
	return int(atomic.LoadInt32(&c.sets))
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("disk unavailable")
}
func (brokenStore) Set(context.Context, string, string) error { return errors.New("disk unavailable") }
func (brokenStore) Delete(context.Context, string) error      { return errors.New("disk unavailable") }

type ledgerMetricsStub struct {
	mu      sync.Mutex
	results map[string][]string
}

func (m *ledgerMetricsStub) ObserveLedgerOperation(op, result string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.results == nil {
		m.results = map[string][]string{}
	}
	m.results[op] = append(m.results[op], result)
}

func startQueue(t *testing.T) *jobs.Queue {
	t.Helper()
	q := jobs.NewQueue("test-mutations", jobs.QueueConfig{BufferSize: 8, Logger: zap.NewNop()})
	q.Start(context.Background())
	t.Cleanup(q.Stop)
	return q
}

func newTestLedger(t *testing.T, store kvstore.Store, opts ...LedgerOption) *LedgerService {
	t.Helper()
	repo := repository.NewSectionRepository(store, zap.NewNop(), nil)
	return NewLedgerService(repo, startQueue(t), nil, zap.NewNop(), opts...)
}

func createSection(t *testing.T, svc *LedgerService, name string, vacancies int) *models.ClassSection {
	t.Helper()
	section, err := svc.Create(context.Background(), CreateSectionRequest{Name: name, Vacancies: vacancies})
	require.NoError(t, err)
	return section
}

func TestLedgerFillsSectionThenRejects(t *testing.T) {
	svc := newTestLedger(t, kvstore.NewMemory())
	ctx := context.Background()

	section := createSection(t, svc, "Turma A", 2)
	assert.Equal(t, []string{}, section.Students)
	assert.Equal(t, 2, section.Vacancies)

	got, err := svc.Enroll(ctx, section.ID, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Vacancies)
	assert.Equal(t, []string{"a@x.com"}, got.Students)

	got, err = svc.Enroll(ctx, section.ID, "b@x.com")
	require.NoError(t, err)
	assert.Equal(t, 0, got.Vacancies)
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, got.Students)

	_, err = svc.Enroll(ctx, section.ID, "c@x.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrNoVacancy)

	stored, err := svc.Get(ctx, section.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Vacancies)
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, stored.Students)
}

func TestLedgerEnrollThenUnenrollRestoresSection(t *testing.T) {
	svc := newTestLedger(t, kvstore.NewMemory())
	ctx := context.Background()
	section := createSection(t, svc, "Turma B", 3)
	_, err := svc.Enroll(ctx, section.ID, "first@x.com")
	require.NoError(t, err)

	before, err := svc.Get(ctx, section.ID)
	require.NoError(t, err)

	_, err = svc.Enroll(ctx, section.ID, "a@x.com")
	require.NoError(t, err)
	after, err := svc.Unenroll(ctx, section.ID, "a@x.com")
	require.NoError(t, err)

	assert.Equal(t, before, after)
}

func TestLedgerRejectsDuplicateEnrollment(t *testing.T) {
	svc := newTestLedger(t, kvstore.NewMemory())
	ctx := context.Background()
	section := createSection(t, svc, "Turma C", 5)

	_, err := svc.Enroll(ctx, section.ID, "a@x.com")
	require.NoError(t, err)
	_, err = svc.Enroll(ctx, section.ID, "a@x.com")
	assert.ErrorIs(t, err, appErrors.ErrAlreadyEnrolled)

	stored, err := svc.Get(ctx, section.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, stored.Vacancies)
	assert.Equal(t, []string{"a@x.com"}, stored.Students)
}

func TestLedgerEnrollChecksMembershipBeforeVacancies(t *testing.T) {
	svc := newTestLedger(t, kvstore.NewMemory())
	ctx := context.Background()
	section := createSection(t, svc, "Turma D", 1)
	_, err := svc.Enroll(ctx, section.ID, "a@x.com")
	require.NoError(t, err)

	_, err = svc.Enroll(ctx, section.ID, "a@x.com")
	assert.ErrorIs(t, err, appErrors.ErrAlreadyEnrolled)

	_, err = svc.Enroll(ctx, "missing", "a@x.com")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestLedgerZeroVacanciesNeverAdmits(t *testing.T) {
	store := &countingStore{Store: kvstore.NewMemory()}
	svc := newTestLedger(t, store)
	ctx := context.Background()
	section := createSection(t, svc, "Turma Cheia", 0)
	writes := store.writes()

	for _, user := range []string{"a@x.com", "b@x.com"} {
		_, err := svc.Enroll(ctx, section.ID, user)
		assert.ErrorIs(t, err, appErrors.ErrNoVacancy)
	}

	stored, err := svc.Get(ctx, section.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Students)
	assert.Equal(t, writes, store.writes())
}

func TestLedgerUnenrollAbsentUserIsNoop(t *testing.T) {
	store := &countingStore{Store: kvstore.NewMemory()}
	svc := newTestLedger(t, store)
	ctx := context.Background()
	section := createSection(t, svc, "Turma E", 2)
	_, err := svc.Enroll(ctx, section.ID, "a@x.com")
	require.NoError(t, err)
	writes := store.writes()

	got, err := svc.Unenroll(ctx, section.ID, "ghost@x.com")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Vacancies)
	assert.Equal(t, []string{"a@x.com"}, got.Students)
	assert.Equal(t, writes, store.writes())

	_, err = svc.Unenroll(ctx, "missing", "a@x.com")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestLedgerCapacityInvariantHoldsAcrossSequence(t *testing.T) {
	svc := newTestLedger(t, kvstore.NewMemory())
	ctx := context.Background()
	section := createSection(t, svc, "Turma F", 4)
	capacity := section.Capacity()

	users := []string{"a@x.com", "b@x.com", "c@x.com", "d@x.com", "e@x.com", "f@x.com"}
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		user := users[rng.Intn(len(users))]
		var got *models.ClassSection
		var err error
		if rng.Intn(2) == 0 {
			got, err = svc.Enroll(ctx, section.ID, user)
		} else {
			got, err = svc.Unenroll(ctx, section.ID, user)
		}
		if err != nil {
			assert.True(t, errors.Is(err, appErrors.ErrNoVacancy) || errors.Is(err, appErrors.ErrAlreadyEnrolled), "unexpected error %v", err)
			got, err = svc.Get(ctx, section.ID)
			require.NoError(t, err)
		}
		assert.Equal(t, capacity, got.Vacancies+len(got.Students))
		assert.GreaterOrEqual(t, got.Vacancies, 0)
	}
}

func TestLedgerConcurrentEnrollmentsNeverOversell(t *testing.T) {
	svc := newTestLedger(t, kvstore.NewMemory())
	ctx := context.Background()
	section := createSection(t, svc, "Turma Concorrida", 10)

	var ok, full int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := svc.Enroll(ctx, section.ID, fmt.Sprintf("user%d@x.com", n))
			switch {
			case err == nil:
				atomic.AddInt32(&ok, 1)
			case errors.Is(err, appErrors.ErrNoVacancy):
				atomic.AddInt32(&full, 1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(10), ok)
	assert.Equal(t, int32(40), full)

	stored, err := svc.Get(ctx, section.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Students, 10)
	assert.Equal(t, 0, stored.Vacancies)
}

func TestLedgerCreateValidatesAndAssignsUniqueIDs(t *testing.T) {
	svc := newTestLedger(t, kvstore.NewMemory())
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateSectionRequest{Name: "   ", Vacancies: 1})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Contains(t, appErr.Fields, "name")

	_, err = svc.Create(ctx, CreateSectionRequest{Name: "Turma", Vacancies: -1})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		section := createSection(t, svc, fmt.Sprintf("Turma %d", i), 1)
		assert.False(t, seen[section.ID], "duplicate id %s", section.ID)
		seen[section.ID] = true
	}
	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 100)
}

func TestLedgerCreateRejectsCollidingID(t *testing.T) {
	svc := newTestLedger(t, kvstore.NewMemory(), WithIDGenerator(func() string { return "fixed" }))
	ctx := context.Background()

	createSection(t, svc, "Turma 1", 1)
	_, err := svc.Create(ctx, CreateSectionRequest{Name: "Turma 2", Vacancies: 1})
	assert.ErrorIs(t, err, appErrors.ErrConflict)
}

func TestLedgerUpdateMergesSuppliedFields(t *testing.T) {
	svc := newTestLedger(t, kvstore.NewMemory())
	ctx := context.Background()
	section, err := svc.Create(ctx, CreateSectionRequest{Name: "Turma G", Professor: "Ana", Schedule: "Seg 19h", Vacancies: 3})
	require.NoError(t, err)
	_, err = svc.Enroll(ctx, section.ID, "a@x.com")
	require.NoError(t, err)

	name := "Turma G2"
	updated, err := svc.Update(ctx, section.ID, UpdateSectionRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Turma G2", updated.Name)
	assert.Equal(t, "Ana", updated.Professor)
	assert.Equal(t, "Seg 19h", updated.Schedule)
	assert.Equal(t, 2, updated.Vacancies)
	assert.Equal(t, []string{"a@x.com"}, updated.Students)

	capacity := 6
	updated, err = svc.Update(ctx, section.ID, UpdateSectionRequest{Capacity: &capacity})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Vacancies)
	assert.Equal(t, 6, updated.Capacity())

	vacancies := 0
	updated, err = svc.Update(ctx, section.ID, UpdateSectionRequest{Vacancies: &vacancies})
	require.NoError(t, err)
	assert.Equal(t, 0, updated.Vacancies)
	assert.Equal(t, []string{"a@x.com"}, updated.Students)
}

func TestLedgerUpdateErrors(t *testing.T) {
	svc := newTestLedger(t, kvstore.NewMemory())
	ctx := context.Background()
	section := createSection(t, svc, "Turma H", 2)
	_, err := svc.Enroll(ctx, section.ID, "a@x.com")
	require.NoError(t, err)
	_, err = svc.Enroll(ctx, section.ID, "b@x.com")
	require.NoError(t, err)

	name := "Outra"
	_, err = svc.Update(ctx, "missing", UpdateSectionRequest{Name: &name})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	blank := "  "
	_, err = svc.Update(ctx, section.ID, UpdateSectionRequest{Name: &blank})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	small := 1
	_, err = svc.Update(ctx, section.ID, UpdateSectionRequest{Capacity: &small})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	both := 3
	_, err = svc.Update(ctx, section.ID, UpdateSectionRequest{Capacity: &both, Vacancies: &both})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	negative := -2
	_, err = svc.Update(ctx, section.ID, UpdateSectionRequest{Vacancies: &negative})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestLedgerDeleteIsIdempotent(t *testing.T) {
	store := &countingStore{Store: kvstore.NewMemory()}
	svc := newTestLedger(t, store)
	ctx := context.Background()
	keep := createSection(t, svc, "Fica", 1)
	drop := createSection(t, svc, "Sai", 1)

	require.NoError(t, svc.Delete(ctx, drop.ID))
	writes := store.writes()
	require.NoError(t, svc.Delete(ctx, drop.ID))
	require.NoError(t, svc.Delete(ctx, "never-existed"))
	assert.Equal(t, writes, store.writes())

	_, err := svc.Get(ctx, drop.ID)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	all, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, keep.ID, all[0].ID)
}

func TestLedgerListForCourse(t *testing.T) {
	svc := newTestLedger(t, kvstore.NewMemory())
	ctx := context.Background()
	_, err := svc.Create(ctx, CreateSectionRequest{Name: "por id", CourseID: "1", Course: "Outro Curso", Vacancies: 1})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateSectionRequest{Name: "por titulo", Course: "Assistente Administrativo", Vacancies: 1})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateSectionRequest{Name: "outro id", CourseID: "2", Course: "Assistente Administrativo", Vacancies: 1})
	require.NoError(t, err)

	sections, err := svc.ListForCourse(ctx, models.CourseRef{ID: "1", Title: "Assistente Administrativo"})
	require.NoError(t, err)
	names := []string{}
	for _, s := range sections {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"por id", "por titulo"}, names)

	none, err := svc.ListForCourse(ctx, models.CourseRef{ID: "9", Title: "Inexistente"})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestLedgerCountAndCapacity(t *testing.T) {
	svc := newTestLedger(t, kvstore.NewMemory())
	ctx := context.Background()
	section := createSection(t, svc, "Turma I", 3)
	_, err := svc.Enroll(ctx, section.ID, "a@x.com")
	require.NoError(t, err)

	summary, err := svc.CountAndCapacity(ctx, section.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SeatSummary{SectionID: section.ID, Enrolled: 1, Vacancies: 2, Capacity: 3}, *summary)

	_, err = svc.CountAndCapacity(ctx, "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestLedgerRemoveAndReleaseStudent(t *testing.T) {
	svc := newTestLedger(t, kvstore.NewMemory())
	ctx := context.Background()
	first := createSection(t, svc, "Turma J", 2)
	second := createSection(t, svc, "Turma K", 2)
	for _, id := range []string{first.ID, second.ID} {
		_, err := svc.Enroll(ctx, id, "a@x.com")
		require.NoError(t, err)
	}
	_, err := svc.Enroll(ctx, first.ID, "b@x.com")
	require.NoError(t, err)

	got, err := svc.RemoveStudent(ctx, first.ID, "b@x.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"a@x.com"}, got.Students)
	assert.Equal(t, 1, got.Vacancies)

	touched, err := svc.ReleaseStudent(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, 2, touched)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	for _, s := range all {
		assert.Empty(t, s.Students)
		assert.Equal(t, 2, s.Vacancies)
	}

	touched, err = svc.ReleaseStudent(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Zero(t, touched)
}

func TestLedgerSurfacesStorageErrors(t *testing.T) {
	svc := newTestLedger(t, brokenStore{})
	ctx := context.Background()

	_, err := svc.List(ctx)
	assert.ErrorIs(t, err, appErrors.ErrStorage)
	_, err = svc.Create(ctx, CreateSectionRequest{Name: "Turma", Vacancies: 1})
	assert.ErrorIs(t, err, appErrors.ErrStorage)
	_, err = svc.Enroll(ctx, "any", "a@x.com")
	assert.ErrorIs(t, err, appErrors.ErrStorage)
	assert.ErrorIs(t, svc.Delete(ctx, "any"), appErrors.ErrStorage)
}

func TestLedgerReportsWriteFailures(t *testing.T) {
	store := kvstore.NewMemory()
	require.NoError(t, store.Set(context.Background(), repository.SectionsKey, `[{"id":"s1","name":"Turma","vacancies":1,"students":[]}]`))
	svc := newTestLedger(t, readOnlyStore{Store: store})

	_, err := svc.Enroll(context.Background(), "s1", "a@x.com")
	assert.ErrorIs(t, err, appErrors.ErrStorage)

	stored, err := svc.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Empty(t, stored.Students)
}

type readOnlyStore struct {
	kvstore.Store
}

func (readOnlyStore) Set(context.Context, string, string) error { return errors.New("read-only") }

func TestLedgerTreatsCorruptDocumentAsEmpty(t *testing.T) {
	store := kvstore.NewMemory()
	require.NoError(t, store.Set(context.Background(), repository.SectionsKey, "not json"))
	svc := newTestLedger(t, store)

	sections, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sections)

	section := createSection(t, svc, "Nova", 1)
	sections, err = svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, sections, 1)
	assert.Equal(t, section.ID, sections[0].ID)
}

func TestLedgerStoppedQueueIsStorageError(t *testing.T) {
	q := jobs.NewQueue("stopped", jobs.QueueConfig{})
	q.Start(context.Background())
	q.Stop()
	repo := repository.NewSectionRepository(kvstore.NewMemory(), nil, nil)
	svc := NewLedgerService(repo, q, nil, nil)

	_, err := svc.Create(context.Background(), CreateSectionRequest{Name: "Turma", Vacancies: 1})
	assert.ErrorIs(t, err, appErrors.ErrStorage)
}

func TestLedgerRecordsOperationResults(t *testing.T) {
	metrics := &ledgerMetricsStub{}
	svc := newTestLedger(t, kvstore.NewMemory(), WithLedgerMetrics(metrics))
	ctx := context.Background()
	section := createSection(t, svc, "Turma L", 1)
	_, err := svc.Enroll(ctx, section.ID, "a@x.com")
	require.NoError(t, err)
	_, err = svc.Enroll(ctx, section.ID, "b@x.com")
	require.Error(t, err)

	assert.Equal(t, []string{"ok"}, metrics.results["create"])
	assert.Equal(t, []string{"ok", "no_vacancy"}, metrics.results["enroll"])
}
