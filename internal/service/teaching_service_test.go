package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schola-blog/schola-api/internal/models"
	appErrors "github.com/schola-blog/schola-api/pkg/errors"
)

type fakeCacheRepo struct {
	entries map[string][]byte
	getErr  error
}

func newFakeCacheRepo() *fakeCacheRepo {
	return &fakeCacheRepo{entries: map[string][]byte{}}
}

func (f *fakeCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	if f.getErr != nil {
		return f.getErr
	}
	raw, ok := f.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (f *fakeCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.entries[key] = raw
	return nil
}

func (f *fakeCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	prefix := pattern
	if n := len(pattern); n > 0 && pattern[n-1] == '*' {
		prefix = pattern[:n-1]
	}
	for key := range f.entries {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(f.entries, key)
		}
	}
	return nil
}

type mockTeachingRepo struct {
	levels      []models.TeachingLevel
	levelsErr   error
	levelsCalls int
	level       *models.TeachingLevel
	levelErr    error
	grades      []models.TeachingGrade
	gradesErr   error
	gradesCalls int
}

func (m *mockTeachingRepo) ListLevels(ctx context.Context) ([]models.TeachingLevel, error) {
	m.levelsCalls++
	if m.levelsErr != nil {
		return nil, m.levelsErr
	}
	return m.levels, nil
}

func (m *mockTeachingRepo) FindLevelByID(ctx context.Context, id string) (*models.TeachingLevel, error) {
	if m.levelErr != nil {
		return nil, m.levelErr
	}
	return m.level, nil
}

func (m *mockTeachingRepo) ListGradesByLevel(ctx context.Context, levelID string) ([]models.TeachingGrade, error) {
	m.gradesCalls++
	if m.gradesErr != nil {
		return nil, m.gradesErr
	}
	return m.grades, nil
}

func (m *mockTeachingRepo) FindGradeByID(ctx context.Context, id string) (*models.TeachingGrade, error) {
	return nil, sql.ErrNoRows
}

func newCacheForTest() *CacheService {
	return NewCacheService(newFakeCacheRepo(), nil, time.Minute, nil, true)
}

func TestTeachingServiceListLevelsCachesResult(t *testing.T) {
	repo := &mockTeachingRepo{levels: []models.TeachingLevel{
		{ID: "level-1", Name: "Ensino Fundamental", Position: 0},
		{ID: "level-2", Name: "Ensino Médio", Position: 1},
	}}
	svc := NewTeachingService(repo, newCacheForTest(), nil)

	levels, hit, err := svc.ListLevels(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, levels, 2)

	levels, hit, err = svc.ListLevels(context.Background())
	require.NoError(t, err)
	assert.True(t, hit)
	require.Len(t, levels, 2)
	assert.Equal(t, 1, repo.levelsCalls)
}

func TestTeachingServiceListLevelsWithoutCache(t *testing.T) {
	repo := &mockTeachingRepo{levels: []models.TeachingLevel{{ID: "level-1"}}}
	svc := NewTeachingService(repo, nil, nil)

	_, hit, err := svc.ListLevels(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)

	_, hit, err = svc.ListLevels(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, repo.levelsCalls)
}

func TestTeachingServiceListGradesByLevel(t *testing.T) {
	repo := &mockTeachingRepo{
		level:  &models.TeachingLevel{ID: "level-1", Name: "Ensino Fundamental"},
		grades: []models.TeachingGrade{{ID: "grade-1", TeachingLevelID: "level-1", Name: "5º Ano", Position: 4}},
	}
	svc := NewTeachingService(repo, newCacheForTest(), nil)

	grades, hit, err := svc.ListGradesByLevel(context.Background(), "level-1")
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, grades, 1)

	_, hit, err = svc.ListGradesByLevel(context.Background(), "level-1")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, repo.gradesCalls)
}

func TestTeachingServiceListGradesUnknownLevel(t *testing.T) {
	repo := &mockTeachingRepo{levelErr: sql.ErrNoRows}
	svc := NewTeachingService(repo, nil, nil)

	_, _, err := svc.ListGradesByLevel(context.Background(), "missing")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Status, appErr.Status)
}

func TestCacheServiceDegradesOnRepoFailure(t *testing.T) {
	repo := newFakeCacheRepo()
	repo.getErr = errors.New("connection refused")
	svc := NewCacheService(repo, nil, time.Minute, nil, true)

	var out []models.TeachingLevel
	hit, err := svc.Get(context.Background(), "teaching:levels", &out)
	assert.False(t, hit)
	assert.Error(t, err)
}

func TestCacheServiceInvalidatePattern(t *testing.T) {
	repo := newFakeCacheRepo()
	svc := NewCacheService(repo, nil, time.Minute, nil, true)

	require.NoError(t, svc.Set(context.Background(), "posts:list:a", "x", 0))
	require.NoError(t, svc.Set(context.Background(), "posts:list:b", "y", 0))
	require.NoError(t, svc.Set(context.Background(), "subjects:all", "z", 0))

	require.NoError(t, svc.Invalidate(context.Background(), "posts:list:*"))

	var out string
	hit, _ := svc.Get(context.Background(), "posts:list:a", &out)
	assert.False(t, hit)
	hit, _ = svc.Get(context.Background(), "subjects:all", &out)
	assert.True(t, hit)
}
