package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/schola-blog/schola-api/internal/models"
	appErrors "github.com/schola-blog/schola-api/pkg/errors"
)

const (
	cacheKeyTeachingLevels = "teaching:levels"
	cacheKeyGradesPrefix   = "teaching:grades:"
)

type teachingRepository interface {
	ListLevels(ctx context.Context) ([]models.TeachingLevel, error)
	FindLevelByID(ctx context.Context, id string) (*models.TeachingLevel, error)
	ListGradesByLevel(ctx context.Context, levelID string) ([]models.TeachingGrade, error)
	FindGradeByID(ctx context.Context, id string) (*models.TeachingGrade, error)
}

// TeachingService serves teaching level and grade reference data, backed
// by the cache when available.
type TeachingService struct {
	repo   teachingRepository
	cache  *CacheService
	logger *zap.Logger
}

// NewTeachingService creates an instance of TeachingService.
func NewTeachingService(repo teachingRepository, cache *CacheService, logger *zap.Logger) *TeachingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeachingService{repo: repo, cache: cache, logger: logger}
}

// ListLevels returns all teaching levels in display order.
func (s *TeachingService) ListLevels(ctx context.Context) ([]models.TeachingLevel, bool, error) {
	var levels []models.TeachingLevel
	if hit, err := s.cache.Get(ctx, cacheKeyTeachingLevels, &levels); err == nil && hit {
		return levels, true, nil
	}

	levels, err := s.repo.ListLevels(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teaching levels")
	}

	_ = s.cache.Set(ctx, cacheKeyTeachingLevels, levels, 0)
	return levels, false, nil
}

// ListGradesByLevel returns the grades of a level in display order.
func (s *TeachingService) ListGradesByLevel(ctx context.Context, levelID string) ([]models.TeachingGrade, bool, error) {
	key := cacheKeyGradesPrefix + levelID
	var grades []models.TeachingGrade
	if hit, err := s.cache.Get(ctx, key, &grades); err == nil && hit {
		return grades, true, nil
	}

	if _, err := s.repo.FindLevelByID(ctx, levelID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "teaching level not found")
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teaching level")
	}

	grades, err := s.repo.ListGradesByLevel(ctx, levelID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("failed to list grades for level %s", levelID))
	}

	_ = s.cache.Set(ctx, key, grades, 0)
	return grades, false, nil
}
