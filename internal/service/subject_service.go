package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/schola-blog/schola-api/internal/models"
	appErrors "github.com/schola-blog/schola-api/pkg/errors"
)

const cacheKeySubjects = "subjects:all"

type subjectRepository interface {
	List(ctx context.Context) ([]models.Subject, error)
}

// SubjectService serves the subject reference data, backed by the cache
// when available.
type SubjectService struct {
	repo   subjectRepository
	cache  *CacheService
	logger *zap.Logger
}

// NewSubjectService creates an instance of SubjectService.
func NewSubjectService(repo subjectRepository, cache *CacheService, logger *zap.Logger) *SubjectService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{repo: repo, cache: cache, logger: logger}
}

// List returns all subjects ordered by name.
func (s *SubjectService) List(ctx context.Context) ([]models.Subject, bool, error) {
	var subjects []models.Subject
	if hit, err := s.cache.Get(ctx, cacheKeySubjects, &subjects); err == nil && hit {
		return subjects, true, nil
	}

	subjects, err := s.repo.List(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}

	_ = s.cache.Set(ctx, cacheKeySubjects, subjects, 0)
	return subjects, false, nil
}
