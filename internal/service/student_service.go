package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/schola-blog/schola-api/internal/models"
	appErrors "github.com/schola-blog/schola-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
	UpdateGrade(ctx context.Context, id string, teachingGradeID *string) error
}

type studentTeachingRepository interface {
	FindGradeByID(ctx context.Context, id string) (*models.TeachingGrade, error)
}

// StudentService manages student records derived from role state.
type StudentService struct {
	repo      studentRepository
	teaching  studentTeachingRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService creates an instance of StudentService.
func NewStudentService(repo studentRepository, teaching studentTeachingRepository, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &StudentService{repo: repo, teaching: teaching, validator: validate, logger: logger}
}

// List returns paginated students and pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentResponse, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}

	responses := make([]models.StudentResponse, 0, len(students))
	for _, st := range students {
		responses = append(responses, models.NewStudentResponse(st))
	}

	return responses, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a student by ID.
func (s *StudentService) Get(ctx context.Context, id string) (*models.StudentResponse, error) {
	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	resp := models.NewStudentResponse(*detail)
	return &resp, nil
}

// Update assigns or clears the student's teaching grade.
func (s *StudentService) Update(ctx context.Context, id string, req models.UpdateStudentRequest) (*models.StudentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update student payload")
	}

	if req.TeachingGradeID != nil {
		if _, err := s.teaching.FindGradeByID(ctx, *req.TeachingGradeID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "teaching grade not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teaching grade")
		}
	}

	if err := s.repo.UpdateGrade(ctx, id, req.TeachingGradeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}

	return s.Get(ctx, id)
}
