package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schola-blog/schola-api/internal/models"
	appErrors "github.com/schola-blog/schola-api/pkg/errors"
)

type mockStudentRepo struct {
	listRows    []models.StudentDetail
	listTotal   int
	listErr     error
	detail      *models.StudentDetail
	findErr     error
	updateErr   error
	updatedID   string
	updatedWith *string
}

func (m *mockStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	return m.listRows, m.listTotal, nil
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.detail, nil
}

func (m *mockStudentRepo) UpdateGrade(ctx context.Context, id string, teachingGradeID *string) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updatedID = id
	m.updatedWith = teachingGradeID
	return nil
}

type mockTeachingGradeRepo struct {
	grade *models.TeachingGrade
	err   error
}

func (m *mockTeachingGradeRepo) FindGradeByID(ctx context.Context, id string) (*models.TeachingGrade, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.grade, nil
}

func sampleStudentDetail() *models.StudentDetail {
	grade := "5º Ano"
	gradeID := "grade-1"
	levelID := "level-1"
	return &models.StudentDetail{
		Student: models.Student{
			ID:              "s-1",
			UserID:          "u-1",
			TeachingGradeID: &gradeID,
		},
		Username:          "pedro.costa",
		FullName:          "Pedro Costa",
		TeachingGradeName: &grade,
		TeachingLevelID:   &levelID,
	}
}

func TestStudentServiceGet(t *testing.T) {
	repo := &mockStudentRepo{detail: sampleStudentDetail()}
	svc := NewStudentService(repo, &mockTeachingGradeRepo{}, nil, nil)

	resp, err := svc.Get(context.Background(), "s-1")
	require.NoError(t, err)
	assert.Equal(t, "pedro.costa", resp.Username)
	require.NotNil(t, resp.TeachingGrade)
	assert.Equal(t, "grade-1", resp.TeachingGrade.ID)
}

func TestStudentServiceGetNotFound(t *testing.T) {
	repo := &mockStudentRepo{findErr: sql.ErrNoRows}
	svc := NewStudentService(repo, &mockTeachingGradeRepo{}, nil, nil)

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Status, appErr.Status)
}

func TestStudentServiceUpdateAssignsGrade(t *testing.T) {
	repo := &mockStudentRepo{detail: sampleStudentDetail()}
	teaching := &mockTeachingGradeRepo{grade: &models.TeachingGrade{ID: "grade-1", Name: "5º Ano"}}
	svc := NewStudentService(repo, teaching, nil, nil)

	gradeID := "0b6f4c1a-9a3e-4e0f-8d62-1a2b3c4d5e6f"
	_, err := svc.Update(context.Background(), "s-1", models.UpdateStudentRequest{TeachingGradeID: &gradeID})
	require.NoError(t, err)
	assert.Equal(t, "s-1", repo.updatedID)
	require.NotNil(t, repo.updatedWith)
	assert.Equal(t, gradeID, *repo.updatedWith)
}

func TestStudentServiceUpdateClearsGrade(t *testing.T) {
	repo := &mockStudentRepo{detail: sampleStudentDetail()}
	svc := NewStudentService(repo, &mockTeachingGradeRepo{err: sql.ErrNoRows}, nil, nil)

	// Grade lookup must not run for a nil assignment.
	_, err := svc.Update(context.Background(), "s-1", models.UpdateStudentRequest{})
	require.NoError(t, err)
	assert.Nil(t, repo.updatedWith)
}

func TestStudentServiceUpdateUnknownGrade(t *testing.T) {
	repo := &mockStudentRepo{detail: sampleStudentDetail()}
	svc := NewStudentService(repo, &mockTeachingGradeRepo{err: sql.ErrNoRows}, nil, nil)

	gradeID := "0b6f4c1a-9a3e-4e0f-8d62-1a2b3c4d5e6f"
	_, err := svc.Update(context.Background(), "s-1", models.UpdateStudentRequest{TeachingGradeID: &gradeID})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Status, appErr.Status)
	assert.Equal(t, "teaching grade not found", appErr.Message)
	assert.Empty(t, repo.updatedID)
}

func TestStudentServiceUpdateUnknownStudent(t *testing.T) {
	repo := &mockStudentRepo{updateErr: sql.ErrNoRows}
	svc := NewStudentService(repo, &mockTeachingGradeRepo{grade: &models.TeachingGrade{ID: "grade-1"}}, nil, nil)

	_, err := svc.Update(context.Background(), "missing", models.UpdateStudentRequest{})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "student not found", appErr.Message)
}

func TestStudentServiceUpdateRejectsMalformedID(t *testing.T) {
	svc := NewStudentService(&mockStudentRepo{}, &mockTeachingGradeRepo{}, nil, nil)

	bad := "not-a-uuid"
	_, err := svc.Update(context.Background(), "s-1", models.UpdateStudentRequest{TeachingGradeID: &bad})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Status, appErr.Status)
}

func TestStudentServiceList(t *testing.T) {
	repo := &mockStudentRepo{listRows: []models.StudentDetail{*sampleStudentDetail()}, listTotal: 1}
	svc := NewStudentService(repo, &mockTeachingGradeRepo{}, nil, nil)

	students, pagination, err := svc.List(context.Background(), models.StudentFilter{})
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, 1, pagination.TotalCount)
}
