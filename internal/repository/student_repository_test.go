package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/schola-blog/schola-api/internal/models"
)

func studentDetailRows() *sqlmock.Rows {
	now := time.Now()
	gradeID := "grade-1"
	gradeName := "5º Ano"
	levelID := "level-1"
	return sqlmock.NewRows([]string{
		"id", "user_id", "teaching_grade_id", "created_at", "updated_at",
		"username", "full_name", "teaching_grade_name", "teaching_level_id",
	}).AddRow("s-1", "u-1", gradeID, now, now, "pedro.costa", "Pedro Costa", gradeName, levelID)
}

func TestStudentRepositoryListBySearch(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewStudentRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("LOWER(u.full_name) LIKE $1")).
		WithArgs("%pedro%").
		WillReturnRows(studentDetailRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("%pedro%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	students, total, err := repo.List(context.Background(), models.StudentFilter{Search: "Pedro"})
	require.NoError(t, err)
	require.Len(t, students, 1)
	require.Equal(t, 1, total)
	require.Equal(t, "pedro.costa", students[0].Username)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryListByLevel(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewStudentRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("g.teaching_level_id = $1")).
		WithArgs("level-1").
		WillReturnRows(studentDetailRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("level-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	_, _, err := repo.List(context.Background(), models.StudentFilter{TeachingLevelID: "level-1"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryFindByUserID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewStudentRepository(db)
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "teaching_grade_id", "created_at", "updated_at"}).
		AddRow("s-1", "u-1", "grade-1", now, now)
	mock.ExpectQuery("SELECT .* FROM students WHERE user_id").
		WithArgs("u-1").
		WillReturnRows(rows)

	student, err := repo.FindByUserID(context.Background(), "u-1")
	require.NoError(t, err)
	require.NotNil(t, student.TeachingGradeID)
	require.Equal(t, "grade-1", *student.TeachingGradeID)
}

func TestStudentRepositoryUpdateGrade(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewStudentRepository(db)
	gradeID := "grade-1"
	mock.ExpectExec("UPDATE students SET teaching_grade_id").
		WithArgs("s-1", gradeID, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateGrade(context.Background(), "s-1", &gradeID))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryUpdateGradeUnknownStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewStudentRepository(db)
	mock.ExpectExec("UPDATE students SET teaching_grade_id").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateGrade(context.Background(), "missing", nil)
	require.True(t, errors.Is(err, sql.ErrNoRows))
}
