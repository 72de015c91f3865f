package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/schola-blog/schola-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func userRows(id, username string, active bool) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "username", "full_name", "email", "password_hash", "active", "created_at", "updated_at"}).
		AddRow(id, username, "Maria Silva", username+"@escola.example", "hash", active, now, now)
}

func TestUserRepositoryFindByUsername(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE LOWER(u.username) = LOWER($1)")).
		WithArgs("Maria.Silva").
		WillReturnRows(userRows("user-1", "maria.silva", true))

	user, err := repo.FindByUsername(context.Background(), "Maria.Silva")
	require.NoError(t, err)
	require.Equal(t, "user-1", user.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryFindByUsernameNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	mock.ExpectQuery("SELECT .* FROM users u").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByUsername(context.Background(), "missing")
	require.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestUserRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "username", "full_name", "email", "password_hash", "active", "created_at", "updated_at", "is_admin", "is_teacher", "is_student"}).
		AddRow("user-1", "maria.silva", "Maria Silva", "maria@escola.example", "hash", true, now, now, false, true, false)

	mock.ExpectQuery(regexp.QuoteMeta("LOWER(u.username) LIKE $1")).
		WithArgs("%maria%", true).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("%maria%", true).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	teacher := true
	users, total, err := repo.List(context.Background(), models.UserFilter{Username: "Maria", Teacher: &teacher})
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Equal(t, 1, total)
	require.True(t, users[0].IsTeacher)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryListClampsOversizedPage(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	rows := sqlmock.NewRows([]string{"id", "username", "full_name", "email", "password_hash", "active", "created_at", "updated_at", "is_admin", "is_teacher", "is_student"})

	mock.ExpectQuery(regexp.QuoteMeta("LIMIT 100 OFFSET 0")).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, _, err := repo.List(context.Background(), models.UserFilter{PageSize: 101})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryCreateWithRolesStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO user_roles").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO students").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	user := &models.User{Username: "pedro", FullName: "Pedro Costa", Email: "pedro@escola.example", PasswordHash: "hash", Active: true}
	roles := &models.UserRoles{IsStudent: true}
	require.NoError(t, repo.CreateWithRoles(context.Background(), user, roles))
	require.NotEmpty(t, user.ID)
	require.Equal(t, user.ID, roles.UserID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryCreateWithRolesNonStudentSkipsRecord(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO user_roles").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	user := &models.User{Username: "maria", FullName: "Maria Silva", Email: "maria@escola.example", PasswordHash: "hash", Active: true}
	require.NoError(t, repo.CreateWithRoles(context.Background(), user, &models.UserRoles{IsTeacher: true}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryCreateWithRolesRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO user_roles").WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	user := &models.User{Username: "maria", FullName: "Maria Silva", Email: "maria@escola.example", PasswordHash: "hash", Active: true}
	err := repo.CreateWithRoles(context.Background(), user, &models.UserRoles{})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func rolesRows(userID string, admin, teacher, student bool) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "user_id", "is_admin", "is_teacher", "is_student", "created_at", "updated_at"}).
		AddRow("roles-1", userID, admin, teacher, student, now, now)
}

func TestUserRepositoryUpdateRolesStudentGained(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM user_roles .* FOR UPDATE").
		WithArgs("user-1").
		WillReturnRows(rolesRows("user-1", false, false, false))
	mock.ExpectExec("UPDATE user_roles SET").
		WithArgs(false, false, true, sqlmock.AnyArg(), "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO students").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.UpdateRoles(context.Background(), "user-1", models.RoleFlags{Student: true})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryUpdateRolesStudentLost(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM user_roles .* FOR UPDATE").
		WithArgs("user-1").
		WillReturnRows(rolesRows("user-1", false, false, true))
	mock.ExpectExec("UPDATE user_roles SET").
		WithArgs(false, true, false, sqlmock.AnyArg(), "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM students").
		WithArgs("user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.UpdateRoles(context.Background(), "user-1", models.RoleFlags{Teacher: true})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryUpdateRolesNoStudentTransition(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM user_roles .* FOR UPDATE").
		WithArgs("user-1").
		WillReturnRows(rolesRows("user-1", false, false, true))
	mock.ExpectExec("UPDATE user_roles SET").
		WithArgs(true, false, true, sqlmock.AnyArg(), "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.UpdateRoles(context.Background(), "user-1", models.RoleFlags{Admin: true, Student: true})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryUpdateRolesUnknownUser(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM user_roles .* FOR UPDATE").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := repo.UpdateRoles(context.Background(), "missing", models.RoleFlags{})
	require.True(t, errors.Is(err, sql.ErrNoRows))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryCreateAuditLogFillsDefaults(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	mock.ExpectExec("INSERT INTO audit_logs").WillReturnResult(sqlmock.NewResult(1, 1))

	userID := "user-1"
	log := &models.AuditLog{UserID: &userID, Action: models.AuditActionLogin, Resource: "auth"}
	require.NoError(t, repo.CreateAuditLog(context.Background(), log))
	require.NotEmpty(t, log.ID)
	require.False(t, log.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}
