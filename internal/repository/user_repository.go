package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/schola-blog/schola-api/internal/models"
)

const userColumns = "u.id, u.username, u.full_name, u.email, u.password_hash, u.active, u.created_at, u.updated_at"

// UserRepository provides database access for user management.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByUsername returns a user by username, matched case-insensitively.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users u WHERE LOWER(u.username) = LOWER($1) LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, username); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by username: %w", err)
	}
	return &user, nil
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users u WHERE u.id = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// FindRolesByUserID returns the role record for a user.
func (r *UserRepository) FindRolesByUserID(ctx context.Context, userID string) (*models.UserRoles, error) {
	const query = `SELECT id, user_id, is_admin, is_teacher, is_student, created_at, updated_at FROM user_roles WHERE user_id = $1 LIMIT 1`
	var roles models.UserRoles
	if err := r.db.GetContext(ctx, &roles, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find roles by user id: %w", err)
	}
	return &roles, nil
}

// List returns users joined with their role flags based on filters.
func (r *UserRepository) List(ctx context.Context, filter models.UserFilter) ([]models.UserWithRoles, int, error) {
	baseQuery := `FROM users u JOIN user_roles r ON r.user_id = u.id WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Username != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(u.username) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Username)+"%")
	}
	if filter.FullName != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(u.full_name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.FullName)+"%")
	}
	if filter.Email != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(u.email) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Email)+"%")
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("u.active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Admin != nil {
		conditions = append(conditions, fmt.Sprintf("r.is_admin = $%d", len(args)+1))
		args = append(args, *filter.Admin)
	}
	if filter.Teacher != nil {
		conditions = append(conditions, fmt.Sprintf("r.is_teacher = $%d", len(args)+1))
		args = append(args, *filter.Teacher)
	}
	if filter.Student != nil {
		conditions = append(conditions, fmt.Sprintf("r.is_student = $%d", len(args)+1))
		args = append(args, *filter.Student)
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"username":   "u.username",
		"full_name":  "u.full_name",
		"email":      "u.email",
		"created_at": "u.created_at",
	}
	if sortBy == "" {
		sortBy = "created_at"
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "u.created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page, size := normalizePage(filter.Page, filter.PageSize)
	offset := page * size

	listQuery := fmt.Sprintf("SELECT %s, r.is_admin, r.is_teacher, r.is_student %s ORDER BY %s %s LIMIT %d OFFSET %d",
		userColumns, baseQuery, column, order, size, offset)

	var users []models.UserWithRoles
	if err := r.db.SelectContext(ctx, &users, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	return users, total, nil
}

// CreateWithRoles inserts a user, its role record and, when the student
// flag is set, the dependent student record in a single transaction.
func (r *UserRepository) CreateWithRoles(ctx context.Context, user *models.User, roles *models.UserRoles) (err error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	roles.ID = uuid.NewString()
	roles.UserID = user.ID
	roles.CreatedAt = now
	roles.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create user transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const userQuery = `INSERT INTO users (id, username, full_name, email, password_hash, active, created_at, updated_at)
        VALUES (:id, :username, :full_name, :email, :password_hash, :active, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, userQuery, user); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}

	const rolesQuery = `INSERT INTO user_roles (id, user_id, is_admin, is_teacher, is_student, created_at, updated_at)
        VALUES (:id, :user_id, :is_admin, :is_teacher, :is_student, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, rolesQuery, roles); err != nil {
		return fmt.Errorf("insert user roles: %w", err)
	}

	if roles.IsStudent {
		const studentQuery = `INSERT INTO students (id, user_id, teaching_grade_id, created_at, updated_at)
        VALUES ($1, $2, NULL, $3, $4)`
		if _, err = tx.ExecContext(ctx, studentQuery, uuid.NewString(), user.ID, now, now); err != nil {
			return fmt.Errorf("insert student record: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create user transaction: %w", err)
	}
	return nil
}

// Update modifies the mutable attributes of a user.
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	const query = `UPDATE users SET full_name = :full_name, email = :email, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// UpdatePassword updates the stored password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	const query = `UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, passwordHash, updatedAt); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// UpdateRoles persists the role flags and toggles the dependent student
// record on the transition of the student flag, all in one transaction:
// false to true creates the record, true to false deletes it, anything
// else leaves the students table untouched.
func (r *UserRepository) UpdateRoles(ctx context.Context, userID string, flags models.RoleFlags) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update roles transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var current models.UserRoles
	const selectQuery = `SELECT id, user_id, is_admin, is_teacher, is_student, created_at, updated_at FROM user_roles WHERE user_id = $1 FOR UPDATE`
	if err = tx.GetContext(ctx, &current, selectQuery, userID); err != nil {
		if err == sql.ErrNoRows {
			return err
		}
		return fmt.Errorf("lock user roles: %w", err)
	}

	now := time.Now().UTC()
	const updateQuery = `UPDATE user_roles SET is_admin = $1, is_teacher = $2, is_student = $3, updated_at = $4 WHERE user_id = $5`
	if _, err = tx.ExecContext(ctx, updateQuery, flags.Admin, flags.Teacher, flags.Student, now, userID); err != nil {
		return fmt.Errorf("update user roles: %w", err)
	}

	switch {
	case !current.IsStudent && flags.Student:
		const insertQuery = `INSERT INTO students (id, user_id, teaching_grade_id, created_at, updated_at)
        VALUES ($1, $2, NULL, $3, $4)`
		if _, err = tx.ExecContext(ctx, insertQuery, uuid.NewString(), userID, now, now); err != nil {
			return fmt.Errorf("insert student record: %w", err)
		}
	case current.IsStudent && !flags.Student:
		const deleteQuery = `DELETE FROM students WHERE user_id = $1`
		if _, err = tx.ExecContext(ctx, deleteQuery, userID); err != nil {
			return fmt.Errorf("delete student record: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit update roles transaction: %w", err)
	}
	return nil
}

// CreateAuditLog stores an audit log entry.
func (r *UserRepository) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO audit_logs (id, user_id, action, resource, resource_id, old_values, new_values, ip_address, user_agent, created_at) VALUES (:id, :user_id, :action, :resource, :resource_id, :old_values, :new_values, :ip_address, :user_agent, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}

// normalizePage clamps pagination inputs. Pages are zero-indexed and the
// page size defaults to 10, capped at 100.
func normalizePage(page, size int) (int, int) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = 10
	}
	if size > 100 {
		size = 100
	}
	return page, size
}
