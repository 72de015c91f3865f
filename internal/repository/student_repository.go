package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/schola-blog/schola-api/internal/models"
)

const studentColumns = `s.id, s.user_id, s.teaching_grade_id, s.created_at, s.updated_at,
        u.username, u.full_name, g.name AS teaching_grade_name, g.teaching_level_id`

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students joined with their user and teaching grade.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	base := "FROM students s JOIN users u ON u.id = s.user_id LEFT JOIN teaching_grades g ON g.id = s.teaching_grade_id"
	conditions := []string{"1=1"}
	var args []interface{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(u.username) LIKE $%d OR LOWER(u.full_name) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.TeachingGradeID != "" {
		conditions = append(conditions, fmt.Sprintf("s.teaching_grade_id = $%d", len(args)+1))
		args = append(args, filter.TeachingGradeID)
	}
	if filter.TeachingLevelID != "" {
		conditions = append(conditions, fmt.Sprintf("g.teaching_level_id = $%d", len(args)+1))
		args = append(args, filter.TeachingLevelID)
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"username":   "u.username",
		"full_name":  "u.full_name",
		"created_at": "s.created_at",
	}
	if sortBy == "" {
		sortBy = "full_name"
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "u.full_name"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page, size := normalizePage(filter.Page, filter.PageSize)
	offset := page * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", studentColumns, base, column, order, size, offset)

	var students []models.StudentDetail
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID fetches a student detail by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	query := fmt.Sprintf(`SELECT %s
        FROM students s
        JOIN users u ON u.id = s.user_id
        LEFT JOIN teaching_grades g ON g.id = s.teaching_grade_id
        WHERE s.id = $1`, studentColumns)
	var detail models.StudentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student by id: %w", err)
	}
	return &detail, nil
}

// FindByUserID fetches the student record belonging to a user.
func (r *StudentRepository) FindByUserID(ctx context.Context, userID string) (*models.Student, error) {
	const query = `SELECT id, user_id, teaching_grade_id, created_at, updated_at FROM students WHERE user_id = $1 LIMIT 1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student by user id: %w", err)
	}
	return &student, nil
}

// UpdateGrade assigns or clears the student's teaching grade.
func (r *StudentRepository) UpdateGrade(ctx context.Context, id string, teachingGradeID *string) error {
	const query = `UPDATE students SET teaching_grade_id = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, teachingGradeID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update student grade: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
