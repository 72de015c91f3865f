package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/schola-blog/schola-api/internal/models"
)

// TeachingRepository serves the read-only teaching level and grade
// reference data.
type TeachingRepository struct {
	db *sqlx.DB
}

// NewTeachingRepository constructs a TeachingRepository.
func NewTeachingRepository(db *sqlx.DB) *TeachingRepository {
	return &TeachingRepository{db: db}
}

// ListLevels returns all teaching levels in display order.
func (r *TeachingRepository) ListLevels(ctx context.Context) ([]models.TeachingLevel, error) {
	const query = `SELECT id, name, position FROM teaching_levels ORDER BY position ASC`
	var levels []models.TeachingLevel
	if err := r.db.SelectContext(ctx, &levels, query); err != nil {
		return nil, fmt.Errorf("list teaching levels: %w", err)
	}
	return levels, nil
}

// FindLevelByID returns a single teaching level.
func (r *TeachingRepository) FindLevelByID(ctx context.Context, id string) (*models.TeachingLevel, error) {
	const query = `SELECT id, name, position FROM teaching_levels WHERE id = $1 LIMIT 1`
	var level models.TeachingLevel
	if err := r.db.GetContext(ctx, &level, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find teaching level: %w", err)
	}
	return &level, nil
}

// ListGradesByLevel returns the grades of a level in display order.
func (r *TeachingRepository) ListGradesByLevel(ctx context.Context, levelID string) ([]models.TeachingGrade, error) {
	const query = `SELECT id, teaching_level_id, name, position FROM teaching_grades WHERE teaching_level_id = $1 ORDER BY position ASC`
	var grades []models.TeachingGrade
	if err := r.db.SelectContext(ctx, &grades, query, levelID); err != nil {
		return nil, fmt.Errorf("list teaching grades: %w", err)
	}
	return grades, nil
}

// FindGradeByID returns a single teaching grade.
func (r *TeachingRepository) FindGradeByID(ctx context.Context, id string) (*models.TeachingGrade, error) {
	const query = `SELECT id, teaching_level_id, name, position FROM teaching_grades WHERE id = $1 LIMIT 1`
	var grade models.TeachingGrade
	if err := r.db.GetContext(ctx, &grade, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find teaching grade: %w", err)
	}
	return &grade, nil
}
