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

const postColumns = `p.id, p.author_id, p.subject_id, p.teaching_grade_id, p.title, p.content, p.created_at, p.updated_at,
        u.full_name AS author_name, sub.name AS subject_name, g.name AS teaching_grade_name, g.teaching_level_id`

const postJoins = `FROM posts p
        JOIN users u ON u.id = p.author_id
        JOIN subjects sub ON sub.id = p.subject_id
        JOIN teaching_grades g ON g.id = p.teaching_grade_id`

// PostRepository provides database access for posts.
type PostRepository struct {
	db *sqlx.DB
}

// NewPostRepository creates a new instance of PostRepository.
func NewPostRepository(db *sqlx.DB) *PostRepository {
	return &PostRepository{db: db}
}

// List returns posts joined with author, subject and grade based on filters.
func (r *PostRepository) List(ctx context.Context, filter models.PostFilter) ([]models.PostDetail, int, error) {
	base := postJoins + " WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(p.title) LIKE $%d OR LOWER(p.content) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.AuthorID != "" {
		conditions = append(conditions, fmt.Sprintf("p.author_id = $%d", len(args)+1))
		args = append(args, filter.AuthorID)
	}
	if filter.SubjectID != "" {
		conditions = append(conditions, fmt.Sprintf("p.subject_id = $%d", len(args)+1))
		args = append(args, filter.SubjectID)
	}
	if filter.TeachingGradeID != "" {
		conditions = append(conditions, fmt.Sprintf("p.teaching_grade_id = $%d", len(args)+1))
		args = append(args, filter.TeachingGradeID)
	}
	if filter.TeachingLevelID != "" {
		conditions = append(conditions, fmt.Sprintf("g.teaching_level_id = $%d", len(args)+1))
		args = append(args, filter.TeachingLevelID)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"title":      "p.title",
		"created_at": "p.created_at",
		"updated_at": "p.updated_at",
	}
	if sortBy == "" {
		sortBy = "created_at"
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "p.created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	page, size := normalizePage(filter.Page, filter.PageSize)
	offset := page * size

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", postColumns, base, column, order, size, offset)

	var posts []models.PostDetail
	if err := r.db.SelectContext(ctx, &posts, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}

	return posts, total, nil
}

// ListByAuthorIDs returns all posts authored by any of the given users.
func (r *PostRepository) ListByAuthorIDs(ctx context.Context, authorIDs []string) ([]models.PostDetail, error) {
	if len(authorIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(fmt.Sprintf("SELECT %s %s WHERE p.author_id IN (?) ORDER BY p.created_at DESC", postColumns, postJoins), authorIDs)
	if err != nil {
		return nil, fmt.Errorf("build posts by authors query: %w", err)
	}
	query = r.db.Rebind(query)

	var posts []models.PostDetail
	if err := r.db.SelectContext(ctx, &posts, query, args...); err != nil {
		return nil, fmt.Errorf("list posts by authors: %w", err)
	}
	return posts, nil
}

// FindByID fetches a post detail by ID.
func (r *PostRepository) FindByID(ctx context.Context, id string) (*models.PostDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE p.id = $1", postColumns, postJoins)
	var detail models.PostDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find post by id: %w", err)
	}
	return &detail, nil
}

// Create inserts a new post.
func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = now
	}
	post.UpdatedAt = now
	const query = `INSERT INTO posts (id, author_id, subject_id, teaching_grade_id, title, content, created_at, updated_at)
        VALUES (:id, :author_id, :subject_id, :teaching_grade_id, :title, :content, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, post); err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

// Update modifies the mutable attributes of a post.
func (r *PostRepository) Update(ctx context.Context, post *models.Post) error {
	post.UpdatedAt = time.Now().UTC()
	const query = `UPDATE posts SET title = :title, content = :content, subject_id = :subject_id, teaching_grade_id = :teaching_grade_id, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, post); err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	return nil
}

// Delete removes a post.
func (r *PostRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM posts WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return nil
}
