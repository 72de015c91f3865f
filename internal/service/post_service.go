package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/schola-blog/schola-api/internal/models"
	appErrors "github.com/schola-blog/schola-api/pkg/errors"
)

const cacheKeyPostsPrefix = "posts:list:"

type postRepository interface {
	List(ctx context.Context, filter models.PostFilter) ([]models.PostDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.PostDetail, error)
	Create(ctx context.Context, post *models.Post) error
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id string) error
}

type postStudentRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.Student, error)
}

type postAuditRepository interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// PostService handles post authoring and browsing workflows.
type PostService struct {
	repo      postRepository
	students  postStudentRepository
	audit     postAuditRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPostService creates an instance of PostService.
func NewPostService(repo postRepository, students postStudentRepository, audit postAuditRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *PostService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &PostService{repo: repo, students: students, audit: audit, cache: cache, validator: validate, logger: logger}
}

// List returns paginated posts. When the viewer is an authenticated
// student with an assigned teaching grade and no explicit grade filter,
// the listing defaults to their own grade.
func (s *PostService) List(ctx context.Context, filter models.PostFilter, principal *models.Principal) ([]models.PostResponse, *models.Pagination, bool, error) {
	if principal.IsStudent() && filter.TeachingGradeID == "" {
		student, err := s.students.FindByUserID(ctx, principal.User.ID)
		if err == nil && student.TeachingGradeID != nil {
			filter.TeachingGradeID = *student.TeachingGradeID
		} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("failed to resolve student grade for personalization", zap.Error(err))
		}
	}

	type cachedListing struct {
		Posts      []models.PostResponse `json:"posts"`
		Pagination *models.Pagination    `json:"pagination"`
	}

	key := postListCacheKey(filter)
	var cached cachedListing
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached.Posts, cached.Pagination, true, nil
	}

	posts, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list posts")
	}

	responses := make([]models.PostResponse, 0, len(posts))
	for _, p := range posts {
		responses = append(responses, models.NewPostResponse(p))
	}
	pagination := paginationFor(filter.Page, filter.PageSize, total)

	_ = s.cache.Set(ctx, key, cachedListing{Posts: responses, Pagination: pagination}, 0)
	return responses, pagination, false, nil
}

// Get returns a post by ID.
func (s *PostService) Get(ctx context.Context, id string) (*models.PostResponse, error) {
	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "post not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load post")
	}
	resp := models.NewPostResponse(*detail)
	return &resp, nil
}

// Create authors a new post on behalf of the principal.
func (s *PostService) Create(ctx context.Context, principal *models.Principal, req models.CreatePostRequest, meta models.RequestMeta) (*models.PostResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid create post payload")
	}

	post := &models.Post{
		AuthorID:        principal.User.ID,
		SubjectID:       req.SubjectID,
		TeachingGradeID: req.TeachingGradeID,
		Title:           req.Title,
		Content:         req.Content,
	}

	if err := s.repo.Create(ctx, post); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create post")
	}

	s.invalidateListings(ctx)
	s.recordAudit(ctx, principal.User.ID, models.AuditActionPostCreate, post.ID, nil, post, meta)

	return s.Get(ctx, post.ID)
}

// Update edits a post. Only the author may modify it.
func (s *PostService) Update(ctx context.Context, principal *models.Principal, id string, req models.UpdatePostRequest, meta models.RequestMeta) (*models.PostResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update post payload")
	}

	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "post not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load post")
	}

	if detail.AuthorID != principal.User.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the author can modify this post")
	}

	post := detail.Post
	if req.Title != nil {
		post.Title = *req.Title
	}
	if req.Content != nil {
		post.Content = *req.Content
	}
	if req.SubjectID != nil {
		post.SubjectID = *req.SubjectID
	}
	if req.TeachingGradeID != nil {
		post.TeachingGradeID = *req.TeachingGradeID
	}

	if err := s.repo.Update(ctx, &post); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update post")
	}

	s.invalidateListings(ctx)
	s.recordAudit(ctx, principal.User.ID, models.AuditActionPostUpdate, post.ID, &detail.Post, &post, meta)

	return s.Get(ctx, post.ID)
}

// Delete removes a post. Only the author may delete it.
func (s *PostService) Delete(ctx context.Context, principal *models.Principal, id string, meta models.RequestMeta) error {
	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "post not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load post")
	}

	if detail.AuthorID != principal.User.ID {
		return appErrors.Clone(appErrors.ErrForbidden, "only the author can delete this post")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete post")
	}

	s.invalidateListings(ctx)
	s.recordAudit(ctx, principal.User.ID, models.AuditActionPostDelete, id, &detail.Post, nil, meta)

	return nil
}

func (s *PostService) invalidateListings(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, cacheKeyPostsPrefix+"*"); err != nil {
		s.logger.Warn("failed to invalidate post listings cache", zap.Error(err))
	}
}

func (s *PostService) recordAudit(ctx context.Context, actorID, action, postID string, oldPost, newPost *models.Post, meta models.RequestMeta) {
	entry := &models.AuditLog{
		UserID:     &actorID,
		Action:     action,
		Resource:   "posts",
		ResourceID: &postID,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}
	if oldPost != nil {
		entry.OldValues, _ = json.Marshal(map[string]interface{}{"title": oldPost.Title, "subject_id": oldPost.SubjectID, "teaching_grade_id": oldPost.TeachingGradeID})
	}
	if newPost != nil {
		entry.NewValues, _ = json.Marshal(map[string]interface{}{"title": newPost.Title, "subject_id": newPost.SubjectID, "teaching_grade_id": newPost.TeachingGradeID})
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to record post audit log", zap.Error(err))
	}
}

func postListCacheKey(filter models.PostFilter) string {
	return fmt.Sprintf("%ss=%s&a=%s&sub=%s&g=%s&l=%s&p=%d&ps=%d&sb=%s&so=%s",
		cacheKeyPostsPrefix,
		filter.Search, filter.AuthorID, filter.SubjectID, filter.TeachingGradeID, filter.TeachingLevelID,
		filter.Page, filter.PageSize, filter.SortBy, filter.SortOrder)
}
