package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/schola-blog/schola-api/internal/middleware"
	"github.com/schola-blog/schola-api/internal/models"
	"github.com/schola-blog/schola-api/internal/service"
	appErrors "github.com/schola-blog/schola-api/pkg/errors"
	"github.com/schola-blog/schola-api/pkg/response"
)

// PostHandler handles blog post endpoints.
type PostHandler struct {
	posts *service.PostService
}

// NewPostHandler creates a new post handler.
func NewPostHandler(posts *service.PostService) *PostHandler {
	return &PostHandler{posts: posts}
}

// List returns posts with pagination and filtering. Students without an
// explicit grade filter get results scoped to their own teaching grade.
func (h *PostHandler) List(c *gin.Context) {
	var filter models.PostFilter

	filter.Page, filter.PageSize = pageQuery(c)
	filter.Search = c.Query("search")
	filter.AuthorID = c.Query("author_id")
	filter.SubjectID = c.Query("subject_id")
	filter.TeachingGradeID = c.Query("teaching_grade_id")
	filter.TeachingLevelID = c.Query("teaching_level_id")
	filter.SortBy = c.Query("sort_by")
	filter.SortOrder = c.Query("sort_order")

	posts, pagination, hit, err := h.posts.List(c.Request.Context(), filter, middleware.Principal(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, posts, pagination, map[string]interface{}{"cache_hit": hit})
}

// Get returns a single post by ID.
func (h *PostHandler) Get(c *gin.Context) {
	post, err := h.posts.Get(c.Request.Context(), c.Param("postId"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, post, nil)
}

// Create authors a new post owned by the acting teacher.
func (h *PostHandler) Create(c *gin.Context) {
	principal := middleware.Principal(c)
	if principal == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	post, err := h.posts.Create(c.Request.Context(), principal, req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, post)
}

// Update modifies a post. Only the author may change it.
func (h *PostHandler) Update(c *gin.Context) {
	principal := middleware.Principal(c)
	if principal == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	post, err := h.posts.Update(c.Request.Context(), principal, c.Param("postId"), req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, post, nil)
}

// Delete removes a post. Only the author may delete it.
func (h *PostHandler) Delete(c *gin.Context) {
	principal := middleware.Principal(c)
	if principal == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.posts.Delete(c.Request.Context(), principal, c.Param("postId"), requestMeta(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
