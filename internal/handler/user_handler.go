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

// UserHandler handles user management endpoints.
type UserHandler struct {
	users  *service.UserService
	auth   *service.AuthService
	export *service.ExportService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(users *service.UserService, auth *service.AuthService, export *service.ExportService) *UserHandler {
	return &UserHandler{users: users, auth: auth, export: export}
}

// List returns users with pagination and filtering.
func (h *UserHandler) List(c *gin.Context) {
	filter, err := userFilterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	users, pagination, err := h.users.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, users, pagination)
}

// ListWithPosts returns users together with their authored posts.
func (h *UserHandler) ListWithPosts(c *gin.Context) {
	filter, err := userFilterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	users, pagination, err := h.users.ListWithPosts(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, users, pagination)
}

// Get returns a single user by ID.
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), c.Param("userId"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, user, nil)
}

// Current returns the acting user.
func (h *UserHandler) Current(c *gin.Context) {
	principal := middleware.Principal(c)
	if principal == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	resp := models.NewUserResponse(principal.User)
	flags := principal.Roles.Flags()
	resp.Roles = &flags
	response.JSON(c, http.StatusOK, resp, nil)
}

// Create adds a new user account.
func (h *UserHandler) Create(c *gin.Context) {
	principal := middleware.Principal(c)
	if principal == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	user, err := h.users.Create(c.Request.Context(), req, principal.User.ID, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, user)
}

// Update modifies user attributes.
func (h *UserHandler) Update(c *gin.Context) {
	principal := middleware.Principal(c)
	if principal == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	user, err := h.users.Update(c.Request.Context(), principal.User.ID, c.Param("userId"), req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, user, nil)
}

// ChangePassword replaces the password of the target user.
func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req service.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	if err := h.auth.ChangePassword(c.Request.Context(), c.Param("userId"), req); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// GetRoles returns the role flags of the target user.
func (h *UserHandler) GetRoles(c *gin.Context) {
	roles, err := h.users.GetRoles(c.Request.Context(), c.Param("userId"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, roles, nil)
}

// CurrentRoles returns the role flags of the acting user.
func (h *UserHandler) CurrentRoles(c *gin.Context) {
	principal := middleware.Principal(c)
	if principal == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	flags := principal.Roles.Flags()
	response.JSON(c, http.StatusOK, flags, nil)
}

// UpdateRoles replaces the role flags of the target user.
func (h *UserHandler) UpdateRoles(c *gin.Context) {
	principal := middleware.Principal(c)
	if principal == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.UpdateRolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	roles, err := h.users.UpdateRoles(c.Request.Context(), principal.User.ID, c.Param("userId"), req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, roles, nil)
}

// Export renders the filtered user list as CSV or PDF.
func (h *UserHandler) Export(c *gin.Context) {
	filter, err := userFilterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if _, ok := c.GetQuery("page_size"); !ok {
		// Without an explicit page_size the export covers the full service cap
		// instead of the listing default.
		filter.PageSize = 0
	}
	format := service.ExportFormat(c.DefaultQuery("format", "csv"))

	payload, err := h.export.ExportUsers(c.Request.Context(), filter, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+payload.Filename)
	c.Data(http.StatusOK, payload.ContentType, payload.Data)
}

func userFilterFromQuery(c *gin.Context) (models.UserFilter, error) {
	var (
		filter models.UserFilter
		err    error
	)

	filter.Page, filter.PageSize = pageQuery(c)
	filter.Username = c.Query("username")
	filter.FullName = c.Query("name")
	filter.Email = c.Query("email")
	if filter.Active, err = boolQuery(c, "active"); err != nil {
		return filter, err
	}
	if filter.Admin, err = boolQuery(c, "admin"); err != nil {
		return filter, err
	}
	if filter.Teacher, err = boolQuery(c, "teacher"); err != nil {
		return filter, err
	}
	if filter.Student, err = boolQuery(c, "student"); err != nil {
		return filter, err
	}
	filter.SortBy = c.Query("sort_by")
	filter.SortOrder = c.Query("sort_order")

	return filter, nil
}
