package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/schola-blog/schola-api/internal/models"
	appErrors "github.com/schola-blog/schola-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.UserWithRoles, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindRolesByUserID(ctx context.Context, userID string) (*models.UserRoles, error)
	CreateWithRoles(ctx context.Context, user *models.User, roles *models.UserRoles) error
	Update(ctx context.Context, user *models.User) error
	UpdateRoles(ctx context.Context, userID string, flags models.RoleFlags) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type userPostRepository interface {
	ListByAuthorIDs(ctx context.Context, authorIDs []string) ([]models.PostDetail, error)
}

// CreateUserRequest represents the payload for creating users.
type CreateUserRequest struct {
	Username string           `json:"username" validate:"required,min=3,max=100"`
	FullName string           `json:"name" validate:"required,min=3,max=200"`
	Email    string           `json:"email" validate:"required,email"`
	Password string           `json:"password" validate:"required,min=6,max=100"`
	Roles    models.RoleFlags `json:"roles"`
}

// UpdateUserRequest is the partial payload for updating users.
type UpdateUserRequest struct {
	FullName *string `json:"name" validate:"omitempty,min=3,max=200"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Active   *bool   `json:"active"`
}

// UpdateRolesRequest replaces the full role-flag set of a user.
type UpdateRolesRequest struct {
	Admin   bool `json:"admin"`
	Teacher bool `json:"teacher"`
	Student bool `json:"student"`
}

// UserService handles user management workflows.
type UserService struct {
	repo      userRepository
	posts     userPostRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, posts userPostRepository, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, posts: posts, validator: validate, logger: logger}
}

// List returns paginated users and pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.UserResponse, *models.Pagination, error) {
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}

	responses := make([]models.UserResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, models.NewUserWithRolesResponse(u))
	}

	return responses, paginationFor(filter.Page, filter.PageSize, total), nil
}

// ListWithPosts returns the filtered users together with their authored posts.
func (s *UserService) ListWithPosts(ctx context.Context, filter models.UserFilter) ([]models.UserWithPostsResponse, *models.Pagination, error) {
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}

	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}

	posts, err := s.posts.ListByAuthorIDs(ctx, ids)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load posts")
	}

	byAuthor := make(map[string][]models.PostResponse, len(users))
	for _, p := range posts {
		byAuthor[p.AuthorID] = append(byAuthor[p.AuthorID], models.NewPostResponse(p))
	}

	responses := make([]models.UserWithPostsResponse, 0, len(users))
	for _, u := range users {
		userPosts := byAuthor[u.ID]
		if userPosts == nil {
			userPosts = []models.PostResponse{}
		}
		responses = append(responses, models.UserWithPostsResponse{
			ID:       u.ID,
			Username: u.Username,
			FullName: u.FullName,
			Posts:    userPosts,
		})
	}

	return responses, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a user by ID, including role flags.
func (s *UserService) Get(ctx context.Context, id string) (*models.UserResponse, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	resp := models.NewUserResponse(*user)
	roles, err := s.repo.FindRolesByUserID(ctx, user.ID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roles")
		}
	} else {
		flags := roles.Flags()
		resp.Roles = &flags
	}
	return &resp, nil
}

// GetRoles returns the role flags of a user.
func (s *UserService) GetRoles(ctx context.Context, userID string) (*models.RoleFlags, error) {
	roles, err := s.repo.FindRolesByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roles")
	}
	flags := roles.Flags()
	return &flags, nil
}

// Create adds a new user with its role record and, when the student flag
// is set, the dependent student record, atomically. The account is always
// created active.
func (s *UserService) Create(ctx context.Context, req CreateUserRequest, actorID string, meta models.RequestMeta) (*models.UserResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid create user payload")
	}

	if req.Roles.Teacher && req.Roles.Student {
		return nil, appErrors.Clone(appErrors.ErrBusinessRule, "An user can't have both teacher and student roles.")
	}

	if _, err := s.repo.FindByUsername(ctx, req.Username); err == nil {
		return nil, appErrors.Clone(appErrors.ErrExistingEntity, "username already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check username uniqueness")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Username:     strings.ToLower(req.Username),
		FullName:     req.FullName,
		Email:        strings.ToLower(req.Email),
		PasswordHash: string(passwordHash),
		Active:       true,
	}
	roles := &models.UserRoles{
		IsAdmin:   req.Roles.Admin,
		IsTeacher: req.Roles.Teacher,
		IsStudent: req.Roles.Student,
	}

	if err := s.repo.CreateWithRoles(ctx, user, roles); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	newPayload, _ := json.Marshal(map[string]interface{}{"id": user.ID, "username": user.Username, "roles": roles.Flags()})
	if err := s.repo.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     models.AuditActionUserCreate,
		Resource:   "users",
		ResourceID: &user.ID,
		NewValues:  newPayload,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record user create audit log", zap.Error(err))
	}

	resp := models.NewUserResponse(*user)
	flags := roles.Flags()
	resp.Roles = &flags
	return &resp, nil
}

// Update modifies user attributes. An actor cannot deactivate their own
// account.
func (s *UserService) Update(ctx context.Context, actorID, id string, req UpdateUserRequest, meta models.RequestMeta) (*models.UserResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update payload")
	}

	if actorID == id && req.Active != nil && !*req.Active {
		return nil, appErrors.Clone(appErrors.ErrBusinessRule, "You can't deactivate your own account")
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	oldPayload, _ := json.Marshal(map[string]interface{}{"name": user.FullName, "email": user.Email, "active": user.Active})

	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Email != nil {
		user.Email = strings.ToLower(*req.Email)
	}
	if req.Active != nil {
		user.Active = *req.Active
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}

	newPayload, _ := json.Marshal(map[string]interface{}{"name": user.FullName, "email": user.Email, "active": user.Active})
	if err := s.repo.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     models.AuditActionUserUpdate,
		Resource:   "users",
		ResourceID: &user.ID,
		OldValues:  oldPayload,
		NewValues:  newPayload,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record user update audit log", zap.Error(err))
	}

	resp := models.NewUserResponse(*user)
	return &resp, nil
}

// UpdateRoles replaces the role flags of a user. Teacher and student are
// mutually exclusive, and an admin cannot strip their own admin flag. The
// dependent student record follows the transition of the student flag.
func (s *UserService) UpdateRoles(ctx context.Context, actorID, targetID string, req UpdateRolesRequest, meta models.RequestMeta) (*models.RoleFlags, error) {
	if req.Teacher && req.Student {
		return nil, appErrors.Clone(appErrors.ErrBusinessRule, "An user can't have both teacher and student roles.")
	}

	current, err := s.repo.FindRolesByUserID(ctx, targetID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roles")
	}

	if actorID == targetID && current.IsAdmin && !req.Admin {
		return nil, appErrors.Clone(appErrors.ErrBusinessRule, "The current user can't remove its own admin role.")
	}

	flags := models.RoleFlags{Admin: req.Admin, Teacher: req.Teacher, Student: req.Student}
	if err := s.repo.UpdateRoles(ctx, targetID, flags); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update roles")
	}

	oldPayload, _ := json.Marshal(current.Flags())
	newPayload, _ := json.Marshal(flags)
	if err := s.repo.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     models.AuditActionRolesUpdate,
		Resource:   "user_roles",
		ResourceID: &targetID,
		OldValues:  oldPayload,
		NewValues:  newPayload,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record roles update audit log", zap.Error(err))
	}

	return &flags, nil
}

// paginationFor normalizes the requested window against the matched total.
// Pages are zero-indexed and the size defaults to 10, capped at 100.
func paginationFor(page, size, total int) *models.Pagination {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = 10
	}
	if size > 100 {
		size = 100
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}
