package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/schola-blog/schola-api/internal/models"
	"github.com/schola-blog/schola-api/internal/service"
)

type stubAuthRepo struct {
	user  *models.User
	roles *models.UserRoles
}

func (s *stubAuthRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.user, nil
}

func (s *stubAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	return s.user, nil
}

func (s *stubAuthRepo) FindRolesByUserID(ctx context.Context, userID string) (*models.UserRoles, error) {
	return s.roles, nil
}

func (s *stubAuthRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	return nil
}

func (s *stubAuthRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	return nil
}

func newLoginRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hash, err := bcrypt.GenerateFromPassword([]byte("secret-1"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &stubAuthRepo{
		user: &models.User{
			ID:           "user-1",
			Username:     "maria.silva",
			FullName:     "Maria Silva",
			Email:        "maria@escola.example",
			PasswordHash: string(hash),
			Active:       true,
		},
		roles: &models.UserRoles{UserID: "user-1", IsTeacher: true},
	}
	svc := service.NewAuthService(repo, nil, nil, service.AuthConfig{TokenSecret: "test-secret", TokenExpiry: time.Hour})

	r := gin.New()
	r.POST("/user/login", NewAuthHandler(svc).Login)
	return r
}

func TestAuthHandlerLogin(t *testing.T) {
	r := newLoginRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/user/login", strings.NewReader(`{"username":"maria.silva","password":"secret-1"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data struct {
			Token string `json:"token"`
			User  struct {
				Username string `json:"username"`
			} `json:"user"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Data.Token)
	assert.Equal(t, "maria.silva", body.Data.User.Username)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestAuthHandlerLoginWrongPassword(t *testing.T) {
	r := newLoginRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/user/login", strings.NewReader(`{"username":"maria.silva","password":"wrong"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandlerLoginMalformedBody(t *testing.T) {
	r := newLoginRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/user/login", strings.NewReader(`{"username":`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}
