package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/schola-blog/schola-api/internal/models"
	"github.com/schola-blog/schola-api/internal/service"
)

type stubUserRepo struct {
	user  *models.User
	roles *models.UserRoles
}

func (s *stubUserRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.user, nil
}

func (s *stubUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	return s.user, nil
}

func (s *stubUserRepo) FindRolesByUserID(ctx context.Context, userID string) (*models.UserRoles, error) {
	return s.roles, nil
}

func (s *stubUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	return nil
}

func (s *stubUserRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	return nil
}

func newTestAuth(t *testing.T, roles models.UserRoles) (*service.AuthService, string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret-1"), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		ID:           "user-1",
		Username:     "maria.silva",
		PasswordHash: string(hash),
		Active:       true,
	}
	roles.UserID = user.ID
	svc := service.NewAuthService(&stubUserRepo{user: user, roles: &roles}, nil, nil, service.AuthConfig{
		TokenSecret: "test-secret",
		TokenExpiry: time.Hour,
	})

	resp, err := svc.Login(context.Background(), models.LoginRequest{Username: "maria.silva", Password: "secret-1"})
	require.NoError(t, err)
	return svc, resp.Token
}

func protectedRouter(mw gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", mw, func(c *gin.Context) {
		principal := Principal(c)
		if principal == nil {
			c.JSON(http.StatusOK, gin.H{"anonymous": true})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": principal.User.ID})
	})
	return r
}

func TestJWTMiddlewareAcceptsValidToken(t *testing.T) {
	svc, token := newTestAuth(t, models.UserRoles{IsTeacher: true})
	r := protectedRouter(JWT(svc))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "user-1")
}

func TestJWTMiddlewareRejectsMissingHeader(t *testing.T) {
	svc, _ := newTestAuth(t, models.UserRoles{})
	r := protectedRouter(JWT(svc))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTMiddlewareRejectsMalformedHeader(t *testing.T) {
	svc, token := newTestAuth(t, models.UserRoles{})
	r := protectedRouter(JWT(svc))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Token "+token)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTMiddlewareRejectsTamperedToken(t *testing.T) {
	svc, token := newTestAuth(t, models.UserRoles{})
	r := protectedRouter(JWT(svc))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token+"x")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOptionalJWTAllowsAnonymous(t *testing.T) {
	svc, _ := newTestAuth(t, models.UserRoles{})
	r := protectedRouter(OptionalJWT(svc))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "anonymous")
}

func TestOptionalJWTAttachesPrincipal(t *testing.T) {
	svc, token := newTestAuth(t, models.UserRoles{IsStudent: true})
	r := protectedRouter(OptionalJWT(svc))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "user-1")
}

func TestOptionalJWTRejectsInvalidToken(t *testing.T) {
	svc, _ := newTestAuth(t, models.UserRoles{})
	r := protectedRouter(OptionalJWT(svc))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}
