package middleware

import (
	"github.com/gin-gonic/gin"

	appErrors "github.com/schola-blog/schola-api/pkg/errors"
	"github.com/schola-blog/schola-api/pkg/response"
)

// Role names accepted by RequireRoles.
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// RequireRoles enforces role-based access for a route. The principal must
// hold at least one of the listed roles. Requirements are attached at
// route registration, so an unlisted route is only as open as its
// middleware chain makes it.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := Principal(c)
		if principal == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		for _, role := range roles {
			switch role {
			case RoleAdmin:
				if principal.IsAdmin() {
					c.Next()
					return
				}
			case RoleTeacher:
				if principal.IsTeacher() {
					c.Next()
					return
				}
			case RoleStudent:
				if principal.IsStudent() {
					c.Next()
					return
				}
			}
		}

		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}
