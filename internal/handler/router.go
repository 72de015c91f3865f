package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/schola-blog/schola-api/internal/middleware"
	"github.com/schola-blog/schola-api/internal/service"
)

// Handlers bundles every HTTP handler registered on the router.
type Handlers struct {
	Auth     *AuthHandler
	User     *UserHandler
	Student  *StudentHandler
	Teaching *TeachingHandler
	Subject  *SubjectHandler
	Post     *PostHandler
	Metrics  *MetricsHandler
}

// Register wires all routes under the configured API prefix. Route groups
// carry their own authentication and role requirements; anything not listed
// here is unreachable.
func Register(r *gin.Engine, prefix string, h Handlers, auth *service.AuthService) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	if h.Metrics != nil {
		r.GET("/metrics", h.Metrics.Prometheus)
	}

	api := r.Group(prefix)

	user := api.Group("/user")
	{
		user.POST("/login", h.Auth.Login)

		authed := user.Group("", middleware.JWT(auth))
		authed.GET("/current", h.User.Current)
		authed.GET("/roles/current", h.User.CurrentRoles)

		admin := user.Group("", middleware.JWT(auth), middleware.RequireRoles(middleware.RoleAdmin))
		admin.POST("", h.User.Create)
		admin.GET("", h.User.List)
		admin.GET("/withPosts", h.User.ListWithPosts)
		admin.GET("/export", h.User.Export)
		admin.GET("/:userId", h.User.Get)
		admin.PATCH("/:userId", h.User.Update)
		admin.PATCH("/password/:userId", h.User.ChangePassword)
		admin.GET("/roles/:userId", h.User.GetRoles)
		admin.PUT("/roles/:userId", h.User.UpdateRoles)
	}

	api.GET("/teachinglevel", h.Teaching.ListLevels)
	api.GET("/teachinggrade/teachinglevel/:teachingLevelId", h.Teaching.ListGradesByLevel)
	api.GET("/subject", h.Subject.List)

	student := api.Group("/student", middleware.JWT(auth), middleware.RequireRoles(middleware.RoleAdmin, middleware.RoleTeacher))
	{
		student.GET("", h.Student.List)
		student.GET("/:studentId", h.Student.Get)
		student.PUT("/:studentId", h.Student.Update)
	}

	post := api.Group("/post")
	{
		post.GET("", middleware.OptionalJWT(auth), h.Post.List)
		post.GET("/:postId", h.Post.Get)

		teacher := post.Group("", middleware.JWT(auth), middleware.RequireRoles(middleware.RoleTeacher))
		teacher.POST("", h.Post.Create)
		teacher.PATCH("/:postId", h.Post.Update)
		teacher.DELETE("/:postId", h.Post.Delete)
	}
}
