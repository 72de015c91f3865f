package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/schola-blog/schola-api/internal/service"
	"github.com/schola-blog/schola-api/pkg/response"
)

// TeachingHandler handles teaching level and grade lookup endpoints.
type TeachingHandler struct {
	teaching *service.TeachingService
}

// NewTeachingHandler creates a new teaching handler.
func NewTeachingHandler(teaching *service.TeachingService) *TeachingHandler {
	return &TeachingHandler{teaching: teaching}
}

// ListLevels returns all teaching levels ordered by position.
func (h *TeachingHandler) ListLevels(c *gin.Context) {
	levels, hit, err := h.teaching.ListLevels(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, levels, nil, map[string]interface{}{"cache_hit": hit})
}

// ListGradesByLevel returns the grades of a teaching level ordered by position.
func (h *TeachingHandler) ListGradesByLevel(c *gin.Context) {
	grades, hit, err := h.teaching.ListGradesByLevel(c.Request.Context(), c.Param("teachingLevelId"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, grades, nil, map[string]interface{}{"cache_hit": hit})
}
