package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/schola-blog/schola-api/internal/service"
	"github.com/schola-blog/schola-api/pkg/response"
)

// SubjectHandler handles subject lookup endpoints.
type SubjectHandler struct {
	subjects *service.SubjectService
}

// NewSubjectHandler creates a new subject handler.
func NewSubjectHandler(subjects *service.SubjectService) *SubjectHandler {
	return &SubjectHandler{subjects: subjects}
}

// List returns all subjects ordered by name.
func (h *SubjectHandler) List(c *gin.Context) {
	subjects, hit, err := h.subjects.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, subjects, nil, map[string]interface{}{"cache_hit": hit})
}
