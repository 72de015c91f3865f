package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/schola-blog/schola-api/internal/models"
	"github.com/schola-blog/schola-api/internal/service"
	appErrors "github.com/schola-blog/schola-api/pkg/errors"
	"github.com/schola-blog/schola-api/pkg/response"
)

// StudentHandler handles student record endpoints.
type StudentHandler struct {
	students *service.StudentService
}

// NewStudentHandler creates a new student handler.
func NewStudentHandler(students *service.StudentService) *StudentHandler {
	return &StudentHandler{students: students}
}

// List returns student records with pagination and filtering.
func (h *StudentHandler) List(c *gin.Context) {
	var filter models.StudentFilter

	filter.Page, filter.PageSize = pageQuery(c)
	filter.Search = c.Query("search")
	filter.TeachingGradeID = c.Query("teaching_grade_id")
	filter.TeachingLevelID = c.Query("teaching_level_id")
	filter.SortBy = c.Query("sort_by")
	filter.SortOrder = c.Query("sort_order")

	students, pagination, err := h.students.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, students, pagination)
}

// Get returns a single student record by ID.
func (h *StudentHandler) Get(c *gin.Context) {
	student, err := h.students.Get(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, student, nil)
}

// Update assigns or clears the student's teaching grade.
func (h *StudentHandler) Update(c *gin.Context) {
	var req models.UpdateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	student, err := h.students.Update(c.Request.Context(), c.Param("studentId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, student, nil)
}
