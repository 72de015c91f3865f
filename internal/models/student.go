package models

import "time"

// Student is the 1:1 side-record of a user holding the student role. It is
// created and removed by role transitions, never directly by clients.
type Student struct {
	ID              string    `db:"id" json:"id"`
	UserID          string    `db:"user_id" json:"user_id"`
	TeachingGradeID *string   `db:"teaching_grade_id" json:"teaching_grade_id,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"-"`
	UpdatedAt       time.Time `db:"updated_at" json:"-"`
}

// StudentDetail is a list row joining students with their user and grade.
type StudentDetail struct {
	Student
	Username          string  `db:"username"`
	FullName          string  `db:"full_name"`
	TeachingGradeName *string `db:"teaching_grade_name"`
	TeachingLevelID   *string `db:"teaching_level_id"`
}

// StudentResponse is the allow-list projection for student endpoints.
type StudentResponse struct {
	ID            string              `json:"id"`
	UserID        string              `json:"user_id"`
	Username      string              `json:"username"`
	FullName      string              `json:"name"`
	TeachingGrade *TeachingGradeBrief `json:"teaching_grade,omitempty"`
}

// TeachingGradeBrief is the nested grade reference on a student.
type TeachingGradeBrief struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	TeachingLevelID string `json:"teaching_level_id"`
}

// NewStudentResponse maps a joined student row onto its external shape.
func NewStudentResponse(d StudentDetail) StudentResponse {
	resp := StudentResponse{
		ID:       d.ID,
		UserID:   d.UserID,
		Username: d.Username,
		FullName: d.FullName,
	}
	if d.TeachingGradeID != nil && d.TeachingGradeName != nil && d.TeachingLevelID != nil {
		resp.TeachingGrade = &TeachingGradeBrief{
			ID:              *d.TeachingGradeID,
			Name:            *d.TeachingGradeName,
			TeachingLevelID: *d.TeachingLevelID,
		}
	}
	return resp
}

// StudentFilter captures filtering criteria for listing students.
type StudentFilter struct {
	Search          string
	TeachingGradeID string
	TeachingLevelID string
	Page            int
	PageSize        int
	SortBy          string
	SortOrder       string
}

// UpdateStudentRequest assigns or clears the student's teaching grade.
type UpdateStudentRequest struct {
	TeachingGradeID *string `json:"teaching_grade_id" validate:"omitempty,uuid"`
}
