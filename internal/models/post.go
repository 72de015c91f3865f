package models

import "time"

// Post is authored by a teacher and tagged with one subject and one
// teaching grade.
type Post struct {
	ID              string    `db:"id" json:"id"`
	AuthorID        string    `db:"author_id" json:"author_id"`
	SubjectID       string    `db:"subject_id" json:"subject_id"`
	TeachingGradeID string    `db:"teaching_grade_id" json:"teaching_grade_id"`
	Title           string    `db:"title" json:"title"`
	Content         string    `db:"content" json:"content"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// PostDetail is a list row joining posts with author, subject and grade.
type PostDetail struct {
	Post
	AuthorName        string `db:"author_name"`
	SubjectName       string `db:"subject_name"`
	TeachingGradeName string `db:"teaching_grade_name"`
	TeachingLevelID   string `db:"teaching_level_id"`
}

// PostResponse is the allow-list projection for post endpoints.
type PostResponse struct {
	ID            string             `json:"id"`
	Title         string             `json:"title"`
	Content       string             `json:"content"`
	Author        PostAuthor         `json:"author"`
	Subject       Subject            `json:"subject"`
	TeachingGrade TeachingGradeBrief `json:"teaching_grade"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// PostAuthor is the nested author reference on a post.
type PostAuthor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// NewPostResponse maps a joined post row onto its external shape.
func NewPostResponse(d PostDetail) PostResponse {
	return PostResponse{
		ID:      d.ID,
		Title:   d.Title,
		Content: d.Content,
		Author:  PostAuthor{ID: d.AuthorID, Name: d.AuthorName},
		Subject: Subject{ID: d.SubjectID, Name: d.SubjectName},
		TeachingGrade: TeachingGradeBrief{
			ID:              d.TeachingGradeID,
			Name:            d.TeachingGradeName,
			TeachingLevelID: d.TeachingLevelID,
		},
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// PostFilter captures filtering criteria for listing posts. Empty string
// fields mean "no filter".
type PostFilter struct {
	Search          string
	AuthorID        string
	SubjectID       string
	TeachingGradeID string
	TeachingLevelID string
	Page            int
	PageSize        int
	SortBy          string
	SortOrder       string
}

// CreatePostRequest is the payload for authoring a post.
type CreatePostRequest struct {
	Title           string `json:"title" validate:"required,min=3,max=200"`
	Content         string `json:"content" validate:"required"`
	SubjectID       string `json:"subject_id" validate:"required,uuid"`
	TeachingGradeID string `json:"teaching_grade_id" validate:"required,uuid"`
}

// UpdatePostRequest is the partial payload for editing a post.
type UpdatePostRequest struct {
	Title           *string `json:"title" validate:"omitempty,min=3,max=200"`
	Content         *string `json:"content" validate:"omitempty"`
	SubjectID       *string `json:"subject_id" validate:"omitempty,uuid"`
	TeachingGradeID *string `json:"teaching_grade_id" validate:"omitempty,uuid"`
}
