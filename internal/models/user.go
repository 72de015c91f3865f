package models

import "time"

// User represents an application account stored in the users table.
type User struct {
	ID           string    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	FullName     string    `db:"full_name" json:"full_name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// UserRoles is the 1:1 role-flag record for a user. Teacher and student
// are mutually exclusive; admin may combine with either.
type UserRoles struct {
	ID        string    `db:"id" json:"-"`
	UserID    string    `db:"user_id" json:"user_id"`
	IsAdmin   bool      `db:"is_admin" json:"is_admin"`
	IsTeacher bool      `db:"is_teacher" json:"is_teacher"`
	IsStudent bool      `db:"is_student" json:"is_student"`
	CreatedAt time.Time `db:"created_at" json:"-"`
	UpdatedAt time.Time `db:"updated_at" json:"-"`
}

// RoleFlags is the external representation of a role set.
type RoleFlags struct {
	Admin   bool `json:"admin"`
	Teacher bool `json:"teacher"`
	Student bool `json:"student"`
}

// Flags projects the stored record onto the response shape.
func (r UserRoles) Flags() RoleFlags {
	return RoleFlags{Admin: r.IsAdmin, Teacher: r.IsTeacher, Student: r.IsStudent}
}

// UserWithRoles is a list row joining users with their role record.
type UserWithRoles struct {
	User
	IsAdmin   bool `db:"is_admin"`
	IsTeacher bool `db:"is_teacher"`
	IsStudent bool `db:"is_student"`
}

// UserResponse is the allow-list projection returned by user endpoints.
// Internal fields (password hash, audit timestamps, role-record id) are
// absent by construction.
type UserResponse struct {
	ID       string     `json:"id"`
	Username string     `json:"username"`
	FullName string     `json:"name"`
	Email    string     `json:"email"`
	Active   bool       `json:"active"`
	Roles    *RoleFlags `json:"roles,omitempty"`
}

// NewUserResponse maps a domain user onto its external projection.
func NewUserResponse(u User) UserResponse {
	return UserResponse{
		ID:       u.ID,
		Username: u.Username,
		FullName: u.FullName,
		Email:    u.Email,
		Active:   u.Active,
	}
}

// NewUserWithRolesResponse maps a joined list row including role flags.
func NewUserWithRolesResponse(u UserWithRoles) UserResponse {
	resp := NewUserResponse(u.User)
	resp.Roles = &RoleFlags{Admin: u.IsAdmin, Teacher: u.IsTeacher, Student: u.IsStudent}
	return resp
}

// UserWithPostsResponse carries a user together with their authored posts.
type UserWithPostsResponse struct {
	ID       string         `json:"id"`
	Username string         `json:"username"`
	FullName string         `json:"name"`
	Posts    []PostResponse `json:"posts"`
}

// UserFilter captures filtering criteria for listing users. Nil pointer
// fields mean "no filter", never false.
type UserFilter struct {
	Username  string
	FullName  string
	Email     string
	Active    *bool
	Admin     *bool
	Teacher   *bool
	Student   *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
// Pages are zero-indexed.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
