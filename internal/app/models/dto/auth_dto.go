package dto

import "github.com/yigit/studentgrades/internal/app/models"

// LoginRequest represents login credentials
type LoginRequest struct {
	Username string `json:"username" binding:"required,max=50"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse represents JWT token information
type TokenResponse struct {
	AccessToken string        `json:"accessToken"`
	TokenType   string        `json:"tokenType" example:"Bearer"`
	ExpiresIn   int64         `json:"expiresIn" example:"28800"`
	User        *UserResponse `json:"user"`
}

// RegisterRequest creates a user together with its role profile. Course and
// Group apply to students, Department and Specialty to teachers.
type RegisterRequest struct {
	Username   string          `json:"username" binding:"required,max=50"`
	Password   string          `json:"password" binding:"required,min=6,max=72"`
	FirstName  string          `json:"firstName" binding:"required,max=100"`
	LastName   string          `json:"lastName" binding:"required,max=100"`
	RoleType   models.RoleType `json:"roleType" binding:"required,oneof=TEACHER STUDENT"`
	Course     string          `json:"course" binding:"max=50"`
	Group      string          `json:"group" binding:"max=10"`
	Department string          `json:"department" binding:"max=100"`
	Specialty  string          `json:"specialty" binding:"max=100"`
}

// ChangePasswordRequest represents a password change of the current user
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6,max=72"`
}

// UserResponse is a user with the identifiers of its role profile
type UserResponse struct {
	ID        models.UserID     `json:"id" example:"1"`
	Username  string            `json:"username" example:"ana"`
	FirstName string            `json:"firstName" example:"Ana"`
	LastName  string            `json:"lastName" example:"García"`
	RoleType  models.RoleType   `json:"roleType" example:"STUDENT"`
	StudentID *models.StudentID `json:"studentId,omitempty" example:"1"`
	TeacherID *models.TeacherID `json:"teacherId,omitempty"`
	Student   *models.Student   `json:"student,omitempty"`
	Teacher   *models.Teacher   `json:"teacher,omitempty"`
}

// NewUserResponse builds a UserResponse; either profile may be nil
func NewUserResponse(user *models.User, student *models.Student, teacher *models.Teacher) *UserResponse {
	resp := &UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		RoleType:  user.RoleType,
		Student:   student,
		Teacher:   teacher,
	}
	if student != nil {
		id := student.ID
		resp.StudentID = &id
	}
	if teacher != nil {
		id := teacher.ID
		resp.TeacherID = &id
	}
	return resp
}
