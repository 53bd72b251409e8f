package dto

import (
	"github.com/shopspring/decimal"

	"github.com/yigit/studentgrades/internal/app/models"
)

// ModuleRequest creates or updates a module
type ModuleRequest struct {
	Name        string `json:"name" binding:"required,max=150"`
	Course      string `json:"course" binding:"max=50"`
	WeeklyHours int    `json:"weeklyHours" binding:"min=0,max=60"`
}

// AssignTeacherRequest assigns a teacher to a module
type AssignTeacherRequest struct {
	TeacherID models.TeacherID `json:"teacherId" binding:"required,min=1"`
}

// EnrollRequest enrolls a student in a module
type EnrollRequest struct {
	StudentID models.StudentID `json:"studentId" binding:"required,min=1"`
	ModuleID  models.ModuleID  `json:"moduleId" binding:"required,min=1"`
}

// GradeRequest records or corrects a grade. Value is a decimal string such
// as "7.5".
type GradeRequest struct {
	Value string `json:"value" binding:"required,grade" example:"7.50"`
	Notes string `json:"notes" binding:"max=500" example:"Final exam"`
}

// GradeResponse is a grade with its value fixed to two decimals
type GradeResponse struct {
	ID           models.GradeID      `json:"id" example:"1"`
	EnrollmentID models.EnrollmentID `json:"enrollmentId" example:"1"`
	Value        string              `json:"value" example:"7.50"`
	Notes        string              `json:"notes,omitempty"`
	Passed       bool                `json:"passed" example:"true"`
}

// NewGradeResponse converts a grade
func NewGradeResponse(g *models.Grade) *GradeResponse {
	if g == nil {
		return nil
	}
	return &GradeResponse{
		ID:           g.ID,
		EnrollmentID: g.EnrollmentID,
		Value:        FormatGrade(g.Value),
		Notes:        g.Notes,
		Passed:       g.Passed(),
	}
}

// NewGradeResponses converts a list of grades
func NewGradeResponses(grades []*models.Grade) []*GradeResponse {
	out := make([]*GradeResponse, len(grades))
	for i, g := range grades {
		out[i] = NewGradeResponse(g)
	}
	return out
}

// FormatGrade renders a grade or average with exactly two decimals
func FormatGrade(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// EnrollmentReport summarizes one enrollment and its grades
type EnrollmentReport struct {
	Enrollment *models.Enrollment `json:"enrollment"`
	Student    *models.Student    `json:"student"`
	Module     *models.Module     `json:"module"`
	Grades     []*GradeResponse   `json:"grades"`
	GradeCount int64              `json:"gradeCount" example:"2"`
	Average    string             `json:"average" example:"5.75"`
	Passed     bool               `json:"passed" example:"true"`
	Latest     *GradeResponse     `json:"latest,omitempty"`
	Highest    *GradeResponse     `json:"highest,omitempty"`
	Lowest     *GradeResponse     `json:"lowest,omitempty"`
}

// EnrollmentSummary is one line of a student report
type EnrollmentSummary struct {
	EnrollmentID models.EnrollmentID `json:"enrollmentId" example:"1"`
	Module       *models.Module      `json:"module"`
	GradeCount   int                 `json:"gradeCount" example:"2"`
	Average      string              `json:"average" example:"5.75"`
	Passed       bool                `json:"passed" example:"true"`
}

// StudentReport summarizes a student's enrollments
type StudentReport struct {
	Student        *models.Student      `json:"student"`
	Enrollments    []*EnrollmentSummary `json:"enrollments"`
	OverallAverage string               `json:"overallAverage" example:"6.25"`
}

// ModuleReport summarizes a module
type ModuleReport struct {
	Module       *models.Module    `json:"module"`
	Teachers     []*models.Teacher `json:"teachers"`
	StudentCount int64             `json:"studentCount" example:"25"`
	TeacherCount int64             `json:"teacherCount" example:"2"`
	Average      string            `json:"average" example:"6.10"`
	PassedCount  int64             `json:"passedCount" example:"20"`
	FailedCount  int64             `json:"failedCount" example:"4"`
}
