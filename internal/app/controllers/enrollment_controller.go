package controllers

import (
	"github.com/gin-gonic/gin"

	appauth "github.com/yigit/studentgrades/internal/app/auth"
	"github.com/yigit/studentgrades/internal/app/models"
	"github.com/yigit/studentgrades/internal/app/models/dto"
	"github.com/yigit/studentgrades/internal/app/services"
	"github.com/yigit/studentgrades/internal/middleware"
)

// EnrollmentController handles enrollments and their grades
type EnrollmentController struct {
	gradebook *services.GradebookService
	authz     *appauth.AuthorizationService
}

// NewEnrollmentController creates a new EnrollmentController
func NewEnrollmentController(gradebook *services.GradebookService, authz *appauth.AuthorizationService) *EnrollmentController {
	return &EnrollmentController{gradebook: gradebook, authz: authz}
}

type unenrollQuery struct {
	StudentID models.StudentID `form:"studentId" binding:"required,min=1"`
	ModuleID  models.ModuleID  `form:"moduleId" binding:"required,min=1"`
}

type gradeRangeQuery struct {
	Min string `form:"min" binding:"required,grade"`
	Max string `form:"max" binding:"required,grade"`
}

// Enroll enrolls a student in a module
// @Summary Enroll a student
// @Tags enrollments
// @Accept json
// @Produce json
// @Param request body dto.EnrollRequest true "Student and module"
// @Success 201 {object} dto.APIResponse{data=models.Enrollment}
// @Failure 404 {object} dto.ErrorResponse "Student or module not found"
// @Failure 409 {object} dto.ErrorResponse "Already enrolled"
// @Security BearerAuth
// @Router /enrollments [post]
func (c *EnrollmentController) Enroll(ctx *gin.Context) {
	var req dto.EnrollRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	enrollment, err := c.gradebook.Enroll(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	created(ctx, enrollment, "Student enrolled successfully")
}

// Unenroll removes the enrollment of a student in a module
func (c *EnrollmentController) Unenroll(ctx *gin.Context) {
	var q unenrollQuery
	if !middleware.BindQuery(ctx, &q) {
		return
	}
	if err := c.gradebook.Unenroll(ctx.Request.Context(), q.StudentID, q.ModuleID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, nil, "Student unenrolled successfully")
}

// Report summarizes one enrollment
// @Summary Enrollment report
// @Description Students may only read their own enrollments
// @Tags reports
// @Produce json
// @Param id path int true "Enrollment ID"
// @Success 200 {object} dto.APIResponse{data=dto.EnrollmentReport}
// @Failure 403 {object} dto.ErrorResponse "Not your enrollment"
// @Failure 404 {object} dto.ErrorResponse "Enrollment not found"
// @Security BearerAuth
// @Router /enrollments/{id}/report [get]
func (c *EnrollmentController) Report(ctx *gin.Context) {
	id, valid := c.readableEnrollment(ctx)
	if !valid {
		return
	}
	report, err := c.gradebook.EnrollmentReport(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, report, "")
}

// ListGrades lists an enrollment's grades, newest first
func (c *EnrollmentController) ListGrades(ctx *gin.Context) {
	id, valid := c.readableEnrollment(ctx)
	if !valid {
		return
	}
	grades, err := c.gradebook.ListGrades(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, dto.NewGradeResponses(grades), "")
}

// AddGrade records a grade; only teachers of the module may grade
func (c *EnrollmentController) AddGrade(ctx *gin.Context) {
	p, authenticated := principal(ctx)
	if !authenticated {
		return
	}
	id, valid := pathID[models.EnrollmentID](ctx, "id")
	if !valid {
		return
	}
	var req dto.GradeRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	if err := c.authz.ValidateGradeEnrollment(ctx.Request.Context(), p, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	grade, err := c.gradebook.AddGrade(ctx.Request.Context(), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	created(ctx, dto.NewGradeResponse(grade), "Grade recorded successfully")
}

// UpdateGrade corrects a grade
func (c *EnrollmentController) UpdateGrade(ctx *gin.Context) {
	id, valid := c.ownedGrade(ctx)
	if !valid {
		return
	}
	var req dto.GradeRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	grade, err := c.gradebook.UpdateGrade(ctx.Request.Context(), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, dto.NewGradeResponse(grade), "Grade updated successfully")
}

// DeleteGrade deletes a grade
func (c *EnrollmentController) DeleteGrade(ctx *gin.Context) {
	id, valid := c.ownedGrade(ctx)
	if !valid {
		return
	}
	if err := c.gradebook.DeleteGrade(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, nil, "Grade deleted successfully")
}

// GradesInRange lists grades whose value lies within [min, max]
func (c *EnrollmentController) GradesInRange(ctx *gin.Context) {
	var q gradeRangeQuery
	if !middleware.BindQuery(ctx, &q) {
		return
	}
	grades, err := c.gradebook.ListGradesInRange(ctx.Request.Context(), q.Min, q.Max)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, dto.NewGradeResponses(grades), "")
}

func (c *EnrollmentController) readableEnrollment(ctx *gin.Context) (models.EnrollmentID, bool) {
	p, authenticated := principal(ctx)
	if !authenticated {
		return 0, false
	}
	id, valid := pathID[models.EnrollmentID](ctx, "id")
	if !valid {
		return 0, false
	}
	if err := c.authz.ValidateEnrollmentAccess(ctx.Request.Context(), p, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return 0, false
	}
	return id, true
}

func (c *EnrollmentController) ownedGrade(ctx *gin.Context) (models.GradeID, bool) {
	p, authenticated := principal(ctx)
	if !authenticated {
		return 0, false
	}
	id, valid := pathID[models.GradeID](ctx, "id")
	if !valid {
		return 0, false
	}
	if err := c.authz.ValidateGradeOwnership(ctx.Request.Context(), p, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return 0, false
	}
	return id, true
}
