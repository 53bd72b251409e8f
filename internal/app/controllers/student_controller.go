package controllers

import (
	"github.com/gin-gonic/gin"

	appauth "github.com/yigit/studentgrades/internal/app/auth"
	"github.com/yigit/studentgrades/internal/app/models"
	"github.com/yigit/studentgrades/internal/app/services"
	"github.com/yigit/studentgrades/internal/middleware"
	"github.com/yigit/studentgrades/internal/pkg/helpers"
)

// StudentController handles student, teacher and catalogue lookups
type StudentController struct {
	gradebook *services.GradebookService
	authz     *appauth.AuthorizationService
}

// NewStudentController creates a new StudentController
func NewStudentController(gradebook *services.GradebookService, authz *appauth.AuthorizationService) *StudentController {
	return &StudentController{gradebook: gradebook, authz: authz}
}

type studentQuery struct {
	Course string `form:"course" binding:"max=50"`
	Group  string `form:"group" binding:"max=10"`
}

// ListStudents lists students by course and group
func (c *StudentController) ListStudents(ctx *gin.Context) {
	var q studentQuery
	if !middleware.BindQuery(ctx, &q) {
		return
	}
	students, err := c.gradebook.ListStudents(ctx.Request.Context(), q.Course, q.Group)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	page, size := helpers.ParsePaginationParams(ctx)
	ok(ctx, helpers.Paginate(students, page, size), "")
}

// Report summarizes a student's enrollments
// @Summary Student report
// @Description Students may only read their own report
// @Tags reports
// @Produce json
// @Param id path int true "Student ID"
// @Success 200 {object} dto.APIResponse{data=dto.StudentReport}
// @Failure 403 {object} dto.ErrorResponse "Not your report"
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Security BearerAuth
// @Router /students/{id}/report [get]
func (c *StudentController) Report(ctx *gin.Context) {
	id, valid := c.readableStudent(ctx)
	if !valid {
		return
	}
	report, err := c.gradebook.StudentReport(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, report, "")
}

// ListEnrollments lists a student's enrollments
func (c *StudentController) ListEnrollments(ctx *gin.Context) {
	id, valid := c.readableStudent(ctx)
	if !valid {
		return
	}
	enrollments, err := c.gradebook.ListStudentEnrollments(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, enrollments, "")
}

// ListTeachers lists teachers, optionally of one department
func (c *StudentController) ListTeachers(ctx *gin.Context) {
	teachers, err := c.gradebook.ListTeachers(ctx.Request.Context(), ctx.Query("department"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	page, size := helpers.ParsePaginationParams(ctx)
	ok(ctx, helpers.Paginate(teachers, page, size), "")
}

// ListTeacherModules lists the modules a teacher is assigned to
func (c *StudentController) ListTeacherModules(ctx *gin.Context) {
	id, valid := pathID[models.TeacherID](ctx, "id")
	if !valid {
		return
	}
	modules, err := c.gradebook.ListTeacherModules(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, modules, "")
}

// ListCourses lists every known course
func (c *StudentController) ListCourses(ctx *gin.Context) {
	courses, err := c.gradebook.ListCourses(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, courses, "")
}

// ListGroups lists every student group
func (c *StudentController) ListGroups(ctx *gin.Context) {
	groups, err := c.gradebook.ListGroups(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, groups, "")
}

func (c *StudentController) readableStudent(ctx *gin.Context) (models.StudentID, bool) {
	p, authenticated := principal(ctx)
	if !authenticated {
		return 0, false
	}
	id, valid := pathID[models.StudentID](ctx, "id")
	if !valid {
		return 0, false
	}
	if err := c.authz.ValidateStudentAccess(ctx.Request.Context(), p, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return 0, false
	}
	return id, true
}
