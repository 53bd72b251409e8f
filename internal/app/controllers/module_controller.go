package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/yigit/studentgrades/internal/app/models"
	"github.com/yigit/studentgrades/internal/app/models/dto"
	"github.com/yigit/studentgrades/internal/app/services"
	"github.com/yigit/studentgrades/internal/middleware"
	"github.com/yigit/studentgrades/internal/pkg/helpers"
)

// ModuleController handles module and teaching assignment endpoints
type ModuleController struct {
	gradebook *services.GradebookService
}

// NewModuleController creates a new ModuleController
func NewModuleController(gradebook *services.GradebookService) *ModuleController {
	return &ModuleController{gradebook: gradebook}
}

type moduleQuery struct {
	Name     string `form:"name" binding:"max=150"`
	Course   string `form:"course" binding:"max=50"`
	MinHours *int   `form:"minHours" binding:"omitempty,min=0"`
	MaxHours *int   `form:"maxHours" binding:"omitempty,min=0"`
}

// ListModules lists modules
// @Summary List modules
// @Description Filters by name fragment, course or weekly hours range
// @Tags modules
// @Produce json
// @Param name query string false "Name contains"
// @Param course query string false "Course"
// @Param minHours query int false "Minimum weekly hours"
// @Param maxHours query int false "Maximum weekly hours"
// @Param page query int false "Page, 1-based"
// @Param size query int false "Page size"
// @Success 200 {object} dto.APIResponse{data=dto.PageResponse}
// @Security BearerAuth
// @Router /modules [get]
func (c *ModuleController) ListModules(ctx *gin.Context) {
	var q moduleQuery
	if !middleware.BindQuery(ctx, &q) {
		return
	}

	modules, err := c.gradebook.ListModules(ctx.Request.Context(), services.ModuleFilter{
		Name:     q.Name,
		Course:   q.Course,
		MinHours: q.MinHours,
		MaxHours: q.MaxHours,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	page, size := helpers.ParsePaginationParams(ctx)
	ok(ctx, helpers.Paginate(modules, page, size), "")
}

// GetModule returns one module
func (c *ModuleController) GetModule(ctx *gin.Context) {
	id, valid := pathID[models.ModuleID](ctx, "id")
	if !valid {
		return
	}
	module, err := c.gradebook.GetModule(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, module, "")
}

// CreateModule creates a module
// @Summary Create a module
// @Tags modules
// @Accept json
// @Produce json
// @Param request body dto.ModuleRequest true "Module"
// @Success 201 {object} dto.APIResponse{data=models.Module}
// @Failure 409 {object} dto.ErrorResponse "Module name already exists"
// @Security BearerAuth
// @Router /modules [post]
func (c *ModuleController) CreateModule(ctx *gin.Context) {
	var req dto.ModuleRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	module, err := c.gradebook.CreateModule(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	created(ctx, module, "Module created successfully")
}

// UpdateModule updates a module
func (c *ModuleController) UpdateModule(ctx *gin.Context) {
	id, valid := pathID[models.ModuleID](ctx, "id")
	if !valid {
		return
	}
	var req dto.ModuleRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	module, err := c.gradebook.UpdateModule(ctx.Request.Context(), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, module, "Module updated successfully")
}

// DeleteModule deletes a module with its enrollments and grades
func (c *ModuleController) DeleteModule(ctx *gin.Context) {
	id, valid := pathID[models.ModuleID](ctx, "id")
	if !valid {
		return
	}
	if err := c.gradebook.DeleteModule(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, nil, "Module deleted successfully")
}

// ListStudents lists the students enrolled in a module
func (c *ModuleController) ListStudents(ctx *gin.Context) {
	id, valid := pathID[models.ModuleID](ctx, "id")
	if !valid {
		return
	}
	students, err := c.gradebook.ListModuleStudents(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, students, "")
}

// ListTeachers lists the teachers assigned to a module
func (c *ModuleController) ListTeachers(ctx *gin.Context) {
	id, valid := pathID[models.ModuleID](ctx, "id")
	if !valid {
		return
	}
	teachers, err := c.gradebook.ListModuleTeachers(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, teachers, "")
}

// AssignTeacher assigns a teacher to a module
func (c *ModuleController) AssignTeacher(ctx *gin.Context) {
	id, valid := pathID[models.ModuleID](ctx, "id")
	if !valid {
		return
	}
	var req dto.AssignTeacherRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	if err := c.gradebook.AssignTeacher(ctx.Request.Context(), id, req.TeacherID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, nil, "Teacher assigned successfully")
}

// UnassignTeacher removes a teaching assignment
func (c *ModuleController) UnassignTeacher(ctx *gin.Context) {
	id, valid := pathID[models.ModuleID](ctx, "id")
	if !valid {
		return
	}
	teacherID, valid := pathID[models.TeacherID](ctx, "teacherId")
	if !valid {
		return
	}
	if err := c.gradebook.UnassignTeacher(ctx.Request.Context(), id, teacherID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, nil, "Teacher unassigned successfully")
}

// ListGrades lists a module's grades, optionally only passed or failed ones
func (c *ModuleController) ListGrades(ctx *gin.Context) {
	id, valid := pathID[models.ModuleID](ctx, "id")
	if !valid {
		return
	}
	grades, err := c.gradebook.ListModuleGrades(ctx.Request.Context(), id, ctx.Query("outcome"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, dto.NewGradeResponses(grades), "")
}

// Report summarizes a module
// @Summary Module report
// @Tags reports
// @Produce json
// @Param id path int true "Module ID"
// @Success 200 {object} dto.APIResponse{data=dto.ModuleReport}
// @Failure 404 {object} dto.ErrorResponse "Module not found"
// @Security BearerAuth
// @Router /modules/{id}/report [get]
func (c *ModuleController) Report(ctx *gin.Context) {
	id, valid := pathID[models.ModuleID](ctx, "id")
	if !valid {
		return
	}
	report, err := c.gradebook.ModuleReport(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, report, "")
}
