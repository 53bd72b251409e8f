package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yigit/studentgrades/internal/app/controllers"
	"github.com/yigit/studentgrades/internal/app/models"
	"github.com/yigit/studentgrades/internal/app/models/dto"
	"github.com/yigit/studentgrades/internal/middleware"
)

// Pinger reports database reachability for the health endpoint
type Pinger interface {
	Ping(ctx context.Context) error
}

// Controllers groups the handlers mounted by SetupRouter
type Controllers struct {
	Auth       *controllers.AuthController
	Module     *controllers.ModuleController
	Enrollment *controllers.EnrollmentController
	Student    *controllers.StudentController
}

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, c Controllers, authMiddleware *middleware.AuthMiddleware, db Pinger) {
	middleware.RegisterValidators()

	v1 := router.Group("/api/v1")
	v1.GET("/health", health(db))

	// --- Public Auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/register", c.Auth.Register)
		auth.POST("/login", c.Auth.Login)
	}

	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())

	teacherOnly := authenticated.Group("")
	teacherOnly.Use(authMiddleware.RoleRequired(models.RoleTeacher))

	authenticated.GET("/auth/me", c.Auth.Me)
	authenticated.PUT("/auth/password", c.Auth.ChangePassword)

	// Modules
	authenticated.GET("/modules", c.Module.ListModules)
	authenticated.GET("/modules/:id", c.Module.GetModule)
	authenticated.GET("/modules/:id/teachers", c.Module.ListTeachers)
	authenticated.GET("/modules/:id/report", c.Module.Report)
	teacherOnly.POST("/modules", c.Module.CreateModule)
	teacherOnly.PUT("/modules/:id", c.Module.UpdateModule)
	teacherOnly.DELETE("/modules/:id", c.Module.DeleteModule)
	teacherOnly.GET("/modules/:id/students", c.Module.ListStudents)
	teacherOnly.GET("/modules/:id/grades", c.Module.ListGrades)
	teacherOnly.POST("/modules/:id/teachers", c.Module.AssignTeacher)
	teacherOnly.DELETE("/modules/:id/teachers/:teacherId", c.Module.UnassignTeacher)

	// Students and teachers
	teacherOnly.GET("/students", c.Student.ListStudents)
	authenticated.GET("/students/:id/report", c.Student.Report)
	authenticated.GET("/students/:id/enrollments", c.Student.ListEnrollments)
	authenticated.GET("/teachers", c.Student.ListTeachers)
	authenticated.GET("/teachers/:id/modules", c.Student.ListTeacherModules)
	authenticated.GET("/courses", c.Student.ListCourses)
	teacherOnly.GET("/groups", c.Student.ListGroups)

	// Enrollments and grades
	teacherOnly.POST("/enrollments", c.Enrollment.Enroll)
	teacherOnly.DELETE("/enrollments", c.Enrollment.Unenroll)
	authenticated.GET("/enrollments/:id/report", c.Enrollment.Report)
	authenticated.GET("/enrollments/:id/grades", c.Enrollment.ListGrades)
	teacherOnly.POST("/enrollments/:id/grades", c.Enrollment.AddGrade)
	teacherOnly.GET("/grades", c.Enrollment.GradesInRange)
	teacherOnly.PUT("/grades/:id", c.Enrollment.UpdateGrade)
	teacherOnly.DELETE("/grades/:id", c.Enrollment.DeleteGrade)

	router.NoRoute(func(ctx *gin.Context) {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, "Route not found").
			WithDetails(ctx.Request.Method + " " + ctx.Request.URL.Path)
		ctx.JSON(http.StatusNotFound, dto.NewErrorResponse(errorDetail))
	})
}

func health(db Pinger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(pingCtx); err != nil {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeDatabaseError, "Database unreachable").
				WithSeverity(dto.ErrorSeverityCritical)
			ctx.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse(errorDetail))
			return
		}
		ctx.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{"status": "ok"}, ""))
	}
}
