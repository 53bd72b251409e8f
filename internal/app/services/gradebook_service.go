package services

import (
	"context"
	"math"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"github.com/yigit/studentgrades/internal/app/models"
	"github.com/yigit/studentgrades/internal/app/models/dto"
	"github.com/yigit/studentgrades/internal/app/repositories"
	"github.com/yigit/studentgrades/internal/pkg/apperrors"
)

// GradebookService handles modules, teaching assignments, enrollments and grades
type GradebookService struct {
	studentRepo    *repositories.StudentRepository
	teacherRepo    *repositories.TeacherRepository
	moduleRepo     *repositories.ModuleRepository
	enrollmentRepo *repositories.EnrollmentRepository
	gradeRepo      *repositories.GradeRepository
	logger         zerolog.Logger
}

// NewGradebookService creates a new GradebookService
func NewGradebookService(repos *repositories.Repositories, logger zerolog.Logger) *GradebookService {
	return &GradebookService{
		studentRepo:    repos.StudentRepository,
		teacherRepo:    repos.TeacherRepository,
		moduleRepo:     repos.ModuleRepository,
		enrollmentRepo: repos.EnrollmentRepository,
		gradeRepo:      repos.GradeRepository,
		logger:         logger,
	}
}

// ModuleFilter narrows ListModules. Name wins over Course when both are set.
type ModuleFilter struct {
	Name     string
	Course   string
	MinHours *int
	MaxHours *int
}

// ListModules returns the modules matching filter
func (s *GradebookService) ListModules(ctx context.Context, filter ModuleFilter) ([]*models.Module, error) {
	switch {
	case strings.TrimSpace(filter.Name) != "":
		return s.moduleRepo.FindByName(ctx, strings.TrimSpace(filter.Name))
	case strings.TrimSpace(filter.Course) != "":
		return s.moduleRepo.FindByCourse(ctx, strings.TrimSpace(filter.Course))
	case filter.MinHours != nil || filter.MaxHours != nil:
		lo, hi := 0, math.MaxInt32
		if filter.MinHours != nil {
			lo = *filter.MinHours
		}
		if filter.MaxHours != nil {
			hi = *filter.MaxHours
		}
		return s.moduleRepo.FindByWeeklyHoursRange(ctx, lo, hi)
	default:
		return s.moduleRepo.FindAll(ctx)
	}
}

// ListCourses returns every course that has modules or students
func (s *GradebookService) ListCourses(ctx context.Context) ([]string, error) {
	moduleCourses, err := s.moduleRepo.FindAllCourses(ctx)
	if err != nil {
		return nil, err
	}
	studentCourses, err := s.studentRepo.FindAllCourses(ctx)
	if err != nil {
		return nil, err
	}
	return mergeCourses(moduleCourses, studentCourses), nil
}

// ListGroups returns every student group
func (s *GradebookService) ListGroups(ctx context.Context) ([]string, error) {
	return s.studentRepo.FindAllGroups(ctx)
}

// GetModule returns a module by id
func (s *GradebookService) GetModule(ctx context.Context, id models.ModuleID) (*models.Module, error) {
	return s.moduleRepo.FindByID(ctx, id)
}

// CreateModule stores a new module; module names are unique
func (s *GradebookService) CreateModule(ctx context.Context, req *dto.ModuleRequest) (*models.Module, error) {
	name := strings.TrimSpace(req.Name)
	taken, err := s.moduleRepo.ExistsByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperrors.Conflict("modules.create", "module %q already exists", name)
	}

	module := models.NewModule(name, strings.TrimSpace(req.Course), req.WeeklyHours)
	if err := s.moduleRepo.Save(ctx, module); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("moduleID", int64(module.ID)).Str("name", module.Name).Msg("Module created")
	return module, nil
}

// UpdateModule rewrites a module's fields
func (s *GradebookService) UpdateModule(ctx context.Context, id models.ModuleID, req *dto.ModuleRequest) (*models.Module, error) {
	module, err := s.moduleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name != module.Name {
		taken, err := s.moduleRepo.ExistsByName(ctx, name)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, apperrors.Conflict("modules.update", "module %q already exists", name)
		}
	}

	module.Name = name
	module.Course = strings.TrimSpace(req.Course)
	module.WeeklyHours = req.WeeklyHours
	if err := s.moduleRepo.Update(ctx, module); err != nil {
		return nil, err
	}
	return module, nil
}

// DeleteModule removes a module with its assignments, enrollments and grades
func (s *GradebookService) DeleteModule(ctx context.Context, id models.ModuleID) error {
	if err := s.requireModule(ctx, "modules.delete", id); err != nil {
		return err
	}
	if err := s.moduleRepo.DeleteByID(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("moduleID", int64(id)).Msg("Module deleted")
	return nil
}

// ListModuleStudents returns the students enrolled in a module
func (s *GradebookService) ListModuleStudents(ctx context.Context, id models.ModuleID) ([]*models.Student, error) {
	if err := s.requireModule(ctx, "modules.students", id); err != nil {
		return nil, err
	}
	return s.moduleRepo.FindStudents(ctx, id)
}

// ListModuleTeachers returns the teachers assigned to a module
func (s *GradebookService) ListModuleTeachers(ctx context.Context, id models.ModuleID) ([]*models.Teacher, error) {
	if err := s.requireModule(ctx, "modules.teachers", id); err != nil {
		return nil, err
	}
	return s.moduleRepo.FindTeachers(ctx, id)
}

// AssignTeacher assigns a teacher to a module; repeating it is harmless
func (s *GradebookService) AssignTeacher(ctx context.Context, moduleID models.ModuleID, teacherID models.TeacherID) error {
	if err := s.teacherRepo.AssignModule(ctx, teacherID, moduleID); err != nil {
		return err
	}
	s.logger.Info().Int64("teacherID", int64(teacherID)).Int64("moduleID", int64(moduleID)).Msg("Teacher assigned to module")
	return nil
}

// UnassignTeacher removes a teaching assignment if present
func (s *GradebookService) UnassignTeacher(ctx context.Context, moduleID models.ModuleID, teacherID models.TeacherID) error {
	return s.teacherRepo.UnassignModule(ctx, teacherID, moduleID)
}

// ListStudents returns students, optionally narrowed to a course and group
func (s *GradebookService) ListStudents(ctx context.Context, course, group string) ([]*models.Student, error) {
	course, group = strings.TrimSpace(course), strings.TrimSpace(group)
	switch {
	case course != "" && group != "":
		return s.studentRepo.FindByCourseAndGroup(ctx, course, group)
	case course != "":
		return s.studentRepo.FindByCourse(ctx, course)
	case group != "":
		return s.studentRepo.FindByGroup(ctx, group)
	default:
		return s.studentRepo.FindAll(ctx)
	}
}

// ListTeachers returns teachers, optionally narrowed to a department
func (s *GradebookService) ListTeachers(ctx context.Context, department string) ([]*models.Teacher, error) {
	if department = strings.TrimSpace(department); department != "" {
		return s.teacherRepo.FindByDepartment(ctx, department)
	}
	return s.teacherRepo.FindAll(ctx)
}

// ListTeacherModules returns the modules a teacher is assigned to
func (s *GradebookService) ListTeacherModules(ctx context.Context, id models.TeacherID) ([]*models.Module, error) {
	exists, err := s.teacherRepo.ExistsByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperrors.NotFound("teachers.modules", "teacher %d not found", int64(id))
	}
	return s.teacherRepo.FindModules(ctx, id)
}

func (s *GradebookService) requireModule(ctx context.Context, op string, id models.ModuleID) error {
	exists, err := s.moduleRepo.ExistsByID(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return apperrors.NotFound(op, "module %d not found", int64(id))
	}
	return nil
}

// mergeCourses unions two course lists in byte order. The inputs may come
// sorted by a database collation that disagrees with Go's ordering.
func mergeCourses(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	out = append(append(out, a...), b...)
	slices.Sort(out)
	return slices.Compact(out)
}
