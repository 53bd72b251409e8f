package seed

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/yigit/studentgrades/internal/app/models"
	appRepos "github.com/yigit/studentgrades/internal/app/repositories"
	"github.com/yigit/studentgrades/internal/pkg/apperrors"
	"github.com/yigit/studentgrades/internal/pkg/auth"
)

// DemoPassword is the password of every seeded account
const DemoPassword = "cambiame123"

type demoStudent struct {
	username, firstName, lastName, course, group string
	grades                                       map[string][]string
}

var (
	demoModules = []*models.Module{
		models.NewModule("Programación", "1DAM", 8),
		models.NewModule("Bases de Datos", "1DAM", 6),
		models.NewModule("Sistemas Informáticos", "1DAM", 5),
	}
	demoStudents = []demoStudent{
		{"alumno1", "Lucía", "Martín", "1DAM", "A", map[string][]string{
			"Programación":   {"7.50", "8.25"},
			"Bases de Datos": {"6.00"},
		}},
		{"alumno2", "Hugo", "Sánchez", "1DAM", "B", map[string][]string{
			"Programación":          {"4.00", "5.50"},
			"Sistemas Informáticos": {"3.75"},
		}},
	}
)

// CreateDefaultData creates a demo teacher, students, modules, enrollments
// and grades. Records that already exist are left untouched.
func CreateDefaultData(ctx context.Context, repos *appRepos.Repositories, lgr zerolog.Logger) error {
	lgr.Info().Msg("Checking/Creating default data (teacher, students, modules)...")
	var finalErr error

	modules := make(map[string]*models.Module, len(demoModules))
	for _, m := range demoModules {
		module, err := ensureModule(ctx, repos, m)
		if err != nil {
			lgr.Error().Err(err).Str("module", m.Name).Msg("Error creating module")
			finalErr = errors.Join(finalErr, err)
			continue
		}
		modules[module.Name] = module
	}

	teacher, err := ensureTeacher(ctx, repos, "profesor", "Carmen", "López", "Informática", "Programación")
	if err != nil {
		lgr.Error().Err(err).Msg("Error creating demo teacher")
		finalErr = errors.Join(finalErr, err)
	} else {
		for _, module := range modules {
			if err := repos.TeacherRepository.AssignModule(ctx, teacher.ID, module.ID); err != nil {
				finalErr = errors.Join(finalErr, err)
			}
		}
	}

	for _, ds := range demoStudents {
		student, created, err := ensureStudent(ctx, repos, ds)
		if err != nil {
			lgr.Error().Err(err).Str("username", ds.username).Msg("Error creating demo student")
			finalErr = errors.Join(finalErr, err)
			continue
		}
		if !created {
			continue
		}
		for name, values := range ds.grades {
			module, ok := modules[name]
			if !ok {
				continue
			}
			if err := enrollWithGrades(ctx, repos, student, module, values); err != nil {
				finalErr = errors.Join(finalErr, err)
			}
		}
	}

	if finalErr == nil {
		lgr.Info().Msg("Default data ready")
	}
	return finalErr
}

func ensureModule(ctx context.Context, repos *appRepos.Repositories, m *models.Module) (*models.Module, error) {
	existing, err := repos.ModuleRepository.FindByNameExact(ctx, m.Name)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	module := models.NewModule(m.Name, m.Course, m.WeeklyHours)
	if err := repos.ModuleRepository.Save(ctx, module); err != nil {
		return nil, err
	}
	return module, nil
}

func ensureTeacher(ctx context.Context, repos *appRepos.Repositories, username, firstName, lastName, department, specialty string) (*models.Teacher, error) {
	user, err := repos.UserRepository.FindByUsername(ctx, username)
	if err == nil {
		return repos.TeacherRepository.FindByUserID(ctx, user.ID)
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(DemoPassword)
	if err != nil {
		return nil, err
	}
	teacher := models.NewTeacher(0, department, specialty)
	err = repos.UserRepository.CreateTeacherAccount(ctx,
		models.NewUser(username, hash, firstName, lastName, models.RoleTeacher), teacher)
	if err != nil {
		return nil, err
	}
	return teacher, nil
}

func ensureStudent(ctx context.Context, repos *appRepos.Repositories, ds demoStudent) (*models.Student, bool, error) {
	taken, err := repos.UserRepository.ExistsUsername(ctx, ds.username)
	if err != nil || taken {
		return nil, false, err
	}

	hash, err := auth.HashPassword(DemoPassword)
	if err != nil {
		return nil, false, err
	}
	student := models.NewStudent(0, ds.course, ds.group)
	err = repos.UserRepository.CreateStudentAccount(ctx,
		models.NewUser(ds.username, hash, ds.firstName, ds.lastName, models.RoleStudent), student)
	if err != nil {
		return nil, false, err
	}
	return student, true, nil
}

func enrollWithGrades(ctx context.Context, repos *appRepos.Repositories, student *models.Student, module *models.Module, values []string) error {
	enrollment, err := repos.EnrollmentRepository.EnrollStudent(ctx, student.ID, module.ID)
	if err != nil {
		return err
	}
	for _, v := range values {
		grade := models.NewGrade(enrollment.ID, decimal.RequireFromString(v), "Demo")
		if err := repos.GradeRepository.Save(ctx, grade); err != nil {
			return err
		}
	}
	return nil
}
