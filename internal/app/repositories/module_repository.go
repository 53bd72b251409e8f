package repositories

import (
	"context"

	"github.com/Masterminds/squirrel"

	"github.com/yigit/studentgrades/internal/app/models"
	"github.com/yigit/studentgrades/internal/db"
	"github.com/yigit/studentgrades/internal/pkg/apperrors"
)

var moduleTable = table[models.Module, models.ModuleID]{
	name:    "modules",
	kind:    "module",
	columns: []string{"name", "course", "weekly_hours"},
	getID:   func(m *models.Module) models.ModuleID { return m.ID },
	setID:   func(m *models.Module, id models.ModuleID) { m.ID = id },
	values: func(m *models.Module) []any {
		return []any{m.Name, m.Course, m.WeeklyHours}
	},
	scan: func(sc scanner) (*models.Module, error) {
		var m models.Module
		if err := sc.Scan(&m.ID, &m.Name, &m.Course, &m.WeeklyHours); err != nil {
			return nil, err
		}
		return &m, nil
	},
	validate: func(m *models.Module) error { return m.Validate() },
	cascade:  cascadeModule,
}

// ModuleRepository handles database operations for modules
type ModuleRepository struct {
	crudRepository[models.Module, models.ModuleID]
	teachers crudRepository[models.Teacher, models.TeacherID]
	students crudRepository[models.Student, models.StudentID]
}

// NewModuleRepository creates a new ModuleRepository
func NewModuleRepository(database *db.Database) *ModuleRepository {
	return &ModuleRepository{
		crudRepository: newCRUDRepository(database, moduleTable),
		teachers:       newCRUDRepository(database, teacherTable),
		students:       newCRUDRepository(database, studentTable),
	}
}

// FindByName lists modules whose name contains name, ignoring case
func (r *ModuleRepository) FindByName(ctx context.Context, name string) ([]*models.Module, error) {
	return r.list(ctx, "modules.find_by_name",
		r.selectQuery().
			Where(squirrel.Expr("LOWER(modules.name) LIKE ? ESCAPE '\\'", containsPattern(name))).
			OrderBy("modules.id"))
}

// FindByNameExact retrieves the first module, by id, with exactly this name
func (r *ModuleRepository) FindByNameExact(ctx context.Context, name string) (*models.Module, error) {
	return r.one(ctx, "modules.find_by_name_exact",
		r.selectQuery().Where(squirrel.Eq{"modules.name": name}).OrderBy("modules.id"),
		"module %q not found", name)
}

// FindByCourse lists the modules of a course
func (r *ModuleRepository) FindByCourse(ctx context.Context, course string) ([]*models.Module, error) {
	return r.list(ctx, "modules.find_by_course",
		r.selectQuery().Where(squirrel.Eq{"modules.course": course}).OrderBy("modules.id"))
}

// FindTeachers lists the teachers assigned to a module
func (r *ModuleRepository) FindTeachers(ctx context.Context, moduleID models.ModuleID) ([]*models.Teacher, error) {
	return r.teachers.list(ctx, "modules.find_teachers",
		r.teachers.selectQuery().
			Join("teacher_modules ON teacher_modules.teacher_id = teachers.id").
			Where(squirrel.Eq{"teacher_modules.module_id": int64(moduleID)}).
			OrderBy("teachers.id"))
}

// FindStudents lists the students enrolled in a module
func (r *ModuleRepository) FindStudents(ctx context.Context, moduleID models.ModuleID) ([]*models.Student, error) {
	return r.students.list(ctx, "modules.find_students",
		r.students.selectQuery().
			Join("enrollments ON enrollments.student_id = students.id").
			Where(squirrel.Eq{"enrollments.module_id": int64(moduleID)}).
			OrderBy("students.id"))
}

// CountStudents counts the students enrolled in a module
func (r *ModuleRepository) CountStudents(ctx context.Context, moduleID models.ModuleID) (int64, error) {
	return r.count(ctx, "modules.count_students",
		r.builder().Select("COUNT(*)").From("enrollments").Where(squirrel.Eq{"module_id": int64(moduleID)}))
}

// CountTeachers counts the teachers assigned to a module
func (r *ModuleRepository) CountTeachers(ctx context.Context, moduleID models.ModuleID) (int64, error) {
	return r.count(ctx, "modules.count_teachers",
		r.builder().Select("COUNT(*)").From("teacher_modules").Where(squirrel.Eq{"module_id": int64(moduleID)}))
}

// FindByTeacher lists the modules assigned to a teacher
func (r *ModuleRepository) FindByTeacher(ctx context.Context, teacherID models.TeacherID) ([]*models.Module, error) {
	return r.list(ctx, "modules.find_by_teacher",
		r.selectQuery().
			Join("teacher_modules ON teacher_modules.module_id = modules.id").
			Where(squirrel.Eq{"teacher_modules.teacher_id": int64(teacherID)}).
			OrderBy("modules.id"))
}

// FindByStudent lists the modules a student is enrolled in
func (r *ModuleRepository) FindByStudent(ctx context.Context, studentID models.StudentID) ([]*models.Module, error) {
	return r.list(ctx, "modules.find_by_student",
		r.selectQuery().
			Join("enrollments ON enrollments.module_id = modules.id").
			Where(squirrel.Eq{"enrollments.student_id": int64(studentID)}).
			OrderBy("modules.id"))
}

// FindByWeeklyHoursRange lists modules with min <= weekly hours <= max
func (r *ModuleRepository) FindByWeeklyHoursRange(ctx context.Context, min, max int) ([]*models.Module, error) {
	const op = "modules.find_by_weekly_hours_range"
	if min > max {
		return nil, apperrors.Validation(op, "min %d is greater than max %d", min, max)
	}
	return r.list(ctx, op,
		r.selectQuery().
			Where(squirrel.And{
				squirrel.GtOrEq{"modules.weekly_hours": min},
				squirrel.LtOrEq{"modules.weekly_hours": max},
			}).
			OrderBy("modules.weekly_hours", "modules.id"))
}

// FindAllCourses lists the distinct module courses, sorted
func (r *ModuleRepository) FindAllCourses(ctx context.Context) ([]string, error) {
	return r.column(ctx, "modules.find_all_courses",
		r.builder().Select("course").Distinct().From("modules").Where("course <> ''").OrderBy("course"))
}

// ExistsByName reports whether a module with exactly this name exists
func (r *ModuleRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	return r.existsWhere(ctx, "modules.exists_by_name", "modules", squirrel.Eq{"name": name})
}
