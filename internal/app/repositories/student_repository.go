package repositories

import (
	"context"

	"github.com/Masterminds/squirrel"

	"github.com/yigit/studentgrades/internal/app/models"
	"github.com/yigit/studentgrades/internal/db"
)

var studentTable = table[models.Student, models.StudentID]{
	name:    "students",
	kind:    "student",
	columns: []string{"user_id", "course", "grade_group"},
	getID:   func(s *models.Student) models.StudentID { return s.ID },
	setID:   func(s *models.Student, id models.StudentID) { s.ID = id },
	values: func(s *models.Student) []any {
		return []any{int64(s.UserID), s.Course, s.Group}
	},
	scan: func(sc scanner) (*models.Student, error) {
		var s models.Student
		if err := sc.Scan(&s.ID, &s.UserID, &s.Course, &s.Group); err != nil {
			return nil, err
		}
		return &s, nil
	},
	validate: func(s *models.Student) error { return s.Validate() },
	cascade:  cascadeStudent,
}

// StudentRepository handles database operations for student profiles
type StudentRepository struct {
	crudRepository[models.Student, models.StudentID]
	modules     *ModuleRepository
	enrollments *EnrollmentRepository
}

// NewStudentRepository creates a new StudentRepository
func NewStudentRepository(database *db.Database) *StudentRepository {
	return &StudentRepository{
		crudRepository: newCRUDRepository(database, studentTable),
		modules:        NewModuleRepository(database),
		enrollments:    NewEnrollmentRepository(database),
	}
}

// FindByUserID retrieves the student profile of a user
func (r *StudentRepository) FindByUserID(ctx context.Context, userID models.UserID) (*models.Student, error) {
	return r.one(ctx, "students.find_by_user_id",
		r.selectQuery().Where(squirrel.Eq{"user_id": int64(userID)}),
		"student for user %d not found", int64(userID))
}

// FindByCourse lists the students of a course
func (r *StudentRepository) FindByCourse(ctx context.Context, course string) ([]*models.Student, error) {
	return r.list(ctx, "students.find_by_course",
		r.selectQuery().Where(squirrel.Eq{"course": course}).OrderBy("students.id"))
}

// FindByGroup lists the students of a group
func (r *StudentRepository) FindByGroup(ctx context.Context, group string) ([]*models.Student, error) {
	return r.list(ctx, "students.find_by_group",
		r.selectQuery().Where(squirrel.Eq{"grade_group": group}).OrderBy("students.id"))
}

// FindByCourseAndGroup lists the students of one group within a course
func (r *StudentRepository) FindByCourseAndGroup(ctx context.Context, course, group string) ([]*models.Student, error) {
	return r.list(ctx, "students.find_by_course_and_group",
		r.selectQuery().
			Where(squirrel.Eq{"course": course, "grade_group": group}).
			OrderBy("students.id"))
}

// FindModules lists the modules a student is enrolled in
func (r *StudentRepository) FindModules(ctx context.Context, studentID models.StudentID) ([]*models.Module, error) {
	return r.modules.FindByStudent(ctx, studentID)
}

// FindEnrollments lists a student's enrollments
func (r *StudentRepository) FindEnrollments(ctx context.Context, studentID models.StudentID) ([]*models.Enrollment, error) {
	return r.enrollments.FindByStudent(ctx, studentID)
}

// FindByModule lists the students enrolled in a module
func (r *StudentRepository) FindByModule(ctx context.Context, moduleID models.ModuleID) ([]*models.Student, error) {
	return r.list(ctx, "students.find_by_module",
		r.selectQuery().
			Join("enrollments ON enrollments.student_id = students.id").
			Where(squirrel.Eq{"enrollments.module_id": int64(moduleID)}).
			OrderBy("students.id"))
}

// IsEnrolledInModule reports whether the student is enrolled in the module
func (r *StudentRepository) IsEnrolledInModule(ctx context.Context, studentID models.StudentID, moduleID models.ModuleID) (bool, error) {
	return r.enrollments.ExistsEnrollment(ctx, studentID, moduleID)
}

// CountModules counts the modules a student is enrolled in
func (r *StudentRepository) CountModules(ctx context.Context, studentID models.StudentID) (int64, error) {
	return r.enrollments.CountByStudent(ctx, studentID)
}

// FindAllCourses lists the distinct student courses, sorted
func (r *StudentRepository) FindAllCourses(ctx context.Context) ([]string, error) {
	return r.column(ctx, "students.find_all_courses",
		r.builder().Select("course").Distinct().From("students").Where("course <> ''").OrderBy("course"))
}

// FindAllGroups lists the distinct student groups, sorted
func (r *StudentRepository) FindAllGroups(ctx context.Context) ([]string, error) {
	return r.column(ctx, "students.find_all_groups",
		r.builder().Select("grade_group").Distinct().From("students").Where("grade_group <> ''").OrderBy("grade_group"))
}
