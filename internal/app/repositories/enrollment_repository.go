package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"

	"github.com/yigit/studentgrades/internal/app/models"
	"github.com/yigit/studentgrades/internal/db"
	"github.com/yigit/studentgrades/internal/pkg/apperrors"
)

var enrollmentTable = table[models.Enrollment, models.EnrollmentID]{
	name:    "enrollments",
	kind:    "enrollment",
	columns: []string{"student_id", "module_id"},
	getID:   func(e *models.Enrollment) models.EnrollmentID { return e.ID },
	setID:   func(e *models.Enrollment, id models.EnrollmentID) { e.ID = id },
	values: func(e *models.Enrollment) []any {
		return []any{int64(e.StudentID), int64(e.ModuleID)}
	},
	scan: func(sc scanner) (*models.Enrollment, error) {
		var e models.Enrollment
		if err := sc.Scan(&e.ID, &e.StudentID, &e.ModuleID); err != nil {
			return nil, err
		}
		return &e, nil
	},
	validate: func(e *models.Enrollment) error { return e.Validate() },
	cascade:  cascadeEnrollment,
}

// EnrollmentRepository handles the student to module enrollment lifecycle
type EnrollmentRepository struct {
	crudRepository[models.Enrollment, models.EnrollmentID]
	grades *GradeRepository
}

// NewEnrollmentRepository creates a new EnrollmentRepository
func NewEnrollmentRepository(database *db.Database) *EnrollmentRepository {
	return &EnrollmentRepository{
		crudRepository: newCRUDRepository(database, enrollmentTable),
		grades:         NewGradeRepository(database),
	}
}

func pairOf(studentID models.StudentID, moduleID models.ModuleID) squirrel.Eq {
	return squirrel.Eq{"enrollments.student_id": int64(studentID), "enrollments.module_id": int64(moduleID)}
}

// FindByStudentAndModule retrieves the enrollment of a student in a module
func (r *EnrollmentRepository) FindByStudentAndModule(ctx context.Context, studentID models.StudentID, moduleID models.ModuleID) (*models.Enrollment, error) {
	return r.one(ctx, "enrollments.find_by_student_and_module",
		r.selectQuery().Where(pairOf(studentID, moduleID)),
		"student %d is not enrolled in module %d", int64(studentID), int64(moduleID))
}

// FindByStudent lists a student's enrollments
func (r *EnrollmentRepository) FindByStudent(ctx context.Context, studentID models.StudentID) ([]*models.Enrollment, error) {
	return r.list(ctx, "enrollments.find_by_student",
		r.selectQuery().Where(squirrel.Eq{"enrollments.student_id": int64(studentID)}).OrderBy("enrollments.id"))
}

// FindByModule lists a module's enrollments
func (r *EnrollmentRepository) FindByModule(ctx context.Context, moduleID models.ModuleID) ([]*models.Enrollment, error) {
	return r.list(ctx, "enrollments.find_by_module",
		r.selectQuery().Where(squirrel.Eq{"enrollments.module_id": int64(moduleID)}).OrderBy("enrollments.id"))
}

// FindGrades lists the grades of an enrollment, newest first
func (r *EnrollmentRepository) FindGrades(ctx context.Context, enrollmentID models.EnrollmentID) ([]*models.Grade, error) {
	return r.grades.FindByEnrollment(ctx, enrollmentID)
}

// ExistsEnrollment reports whether the student is enrolled in the module
func (r *EnrollmentRepository) ExistsEnrollment(ctx context.Context, studentID models.StudentID, moduleID models.ModuleID) (bool, error) {
	return r.existsWhere(ctx, "enrollments.exists", "enrollments", pairOf(studentID, moduleID))
}

// EnrollStudent enrolls a student in a module. A missing student or module
// is NotFound; an existing enrollment of the pair is a ConstraintViolation.
func (r *EnrollmentRepository) EnrollStudent(ctx context.Context, studentID models.StudentID, moduleID models.ModuleID) (*models.Enrollment, error) {
	const op = "enrollments.enroll"
	enrollment := models.NewEnrollment(studentID, moduleID)
	if err := r.validate(op, enrollment); err != nil {
		return nil, err
	}

	err := r.db.RunInTransaction(ctx, op, func(ctx context.Context, q db.Querier) error {
		if err := requireRow(ctx, q, r.builder(), op, "students", "student", int64(studentID)); err != nil {
			return err
		}
		if err := requireRow(ctx, q, r.builder(), op, "modules", "module", int64(moduleID)); err != nil {
			return err
		}
		return r.insert(ctx, q, enrollment)
	})
	r.logFailure(op, err)
	if err != nil {
		return nil, err
	}

	r.logger.Info().
		Int64("studentID", int64(studentID)).
		Int64("moduleID", int64(moduleID)).
		Int64("enrollmentID", int64(enrollment.ID)).
		Msg("Student enrolled")
	return enrollment, nil
}

// UnenrollStudent removes the student's enrollment in the module together
// with its grades. Unenrolling a pair that is not enrolled is a no-op.
func (r *EnrollmentRepository) UnenrollStudent(ctx context.Context, studentID models.StudentID, moduleID models.ModuleID) error {
	const op = "enrollments.unenroll"
	err := r.db.RunInTransaction(ctx, op, func(ctx context.Context, q db.Querier) error {
		enrollment, err := r.queryOne(ctx, q, r.selectQuery().Where(pairOf(studentID, moduleID)))
		if err != nil || enrollment == nil {
			return err
		}
		return r.deleteByID(ctx, q, enrollment.ID)
	})
	r.logFailure(op, err)
	return err
}

// FindByStudentWithGrades lists a student's enrollments, each carrying its
// grades newest first
func (r *EnrollmentRepository) FindByStudentWithGrades(ctx context.Context, studentID models.StudentID) ([]*models.EnrollmentWithGrades, error) {
	const op = "enrollments.find_by_student_with_grades"
	out, err := db.Read(ctx, r.db, op, func(ctx context.Context, q db.Querier) ([]*models.EnrollmentWithGrades, error) {
		enrollments, err := r.queryList(ctx, q,
			r.selectQuery().Where(squirrel.Eq{"enrollments.student_id": int64(studentID)}).OrderBy("enrollments.id"))
		if err != nil {
			return nil, err
		}
		return r.attachGrades(ctx, q, enrollments)
	})
	r.logFailure(op, err)
	return out, err
}

// FindByIDWithGrades retrieves an enrollment with its grades newest first
func (r *EnrollmentRepository) FindByIDWithGrades(ctx context.Context, id models.EnrollmentID) (*models.EnrollmentWithGrades, error) {
	const op = "enrollments.find_by_id_with_grades"
	out, err := db.Read(ctx, r.db, op, func(ctx context.Context, q db.Querier) (*models.EnrollmentWithGrades, error) {
		enrollment, err := r.queryOne(ctx, q, r.selectQuery().Where(squirrel.Eq{"enrollments.id": int64(id)}))
		if err != nil {
			return nil, err
		}
		if enrollment == nil {
			return nil, apperrors.NotFound(op, "enrollment %d not found", int64(id))
		}
		loaded, err := r.attachGrades(ctx, q, []*models.Enrollment{enrollment})
		if err != nil {
			return nil, err
		}
		return loaded[0], nil
	})
	r.logFailure(op, err)
	return out, err
}

// attachGrades loads the grades of enrollments with one query
func (r *EnrollmentRepository) attachGrades(ctx context.Context, q db.Querier, enrollments []*models.Enrollment) ([]*models.EnrollmentWithGrades, error) {
	out := make([]*models.EnrollmentWithGrades, len(enrollments))
	if len(enrollments) == 0 {
		return out, nil
	}

	ids := make([]int64, len(enrollments))
	byID := make(map[models.EnrollmentID]*models.EnrollmentWithGrades, len(enrollments))
	for i, e := range enrollments {
		ids[i] = int64(e.ID)
		out[i] = &models.EnrollmentWithGrades{Enrollment: *e, Grades: make([]*models.Grade, 0)}
		byID[e.ID] = out[i]
	}

	grades, err := r.grades.queryList(ctx, q,
		r.grades.selectQuery().Where(squirrel.Eq{"grades.enrollment_id": ids}).OrderBy("grades.id DESC"))
	if err != nil {
		return nil, err
	}
	for _, g := range grades {
		owner, ok := byID[g.EnrollmentID]
		if !ok {
			return nil, fmt.Errorf("grade %d belongs to unexpected enrollment %d", g.ID, g.EnrollmentID)
		}
		owner.Grades = append(owner.Grades, g)
	}
	return out, nil
}

// CalculateAverageGrade averages the grades of an enrollment, zero when it has none
func (r *EnrollmentRepository) CalculateAverageGrade(ctx context.Context, enrollmentID models.EnrollmentID) (decimal.Decimal, error) {
	return r.grades.CalculateAverageGrade(ctx, enrollmentID)
}

// CountByStudent counts a student's enrollments
func (r *EnrollmentRepository) CountByStudent(ctx context.Context, studentID models.StudentID) (int64, error) {
	return r.count(ctx, "enrollments.count_by_student",
		r.builder().Select("COUNT(*)").From("enrollments").Where(squirrel.Eq{"student_id": int64(studentID)}))
}

// CountByModule counts a module's enrollments
func (r *EnrollmentRepository) CountByModule(ctx context.Context, moduleID models.ModuleID) (int64, error) {
	return r.count(ctx, "enrollments.count_by_module",
		r.builder().Select("COUNT(*)").From("enrollments").Where(squirrel.Eq{"module_id": int64(moduleID)}))
}
