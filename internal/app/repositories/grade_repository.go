package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"

	"github.com/yigit/studentgrades/internal/app/models"
	"github.com/yigit/studentgrades/internal/db"
	"github.com/yigit/studentgrades/internal/pkg/apperrors"
)

// passingHundredths is models.PassingGrade in stored units
var passingHundredths = models.ToHundredths(models.PassingGrade)

var gradeTable = table[models.Grade, models.GradeID]{
	name:    "grades",
	kind:    "grade",
	columns: []string{"enrollment_id", "value_hundredths", "notes"},
	getID:   func(g *models.Grade) models.GradeID { return g.ID },
	setID:   func(g *models.Grade, id models.GradeID) { g.ID = id },
	values: func(g *models.Grade) []any {
		notes := sql.NullString{String: g.Notes, Valid: g.Notes != ""}
		return []any{int64(g.EnrollmentID), models.ToHundredths(g.Value), notes}
	},
	scan: func(sc scanner) (*models.Grade, error) {
		var g models.Grade
		var hundredths int64
		var notes sql.NullString
		if err := sc.Scan(&g.ID, &g.EnrollmentID, &hundredths, &notes); err != nil {
			return nil, err
		}
		g.Value = models.FromHundredths(hundredths)
		g.Notes = notes.String
		return &g, nil
	},
	validate: func(g *models.Grade) error { return g.Validate() },
}

// GradeRepository handles database operations and statistics for grades
type GradeRepository struct {
	crudRepository[models.Grade, models.GradeID]
}

// NewGradeRepository creates a new GradeRepository
func NewGradeRepository(database *db.Database) *GradeRepository {
	return &GradeRepository{newCRUDRepository(database, gradeTable)}
}

// byModule selects the grades of every enrollment in a module
func (r *GradeRepository) byModule(moduleID models.ModuleID) squirrel.SelectBuilder {
	return r.selectQuery().
		Join("enrollments ON enrollments.id = grades.enrollment_id").
		Where(squirrel.Eq{"enrollments.module_id": int64(moduleID)})
}

// FindByEnrollment lists the grades of an enrollment, newest first
func (r *GradeRepository) FindByEnrollment(ctx context.Context, enrollmentID models.EnrollmentID) ([]*models.Grade, error) {
	return r.list(ctx, "grades.find_by_enrollment",
		r.selectQuery().Where(squirrel.Eq{"grades.enrollment_id": int64(enrollmentID)}).OrderBy("grades.id DESC"))
}

// FindByStudent lists every grade of a student, newest first
func (r *GradeRepository) FindByStudent(ctx context.Context, studentID models.StudentID) ([]*models.Grade, error) {
	return r.list(ctx, "grades.find_by_student",
		r.selectQuery().
			Join("enrollments ON enrollments.id = grades.enrollment_id").
			Where(squirrel.Eq{"enrollments.student_id": int64(studentID)}).
			OrderBy("grades.id DESC"))
}

// FindByModule lists every grade given in a module, newest first
func (r *GradeRepository) FindByModule(ctx context.Context, moduleID models.ModuleID) ([]*models.Grade, error) {
	return r.list(ctx, "grades.find_by_module", r.byModule(moduleID).OrderBy("grades.id DESC"))
}

// CalculateAverageGrade averages the grades of an enrollment, zero when it has none
func (r *GradeRepository) CalculateAverageGrade(ctx context.Context, enrollmentID models.EnrollmentID) (decimal.Decimal, error) {
	return r.average(ctx, "grades.average_by_enrollment",
		r.averageQuery().Where(squirrel.Eq{"grades.enrollment_id": int64(enrollmentID)}))
}

// CalculateOverallAverageByStudent averages every grade of a student across
// all enrollments, zero when there are none
func (r *GradeRepository) CalculateOverallAverageByStudent(ctx context.Context, studentID models.StudentID) (decimal.Decimal, error) {
	return r.average(ctx, "grades.average_by_student",
		r.averageQuery().
			Join("enrollments ON enrollments.id = grades.enrollment_id").
			Where(squirrel.Eq{"enrollments.student_id": int64(studentID)}))
}

// CalculateAverageByModule averages every grade given in a module, zero when
// there are none
func (r *GradeRepository) CalculateAverageByModule(ctx context.Context, moduleID models.ModuleID) (decimal.Decimal, error) {
	return r.average(ctx, "grades.average_by_module",
		r.averageQuery().
			Join("enrollments ON enrollments.id = grades.enrollment_id").
			Where(squirrel.Eq{"enrollments.module_id": int64(moduleID)}))
}

// FindLatestGrade returns the most recently recorded grade of an enrollment
func (r *GradeRepository) FindLatestGrade(ctx context.Context, enrollmentID models.EnrollmentID) (*models.Grade, error) {
	return r.firstOfEnrollment(ctx, "grades.find_latest", enrollmentID, "grades.id DESC")
}

// FindHighestGrade returns the best grade of an enrollment, earliest on ties
func (r *GradeRepository) FindHighestGrade(ctx context.Context, enrollmentID models.EnrollmentID) (*models.Grade, error) {
	return r.firstOfEnrollment(ctx, "grades.find_highest", enrollmentID, "grades.value_hundredths DESC", "grades.id ASC")
}

// FindLowestGrade returns the worst grade of an enrollment, earliest on ties
func (r *GradeRepository) FindLowestGrade(ctx context.Context, enrollmentID models.EnrollmentID) (*models.Grade, error) {
	return r.firstOfEnrollment(ctx, "grades.find_lowest", enrollmentID, "grades.value_hundredths ASC", "grades.id ASC")
}

func (r *GradeRepository) firstOfEnrollment(ctx context.Context, op string, enrollmentID models.EnrollmentID, orderBy ...string) (*models.Grade, error) {
	return r.one(ctx, op,
		r.selectQuery().Where(squirrel.Eq{"grades.enrollment_id": int64(enrollmentID)}).OrderBy(orderBy...),
		"enrollment %d has no grades", int64(enrollmentID))
}

// FindByValueRange lists grades with min <= value <= max, best first
func (r *GradeRepository) FindByValueRange(ctx context.Context, min, max decimal.Decimal) ([]*models.Grade, error) {
	const op = "grades.find_by_value_range"
	if min.GreaterThan(max) {
		return nil, apperrors.Validation(op, "min %s is greater than max %s", min, max)
	}
	return r.list(ctx, op,
		r.selectQuery().
			Where(squirrel.And{
				squirrel.GtOrEq{"grades.value_hundredths": models.ToHundredths(min)},
				squirrel.LtOrEq{"grades.value_hundredths": models.ToHundredths(max)},
			}).
			OrderBy("grades.value_hundredths DESC", "grades.id ASC"))
}

// CountPassedByModule counts the enrollments of a module whose average passes.
// Enrollments without grades are not counted.
func (r *GradeRepository) CountPassedByModule(ctx context.Context, moduleID models.ModuleID) (int64, error) {
	return r.countByOutcome(ctx, "grades.count_passed_by_module", moduleID, true)
}

// CountFailedByModule counts the enrollments of a module whose average fails.
// Enrollments without grades are not counted.
func (r *GradeRepository) CountFailedByModule(ctx context.Context, moduleID models.ModuleID) (int64, error) {
	return r.countByOutcome(ctx, "grades.count_failed_by_module", moduleID, false)
}

// countByOutcome groups a module's grades per enrollment and compares the
// exact average against the passing grade: SUM >= passing * COUNT.
func (r *GradeRepository) countByOutcome(ctx context.Context, op string, moduleID models.ModuleID, passed bool) (int64, error) {
	cmp := ">="
	if !passed {
		cmp = "<"
	}
	perEnrollment := r.builder().
		Select("grades.enrollment_id").
		From("grades").
		Join("enrollments ON enrollments.id = grades.enrollment_id").
		Where(squirrel.Eq{"enrollments.module_id": int64(moduleID)}).
		GroupBy("grades.enrollment_id").
		Having(fmt.Sprintf("SUM(grades.value_hundredths) %s ? * COUNT(*)", cmp), passingHundredths)

	return r.count(ctx, op, r.builder().Select("COUNT(*)").FromSelect(perEnrollment, "outcome"))
}

// HasPassed reports whether the enrollment's exact average reaches passing.
// The rounded average is only for display: 4.995 fails a threshold of 5.
func (r *GradeRepository) HasPassed(ctx context.Context, enrollmentID models.EnrollmentID, passing decimal.Decimal) (bool, error) {
	const op = "grades.has_passed"
	sb := r.averageQuery().Where(squirrel.Eq{"grades.enrollment_id": int64(enrollmentID)})
	passed, err := db.Read(ctx, r.db, op, func(ctx context.Context, q db.Querier) (bool, error) {
		sum, count, err := querySumCount(ctx, q, sb)
		if err != nil {
			return false, err
		}
		return models.MeanReaches(sum, count, passing), nil
	})
	r.logFailure(op, err)
	return passed, err
}

// FindPassedGradesByModule lists the individual passing grades of a module, best first
func (r *GradeRepository) FindPassedGradesByModule(ctx context.Context, moduleID models.ModuleID) ([]*models.Grade, error) {
	return r.list(ctx, "grades.find_passed_by_module",
		r.byModule(moduleID).
			Where(squirrel.GtOrEq{"grades.value_hundredths": passingHundredths}).
			OrderBy("grades.value_hundredths DESC", "grades.id ASC"))
}

// FindFailedGradesByModule lists the individual failing grades of a module, worst first
func (r *GradeRepository) FindFailedGradesByModule(ctx context.Context, moduleID models.ModuleID) ([]*models.Grade, error) {
	return r.list(ctx, "grades.find_failed_by_module",
		r.byModule(moduleID).
			Where(squirrel.Lt{"grades.value_hundredths": passingHundredths}).
			OrderBy("grades.value_hundredths ASC", "grades.id ASC"))
}

// CountByEnrollment counts the grades of an enrollment
func (r *GradeRepository) CountByEnrollment(ctx context.Context, enrollmentID models.EnrollmentID) (int64, error) {
	return r.count(ctx, "grades.count_by_enrollment",
		r.builder().Select("COUNT(*)").From("grades").Where(squirrel.Eq{"enrollment_id": int64(enrollmentID)}))
}

// DeleteByEnrollment removes every grade of an enrollment in one unit of work
// and returns how many were removed
func (r *GradeRepository) DeleteByEnrollment(ctx context.Context, enrollmentID models.EnrollmentID) (int64, error) {
	const op = "grades.delete_by_enrollment"
	n, err := db.InTx(ctx, r.db, op, func(ctx context.Context, q db.Querier) (int64, error) {
		sqlText, args, err := r.builder().
			Delete("grades").
			Where(squirrel.Eq{"enrollment_id": int64(enrollmentID)}).
			ToSql()
		if err != nil {
			return 0, fmt.Errorf("build delete: %w", err)
		}
		res, err := q.ExecContext(ctx, sqlText, args...)
		if err != nil {
			return 0, err
		}
		return res.RowsAffected()
	})
	r.logFailure(op, err)
	return n, err
}

// averageQuery selects the hundredths sum and the row count of grades
func (r *GradeRepository) averageQuery() squirrel.SelectBuilder {
	return r.builder().
		Select("COALESCE(SUM(grades.value_hundredths), 0)", "COUNT(*)").
		From("grades")
}

func (r *GradeRepository) average(ctx context.Context, op string, sb squirrel.SelectBuilder) (decimal.Decimal, error) {
	avg, err := db.Read(ctx, r.db, op, func(ctx context.Context, q db.Querier) (decimal.Decimal, error) {
		return queryAverage(ctx, q, sb)
	})
	r.logFailure(op, err)
	return avg, err
}

func queryAverage(ctx context.Context, q db.Querier, sb squirrel.SelectBuilder) (decimal.Decimal, error) {
	sum, count, err := querySumCount(ctx, q, sb)
	if err != nil {
		return decimal.Zero, err
	}
	return models.AverageFromHundredths(sum, count), nil
}

// querySumCount runs an averageQuery and returns the hundredths sum and row count
func querySumCount(ctx context.Context, q db.Querier, sb squirrel.SelectBuilder) (int64, int64, error) {
	sqlText, args, err := sb.ToSql()
	if err != nil {
		return 0, 0, fmt.Errorf("build select: %w", err)
	}
	var sum, count int64
	if err := q.QueryRowContext(ctx, sqlText, args...).Scan(&sum, &count); err != nil {
		return 0, 0, err
	}
	return sum, count, nil
}
