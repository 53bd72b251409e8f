package repositories

import (
	"context"

	"github.com/Masterminds/squirrel"

	"github.com/yigit/studentgrades/internal/app/models"
	"github.com/yigit/studentgrades/internal/db"
)

// Owned rows are removed explicitly inside the deleting unit of work, leaf
// first: grades, enrollments, teacher assignments. The schema's ON DELETE
// CASCADE clauses mirror the same graph.

func cascadeEnrollment(ctx context.Context, q db.Querier, b squirrel.StatementBuilderType, id models.EnrollmentID) error {
	return execDelete(ctx, q, b.Delete("grades").Where(squirrel.Eq{"enrollment_id": int64(id)}))
}

func cascadeStudent(ctx context.Context, q db.Querier, b squirrel.StatementBuilderType, id models.StudentID) error {
	if err := execDelete(ctx, q, b.Delete("grades").
		Where(squirrel.Expr("enrollment_id IN (SELECT id FROM enrollments WHERE student_id = ?)", int64(id)))); err != nil {
		return err
	}
	return execDelete(ctx, q, b.Delete("enrollments").Where(squirrel.Eq{"student_id": int64(id)}))
}

func cascadeTeacher(ctx context.Context, q db.Querier, b squirrel.StatementBuilderType, id models.TeacherID) error {
	return execDelete(ctx, q, b.Delete("teacher_modules").Where(squirrel.Eq{"teacher_id": int64(id)}))
}

func cascadeModule(ctx context.Context, q db.Querier, b squirrel.StatementBuilderType, id models.ModuleID) error {
	if err := execDelete(ctx, q, b.Delete("grades").
		Where(squirrel.Expr("enrollment_id IN (SELECT id FROM enrollments WHERE module_id = ?)", int64(id)))); err != nil {
		return err
	}
	if err := execDelete(ctx, q, b.Delete("enrollments").Where(squirrel.Eq{"module_id": int64(id)})); err != nil {
		return err
	}
	return execDelete(ctx, q, b.Delete("teacher_modules").Where(squirrel.Eq{"module_id": int64(id)}))
}
