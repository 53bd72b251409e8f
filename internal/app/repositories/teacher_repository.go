package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/yigit/studentgrades/internal/app/models"
	"github.com/yigit/studentgrades/internal/db"
	"github.com/yigit/studentgrades/internal/pkg/apperrors"
)

var teacherTable = table[models.Teacher, models.TeacherID]{
	name:    "teachers",
	kind:    "teacher",
	columns: []string{"user_id", "department", "specialty"},
	getID:   func(t *models.Teacher) models.TeacherID { return t.ID },
	setID:   func(t *models.Teacher, id models.TeacherID) { t.ID = id },
	values: func(t *models.Teacher) []any {
		return []any{int64(t.UserID), t.Department, t.Specialty}
	},
	scan: func(sc scanner) (*models.Teacher, error) {
		var t models.Teacher
		if err := sc.Scan(&t.ID, &t.UserID, &t.Department, &t.Specialty); err != nil {
			return nil, err
		}
		return &t, nil
	},
	validate: func(t *models.Teacher) error { return t.Validate() },
	cascade:  cascadeTeacher,
}

// TeacherRepository handles database operations for teacher profiles and
// their module assignments
type TeacherRepository struct {
	crudRepository[models.Teacher, models.TeacherID]
	modules *ModuleRepository
}

// NewTeacherRepository creates a new TeacherRepository
func NewTeacherRepository(database *db.Database) *TeacherRepository {
	return &TeacherRepository{
		crudRepository: newCRUDRepository(database, teacherTable),
		modules:        NewModuleRepository(database),
	}
}

// FindByUserID retrieves the teacher profile of a user
func (r *TeacherRepository) FindByUserID(ctx context.Context, userID models.UserID) (*models.Teacher, error) {
	return r.one(ctx, "teachers.find_by_user_id",
		r.selectQuery().Where(squirrel.Eq{"user_id": int64(userID)}),
		"teacher for user %d not found", int64(userID))
}

// FindByDepartment lists the teachers of a department
func (r *TeacherRepository) FindByDepartment(ctx context.Context, department string) ([]*models.Teacher, error) {
	return r.list(ctx, "teachers.find_by_department",
		r.selectQuery().Where(squirrel.Eq{"department": department}).OrderBy("teachers.id"))
}

// FindBySpecialty lists the teachers with a specialty
func (r *TeacherRepository) FindBySpecialty(ctx context.Context, specialty string) ([]*models.Teacher, error) {
	return r.list(ctx, "teachers.find_by_specialty",
		r.selectQuery().Where(squirrel.Eq{"specialty": specialty}).OrderBy("teachers.id"))
}

// FindModules lists the modules assigned to a teacher
func (r *TeacherRepository) FindModules(ctx context.Context, teacherID models.TeacherID) ([]*models.Module, error) {
	return r.modules.FindByTeacher(ctx, teacherID)
}

// FindByModule lists the teachers assigned to a module
func (r *TeacherRepository) FindByModule(ctx context.Context, moduleID models.ModuleID) ([]*models.Teacher, error) {
	return r.list(ctx, "teachers.find_by_module",
		r.selectQuery().
			Join("teacher_modules ON teacher_modules.teacher_id = teachers.id").
			Where(squirrel.Eq{"teacher_modules.module_id": int64(moduleID)}).
			OrderBy("teachers.id"))
}

// TeachesModule reports whether the teacher is assigned to the module
func (r *TeacherRepository) TeachesModule(ctx context.Context, teacherID models.TeacherID, moduleID models.ModuleID) (bool, error) {
	return r.existsWhere(ctx, "teachers.teaches_module", "teacher_modules",
		squirrel.Eq{"teacher_id": int64(teacherID), "module_id": int64(moduleID)})
}

// AssignModule links a teacher to a module. Assigning an existing pair is a no-op.
func (r *TeacherRepository) AssignModule(ctx context.Context, teacherID models.TeacherID, moduleID models.ModuleID) error {
	const op = "teachers.assign_module"
	err := r.db.RunInTransaction(ctx, op, func(ctx context.Context, q db.Querier) error {
		if err := requireRow(ctx, q, r.builder(), op, "teachers", "teacher", int64(teacherID)); err != nil {
			return err
		}
		if err := requireRow(ctx, q, r.builder(), op, "modules", "module", int64(moduleID)); err != nil {
			return err
		}

		pair := squirrel.Eq{"teacher_id": int64(teacherID), "module_id": int64(moduleID)}
		assigned, err := existsWhere(ctx, q, r.builder(), "teacher_modules", pair)
		if err != nil || assigned {
			return err
		}

		sqlText, args, err := r.builder().
			Insert("teacher_modules").
			Columns("teacher_id", "module_id").
			Values(int64(teacherID), int64(moduleID)).
			ToSql()
		if err != nil {
			return fmt.Errorf("build insert: %w", err)
		}
		_, err = q.ExecContext(ctx, sqlText, args...)
		return err
	})
	r.logFailure(op, err)
	return err
}

// UnassignModule removes a teacher from a module. A missing pair is a no-op.
func (r *TeacherRepository) UnassignModule(ctx context.Context, teacherID models.TeacherID, moduleID models.ModuleID) error {
	const op = "teachers.unassign_module"
	err := r.db.RunInTransaction(ctx, op, func(ctx context.Context, q db.Querier) error {
		return execDelete(ctx, q, r.builder().Delete("teacher_modules").
			Where(squirrel.Eq{"teacher_id": int64(teacherID), "module_id": int64(moduleID)}))
	})
	r.logFailure(op, err)
	return err
}

// CountModules counts the modules assigned to a teacher
func (r *TeacherRepository) CountModules(ctx context.Context, teacherID models.TeacherID) (int64, error) {
	return r.count(ctx, "teachers.count_modules",
		r.builder().Select("COUNT(*)").From("teacher_modules").Where(squirrel.Eq{"teacher_id": int64(teacherID)}))
}

// requireRow fails with NotFound when table has no row with id
func requireRow(ctx context.Context, q db.Querier, b squirrel.StatementBuilderType, op, tableName, kind string, id int64) error {
	found, err := existsWhere(ctx, q, b, tableName, squirrel.Eq{"id": id})
	if err != nil {
		return err
	}
	if !found {
		return apperrors.NotFound(op, "%s %d not found", kind, id)
	}
	return nil
}
