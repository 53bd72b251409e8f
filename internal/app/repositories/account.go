package repositories

import (
	"context"

	"github.com/yigit/studentgrades/internal/app/models"
	"github.com/yigit/studentgrades/internal/db"
)

// CreateStudentAccount stores user and its student profile in one unit of
// work. On failure neither row exists and both identities stay zero.
func (r *UserRepository) CreateStudentAccount(ctx context.Context, user *models.User, student *models.Student) error {
	return createAccount(ctx, r, newCRUDRepository(r.db, studentTable), user, student,
		func(s *models.Student, id models.UserID) { s.UserID = id })
}

// CreateTeacherAccount stores user and its teacher profile in one unit of work
func (r *UserRepository) CreateTeacherAccount(ctx context.Context, user *models.User, teacher *models.Teacher) error {
	return createAccount(ctx, r, newCRUDRepository(r.db, teacherTable), user, teacher,
		func(t *models.Teacher, id models.UserID) { t.UserID = id })
}

func createAccount[P any, PID ~int64](
	ctx context.Context,
	users *UserRepository,
	profiles crudRepository[P, PID],
	user *models.User,
	profile *P,
	link func(*P, models.UserID),
) error {
	const op = "users.create_account"
	if err := users.validate(op, user); err != nil {
		return err
	}

	err := users.db.RunInTransaction(ctx, op, func(ctx context.Context, q db.Querier) error {
		if err := users.insert(ctx, q, user); err != nil {
			return err
		}
		link(profile, user.ID)
		if err := profiles.validate(op, profile); err != nil {
			return err
		}
		return profiles.insert(ctx, q, profile)
	})
	if err != nil {
		users.t.setID(user, 0)
		profiles.t.setID(profile, 0)
	}
	users.logFailure(op, err)
	return err
}
