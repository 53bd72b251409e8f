package repositories

import (
	"context"
	"strings"

	"github.com/Masterminds/squirrel"

	"github.com/yigit/studentgrades/internal/app/models"
	"github.com/yigit/studentgrades/internal/db"
	"github.com/yigit/studentgrades/internal/pkg/apperrors"
	"github.com/yigit/studentgrades/internal/pkg/auth"
)

var userTable = table[models.User, models.UserID]{
	name:    "users",
	kind:    "user",
	columns: []string{"username", "password_hash", "first_name", "last_name", "role"},
	getID:   func(u *models.User) models.UserID { return u.ID },
	setID:   func(u *models.User, id models.UserID) { u.ID = id },
	values: func(u *models.User) []any {
		return []any{u.Username, u.PasswordHash, u.FirstName, u.LastName, string(u.RoleType)}
	},
	scan: func(s scanner) (*models.User, error) {
		var u models.User
		var role string
		if err := s.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.FirstName, &u.LastName, &role); err != nil {
			return nil, err
		}
		u.RoleType = models.RoleType(role)
		return &u, nil
	},
	validate: func(u *models.User) error { return u.Validate() },
}

// UserRepository handles database operations for user accounts
type UserRepository struct {
	crudRepository[models.User, models.UserID]
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(database *db.Database) *UserRepository {
	return &UserRepository{newCRUDRepository(database, userTable)}
}

// FindByUsername retrieves a user by username
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.one(ctx, "users.find_by_username",
		r.selectQuery().Where(squirrel.Eq{"username": username}),
		"user %q not found", username)
}

// ValidateLogin returns the user whose credentials match. An unknown
// username and a wrong password are indistinguishable to the caller.
func (r *UserRepository) ValidateLogin(ctx context.Context, username, password string) (*models.User, error) {
	user, err := r.FindByUsername(ctx, username)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, apperrors.ErrInvalidCredentials
	}
	return user, nil
}

// FindByRole lists users with role, ordered by id
func (r *UserRepository) FindByRole(ctx context.Context, role models.RoleType) ([]*models.User, error) {
	return r.list(ctx, "users.find_by_role",
		r.selectQuery().Where(squirrel.Eq{"role": string(role)}).OrderBy("users.id"))
}

// ExistsUsername checks if a username is already taken
func (r *UserRepository) ExistsUsername(ctx context.Context, username string) (bool, error) {
	return r.existsWhere(ctx, "users.exists_username", "users", squirrel.Eq{"username": username})
}

// SearchByName finds users whose first or last name contains term, ignoring case
func (r *UserRepository) SearchByName(ctx context.Context, term string) ([]*models.User, error) {
	pattern := containsPattern(term)
	return r.list(ctx, "users.search_by_name",
		r.selectQuery().
			Where(squirrel.Or{
				squirrel.Expr("LOWER(first_name) LIKE ? ESCAPE '\\'", pattern),
				squirrel.Expr("LOWER(last_name) LIKE ? ESCAPE '\\'", pattern),
			}).
			OrderBy("users.id"))
}

// ChangePassword hashes and stores a new password for the user
func (r *UserRepository) ChangePassword(ctx context.Context, id models.UserID, newPassword string) error {
	const op = "users.change_password"
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return apperrors.NewStorageError(apperrors.ErrValidationFailed, op, "invalid password", err)
	}

	err = r.db.RunInTransaction(ctx, op, func(ctx context.Context, q db.Querier) error {
		sqlText, args, err := r.builder().
			Update("users").
			Set("password_hash", hash).
			Where(squirrel.Eq{"id": int64(id)}).
			ToSql()
		if err != nil {
			return err
		}
		res, err := q.ExecContext(ctx, sqlText, args...)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return apperrors.NotFound(op, "user %d not found", int64(id))
		}
		return nil
	})
	r.logFailure(op, err)
	return err
}

// containsPattern builds a lower-cased LIKE pattern matching term anywhere,
// with LIKE wildcards in term escaped.
func containsPattern(term string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(strings.ToLower(term))
	return "%" + escaped + "%"
}
