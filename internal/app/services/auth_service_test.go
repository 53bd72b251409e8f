package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yigit/studentgrades/internal/app/models"
	"github.com/yigit/studentgrades/internal/app/models/dto"
	"github.com/yigit/studentgrades/internal/pkg/apperrors"
)

func TestRegisterStudentIssuesTokenWithProfile(t *testing.T) {
	e := newEnv(t)

	resp := e.register(t, "ana", models.RoleStudent)
	require.Equal(t, "Bearer", resp.TokenType)
	require.EqualValues(t, 3600, resp.ExpiresIn)
	require.NotNil(t, resp.User.StudentID)
	require.Nil(t, resp.User.TeacherID)
	require.Equal(t, "2DAM", resp.User.Student.Course)

	claims, err := e.jwt.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	require.Equal(t, resp.User.ID, claims.UserID)
	require.Equal(t, models.RoleStudent, claims.RoleType)
}

func TestRegisterRejectsTakenUsername(t *testing.T) {
	e := newEnv(t)
	e.register(t, "ana", models.RoleStudent)

	_, err := e.auth.Register(context.Background(), &dto.RegisterRequest{
		Username: "ana", Password: "secret1", FirstName: "Ana", LastName: "Bis", RoleType: models.RoleTeacher,
	})
	require.ErrorIs(t, err, apperrors.ErrConstraintViolation)

	n, err := e.repos.TeacherRepository.Count(context.Background())
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	e := newEnv(t)
	_, err := e.auth.Register(context.Background(), &dto.RegisterRequest{
		Username: "bob", Password: "123", FirstName: "Bob", LastName: "B", RoleType: models.RoleStudent,
	})
	require.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestLogin(t *testing.T) {
	e := newEnv(t)
	registered := e.register(t, "carlos", models.RoleTeacher)
	ctx := context.Background()

	resp, err := e.auth.Login(ctx, &dto.LoginRequest{Username: "carlos", Password: "secret1"})
	require.NoError(t, err)
	require.Equal(t, registered.User.ID, resp.User.ID)
	require.NotNil(t, resp.User.TeacherID)

	_, err = e.auth.Login(ctx, &dto.LoginRequest{Username: "carlos", Password: "wrong-password"})
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = e.auth.Login(ctx, &dto.LoginRequest{Username: "nobody", Password: "secret1"})
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestChangePassword(t *testing.T) {
	e := newEnv(t)
	user := e.register(t, "dora", models.RoleStudent).User
	ctx := context.Background()

	err := e.auth.ChangePassword(ctx, user.ID, &dto.ChangePasswordRequest{CurrentPassword: "nope", NewPassword: "another1"})
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	require.NoError(t, e.auth.ChangePassword(ctx, user.ID, &dto.ChangePasswordRequest{CurrentPassword: "secret1", NewPassword: "another1"}))

	_, err = e.auth.Login(ctx, &dto.LoginRequest{Username: "dora", Password: "secret1"})
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	_, err = e.auth.Login(ctx, &dto.LoginRequest{Username: "dora", Password: "another1"})
	require.NoError(t, err)
}

func TestMeUnknownUser(t *testing.T) {
	e := newEnv(t)
	_, err := e.auth.Me(context.Background(), 42)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}
