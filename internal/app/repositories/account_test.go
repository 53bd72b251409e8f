package repositories

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yigit/studentgrades/internal/app/models"
	"github.com/yigit/studentgrades/internal/pkg/apperrors"
)

func TestCreateStudentAccountStoresBothRows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u := models.NewUser("lucia", "hash", "Lucía", "Pérez", models.RoleStudent)
	s := models.NewStudent(0, "1DAW", "B")
	require.NoError(t, f.repos.UserRepository.CreateStudentAccount(ctx, u, s))
	require.NotZero(t, u.ID)
	require.NotZero(t, s.ID)
	require.Equal(t, u.ID, s.UserID)

	found, err := f.repos.StudentRepository.FindByUserID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, s, found)
}

func TestCreateTeacherAccountRollsBackOnInvalidProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u := models.NewUser("marta", "hash", "Marta", "Ruiz", models.RoleTeacher)
	tc := models.NewTeacher(0, strings.Repeat("x", models.MaxDepartmentLength+1), "")
	err := f.repos.UserRepository.CreateTeacherAccount(ctx, u, tc)
	require.ErrorIs(t, err, apperrors.ErrValidationFailed)
	require.Zero(t, u.ID)
	require.Zero(t, tc.ID)
	require.EqualValues(t, 0, f.rowCount(t, "users"))
	require.EqualValues(t, 0, f.rowCount(t, "teachers"))
}

func TestCreateAccountRejectsDuplicateUsername(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "pablo", models.RoleStudent)

	u := models.NewUser("pablo", "hash", "Pablo", "Gil", models.RoleStudent)
	err := f.repos.UserRepository.CreateStudentAccount(ctx, u, models.NewStudent(0, "", ""))
	require.ErrorIs(t, err, apperrors.ErrConstraintViolation)
	require.EqualValues(t, 1, f.rowCount(t, "users"))
	require.EqualValues(t, 0, f.rowCount(t, "students"))
}
