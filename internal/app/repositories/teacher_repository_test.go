package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yigit/studentgrades/internal/app/models"
	"github.com/yigit/studentgrades/internal/pkg/apperrors"
)

func TestAssignAndUnassignModule(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	repo := f.repos.TeacherRepository

	luis := f.teacher(t, "luis", "Computing", "Databases")
	db := f.module(t, "Databases", "2DAM", 6)
	net := f.module(t, "Networks", "1SMR", 4)

	require.NoError(t, repo.AssignModule(ctx, luis.ID, db.ID))
	require.NoError(t, repo.AssignModule(ctx, luis.ID, db.ID))
	require.NoError(t, repo.AssignModule(ctx, luis.ID, net.ID))
	require.Equal(t, int64(2), f.rowCount(t, "teacher_modules"))

	teaches, err := repo.TeachesModule(ctx, luis.ID, db.ID)
	require.NoError(t, err)
	require.True(t, teaches)

	modules, err := repo.FindModules(ctx, luis.ID)
	require.NoError(t, err)
	require.Equal(t, []*models.Module{db, net}, modules)

	n, err := repo.CountModules(ctx, luis.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	require.NoError(t, repo.UnassignModule(ctx, luis.ID, db.ID))
	require.NoError(t, repo.UnassignModule(ctx, luis.ID, db.ID))
	teaches, err = repo.TeachesModule(ctx, luis.ID, db.ID)
	require.NoError(t, err)
	require.False(t, teaches)

	require.ErrorIs(t, repo.AssignModule(ctx, luis.ID, 999), apperrors.ErrNotFound)
	require.ErrorIs(t, repo.AssignModule(ctx, 999, db.ID), apperrors.ErrNotFound)
}

func TestTeacherQueries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	repo := f.repos.TeacherRepository

	luis := f.teacher(t, "luis", "Computing", "Databases")
	marta := f.teacher(t, "marta", "Computing", "Networks")
	pablo := f.teacher(t, "pablo", "Maths", "Networks")
	net := f.module(t, "Networks", "1SMR", 4)
	require.NoError(t, repo.AssignModule(ctx, pablo.ID, net.ID))
	require.NoError(t, repo.AssignModule(ctx, marta.ID, net.ID))

	byUser, err := repo.FindByUserID(ctx, luis.UserID)
	require.NoError(t, err)
	require.Equal(t, luis, byUser)

	computing, err := repo.FindByDepartment(ctx, "Computing")
	require.NoError(t, err)
	require.Equal(t, []*models.Teacher{luis, marta}, computing)

	networks, err := repo.FindBySpecialty(ctx, "Networks")
	require.NoError(t, err)
	require.Equal(t, []*models.Teacher{marta, pablo}, networks)

	byModule, err := repo.FindByModule(ctx, net.ID)
	require.NoError(t, err)
	require.Equal(t, []*models.Teacher{marta, pablo}, byModule)
}

func TestDeleteTeacherRemovesAssignmentsOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	luis := f.teacher(t, "luis", "Computing", "Databases")
	db := f.module(t, "Databases", "2DAM", 6)
	require.NoError(t, f.repos.TeacherRepository.AssignModule(ctx, luis.ID, db.ID))

	require.NoError(t, f.repos.TeacherRepository.Delete(ctx, luis))
	require.Zero(t, f.rowCount(t, "teacher_modules"))
	require.Equal(t, int64(1), f.rowCount(t, "modules"))
}
