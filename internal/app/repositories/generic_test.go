package repositories

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/yigit/studentgrades/internal/app/models"
	"github.com/yigit/studentgrades/internal/pkg/apperrors"
)

func TestSaveThenFindByIDReturnsEquivalentEntity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.module(t, "Databases", "2DAM", 6)
	m := models.NewModule("Programming", "1DAM", 8)
	require.NoError(t, f.repos.ModuleRepository.Save(ctx, m))
	require.NotZero(t, m.ID)
	require.NotEqual(t, first.ID, m.ID)

	found, err := f.repos.ModuleRepository.FindByID(ctx, m.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(m, found); diff != "" {
		t.Fatalf("FindByID mismatch (-saved +found):\n%s", diff)
	}
}

func TestSaveRejectsEntityWithIdentity(t *testing.T) {
	f := newFixture(t)
	m := f.module(t, "Databases", "2DAM", 6)

	err := f.repos.ModuleRepository.Save(context.Background(), m)
	require.ErrorIs(t, err, apperrors.ErrValidationFailed)
	require.Equal(t, int64(1), f.rowCount(t, "modules"))
}

func TestSaveValidatesBeforeWriting(t *testing.T) {
	f := newFixture(t)

	err := f.repos.ModuleRepository.Save(context.Background(), models.NewModule("", "2DAM", -2))
	require.ErrorIs(t, err, apperrors.ErrValidationFailed)

	fields, ok := models.AsValidationErrors(err)
	require.True(t, ok)
	require.Len(t, fields, 2)
	require.Zero(t, f.rowCount(t, "modules"))
}

func TestUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.module(t, "Databases", "2DAM", 6)

	m.WeeklyHours = 5
	m.Name = "Databases II"
	require.NoError(t, f.repos.ModuleRepository.Update(ctx, m))

	found, err := f.repos.ModuleRepository.FindByID(ctx, m.ID)
	require.NoError(t, err)
	require.Equal(t, 5, found.WeeklyHours)
	require.Equal(t, "Databases II", found.Name)

	ghost := &models.Module{ID: m.ID + 100, Name: "Ghost"}
	err = f.repos.ModuleRepository.Update(ctx, ghost)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
	require.Equal(t, int64(1), f.rowCount(t, "modules"))
}

func TestSaveOrUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	repo := f.repos.ModuleRepository

	fresh := models.NewModule("Networks", "1SMR", 4)
	require.NoError(t, repo.SaveOrUpdate(ctx, fresh))
	require.NotZero(t, fresh.ID)

	fresh.WeeklyHours = 3
	require.NoError(t, repo.SaveOrUpdate(ctx, fresh))
	found, err := repo.FindByID(ctx, fresh.ID)
	require.NoError(t, err)
	require.Equal(t, 3, found.WeeklyHours)

	unknown := &models.Module{ID: 999, Name: "Detached"}
	require.NoError(t, repo.SaveOrUpdate(ctx, unknown))
	require.NotEqual(t, models.ModuleID(999), unknown.ID)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), n)
}

func TestFindByIDAbsentIsNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.repos.StudentRepository.FindByID(context.Background(), 42)
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	var se *apperrors.StorageError
	require.ErrorAs(t, err, &se)
	require.Equal(t, "students.find_by_id", se.Op)
}

func TestDeleteByIDAbsentIsNoOp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.module(t, "Databases", "2DAM", 6)

	require.NoError(t, f.repos.ModuleRepository.DeleteByID(ctx, m.ID+1))
	require.NoError(t, f.repos.ModuleRepository.Delete(ctx, models.NewModule("never saved", "", 0)))
	require.Equal(t, int64(1), f.rowCount(t, "modules"))

	require.NoError(t, f.repos.ModuleRepository.Delete(ctx, m))
	exists, err := f.repos.ModuleRepository.ExistsByID(ctx, m.ID)
	require.NoError(t, err)
	require.False(t, exists)
}

func TestFindAllIsOrderedByIdentity(t *testing.T) {
	f := newFixture(t)
	a := f.module(t, "A", "", 1)
	b := f.module(t, "B", "", 1)
	c := f.module(t, "C", "", 1)

	all, err := f.repos.ModuleRepository.FindAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, []*models.Module{a, b, c}, all)
}

func TestFindAllEmptyIsNotNil(t *testing.T) {
	f := newFixture(t)

	all, err := f.repos.GradeRepository.FindAll(context.Background())
	require.NoError(t, err)
	require.NotNil(t, all)
	require.Empty(t, all)
}
