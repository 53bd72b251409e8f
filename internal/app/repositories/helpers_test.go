package repositories

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/crypto/bcrypt"

	"github.com/yigit/studentgrades/internal/app/migrations"
	"github.com/yigit/studentgrades/internal/app/models"
	"github.com/yigit/studentgrades/internal/db"
	"github.com/yigit/studentgrades/internal/pkg/auth"
)

func TestMain(m *testing.M) {
	auth.BcryptCost = bcrypt.MinCost
	goleak.VerifyTestMain(m)
}

type fixture struct {
	db    *db.Database
	repos *Repositories
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	database, err := db.New(ctx, db.Options{
		Dialect:      db.SQLite,
		DSN:          db.SQLiteDSN(filepath.Join(t.TempDir(), "grades.db")),
		MaxOpenConns: 4,
		Logger:       zerolog.Nop(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, database.Close()) })

	m, err := migrations.NewMigrator(database)
	require.NoError(t, err)
	_, err = m.Up(ctx)
	require.NoError(t, err)

	return &fixture{db: database, repos: NewRepositories(database)}
}

func (f *fixture) user(t *testing.T, username string, role models.RoleType) *models.User {
	t.Helper()
	hash, err := auth.HashPassword("password1")
	require.NoError(t, err)
	u := models.NewUser(username, hash, username, "Tester", role)
	require.NoError(t, f.repos.UserRepository.Save(context.Background(), u))
	return u
}

func (f *fixture) student(t *testing.T, username, course, group string) *models.Student {
	t.Helper()
	u := f.user(t, username, models.RoleStudent)
	s := models.NewStudent(u.ID, course, group)
	require.NoError(t, f.repos.StudentRepository.Save(context.Background(), s))
	return s
}

func (f *fixture) teacher(t *testing.T, username, department, specialty string) *models.Teacher {
	t.Helper()
	u := f.user(t, username, models.RoleTeacher)
	tc := models.NewTeacher(u.ID, department, specialty)
	require.NoError(t, f.repos.TeacherRepository.Save(context.Background(), tc))
	return tc
}

func (f *fixture) module(t *testing.T, name, course string, hours int) *models.Module {
	t.Helper()
	m := models.NewModule(name, course, hours)
	require.NoError(t, f.repos.ModuleRepository.Save(context.Background(), m))
	return m
}

func (f *fixture) enroll(t *testing.T, s *models.Student, m *models.Module) *models.Enrollment {
	t.Helper()
	e, err := f.repos.EnrollmentRepository.EnrollStudent(context.Background(), s.ID, m.ID)
	require.NoError(t, err)
	return e
}

func (f *fixture) grade(t *testing.T, e *models.Enrollment, value string) *models.Grade {
	t.Helper()
	g := models.NewGrade(e.ID, decimal.RequireFromString(value), "")
	require.NoError(t, f.repos.GradeRepository.Save(context.Background(), g))
	return g
}

func (f *fixture) rowCount(t *testing.T, tableName string) int64 {
	t.Helper()
	n, err := db.Read(context.Background(), f.db, "test.row_count", func(ctx context.Context, q db.Querier) (int64, error) {
		return queryInt(ctx, q, f.db.Builder().Select("COUNT(*)").From(tableName))
	})
	require.NoError(t, err)
	return n
}

func gradeIDs(grades []*models.Grade) []models.GradeID {
	ids := make([]models.GradeID, len(grades))
	for i, g := range grades {
		ids[i] = g.ID
	}
	return ids
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}
