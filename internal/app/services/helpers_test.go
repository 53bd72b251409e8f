package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/crypto/bcrypt"

	"github.com/yigit/studentgrades/internal/app/migrations"
	"github.com/yigit/studentgrades/internal/app/models"
	"github.com/yigit/studentgrades/internal/app/models/dto"
	"github.com/yigit/studentgrades/internal/app/repositories"
	"github.com/yigit/studentgrades/internal/db"
	"github.com/yigit/studentgrades/internal/pkg/auth"
)

func TestMain(m *testing.M) {
	auth.BcryptCost = bcrypt.MinCost
	goleak.VerifyTestMain(m)
}

type env struct {
	repos     *repositories.Repositories
	jwt       *auth.JWTService
	auth      *AuthService
	gradebook *GradebookService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()

	database, err := db.New(ctx, db.Options{
		Dialect: db.SQLite,
		DSN:     db.SQLiteDSN(filepath.Join(t.TempDir(), "services.db")),
		Logger:  zerolog.Nop(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, database.Close()) })

	m, err := migrations.NewMigrator(database)
	require.NoError(t, err)
	_, err = m.Up(ctx)
	require.NoError(t, err)

	repos := repositories.NewRepositories(database)
	jwtService := auth.NewJWTService(auth.JWTConfig{
		SecretKey:      "test-secret",
		AccessTokenExp: time.Hour,
		TokenIssuer:    "studentgrades-test",
	})
	return &env{
		repos:     repos,
		jwt:       jwtService,
		auth:      NewAuthService(repos, jwtService, zerolog.Nop()),
		gradebook: NewGradebookService(repos, zerolog.Nop()),
	}
}

func (e *env) register(t *testing.T, username string, role models.RoleType) *dto.TokenResponse {
	t.Helper()
	resp, err := e.auth.Register(context.Background(), &dto.RegisterRequest{
		Username:   username,
		Password:   "secret1",
		FirstName:  username,
		LastName:   "Tester",
		RoleType:   role,
		Course:     "2DAM",
		Group:      "A",
		Department: "Informática",
	})
	require.NoError(t, err)
	return resp
}

func (e *env) module(t *testing.T, name string) *models.Module {
	t.Helper()
	m, err := e.gradebook.CreateModule(context.Background(), &dto.ModuleRequest{Name: name, Course: "2DAM", WeeklyHours: 4})
	require.NoError(t, err)
	return m
}

func (e *env) enroll(t *testing.T, studentID models.StudentID, moduleID models.ModuleID) *models.Enrollment {
	t.Helper()
	en, err := e.gradebook.Enroll(context.Background(), &dto.EnrollRequest{StudentID: studentID, ModuleID: moduleID})
	require.NoError(t, err)
	return en
}

func (e *env) grade(t *testing.T, enrollmentID models.EnrollmentID, value string) *models.Grade {
	t.Helper()
	g, err := e.gradebook.AddGrade(context.Background(), enrollmentID, &dto.GradeRequest{Value: value})
	require.NoError(t, err)
	return g
}
