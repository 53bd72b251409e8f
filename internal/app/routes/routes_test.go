package routes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yigit/studentgrades/internal/bootstrap"
	"github.com/yigit/studentgrades/internal/config"
	"github.com/yigit/studentgrades/internal/db"
	"github.com/yigit/studentgrades/internal/pkg/auth"
)

type api struct {
	t       *testing.T
	handler http.Handler
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

func newAPI(t *testing.T) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)
	auth.BcryptCost = bcrypt.MinCost
	ctx := context.Background()

	cfg := config.Default()
	cfg.Database.Path = filepath.Join(t.TempDir(), "api.db")
	cfg.JWT.Secret = "routes-test-secret"

	database, err := db.Open(ctx, cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, database.Close()) })
	require.NoError(t, bootstrap.Migrate(ctx, database, zerolog.Nop()))

	deps := bootstrap.BuildDependencies(cfg, database, zerolog.Nop())
	return &api{t: t, handler: bootstrap.SetupRouter(cfg, deps, zerolog.Nop())}
}

func (a *api) do(method, path, token string, body any) (int, envelope) {
	a.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)

	var env envelope
	require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

type account struct {
	token     string
	studentID int64
	teacherID int64
}

func (a *api) register(username, role string) account {
	a.t.Helper()
	code, env := a.do(http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"username":  username,
		"password":  "secret1",
		"firstName": username,
		"lastName":  "Tester",
		"roleType":  role,
		"course":    "1DAM",
		"group":     "A",
	})
	require.Equal(a.t, http.StatusCreated, code)

	resp := decode[struct {
		AccessToken string `json:"accessToken"`
		User        struct {
			StudentID *int64 `json:"studentId"`
			TeacherID *int64 `json:"teacherId"`
		} `json:"user"`
	}](a.t, env)
	acc := account{token: resp.AccessToken}
	if resp.User.StudentID != nil {
		acc.studentID = *resp.User.StudentID
	}
	if resp.User.TeacherID != nil {
		acc.teacherID = *resp.User.TeacherID
	}
	return acc
}

func TestHealth(t *testing.T) {
	a := newAPI(t)
	code, env := a.do(http.MethodGet, "/api/v1/health", "", nil)
	require.Equal(t, http.StatusOK, code)
	require.True(t, env.Success)
}

func TestAuthenticationErrors(t *testing.T) {
	a := newAPI(t)

	code, env := a.do(http.MethodGet, "/api/v1/modules", "", nil)
	require.Equal(t, http.StatusUnauthorized, code)
	require.Equal(t, "AUTH_008", env.Error.Code)

	code, env = a.do(http.MethodGet, "/api/v1/modules", "not-a-jwt", nil)
	require.Equal(t, http.StatusUnauthorized, code)
	require.Equal(t, "AUTH_005", env.Error.Code)

	a.register("teresa", "TEACHER")
	code, env = a.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "teresa", "password": "bad-password"})
	require.Equal(t, http.StatusUnauthorized, code)
	require.Equal(t, "AUTH_001", env.Error.Code)

	code, _ = a.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{"username": "x"})
	require.Equal(t, http.StatusBadRequest, code)

	code, env = a.do(http.MethodGet, "/api/v1/nowhere", "", nil)
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, "RES_001", env.Error.Code)
}

func TestGradebookFlow(t *testing.T) {
	a := newAPI(t)
	teacher := a.register("teresa", "TEACHER")
	alice := a.register("alice", "STUDENT")
	bob := a.register("bob", "STUDENT")

	code, _ := a.do(http.MethodPost, "/api/v1/modules", alice.token, map[string]any{"name": "Programación"})
	require.Equal(t, http.StatusForbidden, code)

	code, env := a.do(http.MethodPost, "/api/v1/modules", teacher.token, map[string]any{"name": "Programación", "course": "1DAM", "weeklyHours": 8})
	require.Equal(t, http.StatusCreated, code)
	module := decode[struct {
		ID int64 `json:"id"`
	}](t, env)

	code, _ = a.do(http.MethodPost, "/api/v1/modules", teacher.token, map[string]any{"name": "Programación"})
	require.Equal(t, http.StatusConflict, code)

	code, env = a.do(http.MethodPost, "/api/v1/enrollments", teacher.token, map[string]any{"studentId": alice.studentID, "moduleId": module.ID})
	require.Equal(t, http.StatusCreated, code)
	enrollment := decode[struct {
		ID int64 `json:"id"`
	}](t, env)

	code, _ = a.do(http.MethodPost, "/api/v1/enrollments", teacher.token, map[string]any{"studentId": alice.studentID, "moduleId": module.ID})
	require.Equal(t, http.StatusConflict, code)

	gradesPath := fmt.Sprintf("/api/v1/enrollments/%d/grades", enrollment.ID)

	// grading requires being assigned to the module
	code, _ = a.do(http.MethodPost, gradesPath, teacher.token, map[string]any{"value": "7"})
	require.Equal(t, http.StatusForbidden, code)

	code, _ = a.do(http.MethodPost, fmt.Sprintf("/api/v1/modules/%d/teachers", module.ID), teacher.token, map[string]any{"teacherId": teacher.teacherID})
	require.Equal(t, http.StatusOK, code)

	code, env = a.do(http.MethodPost, gradesPath, teacher.token, map[string]any{"value": "10.5"})
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, "VAL_001", env.Error.Code)

	for _, v := range []string{"4", "7,5", "8.25"} {
		code, _ = a.do(http.MethodPost, gradesPath, teacher.token, map[string]any{"value": v})
		require.Equal(t, http.StatusCreated, code)
	}

	reportPath := fmt.Sprintf("/api/v1/enrollments/%d/report", enrollment.ID)
	code, env = a.do(http.MethodGet, reportPath, alice.token, nil)
	require.Equal(t, http.StatusOK, code)
	report := decode[struct {
		Average    string `json:"average"`
		Passed     bool   `json:"passed"`
		GradeCount int    `json:"gradeCount"`
		Highest    struct {
			Value string `json:"value"`
		} `json:"highest"`
	}](t, env)
	require.Equal(t, "6.58", report.Average)
	require.True(t, report.Passed)
	require.Equal(t, 3, report.GradeCount)
	require.Equal(t, "8.25", report.Highest.Value)

	code, _ = a.do(http.MethodGet, reportPath, bob.token, nil)
	require.Equal(t, http.StatusForbidden, code)

	code, _ = a.do(http.MethodGet, fmt.Sprintf("/api/v1/students/%d/report", alice.studentID), bob.token, nil)
	require.Equal(t, http.StatusForbidden, code)

	code, env = a.do(http.MethodGet, fmt.Sprintf("/api/v1/students/%d/report", alice.studentID), alice.token, nil)
	require.Equal(t, http.StatusOK, code)
	studentReport := decode[struct {
		OverallAverage string `json:"overallAverage"`
	}](t, env)
	require.Equal(t, "6.58", studentReport.OverallAverage)

	code, env = a.do(http.MethodGet, fmt.Sprintf("/api/v1/modules/%d/report", module.ID), bob.token, nil)
	require.Equal(t, http.StatusOK, code)
	moduleReport := decode[struct {
		StudentCount int64 `json:"studentCount"`
		PassedCount  int64 `json:"passedCount"`
	}](t, env)
	require.EqualValues(t, 1, moduleReport.StudentCount)
	require.EqualValues(t, 1, moduleReport.PassedCount)

	code, _ = a.do(http.MethodGet, "/api/v1/enrollments/abc/report", alice.token, nil)
	require.Equal(t, http.StatusBadRequest, code)

	code, _ = a.do(http.MethodDelete, fmt.Sprintf("/api/v1/enrollments?studentId=%d&moduleId=%d", alice.studentID, module.ID), teacher.token, nil)
	require.Equal(t, http.StatusOK, code)
	code, _ = a.do(http.MethodGet, reportPath, alice.token, nil)
	require.Equal(t, http.StatusNotFound, code)
}
