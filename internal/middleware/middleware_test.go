package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/yigit/studentgrades/internal/app/models"
	"github.com/yigit/studentgrades/internal/app/models/dto"
	"github.com/yigit/studentgrades/internal/pkg/apperrors"
	"github.com/yigit/studentgrades/internal/pkg/auth"
)

func TestErrorResponseMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   dto.ErrorCode
	}{
		{"not found", apperrors.NotFound("modules.find", "module 1 not found"), http.StatusNotFound, dto.ErrorCodeResourceNotFound},
		{"conflict", apperrors.Conflict("enrollments.save", "duplicate"), http.StatusConflict, dto.ErrorCodeResourceAlreadyExists},
		{"validation", apperrors.Validation("grades.save", "bad value"), http.StatusBadRequest, dto.ErrorCodeValidationFailed},
		{"credentials", apperrors.ErrInvalidCredentials, http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials},
		{"expired", fmt.Errorf("%w: late", apperrors.ErrTokenExpired), http.StatusUnauthorized, dto.ErrorCodeExpiredToken},
		{"forbidden", apperrors.ErrPermissionDenied, http.StatusForbidden, dto.ErrorCodeForbidden},
		{"storage", apperrors.NewStorageError(apperrors.ErrStorageFault, "db", "", errors.New("disk")), http.StatusInternalServerError, dto.ErrorCodeDatabaseError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, dto.ErrorCodeInternalServer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, detail := errorResponse(tt.err)
			require.Equal(t, tt.status, status)
			require.Equal(t, tt.code, detail.Code)
		})
	}
}

func TestErrorResponseCarriesFieldErrors(t *testing.T) {
	err := apperrors.NewStorageError(apperrors.ErrValidationFailed, "modules.save", "invalid module",
		models.ValidationErrors{{Field: "name", Message: "is required"}})

	status, detail := errorResponse(err)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "invalid module", detail.Message)
	require.Equal(t, models.ValidationErrors{{Field: "name", Message: "is required"}}, detail.Details)
}

func newTestRouter(jwtService *auth.JWTService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	m := NewAuthMiddleware(jwtService)
	r := gin.New()
	r.Use(RequestLogger(zerolog.Nop()))
	r.GET("/me", m.JWTAuth(), func(c *gin.Context) {
		p, ok := GetPrincipal(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"userId": p.UserID})
	})
	r.GET("/teachers-only", m.JWTAuth(), m.RoleRequired(models.RoleTeacher), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	jwtService := auth.NewJWTService(auth.JWTConfig{SecretKey: "k", AccessTokenExp: time.Hour, TokenIssuer: "test"})
	router := newTestRouter(jwtService)

	studentToken, _, err := jwtService.GenerateAccessToken(&models.User{ID: 7, Username: "s", RoleType: models.RoleStudent})
	require.NoError(t, err)
	teacherToken, _, err := jwtService.GenerateAccessToken(&models.User{ID: 8, Username: "t", RoleType: models.RoleTeacher})
	require.NoError(t, err)

	serve := func(path, header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusUnauthorized, serve("/me", "").Code)
	require.Equal(t, http.StatusUnauthorized, serve("/me", "Bearer ").Code)
	require.Equal(t, http.StatusUnauthorized, serve("/me", "Bearer garbage").Code)

	rec := serve("/me", "Bearer "+studentToken)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"userId":7}`, rec.Body.String())
	require.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	require.Equal(t, http.StatusForbidden, serve("/teachers-only", "Bearer "+studentToken).Code)
	require.Equal(t, http.StatusNoContent, serve("/teachers-only", "Bearer "+teacherToken).Code)
}

func TestBindJSONUsesGradeValidator(t *testing.T) {
	gin.SetMode(gin.TestMode)
	RegisterValidators()

	r := gin.New()
	r.POST("/grades", func(c *gin.Context) {
		var req dto.GradeRequest
		if !BindJSON(c, &req) {
			return
		}
		c.Status(http.StatusNoContent)
	})

	for body, want := range map[string]int{
		`{"value":"7.5"}`:   http.StatusNoContent,
		`{"value":"7,25"}`:  http.StatusNoContent,
		`{"value":"12"}`:    http.StatusBadRequest,
		`{"value":"1.234"}`: http.StatusBadRequest,
		`{}`:                http.StatusBadRequest,
	} {
		req := httptest.NewRequest(http.MethodPost, "/grades", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		require.Equalf(t, want, rec.Code, "body %s", body)
	}
}
