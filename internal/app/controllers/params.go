// Package controllers handles HTTP request handling
package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	appauth "github.com/yigit/studentgrades/internal/app/auth"
	"github.com/yigit/studentgrades/internal/app/models/dto"
	"github.com/yigit/studentgrades/internal/middleware"
)

// pathID parses a positive identifier from the named path parameter,
// answering 400 when it is malformed
func pathID[ID ~int64](ctx *gin.Context, name string) (ID, bool) {
	raw := ctx.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid "+name).
			WithField(name).
			WithDetails("must be a positive integer, got " + strconv.Quote(raw))
		ctx.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return 0, false
	}
	return ID(id), true
}

// principal returns the authenticated caller or answers 401
func principal(ctx *gin.Context) (appauth.Principal, bool) {
	p, found := middleware.GetPrincipal(ctx)
	if !found {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
	}
	return p, found
}

func ok(ctx *gin.Context, data interface{}, message string) {
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(data, message))
}

func created(ctx *gin.Context, data interface{}, message string) {
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(data, message))
}
