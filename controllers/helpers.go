package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/h77compass/first-repo/config"
	"github.com/h77compass/first-repo/middleware"
	"github.com/h77compass/first-repo/models"
	"github.com/h77compass/first-repo/services"
	"github.com/h77compass/first-repo/utils"
)

// parsePagination reads page and page_size, falling back to the configured
// page size and capping at services.MaxPageSize.
func parsePagination(pageStr, sizeStr string) (int, int) {
	page, _ := strconv.Atoi(pageStr)
	size, err := strconv.Atoi(sizeStr)
	if err != nil || size <= 0 {
		size = config.Get().PageSize
	}
	return services.NormalizePage(page, size)
}

// parseID reads a positive numeric path parameter.
func parseID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(ctx.Param(name)), 10, 64)
	if err != nil || id == 0 {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// currentAuthor records the caller's identity and returns it. It answers 401
// itself when no identity is present.
func currentAuthor(ctx *gin.Context, m *services.MutationService) (*models.User, bool) {
	uid, ok := middleware.UserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return nil, false
	}
	u, err := m.EnsureAuthor(ctx.Request.Context(), uid, middleware.Username(ctx))
	if err != nil {
		respondError(ctx, err, "failed to record author")
		return nil, false
	}
	return u, true
}

func isAdmin(ctx *gin.Context) bool {
	return config.Get().IsAdmin(middleware.Username(ctx))
}

// respondError maps service errors to status codes. fallback is the message
// for unexpected failures, which are logged.
func respondError(ctx *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrNotPublished):
		utils.Error(ctx, http.StatusNotFound, 40402, "post not found")
	case errors.Is(err, services.ErrNotFound):
		utils.Error(ctx, http.StatusNotFound, 40400, "not found")
	case errors.Is(err, services.ErrSlugTaken):
		utils.Error(ctx, http.StatusBadRequest, 40030, err.Error())
	case errors.Is(err, services.ErrValidation):
		utils.Error(ctx, http.StatusBadRequest, 40020, strings.TrimPrefix(err.Error(), services.ErrValidation.Error()+": "))
	case errors.Is(err, services.ErrForbidden):
		utils.Error(ctx, http.StatusForbidden, 40300, "forbidden")
	default:
		utils.Sugar.Errorw(fallback, "error", err, "path", ctx.Request.URL.Path)
		utils.Error(ctx, http.StatusInternalServerError, 50000, fallback)
	}
}
