package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/h77compass/first-repo/services"
	"github.com/h77compass/first-repo/utils"
)

// StatsController provides blog statistics such as post counts and total views.
type StatsController struct {
	query *services.QueryService
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(query *services.QueryService) *StatsController {
	return &StatsController{query: query}
}

// GetStats returns aggregate statistics for the blog.
func (s *StatsController) GetStats(ctx *gin.Context) {
	st, err := s.query.Stats(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err, "failed to load stats")
		return
	}
	utils.Success(ctx, st)
}
