package controller

import (
	"lingua_edu_backend/internal/service"
	"lingua_edu_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type StatsController struct {
	StatsService *service.StatsService
}

func NewStatsController(statsService *service.StatsService) *StatsController {
	return &StatsController{StatsService: statsService}
}

// Leaderboard godoc
// @Summary Points leaderboard
// @Description Top users by total points, ties broken by earlier registration
// @Tags stats
// @Produce json
// @Param limit query int false "Number of entries" default(20)
// @Success 200 {object} util.Response{data=[]service.LeaderboardEntry}
// @Router /leaderboard [get]
func (ctl *StatsController) Leaderboard(c *gin.Context) {
	limit := int(util.MustParseUint(c.DefaultQuery("limit", "20")))

	entries, err := ctl.StatsService.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		util.LogInternalError(c, err)
		return
	}

	util.Success(c, entries)
}

// MyStats godoc
// @Summary The caller's progress panel
// @Tags stats
// @Produce json
// @Success 200 {object} util.Response{data=service.UserStats}
// @Security BearerAuth
// @Router /stats [get]
func (ctl *StatsController) MyStats(c *gin.Context) {
	claims := util.GetUserFromContext(c)
	if claims == nil {
		util.Unauthorized(c)
		return
	}

	stats, err := ctl.StatsService.Stats(c.Request.Context(), claims.UserID)
	if err != nil {
		util.LogInternalError(c, err)
		return
	}

	util.Success(c, stats)
}
