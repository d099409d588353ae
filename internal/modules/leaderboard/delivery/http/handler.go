package http

import (
	"net/http"
	"strconv"

	leaderboardService "anoa.com/estatecrm/internal/modules/leaderboard/service"
	"anoa.com/estatecrm/pkg/response"
	"github.com/gin-gonic/gin"
)

type LeaderboardHandler struct {
	service leaderboardService.LeaderboardService
}

func NewLeaderboardHandler(service leaderboardService.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{service: service}
}

func (h *LeaderboardHandler) GetLeaderboard(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", "10")
	limit, _ := strconv.Atoi(limitStr)

	leaderboard, err := h.service.GetLeaderboard(c.Request.Context(), limit)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": leaderboard})
}
