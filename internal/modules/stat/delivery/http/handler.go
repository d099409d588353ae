package handler

import (
	"net/http"

	"anoa.com/estatecrm/internal/entity"
	statDto "anoa.com/estatecrm/internal/modules/stat/dto"
	stat "anoa.com/estatecrm/internal/modules/stat/service"
	"anoa.com/estatecrm/pkg/response"
	"anoa.com/estatecrm/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type StatHandler struct {
	cache stat.Cache
}

func NewStatHandler(cache stat.Cache) *StatHandler {
	return &StatHandler{cache: cache}
}

func (h *StatHandler) GetMine(c *gin.Context) {
	agentID, err := response.GetSubjectID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	h.respond(c, agentID)
}

func (h *StatHandler) GetByAgent(c *gin.Context) {
	agentID, err := response.ParseUUIDParam(c, "agent_id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	h.respond(c, agentID)
}

func (h *StatHandler) respond(c *gin.Context, agentID uuid.UUID) {
	var query statDto.StatisticsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	stats, err := h.cache.Get(c.Request.Context(), agentID, query.Force)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": toResponse(stats)})
}

func toResponse(s *entity.AgentStatistics) statDto.AgentStatisticsResponse {
	return statDto.AgentStatisticsResponse{
		AgentID:           s.AgentID,
		TotalListings:     s.TotalListings,
		ActiveListings:    s.ActiveListings,
		SoldListings:      s.SoldListings,
		PendingListings:   s.PendingListings,
		AvgDaysOnMarket:   s.AvgDaysOnMarket,
		TotalLeads:        s.TotalLeads,
		ConvertedLeads:    s.ConvertedLeads,
		ConversionRate:    s.ConversionRate,
		TotalTransactions: s.TotalTransactions,
		TotalVolume:       s.TotalVolume,
		YTDVolume:         s.YTDVolume,
		LastCalculated:    s.LastCalculated,
	}
}
