package handler

import (
	"errors"
	"net/http"

	activityDto "anoa.com/estatecrm/internal/modules/activity/dto"
	activity "anoa.com/estatecrm/internal/modules/activity/service"
	engagement "anoa.com/estatecrm/internal/modules/engagement/service"
	"anoa.com/estatecrm/pkg/apperror"
	"anoa.com/estatecrm/pkg/response"
	"anoa.com/estatecrm/pkg/validator"
	"github.com/gin-gonic/gin"
)

type ActivityHandler struct {
	service activity.Service
}

func NewActivityHandler(service activity.Service) *ActivityHandler {
	return &ActivityHandler{service: service}
}

func (h *ActivityHandler) Record(c *gin.Context) {
	var req activityDto.RecordActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	subjectID, err := response.GetSubjectID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	in := activity.RecordInput{
		SubjectID:  subjectID,
		Action:     req.Action,
		ObjectID:   req.ObjectID,
		ObjectType: req.ObjectType,
		Metadata:   req.Metadata,
	}
	if ip := c.ClientIP(); ip != "" {
		in.IPAddress = &ip
	}
	if ua := c.Request.UserAgent(); ua != "" {
		in.UserAgent = &ua
	}

	result, err := h.service.Record(c.Request.Context(), in)
	if err != nil {
		// Tracking is best-effort: a storage outage drops the event without
		// failing the client's request.
		if errors.Is(err, apperror.ErrStorage) {
			c.JSON(http.StatusAccepted, activityDto.RecordActivityResponse{
				Recorded:   false,
				Milestones: []string{},
			})
			return
		}
		response.ResponseError(c, err)
		return
	}

	resp := activityDto.RecordActivityResponse{
		Recorded:   true,
		ID:         result.ID,
		Points:     result.Points,
		Milestones: make([]string, 0, len(result.Milestones)),
	}
	if result.Snapshot != nil {
		resp.Engagement = &activityDto.EngagementSummary{
			TotalScore: result.Snapshot.TotalScore,
			Level:      result.Snapshot.Level,
			Status:     engagement.GetEngagementStatus(result.Snapshot.TotalScore),
		}
	}
	for _, m := range result.Milestones {
		resp.Milestones = append(resp.Milestones, m.Name)
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *ActivityHandler) ListMine(c *gin.Context) {
	var query activityDto.ActivityQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	subjectID, err := response.GetSubjectID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	summary, err := h.service.Query(c.Request.Context(), subjectID, query.WindowDays)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	resp := activityDto.ActivitySummaryResponse{
		SubjectID:  summary.SubjectID,
		WindowDays: summary.WindowDays,
		Since:      summary.Since,
		Total:      summary.Total,
		ByAction:   make([]activityDto.ActionSubtotalResponse, 0, len(summary.ByAction)),
		Activities: make([]activityDto.ActivityResponse, 0, len(summary.Activities)),
	}
	for _, sub := range summary.ByAction {
		resp.ByAction = append(resp.ByAction, activityDto.ActionSubtotalResponse{
			Action: sub.Action,
			Count:  sub.Count,
			Points: sub.Points,
		})
	}
	for _, a := range summary.Activities {
		resp.Activities = append(resp.Activities, activityDto.ActivityResponse{
			ID:         a.ID,
			Action:     a.Action,
			ObjectID:   a.ObjectID,
			ObjectType: a.ObjectType,
			Points:     a.Points,
			Metadata:   a.Metadata,
			CreatedAt:  a.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, resp)
}
