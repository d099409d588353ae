package handler

import (
	"net/http"

	"anoa.com/estatecrm/internal/entity"
	engagementDto "anoa.com/estatecrm/internal/modules/engagement/dto"
	engagement "anoa.com/estatecrm/internal/modules/engagement/service"
	milestone "anoa.com/estatecrm/internal/modules/milestone/service"
	"anoa.com/estatecrm/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type EngagementHandler struct {
	service    engagement.Service
	milestones milestone.Tracker
	sweeper    *engagement.Sweeper
}

func NewEngagementHandler(service engagement.Service, milestones milestone.Tracker, sweeper *engagement.Sweeper) *EngagementHandler {
	return &EngagementHandler{
		service:    service,
		milestones: milestones,
		sweeper:    sweeper,
	}
}

func (h *EngagementHandler) GetMine(c *gin.Context) {
	subjectID, err := response.GetSubjectID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	h.respondWithSnapshot(c, subjectID)
}

func (h *EngagementHandler) GetBySubject(c *gin.Context) {
	subjectID, err := response.ParseUUIDParam(c, "subject_id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	h.respondWithSnapshot(c, subjectID)
}

func (h *EngagementHandler) Recompute(c *gin.Context) {
	subjectID, err := response.ParseUUIDParam(c, "subject_id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	ctx := c.Request.Context()
	snapshot, err := h.service.Recompute(ctx, subjectID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	crossed, err := h.milestones.Check(ctx, subjectID, snapshot.TotalScore)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	flags, err := h.milestones.List(ctx, subjectID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	names := make([]string, 0, len(crossed))
	for _, m := range crossed {
		names = append(names, m.Name)
	}

	c.JSON(http.StatusOK, engagementDto.RecomputeResponse{
		SnapshotResponse: toSnapshotResponse(snapshot, flags),
		NewMilestones:    names,
	})
}

func (h *EngagementHandler) Sweep(c *gin.Context) {
	result, err := h.sweeper.Run(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (h *EngagementHandler) respondWithSnapshot(c *gin.Context, subjectID uuid.UUID) {
	ctx := c.Request.Context()

	snapshot, err := h.service.GetSnapshot(ctx, subjectID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	flags, err := h.milestones.List(ctx, subjectID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, toSnapshotResponse(snapshot, flags))
}

func toSnapshotResponse(snapshot *entity.EngagementSnapshot, flags []entity.MilestoneFlag) engagementDto.SnapshotResponse {
	milestones := make([]engagementDto.MilestoneResponse, 0, len(flags))
	for _, f := range flags {
		milestones = append(milestones, engagementDto.MilestoneResponse{
			Name:      f.MilestoneName,
			Score:     f.Score,
			AwardedAt: f.AwardedAt,
		})
	}

	return engagementDto.SnapshotResponse{
		SubjectID:   snapshot.SubjectID,
		TotalScore:  snapshot.TotalScore,
		Level:       snapshot.Level,
		LastUpdated: snapshot.LastUpdated,
		Status:      engagement.GetEngagementStatus(snapshot.TotalScore),
		Milestones:  milestones,
	}
}
