package response

import (
	"net/http"

	"anoa.com/estatecrm/pkg/apperror"
	"anoa.com/estatecrm/pkg/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Context keys set by the auth middleware.
const (
	SubjectIDKey = "subject_id"
	RoleKey      = "role"
)

// GetSubjectID retrieves the authenticated subject ID from the context
func GetSubjectID(c *gin.Context) (uuid.UUID, error) {
	raw, exists := c.Get(SubjectIDKey)
	if !exists {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	str, ok := raw.(string)
	if !ok {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	subjectID, err := uuid.Parse(str)
	if err != nil {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	return subjectID, nil
}

// ParseUUIDParam reads a path parameter as a UUID.
func ParseUUIDParam(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperror.Validation("invalid " + name)
	}
	return id, nil
}

// ResponseError standardized error response
func ResponseError(c *gin.Context, err error) {
	code := apperror.MapErrorToStatus(err)

	if code >= http.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Int("status", code),
			zap.Error(err),
		)
	}

	c.JSON(code, dto.ErrorResponse{Error: err.Error()})
}
