package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"site-defects/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// statusFor maps an error kind to the response status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, models.ErrReference):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrNetwork):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// renderError writes err as JSON. A partial failure is reported as 207 with
// what was saved, so the caller can retry or clean up.
func (h *Handler) renderError(c *gin.Context, err error, data gin.H) {
	if pf, ok := models.AsPartialFailure(err); ok {
		body := gin.H{
			"error":          pf.Error(),
			"partial":        true,
			"workflow":       pf.Workflow,
			"completed":      pf.Completed,
			"failed_step":    pf.Step,
			"defect_id":      pf.DefectID,
			"improvement_id": pf.ImprovementID,
		}
		for k, v := range data {
			body[k] = v
		}
		c.JSON(http.StatusMultiStatus, body)
		return
	}

	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// pathID reads a positive integer path parameter, answering 400 otherwise.
func pathID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}
