package handlers

import (
	"net/http"
	"strconv"

	"site-defects/internal/backend"
	"site-defects/internal/models"

	"github.com/gin-gonic/gin"
)

// ListAuditLogs shows the latest audit entries across all defects.
func (h *Handler) ListAuditLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "200"))
	logs, err := h.audit.Recent(c.Request.Context(), limit)
	if err != nil {
		h.renderError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

func (h *Handler) DefectHistory(c *gin.Context) {
	d, ok := h.scopedDefect(c, backend.DefectQuery{})
	if !ok {
		return
	}
	logs, err := h.audit.History(c.Request.Context(), models.AuditEntityDefect, d.ID)
	if err != nil {
		h.renderError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"defect_id": d.ID, "history": logs})
}
