package handlers

import (
	"fmt"
	"net/http"

	"site-defects/internal/dashboard"
	"site-defects/internal/middleware"

	"github.com/gin-gonic/gin"
)

//
// DASHBOARD
//

func (h *Handler) Dashboard(c *gin.Context) {
	projectID := middleware.Session(c).ActiveProjectID
	defects, err := h.projectDefects(c.Request.Context(), projectID)
	if err != nil {
		h.renderError(c, err, nil)
		return
	}
	filter, err := dashboard.ParseFilter(c.Query)
	if err != nil {
		h.renderError(c, err, nil)
		return
	}
	today := h.workflow.Today()
	defects = dashboard.FilterDefects(defects, filter, today)
	c.JSON(http.StatusOK, gin.H{
		"project_id": projectID,
		"summary":    dashboard.Summarize(defects, today),
	})
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (h *Handler) ExportDefects(c *gin.Context) {
	projectID := middleware.Session(c).ActiveProjectID
	defects, err := h.projectDefects(c.Request.Context(), projectID)
	if err != nil {
		h.renderError(c, err, nil)
		return
	}
	filter, err := dashboard.ParseFilter(c.Query)
	if err != nil {
		h.renderError(c, err, nil)
		return
	}
	today := h.workflow.Today()
	defects = dashboard.FilterDefects(defects, filter, today)
	dashboard.SortByUrgency(defects, today)

	data, err := dashboard.ExportXLSX(defects, today)
	if err != nil {
		h.renderError(c, err, nil)
		return
	}
	name := fmt.Sprintf("defects_%d_%s.xlsx", projectID, today.Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, xlsxContentType, data)
}
