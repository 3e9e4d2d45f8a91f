package handlers

import (
	"net/http"

	"site-defects/internal/middleware"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ShowSession(c *gin.Context) {
	sc := middleware.Session(c)
	c.JSON(http.StatusOK, gin.H{
		"user_id":           sc.UserID,
		"active_project_id": sc.ActiveProjectID,
	})
}

type activeProjectForm struct {
	ProjectID int `json:"project_id"`
}

// SelectProject makes a project the one the following requests work in.
// The project must exist on the backend.
func (h *Handler) SelectProject(c *gin.Context) {
	var form activeProjectForm
	if err := c.ShouldBindJSON(&form); err != nil || form.ProjectID <= 0 {
		badRequest(c, "project_id is required")
		return
	}
	p, err := h.backend.GetProject(c.Request.Context(), form.ProjectID)
	if err != nil {
		h.renderError(c, err, nil)
		return
	}
	if err := middleware.SetActiveProject(c, p.ID); err != nil {
		h.renderError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"active_project_id": p.ID, "project": p})
}
