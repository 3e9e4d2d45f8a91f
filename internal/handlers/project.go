package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"site-defects/internal/middleware"

	"github.com/gin-gonic/gin"
)

//
// PROJECTS
//

func (h *Handler) ListProjects(c *gin.Context) {
	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	projects, err := h.backend.ListProjects(c.Request.Context(), skip, limit)
	if err != nil {
		h.renderError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"projects":          projects,
		"active_project_id": middleware.Session(c).ActiveProjectID,
	})
}

type projectForm struct {
	Name string `json:"project_name"`
}

func (h *Handler) CreateProject(c *gin.Context) {
	var form projectForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, "invalid body")
		return
	}
	form.Name = strings.TrimSpace(form.Name)
	if form.Name == "" {
		badRequest(c, "project_name is required")
		return
	}

	p, err := h.backend.CreateProject(c.Request.Context(), form.Name)
	if err != nil {
		h.renderError(c, err, nil)
		return
	}
	c.JSON(http.StatusCreated, p)
}

//
// PROJECT DETAIL
//

func (h *Handler) GetProject(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, err := h.backend.GetProjectWithCounts(c.Request.Context(), id)
	if err != nil {
		h.renderError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) UpdateProject(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var form projectForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, "invalid body")
		return
	}
	form.Name = strings.TrimSpace(form.Name)
	if form.Name == "" {
		badRequest(c, "project_name is required")
		return
	}

	p, err := h.backend.UpdateProject(c.Request.Context(), id, form.Name)
	if err != nil {
		h.renderError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) DeleteProject(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.backend.DeleteProject(c.Request.Context(), id); err != nil {
		h.renderError(c, err, nil)
		return
	}
	if middleware.Session(c).ActiveProjectID == id {
		_ = middleware.SetActiveProject(c, 0)
	}
	c.Status(http.StatusNoContent)
}
