package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"site-defects/internal/middleware"
	"site-defects/internal/models"
	"site-defects/internal/workflow"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//
// DEFECT DRAFT (multi-step form)
//

func (h *Handler) ShowDraft(c *gin.Context) {
	st := middleware.LoadDraft(c)
	// staged photos expire on their own; report what is still there
	if n, err := h.drafts.Count(c.Request.Context(), st.Key); err != nil {
		h.log.Warn("draft photos not counted", zap.Error(err))
	} else {
		st.PhotoCount = n
	}
	if err := middleware.SaveDraft(c, st); err != nil {
		h.renderError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) PutDraftDetails(c *gin.Context) {
	var details middleware.DraftDetails
	if err := c.ShouldBindJSON(&details); err != nil {
		badRequest(c, "invalid body")
		return
	}
	details.Description = strings.TrimSpace(details.Description)
	if details.Description == "" {
		badRequest(c, "defect_description is required")
		return
	}

	st := middleware.LoadDraft(c)
	st.Details = &details
	if err := middleware.SaveDraft(c, st); err != nil {
		h.renderError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) PutDraftLocation(c *gin.Context) {
	var loc middleware.DraftLocation
	if err := c.ShouldBindJSON(&loc); err != nil {
		badRequest(c, "invalid body")
		return
	}
	if _, err := models.NewDefectMark(1, loc.BaseMapID, loc.X, loc.Y, loc.Scale); err != nil {
		h.renderError(c, err, nil)
		return
	}

	st := middleware.LoadDraft(c)
	st.Location = &loc
	if err := middleware.SaveDraft(c, st); err != nil {
		h.renderError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, st)
}

// AddDraftPhotos stages photos for the draft. The bytes live in Redis; the
// session only keeps the count.
func (h *Handler) AddDraftPhotos(c *gin.Context) {
	photos, err := formPhotos(c)
	if err != nil {
		h.renderError(c, err, nil)
		return
	}
	if len(photos) == 0 {
		badRequest(c, "no photos in request")
		return
	}

	st := middleware.LoadDraft(c)
	ctx := c.Request.Context()
	for _, p := range photos {
		if len(p.Data) == 0 {
			badRequest(c, fmt.Sprintf("photo %q is empty", p.FileName))
			return
		}
		n, err := h.drafts.Add(ctx, st.Key, p)
		if err != nil {
			h.renderError(c, err, nil)
			return
		}
		st.PhotoCount = n
	}
	if err := middleware.SaveDraft(c, st); err != nil {
		h.renderError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, st)
}

// SubmitDraft sends the draft through the submission workflow. The draft
// is cleared only on full success; after a partial failure a resubmit
// resumes under the same key.
func (h *Handler) SubmitDraft(c *gin.Context) {
	sc := middleware.Session(c)
	st := middleware.LoadDraft(c)
	if st.Details == nil {
		badRequest(c, "draft has no details")
		return
	}

	ctx := c.Request.Context()
	photos, err := h.drafts.List(ctx, st.Key)
	if err != nil {
		h.renderError(c, err, nil)
		return
	}

	req := workflow.SubmitRequest{
		Key: st.Key,
		Draft: models.DefectDraft{
			ProjectID:          sc.ActiveProjectID,
			SubmittedBy:        sc.UserID,
			Description:        st.Details.Description,
			CategoryID:         st.Details.CategoryID,
			AssignedVendorID:   st.Details.AssignedVendorID,
			PreviousDefectID:   st.Details.PreviousDefectID,
			ExpectedCompletion: st.Details.ExpectedCompletion,
		},
		Photos: photos,
	}
	if loc := st.Location; loc != nil {
		req.Mark = &workflow.MarkInput{BaseMapID: loc.BaseMapID, X: loc.X, Y: loc.Y, Scale: loc.Scale}
	}

	res, err := h.workflow.SubmitDefect(ctx, req)
	if err == nil {
		h.discardDraft(c, st.Key)
	}
	h.renderSubmit(c, st.Key, res, err)
}

// DeleteDraft throws the draft away. A defect already filed by a partial
// submit stays; a new draft never resumes it.
func (h *Handler) DeleteDraft(c *gin.Context) {
	st := middleware.LoadDraft(c)
	h.workflow.Abandon(c.Request.Context(), st.Key)
	h.discardDraft(c, st.Key)
	c.Status(http.StatusNoContent)
}

func (h *Handler) discardDraft(c *gin.Context, key string) {
	if err := h.drafts.Clear(c.Request.Context(), key); err != nil {
		h.log.Warn("draft photos not cleared", zap.Error(err))
	}
	if err := middleware.ClearDraft(c); err != nil {
		h.log.Warn("draft session not cleared", zap.Error(err))
	}
}
