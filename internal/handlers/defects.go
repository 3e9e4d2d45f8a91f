package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"site-defects/internal/backend"
	"site-defects/internal/dashboard"
	"site-defects/internal/middleware"
	"site-defects/internal/models"
	"site-defects/internal/workflow"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// IdempotencyHeader names a one-shot submission; resending the same key
// resumes the earlier submission.
const IdempotencyHeader = "Idempotency-Key"

//
// DEFECT LIST
//

// projectDefects loads the active project's defects with vendor and
// category names attached.
func (h *Handler) projectDefects(ctx context.Context, projectID int) ([]models.Defect, error) {
	defects, err := h.backend.ListDefects(ctx, projectID)
	if err != nil {
		return nil, err
	}
	vendors, err := h.backend.ListProjectVendors(ctx, projectID)
	if err != nil {
		return nil, err
	}
	cats, err := h.backend.ListProjectCategories(ctx, projectID)
	if err != nil {
		return nil, err
	}
	dashboard.AttachNames(defects, vendors, cats)
	return defects, nil
}

func (h *Handler) ListDefects(c *gin.Context) {
	filter, err := dashboard.ParseFilter(c.Query)
	if err != nil {
		h.renderError(c, err, nil)
		return
	}

	defects, err := h.projectDefects(c.Request.Context(), middleware.Session(c).ActiveProjectID)
	if err != nil {
		h.renderError(c, err, nil)
		return
	}

	today := h.workflow.Today()
	months := dashboard.Months(defects)
	defects = dashboard.FilterDefects(defects, filter, today)
	if c.Query("sort") == "urgency" {
		dashboard.SortByUrgency(defects, today)
	}

	c.JSON(http.StatusOK, gin.H{
		"defects": viewsOf(defects, today),
		"months":  months,
		"total":   len(defects),
	})
}

//
// DEFECT DETAIL
//

// scopedDefect loads the defect named by the path and answers 404 unless
// it belongs to the active project.
func (h *Handler) scopedDefect(c *gin.Context, q backend.DefectQuery) (*models.Defect, bool) {
	id, ok := pathID(c, "id")
	if !ok {
		return nil, false
	}
	d, err := h.backend.GetDefect(c.Request.Context(), id, q)
	if err != nil {
		h.renderError(c, err, nil)
		return nil, false
	}
	if d.ProjectID != middleware.Session(c).ActiveProjectID {
		h.renderError(c, fmt.Errorf("defect %d: %w", id, models.ErrNotFound), nil)
		return nil, false
	}
	return d, true
}

func (h *Handler) GetDefect(c *gin.Context) {
	d, ok := h.scopedDefect(c, backend.FullDefect)
	if !ok {
		return
	}
	h.resolvePhotoURLs(d)
	c.JSON(http.StatusOK, viewOf(d, h.workflow.Today()))
}

func (h *Handler) resolvePhotoURLs(d *models.Defect) {
	for i := range d.Photos {
		if d.Photos[i].ImageURL == "" {
			d.Photos[i].ImageURL = h.backend.AssetURL(d.Photos[i].ImagePath)
		}
	}
}

func (h *Handler) DeleteDefect(c *gin.Context) {
	d, ok := h.scopedDefect(c, backend.DefectQuery{})
	if !ok {
		return
	}
	if err := h.workflow.Delete(c.Request.Context(), middleware.Session(c).UserID, d.ID); err != nil {
		h.renderError(c, err, nil)
		return
	}
	c.Status(http.StatusNoContent)
}

//
// ONE-SHOT SUBMISSION
//

// CreateDefect submits a whole defect form in one multipart request:
// details, an optional basemap mark and photos.
func (h *Handler) CreateDefect(c *gin.Context) {
	sc := middleware.Session(c)

	draft, err := formDraft(c, sc)
	if err != nil {
		h.renderError(c, err, nil)
		return
	}
	mark, err := formMark(c)
	if err != nil {
		h.renderError(c, err, nil)
		return
	}
	photos, err := formPhotos(c)
	if err != nil {
		h.renderError(c, err, nil)
		return
	}

	key := strings.TrimSpace(c.GetHeader(IdempotencyHeader))
	if key == "" {
		key = uuid.NewString()
	}

	res, err := h.workflow.SubmitDefect(c.Request.Context(), workflow.SubmitRequest{
		Key:    key,
		Draft:  draft,
		Mark:   mark,
		Photos: photos,
	})
	h.renderSubmit(c, key, res, err)
}

func (h *Handler) renderSubmit(c *gin.Context, key string, res *workflow.SubmitResult, err error) {
	if err != nil {
		var data gin.H
		if res != nil && res.Defect != nil {
			data = gin.H{"idempotency_key": key, "defect": viewOf(res.Defect, h.workflow.Today())}
		}
		h.renderError(c, err, data)
		return
	}
	status := http.StatusCreated
	if res.Resumed {
		status = http.StatusOK
	}
	photos := res.Photos
	if photos == nil {
		photos = []models.Photo{}
	}
	c.JSON(status, gin.H{
		"idempotency_key": key,
		"defect":          viewOf(res.Defect, h.workflow.Today()),
		"mark":            res.Mark,
		"photos":          photos,
		"resumed":         res.Resumed,
	})
}

func formDraft(c *gin.Context, sc middleware.SessionContext) (models.DefectDraft, error) {
	d := models.DefectDraft{
		ProjectID:   sc.ActiveProjectID,
		SubmittedBy: sc.UserID,
		Description: strings.TrimSpace(c.PostForm("defect_description")),
	}
	var err error
	if d.CategoryID, err = formInt(c, "defect_category_id"); err != nil {
		return d, err
	}
	if d.AssignedVendorID, err = formInt(c, "assigned_vendor_id"); err != nil {
		return d, err
	}
	if d.PreviousDefectID, err = formInt(c, "previous_defect_id"); err != nil {
		return d, err
	}
	if raw := strings.TrimSpace(c.PostForm("expected_completion_day")); raw != "" {
		date, err := models.ParseDate(raw)
		if err != nil {
			return d, err
		}
		d.ExpectedCompletion = &date
	}
	return d, nil
}

// formMark reads the optional placement. No base_map_id means no mark.
func formMark(c *gin.Context) (*workflow.MarkInput, error) {
	baseMap, err := formInt(c, "base_map_id")
	if err != nil || baseMap == nil {
		return nil, err
	}
	m := &workflow.MarkInput{BaseMapID: *baseMap}
	x, err := formInt(c, "coordinate_x")
	if err != nil {
		return nil, err
	}
	y, err := formInt(c, "coordinate_y")
	if err != nil {
		return nil, err
	}
	if x == nil || y == nil {
		return nil, fmt.Errorf("%w: coordinate_x and coordinate_y are required with base_map_id", models.ErrValidation)
	}
	m.X, m.Y = *x, *y
	if raw := strings.TrimSpace(c.PostForm("scale")); raw != "" {
		if m.Scale, err = strconv.ParseFloat(raw, 64); err != nil {
			return nil, fmt.Errorf("%w: scale must be a number", models.ErrValidation)
		}
	}
	return m, nil
}

func formInt(c *gin.Context, key string) (*int, error) {
	raw := strings.TrimSpace(c.PostForm(key))
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be an integer", models.ErrValidation, key)
	}
	return &n, nil
}

//
// REVIEW
//

// Transition returns the handler applying ev to the defect in the path.
func (h *Handler) Transition(ev models.Event) gin.HandlerFunc {
	return func(c *gin.Context) {
		cur, ok := h.scopedDefect(c, backend.DefectQuery{})
		if !ok {
			return
		}
		d, err := h.workflow.Apply(c.Request.Context(), middleware.Session(c).UserID, cur.ID, ev)
		if err != nil {
			h.renderError(c, err, nil)
			return
		}
		c.JSON(http.StatusOK, viewOf(d, h.workflow.Today()))
	}
}
