package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"site-defects/internal/backend"
	"site-defects/internal/models"
	"site-defects/internal/workflow"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
)

//
// VENDOR REPAIR LINK (no login, the code is the credential)
//

func (h *Handler) ShowRepair(c *gin.Context) {
	code := strings.TrimSpace(c.Param("code"))
	d, err := h.backend.DefectByCode(c.Request.Context(), code)
	if err != nil {
		h.renderError(c, err, nil)
		return
	}
	// the by-code lookup carries no relations
	full, err := h.backend.GetDefect(c.Request.Context(), d.ID, backend.FullDefect)
	if err != nil {
		h.renderError(c, err, nil)
		return
	}
	h.resolvePhotoURLs(full)
	c.JSON(http.StatusOK, repairViewOf(full, h.workflow.Today()))
}

// SubmitRepair files the vendor's report and moves the defect to pending
// confirmation. An empty improvement_date means today.
func (h *Handler) SubmitRepair(c *gin.Context) {
	req := workflow.RepairRequest{
		Code:    strings.TrimSpace(c.Param("code")),
		Content: strings.TrimSpace(c.PostForm("content")),
	}
	if raw := strings.TrimSpace(c.PostForm("improvement_date")); raw != "" {
		date, err := models.ParseDate(raw)
		if err != nil {
			h.renderError(c, err, nil)
			return
		}
		req.ImprovementDate = date
	} else {
		req.ImprovementDate = models.DateOf(h.workflow.Today())
	}
	photos, err := formPhotos(c)
	if err != nil {
		h.renderError(c, err, nil)
		return
	}
	req.Photos = photos

	res, err := h.workflow.SubmitRepairAndAdvance(c.Request.Context(), req)
	if err != nil {
		h.renderError(c, err, nil)
		return
	}
	out := []models.Photo{}
	out = append(out, res.Photos...)
	c.JSON(http.StatusCreated, gin.H{
		"improvement": res.Improvement,
		"photos":      out,
		"status":      res.Defect.Status.Display(),
	})
}

//
// QR CODE
//

const qrSize = 256

// RepairLink is the vendor-facing URL of a defect.
func (h *Handler) RepairLink(code string) string {
	return fmt.Sprintf("%s/repair/%s", strings.TrimRight(h.repairURL, "/"), url.PathEscape(code))
}

// DefectQRCode renders the repair link of a defect as a PNG, for printing
// on site.
func (h *Handler) DefectQRCode(c *gin.Context) {
	d, ok := h.scopedDefect(c, backend.DefectQuery{})
	if !ok {
		return
	}
	if d.UniqueCode == "" {
		h.renderError(c, fmt.Errorf("defect %d has no unique code: %w", d.ID, models.ErrNotFound), nil)
		return
	}
	png, err := qrcode.Encode(h.RepairLink(d.UniqueCode), qrcode.Medium, qrSize)
	if err != nil {
		h.renderError(c, err, nil)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}
