package handlers

import (
	"time"

	"site-defects/internal/models"
	"site-defects/internal/workflow"
)

// defectView adds the derived bands the UI shows next to a defect.
type defectView struct {
	*models.Defect
	StatusName     string         `json:"status_name"`
	StatusDisplay  string         `json:"status_display"`
	Urgency        models.Urgency `json:"urgency"`
	UrgencyDisplay string         `json:"urgency_display"`
	DaysRemaining  *int           `json:"days_remaining"`
	AllowedEvents  []models.Event `json:"allowed_events"`
}

func viewOf(d *models.Defect, today time.Time) defectView {
	u := d.Urgency(today)
	events := models.AllowedEvents(d.Status)
	if events == nil {
		events = []models.Event{}
	}
	return defectView{
		Defect:         d,
		StatusName:     d.Status.String(),
		StatusDisplay:  d.Status.Display(),
		Urgency:        u,
		UrgencyDisplay: u.Display(),
		DaysRemaining:  d.DaysRemaining(today),
		AllowedEvents:  events,
	}
}

func viewsOf(defects []models.Defect, today time.Time) []defectView {
	out := make([]defectView, 0, len(defects))
	for i := range defects {
		out = append(out, viewOf(&defects[i], today))
	}
	return out
}

// repairView is what a vendor sees through a repair link. It leaves out
// the unique code and internal ids.
type repairView struct {
	Description        string               `json:"defect_description"`
	StatusDisplay      string               `json:"status_display"`
	UrgencyDisplay     string               `json:"urgency_display"`
	ExpectedCompletion *models.Date         `json:"expected_completion_day"`
	CategoryName       string               `json:"category_name,omitempty"`
	VendorName         string               `json:"assigned_vendor_name,omitempty"`
	Photos             []models.Photo       `json:"photos"`
	Improvements       []models.Improvement `json:"improvements"`
	Repairable         bool                 `json:"repairable"`
}

func repairViewOf(d *models.Defect, today time.Time) repairView {
	photos := d.DefectPhotos()
	if photos == nil {
		photos = []models.Photo{}
	}
	imps := d.Improvements
	if imps == nil {
		imps = []models.Improvement{}
	}
	return repairView{
		Description:        d.Description,
		StatusDisplay:      d.Status.Display(),
		UrgencyDisplay:     d.Urgency(today).Display(),
		ExpectedCompletion: d.ExpectedCompletion,
		CategoryName:       d.CategoryName,
		VendorName:         d.VendorName,
		Photos:             photos,
		Improvements:       imps,
		Repairable:         workflow.IsRepairable(d),
	}
}
