package backend

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"site-defects/internal/models"
)

func itoa(v int) string { return strconv.Itoa(v) }

func contentTypeOf(p models.PhotoUpload) string {
	if p.ContentType != "" {
		return p.ContentType
	}
	if len(p.Data) > 0 {
		return http.DetectContentType(p.Data)
	}
	return "application/octet-stream"
}

// wireTime accepts the timestamp shapes the backend emits, with or without
// a zone offset.
type wireTime struct{ time.Time }

var wireTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	models.DateLayout,
}

func (t *wireTime) UnmarshalJSON(b []byte) error {
	s := string(bytes.TrimSpace(b))
	if s == "null" || s == `""` {
		t.Time = time.Time{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Time = time.Time{}
		return nil
	}
	raw = strings.TrimSpace(raw)
	for _, layout := range wireTimeLayouts {
		var (
			v   time.Time
			err error
		)
		if strings.Contains(layout, "Z07") {
			v, err = time.Parse(layout, raw)
		} else {
			v, err = time.ParseInLocation(layout, raw, time.Local)
		}
		if err == nil {
			t.Time = v
			return nil
		}
	}
	t.Time = time.Time{}
	return nil
}

func datePtrString(d *models.Date) *string {
	if d == nil || d.IsZero() {
		return nil
	}
	s := d.String()
	return &s
}

type markWire struct {
	ID           int     `json:"defect_mark_id"`
	DefectID     int     `json:"defect_id"`
	DefectFormID int     `json:"defect_form_id"`
	BaseMapID    int     `json:"base_map_id"`
	X            float64 `json:"coordinate_x"`
	Y            float64 `json:"coordinate_y"`
	Scale        float64 `json:"scale"`
}

func (m markWire) model() models.DefectMark {
	id := m.DefectID
	if id == 0 {
		id = m.DefectFormID
	}
	scale := m.Scale
	if scale == 0 {
		scale = models.DefaultMarkScale
	}
	return models.DefectMark{
		ID:        m.ID,
		DefectID:  id,
		BaseMapID: m.BaseMapID,
		X:         int(m.X),
		Y:         int(m.Y),
		Scale:     scale,
	}
}

type improvementWire struct {
	ID              int         `json:"improvement_id"`
	DefectID        int         `json:"defect_id"`
	Content         string      `json:"content"`
	ImprovementDate models.Date `json:"improvement_date"`
	CreatedAt       wireTime    `json:"created_at"`
}

func (w improvementWire) model() models.Improvement {
	return models.Improvement{
		ID:              w.ID,
		DefectID:        w.DefectID,
		Content:         w.Content,
		ImprovementDate: w.ImprovementDate,
		CreatedAt:       w.CreatedAt.Time,
	}
}

type defectWire struct {
	ID                 int                       `json:"defect_id"`
	ProjectID          int                       `json:"project_id"`
	SubmittedID        int                       `json:"submitted_id"`
	Description        string                    `json:"defect_description"`
	CategoryID         *int                      `json:"defect_category_id"`
	AssignedVendorID   *int                      `json:"assigned_vendor_id"`
	PreviousDefectID   *int                      `json:"previous_defect_id"`
	Status             models.Status             `json:"status"`
	ExpectedCompletion models.ExpectedCompletion `json:"expected_completion_day"`
	UniqueCode         string                    `json:"unique_code"`
	CreatedAt          wireTime                  `json:"created_at"`
	UpdatedAt          wireTime                  `json:"updated_at"`

	CategoryName       string           `json:"category_name"`
	AssignedVendorName string           `json:"assigned_vendor_name"`
	Category           *models.Category `json:"defect_category"`
	Vendor             *models.Vendor   `json:"assigned_vendor"`

	Marks        []markWire        `json:"defect_marks"`
	Photos       []models.Photo    `json:"photos"`
	Improvements []improvementWire `json:"improvements"`
}

func (w defectWire) model() models.Defect {
	d := models.Defect{
		ID:                 w.ID,
		ProjectID:          w.ProjectID,
		SubmittedBy:        w.SubmittedID,
		Description:        w.Description,
		CategoryID:         w.CategoryID,
		AssignedVendorID:   w.AssignedVendorID,
		PreviousDefectID:   w.PreviousDefectID,
		Status:             w.Status,
		ExpectedCompletion: w.ExpectedCompletion.Resolve(w.CreatedAt.Time),
		UniqueCode:         w.UniqueCode,
		CreatedAt:          w.CreatedAt.Time,
		UpdatedAt:          w.UpdatedAt.Time,
		CategoryName:       w.CategoryName,
		VendorName:         w.AssignedVendorName,
		Photos:             w.Photos,
	}
	if d.CategoryName == "" && w.Category != nil {
		d.CategoryName = w.Category.Name
	}
	if d.VendorName == "" && w.Vendor != nil {
		d.VendorName = w.Vendor.Name
	}
	for _, m := range w.Marks {
		d.Marks = append(d.Marks, m.model())
	}
	for _, i := range w.Improvements {
		d.Improvements = append(d.Improvements, i.model())
	}
	return d
}

type projectWire struct {
	ID           int      `json:"project_id"`
	Name         string   `json:"project_name"`
	CreatedAt    wireTime `json:"created_at"`
	BaseMapCount int      `json:"base_map_count"`
	DefectCount  int      `json:"defect_count"`
	UserCount    int      `json:"user_count"`
}

func (w projectWire) model() models.Project {
	return models.Project{ID: w.ID, Name: w.Name, CreatedAt: w.CreatedAt.Time}
}

func (w projectWire) withCounts() models.ProjectWithCounts {
	return models.ProjectWithCounts{
		Project:      w.model(),
		BaseMapCount: w.BaseMapCount,
		DefectCount:  w.DefectCount,
		UserCount:    w.UserCount,
	}
}
