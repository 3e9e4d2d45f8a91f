package models

import (
	"fmt"
	"strings"
	"time"
)

// Defect is one recorded quality issue. Status only changes through
// Transition; urgency is derived on read and has no field.
type Defect struct {
	ID                 int           `json:"defect_id"`
	ProjectID          int           `json:"project_id"`
	SubmittedBy        int           `json:"submitted_id"`
	Description        string        `json:"defect_description"`
	CategoryID         *int          `json:"defect_category_id"`
	AssignedVendorID   *int          `json:"assigned_vendor_id"`
	PreviousDefectID   *int          `json:"previous_defect_id"`
	Status             Status        `json:"status"`
	ExpectedCompletion *Date         `json:"expected_completion_day"`
	UniqueCode         string        `json:"unique_code"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
	CategoryName       string        `json:"category_name,omitempty"`
	VendorName         string        `json:"assigned_vendor_name,omitempty"`
	Marks              []DefectMark  `json:"defect_marks,omitempty"`
	Photos             []Photo       `json:"photos,omitempty"`
	Improvements       []Improvement `json:"improvements,omitempty"`
}

func (d *Defect) Urgency(today time.Time) Urgency {
	return UrgencyFor(d.ExpectedCompletion, today)
}

// DaysRemaining is nil when the defect has no expected date.
func (d *Defect) DaysRemaining(today time.Time) *int {
	if d.ExpectedCompletion == nil || d.ExpectedCompletion.IsZero() {
		return nil
	}
	n := DaysRemaining(*d.ExpectedCompletion, today)
	return &n
}

// RepairDays is the whole days between creation and last update of a
// completed defect.
func (d *Defect) RepairDays() (int, bool) {
	if d.Status != StatusCompleted || d.CreatedAt.IsZero() || d.UpdatedAt.IsZero() {
		return 0, false
	}
	return int(d.UpdatedAt.Sub(d.CreatedAt).Hours() / 24), true
}

// PrimaryMark returns the first mark. Observed usage creates at most one.
func (d *Defect) PrimaryMark() *DefectMark {
	if len(d.Marks) == 0 {
		return nil
	}
	return &d.Marks[0]
}

// DefectPhotos and ImprovementPhotos split attachments by their tag.
func (d *Defect) DefectPhotos() []Photo      { return d.photosTagged(PhotoTagDefect) }
func (d *Defect) ImprovementPhotos() []Photo { return d.photosTagged(PhotoTagImprovement) }

func (d *Defect) photosTagged(tag string) []Photo {
	var out []Photo
	for _, p := range d.Photos {
		if p.RelatedType == tag {
			out = append(out, p)
		}
	}
	return out
}

const (
	PhotoTagDefect      = "defect"
	PhotoTagImprovement = "improvement"
)

// DefectMark places a defect on a basemap.
type DefectMark struct {
	ID        int     `json:"defect_mark_id"`
	DefectID  int     `json:"defect_id"`
	BaseMapID int     `json:"base_map_id"`
	X         int     `json:"coordinate_x"`
	Y         int     `json:"coordinate_y"`
	Scale     float64 `json:"scale"`
}

const DefaultMarkScale = 1.0

// NewDefectMark validates a placement; a zero scale becomes DefaultMarkScale.
func NewDefectMark(defectID, baseMapID, x, y int, scale float64) (DefectMark, error) {
	if defectID <= 0 {
		return DefectMark{}, fmt.Errorf("%w: mark needs a defect", ErrValidation)
	}
	if baseMapID <= 0 {
		return DefectMark{}, fmt.Errorf("%w: mark needs a basemap", ErrValidation)
	}
	if x < 0 || y < 0 {
		return DefectMark{}, fmt.Errorf("%w: mark coordinates must be non-negative", ErrValidation)
	}
	if scale < 0 {
		return DefectMark{}, fmt.Errorf("%w: mark scale must be positive", ErrValidation)
	}
	if scale == 0 {
		scale = DefaultMarkScale
	}
	return DefectMark{DefectID: defectID, BaseMapID: baseMapID, X: x, Y: y, Scale: scale}, nil
}

// Improvement is a vendor's repair report.
type Improvement struct {
	ID              int       `json:"improvement_id"`
	DefectID        int       `json:"defect_id"`
	Content         string    `json:"content"`
	ImprovementDate Date      `json:"improvement_date"`
	CreatedAt       time.Time `json:"created_at"`
}

// DefectDraft is the caller supplied part of a new defect.
type DefectDraft struct {
	ProjectID          int    `json:"project_id"`
	SubmittedBy        int    `json:"submitted_id"`
	Description        string `json:"defect_description"`
	CategoryID         *int   `json:"defect_category_id,omitempty"`
	AssignedVendorID   *int   `json:"assigned_vendor_id,omitempty"`
	PreviousDefectID   *int   `json:"previous_defect_id,omitempty"`
	ExpectedCompletion *Date  `json:"expected_completion_day,omitempty"`
}

// Validate checks the fields required before a defect may be submitted.
func (d DefectDraft) Validate() error {
	var missing []string
	if d.ProjectID <= 0 {
		missing = append(missing, "project_id")
	}
	if d.SubmittedBy <= 0 {
		missing = append(missing, "submitted_id")
	}
	if strings.TrimSpace(d.Description) == "" {
		missing = append(missing, "defect_description")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrValidation, strings.Join(missing, ", "))
	}
	for name, id := range map[string]*int{
		"defect_category_id": d.CategoryID,
		"assigned_vendor_id": d.AssignedVendorID,
		"previous_defect_id": d.PreviousDefectID,
	} {
		if id != nil && *id <= 0 {
			return fmt.Errorf("%w: %s must be positive", ErrValidation, name)
		}
	}
	return nil
}

// CheckPreviousDefect verifies that prev, the record the draft links to,
// exists in the same project.
func CheckPreviousDefect(prev *Defect, projectID int) error {
	if prev == nil {
		return fmt.Errorf("%w: previous defect does not exist", ErrReference)
	}
	if prev.ProjectID != projectID {
		return fmt.Errorf("%w: previous defect %d belongs to project %d, not %d",
			ErrReference, prev.ID, prev.ProjectID, projectID)
	}
	return nil
}
