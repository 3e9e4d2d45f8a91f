package backend

import (
	"context"
	"net/url"

	"site-defects/internal/models"

	"github.com/go-resty/resty/v2"
)

type createDefectRequest struct {
	ProjectID          int     `json:"project_id"`
	SubmittedID        int     `json:"submitted_id"`
	Description        string  `json:"defect_description"`
	CategoryID         *int    `json:"defect_category_id"`
	AssignedVendorID   *int    `json:"assigned_vendor_id"`
	PreviousDefectID   *int    `json:"previous_defect_id"`
	Status             string  `json:"status"`
	ExpectedCompletion *string `json:"expected_completion_day,omitempty"`
}

// DefectUpdate lists the fields a PUT may change. The unique code is not
// among them: it is fixed when the backend creates the defect.
type DefectUpdate struct {
	Description        *string
	CategoryID         *int
	AssignedVendorID   *int
	ExpectedCompletion *models.Date
	Status             *models.Status
}

type updateDefectRequest struct {
	Description        *string `json:"defect_description,omitempty"`
	CategoryID         *int    `json:"defect_category_id,omitempty"`
	AssignedVendorID   *int    `json:"assigned_vendor_id,omitempty"`
	ExpectedCompletion *string `json:"expected_completion_day,omitempty"`
	Status             *string `json:"status,omitempty"`
}

func (u DefectUpdate) wire() updateDefectRequest {
	req := updateDefectRequest{
		Description:        u.Description,
		CategoryID:         u.CategoryID,
		AssignedVendorID:   u.AssignedVendorID,
		ExpectedCompletion: datePtrString(u.ExpectedCompletion),
	}
	if u.Status != nil && *u.Status != models.StatusUnset {
		s := u.Status.Wire()
		req.Status = &s
	}
	return req
}

// DefectQuery selects the relations loaded with a single defect.
type DefectQuery struct {
	WithMarks        bool
	WithPhotos       bool
	WithImprovements bool
	WithFullRelated  bool
}

// FullDefect loads every relation.
var FullDefect = DefectQuery{WithMarks: true, WithPhotos: true, WithImprovements: true, WithFullRelated: true}

func (q DefectQuery) params() map[string]string {
	p := map[string]string{}
	set := func(k string, v bool) {
		if v {
			p[k] = "true"
		}
	}
	set("with_marks", q.WithMarks)
	set("with_photos", q.WithPhotos)
	set("with_improvements", q.WithImprovements)
	set("with_full_related", q.WithFullRelated)
	return p
}

// CreateDefect posts a new defect. The status is always the initial
// lifecycle status and the expected date goes out as an absolute date.
func (c *Client) CreateDefect(ctx context.Context, draft models.DefectDraft) (*models.Defect, error) {
	body := createDefectRequest{
		ProjectID:          draft.ProjectID,
		SubmittedID:        draft.SubmittedBy,
		Description:        draft.Description,
		CategoryID:         draft.CategoryID,
		AssignedVendorID:   draft.AssignedVendorID,
		PreviousDefectID:   draft.PreviousDefectID,
		Status:             models.InitialStatus.Wire(),
		ExpectedCompletion: datePtrString(draft.ExpectedCompletion),
	}
	var out defectWire
	if err := c.postJSON(ctx, "defects.create", "/defects/", body, &out); err != nil {
		return nil, err
	}
	d := out.model()
	return &d, nil
}

func (c *Client) UpdateDefect(ctx context.Context, id int, u DefectUpdate) (*models.Defect, error) {
	var out defectWire
	if err := c.putJSON(ctx, "defects.update", idPath("/defects/%d", id), u.wire(), &out); err != nil {
		return nil, err
	}
	d := out.model()
	return &d, nil
}

// SetDefectStatus writes the status field only.
func (c *Client) SetDefectStatus(ctx context.Context, id int, s models.Status) (*models.Defect, error) {
	return c.UpdateDefect(ctx, id, DefectUpdate{Status: &s})
}

func (c *Client) DeleteDefect(ctx context.Context, id int) error {
	return c.delete(ctx, "defects.delete", idPath("/defects/%d", id))
}

func (c *Client) ListDefects(ctx context.Context, projectID int) ([]models.Defect, error) {
	var out []defectWire
	err := c.get(ctx, "defects.list", "/defects/", func(r *resty.Request) {
		r.SetQueryParam("project_id", itoa(projectID))
	}, &out)
	if err != nil {
		return nil, err
	}
	defects := make([]models.Defect, 0, len(out))
	for _, w := range out {
		defects = append(defects, w.model())
	}
	return defects, nil
}

func (c *Client) GetDefect(ctx context.Context, id int, q DefectQuery) (*models.Defect, error) {
	var out defectWire
	err := c.get(ctx, "defects.get", idPath("/defects/%d", id), func(r *resty.Request) {
		r.SetQueryParams(q.params())
	}, &out)
	if err != nil {
		return nil, err
	}
	d := out.model()
	return &d, nil
}

// DefectByCode resolves a vendor's unique code.
func (c *Client) DefectByCode(ctx context.Context, code string) (*models.Defect, error) {
	var out defectWire
	if err := c.get(ctx, "defects.by_code", "/defects/unique_code/"+url.PathEscape(code), nil, &out); err != nil {
		return nil, err
	}
	d := out.model()
	return &d, nil
}
