package backend

import (
	"context"

	"site-defects/internal/models"
)

type VendorInput struct {
	ProjectID        int    `json:"project_id,omitempty"`
	Name             string `json:"vendor_name"`
	ContactPerson    string `json:"contact_person"`
	Phone            string `json:"phone"`
	Email            string `json:"email"`
	LineID           string `json:"line_id"`
	Responsibilities string `json:"responsibilities"`
}

func (c *Client) ListVendors(ctx context.Context) ([]models.Vendor, error) {
	var out []models.Vendor
	if err := c.get(ctx, "vendors.list", "/vendors/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListProjectVendors filters the vendor list to one project.
func (c *Client) ListProjectVendors(ctx context.Context, projectID int) ([]models.Vendor, error) {
	all, err := c.ListVendors(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Vendor, 0, len(all))
	for _, v := range all {
		if v.ProjectID == projectID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (c *Client) CreateVendor(ctx context.Context, in VendorInput) (*models.Vendor, error) {
	var out models.Vendor
	if err := c.postJSON(ctx, "vendors.create", "/vendors/", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateVendor(ctx context.Context, id int, in VendorInput) (*models.Vendor, error) {
	in.ProjectID = 0
	var out models.Vendor
	if err := c.putJSON(ctx, "vendors.update", idPath("/vendors/%d", id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteVendor(ctx context.Context, id int) error {
	return c.delete(ctx, "vendors.delete", idPath("/vendors/%d", id))
}
