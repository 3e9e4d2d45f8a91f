package backend

import (
	"context"

	"site-defects/internal/models"
)

type createMarkRequest struct {
	DefectID  int     `json:"defect_id"`
	BaseMapID int     `json:"base_map_id"`
	X         int     `json:"coordinate_x"`
	Y         int     `json:"coordinate_y"`
	Scale     float64 `json:"scale"`
}

func (c *Client) CreateDefectMark(ctx context.Context, m models.DefectMark) (*models.DefectMark, error) {
	body := createMarkRequest{
		DefectID:  m.DefectID,
		BaseMapID: m.BaseMapID,
		X:         m.X,
		Y:         m.Y,
		Scale:     m.Scale,
	}
	if body.Scale == 0 {
		body.Scale = models.DefaultMarkScale
	}
	var out markWire
	if err := c.postJSON(ctx, "marks.create", "/defect-marks/", body, &out); err != nil {
		return nil, err
	}
	mark := out.model()
	return &mark, nil
}
