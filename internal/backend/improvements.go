package backend

import (
	"context"
	"net/url"

	"site-defects/internal/models"
)

type createImprovementRequest struct {
	Content         string `json:"content"`
	ImprovementDate string `json:"improvement_date"`
}

// CreateImprovementByCode files a repair report. The backend resolves the
// defect from the code; no other identity is sent.
func (c *Client) CreateImprovementByCode(ctx context.Context, code, content string, date models.Date) (*models.Improvement, error) {
	body := createImprovementRequest{Content: content, ImprovementDate: date.String()}
	var out improvementWire
	if err := c.postJSON(ctx, "improvements.create", "/improvements/by-unique-code/"+url.PathEscape(code), body, &out); err != nil {
		return nil, err
	}
	imp := out.model()
	return &imp, nil
}
