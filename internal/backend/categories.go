package backend

import (
	"context"

	"site-defects/internal/models"
)

type categoryRequest struct {
	ProjectID   int    `json:"project_id,omitempty"`
	Name        string `json:"category_name"`
	Description string `json:"description"`
}

func (c *Client) ListCategories(ctx context.Context) ([]models.Category, error) {
	var out []models.Category
	if err := c.get(ctx, "categories.list", "/defect-categories/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListProjectCategories filters the category list to one project.
func (c *Client) ListProjectCategories(ctx context.Context, projectID int) ([]models.Category, error) {
	all, err := c.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Category, 0, len(all))
	for _, cat := range all {
		if cat.ProjectID == projectID {
			out = append(out, cat)
		}
	}
	return out, nil
}

func (c *Client) CreateCategory(ctx context.Context, projectID int, name, description string) (*models.Category, error) {
	var out models.Category
	body := categoryRequest{ProjectID: projectID, Name: name, Description: description}
	if err := c.postJSON(ctx, "categories.create", "/defect-categories/", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateCategory(ctx context.Context, id int, name, description string) (*models.Category, error) {
	var out models.Category
	body := categoryRequest{Name: name, Description: description}
	if err := c.putJSON(ctx, "categories.update", idPath("/defect-categories/%d", id), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteCategory(ctx context.Context, id int) error {
	return c.delete(ctx, "categories.delete", idPath("/defect-categories/%d", id))
}
