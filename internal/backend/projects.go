package backend

import (
	"context"
	"strconv"

	"site-defects/internal/models"

	"github.com/go-resty/resty/v2"
)

type projectRequest struct {
	Name string `json:"project_name"`
}

func (c *Client) CreateProject(ctx context.Context, name string) (*models.Project, error) {
	var out projectWire
	if err := c.postJSON(ctx, "projects.create", "/projects/", projectRequest{Name: name}, &out); err != nil {
		return nil, err
	}
	p := out.model()
	return &p, nil
}

func (c *Client) ListProjects(ctx context.Context, skip, limit int) ([]models.Project, error) {
	var out []projectWire
	err := c.get(ctx, "projects.list", "/projects/", func(r *resty.Request) {
		r.SetQueryParams(map[string]string{
			"skip":  strconv.Itoa(skip),
			"limit": strconv.Itoa(limit),
		})
	}, &out)
	if err != nil {
		return nil, err
	}
	projects := make([]models.Project, 0, len(out))
	for _, w := range out {
		projects = append(projects, w.model())
	}
	return projects, nil
}

func (c *Client) GetProject(ctx context.Context, id int) (*models.Project, error) {
	var out projectWire
	if err := c.get(ctx, "projects.get", idPath("/projects/%d", id), nil, &out); err != nil {
		return nil, err
	}
	p := out.model()
	return &p, nil
}

func (c *Client) GetProjectWithCounts(ctx context.Context, id int) (*models.ProjectWithCounts, error) {
	var out projectWire
	if err := c.get(ctx, "projects.counts", idPath("/projects/%d", id)+"/with-counts", nil, &out); err != nil {
		return nil, err
	}
	p := out.withCounts()
	return &p, nil
}

func (c *Client) UpdateProject(ctx context.Context, id int, name string) (*models.Project, error) {
	var out projectWire
	if err := c.putJSON(ctx, "projects.update", idPath("/projects/%d", id), projectRequest{Name: name}, &out); err != nil {
		return nil, err
	}
	p := out.model()
	return &p, nil
}

func (c *Client) DeleteProject(ctx context.Context, id int) error {
	return c.delete(ctx, "projects.delete", idPath("/projects/%d", id))
}
