package backend

import (
	"bytes"
	"context"
	"net/http"

	"site-defects/internal/models"

	"github.com/go-resty/resty/v2"
)

type basemapRequest struct {
	ProjectID int    `json:"project_id,omitempty"`
	Name      string `json:"map_name"`
	FilePath  string `json:"file_path,omitempty"`
}

// placeholder path the backend expects until an image is attached
const pendingBasemapPath = "file_path"

func (c *Client) CreateBasemap(ctx context.Context, projectID int, name string) (*models.Basemap, error) {
	var out models.Basemap
	body := basemapRequest{ProjectID: projectID, Name: name, FilePath: pendingBasemapPath}
	if err := c.postJSON(ctx, "basemaps.create", "/base-maps/", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetBasemap(ctx context.Context, id int) (*models.Basemap, error) {
	var out models.Basemap
	if err := c.get(ctx, "basemaps.get", idPath("/base-maps/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListBasemaps(ctx context.Context, projectID int) ([]models.Basemap, error) {
	var out []models.Basemap
	err := c.get(ctx, "basemaps.list", "/base-maps/", func(r *resty.Request) {
		r.SetQueryParam("project_id", itoa(projectID))
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UploadBasemapImage stores the floor plan image. The image is stored as
// given; marks placed later are pixel offsets into it.
func (c *Client) UploadBasemapImage(ctx context.Context, id int, img models.PhotoUpload) (*models.Basemap, error) {
	var out models.Basemap
	err := c.call(ctx, c.upload, "basemaps.image", http.MethodPost, idPath("/base-maps/%d", id)+"/image", func(r *resty.Request) {
		r.SetMultipartField("image", img.FileName, contentTypeOf(img), bytes.NewReader(img.Data))
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateBasemap(ctx context.Context, id int, name string) (*models.Basemap, error) {
	var out models.Basemap
	if err := c.putJSON(ctx, "basemaps.update", idPath("/base-maps/%d", id), basemapRequest{Name: name}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteBasemap(ctx context.Context, id int) error {
	return c.delete(ctx, "basemaps.delete", idPath("/base-maps/%d", id))
}
