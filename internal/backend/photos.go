package backend

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"site-defects/internal/models"

	"github.com/go-resty/resty/v2"
)

// relatedTag converts a photo target to the backend's related_type tag.
func relatedTag(t models.PhotoTarget) (string, error) {
	switch t.(type) {
	case models.DefectPhoto:
		return models.PhotoTagDefect, nil
	case models.ImprovementPhoto:
		return models.PhotoTagImprovement, nil
	default:
		return "", fmt.Errorf("%w: unsupported photo target %T", models.ErrValidation, t)
	}
}

func (c *Client) UploadPhoto(ctx context.Context, target models.PhotoTarget, p models.PhotoUpload) (*models.Photo, error) {
	if target == nil || target.TargetID() <= 0 {
		return nil, fmt.Errorf("%w: photo needs a target", models.ErrValidation)
	}
	tag, err := relatedTag(target)
	if err != nil {
		return nil, err
	}
	if len(p.Data) == 0 {
		return nil, fmt.Errorf("%w: photo %q is empty", models.ErrValidation, p.FileName)
	}
	name := p.FileName
	if name == "" {
		name = "photo"
	}

	var out models.Photo
	err = c.call(ctx, c.upload, "photos.upload", http.MethodPost, "/photos/", func(r *resty.Request) {
		r.SetMultipartFormData(map[string]string{
			"related_type": tag,
			"related_id":   itoa(target.TargetID()),
			"description":  p.Description,
		})
		r.SetMultipartField("file", name, contentTypeOf(p), bytes.NewReader(p.Data))
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
