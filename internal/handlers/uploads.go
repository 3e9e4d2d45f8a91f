package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"site-defects/internal/models"
	"site-defects/internal/store"

	"github.com/gin-gonic/gin"
)

const (
	photoField   = "photos"
	maxPhotoSize = 10 << 20
)

// formPhotos reads the multipart photo files of the request. Each file may
// carry a description in a matching photo_description field.
func formPhotos(c *gin.Context) ([]models.PhotoUpload, error) {
	form, err := c.MultipartForm()
	if errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrValidation, err)
	}
	files := form.File[photoField]
	if len(files) > store.MaxDraftPhotos {
		return nil, fmt.Errorf("%w: at most %d photos", models.ErrValidation, store.MaxDraftPhotos)
	}
	descriptions := form.Value["photo_description"]

	out := make([]models.PhotoUpload, 0, len(files))
	for i, fh := range files {
		p, err := readPhoto(fh)
		if err != nil {
			return nil, err
		}
		if i < len(descriptions) {
			p.Description = strings.TrimSpace(descriptions[i])
		}
		out = append(out, p)
	}
	return out, nil
}

func readPhoto(fh *multipart.FileHeader) (models.PhotoUpload, error) {
	if fh.Size > maxPhotoSize {
		return models.PhotoUpload{}, fmt.Errorf("%w: %s is larger than %d MB", models.ErrValidation, fh.Filename, maxPhotoSize>>20)
	}
	f, err := fh.Open()
	if err != nil {
		return models.PhotoUpload{}, fmt.Errorf("%w: %v", models.ErrValidation, err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxPhotoSize+1))
	if err != nil {
		return models.PhotoUpload{}, fmt.Errorf("%w: reading %s: %v", models.ErrValidation, fh.Filename, err)
	}
	if len(data) > maxPhotoSize {
		return models.PhotoUpload{}, fmt.Errorf("%w: %s is larger than %d MB", models.ErrValidation, fh.Filename, maxPhotoSize>>20)
	}
	return models.PhotoUpload{
		FileName:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
