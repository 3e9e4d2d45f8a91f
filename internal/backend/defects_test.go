package backend

import (
	"context"
	"testing"
	"time"

	"site-defects/internal/backend/backendtest"
	"site-defects/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateDefectSendsInitialStatus(t *testing.T) {
	c, srv, _ := newTestClient(t, 0)
	ctx := context.Background()
	cat, vendor, prev := 3, 4, 5
	due := models.Date{Year: 2025, Month: time.March, Day: 10}

	d, err := c.CreateDefect(ctx, models.DefectDraft{
		ProjectID:          1,
		SubmittedBy:        9,
		Description:        "wall crack",
		CategoryID:         &cat,
		AssignedVendorID:   &vendor,
		PreviousDefectID:   &prev,
		ExpectedCompletion: &due,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, d.Status)
	assert.NotEmpty(t, d.UniqueCode)
	require.NotNil(t, d.ExpectedCompletion)
	assert.Equal(t, due, *d.ExpectedCompletion)
	require.NotNil(t, d.PreviousDefectID)
	assert.Equal(t, 5, *d.PreviousDefectID)

	raw, ok := srv.Defect(d.ID)
	require.True(t, ok)
	require.NotNil(t, raw.Status)
	assert.Equal(t, "改善中", *raw.Status)
	assert.Equal(t, "2025-03-10", raw.ExpectedCompletion)
}

func TestDefectByCodeAndMissingStatus(t *testing.T) {
	c, srv, _ := newTestClient(t, 0)
	ctx := context.Background()
	seeded := srv.SeedDefect(backendtest.Defect{ProjectID: 1, SubmittedID: 2, Description: "leak", UniqueCode: "AB CD"})

	d, err := c.DefectByCode(ctx, "AB CD")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, d.ID)
	assert.Equal(t, models.StatusUnset, d.Status)
	assert.Nil(t, d.ExpectedCompletion)
	assert.Equal(t, models.UrgencyUnknown, d.Urgency(time.Now()))

	_, err = c.DefectByCode(ctx, "nope")
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestGetDefectResolvesLegacyOffset(t *testing.T) {
	c, srv, _ := newTestClient(t, 0)
	seeded := srv.SeedDefect(backendtest.Defect{
		ProjectID:          1,
		SubmittedID:        2,
		Description:        "tile",
		Status:             backendtest.Str("改善中"),
		ExpectedCompletion: 7,
		CreatedAt:          "2025-01-01T09:30:00",
	})

	d, err := c.GetDefect(context.Background(), seeded.ID, DefectQuery{})
	require.NoError(t, err)
	require.NotNil(t, d.ExpectedCompletion)
	assert.Equal(t, models.Date{Year: 2025, Month: time.January, Day: 8}, *d.ExpectedCompletion)
}

func TestGetDefectWithRelations(t *testing.T) {
	c, srv, _ := newTestClient(t, 0)
	ctx := context.Background()
	catID := srv.SeedRecord("defect-categories", "defect_category_id", backendtest.Record{"project_id": 1, "category_name": "結構"})
	vendorID := srv.SeedRecord("vendors", "vendor_id", backendtest.Record{"project_id": 1, "vendor_name": "ACME"})
	seeded := srv.SeedDefect(backendtest.Defect{
		ProjectID: 1, SubmittedID: 2, Description: "beam",
		CategoryID: &catID, AssignedVendorID: &vendorID,
		Status: backendtest.Str("改善中"),
	})

	_, err := c.CreateDefectMark(ctx, models.DefectMark{DefectID: seeded.ID, BaseMapID: 1, X: 10, Y: 20})
	require.NoError(t, err)
	_, err = c.UploadPhoto(ctx, models.DefectPhoto{DefectID: seeded.ID}, models.PhotoUpload{FileName: "a.jpg", Data: []byte("jpeg")})
	require.NoError(t, err)
	imp, err := c.CreateImprovementByCode(ctx, seeded.UniqueCode, "patched", models.Date{Year: 2025, Month: 2, Day: 1})
	require.NoError(t, err)
	_, err = c.UploadPhoto(ctx, models.ImprovementPhoto{ImprovementID: imp.ID}, models.PhotoUpload{FileName: "b.jpg", Data: []byte("jpeg")})
	require.NoError(t, err)

	d, err := c.GetDefect(ctx, seeded.ID, FullDefect)
	require.NoError(t, err)
	assert.Equal(t, "結構", d.CategoryName)
	assert.Equal(t, "ACME", d.VendorName)
	require.Len(t, d.Marks, 1)
	assert.Equal(t, 1.0, d.Marks[0].Scale)
	require.Len(t, d.Improvements, 1)
	assert.Equal(t, "patched", d.Improvements[0].Content)
	assert.Len(t, d.DefectPhotos(), 1)
	assert.Len(t, d.ImprovementPhotos(), 1)

	bare, err := c.GetDefect(ctx, seeded.ID, DefectQuery{})
	require.NoError(t, err)
	assert.Empty(t, bare.Marks)
	assert.Empty(t, bare.Photos)
}

func TestUpdateDefectLeavesUniqueCode(t *testing.T) {
	c, srv, _ := newTestClient(t, 0)
	seeded := srv.SeedDefect(backendtest.Defect{ProjectID: 1, SubmittedID: 2, Description: "old", UniqueCode: "KEEP"})
	desc := "new"

	d, err := c.UpdateDefect(context.Background(), seeded.ID, DefectUpdate{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "new", d.Description)
	assert.Equal(t, "KEEP", d.UniqueCode)

	d, err = c.SetDefectStatus(context.Background(), seeded.ID, models.StatusPendingConfirmation)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingConfirmation, d.Status)
	assert.Equal(t, "new", d.Description)
}

func TestListAndDeleteDefects(t *testing.T) {
	c, srv, _ := newTestClient(t, 0)
	ctx := context.Background()
	a := srv.SeedDefect(backendtest.Defect{ProjectID: 1, SubmittedID: 2, Description: "a"})
	srv.SeedDefect(backendtest.Defect{ProjectID: 2, SubmittedID: 2, Description: "b"})

	list, err := c.ListDefects(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "a", list[0].Description)

	require.NoError(t, c.DeleteDefect(ctx, a.ID))
	require.ErrorIs(t, c.DeleteDefect(ctx, a.ID), models.ErrNotFound)
}

func TestUploadPhotoValidation(t *testing.T) {
	c, srv, _ := newTestClient(t, 0)
	ctx := context.Background()

	_, err := c.UploadPhoto(ctx, models.DefectPhoto{}, models.PhotoUpload{Data: []byte("x")})
	require.ErrorIs(t, err, models.ErrValidation)
	_, err = c.UploadPhoto(ctx, nil, models.PhotoUpload{Data: []byte("x")})
	require.ErrorIs(t, err, models.ErrValidation)
	_, err = c.UploadPhoto(ctx, models.DefectPhoto{DefectID: 1}, models.PhotoUpload{FileName: "empty.jpg"})
	require.ErrorIs(t, err, models.ErrValidation)
	assert.Zero(t, srv.Hits("POST /photos/"))
}

func TestUploadPhotoIsNotRetried(t *testing.T) {
	c, srv, _ := newTestClient(t, 1)
	srv.FailNext("POST /photos/", 503)

	_, err := c.UploadPhoto(context.Background(), models.DefectPhoto{DefectID: 1}, models.PhotoUpload{FileName: "a.jpg", Data: []byte("jpeg")})
	require.ErrorIs(t, err, models.ErrNetwork)
	assert.Equal(t, 1, srv.Hits("POST /photos/"))
	assert.Empty(t, srv.Photos())
}

func TestImprovementByUnknownCode(t *testing.T) {
	c, srv, _ := newTestClient(t, 0)
	_, err := c.CreateImprovementByCode(context.Background(), "missing", "x", models.Date{Year: 2025, Month: 1, Day: 1})
	require.ErrorIs(t, err, models.ErrNotFound)
	assert.Empty(t, srv.Improvements())
}
