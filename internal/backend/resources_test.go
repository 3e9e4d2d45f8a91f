package backend

import (
	"context"
	"testing"

	"site-defects/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectLifecycle(t *testing.T) {
	c, _, _ := newTestClient(t, 0)
	ctx := context.Background()

	p, err := c.CreateProject(ctx, "Tower A")
	require.NoError(t, err)
	assert.Equal(t, "Tower A", p.Name)

	p, err = c.UpdateProject(ctx, p.ID, "Tower B")
	require.NoError(t, err)
	assert.Equal(t, "Tower B", p.Name)

	list, err := c.ListProjects(ctx, 0, 100)
	require.NoError(t, err)
	require.Len(t, list, 1)

	counts, err := c.GetProjectWithCounts(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, counts.DefectCount)

	require.NoError(t, c.DeleteProject(ctx, p.ID))
	_, err = c.GetProject(ctx, p.ID)
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestVendorsAndCategoriesFilterByProject(t *testing.T) {
	c, _, _ := newTestClient(t, 0)
	ctx := context.Background()

	_, err := c.CreateVendor(ctx, VendorInput{ProjectID: 1, Name: "ACME"})
	require.NoError(t, err)
	_, err = c.CreateVendor(ctx, VendorInput{ProjectID: 2, Name: "Other"})
	require.NoError(t, err)
	vendors, err := c.ListProjectVendors(ctx, 1)
	require.NoError(t, err)
	require.Len(t, vendors, 1)
	assert.Equal(t, "ACME", vendors[0].Name)
	assert.NotEmpty(t, vendors[0].UniqueCode)

	_, err = c.CreateCategory(ctx, 1, "結構", "structural")
	require.NoError(t, err)
	_, err = c.CreateCategory(ctx, 2, "水電", "")
	require.NoError(t, err)
	cats, err := c.ListProjectCategories(ctx, 1)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "結構", cats[0].Name)
}

func TestBasemapUpload(t *testing.T) {
	c, _, _ := newTestClient(t, 0)
	ctx := context.Background()

	m, err := c.CreateBasemap(ctx, 1, "1F")
	require.NoError(t, err)
	m, err = c.UploadBasemapImage(ctx, m.ID, models.PhotoUpload{FileName: "1f.png", Data: []byte("png")})
	require.NoError(t, err)
	assert.Contains(t, m.ImageURL, "1f.png")

	maps, err := c.ListBasemaps(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, maps, 1)
}
