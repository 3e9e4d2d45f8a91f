package handlers

import (
	"net/http"
	"strings"

	"site-defects/internal/backend"
	"site-defects/internal/middleware"
	"site-defects/internal/models"

	"github.com/gin-gonic/gin"
)

//
// VENDORS
//

func (h *Handler) ListVendors(c *gin.Context) {
	vendors, err := h.backend.ListProjectVendors(c.Request.Context(), middleware.Session(c).ActiveProjectID)
	if err != nil {
		h.renderError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vendors": vendors})
}

func bindVendor(c *gin.Context) (backend.VendorInput, bool) {
	var in backend.VendorInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid body")
		return in, false
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		badRequest(c, "vendor_name is required")
		return in, false
	}
	in.ProjectID = middleware.Session(c).ActiveProjectID
	return in, true
}

func (h *Handler) CreateVendor(c *gin.Context) {
	in, ok := bindVendor(c)
	if !ok {
		return
	}
	v, err := h.backend.CreateVendor(c.Request.Context(), in)
	if err != nil {
		h.renderError(c, err, nil)
		return
	}
	c.JSON(http.StatusCreated, v)
}

func (h *Handler) UpdateVendor(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	in, ok := bindVendor(c)
	if !ok {
		return
	}
	v, err := h.backend.UpdateVendor(c.Request.Context(), id, in)
	if err != nil {
		h.renderError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *Handler) DeleteVendor(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.backend.DeleteVendor(c.Request.Context(), id); err != nil {
		h.renderError(c, err, nil)
		return
	}
	c.Status(http.StatusNoContent)
}

//
// DEFECT CATEGORIES
//

type categoryForm struct {
	Name        string `json:"category_name"`
	Description string `json:"description"`
}

func bindCategory(c *gin.Context) (categoryForm, bool) {
	var form categoryForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, "invalid body")
		return form, false
	}
	form.Name = strings.TrimSpace(form.Name)
	if form.Name == "" {
		badRequest(c, "category_name is required")
		return form, false
	}
	return form, true
}

func (h *Handler) ListCategories(c *gin.Context) {
	cats, err := h.backend.ListProjectCategories(c.Request.Context(), middleware.Session(c).ActiveProjectID)
	if err != nil {
		h.renderError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": cats})
}

func (h *Handler) CreateCategory(c *gin.Context) {
	form, ok := bindCategory(c)
	if !ok {
		return
	}
	cat, err := h.backend.CreateCategory(c.Request.Context(), middleware.Session(c).ActiveProjectID, form.Name, form.Description)
	if err != nil {
		h.renderError(c, err, nil)
		return
	}
	c.JSON(http.StatusCreated, cat)
}

func (h *Handler) UpdateCategory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	form, ok := bindCategory(c)
	if !ok {
		return
	}
	cat, err := h.backend.UpdateCategory(c.Request.Context(), id, form.Name, form.Description)
	if err != nil {
		h.renderError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, cat)
}

func (h *Handler) DeleteCategory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.backend.DeleteCategory(c.Request.Context(), id); err != nil {
		h.renderError(c, err, nil)
		return
	}
	c.Status(http.StatusNoContent)
}

//
// BASEMAPS
//

func (h *Handler) ListBasemaps(c *gin.Context) {
	maps, err := h.backend.ListBasemaps(c.Request.Context(), middleware.Session(c).ActiveProjectID)
	if err != nil {
		h.renderError(c, err, nil)
		return
	}
	for i := range maps {
		if maps[i].ImageURL == "" && maps[i].FilePath != "" {
			maps[i].ImageURL = h.backend.AssetURL(maps[i].FilePath)
		}
	}
	c.JSON(http.StatusOK, gin.H{"basemaps": maps})
}

type basemapForm struct {
	Name string `json:"map_name"`
}

func (h *Handler) CreateBasemap(c *gin.Context) {
	var form basemapForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, "invalid body")
		return
	}
	form.Name = strings.TrimSpace(form.Name)
	if form.Name == "" {
		badRequest(c, "map_name is required")
		return
	}
	m, err := h.backend.CreateBasemap(c.Request.Context(), middleware.Session(c).ActiveProjectID, form.Name)
	if err != nil {
		h.renderError(c, err, nil)
		return
	}
	c.JSON(http.StatusCreated, m)
}

// UploadBasemapImage attaches the floor plan image. Marks are pixel offsets
// into this image, as stored.
func (h *Handler) UploadBasemapImage(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	fh, err := c.FormFile("image")
	if err != nil {
		badRequest(c, "image file is required")
		return
	}
	img, err := readPhoto(fh)
	if err != nil {
		h.renderError(c, err, nil)
		return
	}
	m, err := h.backend.UploadBasemapImage(c.Request.Context(), id, img)
	if err != nil {
		h.renderError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, m)
}

//
// USERS
//

func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.backend.ListUsers(c.Request.Context())
	if err != nil {
		h.renderError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func bindUser(c *gin.Context) (backend.UserInput, bool) {
	var in backend.UserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid body")
		return in, false
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	switch {
	case in.Name == "":
		badRequest(c, "user_name is required")
		return in, false
	case in.Email == "":
		badRequest(c, "user_email is required")
		return in, false
	case in.Role == "":
		in.Role = models.RoleMember
	case !in.Role.Valid():
		badRequest(c, "unknown user_role")
		return in, false
	}
	return in, true
}

func (h *Handler) CreateUser(c *gin.Context) {
	in, ok := bindUser(c)
	if !ok {
		return
	}
	u, err := h.backend.CreateUser(c.Request.Context(), in)
	if err != nil {
		h.renderError(c, err, nil)
		return
	}
	c.JSON(http.StatusCreated, u)
}

func (h *Handler) UpdateUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	in, ok := bindUser(c)
	if !ok {
		return
	}
	u, err := h.backend.UpdateUser(c.Request.Context(), id, in)
	if err != nil {
		h.renderError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) DeleteUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.backend.DeleteUser(c.Request.Context(), id); err != nil {
		h.renderError(c, err, nil)
		return
	}
	c.Status(http.StatusNoContent)
}

//
// PERMISSIONS
//

type permissionForm struct {
	UserEmail string          `json:"user_email"`
	UserRole  models.UserRole `json:"user_role"`
}

func bindRole(c *gin.Context) (permissionForm, bool) {
	var form permissionForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, "invalid body")
		return form, false
	}
	form.UserEmail = strings.TrimSpace(form.UserEmail)
	if !form.UserRole.Valid() {
		badRequest(c, "unknown user_role")
		return form, false
	}
	return form, true
}

func (h *Handler) ListPermissions(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	perms, err := h.backend.ListPermissions(c.Request.Context(), id)
	if err != nil {
		h.renderError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"permissions": perms})
}

// UserPermissions lists the projects the given email holds a role in.
func (h *Handler) UserPermissions(c *gin.Context) {
	email := strings.TrimSpace(c.Query("user_email"))
	if email == "" {
		badRequest(c, "user_email is required")
		return
	}
	perms, err := h.backend.PermissionsForUser(c.Request.Context(), email)
	if err != nil {
		h.renderError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"permissions": perms})
}

func (h *Handler) CreatePermission(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	form, ok := bindRole(c)
	if !ok {
		return
	}
	if form.UserEmail == "" {
		badRequest(c, "user_email is required")
		return
	}
	p, err := h.backend.CreatePermission(c.Request.Context(), id, form.UserEmail, form.UserRole)
	if err != nil {
		h.renderError(c, err, nil)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) UpdatePermission(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	form, ok := bindRole(c)
	if !ok {
		return
	}
	p, err := h.backend.UpdatePermission(c.Request.Context(), id, form.UserRole)
	if err != nil {
		h.renderError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) DeletePermission(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.backend.DeletePermission(c.Request.Context(), id); err != nil {
		h.renderError(c, err, nil)
		return
	}
	c.Status(http.StatusNoContent)
}
