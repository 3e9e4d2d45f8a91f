package backend

import (
	"context"

	"site-defects/internal/models"

	"github.com/go-resty/resty/v2"
)

type UserInput struct {
	Name   string          `json:"user_name"`
	Email  string          `json:"user_email"`
	Role   models.UserRole `json:"user_role"`
	Phone  string          `json:"phone"`
	LineID string          `json:"line_id"`
}

func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	var out []models.User
	if err := c.get(ctx, "users.list", "/users/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateUser(ctx context.Context, in UserInput) (*models.User, error) {
	var out models.User
	if err := c.postJSON(ctx, "users.create", "/users/", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateUser(ctx context.Context, id int, in UserInput) (*models.User, error) {
	var out models.User
	if err := c.putJSON(ctx, "users.update", idPath("/users/%d", id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteUser(ctx context.Context, id int) error {
	return c.delete(ctx, "users.delete", idPath("/users/%d", id))
}

type permissionRequest struct {
	ProjectID int             `json:"project_id,omitempty"`
	UserEmail string          `json:"user_email,omitempty"`
	UserRole  models.UserRole `json:"user_role"`
}

func (c *Client) CreatePermission(ctx context.Context, projectID int, email string, role models.UserRole) (*models.Permission, error) {
	var out models.Permission
	body := permissionRequest{ProjectID: projectID, UserEmail: email, UserRole: role}
	if err := c.postJSON(ctx, "permissions.create", "/permissions/", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListPermissions(ctx context.Context, projectID int) ([]models.Permission, error) {
	var out []models.Permission
	err := c.get(ctx, "permissions.list", "/permissions/", func(r *resty.Request) {
		r.SetQueryParam("project_id", itoa(projectID))
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// PermissionsForUser lists the projects a user has a role in.
func (c *Client) PermissionsForUser(ctx context.Context, email string) ([]models.Permission, error) {
	var out []models.Permission
	err := c.get(ctx, "permissions.by_email", "/permissions/", func(r *resty.Request) {
		r.SetQueryParam("user_email", email)
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdatePermission(ctx context.Context, id int, role models.UserRole) (*models.Permission, error) {
	var out models.Permission
	if err := c.putJSON(ctx, "permissions.update", idPath("/permissions/%d", id), permissionRequest{UserRole: role}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeletePermission(ctx context.Context, id int) error {
	return c.delete(ctx, "permissions.delete", idPath("/permissions/%d", id))
}
