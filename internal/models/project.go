package models

import "time"

type Project struct {
	ID        int       `json:"project_id"`
	Name      string    `json:"project_name"`
	CreatedAt time.Time `json:"created_at"`
}

type ProjectWithCounts struct {
	Project
	BaseMapCount int `json:"base_map_count"`
	DefectCount  int `json:"defect_count"`
	UserCount    int `json:"user_count"`
}

type UserRole string

const (
	RoleOwner  UserRole = "owner"
	RoleAdmin  UserRole = "admin"
	RoleMember UserRole = "member"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember:
		return true
	}
	return false
}

type User struct {
	ID     int      `json:"user_id"`
	Name   string   `json:"user_name"`
	Email  string   `json:"user_email"`
	Role   UserRole `json:"user_role"`
	Phone  string   `json:"phone,omitempty"`
	LineID string   `json:"line_id,omitempty"`
}

// Permission binds a user to a project with a role.
type Permission struct {
	ID        int      `json:"permission_id"`
	ProjectID int      `json:"project_id"`
	UserEmail string   `json:"user_email"`
	UserRole  UserRole `json:"user_role"`
}

// Basemap is a floor plan image. Mark coordinates are pixel offsets into the
// stored image, so the stored image must not be resized after marks exist.
type Basemap struct {
	ID        int    `json:"base_map_id"`
	ProjectID int    `json:"project_id"`
	Name      string `json:"map_name"`
	FilePath  string `json:"file_path,omitempty"`
	ImageURL  string `json:"image_url,omitempty"`
}

// Vendor is a contractor responsible for repairs. Responsibilities is free
// text matched against category names, not a foreign key.
type Vendor struct {
	ID               int    `json:"vendor_id"`
	ProjectID        int    `json:"project_id"`
	Name             string `json:"vendor_name"`
	ContactPerson    string `json:"contact_person"`
	Phone            string `json:"phone"`
	Email            string `json:"email"`
	LineID           string `json:"line_id"`
	Responsibilities string `json:"responsibilities"`
	UniqueCode       string `json:"unique_code,omitempty"`
}

type Category struct {
	ID          int    `json:"defect_category_id"`
	ProjectID   int    `json:"project_id"`
	Name        string `json:"category_name"`
	Description string `json:"description"`
}
