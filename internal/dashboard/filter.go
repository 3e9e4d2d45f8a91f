package dashboard

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"site-defects/internal/models"
)

// Filter narrows a defect list. Zero fields match everything.
type Filter struct {
	Status     *models.Status
	Urgency    *models.Urgency
	VendorID   *int
	CategoryID *int
	// Month is "YYYY-MM", matched against the creation date.
	Month string
	// Search matches the description, ignoring case, or the digits of the id.
	Search string
}

// ParseFilter reads a filter from query values such as
// status=IN_PROGRESS&urgency=URGENT&vendor_id=3&month=2024-06&q=crack.
func ParseFilter(get func(string) string) (Filter, error) {
	var f Filter
	if v := strings.TrimSpace(get("status")); v != "" {
		st, ok := models.ParseStatusName(strings.ToUpper(v))
		if !ok {
			if st, ok = models.ParseStatusName(v); !ok {
				return f, fmt.Errorf("%w: unknown status %q", models.ErrValidation, v)
			}
		}
		f.Status = &st
	}
	if v := strings.TrimSpace(get("urgency")); v != "" {
		u, ok := models.ParseUrgencyName(v)
		if !ok {
			return f, fmt.Errorf("%w: unknown urgency %q", models.ErrValidation, v)
		}
		f.Urgency = &u
	}
	var err error
	if f.VendorID, err = optionalID(get, "vendor_id"); err != nil {
		return f, err
	}
	if f.CategoryID, err = optionalID(get, "category_id"); err != nil {
		return f, err
	}
	if v := strings.TrimSpace(get("month")); v != "" {
		if _, err := time.Parse("2006-01", v); err != nil {
			return f, fmt.Errorf("%w: month must be YYYY-MM, got %q", models.ErrValidation, v)
		}
		f.Month = v
	}
	f.Search = strings.ToLower(strings.TrimSpace(get("q")))
	return f, nil
}

func optionalID(get func(string) string, key string) (*int, error) {
	v := strings.TrimSpace(get(key))
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return nil, fmt.Errorf("%w: %s must be a positive integer", models.ErrValidation, key)
	}
	return &n, nil
}

func (f Filter) match(d *models.Defect, today time.Time) bool {
	if f.Status != nil && d.Status != *f.Status {
		return false
	}
	if f.Urgency != nil && d.Urgency(today) != *f.Urgency {
		return false
	}
	if f.VendorID != nil && (d.AssignedVendorID == nil || *d.AssignedVendorID != *f.VendorID) {
		return false
	}
	if f.CategoryID != nil && (d.CategoryID == nil || *d.CategoryID != *f.CategoryID) {
		return false
	}
	if f.Month != "" && (d.CreatedAt.IsZero() || d.CreatedAt.In(time.Local).Format("2006-01") != f.Month) {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(d.Description), f.Search) &&
		!strings.Contains(strconv.Itoa(d.ID), f.Search) {
		return false
	}
	return true
}

func FilterDefects(defects []models.Defect, f Filter, today time.Time) []models.Defect {
	out := make([]models.Defect, 0, len(defects))
	for i := range defects {
		if f.match(&defects[i], today) {
			out = append(out, defects[i])
		}
	}
	return out
}

// SortByUrgency orders the most pressing defects first: by urgency band,
// then by days remaining, then by id. Defects without a date come last.
func SortByUrgency(defects []models.Defect, today time.Time) {
	sort.SliceStable(defects, func(i, j int) bool {
		a, b := &defects[i], &defects[j]
		ra, rb := a.Urgency(today).Rank(), b.Urgency(today).Rank()
		if ra != rb {
			return ra < rb
		}
		da, db := a.DaysRemaining(today), b.DaysRemaining(today)
		if da != nil && db != nil && *da != *db {
			return *da < *db
		}
		return a.ID < b.ID
	})
}

// Months lists the creation months present, newest first.
func Months(defects []models.Defect) []string {
	seen := map[string]bool{}
	var out []string
	for i := range defects {
		if defects[i].CreatedAt.IsZero() {
			continue
		}
		m := defects[i].CreatedAt.In(time.Local).Format("2006-01")
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(out)))
	return out
}
