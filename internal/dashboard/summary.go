// Package dashboard computes the project statistics shown to managers and
// the spreadsheet export of the defect register.
package dashboard

import (
	"sort"
	"time"

	"site-defects/internal/models"
)

// TrailingDays is the window of the daily created/completed series.
const TrailingDays = 30

type Bucket struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

type VendorStats struct {
	Name           string   `json:"vendor_name"`
	Total          int      `json:"total"`
	Completed      int      `json:"completed"`
	Overdue        int      `json:"overdue"`
	CompletionRate float64  `json:"completion_rate"`
	OverdueRate    float64  `json:"overdue_rate"`
	AvgRepairDays  *float64 `json:"avg_repair_days"`
	OnTime         int      `json:"on_time"`
	OnTimeRate     float64  `json:"on_time_rate"`
}

type CategoryStats struct {
	Name           string   `json:"category_name"`
	Total          int      `json:"total"`
	Completed      int      `json:"completed"`
	ResolutionRate float64  `json:"resolution_rate"`
	AvgRepairDays  *float64 `json:"avg_repair_days"`
}

type DailyCount struct {
	Date      models.Date `json:"date"`
	Created   int         `json:"created"`
	Completed int         `json:"completed"`
}

type Summary struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	InProgress int `json:"in_progress"`
	Pending    int `json:"pending_confirmation"`
	Waiting    int `json:"waiting"`
	Cancelled  int `json:"cancelled"`
	Unset      int `json:"unset"`
	// Overdue counts open defects whose expected date has passed.
	Overdue int `json:"overdue"`

	CompletionRate float64 `json:"completion_rate"`
	OverdueRate    float64 `json:"overdue_rate"`

	AvgRepairDays       *float64 `json:"avg_repair_days"`
	AvgUrgentRepairDays *float64 `json:"avg_urgent_repair_days"`

	Statuses   []Bucket        `json:"statuses"`
	Urgencies  []Bucket        `json:"urgencies"`
	Vendors    []VendorStats   `json:"vendors"`
	Categories []CategoryStats `json:"categories"`
	Daily      []DailyCount    `json:"daily"`
}

var (
	statusOrder  = []models.Status{models.StatusInProgress, models.StatusPendingConfirmation, models.StatusWaiting, models.StatusCompleted, models.StatusCancelled, models.StatusUnset}
	urgencyOrder = []models.Urgency{models.UrgencyOverdue, models.UrgencyUrgent, models.UrgencyUpcoming, models.UrgencyNormal, models.UrgencyUnknown}
)

// IsOpen reports whether the defect still awaits work or review.
func IsOpen(d *models.Defect) bool {
	return !d.Status.IsTerminal()
}

// IsOverdue reports an open defect past its expected date.
func IsOverdue(d *models.Defect, today time.Time) bool {
	return IsOpen(d) && d.Urgency(today) == models.UrgencyOverdue
}

// OnTime reports a completed defect finished on or before its expected date.
func OnTime(d *models.Defect) bool {
	if d.Status != models.StatusCompleted || d.ExpectedCompletion == nil || d.UpdatedAt.IsZero() {
		return false
	}
	return models.DaysRemaining(*d.ExpectedCompletion, d.UpdatedAt) >= 0
}

// urgentAtSubmission reports a defect given at most a week when created.
func urgentAtSubmission(d *models.Defect) bool {
	if d.ExpectedCompletion == nil || d.CreatedAt.IsZero() {
		return false
	}
	return models.DaysRemaining(*d.ExpectedCompletion, d.CreatedAt) <= 7
}

func Summarize(defects []models.Defect, today time.Time) Summary {
	var s Summary
	s.Total = len(defects)

	statusCounts := map[models.Status]int{}
	urgencyCounts := map[models.Urgency]int{}
	var repair, urgentRepair mean

	for i := range defects {
		d := &defects[i]
		statusCounts[d.Status]++
		if IsOpen(d) {
			urgencyCounts[d.Urgency(today)]++
		}
		if IsOverdue(d, today) {
			s.Overdue++
		}
		if days, ok := d.RepairDays(); ok {
			repair.add(days)
			if urgentAtSubmission(d) {
				urgentRepair.add(days)
			}
		}
	}

	s.Completed = statusCounts[models.StatusCompleted]
	s.InProgress = statusCounts[models.StatusInProgress]
	s.Pending = statusCounts[models.StatusPendingConfirmation]
	s.Waiting = statusCounts[models.StatusWaiting]
	s.Cancelled = statusCounts[models.StatusCancelled]
	s.Unset = statusCounts[models.StatusUnset]
	s.CompletionRate = percent(s.Completed, s.Total)
	s.OverdueRate = percent(s.Overdue, s.Total)
	s.AvgRepairDays = repair.value()
	s.AvgUrgentRepairDays = urgentRepair.value()

	for _, st := range statusOrder {
		s.Statuses = append(s.Statuses, Bucket{Key: st.String(), Label: st.Display(), Count: statusCounts[st]})
	}
	for _, u := range urgencyOrder {
		s.Urgencies = append(s.Urgencies, Bucket{Key: u.String(), Label: u.Display(), Count: urgencyCounts[u]})
	}
	s.Vendors = vendorStats(defects, today)
	s.Categories = categoryStats(defects)
	s.Daily = dailyCounts(defects, today)
	return s
}

func vendorStats(defects []models.Defect, today time.Time) []VendorStats {
	type acc struct {
		VendorStats
		repair mean
	}
	byName := map[string]*acc{}
	for i := range defects {
		d := &defects[i]
		if d.VendorName == "" {
			continue
		}
		a, ok := byName[d.VendorName]
		if !ok {
			a = &acc{VendorStats: VendorStats{Name: d.VendorName}}
			byName[d.VendorName] = a
		}
		a.Total++
		if IsOverdue(d, today) {
			a.Overdue++
		}
		if d.Status == models.StatusCompleted {
			a.Completed++
			if OnTime(d) {
				a.OnTime++
			}
		}
		if days, ok := d.RepairDays(); ok {
			a.repair.add(days)
		}
	}

	out := make([]VendorStats, 0, len(byName))
	for _, a := range byName {
		v := a.VendorStats
		v.CompletionRate = percent(v.Completed, v.Total)
		v.OverdueRate = percent(v.Overdue, v.Total)
		v.OnTimeRate = percent(v.OnTime, v.Completed)
		v.AvgRepairDays = a.repair.value()
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// UncategorizedLabel names defects without a category.
const UncategorizedLabel = "未分類"

func categoryStats(defects []models.Defect) []CategoryStats {
	type acc struct {
		CategoryStats
		repair mean
	}
	byName := map[string]*acc{}
	for i := range defects {
		d := &defects[i]
		name := d.CategoryName
		if name == "" {
			name = UncategorizedLabel
		}
		a, ok := byName[name]
		if !ok {
			a = &acc{CategoryStats: CategoryStats{Name: name}}
			byName[name] = a
		}
		a.Total++
		if d.Status == models.StatusCompleted {
			a.Completed++
		}
		if days, ok := d.RepairDays(); ok {
			a.repair.add(days)
		}
	}

	out := make([]CategoryStats, 0, len(byName))
	for _, a := range byName {
		c := a.CategoryStats
		c.ResolutionRate = percent(c.Completed, c.Total)
		c.AvgRepairDays = a.repair.value()
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// dailyCounts covers the TrailingDays days ending today, oldest first.
// Completion is dated by the defect's last update.
func dailyCounts(defects []models.Defect, today time.Time) []DailyCount {
	end := models.DateOf(today)
	start := end.AddDays(-(TrailingDays - 1))
	index := map[models.Date]int{}
	out := make([]DailyCount, TrailingDays)
	for i := range out {
		day := start.AddDays(i)
		out[i].Date = day
		index[day] = i
	}
	for i := range defects {
		d := &defects[i]
		if !d.CreatedAt.IsZero() {
			if j, ok := index[models.DateOf(d.CreatedAt.In(time.Local))]; ok {
				out[j].Created++
			}
		}
		if d.Status == models.StatusCompleted && !d.UpdatedAt.IsZero() {
			if j, ok := index[models.DateOf(d.UpdatedAt.In(time.Local))]; ok {
				out[j].Completed++
			}
		}
	}
	return out
}

type mean struct {
	sum, n int
}

func (m *mean) add(v int) {
	m.sum += v
	m.n++
}

func (m mean) value() *float64 {
	if m.n == 0 {
		return nil
	}
	v := float64(m.sum) / float64(m.n)
	return &v
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
