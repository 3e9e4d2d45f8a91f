// Package backendtest runs an in-memory stand-in for the defect REST backend
// for tests.
package backendtest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type Defect struct {
	ID                 int     `json:"defect_id"`
	ProjectID          int     `json:"project_id"`
	SubmittedID        int     `json:"submitted_id"`
	Description        string  `json:"defect_description"`
	CategoryID         *int    `json:"defect_category_id"`
	AssignedVendorID   *int    `json:"assigned_vendor_id"`
	PreviousDefectID   *int    `json:"previous_defect_id"`
	Status             *string `json:"status"`
	ExpectedCompletion any     `json:"expected_completion_day"`
	UniqueCode         string  `json:"unique_code"`
	CreatedAt          string  `json:"created_at"`
	UpdatedAt          string  `json:"updated_at"`
}

type Mark struct {
	ID        int     `json:"defect_mark_id"`
	DefectID  int     `json:"defect_id"`
	BaseMapID int     `json:"base_map_id"`
	X         float64 `json:"coordinate_x"`
	Y         float64 `json:"coordinate_y"`
	Scale     float64 `json:"scale"`
}

type Photo struct {
	ID          int    `json:"photo_id"`
	RelatedType string `json:"related_type"`
	RelatedID   int    `json:"related_id"`
	ImagePath   string `json:"image_path"`
	ImageURL    string `json:"image_url"`
	Description string `json:"description"`
	Size        int    `json:"-"`
}

type Improvement struct {
	ID              int    `json:"improvement_id"`
	DefectID        int    `json:"defect_id"`
	Content         string `json:"content"`
	ImprovementDate string `json:"improvement_date"`
	CreatedAt       string `json:"created_at"`
}

type Record = map[string]any

// Server is the fake backend. All state is guarded by mu; tests may read
// the exported snapshots through the accessor methods.
type Server struct {
	*httptest.Server

	mu           sync.Mutex
	seq          int
	now          func() time.Time
	defects      map[int]*Defect
	marks        []Mark
	photos       []Photo
	improvements []Improvement
	records      map[string]map[int]Record
	failures     map[string][]int
	hits         map[string]int
}

const timeLayout = "2006-01-02T15:04:05"

func New() *Server {
	gin.SetMode(gin.TestMode)
	s := &Server{
		now:      time.Now,
		defects:  map[int]*Defect{},
		records:  map[string]map[int]Record{},
		failures: map[string][]int{},
		hits:     map[string]int{},
	}
	r := gin.New()
	r.Use(s.countAndFail)

	for _, res := range []struct{ path, idKey string }{
		{"projects", "project_id"},
		{"vendors", "vendor_id"},
		{"defect-categories", "defect_category_id"},
		{"base-maps", "base_map_id"},
		{"users", "user_id"},
		{"permissions", "permission_id"},
	} {
		s.records[res.path] = map[int]Record{}
		s.crud(r, res.path, res.idKey)
	}
	r.POST("/base-maps/:id/image", s.basemapImage)
	r.GET("/projects/:id/with-counts", s.projectCounts)

	r.POST("/defects/", s.createDefect)
	r.GET("/defects/", s.listDefects)
	r.GET("/defects/:id", s.getDefect)
	r.PUT("/defects/:id", s.updateDefect)
	r.DELETE("/defects/:id", s.deleteDefect)
	r.GET("/defects/unique_code/:code", s.defectByCode)
	r.POST("/defect-marks/", s.createMark)
	r.POST("/photos/", s.createPhoto)
	r.POST("/improvements/by-unique-code/:code", s.createImprovement)

	s.Server = httptest.NewServer(r)
	return s
}

// SetClock fixes the timestamps the fake stamps on new rows.
func (s *Server) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// FailNext makes the next calls to route ("POST /defect-marks/") answer
// with the given statuses, one per call. A zero status lets that call
// through.
func (s *Server) FailNext(route string, statuses ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = append(s.failures[route], statuses...)
}

// Hits reports how many requests reached route, failed ones included.
func (s *Server) Hits(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[route]
}

func (s *Server) countAndFail(c *gin.Context) {
	route := c.Request.Method + " " + c.FullPath()
	s.mu.Lock()
	s.hits[route]++
	var status int
	if q := s.failures[route]; len(q) > 0 {
		status, s.failures[route] = q[0], q[1:]
	}
	s.mu.Unlock()
	if status != 0 {
		c.AbortWithStatusJSON(status, gin.H{"detail": "injected failure"})
		return
	}
	c.Next()
}

func (s *Server) nextID() int {
	s.seq++
	return s.seq
}

func (s *Server) stamp() string { return s.now().Format(timeLayout) }

func paramID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "invalid id"})
		return 0, false
	}
	return id, true
}

func notFound(c *gin.Context, what string) {
	c.JSON(http.StatusNotFound, gin.H{"detail": what + " not found"})
}

// crud registers list/create/get/update/delete for a plain resource.
func (s *Server) crud(r *gin.Engine, path, idKey string) {
	base := "/" + path + "/"
	r.GET(base, func(c *gin.Context) {
		s.mu.Lock()
		defer s.mu.Unlock()
		out := []Record{}
		for id := 1; id <= s.seq; id++ {
			rec, ok := s.records[path][id]
			if !ok || !matchesQuery(c, rec) {
				continue
			}
			out = append(out, rec)
		}
		c.JSON(http.StatusOK, out)
	})
	r.POST(base, func(c *gin.Context) {
		var rec Record
		if err := c.ShouldBindJSON(&rec); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		id := s.nextID()
		rec[idKey] = id
		rec["created_at"] = s.stamp()
		if path == "vendors" {
			rec["unique_code"] = fmt.Sprintf("V%04d", id)
		}
		s.records[path][id] = rec
		c.JSON(http.StatusOK, rec)
	})
	r.GET(base+":id", func(c *gin.Context) {
		id, ok := paramID(c)
		if !ok {
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		rec, found := s.records[path][id]
		if !found {
			notFound(c, path)
			return
		}
		c.JSON(http.StatusOK, rec)
	})
	r.PUT(base+":id", func(c *gin.Context) {
		id, ok := paramID(c)
		if !ok {
			return
		}
		var patch Record
		if err := c.ShouldBindJSON(&patch); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		rec, found := s.records[path][id]
		if !found {
			notFound(c, path)
			return
		}
		for k, v := range patch {
			rec[k] = v
		}
		c.JSON(http.StatusOK, rec)
	})
	r.DELETE(base+":id", func(c *gin.Context) {
		id, ok := paramID(c)
		if !ok {
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, found := s.records[path][id]; !found {
			notFound(c, path)
			return
		}
		delete(s.records[path], id)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
}

func matchesQuery(c *gin.Context, rec Record) bool {
	for _, key := range []string{"project_id", "user_email"} {
		want := c.Query(key)
		if want == "" {
			continue
		}
		if fmt.Sprint(rec[key]) != want {
			return false
		}
	}
	return true
}

func (s *Server) projectCounts(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, found := s.records["projects"][id]
	if !found {
		notFound(c, "project")
		return
	}
	out := Record{}
	for k, v := range rec {
		out[k] = v
	}
	defects := 0
	for _, d := range s.defects {
		if d.ProjectID == id {
			defects++
		}
	}
	maps := 0
	for _, m := range s.records["base-maps"] {
		if fmt.Sprint(m["project_id"]) == strconv.Itoa(id) {
			maps++
		}
	}
	out["defect_count"] = defects
	out["base_map_count"] = maps
	out["user_count"] = 0
	c.JSON(http.StatusOK, out)
}

func (s *Server) basemapImage(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	fh, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "image required"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, found := s.records["base-maps"][id]
	if !found {
		notFound(c, "base map")
		return
	}
	rec["file_path"] = "uploads/basemaps/" + fh.Filename
	rec["image_url"] = "/uploads/basemaps/" + fh.Filename
	c.JSON(http.StatusOK, rec)
}

func (s *Server) createDefect(c *gin.Context) {
	var in Defect
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}
	if in.ProjectID == 0 || in.SubmittedID == 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "project_id and submitted_id are required"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	in.ID = s.nextID()
	in.UniqueCode = fmt.Sprintf("UC-%06d", in.ID)
	in.CreatedAt = s.stamp()
	in.UpdatedAt = in.CreatedAt
	s.defects[in.ID] = &in
	c.JSON(http.StatusOK, in)
}

func (s *Server) listDefects(c *gin.Context) {
	pid := c.Query("project_id")
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []Defect{}
	for id := 1; id <= s.seq; id++ {
		d, ok := s.defects[id]
		if !ok || (pid != "" && strconv.Itoa(d.ProjectID) != pid) {
			continue
		}
		out = append(out, *d)
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) defectView(d *Defect, c *gin.Context) Record {
	b, _ := json.Marshal(d)
	var out Record
	_ = json.Unmarshal(b, &out)
	if c.Query("with_marks") == "true" {
		marks := []Mark{}
		for _, m := range s.marks {
			if m.DefectID == d.ID {
				marks = append(marks, m)
			}
		}
		out["defect_marks"] = marks
	}
	imps := []Improvement{}
	impIDs := map[int]bool{}
	for _, i := range s.improvements {
		if i.DefectID == d.ID {
			imps = append(imps, i)
			impIDs[i.ID] = true
		}
	}
	if c.Query("with_improvements") == "true" {
		out["improvements"] = imps
	}
	if c.Query("with_photos") == "true" {
		photos := []Photo{}
		for _, p := range s.photos {
			if (p.RelatedType == "defect" && p.RelatedID == d.ID) || (p.RelatedType == "improvement" && impIDs[p.RelatedID]) {
				photos = append(photos, p)
			}
		}
		out["photos"] = photos
	}
	if c.Query("with_full_related") == "true" {
		if d.CategoryID != nil {
			if rec, ok := s.records["defect-categories"][*d.CategoryID]; ok {
				out["defect_category"] = rec
			}
		}
		if d.AssignedVendorID != nil {
			if rec, ok := s.records["vendors"][*d.AssignedVendorID]; ok {
				out["assigned_vendor"] = rec
			}
		}
	}
	return out
}

func (s *Server) getDefect(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d, found := s.defects[id]
	if !found {
		notFound(c, "defect")
		return
	}
	c.JSON(http.StatusOK, s.defectView(d, c))
}

func (s *Server) updateDefect(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var patch Record
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d, found := s.defects[id]
	if !found {
		notFound(c, "defect")
		return
	}
	if v, ok := patch["status"].(string); ok {
		d.Status = &v
	}
	if v, ok := patch["defect_description"].(string); ok {
		d.Description = v
	}
	if v, ok := patch["expected_completion_day"]; ok {
		d.ExpectedCompletion = v
	}
	if v, ok := patch["defect_category_id"].(float64); ok {
		n := int(v)
		d.CategoryID = &n
	}
	if v, ok := patch["assigned_vendor_id"].(float64); ok {
		n := int(v)
		d.AssignedVendorID = &n
	}
	d.UpdatedAt = s.stamp()
	c.JSON(http.StatusOK, d)
}

func (s *Server) deleteDefect(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.defects[id]; !found {
		notFound(c, "defect")
		return
	}
	delete(s.defects, id)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) findByCode(code string) *Defect {
	for _, d := range s.defects {
		if d.UniqueCode == code {
			return d
		}
	}
	return nil
}

func (s *Server) defectByCode(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.findByCode(c.Param("code"))
	if d == nil {
		notFound(c, "defect")
		return
	}
	c.JSON(http.StatusOK, d)
}

func (s *Server) createMark(c *gin.Context) {
	var in Mark
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.defects[in.DefectID]; !found {
		notFound(c, "defect")
		return
	}
	if in.Scale == 0 {
		in.Scale = 1.0
	}
	in.ID = s.nextID()
	s.marks = append(s.marks, in)
	c.JSON(http.StatusOK, in)
}

func (s *Server) createPhoto(c *gin.Context) {
	relatedID, err := strconv.Atoi(c.PostForm("related_id"))
	relatedType := c.PostForm("related_type")
	if err != nil || (relatedType != "defect" && relatedType != "improvement") {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "related_type and related_id are required"})
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "file required"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	defer f.Close()
	data, _ := io.ReadAll(f)

	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID()
	p := Photo{
		ID:          id,
		RelatedType: relatedType,
		RelatedID:   relatedID,
		ImagePath:   fmt.Sprintf("uploads/%s/%d_%s", relatedType, id, fh.Filename),
		ImageURL:    fmt.Sprintf("/uploads/%s/%d_%s", relatedType, id, fh.Filename),
		Description: c.PostForm("description"),
		Size:        len(data),
	}
	s.photos = append(s.photos, p)
	c.JSON(http.StatusOK, p)
}

func (s *Server) createImprovement(c *gin.Context) {
	var in struct {
		Content         string `json:"content"`
		ImprovementDate string `json:"improvement_date"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.findByCode(c.Param("code"))
	if d == nil {
		notFound(c, "defect")
		return
	}
	imp := Improvement{
		ID:              s.nextID(),
		DefectID:        d.ID,
		Content:         in.Content,
		ImprovementDate: in.ImprovementDate,
		CreatedAt:       s.stamp(),
	}
	s.improvements = append(s.improvements, imp)
	c.JSON(http.StatusOK, imp)
}

// SeedDefect inserts a defect directly, bypassing the API.
func (s *Server) SeedDefect(d Defect) Defect {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.ID == 0 {
		d.ID = s.nextID()
	} else if d.ID > s.seq {
		s.seq = d.ID
	}
	if d.UniqueCode == "" {
		d.UniqueCode = fmt.Sprintf("UC-%06d", d.ID)
	}
	if d.CreatedAt == "" {
		d.CreatedAt = s.stamp()
	}
	if d.UpdatedAt == "" {
		d.UpdatedAt = d.CreatedAt
	}
	s.defects[d.ID] = &d
	return d
}

// SeedRecord inserts a plain resource row and returns its id.
func (s *Server) SeedRecord(path, idKey string, rec Record) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID()
	rec[idKey] = id
	s.records[path][id] = rec
	return id
}

func (s *Server) Defect(id int) (Defect, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.defects[id]
	if !ok {
		return Defect{}, false
	}
	return *d, true
}

func (s *Server) Marks() []Mark {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Mark(nil), s.marks...)
}

func (s *Server) Photos() []Photo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Photo(nil), s.photos...)
}

func (s *Server) Improvements() []Improvement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Improvement(nil), s.improvements...)
}

// Str is a helper for building *string fields.
func Str(v string) *string { return &v }
