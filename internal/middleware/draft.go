package middleware

import (
	"encoding/json"

	"site-defects/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const sessionDraft = "defect_draft"

type DraftDetails struct {
	Description        string       `json:"defect_description"`
	CategoryID         *int         `json:"defect_category_id,omitempty"`
	AssignedVendorID   *int         `json:"assigned_vendor_id,omitempty"`
	PreviousDefectID   *int         `json:"previous_defect_id,omitempty"`
	ExpectedCompletion *models.Date `json:"expected_completion_day,omitempty"`
}

type DraftLocation struct {
	BaseMapID int     `json:"base_map_id"`
	X         int     `json:"coordinate_x"`
	Y         int     `json:"coordinate_y"`
	Scale     float64 `json:"scale,omitempty"`
}

// DefectDraftState is the multi-step defect form. Key doubles as the
// submission idempotency key; each step owns one of the other fields.
type DefectDraftState struct {
	Key        string         `json:"key"`
	ProjectID  int            `json:"project_id"`
	Details    *DraftDetails  `json:"details,omitempty"`
	Location   *DraftLocation `json:"location,omitempty"`
	PhotoCount int            `json:"photo_count"`
}

// LoadDraft returns the session's draft, starting a fresh one for the
// active project when none exists or the stored one belongs elsewhere.
func LoadDraft(c *gin.Context) DefectDraftState {
	sc := Session(c)
	sess := sessions.Default(c)
	if raw, ok := sess.Get(sessionDraft).(string); ok {
		var st DefectDraftState
		if err := json.Unmarshal([]byte(raw), &st); err == nil && st.Key != "" && st.ProjectID == sc.ActiveProjectID {
			return st
		}
	}
	return DefectDraftState{Key: uuid.NewString(), ProjectID: sc.ActiveProjectID}
}

func SaveDraft(c *gin.Context, st DefectDraftState) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return err
	}
	sess := sessions.Default(c)
	sess.Set(sessionDraft, string(raw))
	return sess.Save()
}

func ClearDraft(c *gin.Context) error {
	sess := sessions.Default(c)
	sess.Delete(sessionDraft)
	return sess.Save()
}
