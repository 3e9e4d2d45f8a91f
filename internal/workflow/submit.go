package workflow

import (
	"context"
	"errors"
	"fmt"

	"site-defects/internal/backend"
	"site-defects/internal/models"
	"site-defects/internal/store"

	"go.uber.org/zap"
)

// MarkInput places the defect on a basemap, in pixels of the stored image.
type MarkInput struct {
	BaseMapID int     `json:"base_map_id"`
	X         int     `json:"coordinate_x"`
	Y         int     `json:"coordinate_y"`
	Scale     float64 `json:"scale,omitempty"`
}

func (m MarkInput) build(defectID int) (models.DefectMark, error) {
	return models.NewDefectMark(defectID, m.BaseMapID, m.X, m.Y, m.Scale)
}

// SubmitRequest is one defect form. Key identifies the submission: sending
// the same key again resumes it instead of creating a second defect.
type SubmitRequest struct {
	Key    string
	Draft  models.DefectDraft
	Mark   *MarkInput
	Photos []models.PhotoUpload
}

type SubmitResult struct {
	Defect  *models.Defect
	Mark    *models.DefectMark
	Photos  []models.Photo
	Resumed bool
}

const (
	stepDefect = "defect"
	stepMark   = "mark"
	stepPhotos = "photos"
	stepStatus = "status"
)

// SubmitDefect creates the defect, then its mark, then its photos. Nothing
// is sent until the whole request validates. Once the defect exists, a
// failing step returns a *models.PartialFailureError naming what was kept.
func (s *Service) SubmitDefect(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	if err := s.validateSubmit(req); err != nil {
		return nil, s.finish(workflowSubmit, err)
	}
	if err := s.checkPrevious(ctx, req.Draft); err != nil {
		return nil, s.finish(workflowSubmit, err)
	}

	res := &SubmitResult{}
	defect, resumed, err := s.createOrResume(ctx, req)
	if err != nil {
		return nil, s.finish(workflowSubmit, err)
	}
	res.Defect, res.Resumed = defect, resumed
	completed := []string{stepDefect}

	if req.Mark != nil {
		mark, err := s.placeMark(ctx, defect, *req.Mark)
		if err != nil {
			return res, s.finish(workflowSubmit, s.partial(ctx, workflowSubmit, req.Draft.SubmittedBy, completed, stepMark, defect.ID, 0, err))
		}
		res.Mark = mark
		completed = append(completed, stepMark)
	}

	for i, p := range req.Photos {
		photo, err := s.attachPhoto(ctx, store.PhotoKey(defect.ID, digest(p.Data)), models.DefectPhoto{DefectID: defect.ID}, p)
		if err != nil {
			step := fmt.Sprintf("%s[%d]", stepPhotos, i)
			return res, s.finish(workflowSubmit, s.partial(ctx, workflowSubmit, req.Draft.SubmittedBy, completed, step, defect.ID, 0, err))
		}
		if photo != nil {
			res.Photos = append(res.Photos, *photo)
		}
		completed = append(completed, fmt.Sprintf("%s[%d]", stepPhotos, i))
	}

	return res, s.finish(workflowSubmit, nil)
}

func (s *Service) validateSubmit(req SubmitRequest) error {
	if err := req.Draft.Validate(); err != nil {
		return err
	}
	if req.Mark != nil {
		// the defect id is not known yet; any positive id validates the rest
		if _, err := req.Mark.build(1); err != nil {
			return err
		}
	}
	return validatePhotos(req.Photos)
}

func validatePhotos(photos []models.PhotoUpload) error {
	for i, p := range photos {
		if len(p.Data) == 0 {
			return fmt.Errorf("%w: photo %d (%q) is empty", models.ErrValidation, i+1, p.FileName)
		}
	}
	return nil
}

// checkPrevious verifies the linked earlier defect exists in the same project.
func (s *Service) checkPrevious(ctx context.Context, d models.DefectDraft) error {
	if d.PreviousDefectID == nil {
		return nil
	}
	prev, err := s.backend.GetDefect(ctx, *d.PreviousDefectID, backend.DefectQuery{})
	if errors.Is(err, models.ErrNotFound) {
		return models.CheckPreviousDefect(nil, d.ProjectID)
	}
	if err != nil {
		return err
	}
	return models.CheckPreviousDefect(prev, d.ProjectID)
}

func (s *Service) createOrResume(ctx context.Context, req SubmitRequest) (*models.Defect, bool, error) {
	if req.Key != "" {
		if id, ok := s.lookup(ctx, store.SubmissionKey(req.Key)); ok {
			d, err := s.backend.GetDefect(ctx, id, backend.DefectQuery{WithMarks: true, WithPhotos: true})
			switch {
			case err == nil:
				s.log.Info("resuming defect submission", zap.Int("defect_id", id))
				return d, true, nil
			case errors.Is(err, models.ErrNotFound):
				// deleted since; submit afresh
			default:
				return nil, false, err
			}
		}
	}

	d, err := s.backend.CreateDefect(ctx, req.Draft)
	if err != nil {
		return nil, false, err
	}
	if req.Key != "" {
		s.remember(ctx, store.SubmissionKey(req.Key), d.ID)
	}
	s.record(ctx, req.Draft.SubmittedBy, models.AuditEntityDefect, d.ID, models.AuditActionCreate,
		fmt.Sprintf("status=%s code=%s", d.Status, models.CodeFingerprint(d.UniqueCode)))
	s.log.Info("defect created",
		zap.Int("defect_id", d.ID),
		zap.Int("project_id", d.ProjectID),
		zap.String("code_fp", models.CodeFingerprint(d.UniqueCode)))
	return d, false, nil
}

// Abandon drops the replay record for key, so a later submission under
// the same key files a new defect.
func (s *Service) Abandon(ctx context.Context, key string) {
	if key == "" {
		return
	}
	s.forget(ctx, store.SubmissionKey(key))
}

// placeMark creates the defect's mark unless an earlier attempt already did.
func (s *Service) placeMark(ctx context.Context, defect *models.Defect, in MarkInput) (*models.DefectMark, error) {
	key := store.MarkKey(defect.ID)
	if id, ok := s.lookup(ctx, key); ok {
		for i := range defect.Marks {
			if defect.Marks[i].ID == id {
				return &defect.Marks[i], nil
			}
		}
		m, _ := in.build(defect.ID)
		m.ID = id
		return &m, nil
	}
	if existing := defect.PrimaryMark(); existing != nil {
		s.remember(ctx, key, existing.ID)
		return existing, nil
	}

	m, err := in.build(defect.ID)
	if err != nil {
		return nil, err
	}
	created, err := s.backend.CreateDefectMark(ctx, m)
	if err != nil {
		return nil, err
	}
	s.remember(ctx, key, created.ID)
	return created, nil
}

// attachPhoto uploads p unless key shows the same bytes already went up.
// A skipped upload returns a nil photo.
func (s *Service) attachPhoto(ctx context.Context, key string, target models.PhotoTarget, p models.PhotoUpload) (*models.Photo, error) {
	if _, ok := s.lookup(ctx, key); ok {
		return nil, nil
	}
	photo, err := s.backend.UploadPhoto(ctx, target, p)
	if err != nil {
		return nil, err
	}
	s.remember(ctx, key, photo.ID)
	return photo, nil
}

func (s *Service) partial(ctx context.Context, workflow string, userID int, completed []string, step string, defectID, improvementID int, cause error) error {
	pf := &models.PartialFailureError{
		Workflow:      workflow,
		Completed:     append([]string(nil), completed...),
		Step:          step,
		DefectID:      defectID,
		ImprovementID: improvementID,
		Err:           cause,
	}
	s.record(ctx, userID, models.AuditEntityDefect, defectID, models.AuditActionPartialFailure, pf.Error())
	s.log.Warn("workflow stopped part way",
		zap.String("workflow", workflow),
		zap.String("step", step),
		zap.Strings("completed", pf.Completed),
		zap.Int("defect_id", defectID),
		zap.Error(cause))
	return pf
}
