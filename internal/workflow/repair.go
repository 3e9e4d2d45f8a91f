package workflow

import (
	"context"
	"fmt"
	"strings"

	"site-defects/internal/backend"
	"site-defects/internal/models"
	"site-defects/internal/store"

	"go.uber.org/zap"
)

// RepairRequest is a vendor's repair report. The unique code is the only
// identity it carries.
type RepairRequest struct {
	Code            string
	Content         string
	ImprovementDate models.Date
	Photos          []models.PhotoUpload
}

type RepairResult struct {
	Defect      *models.Defect
	Improvement *models.Improvement
	Photos      []models.Photo
}

const stepImprovement = "improvement"

// SubmitRepair files an Improvement against the defect the code resolves to
// and uploads its photos keyed by the improvement. It does not move the
// defect's status; AdvanceAfterRepair does that.
func (s *Service) SubmitRepair(ctx context.Context, req RepairRequest) (*RepairResult, error) {
	if err := validateRepair(req); err != nil {
		return nil, s.finish(workflowRepair, err)
	}
	fp := models.CodeFingerprint(req.Code)

	defect, err := s.backend.DefectByCode(ctx, req.Code)
	if err != nil {
		s.log.Info("repair code did not resolve", zap.String("code_fp", fp), zap.Error(err))
		return nil, s.finish(workflowRepair, err)
	}
	if _, err := models.Transition(defect.Status, models.EventRepairSubmitted); err != nil {
		s.log.Info("repair refused",
			zap.Int("defect_id", defect.ID),
			zap.String("status", defect.Status.String()))
		return nil, s.finish(workflowRepair, fmt.Errorf("defect %d: %w", defect.ID, err))
	}

	content := strings.TrimSpace(req.Content)
	key := repairKey(defect.ID, req)
	completed := []string{stepImprovement}

	var imp *models.Improvement
	if id, ok := s.lookup(ctx, key); ok {
		// an earlier attempt filed this report and stopped at its photos
		imp = &models.Improvement{ID: id, DefectID: defect.ID, Content: content, ImprovementDate: req.ImprovementDate}
		s.log.Info("repair resumed", zap.Int("defect_id", defect.ID), zap.Int("improvement_id", id))
	} else {
		imp, err = s.backend.CreateImprovementByCode(ctx, req.Code, content, req.ImprovementDate)
		if err != nil {
			return nil, s.finish(workflowRepair, err)
		}
		s.remember(ctx, key, imp.ID)
		s.record(ctx, 0, models.AuditEntityDefect, defect.ID, models.AuditActionRepair,
			fmt.Sprintf("improvement=%d date=%s", imp.ID, imp.ImprovementDate))
		s.record(ctx, 0, models.AuditEntityImprovement, imp.ID, models.AuditActionCreate,
			fmt.Sprintf("defect=%d", defect.ID))
	}
	res := &RepairResult{Defect: defect, Improvement: imp}

	for i, p := range req.Photos {
		photo, err := s.attachPhoto(ctx, store.RepairPhotoKey(imp.ID, digest(p.Data)), models.ImprovementPhoto{ImprovementID: imp.ID}, p)
		if err != nil {
			step := fmt.Sprintf("%s[%d]", stepPhotos, i)
			return res, s.finish(workflowRepair, s.partial(ctx, workflowRepair, 0, completed, step, defect.ID, imp.ID, err))
		}
		if photo != nil {
			res.Photos = append(res.Photos, *photo)
		}
		completed = append(completed, fmt.Sprintf("%s[%d]", stepPhotos, i))
	}

	s.log.Info("repair submitted",
		zap.Int("defect_id", defect.ID),
		zap.Int("improvement_id", imp.ID),
		zap.Int("photos", len(res.Photos)),
		zap.String("code_fp", fp))
	return res, s.finish(workflowRepair, nil)
}

func repairKey(defectID int, req RepairRequest) string {
	content := strings.TrimSpace(req.Content)
	return store.RepairKey(defectID, digest([]byte(content+"|"+req.ImprovementDate.String())))
}

func validateRepair(req RepairRequest) error {
	var missing []string
	if strings.TrimSpace(req.Code) == "" {
		missing = append(missing, "unique_code")
	}
	if strings.TrimSpace(req.Content) == "" {
		missing = append(missing, "content")
	}
	if req.ImprovementDate.IsZero() {
		missing = append(missing, "improvement_date")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", models.ErrValidation, strings.Join(missing, ", "))
	}
	return validatePhotos(req.Photos)
}

// AdvanceAfterRepair moves a repaired defect to pending confirmation. A
// defect already pending is returned unchanged, so the call can be repeated.
func (s *Service) AdvanceAfterRepair(ctx context.Context, defectID int) (*models.Defect, error) {
	d, err := s.backend.GetDefect(ctx, defectID, backend.DefectQuery{})
	if err != nil {
		return nil, err
	}
	if d.Status == models.StatusPendingConfirmation {
		return d, nil
	}
	next, err := models.Transition(d.Status, models.EventRepairSubmitted)
	if err != nil {
		return nil, fmt.Errorf("defect %d: %w", d.ID, err)
	}
	updated, err := s.backend.SetDefectStatus(ctx, d.ID, next)
	if err != nil {
		return nil, err
	}
	s.record(ctx, 0, models.AuditEntityDefect, d.ID, models.AuditActionStatusChange,
		fmt.Sprintf("%s -> %s", d.Status, next))
	return updated, nil
}

// SubmitRepairAndAdvance runs SubmitRepair and then AdvanceAfterRepair. When
// the status update fails the improvement stays filed and the error is a
// *models.PartialFailureError on the status step.
func (s *Service) SubmitRepairAndAdvance(ctx context.Context, req RepairRequest) (*RepairResult, error) {
	res, err := s.SubmitRepair(ctx, req)
	if err != nil {
		return res, err
	}
	updated, err := s.AdvanceAfterRepair(ctx, res.Defect.ID)
	if err != nil {
		completed := []string{stepImprovement}
		for i := range req.Photos {
			completed = append(completed, fmt.Sprintf("%s[%d]", stepPhotos, i))
		}
		return res, s.partial(ctx, workflowRepair, 0, completed, stepStatus, res.Defect.ID, res.Improvement.ID, err)
	}
	// the report is through; a new report after a rejection files anew
	s.forget(ctx, repairKey(res.Defect.ID, req))
	res.Defect = updated
	return res, nil
}

// IsRepairable reports whether a vendor may file a repair against d now.
func IsRepairable(d *models.Defect) bool {
	if d == nil {
		return false
	}
	_, err := models.Transition(d.Status, models.EventRepairSubmitted)
	return err == nil
}
