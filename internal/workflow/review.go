package workflow

import (
	"context"
	"fmt"

	"site-defects/internal/backend"
	"site-defects/internal/models"

	"go.uber.org/zap"
)

// Apply moves defect id through ev. Only the status field is written.
func (s *Service) Apply(ctx context.Context, userID, defectID int, ev models.Event) (*models.Defect, error) {
	d, err := s.backend.GetDefect(ctx, defectID, backend.DefectQuery{})
	if err != nil {
		return nil, s.finish(workflowReview, err)
	}
	next, err := models.Transition(d.Status, ev)
	if err != nil {
		return nil, s.finish(workflowReview, fmt.Errorf("defect %d: %w", d.ID, err))
	}
	updated, err := s.backend.SetDefectStatus(ctx, d.ID, next)
	if err != nil {
		return nil, s.finish(workflowReview, err)
	}
	s.record(ctx, userID, models.AuditEntityDefect, d.ID, models.AuditActionStatusChange,
		fmt.Sprintf("%s: %s -> %s", ev, d.Status, next))
	s.log.Info("defect status changed",
		zap.Int("defect_id", d.ID),
		zap.Int("user_id", userID),
		zap.String("event", string(ev)),
		zap.String("from", d.Status.String()),
		zap.String("to", next.String()))
	return updated, s.finish(workflowReview, nil)
}

func (s *Service) Confirm(ctx context.Context, userID, defectID int) (*models.Defect, error) {
	return s.Apply(ctx, userID, defectID, models.EventConfirm)
}

func (s *Service) Reject(ctx context.Context, userID, defectID int) (*models.Defect, error) {
	return s.Apply(ctx, userID, defectID, models.EventReject)
}

func (s *Service) Cancel(ctx context.Context, userID, defectID int) (*models.Defect, error) {
	return s.Apply(ctx, userID, defectID, models.EventCancel)
}

func (s *Service) Hold(ctx context.Context, userID, defectID int) (*models.Defect, error) {
	return s.Apply(ctx, userID, defectID, models.EventHold)
}

func (s *Service) Resume(ctx context.Context, userID, defectID int) (*models.Defect, error) {
	return s.Apply(ctx, userID, defectID, models.EventResume)
}

// Delete removes a defect, typically one orphaned by a partial submission.
func (s *Service) Delete(ctx context.Context, userID, defectID int) error {
	if err := s.backend.DeleteDefect(ctx, defectID); err != nil {
		return s.finish(workflowReview, err)
	}
	s.record(ctx, userID, models.AuditEntityDefect, defectID, models.AuditActionDelete, "")
	s.log.Info("defect deleted", zap.Int("defect_id", defectID), zap.Int("user_id", userID))
	return s.finish(workflowReview, nil)
}
