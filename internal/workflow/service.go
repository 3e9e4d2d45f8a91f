// Package workflow runs the multi-step operations on defects: submission,
// vendor repair reports and reviewer transitions. Each step is its own
// backend call; there is no rollback, so the steps are ordered and made
// repeatable through the ledger.
package workflow

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"site-defects/internal/backend"
	"site-defects/internal/metrics"
	"site-defects/internal/models"
	"site-defects/internal/store"

	"go.uber.org/zap"
)

// Backend is the part of the REST client the workflows call.
type Backend interface {
	CreateDefect(ctx context.Context, draft models.DefectDraft) (*models.Defect, error)
	GetDefect(ctx context.Context, id int, q backend.DefectQuery) (*models.Defect, error)
	DefectByCode(ctx context.Context, code string) (*models.Defect, error)
	SetDefectStatus(ctx context.Context, id int, s models.Status) (*models.Defect, error)
	DeleteDefect(ctx context.Context, id int) error
	CreateDefectMark(ctx context.Context, m models.DefectMark) (*models.DefectMark, error)
	UploadPhoto(ctx context.Context, target models.PhotoTarget, p models.PhotoUpload) (*models.Photo, error)
	CreateImprovementByCode(ctx context.Context, code, content string, date models.Date) (*models.Improvement, error)
}

// Ledger records ids of steps that already reached the backend.
type Ledger interface {
	Lookup(ctx context.Context, key string) (int, error)
	Remember(ctx context.Context, key string, id int) error
	Forget(ctx context.Context, keys ...string) error
}

type AuditRecorder interface {
	Record(ctx context.Context, userID int, entity string, entityID int, action, details string)
}

const (
	workflowSubmit = "submit"
	workflowRepair = "repair"
	workflowReview = "review"
)

type Options struct {
	Backend Backend
	Ledger  Ledger
	Audit   AuditRecorder
	Metrics *metrics.WorkflowMetrics
	Logger  *zap.Logger
	Now     func() time.Time
}

type Service struct {
	backend Backend
	ledger  Ledger
	audit   AuditRecorder
	metrics *metrics.WorkflowMetrics
	log     *zap.Logger
	now     func() time.Time
}

func NewService(opts Options) *Service {
	s := &Service{
		backend: opts.Backend,
		ledger:  opts.Ledger,
		audit:   opts.Audit,
		metrics: opts.Metrics,
		log:     opts.Logger,
		now:     opts.Now,
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Today is the service clock, exposed so callers classify urgency against
// the same day the workflows use.
func (s *Service) Today() time.Time { return s.now() }

func (s *Service) record(ctx context.Context, userID int, entity string, id int, action, details string) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, userID, entity, id, action, details)
}

// finish reports the workflow outcome and passes err through.
func (s *Service) finish(workflow string, err error) error {
	outcome := metrics.OutcomeOK
	switch {
	case err == nil:
	case errors.As(err, new(*models.PartialFailureError)):
		outcome = metrics.OutcomePartial
	case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrInvalidState),
		errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrReference):
		outcome = metrics.OutcomeRejected
	default:
		outcome = metrics.OutcomeFailed
	}
	s.metrics.Observe(workflow, outcome)
	return err
}

// lookup returns the recorded id for key. A ledger outage degrades to a
// miss: the submission proceeds without replay protection.
func (s *Service) lookup(ctx context.Context, key string) (int, bool) {
	if s.ledger == nil {
		return 0, false
	}
	id, err := s.ledger.Lookup(ctx, key)
	if err != nil {
		if !errors.Is(err, store.ErrMiss) {
			s.log.Warn("ledger lookup failed", zap.String("key", key), zap.Error(err))
		}
		return 0, false
	}
	return id, true
}

func (s *Service) remember(ctx context.Context, key string, id int) {
	if s.ledger == nil {
		return
	}
	if err := s.ledger.Remember(ctx, key, id); err != nil {
		s.log.Warn("ledger write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *Service) forget(ctx context.Context, keys ...string) {
	if s.ledger == nil {
		return
	}
	if err := s.ledger.Forget(ctx, keys...); err != nil {
		s.log.Warn("ledger forget failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

func digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
