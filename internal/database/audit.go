package database

import (
	"context"

	"site-defects/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const historyLimit = 200

// AuditStore writes and reads the local audit log.
type AuditStore struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewAuditStore(db *gorm.DB, log *zap.Logger) *AuditStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuditStore{db: db, log: log}
}

// Record appends one entry. A failed write is logged and otherwise ignored:
// the audit log never blocks a workflow that already reached the backend.
func (s *AuditStore) Record(ctx context.Context, userID int, entity string, entityID int, action, details string) {
	if s == nil || s.db == nil {
		return
	}
	entry := models.AuditLog{
		UserID:   userID,
		Entity:   entity,
		EntityID: entityID,
		Action:   action,
		Details:  details,
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		s.log.Warn("audit write failed",
			zap.String("entity", entity),
			zap.Int("entity_id", entityID),
			zap.String("action", action),
			zap.Error(err))
	}
}

// History lists the entries of one entity, oldest first.
func (s *AuditStore) History(ctx context.Context, entity string, entityID int) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	err := s.db.WithContext(ctx).
		Where("entity = ? AND entity_id = ?", entity, entityID).
		Order("created_at asc").
		Order("id asc").
		Limit(historyLimit).
		Find(&logs).Error
	return logs, err
}

// Recent lists the latest entries across all entities, newest first.
func (s *AuditStore) Recent(ctx context.Context, limit int) ([]models.AuditLog, error) {
	if limit <= 0 || limit > historyLimit {
		limit = historyLimit
	}
	var logs []models.AuditLog
	err := s.db.WithContext(ctx).
		Order("created_at desc").
		Order("id desc").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}
