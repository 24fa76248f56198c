package store

import (
	"context"

	api "github.com/fleetdeck/fleetdeck/api/v1alpha1"
	"github.com/fleetdeck/fleetdeck/internal/fderrors"
	"github.com/fleetdeck/fleetdeck/internal/store/model"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// DeployHistory is the append-only audit trail of deploy attempts.
type DeployHistory interface {
	Record(ctx context.Context, deviceId string, targetVersion int64, accepted bool, message string) error
	ListByDevice(ctx context.Context, deviceId string, limit int) ([]api.DeployHistoryEntry, error)
	InitialMigration() error
}

type DeployHistoryStore struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

var _ DeployHistory = (*DeployHistoryStore)(nil)

func NewDeployHistory(db *gorm.DB, log logrus.FieldLogger) DeployHistory {
	return &DeployHistoryStore{db: db, log: log}
}

func (s *DeployHistoryStore) InitialMigration() error {
	return s.db.AutoMigrate(&model.DeployRecord{})
}

func (s *DeployHistoryStore) Record(ctx context.Context, deviceId string, targetVersion int64, accepted bool, message string) error {
	record := model.DeployRecord{
		DeviceID:      deviceId,
		TargetVersion: targetVersion,
		Accepted:      accepted,
		Message:       message,
	}
	result := s.db.WithContext(ctx).Create(&record)
	return fderrors.ErrorFromGormError(result.Error)
}

func (s *DeployHistoryStore) ListByDevice(ctx context.Context, deviceId string, limit int) ([]api.DeployHistoryEntry, error) {
	var records []model.DeployRecord
	query := s.db.WithContext(ctx).Where("device_id = ?", deviceId).Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if result := query.Find(&records); result.Error != nil {
		return nil, fderrors.ErrorFromGormError(result.Error)
	}
	entries := make([]api.DeployHistoryEntry, len(records))
	for i := range records {
		entries[i] = records[i].ToApiResource()
	}
	return entries, nil
}
