package store

import (
	"context"

	api "github.com/fleetdeck/fleetdeck/api/v1alpha1"
	"github.com/fleetdeck/fleetdeck/internal/fderrors"
	"github.com/fleetdeck/fleetdeck/internal/store/model"
	"github.com/fleetdeck/fleetdeck/pkg/log"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Device interface {
	Create(ctx context.Context, device *api.Device) (*api.Device, error)
	Get(ctx context.Context, id string) (*api.Device, error)
	List(ctx context.Context) (*api.DeviceList, error)
	Delete(ctx context.Context, id string) error
	UpdateTarget(ctx context.Context, id string, target api.DeviceTarget, expectedVersion int64) error
	UpdateReported(ctx context.Context, id string, reported api.DeviceReported) error
	UpdateSummaryStatus(ctx context.Context, id string, status api.DeviceSummaryStatusType) error
	SetDeployFailure(ctx context.Context, id string, failure api.DeployFailure) error
	ClearDeployFailure(ctx context.Context, id string) error
	InitialMigration() error
}

type DeviceStore struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

// Make sure we conform to Device interface
var _ Device = (*DeviceStore)(nil)

func NewDevice(db *gorm.DB, log logrus.FieldLogger) Device {
	return &DeviceStore{db: db, log: log}
}

func (s *DeviceStore) InitialMigration() error {
	return s.db.AutoMigrate(&model.Device{})
}

func (s *DeviceStore) Create(ctx context.Context, resource *api.Device) (*api.Device, error) {
	log := log.WithReqIDFromCtx(ctx, s.log)
	device, err := model.NewDeviceFromApiResource(resource)
	if err != nil {
		return nil, err
	}

	result := s.db.WithContext(ctx).Create(device)
	log.Debugf("db.Create(%s): %d rows affected, error is %v", device.ID, result.RowsAffected, result.Error)
	return resource, fderrors.ErrorFromGormError(result.Error)
}

func (s *DeviceStore) Get(ctx context.Context, id string) (*api.Device, error) {
	device := model.Device{ID: id}
	result := s.db.WithContext(ctx).First(&device)
	if result.Error != nil {
		return nil, fderrors.ErrorFromGormError(result.Error)
	}
	return device.ToApiResource(), nil
}

func (s *DeviceStore) List(ctx context.Context) (*api.DeviceList, error) {
	var devices model.DeviceList
	result := s.db.WithContext(ctx).Order("id").Find(&devices)
	if result.Error != nil {
		return nil, fderrors.ErrorFromGormError(result.Error)
	}
	list := devices.ToApiResource()
	return &list, nil
}

func (s *DeviceStore) Delete(ctx context.Context, id string) error {
	log := log.WithReqIDFromCtx(ctx, s.log)
	result := s.db.WithContext(ctx).Unscoped().Delete(&model.Device{ID: id})
	log.Debugf("db.Delete(%s): %d rows affected, error is %v", id, result.RowsAffected, result.Error)
	if result.Error != nil {
		return fderrors.ErrorFromGormError(result.Error)
	}
	if result.RowsAffected == 0 {
		return fderrors.ErrResourceNotFound
	}
	return nil
}

// UpdateTarget commits a new target. The write is guarded by the version
// the caller observed: a concurrent commit by another session moves the
// version and surfaces here as ErrResourceVersionConflict, leaving the
// caller's draft intact for a retry against fresh state.
func (s *DeviceStore) UpdateTarget(ctx context.Context, id string, target api.DeviceTarget, expectedVersion int64) error {
	log := log.WithReqIDFromCtx(ctx, s.log)
	result := s.db.WithContext(ctx).Model(&model.Device{}).
		Where("id = ? AND target_version = ?", id, expectedVersion).
		Updates(map[string]interface{}{
			"target":              model.MakeJSONField(target),
			"target_version":      target.Version,
			"last_deploy_failure": nil,
		})
	log.Debugf("db.UpdateTarget(%s, v%d): %d rows affected, error is %v", id, target.Version, result.RowsAffected, result.Error)
	if result.Error != nil {
		return fderrors.ErrorFromGormError(result.Error)
	}
	if result.RowsAffected == 0 {
		if _, err := s.Get(ctx, id); err != nil {
			return err
		}
		return fderrors.ErrResourceVersionConflict
	}
	return nil
}

// UpdateReported is the agent feed's only write path. It touches the
// reported column and nothing else: drafts are not visible from here,
// which is what keeps a background refresh from clobbering in-flight
// edits.
func (s *DeviceStore) UpdateReported(ctx context.Context, id string, reported api.DeviceReported) error {
	result := s.db.WithContext(ctx).Model(&model.Device{ID: id}).
		Updates(map[string]interface{}{
			"reported": model.MakeJSONField(reported),
		})
	if result.Error != nil {
		return fderrors.ErrorFromGormError(result.Error)
	}
	if result.RowsAffected == 0 {
		return fderrors.ErrResourceNotFound
	}
	return nil
}

func (s *DeviceStore) UpdateSummaryStatus(ctx context.Context, id string, status api.DeviceSummaryStatusType) error {
	result := s.db.WithContext(ctx).Model(&model.Device{ID: id}).
		Updates(map[string]interface{}{
			"status": string(status),
		})
	if result.Error != nil {
		return fderrors.ErrorFromGormError(result.Error)
	}
	if result.RowsAffected == 0 {
		return fderrors.ErrResourceNotFound
	}
	return nil
}

func (s *DeviceStore) SetDeployFailure(ctx context.Context, id string, failure api.DeployFailure) error {
	result := s.db.WithContext(ctx).Model(&model.Device{ID: id}).
		Updates(map[string]interface{}{
			"last_deploy_failure": model.MakeJSONField(failure),
		})
	if result.Error != nil {
		return fderrors.ErrorFromGormError(result.Error)
	}
	if result.RowsAffected == 0 {
		return fderrors.ErrResourceNotFound
	}
	return nil
}

func (s *DeviceStore) ClearDeployFailure(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Model(&model.Device{ID: id}).
		Updates(map[string]interface{}{
			"last_deploy_failure": nil,
		})
	return fderrors.ErrorFromGormError(result.Error)
}
