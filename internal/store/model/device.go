package model

import (
	"encoding/json"
	"time"

	api "github.com/fleetdeck/fleetdeck/api/v1alpha1"
	"github.com/fleetdeck/fleetdeck/internal/fderrors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Device struct {
	// Uniquely identifies the device within the fleet. Assigned by the
	// fleet registry. Immutable.
	ID string `gorm:"primaryKey"`

	DeviceUuid uuid.UUID `gorm:"type:uuid;uniqueIndex"`

	// Connectivity status, written only through the agent feed path.
	Status string `gorm:"index"`

	// Operator-assigned labels for fleet-side grouping and filtering.
	Labels JSONMap[string, string] `gorm:"type:jsonb"`

	// The committed application set, stored as opaque JSON object.
	Target *JSONField[api.DeviceTarget] `gorm:"type:jsonb"`

	// Denormalized copy of Target.Version. The deploy coordinator's
	// optimistic version guard matches against this column.
	TargetVersion int64

	// The last state echoed back by the device agent, stored as opaque
	// JSON object.
	Reported *JSONField[api.DeviceReported] `gorm:"type:jsonb"`

	// The failure of the last deploy attempt, if it has not been
	// superseded by a later successful commit.
	LastDeployFailure *JSONField[api.DeployFailure] `gorm:"type:jsonb"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

type DeviceList []Device

func (d Device) String() string {
	val, _ := json.Marshal(d)
	return string(val)
}

func NewDeviceFromApiResource(resource *api.Device) (*Device, error) {
	if resource == nil {
		return nil, fderrors.ErrResourceIsNil
	}

	device := &Device{
		ID:         resource.Id,
		DeviceUuid: resource.DeviceUuid,
		Status:     string(resource.Status),
		Labels:     resource.Labels,
	}
	if resource.Target != nil {
		device.Target = MakeJSONField(*resource.Target)
		device.TargetVersion = resource.Target.Version
	}
	if resource.Reported != nil {
		device.Reported = MakeJSONField(*resource.Reported)
	}
	if resource.LastDeployFailure != nil {
		device.LastDeployFailure = MakeJSONField(*resource.LastDeployFailure)
	}
	return device, nil
}

func (d *Device) ToApiResource() *api.Device {
	if d == nil {
		return &api.Device{}
	}

	device := &api.Device{
		Id:         d.ID,
		DeviceUuid: d.DeviceUuid,
		Status:     api.DeviceSummaryStatusType(d.Status),
		Labels:     d.Labels,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
	if d.Target != nil {
		target := d.Target.Data
		device.Target = &target
	}
	if d.Reported != nil {
		reported := d.Reported.Data
		device.Reported = &reported
	}
	if d.LastDeployFailure != nil {
		failure := d.LastDeployFailure.Data
		device.LastDeployFailure = &failure
	}
	return device
}

func (l DeviceList) ToApiResource() api.DeviceList {
	devices := make([]api.Device, len(l))
	for i, device := range l {
		devices[i] = *device.ToApiResource()
	}
	return api.DeviceList{Items: devices}
}
