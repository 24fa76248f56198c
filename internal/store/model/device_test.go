package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	api "github.com/fleetdeck/fleetdeck/api/v1alpha1"
	"github.com/fleetdeck/fleetdeck/internal/fderrors"
)

func TestDeviceResourceRoundTrip(t *testing.T) {
	require := require.New(t)

	resource := &api.Device{
		Id:         "edge-gw-01",
		DeviceUuid: uuid.New(),
		Status:     api.DeviceSummaryStatusOnline,
		Labels:     map[string]string{"site": "plant-7", "tier": "gateway"},
		Target: &api.DeviceTarget{
			Version: 3,
			Apps: api.ApplicationMap{
				10: {AppId: 10, AppName: "telemetry", Services: []api.Service{
					{ServiceId: 1, ServiceName: "collector", ImageName: "registry.local/collector:1.4", DesiredState: api.ServiceStateRunning},
				}},
			},
		},
		Reported: &api.DeviceReported{
			Version: 2,
			Apps: map[int64]api.ApplicationReport{
				10: {Services: map[int64]api.ServiceReport{1: {State: api.ServiceReportedRunning}}},
			},
		},
		LastDeployFailure: &api.DeployFailure{TargetVersion: 3, Message: "rejected"},
	}

	device, err := NewDeviceFromApiResource(resource)
	require.NoError(err)
	require.Equal(int64(3), device.TargetVersion)

	back := device.ToApiResource()
	require.Equal(resource.Id, back.Id)
	require.Equal(resource.DeviceUuid, back.DeviceUuid)
	require.Equal(resource.Status, back.Status)
	require.Equal(resource.Labels, back.Labels)
	require.Equal(resource.Target, back.Target)
	require.Equal(resource.Reported, back.Reported)
	require.Equal(resource.LastDeployFailure, back.LastDeployFailure)
}

func TestDeviceFromNilResource(t *testing.T) {
	_, err := NewDeviceFromApiResource(nil)
	require.ErrorIs(t, err, fderrors.ErrResourceIsNil)
}

func TestSparseDeviceRoundTrip(t *testing.T) {
	require := require.New(t)

	device, err := NewDeviceFromApiResource(&api.Device{Id: "fresh", DeviceUuid: uuid.New()})
	require.NoError(err)
	require.Zero(device.TargetVersion)

	back := device.ToApiResource()
	require.Nil(back.Target)
	require.Nil(back.Reported)
	require.Nil(back.LastDeployFailure)
}
