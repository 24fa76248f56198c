package service

import (
	"context"

	api "github.com/fleetdeck/fleetdeck/api/v1alpha1"
)

// Service is the dashboard-facing surface of the reconciliation core. Every
// operation returns its outcome as an api.Status value; nothing here panics
// or throws for control flow.
type Service interface {
	// Device registry
	CreateDevice(ctx context.Context, device api.Device) (*api.Device, api.Status)
	GetDevice(ctx context.Context, deviceId string) (*api.Device, api.Status)
	ListDevices(ctx context.Context) (*api.DeviceList, api.Status)
	DeleteDevice(ctx context.Context, deviceId string) api.Status

	// Draft overlay
	GetTargetApps(ctx context.Context, deviceId string) (api.ApplicationMap, api.Status)
	GetPendingApps(ctx context.Context, deviceId string) (api.ApplicationMap, api.Status)
	GetEffectiveApps(ctx context.Context, deviceId string) (api.ApplicationMap, api.Status)
	AddPendingApp(ctx context.Context, deviceId string, app api.Application) api.Status
	UpdatePendingApp(ctx context.Context, deviceId string, appId int64, patch api.ApplicationPatch) api.Status
	UpdatePendingService(ctx context.Context, deviceId string, appId, serviceId int64, patch api.ServicePatch) api.Status
	RemovePendingApp(ctx context.Context, deviceId string, appId int64) api.Status
	HasPendingChanges(ctx context.Context, deviceId string) (bool, api.Status)
	DiscardDraft(ctx context.Context, deviceId string) api.Status

	// Sync status
	GetSyncStatus(ctx context.Context, deviceId string) (api.SyncStatusType, api.Status)

	// Service lifecycle intents
	StartService(ctx context.Context, deviceId string, appId, serviceId int64) api.Status
	PauseService(ctx context.Context, deviceId string, appId, serviceId int64) api.Status
	StopService(ctx context.Context, deviceId string, appId, serviceId int64) api.Status

	// Deploy coordination
	Deploy(ctx context.Context, deviceId string) (*api.DeployResult, api.Status)
	CancelDeploy(ctx context.Context, deviceId string) api.Status
	ListDeployHistory(ctx context.Context, deviceId string, limit int) ([]api.DeployHistoryEntry, api.Status)

	// Agent feed (poll or push, driven by the surrounding application)
	UpdateReported(ctx context.Context, deviceId string, reported api.DeviceReported) api.Status
	UpdateSummaryStatus(ctx context.Context, deviceId string, status api.DeviceSummaryStatusType) api.Status
}
