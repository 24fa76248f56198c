package service

import (
	"context"

	api "github.com/fleetdeck/fleetdeck/api/v1alpha1"
)

// GetSyncStatus resolves the device's single rendered sync badge from the
// persisted device row and the in-memory draft overlay.
func (h *ServiceHandler) GetSyncStatus(ctx context.Context, deviceId string) (api.SyncStatusType, api.Status) {
	device, status := h.getDevice(ctx, deviceId)
	if !status.IsSuccess() {
		return "", status
	}
	hasPending := h.store.Draft().HasPendingChanges(deviceId)
	return api.ResolveSyncStatus(device.Target, device.Reported, hasPending, device.LastDeployFailure), api.StatusOK()
}

func (h *ServiceHandler) resolveSyncStatus(device *api.Device) api.SyncStatusType {
	return api.ResolveSyncStatus(device.Target, device.Reported, h.store.Draft().HasPendingChanges(device.Id), device.LastDeployFailure)
}
