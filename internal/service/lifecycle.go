package service

import (
	"context"
	"fmt"
	"strconv"

	api "github.com/fleetdeck/fleetdeck/api/v1alpha1"
)

// Reported states that block a given lifecycle intent. A nil reported state
// (service never deployed) additionally blocks pause and stop, since there
// is nothing running to act on.
var (
	startBlockedStates = []api.ServiceReportedState{api.ServiceReportedRunning, api.ServiceReportedSyncing}
	pauseBlockedStates = []api.ServiceReportedState{api.ServiceReportedPaused, api.ServiceReportedStopped, api.ServiceReportedSyncing}
	stopBlockedStates  = []api.ServiceReportedState{api.ServiceReportedStopped, api.ServiceReportedSyncing}
)

func (h *ServiceHandler) StartService(ctx context.Context, deviceId string, appId, serviceId int64) api.Status {
	return h.toggleService(ctx, deviceId, appId, serviceId, api.ServiceStateRunning, startBlockedStates, false)
}

func (h *ServiceHandler) PauseService(ctx context.Context, deviceId string, appId, serviceId int64) api.Status {
	return h.toggleService(ctx, deviceId, appId, serviceId, api.ServiceStatePaused, pauseBlockedStates, true)
}

func (h *ServiceHandler) StopService(ctx context.Context, deviceId string, appId, serviceId int64) api.Status {
	return h.toggleService(ctx, deviceId, appId, serviceId, api.ServiceStateStopped, stopBlockedStates, true)
}

// toggleService applies one lifecycle intent by staging the new desired
// state as a draft edit. The next deploy carries it to the device.
func (h *ServiceHandler) toggleService(ctx context.Context, deviceId string, appId, serviceId int64, desired api.ServiceDesiredState,
	blocked []api.ServiceReportedState, requireDeployed bool) api.Status {
	device, status := h.getDevice(ctx, deviceId)
	if !status.IsSuccess() {
		return status
	}
	if device.Status == api.DeviceSummaryStatusOffline {
		return api.StatusActionNotAllowed(fmt.Sprintf("device %s is offline", deviceId))
	}
	switch syncStatus := h.resolveSyncStatus(device); syncStatus {
	case api.SyncStatusPending, api.SyncStatusSyncing:
		return api.StatusActionNotAllowed(fmt.Sprintf("device %s has a %s deployment", deviceId, syncStatus))
	}
	app, ok := targetApps(device)[appId]
	if !ok {
		return api.StatusResourceNotFound(api.ApplicationKind, strconv.FormatInt(appId, 10))
	}
	if app.FindService(serviceId) == nil {
		return api.StatusResourceNotFound(api.ServiceKind, strconv.FormatInt(serviceId, 10))
	}
	reported := device.Reported.ReportedStateFor(appId, serviceId)
	if reported == nil {
		if requireDeployed {
			return api.StatusActionNotAllowed(fmt.Sprintf("service %d has never been deployed", serviceId))
		}
	} else {
		for _, state := range blocked {
			if *reported == state {
				return api.StatusActionNotAllowed(fmt.Sprintf("service %d is %s", serviceId, state))
			}
		}
	}

	patch := api.ServicePatch{DesiredState: &desired}
	changed, err := h.store.Draft().UpdatePendingService(deviceId, targetApps(device), appId, serviceId, patch)
	if err != nil {
		return api.StatusInternalServerError(err.Error())
	}
	if changed {
		h.draftEdited(ctx, device)
	}
	return api.StatusOK()
}
