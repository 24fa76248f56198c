package service

import (
	"context"
	"errors"

	api "github.com/fleetdeck/fleetdeck/api/v1alpha1"
	"github.com/fleetdeck/fleetdeck/internal/fderrors"
)

// getDevice maps store errors onto the Status vocabulary shared by every
// draft operation.
func (h *ServiceHandler) getDevice(ctx context.Context, deviceId string) (*api.Device, api.Status) {
	device, err := h.store.Device().Get(ctx, deviceId)
	switch {
	case err == nil:
		return device, api.StatusOK()
	case errors.Is(err, fderrors.ErrResourceNotFound):
		return nil, api.StatusResourceNotFound(api.DeviceKind, deviceId)
	default:
		return nil, api.StatusInternalServerError(err.Error())
	}
}

func targetApps(device *api.Device) api.ApplicationMap {
	if device.Target == nil {
		return api.ApplicationMap{}
	}
	return device.Target.Apps
}

func (h *ServiceHandler) GetTargetApps(ctx context.Context, deviceId string) (api.ApplicationMap, api.Status) {
	device, status := h.getDevice(ctx, deviceId)
	if !status.IsSuccess() {
		return nil, status
	}
	return targetApps(device), api.StatusOK()
}

func (h *ServiceHandler) GetPendingApps(ctx context.Context, deviceId string) (api.ApplicationMap, api.Status) {
	if _, status := h.getDevice(ctx, deviceId); !status.IsSuccess() {
		return nil, status
	}
	return h.store.Draft().GetPendingApps(deviceId), api.StatusOK()
}

// GetEffectiveApps returns what the dashboard should render: the draft when
// one exists, the target otherwise, with each service's reported state
// overlaid from the agent's last echo.
func (h *ServiceHandler) GetEffectiveApps(ctx context.Context, deviceId string) (api.ApplicationMap, api.Status) {
	device, status := h.getDevice(ctx, deviceId)
	if !status.IsSuccess() {
		return nil, status
	}
	apps := h.store.Draft().GetPendingApps(deviceId)
	if !h.store.Draft().HasPendingChanges(deviceId) {
		apps = copyTargetApps(device)
	}
	for appId, app := range apps {
		for i := range app.Services {
			app.Services[i].ReportedState = device.Reported.ReportedStateFor(appId, app.Services[i].ServiceId)
		}
	}
	return apps, api.StatusOK()
}

func (h *ServiceHandler) AddPendingApp(ctx context.Context, deviceId string, app api.Application) api.Status {
	if status := h.allocateIDs(ctx, &app); !status.IsSuccess() {
		return status
	}
	if err := app.Validate(); err != nil {
		return api.StatusBadRequest(err.Error())
	}
	device, status := h.getDevice(ctx, deviceId)
	if !status.IsSuccess() {
		return status
	}
	clearReportedState(&app)
	err := h.store.Draft().AddPendingApp(deviceId, targetApps(device), app)
	switch {
	case err == nil:
		h.draftEdited(ctx, device)
		return api.StatusCreated()
	case errors.Is(err, fderrors.ErrDuplicateAppId):
		return api.StatusConflict(err.Error())
	default:
		return api.StatusInternalServerError(err.Error())
	}
}

func (h *ServiceHandler) UpdatePendingApp(ctx context.Context, deviceId string, appId int64, patch api.ApplicationPatch) api.Status {
	if patch.Services != nil {
		for i := range *patch.Services {
			(*patch.Services)[i].ReportedState = nil
		}
	}
	device, status := h.getDevice(ctx, deviceId)
	if !status.IsSuccess() {
		return status
	}
	if current, ok := h.currentApp(deviceId, device, appId); ok {
		patch.Apply(&current)
		if err := current.Validate(); err != nil {
			return api.StatusBadRequest(err.Error())
		}
	}
	changed, err := h.store.Draft().UpdatePendingApp(deviceId, targetApps(device), appId, patch)
	if err != nil {
		return api.StatusInternalServerError(err.Error())
	}
	if changed {
		h.draftEdited(ctx, device)
	}
	// a stale id reference is a defensive no-op, not a fault
	return api.StatusOK()
}

func (h *ServiceHandler) UpdatePendingService(ctx context.Context, deviceId string, appId, serviceId int64, patch api.ServicePatch) api.Status {
	if patch.DesiredState != nil && !patch.DesiredState.IsValid() {
		return api.StatusBadRequest("invalid desiredState: " + string(*patch.DesiredState))
	}
	if patch.ServiceName != nil && *patch.ServiceName == "" {
		return api.StatusBadRequest("serviceName must not be empty")
	}
	if patch.ImageName != nil && *patch.ImageName == "" {
		return api.StatusBadRequest("imageName must not be empty")
	}
	device, status := h.getDevice(ctx, deviceId)
	if !status.IsSuccess() {
		return status
	}
	changed, err := h.store.Draft().UpdatePendingService(deviceId, targetApps(device), appId, serviceId, patch)
	if err != nil {
		return api.StatusInternalServerError(err.Error())
	}
	if changed {
		h.draftEdited(ctx, device)
	}
	return api.StatusOK()
}

func (h *ServiceHandler) RemovePendingApp(ctx context.Context, deviceId string, appId int64) api.Status {
	device, status := h.getDevice(ctx, deviceId)
	if !status.IsSuccess() {
		return status
	}
	changed, err := h.store.Draft().RemovePendingApp(deviceId, targetApps(device), appId)
	if err != nil {
		return api.StatusInternalServerError(err.Error())
	}
	if changed {
		h.draftEdited(ctx, device)
	}
	return api.StatusOK()
}

func (h *ServiceHandler) HasPendingChanges(ctx context.Context, deviceId string) (bool, api.Status) {
	if _, status := h.getDevice(ctx, deviceId); !status.IsSuccess() {
		return false, status
	}
	return h.store.Draft().HasPendingChanges(deviceId), api.StatusOK()
}

func (h *ServiceHandler) DiscardDraft(ctx context.Context, deviceId string) api.Status {
	if _, status := h.getDevice(ctx, deviceId); !status.IsSuccess() {
		return status
	}
	h.store.Draft().DiscardDraft(deviceId)
	return api.StatusOK()
}

// draftEdited runs after every draft mutation: an operator editing again
// supersedes the result of the previous deploy attempt, so a recorded
// failure is no longer current.
func (h *ServiceHandler) draftEdited(ctx context.Context, device *api.Device) {
	if device.LastDeployFailure == nil {
		return
	}
	if err := h.store.Device().ClearDeployFailure(ctx, device.Id); err != nil {
		h.log.Errorf("device %s: clearing stale deploy failure: %v", device.Id, err)
	}
}

// currentApp returns the application an edit would start from: the draft's
// copy when a draft exists, the target's otherwise. Used to validate a
// patch against its full result before any draft mutation happens.
func (h *ServiceHandler) currentApp(deviceId string, device *api.Device, appId int64) (api.Application, bool) {
	if h.store.Draft().HasPendingChanges(deviceId) {
		app, ok := h.store.Draft().GetPendingApps(deviceId)[appId]
		return app, ok
	}
	app, ok := targetApps(device)[appId]
	return app, ok
}

// allocateIDs fills in backend-allocated ids for an application submitted
// with id zero. The core never invents ids itself; they come from the fleet
// backend's allocator so they stay unique across the whole fleet.
func (h *ServiceHandler) allocateIDs(ctx context.Context, app *api.Application) api.Status {
	var err error
	if app.AppId == 0 {
		if app.AppId, err = h.allocator.NextAppID(ctx); err != nil {
			return api.StatusBadGateway("allocating application id: " + err.Error())
		}
	}
	for i := range app.Services {
		if app.Services[i].ServiceId != 0 {
			continue
		}
		if app.Services[i].ServiceId, err = h.allocator.NextServiceID(ctx); err != nil {
			return api.StatusBadGateway("allocating service id: " + err.Error())
		}
	}
	return api.StatusOK()
}

// clearReportedState strips agent-owned fields from operator input: only
// data arriving from the device agent may set a reported state.
func clearReportedState(app *api.Application) {
	for i := range app.Services {
		app.Services[i].ReportedState = nil
	}
}

func copyTargetApps(device *api.Device) api.ApplicationMap {
	apps := api.ApplicationMap{}
	for id, app := range targetApps(device) {
		services := make([]api.Service, len(app.Services))
		copy(services, app.Services)
		app.Services = services
		apps[id] = app
	}
	return apps
}
