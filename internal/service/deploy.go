package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	api "github.com/fleetdeck/fleetdeck/api/v1alpha1"
	"github.com/fleetdeck/fleetdeck/internal/fderrors"
)

// Deploy submits the device's draft to the fleet backend and, on acceptance,
// commits it as the new target and clears the draft. With no pending changes
// the call is a no-op. A rejection or transport failure leaves the draft
// intact and records the failure against the device.
func (h *ServiceHandler) Deploy(ctx context.Context, deviceId string) (*api.DeployResult, api.Status) {
	device, status := h.getDevice(ctx, deviceId)
	if !status.IsSuccess() {
		return nil, status
	}
	if !h.store.Draft().HasPendingChanges(deviceId) {
		return nil, api.StatusNoContent()
	}

	currentVersion := int64(0)
	if device.Target != nil {
		currentVersion = device.Target.Version
	}
	candidate := api.DeviceTarget{
		Version: currentVersion + 1,
		Apps:    h.store.Draft().GetPendingApps(deviceId),
	}

	result, err := h.gateway.SubmitTarget(ctx, deviceId, candidate.Apps, candidate.Version)
	if err != nil {
		return h.deployFailed(ctx, deviceId, candidate.Version, err.Error(), api.StatusBadGateway(err.Error()))
	}
	if !result.Accepted {
		message := result.Message
		if message == "" {
			message = "target rejected by fleet backend"
		}
		return h.deployFailed(ctx, deviceId, candidate.Version, message, api.StatusConflict(message))
	}

	// the version the backend recorded is authoritative; it normally
	// echoes the submitted one but may have advanced
	if result.Version != 0 {
		candidate.Version = result.Version
	}

	if err := h.store.Device().UpdateTarget(ctx, deviceId, candidate, currentVersion); err != nil {
		switch {
		case errors.Is(err, fderrors.ErrResourceVersionConflict):
			// another editor committed first; their draft won, ours stays
			return nil, api.StatusResourceVersionConflict(fmt.Sprintf("device %s target changed underneath this draft", deviceId))
		case errors.Is(err, fderrors.ErrResourceNotFound):
			return nil, api.StatusResourceNotFound(api.DeviceKind, deviceId)
		default:
			return nil, api.StatusInternalServerError(err.Error())
		}
	}
	h.store.Draft().DiscardDraft(deviceId)
	if err := h.store.DeployHistory().Record(ctx, deviceId, candidate.Version, true, ""); err != nil {
		h.log.Errorf("device %s: recording deploy v%d: %v", deviceId, candidate.Version, err)
	}
	h.log.Infof("device %s: deployed target v%d", deviceId, candidate.Version)
	return &api.DeployResult{Accepted: true, Version: candidate.Version}, api.StatusOK()
}

func (h *ServiceHandler) deployFailed(ctx context.Context, deviceId string, version int64, message string, status api.Status) (*api.DeployResult, api.Status) {
	failure := api.DeployFailure{
		TargetVersion: version,
		Message:       message,
		Time:          time.Now().UTC(),
	}
	if err := h.store.Device().SetDeployFailure(ctx, deviceId, failure); err != nil {
		h.log.Errorf("device %s: recording deploy failure: %v", deviceId, err)
	}
	if err := h.store.DeployHistory().Record(ctx, deviceId, version, false, message); err != nil {
		h.log.Errorf("device %s: recording deploy v%d: %v", deviceId, version, err)
	}
	h.log.Warnf("device %s: deploy of target v%d failed: %s", deviceId, version, message)
	return &api.DeployResult{Version: version, Failure: &failure}, status
}

// CancelDeploy throws away the draft without touching the committed target.
func (h *ServiceHandler) CancelDeploy(ctx context.Context, deviceId string) api.Status {
	return h.DiscardDraft(ctx, deviceId)
}

func (h *ServiceHandler) ListDeployHistory(ctx context.Context, deviceId string, limit int) ([]api.DeployHistoryEntry, api.Status) {
	if _, status := h.getDevice(ctx, deviceId); !status.IsSuccess() {
		return nil, status
	}
	entries, err := h.store.DeployHistory().ListByDevice(ctx, deviceId, limit)
	if err != nil {
		return nil, api.StatusInternalServerError(err.Error())
	}
	return entries, api.StatusOK()
}
