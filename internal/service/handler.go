package service

import (
	"context"
	"errors"

	api "github.com/fleetdeck/fleetdeck/api/v1alpha1"
	"github.com/fleetdeck/fleetdeck/internal/client"
	"github.com/fleetdeck/fleetdeck/internal/fderrors"
	"github.com/fleetdeck/fleetdeck/internal/store"
	"github.com/sirupsen/logrus"
)

type ServiceHandler struct {
	store     store.Store
	gateway   client.Gateway
	allocator client.IDAllocator
	log       logrus.FieldLogger
}

var _ Service = (*ServiceHandler)(nil)

func NewServiceHandler(store store.Store, gateway client.Gateway, allocator client.IDAllocator, log logrus.FieldLogger) *ServiceHandler {
	return &ServiceHandler{
		store:     store,
		gateway:   gateway,
		allocator: allocator,
		log:       log,
	}
}

func (h *ServiceHandler) CreateDevice(ctx context.Context, device api.Device) (*api.Device, api.Status) {
	if device.Id == "" {
		return nil, api.StatusBadRequest("device id is not set")
	}
	if device.Status != "" && !device.Status.IsValid() {
		return nil, api.StatusBadRequest("invalid device status: " + string(device.Status))
	}
	result, err := h.store.Device().Create(ctx, &device)
	switch {
	case err == nil:
		return result, api.StatusCreated()
	case errors.Is(err, fderrors.ErrDuplicateName):
		return nil, api.StatusConflict(err.Error())
	default:
		return nil, api.StatusInternalServerError(err.Error())
	}
}

func (h *ServiceHandler) GetDevice(ctx context.Context, deviceId string) (*api.Device, api.Status) {
	result, err := h.store.Device().Get(ctx, deviceId)
	switch {
	case err == nil:
		return result, api.StatusOK()
	case errors.Is(err, fderrors.ErrResourceNotFound):
		return nil, api.StatusResourceNotFound(api.DeviceKind, deviceId)
	default:
		return nil, api.StatusInternalServerError(err.Error())
	}
}

func (h *ServiceHandler) ListDevices(ctx context.Context) (*api.DeviceList, api.Status) {
	result, err := h.store.Device().List(ctx)
	if err != nil {
		return nil, api.StatusInternalServerError(err.Error())
	}
	return result, api.StatusOK()
}

func (h *ServiceHandler) DeleteDevice(ctx context.Context, deviceId string) api.Status {
	// the draft goes first so a half-deleted device cannot keep edits alive
	h.store.Draft().DiscardDraft(deviceId)
	err := h.store.Device().Delete(ctx, deviceId)
	switch {
	case err == nil:
		return api.StatusOK()
	case errors.Is(err, fderrors.ErrResourceNotFound):
		return api.StatusResourceNotFound(api.DeviceKind, deviceId)
	default:
		return api.StatusInternalServerError(err.Error())
	}
}

func (h *ServiceHandler) UpdateReported(ctx context.Context, deviceId string, reported api.DeviceReported) api.Status {
	for appId, app := range reported.Apps {
		for serviceId, report := range app.Services {
			if !report.State.IsValid() {
				h.log.Warnf("device %s: app %d service %d reported unknown state %q", deviceId, appId, serviceId, report.State)
				return api.StatusBadRequest("invalid reported state: " + string(report.State))
			}
		}
	}
	err := h.store.Device().UpdateReported(ctx, deviceId, reported)
	switch {
	case err == nil:
		return api.StatusOK()
	case errors.Is(err, fderrors.ErrResourceNotFound):
		return api.StatusResourceNotFound(api.DeviceKind, deviceId)
	default:
		return api.StatusInternalServerError(err.Error())
	}
}

func (h *ServiceHandler) UpdateSummaryStatus(ctx context.Context, deviceId string, status api.DeviceSummaryStatusType) api.Status {
	if !status.IsValid() {
		return api.StatusBadRequest("invalid device status: " + string(status))
	}
	err := h.store.Device().UpdateSummaryStatus(ctx, deviceId, status)
	switch {
	case err == nil:
		return api.StatusOK()
	case errors.Is(err, fderrors.ErrResourceNotFound):
		return api.StatusResourceNotFound(api.DeviceKind, deviceId)
	default:
		return api.StatusInternalServerError(err.Error())
	}
}
