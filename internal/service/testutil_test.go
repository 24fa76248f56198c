package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	api "github.com/fleetdeck/fleetdeck/api/v1alpha1"
	"github.com/fleetdeck/fleetdeck/internal/client"
	"github.com/fleetdeck/fleetdeck/internal/fderrors"
	"github.com/fleetdeck/fleetdeck/internal/store"
	flog "github.com/fleetdeck/fleetdeck/pkg/log"
)

// memStore is an in-memory store.Store for handler tests. The draft half is
// the real DraftStore since it already lives in memory; the device and
// history halves are maps.
type memStore struct {
	device  *memDeviceStore
	draft   *store.DraftStore
	history *memDeployHistory
}

func newMemStore(log logrus.FieldLogger) *memStore {
	return &memStore{
		device:  &memDeviceStore{devices: map[string]*api.Device{}},
		draft:   store.NewDraft(0, log),
		history: &memDeployHistory{},
	}
}

func (s *memStore) Device() store.Device               { return s.device }
func (s *memStore) Draft() store.Draft                 { return s.draft }
func (s *memStore) DeployHistory() store.DeployHistory { return s.history }
func (s *memStore) InitialMigration() error            { return nil }
func (s *memStore) Close() error                       { return nil }

type memDeviceStore struct {
	devices map[string]*api.Device
}

func (s *memDeviceStore) Create(_ context.Context, device *api.Device) (*api.Device, error) {
	if device == nil {
		return nil, fderrors.ErrResourceIsNil
	}
	if _, ok := s.devices[device.Id]; ok {
		return nil, fderrors.ErrDuplicateName
	}
	stored := *device
	s.devices[device.Id] = &stored
	result := stored
	return &result, nil
}

func (s *memDeviceStore) Get(_ context.Context, id string) (*api.Device, error) {
	device, ok := s.devices[id]
	if !ok {
		return nil, fderrors.ErrResourceNotFound
	}
	result := *device
	return &result, nil
}

func (s *memDeviceStore) List(_ context.Context) (*api.DeviceList, error) {
	list := api.DeviceList{Items: []api.Device{}}
	for _, device := range s.devices {
		list.Items = append(list.Items, *device)
	}
	return &list, nil
}

func (s *memDeviceStore) Delete(_ context.Context, id string) error {
	if _, ok := s.devices[id]; !ok {
		return fderrors.ErrResourceNotFound
	}
	delete(s.devices, id)
	return nil
}

func (s *memDeviceStore) UpdateTarget(_ context.Context, id string, target api.DeviceTarget, expectedVersion int64) error {
	device, ok := s.devices[id]
	if !ok {
		return fderrors.ErrResourceNotFound
	}
	currentVersion := int64(0)
	if device.Target != nil {
		currentVersion = device.Target.Version
	}
	if currentVersion != expectedVersion {
		return fderrors.ErrResourceVersionConflict
	}
	device.Target = &target
	device.LastDeployFailure = nil
	return nil
}

func (s *memDeviceStore) UpdateReported(_ context.Context, id string, reported api.DeviceReported) error {
	device, ok := s.devices[id]
	if !ok {
		return fderrors.ErrResourceNotFound
	}
	device.Reported = &reported
	return nil
}

func (s *memDeviceStore) UpdateSummaryStatus(_ context.Context, id string, status api.DeviceSummaryStatusType) error {
	device, ok := s.devices[id]
	if !ok {
		return fderrors.ErrResourceNotFound
	}
	device.Status = status
	return nil
}

func (s *memDeviceStore) SetDeployFailure(_ context.Context, id string, failure api.DeployFailure) error {
	device, ok := s.devices[id]
	if !ok {
		return fderrors.ErrResourceNotFound
	}
	device.LastDeployFailure = &failure
	return nil
}

func (s *memDeviceStore) ClearDeployFailure(_ context.Context, id string) error {
	device, ok := s.devices[id]
	if !ok {
		return fderrors.ErrResourceNotFound
	}
	device.LastDeployFailure = nil
	return nil
}

func (s *memDeviceStore) InitialMigration() error { return nil }

type memDeployHistory struct {
	entries []api.DeployHistoryEntry
}

func (s *memDeployHistory) Record(_ context.Context, deviceId string, targetVersion int64, accepted bool, message string) error {
	s.entries = append(s.entries, api.DeployHistoryEntry{
		DeviceId:      deviceId,
		TargetVersion: targetVersion,
		Accepted:      accepted,
		Message:       message,
	})
	return nil
}

func (s *memDeployHistory) ListByDevice(_ context.Context, deviceId string, limit int) ([]api.DeployHistoryEntry, error) {
	var entries []api.DeployHistoryEntry
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].DeviceId != deviceId {
			continue
		}
		entries = append(entries, s.entries[i])
		if limit > 0 && len(entries) == limit {
			break
		}
	}
	return entries, nil
}

func (s *memDeployHistory) InitialMigration() error { return nil }

type submitCall struct {
	deviceId string
	apps     api.ApplicationMap
	version  int64
}

// fakeGateway answers every SubmitTarget with a programmed verdict. onSubmit,
// when set, runs before the verdict so tests can interleave concurrent writes.
type fakeGateway struct {
	err      error
	accepted bool
	message  string
	version  int64 // echoes the submitted version when zero
	onSubmit func()
	calls    []submitCall
}

var _ client.Gateway = (*fakeGateway)(nil)

func (g *fakeGateway) SubmitTarget(_ context.Context, deviceId string, apps api.ApplicationMap, version int64) (*client.SubmitResult, error) {
	g.calls = append(g.calls, submitCall{deviceId: deviceId, apps: apps, version: version})
	if g.onSubmit != nil {
		g.onSubmit()
	}
	if g.err != nil {
		return nil, g.err
	}
	recorded := g.version
	if recorded == 0 {
		recorded = version
	}
	return &client.SubmitResult{Accepted: g.accepted, Version: recorded, Message: g.message}, nil
}

// fakeAllocator hands out sequential ids starting above any seeded fixture.
type fakeAllocator struct {
	nextApp     int64
	nextService int64
	err         error
}

var _ client.IDAllocator = (*fakeAllocator)(nil)

func (a *fakeAllocator) NextAppID(_ context.Context) (int64, error) {
	if a.err != nil {
		return 0, a.err
	}
	a.nextApp++
	return 100 + a.nextApp, nil
}

func (a *fakeAllocator) NextServiceID(_ context.Context) (int64, error) {
	if a.err != nil {
		return 0, a.err
	}
	a.nextService++
	return 100 + a.nextService, nil
}

func newTestHandler() (*ServiceHandler, *memStore, *fakeGateway) {
	log := flog.InitLogs()
	st := newMemStore(log)
	gw := &fakeGateway{accepted: true}
	return NewServiceHandler(st, gw, &fakeAllocator{}, log), st, gw
}

// testDevice returns an online device with one app holding a running and a
// stopped service, reported in sync at version 1.
func testDevice(id string) *api.Device {
	return &api.Device{
		Id:         id,
		DeviceUuid: uuid.New(),
		Status:     api.DeviceSummaryStatusOnline,
		Target: &api.DeviceTarget{
			Version: 1,
			Apps: api.ApplicationMap{
				10: {
					AppId:   10,
					AppName: "telemetry",
					Services: []api.Service{
						{
							ServiceId:     1,
							ServiceName:   "collector",
							ImageName:     "registry.local/collector:1.4",
							DesiredState:  api.ServiceStateRunning,
							ReportedState: lo.ToPtr(api.ServiceReportedRunning),
						},
						{
							ServiceId:     2,
							ServiceName:   "uploader",
							ImageName:     "registry.local/uploader:2.0",
							DesiredState:  api.ServiceStateStopped,
							ReportedState: lo.ToPtr(api.ServiceReportedStopped),
						},
					},
				},
			},
		},
		Reported: &api.DeviceReported{
			Version: 1,
			Apps: map[int64]api.ApplicationReport{
				10: {Services: map[int64]api.ServiceReport{
					1: {State: api.ServiceReportedRunning},
					2: {State: api.ServiceReportedStopped},
				}},
			},
		},
	}
}

func seedDevice(st *memStore, device *api.Device) {
	st.device.devices[device.Id] = device
}
