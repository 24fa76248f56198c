package v1alpha1

import (
	"reflect"
	"sort"

	"github.com/samber/lo"
)

// ResolveSyncStatus derives the single per-device sync status from the
// current store state. It is a pure function of its inputs so callers may
// invoke it on every render or poll tick.
//
// The rules form a priority chain:
//
//  1. a recorded deploy failure that has not been superseded (the target
//     version has not advanced past the attempted version) wins: the
//     operator must see that their last commit did not land;
//  2. otherwise uncommitted draft edits win over everything downstream;
//  3. otherwise a target version the agent has not echoed back yet means
//     the device is still syncing;
//  4. otherwise the device is synced.
//
// A failure becomes stale as soon as the operator edits the draft again
// (the service layer clears it on every draft mutation) or a later commit
// succeeds (the version guard here).
func ResolveSyncStatus(target *DeviceTarget, reported *DeviceReported, hasPendingChanges bool, failure *DeployFailure) SyncStatusType {
	targetVersion := int64(0)
	if target != nil {
		targetVersion = target.Version
	}
	if failure != nil && failure.TargetVersion > targetVersion {
		return SyncStatusError
	}
	if hasPendingChanges {
		return SyncStatusPending
	}
	reportedVersion := int64(0)
	if reported != nil {
		reportedVersion = reported.Version
	}
	if targetVersion > reportedVersion {
		return SyncStatusSyncing
	}
	return SyncStatusSynced
}

// SortedServices returns the application's services in display order,
// alphabetical by service name.
func (a Application) SortedServices() []Service {
	services := make([]Service, len(a.Services))
	copy(services, a.Services)
	sort.Slice(services, func(i, j int) bool {
		return services[i].ServiceName < services[j].ServiceName
	})
	return services
}

// FindService returns a pointer into the application's service slice, or
// nil if no service carries the given id.
func (a Application) FindService(serviceId int64) *Service {
	for i := range a.Services {
		if a.Services[i].ServiceId == serviceId {
			return &a.Services[i]
		}
	}
	return nil
}

// ReportedStateFor looks up the agent's last observation for a service, or
// nil if the agent has never reported it.
func (r *DeviceReported) ReportedStateFor(appId, serviceId int64) *ServiceReportedState {
	if r == nil {
		return nil
	}
	app, ok := r.Apps[appId]
	if !ok {
		return nil
	}
	report, ok := app.Services[serviceId]
	if !ok {
		return nil
	}
	return lo.ToPtr(report.State)
}

// Apply merges the patch into the application. Nil fields leave the
// application untouched; set fields replace theirs wholesale.
func (p ApplicationPatch) Apply(app *Application) {
	if p.AppName != nil {
		app.AppName = *p.AppName
	}
	if p.Services != nil {
		app.Services = *p.Services
	}
}

// Apply merges the patch into the service. Config is replaced as a unit:
// the value is opaque here, so there is no field-level merge inside it.
func (p ServicePatch) Apply(svc *Service) {
	if p.ServiceName != nil {
		svc.ServiceName = *p.ServiceName
	}
	if p.ImageName != nil {
		svc.ImageName = *p.ImageName
	}
	if p.Config != nil {
		svc.Config = p.Config
	}
	if p.DesiredState != nil {
		svc.DesiredState = *p.DesiredState
	}
}

func ApplicationsAreEqual(a1, a2 Application) bool {
	if a1.AppId != a2.AppId || a1.AppName != a2.AppName {
		return false
	}
	return reflect.DeepEqual(a1.SortedServices(), a2.SortedServices())
}

func ApplicationMapsAreEqual(m1, m2 ApplicationMap) bool {
	if len(m1) != len(m2) {
		return false
	}
	for id, app := range m1 {
		other, ok := m2[id]
		if !ok || !ApplicationsAreEqual(app, other) {
			return false
		}
	}
	return true
}
