package v1alpha1

import "fmt"

// Validate rejects malformed applications before any draft mutation takes
// place, so a failed validation leaves the draft untouched.
func (a Application) Validate() error {
	if a.AppId < 0 {
		return fmt.Errorf("appId must not be negative, got %d", a.AppId)
	}
	if a.AppName == "" {
		return fmt.Errorf("appName must not be empty")
	}
	seen := make(map[int64]struct{}, len(a.Services))
	for _, svc := range a.Services {
		if err := svc.Validate(); err != nil {
			return fmt.Errorf("service %q: %w", svc.ServiceName, err)
		}
		if _, ok := seen[svc.ServiceId]; ok {
			return fmt.Errorf("duplicate serviceId %d", svc.ServiceId)
		}
		seen[svc.ServiceId] = struct{}{}
	}
	return nil
}

func (s Service) Validate() error {
	if s.ServiceId < 0 {
		return fmt.Errorf("serviceId must not be negative, got %d", s.ServiceId)
	}
	if s.ServiceName == "" {
		return fmt.Errorf("serviceName must not be empty")
	}
	if s.ImageName == "" {
		return fmt.Errorf("imageName must not be empty")
	}
	if s.DesiredState != "" && !s.DesiredState.IsValid() {
		return fmt.Errorf("invalid desiredState: %s", s.DesiredState)
	}
	return nil
}

func (s ServiceDesiredState) IsValid() bool {
	switch s {
	case ServiceStateRunning, ServiceStatePaused, ServiceStateStopped:
		return true
	default:
		return false
	}
}

func (s ServiceReportedState) IsValid() bool {
	switch s {
	case ServiceReportedRunning, ServiceReportedPaused, ServiceReportedStopped,
		ServiceReportedSyncing, ServiceReportedPending:
		return true
	default:
		return false
	}
}

func (s DeviceSummaryStatusType) IsValid() bool {
	switch s {
	case DeviceSummaryStatusOnline, DeviceSummaryStatusOffline,
		DeviceSummaryStatusWarning, DeviceSummaryStatusPending:
		return true
	default:
		return false
	}
}
