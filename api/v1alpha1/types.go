package v1alpha1

import (
	"time"

	"github.com/google/uuid"
)

const (
	APIGroup         = "fleetdeck.io"
	DeviceAPIVersion = "v1alpha1"

	DeviceKind      = "Device"
	DeviceListKind  = "DeviceList"
	ApplicationKind = "Application"
	ServiceKind     = "Service"
)

// DeviceSummaryStatusType is the connectivity status of a device as tracked
// by the fleet registry. It is read-only input to this service: it gates
// whether operator actions are permitted at all.
type DeviceSummaryStatusType string

const (
	DeviceSummaryStatusOnline  DeviceSummaryStatusType = "online"
	DeviceSummaryStatusOffline DeviceSummaryStatusType = "offline"
	DeviceSummaryStatusWarning DeviceSummaryStatusType = "warning"
	DeviceSummaryStatusPending DeviceSummaryStatusType = "pending"
)

// ServiceDesiredState is what the operator wants a service to be doing.
type ServiceDesiredState string

const (
	ServiceStateRunning ServiceDesiredState = "running"
	ServiceStatePaused  ServiceDesiredState = "paused"
	ServiceStateStopped ServiceDesiredState = "stopped"
)

// ServiceReportedState is what the device agent last observed for a service.
// A nil pointer on Service.ReportedState means the service has never been
// deployed to the device.
type ServiceReportedState string

const (
	ServiceReportedRunning ServiceReportedState = "running"
	ServiceReportedPaused  ServiceReportedState = "paused"
	ServiceReportedStopped ServiceReportedState = "stopped"
	ServiceReportedSyncing ServiceReportedState = "syncing"
	ServiceReportedPending ServiceReportedState = "pending"
)

// SyncStatusType summarizes the relationship between draft, target and
// reported state for a device.
type SyncStatusType string

const (
	SyncStatusSynced  SyncStatusType = "synced"
	SyncStatusPending SyncStatusType = "pending"
	SyncStatusSyncing SyncStatusType = "syncing"
	SyncStatusError   SyncStatusType = "error"
)

// ServiceConfig carries ports, environment, volumes, labels and whatever
// else the UI and backend agree on. It is opaque to this service and passed
// through untouched; shape validation belongs to the edges.
type ServiceConfig map[string]interface{}

type Service struct {
	// Unique within the owning application. Assigned by the backend ID
	// allocator before the service is first added to a draft.
	ServiceId     int64                 `json:"serviceId"`
	ServiceName   string                `json:"serviceName"`
	ImageName     string                `json:"imageName"`
	Config        *ServiceConfig        `json:"config,omitempty"`
	DesiredState  ServiceDesiredState   `json:"desiredState"`
	ReportedState *ServiceReportedState `json:"reportedState,omitempty"`
}

type Application struct {
	// Fleet-unique, assigned by the backend ID allocator. Never reused for
	// a different logical application.
	AppId    int64     `json:"appId"`
	AppName  string    `json:"appName"`
	Services []Service `json:"services"`
}

// ApplicationMap is the draft/target shape: applications keyed by AppId.
// JSON object keys are the stringified IDs.
type ApplicationMap map[int64]Application

// DeviceTarget is the application set last committed by an operator,
// together with its monotonically increasing version.
type DeviceTarget struct {
	Version int64          `json:"version"`
	Apps    ApplicationMap `json:"apps"`
}

// ServiceReport is the agent's last observation for one service.
type ServiceReport struct {
	State ServiceReportedState `json:"state"`
}

type ApplicationReport struct {
	Services map[int64]ServiceReport `json:"services"`
}

// DeviceReported is the most recent state echoed back by the device agent,
// including the target version it last applied. Written only by the agent
// feed, never by operator actions.
type DeviceReported struct {
	Version   int64                       `json:"version"`
	Apps      map[int64]ApplicationReport `json:"apps"`
	UpdatedAt time.Time                   `json:"updatedAt"`
}

// DeployFailure records the rejection or transport failure of the last
// deploy attempt. TargetVersion is the version that was attempted, not the
// one currently committed.
type DeployFailure struct {
	TargetVersion int64     `json:"targetVersion"`
	Message       string    `json:"message"`
	Time          time.Time `json:"time"`
}

type Device struct {
	Id         string                  `json:"id"`
	DeviceUuid uuid.UUID               `json:"deviceUuid"`
	Status     DeviceSummaryStatusType `json:"status"`
	Labels     map[string]string       `json:"labels,omitempty"`

	Target            *DeviceTarget   `json:"target,omitempty"`
	Reported          *DeviceReported `json:"reported,omitempty"`
	LastDeployFailure *DeployFailure  `json:"lastDeployFailure,omitempty"`

	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

type DeviceList struct {
	Items []Device `json:"items"`
}

// ApplicationPatch merges into a draft's copy of an application. Nil fields
// are left alone; set fields win wholesale (last write wins per field).
type ApplicationPatch struct {
	AppName  *string    `json:"appName,omitempty"`
	Services *[]Service `json:"services,omitempty"`
}

// ServicePatch merges into one service inside a draft application. Config
// is replaced as a unit, never merged key by key.
type ServicePatch struct {
	ServiceName  *string              `json:"serviceName,omitempty"`
	ImageName    *string              `json:"imageName,omitempty"`
	Config       *ServiceConfig       `json:"config,omitempty"`
	DesiredState *ServiceDesiredState `json:"desiredState,omitempty"`
}

// DeployHistoryEntry is one recorded deploy attempt, accepted or not.
type DeployHistoryEntry struct {
	DeviceId      string    `json:"deviceId"`
	TargetVersion int64     `json:"targetVersion"`
	Accepted      bool      `json:"accepted"`
	Message       string    `json:"message,omitempty"`
	Time          time.Time `json:"time"`
}

// DeployResult is returned by the deploy coordinator. Accepted deploys carry
// the new authoritative target version; rejected ones carry the failure that
// was recorded for the attempted version.
type DeployResult struct {
	Accepted bool           `json:"accepted"`
	Version  int64          `json:"version"`
	Failure  *DeployFailure `json:"failure,omitempty"`
}
