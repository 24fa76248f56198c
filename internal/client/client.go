// Package client declares the contracts of the collaborators this service
// talks to but does not implement: the fleet backend that persists and
// relays committed targets toward devices, and the backend ID allocator.
// Transports live elsewhere; everything here is in-memory values.
package client

import (
	"context"

	api "github.com/fleetdeck/fleetdeck/api/v1alpha1"
)

// SubmitResult is the backend's verdict on a submitted target. A rejection
// (Accepted false) and a transport error are handled identically by the
// deploy coordinator: the draft survives, nothing is retried automatically.
type SubmitResult struct {
	Accepted bool
	// The version the backend recorded for the accepted target. Backends
	// normally echo the submitted version back.
	Version int64
	Message string
}

type Gateway interface {
	SubmitTarget(ctx context.Context, deviceId string, apps api.ApplicationMap, version int64) (*SubmitResult, error)
}

// IDAllocator hands out fresh fleet-unique application ids and per-app
// service ids. Callers allocate before adding to a draft; this service
// itself never generates ids and never handles collisions.
type IDAllocator interface {
	NextAppID(ctx context.Context) (int64, error)
	NextServiceID(ctx context.Context) (int64, error)
}
