package store

import (
	"testing"
	"time"

	api "github.com/fleetdeck/fleetdeck/api/v1alpha1"
	"github.com/fleetdeck/fleetdeck/internal/fderrors"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

const testDeviceId = "dev-1"

func newTestDraft() *DraftStore {
	return NewDraft(0, logrus.New())
}

func testTarget() api.ApplicationMap {
	return api.ApplicationMap{
		7: {
			AppId:   7,
			AppName: "edge",
			Services: []api.Service{
				{ServiceId: 1, ServiceName: "api", ImageName: "api:1", DesiredState: api.ServiceStateStopped},
			},
		},
		8: {
			AppId:   8,
			AppName: "metrics",
			Services: []api.Service{
				{ServiceId: 2, ServiceName: "collector", ImageName: "collector:3", DesiredState: api.ServiceStateRunning},
			},
		},
	}
}

func TestDraftEmptyByDefault(t *testing.T) {
	require := require.New(t)
	draft := newTestDraft()

	require.False(draft.HasPendingChanges(testDeviceId))
	require.Empty(draft.GetPendingApps(testDeviceId))
}

func TestSeedOnFirstEdit(t *testing.T) {
	require := require.New(t)
	draft := newTestDraft()
	target := testTarget()

	changed, err := draft.UpdatePendingService(testDeviceId, target, 7, 1,
		api.ServicePatch{DesiredState: lo.ToPtr(api.ServiceStateRunning)})
	require.NoError(err)
	require.True(changed)
	require.True(draft.HasPendingChanges(testDeviceId))

	pending := draft.GetPendingApps(testDeviceId)
	require.Len(pending, 2)
	require.Equal(api.ServiceStateRunning, pending[7].Services[0].DesiredState)

	// the untouched app is carried into the draft unchanged
	require.True(api.ApplicationsAreEqual(target[8], pending[8]))

	// the target snapshot the caller passed in is not mutated
	require.Equal(api.ServiceStateStopped, target[7].Services[0].DesiredState)
}

func TestAddPendingApp(t *testing.T) {
	require := require.New(t)
	draft := newTestDraft()
	target := testTarget()

	app := api.Application{AppId: 42, AppName: "cache"}
	require.NoError(draft.AddPendingApp(testDeviceId, target, app))

	pending := draft.GetPendingApps(testDeviceId)
	require.Len(pending, 3)
	require.Equal("cache", pending[42].AppName)
	// seeded from target before the add
	require.Contains(pending, int64(7))
	require.Contains(pending, int64(8))
}

func TestAddPendingAppToEmptyTarget(t *testing.T) {
	require := require.New(t)
	draft := newTestDraft()

	app := api.Application{AppId: 42, AppName: "cache", Services: []api.Service{}}
	require.NoError(draft.AddPendingApp("dev-2", nil, app))

	pending := draft.GetPendingApps("dev-2")
	require.Len(pending, 1)
	require.Equal("cache", pending[42].AppName)
}

func TestAddPendingAppRejectsDuplicateIds(t *testing.T) {
	require := require.New(t)
	draft := newTestDraft()
	target := testTarget()

	// id taken by the target
	err := draft.AddPendingApp(testDeviceId, target, api.Application{AppId: 7, AppName: "imp"})
	require.ErrorIs(err, fderrors.ErrDuplicateAppId)
	require.False(draft.HasPendingChanges(testDeviceId))

	// id taken by a previous draft add
	require.NoError(draft.AddPendingApp(testDeviceId, target, api.Application{AppId: 42, AppName: "cache"}))
	err = draft.AddPendingApp(testDeviceId, target, api.Application{AppId: 42, AppName: "cache-again"})
	require.ErrorIs(err, fderrors.ErrDuplicateAppId)
}

func TestUpdatePendingAppStaleIdIsNoop(t *testing.T) {
	require := require.New(t)
	draft := newTestDraft()
	target := testTarget()

	changed, err := draft.UpdatePendingApp(testDeviceId, target, 999,
		api.ApplicationPatch{AppName: lo.ToPtr("ghost")})
	require.NoError(err)
	require.False(changed)

	// a stale reference must not conjure a draft
	require.False(draft.HasPendingChanges(testDeviceId))
}

func TestUpdatePendingServiceStaleServiceIsNoop(t *testing.T) {
	require := require.New(t)
	draft := newTestDraft()
	target := testTarget()

	changed, err := draft.UpdatePendingService(testDeviceId, target, 7, 999,
		api.ServicePatch{DesiredState: lo.ToPtr(api.ServiceStateRunning)})
	require.NoError(err)
	require.False(changed)
	require.False(draft.HasPendingChanges(testDeviceId))
}

func TestPartialEditsCompose(t *testing.T) {
	require := require.New(t)
	draft := newTestDraft()
	target := testTarget()

	_, err := draft.UpdatePendingService(testDeviceId, target, 7, 1,
		api.ServicePatch{DesiredState: lo.ToPtr(api.ServiceStateRunning)})
	require.NoError(err)
	_, err = draft.UpdatePendingService(testDeviceId, target, 7, 1,
		api.ServicePatch{ImageName: lo.ToPtr("api:2")})
	require.NoError(err)
	_, err = draft.UpdatePendingApp(testDeviceId, target, 7,
		api.ApplicationPatch{AppName: lo.ToPtr("edge-v2")})
	require.NoError(err)

	pending := draft.GetPendingApps(testDeviceId)
	svc := pending[7].Services[0]
	require.Equal(api.ServiceStateRunning, svc.DesiredState)
	require.Equal("api:2", svc.ImageName)
	require.Equal("edge-v2", pending[7].AppName)
}

func TestRemovePendingApp(t *testing.T) {
	require := require.New(t)
	draft := newTestDraft()
	target := testTarget()

	changed, err := draft.RemovePendingApp(testDeviceId, target, 7)
	require.NoError(err)
	require.True(changed)

	pending := draft.GetPendingApps(testDeviceId)
	require.NotContains(pending, int64(7))
	require.Contains(pending, int64(8))

	// removing it again is a stale no-op
	changed, err = draft.RemovePendingApp(testDeviceId, target, 7)
	require.NoError(err)
	require.False(changed)

	// an id deleted in the draft no longer accepts edits either
	changed, err = draft.UpdatePendingApp(testDeviceId, target, 7,
		api.ApplicationPatch{AppName: lo.ToPtr("back")})
	require.NoError(err)
	require.False(changed)
}

func TestRemoveLastAppStillCountsAsPending(t *testing.T) {
	require := require.New(t)
	draft := newTestDraft()
	target := api.ApplicationMap{
		7: {AppId: 7, AppName: "edge"},
	}

	changed, err := draft.RemovePendingApp(testDeviceId, target, 7)
	require.NoError(err)
	require.True(changed)

	// the draft holds zero apps but the deletion is still an uncommitted
	// change
	require.True(draft.HasPendingChanges(testDeviceId))
	require.Empty(draft.GetPendingApps(testDeviceId))
}

func TestDiscardDraft(t *testing.T) {
	require := require.New(t)
	draft := newTestDraft()
	target := testTarget()

	_, err := draft.UpdatePendingApp(testDeviceId, target, 7,
		api.ApplicationPatch{AppName: lo.ToPtr("edge-v2")})
	require.NoError(err)
	require.True(draft.HasPendingChanges(testDeviceId))

	draft.DiscardDraft(testDeviceId)
	require.False(draft.HasPendingChanges(testDeviceId))
	require.Empty(draft.GetPendingApps(testDeviceId))
}

func TestDraftsAreIsolatedPerDevice(t *testing.T) {
	require := require.New(t)
	draft := newTestDraft()
	target := testTarget()

	_, err := draft.UpdatePendingApp("dev-1", target, 7,
		api.ApplicationPatch{AppName: lo.ToPtr("edge-v2")})
	require.NoError(err)

	require.True(draft.HasPendingChanges("dev-1"))
	require.False(draft.HasPendingChanges("dev-2"))
}

func TestGetPendingAppsReturnsCopies(t *testing.T) {
	require := require.New(t)
	draft := newTestDraft()
	target := testTarget()

	_, err := draft.UpdatePendingApp(testDeviceId, target, 7,
		api.ApplicationPatch{AppName: lo.ToPtr("edge-v2")})
	require.NoError(err)

	pending := draft.GetPendingApps(testDeviceId)
	pending[7].Services[0] = api.Service{ServiceId: 99, ServiceName: "mangled", ImageName: "x"}

	again := draft.GetPendingApps(testDeviceId)
	require.Equal("api", again[7].Services[0].ServiceName)
}

func TestDraftExpiresAfterTTL(t *testing.T) {
	require := require.New(t)
	draft := NewDraft(20*time.Millisecond, logrus.New())
	draft.Start()
	defer draft.Stop()
	target := testTarget()

	_, err := draft.UpdatePendingApp(testDeviceId, target, 7,
		api.ApplicationPatch{AppName: lo.ToPtr("edge-v2")})
	require.NoError(err)
	require.True(draft.HasPendingChanges(testDeviceId))

	require.Eventually(func() bool {
		return !draft.HasPendingChanges(testDeviceId)
	}, time.Second, 10*time.Millisecond)
}
