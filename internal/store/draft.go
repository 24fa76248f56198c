package store

import (
	"sync"
	"time"

	api "github.com/fleetdeck/fleetdeck/api/v1alpha1"
	"github.com/fleetdeck/fleetdeck/internal/fderrors"
	"github.com/jellydator/ttlcache/v3"
	"github.com/mohae/deepcopy"
	"github.com/sirupsen/logrus"
)

// Draft holds, per device, the overlay of uncommitted application edits.
// It never reads or writes the device's committed target: every operation
// that needs the target receives a snapshot from the caller and only ever
// deep-copies it. Drafts live in memory only; an abandoned draft is
// reclaimed after the configured idle TTL.
type Draft interface {
	GetPendingApps(deviceId string) api.ApplicationMap
	HasPendingChanges(deviceId string) bool
	AddPendingApp(deviceId string, target api.ApplicationMap, app api.Application) error
	UpdatePendingApp(deviceId string, target api.ApplicationMap, appId int64, patch api.ApplicationPatch) (bool, error)
	UpdatePendingService(deviceId string, target api.ApplicationMap, appId, serviceId int64, patch api.ServicePatch) (bool, error)
	RemovePendingApp(deviceId string, target api.ApplicationMap, appId int64) (bool, error)
	DiscardDraft(deviceId string)
	Start()
	Stop()
}

// draftState is the full draft for one device. Its presence in the cache is
// what "has pending changes" means: a draft that exists but holds zero apps
// (every app removed) is still a pending change.
type draftState struct {
	Apps api.ApplicationMap
}

type DraftStore struct {
	cache *ttlcache.Cache[string, *draftState]
	mu    sync.Mutex
	log   logrus.FieldLogger
}

var _ Draft = (*DraftStore)(nil)

func NewDraft(ttl time.Duration, log logrus.FieldLogger) *DraftStore {
	if ttl <= 0 {
		ttl = ttlcache.NoTTL
	}
	return &DraftStore{
		// the TTL counts from the last edit, so reads do not keep an
		// abandoned draft alive
		cache: ttlcache.New(
			ttlcache.WithTTL[string, *draftState](ttl),
			ttlcache.WithDisableTouchOnHit[string, *draftState](),
		),
		log: log,
	}
}

// Start launches the cache's expiration loop.
func (s *DraftStore) Start() {
	go s.cache.Start()
}

func (s *DraftStore) Stop() {
	s.cache.Stop()
}

func (s *DraftStore) GetPendingApps(deviceId string) api.ApplicationMap {
	s.mu.Lock()
	defer s.mu.Unlock()

	draft := s.get(deviceId)
	if draft == nil {
		return api.ApplicationMap{}
	}
	return copyApps(draft.Apps)
}

func (s *DraftStore) HasPendingChanges(deviceId string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(deviceId) != nil
}

// AddPendingApp inserts a new application into the device's draft. The id
// must be fresh: adds naming an id already present in the target or the
// draft are rejected, since ids are allocated by the backend and never
// reused.
func (s *DraftStore) AddPendingApp(deviceId string, target api.ApplicationMap, app api.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	draft := s.seed(deviceId, target)
	if _, exists := target[app.AppId]; exists {
		return fderrors.ErrDuplicateAppId
	}
	if _, exists := draft.Apps[app.AppId]; exists {
		return fderrors.ErrDuplicateAppId
	}
	draft.Apps[app.AppId] = app
	s.put(deviceId, draft)
	return nil
}

// UpdatePendingApp merges the patch into the draft's copy of the
// application, seeding the draft from the target on first edit. Updates
// naming an id absent from both draft and target are defensive no-ops: the
// UI cannot construct such a call from rendered state, so nothing is
// seeded and (false, nil) is returned.
func (s *DraftStore) UpdatePendingApp(deviceId string, target api.ApplicationMap, appId int64, patch api.ApplicationPatch) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.knownApp(deviceId, target, appId) {
		return false, nil
	}
	draft := s.seed(deviceId, target)
	app := draft.Apps[appId]
	patch.Apply(&app)
	draft.Apps[appId] = app
	s.put(deviceId, draft)
	return true, nil
}

// UpdatePendingService locates the service inside the draft's copy of the
// application and merges the patch. Used for desired-state toggles as well
// as configuration edits.
func (s *DraftStore) UpdatePendingService(deviceId string, target api.ApplicationMap, appId, serviceId int64, patch api.ServicePatch) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.knownApp(deviceId, target, appId) {
		return false, nil
	}
	draft := s.seed(deviceId, target)
	app := draft.Apps[appId]
	svc := app.FindService(serviceId)
	if svc == nil {
		return false, nil
	}
	patch.Apply(svc)
	draft.Apps[appId] = app
	s.put(deviceId, draft)
	return true, nil
}

// RemovePendingApp deletes the application from the draft. Until the draft
// is deployed the application still exists in the target; the draft entry's
// absence is what marks it "deleted in draft".
func (s *DraftStore) RemovePendingApp(deviceId string, target api.ApplicationMap, appId int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.knownApp(deviceId, target, appId) {
		return false, nil
	}
	draft := s.seed(deviceId, target)
	delete(draft.Apps, appId)
	s.put(deviceId, draft)
	return true, nil
}

func (s *DraftStore) DiscardDraft(deviceId string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Delete(deviceId)
}

// get returns the live draft state, or nil. Callers hold s.mu.
func (s *DraftStore) get(deviceId string) *draftState {
	item := s.cache.Get(deviceId)
	if item == nil {
		return nil
	}
	return item.Value()
}

// seed returns the device's draft, creating it from a deep copy of the
// target on first edit so that apps the operator did not touch survive the
// eventual deploy unchanged. Callers hold s.mu.
func (s *DraftStore) seed(deviceId string, target api.ApplicationMap) *draftState {
	if draft := s.get(deviceId); draft != nil {
		return draft
	}
	return &draftState{Apps: copyApps(target)}
}

func (s *DraftStore) put(deviceId string, draft *draftState) {
	s.cache.Set(deviceId, draft, ttlcache.DefaultTTL)
}

// knownApp reports whether the app id resolves for edits. A draft, once
// present, supersedes the target wholesale, so an id deleted in the draft
// no longer resolves even though the target still carries it. Checking
// before seeding keeps stale-id no-ops from conjuring a draft.
func (s *DraftStore) knownApp(deviceId string, target api.ApplicationMap, appId int64) bool {
	if draft := s.get(deviceId); draft != nil {
		_, ok := draft.Apps[appId]
		return ok
	}
	_, ok := target[appId]
	return ok
}

func copyApps(apps api.ApplicationMap) api.ApplicationMap {
	if len(apps) == 0 {
		return api.ApplicationMap{}
	}
	return deepcopy.Copy(apps).(api.ApplicationMap)
}
