// Package manager ties the session store, the launcher, and the host's
// notification surface together behind one façade. The host's list, search,
// and edit widgets call into it; it keeps an explicit snapshot of the saved
// sessions and refreshes it after every mutation.
package manager

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/plaunch/plaunch-core/config"
	"github.com/plaunch/plaunch-core/launcher"
	"github.com/plaunch/plaunch-core/logger"
	"github.com/plaunch/plaunch-core/registry"
	"github.com/plaunch/plaunch-core/session"
)

// Compile-time interface satisfaction check.
var _ launcher.ClientSettings = (*config.Config)(nil)

// SessionManager handles profile lifecycle operations: listing, filtering,
// create/update/delete, and delegating launches. Failures are reported
// through the notifier and returned; none of them are fatal to the host.
type SessionManager struct {
	store    *session.Store
	launcher *launcher.Launcher
	notifier launcher.Notifier

	mu       sync.RWMutex // protects snapshot
	snapshot Snapshot
}

// NewSessionManager creates a manager over the given store and launcher.
func NewSessionManager(store *session.Store, l *launcher.Launcher) *SessionManager {
	return &SessionManager{
		store:    store,
		launcher: l,
		notifier: launcher.NopNotifier{},
	}
}

// NewFromConfig builds a manager from the app settings: the sessions-root
// override (when set) relocates the store, and the client path feeds the
// launcher.
func NewFromConfig(cfg *config.Config, client registry.Client) *SessionManager {
	store := session.NewStore(client)
	if root := cfg.GetSessionsRoot(); root != "" {
		store = session.NewStoreWithRoot(client, root)
	}
	return NewSessionManager(store, launcher.New(cfg))
}

// DefaultTarget seeds the ad-hoc connection form from the app settings.
func DefaultTarget(cfg *config.Config) launcher.Target {
	return launcher.Target{
		Port:     cfg.GetDefaultPort(),
		Protocol: session.Protocol(cfg.GetDefaultProtocol()),
	}
}

// SetNotifier installs the host's notification surface on the manager and
// its launcher.
func (sm *SessionManager) SetNotifier(n launcher.Notifier) {
	if n == nil {
		n = launcher.NopNotifier{}
	}
	sm.notifier = n
	sm.launcher.SetNotifier(n)
}

// Refresh re-fetches the saved-session listing into a new snapshot and
// returns it. Enumeration failure yields an empty snapshot, not an error.
func (sm *SessionManager) Refresh(ctx context.Context) Snapshot {
	log := logger.WithComponent("manager")

	snap := Snapshot{
		ID:       uuid.New(),
		Taken:    time.Now(),
		Sessions: sm.store.List(ctx),
	}

	sm.mu.Lock()
	sm.snapshot = snap
	sm.mu.Unlock()

	log.Debug("snapshot refreshed", "snapshot", snap.ID.String(), "sessions", len(snap.Sessions))

	// The caller's copy and the stored one must not share a backing array
	out := snap
	out.Sessions = make([]session.Ref, len(snap.Sessions))
	copy(out.Sessions, snap.Sessions)
	return out
}

// Sessions returns a copy of the current snapshot's listing.
func (sm *SessionManager) Sessions() []session.Ref {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	refs := make([]session.Ref, len(sm.snapshot.Sessions))
	copy(refs, sm.snapshot.Sessions)
	return refs
}

// Snapshot returns the current snapshot (listing copied).
func (sm *SessionManager) Snapshot() Snapshot {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	snap := sm.snapshot
	snap.Sessions = make([]session.Ref, len(sm.snapshot.Sessions))
	copy(snap.Sessions, sm.snapshot.Sessions)
	return snap
}

// Filter returns the snapshot entries whose display name contains the query,
// case-insensitively. An empty query matches everything.
func (sm *SessionManager) Filter(query string) []session.Ref {
	query = strings.ToLower(strings.TrimSpace(query))
	refs := sm.Sessions()
	if query == "" {
		return refs
	}

	matched := make([]session.Ref, 0, len(refs))
	for _, ref := range refs {
		if strings.Contains(strings.ToLower(ref.Name), query) {
			matched = append(matched, ref)
		}
	}
	return matched
}

// Get reads the stored record for a session by display name.
func (sm *SessionManager) Get(ctx context.Context, name string) session.Session {
	return sm.store.Read(ctx, name)
}

// Create validates the form and writes a new profile. A validation failure
// blocks the write entirely; the snapshot refreshes only after success.
func (sm *SessionManager) Create(ctx context.Context, form Form) error {
	log := logger.WithComponent("manager")

	s, err := form.toSession()
	if err != nil {
		log.Info("create rejected", "name", form.Name, "error", err)
		sm.notifier.Notify("Cannot save session", err.Error())
		return err
	}

	if err := sm.store.Write(ctx, s); err != nil {
		sm.notifier.Notify("Cannot save session", err.Error())
		return err
	}

	sm.Refresh(ctx)
	return nil
}

// Update applies an edit. The registry write is an upsert, so the plain
// path is identical to Create; a rename writes the record under the new
// name and then deletes the old key.
func (sm *SessionManager) Update(ctx context.Context, form Form) error {
	log := logger.WithComponent("manager")

	s, err := form.toSession()
	if err != nil {
		log.Info("update rejected", "name", form.Name, "error", err)
		sm.notifier.Notify("Cannot save session", err.Error())
		return err
	}

	if err := sm.store.Write(ctx, s); err != nil {
		sm.notifier.Notify("Cannot save session", err.Error())
		return err
	}

	if form.isRename() {
		old := strings.TrimSpace(form.OriginalName)
		if err := sm.store.Delete(ctx, old); err != nil {
			// New record is already in place; report the stale leftover
			log.Warn("rename left old key behind", "old", old, "new", s.Name, "error", err)
			sm.notifier.Notify("Rename incomplete", err.Error())
			sm.Refresh(ctx)
			return err
		}
	}

	sm.Refresh(ctx)
	return nil
}

// Delete removes a profile and drops it from the snapshot immediately so
// the host's list reflects the deletion without waiting for a re-fetch.
func (sm *SessionManager) Delete(ctx context.Context, name string) error {
	if err := sm.store.Delete(ctx, name); err != nil {
		sm.notifier.Notify("Cannot delete session", err.Error())
		return err
	}

	// Match by encoded key, not decoded name: distinct keys can decode to
	// the same display name and only one key was removed. A fresh slice
	// keeps snapshots already handed to the host intact.
	id := session.EncodeName(name)
	sm.mu.Lock()
	kept := make([]session.Ref, 0, len(sm.snapshot.Sessions))
	for _, ref := range sm.snapshot.Sessions {
		if ref.ID != id {
			kept = append(kept, ref)
		}
	}
	sm.snapshot.Sessions = kept
	sm.mu.Unlock()

	return nil
}

// Launch opens a saved profile by display name.
func (sm *SessionManager) Launch(ctx context.Context, name string) error {
	if err := sm.launcher.LaunchSaved(ctx, name); err != nil {
		sm.notifier.Notify("Launch failed", err.Error())
		return err
	}
	return nil
}

// LaunchAdHoc opens an unsaved connection.
func (sm *SessionManager) LaunchAdHoc(ctx context.Context, target launcher.Target) error {
	if err := sm.launcher.LaunchAdHoc(ctx, target); err != nil {
		sm.notifier.Notify("Launch failed", err.Error())
		return err
	}
	return nil
}
