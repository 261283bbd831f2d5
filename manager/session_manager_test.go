package manager

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/plaunch/plaunch-core/config"
	pexec "github.com/plaunch/plaunch-core/exec"
	"github.com/plaunch/plaunch-core/launcher"
	"github.com/plaunch/plaunch-core/registry"
	"github.com/plaunch/plaunch-core/session"
)

var ctx = context.Background()

type stubSettings struct {
	path string
}

func (s *stubSettings) GetClientPath() string { return s.path }

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(title, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, title+": "+message)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}

func (n *recordingNotifier) last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.messages) == 0 {
		return ""
	}
	return n.messages[len(n.messages)-1]
}

// newTestManager wires a manager over an in-memory registry and a mock
// executor with a readable fake client binary.
func newTestManager(t *testing.T) (*SessionManager, *registry.MemoryClient, *pexec.MockExecutor, *recordingNotifier) {
	t.Helper()

	clientPath := filepath.Join(t.TempDir(), "putty.exe")
	if err := os.WriteFile(clientPath, []byte("fake binary"), 0755); err != nil {
		t.Fatalf("Failed to write fake client: %v", err)
	}

	mem := registry.NewMemoryClient()
	store := session.NewStore(mem)
	mock := pexec.NewMockExecutor()
	l := launcher.NewWithExecutor(&stubSettings{path: clientPath}, mock)

	sm := NewSessionManager(store, l)
	notifier := &recordingNotifier{}
	sm.SetNotifier(notifier)
	return sm, mem, mock, notifier
}

func validForm(name string) Form {
	return Form{
		Name:        name,
		Host:        "example.com",
		Port:        "22",
		Protocol:    "ssh",
		CloseOnExit: "on-clean-exit",
	}
}

func TestCreateAndList(t *testing.T) {
	sm, _, _, notifier := newTestManager(t)

	if err := sm.Create(ctx, validForm("web server")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := sm.Create(ctx, validForm("db server")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	refs := sm.Sessions()
	if len(refs) != 2 {
		t.Fatalf("expected 2 sessions after create, got %d", len(refs))
	}
	// Sorted by display name
	if refs[0].Name != "db server" || refs[1].Name != "web server" {
		t.Errorf("unexpected order: %v", refs)
	}
	if notifier.count() != 0 {
		t.Errorf("no notifications expected, got %q", notifier.last())
	}
}

func TestCreate_ValidationBlocksWrite(t *testing.T) {
	sm, mem, _, notifier := newTestManager(t)

	form := validForm("bad port")
	form.Port = "70000"

	if err := sm.Create(ctx, form); err == nil {
		t.Fatal("expected validation error")
	}
	if notifier.count() != 1 {
		t.Errorf("expected 1 notification, got %d", notifier.count())
	}

	// Nothing reached the registry
	if _, err := mem.EnumKeys(ctx, session.DefaultRoot); !errors.Is(err, registry.ErrNotFound) {
		t.Errorf("sessions root should not exist, err = %v", err)
	}
}

func TestCreate_NonIntegerPort(t *testing.T) {
	sm, _, _, _ := newTestManager(t)

	form := validForm("bad port")
	form.Port = "ssh"

	err := sm.Create(ctx, form)
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !strings.Contains(err.Error(), "whole number") {
		t.Errorf("error %q should reject non-integer port", err)
	}
}

func TestGetRoundTrip(t *testing.T) {
	sm, _, _, _ := newTestManager(t)

	form := validForm("prod gateway")
	form.Protocol = "telnet"
	form.CloseOnExit = "never"
	if err := sm.Create(ctx, form); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got := sm.Get(ctx, "prod gateway")
	want := session.Session{
		Name:        "prod gateway",
		Host:        "example.com",
		Port:        22,
		Protocol:    session.ProtocolTelnet,
		CloseOnExit: session.CloseNever,
	}
	if got != want {
		t.Errorf("Get = %+v, want %+v", got, want)
	}
}

func TestUpdate_SameNameIsUpsert(t *testing.T) {
	sm, _, _, _ := newTestManager(t)

	if err := sm.Create(ctx, validForm("box")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	form := validForm("box")
	form.OriginalName = "box"
	form.Host = "10.1.1.1"
	if err := sm.Update(ctx, form); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if got := sm.Get(ctx, "box").Host; got != "10.1.1.1" {
		t.Errorf("host = %q after update, want 10.1.1.1", got)
	}
	if len(sm.Sessions()) != 1 {
		t.Errorf("expected 1 session, got %d", len(sm.Sessions()))
	}
}

func TestUpdate_Rename(t *testing.T) {
	sm, _, _, _ := newTestManager(t)

	if err := sm.Create(ctx, validForm("old name")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	form := validForm("new name")
	form.OriginalName = "old name"
	if err := sm.Update(ctx, form); err != nil {
		t.Fatalf("Update: %v", err)
	}

	refs := sm.Sessions()
	if len(refs) != 1 {
		t.Fatalf("expected 1 session after rename, got %d: %v", len(refs), refs)
	}
	if refs[0].Name != "new name" {
		t.Errorf("session name = %q, want %q", refs[0].Name, "new name")
	}
}

func TestDelete_OptimisticSnapshotRemoval(t *testing.T) {
	sm, _, _, _ := newTestManager(t)

	if err := sm.Create(ctx, validForm("keep")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := sm.Create(ctx, validForm("drop")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := sm.Delete(ctx, "drop"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	// Snapshot reflects the deletion without an explicit Refresh
	refs := sm.Sessions()
	if len(refs) != 1 || refs[0].Name != "keep" {
		t.Errorf("snapshot = %v, want only keep", refs)
	}
}

func TestDelete_HeldSnapshotUnchanged(t *testing.T) {
	sm, _, _, _ := newTestManager(t)

	for _, name := range []string{"alpha", "beta", "gamma"} {
		if err := sm.Create(ctx, validForm(name)); err != nil {
			t.Fatalf("Create %q: %v", name, err)
		}
	}

	held := sm.Refresh(ctx)
	if len(held.Sessions) != 3 {
		t.Fatalf("snapshot has %d sessions, want 3", len(held.Sessions))
	}

	if err := sm.Delete(ctx, "alpha"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	// The snapshot handed out before the delete is a copy; it must not
	// shift underneath the host.
	wantHeld := []string{"alpha", "beta", "gamma"}
	for i, name := range wantHeld {
		if held.Sessions[i].Name != name {
			t.Errorf("held.Sessions[%d] = %q, want %q", i, held.Sessions[i].Name, name)
		}
	}

	refs := sm.Sessions()
	if len(refs) != 2 || refs[0].Name != "beta" || refs[1].Name != "gamma" {
		t.Errorf("current snapshot = %v, want [beta gamma]", refs)
	}
}

func TestDelete_KeepsCollidingKey(t *testing.T) {
	sm, mem, _, _ := newTestManager(t)

	if err := sm.Create(ctx, validForm("a b")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// A key written by another tool with a literal space decodes to the
	// same display name as the properly encoded one.
	rawKey := session.DefaultRoot + `\a b`
	if err := mem.CreateKey(ctx, rawKey); err != nil {
		t.Fatalf("CreateKey: %v", err)
	}
	if err := mem.SetString(ctx, rawKey, "HostName", "other.example.com"); err != nil {
		t.Fatalf("SetString: %v", err)
	}

	snap := sm.Refresh(ctx)
	if len(snap.Sessions) != 2 {
		t.Fatalf("expected 2 refs before delete, got %v", snap.Sessions)
	}

	if err := sm.Delete(ctx, "a b"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	// Only the canonically encoded key was removed; the raw key's ref stays.
	refs := sm.Sessions()
	if len(refs) != 1 {
		t.Fatalf("snapshot = %v, want 1 remaining ref", refs)
	}
	if refs[0].ID != "a b" {
		t.Errorf("remaining ref ID = %q, want the raw key", refs[0].ID)
	}
}

func TestDelete_MissingSessionNotifies(t *testing.T) {
	sm, _, _, notifier := newTestManager(t)

	if err := sm.Delete(ctx, "ghost"); err == nil {
		t.Fatal("expected error deleting a missing session")
	}
	if notifier.count() != 1 {
		t.Errorf("expected 1 notification, got %d", notifier.count())
	}
}

func TestFilter(t *testing.T) {
	sm, _, _, _ := newTestManager(t)

	for _, name := range []string{"prod web", "prod db", "staging web"} {
		if err := sm.Create(ctx, validForm(name)); err != nil {
			t.Fatalf("Create %q: %v", name, err)
		}
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"prod db", "prod web", "staging web"}},
		{"prod", []string{"prod db", "prod web"}},
		{"WEB", []string{"prod web", "staging web"}},
		{"  staging  ", []string{"staging web"}},
		{"nothing", []string{}},
	}

	for _, tt := range tests {
		t.Run("query="+tt.query, func(t *testing.T) {
			got := sm.Filter(tt.query)
			if len(got) != len(tt.want) {
				t.Fatalf("Filter(%q) = %v, want names %v", tt.query, got, tt.want)
			}
			for i, name := range tt.want {
				if got[i].Name != name {
					t.Errorf("Filter(%q)[%d] = %q, want %q", tt.query, i, got[i].Name, name)
				}
			}
		})
	}
}

func TestLaunch(t *testing.T) {
	sm, _, mock, _ := newTestManager(t)

	if err := sm.Create(ctx, validForm("box")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := sm.Launch(ctx, "box"); err != nil {
		t.Fatalf("Launch: %v", err)
	}

	calls := mock.GetCalls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 launch call, got %d", len(calls))
	}
	if calls[0].Args[0] != "-load" || calls[0].Args[1] != "box" {
		t.Errorf("launch args = %v, want [-load box]", calls[0].Args)
	}
}

func TestLaunchAdHoc_FailureNotifies(t *testing.T) {
	sm, _, mock, notifier := newTestManager(t)

	target := launcher.Target{Host: "", Protocol: session.ProtocolSSH}
	if err := sm.LaunchAdHoc(ctx, target); err == nil {
		t.Fatal("expected error for empty host")
	}
	if notifier.count() != 1 {
		t.Errorf("expected 1 notification, got %d", notifier.count())
	}
	if len(mock.GetCalls()) != 0 {
		t.Error("no launch should be attempted")
	}
}

func TestRefresh_SnapshotIdentity(t *testing.T) {
	sm, _, _, _ := newTestManager(t)

	first := sm.Refresh(ctx)
	second := sm.Refresh(ctx)

	if first.ID == second.ID {
		t.Error("each refresh should carry a distinct id")
	}
	if second.Taken.Before(first.Taken) {
		t.Error("snapshot timestamps should be monotonic")
	}
	if got := sm.Snapshot(); got.ID != second.ID {
		t.Errorf("Snapshot id = %s, want %s", got.ID, second.ID)
	}
}

func TestSessions_ReturnsCopy(t *testing.T) {
	sm, _, _, _ := newTestManager(t)

	if err := sm.Create(ctx, validForm("box")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	refs := sm.Sessions()
	refs[0].Name = "mutated"

	if got := sm.Sessions()[0].Name; got != "box" {
		t.Errorf("snapshot mutated through returned slice: %q", got)
	}
}

func TestNewFromConfig_SessionsRootOverride(t *testing.T) {
	cfg := &config.Config{}
	cfg.SetSessionsRoot(`Software\Custom\Sessions`)

	mem := registry.NewMemoryClient()
	sm := NewFromConfig(cfg, mem)

	if err := sm.Create(ctx, validForm("box")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// The record landed under the override root, not the default
	if _, err := mem.EnumKeys(ctx, `Software\Custom\Sessions`); err != nil {
		t.Errorf("override root missing: %v", err)
	}
	if _, err := mem.EnumKeys(ctx, session.DefaultRoot); !errors.Is(err, registry.ErrNotFound) {
		t.Errorf("default root should not exist, err = %v", err)
	}
}

func TestDefaultTarget(t *testing.T) {
	cfg := &config.Config{}

	target := DefaultTarget(cfg)
	if target.Protocol != session.ProtocolSSH {
		t.Errorf("default protocol = %q, want ssh", target.Protocol)
	}
	if target.Port != 22 {
		t.Errorf("default port = %d, want 22", target.Port)
	}

	cfg.SetDefaultProtocol("telnet")
	cfg.SetDefaultPort(2323)
	target = DefaultTarget(cfg)
	if target.Protocol != session.ProtocolTelnet || target.Port != 2323 {
		t.Errorf("target = %+v, want telnet 2323", target)
	}
}

func TestCreate_RegistryFailureNotifies(t *testing.T) {
	sm, mem, _, notifier := newTestManager(t)

	mem.ForceError(errors.New("registry offline"))

	if err := sm.Create(ctx, validForm("box")); err == nil {
		t.Fatal("expected write error")
	}
	if notifier.count() != 1 {
		t.Errorf("expected 1 notification, got %d", notifier.count())
	}
}
