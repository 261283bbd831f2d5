// Package launcher starts the external terminal client with computed
// arguments: -load for saved profiles, protocol flags plus -P <port> <host>
// for ad-hoc connections.
//
// Launches are fire-and-forget. The client's exit status is not tracked
// beyond reporting a post-launch failure through the injected Notifier;
// only an immediate start failure is returned synchronously.
package launcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	pexec "github.com/plaunch/plaunch-core/exec"
	"github.com/plaunch/plaunch-core/logger"
	"github.com/plaunch/plaunch-core/session"
)

// Notifier is the host's toast surface. The library never renders UI; every
// asynchronous failure is handed to the host through this seam.
type Notifier interface {
	Notify(title, message string)
}

// NopNotifier discards notifications. Useful in tests and headless use.
type NopNotifier struct{}

func (NopNotifier) Notify(title, message string) {}

// ClientSettings supplies the executable location.
// *config.Config satisfies this interface implicitly.
type ClientSettings interface {
	GetClientPath() string
}

// Target describes an ad-hoc (unsaved) connection.
type Target struct {
	Host     string
	Port     int // 0 means the client's default for the protocol
	Protocol session.Protocol
}

// Launcher invokes the external terminal client.
type Launcher struct {
	executor pexec.CommandExecutor
	settings ClientSettings
	notifier Notifier
}

// New creates a Launcher with the real executor and a no-op notifier.
func New(settings ClientSettings) *Launcher {
	return &Launcher{
		executor: pexec.NewRealExecutor(),
		settings: settings,
		notifier: NopNotifier{},
	}
}

// NewWithExecutor creates a Launcher with a custom executor.
// This is primarily used for testing where a mock executor is needed.
func NewWithExecutor(settings ClientSettings, exec pexec.CommandExecutor) *Launcher {
	return &Launcher{
		executor: exec,
		settings: settings,
		notifier: NopNotifier{},
	}
}

// SetNotifier installs the host's notification surface.
func (l *Launcher) SetNotifier(n Notifier) {
	if n == nil {
		n = NopNotifier{}
	}
	l.notifier = n
}

// ValidateClient checks that the configured executable exists and is readable.
// Called before every launch; a missing or unreadable binary is a distinct
// failure reported before any launch is attempted.
func (l *Launcher) ValidateClient() (string, error) {
	path := strings.TrimSpace(l.settings.GetClientPath())
	if path == "" {
		return "", fmt.Errorf("terminal client path is not configured")
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("terminal client not found at %s", path)
		}
		return "", fmt.Errorf("cannot access terminal client at %s: %w", path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("terminal client path %s is a directory", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("terminal client at %s is not readable: %w", path, err)
	}
	f.Close()

	return path, nil
}

// LaunchSaved opens a saved profile: <client> -load <name>.
// The name is the decoded display name; the client resolves its own
// registry key from it.
func (l *Launcher) LaunchSaved(ctx context.Context, name string) error {
	log := logger.WithSession(name)

	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("session name is required")
	}

	path, err := l.ValidateClient()
	if err != nil {
		log.Warn("launch blocked", "error", err)
		return err
	}

	log.Info("launching saved session", "client", path)
	return l.start(ctx, log, path, "-load", name)
}

// LaunchAdHoc opens an unsaved connection:
// <client> -<protocol> -P <port> <host>. A zero port omits -P so the
// client falls back to the protocol's default.
func (l *Launcher) LaunchAdHoc(ctx context.Context, target Target) error {
	log := logger.WithComponent("launcher")

	if strings.TrimSpace(target.Host) == "" {
		return fmt.Errorf("host is required")
	}
	if !target.Protocol.Valid() {
		return fmt.Errorf("unknown protocol %q", string(target.Protocol))
	}
	if target.Port != 0 && (target.Port < session.MinPort || target.Port > session.MaxPort) {
		return fmt.Errorf("port must be between %d and %d, got %d", session.MinPort, session.MaxPort, target.Port)
	}

	path, err := l.ValidateClient()
	if err != nil {
		log.Warn("launch blocked", "error", err)
		return err
	}

	args := []string{"-" + string(target.Protocol)}
	// Serial targets name a line, not a host:port pair
	if target.Port != 0 && target.Protocol != session.ProtocolSerial {
		args = append(args, "-P", strconv.Itoa(target.Port))
	}
	args = append(args, target.Host)

	log.Info("launching ad-hoc connection",
		"client", path,
		"host", target.Host,
		"port", target.Port,
		"protocol", string(target.Protocol))
	return l.start(ctx, log, path, args...)
}

// start begins the launch and watches for failure in the background.
// Only an immediate start error is returned; anything after that is
// reported through the notifier.
func (l *Launcher) start(ctx context.Context, log *slog.Logger, path string, args ...string) error {
	handle, err := l.executor.Start(ctx, path, args...)
	if err != nil {
		log.Warn("failed to start terminal client", "error", err)
		return fmt.Errorf("failed to start terminal client: %w", err)
	}

	go func() {
		_, stderr, err := handle.Wait()
		if err == nil {
			log.Debug("terminal client exited cleanly")
			return
		}
		msg := strings.TrimSpace(string(stderr))
		if msg == "" {
			msg = err.Error()
		}
		log.Warn("terminal client exited with failure", "error", err, "stderr", msg)
		l.notifier.Notify("Launch failed", msg)
	}()

	return nil
}
