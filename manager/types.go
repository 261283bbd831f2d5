package manager

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/plaunch/plaunch-core/session"
)

// Snapshot is an explicit copy of the saved-session listing, taken at a
// known point in time. Callers render from the snapshot and re-fetch after
// mutations instead of sharing ambient list state.
type Snapshot struct {
	ID       uuid.UUID // correlation id for log lines
	Taken    time.Time
	Sessions []session.Ref
}

// Form carries raw user input for a create or edit operation. Fields are
// strings as typed; parsing and validation happen when the form is applied.
type Form struct {
	Name        string
	Host        string
	Port        string
	Protocol    string
	CloseOnExit string

	// OriginalName, when set and different from Name, marks the operation
	// as a rename of an existing profile.
	OriginalName string
}

// toSession parses and validates the form into a record ready to write.
func (f Form) toSession() (session.Session, error) {
	port, err := session.ParsePort(f.Port)
	if err != nil {
		return session.Session{}, err
	}
	proto, err := session.ParseProtocol(f.Protocol)
	if err != nil {
		return session.Session{}, err
	}
	closeOnExit, err := session.ParseCloseOnExit(f.CloseOnExit)
	if err != nil {
		return session.Session{}, err
	}

	s := session.Session{
		Name:        strings.TrimSpace(f.Name),
		Host:        strings.TrimSpace(f.Host),
		Port:        port,
		Protocol:    proto,
		CloseOnExit: closeOnExit,
	}
	if err := s.Validate(); err != nil {
		return session.Session{}, err
	}
	return s, nil
}

// isRename reports whether applying the form renames an existing profile.
func (f Form) isRename() bool {
	old := strings.TrimSpace(f.OriginalName)
	return old != "" && old != strings.TrimSpace(f.Name)
}

// String identifies the snapshot in log output.
func (s Snapshot) String() string {
	return fmt.Sprintf("snapshot %s (%d sessions)", s.ID, len(s.Sessions))
}
