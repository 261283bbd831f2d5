package session

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/plaunch/plaunch-core/logger"
	"github.com/plaunch/plaunch-core/registry"
)

// DefaultRoot is the registry path the external client keeps its saved
// sessions under, relative to the current user's hive.
const DefaultRoot = `Software\SimonTatham\PuTTY\Sessions`

// Value names within a session key. The schema is owned by the external
// client; these must match it exactly.
const (
	valueHostName    = "HostName"
	valuePortNumber  = "PortNumber"
	valueProtocol    = "Protocol"
	valueCloseOnExit = "CloseOnExit"
)

// Ref identifies one saved session in a listing: the raw registry key
// segment and the decoded display name.
type Ref struct {
	ID   string // key segment, percent-encoded
	Name string // decoded display name
}

// Store maps Session records to and from the registry schema.
// It holds no state of its own; every operation is an independent call
// against the injected registry client.
type Store struct {
	client registry.Client
	root   string
}

// NewStore creates a Store over the default sessions root.
func NewStore(client registry.Client) *Store {
	return NewStoreWithRoot(client, DefaultRoot)
}

// NewStoreWithRoot creates a Store over a custom sessions root.
// Used by hosts that relocate the sessions tree, and by tests.
func NewStoreWithRoot(client registry.Client, root string) *Store {
	return &Store{client: client, root: root}
}

// Root returns the registry path this store reads and writes under.
func (st *Store) Root() string {
	return st.root
}

func (st *Store) keyPath(name string) string {
	return st.root + `\` + EncodeName(name)
}

// Write validates the record and persists it as a sequence of key-creation
// and value-set operations. The first failing step aborts the write; values
// set before the failure are left in place (no transactional rollback).
func (st *Store) Write(ctx context.Context, s Session) error {
	log := logger.WithSession(s.Name)

	if err := s.Validate(); err != nil {
		log.Info("write rejected by validation", "error", err)
		return err
	}

	key := st.keyPath(s.Name)
	if err := st.client.CreateKey(ctx, key); err != nil {
		log.Error("failed to create session key", "key", key, "error", err)
		return fmt.Errorf("create session key: %w", err)
	}
	if err := st.client.SetString(ctx, key, valueHostName, s.Host); err != nil {
		log.Error("failed to set HostName", "key", key, "error", err)
		return fmt.Errorf("set HostName: %w", err)
	}
	if err := st.client.SetDWord(ctx, key, valuePortNumber, uint32(s.Port)); err != nil {
		log.Error("failed to set PortNumber", "key", key, "error", err)
		return fmt.Errorf("set PortNumber: %w", err)
	}
	if err := st.client.SetString(ctx, key, valueProtocol, string(s.Protocol)); err != nil {
		log.Error("failed to set Protocol", "key", key, "error", err)
		return fmt.Errorf("set Protocol: %w", err)
	}
	if err := st.client.SetString(ctx, key, valueCloseOnExit, string(s.CloseOnExit)); err != nil {
		log.Error("failed to set CloseOnExit", "key", key, "error", err)
		return fmt.Errorf("set CloseOnExit: %w", err)
	}

	log.Info("session written", "host", s.Host, "port", s.Port, "protocol", string(s.Protocol))
	return nil
}

// Read fetches the record for name. Any registry failure — missing key,
// missing value — yields the fixed default record instead of an error.
// An unparseable stored enum degrades to that field's default only.
func (st *Store) Read(ctx context.Context, name string) Session {
	log := logger.WithSession(name)
	key := st.keyPath(name)

	host, err := st.client.GetString(ctx, key, valueHostName)
	if err != nil {
		log.Debug("read fell back to defaults", "key", key, "error", err)
		return DefaultRecord(name)
	}
	port, err := st.client.GetDWord(ctx, key, valuePortNumber)
	if err != nil {
		log.Debug("read fell back to defaults", "key", key, "error", err)
		return DefaultRecord(name)
	}
	proto, err := st.client.GetString(ctx, key, valueProtocol)
	if err != nil {
		log.Debug("read fell back to defaults", "key", key, "error", err)
		return DefaultRecord(name)
	}
	closeOnExit, err := st.client.GetString(ctx, key, valueCloseOnExit)
	if err != nil {
		log.Debug("read fell back to defaults", "key", key, "error", err)
		return DefaultRecord(name)
	}

	return Session{
		Name:        name,
		Host:        host,
		Port:        int(port),
		Protocol:    protocolOrDefault(proto),
		CloseOnExit: closeOnExitOrDefault(closeOnExit),
	}
}

// List enumerates the saved sessions, decoded and sorted by display name
// with case-insensitive locale collation. Enumeration failure is non-fatal
// and yields an empty list.
func (st *Store) List(ctx context.Context) []Ref {
	log := logger.WithComponent("store")

	segments, err := st.client.EnumKeys(ctx, st.root)
	if err != nil {
		log.Warn("session enumeration failed", "root", st.root, "error", err)
		return []Ref{}
	}

	refs := make([]Ref, 0, len(segments))
	for _, seg := range segments {
		refs = append(refs, Ref{ID: seg, Name: DecodeName(seg)})
	}

	c := collate.New(language.Und, collate.IgnoreCase)
	sort.Slice(refs, func(i, j int) bool {
		if cmp := c.CompareString(refs[i].Name, refs[j].Name); cmp != 0 {
			return cmp < 0
		}
		// Equivalent names (case-only differences) order by raw segment
		return refs[i].ID < refs[j].ID
	})

	return refs
}

// Delete removes the session key. The error is surfaced for UI feedback.
func (st *Store) Delete(ctx context.Context, name string) error {
	log := logger.WithSession(name)

	key := st.keyPath(name)
	if err := st.client.DeleteKey(ctx, key); err != nil {
		log.Warn("failed to delete session key", "key", key, "error", err)
		return fmt.Errorf("delete session: %w", err)
	}

	log.Info("session deleted", "key", key)
	return nil
}
