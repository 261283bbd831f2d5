// Package registry provides a minimal client abstraction over the per-user
// Windows registry hive (HKEY_CURRENT_USER).
//
// The durable session store is owned by the external terminal client; this
// package only reads and writes its schema. All paths are backslash-separated
// and relative to the current user's hive, e.g.
// "Software\SimonTatham\PuTTY\Sessions".
//
// Two implementations are provided: a real one backed by the Windows registry
// API (Windows builds only), and MemoryClient, an in-memory fake for tests
// and for hosts that embed the library off-Windows.
package registry

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a key does not exist.
var ErrNotFound = errors.New("registry: key not found")

// ErrValueNotFound is returned when a key exists but the named value does not,
// or the value has an unexpected type.
var ErrValueNotFound = errors.New("registry: value not found")

// Client is the small surface the session mapper needs from the registry.
// Each call is an independent operation; the registry provides its own
// per-key serialization, so no locking is layered on top.
type Client interface {
	// CreateKey creates the key at path, including missing parents.
	// Creating an existing key is not an error.
	CreateKey(ctx context.Context, path string) error

	// SetString sets a string (REG_SZ) value under the key at path.
	SetString(ctx context.Context, path, name, value string) error

	// SetDWord sets a 32-bit integer (REG_DWORD) value under the key at path.
	SetDWord(ctx context.Context, path, name string, value uint32) error

	// GetString reads a string value. Returns ErrNotFound if the key is
	// missing, ErrValueNotFound if the value is missing or not a string.
	GetString(ctx context.Context, path, name string) (string, error)

	// GetDWord reads a 32-bit integer value. Same error contract as GetString.
	GetDWord(ctx context.Context, path, name string) (uint32, error)

	// EnumKeys lists the direct child key names of the key at path.
	// Returns ErrNotFound if the key is missing.
	EnumKeys(ctx context.Context, path string) ([]string, error)

	// DeleteKey removes the key at path and its values.
	// Returns ErrNotFound if the key does not exist.
	DeleteKey(ctx context.Context, path string) error
}
