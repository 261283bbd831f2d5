//go:build !windows

package registry

import "errors"

// NewClient returns an error off-Windows: the real session store only exists
// in the Windows registry. Hosts embedding the library elsewhere should
// construct a MemoryClient instead.
func NewClient() (Client, error) {
	return nil, errors.New("registry: native client requires Windows; use NewMemoryClient for an in-memory store")
}
