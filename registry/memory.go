package registry

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// memKey holds the values of a single in-memory key.
type memKey struct {
	strings map[string]string
	dwords  map[string]uint32
}

func newMemKey() *memKey {
	return &memKey{
		strings: make(map[string]string),
		dwords:  make(map[string]uint32),
	}
}

// MemoryClient is an in-memory Client used in tests and in hosts that embed
// the library outside Windows. It mirrors the real client's error contract
// (ErrNotFound / ErrValueNotFound) so code under test exercises the same
// degradation paths.
type MemoryClient struct {
	mu       sync.RWMutex
	keys     map[string]*memKey
	forceErr error
}

// NewMemoryClient creates an empty in-memory registry.
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{keys: make(map[string]*memKey)}
}

// ForceError makes every subsequent operation fail with err.
// Pass nil to restore normal behavior. Used to test failure degradation.
func (m *MemoryClient) ForceError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forceErr = err
}

func (m *MemoryClient) CreateKey(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.forceErr != nil {
		return m.forceErr
	}

	// Create intermediate keys the way the real API does.
	segments := strings.Split(path, `\`)
	for i := range segments {
		p := strings.Join(segments[:i+1], `\`)
		if _, ok := m.keys[p]; !ok {
			m.keys[p] = newMemKey()
		}
	}
	return nil
}

func (m *MemoryClient) SetString(ctx context.Context, path, name, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.forceErr != nil {
		return m.forceErr
	}

	k, ok := m.keys[path]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	k.strings[name] = value
	delete(k.dwords, name)
	return nil
}

func (m *MemoryClient) SetDWord(ctx context.Context, path, name string, value uint32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.forceErr != nil {
		return m.forceErr
	}

	k, ok := m.keys[path]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	k.dwords[name] = value
	delete(k.strings, name)
	return nil
}

func (m *MemoryClient) GetString(ctx context.Context, path, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.forceErr != nil {
		return "", m.forceErr
	}

	k, ok := m.keys[path]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	v, ok := k.strings[name]
	if !ok {
		return "", fmt.Errorf("%w: %s under %s", ErrValueNotFound, name, path)
	}
	return v, nil
}

func (m *MemoryClient) GetDWord(ctx context.Context, path, name string) (uint32, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.forceErr != nil {
		return 0, m.forceErr
	}

	k, ok := m.keys[path]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	v, ok := k.dwords[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s under %s", ErrValueNotFound, name, path)
	}
	return v, nil
}

func (m *MemoryClient) EnumKeys(ctx context.Context, path string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.forceErr != nil {
		return nil, m.forceErr
	}

	if _, ok := m.keys[path]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	prefix := path + `\`
	var children []string
	for p := range m.keys {
		rest, ok := strings.CutPrefix(p, prefix)
		if !ok || rest == "" {
			continue
		}
		// Direct children only
		if strings.Contains(rest, `\`) {
			continue
		}
		children = append(children, rest)
	}
	return children, nil
}

func (m *MemoryClient) DeleteKey(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.forceErr != nil {
		return m.forceErr
	}

	if _, ok := m.keys[path]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	delete(m.keys, path)
	return nil
}

var _ Client = (*MemoryClient)(nil)
