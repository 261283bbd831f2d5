//go:build windows

package registry

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sys/windows/registry"
)

// windowsClient talks to HKEY_CURRENT_USER through the Windows registry API.
type windowsClient struct{}

// NewClient returns a Client backed by the current user's registry hive.
func NewClient() (Client, error) {
	return &windowsClient{}, nil
}

func (c *windowsClient) CreateKey(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	// CreateKey creates intermediate keys as needed and opens existing keys.
	k, _, err := registry.CreateKey(registry.CURRENT_USER, path, registry.ALL_ACCESS)
	if err != nil {
		return fmt.Errorf("create key %s: %w", path, err)
	}
	return k.Close()
}

func (c *windowsClient) SetString(ctx context.Context, path, name, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	k, err := registry.OpenKey(registry.CURRENT_USER, path, registry.SET_VALUE)
	if err != nil {
		return c.mapError(err, path)
	}
	defer k.Close()

	if err := k.SetStringValue(name, value); err != nil {
		return fmt.Errorf("set value %s under %s: %w", name, path, err)
	}
	return nil
}

func (c *windowsClient) SetDWord(ctx context.Context, path, name string, value uint32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	k, err := registry.OpenKey(registry.CURRENT_USER, path, registry.SET_VALUE)
	if err != nil {
		return c.mapError(err, path)
	}
	defer k.Close()

	if err := k.SetDWordValue(name, value); err != nil {
		return fmt.Errorf("set value %s under %s: %w", name, path, err)
	}
	return nil
}

func (c *windowsClient) GetString(ctx context.Context, path, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	k, err := registry.OpenKey(registry.CURRENT_USER, path, registry.QUERY_VALUE)
	if err != nil {
		return "", c.mapError(err, path)
	}
	defer k.Close()

	v, _, err := k.GetStringValue(name)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) || errors.Is(err, registry.ErrUnexpectedType) {
			return "", fmt.Errorf("%w: %s under %s", ErrValueNotFound, name, path)
		}
		return "", fmt.Errorf("get value %s under %s: %w", name, path, err)
	}
	return v, nil
}

func (c *windowsClient) GetDWord(ctx context.Context, path, name string) (uint32, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	k, err := registry.OpenKey(registry.CURRENT_USER, path, registry.QUERY_VALUE)
	if err != nil {
		return 0, c.mapError(err, path)
	}
	defer k.Close()

	v, _, err := k.GetIntegerValue(name)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) || errors.Is(err, registry.ErrUnexpectedType) {
			return 0, fmt.Errorf("%w: %s under %s", ErrValueNotFound, name, path)
		}
		return 0, fmt.Errorf("get value %s under %s: %w", name, path, err)
	}
	return uint32(v), nil
}

func (c *windowsClient) EnumKeys(ctx context.Context, path string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	k, err := registry.OpenKey(registry.CURRENT_USER, path, registry.ENUMERATE_SUB_KEYS)
	if err != nil {
		return nil, c.mapError(err, path)
	}
	defer k.Close()

	names, err := k.ReadSubKeyNames(-1)
	if err != nil {
		return nil, fmt.Errorf("enumerate %s: %w", path, err)
	}
	return names, nil
}

func (c *windowsClient) DeleteKey(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := registry.DeleteKey(registry.CURRENT_USER, path); err != nil {
		return c.mapError(err, path)
	}
	return nil
}

func (c *windowsClient) mapError(err error, path string) error {
	if errors.Is(err, registry.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return fmt.Errorf("registry %s: %w", path, err)
}
