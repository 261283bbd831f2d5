// Package exec provides an abstraction over command execution for testability.
// Production code launches the real terminal client binary while tests inject
// mock executors that return pre-recorded responses.
package exec

import (
	"bytes"
	"context"
	"os/exec"
	"sync"
)

// CommandExecutor abstracts command execution for testability.
// Production code uses RealExecutor, while tests use MockExecutor.
type CommandExecutor interface {
	// Output executes a command to completion and returns stdout.
	Output(ctx context.Context, name string, args ...string) ([]byte, error)

	// Start starts a command without waiting for it to complete.
	// Returns a CommandHandle that can be used to await completion.
	Start(ctx context.Context, name string, args ...string) (CommandHandle, error)
}

// CommandHandle represents a started command.
type CommandHandle interface {
	// Wait blocks until the command completes and returns stdout, stderr, error.
	Wait() (stdout, stderr []byte, err error)
}

// RealExecutor executes commands using os/exec.
type RealExecutor struct{}

// NewRealExecutor returns a new RealExecutor.
func NewRealExecutor() *RealExecutor {
	return &RealExecutor{}
}

// Output executes a command and returns stdout.
func (e *RealExecutor) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.Output()
}

// Start starts a command without waiting for it to complete.
func (e *RealExecutor) Start(ctx context.Context, name string, args ...string) (CommandHandle, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	h := &realCommandHandle{cmd: cmd}
	cmd.Stdout = &h.stdoutBuf
	cmd.Stderr = &h.stderrBuf

	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return h, nil
}

// realCommandHandle wraps a started exec.Cmd.
type realCommandHandle struct {
	cmd       *exec.Cmd
	stdoutBuf bytes.Buffer
	stderrBuf bytes.Buffer
}

func (h *realCommandHandle) Wait() (stdout, stderr []byte, err error) {
	err = h.cmd.Wait()
	return h.stdoutBuf.Bytes(), h.stderrBuf.Bytes(), err
}

// MockResponse defines the response for a mocked command.
type MockResponse struct {
	Stdout []byte
	Stderr []byte
	Err    error

	// StartErr, when set, causes Start to fail synchronously instead of
	// deferring Err to Wait. This models an unlaunchable binary as opposed
	// to a launch that fails after the fact.
	StartErr error
}

// CommandMatcher is a function that determines if a command matches.
type CommandMatcher func(name string, args []string) bool

// MockRule defines a matching rule and its response.
type MockRule struct {
	Match    CommandMatcher
	Response MockResponse
}

// MockExecutor returns pre-recorded responses for commands.
// Commands are matched in order of rule registration.
type MockExecutor struct {
	mu    sync.RWMutex
	rules []MockRule
	calls []MockCall
}

// MockCall records a command invocation for verification.
type MockCall struct {
	Name string
	Args []string
}

// NewMockExecutor creates a new MockExecutor.
func NewMockExecutor() *MockExecutor {
	return &MockExecutor{}
}

// AddRule adds a matching rule with its response.
func (e *MockExecutor) AddRule(match CommandMatcher, response MockResponse) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rules = append(e.rules, MockRule{Match: match, Response: response})
}

// AddExactMatch adds a rule that matches a specific command exactly.
func (e *MockExecutor) AddExactMatch(name string, args []string, response MockResponse) {
	e.AddRule(func(n string, a []string) bool {
		if n != name {
			return false
		}
		if len(a) != len(args) {
			return false
		}
		for i, arg := range args {
			if a[i] != arg {
				return false
			}
		}
		return true
	}, response)
}

// AddPrefixMatch adds a rule that matches commands starting with specific args.
func (e *MockExecutor) AddPrefixMatch(name string, prefixArgs []string, response MockResponse) {
	e.AddRule(func(n string, a []string) bool {
		if n != name {
			return false
		}
		if len(a) < len(prefixArgs) {
			return false
		}
		for i, arg := range prefixArgs {
			if a[i] != arg {
				return false
			}
		}
		return true
	}, response)
}

// GetCalls returns all recorded command invocations.
func (e *MockExecutor) GetCalls() []MockCall {
	e.mu.RLock()
	defer e.mu.RUnlock()
	calls := make([]MockCall, len(e.calls))
	copy(calls, e.calls)
	return calls
}

// ClearCalls clears the recorded command invocations.
func (e *MockExecutor) ClearCalls() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = nil
}

func (e *MockExecutor) findMatch(name string, args []string) *MockResponse {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, rule := range e.rules {
		if rule.Match(name, args) {
			return &rule.Response
		}
	}
	return nil
}

func (e *MockExecutor) recordCall(name string, args []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, MockCall{Name: name, Args: args})
}

// Output executes a mocked command.
func (e *MockExecutor) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	e.recordCall(name, args)

	if resp := e.findMatch(name, args); resp != nil {
		return resp.Stdout, resp.Err
	}

	// Default: return empty success
	return nil, nil
}

// Start starts a mocked command (completes immediately with the recorded response).
func (e *MockExecutor) Start(ctx context.Context, name string, args ...string) (CommandHandle, error) {
	e.recordCall(name, args)

	if resp := e.findMatch(name, args); resp != nil {
		if resp.StartErr != nil {
			return nil, resp.StartErr
		}
		return &mockCommandHandle{response: *resp}, nil
	}

	return &mockCommandHandle{}, nil
}

// mockCommandHandle wraps a mock response.
type mockCommandHandle struct {
	response MockResponse
}

func (h *mockCommandHandle) Wait() (stdout, stderr []byte, err error) {
	return h.response.Stdout, h.response.Stderr, h.response.Err
}

// Ensure implementations satisfy the interface.
var _ CommandExecutor = (*RealExecutor)(nil)
var _ CommandExecutor = (*MockExecutor)(nil)
var _ CommandHandle = (*realCommandHandle)(nil)
var _ CommandHandle = (*mockCommandHandle)(nil)
