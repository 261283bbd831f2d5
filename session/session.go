package session

import (
	"fmt"
	"strconv"
	"strings"
)

// Protocol identifies the connection protocol a profile opens with.
type Protocol string

const (
	ProtocolRaw    Protocol = "raw"
	ProtocolTelnet Protocol = "telnet"
	ProtocolRlogin Protocol = "rlogin"
	ProtocolSSH    Protocol = "ssh"
	ProtocolSerial Protocol = "serial"
)

// Valid reports whether the protocol is a known member.
func (p Protocol) Valid() bool {
	switch p {
	case ProtocolRaw, ProtocolTelnet, ProtocolRlogin, ProtocolSSH, ProtocolSerial:
		return true
	}
	return false
}

// ParseProtocol parses a protocol name, case-insensitively.
func ParseProtocol(s string) (Protocol, error) {
	p := Protocol(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("unknown protocol %q (use raw, telnet, rlogin, ssh, or serial)", s)
	}
	return p, nil
}

// protocolOrDefault is the lenient read-side parse: unknown stored values
// degrade to the default rather than failing the read.
func protocolOrDefault(s string) Protocol {
	if p, err := ParseProtocol(s); err == nil {
		return p
	}
	return ProtocolRaw
}

// CloseOnExit is the window close policy after the connection ends.
type CloseOnExit string

const (
	CloseAlways      CloseOnExit = "always"
	CloseNever       CloseOnExit = "never"
	CloseOnCleanExit CloseOnExit = "on-clean-exit"
)

// Valid reports whether the policy is a known member.
func (c CloseOnExit) Valid() bool {
	switch c {
	case CloseAlways, CloseNever, CloseOnCleanExit:
		return true
	}
	return false
}

// ParseCloseOnExit parses a close-on-exit policy name, case-insensitively.
func ParseCloseOnExit(s string) (CloseOnExit, error) {
	c := CloseOnExit(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("unknown close-on-exit policy %q (use always, never, or on-clean-exit)", s)
	}
	return c, nil
}

// closeOnExitOrDefault is the lenient read-side parse.
func closeOnExitOrDefault(s string) CloseOnExit {
	if c, err := ParseCloseOnExit(s); err == nil {
		return c
	}
	return CloseOnCleanExit
}

// Port bounds for TCP-based protocols.
const (
	MinPort = 1
	MaxPort = 65535
)

// DefaultPort is the port a record falls back to when the registry read fails.
const DefaultPort = 23

// Session is a named connection profile. Name doubles as the display label
// and, percent-encoded, as the registry key segment; uniqueness is enforced
// by the registry itself.
type Session struct {
	Name        string
	Host        string
	Port        int
	Protocol    Protocol
	CloseOnExit CloseOnExit
}

// DefaultRecord returns the fixed record a failed read degrades to.
func DefaultRecord(name string) Session {
	return Session{
		Name:        name,
		Host:        "",
		Port:        DefaultPort,
		Protocol:    ProtocolRaw,
		CloseOnExit: CloseOnCleanExit,
	}
}

// ParsePort parses a user-entered port string and checks the [1,65535] range.
func ParsePort(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("port must be a whole number, got %q", s)
	}
	if n < MinPort || n > MaxPort {
		return 0, fmt.Errorf("port must be between %d and %d, got %d", MinPort, MaxPort, n)
	}
	return n, nil
}

// Validate checks the record before any write is attempted.
// A validation failure blocks the whole operation; nothing is partially applied.
func (s Session) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("session name is required")
	}
	if strings.TrimSpace(s.Host) == "" {
		return fmt.Errorf("host is required")
	}
	if s.Port < MinPort || s.Port > MaxPort {
		return fmt.Errorf("port must be between %d and %d, got %d", MinPort, MaxPort, s.Port)
	}
	if !s.Protocol.Valid() {
		return fmt.Errorf("unknown protocol %q", string(s.Protocol))
	}
	if !s.CloseOnExit.Valid() {
		return fmt.Errorf("unknown close-on-exit policy %q", string(s.CloseOnExit))
	}
	return nil
}
