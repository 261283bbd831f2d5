// Package session maps named connection profiles to and from the registry
// schema owned by the external terminal client.
//
// # Overview
//
// A session is a flat record — host, port, protocol, close-on-exit policy —
// stored under a per-user registry key whose last path segment is the
// percent-encoded session name. The registry is the sole owner of durable
// state; this package is a thin, typed view over it.
//
// # Record Lifecycle
//
// 1. Write: the form is validated (host present, port in range, enums known),
// the session key is created, and the four values are set in sequence. The
// first failure aborts the write; earlier values are not rolled back.
//
// 2. Read: the key's values are fetched. Any registry failure — missing key,
// missing value — yields the fixed default record (empty host, port 23, raw
// protocol, close on clean exit) instead of an error.
//
// 3. List: child keys of the sessions root are enumerated, names decoded,
// and the result sorted case-insensitively by decoded name. Enumeration
// failure yields an empty list.
//
// 4. Delete: the key is removed; the error is surfaced for UI feedback.
//
// # Name Encoding
//
// Display names become registry key segments via percent-encoding
// (EncodeName/DecodeName). Decoding is the exact inverse for every name;
// a malformed segment decodes to itself rather than failing.
//
// # Registry Schema
//
// Software\SimonTatham\PuTTY\Sessions\<encoded-name>:
//
//	HostName    REG_SZ
//	PortNumber  REG_DWORD
//	Protocol    REG_SZ    raw|telnet|rlogin|ssh|serial
//	CloseOnExit REG_SZ    always|never|on-clean-exit
package session
