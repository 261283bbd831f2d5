package session

import "strings"

// Key segments keep unreserved URI characters literal; everything else —
// backslashes, spaces, '%' itself, non-ASCII bytes — is percent-encoded so
// any display name is safe as a registry path component.

const upperhex = "0123456789ABCDEF"

func isSafeByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z':
		return true
	case c >= 'A' && c <= 'Z':
		return true
	case c >= '0' && c <= '9':
		return true
	case c == '-' || c == '_' || c == '.' || c == '~':
		return true
	}
	return false
}

// EncodeName percent-encodes a display name into a registry key segment.
// DecodeName(EncodeName(name)) == name for every name.
func EncodeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if isSafeByte(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&0x0F])
	}
	return b.String()
}

func unhex(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// DecodeName percent-decodes a registry key segment back into a display name.
// A malformed segment (truncated or non-hex escape) is returned unchanged;
// the caller gets a lossy but usable label instead of an error.
func DecodeName(segment string) string {
	var b strings.Builder
	b.Grow(len(segment))
	for i := 0; i < len(segment); i++ {
		c := segment[i]
		if c != '%' {
			b.WriteByte(c)
			continue
		}
		if i+2 >= len(segment) {
			return segment
		}
		hi, ok1 := unhex(segment[i+1])
		lo, ok2 := unhex(segment[i+2])
		if !ok1 || !ok2 {
			return segment
		}
		b.WriteByte(hi<<4 | lo)
		i += 2
	}
	return b.String()
}
