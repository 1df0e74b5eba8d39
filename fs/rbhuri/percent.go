package rbhuri

import (
	"fmt"
	"strings"

	"github.com/robinhood-suite/robinhood4-sub001/fs/rbherr"
)

// percentDecode decodes %XX escapes per RFC 3986: both hex cases are
// accepted, every other byte passes through verbatim, the output is
// never longer than the input, and a truncated or non-hexadecimal
// escape is an error.
func percentDecode(s string) (string, error) {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '%' {
			b.WriteByte(c)
			continue
		}
		if i+2 >= len(s) {
			return "", rbherr.New(rbherr.KindIllegalSequence, "truncated percent-escape in %q", s)
		}
		hi, ok1 := hexVal(s[i+1])
		lo, ok2 := hexVal(s[i+2])
		if !ok1 || !ok2 {
			return "", rbherr.New(rbherr.KindIllegalSequence, "non-hexadecimal percent-escape in %q", s)
		}
		b.WriteByte(hi<<4 | lo)
		i += 2
	}
	return b.String(), nil
}

func hexVal(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}

// percentEncode escapes every byte outside RFC 3986's unreserved set
// (letters, digits, '-', '.', '_', '~') and outside the caller-supplied
// safe set (e.g. "/" for a path component).
func percentEncode(s string, safe string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) || strings.IndexByte(safe, c) >= 0 {
			b.WriteByte(c)
		} else {
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	case c == '-' || c == '.' || c == '_' || c == '~':
		return true
	default:
		return false
	}
}
