// Package rbhuri parses and formats the two URI grammars used to name
// a mirrored filesystem and a pipeline source: `rbh:<backend>:<fsname>
// [#<fragment>]` and `src:<kind>:<target>[?ack-user=<user>]`.
package rbhuri

import (
	"fmt"
	"strconv"
	"strings"

	rfs "github.com/robinhood-suite/robinhood4-sub001/fs"
	"github.com/robinhood-suite/robinhood4-sub001/fs/backend"
	"github.com/robinhood-suite/robinhood4-sub001/fs/rbherr"
)

// FragmentKind discriminates the three shapes a URI fragment can take.
type FragmentKind int

const (
	// FragmentNone means no '#' was present in the URI at all; it
	// addresses the filesystem root the same way FragmentPath with an
	// empty Path does.
	FragmentNone FragmentKind = iota
	// FragmentPath is a percent-decoded path naming an entry.
	FragmentPath
	// FragmentID is a bracketed `[...]` fragment: either a Lustre fid
	// literal or a raw, percent-decoded byte id.
	FragmentID
)

// Fragment is the decoded `#...` portion of an rbh: URI.
type Fragment struct {
	Kind FragmentKind
	Path string
	ID   rfs.ID
	// LustreFid is non-nil when ID was built from a `[seq:oid:ver]`
	// literal, so Format can reproduce the canonical numeric form
	// instead of dumping the id's raw bytes.
	LustreFid *rfs.LustreFid
}

// URI is a parsed `rbh:<backend>:<fsname>[#<fragment>]` locator.
type URI struct {
	Backend  string
	Fsname   string
	Fragment Fragment
}

// Parse parses raw as an rbh: URI. Backend and fsname are
// percent-decoded; see the package doc for the fragment grammar.
func Parse(raw string) (*URI, error) {
	const prefix = "rbh:"
	if !strings.HasPrefix(raw, prefix) {
		return nil, rbherr.InvalidArgument("uri %q: missing rbh: scheme", raw)
	}
	rest := raw[len(prefix):]

	sep := strings.IndexByte(rest, ':')
	if sep < 0 {
		return nil, rbherr.InvalidArgument("uri %q: missing backend/fsname separator", raw)
	}
	backendEnc, rest := rest[:sep], rest[sep+1:]

	fsnameEnc := rest
	var fragRaw string
	hasFrag := false
	if h := strings.IndexByte(rest, '#'); h >= 0 {
		fsnameEnc, fragRaw = rest[:h], rest[h+1:]
		hasFrag = true
	}

	backendName, err := percentDecode(backendEnc)
	if err != nil {
		return nil, err
	}
	fsname, err := percentDecode(fsnameEnc)
	if err != nil {
		return nil, err
	}

	u := &URI{Backend: backendName, Fsname: fsname}
	if !hasFrag {
		u.Fragment = Fragment{Kind: FragmentNone}
		return u, nil
	}
	frag, err := parseFragment(backendName, fragRaw)
	if err != nil {
		return nil, err
	}
	u.Fragment = frag
	return u, nil
}

func parseFragment(backendName, fragRaw string) (Fragment, error) {
	if fragRaw == "" {
		return Fragment{Kind: FragmentPath, Path: ""}, nil
	}
	if strings.HasPrefix(fragRaw, "[") && strings.HasSuffix(fragRaw, "]") {
		inner := fragRaw[1 : len(fragRaw)-1]
		if strings.Count(inner, ":") == 2 {
			fid, err := parseLustreFid(inner)
			if err != nil {
				return Fragment{}, err
			}
			id, ok := backend.IDForName(backendName)
			if !ok {
				return Fragment{}, rbherr.InvalidArgument("uri: unknown backend %q cannot form a lustre-fid id", backendName)
			}
			return Fragment{
				Kind:      FragmentID,
				ID:        rfs.NewIDFromLustreFid(uint16(id), fid),
				LustreFid: &fid,
			}, nil
		}
		raw, err := percentDecode(inner)
		if err != nil {
			return Fragment{}, err
		}
		return Fragment{Kind: FragmentID, ID: rfs.NewID([]byte(raw))}, nil
	}
	path, err := percentDecode(fragRaw)
	if err != nil {
		return Fragment{}, err
	}
	return Fragment{Kind: FragmentPath, Path: path}, nil
}

func parseLustreFid(inner string) (rfs.LustreFid, error) {
	parts := strings.Split(inner, ":")
	if len(parts) != 3 {
		return rfs.LustreFid{}, rbherr.InvalidArgument("uri: malformed lustre-fid fragment %q", inner)
	}
	seq, err := parseCInt(parts[0], 64)
	if err != nil {
		return rfs.LustreFid{}, err
	}
	oid, err := parseCInt(parts[1], 32)
	if err != nil {
		return rfs.LustreFid{}, err
	}
	ver, err := parseCInt(parts[2], 32)
	if err != nil {
		return rfs.LustreFid{}, err
	}
	return rfs.LustreFid{Seq: seq, Oid: uint32(oid), Ver: uint32(ver)}, nil
}

// parseCInt parses a C-style integer literal (decimal, 0x hex, or
// octal) as strconv.ParseUint does with base 0.
func parseCInt(s string, bits int) (uint64, error) {
	v, err := strconv.ParseUint(s, 0, bits)
	if err != nil {
		return 0, rbherr.Wrap(rbherr.KindInvalidArgument, err, "uri: invalid lustre-fid field %q", s)
	}
	return v, nil
}

// Format renders u back into its string form. Formatting a URI just
// parsed from raw reproduces raw exactly, modulo canonicalization of
// percent-encoding case and of a Lustre-fid literal's numeric base.
func Format(u *URI) string {
	var b strings.Builder
	b.WriteString("rbh:")
	b.WriteString(percentEncode(u.Backend, ""))
	b.WriteByte(':')
	b.WriteString(percentEncode(u.Fsname, "/"))
	switch u.Fragment.Kind {
	case FragmentNone:
	case FragmentPath:
		b.WriteByte('#')
		b.WriteString(percentEncode(u.Fragment.Path, "/"))
	case FragmentID:
		b.WriteByte('#')
		b.WriteByte('[')
		if u.Fragment.LustreFid != nil {
			fid := u.Fragment.LustreFid
			fmt.Fprintf(&b, "0x%x:0x%x:0x%x", fid.Seq, fid.Oid, fid.Ver)
		} else {
			b.WriteString(percentEncode(string(u.Fragment.ID.Bytes()), ""))
		}
		b.WriteByte(']')
	}
	return b.String()
}

// SourceURI is a parsed `src:<kind>:<target>[?ack-user=<user>]`
// locator identifying a pipeline source.
type SourceURI struct {
	Kind       string
	Target     string
	AckUser    string
	HasAckUser bool
}

var sourceKinds = map[string]bool{"file": true, "lustre": true, "hestia": true}

// ParseSource parses raw as a src: URI. Only the ack-user query
// option is recognised; any other query key is an error.
func ParseSource(raw string) (*SourceURI, error) {
	const prefix = "src:"
	if !strings.HasPrefix(raw, prefix) {
		return nil, rbherr.InvalidArgument("source uri %q: missing src: scheme", raw)
	}
	rest := raw[len(prefix):]

	sep := strings.IndexByte(rest, ':')
	if sep < 0 {
		return nil, rbherr.InvalidArgument("source uri %q: missing kind/target separator", raw)
	}
	kind, rest := rest[:sep], rest[sep+1:]
	if !sourceKinds[kind] {
		return nil, rbherr.InvalidArgument("source uri %q: unknown kind %q", raw, kind)
	}

	target := rest
	var query string
	hasQuery := false
	if q := strings.IndexByte(rest, '?'); q >= 0 {
		target, query = rest[:q], rest[q+1:]
		hasQuery = true
	}

	u := &SourceURI{Kind: kind, Target: target}
	if !hasQuery || query == "" {
		return u, nil
	}
	for _, part := range strings.Split(query, "&") {
		key, value, found := strings.Cut(part, "=")
		if !found || key != "ack-user" {
			return nil, rbherr.InvalidArgument("source uri %q: unrecognised query option %q", raw, part)
		}
		u.AckUser, u.HasAckUser = value, true
	}
	return u, nil
}

// FormatSource renders u back into its string form.
func FormatSource(u *SourceURI) string {
	s := fmt.Sprintf("src:%s:%s", u.Kind, u.Target)
	if u.HasAckUser {
		s += "?ack-user=" + u.AckUser
	}
	return s
}
