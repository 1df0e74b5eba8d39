package fs

import "github.com/robinhood-suite/robinhood4-sub001/fs/rbherr"

// FsentryMask is a bitmask of which top-level Fsentry fields are
// populated. It is distinct from Statx.Mask, which tracks which
// POSIX-attribute fields within Statx are populated.
type FsentryMask uint32

const (
	FsentryID FsentryMask = 1 << iota
	FsentryParentID
	FsentryName
	FsentryStatx
	FsentryNamespaceXattrs
	FsentryInodeXattrs
	FsentrySymlink

	FsentryAll = FsentryID | FsentryParentID | FsentryName | FsentryStatx |
		FsentryNamespaceXattrs | FsentryInodeXattrs | FsentrySymlink
)

// Has reports whether every bit set in want is also set in mask.
func (mask FsentryMask) Has(want FsentryMask) bool { return mask&want == want }

// Fsentry is the core's in-memory record for a filesystem entry: an
// id, its parent id, its name within that parent, its POSIX-like
// attributes, its namespace and inode extended attributes, and,
// for symlinks, the link target. Reading a field whose bit is unset
// in Mask is undefined; Fsentry is immutable
// once built.
type Fsentry struct {
	Mask FsentryMask

	ID       ID
	ParentID ID
	Name     string

	Statx Statx

	// NamespaceXattrs are extended attributes attached to this
	// specific (parent, name) link.
	NamespaceXattrs []Pair
	// InodeXattrs are extended attributes common to every hardlink
	// of this entry.
	InodeXattrs []Pair

	Symlink string
}

// Validate enforces the one cross-field invariant this record
// names explicitly: Symlink is populated only when Statx says the
// entry is a symbolic link.
func (e *Fsentry) Validate() error {
	if e == nil {
		return rbherr.InvalidArgument("nil fsentry")
	}
	if e.Mask.Has(FsentrySymlink) {
		if !e.Mask.Has(FsentryStatx) || !e.Statx.IsSymlink() {
			return rbherr.InvalidArgument("symlink target set on a non-symlink fsentry")
		}
	}
	return nil
}

// NamespaceXattr looks up a namespace xattr by name.
func (e *Fsentry) NamespaceXattr(name string) (*Value, bool) {
	return lookupPair(e.NamespaceXattrs, name)
}

// InodeXattr looks up an inode xattr by name.
func (e *Fsentry) InodeXattr(name string) (*Value, bool) {
	return lookupPair(e.InodeXattrs, name)
}

func lookupPair(pairs []Pair, name string) (*Value, bool) {
	for i := range pairs {
		if pairs[i].Key == name {
			return pairs[i].Value, true
		}
	}
	return nil, false
}

// Clone returns a deep, independently-owned copy of e.
func (e *Fsentry) Clone() *Fsentry {
	if e == nil {
		return nil
	}
	out := *e
	out.ID = e.ID.Clone()
	out.ParentID = e.ParentID.Clone()
	out.NamespaceXattrs = clonePairs(e.NamespaceXattrs)
	out.InodeXattrs = clonePairs(e.InodeXattrs)
	return &out
}

func clonePairs(pairs []Pair) []Pair {
	if pairs == nil {
		return nil
	}
	out := make([]Pair, len(pairs))
	for i := range pairs {
		out[i] = Pair{Key: pairs[i].Key, Value: pairs[i].Value.Clone()}
	}
	return out
}
