// Package fsevent implements the tagged fsevent variants: typed
// mutations a producer emits and the dedup pool (fs/dedup) folds
// before a sink applies them to the mirror.
package fsevent

import (
	rfs "github.com/robinhood-suite/robinhood4-sub001/fs"
	"github.com/robinhood-suite/robinhood4-sub001/fs/rbherr"
)

// Type discriminates an Fsevent.
type Type int

const (
	Upsert Type = iota
	Link
	Unlink
	Delete
	Xattr
)

func (t Type) String() string {
	switch t {
	case Upsert:
		return "UPSERT"
	case Link:
		return "LINK"
	case Unlink:
		return "UNLINK"
	case Delete:
		return "DELETE"
	case Xattr:
		return "XATTR"
	default:
		return "UNKNOWN"
	}
}

// Well-known keys under which the dedup pool's merged enrich map
// stores enrichment requests, nested one level under
// EnrichNamespaceKey except for Fid, which sits at the top level of
// Xattrs.
const (
	// FidKey carries a backend-specific fid marker (e.g. a raw Lustre
	// fid) at the top level of an event's Xattrs.
	FidKey = "fid"
	// EnrichNamespaceKey nests every other enrich marker so concrete
	// xattr values never collide with them.
	EnrichNamespaceKey = "rbh-fsevents"
	// EnrichXattrsKey, inside EnrichNamespaceKey, holds a sequence of
	// xattr names the enricher must fetch.
	EnrichXattrsKey = "xattrs"
	// EnrichLustreKey, inside EnrichNamespaceKey, marks that a
	// Lustre-specific enrichment pass is requested.
	EnrichLustreKey = "lustre"
	// EnrichSymlinkKey, inside EnrichNamespaceKey, marks that the
	// enricher must fetch the entry's symlink target.
	EnrichSymlinkKey = "symlink"
)

// Fsevent is a single typed mutation to apply to the mirror. Which of
// ParentID/Name/Statx/Symlink are meaningful depends on Type; Xattrs
// is meaningful for every type (a LINK/UPSERT may carry xattrs to set
// alongside the structural change; an XATTR event carries nothing
// else).
type Fsevent struct {
	Type  Type
	ID    rfs.ID
	Xattrs []rfs.Pair

	// ParentID and Name are required together for Link and Unlink, and
	// optional-together for Xattr (both set targets the namespace
	// xattrs of that one link; both nil targets the inode xattrs
	// common to every hardlink). They are meaningless for Upsert and
	// Delete.
	ParentID *rfs.ID
	Name     *string

	// Statx and Symlink are meaningful for Upsert only.
	Statx   *rfs.Statx
	Symlink *string
}

// Validate enforces the structural invariants of each event type:
// LINK/UNLINK require both ParentID and Name; XATTR requires both or
// neither, never exactly one. The constructors below only build the
// both-or-neither forms; Validate rejects a half-specified XATTR event
// assembled any other way.
func (e *Fsevent) Validate() error {
	if e == nil {
		return rbherr.InvalidArgument("nil fsevent")
	}
	switch e.Type {
	case Link, Unlink:
		if e.ParentID == nil || e.Name == nil {
			return rbherr.InvalidArgument("%s event requires both parent_id and name", e.Type)
		}
	case Xattr:
		if (e.ParentID == nil) != (e.Name == nil) {
			return rbherr.InvalidArgument("XATTR event must set both parent_id and name, or neither")
		}
	case Upsert, Delete:
		// no structural requirement beyond ID.
	default:
		return rbherr.InvalidArgument("unknown fsevent type %d", e.Type)
	}
	return nil
}

// NewUpsert builds an UPSERT event. statx and symlink may be nil when
// the producer only wants to attach xattrs or request enrichment.
func NewUpsert(id rfs.ID, statx *rfs.Statx, symlink *string, xattrs []rfs.Pair) *Fsevent {
	return &Fsevent{Type: Upsert, ID: id, Statx: statx, Symlink: symlink, Xattrs: xattrs}
}

// NewLink builds a LINK event.
func NewLink(id, parentID rfs.ID, name string, xattrs []rfs.Pair) *Fsevent {
	return &Fsevent{Type: Link, ID: id, ParentID: &parentID, Name: &name, Xattrs: xattrs}
}

// NewUnlink builds an UNLINK event.
func NewUnlink(id, parentID rfs.ID, name string) *Fsevent {
	return &Fsevent{Type: Unlink, ID: id, ParentID: &parentID, Name: &name}
}

// NewDelete builds a DELETE event.
func NewDelete(id rfs.ID) *Fsevent {
	return &Fsevent{Type: Delete, ID: id}
}

// NewXattrNamespace builds an XATTR event targeting the namespace
// xattrs of one specific (parent, name) link.
func NewXattrNamespace(id, parentID rfs.ID, name string, xattrs []rfs.Pair) *Fsevent {
	return &Fsevent{Type: Xattr, ID: id, ParentID: &parentID, Name: &name, Xattrs: xattrs}
}

// NewXattrInode builds an XATTR event targeting the inode xattrs
// shared by every hardlink of id.
func NewXattrInode(id rfs.ID, xattrs []rfs.Pair) *Fsevent {
	return &Fsevent{Type: Xattr, ID: id, Xattrs: xattrs}
}

// Clone returns a deep, independently-owned copy of e, as required
// when the dedup pool inserts the first event seen for an id (a
// fresh list containing a deep copy of e).
func (e *Fsevent) Clone() *Fsevent {
	if e == nil {
		return nil
	}
	out := *e
	out.ID = e.ID.Clone()
	if e.ParentID != nil {
		p := e.ParentID.Clone()
		out.ParentID = &p
	}
	if e.Name != nil {
		n := *e.Name
		out.Name = &n
	}
	if e.Statx != nil {
		s := *e.Statx
		out.Statx = &s
	}
	if e.Symlink != nil {
		s := *e.Symlink
		out.Symlink = &s
	}
	if e.Xattrs != nil {
		out.Xattrs = make([]rfs.Pair, len(e.Xattrs))
		for i := range e.Xattrs {
			out.Xattrs[i] = rfs.Pair{Key: e.Xattrs[i].Key, Value: e.Xattrs[i].Value.Clone()}
		}
	}
	return &out
}

// SameLink reports whether e and other name the same (parent, name)
// pair, used by the dedup pool's LINK/UNLINK cancellation rule.
func (e *Fsevent) SameLink(other *Fsevent) bool {
	if e.ParentID == nil || e.Name == nil || other.ParentID == nil || other.Name == nil {
		return false
	}
	return e.ParentID.Equal(*other.ParentID) && *e.Name == *other.Name
}
