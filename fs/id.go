package fs

import (
	"encoding/binary"

	"github.com/robinhood-suite/robinhood4-sub001/fs/rbherr"
)

// ID is an opaque byte-string identifying an fsentry throughout a
// filesystem's life. A zero-length ID is reserved
// for "the parent of the root" and has no other meaning.
//
// IDs are opaque to every component except the two structured forms
// this file builds and parses: a file-handle form (matching
// name_to_handle_at(2); the handle-type space this module's
// handle_type field indexes into is the kernel's FILEID_* constants)
// and a Lustre fid form. Conversion back to either structured form
// must be the exact byte-for-byte inverse (decode must exactly invert
// encode).
type ID struct {
	bytes []byte
}

// NewID wraps an arbitrary byte-string as an opaque ID. data is not
// copied; callers that need independence should clone first.
func NewID(data []byte) ID { return ID{bytes: data} }

// RootParentID is the reserved zero-length ID naming the parent of a
// filesystem's root.
var RootParentID = ID{bytes: []byte{}}

// Bytes returns the raw byte-string backing id.
func (id ID) Bytes() []byte { return id.bytes }

// Len returns the number of bytes backing id.
func (id ID) Len() int { return len(id.bytes) }

// IsRootParent reports whether id is the reserved zero-length id.
func (id ID) IsRootParent() bool { return len(id.bytes) == 0 }

// Equal reports whether id and other are byte-identical.
func (id ID) Equal(other ID) bool {
	if len(id.bytes) != len(other.bytes) {
		return false
	}
	for i := range id.bytes {
		if id.bytes[i] != other.bytes[i] {
			return false
		}
	}
	return true
}

// Clone returns an independently-owned copy of id.
func (id ID) Clone() ID {
	if id.bytes == nil {
		return ID{}
	}
	return ID{bytes: append([]byte(nil), id.bytes...)}
}

// HashKey returns a value suitable as a HashMap key for id: IDs
// compare byte-for-byte, so their string form (which Go compares and
// hashes structurally) is the natural key representation.
func (id ID) HashKey() string { return string(id.bytes) }

// FileHandle is the decoded form of an id built from an OS file
// handle: a caller-defined handle type tag plus the opaque handle
// bytes returned by name_to_handle_at(2) or an equivalent.
type FileHandle struct {
	Type  int32
	Bytes []byte
}

const (
	fileHandleHeaderSize = 2 + 4 // backend_id:u16 || handle_type:i32
	lustreIDSize         = 2 + 32
	lustreChildFidSize   = 8 + 4 + 4
)

// NewIDFromFileHandle builds an ID from an OS file handle, tagging it
// with backendID so multiple backend instances sharing an id
// namespace can be told apart.
func NewIDFromFileHandle(backendID uint16, handle FileHandle) ID {
	buf := make([]byte, fileHandleHeaderSize+len(handle.Bytes))
	binary.BigEndian.PutUint16(buf[0:2], backendID)
	binary.BigEndian.PutUint32(buf[2:6], uint32(handle.Type))
	copy(buf[6:], handle.Bytes)
	return ID{bytes: buf}
}

// BackendID returns the backend-id tag embedded in id, valid for both
// the file-handle and Lustre-fid forms since both place it in the
// same leading two bytes.
func (id ID) BackendID() (uint16, error) {
	if len(id.bytes) < 2 {
		return 0, rbherr.InvalidArgument("id too short to carry a backend id: %d bytes", len(id.bytes))
	}
	return binary.BigEndian.Uint16(id.bytes[0:2]), nil
}

// FileHandle decodes id back into the file-handle form NewIDFromFileHandle
// built, byte-for-byte.
func (id ID) FileHandle() (FileHandle, error) {
	if len(id.bytes) < fileHandleHeaderSize {
		return FileHandle{}, rbherr.InvalidArgument("id too short for a file handle: %d bytes", len(id.bytes))
	}
	handleType := int32(binary.BigEndian.Uint32(id.bytes[2:6]))
	rest := id.bytes[6:]
	out := make([]byte, len(rest))
	copy(out, rest)
	return FileHandle{Type: handleType, Bytes: out}, nil
}

// LustreFid is the three-word (seq, oid, ver) identifier Lustre uses
// to name an object.
type LustreFid struct {
	Seq uint64
	Oid uint32
	Ver uint32
}

// NewIDFromLustreFid builds an ID from a Lustre fid: the 16-byte child
// fid, followed by 16 zero bytes reserved for a parent fid, preceded
// by the backend-id tag.
func NewIDFromLustreFid(backendID uint16, fid LustreFid) ID {
	buf := make([]byte, lustreIDSize)
	binary.BigEndian.PutUint16(buf[0:2], backendID)
	encodeFid(buf[2:2+lustreChildFidSize], fid)
	// buf[2+lustreChildFidSize:] stays zero: reserved for the parent fid.
	return ID{bytes: buf}
}

// NewIDFromLustreFidPair builds an ID from a Lustre fid plus its
// parent fid, used when a component needs to carry both in a single
// opaque id (e.g. a changelog record naming a renamed entry's old
// parent).
func NewIDFromLustreFidPair(backendID uint16, fid, parent LustreFid) ID {
	buf := make([]byte, lustreIDSize)
	binary.BigEndian.PutUint16(buf[0:2], backendID)
	encodeFid(buf[2:2+lustreChildFidSize], fid)
	encodeFid(buf[2+lustreChildFidSize:], parent)
	return ID{bytes: buf}
}

func encodeFid(dst []byte, fid LustreFid) {
	binary.BigEndian.PutUint64(dst[0:8], fid.Seq)
	binary.BigEndian.PutUint32(dst[8:12], fid.Oid)
	binary.BigEndian.PutUint32(dst[12:16], fid.Ver)
}

func decodeFid(src []byte) LustreFid {
	return LustreFid{
		Seq: binary.BigEndian.Uint64(src[0:8]),
		Oid: binary.BigEndian.Uint32(src[8:12]),
		Ver: binary.BigEndian.Uint32(src[12:16]),
	}
}

// IsLustreFidShaped reports whether id has the exact length a
// Lustre-fid id built by this package produces. It is a heuristic,
// not a type tag: an id is opaque, so callers that need to know for
// certain which form they hold must track it out of band (as the
// backend that produced the id does).
func (id ID) IsLustreFidShaped() bool { return len(id.bytes) == lustreIDSize }

// LustreFid decodes id's child fid, assuming id was built by
// NewIDFromLustreFid or NewIDFromLustreFidPair.
func (id ID) LustreFid() (LustreFid, error) {
	if len(id.bytes) != lustreIDSize {
		return LustreFid{}, rbherr.InvalidArgument("id is not shaped like a lustre fid: %d bytes", len(id.bytes))
	}
	return decodeFid(id.bytes[2 : 2+lustreChildFidSize]), nil
}

// LustreParentFid decodes id's reserved parent-fid slot. It returns
// the zero LustreFid (and no error) when the slot was never set by
// NewIDFromLustreFidPair.
func (id ID) LustreParentFid() (LustreFid, error) {
	if len(id.bytes) != lustreIDSize {
		return LustreFid{}, rbherr.InvalidArgument("id is not shaped like a lustre fid: %d bytes", len(id.bytes))
	}
	return decodeFid(id.bytes[2+lustreChildFidSize:]), nil
}
