package fs

// StatxMask is a bitmask of populated Statx fields. The low 13 bits
// follow the host statx(2) bit layout; the upper bits are RobinHood
// extensions (nanosecond halves, rdev/dev major/minor, attributes,
// blksize). Constants and values are taken verbatim from
// original_source/librobinhood/include/robinhood/statx.h, which the
// underlying statx(2) interface.
type StatxMask uint32

const (
	StatxType       StatxMask = 0x00000001
	StatxMode       StatxMask = 0x00000002
	StatxNlink      StatxMask = 0x00000004
	StatxUID        StatxMask = 0x00000008
	StatxGID        StatxMask = 0x00000010
	StatxAtimeSec   StatxMask = 0x00000020
	StatxMtimeSec   StatxMask = 0x00000040
	StatxCtimeSec   StatxMask = 0x00000080
	StatxIno        StatxMask = 0x00000100
	StatxSize       StatxMask = 0x00000200
	StatxBlocks     StatxMask = 0x00000400
	StatxBtimeSec   StatxMask = 0x00000800
	StatxMntID      StatxMask = 0x00001000
	StatxBlksize    StatxMask = 0x40000000
	StatxAttributes StatxMask = 0x20000000
	StatxAtimeNsec  StatxMask = 0x10000000
	StatxBtimeNsec  StatxMask = 0x08000000
	StatxCtimeNsec  StatxMask = 0x04000000
	StatxMtimeNsec  StatxMask = 0x02000000
	StatxRdevMajor  StatxMask = 0x01000000
	StatxRdevMinor  StatxMask = 0x00800000
	StatxDevMajor   StatxMask = 0x00400000
	StatxDevMinor   StatxMask = 0x00200000

	StatxAtime StatxMask = StatxAtimeNsec | StatxAtimeSec
	StatxBtime StatxMask = StatxBtimeNsec | StatxBtimeSec
	StatxCtime StatxMask = StatxCtimeNsec | StatxCtimeSec
	StatxMtime StatxMask = StatxMtimeNsec | StatxMtimeSec
	StatxRdev  StatxMask = StatxRdevMajor | StatxRdevMinor
	StatxDev   StatxMask = StatxDevMajor | StatxDevMinor

	StatxBasicStats StatxMask = 0x57e007ff
	StatxAll        StatxMask = 0x7fe01fff
	StatxMPIFile    StatxMask = 0x160002fb
)

// Has reports whether every bit set in want is also set in mask.
func (mask StatxMask) Has(want StatxMask) bool { return mask&want == want }

// StatxAttribute is a bit of the immutable/append-only/etc. attribute
// word, itself gated by StatxAttributes in the owning Statx's mask.
type StatxAttribute uint64

const (
	StatxAttrCompressed StatxAttribute = 0x00000004
	StatxAttrImmutable  StatxAttribute = 0x00000010
	StatxAttrAppend     StatxAttribute = 0x00000020
	StatxAttrNodump     StatxAttribute = 0x00000040
	StatxAttrEncrypted  StatxAttribute = 0x00000800
	StatxAttrAutomount  StatxAttribute = 0x00001000
	StatxAttrMountRoot  StatxAttribute = 0x00002000
	StatxAttrVerity     StatxAttribute = 0x00100000
	StatxAttrDax        StatxAttribute = 0x00200000
)

// Timestamp is a POSIX time split into whole seconds and a
// nanosecond remainder, matching struct rbh_statx_timestamp.
type Timestamp struct {
	Sec  int64
	Nsec uint32
}

// Statx is the flat POSIX-attribute record carried by an Fsentry.
// Only fields whose bit is set in Mask are meaningful to read; the
// rest are undefined.
type Statx struct {
	Mask StatxMask

	Blksize    uint32
	Attributes uint64
	Nlink      uint32
	UID        uint32
	GID        uint32
	Mode       uint16
	Ino        uint64
	Size       uint64
	Blocks     uint64

	Atime Timestamp
	Btime Timestamp
	Ctime Timestamp
	Mtime Timestamp

	RdevMajor uint32
	RdevMinor uint32
	DevMajor  uint32
	DevMinor  uint32
}

// MergeStatx overlays the fields present in overlay's mask onto base,
// returning a new Statx whose mask is the union of both (overlaying
// the fields present in the overlay onto
// the base"). base and overlay are not mutated.
func MergeStatx(base, overlay Statx) Statx {
	out := base
	out.Mask = base.Mask | overlay.Mask

	if overlay.Mask.Has(StatxBlksize) {
		out.Blksize = overlay.Blksize
	}
	if overlay.Mask.Has(StatxAttributes) {
		out.Attributes = overlay.Attributes
	}
	if overlay.Mask.Has(StatxNlink) {
		out.Nlink = overlay.Nlink
	}
	if overlay.Mask.Has(StatxUID) {
		out.UID = overlay.UID
	}
	if overlay.Mask.Has(StatxGID) {
		out.GID = overlay.GID
	}
	if overlay.Mask.Has(StatxMode) {
		out.Mode = overlay.Mode
	}
	if overlay.Mask.Has(StatxIno) {
		out.Ino = overlay.Ino
	}
	if overlay.Mask.Has(StatxSize) {
		out.Size = overlay.Size
	}
	if overlay.Mask.Has(StatxBlocks) {
		out.Blocks = overlay.Blocks
	}
	if overlay.Mask.Has(StatxAtimeSec) {
		out.Atime.Sec = overlay.Atime.Sec
	}
	if overlay.Mask.Has(StatxAtimeNsec) {
		out.Atime.Nsec = overlay.Atime.Nsec
	}
	if overlay.Mask.Has(StatxBtimeSec) {
		out.Btime.Sec = overlay.Btime.Sec
	}
	if overlay.Mask.Has(StatxBtimeNsec) {
		out.Btime.Nsec = overlay.Btime.Nsec
	}
	if overlay.Mask.Has(StatxCtimeSec) {
		out.Ctime.Sec = overlay.Ctime.Sec
	}
	if overlay.Mask.Has(StatxCtimeNsec) {
		out.Ctime.Nsec = overlay.Ctime.Nsec
	}
	if overlay.Mask.Has(StatxMtimeSec) {
		out.Mtime.Sec = overlay.Mtime.Sec
	}
	if overlay.Mask.Has(StatxMtimeNsec) {
		out.Mtime.Nsec = overlay.Mtime.Nsec
	}
	if overlay.Mask.Has(StatxRdevMajor) {
		out.RdevMajor = overlay.RdevMajor
	}
	if overlay.Mask.Has(StatxRdevMinor) {
		out.RdevMinor = overlay.RdevMinor
	}
	if overlay.Mask.Has(StatxDevMajor) {
		out.DevMajor = overlay.DevMajor
	}
	if overlay.Mask.Has(StatxDevMinor) {
		out.DevMinor = overlay.DevMinor
	}
	return out
}

// IsSymlink reports whether mode's file-type bits (the top 4 bits of
// the 16-bit mode, per S_IFMT) mark a symbolic link. Fsentry uses
// this to enforce that Symlink is only ever set alongside a
// symlink-typed Statx.
func (s Statx) IsSymlink() bool {
	const sIFMT = 0170000
	const sIFLNK = 0120000
	return s.Mask.Has(StatxType) && uint32(s.Mode)&sIFMT == sIFLNK
}
