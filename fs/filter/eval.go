package filter

import (
	"bytes"
	"regexp"

	rfs "github.com/robinhood-suite/robinhood4-sub001/fs"
)

// Eval evaluates n against an in-memory entry.
// A nil n (the NULL filter) always matches. AND/OR short-circuit; NOT
// inverts its single child. A comparison whose field is absent from
// the entry's mask evaluates to false, except EXISTS, which tests
// presence directly against its boolean value flag.
func Eval(n *Node, entry *rfs.Fsentry) bool {
	if n == nil {
		return true
	}
	switch n.Op {
	case OpAnd:
		for _, c := range n.Children {
			if !Eval(c, entry) {
				return false
			}
		}
		return true
	case OpOr:
		for _, c := range n.Children {
			if Eval(c, entry) {
				return true
			}
		}
		return false
	case OpNot:
		return !Eval(n.Children[0], entry)
	default:
		return evalComparison(n, entry)
	}
}

func evalComparison(n *Node, entry *rfs.Fsentry) bool {
	fv, present := extractField(n.Field, entry)

	if n.Op == OpExists {
		return present == n.Value.Boolean
	}
	if !present {
		return false
	}
	return evalOperator(n.Op, fv, n.Value)
}

// fieldValue is the extracted representation of a comparison field,
// carrying enough type information to apply the signed/unsigned and
// binary/string distinctions the evaluator requires.
type fieldValue struct {
	bytes    []byte  // ID / ParentID / Name / Symlink
	isString bool    // Name / Symlink are compared as strings, not raw bytes
	signed   int64   // a signed-integer statx field
	unsigned uint64  // an unsigned-integer statx field
	isSigned bool    // which of signed/unsigned is meaningful, for statx fields
	isNumber bool    // true for statx fields
	value    *rfs.Value // namespace/inode xattr fields carry an arbitrary Value
	isValue  bool
}

func extractField(f Field, entry *rfs.Fsentry) (fieldValue, bool) {
	switch f.Kind {
	case FieldID:
		if !entry.Mask.Has(rfs.FsentryID) {
			return fieldValue{}, false
		}
		return fieldValue{bytes: entry.ID.Bytes()}, true
	case FieldParentID:
		if !entry.Mask.Has(rfs.FsentryParentID) {
			return fieldValue{}, false
		}
		return fieldValue{bytes: entry.ParentID.Bytes()}, true
	case FieldName:
		if !entry.Mask.Has(rfs.FsentryName) {
			return fieldValue{}, false
		}
		return fieldValue{bytes: []byte(entry.Name), isString: true}, true
	case FieldSymlink:
		if !entry.Mask.Has(rfs.FsentrySymlink) {
			return fieldValue{}, false
		}
		return fieldValue{bytes: []byte(entry.Symlink), isString: true}, true
	case FieldStatx:
		return extractStatxField(f.StatxBit, entry)
	case FieldNamespaceXattr:
		v, ok := entry.NamespaceXattr(f.Name)
		if !ok {
			return fieldValue{}, false
		}
		return fieldValue{value: v, isValue: true}, true
	case FieldInodeXattr:
		v, ok := entry.InodeXattr(f.Name)
		if !ok {
			return fieldValue{}, false
		}
		return fieldValue{value: v, isValue: true}, true
	default:
		return fieldValue{}, false
	}
}

// signedStatxBits are the statx bits this module treats as signed
// integers (timestamps' seconds halves); every other numeric statx
// bit is treated as unsigned, matching the underlying C types in
// original_source/librobinhood/include/robinhood/statx.h.
var signedStatxBits = rfs.StatxAtimeSec | rfs.StatxBtimeSec | rfs.StatxCtimeSec | rfs.StatxMtimeSec

func extractStatxField(bit rfs.StatxMask, entry *rfs.Fsentry) (fieldValue, bool) {
	if !entry.Mask.Has(rfs.FsentryStatx) || !entry.Statx.Mask.Has(bit) {
		return fieldValue{}, false
	}
	s := entry.Statx
	signed := signedStatxBits.Has(bit)

	var u uint64
	var i int64
	switch bit {
	case rfs.StatxUID:
		u = uint64(s.UID)
	case rfs.StatxGID:
		u = uint64(s.GID)
	case rfs.StatxNlink:
		u = uint64(s.Nlink)
	case rfs.StatxIno:
		u = s.Ino
	case rfs.StatxSize:
		u = s.Size
	case rfs.StatxBlocks:
		u = s.Blocks
	case rfs.StatxBlksize:
		u = uint64(s.Blksize)
	case rfs.StatxMode:
		u = uint64(s.Mode)
	case rfs.StatxAttributes:
		u = s.Attributes
	case rfs.StatxAtimeSec:
		i = s.Atime.Sec
	case rfs.StatxBtimeSec:
		i = s.Btime.Sec
	case rfs.StatxCtimeSec:
		i = s.Ctime.Sec
	case rfs.StatxMtimeSec:
		i = s.Mtime.Sec
	case rfs.StatxAtimeNsec:
		u = uint64(s.Atime.Nsec)
	case rfs.StatxBtimeNsec:
		u = uint64(s.Btime.Nsec)
	case rfs.StatxCtimeNsec:
		u = uint64(s.Ctime.Nsec)
	case rfs.StatxMtimeNsec:
		u = uint64(s.Mtime.Nsec)
	case rfs.StatxRdevMajor:
		u = uint64(s.RdevMajor)
	case rfs.StatxRdevMinor:
		u = uint64(s.RdevMinor)
	case rfs.StatxDevMajor:
		u = uint64(s.DevMajor)
	case rfs.StatxDevMinor:
		u = uint64(s.DevMinor)
	case rfs.StatxType:
		u = uint64(s.Mode)
	default:
		return fieldValue{}, false
	}
	return fieldValue{isNumber: true, isSigned: signed, signed: i, unsigned: u}, true
}

func evalOperator(op Operator, fv fieldValue, value *rfs.Value) bool {
	switch op {
	case OpEqual:
		return evalEqual(fv, value)
	case OpStrictlyLower, OpLowerOrEqual, OpStrictlyGreater, OpGreaterOrEqual:
		return evalOrdering(op, fv, value)
	case OpRegexMatch:
		return evalRegex(fv, value)
	case OpIn:
		return evalIn(fv, value)
	case OpBitsAnySet, OpBitsAllSet, OpBitsAnyClear, OpBitsAllClear:
		return evalBits(op, fv, value)
	default:
		return false
	}
}

func evalEqual(fv fieldValue, value *rfs.Value) bool {
	if fv.isValue {
		return fv.value.Equal(value)
	}
	if fv.isNumber {
		n, ok := numericOperand(value)
		if !ok || n.isSigned != fv.isSigned {
			return false
		}
		if fv.isSigned {
			return fv.signed == n.signed
		}
		return fv.unsigned == n.unsigned
	}
	// ID/ParentID (binary) and Name/Symlink (string) compare for
	// equality only; other operators on strings/binary are not
	// supported by this in-memory evaluator.
	if value.Type == rfs.ValueTypeBinary {
		return bytes.Equal(fv.bytes, value.Binary.Data)
	}
	if fv.isString && value.Type == rfs.ValueTypeString {
		return string(fv.bytes) == value.String
	}
	return false
}

// evalOrdering implements lt/le/gt/ge. The
// in-memory evaluator only supports these for numeric statx fields;
// string/binary fields support equality only.
func evalOrdering(op Operator, fv fieldValue, value *rfs.Value) bool {
	if !fv.isNumber {
		return false
	}
	n, ok := numericOperand(value)
	if !ok || n.isSigned != fv.isSigned {
		return false
	}
	var cmp int
	if fv.isSigned {
		switch {
		case fv.signed < n.signed:
			cmp = -1
		case fv.signed > n.signed:
			cmp = 1
		}
	} else {
		switch {
		case fv.unsigned < n.unsigned:
			cmp = -1
		case fv.unsigned > n.unsigned:
			cmp = 1
		}
	}
	switch op {
	case OpStrictlyLower:
		return cmp < 0
	case OpLowerOrEqual:
		return cmp <= 0
	case OpStrictlyGreater:
		return cmp > 0
	case OpGreaterOrEqual:
		return cmp >= 0
	default:
		return false
	}
}

type numeric struct {
	isSigned bool
	signed   int64
	unsigned uint64
}

func numericOperand(value *rfs.Value) (numeric, bool) {
	switch value.Type {
	case rfs.ValueTypeInt32:
		return numeric{isSigned: true, signed: int64(value.Int32)}, true
	case rfs.ValueTypeInt64:
		return numeric{isSigned: true, signed: value.Int64}, true
	case rfs.ValueTypeUint32:
		return numeric{isSigned: false, unsigned: uint64(value.Uint32)}, true
	case rfs.ValueTypeUint64:
		return numeric{isSigned: false, unsigned: value.Uint64}, true
	default:
		return numeric{}, false
	}
}

func evalRegex(fv fieldValue, value *rfs.Value) bool {
	if value.Type != rfs.ValueTypeRegex {
		return false
	}
	var subject string
	switch {
	case fv.isString:
		subject = string(fv.bytes)
	case fv.isValue && fv.value.Type == rfs.ValueTypeString:
		subject = fv.value.String
	default:
		return false
	}
	pattern := value.Regex.Pattern
	if value.Regex.Options&rfs.RegexCaseInsensitive != 0 {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(subject)
}

func evalIn(fv fieldValue, value *rfs.Value) bool {
	if value.Type != rfs.ValueTypeSequence {
		return false
	}
	for i := range value.Seq {
		if matchesScalar(fv, &value.Seq[i]) {
			return true
		}
	}
	return false
}

func matchesScalar(fv fieldValue, candidate *rfs.Value) bool {
	return evalEqual(fv, candidate)
}

func evalBits(op Operator, fv fieldValue, value *rfs.Value) bool {
	if !fv.isNumber {
		return false
	}
	n, ok := numericOperand(value)
	if !ok {
		return false
	}
	var field, mask uint64
	if fv.isSigned {
		field = uint64(fv.signed)
	} else {
		field = fv.unsigned
	}
	if n.isSigned {
		mask = uint64(n.signed)
	} else {
		mask = n.unsigned
	}
	switch op {
	case OpBitsAnySet:
		return field&mask != 0
	case OpBitsAllSet:
		return field&mask == mask
	case OpBitsAnyClear:
		return field&mask != mask
	case OpBitsAllClear:
		return field&mask == 0
	default:
		return false
	}
}
