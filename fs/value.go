// Package fs holds the leaf data types every other component of the
// mirror builds on: the tagged Value union, the ID type, the
// statx-like attribute record and the Fsentry record. Subpackages
// (filter, fsevent, backend, dedup, pipeline, policy) depend on this
// package; it depends on nothing else in the module but fs/rbherr.
package fs

import (
	"fmt"

	"github.com/robinhood-suite/robinhood4-sub001/fs/rbherr"
)

// ValueType is the discriminant of a Value.
type ValueType int

// The value types mirror librobinhood's enum rbh_value_type exactly,
// including its ordering (original_source/librobinhood/include/robinhood/value.h).
const (
	ValueTypeBoolean ValueType = iota
	ValueTypeInt32
	ValueTypeUint32
	ValueTypeInt64
	ValueTypeUint64
	ValueTypeString
	ValueTypeBinary
	ValueTypeRegex
	ValueTypeSequence
	ValueTypeMap
)

func (t ValueType) String() string {
	switch t {
	case ValueTypeBoolean:
		return "boolean"
	case ValueTypeInt32:
		return "int32"
	case ValueTypeUint32:
		return "unsigned int32"
	case ValueTypeInt64:
		return "int64"
	case ValueTypeUint64:
		return "unsigned int64"
	case ValueTypeString:
		return "string"
	case ValueTypeBinary:
		return "binary"
	case ValueTypeRegex:
		return "regex"
	case ValueTypeSequence:
		return "sequence"
	case ValueTypeMap:
		return "map"
	default:
		return "unknown"
	}
}

// RegexOption is a bitmask of regex matching options.
type RegexOption uint32

// RegexCaseInsensitive is the only regex option currently defined.
const (
	RegexCaseInsensitive RegexOption = 0x1
	regexOptionAll                   = RegexCaseInsensitive
)

// Binary is the payload of a ValueTypeBinary value.
type Binary struct {
	Data []byte
}

// Regex is the payload of a ValueTypeRegex value.
type Regex struct {
	Pattern string
	Options RegexOption
}

// Pair is one key/value entry of a Map value, in insertion order.
type Pair struct {
	Key   string
	Value *Value
}

// Value is the tagged union used throughout the mirror for anything
// that isn't a structural fsentry field: filter operands, xattr
// values, policy parameters, backend metadata maps.
//
// Exactly one of the typed fields is meaningful, selected by Type.
// Value intentionally keeps every variant as a plain field rather
// than an interface{} payload so deep-copy/size accounting can
// walk it without a type switch on unknown implementations.
type Value struct {
	Type ValueType

	Boolean bool
	Int32   int32
	Uint32  uint32
	Int64   int64
	Uint64  uint64
	String  string
	Binary  Binary
	Regex   Regex
	Seq     []Value
	Map     []Pair
}

// NewBoolean builds a boolean value.
func NewBoolean(b bool) *Value { return &Value{Type: ValueTypeBoolean, Boolean: b} }

// NewInt32 builds an int32 value.
func NewInt32(v int32) *Value { return &Value{Type: ValueTypeInt32, Int32: v} }

// NewUint32 builds a uint32 value.
func NewUint32(v uint32) *Value { return &Value{Type: ValueTypeUint32, Uint32: v} }

// NewInt64 builds an int64 value.
func NewInt64(v int64) *Value { return &Value{Type: ValueTypeInt64, Int64: v} }

// NewUint64 builds a uint64 value.
func NewUint64(v uint64) *Value { return &Value{Type: ValueTypeUint64, Uint64: v} }

// NewString builds a string value.
func NewString(s string) *Value { return &Value{Type: ValueTypeString, String: s} }

// NewBinary builds a binary value. data is not copied.
func NewBinary(data []byte) *Value {
	return &Value{Type: ValueTypeBinary, Binary: Binary{Data: data}}
}

// NewRegex builds a regex value.
func NewRegex(pattern string, options RegexOption) *Value {
	return &Value{Type: ValueTypeRegex, Regex: Regex{Pattern: pattern, Options: options}}
}

// NewSequence builds a sequence value. values is not copied.
func NewSequence(values []Value) *Value {
	return &Value{Type: ValueTypeSequence, Seq: values}
}

// NewMap builds a map value. pairs is not copied.
func NewMap(pairs []Pair) *Value {
	return &Value{Type: ValueTypeMap, Map: pairs}
}

// Validate rejects unknown discriminants and structurally invalid
// payloads: a non-empty binary with a nil Data slice, a sequence
// whose advertised elements are nil, regex option bits outside the
// defined set, and recursively invalid sequence/map elements.
func (v *Value) Validate() error {
	if v == nil {
		return rbherr.InvalidArgument("nil value")
	}
	switch v.Type {
	case ValueTypeBoolean, ValueTypeInt32, ValueTypeUint32, ValueTypeInt64, ValueTypeUint64:
		return nil
	case ValueTypeString:
		return nil
	case ValueTypeBinary:
		if v.Binary.Data == nil && len(v.Binary.Data) > 0 {
			return rbherr.InvalidArgument("binary value with non-zero size and nil data")
		}
		return nil
	case ValueTypeRegex:
		if v.Regex.Options&^regexOptionAll != 0 {
			return rbherr.InvalidArgument("regex value with unknown option bits: %#x", v.Regex.Options)
		}
		return nil
	case ValueTypeSequence:
		if v.Seq == nil && len(v.Seq) > 0 {
			return rbherr.InvalidArgument("sequence value with non-zero count and nil elements")
		}
		for i := range v.Seq {
			if err := v.Seq[i].Validate(); err != nil {
				return rbherr.Wrap(rbherr.KindInvalidArgument, err, "invalid sequence element %d", i)
			}
		}
		return nil
	case ValueTypeMap:
		for i := range v.Map {
			if v.Map[i].Value == nil {
				return rbherr.InvalidArgument("map value with nil value at key %q", v.Map[i].Key)
			}
			if err := v.Map[i].Value.Validate(); err != nil {
				return rbherr.Wrap(rbherr.KindInvalidArgument, err, "invalid map value at key %q", v.Map[i].Key)
			}
		}
		return nil
	default:
		return rbherr.InvalidArgument("unknown value type %d", v.Type)
	}
}

// Clone returns a deep, independently-owned copy of v.
func (v *Value) Clone() *Value {
	if v == nil {
		return nil
	}
	out := *v
	switch v.Type {
	case ValueTypeBinary:
		if v.Binary.Data != nil {
			out.Binary.Data = append([]byte(nil), v.Binary.Data...)
		}
	case ValueTypeSequence:
		if v.Seq != nil {
			out.Seq = make([]Value, len(v.Seq))
			for i := range v.Seq {
				out.Seq[i] = *v.Seq[i].Clone()
			}
		}
	case ValueTypeMap:
		if v.Map != nil {
			out.Map = make([]Pair, len(v.Map))
			for i := range v.Map {
				out.Map[i] = Pair{Key: v.Map[i].Key, Value: v.Map[i].Value.Clone()}
			}
		}
	}
	return &out
}

// Equal reports whether v and other represent the same value. Map
// key order is significant, matching the reference implementation's
// pair-array representation.
func (v *Value) Equal(other *Value) bool {
	if v == nil || other == nil {
		return v == other
	}
	if v.Type != other.Type {
		return false
	}
	switch v.Type {
	case ValueTypeBoolean:
		return v.Boolean == other.Boolean
	case ValueTypeInt32:
		return v.Int32 == other.Int32
	case ValueTypeUint32:
		return v.Uint32 == other.Uint32
	case ValueTypeInt64:
		return v.Int64 == other.Int64
	case ValueTypeUint64:
		return v.Uint64 == other.Uint64
	case ValueTypeString:
		return v.String == other.String
	case ValueTypeBinary:
		return string(v.Binary.Data) == string(other.Binary.Data)
	case ValueTypeRegex:
		return v.Regex.Pattern == other.Regex.Pattern && v.Regex.Options == other.Regex.Options
	case ValueTypeSequence:
		if len(v.Seq) != len(other.Seq) {
			return false
		}
		for i := range v.Seq {
			if !v.Seq[i].Equal(&other.Seq[i]) {
				return false
			}
		}
		return true
	case ValueTypeMap:
		if len(v.Map) != len(other.Map) {
			return false
		}
		for i := range v.Map {
			if v.Map[i].Key != other.Map[i].Key || !v.Map[i].Value.Equal(other.Map[i].Value) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// DataSize returns the number of bytes DeepCopy would need to
// serialise v's referenced data (strings, binary blobs, regex
// patterns, nested sequence/map elements), not counting the fixed
// struct header. alignOffset is accepted for interface symmetry with
// DeepCopy/the reference implementation's alignment-sensitive caller,
// but this serialisation never pads: every referenced payload is a
// byte string with no alignment requirement.
func (v *Value) DataSize(alignOffset int) int {
	if v == nil {
		return 0
	}
	switch v.Type {
	case ValueTypeString:
		return len(v.String)
	case ValueTypeBinary:
		return len(v.Binary.Data)
	case ValueTypeRegex:
		return len(v.Regex.Pattern)
	case ValueTypeSequence:
		n := 0
		for i := range v.Seq {
			n += v.Seq[i].DataSize(alignOffset + n)
		}
		return n
	case ValueTypeMap:
		n := 0
		for i := range v.Map {
			n += len(v.Map[i].Key)
			n += v.Map[i].Value.DataSize(alignOffset + n)
		}
		return n
	default:
		return 0
	}
}

// DeepCopy serialises src's referenced bytes into *buffer, advances
// *buffer past what it wrote, decrements *size accordingly, and
// returns an independent Value whose binary payloads point into
// *buffer rather than into src's memory (string, regex-pattern and
// map-key payloads are Go strings built from the copied bytes). It
// fails with
// KindInsufficientBuffer rather than writing past the end of the
// supplied region.
func DeepCopy(src *Value, buffer *[]byte, size *int) (*Value, error) {
	if src == nil {
		return nil, nil
	}
	need := src.DataSize(0)
	if need > *size {
		return nil, rbherr.InsufficientBuffer("need %d bytes, have %d", need, *size)
	}

	dst := &Value{Type: src.Type}
	switch src.Type {
	case ValueTypeBoolean, ValueTypeInt32, ValueTypeUint32, ValueTypeInt64, ValueTypeUint64:
		*dst = *src
	case ValueTypeString:
		dst.String = copyString(src.String, buffer, size)
	case ValueTypeBinary:
		dst.Binary.Data = copyBytes(src.Binary.Data, buffer, size)
	case ValueTypeRegex:
		dst.Regex.Options = src.Regex.Options
		dst.Regex.Pattern = copyString(src.Regex.Pattern, buffer, size)
	case ValueTypeSequence:
		if src.Seq != nil {
			dst.Seq = make([]Value, len(src.Seq))
			for i := range src.Seq {
				elem, err := DeepCopy(&src.Seq[i], buffer, size)
				if err != nil {
					return nil, err
				}
				dst.Seq[i] = *elem
			}
		}
	case ValueTypeMap:
		if src.Map != nil {
			dst.Map = make([]Pair, len(src.Map))
			for i := range src.Map {
				key := copyString(src.Map[i].Key, buffer, size)
				val, err := DeepCopy(src.Map[i].Value, buffer, size)
				if err != nil {
					return nil, err
				}
				dst.Map[i] = Pair{Key: key, Value: val}
			}
		}
	default:
		return nil, rbherr.InvalidArgument("unknown value type %d", src.Type)
	}
	return dst, nil
}

func copyBytes(src []byte, buffer *[]byte, size *int) []byte {
	if len(src) == 0 {
		if src == nil {
			return nil
		}
		return []byte{}
	}
	n := copy(*buffer, src)
	dst := (*buffer)[:n:n]
	*buffer = (*buffer)[n:]
	*size -= n
	return dst
}

func copyString(src string, buffer *[]byte, size *int) string {
	b := copyBytes([]byte(src), buffer, size)
	return string(b)
}

// Describe renders a short diagnostic description of v. It is not the
// wire representation -- YAML (de)serialisation of values is
// explicitly out of scope for this module.
func (v *Value) Describe() string {
	if v == nil {
		return "<nil>"
	}
	switch v.Type {
	case ValueTypeBinary:
		return fmt.Sprintf("%s(%d bytes)", v.Type, len(v.Binary.Data))
	case ValueTypeSequence:
		return fmt.Sprintf("%s(%d elements)", v.Type, len(v.Seq))
	case ValueTypeMap:
		return fmt.Sprintf("%s(%d pairs)", v.Type, len(v.Map))
	default:
		return v.Type.String()
	}
}
