package fs

import (
	"testing"

	"github.com/kylelemons/godebug/pretty"
	"github.com/robinhood-suite/robinhood4-sub001/fs/rbherr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueValidate(t *testing.T) {
	tests := []struct {
		name    string
		value   *Value
		wantErr bool
	}{
		{"boolean", NewBoolean(true), false},
		{"string", NewString("hello"), false},
		{"binary ok", NewBinary([]byte("abc")), false},
		{"binary nil empty", &Value{Type: ValueTypeBinary, Binary: Binary{Data: nil}}, false},
		{"regex ok", NewRegex(".*", RegexCaseInsensitive), false},
		{"regex bad option", NewRegex(".*", 0x8000), true},
		{"sequence ok", NewSequence([]Value{*NewInt32(1), *NewInt32(2)}), false},
		{"sequence nested invalid", NewSequence([]Value{{Type: ValueTypeRegex, Regex: Regex{Options: 0xff}}}), true},
		{"map ok", NewMap([]Pair{{Key: "a", Value: NewInt32(1)}}), false},
		{"map nil value", NewMap([]Pair{{Key: "a", Value: nil}}), true},
		{"unknown type", &Value{Type: ValueType(99)}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.value.Validate()
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, rbherr.Is(err, rbherr.KindInvalidArgument))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestValueDeepCopyRoundTrip(t *testing.T) {
	src := NewMap([]Pair{
		{Key: "name", Value: NewString("foo.txt")},
		{Key: "tags", Value: NewSequence([]Value{*NewString("a"), *NewString("b")})},
		{Key: "size", Value: NewInt64(1024)},
		{Key: "blob", Value: NewBinary([]byte{1, 2, 3, 4})},
	})
	require.NoError(t, src.Validate())

	need := src.DataSize(0)
	buf := make([]byte, need)
	rest := buf
	size := len(buf)
	dst, err := DeepCopy(src, &rest, &size)
	require.NoError(t, err)
	assert.Equal(t, 0, size, "deep copy should consume the entire buffer")

	// deep-copy then compare under value-equality yields the
	// original value.
	if diff := pretty.Compare(src, dst); diff != "" {
		t.Fatalf("deep copy does not equal source (-src +dst):\n%s", diff)
	}
	assert.True(t, src.Equal(dst))
}

func TestValueDeepCopyInsufficientBuffer(t *testing.T) {
	src := NewString("a string that needs more than one byte")
	buf := make([]byte, 1)
	size := len(buf)
	_, err := DeepCopy(src, &buf, &size)
	require.Error(t, err)
	assert.True(t, rbherr.Is(err, rbherr.KindInsufficientBuffer))
}

func TestValueCloneIndependence(t *testing.T) {
	src := NewBinary([]byte{1, 2, 3})
	clone := src.Clone()
	clone.Binary.Data[0] = 99
	assert.Equal(t, byte(1), src.Binary.Data[0], "clone must not alias source storage")
}

func TestValueEqualMapOrderSignificant(t *testing.T) {
	a := NewMap([]Pair{{Key: "x", Value: NewInt32(1)}, {Key: "y", Value: NewInt32(2)}})
	b := NewMap([]Pair{{Key: "y", Value: NewInt32(2)}, {Key: "x", Value: NewInt32(1)}})
	assert.False(t, a.Equal(b))
}
