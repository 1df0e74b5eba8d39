package fs

import (
	"testing"

	"github.com/kylelemons/godebug/pretty"
	"github.com/robinhood-suite/robinhood4-sub001/fs/rbherr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sIFLNK = 0120000
const sIFREG = 0100000

func TestFsentryValidateSymlinkRequiresSymlinkStatx(t *testing.T) {
	e := &Fsentry{
		Mask:  FsentryStatx | FsentrySymlink,
		Statx: Statx{Mask: StatxType, Mode: sIFREG},
		Symlink: "/target",
	}
	err := e.Validate()
	require.Error(t, err)
	assert.True(t, rbherr.Is(err, rbherr.KindInvalidArgument))
}

func TestFsentryValidateSymlinkOK(t *testing.T) {
	e := &Fsentry{
		Mask:    FsentryStatx | FsentrySymlink,
		Statx:   Statx{Mask: StatxType, Mode: sIFLNK},
		Symlink: "/target",
	}
	require.NoError(t, e.Validate())
}

func TestFsentryValidateNoSymlinkClaim(t *testing.T) {
	e := &Fsentry{
		Mask:  FsentryStatx,
		Statx: Statx{Mask: StatxType, Mode: sIFREG},
	}
	require.NoError(t, e.Validate())
}

func TestFsentryXattrLookup(t *testing.T) {
	e := &Fsentry{
		Mask:            FsentryNamespaceXattrs,
		NamespaceXattrs: []Pair{{Key: "user.tag", Value: NewString("v")}},
	}
	v, ok := e.NamespaceXattr("user.tag")
	require.True(t, ok)
	assert.Equal(t, "v", v.String)

	_, ok = e.NamespaceXattr("missing")
	assert.False(t, ok)
}

func TestFsentryCloneIndependence(t *testing.T) {
	e := &Fsentry{
		Mask:     FsentryID | FsentryNamespaceXattrs,
		ID:       NewID([]byte{1, 2, 3}),
		NamespaceXattrs: []Pair{{Key: "k", Value: NewString("v")}},
	}
	clone := e.Clone()
	clone.ID.bytes[0] = 99
	clone.NamespaceXattrs[0].Value.String = "changed"

	assert.Equal(t, byte(1), e.ID.bytes[0])
	assert.Equal(t, "v", e.NamespaceXattrs[0].Value.String)
}

func TestFsentryCloneMatchesOriginalBeforeMutation(t *testing.T) {
	e := &Fsentry{
		Mask:            FsentryID | FsentryName | FsentryNamespaceXattrs,
		ID:              NewID([]byte{1, 2, 3}),
		Name:            "leaf",
		NamespaceXattrs: []Pair{{Key: "k", Value: NewString("v")}},
	}
	clone := e.Clone()
	if diff := pretty.Compare(e, clone); diff != "" {
		t.Errorf("clone diverged from original before any mutation:\n%s", diff)
	}
}
