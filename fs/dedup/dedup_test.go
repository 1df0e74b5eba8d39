package dedup

import (
	"errors"
	"testing"

	rfs "github.com/robinhood-suite/robinhood4-sub001/fs"
	"github.com/robinhood-suite/robinhood4-sub001/fs/fsevent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func id(b byte) rfs.ID { return rfs.NewID([]byte{b}) }

func typesOf(events []*fsevent.Fsevent) []fsevent.Type {
	out := make([]fsevent.Type, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}

func TestPoolFullReturnsSignalWithoutInserting(t *testing.T) {
	p := NewPool(1)
	require.NoError(t, p.Push(fsevent.NewDelete(id(1))))
	err := p.Push(fsevent.NewDelete(id(2)))
	assert.True(t, errors.Is(err, ErrPoolFull))
	assert.Equal(t, 1, p.Len())
}

func TestPoolFullAllowsExistingID(t *testing.T) {
	p := NewPool(1)
	require.NoError(t, p.Push(fsevent.NewDelete(id(1))))
	require.NoError(t, p.Push(fsevent.NewUpsert(id(1), nil, nil, nil)))
	assert.Equal(t, 1, p.Len())
}

// Push LINK then UNLINK of the same (name, parent) pair: both cancel
// and the id disappears from the pool entirely.
func TestLinkUnlinkCancellation(t *testing.T) {
	p := NewPool(4)
	x, parent := id(1), id(2)
	require.NoError(t, p.Push(fsevent.NewLink(x, parent, "f", nil)))
	require.NoError(t, p.Push(fsevent.NewUnlink(x, parent, "f")))
	assert.Equal(t, 0, p.Len())
	assert.Empty(t, p.Flush(0))
}

// DELETE with no prior LINK in the dropped list suppresses the
// DELETE itself and removes the id.
func TestDeleteWithoutPriorLinkIsSuppressed(t *testing.T) {
	p := NewPool(4)
	x := id(1)
	require.NoError(t, p.Push(fsevent.NewXattrInode(x, nil)))
	require.NoError(t, p.Push(fsevent.NewDelete(x)))
	assert.Equal(t, 0, p.Len())
	assert.Empty(t, p.Flush(0))
}

// DELETE after a LINK keeps a single DELETE event.
func TestDeleteAfterLinkKeepsOneDelete(t *testing.T) {
	p := NewPool(4)
	x, parent := id(1), id(2)
	require.NoError(t, p.Push(fsevent.NewLink(x, parent, "f", nil)))
	require.NoError(t, p.Push(fsevent.NewDelete(x)))
	out := p.Flush(0)
	require.Len(t, out, 1)
	assert.Equal(t, fsevent.Delete, out[0].Type)
}

// LINK(X,"t",P1), UNLINK(X,"t",P1), LINK(X,"t",P2), UNLINK(X,"t",P2)
// all cancel pairwise, leaving nothing.
func TestSequentialLinkUnlinkPairsAllCancel(t *testing.T) {
	p := NewPool(4)
	x, p1, p2 := id(1), id(2), id(3)
	require.NoError(t, p.Push(fsevent.NewLink(x, p1, "t", nil)))
	require.NoError(t, p.Push(fsevent.NewUnlink(x, p1, "t")))
	require.NoError(t, p.Push(fsevent.NewLink(x, p2, "t", nil)))
	require.NoError(t, p.Push(fsevent.NewUnlink(x, p2, "t")))
	assert.Equal(t, 0, p.Len())
}

// LINK(X,"t",P1) then LINK(X,"t",P2) then UNLINK(X,"t",P1): the P1
// link and the UNLINK cancel each other, leaving only the P2 link.
func TestLinkThenDifferentLinkThenUnlinkFirst(t *testing.T) {
	p := NewPool(4)
	x, p1, p2 := id(1), id(2), id(3)
	require.NoError(t, p.Push(fsevent.NewLink(x, p1, "t", nil)))
	require.NoError(t, p.Push(fsevent.NewLink(x, p2, "t", nil)))
	require.NoError(t, p.Push(fsevent.NewUnlink(x, p1, "t")))
	out := p.Flush(0)
	require.Len(t, out, 1)
	assert.Equal(t, fsevent.Link, out[0].Type)
	assert.True(t, out[0].ParentID.Equal(p2))
}

func TestUpsertUpsertMerge(t *testing.T) {
	p := NewPool(4)
	x := id(1)
	s1 := rfs.Statx{Mask: rfs.StatxAtimeSec, Atime: rfs.Timestamp{Sec: 0}}
	s2 := rfs.Statx{Mask: rfs.StatxMtimeSec | rfs.StatxAtimeSec, Atime: rfs.Timestamp{Sec: 5678}, Mtime: rfs.Timestamp{Sec: 4321}}
	require.NoError(t, p.Push(fsevent.NewUpsert(x, &s1, nil, nil)))
	require.NoError(t, p.Push(fsevent.NewUpsert(x, &s2, nil, nil)))
	out := p.Flush(0)
	require.Len(t, out, 1)
	merged := out[0].Statx
	require.NotNil(t, merged)
	assert.Equal(t, rfs.StatxAtimeSec|rfs.StatxMtimeSec, merged.Mask)
	assert.Equal(t, int64(5678), merged.Atime.Sec)
	assert.Equal(t, int64(4321), merged.Mtime.Sec)
}

// With capacity 3, push XATTR("t") for ids A,B,C then again for
// B,A,C. Flush returns three events in order A, B, C: each id's
// position in the queue is set by its first event.
func TestFlushOrderFollowsFirstInsertion(t *testing.T) {
	p := NewPool(3)
	a, b, c := id(1), id(2), id(3)
	require.NoError(t, p.Push(fsevent.NewXattrInode(a, []rfs.Pair{{Key: "t", Value: rfs.NewString("1")}})))
	require.NoError(t, p.Push(fsevent.NewXattrInode(b, []rfs.Pair{{Key: "t", Value: rfs.NewString("1")}})))
	require.NoError(t, p.Push(fsevent.NewXattrInode(c, []rfs.Pair{{Key: "t", Value: rfs.NewString("1")}})))
	require.NoError(t, p.Push(fsevent.NewXattrInode(b, []rfs.Pair{{Key: "t", Value: rfs.NewString("2")}})))
	require.NoError(t, p.Push(fsevent.NewXattrInode(a, []rfs.Pair{{Key: "t", Value: rfs.NewString("2")}})))
	require.NoError(t, p.Push(fsevent.NewXattrInode(c, []rfs.Pair{{Key: "t", Value: rfs.NewString("2")}})))

	out := p.Flush(0)
	require.Len(t, out, 3)
	assert.True(t, out[0].ID.Equal(a))
	assert.True(t, out[1].ID.Equal(b))
	assert.True(t, out[2].ID.Equal(c))
}

func TestFlushRespectsLimitAndLeavesRemainderForNextFlush(t *testing.T) {
	p := NewPool(4)
	a, b := id(1), id(2)
	require.NoError(t, p.Push(fsevent.NewDelete(a)))
	require.NoError(t, p.Push(fsevent.NewDelete(b)))
	first := p.Flush(1)
	require.Len(t, first, 1)
	assert.True(t, first[0].ID.Equal(a))
	assert.Equal(t, 1, p.Len())
	second := p.Flush(0)
	require.Len(t, second, 1)
	assert.True(t, second[0].ID.Equal(b))
}

func TestXattrConcreteValueOverwrites(t *testing.T) {
	p := NewPool(4)
	x := id(1)
	require.NoError(t, p.Push(fsevent.NewXattrInode(x, []rfs.Pair{{Key: "user.tag", Value: rfs.NewString("a")}})))
	require.NoError(t, p.Push(fsevent.NewXattrInode(x, []rfs.Pair{{Key: "user.tag", Value: rfs.NewString("b")}})))
	out := p.Flush(0)
	require.Len(t, out, 1)
	require.Len(t, out[0].Xattrs, 1)
	assert.Equal(t, "b", out[0].Xattrs[0].Value.String)
}

func TestXattrEnrichMarkersUnionMergeWithOrdering(t *testing.T) {
	x := id(1)
	fidMarker := []rfs.Pair{{Key: fsevent.FidKey, Value: rfs.NewBinary([]byte{9})}}
	lustreMarker := []rfs.Pair{{
		Key: fsevent.EnrichNamespaceKey,
		Value: rfs.NewMap([]rfs.Pair{
			{Key: fsevent.EnrichLustreKey, Value: rfs.NewBoolean(true)},
		}),
	}}
	xattrsMarker := []rfs.Pair{{
		Key: fsevent.EnrichNamespaceKey,
		Value: rfs.NewMap([]rfs.Pair{
			{Key: fsevent.EnrichXattrsKey, Value: rfs.NewSequence([]rfs.Value{*rfs.NewString("user.a")})},
		}),
	}}

	p := NewPool(4)
	require.NoError(t, p.Push(fsevent.NewXattrInode(x, lustreMarker)))
	require.NoError(t, p.Push(fsevent.NewXattrInode(x, xattrsMarker)))
	require.NoError(t, p.Push(fsevent.NewXattrInode(x, fidMarker)))

	out := p.Flush(0)
	require.Len(t, out, 1)
	pairs := out[0].Xattrs
	require.Len(t, pairs, 2)
	assert.Equal(t, fsevent.FidKey, pairs[0].Key)
	assert.Equal(t, fsevent.EnrichNamespaceKey, pairs[1].Key)
	inner := pairs[1].Value.Map
	require.Len(t, inner, 2)
	assert.Equal(t, fsevent.EnrichXattrsKey, inner[0].Key)
	assert.Equal(t, fsevent.EnrichLustreKey, inner[1].Key)
}

func TestFlushGroupedKeepsPerIDBoundaries(t *testing.T) {
	p := NewPool(4)
	a, b, parent := id(1), id(2), id(3)
	require.NoError(t, p.Push(fsevent.NewLink(a, parent, "f", nil)))
	require.NoError(t, p.Push(fsevent.NewDelete(a)))
	require.NoError(t, p.Push(fsevent.NewDelete(b)))

	batches := p.FlushGrouped(0)
	require.Len(t, batches, 2)
	assert.True(t, batches[0].ID.Equal(a))
	require.Len(t, batches[0].Events, 1)
	assert.Equal(t, fsevent.Delete, batches[0].Events[0].Type)
	assert.True(t, batches[1].ID.Equal(b))
	require.Len(t, batches[1].Events, 1)
}
