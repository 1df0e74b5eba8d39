package enrich

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rfs "github.com/robinhood-suite/robinhood4-sub001/fs"
	"github.com/robinhood-suite/robinhood4-sub001/fs/fsevent"
	"github.com/robinhood-suite/robinhood4-sub001/fs/rbherr"
)

type fakeBackend struct {
	pairs []rfs.Pair
	avail uint32
	err   error
}

func (b *fakeBackend) GetAttribute(ctx context.Context, flags uint32, arg *rfs.Value) ([]rfs.Pair, uint32, error) {
	return b.pairs, b.avail, b.err
}

func xattrRequestEvent(id rfs.ID, names ...string) *fsevent.Fsevent {
	seq := make([]rfs.Value, len(names))
	for i, n := range names {
		seq[i] = *rfs.NewString(n)
	}
	marker := rfs.Pair{
		Key: fsevent.EnrichNamespaceKey,
		Value: rfs.NewMap([]rfs.Pair{
			{Key: fsevent.EnrichXattrsKey, Value: rfs.NewSequence(seq)},
		}),
	}
	return fsevent.NewXattrInode(id, []rfs.Pair{marker})
}

func TestEnrichResolvesRequestedXattr(t *testing.T) {
	id := rfs.NewID([]byte{1})
	be := &fakeBackend{
		pairs: []rfs.Pair{{Key: "user.tag", Value: rfs.NewString("value")}},
		avail: uint32(FlagXattrs),
	}
	e := New(be)

	out, err := e.Enrich(context.Background(), []*fsevent.Fsevent{xattrRequestEvent(id, "user.tag")})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Len(t, out[0].Xattrs, 1)
	assert.Equal(t, "user.tag", out[0].Xattrs[0].Key)
	assert.Equal(t, "value", out[0].Xattrs[0].Value.String)
}

func TestEnrichPassesThroughEventsWithNoMarkers(t *testing.T) {
	id := rfs.NewID([]byte{1})
	e := New(&fakeBackend{})
	ev := fsevent.NewDelete(id)

	out, err := e.Enrich(context.Background(), []*fsevent.Fsevent{ev})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, ev, out[0])
}

func TestEnrichDropsSilentlyWhenBackendReportsNoEntry(t *testing.T) {
	id := rfs.NewID([]byte{1})
	be := &fakeBackend{err: rbherr.NoEntry("entry vanished")}
	e := New(be)

	out, err := e.Enrich(context.Background(), []*fsevent.Fsevent{xattrRequestEvent(id, "user.tag")})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestEnrichAbortsWhenConfigured(t *testing.T) {
	id := rfs.NewID([]byte{1})
	be := &fakeBackend{err: rbherr.NoEntry("entry vanished")}
	e := New(be, WithAbortOnDroppedEnrichment(true))

	_, err := e.Enrich(context.Background(), []*fsevent.Fsevent{xattrRequestEvent(id, "user.tag")})
	require.Error(t, err)
}

func TestEnrichDropsWhenBackendCannotSatisfyEverythingRequested(t *testing.T) {
	id := rfs.NewID([]byte{1})
	be := &fakeBackend{pairs: nil, avail: 0}
	e := New(be)

	out, err := e.Enrich(context.Background(), []*fsevent.Fsevent{xattrRequestEvent(id, "user.tag")})
	require.NoError(t, err)
	assert.Empty(t, out)
}
