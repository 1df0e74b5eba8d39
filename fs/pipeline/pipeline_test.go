package pipeline

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rfs "github.com/robinhood-suite/robinhood4-sub001/fs"
	"github.com/robinhood-suite/robinhood4-sub001/fs/dedup"
	"github.com/robinhood-suite/robinhood4-sub001/fs/fsevent"
)

type fakeSource struct {
	mu     sync.Mutex
	events []*fsevent.Fsevent
	saved  map[uuid.UUID]int
	acked  map[uuid.UUID]bool
}

func newFakeSource(events []*fsevent.Fsevent) *fakeSource {
	return &fakeSource{events: events, saved: map[uuid.UUID]int{}, acked: map[uuid.UUID]bool{}}
}

func (s *fakeSource) Next(ctx context.Context) (*fsevent.Fsevent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.events) == 0 {
		return nil, ErrNoData
	}
	e := s.events[0]
	s.events = s.events[1:]
	return e, nil
}

func (s *fakeSource) SaveBatch(ctx context.Context, id uuid.UUID, count int, dedupUsed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved[id] = count
	return nil
}

func (s *fakeSource) AckBatch(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.acked[id] = true
	return nil
}

type recordingSink struct {
	mu      sync.Mutex
	applied [][]*fsevent.Fsevent
}

func (s *recordingSink) Apply(ctx context.Context, events []*fsevent.Fsevent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applied = append(s.applied, events)
	return nil
}

func id(b byte) rfs.ID { return rfs.NewID([]byte{b}) }

func TestDriverAppliesAllEventsAndAcksEveryBatch(t *testing.T) {
	a, b := id(1), id(2)
	source := newFakeSource([]*fsevent.Fsevent{
		fsevent.NewDelete(a),
		fsevent.NewDelete(b),
	})
	sink := &recordingSink{}
	driver := NewDriver(source, nil, dedup.NewPool(8), []Sink{sink})

	err := driver.Run(context.Background())
	require.NoError(t, err)

	source.mu.Lock()
	defer source.mu.Unlock()
	assert.Len(t, source.saved, 2)
	assert.Len(t, source.acked, 2)
	for id, acked := range source.acked {
		assert.True(t, acked)
		assert.Contains(t, source.saved, id)
	}
}

func TestDriverDeliversSingleBatchToExactlyOneSink(t *testing.T) {
	x := id(7)
	parent := id(9)
	source := newFakeSource([]*fsevent.Fsevent{
		fsevent.NewLink(x, parent, "a", nil),
	})
	sinkA := &recordingSink{}
	sinkB := &recordingSink{}
	driver := NewDriver(source, nil, dedup.NewPool(8), []Sink{sinkA, sinkB})

	require.NoError(t, driver.Run(context.Background()))

	total := len(sinkA.applied) + len(sinkB.applied)
	assert.Equal(t, 1, total)
}
