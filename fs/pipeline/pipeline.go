// Package pipeline connects a source of fsevents to one or more sinks
// through a dedup pool and an optional enricher, as a single producer
// and W cooperative consumers. All events for one id always reach the
// same consumer and arrive in the order the pool flushed them; events
// for distinct ids have no ordering guarantee relative to each other.
package pipeline

import (
	"context"
	"errors"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	rfs "github.com/robinhood-suite/robinhood4-sub001/fs"
	"github.com/robinhood-suite/robinhood4-sub001/fs/dedup"
	"github.com/robinhood-suite/robinhood4-sub001/fs/fsevent"
	"github.com/robinhood-suite/robinhood4-sub001/fs/pipeline/metrics"
	"github.com/robinhood-suite/robinhood4-sub001/lib/pacer"
)

// ErrNoData signals a Source has no more events to produce.
var ErrNoData = errors.New("pipeline: source exhausted")

// Source is a pull-based producer of fsevents, with the side-channel
// operations the driver needs to keep a batch retrievable until every
// consumer has acknowledged it.
type Source interface {
	// Next returns the next fsevent, or ErrNoData once exhausted.
	Next(ctx context.Context) (*fsevent.Fsevent, error)
	// SaveBatch records that id names a batch of count events the
	// source must keep retrievable until AckBatch(id) is called.
	SaveBatch(ctx context.Context, id uuid.UUID, count int, dedupUsed bool) error
	// AckBatch releases a previously saved batch.
	AckBatch(ctx context.Context, id uuid.UUID) error
}

// Sink applies one id's batch of merged fsevents to a backend.
type Sink interface {
	Apply(ctx context.Context, events []*fsevent.Fsevent) error
}

// Enricher augments partial fsevents (concrete xattr requests or
// backend-specific enrich markers) by consulting a live backend,
// preserving the order of events it is given.
type Enricher interface {
	Enrich(ctx context.Context, events []*fsevent.Fsevent) ([]*fsevent.Fsevent, error)
}

// Driver owns one source, one optional enricher, a dedup pool and W
// sinks for the lifetime of a run.
type Driver struct {
	source   Source
	enricher Enricher
	pool     *dedup.Pool
	sinks    []Sink
	log      *logrus.Entry
	metrics  *metrics.Metrics

	flushEvery  int
	inFlightCap int64
	sem         *semaphore.Weighted
	pacerOpts   []pacer.Option

	mu       sync.Mutex
	cond     *sync.Cond
	inFlight map[string]struct{}
}

// Option configures a Driver at construction time.
type Option func(*Driver)

// WithFlushEvery sets how many ids the producer drains from the pool
// per flush call. 0 (the default) flushes everything the pool holds.
func WithFlushEvery(n int) Option {
	return func(d *Driver) { d.flushEvery = n }
}

// WithInFlightBudget bounds how many distinct ids may be in flight
// across every consumer at once. 0 (the default) means unbounded.
func WithInFlightBudget(n int64) Option {
	return func(d *Driver) { d.inFlightCap = n }
}

// WithLogger attaches a scoped logger; when none is supplied, Driver
// logs through a fresh logrus logger with its default (stderr) output.
func WithLogger(log *logrus.Entry) Option {
	return func(d *Driver) { d.log = log }
}

// WithMetrics attaches a metrics.Metrics the driver updates as it
// schedules work.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Driver) { d.metrics = m }
}

// WithPacerOptions overrides the backoff used to retry a pool-full
// push; the default is a short, tight backoff since pool-full clears
// as soon as the producer flushes.
func WithPacerOptions(opts ...pacer.Option) Option {
	return func(d *Driver) { d.pacerOpts = opts }
}

// NewDriver builds a Driver. sinks must have at least one entry; the
// dispatch function routes an id to sinks[hash(id)%len(sinks)].
func NewDriver(source Source, enricher Enricher, pool *dedup.Pool, sinks []Sink, opts ...Option) *Driver {
	d := &Driver{
		source:    source,
		enricher:  enricher,
		pool:      pool,
		sinks:     sinks,
		log:       logrus.NewEntry(logrus.New()),
		pacerOpts: []pacer.Option{pacer.MinSleep(time.Millisecond), pacer.MaxSleep(50 * time.Millisecond)},
		inFlight:  make(map[string]struct{}),
	}
	d.cond = sync.NewCond(&d.mu)
	for _, opt := range opts {
		opt(d)
	}
	if d.inFlightCap > 0 {
		d.sem = semaphore.NewWeighted(d.inFlightCap)
	}
	return d
}

// consumerIndex maps an id to a stable consumer slot so every event
// for that id always reaches the same sink.
func consumerIndex(id rfs.ID, n int) int {
	h := fnv.New32a()
	_, _ = h.Write(id.Bytes())
	return int(h.Sum32() % uint32(n))
}

// scheduledBatch is a dedup.Batch paired with the ack id the source
// expects back once every event in it has been applied.
type scheduledBatch struct {
	batch dedup.Batch
	ackID uuid.UUID
}

// Run drives the pipeline to completion: pulls from source until
// ErrNoData, folding every event through pool, dispatching flushed
// batches to sinks by stable hash, and returns once every batch has
// been applied or the first fatal error occurs.
func (d *Driver) Run(ctx context.Context) error {
	queues := make([]chan scheduledBatch, len(d.sinks))
	for i := range queues {
		queues[i] = make(chan scheduledBatch, 64)
	}

	g, ctx := errgroup.WithContext(ctx)
	for i, sink := range d.sinks {
		i, sink := i, sink
		g.Go(func() error {
			return d.consume(ctx, i, sink, queues[i])
		})
	}
	g.Go(func() error {
		defer func() {
			for _, q := range queues {
				close(q)
			}
		}()
		return d.produce(ctx, queues)
	})
	return g.Wait()
}

func (d *Driver) produce(ctx context.Context, queues []chan scheduledBatch) error {
	retryPacer := pacer.New(ctx, d.pacerOpts...)
	for {
		event, err := d.source.Next(ctx)
		if errors.Is(err, ErrNoData) {
			break
		}
		if err != nil {
			return err
		}
		if err := d.pushWithBackoff(ctx, retryPacer, queues, event); err != nil {
			return err
		}
	}
	return d.flush(ctx, queues, 0)
}

// pushWithBackoff pushes event into the pool, flushing and retrying
// when the pool reports pool-full: that signal means the pool is at
// capacity, not that anything failed.
func (d *Driver) pushWithBackoff(ctx context.Context, retryPacer *pacer.Pacer, queues []chan scheduledBatch, event *fsevent.Fsevent) error {
	return retryPacer.Call(func() (bool, error) {
		err := d.pool.Push(event)
		if err == nil {
			if d.metrics != nil {
				d.metrics.DedupPoolSize.Set(float64(d.pool.Len()))
			}
			return false, nil
		}
		if errors.Is(err, dedup.ErrPoolFull) {
			if flushErr := d.flush(ctx, queues, d.flushEvery); flushErr != nil {
				return false, flushErr
			}
			return true, err
		}
		return false, err
	})
}

// flush drains up to limit ids from the pool, tells the source each
// resulting batch must be kept retrievable, waits for each id to
// clear the in-process set and the in-flight budget, then dispatches
// it to its consumer's queue.
func (d *Driver) flush(ctx context.Context, queues []chan scheduledBatch, limit int) error {
	batches := d.pool.FlushGrouped(limit)
	if d.metrics != nil {
		d.metrics.DedupPoolSize.Set(float64(d.pool.Len()))
	}
	for _, batch := range batches {
		ackID := uuid.New()
		if err := d.source.SaveBatch(ctx, ackID, len(batch.Events), true); err != nil {
			return err
		}
		if d.sem != nil {
			if err := d.sem.Acquire(ctx, 1); err != nil {
				return err
			}
		}
		d.waitForAvailability(batch.ID)
		idx := consumerIndex(batch.ID, len(d.sinks))
		select {
		case queues[idx] <- scheduledBatch{batch: batch, ackID: ackID}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (d *Driver) waitForAvailability(id rfs.ID) {
	key := id.HashKey()
	d.mu.Lock()
	for {
		if _, busy := d.inFlight[key]; !busy {
			d.inFlight[key] = struct{}{}
			d.mu.Unlock()
			return
		}
		d.cond.Wait()
	}
}

func (d *Driver) releaseAvailability(id rfs.ID) {
	if d.sem != nil {
		d.sem.Release(1)
	}
	key := id.HashKey()
	d.mu.Lock()
	delete(d.inFlight, key)
	d.mu.Unlock()
	d.cond.Broadcast()
}

func (d *Driver) consume(ctx context.Context, index int, sink Sink, queue <-chan scheduledBatch) error {
	log := d.log.WithField("consumer", index)
	if d.metrics != nil {
		d.metrics.ConsumerQueueDepth.WithLabelValues(labelFor(index)).Set(0)
	}
	for sb := range queue {
		if d.metrics != nil {
			d.metrics.ConsumerQueueDepth.WithLabelValues(labelFor(index)).Set(float64(len(queue)))
		}
		events := sb.batch.Events
		var err error
		if d.enricher != nil {
			events, err = d.enricher.Enrich(ctx, events)
			if err != nil {
				d.releaseAvailability(sb.batch.ID)
				return err
			}
		}
		start := time.Now()
		err = sink.Apply(ctx, events)
		if d.metrics != nil {
			d.metrics.FlushDuration.Observe(time.Since(start).Seconds())
		}
		d.releaseAvailability(sb.batch.ID)
		if err != nil {
			log.WithError(err).Error("consumer: apply failed")
			return err
		}
		if err := d.source.AckBatch(ctx, sb.ackID); err != nil {
			return err
		}
		if d.metrics != nil {
			d.metrics.FseventsProcessed.WithLabelValues(labelFor(index)).Add(float64(len(events)))
		}
	}
	return nil
}

func labelFor(index int) string {
	return "consumer-" + strconv.Itoa(index)
}
