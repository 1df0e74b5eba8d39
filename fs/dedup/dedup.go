// Package dedup implements the bounded fsevent folding pool: a
// fixed-capacity mapping from id to an ordered list of pending events
// for that id, plus a FIFO of ids, that collapses redundant mutations
// (a LINK immediately UNLINKed, two UPSERTs touching disjoint statx
// fields, repeated XATTR requests) before a sink ever sees them.
package dedup

import (
	"errors"

	rfs "github.com/robinhood-suite/robinhood4-sub001/fs"
	"github.com/robinhood-suite/robinhood4-sub001/fs/fsevent"
)

// ErrPoolFull is returned by Push when the pool is at capacity and e
// names an id not already tracked. It is a scheduling signal, not a
// failure: the caller is expected to flush and retry, so it is never
// wrapped in an rbherr.Error.
var ErrPoolFull = errors.New("dedup: pool is full")

// Pool is a fixed-capacity, id-keyed fold of pending fsevents.
type Pool struct {
	capacity int
	lists    map[string][]*fsevent.Fsevent
	ids      map[string]rfs.ID // id bytes -> owning ID, for Flush's output
	queue    []string          // FIFO of id byte-keys, oldest first
}

// NewPool builds an empty pool that holds at most capacity distinct
// ids at once.
func NewPool(capacity int) *Pool {
	return &Pool{
		capacity: capacity,
		lists:    make(map[string][]*fsevent.Fsevent),
		ids:      make(map[string]rfs.ID),
		queue:    make([]string, 0, capacity),
	}
}

// Len reports how many distinct ids the pool currently tracks.
func (p *Pool) Len() int { return len(p.queue) }

// Push folds e into the pool. It returns ErrPoolFull, without
// inserting anything, when the pool is at capacity and e names an id
// not already tracked.
func (p *Pool) Push(e *fsevent.Fsevent) error {
	key := e.ID.HashKey()
	if _, tracked := p.lists[key]; !tracked {
		if len(p.queue) >= p.capacity {
			return ErrPoolFull
		}
		p.lists[key] = []*fsevent.Fsevent{e.Clone()}
		p.ids[key] = e.ID
		p.queue = append(p.queue, key)
		return nil
	}
	p.merge(key, e)
	return nil
}

func (p *Pool) merge(key string, e *fsevent.Fsevent) {
	switch e.Type {
	case fsevent.Link:
		p.lists[key] = append([]*fsevent.Fsevent{e.Clone()}, p.lists[key]...)
	case fsevent.Unlink:
		p.mergeUnlink(key, e)
	case fsevent.Delete:
		p.mergeDelete(key, e)
	case fsevent.Upsert:
		p.mergeUpsert(key, e)
	case fsevent.Xattr:
		p.mergeXattr(key, e)
	}
}

// mergeUnlink cancels a matching pending LINK for the same (parent,
// name) pair, or appends the UNLINK otherwise. If cancelling a LINK
// leaves the list empty, the id is dropped from the pool entirely: no
// event for it was ever worth emitting.
func (p *Pool) mergeUnlink(key string, e *fsevent.Fsevent) {
	list := p.lists[key]
	for i, pending := range list {
		if pending.Type == fsevent.Link && pending.SameLink(e) {
			list = append(list[:i], list[i+1:]...)
			if len(list) == 0 {
				p.drop(key)
				return
			}
			p.lists[key] = list
			return
		}
	}
	p.lists[key] = append(list, e.Clone())
}

// mergeDelete drops every pending event for the id. If none of them
// was a LINK, the entry was never externally visible, so the DELETE
// itself is suppressed and the id is dropped; otherwise a single
// DELETE replaces the whole list.
func (p *Pool) mergeDelete(key string, e *fsevent.Fsevent) {
	hadLink := false
	for _, pending := range p.lists[key] {
		if pending.Type == fsevent.Link {
			hadLink = true
			break
		}
	}
	if !hadLink {
		p.drop(key)
		return
	}
	p.lists[key] = []*fsevent.Fsevent{e.Clone()}
}

// mergeUpsert merges e into a prior pending UPSERT (statx masks OR'd,
// fields overlaid with e winning, enrich markers union-merged) or
// appends e when no prior UPSERT exists.
func (p *Pool) mergeUpsert(key string, e *fsevent.Fsevent) {
	list := p.lists[key]
	for i, pending := range list {
		if pending.Type != fsevent.Upsert {
			continue
		}
		merged := pending.Clone()
		if pending.Statx != nil && e.Statx != nil {
			s := rfs.MergeStatx(*pending.Statx, *e.Statx)
			merged.Statx = &s
		} else if e.Statx != nil {
			s := *e.Statx
			merged.Statx = &s
		}
		if e.Symlink != nil {
			sym := *e.Symlink
			merged.Symlink = &sym
		}
		merged.Xattrs = mergeEnrich(pending.Xattrs, e.Xattrs)
		list[i] = merged
		return
	}
	p.lists[key] = append(list, e.Clone())
}

// mergeXattr folds e, a concrete-value-or-enrichment-request XATTR
// event, into the pending list: concrete values for the same key
// overwrite, enrichment markers union-merge into one enrich map.
func (p *Pool) mergeXattr(key string, e *fsevent.Fsevent) {
	list := p.lists[key]
	for i, pending := range list {
		if pending.Type != fsevent.Xattr {
			continue
		}
		if !sameXattrTarget(pending, e) {
			continue
		}
		merged := pending.Clone()
		merged.Xattrs = mergeEnrich(pending.Xattrs, e.Xattrs)
		list[i] = merged
		return
	}
	p.lists[key] = append(list, e.Clone())
}

func sameXattrTarget(a, b *fsevent.Fsevent) bool {
	if (a.ParentID == nil) != (b.ParentID == nil) {
		return false
	}
	if a.ParentID == nil {
		return true
	}
	return a.ParentID.Equal(*b.ParentID) && *a.Name == *b.Name
}

// drop removes key from every structure in the pool.
func (p *Pool) drop(key string) {
	delete(p.lists, key)
	delete(p.ids, key)
	for i, k := range p.queue {
		if k == key {
			p.queue = append(p.queue[:i], p.queue[i+1:]...)
			return
		}
	}
}

// Flush drains the pool, returning the concatenated per-id event
// lists in oldest-id-first order; events within one id retain their
// merged order. limit caps how many ids are drained in this call (0
// means no limit); ids left in the pool keep their place at the front
// of the next Flush's queue.
func (p *Pool) Flush(limit int) []*fsevent.Fsevent {
	n := len(p.queue)
	if limit > 0 && limit < n {
		n = limit
	}
	var out []*fsevent.Fsevent
	for i := 0; i < n; i++ {
		key := p.queue[i]
		out = append(out, p.lists[key]...)
		delete(p.lists, key)
		delete(p.ids, key)
	}
	p.queue = p.queue[n:]
	return out
}

// Batch is one id's merged event list, as handed to a pipeline driver
// that needs to route every event for one id to the same consumer.
type Batch struct {
	ID     rfs.ID
	Events []*fsevent.Fsevent
}

// FlushGrouped works like Flush but keeps each id's events in its own
// Batch rather than concatenating them, so a caller can dispatch a
// whole id's events together.
func (p *Pool) FlushGrouped(limit int) []Batch {
	n := len(p.queue)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Batch, 0, n)
	for i := 0; i < n; i++ {
		key := p.queue[i]
		out = append(out, Batch{ID: p.ids[key], Events: p.lists[key]})
		delete(p.lists, key)
		delete(p.ids, key)
	}
	p.queue = p.queue[n:]
	return out
}
