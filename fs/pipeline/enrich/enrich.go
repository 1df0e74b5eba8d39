// Package enrich implements the C9 enricher: it wraps a batch of
// fsevents and, for each one carrying a concrete xattr fetch request
// or a backend-specific enrich marker, replaces the marker with the
// live value fetched through a backend's GetAttribute capability.
package enrich

import (
	"context"

	"github.com/sirupsen/logrus"

	rfs "github.com/robinhood-suite/robinhood4-sub001/fs"
	"github.com/robinhood-suite/robinhood4-sub001/fs/backend"
	"github.com/robinhood-suite/robinhood4-sub001/fs/fsevent"
	"github.com/robinhood-suite/robinhood4-sub001/fs/rbherr"
)

// Flag selects one enrichment the requester wants the backend to
// resolve for an id, matching the well-known keys under
// fsevent.EnrichNamespaceKey.
type Flag uint32

const (
	FlagXattrs Flag = 1 << iota
	FlagLustre
	FlagSymlink
)

// Enricher fetches live attribute values for partially-specified
// events via a backend's GetAttribute capability.
type Enricher struct {
	backend                 backend.GetAttributeCapable
	abortOnDroppedEnrichment bool
	log                      *logrus.Entry
}

// Option configures an Enricher at construction time.
type Option func(*Enricher)

// WithAbortOnDroppedEnrichment makes Enrich return an error instead of
// silently dropping an event whose requested enrichment the backend
// could not fully satisfy. Default false, matching the reference
// implementation's behaviour of dropping silently.
func WithAbortOnDroppedEnrichment(v bool) Option {
	return func(e *Enricher) { e.abortOnDroppedEnrichment = v }
}

// WithLogger attaches a scoped logger used to report a dropped event
// when abort-on-drop is disabled.
func WithLogger(log *logrus.Entry) Option {
	return func(e *Enricher) { e.log = log }
}

// New builds an Enricher backed by be.
func New(be backend.GetAttributeCapable, opts ...Option) *Enricher {
	e := &Enricher{backend: be, log: logrus.NewEntry(logrus.New())}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enrich resolves every event's enrich markers in order, preserving
// batch order. An event whose markers the backend could not fully
// satisfy is dropped from the output, unless abort-on-drop is set, in
// which case Enrich returns an error instead.
func (e *Enricher) Enrich(ctx context.Context, events []*fsevent.Fsevent) ([]*fsevent.Fsevent, error) {
	out := make([]*fsevent.Fsevent, 0, len(events))
	for _, ev := range events {
		resolved, dropped, err := e.enrichOne(ctx, ev)
		if err != nil {
			return nil, err
		}
		if dropped {
			if e.abortOnDroppedEnrichment {
				return nil, rbherr.New(rbherr.KindNoData,
					"enrichment could not be satisfied for id %x", ev.ID.Bytes())
			}
			e.log.WithField("id", ev.ID.HashKey()).Warn("enrich: dropping event, enrichment unsatisfied")
			continue
		}
		out = append(out, resolved)
	}
	return out, nil
}

func (e *Enricher) enrichOne(ctx context.Context, ev *fsevent.Fsevent) (*fsevent.Fsevent, bool, error) {
	requested, names, rest := extractRequest(ev.Xattrs)
	if requested == 0 {
		return ev, false, nil
	}

	pairs, avail, err := e.backend.GetAttribute(ctx, uint32(requested), rfs.NewBinary(ev.ID.Bytes()))
	if err != nil {
		if rbherr.Is(err, rbherr.KindNoData) || rbherr.Is(err, rbherr.KindNoEntry) {
			return nil, true, nil
		}
		return nil, false, err
	}
	if Flag(avail)&requested != requested {
		return nil, true, nil
	}

	resolved := ev.Clone()
	resolved.Xattrs = append(rest, filterByNames(pairs, names)...)
	if requested&FlagSymlink != 0 {
		if sym, ok := symlinkValue(pairs); ok {
			resolved.Symlink = &sym
		}
	}
	return resolved, false, nil
}

// extractRequest scans xattrs for the well-known enrich markers and
// returns which kinds were requested, which xattr names (if any), and
// the remaining concrete pairs untouched.
func extractRequest(xattrs []rfs.Pair) (requested Flag, names []string, rest []rfs.Pair) {
	for _, pair := range xattrs {
		if pair.Key != fsevent.EnrichNamespaceKey || pair.Value == nil || pair.Value.Type != rfs.ValueTypeMap {
			rest = append(rest, pair)
			continue
		}
		for _, inner := range pair.Value.Map {
			switch inner.Key {
			case fsevent.EnrichXattrsKey:
				requested |= FlagXattrs
				if inner.Value == nil {
					continue
				}
				for _, n := range inner.Value.Seq {
					if n.Type == rfs.ValueTypeString {
						names = append(names, n.String)
					}
				}
			case fsevent.EnrichLustreKey:
				requested |= FlagLustre
			case fsevent.EnrichSymlinkKey:
				requested |= FlagSymlink
			}
		}
	}
	return requested, names, rest
}

func filterByNames(pairs []rfs.Pair, names []string) []rfs.Pair {
	if len(names) == 0 {
		return pairs
	}
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}
	out := make([]rfs.Pair, 0, len(pairs))
	for _, p := range pairs {
		if wanted[p.Key] {
			out = append(out, p)
		}
	}
	return out
}

const symlinkPairKey = "symlink"

func symlinkValue(pairs []rfs.Pair) (string, bool) {
	for _, p := range pairs {
		if p.Key == symlinkPairKey && p.Value.Type == rfs.ValueTypeString {
			return p.Value.String, true
		}
	}
	return "", false
}
