// Package backend defines the storage-backend capability contract:
// the operations a concrete metadata store (document store, POSIX
// walker projection, ...) may implement, the numeric id/option-id
// namespace those backends share, and the RegInfo-style registry used
// to construct one by name. Every operation except Destroy is
// optional; callers probe for a capability via a type assertion and
// report not-supported explicitly when it's absent.
package backend

import (
	"context"
	"errors"

	rfs "github.com/robinhood-suite/robinhood4-sub001/fs"
	"github.com/robinhood-suite/robinhood4-sub001/fs/filter"
	"github.com/robinhood-suite/robinhood4-sub001/fs/fsevent"
)

// ErrIteratorDone is returned by FsentryIterator.Next and
// ReportIterator.Next once every result has been produced.
var ErrIteratorDone = errors.New("backend: iterator exhausted")

// Backend is the one capability every backend instance must provide.
// Every other operation is optional and discovered through a type
// assertion against one of the *Capable interfaces below.
type Backend interface {
	// Name identifies the backend instance for logging, not the
	// backend kind (two mongo-backed mirrors have different Names).
	Name() string
	Destroy(ctx context.Context) error
}

// RootCapable backends can fetch their root fsentry.
type RootCapable interface {
	Root(ctx context.Context, projection rfs.FsentryMask) (*rfs.Fsentry, error)
}

// FsentryIterator yields fsentries matching a Filter call, one at a
// time, until it returns ErrIteratorDone.
type FsentryIterator interface {
	Next(ctx context.Context) (*rfs.Fsentry, error)
	Close() error
}

// FilterOptions carries the non-predicate parts of a Filter/Report
// call: pagination, error tolerance, and sort order.
type FilterOptions struct {
	Skip       int
	Limit      int
	SkipErrors bool
	Single     bool
	Sort       []SortKey
}

// SortKey orders Filter/Report results by one field.
type SortKey struct {
	Field      filter.Field
	Descending bool
}

// Output requests either a field projection (Filter) or an
// aggregation (Report) from a matching entry.
type Output struct {
	Projection   rfs.FsentryMask
	Accumulators []Accumulator
}

// AccumulatorKind is one of a Report call's supported aggregate
// functions.
type AccumulatorKind int

const (
	AccumulateAvg AccumulatorKind = iota
	AccumulateCount
	AccumulateMax
	AccumulateMin
	AccumulateSum
)

// Accumulator names one aggregate a Report call computes over Field.
type Accumulator struct {
	Kind  AccumulatorKind
	Field filter.Field
}

// GroupKey names one id-field a Report call groups by, with optional
// range buckets for a numeric field.
type GroupKey struct {
	Field   filter.Field
	Buckets []int64
}

// ReportRow is one group's accumulated results from a Report call.
type ReportRow struct {
	Key     []rfs.Value
	Results []rfs.Value
}

// ReportIterator yields ReportRows, one group at a time, until it
// returns ErrIteratorDone.
type ReportIterator interface {
	Next(ctx context.Context) (*ReportRow, error)
	Close() error
}

// FilterCapable backends can list fsentries matching a filter.
type FilterCapable interface {
	Filter(ctx context.Context, f *filter.Node, opts FilterOptions, output Output) (FsentryIterator, error)
}

// ReportCapable backends can compute group-by aggregations.
type ReportCapable interface {
	Report(ctx context.Context, f *filter.Node, group []GroupKey, opts FilterOptions, output Output) (ReportIterator, error)
}

// UpdateCapable backends can apply a batch of fsevents. Update applies
// events in order and stops at the first one that fails; it returns
// the number applied, which is less than len(events) only on error.
type UpdateCapable interface {
	Update(ctx context.Context, events []*fsevent.Fsevent) (int, error)
}

// InsertMetadataCapable backends can record out-of-band metadata about
// themselves, e.g. which source backends populated this mirror.
type InsertMetadataCapable interface {
	InsertMetadata(ctx context.Context, meta []rfs.Pair) error
}

// BranchCapable backends can produce a handle restricted to the
// subtree rooted at one id or path.
type BranchCapable interface {
	Branch(ctx context.Context, id rfs.ID, path string) (Backend, error)
}

// GetAttributeCapable backends expose a backend-specific attribute
// fetch beyond the generic fsentry/statx model.
type GetAttributeCapable interface {
	GetAttribute(ctx context.Context, flags uint32, arg *rfs.Value) (pairs []rfs.Pair, avail uint32, err error)
}

// InfoFlag selects one piece of summary information from GetInfo.
type InfoFlag uint32

const (
	InfoCapabilities InfoFlag = 1 << iota
	InfoAverageObjectSize
	InfoCount
	InfoFirstSync
	InfoLastSync
	InfoTotalSize
)

// Info is GetInfo's result; only the fields named by the requested
// InfoFlag bits are meaningful.
type Info struct {
	Capabilities      []string
	AverageObjectSize uint64
	Count             uint64
	FirstSync         int64
	LastSync          int64
	TotalSize         uint64
}

// GetInfoCapable backends can report summary statistics about
// themselves.
type GetInfoCapable interface {
	GetInfo(ctx context.Context, flags InfoFlag) (Info, error)
}

// OptionCapable backends expose backend-specific runtime options
// through the (backend_id<<8)|option_id namespace; see DispatchOption.
type OptionCapable interface {
	GetOption(id OptionID, buf []byte) (int, error)
	SetOption(id OptionID, buf []byte) error
}

// CommonOps is a backend's common-operations vtable for policy-driven
// actions: remove an entry, or log it, using whatever the backend
// itself considers authoritative for those operations. params carries
// the winning rule's (or the policy's default) parsed action
// parameters, keyed by name, as the original's common-operations
// dispatch threads a parsed action's parameter map alongside the
// entry it applies to.
type CommonOps interface {
	Delete(ctx context.Context, entry *rfs.Fsentry, params map[string]*rfs.Value) error
	Log(ctx context.Context, entry *rfs.Fsentry, params map[string]*rfs.Value) error
}
