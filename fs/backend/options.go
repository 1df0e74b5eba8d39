package backend

import (
	"github.com/robinhood-suite/robinhood4-sub001/fs/rbherr"
)

// DispatchOption routes a GetOption/SetOption call by its option-id's
// backend half: to genericFn when it names the shared id-0 namespace,
// to ownFn when it names own, the backend instance's own numeric id.
// Any other backend half addresses a different backend's options
// entirely and is rejected as invalid-argument; genericFn/ownFn are
// responsible for rejecting an option number they don't recognise
// within their own space as protocol-not-supported.
func DispatchOption(id OptionID, own ID, genericFn, ownFn func(OptionID) error) error {
	switch id.BackendID() {
	case Generic:
		return genericFn(id)
	case own:
		return ownFn(id)
	default:
		return rbherr.InvalidArgument(
			"option %#04x belongs to backend id %d, not %d", uint16(id), id.BackendID(), own)
	}
}

// Generic options shared by every backend (id space 0), reproduced
// from the reference implementation's enum rbh_generic_backend_option.
const (
	// OptionDeprecated is the value a backend reassigns a removed
	// option's id to, so old callers get protocol-not-supported
	// instead of a silent no-op.
	OptionDeprecated uint8 = iota
	// OptionGarbageCollect switches a backend to a mode where Filter
	// only returns entries with no remaining namespace link.
	OptionGarbageCollect
)
