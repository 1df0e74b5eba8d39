package backend

// ID numbers every backend kind this distribution knows about. The
// option-id namespace partitions as `(id<<8)|option_id`; id 0 is
// reserved for generic options shared by every backend. Values and
// ordering are taken verbatim from the reference C implementation's
// `enum rbh_backend_id`.
type ID uint16

const (
	Generic ID = iota
	Posix
	PosixMPI
	Mongo
	Lustre
	LustreMPI
	Hestia
	MPIFile
	Retention
	MFU

	// ReservedMax is the highest id reserved for the upstream
	// distribution; 128-255 are free for third parties.
	ReservedMax ID = 127
)

var wellKnownNames = map[string]ID{
	"generic":    Generic,
	"posix":      Posix,
	"posix_mpi":  PosixMPI,
	"mongo":      Mongo,
	"lustre":     Lustre,
	"lustre_mpi": LustreMPI,
	"hestia":     Hestia,
	"mpi_file":   MPIFile,
	"retention":  Retention,
	"mfu":        MFU,
}

// IDForName returns the well-known numeric backend id for a URI
// backend name (e.g. "lustre" -> Lustre), or false if name is not one
// of the upstream distribution's reserved names -- third-party
// backends assign their own id out of the 128-255 range and are not
// known statically.
func IDForName(name string) (ID, bool) {
	id, ok := wellKnownNames[name]
	return id, ok
}

// OptionID is the full (backend_id<<8)|option_id encoding used to
// route Backend.GetOption/SetOption calls.
type OptionID uint16

// EncodeOptionID builds the combined id routed to
// Backend.GetOption/SetOption.
func EncodeOptionID(backend ID, option uint8) OptionID {
	return OptionID(uint16(backend)<<8 | uint16(option))
}

// BackendID extracts the backend-id half of an OptionID.
func (o OptionID) BackendID() ID { return ID(uint16(o) >> 8) }

// Option extracts the option-id half of an OptionID.
func (o OptionID) Option() uint8 { return uint8(uint16(o)) }

// ErrnoBackendError is the thread-local errno-equivalent sentinel
// value for an opaque backend failure, reproduced from the reference
// implementation's RBH_BACKEND_ERROR.
const ErrnoBackendError = 1024
