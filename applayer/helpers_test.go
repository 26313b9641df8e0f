package applayer

import "github.com/packetflux/applayer/mempool"

func init() {
	// Exercise the pool's representation-invariant checks against this
	// framework's own carry-over traffic: ExtractByDelimiter and
	// ExtractByEOF grow, drain, and release buffer chunks on every field
	// boundary, which is exactly the access pattern repOk checks.
	mempool.CheckInvariants = true
}

// newTestBufPool builds a carry-over pool using the same policy
// NewDispatcher relies on for production use.
func newTestBufPool() (mempool.BufferPool, error) {
	return mempool.NewCarryOverPool()
}
