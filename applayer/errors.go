package applayer

import "github.com/pkg/errors"

// Fatal error kinds, per the contract-violation and resource-exhaustion
// error classes. Transient "need more input" and protocol-level anomalies
// (unknown method, out-of-range code, delimiter never found before EOF)
// are not errors at all — they are carried in Status and in the
// protocol-state fields simply staying at their defaults.
var (
	// ErrNoTransportContext is returned when Parse is called with a nil
	// Flow. This is the only fatal contract violation Parse itself
	// reports: calling it for a protocol/direction with no registered
	// top-level parser is a no-op, not an error, since a protocol may be
	// wired for only one direction.
	ErrNoTransportContext = errors.New("applayer: parse called without a flow")

	// ErrCyclicRegistration is returned by Finalize when the subparser
	// registration graph contains a cycle.
	ErrCyclicRegistration = errors.New("applayer: subparser registration graph has a cycle")

	// ErrDuplicateProtocol is returned when RegisterProtocol is called
	// twice for the same protocol/direction pair.
	ErrDuplicateProtocol = errors.New("applayer: protocol/direction already registered")

	// ErrUnknownParent is returned when RegisterSubparser names a parent
	// parser that was never registered.
	ErrUnknownParent = errors.New("applayer: subparser registered against unknown parent")
)
