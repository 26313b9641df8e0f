package applayer

import "github.com/packetflux/applayer/mempool"

// ParserID identifies a registered ParserEntry. 0 is never assigned to a
// real entry, matching FieldID's "0 means none" convention, so a
// ParseState's current_parser can be tested for "unset" the same way.
type ParserID uint32

// ParseState holds the per-direction resumable parse context: carry-over
// bytes not yet consumed by the field in progress, the top-level parser
// driving this direction, and which step of that parser to resume at.
//
// Grounded on AppLayerParserState (app-layer-parser.c): parser_id maps to
// current_parser, parser_local_id maps to fieldCursor, flags maps to
// stateFlags, store/len/buf are replaced by the pooled mempool.Buffer
// held in carry.
type ParseState struct {
	carry         mempool.Buffer
	currentParser ParserID
	fieldCursor   int
	flags         stateFlags
}

func (ps *ParseState) inUse() bool       { return ps.flags&flagInUse != 0 }
func (ps *ParseState) eofSeen() bool     { return ps.flags&flagEOFSeen != 0 }
func (ps *ParseState) setEOFSeen()       { ps.flags |= flagEOFSeen }
func (ps *ParseState) clearEOFSeen()     { ps.flags &^= flagEOFSeen }
func (ps *ParseState) markInUse()        { ps.flags |= flagInUse }
func (ps *ParseState) hasCarry() bool    { return ps.carry != nil && ps.carry.Len() > 0 }

// releaseCarry returns the carry buffer's storage to the pool and clears
// the reference. Safe to call when carry is nil.
func (ps *ParseState) releaseCarry() {
	if ps.carry != nil {
		ps.carry.Release()
		ps.carry = nil
	}
}

// ParseStateStore is per-flow: two independent ParseState records, one per
// direction. Allocated on demand and zero-initialised, per §4.C.
type ParseStateStore struct {
	directions [2]ParseState
}

// NewParseStateStore allocates a fresh, zero-initialised store.
func NewParseStateStore() *ParseStateStore {
	return &ParseStateStore{}
}

func (s *ParseStateStore) forDirection(dir Direction) *ParseState {
	return &s.directions[dir]
}

// Release frees both directions' carry buffers. Called by the host when a
// flow ends, mirroring the framework's parse-state deallocator in §5.
func (s *ParseStateStore) Release() {
	s.directions[ToServer].releaseCarry()
	s.directions[ToClient].releaseCarry()
}
