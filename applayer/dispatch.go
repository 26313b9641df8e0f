package applayer

import (
	"github.com/packetflux/applayer/mempool"
	"github.com/packetflux/applayer/memview"
	"github.com/pkg/errors"
)

// defaultResultPoolCapacity sizes a Dispatcher's ResultElement pool. A
// Dispatcher is meant to be constructed once per processing goroutine
// (§5's "one pool per processing thread"), so this is generous but not
// unbounded. Carry-over buffer sizing is the mempool package's own
// policy; see mempool.NewCarryOverPool.
const defaultResultPoolCapacity = 64

// Dispatcher is the framework's entry point (§4.F): given a registry built
// once at startup, it locates or creates per-flow parse state, invokes
// the registered top-level parser, and recursively drives subparsers
// registered against the fields that parser emits.
type Dispatcher struct {
	registry *Registry
	results  *resultPool
	bufPool  mempool.BufferPool
}

// NewDispatcher constructs a Dispatcher around a finalized Registry, with
// a result pool and carry-over buffer pool sized for one worker.
func NewDispatcher(registry *Registry) (*Dispatcher, error) {
	bufPool, err := mempool.NewCarryOverPool()
	if err != nil {
		return nil, errors.Wrap(err, "applayer: constructing carry-over buffer pool")
	}
	return &Dispatcher{
		registry: registry,
		results:  newResultPool(defaultResultPoolCapacity),
		bufPool:  bufPool,
	}, nil
}

// Parse is the host->framework entry point (§6): parse(flow_handle,
// protocol_id, direction_and_flags, input_bytes, input_len) -> status.
//
// Grounded on AppLayerParse (app-layer-parser.c).
func (d *Dispatcher) Parse(flow Flow, proto ProtocolID, dir Direction, flags Flags, input []byte) error {
	if flow == nil {
		return ErrNoTransportContext
	}

	store, _ := flow.Load(parseStateSlot).(*ParseStateStore)
	if store == nil {
		store = NewParseStateStore()
		flow.Store(parseStateSlot, store)
	}

	dirState := store.forDirection(dir)
	if !dirState.inUse() {
		topID, ok := d.registry.TopParser(proto, dir)
		if !ok {
			// No top parser registered for this protocol/direction: a
			// no-op, not a fatal condition (a protocol may be wired for
			// only one direction).
			return nil
		}
		dirState.currentParser = topID
		dirState.markInUse()
	}
	if flags.Has(EOF) {
		dirState.setEOFSeen()
	}

	slot := protocolSlot(proto)
	protoState := flow.Load(slot)
	if protoState == nil {
		if alloc := d.registry.StateAlloc(proto); alloc != nil {
			protoState = alloc()
			flow.Store(slot, protoState)
		}
	}

	_, err := d.dispatch(protoState, dirState, memview.New(input), dirState.currentParser, proto)
	return err
}

// dispatch invokes parserID's function, then walks the fields it produced
// and recurses into any subparser registered for each field-id. Inner
// parses always observe EOF_SEEN = true and start with an empty carry; the
// direction's cursor, EOF flag and carry are restored afterward (§4.F).
//
// Grounded on AppLayerDoParse (app-layer-parser.c).
func (d *Dispatcher) dispatch(protoState interface{}, dir *ParseState, input memview.MemView, parserID ParserID, proto ProtocolID) (Status, error) {
	entry, ok := d.registry.parser(parserID)
	if !ok {
		return StepComplete, errors.Errorf("applayer: no parser registered with id %d", parserID)
	}

	out := &ResultList{}
	ctx := &ExtractContext{
		state:   dir,
		bufPool: d.bufPool,
		results: d.results,
		out:     out,
		eof:     dir.eofSeen(),
	}

	status, fnErr := entry.fn(protoState, ctx, input)
	if fnErr != nil {
		d.results.putAll(out)
		return status, fnErr
	}

	protoEntry, _ := d.registry.protocol(proto)
	var recurseErr error
	for e := out.head; e != nil; e = e.next {
		if protoEntry == nil {
			break
		}
		subID, ok := protoEntry.fieldMap[e.FieldID]
		if !ok || subID == 0 {
			continue
		}

		savedCursor := dir.fieldCursor
		savedEOF := dir.eofSeen()
		savedCarry := dir.carry
		dir.carry = nil
		dir.fieldCursor = 0
		dir.setEOFSeen()

		_, err := d.dispatch(protoState, dir, e.Data, subID, proto)
		if err != nil && recurseErr == nil {
			recurseErr = err
		}

		if !savedEOF {
			dir.clearEOFSeen()
		}
		dir.releaseCarry()
		dir.carry = savedCarry
		dir.fieldCursor = savedCursor
	}

	d.results.putAll(out)
	return status, recurseErr
}
