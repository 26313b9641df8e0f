package applayer

import (
	"fmt"

	"github.com/packetflux/applayer/memview"
	"github.com/packetflux/applayer/sets"
	"github.com/pkg/errors"
)

// ParserFunc is the shape every protocol-author-supplied parser has,
// whether top-level or a subparser: given the protocol-state and the
// current direction's extraction context, consume input and append
// ResultElements to ctx.out.
//
// Grounded on the AppLayerParser function pointer type in
// AppLayerRegisterParser/AppLayerRegisterProto (app-layer-parser.c); void*
// protocol_state becomes interface{} with a type assertion at the top of
// each parser package's entry point.
type ParserFunc func(protoState interface{}, ctx *ExtractContext, input memview.MemView) (Status, error)

// StateAllocFunc and StateFreeFunc wire a protocol's state lifecycle.
type StateAllocFunc func() interface{}
type StateFreeFunc func(interface{})

type parserEntry struct {
	id           ParserID
	name         string
	protocol     ProtocolID
	localFieldID FieldID // NoField for top-level entries
	fn           ParserFunc
	parentName   string // empty for top-level entries
}

type protocolEntry struct {
	name       string
	id         ProtocolID
	topServer  ParserID // 0 if unregistered
	topClient  ParserID // 0 if unregistered
	stateAlloc StateAllocFunc
	stateFree  StateFreeFunc
	fieldMap   map[FieldID]ParserID
}

// Registry is the immutable, post-Finalize table mapping (protocol,
// direction) to top-level parsers and (protocol, field-id) to subparsers.
// Built once by a Builder at startup; read-only and safe for concurrent
// use by every worker thereafter (§5, §9 "registry as immutable value").
type Registry struct {
	protocols map[ProtocolID]*protocolEntry
	parsers   map[ParserID]*parserEntry
}

// TopParser returns the top-level parser registered for proto/direction,
// or ok=false if none was registered.
func (r *Registry) TopParser(proto ProtocolID, dir Direction) (ParserID, bool) {
	p, ok := r.protocols[proto]
	if !ok {
		return 0, false
	}
	var id ParserID
	if dir == ToServer {
		id = p.topServer
	} else {
		id = p.topClient
	}
	return id, id != 0
}

func (r *Registry) parser(id ParserID) (*parserEntry, bool) {
	e, ok := r.parsers[id]
	return e, ok
}

func (r *Registry) protocol(proto ProtocolID) (*protocolEntry, bool) {
	p, ok := r.protocols[proto]
	return p, ok
}

// StateAlloc returns the state allocator for proto, or nil if none was
// registered via RegisterStateFuncs.
func (r *Registry) StateAlloc(proto ProtocolID) StateAllocFunc {
	if p, ok := r.protocols[proto]; ok {
		return p.stateAlloc
	}
	return nil
}

// StateFree returns the state deallocator for proto, or nil.
func (r *Registry) StateFree(proto ProtocolID) StateFreeFunc {
	if p, ok := r.protocols[proto]; ok {
		return p.stateFree
	}
	return nil
}

// Builder accumulates registrations before a one-shot Finalize produces an
// immutable Registry. Mirrors AppLayerRegisterParser / AppLayerRegisterProto
// / AppLayerRegisterStateFuncs / AppLayerParsersInitPostProcess, but as a
// value built once at startup instead of package-level mutable tables
// (§9 "registry as global mutable state").
type Builder struct {
	nextID    ParserID
	protocols map[ProtocolID]*protocolEntry
	parsers   map[ParserID]*parserEntry
	byName    map[string]ParserID
	err       error
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		nextID:    1,
		protocols: make(map[ProtocolID]*protocolEntry),
		parsers:   make(map[ParserID]*parserEntry),
		byName:    make(map[string]ParserID),
	}
}

func (b *Builder) protocolEntry(proto ProtocolID, name string) *protocolEntry {
	p, ok := b.protocols[proto]
	if !ok {
		p = &protocolEntry{name: name, id: proto, fieldMap: make(map[FieldID]ParserID)}
		b.protocols[proto] = p
	}
	return p
}

// RegisterProtocol stores the top-level parser for a protocol/direction
// pair, per §4.E's register_protocol.
func (b *Builder) RegisterProtocol(name string, proto ProtocolID, dir Direction, fn ParserFunc) *Builder {
	if b.err != nil {
		return b
	}
	p := b.protocolEntry(proto, name)
	existing := p.topServer
	if dir == ToClient {
		existing = p.topClient
	}
	if existing != 0 {
		b.err = errors.Wrapf(ErrDuplicateProtocol, "%s/%s", name, dir)
		return b
	}

	id := b.nextID
	b.nextID++
	b.parsers[id] = &parserEntry{id: id, name: name, protocol: proto, localFieldID: NoField, fn: fn}
	b.byName[entryKey(proto, name)] = id

	if dir == ToServer {
		p.topServer = id
	} else {
		p.topClient = id
	}
	return b
}

// RegisterSubparser declares that whenever parentName produces a field
// with identifier localFieldID, fn should be invoked on that field's
// bytes, per §4.E's register_subparser.
func (b *Builder) RegisterSubparser(name string, proto ProtocolID, localFieldID FieldID, fn ParserFunc, parentName string) *Builder {
	if b.err != nil {
		return b
	}
	if _, ok := b.byName[entryKey(proto, parentName)]; !ok {
		b.err = errors.Wrapf(ErrUnknownParent, "%s references parent %s", name, parentName)
		return b
	}

	id := b.nextID
	b.nextID++
	b.parsers[id] = &parserEntry{
		id: id, name: name, protocol: proto, localFieldID: localFieldID,
		fn: fn, parentName: parentName,
	}
	b.byName[entryKey(proto, name)] = id
	return b
}

// RegisterStateFuncs wires a protocol's state lifecycle, per §4.E's
// register_state_funcs.
func (b *Builder) RegisterStateFuncs(proto ProtocolID, name string, alloc StateAllocFunc, free StateFreeFunc) *Builder {
	if b.err != nil {
		return b
	}
	p := b.protocolEntry(proto, name)
	p.stateAlloc = alloc
	p.stateFree = free
	return b
}

func entryKey(proto ProtocolID, name string) string {
	return fmt.Sprintf("%d/%s", proto, name)
}

// Finalize computes each protocol's field_map by walking registered
// subparsers, asserts the registration graph is acyclic, and returns the
// resulting immutable Registry. Must be called once, after all
// registrations, before any Parse call (§6, §9 recursion-depth note).
func (b *Builder) Finalize() (*Registry, error) {
	if b.err != nil {
		return nil, b.err
	}

	children := make(map[ParserID][]ParserID)
	for id, e := range b.parsers {
		if e.parentName == "" {
			continue
		}
		parentID, ok := b.byName[entryKey(e.protocol, e.parentName)]
		if !ok {
			return nil, errors.Wrapf(ErrUnknownParent, "%s references parent %s", e.name, e.parentName)
		}
		children[parentID] = append(children[parentID], id)

		p := b.protocolEntry(e.protocol, "")
		p.fieldMap[e.localFieldID] = id
	}

	if err := assertAcyclic(b.parsers, children); err != nil {
		return nil, err
	}

	return &Registry{protocols: b.protocols, parsers: b.parsers}, nil
}

// assertAcyclic runs a DFS over the parent->child registration graph,
// per §9's "implementations should assert this at finalise_registry()
// time". Uses a visiting/visited pair of sets rather than a full
// topological sort, since we only need a yes/no cycle answer.
func assertAcyclic(all map[ParserID]*parserEntry, children map[ParserID][]ParserID) error {
	visiting := sets.NewSet[ParserID]()
	visited := sets.NewSet[ParserID]()

	var visit func(id ParserID) error
	visit = func(id ParserID) error {
		if visited.Contains(id) {
			return nil
		}
		if visiting.Contains(id) {
			return errors.Wrapf(ErrCyclicRegistration, "at parser %q", all[id].name)
		}
		visiting.Insert(id)
		for _, child := range children[id] {
			if err := visit(child); err != nil {
				return err
			}
		}
		visiting.Delete(id)
		visited.Insert(id)
		return nil
	}

	for id := range all {
		if err := visit(id); err != nil {
			return err
		}
	}
	return nil
}
