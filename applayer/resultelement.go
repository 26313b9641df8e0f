package applayer

import (
	"github.com/packetflux/applayer/memview"
	"github.com/packetflux/applayer/mempool"
)

// ResultElement is a single emitted field: which field it is, the bytes
// that make it up, and whether those bytes are a view into the caller's
// input or an owned buffer assembled from carry-over. Elements are chained
// into a ResultList by the dispatcher.
//
// Grounded on AppLayerParserResultElmt (app-layer-parser.c): name_idx maps
// to FieldID, data_ptr/data_len map to Data, alloc maps to Owned.
type ResultElement struct {
	FieldID FieldID
	Data    memview.MemView
	Owned   bool

	// ownedBuf backs Data when Owned is true; it is released back to its
	// mempool.BufferPool when this element returns to the result pool.
	ownedBuf mempool.Buffer

	next *ResultElement
}

func (e *ResultElement) reset() {
	if e.ownedBuf != nil {
		e.ownedBuf.Release()
	}
	e.FieldID = NoField
	e.Data = memview.MemView{}
	e.Owned = false
	e.ownedBuf = nil
	e.next = nil
}

// ResultList is a singly linked list of ResultElements with O(1) append,
// mirroring AppLayerParserResult's head/tail/count.
type ResultList struct {
	head, tail *ResultElement
	count      int
}

func (l *ResultList) append(e *ResultElement) {
	e.next = nil
	if l.tail == nil {
		l.head, l.tail = e, e
	} else {
		l.tail.next = e
		l.tail = e
	}
	l.count++
}

// Len returns the number of elements currently in the list.
func (l *ResultList) Len() int { return l.count }

// Each calls fn once per element in emission order.
func (l *ResultList) Each(fn func(*ResultElement)) {
	for e := l.head; e != nil; e = e.next {
		fn(e)
	}
}

// resultPool recycles ResultElements to avoid a per-field allocation on the
// hot parse path. Shaped like the teacher's mempool.BufferPool: a
// fixed-capacity channel acting as a free list, allocating transparently
// past capacity. One pool is expected per processing goroutine, per the
// "thread affinity" note in the data model.
type resultPool struct {
	free chan *ResultElement
}

func newResultPool(capacity int) *resultPool {
	return &resultPool{free: make(chan *ResultElement, capacity)}
}

func (p *resultPool) get() *ResultElement {
	select {
	case e := <-p.free:
		return e
	default:
		return &ResultElement{}
	}
}

func (p *resultPool) put(e *ResultElement) {
	e.reset()
	select {
	case p.free <- e:
	default:
		// Pool is at capacity; let e be collected. Mirrors
		// bufferPool.release's non-blocking drop of excess chunks.
	}
}

// putAll returns every element of a ResultList to the pool and empties the
// list. Called by the dispatcher once it has finished walking a result
// list (testable property 3: every acquired element has a matching
// return before parse() returns).
func (p *resultPool) putAll(l *ResultList) {
	for e := l.head; e != nil; {
		next := e.next
		p.put(e)
		e = next
	}
	l.head, l.tail, l.count = nil, nil, 0
}
