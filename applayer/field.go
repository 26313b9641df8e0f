package applayer

import (
	"github.com/packetflux/applayer/mempool"
	"github.com/packetflux/applayer/memview"
	"github.com/pkg/errors"
)

// ExtractContext bundles what every field extractor needs: the direction's
// resumable state, the pools it draws from, the output list it appends
// to, and whether this call should treat its input as final.
//
// Grounded on the (output, pstate) parameter pair threaded through every
// Alp* function in app-layer-parser.c.
type ExtractContext struct {
	state   *ParseState
	bufPool mempool.BufferPool
	results *resultPool
	out     *ResultList
	eof     bool
}

func (c *ExtractContext) emit(fieldID FieldID, data memview.MemView, owned bool, buf mempool.Buffer) {
	e := c.results.get()
	e.FieldID = fieldID
	e.Data = data
	e.Owned = owned
	e.ownedBuf = buf
	c.out.append(e)
}

// assembleOwned copies parts into a freshly allocated buffer and returns
// the resulting view together with the buffer backing it, so the caller
// can attach it to a ResultElement for later release.
func assembleOwned(bufPool mempool.BufferPool, parts ...memview.MemView) (memview.MemView, mempool.Buffer, error) {
	buf := bufPool.NewBuffer()
	for _, p := range parts {
		if p.Len() == 0 {
			continue
		}
		n, err := buf.Write(p.Bytes())
		if err != nil || int64(n) < p.Len() {
			buf.Release()
			return memview.MemView{}, nil, errors.Wrap(mempool.ErrEmptyPool, "applayer: assembling field from carry-over")
		}
	}
	return buf.Bytes(), buf, nil
}

// appendToCarry appends data to the direction's carry buffer, allocating
// one from bufPool on first use.
func appendToCarry(ps *ParseState, bufPool mempool.BufferPool, data memview.MemView) error {
	if data.Len() == 0 {
		return nil
	}
	if ps.carry == nil {
		ps.carry = bufPool.NewBuffer()
	}
	n, err := ps.carry.Write(data.Bytes())
	if err != nil || int64(n) < data.Len() {
		return errors.Wrap(mempool.ErrEmptyPool, "applayer: growing carry-over buffer")
	}
	return nil
}

// ExtractByDelimiter implements the by-delimiter field primitive (§4.D):
// search for delim in carry++input, emit a field when found, else stash
// input into carry and report StepNeedMore. consumed reports how many
// bytes of input the caller should advance past.
//
// The delimiter can straddle the carry/input boundary regardless of how
// the two sides' lengths compare (a one-byte carry tail and a
// thousand-byte input chunk can still hide a split "\r\n" at the seam),
// so a non-empty carry always rescans the full carry+input view rather
// than input alone.
//
// Grounded on AlpParseFieldByDelimiter (app-layer-parser.c).
func ExtractByDelimiter(ctx *ExtractContext, fieldID FieldID, delim []byte, input memview.MemView) (status Status, consumed int64, err error) {
	ps := ctx.state

	if !ps.hasCarry() {
		if k := input.Index(0, delim); k >= 0 {
			ctx.emit(fieldID, input.SubView(0, k), false, nil)
			return StepComplete, k + int64(len(delim)), nil
		}
		if !ctx.eof {
			if err := appendToCarry(ps, ctx.bufPool, input); err != nil {
				return StepComplete, 0, err
			}
		}
		// Not found and EOF set: in-progress that will never complete. The
		// dispatcher treats this as terminal at the top level by stopping
		// without emitting.
		return StepNeedMore, input.Len(), nil
	}

	// carry is non-empty: the delimiter may start in carry and finish in
	// input, so scan their concatenation. carry itself is known never to
	// contain a complete delim (it would have been emitted already), so
	// any match that begins within carry necessarily extends into input.
	carryLen := ps.carry.Bytes().Len()
	combined := ps.carry.Bytes()
	combined.Append(input)

	if k := combined.Index(0, delim); k >= 0 {
		field, buf, err := assembleOwned(ctx.bufPool, combined.SubView(0, k))
		if err != nil {
			return StepComplete, 0, err
		}
		ps.releaseCarry()
		ctx.emit(fieldID, field, true, buf)
		consumed := k + int64(len(delim)) - carryLen
		if consumed < 0 {
			consumed = 0
		}
		return StepComplete, consumed, nil
	}

	if err := appendToCarry(ps, ctx.bufPool, input); err != nil {
		return StepComplete, 0, err
	}
	if ctx.eof {
		ps.releaseCarry()
	}
	return StepNeedMore, input.Len(), nil
}

// ExtractByEOF implements the by-EOF field primitive (§4.D): the field is
// whatever bytes accumulate until the direction's EOF flag is set.
//
// Grounded on AlpParseFieldByEOF (app-layer-parser.c).
func ExtractByEOF(ctx *ExtractContext, fieldID FieldID, input memview.MemView) (Status, error) {
	ps := ctx.state

	if !ctx.eof {
		if err := appendToCarry(ps, ctx.bufPool, input); err != nil {
			return StepComplete, err
		}
		return StepNeedMore, nil
	}

	if ps.hasCarry() {
		field, buf, err := assembleOwned(ctx.bufPool, ps.carry.Bytes(), input)
		if err != nil {
			return StepComplete, err
		}
		ps.releaseCarry()
		ctx.emit(fieldID, field, true, buf)
	} else {
		ctx.emit(fieldID, input, false, nil)
	}
	return StepComplete, nil
}
