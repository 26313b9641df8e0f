package applayer

import "github.com/packetflux/applayer/memview"

// StepFunc extracts one field from the unconsumed tail of a cascade's
// input, returning how many bytes it consumed so the cascade can advance
// to the next step.
type StepFunc func(ctx *ExtractContext, fieldID FieldID, input memview.MemView) (Status, int64, error)

// Step pairs a field-id with the extractor that produces it.
type Step struct {
	FieldID FieldID
	Extract StepFunc
}

// ByDelimiter adapts ExtractByDelimiter into a StepFunc for use in a Step.
func ByDelimiter(delim []byte) StepFunc {
	return func(ctx *ExtractContext, fieldID FieldID, input memview.MemView) (Status, int64, error) {
		return ExtractByDelimiter(ctx, fieldID, delim, input)
	}
}

// ByEOF adapts ExtractByEOF into a StepFunc for use in a Step. It always
// reports the whole input consumed, since ExtractByEOF either emits
// everything seen so far (EOF) or folds it all into carry (not EOF).
func ByEOF() StepFunc {
	return func(ctx *ExtractContext, fieldID FieldID, input memview.MemView) (Status, int64, error) {
		status, err := ExtractByEOF(ctx, fieldID, input)
		return status, input.Len(), err
	}
}

// RunCascade drives a fixed sequence of Steps under the cursor discipline
// described in §4.F: resume at ctx.state's field cursor, fall through to
// the next step on completion, save the cursor and return StepNeedMore
// when a step can't complete yet, and reset the cursor to 0 once every
// step has completed.
//
// Every top-level and line/cascade parser in this framework (Request,
// Response, RequestLine, ResponseLine, and their FTP analogues) is a thin
// wrapper around RunCascade with a fixed Step list, mirroring the
// for(u = pstate->parse_field; ...) switch structure every cascade
// function in app-layer-http.c repeats by hand.
func RunCascade(ctx *ExtractContext, input memview.MemView, steps []Step) (Status, error) {
	ps := ctx.state
	offset := int64(0)

	for u := ps.fieldCursor; u < len(steps); u++ {
		step := steps[u]
		remaining := input.SubView(offset, input.Len())

		status, consumed, err := step.Extract(ctx, step.FieldID, remaining)
		if err != nil {
			return status, err
		}
		if status == StepNeedMore {
			ps.fieldCursor = u
			return StepNeedMore, nil
		}
		offset += consumed
	}

	ps.fieldCursor = 0
	return StepComplete, nil
}
