package http

import (
	"strconv"

	"github.com/packetflux/applayer/applayer"
	"github.com/packetflux/applayer/memview"
)

// Request is the to-server top-level parser: REQUEST_LINE by CRLF, then
// REQUEST_HEADERS by CRLFCRLF, then REQUEST_BODY by EOF.
//
// Grounded on HTTPParseRequest (app-layer-http.c); the for/switch over a
// resumable cursor is the source's own structure, kept verbatim in shape.
func Request(protoState interface{}, ctx *applayer.ExtractContext, input memview.MemView) (applayer.Status, error) {
	return applayer.RunCascade(ctx, input, []applayer.Step{
		{FieldID: FieldRequestLine, Extract: applayer.ByDelimiter(crlf)},
		{FieldID: FieldRequestHeaders, Extract: applayer.ByDelimiter(crlfcrlf)},
		{FieldID: FieldRequestBody, Extract: applayer.ByEOF()},
	})
}

// Response is the to-client top-level parser: RESPONSE_LINE, then
// RESPONSE_HEADERS, then RESPONSE_BODY, all analogous to Request.
func Response(protoState interface{}, ctx *applayer.ExtractContext, input memview.MemView) (applayer.Status, error) {
	return applayer.RunCascade(ctx, input, []applayer.Step{
		{FieldID: FieldResponseLine, Extract: applayer.ByDelimiter(crlf)},
		{FieldID: FieldResponseHeaders, Extract: applayer.ByDelimiter(crlfcrlf)},
		{FieldID: FieldResponseBody, Extract: applayer.ByEOF()},
	})
}

// RequestLine is the subparser attached to FieldRequestLine: METHOD by
// space, URI by space, VERSION by EOF.
//
// Grounded on HTTPParseRequestLine (app-layer-http.c).
func RequestLine(protoState interface{}, ctx *applayer.ExtractContext, input memview.MemView) (applayer.Status, error) {
	return applayer.RunCascade(ctx, input, []applayer.Step{
		{FieldID: FieldRequestMethod, Extract: applayer.ByDelimiter(space)},
		{FieldID: FieldRequestURI, Extract: applayer.ByDelimiter(space)},
		{FieldID: FieldRequestVersion, Extract: applayer.ByEOF()},
	})
}

// ResponseLine is the subparser attached to FieldResponseLine: VERSION by
// space, CODE by space, MESSAGE by EOF.
//
// Grounded on HTTPParseResponseLine (app-layer-http.c).
func ResponseLine(protoState interface{}, ctx *applayer.ExtractContext, input memview.MemView) (applayer.Status, error) {
	return applayer.RunCascade(ctx, input, []applayer.Step{
		{FieldID: FieldResponseVersion, Extract: applayer.ByDelimiter(space)},
		{FieldID: FieldResponseCode, Extract: applayer.ByDelimiter(space)},
		{FieldID: FieldResponseMessage, Extract: applayer.ByEOF()},
	})
}

// ParseMethod classifies a METHOD field's bytes into the Method enum.
// Unknown bytes leave the state's Method at Unknown.
//
// Grounded on HTTPParseRequestMethod (app-layer-http.c), extended from its
// GET/POST-only classification to the full set in const.go.
func ParseMethod(protoState interface{}, ctx *applayer.ExtractContext, input memview.MemView) (applayer.Status, error) {
	hstate, ok := protoState.(*State)
	if ok {
		if m, found := methodByBytes[input.String()]; found {
			hstate.Method = m
		}
	}
	return applayer.StepComplete, nil
}

// ParseCode ASCII-decimal parses a CODE field into the response-code
// field. Values >= 1000 are ignored, and so, per the source, is any field
// longer than three bytes - both paths leave the field untouched. This is
// an explicit Open Question in the distillation (preserved, not resolved
// - see DESIGN.md).
//
// Grounded on HTTPParseResponseCode (app-layer-http.c).
func ParseCode(protoState interface{}, ctx *applayer.ExtractContext, input memview.MemView) (applayer.Status, error) {
	if input.Len() > 3 {
		return applayer.StepComplete, nil
	}

	hstate, ok := protoState.(*State)
	if !ok {
		return applayer.StepComplete, nil
	}

	ul, err := strconv.ParseUint(input.String(), 10, 32)
	if err != nil {
		return applayer.StepComplete, nil
	}
	if ul >= 1000 {
		return applayer.StepComplete, nil
	}

	hstate.ResponseCode = uint16(ul)
	return applayer.StepComplete, nil
}
