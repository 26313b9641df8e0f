package ftp

import (
	"github.com/packetflux/applayer/applayer"
	"github.com/packetflux/applayer/memview"
)

// Request is the to-server top-level parser: one line, delimited by
// CRLF, per dispatch call.
func Request(protoState interface{}, ctx *applayer.ExtractContext, input memview.MemView) (applayer.Status, error) {
	return applayer.RunCascade(ctx, input, []applayer.Step{
		{FieldID: FieldRequestLine, Extract: applayer.ByDelimiter(crlf)},
	})
}

// Response is the to-client top-level parser, analogous to Request.
func Response(protoState interface{}, ctx *applayer.ExtractContext, input memview.MemView) (applayer.Status, error) {
	return applayer.RunCascade(ctx, input, []applayer.Step{
		{FieldID: FieldResponseLine, Extract: applayer.ByDelimiter(crlf)},
	})
}

// RequestLine is the subparser attached to FieldRequestLine. It always
// receives a complete line (inner parses are forced EOF), and classifies
// it by locating the first space: a command with no argument (QUIT) has
// none, so the whole line becomes the command.
//
// Grounded on ctp/parser.go's ctpRequestParser.Parse / ftp/parser.go's
// ftpRequestParser.Parse.
func RequestLine(protoState interface{}, ctx *applayer.ExtractContext, input memview.MemView) (applayer.Status, error) {
	hstate, ok := protoState.(*State)
	if !ok {
		return applayer.StepComplete, nil
	}

	if k := input.Index(0, space); k >= 0 {
		hstate.Command = input.SubView(0, k).String()
		hstate.Argument = input.SubView(k+1, input.Len()).String()
	} else {
		hstate.Command = input.String()
		hstate.Argument = ""
	}
	return applayer.StepComplete, nil
}

// ResponseLine is the subparser attached to FieldResponseLine, analogous
// to RequestLine but classifying code/argument.
//
// Grounded on ctp/parser.go's ctpResponseParser.Parse / ftp/parser.go's
// ftpResponseParser.Parse. Multi-line responses separated by '-' instead
// of ' ' are a protocol anomaly this exemplar does not special-case: the
// whole line is classified as an empty code with itself as the argument.
func ResponseLine(protoState interface{}, ctx *applayer.ExtractContext, input memview.MemView) (applayer.Status, error) {
	hstate, ok := protoState.(*State)
	if !ok {
		return applayer.StepComplete, nil
	}

	k := input.Index(0, space)
	if d := input.Index(0, []byte{'-'}); d >= 0 && (k < 0 || d < k) {
		// '-' comes before any space: a multi-line response separator.
		k = -1
	}
	if k >= 0 {
		hstate.ResponseCode = input.SubView(0, k).String()
		hstate.ResponseArg = input.SubView(k+1, input.Len()).String()
	} else {
		hstate.ResponseCode = ""
		hstate.ResponseArg = input.String()
	}
	return applayer.StepComplete, nil
}
