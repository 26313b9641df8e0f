package ftp

import "github.com/packetflux/applayer/applayer"

// State is the FTP protocol-state: one per flow, mutated by the
// RequestLine and ResponseLine subparsers.
type State struct {
	Command      string
	Argument     string
	ResponseCode string
	ResponseArg  string
}

func allocState() interface{} {
	return &State{}
}

func freeState(interface{}) {}

// Register wires the FTP cascade into b: two top-level parsers (request,
// response) each extracting one CRLF-delimited line, and the line
// subparsers that classify command/argument or code/argument.
func Register(b *applayer.Builder) *applayer.Builder {
	b.RegisterProtocol("ftp.request", ProtoID, applayer.ToServer, Request).
		RegisterProtocol("ftp.response", ProtoID, applayer.ToClient, Response).
		RegisterSubparser("ftp.request_line", ProtoID, FieldRequestLine, RequestLine, "ftp.request").
		RegisterSubparser("ftp.response_line", ProtoID, FieldResponseLine, ResponseLine, "ftp.response").
		RegisterStateFuncs(ProtoID, "ftp", allocState, freeState)
	return b
}
