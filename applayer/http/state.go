package http

import "github.com/packetflux/applayer/applayer"

// State is the HTTP protocol-state (§3): one per flow, mutated by the
// Method and Code leaf subparsers.
type State struct {
	Method       Method
	ResponseCode uint16
}

func allocState() interface{} {
	return &State{}
}

func freeState(interface{}) {}

// Register wires the full HTTP cascade into b: two top-level parsers
// (request, response), their line subparsers, and the leaf subparsers
// that mutate State. Returns b for chaining, mirroring RegisterHTTPParsers
// (app-layer-http.c).
func Register(b *applayer.Builder) *applayer.Builder {
	b.RegisterProtocol("http.request", ProtoID, applayer.ToServer, Request).
		RegisterProtocol("http.response", ProtoID, applayer.ToClient, Response).
		RegisterSubparser("http.request_line", ProtoID, FieldRequestLine, RequestLine, "http.request").
		RegisterSubparser("http.response_line", ProtoID, FieldResponseLine, ResponseLine, "http.response").
		RegisterSubparser("http.request_method", ProtoID, FieldRequestMethod, ParseMethod, "http.request_line").
		RegisterSubparser("http.response_code", ProtoID, FieldResponseCode, ParseCode, "http.response_line").
		RegisterStateFuncs(ProtoID, "http", allocState, freeState)
	return b
}
