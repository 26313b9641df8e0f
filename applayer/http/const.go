// Package http implements the HTTP/1.x cascade (§4.G): the exemplar
// protocol proving the generic dispatcher in package applayer can drive a
// real line-oriented protocol end to end.
package http

import "github.com/packetflux/applayer/applayer"

// ProtoID is this protocol's registry identifier.
const ProtoID applayer.ProtocolID = 1

// Field identifiers, one per field a cascade step can emit. NoField (0) is
// reserved by the registry for "not a subparser target".
const (
	FieldRequestLine applayer.FieldID = iota + 1
	FieldRequestHeaders
	FieldRequestBody

	FieldRequestMethod
	FieldRequestURI
	FieldRequestVersion

	FieldResponseLine
	FieldResponseHeaders
	FieldResponseBody

	FieldResponseVersion
	FieldResponseCode
	FieldResponseMessage
)

var (
	crlf     = []byte{0x0D, 0x0A}
	crlfcrlf = []byte{0x0D, 0x0A, 0x0D, 0x0A}
	space    = []byte{0x20}
)

// Method enumerates the request methods this cascade classifies. Unknown
// bytes leave the protocol-state's Method at Unknown, per §4.G.
type Method int

const (
	Unknown Method = iota
	Get
	Post
	Delete
	Head
	Put
	Patch
	Connect
	Options
	Trace
)

func (m Method) String() string {
	switch m {
	case Get:
		return "GET"
	case Post:
		return "POST"
	case Delete:
		return "DELETE"
	case Head:
		return "HEAD"
	case Put:
		return "PUT"
	case Patch:
		return "PATCH"
	case Connect:
		return "CONNECT"
	case Options:
		return "OPTIONS"
	case Trace:
		return "TRACE"
	default:
		return "Unknown"
	}
}

// methodByBytes classifies a method field's bytes. Supplements the
// original two-method (GET/POST) classification with the full nine-method
// set the teacher's HTTP protocol detector accepts.
var methodByBytes = map[string]Method{
	"GET":     Get,
	"POST":    Post,
	"DELETE":  Delete,
	"HEAD":    Head,
	"PUT":     Put,
	"PATCH":   Patch,
	"CONNECT": Connect,
	"OPTIONS": Options,
	"TRACE":   Trace,
}
