// Package ftp implements a second, independently registered protocol
// cascade proving the framework's registry genuinely supports more than
// one line-oriented protocol plugged in side by side with HTTP.
package ftp

import "github.com/packetflux/applayer/applayer"

// ProtoID is this protocol's registry identifier.
const ProtoID applayer.ProtocolID = 2

const (
	FieldRequestLine applayer.FieldID = iota + 1
	FieldResponseLine
)

var (
	crlf  = []byte{0x0D, 0x0A}
	space = []byte{0x20}
)
