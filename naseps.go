package naseps

import (
	"github.com/epsnet/naseps/internal/cursor"
	"github.com/epsnet/naseps/internal/nas"
	"github.com/epsnet/naseps/internal/security"
	"github.com/epsnet/naseps/internal/wire"
)

// Result and element types, re-exported from the engine.
type (
	Message        = nas.DecodedMessage
	Element        = wire.DecodedElement
	ElementID      = wire.ElementID
	Shape          = wire.Shape
	LeadingField   = nas.LeadingField
	ServiceRequest = nas.ServiceRequest
	Direction      = security.Direction
	HeaderType     = security.HeaderType
	Sink           = nas.Sink
)

// Handoff is the host-injected capability for container elements that
// carry another registered protocol.
type Handoff = wire.Handoff

const (
	DirectionUplink   = security.DirectionUplink
	DirectionDownlink = security.DirectionDownlink
)

// Error markers surfaced on Message.Err and Message.Notices.
var (
	ErrOutOfBounds                  = cursor.ErrOutOfBounds
	ErrUnknownProtocolDiscriminator = nas.ErrUnknownProtocolDiscriminator
	ErrUnknownMessageType           = nas.ErrUnknownMessageType
	ErrDecipherUnavailable          = security.ErrDecipherUnavailable
	ErrDecipherFailed               = security.ErrDecipherFailed
)

// Decode decodes one NAS-EPS message. The returned message is never
// nil; malformed or truncated input yields a partial message with Err
// set. The error return mirrors the message-level marker for callers
// that only care whether the decode was clean.
func Decode(data []byte, cfg Config) (*Message, error) {
	m := nas.Decode(data, cfg.engine())
	return m, m.Err
}

// Encipher applies the NAS AES-128-CTR keystream for the given
// sequence number and direction. CTR mode is symmetric, so the same
// call built protected test vectors and recovers them.
func Encipher(key []byte, dir Direction, seq byte, plaintext []byte) ([]byte, error) {
	return security.Encipher(key, dir, seq, plaintext)
}
