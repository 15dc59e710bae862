package nas

import (
	"errors"

	"github.com/epsnet/naseps/internal/security"
	"github.com/epsnet/naseps/internal/wire"
)

var (
	ErrUnknownProtocolDiscriminator = errors.New("nas: unknown protocol discriminator")
	ErrUnknownMessageType           = errors.New("nas: unknown message type")
)

// LeadingField is one fixed field decoded ahead of the IE sequence.
type LeadingField struct {
	Name  string
	Value uint8
}

// ServiceRequest is the compact service-request body: it never enters
// the generic message decoder.
type ServiceRequest struct {
	KSI      uint8
	Sequence uint8
	ShortMAC uint16
}

// DecodedMessage is the outcome of one decode call. Malformed or
// truncated input yields a partial message with Err set, never a
// failure to return a message at all.
type DecodedMessage struct {
	Discriminator  uint8
	SecurityHeader security.HeaderType
	Envelope       *security.Envelope // MAC and sequence number, protected messages only
	BearerID       uint8              // ESM: EPS bearer identity
	PTI            uint8              // ESM: procedure transaction identity
	MessageType    uint8
	MessageName    string
	Leading        []LeadingField
	Elements       []wire.DecodedElement
	ServiceRequest *ServiceRequest

	// Trailing holds extraneous bytes past the last grammar element;
	// informational, never an error.
	Trailing []byte

	// Opaque holds the body of a recognized message type that has no
	// registered grammar.
	Opaque []byte

	// Ciphered holds a body left opaque because deciphering was
	// unavailable or failed.
	Ciphered []byte

	// Deciphered marks a body recovered through the decipher engine;
	// HeuristicPlain marks a ciphered-flagged body that decoded in the
	// clear under the zero-MAC heuristic.
	Deciphered     bool
	HeuristicPlain bool

	Notices []error
	Err     error
}

// Element returns the first decoded element with the given id.
func (m *DecodedMessage) Element(id wire.ElementID) (wire.DecodedElement, bool) {
	for _, e := range m.Elements {
		if e.ID == id {
			return e, true
		}
	}
	return wire.DecodedElement{}, false
}
