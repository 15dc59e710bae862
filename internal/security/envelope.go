// Package security owns the NAS security envelope: the security header
// type / protocol discriminator split, the MAC and sequence number
// fields, and AES-128-CTR deciphering keyed by sequence number and
// link direction.
package security

import "github.com/epsnet/naseps/internal/cursor"

// HeaderType is the 4-bit security header code from bits 5-8 of the
// first octet (TS 24.301 9.3.1).
type HeaderType uint8

const (
	HeaderPlain                       HeaderType = 0
	HeaderIntegrity                   HeaderType = 1
	HeaderIntegrityCiphered           HeaderType = 2
	HeaderIntegrityNewContext         HeaderType = 3
	HeaderIntegrityCipheredNewContext HeaderType = 4
	HeaderIntegrityPartialCipher      HeaderType = 5
	HeaderServiceRequest              HeaderType = 12
)

func (t HeaderType) String() string {
	switch t {
	case HeaderPlain:
		return "plain"
	case HeaderIntegrity:
		return "integrity protected"
	case HeaderIntegrityCiphered:
		return "integrity protected and ciphered"
	case HeaderIntegrityNewContext:
		return "integrity protected with new EPS security context"
	case HeaderIntegrityCipheredNewContext:
		return "integrity protected and ciphered with new EPS security context"
	case HeaderIntegrityPartialCipher:
		return "integrity protected and partially ciphered"
	}
	if t.ServiceRequest() {
		return "security header for service request"
	}
	return "reserved"
}

// Ciphered reports whether the header type signals a ciphered body.
func (t HeaderType) Ciphered() bool {
	switch t {
	case HeaderIntegrityCiphered, HeaderIntegrityCipheredNewContext, HeaderIntegrityPartialCipher:
		return true
	}
	return false
}

// ServiceRequest reports whether the header type selects the compact
// service request format (codes 12-15).
func (t HeaderType) ServiceRequest() bool {
	return t >= 12
}

// SplitHeaderByte separates the first octet of a NAS message into
// security header type (high nibble) and protocol discriminator
// (low nibble).
func SplitHeaderByte(b byte) (HeaderType, uint8) {
	return HeaderType(b >> 4), b & 0x0f
}

// Envelope is the parsed security wrapping of one protected message.
type Envelope struct {
	HeaderType    HeaderType
	Discriminator uint8
	MAC           [4]byte
	Seq           byte
}

// ZeroMAC reports whether the message authentication code is all
// zeroes. One decode path uses this as a named heuristic that the body
// is probably not ciphered; it is deliberately not applied to every
// header type.
func (e *Envelope) ZeroMAC() bool {
	return e.MAC == [4]byte{}
}

// ParseEnvelope reads the MAC and sequence number that follow the
// header byte of a protected message.
func ParseEnvelope(cur *cursor.Cursor, ht HeaderType, pd uint8) (*Envelope, error) {
	env := &Envelope{HeaderType: ht, Discriminator: pd}
	mac, err := cur.ReadBytes(4)
	if err != nil {
		return nil, err
	}
	copy(env.MAC[:], mac)
	env.Seq, err = cur.ReadByte()
	if err != nil {
		return nil, err
	}
	return env, nil
}
