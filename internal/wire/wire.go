// Package wire owns the information-element wire shapes and the grammar
// evaluator that walks one message body.
//
// Ownership boundary:
// - shape framing (V, TV, TV-short, LV, TLV, LV-E, TLV-E)
// - mandatory / optional-by-tag grammar execution
// - element encode helpers for the same shapes
//
// Payload semantics stay with the codec tables; this package only
// extracts value spans and hands them to the registered decode function.
package wire

// ElementID identifies one information element within its message
// family. Where 3GPP assigns an IEI the constant value matches it, so
// the id doubles as the wire tag for TV/TLV encodings.
type ElementID uint16

// Shape selects one of the information-element wire encodings.
type Shape uint8

const (
	ShapeV Shape = iota + 1
	ShapeTV
	ShapeTVShort
	ShapeLV
	ShapeTLV
	ShapeLVE
	ShapeTLVE
)

func (s Shape) String() string {
	switch s {
	case ShapeV:
		return "V"
	case ShapeTV:
		return "TV"
	case ShapeTVShort:
		return "TV-short"
	case ShapeLV:
		return "LV"
	case ShapeTLV:
		return "TLV"
	case ShapeLVE:
		return "LV-E"
	case ShapeTLVE:
		return "TLV-E"
	}
	return "unknown"
}

// DecodeFunc parses the extracted value bytes of one element. A nil
// payload with nil error is valid for elements kept raw-only.
type DecodeFunc func(dc *DecodeCtx, val []byte) (any, error)

// Codec describes how one element id appears on the wire and how its
// value bytes are interpreted.
type Codec struct {
	Name      string
	Shape     Shape
	Len       int  // fixed value length for V and TV shapes
	HalfOctet bool // V element packed into a half octet
	Decode    DecodeFunc
}

// Table resolves element ids for one message family.
type Table interface {
	Lookup(id ElementID) (Codec, bool)
}

// Handoff is the injected capability for container elements carrying
// another registered protocol. Implementations are supplied by the
// host; the engine never links sibling dissectors directly.
type Handoff interface {
	TryDecode(name string, data []byte) (any, bool)
}

// DecodeCtx carries the per-call capabilities a decode function may
// need: re-entering the full message decoder for embedded messages and
// the host-supplied protocol handoff.
type DecodeCtx struct {
	Nested  func(data []byte) any
	Handoff Handoff
}

// Instruction is one step of a message grammar: either a mandatory
// element or an optional element recognized by its wire tag. Declared
// order equals required wire order. Shape, when set, overrides the
// codec's default shape for this slot: the same element may appear as
// an untagged LV in one message and a tagged TLV in another.
type Instruction struct {
	ID       ElementID
	Optional bool
	Tag      byte  // full tag byte; TV-short tags use the high nibble
	Shape    Shape // 0 means use the codec shape
}

// Grammar is the ordered instruction list defining one message body.
type Grammar []Instruction

// Mand declares a mandatory element.
func Mand(id ElementID) Instruction {
	return Instruction{ID: id}
}

// Opt declares an optional element recognized by tag.
func Opt(tag byte, id ElementID) Instruction {
	return Instruction{ID: id, Optional: true, Tag: tag}
}

// OptAs declares an optional element whose slot shape differs from the
// codec default.
func OptAs(tag byte, id ElementID, sh Shape) Instruction {
	return Instruction{ID: id, Optional: true, Tag: tag, Shape: sh}
}

// DecodedElement is one successfully framed element. Payload is nil
// when the value bytes could not be interpreted; Raw always holds the
// full element span including any tag and length octets.
type DecodedElement struct {
	ID      ElementID
	Name    string
	Shape   Shape
	Raw     []byte
	Payload any
}
