package wire

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/epsnet/naseps/internal/cursor"
)

// testTable is a minimal Table for the evaluator tests, with one
// element per shape plus a half-octet pair.
type testTable map[ElementID]Codec

func (t testTable) Lookup(id ElementID) (Codec, bool) {
	c, ok := t[id]
	return c, ok
}

const (
	idFixed  ElementID = 0x01
	idTagged ElementID = 0x42
	idShort  ElementID = 0xd0
	idVar    ElementID = 0x02
	idTLV    ElementID = 0x23
	idBig    ElementID = 0x78
	idNibA   ElementID = 0x101
	idNibB   ElementID = 0x102
	idFussy  ElementID = 0x103
)

func table() testTable {
	return testTable{
		idFixed:  {Name: "Fixed", Shape: ShapeV, Len: 2},
		idTagged: {Name: "Tagged", Shape: ShapeTV, Len: 1},
		idShort:  {Name: "Short", Shape: ShapeTVShort},
		idVar:    {Name: "Var", Shape: ShapeLV},
		idTLV:    {Name: "Wrapped", Shape: ShapeTLV},
		idBig:    {Name: "Big", Shape: ShapeTLVE},
		idNibA:   {Name: "NibA", Shape: ShapeV, HalfOctet: true},
		idNibB:   {Name: "NibB", Shape: ShapeV, HalfOctet: true},
		idFussy: {Name: "Fussy", Shape: ShapeLV, Decode: func(dc *DecodeCtx, val []byte) (any, error) {
			if len(val) < 2 {
				return nil, fmt.Errorf("need 2 octets, have %d", len(val))
			}
			return val[0], nil
		}},
	}
}

func eval(t *testing.T, g Grammar, body []byte) Result {
	t.Helper()
	return Evaluate(cursor.New(body), g, table(), &DecodeCtx{})
}

func TestMandatoryWalk(t *testing.T) {
	g := Grammar{Mand(idFixed), Mand(idVar)}
	body := []byte{0xaa, 0xbb, 0x02, 0x11, 0x22}
	res := eval(t, g, body)
	if res.Err != nil {
		t.Fatalf("walk failed: %v", res.Err)
	}
	if len(res.Elements) != 2 {
		t.Fatalf("got %d elements, want 2", len(res.Elements))
	}
	if !bytes.Equal(res.Elements[0].Payload.([]byte), []byte{0xaa, 0xbb}) {
		t.Fatalf("fixed payload %v", res.Elements[0].Payload)
	}
	if !bytes.Equal(res.Elements[1].Raw, []byte{0x02, 0x11, 0x22}) {
		t.Fatalf("raw span must include the length octet: %v", res.Elements[1].Raw)
	}
	if !bytes.Equal(res.Elements[1].Payload.([]byte), []byte{0x11, 0x22}) {
		t.Fatalf("var payload %v", res.Elements[1].Payload)
	}
}

func TestMissingMandatory(t *testing.T) {
	g := Grammar{Mand(idFixed), Mand(idVar)}
	res := eval(t, g, []byte{0xaa, 0xbb})
	var mm *MissingMandatoryError
	if !errors.As(res.Err, &mm) {
		t.Fatalf("expected MissingMandatoryError, got %v", res.Err)
	}
	if mm.ID != idVar {
		t.Fatalf("missing id 0x%02x, want 0x%02x", uint16(mm.ID), uint16(idVar))
	}
	// The element decoded before the failure survives.
	if len(res.Elements) != 1 || res.Elements[0].ID != idFixed {
		t.Fatalf("prior elements lost: %+v", res.Elements)
	}
}

func TestMandatoryOverrunIsOutOfBounds(t *testing.T) {
	// Length octet present but claims more bytes than remain. This is
	// a truncation inside the element, not a missing element.
	g := Grammar{Mand(idVar)}
	res := eval(t, g, []byte{0x05, 0x11})
	if !errors.Is(res.Err, cursor.ErrOutOfBounds) {
		t.Fatalf("expected ErrOutOfBounds, got %v", res.Err)
	}
	var mm *MissingMandatoryError
	if errors.As(res.Err, &mm) {
		t.Fatalf("overrun misreported as missing element")
	}
}

func TestOptionalPresentAndAbsent(t *testing.T) {
	g := Grammar{Mand(idFixed), Opt(0x42, idTagged), Opt(0x23, idTLV)}

	// Only the TLV optional present; the TV tag does not match.
	body := []byte{0xaa, 0xbb, 0x23, 0x01, 0x99}
	res := eval(t, g, body)
	if res.Err != nil {
		t.Fatalf("walk failed: %v", res.Err)
	}
	if len(res.Elements) != 2 {
		t.Fatalf("got %d elements, want 2", len(res.Elements))
	}
	if res.Elements[1].ID != idTLV {
		t.Fatalf("wrong optional matched: %+v", res.Elements[1])
	}
}

func TestOptionalsStopAtEndOfBody(t *testing.T) {
	g := Grammar{Mand(idFixed), Opt(0x42, idTagged)}
	res := eval(t, g, []byte{0xaa, 0xbb})
	if res.Err != nil {
		t.Fatalf("absent optionals must not fail the walk: %v", res.Err)
	}
	if len(res.Elements) != 1 {
		t.Fatalf("got %d elements, want 1", len(res.Elements))
	}
}

func TestOptionalTagMatchedButTruncated(t *testing.T) {
	// Tag matches, then the declared length overruns the buffer. Once
	// matched the element is committed; truncation inside it fails the
	// walk.
	g := Grammar{Opt(0x23, idTLV)}
	res := eval(t, g, []byte{0x23, 0x05, 0x99})
	if !errors.Is(res.Err, cursor.ErrOutOfBounds) {
		t.Fatalf("expected ErrOutOfBounds, got %v", res.Err)
	}
}

func TestTVShortMatchesOnHighNibble(t *testing.T) {
	g := Grammar{Opt(0xd0, idShort)}
	res := eval(t, g, []byte{0xd7})
	if res.Err != nil {
		t.Fatalf("walk failed: %v", res.Err)
	}
	if len(res.Elements) != 1 {
		t.Fatalf("TV-short not matched")
	}
	if !bytes.Equal(res.Elements[0].Payload.([]byte), []byte{0x07}) {
		t.Fatalf("payload %v, want low nibble 7", res.Elements[0].Payload)
	}

	// Different high nibble: absent, not an error.
	res = eval(t, g, []byte{0xc7})
	if res.Err != nil || len(res.Elements) != 0 {
		t.Fatalf("non-matching TV-short consumed: %+v err=%v", res.Elements, res.Err)
	}
	if !bytes.Equal(res.Trailing, []byte{0xc7}) {
		t.Fatalf("unmatched byte should surface as trailing, got %v", res.Trailing)
	}
}

func TestZeroLengthElement(t *testing.T) {
	g := Grammar{Opt(0x23, idTLV)}
	res := eval(t, g, []byte{0x23, 0x00})
	if res.Err != nil {
		t.Fatalf("walk failed: %v", res.Err)
	}
	if len(res.Elements) != 1 {
		t.Fatalf("zero-length element dropped")
	}
	if len(res.Elements[0].Payload.([]byte)) != 0 {
		t.Fatalf("payload %v, want empty", res.Elements[0].Payload)
	}
}

func TestHalfOctetPairSharesOneByte(t *testing.T) {
	g := Grammar{Mand(idNibA), Mand(idNibB), Mand(idFixed)}
	body := []byte{0x5a, 0x01, 0x02}
	res := eval(t, g, body)
	if res.Err != nil {
		t.Fatalf("walk failed: %v", res.Err)
	}
	if len(res.Elements) != 3 {
		t.Fatalf("got %d elements, want 3", len(res.Elements))
	}
	if res.Elements[0].Payload.([]byte)[0] != 0x0a {
		t.Fatalf("first nibble %x, want a (low nibble first)", res.Elements[0].Payload)
	}
	if res.Elements[1].Payload.([]byte)[0] != 0x05 {
		t.Fatalf("second nibble %x, want 5", res.Elements[1].Payload)
	}
}

func TestOddHalfOctetPadsBeforeNextElement(t *testing.T) {
	// A lone half octet followed by a full-byte element: the high
	// nibble of the shared byte is spare padding.
	g := Grammar{Mand(idNibA), Mand(idFixed)}
	body := []byte{0xf3, 0x01, 0x02}
	res := eval(t, g, body)
	if res.Err != nil {
		t.Fatalf("walk failed: %v", res.Err)
	}
	if res.Elements[0].Payload.([]byte)[0] != 0x03 {
		t.Fatalf("nibble %x, want 3", res.Elements[0].Payload)
	}
	if !bytes.Equal(res.Elements[1].Payload.([]byte), []byte{0x01, 0x02}) {
		t.Fatalf("fixed payload %v", res.Elements[1].Payload)
	}
}

func TestDecodeFailureBecomesNotice(t *testing.T) {
	g := Grammar{Mand(idFussy), Mand(idVar)}
	body := []byte{0x01, 0x99, 0x01, 0x55}
	res := eval(t, g, body)
	if res.Err != nil {
		t.Fatalf("payload failure must not stop the walk: %v", res.Err)
	}
	if len(res.Notices) != 1 {
		t.Fatalf("got %d notices, want 1", len(res.Notices))
	}
	var mal *MalformedError
	if !errors.As(res.Notices[0], &mal) {
		t.Fatalf("notice type %T", res.Notices[0])
	}
	if mal.ID != idFussy {
		t.Fatalf("notice for 0x%02x, want 0x%02x", uint16(mal.ID), uint16(idFussy))
	}
	// The framed element is kept with a nil payload.
	if res.Elements[0].Payload != nil {
		t.Fatalf("malformed element kept a payload: %v", res.Elements[0].Payload)
	}
	if len(res.Elements) != 2 {
		t.Fatalf("walk did not continue past the malformed element")
	}
}

func TestTrailingBytesSurface(t *testing.T) {
	g := Grammar{Mand(idFixed)}
	res := eval(t, g, []byte{0xaa, 0xbb, 0xde, 0xad})
	if res.Err != nil {
		t.Fatalf("walk failed: %v", res.Err)
	}
	if !bytes.Equal(res.Trailing, []byte{0xde, 0xad}) {
		t.Fatalf("trailing %v", res.Trailing)
	}
}

func TestUnregisteredElementPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for unregistered grammar id")
		}
	}()
	eval(t, Grammar{Mand(0xee)}, []byte{0x00})
}

func TestShapeOverridePerSlot(t *testing.T) {
	// Same element id, TLV in this grammar slot although the codec
	// registers it as LV.
	g := Grammar{OptAs(0x02, idVar, ShapeTLV)}
	res := eval(t, g, []byte{0x02, 0x01, 0x77})
	if res.Err != nil {
		t.Fatalf("walk failed: %v", res.Err)
	}
	if len(res.Elements) != 1 || res.Elements[0].Shape != ShapeTLV {
		t.Fatalf("override not applied: %+v", res.Elements)
	}
	if !bytes.Equal(res.Elements[0].Payload.([]byte), []byte{0x77}) {
		t.Fatalf("payload %v", res.Elements[0].Payload)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		g    Grammar
		id   ElementID
		sh   Shape
		tag  byte
		val  []byte
	}{
		{"V", Grammar{Mand(idFixed)}, idFixed, ShapeV, 0, []byte{0x10, 0x20}},
		{"TV", Grammar{Opt(0x42, idTagged)}, idTagged, ShapeTV, 0x42, []byte{0x7f}},
		{"TV-short", Grammar{Opt(0xd0, idShort)}, idShort, ShapeTVShort, 0xd0, []byte{0x05}},
		{"LV", Grammar{Mand(idVar)}, idVar, ShapeLV, 0, []byte{1, 2, 3}},
		{"TLV", Grammar{Opt(0x23, idTLV)}, idTLV, ShapeTLV, 0x23, []byte{9, 8}},
		{"TLV-E", Grammar{Opt(0x78, idBig)}, idBig, ShapeTLVE, 0x78, bytes.Repeat([]byte{0xab}, 300)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body, err := AppendElement(nil, tc.sh, tc.tag, tc.val)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			res := eval(t, tc.g, body)
			if res.Err != nil {
				t.Fatalf("decode: %v", res.Err)
			}
			if len(res.Elements) != 1 {
				t.Fatalf("got %d elements", len(res.Elements))
			}
			e := res.Elements[0]
			if e.ID != tc.id {
				t.Fatalf("id 0x%02x", uint16(e.ID))
			}
			if !bytes.Equal(e.Payload.([]byte), tc.val) {
				t.Fatalf("payload %v want %v", e.Payload, tc.val)
			}
			if !bytes.Equal(e.Raw, body) {
				t.Fatalf("raw %v want full span %v", e.Raw, body)
			}
		})
	}
}

func TestEncodeRejectsOversizedValues(t *testing.T) {
	if _, err := AppendElement(nil, ShapeLV, 0, make([]byte, 256)); !errors.Is(err, ErrValueTooLong) {
		t.Fatalf("LV: %v", err)
	}
	if _, err := AppendElement(nil, ShapeTLVE, 0x78, make([]byte, 0x10000)); !errors.Is(err, ErrValueTooLong) {
		t.Fatalf("TLV-E: %v", err)
	}
	if _, err := AppendElement(nil, ShapeTVShort, 0xd0, []byte{0x10}); !errors.Is(err, ErrBadShape) {
		t.Fatalf("TV-short: %v", err)
	}
}
