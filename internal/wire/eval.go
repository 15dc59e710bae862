package wire

import (
	"errors"
	"fmt"

	"github.com/epsnet/naseps/internal/cursor"
)

// Result is the outcome of one grammar walk. Err is the stopping
// condition, if any; elements decoded before the stop are always kept.
type Result struct {
	Elements []DecodedElement
	Trailing []byte
	Notices  []error
	Err      error
}

// Evaluate runs a message grammar against the cursor, positioned just
// past the fixed message header. One linear pass: declared grammar
// order equals required wire order, so an optional whose tag does not
// match the next byte is simply absent.
//
// A grammar naming an element id absent from the table is a programmer
// error and panics; no network input can trigger it.
func Evaluate(cur *cursor.Cursor, g Grammar, tbl Table, dc *DecodeCtx) Result {
	var res Result
	for _, ins := range g {
		codec, ok := tbl.Lookup(ins.ID)
		if !ok {
			panic(fmt.Sprintf("wire: grammar references unregistered element 0x%02x", uint16(ins.ID)))
		}
		if ins.Shape != 0 {
			codec.Shape = ins.Shape
		}
		if !(codec.Shape == ShapeV && codec.HalfOctet) {
			// Odd half octets are padded with a spare nibble.
			cur.AlignToByte()
		}

		if ins.Optional {
			if cur.Remaining() == 0 {
				continue
			}
			b, err := cur.PeekByte()
			if err != nil {
				continue
			}
			if !tagMatches(codec.Shape, ins.Tag, b) {
				continue
			}
		}

		start := cur.Offset()
		val, err := extract(cur, codec)
		if err != nil {
			if !ins.Optional && errors.Is(err, cursor.ErrOutOfBounds) && cur.Offset() == start && cur.Aligned() {
				res.Err = &MissingMandatoryError{ID: ins.ID, Name: codec.Name}
			} else {
				res.Err = cursor.ErrOutOfBounds
			}
			return res
		}

		elem := DecodedElement{
			ID:    ins.ID,
			Name:  codec.Name,
			Shape: codec.Shape,
			Raw:   cur.SpanFrom(start),
		}
		if codec.Decode != nil {
			payload, derr := codec.Decode(dc, val)
			if derr != nil {
				res.Notices = append(res.Notices, &MalformedError{
					ID: ins.ID, Name: codec.Name, Reason: derr.Error(),
				})
			} else {
				elem.Payload = payload
			}
		} else {
			elem.Payload = val
		}
		res.Elements = append(res.Elements, elem)
	}

	cur.AlignToByte()
	if rest := cur.Rest(); len(rest) > 0 {
		res.Trailing = rest
	}
	return res
}

func tagMatches(sh Shape, tag, b byte) bool {
	if sh == ShapeTVShort {
		return b&0xf0 == tag&0xf0
	}
	return b == tag
}

// extract consumes one element per its shape and returns the value
// bytes. Tag and length octets are consumed but not returned.
func extract(cur *cursor.Cursor, codec Codec) ([]byte, error) {
	switch codec.Shape {
	case ShapeV:
		if codec.HalfOctet {
			nib, err := cur.ReadNibble()
			if err != nil {
				return nil, err
			}
			return []byte{nib}, nil
		}
		return cur.ReadBytes(codec.Len)
	case ShapeTV:
		if _, err := cur.ReadByte(); err != nil {
			return nil, err
		}
		return cur.ReadBytes(codec.Len)
	case ShapeTVShort:
		b, err := cur.ReadByte()
		if err != nil {
			return nil, err
		}
		return []byte{b & 0x0f}, nil
	case ShapeLV:
		l, err := cur.ReadByte()
		if err != nil {
			return nil, err
		}
		return cur.ReadBytes(int(l))
	case ShapeTLV:
		if _, err := cur.ReadByte(); err != nil {
			return nil, err
		}
		l, err := cur.ReadByte()
		if err != nil {
			return nil, err
		}
		return cur.ReadBytes(int(l))
	case ShapeLVE:
		l, err := cur.ReadUint16()
		if err != nil {
			return nil, err
		}
		return cur.ReadBytes(int(l))
	case ShapeTLVE:
		if _, err := cur.ReadByte(); err != nil {
			return nil, err
		}
		l, err := cur.ReadUint16()
		if err != nil {
			return nil, err
		}
		return cur.ReadBytes(int(l))
	}
	panic(fmt.Sprintf("wire: unknown shape %d", codec.Shape))
}
