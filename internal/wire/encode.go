package wire

import "fmt"

// AppendElement frames value bytes per shape and appends them to dst.
// tag is ignored for the untagged shapes. Used by hosts building PDUs
// and by the round-trip tests; the decoder never calls it.
func AppendElement(dst []byte, sh Shape, tag byte, val []byte) ([]byte, error) {
	switch sh {
	case ShapeV:
		return append(dst, val...), nil
	case ShapeTV:
		dst = append(dst, tag)
		return append(dst, val...), nil
	case ShapeTVShort:
		if len(val) != 1 || val[0] > 0x0f {
			return nil, fmt.Errorf("%w: TV-short value must be one nibble", ErrBadShape)
		}
		return append(dst, tag&0xf0|val[0]), nil
	case ShapeLV:
		if len(val) > 0xff {
			return nil, ErrValueTooLong
		}
		dst = append(dst, byte(len(val)))
		return append(dst, val...), nil
	case ShapeTLV:
		if len(val) > 0xff {
			return nil, ErrValueTooLong
		}
		dst = append(dst, tag, byte(len(val)))
		return append(dst, val...), nil
	case ShapeLVE:
		if len(val) > 0xffff {
			return nil, ErrValueTooLong
		}
		dst = append(dst, byte(len(val)>>8), byte(len(val)))
		return append(dst, val...), nil
	case ShapeTLVE:
		if len(val) > 0xffff {
			return nil, ErrValueTooLong
		}
		dst = append(dst, tag, byte(len(val)>>8), byte(len(val)))
		return append(dst, val...), nil
	}
	return nil, fmt.Errorf("%w: shape %d", ErrBadShape, sh)
}
