package cursor

import "errors"

var (
	ErrOutOfBounds = errors.New("cursor: read past end of buffer")
	ErrMisaligned  = errors.New("cursor: byte read at unaligned position")
)

// Cursor is a positional reader over an immutable byte buffer. Positions
// are tracked in bytes plus a bit offset inside the current byte. The
// buffer is never written through a Cursor; reads hand out copies.
//
// Half-octet fields follow TS 24.007 packing: the first half octet of a
// byte occupies bits 1-4 (the low nibble), the second bits 5-8.
type Cursor struct {
	buf []byte
	off int
	bit uint8
}

func New(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Len reports the total buffer length in bytes.
func (c *Cursor) Len() int { return len(c.buf) }

// Offset reports the current byte offset.
func (c *Cursor) Offset() int { return c.off }

// Aligned reports whether the cursor sits on a byte boundary.
func (c *Cursor) Aligned() bool { return c.bit == 0 }

// RemainingBits reports how many unread bits remain.
func (c *Cursor) RemainingBits() int {
	return (len(c.buf)-c.off)*8 - int(c.bit)
}

// Remaining reports how many whole unread bytes remain. A partially
// consumed byte does not count.
func (c *Cursor) Remaining() int {
	n := len(c.buf) - c.off
	if c.bit != 0 {
		n--
	}
	return n
}

// AlignToByte discards any remaining bits of a partially read byte.
func (c *Cursor) AlignToByte() {
	if c.bit != 0 {
		c.bit = 0
		c.off++
	}
}

// PeekByte returns the byte at the current position without consuming it.
func (c *Cursor) PeekByte() (byte, error) {
	if c.bit != 0 {
		return 0, ErrMisaligned
	}
	if c.off >= len(c.buf) {
		return 0, ErrOutOfBounds
	}
	return c.buf[c.off], nil
}

// ReadByte consumes one byte at a byte-aligned position.
func (c *Cursor) ReadByte() (byte, error) {
	b, err := c.PeekByte()
	if err != nil {
		return 0, err
	}
	c.off++
	return b, nil
}

// ReadBytes consumes n bytes and returns a copy.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	if c.bit != 0 {
		return nil, ErrMisaligned
	}
	if n < 0 || len(c.buf)-c.off < n {
		return nil, ErrOutOfBounds
	}
	out := make([]byte, n)
	copy(out, c.buf[c.off:c.off+n])
	c.off += n
	return out, nil
}

// ReadUint16 consumes two bytes as a big-endian value.
func (c *Cursor) ReadUint16() (uint16, error) {
	b, err := c.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return uint16(b[0])<<8 | uint16(b[1]), nil
}

// ReadBits consumes n bits, most significant first, for 1 <= n <= 32.
func (c *Cursor) ReadBits(n int) (uint32, error) {
	if n < 1 || n > 32 {
		return 0, ErrOutOfBounds
	}
	if c.RemainingBits() < n {
		return 0, ErrOutOfBounds
	}
	var v uint32
	for i := 0; i < n; i++ {
		b := c.buf[c.off]
		bit := (b >> (7 - c.bit)) & 1
		v = v<<1 | uint32(bit)
		c.bit++
		if c.bit == 8 {
			c.bit = 0
			c.off++
		}
	}
	return v, nil
}

// ReadNibble consumes one half octet. At a byte boundary it returns the
// low nibble (bits 1-4) and leaves the high nibble unread; mid-byte it
// returns the high nibble and advances to the next byte.
func (c *Cursor) ReadNibble() (uint8, error) {
	if c.off >= len(c.buf) {
		return 0, ErrOutOfBounds
	}
	b := c.buf[c.off]
	switch c.bit {
	case 0:
		c.bit = 4
		return b & 0x0f, nil
	case 4:
		c.bit = 0
		c.off++
		return b >> 4, nil
	default:
		return 0, ErrMisaligned
	}
}

// SpanFrom returns a copy of the bytes between a previously recorded
// byte offset and the current position.
func (c *Cursor) SpanFrom(start int) []byte {
	if start < 0 || start > c.off {
		return nil
	}
	end := c.off
	if c.bit != 0 {
		end++
	}
	out := make([]byte, end-start)
	copy(out, c.buf[start:end])
	return out
}

// Rest returns a copy of all unread bytes from the current byte onward.
func (c *Cursor) Rest() []byte {
	start := c.off
	if c.bit != 0 {
		start++
	}
	if start > len(c.buf) {
		return nil
	}
	out := make([]byte, len(c.buf)-start)
	copy(out, c.buf[start:])
	return out
}
