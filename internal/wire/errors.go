package wire

import (
	"errors"
	"fmt"
)

var (
	ErrValueTooLong = errors.New("wire: value too long for shape")
	ErrBadShape     = errors.New("wire: shape cannot carry this element")
)

// MissingMandatoryError reports a mandatory element absent from the
// wire. Elements decoded before it are preserved by the caller.
type MissingMandatoryError struct {
	ID   ElementID
	Name string
}

func (e *MissingMandatoryError) Error() string {
	return fmt.Sprintf("wire: missing mandatory element %s (0x%02x)", e.Name, uint16(e.ID))
}

// MalformedError reports a single element whose value bytes could not
// be interpreted. The grammar walk continues past it.
type MalformedError struct {
	ID     ElementID
	Name   string
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("wire: malformed element %s (0x%02x): %s", e.Name, uint16(e.ID), e.Reason)
}
