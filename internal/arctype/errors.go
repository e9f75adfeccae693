// Package arctype holds the error values shared by the archive decoding
// packages.
package arctype

import (
	"errors"
	"fmt"
)

// Sentinel errors for archive decoding.
var (
	// ErrInvalidWindow is returned when a window's bounds do not fit its
	// backing source, or the backing source cannot seek.
	ErrInvalidWindow = errors.New("arcstream: invalid window bounds")

	// ErrOutOfRange is returned when a seek target lies outside a window.
	ErrOutOfRange = errors.New("arcstream: position out of range")

	// ErrReadOnly is returned by operations that would modify a window.
	ErrReadOnly = fmt.Errorf("arcstream: window is read-only: %w", errors.ErrUnsupported)

	// ErrFormat is returned when the stream contains a value the format does
	// not allow at that point.
	ErrFormat = errors.New("arcstream: format violation")

	// ErrSizeOverflow is returned when byte counts exceed supported limits.
	ErrSizeOverflow = errors.New("arcstream: size overflow")
)

// FormatError describes an unexpected tag byte.
// It matches ErrFormat under errors.Is.
type FormatError struct {
	// What names the field being decoded (e.g., "string block tag").
	What string

	// Tag is the byte that was read.
	Tag byte

	// Offset is the position the tag was read from.
	Offset int64
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%v: unexpected %s 0x%02x at offset %d", ErrFormat, e.What, e.Tag, e.Offset)
}

// Is reports whether target is ErrFormat.
func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}
