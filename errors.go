package arcstream

import (
	"github.com/meigma/arcstream/internal/arctype"
	"github.com/meigma/arcstream/source"
	"github.com/meigma/arcstream/textcrypt"
)

// Errors re-exported from the decoding packages.
var (
	// ErrInvalidWindow is returned when a section does not fit the archive.
	ErrInvalidWindow = arctype.ErrInvalidWindow

	// ErrOutOfRange is returned when a seek target lies outside a section.
	ErrOutOfRange = arctype.ErrOutOfRange

	// ErrReadOnly is returned by write or resize operations on a section.
	ErrReadOnly = arctype.ErrReadOnly

	// ErrFormat is returned when the archive contains a value the format
	// does not allow.
	ErrFormat = arctype.ErrFormat

	// ErrSizeOverflow is returned when a size exceeds a configured limit.
	ErrSizeOverflow = arctype.ErrSizeOverflow

	// ErrDecompression is returned when a compressed archive cannot be decoded.
	ErrDecompression = source.ErrDecompression

	// ErrRangeUnsupported is returned when a remote server ignores range requests.
	ErrRangeUnsupported = source.ErrRangeUnsupported

	// ErrSourceChanged is returned when a remote archive changes after it was opened.
	ErrSourceChanged = source.ErrSourceChanged

	// ErrNoKey is returned when an encrypted string is read without a key.
	ErrNoKey = textcrypt.ErrNoKey
)

// FormatError describes an unexpected tag byte.
type FormatError = arctype.FormatError
