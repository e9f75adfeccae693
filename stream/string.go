package stream

import (
	"encoding/binary"
	"fmt"

	"github.com/meigma/arcstream/internal/seekutil"
)

// stringEncoding is selected by the sign of a string's length prefix.
type stringEncoding uint8

const (
	encodingEmpty  stringEncoding = iota // zero length, nothing follows
	encodingWide                         // UTF-16LE code units
	encodingNarrow                       // single bytes
)

const (
	wideEscape   int8 = 127  // wide length stored as a following int32
	narrowEscape int8 = -128 // narrow length stored as a following int32
)

// blockKind is selected by the tag byte of a string block.
type blockKind uint8

const (
	blockInvalid   blockKind = iota
	blockInline              // a string follows the tag
	blockReference           // an int32 absolute offset of the string follows the tag
)

// String block tag values.
const (
	TagInline       byte = 0x00
	TagInlineAlt    byte = 0x73
	TagReference    byte = 0x01
	TagReferenceAlt byte = 0x1B
)

const stringBlockTagName = "string block tag"

func classifyBlockTag(tag byte) blockKind {
	switch tag {
	case TagInline, TagInlineAlt:
		return blockInline
	case TagReference, TagReferenceAlt:
		return blockReference
	default:
		return blockInvalid
	}
}

// readLengthPrefix reads a string length prefix and resolves its escape.
func (r *Reader) readLengthPrefix() (stringEncoding, int, error) {
	n, err := r.ReadInt8()
	if err != nil {
		return encodingEmpty, 0, err
	}
	switch {
	case n == 0:
		return encodingEmpty, 0, nil

	case n > 0:
		count := int32(n)
		if n == wideEscape {
			if count, err = r.ReadInt32(); err != nil {
				return encodingEmpty, 0, err
			}
		}
		return r.checkCount(encodingWide, count)

	default:
		count := -int32(n)
		if n == narrowEscape {
			if count, err = r.ReadInt32(); err != nil {
				return encodingEmpty, 0, err
			}
		}
		return r.checkCount(encodingNarrow, count)
	}
}

func (r *Reader) checkCount(enc stringEncoding, count int32) (stringEncoding, int, error) {
	switch {
	case count == 0:
		return encodingEmpty, 0, nil
	case count < 0:
		return encodingEmpty, 0, fmt.Errorf("%w: negative string length %d", ErrFormat, count)
	case r.maxStringLength > 0 && int(count) > r.maxStringLength:
		return encodingEmpty, 0, fmt.Errorf("%w: string length %d exceeds limit %d",
			ErrSizeOverflow, count, r.maxStringLength)
	}
	return enc, int(count), nil
}

// ReadString reads a length-prefixed string at the cursor.
//
// A positive length counts UTF-16 code units (127 escapes to a following
// int32), a negative length counts single bytes (-128 escapes to a
// following int32), and zero is the empty string. The payload is passed to
// the Reader's Decrypter together with encrypted.
func (r *Reader) ReadString(encrypted bool) (string, error) {
	enc, count, err := r.readLengthPrefix()
	if err != nil {
		return "", err
	}
	switch enc {
	case encodingWide:
		raw, err := r.ReadBytes(2 * count)
		if err != nil {
			return "", err
		}
		units := make([]uint16, count)
		for i := range units {
			units[i] = binary.LittleEndian.Uint16(raw[2*i:])
		}
		s, err := r.dec.DecryptUnicode(units, encrypted)
		if err != nil {
			return "", fmt.Errorf("stream: decode wide string: %w", err)
		}
		return s, nil

	case encodingNarrow:
		raw, err := r.ReadBytes(count)
		if err != nil {
			return "", err
		}
		s, err := r.dec.DecryptASCII(raw, encrypted)
		if err != nil {
			return "", fmt.Errorf("stream: decode narrow string: %w", err)
		}
		return s, nil

	default:
		return "", nil
	}
}

// ReadStringAtOffset reads the string stored at the absolute offset and
// leaves the cursor where it was, whether or not the read succeeds.
func (r *Reader) ReadStringAtOffset(offset int64, encrypted bool) (string, error) {
	key := stringRef{offset: offset, encrypted: encrypted}
	if r.strings != nil {
		if s, ok := r.strings.Get(key); ok {
			r.log().Debug("string reference resolved", "offset", offset, "cached", true)
			return s, nil
		}
	}

	var s string
	err := seekutil.Restore(r.src, func() error {
		if err := seekutil.SeekTo(r.src, offset); err != nil {
			return err
		}
		var err error
		s, err = r.ReadString(encrypted)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("stream: string at offset %d: %w", offset, err)
	}

	if r.strings != nil {
		r.strings.Add(key, s)
	}
	r.log().Debug("string reference resolved", "offset", offset, "cached", false)
	return s, nil
}

// ReadStringBlock reads a tagged string field: either an inline string or
// an int32 offset of a string stored elsewhere in the source. Any other tag
// fails with a *FormatError; the cursor is then left just after the tag.
func (r *Reader) ReadStringBlock(encrypted bool) (string, error) {
	tag, err := r.ReadUint8()
	if err != nil {
		return "", err
	}
	switch classifyBlockTag(tag) {
	case blockInline:
		return r.ReadString(encrypted)

	case blockReference:
		offset, err := r.ReadInt32()
		if err != nil {
			return "", err
		}
		return r.ReadStringAtOffset(int64(offset), encrypted)

	default:
		pos, _ := r.Position() //nolint:errcheck // best effort for the error report
		ferr := &FormatError{What: stringBlockTagName, Tag: tag, Offset: pos - 1}
		r.log().Warn("invalid string block", "tag", tag, "offset", pos-1)
		return "", ferr
	}
}
