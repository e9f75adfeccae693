package stream

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/meigma/arcstream/internal/seekutil"
	"github.com/meigma/arcstream/internal/sizing"
)

// fill reads exactly n bytes into the scratch buffer.
func (r *Reader) fill(n int) ([]byte, error) {
	b := r.buf[:n]
	if _, err := io.ReadFull(r.src, b); err != nil {
		return nil, endOfStream(err)
	}
	return b, nil
}

// endOfStream reports a fixed-size read that ran out of data as
// io.ErrUnexpectedEOF.
func endOfStream(err error) error {
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return fmt.Errorf("stream: %w", err)
}

// ReadUint8 reads one byte.
func (r *Reader) ReadUint8() (uint8, error) {
	b, err := r.fill(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadInt8 reads one signed byte.
func (r *Reader) ReadInt8() (int8, error) {
	v, err := r.ReadUint8()
	return int8(v), err //nolint:gosec // two's complement reinterpretation
}

// ReadUint16 reads a little-endian uint16.
func (r *Reader) ReadUint16() (uint16, error) {
	b, err := r.fill(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadInt16 reads a little-endian int16.
func (r *Reader) ReadInt16() (int16, error) {
	v, err := r.ReadUint16()
	return int16(v), err //nolint:gosec // two's complement reinterpretation
}

// ReadUint32 reads a little-endian uint32.
func (r *Reader) ReadUint32() (uint32, error) {
	b, err := r.fill(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadInt32 reads a little-endian int32.
func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.ReadUint32()
	return int32(v), err //nolint:gosec // two's complement reinterpretation
}

// ReadUint64 reads a little-endian uint64.
func (r *Reader) ReadUint64() (uint64, error) {
	b, err := r.fill(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadInt64 reads a little-endian int64.
func (r *Reader) ReadInt64() (int64, error) {
	v, err := r.ReadUint64()
	return int64(v), err //nolint:gosec // two's complement reinterpretation
}

// remaining returns the number of bytes between the cursor and the end of
// the source.
func (r *Reader) remaining() (int, error) {
	total, err := seekutil.Length(r.src)
	if err != nil {
		return 0, fmt.Errorf("stream: %w", err)
	}
	pos, err := seekutil.Tell(r.src)
	if err != nil {
		return 0, fmt.Errorf("stream: %w", err)
	}
	if pos >= total {
		return 0, nil
	}
	return sizing.ToInt(total-pos, ErrSizeOverflow)
}

// ReadBytes reads exactly n bytes into a new slice. If fewer than n bytes
// remain, it fails with io.ErrUnexpectedEOF before allocating and leaves
// the cursor where it was.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("stream: read %d bytes: negative count", n)
	}
	if n == 0 {
		return []byte{}, nil
	}
	avail, err := r.remaining()
	if err != nil {
		return nil, err
	}
	if n > avail {
		return nil, fmt.Errorf("stream: read %d bytes with %d remaining: %w", n, avail, io.ErrUnexpectedEOF)
	}
	out := make([]byte, n)
	if _, err := io.ReadFull(r.src, out); err != nil {
		return nil, endOfStream(err)
	}
	return out, nil
}

// ReadCompactInt reads a compact signed integer: one signed byte, or, when
// that byte is -128, a full little-endian int32 that follows it.
func (r *Reader) ReadCompactInt() (int32, error) {
	s, err := r.ReadInt8()
	if err != nil {
		return 0, err
	}
	if s == compactEscape {
		return r.ReadInt32()
	}
	return int32(s), nil
}

// compactEscape marks a compact integer stored at full width.
const compactEscape int8 = -128
