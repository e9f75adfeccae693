// Package window provides a bounded, read-only view over a region of a
// larger seekable source.
//
// A Window never owns its backing source. Every read saves the backing
// source's position, reads from the window's own cursor, and restores the
// saved position, so windows can be interleaved with other single-threaded
// readers of the same source. Concurrent use of one backing source needs
// external synchronization or independent handles (see io.NewSectionReader).
package window

import (
	"fmt"
	"io"

	"github.com/meigma/arcstream/internal/arctype"
	"github.com/meigma/arcstream/internal/seekutil"
	"github.com/meigma/arcstream/internal/sizing"
)

// EndOfWindow is returned by NextByte when the cursor is at the end of the
// window.
const EndOfWindow = -1

// Errors re-exported from arctype.
var (
	// ErrInvalidWindow is returned by New when the bounds do not fit the
	// backing source or the backing source cannot seek.
	ErrInvalidWindow = arctype.ErrInvalidWindow

	// ErrOutOfRange is returned when a seek target lies outside the window.
	ErrOutOfRange = arctype.ErrOutOfRange

	// ErrReadOnly is returned by Write and Truncate.
	ErrReadOnly = arctype.ErrReadOnly
)

// Window is a read-only view of [origin, origin+length) of a backing source.
//
// The cursor is kept in backing coordinates and exposed relative to the
// window origin. It always satisfies origin <= cursor <= end.
type Window struct {
	backing io.ReadSeeker
	origin  int64
	length  int64
	end     int64
	cursor  int64
}

// New creates a window over [start, start+length) of backing.
//
// It fails with ErrInvalidWindow if backing is not an io.Seeker, if start is
// not inside the backing source, or if the window would extend past its end.
func New(backing io.Reader, start, length int64) (*Window, error) {
	rs, ok := backing.(io.ReadSeeker)
	if !ok {
		return nil, fmt.Errorf("%w: backing source is not seekable", ErrInvalidWindow)
	}
	if start < 0 || length < 0 {
		return nil, fmt.Errorf("%w: negative start %d or length %d", ErrInvalidWindow, start, length)
	}
	total, err := seekutil.Length(rs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWindow, err)
	}
	if start >= total {
		return nil, fmt.Errorf("%w: start %d not below source length %d", ErrInvalidWindow, start, total)
	}
	end, ok := sizing.AddInt64(start, length)
	if !ok || end > total {
		return nil, fmt.Errorf("%w: range [%d, %d+%d) exceeds source length %d",
			ErrInvalidWindow, start, start, length, total)
	}
	return &Window{
		backing: rs,
		origin:  start,
		length:  length,
		end:     end,
		cursor:  start,
	}, nil
}

// Origin returns the window start in backing coordinates.
func (w *Window) Origin() int64 {
	return w.origin
}

// Size returns the window length.
func (w *Window) Size() int64 {
	return w.length
}

// Position returns the cursor relative to the window origin.
func (w *Window) Position() int64 {
	return w.cursor - w.origin
}

// SetPosition moves the cursor to pos, relative to the window origin.
// Unlike Seek, pos may equal the window length, so a saved end-of-window
// position can be restored.
func (w *Window) SetPosition(pos int64) error {
	if pos < 0 || pos > w.length {
		return fmt.Errorf("window: set position %d (length %d): %w", pos, w.length, ErrOutOfRange)
	}
	w.cursor = w.origin + pos
	return nil
}

// Remaining returns the number of bytes between the cursor and the end.
func (w *Window) Remaining() int64 {
	return w.end - w.cursor
}

// Seek moves the cursor and returns the previous window-relative position.
//
// The target is computed from the window start (io.SeekStart), the cursor
// (io.SeekCurrent) or the window end (io.SeekEnd). A target outside
// [0, length) fails with ErrOutOfRange and leaves the cursor unchanged.
func (w *Window) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
		base = w.origin
	case io.SeekCurrent:
		base = w.cursor
	case io.SeekEnd:
		base = w.end
	default:
		return 0, fmt.Errorf("window: seek: invalid whence %d", whence)
	}
	target := base + offset
	if (offset > 0 && target < base) || (offset < 0 && target > base) {
		return 0, fmt.Errorf("window: seek %d from %d: %w", offset, base-w.origin, ErrOutOfRange)
	}
	if target < w.origin || target >= w.end {
		return 0, fmt.Errorf("window: seek to %d (length %d): %w", target-w.origin, w.length, ErrOutOfRange)
	}
	prev := w.cursor - w.origin
	w.cursor = target
	return prev, nil
}

// Read reads up to len(p) bytes, never past the end of the window.
// At the end of the window it returns 0, io.EOF.
func (w *Window) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	remaining := w.end - w.cursor
	if remaining <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > remaining {
		p = p[:remaining]
	}

	var n int
	err := seekutil.Restore(w.backing, func() error {
		if err := seekutil.SeekTo(w.backing, w.cursor); err != nil {
			return err
		}
		var rerr error
		n, rerr = io.ReadFull(w.backing, p)
		w.cursor += int64(n)
		if debugAssertions {
			w.assertCursor()
		}
		if rerr == io.EOF || rerr == io.ErrUnexpectedEOF {
			// The backing source shrank after construction.
			if n == 0 {
				return io.ErrUnexpectedEOF
			}
			return nil
		}
		return rerr
	})
	if err != nil {
		return n, fmt.Errorf("window: read at %d: %w", w.cursor-w.origin, err)
	}
	return n, nil
}

// NextByte reads one byte and returns it as a non-negative int, or
// EndOfWindow if the cursor is already at the end. Reaching the end is not
// an error.
func (w *Window) NextByte() (int, error) {
	if w.cursor >= w.end {
		return EndOfWindow, nil
	}
	var buf [1]byte
	if _, err := w.Read(buf[:]); err != nil {
		return EndOfWindow, err
	}
	return int(buf[0]), nil
}

// ReadByte implements io.ByteReader. The end of the window is reported as
// io.EOF.
func (w *Window) ReadByte() (byte, error) {
	b, err := w.NextByte()
	if err != nil {
		return 0, err
	}
	if b == EndOfWindow {
		return 0, io.EOF
	}
	return byte(b), nil
}

// Write always fails; windows are read-only.
func (w *Window) Write([]byte) (int, error) {
	return 0, fmt.Errorf("window: write: %w", ErrReadOnly)
}

// Truncate always fails; window length is fixed at construction.
func (w *Window) Truncate(int64) error {
	return fmt.Errorf("window: truncate: %w", ErrReadOnly)
}
