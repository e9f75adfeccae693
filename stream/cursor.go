package stream

import (
	"fmt"

	"github.com/meigma/arcstream/internal/seekutil"
)

// Position returns the cursor position in source coordinates.
func (r *Reader) Position() (int64, error) {
	pos, err := seekutil.Tell(r.src)
	if err != nil {
		return 0, fmt.Errorf("stream: %w", err)
	}
	return pos, nil
}

// Jump moves the cursor to the absolute position pos.
func (r *Reader) Jump(pos int64) error {
	if err := seekutil.SeekTo(r.src, pos); err != nil {
		return fmt.Errorf("stream: jump: %w", err)
	}
	return nil
}

// Skip moves the cursor n bytes relative to its current position.
func (r *Reader) Skip(n int64) error {
	pos, err := r.Position()
	if err != nil {
		return err
	}
	if err := seekutil.SeekTo(r.src, pos+n); err != nil {
		return fmt.Errorf("stream: skip %d: %w", n, err)
	}
	return nil
}

// Peek runs fn and then restores the cursor, even if fn fails.
func (r *Reader) Peek(fn func() error) error {
	return seekutil.Restore(r.src, fn)
}

// PeekValue runs fn under a saved cursor position and returns its result.
// The cursor is restored even if fn fails.
func PeekValue[T any](r *Reader, fn func(*Reader) (T, error)) (T, error) {
	var v T
	err := seekutil.Restore(r.src, func() error {
		var err error
		v, err = fn(r)
		return err
	})
	return v, err
}

// PeekAt jumps to pos, runs fn, and restores the cursor.
func PeekAt[T any](r *Reader, pos int64, fn func(*Reader) (T, error)) (T, error) {
	return PeekValue(r, func(r *Reader) (T, error) {
		if err := r.Jump(pos); err != nil {
			var zero T
			return zero, err
		}
		return fn(r)
	})
}
