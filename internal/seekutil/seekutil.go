// Package seekutil reads and restores cursor positions on seekable sources.
//
// Sources that track their own cursor (such as window.Window) expose
// Position and SetPosition; those are preferred over Seek so that a cursor
// parked at the very end of a bounded source can still be queried and
// restored.
package seekutil

import (
	"errors"
	"fmt"
	"io"
)

// Positioner is implemented by sources that expose their cursor directly.
type Positioner interface {
	Position() int64
	SetPosition(pos int64) error
}

type sizer interface {
	Size() int64
}

// Tell returns the current position of s.
func Tell(s io.Seeker) (int64, error) {
	if p, ok := s.(Positioner); ok {
		return p.Position(), nil
	}
	pos, err := s.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, fmt.Errorf("tell: %w", err)
	}
	return pos, nil
}

// SeekTo moves s to the absolute position pos.
func SeekTo(s io.Seeker, pos int64) error {
	if p, ok := s.(Positioner); ok {
		return p.SetPosition(pos)
	}
	if _, err := s.Seek(pos, io.SeekStart); err != nil {
		return fmt.Errorf("seek to %d: %w", pos, err)
	}
	return nil
}

// Length returns the total length of s. Sources with a Size method are
// asked directly; otherwise s is seeked to its end and the
// original position is restored.
func Length(s io.Seeker) (int64, error) {
	if v, ok := s.(sizer); ok {
		return v.Size(), nil
	}
	cur, err := Tell(s)
	if err != nil {
		return 0, err
	}
	end, err := s.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("seek to end: %w", err)
	}
	if err := SeekTo(s, cur); err != nil {
		return 0, err
	}
	return end, nil
}

// Restore runs fn and then moves s back to the position it had before fn
// ran. The position is restored even when fn fails; a restore failure is
// joined with fn's error.
func Restore(s io.Seeker, fn func() error) error {
	saved, err := Tell(s)
	if err != nil {
		return err
	}
	fnErr := fn()
	if err := SeekTo(s, saved); err != nil {
		if fnErr != nil {
			return errors.Join(fnErr, err)
		}
		return err
	}
	return fnErr
}
