package window

import (
	"fmt"

	"github.com/meigma/arcstream/internal/seekutil"
)

// assertCursor panics if the backing source is not positioned at the
// window cursor. Only called in arcdebug builds.
func (w *Window) assertCursor() {
	pos, err := seekutil.Tell(w.backing)
	if err != nil {
		panic(fmt.Sprintf("window: tell backing source: %v", err))
	}
	if pos != w.cursor {
		panic(fmt.Sprintf("window: cursor %d out of sync with backing position %d", w.cursor, pos))
	}
}
