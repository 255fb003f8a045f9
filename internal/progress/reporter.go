package progress

import (
	"os"

	"github.com/mattn/go-isatty"
)

// eventQueueSize bounds how many pending events a Reporter buffers before
// dropping the oldest: reporting must never block an ingest worker.
const eventQueueSize = 256

// New selects a Reporter appropriate for out: a TTY dashboard when out is
// an interactive terminal, otherwise a single-line percentage bar.
func New(out *os.File, total int) Reporter {
	if out != nil && (isatty.IsTerminal(out.Fd()) || isatty.IsCygwinTerminal(out.Fd())) {
		return newTTYReporter(out, total)
	}
	return newBareReporter(out, total)
}
