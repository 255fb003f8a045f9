package progress

import (
	"io"
	"os"
	"sync"

	"github.com/schollz/progressbar/v3"
)

// bareReporter drives a single-line percentage bar with periodic textual
// updates for piped/redirected output, never relying on
// cursor-repositioning escape codes.
type bareReporter struct {
	mu     sync.Mutex
	bar    *progressbar.ProgressBar
	events chan Event
	done   chan struct{}
}

func newBareReporter(out io.Writer, total int) *bareReporter {
	if out == nil {
		out = os.Stdout
	}
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription("ingesting"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	r := &bareReporter{bar: bar, events: make(chan Event, eventQueueSize), done: make(chan struct{})}
	go r.pump()
	return r
}

func (r *bareReporter) pump() {
	defer close(r.done)
	for e := range r.events {
		switch e.Stage {
		case StageDone, StageFailed:
			r.mu.Lock()
			_ = r.bar.Add(1)
			r.mu.Unlock()
		default:
			r.mu.Lock()
			r.bar.Describe("ingesting: " + e.File)
			r.mu.Unlock()
		}
	}
}

func (r *bareReporter) Report(e Event) {
	select {
	case r.events <- e:
	default:
	}
}

func (r *bareReporter) Close() error {
	close(r.events)
	<-r.done
	return r.bar.Close()
}
