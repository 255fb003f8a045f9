package progress

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/NimbleMarkets/ntcharts/sparkline"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	tickInterval     = 150 * time.Millisecond
	throughputWindow = 30
	sparklineWidth   = 30
	sparklineHeight  = 2
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("51")).Bold(true)
	workerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("231"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	failedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Bold(true)
)

type workerState struct {
	file  string
	stage Stage
	since time.Time
}

// model is the bubbletea Model for the interactive TTY dashboard: one
// line per active worker plus an aggregate processed/failed/ETA line.
type model struct {
	total     int
	processed int
	failed    int
	start     time.Time

	workers map[int]workerState
	order   []int

	throughputHistory []float64
	lastProcessed     int
	quitting          bool
}

func newModel(total int) model {
	return model{
		total:   total,
		start:   time.Now(),
		workers: make(map[int]workerState),
	}
}

type eventMsg Event
type tickMsg time.Time

func (m model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		m.apply(Event(msg))
		return m, nil
	case tickMsg:
		sample := m.processed - m.lastProcessed
		m.lastProcessed = m.processed
		m.throughputHistory = append(m.throughputHistory, float64(sample))
		if len(m.throughputHistory) > throughputWindow {
			m.throughputHistory = m.throughputHistory[1:]
		}
		return m, tick()
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *model) apply(e Event) {
	switch e.Stage {
	case StageDone, StageFailed:
		delete(m.workers, e.WorkerID)
		m.processed++
		if e.Stage == StageFailed {
			m.failed++
		}
	default:
		m.workers[e.WorkerID] = workerState{file: e.File, stage: e.Stage, since: e.At}
	}

	m.order = m.order[:0]
	for id := range m.workers {
		m.order = append(m.order, id)
	}
	sort.Ints(m.order)
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	lines := []string{headerStyle.Render(fmt.Sprintf("conceptrag ingest — %d/%d", m.processed, m.total))}

	for _, id := range m.order {
		w := m.workers[id]
		elapsed := time.Since(w.since).Round(time.Second)
		lines = append(lines, workerStyle.Render(fmt.Sprintf("  [%d] %s  %s  %s", id, w.stage, w.file, elapsed)))
	}

	elapsed := time.Since(m.start)
	rate := float64(m.processed) / elapsed.Seconds()
	eta := "unknown"
	if rate > 0 && m.total > m.processed {
		remaining := time.Duration(float64(m.total-m.processed)/rate) * time.Second
		eta = remaining.Round(time.Second).String()
	}

	agg := fmt.Sprintf("processed=%d/%d failed=%d eta=%s", m.processed, m.total, m.failed, eta)
	if m.failed > 0 {
		lines = append(lines, failedStyle.Render(agg))
	} else if m.processed == m.total && m.total > 0 {
		lines = append(lines, doneStyle.Render(agg))
	} else {
		lines = append(lines, dimStyle.Render(agg))
	}

	lines = append(lines, dimStyle.Render(renderThroughput(m.throughputHistory)))

	return lipgloss.JoinVertical(lipgloss.Left, lines...) + "\n"
}

func renderThroughput(history []float64) string {
	if len(history) == 0 {
		return fmt.Sprintf("%*s", sparklineWidth, "no data")
	}
	spark := sparkline.New(sparklineWidth, sparklineHeight)
	for _, v := range history {
		spark.Push(v)
	}
	return spark.View()
}

type ttyReporter struct {
	program *tea.Program
	events  chan Event
	done    chan struct{}
}

func newTTYReporter(out *os.File, total int) *ttyReporter {
	program := tea.NewProgram(newModel(total), tea.WithOutput(out))
	r := &ttyReporter{program: program, events: make(chan Event, eventQueueSize), done: make(chan struct{})}

	go func() {
		_, _ = program.Run()
		close(r.done)
	}()
	go r.pump()

	return r
}

func (r *ttyReporter) pump() {
	for e := range r.events {
		r.program.Send(eventMsg(e))
	}
}

// Report never blocks: a full queue drops the event, since a skipped
// intermediate stage update doesn't affect the final processed/failed
// tallies driven by StageDone/StageFailed events.
func (r *ttyReporter) Report(e Event) {
	select {
	case r.events <- e:
	default:
	}
}

func (r *ttyReporter) Close() error {
	close(r.events)
	r.program.Quit()
	<-r.done
	return nil
}
