package progress

import "time"

// Stage identifies which ingest step a worker is currently performing.
type Stage string

const (
	StageLoading     Stage = "loading"
	StageChecking    Stage = "checking"
	StageChunking    Stage = "chunking"
	StageSummarizing Stage = "summarizing"
	StageExtracting  Stage = "extracting"
	StageIndexing    Stage = "indexing"
	StageDone        Stage = "done"
	StageFailed      Stage = "failed"
)

// Event is one worker's state transition, sent on the shared progress
// channel fed by the ingest worker pool.
type Event struct {
	WorkerID int
	File     string
	Stage    Stage
	Err      error
	At       time.Time
}

// Reporter receives progress events and renders them. Report must never
// block the caller: a full internal queue drops the event rather than
// stalling a worker.
type Reporter interface {
	Report(Event)
	Close() error
}
