package checkpoint

import "time"

// Stage is a pipeline phase tracked by the checkpoint for ordering
// guarantees between document loading, concept indexing, and summarization.
type Stage string

const (
	StageDocuments Stage = "documents"
	StageConcepts  Stage = "concepts"
	StageSummaries Stage = "summaries"
	StageComplete  Stage = "complete"
)

// FileVersion is the on-disk schema version of a checkpoint file.
const FileVersion = 1

// checkpointFile is the exact on-disk JSON shape. ProcessedHashes is a set
// represented as an array on disk; Store keeps the in-memory form as a
// map[string]struct{} for O(1) is_processed lookups.
type checkpointFile struct {
	ProcessedHashes []string  `json:"processed_hashes"`
	Stage           Stage     `json:"stage"`
	LastFile        string    `json:"last_file"`
	LastUpdatedAt   time.Time `json:"last_updated_at"`
	TotalProcessed  int       `json:"total_processed"`
	TotalFailed     int       `json:"total_failed"`
	FailedFiles     []string  `json:"failed_files"`
	Version         int       `json:"version"`
	DatabasePath    string    `json:"database_path"`
	FilesDir        string    `json:"files_dir"`
}

// Snapshot is a read-only copy of the checkpoint state, safe to inspect
// after the Store's lock has been released.
type Snapshot struct {
	Stage          Stage
	LastFile       string
	LastUpdatedAt  time.Time
	TotalProcessed int
	TotalFailed    int
	FailedFiles    []string
	DatabasePath   string
	FilesDir       string
	ProcessedCount int
}
