package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrClosed is returned by Store methods after Close has been called.
var ErrClosed = errors.New("checkpoint: store is closed")

const checkpointFileName = ".seeding-checkpoint.json"

// Store is the single-writer, mutex-guarded checkpoint for a seeding run.
// All state lives in one JSON file at dbpath/.seeding-checkpoint.json.
type Store struct {
	mu     sync.Mutex
	path   string
	logger *zap.Logger
	data   checkpointFile
	hashes map[string]struct{}
	closed bool
}

// Open loads the checkpoint file at dbpath, creating an empty one if none
// exists. databasePath and filesDir describe the current invocation; if
// they differ from what a resumed checkpoint recorded, Open logs a warning
// but continues with the existing processed-hashes set rather than failing.
func Open(dbpath, databasePath, filesDir string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Store{
		path:   filepath.Join(dbpath, checkpointFileName),
		logger: logger,
		hashes: make(map[string]struct{}),
	}

	if err := s.load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("loading checkpoint: %w", err)
		}
		s.data = checkpointFile{
			Stage:         StageDocuments,
			Version:       FileVersion,
			DatabasePath:  databasePath,
			FilesDir:      filesDir,
			LastUpdatedAt: time.Now().UTC(),
		}
		return s, nil
	}

	if s.data.DatabasePath != "" && s.data.DatabasePath != databasePath {
		logger.Warn("checkpoint database_path differs from current invocation, resuming anyway",
			zap.String("checkpoint_path", s.data.DatabasePath),
			zap.String("current_path", databasePath),
		)
	}
	if s.data.FilesDir != "" && s.data.FilesDir != filesDir {
		logger.Warn("checkpoint files_dir differs from current invocation, resuming anyway",
			zap.String("checkpoint_files_dir", s.data.FilesDir),
			zap.String("current_files_dir", filesDir),
		)
	}

	return s, nil
}

// load reads the checkpoint file from disk into s.data/s.hashes.
func (s *Store) load() error {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}

	var cf checkpointFile
	if err := json.Unmarshal(raw, &cf); err != nil {
		return fmt.Errorf("corrupted checkpoint file: %w", err)
	}

	s.data = cf
	s.hashes = make(map[string]struct{}, len(cf.ProcessedHashes))
	for _, h := range cf.ProcessedHashes {
		s.hashes[h] = struct{}{}
	}
	return nil
}

// save writes the checkpoint atomically: temp file, then rename. The temp
// file is removed if anything fails before the rename.
func (s *Store) save() error {
	s.data.ProcessedHashes = make([]string, 0, len(s.hashes))
	for h := range s.hashes {
		s.data.ProcessedHashes = append(s.data.ProcessedHashes, h)
	}
	s.data.Version = FileVersion
	s.data.LastUpdatedAt = time.Now().UTC()

	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling checkpoint: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("creating checkpoint directory: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, raw, 0600); err != nil {
		return fmt.Errorf("writing checkpoint: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming checkpoint: %w", err)
	}
	return nil
}

// IsProcessed reports whether hash has already been recorded as processed.
// O(1): backed by an in-memory set.
func (s *Store) IsProcessed(hash string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.hashes[hash]
	return ok
}

// MarkProcessed records hash as processed and persists the checkpoint.
func (s *Store) MarkProcessed(hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	if _, ok := s.hashes[hash]; ok {
		return nil
	}
	s.hashes[hash] = struct{}{}
	s.data.LastFile = hash
	s.data.TotalProcessed++

	if err := s.save(); err != nil {
		delete(s.hashes, hash)
		s.data.TotalProcessed--
		return err
	}
	return nil
}

// MarkFailed records path as a failed file and persists the checkpoint.
func (s *Store) MarkFailed(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	s.data.FailedFiles = append(s.data.FailedFiles, path)
	s.data.TotalFailed++

	if err := s.save(); err != nil {
		s.data.FailedFiles = s.data.FailedFiles[:len(s.data.FailedFiles)-1]
		s.data.TotalFailed--
		return err
	}
	return nil
}

// SetStage advances the checkpoint's pipeline stage and persists it.
func (s *Store) SetStage(stage Stage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	prev := s.data.Stage
	s.data.Stage = stage
	if err := s.save(); err != nil {
		s.data.Stage = prev
		return err
	}
	return nil
}

// Clear resets the checkpoint to an empty state (used by --clean-checkpoint
// and --overwrite) and persists it.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	databasePath, filesDir := s.data.DatabasePath, s.data.FilesDir
	s.hashes = make(map[string]struct{})
	s.data = checkpointFile{
		Stage:        StageDocuments,
		Version:      FileVersion,
		DatabasePath: databasePath,
		FilesDir:     filesDir,
	}
	return s.save()
}

// Snapshot returns a read-only copy of the current checkpoint state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	failedFiles := make([]string, len(s.data.FailedFiles))
	copy(failedFiles, s.data.FailedFiles)

	return Snapshot{
		Stage:          s.data.Stage,
		LastFile:       s.data.LastFile,
		LastUpdatedAt:  s.data.LastUpdatedAt,
		TotalProcessed: s.data.TotalProcessed,
		TotalFailed:    s.data.TotalFailed,
		FailedFiles:    failedFiles,
		DatabasePath:   s.data.DatabasePath,
		FilesDir:       s.data.FilesDir,
		ProcessedCount: len(s.hashes),
	}
}

// Close marks the store closed. Further mutating calls return ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
