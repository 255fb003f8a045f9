package llm

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ErrPromptNotFound indicates the requested prompt file has not been loaded.
var ErrPromptNotFound = errors.New("llm: prompt not found")

const contentPlaceholder = "{CONTENT}"

// PromptStore loads prompt templates from a directory and reloads them
// when their files change on disk, so prompts can be edited without
// restarting ingestion. The core never compiles prompt text in; it only
// ever sees the rendered string.
type PromptStore struct {
	dir     string
	logger  *zap.Logger
	watcher *fsnotify.Watcher

	mu        sync.RWMutex
	templates map[string]string

	stop chan struct{}
	done chan struct{}
}

// NewPromptStore loads every *.txt file in dir as a named prompt template
// (named by filename without extension) and starts watching dir for
// changes. Call Close to stop watching.
func NewPromptStore(dir string, logger *zap.Logger) (*PromptStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	ps := &PromptStore{
		dir:       dir,
		logger:    logger,
		templates: make(map[string]string),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}

	if err := ps.loadAll(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating prompt watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching prompt dir: %w", err)
	}
	ps.watcher = watcher

	go ps.watch()

	return ps, nil
}

func (ps *PromptStore) loadAll() error {
	entries, err := os.ReadDir(ps.dir)
	if err != nil {
		return fmt.Errorf("reading prompt dir: %w", err)
	}

	loaded := make(map[string]string, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		path := filepath.Join(ps.dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading prompt %s: %w", entry.Name(), err)
		}
		name := strings.TrimSuffix(entry.Name(), ".txt")
		loaded[name] = string(data)
	}

	ps.mu.Lock()
	ps.templates = loaded
	ps.mu.Unlock()
	return nil
}

func (ps *PromptStore) watch() {
	defer close(ps.done)
	for {
		select {
		case <-ps.stop:
			return
		case event, ok := <-ps.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				if err := ps.loadAll(); err != nil {
					ps.logger.Warn("reloading prompts failed", zap.Error(err))
				} else {
					ps.logger.Debug("reloaded prompts", zap.String("trigger", event.Name))
				}
			}
		case err, ok := <-ps.watcher.Errors:
			if !ok {
				return
			}
			ps.logger.Warn("prompt watcher error", zap.Error(err))
		}
	}
}

// Render substitutes content into the named prompt's {CONTENT} placeholder.
func (ps *PromptStore) Render(name, content string) (string, error) {
	ps.mu.RLock()
	tmpl, ok := ps.templates[name]
	ps.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrPromptNotFound, name)
	}
	return strings.ReplaceAll(tmpl, contentPlaceholder, content), nil
}

// Close stops the filesystem watcher.
func (ps *PromptStore) Close() error {
	select {
	case <-ps.stop:
		return nil
	default:
		close(ps.stop)
	}
	if ps.watcher != nil {
		_ = ps.watcher.Close()
	}
	<-ps.done
	return nil
}
