package audio

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// FileRecorder replays answers from a directory of pre-recorded clips. Each
// capture consumes the next unprocessed file in name order; an empty
// directory yields an empty clip.
type FileRecorder struct {
	dir    string
	logger *slog.Logger

	mu        sync.Mutex
	processed map[string]bool
	active    bool
	clip      []byte
}

func NewFileRecorder(dir string, logger *slog.Logger) *FileRecorder {
	return &FileRecorder{
		dir:       dir,
		logger:    logger,
		processed: make(map[string]bool),
	}
}

func (f *FileRecorder) Name() string {
	return "file"
}

func (f *FileRecorder) Open() error {
	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return fmt.Errorf("creating audio dir: %w", err)
	}
	return nil
}

func (f *FileRecorder) Close() error {
	return nil
}

func (f *FileRecorder) Begin(_ context.Context, onLevel func(float64)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	clip, err := f.nextFile()
	if err != nil {
		return err
	}
	f.active = true
	f.clip = clip

	if onLevel != nil && len(clip) > 0 {
		onLevel(1)
	}
	return nil
}

func (f *FileRecorder) End() ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.active {
		return nil, nil
	}
	clip := f.clip
	f.active = false
	f.clip = nil
	return clip, nil
}

func (f *FileRecorder) nextFile() ([]byte, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("reading dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := mimeForFile(entry.Name()); !ok {
			continue
		}

		path := filepath.Join(f.dir, entry.Name())
		if f.processed[path] {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading file %s: %w", path, err)
		}

		f.processed[path] = true
		if err := os.Rename(path, path+".processed"); err != nil {
			f.logger.Warn("marking clip processed", "path", path, "error", err)
		}
		f.logger.Info("using recorded clip", "path", path, "bytes", len(data))
		return data, nil
	}

	f.logger.Debug("no unprocessed clips", "dir", f.dir)
	return nil, nil
}
