package cookie

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// FileSource serves cookies from a file holding one raw Cookie header line,
// such as one copied out of a browser's developer tools.
//
// The file is read once and cached. Watch keeps the cache fresh while the
// file is edited or replaced.
type FileSource struct {
	path   string
	logger *slog.Logger

	mu     sync.RWMutex
	raw    string
	loaded bool
	// gen counts invalidations; a read only fills the cache if none
	// happened while it was in flight.
	gen uint64

	readFile func(string) ([]byte, error)

	watcher *fsnotify.Watcher
}

// NewFileSource creates a source over path. The file is not read until the
// first lookup.
func NewFileSource(path string, logger *slog.Logger) *FileSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileSource{
		path:     filepath.Clean(path),
		logger:   logger,
		readFile: os.ReadFile,
	}
}

// Path returns the watched file path.
func (s *FileSource) Path() string {
	return s.path
}

// Cookie implements Source.
func (s *FileSource) Cookie(name string) (string, bool) {
	return Lookup(s.Header(), name)
}

// Header implements Store. A missing or unreadable file yields "".
func (s *FileSource) Header() string {
	s.mu.RLock()
	if s.loaded {
		raw := s.raw
		s.mu.RUnlock()
		return raw
	}
	gen := s.gen
	s.mu.RUnlock()

	data, err := s.readFile(s.path)
	if err != nil {
		s.logger.Debug("Cookie file unreadable", "path", s.path, "error", err)
		return ""
	}
	raw := strings.TrimSpace(string(data))

	s.mu.Lock()
	if s.gen == gen {
		s.raw = raw
		s.loaded = true
	}
	s.mu.Unlock()
	return raw
}

// Invalidate drops the cached contents so the next lookup rereads the file.
func (s *FileSource) Invalidate() {
	s.mu.Lock()
	s.raw = ""
	s.loaded = false
	s.gen++
	s.mu.Unlock()
}

// Watch invalidates the cache whenever the file changes. It watches the
// parent directory so editors that replace the file are noticed too.
// Watching stops when ctx is done or Close is called.
func (s *FileSource) Watch(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(s.path)); err != nil {
		fsw.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(s.path), err)
	}

	s.mu.Lock()
	s.watcher = fsw
	s.mu.Unlock()

	go s.processEvents(ctx, fsw)

	s.logger.Debug("Cookie file watcher started", "path", s.path)
	return nil
}

func (s *FileSource) processEvents(ctx context.Context, fsw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			fsw.Close()
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != s.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			s.Invalidate()
			s.logger.Debug("Cookie file changed", "path", s.path, "op", event.Op.String())
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			s.logger.Warn("Cookie file watcher error", "path", s.path, "error", err)
		}
	}
}

// Close stops the watcher, if one is running.
func (s *FileSource) Close() error {
	s.mu.Lock()
	fsw := s.watcher
	s.watcher = nil
	s.mu.Unlock()
	if fsw == nil {
		return nil
	}
	return fsw.Close()
}
