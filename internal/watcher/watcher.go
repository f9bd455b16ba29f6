package watcher

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/fsnotify/fsnotify"
)

// DefaultPollInterval is the fallback poll period when fsnotify misses a write.
const DefaultPollInterval = 500 * time.Millisecond

// HandHistoryWatcher tails a hand-history file and reports appended text.
type HandHistoryWatcher struct {
	Path     string
	offset   int64
	watcher  *fsnotify.Watcher
	clock    quartz.Clock
	interval time.Duration
	done     chan struct{}
	mu       sync.Mutex
	readMu   sync.Mutex
	stopOnce sync.Once

	cleanPath string
	onNewData func(text string, startOffset int64, endOffset int64)
	onNewFile func(path string)
	onError   func(err error)
}

type Config struct {
	// PollInterval defaults to DefaultPollInterval when zero.
	PollInterval time.Duration
	// Clock drives the poll ticker; nil means the real clock.
	Clock     quartz.Clock
	OnNewData func(text string, startOffset int64, endOffset int64)
	OnNewFile func(path string)
	OnError   func(err error)
}

// New creates a watcher for the given hand-history file.
func New(path string, cfg Config) (*HandHistoryWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = quartz.NewReal()
	}
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	return &HandHistoryWatcher{
		Path:      path,
		watcher:   w,
		clock:     clock,
		interval:  interval,
		done:      make(chan struct{}),
		cleanPath: filepath.Clean(path),
		onNewData: cfg.OnNewData,
		onNewFile: cfg.OnNewFile,
		onError:   cfg.OnError,
	}, nil
}

// Start reads any content past the current offset, then watches for growth.
func (hw *HandHistoryWatcher) Start() error {
	slog.Info("watcher starting", "path", hw.Path, "poll", hw.interval)
	// Watch the directory (more reliable than watching file directly)
	dir := filepath.Dir(hw.Path)
	if err := hw.watcher.Add(dir); err != nil {
		return fmt.Errorf("watch directory %s: %w", dir, err)
	}

	if err := hw.readNewContent(); err != nil && hw.onError != nil {
		hw.onError(err)
	}

	ticker := hw.clock.NewTicker(hw.interval, "watcher", "poll")
	go hw.watchLoop(ticker)
	return nil
}

// Stop stops the watcher. It is safe to call more than once.
func (hw *HandHistoryWatcher) Stop() {
	hw.stopOnce.Do(func() {
		slog.Info("watcher stopped", "path", hw.Path)
		close(hw.done)
		_ = hw.watcher.Close()
	})
}

// SetOffset sets the read offset (for resuming).
func (hw *HandHistoryWatcher) SetOffset(offset int64) {
	hw.mu.Lock()
	defer hw.mu.Unlock()
	hw.offset = offset
}

func (hw *HandHistoryWatcher) Offset() int64 {
	hw.mu.Lock()
	defer hw.mu.Unlock()
	return hw.offset
}

func (hw *HandHistoryWatcher) watchLoop(ticker *quartz.Ticker) {
	defer ticker.Stop()

	for {
		select {
		case <-hw.done:
			return
		case event, ok := <-hw.watcher.Events:
			if !ok {
				return
			}
			isSelf := filepath.Clean(event.Name) == hw.cleanPath
			if event.Has(fsnotify.Create) && !isSelf && IsHandHistoryFile(event.Name) && hw.onNewFile != nil {
				hw.onNewFile(event.Name)
			}
			if isSelf && (event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				if err := hw.readNewContent(); err != nil && hw.onError != nil {
					hw.onError(err)
				}
			}
		case err, ok := <-hw.watcher.Errors:
			if !ok {
				return
			}
			if hw.onError != nil {
				hw.onError(err)
			}
		case <-ticker.C:
			if err := hw.readNewContent(); err != nil && hw.onError != nil {
				hw.onError(err)
			}
		}
	}
}

func (hw *HandHistoryWatcher) readNewContent() error {
	hw.readMu.Lock()
	defer hw.readMu.Unlock()

	f, err := os.Open(hw.Path)
	if err != nil {
		return fmt.Errorf("open hand history: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat hand history: %w", err)
	}

	hw.mu.Lock()
	defer hw.mu.Unlock()
	if info.Size() < hw.offset {
		slog.Info("hand history truncated, rereading", "path", hw.Path, "size", info.Size(), "offset", hw.offset)
		hw.offset = 0
	}
	if info.Size() <= hw.offset {
		return nil
	}
	startOffset := hw.offset

	if _, err := f.Seek(startOffset, io.SeekStart); err != nil {
		return fmt.Errorf("seek hand history: %w", err)
	}
	data, err := io.ReadAll(io.LimitReader(f, info.Size()-startOffset))
	if err != nil {
		return fmt.Errorf("read hand history: %w", err)
	}
	endOffset := startOffset + int64(len(data))
	hw.offset = endOffset

	if len(data) > 0 && hw.onNewData != nil {
		slog.Debug("new data detected", "path", hw.Path, "bytes", len(data))
		hw.onNewData(string(data), startOffset, endOffset)
	}
	return nil
}

// DetectHandHistoryFiles lists the hand-history files in dir, newest first.
func DetectHandHistoryFiles(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", dir, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no hand history files found in %s", dir)
	}
	sortByModTimeDesc(matches)
	return matches, nil
}

// sortByModTimeDesc sorts paths newest-first using a single os.Stat per file.
func sortByModTimeDesc(paths []string) {
	modTimes := make(map[string]time.Time, len(paths))
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil {
			modTimes[p] = info.ModTime()
		}
	}
	sort.SliceStable(paths, func(i, j int) bool {
		return modTimes[paths[i]].After(modTimes[paths[j]])
	})
}

// IsHandHistoryFile reports whether path looks like an exported hand history.
func IsHandHistoryFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".txt")
}
