package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/coder/quartz"
)

type chunk struct {
	text       string
	start, end int64
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "hands.txt")
	if err := os.WriteFile(path, []byte(""), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	hw, err := New(path, Config{})
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}

	hw.Stop()
	hw.Stop()
}

func TestWatcherReadsExistingContentOnStart(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "hands.txt")
	if err := os.WriteFile(path, []byte("Hand #1\n"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	got := make(chan chunk, 4)
	hw, err := New(path, Config{
		Clock: quartz.NewMock(t),
		OnNewData: func(text string, start, end int64) {
			got <- chunk{text, start, end}
		},
	})
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer hw.Stop()

	if err := hw.Start(); err != nil {
		t.Fatalf("start watcher: %v", err)
	}

	select {
	case c := <-got:
		if c.text != "Hand #1\n" || c.start != 0 || c.end != 8 {
			t.Fatalf("unexpected chunk %+v", c)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for initial content")
	}
	if hw.Offset() != 8 {
		t.Fatalf("offset = %d, want 8", hw.Offset())
	}
}

func TestWatcherPollDeliversAppendedText(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "hands.txt")
	if err := os.WriteFile(path, []byte("old"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	mClock := quartz.NewMock(t)
	got := make(chan chunk, 16)
	hw, err := New(path, Config{
		Clock:        mClock,
		PollInterval: time.Second,
		OnNewData: func(text string, start, end int64) {
			got <- chunk{text, start, end}
		},
	})
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer hw.Stop()

	// Skip the existing content.
	hw.SetOffset(3)
	if err := hw.Start(); err != nil {
		t.Fatalf("start watcher: %v", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		t.Fatalf("open for append: %v", err)
	}
	if _, err := f.WriteString(" new"); err != nil {
		t.Fatalf("append: %v", err)
	}
	_ = f.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for {
		mClock.Advance(time.Second).MustWait(ctx)
		select {
		case c := <-got:
			if c.text != " new" || c.start != 3 || c.end != 7 {
				t.Fatalf("unexpected chunk %+v", c)
			}
			return
		case <-time.After(50 * time.Millisecond):
		case <-ctx.Done():
			t.Fatalf("timed out waiting for appended text")
		}
	}
}

func TestWatcherResetsOffsetOnTruncate(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "hands.txt")
	if err := os.WriteFile(path, []byte("ab"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	var chunks []chunk
	hw, err := New(path, Config{OnNewData: func(text string, start, end int64) {
		chunks = append(chunks, chunk{text, start, end})
	}})
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer hw.Stop()
	hw.SetOffset(10)

	if err := hw.readNewContent(); err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(chunks) != 1 || chunks[0].text != "ab" || chunks[0].start != 0 {
		t.Fatalf("unexpected chunks after truncation: %+v", chunks)
	}
	if err := hw.readNewContent(); err != nil {
		t.Fatalf("second read: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("second read without growth delivered %d chunks", len(chunks))
	}
}

func TestWatcherDetectsNewHandHistoryOnCreate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	current := filepath.Join(dir, "table_1.txt")
	if err := os.WriteFile(current, []byte(""), 0o600); err != nil {
		t.Fatalf("write current file: %v", err)
	}

	newFileCh := make(chan string, 4)
	hw, err := New(current, Config{
		Clock: quartz.NewMock(t),
		OnNewFile: func(path string) {
			select {
			case newFileCh <- path:
			default:
			}
		},
	})
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer hw.Stop()

	if err := hw.Start(); err != nil {
		t.Fatalf("start watcher: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "notes.log"), []byte("ignore me"), 0o600); err != nil {
		t.Fatalf("write non-history file: %v", err)
	}
	next := filepath.Join(dir, "table_2.txt")
	if err := os.WriteFile(next, []byte("Hand #2"), 0o600); err != nil {
		t.Fatalf("write new file: %v", err)
	}

	select {
	case got := <-newFileCh:
		if filepath.Clean(got) != filepath.Clean(next) {
			t.Fatalf("detected path = %q, want %q", got, next)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for new file detection")
	}
}

func TestDetectHandHistoryFilesNewestFirst(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	older := filepath.Join(dir, "older.txt")
	newer := filepath.Join(dir, "newer.txt")
	for _, p := range []string{older, newer, filepath.Join(dir, "skip.log")} {
		if err := os.WriteFile(p, []byte("x"), 0o600); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(older, past, past); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	files, err := DetectHandHistoryFiles(dir)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if len(files) != 2 || files[0] != newer || files[1] != older {
		t.Fatalf("files = %v", files)
	}

	if _, err := DetectHandHistoryFiles(t.TempDir()); err == nil {
		t.Fatalf("expected error for empty directory")
	}
}
