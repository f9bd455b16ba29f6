package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"runtime"
	"strings"
	"time"

	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/AkatukiSora/hh-replayer/internal/parser"
	"github.com/AkatukiSora/hh-replayer/internal/persistence"
	"github.com/AkatukiSora/hh-replayer/internal/replay"
	"github.com/AkatukiSora/hh-replayer/internal/watcher"
)

// ErrHandNotFound is returned when no stored hand has the requested UID.
var ErrHandNotFound = errors.New("hand not found")

// AppService is the interface the CLI depends on for imports and lookups.
// application.Service satisfies this interface.
type AppService interface {
	ImportText(ctx context.Context, source, text string) (ImportResult, error)
	ImportFile(ctx context.Context, path string) (ImportResult, error)
	ImportFiles(ctx context.Context, paths []string) ([]ImportResult, error)
	ImportFS(ctx context.Context, fsys fs.FS, prefix string) ([]ImportResult, error)
	ListHands(ctx context.Context, f persistence.HandFilter) ([]persistence.HandSummary, int, error)
	// GetHand returns ErrHandNotFound when uid is unknown.
	GetHand(ctx context.Context, uid string) (*parser.Hand, error)
	Replay(ctx context.Context, uid string, cursor int) (*parser.Hand, *replay.TableState, error)
	Watch(ctx context.Context, path string, onImport func(ImportResult)) error
	Close() error
}

// ImportResult reports what one import call did to the store.
type ImportResult struct {
	Source string
	// Hands is the number of hands parsed from the new text.
	Hands int
	persistence.UpsertResult
	// Unchanged is set when the source was already fully imported and has
	// not grown since.
	Unchanged bool
}

type Service struct {
	repo         persistence.ImportRepository
	clock        quartz.Clock
	pollInterval time.Duration
	workers      int
}

type Option func(*Service)

// WithClock sets the clock driving the watch poll loop.
func WithClock(c quartz.Clock) Option {
	return func(s *Service) { s.clock = c }
}

func WithPollInterval(d time.Duration) Option {
	return func(s *Service) { s.pollInterval = d }
}

// WithWorkers caps the number of files parsed concurrently by ImportFiles.
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

func NewService(repo persistence.ImportRepository, opts ...Option) *Service {
	workers := runtime.GOMAXPROCS(0)
	if workers > 4 {
		workers = 4
	}
	s := &Service{
		repo:         repo,
		clock:        quartz.NewReal(),
		pollInterval: watcher.DefaultPollInterval,
		workers:      workers,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// parsedSource is the outcome of parsing one source. It does not touch the
// database.
type parsedSource struct {
	source    string
	hands     []persistence.PersistedHand
	cursor    persistence.ImportCursor
	unchanged bool
}

// ImportText parses text and stores its hands under source. No import cursor
// is kept for text imports.
func (s *Service) ImportText(ctx context.Context, source, text string) (ImportResult, error) {
	if err := ctx.Err(); err != nil {
		return ImportResult{}, err
	}
	rows := persistedHands(source, 0, parser.Parse(text))
	res, err := s.repo.UpsertHands(ctx, rows)
	if err != nil {
		return ImportResult{}, fmt.Errorf("store hands from %s: %w", source, err)
	}
	slog.Debug("text imported", "source", source, "hands", len(rows), "inserted", res.Inserted, "updated", res.Updated)
	return ImportResult{Source: source, Hands: len(rows), UpsertResult: res}, nil
}

// ImportFile imports path, resuming after the bytes recorded by its import
// cursor. The whole remaining file is treated as complete hands.
func (s *Service) ImportFile(ctx context.Context, path string) (ImportResult, error) {
	cursor, err := s.repo.GetCursor(ctx, path)
	if err != nil {
		slog.Warn("failed to load cursor, scanning from start", "path", path, "error", err)
		cursor = nil
	}
	ps, err := parseFile(ctx, path, cursor)
	if err != nil {
		return ImportResult{}, err
	}
	return s.store(ctx, ps)
}

// ImportFiles parses paths concurrently and writes them to the store serially
// in the given order.
func (s *Service) ImportFiles(ctx context.Context, paths []string) ([]ImportResult, error) {
	cursors := make([]*persistence.ImportCursor, len(paths))
	for i, p := range paths {
		c, err := s.repo.GetCursor(ctx, p)
		if err != nil {
			slog.Warn("failed to load cursor, scanning from start", "path", p, "error", err)
			c = nil
		}
		cursors[i] = c
	}

	slog.Debug("parallel parse", "files", len(paths), "workers", s.workers)
	parsed := make([]parsedSource, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, p := range paths {
		g.Go(func() error {
			ps, err := parseFile(gctx, p, cursors[i])
			if err != nil {
				return err
			}
			parsed[i] = ps
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := make([]ImportResult, 0, len(parsed))
	for _, ps := range parsed {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := s.store(ctx, ps)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	slog.Info("import complete", "files", len(paths))
	return results, nil
}

var _ AppService = (*Service)(nil)

// ImportFS imports every *.txt file of fsys, in lexical path order, such as
// the entries of a zip archive. Hands are stored under prefix joined with the
// file's path in fsys.
func (s *Service) ImportFS(ctx context.Context, fsys fs.FS, prefix string) ([]ImportResult, error) {
	var files []string
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(path.Ext(p), ".txt") {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk hand histories: %w", err)
	}

	results := make([]ImportResult, 0, len(files))
	for _, name := range files {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return results, fmt.Errorf("read %s: %w", name, err)
		}
		res, err := s.ImportText(ctx, path.Join(prefix, name), string(data))
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

func (s *Service) ListHands(ctx context.Context, f persistence.HandFilter) ([]persistence.HandSummary, int, error) {
	return s.repo.ListHandSummaries(ctx, f)
}

func (s *Service) GetHand(ctx context.Context, uid string) (*parser.Hand, error) {
	h, err := s.repo.GetHandByUID(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("load hand %s: %w", uid, err)
	}
	if h == nil {
		return nil, fmt.Errorf("%w: %s", ErrHandNotFound, uid)
	}
	return h, nil
}

// Replay loads a stored hand and reconstructs its table at cursor.
func (s *Service) Replay(ctx context.Context, uid string, cursor int) (*parser.Hand, *replay.TableState, error) {
	h, err := s.GetHand(ctx, uid)
	if err != nil {
		return nil, nil, err
	}
	return h, replay.Compute(h, cursor), nil
}

// Watch tails path and imports every hand completed after the file's import
// cursor, until ctx is done. Text after the last block separator is held
// back until the hand is finished. onImport may be nil.
func (s *Service) Watch(ctx context.Context, path string, onImport func(ImportResult)) error {
	cursor, err := s.repo.GetCursor(ctx, path)
	if err != nil {
		return fmt.Errorf("load cursor for %s: %w", path, err)
	}
	t := &tail{source: path}
	if cursor != nil {
		t.base = cursor.NextByteOffset
		t.handsImported = cursor.HandsImported
		t.lastUID = cursor.LastHandUID
	}

	hw, err := watcher.New(path, watcher.Config{
		PollInterval: s.pollInterval,
		Clock:        s.clock,
		OnNewData: func(text string, start, end int64) {
			if start < t.base+int64(len(t.pending)) {
				// The file was truncated and is being reread from the top.
				t.reset()
				t.base = start
			}
			res, err := s.consumeTail(ctx, t, text)
			if err != nil {
				slog.Warn("failed to import new hands", "path", path, "error", err)
				return
			}
			if res.Hands > 0 && onImport != nil {
				onImport(res)
			}
		},
		OnNewFile: func(p string) {
			slog.Info("new hand history file detected", "path", p)
		},
		OnError: func(err error) {
			slog.Warn("watcher error", "path", path, "error", err)
		},
	})
	if err != nil {
		return err
	}
	hw.SetOffset(t.base)
	if err := hw.Start(); err != nil {
		hw.Stop()
		return err
	}
	<-ctx.Done()
	hw.Stop()
	return nil
}

// tail holds the unfinished text of a watched file. Its callbacks are
// serialised by the watcher.
type tail struct {
	source        string
	base          int64
	pending       string
	handsImported int
	lastUID       string
}

func (t *tail) reset() {
	t.base = 0
	t.pending = ""
	t.handsImported = 0
}

func (s *Service) consumeTail(ctx context.Context, t *tail, text string) (ImportResult, error) {
	t.pending += text
	cut := parser.CompleteBlocksEnd(t.pending)
	if cut == 0 {
		return ImportResult{Source: t.source}, nil
	}

	rows := persistedHands(t.source, t.handsImported, parser.Parse(t.pending[:cut]))
	next := persistence.ImportCursor{
		SourcePath:     t.source,
		NextByteOffset: t.base + int64(cut),
		LastHandUID:    t.lastUID,
		HandsImported:  t.handsImported + len(rows),
		UpdatedAt:      s.clock.Now(),
	}
	if len(rows) > 0 {
		next.LastHandUID = rows[len(rows)-1].Source.HandUID
	}
	res, err := s.repo.SaveImportBatch(ctx, rows, next)
	if err != nil {
		return ImportResult{}, fmt.Errorf("save imported hands: %w", err)
	}

	t.base = next.NextByteOffset
	t.pending = t.pending[cut:]
	t.handsImported = next.HandsImported
	t.lastUID = next.LastHandUID
	slog.Debug("tail imported", "path", t.source, "hands", len(rows), "offset", t.base)
	return ImportResult{Source: t.source, Hands: len(rows), UpsertResult: res}, nil
}

func (s *Service) Close() error {
	if c, ok := s.repo.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

func (s *Service) store(ctx context.Context, ps parsedSource) (ImportResult, error) {
	if ps.unchanged {
		slog.Debug("skipping fully-imported file", "path", ps.source)
		return ImportResult{Source: ps.source, Unchanged: true}, nil
	}
	res, err := s.repo.SaveImportBatch(ctx, ps.hands, ps.cursor)
	if err != nil {
		return ImportResult{}, fmt.Errorf("save %q: %w", ps.source, err)
	}
	if err := s.repo.MarkFullyImported(ctx, ps.source); err != nil {
		slog.Warn("failed to mark file as fully imported", "path", ps.source, "error", err)
	}
	slog.Info("file imported", "path", ps.source, "hands", len(ps.hands), "inserted", res.Inserted, "updated", res.Updated)
	return ImportResult{Source: ps.source, Hands: len(ps.hands), UpsertResult: res}, nil
}

// parseFile reads path from the cursor's offset to the end and parses the
// text read.
func parseFile(ctx context.Context, path string, cursor *persistence.ImportCursor) (parsedSource, error) {
	if err := ctx.Err(); err != nil {
		return parsedSource{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return parsedSource{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return parsedSource{}, fmt.Errorf("stat %s: %w", path, err)
	}

	start := int64(0)
	handsImported := 0
	lastUID := ""
	if cursor != nil && cursor.NextByteOffset <= info.Size() {
		if cursor.IsFullyImported && cursor.NextByteOffset == info.Size() {
			return parsedSource{source: path, unchanged: true}, nil
		}
		start = cursor.NextByteOffset
		handsImported = cursor.HandsImported
		lastUID = cursor.LastHandUID
	}
	if start > 0 {
		slog.Debug("resuming file parse from offset", "path", path, "offset", start)
		if _, err := f.Seek(start, io.SeekStart); err != nil {
			return parsedSource{}, fmt.Errorf("seek %s: %w", path, err)
		}
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return parsedSource{}, fmt.Errorf("read %s: %w", path, err)
	}

	rows := persistedHands(path, handsImported, parser.Parse(string(data)))
	if len(rows) > 0 {
		lastUID = rows[len(rows)-1].Source.HandUID
	}
	return parsedSource{
		source: path,
		hands:  rows,
		cursor: persistence.ImportCursor{
			SourcePath:     path,
			NextByteOffset: start + int64(len(data)),
			LastHandUID:    lastUID,
			HandsImported:  handsImported + len(rows),
			UpdatedAt:      time.Now(),
		},
	}, nil
}

func persistedHands(source string, firstBlock int, hands []*parser.Hand) []persistence.PersistedHand {
	rows := make([]persistence.PersistedHand, 0, len(hands))
	for i, h := range hands {
		ref := persistence.HandSourceRef{SourcePath: source, BlockIndex: firstBlock + i}
		ref.HandUID = persistence.GenerateHandUID(h, ref)
		rows = append(rows, persistence.PersistedHand{Hand: h, Source: ref})
	}
	return rows
}
