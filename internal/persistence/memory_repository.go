package persistence

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/AkatukiSora/hh-replayer/internal/parser"
)

type inMemoryEntry struct {
	hand      *parser.Hand
	source    HandSourceRef
	updatedAt time.Time
}

type MemoryRepository struct {
	mu      sync.RWMutex
	hands   map[string]inMemoryEntry
	cursors map[string]ImportCursor
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		hands:   make(map[string]inMemoryEntry),
		cursors: make(map[string]ImportCursor),
	}
}

func (r *MemoryRepository) UpsertHands(_ context.Context, hands []PersistedHand) (UpsertResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.upsertHandsLocked(hands), nil
}

func (r *MemoryRepository) upsertHandsLocked(hands []PersistedHand) UpsertResult {
	res := UpsertResult{}
	now := time.Now().UTC()
	for _, ph := range hands {
		if ph.Hand == nil {
			res.Skipped++
			continue
		}
		uid := ph.Source.HandUID
		if uid == "" {
			uid = GenerateHandUID(ph.Hand, ph.Source)
		}
		src := ph.Source
		src.HandUID = uid
		if _, ok := r.hands[uid]; ok {
			res.Updated++
		} else {
			res.Inserted++
		}
		r.hands[uid] = inMemoryEntry{hand: parser.CloneHand(ph.Hand), source: src, updatedAt: now}
	}
	return res
}

func (r *MemoryRepository) matching(f HandFilter) []inMemoryEntry {
	out := make([]inMemoryEntry, 0, len(r.hands))
	for _, entry := range r.hands {
		h := entry.hand
		if f.SourcePath != "" && entry.source.SourcePath != f.SourcePath {
			continue
		}
		if f.HeroName != "" {
			if hero := h.Hero(); hero == nil || hero.Name != f.HeroName {
				continue
			}
		}
		if f.PlayerName != "" && h.Player(f.PlayerName) == nil {
			continue
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].source, out[j].source
		if a.SourcePath != b.SourcePath {
			return a.SourcePath < b.SourcePath
		}
		if a.BlockIndex != b.BlockIndex {
			return a.BlockIndex < b.BlockIndex
		}
		return a.HandUID < b.HandUID
	})
	return out
}

func (r *MemoryRepository) ListHandSummaries(_ context.Context, f HandFilter) ([]HandSummary, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := r.matching(f)
	total := len(entries)
	if f.Offset > 0 {
		if f.Offset >= len(entries) {
			entries = nil
		} else {
			entries = entries[f.Offset:]
		}
	}
	if f.Limit > 0 && len(entries) > f.Limit {
		entries = entries[:f.Limit]
	}

	out := make([]HandSummary, 0, len(entries))
	for _, e := range entries {
		out = append(out, summarize(e.hand, e.source, e.updatedAt))
	}
	return out, total, nil
}

func (r *MemoryRepository) CountHands(_ context.Context, f HandFilter) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.matching(f)), nil
}

func (r *MemoryRepository) GetHandByUID(_ context.Context, uid string) (*parser.Hand, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.hands[uid]
	if !ok {
		return nil, nil
	}
	return parser.CloneHand(entry.hand), nil
}

func (r *MemoryRepository) GetCursor(_ context.Context, sourcePath string) (*ImportCursor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.cursors[sourcePath]
	if !ok {
		return nil, nil
	}
	copyCursor := c
	return &copyCursor, nil
}

func (r *MemoryRepository) SaveCursor(_ context.Context, c ImportCursor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = time.Now()
	}
	r.cursors[c.SourcePath] = c
	return nil
}

func (r *MemoryRepository) MarkFullyImported(_ context.Context, sourcePath string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.cursors[sourcePath]
	if !ok {
		return nil
	}
	c.IsFullyImported = true
	c.UpdatedAt = time.Now()
	r.cursors[sourcePath] = c
	return nil
}

func (r *MemoryRepository) SaveImportBatch(_ context.Context, hands []PersistedHand, c ImportCursor) (UpsertResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := r.upsertHandsLocked(hands)
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = time.Now()
	}
	r.cursors[c.SourcePath] = c
	return res, nil
}

func summarize(h *parser.Hand, src HandSourceRef, updatedAt time.Time) HandSummary {
	heroName, heroCards, heroWon := heroOf(h)
	return HandSummary{
		HandUID:    src.HandUID,
		HandNumber: h.HandNumber,
		Date:       h.Date,
		Stakes:     h.Stakes,
		TableInfo:  h.TableInfo,
		NumPlayers: len(h.Players),
		NumEvents:  len(h.Events),
		TotalPot:   h.TotalPot,
		HeroName:   heroName,
		HeroCards:  heroCards,
		HeroWon:    heroWon,
		Board:      joinCards(h.Board),
		SourcePath: src.SourcePath,
		UpdatedAt:  updatedAt,
	}
}
