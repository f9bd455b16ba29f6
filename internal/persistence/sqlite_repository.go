package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/AkatukiSora/hh-replayer/internal/parser"
	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// WAL mode reduces write latency by avoiding full fsync on every commit.
	// synchronous=NORMAL is safe with WAL and significantly faster than the default FULL.
	if _, err := db.Exec(`PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL; PRAGMA foreign_keys=ON;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set sqlite pragmas: %w", err)
	}
	repo := &SQLiteRepository{db: db}
	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// SchemaVersion reports the migration version of the open database.
func (r *SQLiteRepository) SchemaVersion() (int64, error) {
	return SchemaVersion(r.db)
}

func (r *SQLiteRepository) UpsertHands(ctx context.Context, hands []PersistedHand) (UpsertResult, error) {
	var res UpsertResult
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		res, err = r.upsertHandsTx(ctx, tx, hands)
		return err
	})
	if err != nil {
		return UpsertResult{}, err
	}
	return res, nil
}

func (r *SQLiteRepository) upsertHandsTx(ctx context.Context, tx *sql.Tx, hands []PersistedHand) (UpsertResult, error) {
	res := UpsertResult{}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	for _, ph := range hands {
		if ph.Hand == nil {
			res.Skipped++
			continue
		}
		h := ph.Hand
		uid := ph.Source.HandUID
		if uid == "" {
			uid = GenerateHandUID(h, ph.Source)
		}

		exists, err := rowExists(ctx, tx, `SELECT 1 FROM hands WHERE hand_uid = ? LIMIT 1`, uid)
		if err != nil {
			return UpsertResult{}, err
		}

		payload, err := json.Marshal(h)
		if err != nil {
			return UpsertResult{}, fmt.Errorf("encode hand %s: %w", uid, err)
		}
		heroName, _, _ := heroOf(h)

		if _, err := tx.ExecContext(ctx, `INSERT INTO hands(
			hand_uid, hand_number, date_text, stakes, table_info, hero_name,
			num_players, num_events, total_pot, board, payload_json,
			source_path, block_index, updated_at
		) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(hand_uid) DO UPDATE SET
			hand_number=excluded.hand_number,
			date_text=excluded.date_text,
			stakes=excluded.stakes,
			table_info=excluded.table_info,
			hero_name=excluded.hero_name,
			num_players=excluded.num_players,
			num_events=excluded.num_events,
			total_pot=excluded.total_pot,
			board=excluded.board,
			payload_json=excluded.payload_json,
			source_path=excluded.source_path,
			block_index=excluded.block_index,
			updated_at=excluded.updated_at`,
			uid,
			h.HandNumber,
			h.Date,
			h.Stakes,
			h.TableInfo,
			heroName,
			len(h.Players),
			len(h.Events),
			h.TotalPot,
			joinCards(h.Board),
			payload,
			ph.Source.SourcePath,
			ph.Source.BlockIndex,
			now,
		); err != nil {
			return UpsertResult{}, fmt.Errorf("upsert hand %s: %w", uid, err)
		}

		if err := clearHandChildrenTx(ctx, tx, uid); err != nil {
			return UpsertResult{}, err
		}
		if err := insertHandPlayersTx(ctx, tx, uid, h); err != nil {
			return UpsertResult{}, err
		}

		if exists {
			res.Updated++
		} else {
			res.Inserted++
		}
	}

	return res, nil
}

func insertHandPlayersTx(ctx context.Context, tx *sql.Tx, uid string, h *parser.Hand) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO hand_players(
		hand_uid, seat, name, starting_chips, bounty, hole_cards, is_hero, is_dealer, won
	) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare hand_players insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range h.Players {
		if _, err := stmt.ExecContext(ctx,
			uid,
			p.Seat,
			p.Name,
			p.StartingChips,
			nullIfEmpty(p.Bounty),
			joinCards(p.HoleCards),
			boolToInt(p.IsHero),
			boolToInt(p.IsDealer),
			h.Winnings[p.Name],
		); err != nil {
			return fmt.Errorf("insert hand player %s seat %d: %w", uid, p.Seat, err)
		}
	}
	return nil
}

func clearHandChildrenTx(ctx context.Context, tx *sql.Tx, handUID string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM hand_players WHERE hand_uid = ?`, handUID); err != nil {
		return fmt.Errorf("clear hand players %s: %w", handUID, err)
	}
	return nil
}

func (r *SQLiteRepository) GetHandByUID(ctx context.Context, uid string) (*parser.Hand, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx, `SELECT payload_json FROM hands WHERE hand_uid = ?`, uid).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetHandByUID query: %w", err)
	}
	var h parser.Hand
	if err := json.Unmarshal(payload, &h); err != nil {
		return nil, fmt.Errorf("decode hand %s: %w", uid, err)
	}
	return &h, nil
}

func (r *SQLiteRepository) ListHandSummaries(ctx context.Context, f HandFilter) ([]HandSummary, int, error) {
	where, args := buildHandsFilterWhere(f)

	query := `
SELECT
    h.hand_uid,
    h.hand_number,
    h.date_text,
    h.stakes,
    h.table_info,
    h.num_players,
    h.num_events,
    h.total_pot,
    h.hero_name,
    COALESCE(hp.hole_cards, '')  AS hero_cards,
    COALESCE(hp.won, 0)          AS hero_won,
    h.board,
    h.source_path,
    h.updated_at,
    COUNT(*) OVER()              AS total_count
FROM hands h
LEFT JOIN hand_players hp
    ON hp.hand_uid = h.hand_uid AND hp.is_hero = 1` +
		where + `
ORDER BY h.source_path ASC, h.block_index ASC, h.hand_uid ASC`

	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, f.Offset)
	} else if f.Offset > 0 {
		query += fmt.Sprintf(" LIMIT -1 OFFSET %d", f.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ListHandSummaries query: %w", err)
	}
	defer rows.Close()

	var out []HandSummary
	totalCount := 0
	for rows.Next() {
		var s HandSummary
		var updatedStr string
		var rowTotal int
		if err := rows.Scan(
			&s.HandUID,
			&s.HandNumber,
			&s.Date,
			&s.Stakes,
			&s.TableInfo,
			&s.NumPlayers,
			&s.NumEvents,
			&s.TotalPot,
			&s.HeroName,
			&s.HeroCards,
			&s.HeroWon,
			&s.Board,
			&s.SourcePath,
			&updatedStr,
			&rowTotal,
		); err != nil {
			return nil, 0, fmt.Errorf("ListHandSummaries scan: %w", err)
		}
		if totalCount == 0 {
			totalCount = rowTotal
		}
		s.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedStr)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("ListHandSummaries rows: %w", err)
	}

	// An offset past the end returns no row to carry the window count.
	if len(out) == 0 && f.Offset > 0 {
		totalCount, err = r.CountHands(ctx, f)
		if err != nil {
			return nil, 0, err
		}
	}
	return out, totalCount, nil
}

func (r *SQLiteRepository) CountHands(ctx context.Context, f HandFilter) (int, error) {
	where, args := buildHandsFilterWhere(f)
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM hands h`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("CountHands query: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) GetCursor(ctx context.Context, sourcePath string) (*ImportCursor, error) {
	q := `SELECT source_path, next_byte_offset, last_hand_uid, hands_imported, is_fully_imported, updated_at
		FROM import_cursors WHERE source_path = ?`
	row := r.db.QueryRowContext(ctx, q, sourcePath)
	var c ImportCursor
	var updatedAt string
	var isFullyImported int
	if err := row.Scan(
		&c.SourcePath,
		&c.NextByteOffset,
		&c.LastHandUID,
		&c.HandsImported,
		&isFullyImported,
		&updatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	c.IsFullyImported = isFullyImported == 1
	if t, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		c.UpdatedAt = t
	}
	return &c, nil
}

func (r *SQLiteRepository) SaveCursor(ctx context.Context, c ImportCursor) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		return saveCursorTx(ctx, tx, c)
	})
}

func (r *SQLiteRepository) MarkFullyImported(ctx context.Context, sourcePath string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE import_cursors SET is_fully_imported = 1, updated_at = ? WHERE source_path = ?`,
		time.Now().UTC().Format(time.RFC3339Nano), sourcePath)
	return err
}

func (r *SQLiteRepository) SaveImportBatch(ctx context.Context, hands []PersistedHand, c ImportCursor) (UpsertResult, error) {
	var res UpsertResult
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		res, err = r.upsertHandsTx(ctx, tx, hands)
		if err != nil {
			return err
		}
		return saveCursorTx(ctx, tx, c)
	})
	if err != nil {
		return UpsertResult{}, err
	}
	return res, nil
}

func saveCursorTx(ctx context.Context, tx *sql.Tx, c ImportCursor) error {
	updatedAt := c.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	q := `INSERT INTO import_cursors(
		source_path, next_byte_offset, last_hand_uid, hands_imported, is_fully_imported, updated_at
	) VALUES(?, ?, ?, ?, ?, ?)
	ON CONFLICT(source_path) DO UPDATE SET
		next_byte_offset=excluded.next_byte_offset,
		last_hand_uid=excluded.last_hand_uid,
		hands_imported=excluded.hands_imported,
		is_fully_imported=excluded.is_fully_imported,
		updated_at=excluded.updated_at`
	_, err := tx.ExecContext(
		ctx,
		q,
		c.SourcePath,
		c.NextByteOffset,
		c.LastHandUID,
		c.HandsImported,
		boolToInt(c.IsFullyImported),
		updatedAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}

func rowExists(ctx context.Context, tx *sql.Tx, query string, args ...any) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func buildHandsFilterWhere(f HandFilter) (string, []any) {
	where := " WHERE 1=1"
	args := make([]any, 0, 3)
	if f.SourcePath != "" {
		where += ` AND h.source_path = ?`
		args = append(args, f.SourcePath)
	}
	if f.HeroName != "" {
		where += ` AND h.hero_name = ?`
		args = append(args, f.HeroName)
	}
	if f.PlayerName != "" {
		where += ` AND EXISTS (SELECT 1 FROM hand_players p WHERE p.hand_uid = h.hand_uid AND p.name = ?)`
		args = append(args, f.PlayerName)
	}
	return where, args
}

func (r *SQLiteRepository) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
