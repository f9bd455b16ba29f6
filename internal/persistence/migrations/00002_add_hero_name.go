package migrations

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/AkatukiSora/hh-replayer/internal/parser"
)

func init() {
	goose.AddMigrationContext(Up00002, Down00002)
}

// Up00002 adds hands.hero_name and fills it from the stored payload of the
// rows written before the column existed.
func Up00002(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, `ALTER TABLE hands ADD COLUMN hero_name TEXT NOT NULL DEFAULT ''`); err != nil {
		return fmt.Errorf("add hero_name column: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_hands_hero_name ON hands(hero_name)`); err != nil {
		return fmt.Errorf("create hero_name index: %w", err)
	}

	rows, err := tx.QueryContext(ctx, `SELECT hand_uid, payload_json FROM hands WHERE hero_name = ''`)
	if err != nil {
		return fmt.Errorf("query hands for hero backfill: %w", err)
	}
	heroes := make(map[string]string)
	for rows.Next() {
		var uid string
		var payload []byte
		if err := rows.Scan(&uid, &payload); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scan hand payload: %w", err)
		}
		var h parser.Hand
		if err := json.Unmarshal(payload, &h); err != nil {
			// Unreadable payloads keep an empty hero name.
			continue
		}
		if hero := h.Hero(); hero != nil {
			heroes[uid] = hero.Name
		}
	}
	if err := rows.Close(); err != nil {
		return fmt.Errorf("close hand rows: %w", err)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate hand rows: %w", err)
	}

	for uid, name := range heroes {
		if _, err := tx.ExecContext(ctx, `UPDATE hands SET hero_name = ? WHERE hand_uid = ?`, name, uid); err != nil {
			return fmt.Errorf("backfill hero_name for %s: %w", uid, err)
		}
	}
	return nil
}

func Down00002(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, `DROP INDEX IF EXISTS idx_hands_hero_name`); err != nil {
		return fmt.Errorf("drop hero_name index: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `ALTER TABLE hands DROP COLUMN hero_name`); err != nil {
		return fmt.Errorf("drop hero_name column: %w", err)
	}
	return nil
}
