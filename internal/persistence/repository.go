package persistence

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AkatukiSora/hh-replayer/internal/parser"
)

// handNamespace scopes hand UIDs (UUIDv5) to this application.
var handNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/AkatukiSora/hh-replayer/hands"))

type HandFilter struct {
	SourcePath string
	HeroName   string
	// PlayerName matches hands in which the named player held a seat.
	PlayerName string
	// Limit and Offset are used by ListHandSummaries for pagination.
	// Limit == 0 means no limit (return all matching rows).
	Limit  int
	Offset int
}

type HandSourceRef struct {
	SourcePath string
	BlockIndex int
	HandUID    string
}

type PersistedHand struct {
	Hand   *parser.Hand
	Source HandSourceRef
}

// HandSummary is a lightweight hand record for list display.
// It avoids decoding the stored event payload.
type HandSummary struct {
	HandUID    string
	HandNumber string
	Date       string
	Stakes     string
	TableInfo  string
	NumPlayers int
	NumEvents  int
	TotalPot   float64

	// Hero fields stay empty when no hole cards were dealt to anyone.
	HeroName  string
	HeroCards string // e.g. "Ah Kd"
	HeroWon   float64

	// Board as space-separated string, e.g. "Ah Kd 2c"
	Board      string
	SourcePath string
	UpdatedAt  time.Time
}

type UpsertResult struct {
	Inserted int
	Updated  int
	Skipped  int
}

// ImportCursor records how far a hand-history file has been imported so a
// watcher can resume from the last complete hand block.
type ImportCursor struct {
	SourcePath      string
	NextByteOffset  int64
	LastHandUID     string
	HandsImported   int
	IsFullyImported bool
	UpdatedAt       time.Time
}

type HandRepository interface {
	UpsertHands(ctx context.Context, hands []PersistedHand) (UpsertResult, error)
	CountHands(ctx context.Context, f HandFilter) (int, error)
	// ListHandSummaries returns lightweight hand summaries for list display and
	// the total count of matching hands (ignoring Limit/Offset), ordered by
	// source path then position within the source.
	ListHandSummaries(ctx context.Context, f HandFilter) ([]HandSummary, int, error)
	// GetHandByUID returns the full hand data for a single hand UID.
	// Returns nil, nil if not found.
	GetHandByUID(ctx context.Context, uid string) (*parser.Hand, error)
}

type CursorRepository interface {
	GetCursor(ctx context.Context, sourcePath string) (*ImportCursor, error)
	SaveCursor(ctx context.Context, c ImportCursor) error
	// MarkFullyImported atomically sets is_fully_imported=1 on an existing cursor.
	// If no cursor row exists yet the call is a no-op.
	MarkFullyImported(ctx context.Context, sourcePath string) error
}

type ImportRepository interface {
	HandRepository
	CursorRepository
	// SaveImportBatch upserts hands and moves the cursor in one transaction.
	SaveImportBatch(ctx context.Context, hands []PersistedHand, cursor ImportCursor) (UpsertResult, error)
}

// GenerateHandUID derives a stable UUIDv5 from the content of a hand, so
// importing the same text twice yields the same UID. Parser-assigned ids and
// source locations are not part of the identity.
func GenerateHandUID(h *parser.Hand, src HandSourceRef) string {
	if h == nil {
		payload := "src:" + src.SourcePath + "|" + strconv.Itoa(src.BlockIndex)
		return uuid.NewSHA1(handNamespace, []byte(payload)).String()
	}

	b := strings.Builder{}
	b.WriteString("v1|")
	b.WriteString(h.HandNumber)
	b.WriteByte('|')
	b.WriteString(h.Date)
	b.WriteByte('|')
	b.WriteString(h.TableInfo)
	b.WriteByte('|')
	appendFloat(&b, h.TotalPot)

	b.WriteString("|B:")
	for _, c := range h.Board {
		b.WriteString(string(c))
		b.WriteByte(',')
	}

	b.WriteString("|P:")
	for _, p := range h.Players {
		b.WriteString(strconv.Itoa(p.Seat))
		b.WriteByte(':')
		b.WriteString(p.Name)
		b.WriteByte(':')
		appendFloat(&b, p.StartingChips)
		b.WriteByte(';')
	}

	b.WriteString("|E:")
	for _, e := range h.Events {
		b.WriteString(strconv.Itoa(int(e.Kind)))
		b.WriteByte('/')
		b.WriteString(e.Player)
		b.WriteByte('/')
		b.WriteString(strconv.Itoa(int(e.ActionType)))
		b.WriteByte('/')
		appendFloat(&b, e.BetAmount)
		b.WriteByte('/')
		appendFloat(&b, e.Amount)
		b.WriteByte(';')
	}

	return uuid.NewSHA1(handNamespace, []byte(b.String())).String()
}

func appendFloat(b *strings.Builder, v float64) {
	b.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
}

func joinCards(cards []parser.Card) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = string(c)
	}
	return strings.Join(parts, " ")
}

func heroOf(h *parser.Hand) (name, cards string, won float64) {
	hero := h.Hero()
	if hero == nil {
		return "", "", 0
	}
	return hero.Name, joinCards(hero.HoleCards), h.Winnings[hero.Name]
}
