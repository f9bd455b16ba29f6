package parser

import (
	"regexp"
	"strconv"
	"strings"
)

// A numeric token may carry thousands separators (comma or non-breaking
// space) and a dot decimal part.
var (
	reNumber   = regexp.MustCompile(`\d+(?:[,\x{00A0}\x{202F}]\d{3})*(?:\.\d+)?`)
	reRaiseTo  = regexp.MustCompile(`(?i)\bto\s+[^\d\s]?(\d+(?:[,\x{00A0}\x{202F}]\d{3})*(?:\.\d+)?)`)
	separators = strings.NewReplacer(",", "", "\u00a0", "", "\u202f", "")
)

// ParseAmount extracts the first numeric token of s. It returns 0 when s
// carries no number.
func ParseAmount(s string) float64 {
	tok := reNumber.FindString(s)
	if tok == "" {
		return 0
	}
	return parseNumberToken(tok)
}

func parseNumberToken(tok string) float64 {
	v, err := strconv.ParseFloat(separators.Replace(tok), 64)
	if err != nil {
		return 0
	}
	return v
}

// ExtractBetAmount returns the wagered amount carried by the text that
// follows an action verb. Raises prefer the "to X" total; calls and bets use
// the first number; folds and checks carry none.
func ExtractBetAmount(action ActionType, rest string) float64 {
	switch action {
	case ActionRaise:
		if m := reRaiseTo.FindStringSubmatch(rest); m != nil {
			return parseNumberToken(m[1])
		}
		return ParseAmount(rest)
	case ActionCall, ActionBet:
		return ParseAmount(rest)
	default:
		return 0
	}
}

// FormatNumber renders v without trailing zeros ("100", "0.5").
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
