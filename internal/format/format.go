// Package format renders chip amounts for display, either as a literal
// locale-grouped number or relative to the big blind.
package format

import (
	"math"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// DefaultLocale is used when no locale is configured.
var DefaultLocale = language.French

// Formatter formats amounts for one locale. It is safe for concurrent use.
type Formatter struct {
	printer *message.Printer
}

func New(tag language.Tag) *Formatter {
	return &Formatter{printer: message.NewPrinter(tag)}
}

// NewFromString parses a BCP 47 locale such as "fr-FR" or "en". An empty or
// invalid value falls back to DefaultLocale.
func NewFromString(locale string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil || locale == "" {
		tag = DefaultLocale
	}
	return New(tag)
}

// FormatAmount renders amount in big blinds rounded to one decimal ("2.5BB")
// when showInBB is set and bigBlind is positive; otherwise it renders the
// literal amount with the locale's digit grouping.
func (f *Formatter) FormatAmount(amount float64, showInBB bool, bigBlind float64) string {
	if showInBB && bigBlind > 0 {
		return BB(amount, bigBlind)
	}
	return f.printer.Sprint(number.Decimal(amount, number.MaxFractionDigits(3)))
}

// BB returns amount/bigBlind rounded half up to one decimal, suffixed "BB".
func BB(amount, bigBlind float64) string {
	v := math.Floor(amount/bigBlind*10+0.5) / 10
	return strconv.FormatFloat(v, 'f', -1, 64) + "BB"
}

var defaultFormatter = New(DefaultLocale)

// FormatAmount formats with the default locale.
func FormatAmount(amount float64, showInBB bool, bigBlind float64) string {
	return defaultFormatter.FormatAmount(amount, showInBB, bigBlind)
}
