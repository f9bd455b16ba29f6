package phh

import (
	"fmt"
	"io"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Encode writes the hand history to the provided writer in PHH TOML format.
func Encode(w io.Writer, hand *HandHistory) error {
	if hand == nil {
		return fmt.Errorf("phh: hand history is nil")
	}

	enc := toml.NewEncoder(w)
	// Use tabs for arrays to match human expectations
	enc.Indent = "\t"
	return enc.Encode(hand)
}

// EncodeAll writes hands as one PHHS document, each hand under a numbered
// table starting at [1].
func EncodeAll(w io.Writer, hands []*HandHistory) error {
	for i, hand := range hands {
		if hand == nil {
			return fmt.Errorf("phh: hand history %d is nil", i+1)
		}
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		enc := toml.NewEncoder(w)
		enc.Indent = "\t"
		if err := enc.Encode(map[string]*HandHistory{strconv.Itoa(i + 1): hand}); err != nil {
			return fmt.Errorf("phh: encode hand %d: %w", i+1, err)
		}
	}
	return nil
}
