package parser

// SuitSymbol returns the unicode symbol of the card's suit.
func (c Card) SuitSymbol() string {
	switch c.Suit() {
	case "h":
		return "♥"
	case "d":
		return "♦"
	case "c":
		return "♣"
	case "s":
		return "♠"
	}
	return "?"
}

// SuitColor names the four-colour deck colour of the card's suit.
func (c Card) SuitColor() string {
	switch c.Suit() {
	case "h":
		return "red"
	case "d":
		return "blue"
	case "c":
		return "green"
	case "s":
		return "black"
	}
	return ""
}

// Pretty returns the card as rank plus suit symbol ("A♠").
func (c Card) Pretty() string {
	if !c.Valid() {
		return string(c)
	}
	return c.Rank() + c.SuitSymbol()
}
