package parser

// CloneHand returns a fully independent deep copy of h.
// It is exported so that packages that already import parser (e.g. persistence)
// can reuse this instead of maintaining their own copy of the same logic.
func CloneHand(h *Hand) *Hand {
	if h == nil {
		return nil
	}
	copyHand := *h
	copyHand.Board = cloneCards(h.Board)
	copyHand.Blinds = cloneMap(h.Blinds)
	copyHand.Winnings = cloneMap(h.Winnings)
	copyHand.Antes = cloneMap(h.Antes)
	copyHand.BlindPostings = cloneMap(h.BlindPostings)

	if h.Players != nil {
		copyHand.Players = make([]Player, len(h.Players))
		for i, p := range h.Players {
			p.HoleCards = cloneCards(p.HoleCards)
			copyHand.Players[i] = p
		}
	}
	if h.Events != nil {
		copyHand.Events = make([]Event, len(h.Events))
		for i, e := range h.Events {
			e.Cards = cloneCards(e.Cards)
			copyHand.Events[i] = e
		}
	}
	return &copyHand
}

func cloneCards(in []Card) []Card {
	if in == nil {
		return nil
	}
	out := make([]Card, len(in))
	copy(out, in)
	return out
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	if in == nil {
		return nil
	}
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
