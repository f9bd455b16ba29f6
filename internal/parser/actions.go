package parser

// FormattedText returns the display text of e. Betting actions with an
// amount are rendered from BetAmount; everything else keeps its text.
func (e Event) FormattedText() string {
	if !e.ActionType.IsBetting() || e.BetAmount == 0 {
		return e.Text
	}
	return actionText(e.ActionType, e.BetAmount)
}

// LastPlayerEvent returns the event with the highest index that involves
// player.
func LastPlayerEvent(events []Event, player string) (Event, bool) {
	var (
		last  Event
		found bool
	)
	for _, e := range events {
		if e.Player != player {
			continue
		}
		if !found || e.Index > last.Index {
			last, found = e, true
		}
	}
	return last, found
}
