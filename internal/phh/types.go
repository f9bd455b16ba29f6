package phh

// HandHistory represents a single poker hand encoded in PHH format.
// Players are listed in seat order; p1 is the lowest occupied seat.
type HandHistory struct {
	Variant           string         `toml:"variant"`
	Table             string         `toml:"table,omitempty"`
	SeatCount         int            `toml:"seat_count,omitempty"`
	Seats             []int          `toml:"seats,omitempty"`
	Antes             []float64      `toml:"antes"`
	BlindsOrStraddles []float64      `toml:"blinds_or_straddles"`
	MinBet            float64        `toml:"min_bet"`
	StartingStacks    []float64      `toml:"starting_stacks"`
	FinishingStacks   []float64      `toml:"finishing_stacks,omitempty"`
	Winnings          []float64      `toml:"winnings,omitempty"`
	Actions           []string       `toml:"actions"`
	Players           []string       `toml:"players,omitempty"`
	HandID            string         `toml:"hand"`
	Time              string         `toml:"time,omitempty"`
	TimeZoneAbbrev    string         `toml:"time_zone_abbreviation,omitempty"`
	Day               int            `toml:"day,omitempty"`
	Month             int            `toml:"month,omitempty"`
	Year              int            `toml:"year,omitempty"`
	Metadata          map[string]any `toml:"metadata,omitempty"`
}
