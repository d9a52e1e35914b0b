package kitchen

import "time"

// Rules holds the timing and scoring constants enforced by the server
type Rules struct {
	TickInterval     time.Duration // how often every room is scanned
	CookingTimeout   time.Duration // a bake older than this burns
	CustomerPatience time.Duration // a customer waiting longer than this leaves
	RevivalDelay     time.Duration // delay before a table gets a new customer
	Penalty          int           // points lost per burned pizza or lost customer
	MaxCodeAttempts  int
}

// DefaultRules returns the rules the game clients are built against
func DefaultRules() Rules {
	return Rules{
		TickInterval:     time.Second,
		CookingTimeout:   10 * time.Second,
		CustomerPatience: 60 * time.Second,
		RevivalDelay:     2 * time.Second,
		Penalty:          5,
		MaxCodeAttempts:  10,
	}
}
