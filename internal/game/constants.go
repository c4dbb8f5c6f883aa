package game

import "time"

// Session timing
const (
	TickInterval     = time.Second
	MinSessionLength = 5 * time.Minute
)

// Location distribution
const (
	// PublishInterval is the minimum spacing between two forwarded location
	// updates for one publisher. Samples arriving sooner are dropped.
	PublishInterval = 5 * time.Second

	// MinDisplacementMeters mirrors the device location provider's distance
	// filter at the server boundary.
	MinDisplacementMeters = 10.0
)

// Codes
const (
	JoinCodeLength  = 6
	FoundCodeLength = 4
)
