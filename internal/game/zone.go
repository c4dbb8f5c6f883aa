package game

import "time"

type ZonePhase int

const (
	PhaseActive ZonePhase = iota
	PhaseCollapsed
	PhaseExpired
)

func (p ZonePhase) String() string {
	switch p {
	case PhaseCollapsed:
		return "collapsed"
	case PhaseExpired:
		return "expired"
	default:
		return "active"
	}
}

// Terminal reports whether the phase ends the session.
func (p ZonePhase) Terminal() bool {
	return p != PhaseActive
}

// ZoneEvent is the outcome of one tick.
type ZoneEvent int

const (
	EventNone ZoneEvent = iota
	EventRadiusUpdated
	EventCollapsed
	EventExpired
)

// ZoneState is the live zone for one session. It is not safe for concurrent
// use; the owning session serializes access.
type ZoneState struct {
	cfg *GameConfig

	Phase        ZonePhase
	RadiusMeters int
	NextUpdateAt time.Time
	Center       Coordinate

	// Now is a wall-clock snapshot refreshed every tick for countdown
	// display. Decay is gated on NextUpdateAt, never recomputed from Now.
	Now time.Time
}

// NewZoneState builds the zone for a viewer attaching at asOf, fast-forwarded
// through the decay schedule.
func NewZoneState(cfg *GameConfig, asOf time.Time) *ZoneState {
	next, radius := ComputeRadiusState(cfg, asOf)
	z := &ZoneState{
		cfg:          cfg,
		RadiusMeters: radius,
		NextUpdateAt: next,
		Center:       cfg.InitialCoordinates,
		Now:          asOf,
	}
	if radius <= 0 {
		// Attached after the zone already shrank away. Roll back to the last
		// positive value so the frozen radius stays displayable.
		z.RadiusMeters = lastPositiveRadius(cfg)
	}
	if !asOf.Before(cfg.EndTime) {
		z.Phase = PhaseExpired
	} else if radius <= 0 {
		z.Phase = PhaseCollapsed
	}
	return z
}

// lastPositiveRadius returns the final radius value before the step that
// would cross zero.
func lastPositiveRadius(cfg *GameConfig) int {
	radius := cfg.InitialRadiusMeters
	if cfg.RadiusDeclinePerUpdateMeters <= 0 {
		return radius
	}
	for radius-cfg.RadiusDeclinePerUpdateMeters > 0 {
		radius -= cfg.RadiusDeclinePerUpdateMeters
	}
	return radius
}

// Tick advances the machine by one fixed tick evaluated at now and returns
// the resulting event. Terminal phases absorb: further ticks are no-ops and
// the terminal event is reported exactly once.
func (z *ZoneState) Tick(now time.Time) ZoneEvent {
	if z.Phase.Terminal() {
		return EventNone
	}

	z.Now = now

	if !now.Before(z.cfg.EndTime) {
		z.Phase = PhaseExpired
		return EventExpired
	}

	if now.Before(z.NextUpdateAt) {
		return EventNone
	}

	candidate := z.RadiusMeters - z.cfg.RadiusDeclinePerUpdateMeters
	if candidate <= 0 {
		// A zero radius counts as already collapsed; the decrement is not
		// applied so the last positive value stays visible.
		z.Phase = PhaseCollapsed
		return EventCollapsed
	}

	z.RadiusMeters = candidate
	z.NextUpdateAt = z.NextUpdateAt.Add(z.cfg.IntervalDuration())
	if z.cfg.Mode == ModeStayInTheZone {
		z.Center = z.cfg.InitialCoordinates
	}
	return EventRadiusUpdated
}

// SetChickenPosition moves the zone center to the chicken's latest position.
// In stayInTheZone the center stays pinned to the initial coordinates.
func (z *ZoneState) SetChickenPosition(c Coordinate) {
	if z.Phase.Terminal() || z.cfg.Mode == ModeStayInTheZone {
		return
	}
	z.Center = c
}

// Resync recomputes radius and next boundary from the config after missed
// ticks (app suspension, reconnect). It catches up through the schedule in
// one step instead of firing rapid decrements.
func (z *ZoneState) Resync(asOf time.Time) {
	if z.Phase.Terminal() {
		return
	}
	next, radius := ComputeRadiusState(z.cfg, asOf)
	z.Now = asOf
	if radius <= 0 {
		z.Phase = PhaseCollapsed
		z.RadiusMeters = lastPositiveRadius(z.cfg)
		return
	}
	z.RadiusMeters = radius
	z.NextUpdateAt = next
}
