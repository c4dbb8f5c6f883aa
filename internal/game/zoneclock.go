package game

import "time"

// ComputeRadiusState fast-forwards the zone decay schedule to asOf and
// returns the next update boundary together with the radius as of the last
// passed boundary. The returned boundary is always of the form
// startTime + k*interval for k >= 1 and is never in the past.
//
// Before startTime the loop never runs, so pre-game viewers see the initial
// radius. The radius is allowed to go negative here; callers apply the
// collapse floor. This is how a client reconstructs correct state after a
// restart or a late join without replaying every tick.
func ComputeRadiusState(cfg *GameConfig, asOf time.Time) (nextUpdateAt time.Time, radiusMeters int) {
	interval := cfg.IntervalDuration()
	lastUpdate := cfg.StartTime
	radius := cfg.InitialRadiusMeters

	for lastUpdate.Add(interval).Before(asOf) {
		lastUpdate = lastUpdate.Add(interval)
		radius -= cfg.RadiusDeclinePerUpdateMeters
	}

	return lastUpdate.Add(interval), radius
}
