package game

import (
	"fmt"
	"sort"
	"time"
)

// RoutingPolicy says, for one role in one mode, whether to publish own
// location and which peer locations to subscribe to. Publishing is always
// throttled to PublishInterval.
type RoutingPolicy struct {
	PublishOwn       bool
	SubscribeChicken bool
	SubscribeHunters bool
}

// PolicyFor is the single source of truth for location routing. New modes
// add rows here instead of branching at call sites.
//
//	mode             | chicken publishes | hunter publishes | chicken subs | hunter subs
//	followTheChicken | yes               | no               | —            | chicken
//	stayInTheZone    | no                | no               | —            | —
//	mutualTracking   | yes               | yes              | all hunters  | chicken
func PolicyFor(role Role, mode GameMode) RoutingPolicy {
	switch mode {
	case ModeStayInTheZone:
		return RoutingPolicy{}
	case ModeMutualTracking:
		if role == RoleChicken {
			return RoutingPolicy{PublishOwn: true, SubscribeHunters: true}
		}
		return RoutingPolicy{PublishOwn: true, SubscribeChicken: true}
	default: // followTheChicken
		if role == RoleChicken {
			return RoutingPolicy{PublishOwn: true}
		}
		return RoutingPolicy{SubscribeChicken: true}
	}
}

// Throttle limits outbound location writes to one per interval per
// publisher. Samples arriving inside the window are dropped, not queued.
// The throttle only gates the shared write; local state updates on every
// raw sample.
type Throttle struct {
	interval time.Duration
	last     time.Time
}

// NewThrottle creates a throttle with the given minimum spacing.
func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{interval: interval}
}

// Allow reports whether a write at now may go out, and records it if so.
// The first write is always allowed.
func (t *Throttle) Allow(now time.Time) bool {
	if !t.last.IsZero() && now.Sub(t.last) < t.interval {
		return false
	}
	t.last = now
	return true
}

// HunterAnnotation is the ephemeral map marker for one hunter in
// mutualTracking.
type HunterAnnotation struct {
	ID         string     `json:"id"`
	Coordinate Coordinate `json:"coordinate"`
	Label      string     `json:"label"`
}

// HunterBoard collects incoming hunter locations, deduplicated by hunter ID
// with the latest sample winning.
type HunterBoard struct {
	positions map[string]Coordinate
}

// NewHunterBoard creates an empty board.
func NewHunterBoard() *HunterBoard {
	return &HunterBoard{positions: make(map[string]Coordinate)}
}

// Update records a hunter's latest position.
func (b *HunterBoard) Update(hunterID string, c Coordinate) {
	b.positions[hunterID] = c
}

// Remove drops a hunter from the board.
func (b *HunterBoard) Remove(hunterID string) {
	delete(b.positions, hunterID)
}

// Annotations returns the current markers labeled "Hunter N", where N is
// the 1-based rank of the hunter ID in lexicographic order. Labels are
// recomputed from the full sort on every call so all clients derive the
// same labeling regardless of arrival order.
func (b *HunterBoard) Annotations() []HunterAnnotation {
	ids := make([]string, 0, len(b.positions))
	for id := range b.positions {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	annotations := make([]HunterAnnotation, 0, len(ids))
	for i, id := range ids {
		annotations = append(annotations, HunterAnnotation{
			ID:         id,
			Coordinate: b.positions[id],
			Label:      fmt.Sprintf("Hunter %d", i+1),
		})
	}
	return annotations
}
