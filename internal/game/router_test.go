package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPolicyFor_Table(t *testing.T) {
	tests := []struct {
		name string
		role Role
		mode GameMode
		want RoutingPolicy
	}{
		{"chicken followTheChicken", RoleChicken, ModeFollowTheChicken, RoutingPolicy{PublishOwn: true}},
		{"hunter followTheChicken", RoleHunter, ModeFollowTheChicken, RoutingPolicy{SubscribeChicken: true}},
		{"chicken stayInTheZone", RoleChicken, ModeStayInTheZone, RoutingPolicy{}},
		{"hunter stayInTheZone", RoleHunter, ModeStayInTheZone, RoutingPolicy{}},
		{"chicken mutualTracking", RoleChicken, ModeMutualTracking, RoutingPolicy{PublishOwn: true, SubscribeHunters: true}},
		{"hunter mutualTracking", RoleHunter, ModeMutualTracking, RoutingPolicy{PublishOwn: true, SubscribeChicken: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PolicyFor(tt.role, tt.mode))
		})
	}
}

func TestThrottle_DropsSamplesInsideWindow(t *testing.T) {
	// Samples at 1s, 2s, 3s, 6s: only 1s and 6s pass a 5s throttle.
	base := time.Unix(1_700_000_000, 0)
	th := NewThrottle(PublishInterval)

	var forwarded []time.Duration
	for _, offset := range []time.Duration{time.Second, 2 * time.Second, 3 * time.Second, 6 * time.Second} {
		if th.Allow(base.Add(offset)) {
			forwarded = append(forwarded, offset)
		}
	}

	assert.Equal(t, []time.Duration{time.Second, 6 * time.Second}, forwarded)
}

func TestThrottle_FirstWriteAlwaysAllowed(t *testing.T) {
	th := NewThrottle(PublishInterval)
	assert.True(t, th.Allow(time.Unix(1_700_000_000, 0)))
}

func TestThrottle_ExactBoundaryAllowed(t *testing.T) {
	base := time.Unix(1_700_000_000, 0)
	th := NewThrottle(PublishInterval)

	assert.True(t, th.Allow(base))
	assert.False(t, th.Allow(base.Add(PublishInterval-time.Millisecond)))
	assert.True(t, th.Allow(base.Add(PublishInterval)))
}

func TestThrottle_DroppedSamplesAreNotQueued(t *testing.T) {
	base := time.Unix(1_700_000_000, 0)
	th := NewThrottle(PublishInterval)

	th.Allow(base)
	th.Allow(base.Add(time.Second)) // dropped

	// The dropped sample must not shift the window: the next boundary is
	// measured from the last forwarded write.
	assert.True(t, th.Allow(base.Add(PublishInterval)))
}

func TestHunterBoard_LabelsByLexicographicID(t *testing.T) {
	b := NewHunterBoard()

	// Arrival order deliberately differs from ID order.
	b.Update("zeta", Coordinate{Latitude: 1})
	b.Update("alpha", Coordinate{Latitude: 2})
	b.Update("mike", Coordinate{Latitude: 3})

	annotations := b.Annotations()
	assert.Len(t, annotations, 3)
	assert.Equal(t, "alpha", annotations[0].ID)
	assert.Equal(t, "Hunter 1", annotations[0].Label)
	assert.Equal(t, "mike", annotations[1].ID)
	assert.Equal(t, "Hunter 2", annotations[1].Label)
	assert.Equal(t, "zeta", annotations[2].ID)
	assert.Equal(t, "Hunter 3", annotations[2].Label)
}

func TestHunterBoard_LatestSampleWins(t *testing.T) {
	b := NewHunterBoard()
	b.Update("h1", Coordinate{Latitude: 1})
	b.Update("h1", Coordinate{Latitude: 2})

	annotations := b.Annotations()
	assert.Len(t, annotations, 1)
	assert.Equal(t, 2.0, annotations[0].Coordinate.Latitude)
}

func TestHunterBoard_LabelsShiftWhenPeersLeave(t *testing.T) {
	// Known quirk: labels are ranks in the current ID sort, so removing a
	// hunter relabels those after it. The sort rule keeps all clients
	// consistent.
	b := NewHunterBoard()
	b.Update("alpha", Coordinate{})
	b.Update("bravo", Coordinate{})
	b.Remove("alpha")

	annotations := b.Annotations()
	assert.Len(t, annotations, 1)
	assert.Equal(t, "bravo", annotations[0].ID)
	assert.Equal(t, "Hunter 1", annotations[0].Label)
}
