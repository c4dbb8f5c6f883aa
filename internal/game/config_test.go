package game

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGameConfig_Validate(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)

	tests := []struct {
		name    string
		mutate  func(c *GameConfig)
		wantErr error
	}{
		{"valid", func(c *GameConfig) {}, nil},
		{"zero interval", func(c *GameConfig) { c.RadiusIntervalUpdateMinutes = 0 }, ErrInvalidInterval},
		{"negative interval", func(c *GameConfig) { c.RadiusIntervalUpdateMinutes = -1 }, ErrInvalidInterval},
		{"end before start", func(c *GameConfig) { c.EndTime = c.StartTime.Add(-time.Hour) }, ErrInvalidTimeRange},
		{"session too short", func(c *GameConfig) { c.EndTime = c.StartTime.Add(MinSessionLength) }, ErrInvalidTimeRange},
		{"zero radius", func(c *GameConfig) { c.InitialRadiusMeters = 0 }, ErrInvalidRadius},
		{"negative decline", func(c *GameConfig) { c.RadiusDeclinePerUpdateMeters = -5 }, ErrInvalidDecline},
		{"zero decline allowed", func(c *GameConfig) { c.RadiusDeclinePerUpdateMeters = 0 }, nil},
		{"short found code", func(c *GameConfig) { c.FoundCode = "123" }, ErrInvalidFoundCode},
		{"non-numeric found code", func(c *GameConfig) { c.FoundCode = "12a4" }, ErrInvalidFoundCode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(start)
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestGameMode_JSONRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want GameMode
	}{
		{"follow", `"followTheChicken"`, ModeFollowTheChicken},
		{"stay", `"stayInTheZone"`, ModeStayInTheZone},
		{"mutual", `"mutualTracking"`, ModeMutualTracking},
		{"unknown defaults to follow", `"battleRoyale"`, ModeFollowTheChicken},
		{"empty defaults to follow", `""`, ModeFollowTheChicken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m GameMode
			require.NoError(t, json.Unmarshal([]byte(tt.in), &m))
			assert.Equal(t, tt.want, m)

			// Serialize and parse back: deterministic.
			data, err := json.Marshal(m)
			require.NoError(t, err)
			var back GameMode
			require.NoError(t, json.Unmarshal(data, &back))
			assert.Equal(t, tt.want, back)
		})
	}
}

func TestGameStatus_JSONRoundTrip(t *testing.T) {
	for _, s := range []GameStatus{StatusWaiting, StatusInProgress, StatusDone} {
		data, err := json.Marshal(s)
		require.NoError(t, err)
		var back GameStatus
		require.NoError(t, json.Unmarshal(data, &back))
		assert.Equal(t, s, back)
	}
}

func TestJoinCode(t *testing.T) {
	assert.Equal(t, "B7E2C1", JoinCode("b7e2c1a4-3f5d-4e8b-9c0a-1d2e3f4a5b6c"))
	assert.Equal(t, "AB", JoinCode("ab"))
}

func TestGameConfig_IntervalDuration(t *testing.T) {
	cfg := testConfig(time.Now())
	assert.Equal(t, 5*time.Minute, cfg.IntervalDuration())

	cfg.RadiusIntervalUpdateMinutes = 0.5
	assert.Equal(t, 30*time.Second, cfg.IntervalDuration())
}

func TestGameConfig_JSONFieldContract(t *testing.T) {
	// Field names are the public contract other clients must match.
	cfg := testConfig(time.Unix(1_700_000_000, 0))
	data, err := json.Marshal(cfg)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	for _, key := range []string{
		"id", "number_of_players", "radius_interval_update_minutes",
		"start_time", "end_time", "initial_coordinates",
		"initial_radius_meters", "radius_decline_per_update_meters",
		"mode", "found_code", "status",
	} {
		assert.Contains(t, doc, key)
	}
}
