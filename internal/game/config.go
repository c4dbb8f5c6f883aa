package game

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Configuration errors, rejected at the creation boundary. They never reach
// a running session.
var (
	ErrInvalidInterval  = errors.New("radius update interval must be positive")
	ErrInvalidTimeRange = errors.New("end time must be after start time plus minimum session length")
	ErrInvalidRadius    = errors.New("initial radius must be positive")
	ErrInvalidDecline   = errors.New("radius decline must not be negative")
	ErrInvalidFoundCode = errors.New("found code must be exactly 4 digits")
)

type GameMode int

const (
	ModeFollowTheChicken GameMode = iota
	ModeStayInTheZone
	ModeMutualTracking
)

func (m GameMode) String() string {
	switch m {
	case ModeStayInTheZone:
		return "stayInTheZone"
	case ModeMutualTracking:
		return "mutualTracking"
	default:
		return "followTheChicken"
	}
}

// MarshalJSON serializes GameMode as a string.
func (m GameMode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON deserializes GameMode from a string. Unrecognized values
// decode to followTheChicken so documents written by newer clients stay
// readable.
func (m *GameMode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*m = ParseMode(s)
	return nil
}

// ParseMode maps a mode string to a GameMode, defaulting to followTheChicken.
func ParseMode(s string) GameMode {
	switch s {
	case "stayInTheZone":
		return ModeStayInTheZone
	case "mutualTracking":
		return ModeMutualTracking
	default:
		return ModeFollowTheChicken
	}
}

type GameStatus int

const (
	StatusWaiting GameStatus = iota
	StatusInProgress
	StatusDone
)

func (s GameStatus) String() string {
	switch s {
	case StatusInProgress:
		return "inProgress"
	case StatusDone:
		return "done"
	default:
		return "waiting"
	}
}

// MarshalJSON serializes GameStatus as a string.
func (s GameStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON deserializes GameStatus from a string.
func (s *GameStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	*s = ParseStatus(str)
	return nil
}

// ParseStatus maps a status string to a GameStatus, defaulting to waiting.
func ParseStatus(s string) GameStatus {
	switch s {
	case "inProgress":
		return StatusInProgress
	case "done":
		return StatusDone
	default:
		return StatusWaiting
	}
}

// GameConfig is the shared document describing one match. It is immutable
// after the game starts; admin edits are allowed only while waiting.
type GameConfig struct {
	ID                           string     `json:"id"`
	NumberOfPlayers              int        `json:"number_of_players"`
	RadiusIntervalUpdateMinutes  float64    `json:"radius_interval_update_minutes"`
	StartTime                    time.Time  `json:"start_time"`
	EndTime                      time.Time  `json:"end_time"`
	InitialCoordinates           Coordinate `json:"initial_coordinates"`
	InitialRadiusMeters          int        `json:"initial_radius_meters"`
	RadiusDeclinePerUpdateMeters int        `json:"radius_decline_per_update_meters"`
	Mode                         GameMode   `json:"mode"`
	FoundCode                    string     `json:"found_code"`
	Status                       GameStatus `json:"status"`
}

// NewGameID returns a fresh game identifier.
func NewGameID() string {
	return uuid.New().String()
}

// JoinCode derives the human-shareable code from a game ID: its uppercase
// 6-character prefix.
func JoinCode(id string) string {
	code := strings.ToUpper(id)
	if len(code) > JoinCodeLength {
		code = code[:JoinCodeLength]
	}
	return code
}

// JoinCode returns the shareable code for this game.
func (c *GameConfig) JoinCode() string {
	return JoinCode(c.ID)
}

// IntervalDuration returns the decay step period.
func (c *GameConfig) IntervalDuration() time.Duration {
	return time.Duration(c.RadiusIntervalUpdateMinutes * float64(time.Minute))
}

// Validate checks the configuration at the creation boundary.
func (c *GameConfig) Validate() error {
	if c.RadiusIntervalUpdateMinutes <= 0 {
		return ErrInvalidInterval
	}
	if !c.EndTime.After(c.StartTime.Add(MinSessionLength)) {
		return ErrInvalidTimeRange
	}
	if c.InitialRadiusMeters <= 0 {
		return ErrInvalidRadius
	}
	if c.RadiusDeclinePerUpdateMeters < 0 {
		return ErrInvalidDecline
	}
	if !validFoundCode(c.FoundCode) {
		return ErrInvalidFoundCode
	}
	return nil
}

func validFoundCode(code string) bool {
	if len(code) != FoundCodeLength {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
