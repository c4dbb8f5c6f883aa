package game

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Role int

const (
	RoleNone Role = iota
	RoleChicken
	RoleHunter
)

func (r Role) String() string {
	switch r {
	case RoleChicken:
		return "chicken"
	case RoleHunter:
		return "hunter"
	default:
		return "none"
	}
}

// MarshalJSON serializes Role as a string.
func (r Role) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// UnmarshalJSON deserializes Role from a string.
func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "chicken":
		*r = RoleChicken
	case "hunter":
		*r = RoleHunter
	default:
		*r = RoleNone
	}
	return nil
}

// Player is one attached participant. Players are ephemeral per session;
// there are no persistent accounts.
type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`

	lastSample   Coordinate
	hasSample    bool
	lastSampleAt time.Time
}

// NewPlayer creates a player with a fresh ID.
func NewPlayer(name string, role Role) *Player {
	return &Player{
		ID:   uuid.New().String(),
		Name: name,
		Role: role,
	}
}

// AcceptSample applies the provider-style displacement filter: a sample is
// accepted only if it moved at least MinDisplacementMeters from the last
// accepted one. The first sample is always accepted.
func (p *Player) AcceptSample(c Coordinate, at time.Time) bool {
	if p.hasSample && p.lastSample.DistanceMeters(c) < MinDisplacementMeters {
		return false
	}
	p.lastSample = c
	p.hasSample = true
	p.lastSampleAt = at
	return true
}

// LastSample returns the last accepted sample, if any.
func (p *Player) LastSample() (Coordinate, bool) {
	return p.lastSample, p.hasSample
}
