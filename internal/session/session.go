package session

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Jju17/pouleparty-server/internal/game"
	"github.com/Jju17/pouleparty-server/internal/ws"
)

var (
	ErrChickenTaken = errors.New("game already has a chicken")
	ErrGameStarted  = errors.New("game already started")
)

// Session is the authoritative state of one running game. A single lock
// serializes all mutation; the tick loop, location updates and code
// submissions only ever write through it.
type Session struct {
	Code string

	cfg     *game.GameConfig
	zone    *game.ZoneState
	ledger  *game.WinnerLedger
	hunters *game.HunterBoard

	players   map[string]*game.Player
	clients   map[string]*ws.Client
	throttles map[string]*game.Throttle

	// OnTerminal is invoked exactly once when the zone collapses or the
	// game time expires, after game_over has been broadcast.
	OnTerminal func(s *Session, event game.ZoneEvent)

	clock            func() time.Time
	stopCh           chan struct{}
	stopped          bool
	terminalNotified bool

	mu sync.RWMutex
}

// New creates a session for cfg with the zone fast-forwarded to asOf.
func New(cfg *game.GameConfig, asOf time.Time) *Session {
	return &Session{
		Code:      cfg.JoinCode(),
		cfg:       cfg,
		zone:      game.NewZoneState(cfg, asOf),
		ledger:    game.NewWinnerLedger(),
		hunters:   game.NewHunterBoard(),
		players:   make(map[string]*game.Player),
		clients:   make(map[string]*ws.Client),
		throttles: make(map[string]*game.Throttle),
		clock:     time.Now,
		stopCh:    make(chan struct{}),
	}
}

// Config returns the game configuration.
func (s *Session) Config() *game.GameConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Status derives the current game status. The persisted status field is
// flipped separately by the scheduler; both converge on the same timeline.
func (s *Session) Status() game.GameStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.statusLocked(s.zone.Now)
}

func (s *Session) statusLocked(now time.Time) game.GameStatus {
	if s.zone.Phase.Terminal() {
		return game.StatusDone
	}
	if now.Before(s.cfg.StartTime) {
		return game.StatusWaiting
	}
	return game.StatusInProgress
}

// UpdateConfig applies an admin edit. Edits are only allowed before the
// game starts; the zone is rebuilt from the new configuration.
func (s *Session) UpdateConfig(cfg *game.GameConfig, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.statusLocked(now) != game.StatusWaiting {
		return ErrGameStarted
	}
	cfg.ID = s.cfg.ID
	s.cfg = cfg
	s.zone = game.NewZoneState(cfg, now)
	return nil
}

// AddPlayer attaches a player and their connection. Only one chicken may
// join a game.
func (s *Session) AddPlayer(p *game.Player, client *ws.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.Role == game.RoleChicken {
		for _, existing := range s.players {
			if existing.Role == game.RoleChicken {
				return ErrChickenTaken
			}
		}
	}

	s.players[p.ID] = p
	s.clients[p.ID] = client
	return nil
}

// RemovePlayer detaches a player, dropping their map marker and throttle.
func (s *Session) RemovePlayer(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.players, playerID)
	delete(s.clients, playerID)
	delete(s.throttles, playerID)
	s.hunters.Remove(playerID)
}

// Player returns an attached player by ID.
func (s *Session) Player(playerID string) *game.Player {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.players[playerID]
}

// PlayerCount returns the number of attached players.
func (s *Session) PlayerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.players)
}

// IsEmpty returns true if no players are attached.
func (s *Session) IsEmpty() bool {
	return s.PlayerCount() == 0
}

// Run drives the 1-second tick loop until the session stops.
func (s *Session) Run() {
	ticker := time.NewTicker(game.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.tick(s.clock())
		}
	}
}

// Stop terminates the tick loop. Safe to call more than once.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Session) stopLocked() {
	if s.stopped {
		return
	}
	s.stopped = true
	close(s.stopCh)
}

// Resync fast-forwards the zone after missed ticks, in one step.
func (s *Session) Resync(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.zone.Resync(now)
}

// tick applies one state-machine step at now and broadcasts the resulting
// snapshot. Kept separate from Run so tests can feed synthetic time.
func (s *Session) tick(now time.Time) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}

	s.zone.Tick(now)
	snapshot := s.snapshotLocked()

	terminal := s.zone.Phase.Terminal() && !s.terminalNotified
	var phase game.ZonePhase
	if terminal {
		s.terminalNotified = true
		phase = s.zone.Phase
	}
	s.mu.Unlock()

	if msg, err := ws.NewMessage(ws.TypeZoneState, snapshot); err == nil {
		s.BroadcastMessage(msg)
	}

	if terminal {
		over, _ := ws.NewMessage(ws.TypeGameOver, gameOverMessage{Reason: phase.String()})
		s.BroadcastMessage(over)
		slog.Info("game ended", "game", s.Code, "reason", phase.String())

		event := game.EventExpired
		if phase == game.PhaseCollapsed {
			event = game.EventCollapsed
		}
		if s.OnTerminal != nil {
			s.OnTerminal(s, event)
		}
		s.Stop()
	}
}

// UpdateLocation routes one accepted location sample through the per-mode
// policy. The zone center tracks every chicken sample immediately; only the
// fan-out to peers is throttled.
func (s *Session) UpdateLocation(playerID string, c game.Coordinate, now time.Time) {
	s.mu.Lock()

	p, ok := s.players[playerID]
	if !ok || s.zone.Phase.Terminal() {
		s.mu.Unlock()
		return
	}

	policy := game.PolicyFor(p.Role, s.cfg.Mode)
	var outbound *ws.Message
	var recipients []*ws.Client

	switch p.Role {
	case game.RoleChicken:
		s.zone.SetChickenPosition(c)
		if policy.PublishOwn && s.throttleLocked(playerID).Allow(now) {
			if msg, err := ws.NewMessage(ws.TypeChickenLocation, chickenLocationMessage{
				Coordinate: c,
				At:         now,
			}); err == nil {
				outbound = &msg
				recipients = s.subscribersLocked(func(peer *game.Player) bool {
					return game.PolicyFor(peer.Role, s.cfg.Mode).SubscribeChicken
				})
			}
		}

	case game.RoleHunter:
		if policy.PublishOwn && s.throttleLocked(playerID).Allow(now) {
			s.hunters.Update(playerID, c)
			if msg, err := ws.NewMessage(ws.TypeHunterLocations, hunterLocationsMessage{
				Hunters: s.hunters.Annotations(),
			}); err == nil {
				outbound = &msg
				recipients = s.subscribersLocked(func(peer *game.Player) bool {
					return game.PolicyFor(peer.Role, s.cfg.Mode).SubscribeHunters
				})
			}
		}
	}
	s.mu.Unlock()

	if outbound != nil {
		for _, client := range recipients {
			client.SendMessage(*outbound)
		}
	}
}

// subscribersLocked returns the connections of players matching the policy
// predicate. Caller must hold s.mu.
func (s *Session) subscribersLocked(match func(*game.Player) bool) []*ws.Client {
	var out []*ws.Client
	for id, peer := range s.players {
		if match(peer) {
			if client, ok := s.clients[id]; ok {
				out = append(out, client)
			}
		}
	}
	return out
}

func (s *Session) throttleLocked(playerID string) *game.Throttle {
	t, ok := s.throttles[playerID]
	if !ok {
		t = game.NewThrottle(game.PublishInterval)
		s.throttles[playerID] = t
	}
	return t
}

// SubmitCode checks a hunter's found-code submission against the ledger.
// A newly recorded winner is broadcast to everyone; resubmission returns the
// existing record without a broadcast.
func (s *Session) SubmitCode(playerID, enteredCode string, now time.Time) (game.WinnerRecord, bool, error) {
	s.mu.Lock()

	p, ok := s.players[playerID]
	if !ok || p.Role != game.RoleHunter {
		s.mu.Unlock()
		return game.WinnerRecord{}, false, game.ErrWrongCode
	}

	rec, added, err := s.ledger.Submit(p.ID, p.Name, enteredCode, s.cfg, now)
	var winners []game.WinnerRecord
	if added {
		winners = s.ledger.Records()
	}
	s.mu.Unlock()

	if added {
		if msg, e := ws.NewMessage(ws.TypeWinnerList, winnerListMessage{Winners: winners}); e == nil {
			s.BroadcastMessage(msg)
		}
		slog.Info("hunter found the chicken", "game", s.Code, "hunter", rec.HunterID)
	}
	return rec, added, err
}

// ReplaceWinners absorbs a winner snapshot streamed from the store.
func (s *Session) ReplaceWinners(records []game.WinnerRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger.Replace(records)
}

// Winners returns the leaderboard in caughtAt order.
func (s *Session) Winners() []game.WinnerRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.Records()
}

// Snapshot returns the current session state for rendering.
func (s *Session) Snapshot() ZoneSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() ZoneSnapshot {
	return ZoneSnapshot{
		RadiusMeters: s.zone.RadiusMeters,
		Center:       s.zone.Center,
		NextUpdateAt: s.zone.NextUpdateAt,
		Now:          s.zone.Now,
		Phase:        s.zone.Phase.String(),
		Status:       s.statusLocked(s.zone.Now).String(),
		Hunters:      s.hunters.Annotations(),
		Winners:      s.ledger.Records(),
	}
}

// BroadcastMessage sends a message to all attached players.
func (s *Session) BroadcastMessage(msg ws.Message) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, client := range s.clients {
		client.SendMessage(msg)
	}
}

// SendToPlayer sends a message to a specific player.
func (s *Session) SendToPlayer(playerID string, msg ws.Message) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if client, ok := s.clients[playerID]; ok {
		client.SendMessage(msg)
	}
}

// ZoneSnapshot is the per-tick state sent to every client.
type ZoneSnapshot struct {
	RadiusMeters int                     `json:"radius_meters"`
	Center       game.Coordinate         `json:"center"`
	NextUpdateAt time.Time               `json:"next_update_at"`
	Now          time.Time               `json:"now"`
	Phase        string                  `json:"phase"`
	Status       string                  `json:"status"`
	Hunters      []game.HunterAnnotation `json:"hunters"`
	Winners      []game.WinnerRecord     `json:"winners"`
}

type gameOverMessage struct {
	Reason string `json:"reason"`
}

type chickenLocationMessage struct {
	Coordinate game.Coordinate `json:"coordinate"`
	At         time.Time       `json:"at"`
}

type hunterLocationsMessage struct {
	Hunters []game.HunterAnnotation `json:"hunters"`
}

type winnerListMessage struct {
	Winners []game.WinnerRecord `json:"winners"`
}
