package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/Jju17/pouleparty-server/internal/game"
	"github.com/Jju17/pouleparty-server/internal/scheduler"
	"github.com/Jju17/pouleparty-server/internal/session"
	"github.com/Jju17/pouleparty-server/internal/store"
	"github.com/Jju17/pouleparty-server/internal/ws"
)

const storeTimeout = 5 * time.Second

// createRetries bounds join-code regeneration on the unlikely prefix
// collision between live games.
const createRetries = 3

// LobbyHandler handles game creation, joining and pre-start administration.
type LobbyHandler struct {
	sm        *session.Manager
	gs        store.GameStore
	sched     *scheduler.Scheduler
	adminPass string
	router    *Router
}

// NewLobbyHandler creates a new lobby handler.
func NewLobbyHandler(sm *session.Manager, gs store.GameStore, sched *scheduler.Scheduler, adminPass string, router *Router) *LobbyHandler {
	return &LobbyHandler{
		sm:        sm,
		gs:        gs,
		sched:     sched,
		adminPass: adminPass,
		router:    router,
	}
}

type createGameRequest struct {
	Name   string          `json:"name"`
	Role   string          `json:"role"`
	Config game.GameConfig `json:"config"`
}

type gameInfoResponse struct {
	Code     string           `json:"code"`
	PlayerID string           `json:"player_id"`
	Config   *game.GameConfig `json:"config"`
}

// HandleCreateGame validates a new game configuration, persists it, arms
// the status scheduler and attaches the creator.
func (h *LobbyHandler) HandleCreateGame(client *ws.Client, msg ws.Message) {
	var req createGameRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil || req.Name == "" {
		client.SendMessage(ws.NewErrorMessage("name is required"))
		return
	}

	role := parseJoinRole(req.Role)
	if role == game.RoleNone {
		client.SendMessage(ws.NewErrorMessage("role must be chicken or hunter"))
		return
	}

	cfg := req.Config
	cfg.Status = game.StatusWaiting
	if err := cfg.Validate(); err != nil {
		client.SendMessage(ws.NewErrorMessage(err.Error()))
		return
	}

	var s *session.Session
	for i := 0; i < createRetries; i++ {
		cfg.ID = game.NewGameID()
		created, err := h.sm.Create(&cfg, time.Now())
		if err == nil {
			s = created
			break
		}
		if !errors.Is(err, session.ErrCodeInUse) {
			break
		}
	}
	if s == nil {
		client.SendMessage(ws.NewErrorMessage("could not create game"))
		return
	}

	if h.gs != nil {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		err := h.gs.CreateGame(ctx, &cfg)
		cancel()
		if err != nil {
			slog.Error("failed to persist game", "game", cfg.ID, "error", err)
			h.sm.Remove(s.Code)
			client.SendMessage(ws.NewErrorMessage("could not create game"))
			return
		}
	}
	if h.sched != nil {
		h.sched.Schedule(&cfg)
	}
	s.OnTerminal = h.onTerminal

	player := game.NewPlayer(req.Name, role)
	if err := s.AddPlayer(player, client); err != nil {
		client.SendMessage(ws.NewErrorMessage(err.Error()))
		return
	}
	h.router.RegisterPlayer(client.ID, player.ID)

	resp, _ := ws.NewMessage(ws.TypeGameInfo, gameInfoResponse{
		Code:     s.Code,
		PlayerID: player.ID,
		Config:   s.Config(),
	})
	client.SendMessage(resp)

	slog.Info("game created", "game", cfg.ID, "code", s.Code, "creator", req.Name)
}

type joinGameRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// HandleJoinGame attaches a player to a live game by join code. When the
// session is not in memory but the game exists in the store, the session is
// revived fast-forwarded to the current time.
func (h *LobbyHandler) HandleJoinGame(client *ws.Client, msg ws.Message) {
	var req joinGameRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil || req.Code == "" || req.Name == "" {
		client.SendMessage(ws.NewErrorMessage("code and name are required"))
		return
	}

	role := parseJoinRole(req.Role)
	if role == game.RoleNone {
		client.SendMessage(ws.NewErrorMessage("role must be chicken or hunter"))
		return
	}

	s := h.sm.Get(req.Code)
	if s == nil {
		s = h.reviveSession(req.Code)
	}
	if s == nil {
		client.SendMessage(ws.NewErrorMessage("game not found"))
		return
	}

	player := game.NewPlayer(req.Name, role)
	if err := s.AddPlayer(player, client); err != nil {
		client.SendMessage(ws.NewErrorMessage(err.Error()))
		return
	}
	h.router.RegisterPlayer(client.ID, player.ID)

	resp, _ := ws.NewMessage(ws.TypeGameInfo, gameInfoResponse{
		Code:     s.Code,
		PlayerID: player.ID,
		Config:   s.Config(),
	})
	client.SendMessage(resp)

	slog.Info("player joined game", "player", req.Name, "role", role.String(), "code", s.Code)
}

// reviveSession reloads a persisted game into a live session, reconstructing
// zone state from config and wall clock rather than any cached counter.
func (h *LobbyHandler) reviveSession(code string) *session.Session {
	if h.gs == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	cfg, err := h.gs.FindGameByJoinCode(ctx, code)
	if err != nil {
		slog.Error("failed to load game", "code", code, "error", err)
		return nil
	}
	if cfg == nil || cfg.Status == game.StatusDone {
		return nil
	}

	s, err := h.sm.Create(cfg, time.Now())
	if err != nil {
		// Lost the race with a concurrent join; use the winner's session.
		return h.sm.Get(code)
	}
	s.OnTerminal = h.onTerminal

	if winners, err := h.gs.ListWinners(ctx, cfg.ID); err == nil {
		s.ReplaceWinners(winners)
	}

	slog.Info("session revived", "code", code, "game", cfg.ID)
	return s
}

type updateGameRequest struct {
	Passphrase string          `json:"passphrase"`
	Config     game.GameConfig `json:"config"`
}

// HandleUpdateGame applies an admin edit to a game that has not started.
func (h *LobbyHandler) HandleUpdateGame(client *ws.Client, msg ws.Message) {
	var req updateGameRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		client.SendMessage(ws.NewErrorMessage("invalid update"))
		return
	}

	// A blank configured passphrase disables admin edits entirely rather
	// than accepting empty submissions.
	if h.adminPass == "" || req.Passphrase != h.adminPass {
		client.SendMessage(ws.NewErrorMessage("invalid passphrase"))
		return
	}

	playerID := h.router.GetPlayerID(client.ID)
	s := h.sm.FindByPlayerID(playerID)
	if s == nil {
		client.SendMessage(ws.NewErrorMessage("not in a game"))
		return
	}

	cfg := req.Config
	cfg.Status = game.StatusWaiting
	if err := cfg.Validate(); err != nil {
		client.SendMessage(ws.NewErrorMessage(err.Error()))
		return
	}

	if err := s.UpdateConfig(&cfg, time.Now()); err != nil {
		client.SendMessage(ws.NewErrorMessage(err.Error()))
		return
	}

	if h.gs != nil {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		if err := h.gs.UpdateConfig(ctx, s.Config()); err != nil {
			slog.Error("failed to persist config update", "game", cfg.ID, "error", err)
		}
	}
	if h.sched != nil {
		h.sched.Cancel(cfg.ID)
		h.sched.Schedule(s.Config())
	}

	resp, _ := ws.NewMessage(ws.TypeGameInfo, gameInfoResponse{
		Code:     s.Code,
		PlayerID: playerID,
		Config:   s.Config(),
	})
	s.BroadcastMessage(resp)

	slog.Info("game updated", "code", s.Code)
}

// HandleLeaveGame handles a player leaving a game.
func (h *LobbyHandler) HandleLeaveGame(client *ws.Client, _ ws.Message) {
	h.removePlayer(client)
}

// HandleDisconnect handles client disconnection.
func (h *LobbyHandler) HandleDisconnect(client *ws.Client) {
	h.removePlayer(client)
}

func (h *LobbyHandler) removePlayer(client *ws.Client) {
	playerID := h.router.GetPlayerID(client.ID)
	if playerID == "" {
		return
	}

	s := h.sm.FindByPlayerID(playerID)
	if s != nil {
		s.RemovePlayer(playerID)
		if s.IsEmpty() {
			h.sm.Remove(s.Code)
			if h.sched != nil {
				h.sched.Cancel(s.Config().ID)
			}
		}
	}

	h.router.UnregisterPlayer(client.ID)
	slog.Info("player left", "player", playerID)
}

// onTerminal flips the persisted status when a session ends on its own
// (collapse or expiry). The CAS guard keeps the scheduler's own end-time
// transition from double-applying.
func (h *LobbyHandler) onTerminal(s *session.Session, _ game.ZoneEvent) {
	if h.gs == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	id := s.Config().ID
	applied, err := h.gs.UpdateStatusCAS(ctx, id, game.StatusInProgress, game.StatusDone)
	if err != nil {
		slog.Error("failed to finalize game status", "game", id, "error", err)
		return
	}
	if !applied {
		// Collapse before the scheduled start flip.
		if _, err := h.gs.UpdateStatusCAS(ctx, id, game.StatusWaiting, game.StatusDone); err != nil {
			slog.Error("failed to finalize game status", "game", id, "error", err)
		}
	}
}

func parseJoinRole(s string) game.Role {
	switch s {
	case "chicken":
		return game.RoleChicken
	case "hunter":
		return game.RoleHunter
	default:
		return game.RoleNone
	}
}
