package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/Jju17/pouleparty-server/internal/game"
	"github.com/Jju17/pouleparty-server/internal/session"
	"github.com/Jju17/pouleparty-server/internal/store"
	"github.com/Jju17/pouleparty-server/internal/ws"
)

// GameplayHandler handles in-game messages.
type GameplayHandler struct {
	sm     *session.Manager
	gs     store.GameStore
	router *Router
}

// NewGameplayHandler creates a new gameplay handler.
func NewGameplayHandler(sm *session.Manager, gs store.GameStore, router *Router) *GameplayHandler {
	return &GameplayHandler{sm: sm, gs: gs, router: router}
}

type locationUpdateRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// HandleLocationUpdate feeds one location sample into the player's session.
// Samples below the displacement filter are dropped at the boundary, the
// same filter the device provider applies.
func (h *GameplayHandler) HandleLocationUpdate(client *ws.Client, msg ws.Message) {
	var req locationUpdateRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		client.SendMessage(ws.NewErrorMessage("invalid location data"))
		return
	}
	if req.Latitude < -90 || req.Latitude > 90 || req.Longitude < -180 || req.Longitude > 180 {
		client.SendMessage(ws.NewErrorMessage("coordinates out of range"))
		return
	}

	s, player := h.findSessionPlayer(client)
	if s == nil {
		return
	}

	now := time.Now()
	coord := game.Coordinate{Latitude: req.Latitude, Longitude: req.Longitude}
	if !player.AcceptSample(coord, now) {
		return
	}

	s.UpdateLocation(player.ID, coord, now)
	slog.Debug("location update", "player", player.ID, "lat", req.Latitude, "lng", req.Longitude)
}

type submitCodeRequest struct {
	Code string `json:"code"`
}

type submitCodeResponse struct {
	Winner game.WinnerRecord `json:"winner"`
}

// HandleSubmitCode checks a hunter's found-code submission. A wrong code is
// a retryable error and mutates nothing.
func (h *GameplayHandler) HandleSubmitCode(client *ws.Client, msg ws.Message) {
	var req submitCodeRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil || req.Code == "" {
		client.SendMessage(ws.NewErrorMessage("code is required"))
		return
	}

	s, player := h.findSessionPlayer(client)
	if s == nil {
		client.SendMessage(ws.NewErrorMessage("not in a game"))
		return
	}

	rec, added, err := s.SubmitCode(player.ID, req.Code, time.Now())
	if errors.Is(err, game.ErrWrongCode) {
		client.SendMessage(ws.NewRetryableErrorMessage("wrong code"))
		return
	}
	if err != nil {
		client.SendMessage(ws.NewErrorMessage("could not submit code"))
		return
	}

	if added && h.gs != nil {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		if _, err := h.gs.AddWinner(ctx, s.Config().ID, rec); err != nil {
			slog.Error("failed to persist winner", "game", s.Config().ID, "hunter", rec.HunterID, "error", err)
		}
	}

	resp, _ := ws.NewMessage(ws.TypeSubmitCode, submitCodeResponse{Winner: rec})
	client.SendMessage(resp)
}

func (h *GameplayHandler) findSessionPlayer(client *ws.Client) (*session.Session, *game.Player) {
	playerID := h.router.GetPlayerID(client.ID)
	if playerID == "" {
		return nil, nil
	}
	s := h.sm.FindByPlayerID(playerID)
	if s == nil {
		return nil, nil
	}
	return s, s.Player(playerID)
}
