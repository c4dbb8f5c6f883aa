package handler

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/Jju17/pouleparty-server/internal/scheduler"
	"github.com/Jju17/pouleparty-server/internal/session"
	"github.com/Jju17/pouleparty-server/internal/store"
	"github.com/Jju17/pouleparty-server/internal/ws"
)

// Router dispatches incoming messages to the appropriate handler.
type Router struct {
	lobby    *LobbyHandler
	gameplay *GameplayHandler

	// playerMap tracks client ID -> player ID mapping, shared across handlers.
	playerMap map[string]string
	mu        sync.RWMutex
}

// NewRouter creates a new message router. The store may be nil, in which
// case the server runs memory-only and persistence becomes a no-op.
func NewRouter(sm *session.Manager, gs store.GameStore, sched *scheduler.Scheduler, adminPassphrase string) *Router {
	r := &Router{
		playerMap: make(map[string]string),
	}
	r.lobby = NewLobbyHandler(sm, gs, sched, adminPassphrase, r)
	r.gameplay = NewGameplayHandler(sm, gs, r)
	return r
}

// RegisterPlayer maps a client ID to a player ID.
func (r *Router) RegisterPlayer(clientID, playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.playerMap[clientID] = playerID
}

// UnregisterPlayer removes a client's player mapping.
func (r *Router) UnregisterPlayer(clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.playerMap, clientID)
}

// GetPlayerID returns the player ID for a client, or empty string if not found.
func (r *Router) GetPlayerID(clientID string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.playerMap[clientID]
}

// HandleMessage parses and routes an incoming client message.
func (r *Router) HandleMessage(cm *ws.ClientMessage) {
	var msg ws.Message
	if err := json.Unmarshal(cm.Data, &msg); err != nil {
		slog.Warn("invalid message format", "client", cm.Client.ID, "error", err)
		cm.Client.SendMessage(ws.NewErrorMessage("invalid message format"))
		return
	}

	switch msg.Type {
	// Lobby messages
	case ws.TypeCreateGame:
		r.lobby.HandleCreateGame(cm.Client, msg)
	case ws.TypeJoinGame:
		r.lobby.HandleJoinGame(cm.Client, msg)
	case ws.TypeLeaveGame:
		r.lobby.HandleLeaveGame(cm.Client, msg)
	case ws.TypeUpdateGame:
		r.lobby.HandleUpdateGame(cm.Client, msg)

	// Gameplay messages
	case ws.TypeLocationUpdate:
		r.gameplay.HandleLocationUpdate(cm.Client, msg)
	case ws.TypeSubmitCode:
		r.gameplay.HandleSubmitCode(cm.Client, msg)

	default:
		slog.Warn("unknown message type", "type", msg.Type, "client", cm.Client.ID)
		cm.Client.SendMessage(ws.NewErrorMessage("unknown message type: " + msg.Type))
	}
}

// HandleDisconnect handles client disconnection.
func (r *Router) HandleDisconnect(client *ws.Client) {
	r.lobby.HandleDisconnect(client)
}
