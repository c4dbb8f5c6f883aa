package store

import (
	"context"

	"github.com/Jju17/pouleparty-server/internal/game"
)

// GameStore defines the keyed-document interface for persistent game state.
// Field names of the stored config document are the public contract other
// clients must match.
type GameStore interface {
	// CreateGame inserts a new game document.
	CreateGame(ctx context.Context, cfg *game.GameConfig) error
	// FindGame looks up a game by ID. Returns nil when not found.
	FindGame(ctx context.Context, id string) (*game.GameConfig, error)
	// FindGameByJoinCode looks up a game by its shareable join code.
	FindGameByJoinCode(ctx context.Context, code string) (*game.GameConfig, error)
	// UpdateConfig replaces a game's config document (pre-start admin edits).
	UpdateConfig(ctx context.Context, cfg *game.GameConfig) error
	// UpdateStatusCAS flips a game's status only if it currently equals
	// from. Returns whether the flip was applied, making duplicate
	// deliveries no-ops.
	UpdateStatusCAS(ctx context.Context, id string, from, to game.GameStatus) (bool, error)
	// AddWinner appends a winner record. Returns false when the hunter is
	// already on the ledger.
	AddWinner(ctx context.Context, gameID string, rec game.WinnerRecord) (bool, error)
	// ListWinners returns a game's winners in caughtAt-ascending order.
	ListWinners(ctx context.Context, gameID string) ([]game.WinnerRecord, error)
	// Close releases database resources.
	Close() error
}
