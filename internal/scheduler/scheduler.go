package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Jju17/pouleparty-server/internal/game"
)

const transitionTimeout = 10 * time.Second

// StatusStore is the slice of the game store the scheduler needs.
type StatusStore interface {
	UpdateStatusCAS(ctx context.Context, id string, from, to game.GameStatus) (bool, error)
}

// Scheduler arms two one-shot deferred transitions per game: waiting to
// inProgress at start time and inProgress to done at end time. Each fire is
// guarded by a compare-and-set on the expected prior status, so duplicate or
// late deliveries are no-ops.
type Scheduler struct {
	store  StatusStore
	now    func() time.Time
	timers map[string][]*time.Timer
	mu     sync.Mutex
}

// New creates a scheduler writing through store.
func New(store StatusStore) *Scheduler {
	return &Scheduler{
		store:  store,
		now:    time.Now,
		timers: make(map[string][]*time.Timer),
	}
}

// Schedule arms the status transitions for one game. Times already in the
// past fire immediately.
func (s *Scheduler) Schedule(cfg *game.GameConfig) {
	id := cfg.ID
	startIn := cfg.StartTime.Sub(s.now())
	endIn := cfg.EndTime.Sub(s.now())

	s.mu.Lock()
	defer s.mu.Unlock()

	s.timers[id] = []*time.Timer{
		time.AfterFunc(startIn, func() {
			s.transition(id, game.StatusWaiting, game.StatusInProgress)
		}),
		time.AfterFunc(endIn, func() {
			s.transition(id, game.StatusInProgress, game.StatusDone)
		}),
	}
}

// Cancel disarms any pending transitions for a game.
func (s *Scheduler) Cancel(gameID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.timers[gameID] {
		t.Stop()
	}
	delete(s.timers, gameID)
}

// Stop disarms everything.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, timers := range s.timers {
		for _, t := range timers {
			t.Stop()
		}
		delete(s.timers, id)
	}
}

func (s *Scheduler) transition(gameID string, from, to game.GameStatus) {
	ctx, cancel := context.WithTimeout(context.Background(), transitionTimeout)
	defer cancel()

	applied, err := s.store.UpdateStatusCAS(ctx, gameID, from, to)
	if err != nil {
		slog.Error("status transition failed", "game", gameID, "to", to.String(), "error", err)
		return
	}
	if applied {
		slog.Info("game status updated", "game", gameID, "from", from.String(), "to", to.String())
	}
}
