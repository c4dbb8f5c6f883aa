package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Jju17/pouleparty-server/internal/game"
)

const schema = `
CREATE TABLE IF NOT EXISTS games (
    id TEXT PRIMARY KEY,
    join_code TEXT NOT NULL,
    config JSONB NOT NULL,
    status TEXT NOT NULL DEFAULT 'waiting',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_games_join_code ON games(join_code);
CREATE TABLE IF NOT EXISTS winners (
    game_id TEXT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
    hunter_id TEXT NOT NULL,
    hunter_name TEXT NOT NULL DEFAULT '',
    caught_at TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (game_id, hunter_id)
);
`

// PostgresStore implements GameStore using PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to PostgreSQL and initializes the schema.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

// CreateGame inserts a new game document.
func (s *PostgresStore) CreateGame(ctx context.Context, cfg *game.GameConfig) error {
	doc, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO games (id, join_code, config, status) VALUES ($1, $2, $3, $4)`,
		cfg.ID, cfg.JoinCode(), doc, cfg.Status.String())
	return err
}

// FindGame looks up a game by ID.
func (s *PostgresStore) FindGame(ctx context.Context, id string) (*game.GameConfig, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT config, status FROM games WHERE id = $1`, id)
	return scanGame(row)
}

// FindGameByJoinCode looks up a game by its shareable join code.
func (s *PostgresStore) FindGameByJoinCode(ctx context.Context, code string) (*game.GameConfig, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT config, status FROM games WHERE join_code = $1 ORDER BY created_at DESC LIMIT 1`, code)
	return scanGame(row)
}

// UpdateConfig replaces a game's config document.
func (s *PostgresStore) UpdateConfig(ctx context.Context, cfg *game.GameConfig) error {
	doc, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`UPDATE games SET config = $1 WHERE id = $2`, doc, cfg.ID)
	return err
}

// UpdateStatusCAS flips a game's status only from the expected prior value.
func (s *PostgresStore) UpdateStatusCAS(ctx context.Context, id string, from, to game.GameStatus) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE games
		 SET status = $1, config = jsonb_set(config, '{status}', to_jsonb($1::text))
		 WHERE id = $2 AND status = $3`,
		to.String(), id, from.String())
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// AddWinner appends a winner record, idempotent per hunter.
func (s *PostgresStore) AddWinner(ctx context.Context, gameID string, rec game.WinnerRecord) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO winners (game_id, hunter_id, hunter_name, caught_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (game_id, hunter_id) DO NOTHING`,
		gameID, rec.HunterID, rec.HunterName, rec.CaughtAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListWinners returns a game's winners in caughtAt-ascending order.
func (s *PostgresStore) ListWinners(ctx context.Context, gameID string) ([]game.WinnerRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT hunter_id, hunter_name, caught_at
		 FROM winners WHERE game_id = $1 ORDER BY caught_at ASC`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []game.WinnerRecord
	for rows.Next() {
		var rec game.WinnerRecord
		if err := rows.Scan(&rec.HunterID, &rec.HunterName, &rec.CaughtAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close releases database resources.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func scanGame(row pgx.Row) (*game.GameConfig, error) {
	var doc []byte
	var status string
	if err := row.Scan(&doc, &status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	var cfg game.GameConfig
	if err := json.Unmarshal(doc, &cfg); err != nil {
		return nil, err
	}
	cfg.Status = game.ParseStatus(status)
	return &cfg, nil
}
