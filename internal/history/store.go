// internal/history/store.go
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Match is one finished game as seen from this client.
type Match struct {
	ID         uuid.UUID
	SessionID  uuid.UUID
	Identity   string
	Winner     string
	Players    []PlayerResult
	Turns      int
	FinishedAt time.Time
}

// Won reports whether the local player won.
func (m Match) Won() bool {
	return m.Identity != "" && m.Identity == m.Winner
}

// PlayerResult is a player's standing in the last snapshot before the end.
type PlayerResult struct {
	Name  string
	Lives int
}

const schema = `
	CREATE TABLE IF NOT EXISTS matches (
		id          UUID PRIMARY KEY,
		session_id  UUID NOT NULL,
		identity    TEXT NOT NULL,
		winner      TEXT NOT NULL,
		won         BOOLEAN NOT NULL,
		turns       INT NOT NULL,
		finished_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS matches_identity_idx ON matches (identity, finished_at DESC);
	CREATE TABLE IF NOT EXISTS match_players (
		match_id UUID NOT NULL REFERENCES matches (id) ON DELETE CASCADE,
		position INT NOT NULL,
		name     TEXT NOT NULL,
		lives    INT NOT NULL,
		PRIMARY KEY (match_id, position)
	);
`

// Store persists matches in Postgres.
type Store struct {
	pool *pgxpool.Pool
}

// Connect opens a pool for connStr and checks the server answers.
func Connect(ctx context.Context, connStr string) (*Store, error) {
	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to parse pgx config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return &Store{pool: pool}, nil
}

// EnsureSchema creates the history tables when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create history schema: %w", err)
	}
	return nil
}

// RecordMatch inserts the match and its players in one transaction.
func (s *Store) RecordMatch(ctx context.Context, m Match) error {
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		insertMatch := `
			INSERT INTO matches (id, session_id, identity, winner, won, turns, finished_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO NOTHING
		`
		if _, e := tx.Exec(ctx, insertMatch, m.ID, m.SessionID, m.Identity, m.Winner, m.Won(), m.Turns, m.FinishedAt); e != nil {
			return e
		}

		for i, p := range m.Players {
			q := `
				INSERT INTO match_players (match_id, position, name, lives)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (match_id, position) DO UPDATE SET name=$3, lives=$4
			`
			if _, e := tx.Exec(ctx, q, m.ID, i, p.Name, p.Lives); e != nil {
				return e
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("tx insert match %s: %w", m.ID, err)
	}
	return nil
}

// RecentMatches returns the latest matches played under identity, newest first.
func (s *Store) RecentMatches(ctx context.Context, identity string, limit int) ([]Match, error) {
	q := `
		SELECT id, session_id, identity, winner, turns, finished_at
		FROM matches
		WHERE identity=$1
		ORDER BY finished_at DESC
		LIMIT $2
	`
	rows, err := s.pool.Query(ctx, q, identity, limit)
	if err != nil {
		return nil, fmt.Errorf("query matches: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Identity, &m.Winner, &m.Turns, &m.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate matches: %w", err)
	}

	for i := range matches {
		players, err := s.matchPlayers(ctx, matches[i].ID)
		if err != nil {
			return nil, err
		}
		matches[i].Players = players
	}
	return matches, nil
}

func (s *Store) matchPlayers(ctx context.Context, matchID uuid.UUID) ([]PlayerResult, error) {
	q := `
		SELECT name, lives
		FROM match_players
		WHERE match_id=$1
		ORDER BY position
	`
	rows, err := s.pool.Query(ctx, q, matchID)
	if err != nil {
		return nil, fmt.Errorf("query match players: %w", err)
	}
	defer rows.Close()

	var players []PlayerResult
	for rows.Next() {
		var p PlayerResult
		if err := rows.Scan(&p.Name, &p.Lives); err != nil {
			return nil, fmt.Errorf("scan match player: %w", err)
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}
