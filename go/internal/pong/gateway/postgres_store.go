package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mcdev12/pong/go/internal/pong/game"
	"github.com/rs/zerolog/log"
)

const createSessionsTable = `
CREATE TABLE IF NOT EXISTS pong_sessions (
    id           TEXT PRIMARY KEY,
    left_player  TEXT,
    right_player TEXT,
    state        TEXT NOT NULL DEFAULT 'waiting',
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// claimSeat takes the first free seat in one statement. SET expressions see
// the row as it was before the update, so the state flips to active exactly
// when the second seat is filled.
const claimSeat = `
UPDATE pong_sessions SET
    left_player  = CASE WHEN left_player IS NULL THEN $2 ELSE left_player END,
    right_player = CASE WHEN left_player IS NOT NULL AND right_player IS NULL THEN $2 ELSE right_player END,
    state        = CASE WHEN left_player IS NULL AND right_player IS NULL THEN 'waiting' ELSE 'active' END
WHERE id = $1
  AND state <> 'ended'
  AND (left_player IS NULL OR right_player IS NULL)
  AND left_player IS DISTINCT FROM $2
  AND right_player IS DISTINCT FROM $2
RETURNING id, left_player, right_player, state, created_at`

const releaseSeat = `
UPDATE pong_sessions SET
    left_player  = NULLIF(left_player, $2),
    right_player = NULLIF(right_player, $2),
    state        = 'ended'
WHERE id = $1 AND (left_player = $2 OR right_player = $2)
RETURNING id, left_player, right_player, state, created_at`

// PostgresStore shares the seat registry between relay nodes
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to dsn and makes sure the sessions table exists
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, createSessionsTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create sessions table: %w", err)
	}

	log.Info().Msg("postgres session store ready")
	return &PostgresStore{pool: pool}, nil
}

func (p *PostgresStore) Create(ctx context.Context) (*Session, error) {
	for attempt := 0; attempt < 3; attempt++ {
		id := NewSessionID()
		row := p.pool.QueryRow(ctx, `
            INSERT INTO pong_sessions (id, state) VALUES ($1, 'waiting')
            RETURNING id, left_player, right_player, state, created_at
        `, id)
		s, err := scanSession(row)
		if err == nil {
			return s, nil
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			continue
		}
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return nil, fmt.Errorf("insert session: no free code after 3 attempts")
}

func (p *PostgresStore) Get(ctx context.Context, id string) (*Session, error) {
	row := p.pool.QueryRow(ctx, `
        SELECT id, left_player, right_player, state, created_at
        FROM pong_sessions WHERE id = $1
    `, NormalizeSessionID(id))
	s, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return s, nil
}

func (p *PostgresStore) Claim(ctx context.Context, id, playerID string) (*Session, game.Side, error) {
	id = NormalizeSessionID(id)
	s, err := scanSession(p.pool.QueryRow(ctx, claimSeat, id, playerID))
	if errors.Is(err, pgx.ErrNoRows) {
		// nothing claimed; work out why for the player
		current, getErr := p.Get(ctx, id)
		if getErr != nil {
			return nil, "", getErr
		}
		_, claimErr := current.claim(playerID)
		if claimErr == nil {
			// lost a race for the last seat
			claimErr = ErrSessionFull
		}
		return nil, "", claimErr
	}
	if err != nil {
		return nil, "", fmt.Errorf("claim seat: %w", err)
	}

	side, _ := s.SideOf(playerID)
	return s, side, nil
}

func (p *PostgresStore) Release(ctx context.Context, id, playerID string) (*Session, error) {
	id = NormalizeSessionID(id)

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin release: %w", err)
	}
	defer tx.Rollback(ctx)

	s, err := scanSession(tx.QueryRow(ctx, releaseSeat, id, playerID))
	if errors.Is(err, pgx.ErrNoRows) {
		if _, getErr := p.Get(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, ErrNotSeated
	}
	if err != nil {
		return nil, fmt.Errorf("release seat: %w", err)
	}

	if s.Players() == 0 {
		if _, err := tx.Exec(ctx, `DELETE FROM pong_sessions WHERE id = $1`, id); err != nil {
			return nil, fmt.Errorf("delete session: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit release: %w", err)
	}
	return s, nil
}

func (p *PostgresStore) Active(ctx context.Context) ([]*Session, error) {
	rows, err := p.pool.Query(ctx, `
        SELECT id, left_player, right_player, state, created_at
        FROM pong_sessions WHERE state <> 'ended'
        ORDER BY created_at
    `)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []*Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Ping checks that the database is reachable
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}

func scanSession(row pgx.Row) (*Session, error) {
	var (
		s           Session
		left, right *string
		state       string
		createdAt   time.Time
	)
	if err := row.Scan(&s.ID, &left, &right, &state, &createdAt); err != nil {
		return nil, err
	}
	if left != nil {
		s.LeftPlayer = *left
	}
	if right != nil {
		s.RightPlayer = *right
	}
	s.State = SessionState(state)
	s.CreatedAt = createdAt
	return &s, nil
}
