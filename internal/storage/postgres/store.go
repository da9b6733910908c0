package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agnes-pro/Automated-Market-Maker/internal/model"
)

// Store provides Postgres persistence for ledger snapshots.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Init creates the snapshot tables when they do not exist yet.
func (s *Store) Init(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS ledger_state (
			name TEXT PRIMARY KEY,
			owner_address TEXT NOT NULL,
			reward_rate BIGINT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE TABLE IF NOT EXISTS pools (
			asset_in TEXT NOT NULL,
			asset_out TEXT NOT NULL,
			reserve_in NUMERIC NOT NULL,
			reserve_out NUMERIC NOT NULL,
			total_shares NUMERIC NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (asset_in, asset_out)
		);
		CREATE TABLE IF NOT EXISTS positions (
			user_address TEXT NOT NULL,
			asset_in TEXT NOT NULL,
			asset_out TEXT NOT NULL,
			shares NUMERIC NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (user_address, asset_in, asset_out)
		);
		CREATE TABLE IF NOT EXISTS allowed_tokens (
			token TEXT PRIMARY KEY,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE TABLE IF NOT EXISTS balances (
			holder TEXT NOT NULL,
			asset TEXT NOT NULL,
			amount NUMERIC NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (holder, asset)
		);
	`)
	return err
}

// Save replaces the stored snapshot with state in one transaction.
func (s *Store) Save(ctx context.Context, state model.State) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, table := range []string{"pools", "positions", "allowed_tokens", "balances"} {
		if _, err := tx.Exec(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO ledger_state (name, owner_address, reward_rate, updated_at)
		VALUES ('amm', $1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET owner_address = EXCLUDED.owner_address,
			reward_rate = EXCLUDED.reward_rate,
			updated_at = now()
	`, state.Owner, int64(state.RewardRate)); err != nil {
		return fmt.Errorf("upsert ledger state: %w", err)
	}

	batch := &pgx.Batch{}
	for _, pool := range state.Pools {
		batch.Queue(`
			INSERT INTO pools (asset_in, asset_out, reserve_in, reserve_out, total_shares, updated_at)
			VALUES ($1, $2, $3::numeric, $4::numeric, $5::numeric, now())
		`, pool.AssetIn, pool.AssetOut, pool.ReserveIn, pool.ReserveOut, pool.TotalShares)
	}
	for _, pos := range state.Positions {
		batch.Queue(`
			INSERT INTO positions (user_address, asset_in, asset_out, shares, updated_at)
			VALUES ($1, $2, $3, $4::numeric, now())
		`, pos.User, pos.AssetIn, pos.AssetOut, pos.Shares)
	}
	for _, tok := range state.AllowedTokens {
		batch.Queue(`INSERT INTO allowed_tokens (token, updated_at) VALUES ($1, now())`, tok)
	}
	for _, bal := range state.Balances {
		batch.Queue(`
			INSERT INTO balances (holder, asset, amount, updated_at)
			VALUES ($1, $2, $3::numeric, now())
		`, bal.Holder, bal.Asset, bal.Amount)
	}

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("write snapshot row: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("close snapshot batch: %w", err)
	}

	return tx.Commit(ctx)
}

// Load reads the stored snapshot. The second return is false when no snapshot
// was ever saved.
func (s *Store) Load(ctx context.Context) (model.State, bool, error) {
	var state model.State

	var rate int64
	row := s.pool.QueryRow(ctx, `SELECT owner_address, reward_rate FROM ledger_state WHERE name='amm'`)
	if err := row.Scan(&state.Owner, &rate); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.State{}, false, nil
		}
		return model.State{}, false, fmt.Errorf("load ledger state: %w", err)
	}
	state.RewardRate = uint64(rate)

	rows, err := s.pool.Query(ctx, `
		SELECT asset_in, asset_out, reserve_in::text, reserve_out::text, total_shares::text
		FROM pools ORDER BY asset_in, asset_out
	`)
	if err != nil {
		return model.State{}, false, fmt.Errorf("load pools: %w", err)
	}
	for rows.Next() {
		var rec model.PoolRecord
		if err := rows.Scan(&rec.AssetIn, &rec.AssetOut, &rec.ReserveIn, &rec.ReserveOut, &rec.TotalShares); err != nil {
			rows.Close()
			return model.State{}, false, fmt.Errorf("scan pool: %w", err)
		}
		state.Pools = append(state.Pools, rec)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return model.State{}, false, fmt.Errorf("load pools: %w", err)
	}

	rows, err = s.pool.Query(ctx, `
		SELECT user_address, asset_in, asset_out, shares::text
		FROM positions ORDER BY user_address, asset_in, asset_out
	`)
	if err != nil {
		return model.State{}, false, fmt.Errorf("load positions: %w", err)
	}
	for rows.Next() {
		var rec model.PositionRecord
		if err := rows.Scan(&rec.User, &rec.AssetIn, &rec.AssetOut, &rec.Shares); err != nil {
			rows.Close()
			return model.State{}, false, fmt.Errorf("scan position: %w", err)
		}
		state.Positions = append(state.Positions, rec)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return model.State{}, false, fmt.Errorf("load positions: %w", err)
	}

	rows, err = s.pool.Query(ctx, `SELECT token FROM allowed_tokens ORDER BY token`)
	if err != nil {
		return model.State{}, false, fmt.Errorf("load allowed tokens: %w", err)
	}
	for rows.Next() {
		var tok string
		if err := rows.Scan(&tok); err != nil {
			rows.Close()
			return model.State{}, false, fmt.Errorf("scan allowed token: %w", err)
		}
		state.AllowedTokens = append(state.AllowedTokens, tok)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return model.State{}, false, fmt.Errorf("load allowed tokens: %w", err)
	}

	rows, err = s.pool.Query(ctx, `SELECT holder, asset, amount::text FROM balances ORDER BY holder, asset`)
	if err != nil {
		return model.State{}, false, fmt.Errorf("load balances: %w", err)
	}
	for rows.Next() {
		var rec model.BalanceRecord
		if err := rows.Scan(&rec.Holder, &rec.Asset, &rec.Amount); err != nil {
			rows.Close()
			return model.State{}, false, fmt.Errorf("scan balance: %w", err)
		}
		state.Balances = append(state.Balances, rec)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return model.State{}, false, fmt.Errorf("load balances: %w", err)
	}

	return state, true, nil
}
