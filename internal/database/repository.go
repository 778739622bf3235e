package database

import (
	"context"
	"fmt"
	"time"

	"go-goodhr-automation/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema is applied by EnsureSchema. One row per user and tier; exactly one
// row per user is active.
const Schema = `
CREATE TABLE IF NOT EXISTS user_quotas (
	user_id         TEXT        NOT NULL,
	tier            TEXT        NOT NULL,
	greet_count     INTEGER     NOT NULL DEFAULT 0 CHECK (greet_count >= 0),
	remaining_quota INTEGER     NOT NULL DEFAULT 0 CHECK (remaining_quota >= 0),
	expiry_date     TEXT        NOT NULL DEFAULT '',
	last_reset_date DATE,
	tokens_used     BIGINT      NOT NULL DEFAULT 0,
	active          BOOLEAN     NOT NULL DEFAULT FALSE,
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (user_id, tier)
)`

type Repository struct {
	db *pgxpool.Pool
}

func ConnectDB(ctx context.Context, connString string) (*Repository, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database url: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour

	// transaction-mode poolers do not keep prepared statements between calls
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeExec

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	return &Repository{db: pool}, nil
}

func (r *Repository) Close() {
	if r.db != nil {
		r.db.Close()
	}
}

func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to create user_quotas: %w", err)
	}
	return nil
}

// ---------------- QUOTA OPERATIONS ----------------

// QuotaState loads every tier row of the user. A user without rows is
// ErrUserNotFound; rows without exactly one active tier are malformed.
func (r *Repository) QuotaState(ctx context.Context, userID string) (*models.QuotaState, error) {
	query := `
		SELECT tier, greet_count, remaining_quota, expiry_date, last_reset_date, tokens_used, active
		FROM user_quotas WHERE user_id = $1`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query quota: %w", err)
	}
	defer rows.Close()

	state := &models.QuotaState{Versions: map[models.Tier]*models.VersionQuota{}}
	actives := 0
	for rows.Next() {
		var (
			tier      string
			vq        models.VersionQuota
			lastReset *time.Time
			active    bool
		)
		if err := rows.Scan(&tier, &vq.GreetCount, &vq.RemainingQuota, &vq.ExpiryDate, &lastReset, &vq.TokensUsed, &active); err != nil {
			return nil, fmt.Errorf("failed to scan quota row: %w", err)
		}
		if lastReset != nil {
			vq.LastResetDate = models.DateOf(*lastReset)
		}
		state.Versions[models.Tier(tier)] = &vq
		if active {
			state.Version = models.Tier(tier)
			actives++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read quota rows: %w", err)
	}

	if len(state.Versions) == 0 {
		return nil, fmt.Errorf("%w: %s", models.ErrUserNotFound, userID)
	}
	if actives != 1 {
		return nil, fmt.Errorf("%w: %s has %d active tiers", models.ErrMalformed, userID, actives)
	}
	if err := state.Validate(); err != nil {
		return nil, err
	}
	return state, nil
}

// SaveQuotaState upserts every tier and moves the active flag in one transaction.
func (r *Repository) SaveQuotaState(ctx context.Context, userID string, state *models.QuotaState) error {
	if err := state.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO user_quotas (user_id, tier, greet_count, remaining_quota, expiry_date, last_reset_date, tokens_used, active, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (user_id, tier)
		DO UPDATE SET greet_count = EXCLUDED.greet_count, remaining_quota = EXCLUDED.remaining_quota,
			expiry_date = EXCLUDED.expiry_date, last_reset_date = EXCLUDED.last_reset_date,
			tokens_used = EXCLUDED.tokens_used, active = EXCLUDED.active, updated_at = now()`

	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		for tier, vq := range state.Versions {
			var lastReset *time.Time
			if !vq.LastResetDate.IsZero() {
				t := vq.LastResetDate.Time()
				lastReset = &t
			}
			_, err := tx.Exec(ctx, query, userID, string(tier), vq.GreetCount, vq.RemainingQuota,
				vq.ExpiryDate, lastReset, vq.TokensUsed, tier == state.Version)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save quota: %w", err)
	}
	return nil
}

// DeleteUser drops every quota row of the user.
func (r *Repository) DeleteUser(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx, "DELETE FROM user_quotas WHERE user_id = $1", userID)
	if err != nil {
		return fmt.Errorf("failed to delete quota: %w", err)
	}
	return nil
}
