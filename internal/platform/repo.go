package platform

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/db"
	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/product"
)

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) Get(ctx context.Context, key string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	var v string
	err := r.db.QueryRow(ctx, `SELECT value FROM settings WHERE key=$1`, key).Scan(&v)
	if err != nil {
		return "", db.Translate(err, "get setting", "setting", key)
	}
	return v, nil
}

func (r *PGRepo) Set(ctx context.Context, key, value string) error {
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	_, err := r.db.Exec(ctx, setSQL, key, value)
	return db.Translate(err, "set setting", "setting", key)
}

const setSQL = `
	INSERT INTO settings (key, value, updated_at) VALUES ($1, $2, NOW())
	ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`

func (r *PGRepo) RecordSync(ctx context.Context, res *product.SyncResult) error {
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	failures, err := json.Marshal(res.Failures)
	if err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return db.Translate(err, "begin record sync", "sync log", res.ID)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO sync_logs (id, provider, synced, errors, aborted, failures, started_at, finished_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, res.ID, res.Provider, res.Synced, res.Errors, res.Aborted, failures, res.StartedAt, res.FinishedAt); err != nil {
		return db.Translate(err, "insert sync log", "sync log", res.ID)
	}
	if _, err := tx.Exec(ctx, setSQL, lastSyncKey(res.Provider), res.FinishedAt.UTC().Format(time.RFC3339)); err != nil {
		return db.Translate(err, "set last sync", "setting", lastSyncKey(res.Provider))
	}
	return db.Translate(tx.Commit(ctx), "commit sync log", "sync log", res.ID)
}

func (r *PGRepo) LastSync(ctx context.Context, provider string) (*product.SyncResult, error) {
	ctx, cancel := context.WithTimeout(ctx, db.QueryTimeout)
	defer cancel()

	var (
		res      product.SyncResult
		failures []byte
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, provider, synced, errors, aborted, failures, started_at, finished_at
		FROM sync_logs WHERE provider=$1
		ORDER BY finished_at DESC LIMIT 1
	`, provider).Scan(&res.ID, &res.Provider, &res.Synced, &res.Errors, &res.Aborted, &failures, &res.StartedAt, &res.FinishedAt)
	if err != nil {
		return nil, db.Translate(err, "get last sync", "sync log", provider)
	}
	res.Failures = []product.Failure{}
	if len(failures) > 0 {
		if err := json.Unmarshal(failures, &res.Failures); err != nil {
			return nil, db.Translate(err, "decode sync failures", "sync log", res.ID)
		}
	}
	return &res, nil
}
