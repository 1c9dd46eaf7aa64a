// Package persist stores process snapshots in Postgres or SQLite.
package persist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hexcolony/server/internal/config"
	"github.com/hexcolony/server/internal/snapshot"
)

// Store keeps snapshots, newest last.
type Store interface {
	Save(ctx context.Context, p *snapshot.Process) (Record, error)
	// Latest returns the newest snapshot or ErrNoSnapshot.
	Latest(ctx context.Context) (*snapshot.Process, Record, error)
	// Prune deletes all but the newest keep snapshots.
	Prune(ctx context.Context, keep int) (int64, error)
	Close() error
}

// DB wraps a pgx connection pool.
type DB struct {
	Pool *pgxpool.Pool
	log  *zap.Logger
}

func NewDB(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (*DB, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	poolCfg.MinConns = int32(cfg.MaxIdleConns)
	poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to db: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return &DB{Pool: pool, log: log}, nil
}

func (db *DB) Close() {
	db.Pool.Close()
}

// SnapshotRepo is the Postgres Store.
type SnapshotRepo struct {
	db *DB
}

func NewSnapshotRepo(db *DB) *SnapshotRepo {
	return &SnapshotRepo{db: db}
}

func (r *SnapshotRepo) Save(ctx context.Context, p *snapshot.Process) (Record, error) {
	b, err := encode(p)
	if err != nil {
		return Record{}, err
	}
	_, err = r.db.Pool.Exec(ctx,
		`INSERT INTO world_snapshots (id, version, worlds, raw_size, digest, blob, saved_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		b.rec.ID, b.rec.Version, b.rec.Worlds, b.rec.RawSize, int64(b.rec.Digest), b.data, b.rec.SavedAt,
	)
	if err != nil {
		return Record{}, fmt.Errorf("insert snapshot: %w", err)
	}
	return b.rec, nil
}

func (r *SnapshotRepo) Latest(ctx context.Context) (*snapshot.Process, Record, error) {
	var (
		rec    Record
		digest int64
		data   []byte
	)
	err := r.db.Pool.QueryRow(ctx,
		`SELECT id, version, worlds, raw_size, digest, blob, saved_at
		 FROM world_snapshots ORDER BY seq DESC LIMIT 1`,
	).Scan(&rec.ID, &rec.Version, &rec.Worlds, &rec.RawSize, &digest, &data, &rec.SavedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, Record{}, ErrNoSnapshot
	}
	if err != nil {
		return nil, Record{}, fmt.Errorf("load snapshot: %w", err)
	}
	rec.Digest = uint64(digest)
	p, err := decode(rec, data)
	if err != nil {
		return nil, rec, err
	}
	return p, rec, nil
}

func (r *SnapshotRepo) Prune(ctx context.Context, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}
	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM world_snapshots
		 WHERE seq NOT IN (SELECT seq FROM world_snapshots ORDER BY seq DESC LIMIT $1)`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *SnapshotRepo) Close() error {
	r.db.Close()
	return nil
}
