package persist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/hexcolony/server/internal/snapshot"
)

// SQLiteStore is the single-file Store.
type SQLiteStore struct {
	db  *sql.DB
	log *zap.Logger
}

// OpenSQLite opens (or creates) the database at path and applies migrations.
func OpenSQLite(ctx context.Context, path string, log *zap.Logger) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("empty sqlite path")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{`PRAGMA journal_mode=WAL`, `PRAGMA busy_timeout=5000`} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite %s: %w", pragma, err)
		}
	}
	if err := runSQLiteMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db, log: log}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, p *snapshot.Process) (Record, error) {
	b, err := encode(p)
	if err != nil {
		return Record{}, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO world_snapshots (id, version, worlds, raw_size, digest, blob, saved_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.rec.ID.String(), b.rec.Version, b.rec.Worlds, b.rec.RawSize, int64(b.rec.Digest), b.data, b.rec.SavedAt.UnixNano(),
	)
	if err != nil {
		return Record{}, fmt.Errorf("insert snapshot: %w", err)
	}
	s.log.Debug("snapshot stored",
		zap.String("id", b.rec.ID.String()),
		zap.Int("raw_bytes", b.rec.RawSize),
		zap.Int("blob_bytes", len(b.data)))
	return b.rec, nil
}

func (s *SQLiteStore) Latest(ctx context.Context) (*snapshot.Process, Record, error) {
	var (
		rec     Record
		id      string
		digest  int64
		savedAt int64
		data    []byte
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, version, worlds, raw_size, digest, blob, saved_at
		 FROM world_snapshots ORDER BY seq DESC LIMIT 1`,
	).Scan(&id, &rec.Version, &rec.Worlds, &rec.RawSize, &digest, &data, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, Record{}, ErrNoSnapshot
	}
	if err != nil {
		return nil, Record{}, fmt.Errorf("load snapshot: %w", err)
	}
	if rec.ID, err = uuid.Parse(id); err != nil {
		return nil, Record{}, fmt.Errorf("%w: snapshot id %q", ErrCorrupt, id)
	}
	rec.Digest = uint64(digest)
	rec.SavedAt = time.Unix(0, savedAt).UTC()
	p, err := decode(rec, data)
	if err != nil {
		return nil, rec, err
	}
	return p, rec, nil
}

func (s *SQLiteStore) Prune(ctx context.Context, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM world_snapshots
		 WHERE seq NOT IN (SELECT seq FROM world_snapshots ORDER BY seq DESC LIMIT ?)`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
