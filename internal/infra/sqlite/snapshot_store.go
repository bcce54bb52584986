package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"math-worksheet-backend/internal/domain"
	_ "github.com/mattn/go-sqlite3"
)

// SnapshotStore keeps one row per snapshot name in a local SQLite database.
type SnapshotStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSnapshotStore(path string) (*SnapshotStore, error) {
	if strings.TrimSpace(path) == "" {
		path = "snapshots.db"
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	store := &SnapshotStore{db: db, now: time.Now}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SnapshotStore) Close() error {
	return s.db.Close()
}

func (s *SnapshotStore) initSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS snapshots (
		name TEXT PRIMARY KEY,
		payload BLOB NOT NULL,
		updated_at_unix INTEGER NOT NULL
	);`)
	return err
}

func (s *SnapshotStore) Save(ctx context.Context, name string, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots (name, payload, updated_at_unix) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
			payload = excluded.payload,
			updated_at_unix = excluded.updated_at_unix`,
		name, data, s.now().Unix(),
	)
	return err
}

func (s *SnapshotStore) Load(ctx context.Context, name string) ([]byte, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM snapshots WHERE name = ?`, name).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}
