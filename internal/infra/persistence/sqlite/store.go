// Package sqlite persists the in-memory root to a local SQLite database so
// the tracker survives restarts without any remote connectivity.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"wardwatch/internal/infra/persistence/memory"
	"wardwatch/pkg/domain"
)

var _ domain.PersistentStore = (*Store)(nil)

// Store persists the in-memory root to a single SQLite table as JSON blobs.
// It snapshots the full root after every successful transaction.
type Store struct {
	*memory.Store
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewStore constructs a snapshotting SQLite-backed persistent store.
func NewStore(path string, engine *domain.RulesEngine) (*Store, error) {
	if path == "" {
		path = "wardwatch.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create state table: %w", err)
	}
	s := &Store{Store: memory.NewStore(engine), db: db, path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

var buckets = []string{"units", "issues", "registrations", "bonus_requests", "sessions", "audit_log", "meta"}

func (s *Store) load() error {
	rows, err := s.db.Query(`SELECT bucket, payload FROM state`)
	if err != nil {
		return fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()
	type raw struct {
		bucket  string
		payload []byte
	}
	var raws []raw
	for rows.Next() {
		var r raw
		if err := rows.Scan(&r.bucket, &r.payload); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		raws = append(raws, r)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate state: %w", err)
	}
	if len(raws) == 0 {
		return nil
	}
	snapshot := domain.Snapshot{}
	for _, r := range raws {
		switch r.bucket {
		case "units":
			err = json.Unmarshal(r.payload, &snapshot.Units)
		case "issues":
			err = json.Unmarshal(r.payload, &snapshot.Issues)
		case "registrations":
			err = json.Unmarshal(r.payload, &snapshot.Registrations)
		case "bonus_requests":
			err = json.Unmarshal(r.payload, &snapshot.BonusRequests)
		case "sessions":
			err = json.Unmarshal(r.payload, &snapshot.Sessions)
		case "audit_log":
			err = json.Unmarshal(r.payload, &snapshot.AuditLog)
		case "meta":
			err = json.Unmarshal(r.payload, &snapshot.Meta)
		}
		if err != nil {
			return fmt.Errorf("decode %s: %w", r.bucket, err)
		}
	}
	s.ImportState(snapshot)
	return nil
}

func (s *Store) persist() (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.ExportState()
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for _, bucket := range buckets {
		var data []byte
		switch bucket {
		case "units":
			data, err = json.Marshal(snapshot.Units)
		case "issues":
			data, err = json.Marshal(snapshot.Issues)
		case "registrations":
			data, err = json.Marshal(snapshot.Registrations)
		case "bonus_requests":
			data, err = json.Marshal(snapshot.BonusRequests)
		case "sessions":
			data, err = json.Marshal(snapshot.Sessions)
		case "audit_log":
			data, err = json.Marshal(snapshot.AuditLog)
		case "meta":
			data, err = json.Marshal(snapshot.Meta)
		}
		if err != nil {
			retErr = err
			return retErr
		}
		if _, err = tx.Exec(`INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`, bucket, data); err != nil {
			retErr = fmt.Errorf("upsert %s: %w", bucket, err)
			return retErr
		}
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	return nil
}

// RunInTransaction applies fn within a transaction, then snapshots the root
// to SQLite if successful.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx domain.Transaction) error) (domain.Result, error) {
	res, err := s.Store.RunInTransaction(ctx, fn)
	if err != nil {
		return res, err
	}
	if pErr := s.persist(); pErr != nil {
		return res, domain.StorageError{Op: "persist", Err: pErr}
	}
	return res, nil
}

// ImportState replaces the root and persists the result.
func (s *Store) ImportState(snapshot domain.Snapshot) {
	s.Store.ImportState(snapshot)
}

// StorageUsage reports the database file size in bytes.
func (s *Store) StorageUsage() (int64, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return 0, domain.StorageError{Op: "stat", Err: err}
	}
	return info.Size(), nil
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }

// Close flushes and closes the database handle.
func (s *Store) Close() error {
	if err := s.persist(); err != nil {
		return err
	}
	return s.db.Close()
}
