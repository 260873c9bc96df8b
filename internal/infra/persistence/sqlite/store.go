// Package sqlite persists the in-memory registry state to a single SQLite
// table as JSON buckets, snapshotting after every successful transaction.
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

	"isocore/internal/infra/persistence/memory"
	"isocore/pkg/domain"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.PersistentStore = (*Store)(nil)

// Store wraps the in-memory store with SQLite durability.
type Store struct {
	*memory.Store
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewStore constructs a snapshotting SQLite-backed persistent store.
func NewStore(path string, engine *domain.RulesEngine) (*Store, error) {
	if path == "" {
		path = "isocore.db"
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

const (
	bucketCompositions = "compositions"
	bucketRecipes      = "recipes"
	bucketDecayTimes   = "decay_times"
	bucketDaughters    = "daughters"
	bucketRecorded     = "recorded"
	bucketCounter      = "counter"
)

var sqliteBuckets = []string{bucketCompositions, bucketRecipes, bucketDecayTimes, bucketDaughters, bucketRecorded, bucketCounter}

func bucketPayload(snapshot memory.Snapshot, bucket string) (any, error) {
	switch bucket {
	case bucketCompositions:
		return snapshot.Compositions, nil
	case bucketRecipes:
		return snapshot.Recipes, nil
	case bucketDecayTimes:
		return snapshot.DecayTimes, nil
	case bucketDaughters:
		return snapshot.Daughters, nil
	case bucketRecorded:
		return snapshot.Recorded, nil
	case bucketCounter:
		return snapshot.NextID, nil
	}
	return nil, fmt.Errorf("unknown bucket %s", bucket)
}

func decodeBucket(snapshot *memory.Snapshot, bucket string, payload []byte) error {
	switch bucket {
	case bucketCompositions:
		return json.Unmarshal(payload, &snapshot.Compositions)
	case bucketRecipes:
		return json.Unmarshal(payload, &snapshot.Recipes)
	case bucketDecayTimes:
		return json.Unmarshal(payload, &snapshot.DecayTimes)
	case bucketDaughters:
		return json.Unmarshal(payload, &snapshot.Daughters)
	case bucketRecorded:
		return json.Unmarshal(payload, &snapshot.Recorded)
	case bucketCounter:
		return json.Unmarshal(payload, &snapshot.NextID)
	}
	return nil
}

func (s *Store) load() error {
	rows, err := s.db.Query(`SELECT bucket, payload FROM state`)
	if err != nil {
		return fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	snapshot := memory.Snapshot{}
	loaded := false
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		if len(payload) == 0 {
			continue
		}
		if err := decodeBucket(&snapshot, bucket, payload); err != nil {
			return fmt.Errorf("decode %s: %w", bucket, err)
		}
		loaded = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate state: %w", err)
	}
	if loaded {
		s.ImportState(snapshot)
	}
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
	for _, bucket := range sqliteBuckets {
		payload, err := bucketPayload(snapshot, bucket)
		if err != nil {
			retErr = err
			return retErr
		}
		data, err := json.Marshal(payload)
		if err != nil {
			retErr = err
			return retErr
		}
		if _, err = tx.Exec(`INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`, bucket, data); err != nil {
			retErr = fmt.Errorf("upsert %s: %w", bucket, err)
			return retErr
		}
	}
	return tx.Commit()
}

// RunInTransaction applies fn within a transaction, then snapshots state to
// SQLite if successful.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx domain.Transaction) error) (domain.Result, error) {
	res, err := s.Store.RunInTransaction(ctx, fn)
	if err != nil {
		return res, err
	}
	if pErr := s.persist(); pErr != nil {
		return res, pErr
	}
	return res, nil
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }
