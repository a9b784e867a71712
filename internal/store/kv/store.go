// Package kv is the embedded Badger backend for store.Store.
package kv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/readtrackapp/readtrack-server/internal/domain"
	"github.com/readtrackapp/readtrack-server/internal/store"
)

// BackendName identifies this backend in configuration and logs.
const BackendName = "badger"

// maxConflictRetries bounds how often Update re-runs fn after losing a
// commit race.
const maxConflictRetries = 16

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	users    *entity[domain.User]
	authors  *entity[domain.Author]
	books    *entity[domain.Book]
	progress *entity[domain.BookProgress]
	sessions *entity[domain.ReadingSession]
	notes    *entity[domain.Note]
}

var _ store.Store = (*Store)(nil)

// Open creates or opens the database directory at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Sync writes to disk so a crash cannot lose a commit
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup
	return open(opts, logger, path)
}

// OpenInMemory opens a throwaway database, used by tests.
func OpenInMemory(logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return open(opts, logger, ":memory:")
}

func open(opts badger.Options, logger *slog.Logger, path string) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}

	s := &Store{db: db, logger: logger}
	s.initEntities()

	logger.Info("badger database opened", "path", path)
	return s, nil
}

// Backend implements store.Store.
func (s *Store) Backend() string { return BackendName }

// Close gracefully closes the database connection.
func (s *Store) Close() error {
	s.logger.Info("closing badger database")
	return s.db.Close()
}

// Update runs fn in a read-write transaction. Badger uses optimistic
// concurrency: when another commit touched a key fn read, the commit fails
// with badger.ErrConflict and fn runs again against fresh data.
func (s *Store) Update(ctx context.Context, fn func(tx store.Tx) error) error {
	var err error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err = s.db.Update(func(btx *badger.Txn) error {
			return fn(&txn{s: s, btx: btx, writable: true})
		})
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}

		s.logger.Debug("badger commit conflict, retrying", "attempt", attempt+1)
		if err := backoff(ctx, time.Duration(attempt+1)*time.Millisecond); err != nil {
			return err
		}
	}
	return store.ErrTxConflict.WithCause(err)
}

// backoff waits for d or until ctx is done.
func backoff(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// View runs fn against a consistent read-only snapshot.
func (s *Store) View(ctx context.Context, fn func(tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(btx *badger.Txn) error {
		return fn(&txn{s: s, btx: btx})
	})
}

// txn implements store.Tx over one badger transaction.
type txn struct {
	s        *Store
	btx      *badger.Txn
	writable bool
}

var _ store.Tx = (*txn)(nil)

func (t *txn) checkWritable() error {
	if !t.writable {
		return store.ErrReadOnly
	}
	return nil
}

// sortLayout is fixed width in UTC so that key order equals time order.
const sortLayout = "2006-01-02T15:04:05.000000000Z"

func sortable(t time.Time) string {
	return t.UTC().Format(sortLayout)
}
