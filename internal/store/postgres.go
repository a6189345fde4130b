// Package store is the Store Adapter of spec.md §4.1: pooled
// connections, a scoped run-in-transaction primitive at configurable
// isolation, and classification of driver errors into retriable vs
// fatal categories. Grounded on the teacher repo's
// common/mpostgres/postgres.go, minus the golang-migrate schema
// bootstrap step — out of scope per spec.md §1.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/bxcodec/dbresolver/v2"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver

	"github.com/ironvault/walletledger/internal/dbtx"
	"github.com/ironvault/walletledger/internal/mlog"
)

// Config is the pool sizing and timeout surface of spec.md §6.
type Config struct {
	PrimaryDSN string
	ReplicaDSN string // optional; empty means reads also go to primary

	MinConnections      int
	MaxConnections      int
	ConnectionTimeoutMs int
	IdleTimeoutMs       int
	StatementTimeoutMs  int
}

// DefaultConfig matches the defaults spec.md §6 names.
func DefaultConfig() Config {
	return Config{
		MinConnections:      10,
		MaxConnections:      50,
		ConnectionTimeoutMs: 30000,
		IdleTimeoutMs:       10000,
		StatementTimeoutMs:  30000,
	}
}

// Store is the pooled connection handle every repository and every
// service in this module is constructed with. It is passed in, never a
// module-level singleton (spec.md §9: "prefer explicit dependency
// injection of the pool handle over module-level singletons").
type Store struct {
	cfg      Config
	primary  *sql.DB
	replica  *sql.DB
	resolved dbresolver.DB
}

// Open establishes the primary (and, if configured, replica) pool. It
// does not run any schema migration — that is external housekeeping per
// spec.md §1.
func Open(cfg Config) (*Store, error) {
	primary, err := sql.Open("pgx", cfg.PrimaryDSN)
	if err != nil {
		return nil, fmt.Errorf("open primary: %w", err)
	}

	applyPoolSettings(primary, cfg)

	replica := primary
	if cfg.ReplicaDSN != "" {
		replica, err = sql.Open("pgx", cfg.ReplicaDSN)
		if err != nil {
			return nil, fmt.Errorf("open replica: %w", err)
		}

		applyPoolSettings(replica, cfg)
	}

	resolved := dbresolver.New(
		dbresolver.WithPrimaryDBs(primary),
		dbresolver.WithReplicaDBs(replica),
		dbresolver.WithLoadBalancer(dbresolver.RoundRobinLB),
	)

	return &Store{cfg: cfg, primary: primary, replica: replica, resolved: resolved}, nil
}

// NewForTest wraps an already-open *sql.DB (typically a sqlmock
// instance) as a Store whose Primary and Reader both resolve to it
// directly, with no dbresolver load balancing. Repository and service
// tests use this instead of Open so they never need a live Postgres.
func NewForTest(db *sql.DB) *Store {
	resolved := dbresolver.New(dbresolver.WithPrimaryDBs(db))
	return &Store{cfg: DefaultConfig(), primary: db, replica: db, resolved: resolved}
}

func applyPoolSettings(db *sql.DB, cfg Config) {
	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MinConnections)
	db.SetConnMaxIdleTime(time.Duration(cfg.IdleTimeoutMs) * time.Millisecond)
	// Keepalive against idle disconnects (spec.md §4.1): bound the
	// lifetime of any single connection so a half-dead one is recycled
	// rather than silently failing the next statement on it.
	db.SetConnMaxLifetime(30 * time.Minute)
}

// Primary returns the read-write pool. The Ledger Writer and the
// Idempotency Registry's persistent write always use this.
func (s *Store) Primary() *sql.DB { return s.primary }

// Reader returns the load-balanced primary/replica handle used by the
// two read-only auxiliaries (spec.md §4.6). When no replica is
// configured it transparently resolves back to the primary.
//
//nolint:ireturn
func (s *Store) Reader() dbresolver.DB { return s.resolved }

// Ping verifies connectivity to both pools, logging but not crashing
// the process on failure (spec.md §4.1: "unexpected per-connection
// errors are logged but do not crash the process").
func (s *Store) Ping(ctx context.Context, logger mlog.Logger) {
	pingCtx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.ConnectionTimeoutMs)*time.Millisecond)
	defer cancel()

	if err := s.primary.PingContext(pingCtx); err != nil {
		logger.Errorf("store: primary ping failed: %v", err)
	}

	if s.replica != s.primary {
		if err := s.replica.PingContext(pingCtx); err != nil {
			logger.Warnf("store: replica ping failed, reads will still succeed against primary: %v", err)
		}
	}
}

// RunInTransaction opens a serializable transaction against the primary
// and runs fn inside it, per spec.md §4.1 and §4.3.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	opts := &sql.TxOptions{Isolation: sql.LevelSerializable}
	return dbtx.RunInTransaction(ctx, s.primary, opts, fn)
}

// Close drains both pools. Called during graceful shutdown after
// in-flight transactions finish or the shutdown timer expires (spec.md
// §5).
func (s *Store) Close() error {
	if err := s.primary.Close(); err != nil {
		return err
	}

	if s.replica != s.primary {
		return s.replica.Close()
	}

	return nil
}
