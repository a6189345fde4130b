// Command ledgerengine wires the wallet ledger engine's components
// together against a live Postgres (and optional Redis) instance. It
// owns no HTTP or gRPC surface — spec.md §1 scopes transport, auth, and
// request routing out of this module; an embedding service is expected
// to call the services this command constructs directly.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	accountrepo "github.com/ironvault/walletledger/internal/adapters/postgres/account"
	assetrepo "github.com/ironvault/walletledger/internal/adapters/postgres/asset"
	"github.com/ironvault/walletledger/internal/adapters/postgres/audit"
	"github.com/ironvault/walletledger/internal/adapters/postgres/balance"
	"github.com/ironvault/walletledger/internal/adapters/postgres/idempotency"
	"github.com/ironvault/walletledger/internal/adapters/postgres/ledger"
	redisaccel "github.com/ironvault/walletledger/internal/adapters/redis"
	"github.com/ironvault/walletledger/internal/config"
	"github.com/ironvault/walletledger/internal/mlog"
	"github.com/ironvault/walletledger/internal/services/ledgerwriter"
	"github.com/ironvault/walletledger/internal/services/orchestrator"
	"github.com/ironvault/walletledger/internal/services/query"
	"github.com/ironvault/walletledger/internal/services/retry"
	"github.com/ironvault/walletledger/internal/store"
	"github.com/ironvault/walletledger/internal/validation"
)

// Engine is the fully wired set of operations this module exposes:
// three write operations behind the Retry Driver, and two read-only
// operations. An embedding HTTP/gRPC service calls these directly.
type Engine struct {
	Orchestrator  *orchestrator.Orchestrator
	RetryConfig   retry.Config
	BalanceReader *query.BalanceReader
	HistoryReader *query.HistoryReader
	store         *store.Store
	logger        mlog.Logger
}

// TopUp runs the Movement Orchestrator's TopUp behind the Retry Driver
// (spec.md §4.5), so a caller never has to remember to wrap it itself.
func (e *Engine) TopUp(ctx context.Context, req orchestrator.Request) (*orchestrator.Response, error) {
	return retry.Execute(ctx, e.RetryConfig, func(ctx context.Context) (*orchestrator.Response, error) {
		return e.Orchestrator.TopUp(ctx, req)
	})
}

// Bonus runs the Movement Orchestrator's Bonus behind the Retry Driver.
func (e *Engine) Bonus(ctx context.Context, req orchestrator.Request) (*orchestrator.Response, error) {
	return retry.Execute(ctx, e.RetryConfig, func(ctx context.Context) (*orchestrator.Response, error) {
		return e.Orchestrator.Bonus(ctx, req)
	})
}

// Purchase runs the Movement Orchestrator's Purchase behind the Retry
// Driver.
func (e *Engine) Purchase(ctx context.Context, req orchestrator.Request) (*orchestrator.Response, error) {
	return retry.Execute(ctx, e.RetryConfig, func(ctx context.Context) (*orchestrator.Response, error) {
		return e.Orchestrator.Purchase(ctx, req)
	})
}

// Shutdown drains in-flight work and closes pooled connections,
// bounded by the configured shutdown timeout (spec.md §5).
func (e *Engine) Shutdown(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)

	go func() { done <- e.store.Close() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func buildEngine(cfg *config.Config, logger mlog.Logger) (*Engine, error) {
	storeCfg := store.Config{
		PrimaryDSN:          dsn(cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName),
		MinConnections:      cfg.DBPoolMinConns,
		MaxConnections:      cfg.DBPoolMaxConns,
		ConnectionTimeoutMs: cfg.DBConnTimeoutMs,
		IdleTimeoutMs:       cfg.DBIdleTimeoutMs,
		StatementTimeoutMs:  cfg.DBStatementTimeoutMs,
	}

	if cfg.DBReplicaHost != "" {
		storeCfg.ReplicaDSN = dsn(cfg.DBReplicaHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName)
	}

	s, err := store.Open(storeCfg)
	if err != nil {
		return nil, err
	}

	assets := assetrepo.NewRepository(s.Primary())
	accounts := accountrepo.NewRepository(s.Primary())
	ledgerRepo := ledger.NewRepository(s.Primary())
	balanceRepo := balance.NewRepository(s.Primary())
	idempotencyRepo := idempotency.NewRepository(s.Primary())
	auditRepo := audit.NewRepository(s.Primary())

	readAssets := assetrepo.NewRepository(s.Reader())
	readAccounts := accountrepo.NewRepository(s.Reader())
	readBalances := balance.NewRepository(s.Reader())
	readLedger := ledger.NewRepository(s.Reader())

	var cache redisaccel.Cache
	if cfg.RedisAddr != "" {
		client := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
		cache = redisaccel.NewCache(client, "walletledger")
	}

	v, err := validation.New()
	if err != nil {
		return nil, err
	}

	writer := ledgerwriter.New(s, balanceRepo, ledgerRepo, idempotencyRepo, auditRepo)

	idempotencyTTL := time.Duration(cfg.IdempotencyTTLHours) * time.Hour

	orch := orchestrator.New(assets, accounts, idempotencyRepo, cache, writer, v, idempotencyTTL)

	retryCfg := retry.DefaultConfig().
		WithMaxAttempts(cfg.RetryMaxAttempts).
		WithBaseBackoffMs(cfg.RetryBaseBackoffMs).
		WithJitterMs(cfg.RetryJitterMs)

	if err := retryCfg.Validate(); err != nil {
		return nil, err
	}

	return &Engine{
		Orchestrator:  orch,
		RetryConfig:   retryCfg,
		BalanceReader: query.NewBalanceReader(readAssets, readAccounts, readBalances),
		HistoryReader: query.NewHistoryReader(readAssets, readAccounts, readLedger),
		store:         s,
		logger:        logger,
	}, nil
}

func dsn(host, port, user, password, name string) string {
	return "host=" + host + " port=" + port + " user=" + user + " password=" + password + " dbname=" + name + " sslmode=disable"
}

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("ledgerengine: load config: %v", err)
	}

	zapLogger, err := mlog.NewZapLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("ledgerengine: init logger: %v", err)
	}

	defer zapLogger.Sync()

	engine, err := buildEngine(cfg, zapLogger)
	if err != nil {
		zapLogger.Fatalf("ledgerengine: build engine: %v", err)
	}

	zapLogger.Info("ledgerengine: ready")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	zapLogger.Info("ledgerengine: shutting down")

	shutdownCtx := mlog.ContextWithLogger(context.Background(), zapLogger)
	if err := engine.Shutdown(shutdownCtx, time.Duration(cfg.ShutdownTimeoutMs)*time.Millisecond); err != nil {
		zapLogger.Errorf("ledgerengine: shutdown error: %v", err)
		os.Exit(1)
	}
}
