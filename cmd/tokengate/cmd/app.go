package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/lugondev/go-tokengate/internal/badge"
	"github.com/lugondev/go-tokengate/internal/common"
	gateerrors "github.com/lugondev/go-tokengate/internal/errors"
	"github.com/lugondev/go-tokengate/internal/metrics"
	"github.com/lugondev/go-tokengate/internal/policy"
	solanaclient "github.com/lugondev/go-tokengate/internal/solana"
	"github.com/lugondev/go-tokengate/internal/storage"

	_ "github.com/lugondev/go-tokengate/internal/storage/memory"
	_ "github.com/lugondev/go-tokengate/internal/storage/mongo"
	_ "github.com/lugondev/go-tokengate/internal/storage/postgres"
	_ "github.com/lugondev/go-tokengate/internal/storage/redis"
	_ "github.com/lugondev/go-tokengate/internal/storage/sqldb"
)

// app holds the collaborators shared by subcommands.
type app struct {
	logger    *slog.Logger
	metrics   *metrics.Collection
	conn      *storage.ConnectionManager
	registry  *badge.Registry
	programID solana.PublicKey
}

func newApp(ctx context.Context) (*app, error) {
	logger := common.NewLogger(os.Stderr, cfg.Log)

	programID, err := cfg.ProgramID()
	if err != nil {
		return nil, gateerrors.InvalidConfig(err.Error())
	}

	collection := newMetrics(logger)
	if err := collection.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	conn, err := storage.NewConnectionManager(&cfg.Database)
	if err != nil {
		return nil, gateerrors.InvalidConfig(err.Error())
	}
	repo, err := conn.Connect(ctx)
	if err != nil {
		return nil, gateerrors.StorageUnavailable("connect", err)
	}

	registry := badge.NewRegistry(programID, repo.Accounts()).
		WithLogger(logger).
		WithMetrics(collection)

	return &app{
		logger:    logger,
		metrics:   collection,
		conn:      conn,
		registry:  registry,
		programID: programID,
	}, nil
}

func (a *app) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.metrics.Flush(ctx); err != nil {
		a.logger.Warn("failed to flush metrics", "error", err)
	}
	if err := a.metrics.Shutdown(ctx); err != nil {
		a.logger.Warn("failed to shut down metrics", "error", err)
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Warn("failed to close storage", "error", err)
	}
}

func newMetrics(logger *slog.Logger) *metrics.Collection {
	switch cfg.Metrics.Backend {
	case "none", "":
		return metrics.NewCollection()
	case "prometheus":
		return metrics.NewCollection(metrics.NewPrometheusMetrics("tokengate", cfg.Metrics.ListenAddress, logger))
	default:
		return metrics.NewCollection(metrics.NewLogMetrics(logger))
	}
}

func (a *app) newEngine() (*policy.Engine, error) {
	allowList := policy.DefaultAllowList()

	configured, err := policy.NewAllowList(cfg.Policy.AllowList...)
	if err != nil {
		return nil, gateerrors.InvalidConfig(err.Error())
	}
	allowList.Merge(configured)

	if cfg.Policy.AllowListFile != "" {
		fromFile, err := policy.LoadAllowListFile(cfg.Policy.AllowListFile)
		if err != nil {
			return nil, gateerrors.InvalidConfig(err.Error())
		}
		allowList.Merge(fromFile)
	}

	return policy.NewEngine(policy.DefaultTable(), allowList).
		WithLogger(a.logger).
		WithMetrics(a.metrics), nil
}

func newRPCClient() *solanaclient.Client {
	return solanaclient.NewClient(cfg.Solana.GetRPCEndpoint()).WithCommitment(cfg.Solana.Commitment)
}

// resolveConfiguration finds a configuration entity by id in the config file.
func resolveConfiguration(id string) (badge.Configuration, error) {
	entry, ok := cfg.FindConfiguration(id)
	if !ok {
		return badge.Configuration{}, gateerrors.InvalidConfig(fmt.Sprintf("configuration %s is not defined", id))
	}

	configID, err := solana.PublicKeyFromBase58(entry.ID)
	if err != nil {
		return badge.Configuration{}, gateerrors.InvalidConfig(err.Error())
	}
	authority, err := solana.PublicKeyFromBase58(entry.TokenBadgeAuthority)
	if err != nil {
		return badge.Configuration{}, gateerrors.InvalidConfig(err.Error())
	}

	return badge.Configuration{ID: configID, TokenBadgeAuthority: authority}, nil
}

func parsePublicKeys(args []string) ([]solana.PublicKey, error) {
	keys := make([]solana.PublicKey, 0, len(args))
	for _, arg := range args {
		key, err := solana.PublicKeyFromBase58(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid address %q: %w", arg, err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func commandContext() (context.Context, context.CancelFunc) {
	timeout := time.Duration(cfg.Solana.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return context.WithTimeout(context.Background(), timeout)
}
