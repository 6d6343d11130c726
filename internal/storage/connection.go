package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/lugondev/go-tokengate/internal/config"
)

type DatabaseType string

const (
	DatabaseTypeMemory   DatabaseType = "memory"
	DatabaseTypeSQLite   DatabaseType = "sqlite"
	DatabaseTypeMySQL    DatabaseType = "mysql"
	DatabaseTypePostgres DatabaseType = "postgres"
	DatabaseTypeMongoDB  DatabaseType = "mongodb"
	DatabaseTypeRedis    DatabaseType = "redis"
)

type ConnectionManager struct {
	config     *config.DatabaseConfig
	mu         sync.Mutex
	repository Repository
}

func NewConnectionManager(cfg *config.DatabaseConfig) (*ConnectionManager, error) {
	if cfg == nil || cfg.Type == "" {
		return nil, fmt.Errorf("database type is not configured")
	}

	return &ConnectionManager{
		config: cfg,
	}, nil
}

func (cm *ConnectionManager) Connect(ctx context.Context) (Repository, error) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.repository != nil {
		return cm.repository, nil
	}

	repo, err := NewRepositoryFromConfig(ctx, cm.config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := repo.Ping(ctx); err != nil {
		repo.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	cm.repository = repo
	return repo, nil
}

func (cm *ConnectionManager) GetRepository() (Repository, error) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.repository == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	return cm.repository, nil
}

func (cm *ConnectionManager) Close() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.repository != nil {
		err := cm.repository.Close()
		cm.repository = nil
		return err
	}
	return nil
}
