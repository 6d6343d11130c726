package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/lugondev/go-tokengate/internal/config"
)

// Factory opens a Repository from the database section of the configuration.
type Factory func(ctx context.Context, cfg *config.DatabaseConfig) (Repository, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[DatabaseType]Factory)
)

// RegisterFactory registers the backend for dbType. Backends call it from init.
func RegisterFactory(dbType DatabaseType, factory Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[dbType] = factory
}

// NewRepositoryFromConfig opens the backend selected by cfg.Type.
func NewRepositoryFromConfig(ctx context.Context, cfg *config.DatabaseConfig) (Repository, error) {
	factoriesMu.RLock()
	factory, ok := factories[DatabaseType(cfg.Type)]
	factoriesMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%s factory not registered - import the backend package for side effects", cfg.Type)
	}
	return factory(ctx, cfg)
}
