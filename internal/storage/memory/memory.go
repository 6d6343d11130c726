// Package memory provides an in-process account namespace.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/lugondev/go-tokengate/internal/config"
	"github.com/lugondev/go-tokengate/internal/storage"
)

func init() {
	storage.RegisterFactory(storage.DatabaseTypeMemory, func(ctx context.Context, cfg *config.DatabaseConfig) (storage.Repository, error) {
		return NewMemoryRepository(), nil
	})
}

type MemoryRepository struct {
	accountRepo *memoryAccountRepository
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		accountRepo: &memoryAccountRepository{
			accounts: make(map[string]*storage.AccountModel),
		},
	}
}

func (r *MemoryRepository) Accounts() storage.AccountRepository {
	return r.accountRepo
}

func (r *MemoryRepository) Close() error {
	return nil
}

func (r *MemoryRepository) Ping(ctx context.Context) error {
	return nil
}

type memoryAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*storage.AccountModel
}

func (r *memoryAccountRepository) Allocate(ctx context.Context, account *storage.AccountModel) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.accounts[account.Address]; exists {
		return storage.ErrAccountExists
	}
	stored := *account
	stored.Data = append([]byte(nil), account.Data...)
	r.accounts[account.Address] = &stored
	return nil
}

func (r *memoryAccountRepository) FindByAddress(ctx context.Context, address string) (*storage.AccountModel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.accounts[address]
	if !ok {
		return nil, nil
	}
	out := *account
	out.Data = append([]byte(nil), account.Data...)
	return &out, nil
}

func (r *memoryAccountRepository) FindByOwner(ctx context.Context, owner string, limit int, offset int) ([]*storage.AccountModel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	var matched []*storage.AccountModel
	for _, account := range r.accounts {
		if account.Owner == owner {
			out := *account
			matched = append(matched, &out)
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].Address < matched[j].Address
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

// Len returns the number of stored accounts.
func (r *MemoryRepository) Len() int {
	r.accountRepo.mu.RLock()
	defer r.accountRepo.mu.RUnlock()
	return len(r.accountRepo.accounts)
}
