package storage

import (
	"context"
	"errors"
)

// ErrAccountExists is returned by Allocate when the address already holds an account.
var ErrAccountExists = errors.New("account already exists")

// AccountRepository is a keyed account namespace.
//
// Allocate is create-if-absent and must be atomic: of any number of concurrent
// calls for one address exactly one succeeds and the rest observe
// ErrAccountExists. Stored accounts are never updated in place.
type AccountRepository interface {
	Allocate(ctx context.Context, account *AccountModel) error
	FindByAddress(ctx context.Context, address string) (*AccountModel, error)
	FindByOwner(ctx context.Context, owner string, limit int, offset int) ([]*AccountModel, error)
}

type Repository interface {
	Accounts() AccountRepository
	Close() error
	Ping(ctx context.Context) error
}
