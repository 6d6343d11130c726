package badge

import (
	"context"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
)

// Rent parameters for a rent-exempt allocation.
const (
	accountStorageOverhead  = 128
	lamportsPerByteYear     = 3480
	exemptionThresholdYears = 2
)

// RentExemptMinimum returns the lamports needed to keep an account of size bytes alive.
func RentExemptMinimum(size int) uint64 {
	return uint64(accountStorageOverhead+size) * lamportsPerByteYear * exemptionThresholdYears
}

// Funder pays for badge allocation.
type Funder interface {
	PublicKey() solana.PublicKey
	// Debit reserves lamports; it fails if the funder cannot cover them.
	Debit(ctx context.Context, lamports uint64) error
	// Credit returns lamports reserved by a Debit whose allocation did not happen.
	Credit(ctx context.Context, lamports uint64) error
}

// PrepaidFunder is an in-memory funder with a fixed balance.
type PrepaidFunder struct {
	key     solana.PublicKey
	mu      sync.Mutex
	balance uint64
}

func NewPrepaidFunder(key solana.PublicKey, balance uint64) *PrepaidFunder {
	return &PrepaidFunder{key: key, balance: balance}
}

func (f *PrepaidFunder) PublicKey() solana.PublicKey {
	return f.key
}

func (f *PrepaidFunder) Debit(ctx context.Context, lamports uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.balance < lamports {
		return fmt.Errorf("insufficient funds: have %d lamports, need %d", f.balance, lamports)
	}
	f.balance -= lamports
	return nil
}

func (f *PrepaidFunder) Credit(ctx context.Context, lamports uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balance += lamports
	return nil
}

// Balance returns the remaining lamports.
func (f *PrepaidFunder) Balance() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balance
}
