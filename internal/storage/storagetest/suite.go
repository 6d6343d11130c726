// Package storagetest holds the behavioral contract every AccountRepository backend must satisfy.
package storagetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/lugondev/go-tokengate/internal/storage"
)

// RunAccountRepositoryTests exercises allocation, lookup and listing on repo.
// The repository must start empty.
func RunAccountRepositoryTests(t *testing.T, repo storage.AccountRepository) {
	t.Helper()

	owner := solana.NewWallet().PublicKey()
	payer := solana.NewWallet().PublicKey()

	t.Run("AllocateAndFind", func(t *testing.T) {
		ctx := context.Background()
		address := solana.NewWallet().PublicKey()
		model := storage.NewAccountModel(address, owner, payer, 2_282_880, []byte{1, 2, 3, 4})

		if err := repo.Allocate(ctx, model); err != nil {
			t.Fatalf("failed to allocate: %v", err)
		}

		found, err := repo.FindByAddress(ctx, address.String())
		if err != nil {
			t.Fatalf("failed to find: %v", err)
		}
		if found == nil {
			t.Fatal("Expected account to be found")
		}
		if found.Owner != owner.String() || found.Payer != payer.String() {
			t.Errorf("Unexpected owner/payer: %s/%s", found.Owner, found.Payer)
		}
		if found.Lamports != 2_282_880 {
			t.Errorf("Expected lamports 2282880, got %d", found.Lamports)
		}
		if string(found.Data) != string([]byte{1, 2, 3, 4}) {
			t.Errorf("Unexpected data %v", found.Data)
		}
	})

	t.Run("FindMissing", func(t *testing.T) {
		found, err := repo.FindByAddress(context.Background(), solana.NewWallet().PublicKey().String())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if found != nil {
			t.Errorf("Expected nil for missing account, got %+v", found)
		}
	})

	t.Run("AllocateTwice", func(t *testing.T) {
		ctx := context.Background()
		address := solana.NewWallet().PublicKey()

		first := storage.NewAccountModel(address, owner, payer, 1, []byte{0xAA})
		if err := repo.Allocate(ctx, first); err != nil {
			t.Fatalf("failed to allocate: %v", err)
		}

		second := storage.NewAccountModel(address, owner, payer, 1, []byte{0xBB})
		if err := repo.Allocate(ctx, second); !errors.Is(err, storage.ErrAccountExists) {
			t.Fatalf("Expected ErrAccountExists, got %v", err)
		}

		found, err := repo.FindByAddress(ctx, address.String())
		if err != nil || found == nil {
			t.Fatalf("failed to find: %v", err)
		}
		if found.Data[0] != 0xAA {
			t.Error("Expected first allocation to be preserved")
		}
	})

	t.Run("ConcurrentAllocate", func(t *testing.T) {
		ctx := context.Background()
		address := solana.NewWallet().PublicKey()

		const workers = 8
		var wg sync.WaitGroup
		results := make(chan error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results <- repo.Allocate(ctx, storage.NewAccountModel(address, owner, payer, 1, []byte{byte(i)}))
			}(i)
		}
		wg.Wait()
		close(results)

		succeeded := 0
		for err := range results {
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, storage.ErrAccountExists):
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}
		if succeeded != 1 {
			t.Errorf("Expected exactly one allocation to succeed, got %d", succeeded)
		}
	})

	t.Run("FindByOwner", func(t *testing.T) {
		ctx := context.Background()
		otherOwner := solana.NewWallet().PublicKey()

		for i := 0; i < 3; i++ {
			model := storage.NewAccountModel(solana.NewWallet().PublicKey(), otherOwner, payer, 1, []byte{byte(i)})
			model.CreatedAt = time.Now().UTC().Add(time.Duration(i) * time.Second)
			if err := repo.Allocate(ctx, model); err != nil {
				t.Fatalf("failed to allocate: %v", err)
			}
		}

		page, err := repo.FindByOwner(ctx, otherOwner.String(), 2, 0)
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(page) != 2 {
			t.Fatalf("Expected 2 accounts, got %d", len(page))
		}
		if page[0].Data[0] != 2 {
			t.Errorf("Expected newest account first, got data %v", page[0].Data)
		}

		rest, err := repo.FindByOwner(ctx, otherOwner.String(), 2, 2)
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(rest) != 1 {
			t.Errorf("Expected 1 remaining account, got %d", len(rest))
		}
	})
}
