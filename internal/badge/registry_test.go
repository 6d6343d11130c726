package badge

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/gagliardetto/solana-go"

	gateerrors "github.com/lugondev/go-tokengate/internal/errors"
	"github.com/lugondev/go-tokengate/internal/metrics"
	"github.com/lugondev/go-tokengate/internal/storage"
	"github.com/lugondev/go-tokengate/internal/storage/memory"
)

var testProgramID = solana.MustPublicKeyFromBase58("CPMMoo8L3F4NbTegBCKVNunggL7H1ZpdTHKxQB5qKP1C")

type fixture struct {
	registry  *Registry
	repo      *memory.MemoryRepository
	metrics   *metrics.LogMetrics
	authority solana.PrivateKey
	cfg       Configuration
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	authority := solana.NewWallet().PrivateKey
	repo := memory.NewMemoryRepository()
	m := metrics.NewLogMetrics(logger)

	return &fixture{
		registry:  NewRegistry(testProgramID, repo.Accounts()).WithLogger(logger).WithMetrics(m),
		repo:      repo,
		metrics:   m,
		authority: authority,
		cfg: Configuration{
			ID:                  solana.NewWallet().PublicKey(),
			TokenBadgeAuthority: authority.PublicKey(),
		},
	}
}

func (f *fixture) sign(t *testing.T, mint solana.PublicKey) solana.Signature {
	t.Helper()
	sig, err := SignCreateBadge(f.authority, f.cfg.ID, mint)
	if err != nil {
		t.Fatalf("failed to sign: %v", err)
	}
	return sig
}

func newFunder() *PrepaidFunder {
	return NewPrepaidFunder(solana.NewWallet().PublicKey(), 10*RentExemptMinimum(RecordLen))
}

func TestCreateBadgeAndLookup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mint := solana.NewWallet().PublicKey()
	funder := newFunder()
	before := funder.Balance()

	address, err := f.registry.CreateBadge(ctx, f.cfg, f.sign(t, mint), mint, funder)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want, _, _ := DeriveAddress(testProgramID, f.cfg.ID, mint)
	if address != want {
		t.Errorf("address = %s, want %s", address, want)
	}
	if spent := before - funder.Balance(); spent != RentExemptMinimum(RecordLen) {
		t.Errorf("funder paid %d, want %d", spent, RentExemptMinimum(RecordLen))
	}

	stored, err := f.repo.Accounts().FindByAddress(ctx, address.String())
	if err != nil || stored == nil {
		t.Fatalf("Expected stored account, got %v, %v", stored, err)
	}
	if stored.Owner != testProgramID.String() || stored.Payer != funder.PublicKey().String() {
		t.Errorf("unexpected stored account: %+v", stored)
	}
	if len(stored.Data) != RecordLen {
		t.Errorf("Expected %d bytes, got %d", RecordLen, len(stored.Data))
	}

	found, err := f.registry.Lookup(ctx, f.cfg.ID, mint)
	if err != nil || !found {
		t.Errorf("Lookup = %v, %v; want true", found, err)
	}

	record, err := f.registry.Get(ctx, f.cfg.ID, mint)
	if err != nil || record == nil || !record.Matches(f.cfg.ID, mint) {
		t.Errorf("Get = %+v, %v", record, err)
	}

	if f.metrics.Counter(metrics.MetricBadgesCreated) != 1 {
		t.Error("Expected badges_created to be 1")
	}
	if f.metrics.Counter(metrics.MetricBadgeLookupHits) != 1 {
		t.Error("Expected badge_lookup_hits to be 1")
	}
}

func TestCreateBadgeUnauthorized(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mint := solana.NewWallet().PublicKey()
	funder := newFunder()
	before := funder.Balance()

	impostor := solana.NewWallet().PrivateKey
	sig, err := SignCreateBadge(impostor, f.cfg.ID, mint)
	if err != nil {
		t.Fatalf("failed to sign: %v", err)
	}

	_, err = f.registry.CreateBadge(ctx, f.cfg, sig, mint, funder)
	if !gateerrors.Is(err, gateerrors.ErrUnauthorized) {
		t.Fatalf("Expected Unauthorized, got %v", err)
	}
	if f.repo.Len() != 0 {
		t.Error("Expected no record after unauthorized create")
	}
	if funder.Balance() != before {
		t.Error("funder must not be charged")
	}
	if f.metrics.Counter(metrics.MetricBadgeCreateFailures) != 1 {
		t.Error("Expected badge_create_failures to be 1")
	}
}

func TestCreateBadgeTwice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mint := solana.NewWallet().PublicKey()
	funder := newFunder()
	before := funder.Balance()
	sig := f.sign(t, mint)

	if _, err := f.registry.CreateBadge(ctx, f.cfg, sig, mint, funder); err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	_, err := f.registry.CreateBadge(ctx, f.cfg, sig, mint, funder)
	if !gateerrors.Is(err, gateerrors.ErrAlreadyInitialized) {
		t.Fatalf("Expected AlreadyInitialized, got %v", err)
	}

	if f.repo.Len() != 1 {
		t.Errorf("Expected exactly one record, got %d", f.repo.Len())
	}
	if spent := before - funder.Balance(); spent != RentExemptMinimum(RecordLen) {
		t.Errorf("funder paid %d, want a single rent payment", spent)
	}

	found, err := f.registry.Lookup(ctx, f.cfg.ID, mint)
	if err != nil || !found {
		t.Error("badge must survive the rejected second create")
	}
}

func TestCreateBadgeConcurrent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mint := solana.NewWallet().PublicKey()
	funder := newFunder()
	before := funder.Balance()
	sig := f.sign(t, mint)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.registry.CreateBadge(ctx, f.cfg, sig, mint, funder)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case gateerrors.Is(err, gateerrors.ErrAlreadyInitialized):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 || conflicts != workers-1 {
		t.Errorf("Expected 1 success and %d conflicts, got %d and %d", workers-1, successes, conflicts)
	}
	if spent := before - funder.Balance(); spent != RentExemptMinimum(RecordLen) {
		t.Errorf("funder paid %d, want a single rent payment", spent)
	}
}

func TestCreateBadgeInsufficientFunds(t *testing.T) {
	f := newFixture(t)
	mint := solana.NewWallet().PublicKey()
	funder := NewPrepaidFunder(solana.NewWallet().PublicKey(), RentExemptMinimum(RecordLen)-1)

	_, err := f.registry.CreateBadge(context.Background(), f.cfg, f.sign(t, mint), mint, funder)
	if !gateerrors.Is(err, gateerrors.ErrAllocationFailed) {
		t.Fatalf("Expected AllocationFailed, got %v", err)
	}
	if f.repo.Len() != 0 {
		t.Error("Expected no record")
	}
}

type failingAccounts struct {
	storage.AccountRepository
	allocateErr error
	findErr     error
}

func (a *failingAccounts) Allocate(ctx context.Context, model *storage.AccountModel) error {
	if a.allocateErr != nil {
		return a.allocateErr
	}
	return a.AccountRepository.Allocate(ctx, model)
}

func (a *failingAccounts) FindByAddress(ctx context.Context, address string) (*storage.AccountModel, error) {
	if a.findErr != nil {
		return nil, a.findErr
	}
	return a.AccountRepository.FindByAddress(ctx, address)
}

func TestCreateBadgeAllocateFailureRefunds(t *testing.T) {
	f := newFixture(t)
	accounts := &failingAccounts{
		AccountRepository: f.repo.Accounts(),
		allocateErr:       errors.New("disk full"),
	}
	registry := NewRegistry(testProgramID, accounts)
	mint := solana.NewWallet().PublicKey()
	funder := newFunder()
	before := funder.Balance()

	_, err := registry.CreateBadge(context.Background(), f.cfg, f.sign(t, mint), mint, funder)
	if !gateerrors.Is(err, gateerrors.ErrAllocationFailed) {
		t.Fatalf("Expected AllocationFailed, got %v", err)
	}
	if funder.Balance() != before {
		t.Errorf("Expected funder refunded to %d, got %d", before, funder.Balance())
	}
}

func TestCreateBadgeLostRaceRefunds(t *testing.T) {
	f := newFixture(t)
	accounts := &failingAccounts{
		AccountRepository: f.repo.Accounts(),
		allocateErr:       storage.ErrAccountExists,
	}
	registry := NewRegistry(testProgramID, accounts)
	mint := solana.NewWallet().PublicKey()
	funder := newFunder()
	before := funder.Balance()

	_, err := registry.CreateBadge(context.Background(), f.cfg, f.sign(t, mint), mint, funder)
	if !gateerrors.Is(err, gateerrors.ErrAlreadyInitialized) {
		t.Fatalf("Expected AlreadyInitialized, got %v", err)
	}
	if funder.Balance() != before {
		t.Error("Expected funder refunded")
	}
}

func TestLookupRejectsInvalidRecords(t *testing.T) {
	ctx := context.Background()
	mint := solana.NewWallet().PublicKey()
	payer := solana.NewWallet().PublicKey()

	encode := func(t *testing.T, configID, mint solana.PublicKey) []byte {
		data, err := (&BadgeRecord{ConfigurationID: configID, Mint: mint}).Marshal()
		if err != nil {
			t.Fatalf("failed to encode: %v", err)
		}
		return data
	}

	tests := []struct {
		name  string
		owner func(f *fixture) solana.PublicKey
		data  func(t *testing.T, f *fixture) []byte
	}{
		{
			name:  "foreign owner",
			owner: func(f *fixture) solana.PublicKey { return solana.NewWallet().PublicKey() },
			data:  func(t *testing.T, f *fixture) []byte { return encode(t, f.cfg.ID, mint) },
		},
		{
			name:  "pair mismatch",
			owner: func(f *fixture) solana.PublicKey { return testProgramID },
			data: func(t *testing.T, f *fixture) []byte {
				return encode(t, f.cfg.ID, solana.NewWallet().PublicKey())
			},
		},
		{
			name:  "garbage data",
			owner: func(f *fixture) solana.PublicKey { return testProgramID },
			data:  func(t *testing.T, f *fixture) []byte { return []byte{1, 2, 3} },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			address, _, err := DeriveAddress(testProgramID, f.cfg.ID, mint)
			if err != nil {
				t.Fatalf("failed to derive: %v", err)
			}

			model := storage.NewAccountModel(address, tt.owner(f), payer, 1, tt.data(t, f))
			if err := f.repo.Accounts().Allocate(ctx, model); err != nil {
				t.Fatalf("failed to seed: %v", err)
			}

			found, err := f.registry.Lookup(ctx, f.cfg.ID, mint)
			if err != nil {
				t.Fatalf("Lookup must not error, got %v", err)
			}
			if found {
				t.Error("Expected lookup to be false")
			}
		})
	}
}

func TestLookupDeterministic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mint := solana.NewWallet().PublicKey()
	otherConfig := solana.NewWallet().PublicKey()

	if _, err := f.registry.CreateBadge(ctx, f.cfg, f.sign(t, mint), mint, newFunder()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i < 3; i++ {
		found, err := f.registry.Lookup(ctx, f.cfg.ID, mint)
		if err != nil || !found {
			t.Fatalf("iteration %d: Lookup = %v, %v", i, found, err)
		}
		found, err = f.registry.Lookup(ctx, otherConfig, mint)
		if err != nil || found {
			t.Fatalf("iteration %d: other configuration Lookup = %v, %v", i, found, err)
		}
	}
}

func TestLookupStorageFailure(t *testing.T) {
	f := newFixture(t)
	accounts := &failingAccounts{
		AccountRepository: f.repo.Accounts(),
		findErr:           errors.New("connection refused"),
	}
	registry := NewRegistry(testProgramID, accounts)

	_, err := registry.Lookup(context.Background(), f.cfg.ID, solana.NewWallet().PublicKey())
	if !gateerrors.Is(err, gateerrors.ErrStorageUnavailable) {
		t.Fatalf("Expected StorageUnavailable, got %v", err)
	}
}

func TestListByConfiguration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	funder := newFunder()

	var mints []solana.PublicKey
	for i := 0; i < 3; i++ {
		mint := solana.NewWallet().PublicKey()
		mints = append(mints, mint)
		if _, err := f.registry.CreateBadge(ctx, f.cfg, f.sign(t, mint), mint, funder); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	otherAuthority := solana.NewWallet().PrivateKey
	other := Configuration{ID: solana.NewWallet().PublicKey(), TokenBadgeAuthority: otherAuthority.PublicKey()}
	otherMint := solana.NewWallet().PublicKey()
	sig, _ := SignCreateBadge(otherAuthority, other.ID, otherMint)
	if _, err := f.registry.CreateBadge(ctx, other, sig, otherMint, funder); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	all, err := f.registry.ListByConfiguration(ctx, f.cfg.ID, 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Expected 3 badges, got %d", len(all))
	}
	for _, record := range all {
		if !record.ConfigurationID.Equals(f.cfg.ID) {
			t.Errorf("unexpected configuration %s", record.ConfigurationID)
		}
	}

	page, err := f.registry.ListByConfiguration(ctx, f.cfg.ID, 2, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page) != 1 {
		t.Errorf("Expected 1 badge on the second page, got %d", len(page))
	}
}
