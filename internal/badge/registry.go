// Package badge implements the badge registry: one permanent record per
// (configuration, mint) pair marking the mint as vetted.
//
// A badge lives at an address derived from the pair, is created once by the
// configuration's badge authority, and is never mutated or closed here.
package badge

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/lugondev/go-tokengate/internal/account"
	"github.com/lugondev/go-tokengate/internal/common"
	gateerrors "github.com/lugondev/go-tokengate/internal/errors"
	"github.com/lugondev/go-tokengate/internal/metrics"
	"github.com/lugondev/go-tokengate/internal/storage"
)

const listPageSize = 100

// Registry creates and looks up badges in the program's account namespace.
type Registry struct {
	common.LoggerMixin
	programID solana.PublicKey
	accounts  storage.AccountRepository
	decoder   *account.ProgramAccountDecoder[*BadgeRecord]
	metrics   metrics.Metrics
}

// NewRegistry creates a registry over the given namespace.
func NewRegistry(programID solana.PublicKey, accounts storage.AccountRepository) *Registry {
	return &Registry{
		LoggerMixin: common.NewLoggerMixin(),
		programID:   programID,
		accounts:    accounts,
		decoder:     account.NewProgramAccountDecoder(programID, DecodeBadgeRecord),
		metrics:     metrics.NewNoopMetrics(),
	}
}

// WithLogger sets a custom logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.SetLogger(logger)
	return r
}

// WithMetrics sets the metrics sink for the registry.
func (r *Registry) WithMetrics(m metrics.Metrics) *Registry {
	if m != nil {
		r.metrics = m
	}
	return r
}

// ProgramID returns the namespace owner.
func (r *Registry) ProgramID() solana.PublicKey {
	return r.programID
}

// CreateBadge allocates the badge for (cfg.ID, mint), paid by funder.
//
// Errors: Unauthorized if sig is not the configuration's badge authority over
// the pair; AlreadyInitialized if the badge exists; AllocationFailed if the
// funder cannot pay or the write fails. A failed call leaves no record.
func (r *Registry) CreateBadge(
	ctx context.Context,
	cfg Configuration,
	sig solana.Signature,
	mint solana.PublicKey,
	funder Funder,
) (solana.PublicKey, error) {
	address, err := r.createBadge(ctx, cfg, sig, mint, funder)
	if err != nil {
		r.metrics.IncrementCounter(ctx, metrics.MetricBadgeCreateFailures, 1)
		r.GetLogger().Warn("badge creation failed",
			"configuration", cfg.ID.String(),
			"mint", mint.String(),
			"code", gateerrors.CodeOf(err),
		)
		return solana.PublicKey{}, err
	}

	r.metrics.IncrementCounter(ctx, metrics.MetricBadgesCreated, 1)
	r.GetLogger().Info("badge created",
		"configuration", cfg.ID.String(),
		"mint", mint.String(),
		"address", address.String(),
		"payer", funder.PublicKey().String(),
	)
	return address, nil
}

func (r *Registry) createBadge(
	ctx context.Context,
	cfg Configuration,
	sig solana.Signature,
	mint solana.PublicKey,
	funder Funder,
) (solana.PublicKey, error) {
	if !cfg.VerifyCreateBadge(sig, mint) {
		return solana.PublicKey{}, gateerrors.Unauthorized("signature does not match token badge authority")
	}
	if funder == nil {
		return solana.PublicKey{}, gateerrors.AllocationFailed("no funder", nil)
	}

	address, _, err := DeriveAddress(r.programID, cfg.ID, mint)
	if err != nil {
		return solana.PublicKey{}, gateerrors.AllocationFailed("derive badge address", err)
	}

	existing, err := r.accounts.FindByAddress(ctx, address.String())
	if err != nil {
		return solana.PublicKey{}, gateerrors.StorageUnavailable("find badge", err)
	}
	if existing != nil {
		return solana.PublicKey{}, gateerrors.AlreadyInitialized(address.String())
	}

	record := &BadgeRecord{ConfigurationID: cfg.ID, Mint: mint}
	data, err := record.Marshal()
	if err != nil {
		return solana.PublicKey{}, gateerrors.AllocationFailed("encode badge", err)
	}

	rent := RentExemptMinimum(RecordLen)
	if err := funder.Debit(ctx, rent); err != nil {
		return solana.PublicKey{}, gateerrors.AllocationFailed("funder cannot cover rent", err)
	}

	model := storage.NewAccountModel(address, r.programID, funder.PublicKey(), rent, data)
	if err := r.accounts.Allocate(ctx, model); err != nil {
		if creditErr := funder.Credit(ctx, rent); creditErr != nil {
			r.GetLogger().Error("failed to refund funder", "payer", funder.PublicKey().String(), "error", creditErr)
		}
		if errors.Is(err, storage.ErrAccountExists) {
			return solana.PublicKey{}, gateerrors.AlreadyInitialized(address.String())
		}
		return solana.PublicKey{}, gateerrors.AllocationFailed("allocate badge", err)
	}

	return address, nil
}

// Lookup reports whether a valid badge exists for the pair. Missing records,
// foreign owners, undecodable data and pair mismatches are all false.
// Only storage failures are errors.
func (r *Registry) Lookup(ctx context.Context, configID, mint solana.PublicKey) (bool, error) {
	start := time.Now()
	record, err := r.Get(ctx, configID, mint)
	r.metrics.IncrementCounter(ctx, metrics.MetricBadgeLookups, 1)
	if err != nil {
		return false, err
	}

	found := record != nil
	if found {
		r.metrics.IncrementCounter(ctx, metrics.MetricBadgeLookupHits, 1)
	}
	r.GetLogger().Debug("badge lookup",
		"configuration", configID.String(),
		"mint", mint.String(),
		"found", found,
		"duration", time.Since(start),
	)
	return found, nil
}

// Get returns the validated badge for the pair, or nil if there is none.
func (r *Registry) Get(ctx context.Context, configID, mint solana.PublicKey) (*BadgeRecord, error) {
	address, _, err := DeriveAddress(r.programID, configID, mint)
	if err != nil {
		return nil, nil
	}

	model, err := r.accounts.FindByAddress(ctx, address.String())
	if err != nil {
		return nil, gateerrors.StorageUnavailable("find badge", err)
	}
	if model == nil {
		return nil, nil
	}

	decoded := r.decoder.DecodeAccount(model.ToAccount())
	if decoded == nil || !decoded.Data.Matches(configID, mint) {
		return nil, nil
	}
	return decoded.Data, nil
}

// ListByConfiguration returns badges of configID, newest first.
func (r *Registry) ListByConfiguration(ctx context.Context, configID solana.PublicKey, limit, offset int) ([]*BadgeRecord, error) {
	var (
		records []*BadgeRecord
		skipped int
		page    int
	)
	for limit <= 0 || len(records) < limit {
		models, err := r.accounts.FindByOwner(ctx, r.programID.String(), listPageSize, page*listPageSize)
		if err != nil {
			return nil, gateerrors.StorageUnavailable("list badges", err)
		}

		for _, model := range models {
			decoded := r.decoder.DecodeAccount(model.ToAccount())
			if decoded == nil || !decoded.Data.ConfigurationID.Equals(configID) {
				continue
			}
			if skipped < offset {
				skipped++
				continue
			}
			records = append(records, decoded.Data)
			if limit > 0 && len(records) == limit {
				break
			}
		}

		if len(models) < listPageSize {
			break
		}
		page++
	}
	return records, nil
}
