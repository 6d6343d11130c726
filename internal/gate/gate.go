// Package gate admits pool mints: it reads the mint, looks up its badge for
// the configuration, and runs the compatibility policy.
package gate

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gagliardetto/solana-go"
	"golang.org/x/sync/errgroup"

	"github.com/lugondev/go-tokengate/internal/common"
	"github.com/lugondev/go-tokengate/internal/metrics"
	"github.com/lugondev/go-tokengate/internal/policy"
	"github.com/lugondev/go-tokengate/internal/token"
)

const defaultConcurrency = 8

// MintReader loads mint state.
type MintReader interface {
	GetMint(ctx context.Context, address solana.PublicKey) (*token.MintView, error)
}

// BadgeLookup reports whether a mint is badged for a configuration.
type BadgeLookup interface {
	Lookup(ctx context.Context, configID, mint solana.PublicKey) (bool, error)
}

// Result is the outcome for one mint of a batch.
type Result struct {
	Mint    solana.PublicKey
	Badged  bool
	Verdict policy.Verdict
	Err     error
}

// Gate composes a mint reader, the badge registry and the policy engine.
type Gate struct {
	common.LoggerMixin
	reader      MintReader
	badges      BadgeLookup
	engine      *policy.Engine
	metrics     metrics.Metrics
	concurrency int
}

func New(reader MintReader, badges BadgeLookup, engine *policy.Engine) *Gate {
	return &Gate{
		LoggerMixin: common.NewLoggerMixin(),
		reader:      reader,
		badges:      badges,
		engine:      engine,
		metrics:     metrics.NewNoopMetrics(),
		concurrency: defaultConcurrency,
	}
}

// WithLogger sets a custom logger for the gate.
func (g *Gate) WithLogger(logger *slog.Logger) *Gate {
	g.SetLogger(logger)
	return g
}

// WithMetrics sets the metrics sink for the gate.
func (g *Gate) WithMetrics(m metrics.Metrics) *Gate {
	if m != nil {
		g.metrics = m
	}
	return g
}

// WithConcurrency bounds the number of mints read at once by VerifySupportedMints.
func (g *Gate) WithConcurrency(n int) *Gate {
	if n > 0 {
		g.concurrency = n
	}
	return g
}

// VerifySupportedMint decides whether mint may back a pool of configID.
func (g *Gate) VerifySupportedMint(ctx context.Context, configID, mint solana.PublicKey) (policy.Verdict, error) {
	result := g.verify(ctx, configID, mint)
	return result.Verdict, result.Err
}

func (g *Gate) verify(ctx context.Context, configID, mint solana.PublicKey) Result {
	result := Result{Mint: mint}

	badged, err := g.badges.Lookup(ctx, configID, mint)
	if err != nil {
		result.Err = err
		return result
	}
	result.Badged = badged

	view, err := g.reader.GetMint(ctx, mint)
	if err != nil {
		result.Err = err
		return result
	}

	result.Verdict, result.Err = g.engine.Evaluate(view, badged)
	return result
}

// VerifySupportedMints evaluates mints concurrently. Per-mint failures are
// reported in each Result; the returned error is only set when ctx ends first.
func (g *Gate) VerifySupportedMints(ctx context.Context, configID solana.PublicKey, mints []solana.PublicKey) ([]Result, error) {
	results := make([]Result, len(mints))
	var inFlight atomic.Int64

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.concurrency)

	for i, mint := range mints {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			g.metrics.UpdateGauge(egCtx, metrics.MetricMintsInFlight, float64(inFlight.Add(1)))
			results[i] = g.verify(egCtx, configID, mint)
			g.metrics.UpdateGauge(egCtx, metrics.MetricMintsInFlight, float64(inFlight.Add(-1)))
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	supported := 0
	for _, r := range results {
		if r.Err == nil && r.Verdict.Supported {
			supported++
		}
	}
	g.GetLogger().Info("verified mints",
		"configuration", configID.String(),
		"total", len(mints),
		"supported", supported,
	)
	return results, nil
}
