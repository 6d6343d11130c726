// Package policy decides whether a mint may back a pool.
//
// Evaluation is ordered and short-circuiting:
//
//  1. mints of the baseline token program are accepted;
//  2. the extensible program's native mint is rejected;
//  3. a freeze authority without a badge is rejected;
//  4. allow-listed mints are accepted without looking at extensions;
//  5. each extension is classified by the Table, rejecting on the first
//     Never or unbadged BadgeGated entry; tags absent from the table are
//     Never, reported as unknown when they have no Token-2022 name;
//  6. otherwise the mint is accepted.
//
// Unsupported mints are verdicts, not errors. Only a malformed extension
// region is an error.
package policy

import (
	"context"
	"log/slog"
	"time"

	"github.com/lugondev/go-tokengate/internal/common"
	gateerrors "github.com/lugondev/go-tokengate/internal/errors"
	"github.com/lugondev/go-tokengate/internal/metrics"
	"github.com/lugondev/go-tokengate/internal/token"
)

// Engine evaluates mints against an extension table and allow-list.
// It holds no per-call state and is safe for concurrent use.
type Engine struct {
	common.LoggerMixin
	table     Table
	allowList *AllowList
	metrics   metrics.Metrics
}

// NewEngine creates an engine. A nil table selects DefaultTable; a nil
// allow-list admits nothing early.
func NewEngine(table Table, allowList *AllowList) *Engine {
	if table == nil {
		table = DefaultTable()
	}
	return &Engine{
		LoggerMixin: common.NewLoggerMixin(),
		table:       table,
		allowList:   allowList,
		metrics:     metrics.NewNoopMetrics(),
	}
}

// WithLogger sets a custom logger for the engine.
func (e *Engine) WithLogger(logger *slog.Logger) *Engine {
	e.SetLogger(logger)
	return e
}

// WithMetrics sets the metrics sink for the engine.
func (e *Engine) WithMetrics(m metrics.Metrics) *Engine {
	if m != nil {
		e.metrics = m
	}
	return e
}

// Evaluate decides whether mint is supported given its badge status.
func (e *Engine) Evaluate(mint *token.MintView, isBadged bool) (Verdict, error) {
	if mint == nil {
		e.metrics.IncrementCounter(context.Background(), metrics.MetricEvaluationErrors, 1)
		return Verdict{}, gateerrors.MalformedMintState("no mint state", nil)
	}

	ctx := context.Background()
	start := time.Now()

	verdict, err := e.evaluate(mint, isBadged)
	e.metrics.RecordHistogram(ctx, metrics.MetricEvaluationTimeNanoseconds, float64(time.Since(start).Nanoseconds()))
	if err != nil {
		e.metrics.IncrementCounter(ctx, metrics.MetricEvaluationErrors, 1)
		e.GetLogger().Debug("mint evaluation failed", "mint", mint.Address.String(), "error", err)
		return Verdict{}, err
	}

	if verdict.Supported {
		e.metrics.IncrementCounter(ctx, metrics.MetricVerdictsSupported, 1)
	} else {
		e.metrics.IncrementCounter(ctx, metrics.MetricVerdictsUnsupported, 1)
	}

	attrs := []any{
		"mint", mint.Address.String(),
		"supported", verdict.Supported,
		"reason", string(verdict.Reason),
	}
	if verdict.Extension != nil {
		attrs = append(attrs, "extension", verdict.Extension.String())
	}
	e.GetLogger().Debug("mint evaluated", attrs...)

	return verdict, nil
}

func (e *Engine) evaluate(mint *token.MintView, isBadged bool) (Verdict, error) {
	logger := e.GetLogger()

	if mint.IsBaselineToken() {
		return accept(ReasonBaselineToken), nil
	}

	if mint.IsNativeMint() {
		return reject(ReasonNativeMint, nil), nil
	}

	if mint.HasFreezeAuthority() && !isBadged {
		return reject(ReasonFreezeAuthority, nil), nil
	}

	if e.allowList.Contains(mint.Address) {
		return accept(ReasonAllowListed), nil
	}

	extensions, err := mint.ExtensionTypes()
	if err != nil {
		return Verdict{}, err
	}
	logger.Debug("checking mint extensions", "mint", mint.Address.String(), "extensions", extensions)

	for _, ext := range extensions {
		compat, listed := e.table.Classify(ext)
		if !listed && !ext.IsKnown() {
			logger.Debug("unknown extension", "extension", ext.String())
			return reject(ReasonUnknownExtension, &ext), nil
		}

		switch compat {
		case Always:
		case BadgeGated:
			if !isBadged {
				logger.Debug("extension requires token badge", "extension", ext.String())
				return reject(ReasonExtensionRequiresBadge, &ext), nil
			}
		default:
			logger.Debug("extension not supported", "extension", ext.String())
			return reject(ReasonExtensionNotSupported, &ext), nil
		}
	}

	return accept(ReasonExtensionsSupported), nil
}
