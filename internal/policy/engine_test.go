package policy

import (
	"io"
	"log/slog"
	"testing"

	"github.com/gagliardetto/solana-go"

	gateerrors "github.com/lugondev/go-tokengate/internal/errors"
	"github.com/lugondev/go-tokengate/internal/metrics"
	"github.com/lugondev/go-tokengate/internal/token"
	"github.com/lugondev/go-tokengate/internal/token/tokentest"
)

func newTestEngine(allow *AllowList) (*Engine, *metrics.LogMetrics) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.NewLogMetrics(logger)
	return NewEngine(DefaultTable(), allow).WithLogger(logger).WithMetrics(m), m
}

func evaluate(t *testing.T, e *Engine, mint *token.MintView, badged bool) Verdict {
	t.Helper()
	v, err := e.Evaluate(mint, badged)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return v
}

func TestEvaluateBaselineToken(t *testing.T) {
	e, _ := newTestEngine(nil)
	mint := tokentest.NewMint().
		Owner(token.TokenProgramID).
		FreezeAuthority(solana.NewWallet().PublicKey()).
		View(t)

	for _, badged := range []bool{false, true} {
		v := evaluate(t, e, mint, badged)
		if !v.Supported || v.Reason != ReasonBaselineToken {
			t.Errorf("badged=%v: got %s", badged, v)
		}
	}
}

func TestEvaluateNativeMint(t *testing.T) {
	allow := DefaultAllowList()
	allow.Add(token.NativeMintID)
	e, _ := newTestEngine(allow)
	mint := tokentest.NewMint().Address(token.NativeMintID).View(t)

	for _, badged := range []bool{false, true} {
		v := evaluate(t, e, mint, badged)
		if v.Supported || v.Reason != ReasonNativeMint {
			t.Errorf("badged=%v: got %s", badged, v)
		}
	}
}

func TestEvaluateFreezeAuthority(t *testing.T) {
	e, _ := newTestEngine(nil)
	mint := tokentest.NewMint().FreezeAuthority(solana.NewWallet().PublicKey()).View(t)

	v := evaluate(t, e, mint, false)
	if v.Supported || v.Reason != ReasonFreezeAuthority {
		t.Errorf("unbadged: got %s", v)
	}

	v = evaluate(t, e, mint, true)
	if !v.Supported || v.Reason != ReasonExtensionsSupported {
		t.Errorf("badged: got %s", v)
	}
}

func TestEvaluateFreezeAuthorityBeatsAllowList(t *testing.T) {
	builder := tokentest.NewMint().FreezeAuthority(solana.NewWallet().PublicKey())
	allow, err := NewAllowList(builder.AddressKey().String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e, _ := newTestEngine(allow)

	v := evaluate(t, e, builder.View(t), false)
	if v.Supported || v.Reason != ReasonFreezeAuthority {
		t.Errorf("got %s", v)
	}
}

func TestEvaluateAllowListBypass(t *testing.T) {
	builder := tokentest.NewMint().
		Extension(token.ExtensionNonTransferable).
		ExtensionValue(999, []byte{1})
	allow, err := NewAllowList(builder.AddressKey().String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e, _ := newTestEngine(allow)

	v := evaluate(t, e, builder.View(t), false)
	if !v.Supported || v.Reason != ReasonAllowListed {
		t.Errorf("got %s", v)
	}
}

func TestEvaluateAllowListSkipsMalformedExtensions(t *testing.T) {
	builder := tokentest.NewMint()
	mint := builder.View(t)
	data := builder.Extension(token.ExtensionTransferHook).Data()
	mint.Data = data[:len(data)-5]

	allow, _ := NewAllowList(mint.Address.String())
	e, _ := newTestEngine(allow)

	v := evaluate(t, e, mint, false)
	if !v.Supported || v.Reason != ReasonAllowListed {
		t.Errorf("got %s", v)
	}
}

func TestEvaluateTransferHookGate(t *testing.T) {
	e, _ := newTestEngine(nil)
	mint := tokentest.NewMint().Extension(token.ExtensionTransferHook).View(t)

	v := evaluate(t, e, mint, false)
	if v.Supported || v.Reason != ReasonExtensionRequiresBadge {
		t.Errorf("unbadged: got %s", v)
	}
	if v.Extension == nil || *v.Extension != token.ExtensionTransferHook {
		t.Errorf("Expected TransferHook as deciding extension, got %v", v.Extension)
	}

	v = evaluate(t, e, mint, true)
	if !v.Supported {
		t.Errorf("badged: got %s", v)
	}
}

func TestEvaluateNonTransferable(t *testing.T) {
	e, _ := newTestEngine(nil)
	mint := tokentest.NewMint().
		Extension(token.ExtensionTransferFeeConfig).
		Extension(token.ExtensionNonTransferable).
		View(t)

	for _, badged := range []bool{false, true} {
		v := evaluate(t, e, mint, badged)
		if v.Supported || v.Reason != ReasonExtensionNotSupported {
			t.Errorf("badged=%v: got %s", badged, v)
		}
	}
}

func TestEvaluateUnknownExtension(t *testing.T) {
	e, _ := newTestEngine(nil)
	mint := tokentest.NewMint().
		Extension(token.ExtensionMetadataPointer).
		ExtensionValue(999, make([]byte, 8)).
		View(t)

	for _, badged := range []bool{false, true} {
		v := evaluate(t, e, mint, badged)
		if v.Supported || v.Reason != ReasonUnknownExtension {
			t.Errorf("badged=%v: got %s", badged, v)
		}
		if v.Extension == nil || uint16(*v.Extension) != 999 {
			t.Errorf("Expected tag 999 as deciding extension, got %v", v.Extension)
		}
	}
}

func TestEvaluateCanonicalAccept(t *testing.T) {
	e, _ := newTestEngine(nil)
	mint := tokentest.NewMint().
		Extension(token.ExtensionTransferFeeConfig).
		Extension(token.ExtensionMetadataPointer).
		Extension(token.ExtensionTokenMetadata).
		Extension(token.ExtensionInterestBearingConfig).
		View(t)

	v := evaluate(t, e, mint, false)
	if !v.Supported || v.Reason != ReasonExtensionsSupported || v.Extension != nil {
		t.Errorf("got %s", v)
	}

	plain := tokentest.NewMint().View(t)
	if v := evaluate(t, e, plain, false); !v.Supported {
		t.Errorf("mint without extensions: got %s", v)
	}
}

func TestEvaluateFirstRejectingExtensionWins(t *testing.T) {
	e, _ := newTestEngine(nil)
	mint := tokentest.NewMint().
		Extension(token.ExtensionPermanentDelegate).
		Extension(token.ExtensionNonTransferable).
		View(t)

	v := evaluate(t, e, mint, false)
	if v.Reason != ReasonExtensionRequiresBadge || *v.Extension != token.ExtensionPermanentDelegate {
		t.Errorf("got %s", v)
	}

	v = evaluate(t, e, mint, true)
	if v.Reason != ReasonExtensionNotSupported || *v.Extension != token.ExtensionNonTransferable {
		t.Errorf("badged: got %s", v)
	}
}

func TestEvaluateClassificationPerExtension(t *testing.T) {
	tests := []struct {
		ext      token.ExtensionType
		unbadged bool
		badged   bool
	}{
		{token.ExtensionTransferFeeConfig, true, true},
		{token.ExtensionInterestBearingConfig, true, true},
		{token.ExtensionTokenMetadata, true, true},
		{token.ExtensionMetadataPointer, true, true},
		{token.ExtensionScaledUiAmount, true, true},
		{token.ExtensionConfidentialTransferMint, true, true},
		{token.ExtensionConfidentialTransferFeeConfig, true, true},
		{token.ExtensionPermanentDelegate, false, true},
		{token.ExtensionTransferHook, false, true},
		{token.ExtensionMintCloseAuthority, false, true},
		{token.ExtensionDefaultAccountState, false, true},
		{token.ExtensionPausable, false, true},
		{token.ExtensionNonTransferable, false, false},
		{token.ExtensionTransferFeeAmount, false, false},
		{token.ExtensionImmutableOwner, false, false},
		{token.ExtensionMemoTransfer, false, false},
		{token.ExtensionCpiGuard, false, false},
		{token.ExtensionGroupPointer, false, false},
		{token.ExtensionTokenGroup, false, false},
		{token.ExtensionGroupMemberPointer, false, false},
		{token.ExtensionTokenGroupMember, false, false},
		{token.ExtensionConfidentialMintBurn, false, false},
		{token.ExtensionPausableAccount, false, false},
	}

	e, _ := newTestEngine(nil)
	for _, tt := range tests {
		t.Run(tt.ext.String(), func(t *testing.T) {
			mint := tokentest.NewMint().Extension(tt.ext).View(t)
			if got := evaluate(t, e, mint, false).Supported; got != tt.unbadged {
				t.Errorf("unbadged: supported = %v, want %v", got, tt.unbadged)
			}
			if got := evaluate(t, e, mint, true).Supported; got != tt.badged {
				t.Errorf("badged: supported = %v, want %v", got, tt.badged)
			}
		})
	}
}

func TestEvaluateMalformedIsError(t *testing.T) {
	e, m := newTestEngine(nil)
	builder := tokentest.NewMint()
	mint := builder.View(t)
	data := builder.Extension(token.ExtensionTransferFeeConfig).Data()
	mint.Data = data[:len(data)-1]

	_, err := e.Evaluate(mint, true)
	if !gateerrors.Is(err, gateerrors.ErrMalformedMintState) {
		t.Fatalf("Expected MalformedMintState, got %v", err)
	}
	if m.Counter(metrics.MetricEvaluationErrors) != 1 {
		t.Error("Expected evaluation_errors to be 1")
	}
}

func TestEvaluateNilMint(t *testing.T) {
	e, m := newTestEngine(nil)

	for _, badged := range []bool{false, true} {
		v, err := e.Evaluate(nil, badged)
		if !gateerrors.Is(err, gateerrors.ErrMalformedMintState) {
			t.Errorf("badged=%v: Expected MalformedMintState, got %v", badged, err)
		}
		if v.Supported {
			t.Errorf("badged=%v: nil mint must not be supported", badged)
		}
	}
	if got := m.Counter(metrics.MetricEvaluationErrors); got != 2 {
		t.Errorf("evaluation_errors = %d, want 2", got)
	}
}

func TestEvaluateMetrics(t *testing.T) {
	e, m := newTestEngine(nil)
	evaluate(t, e, tokentest.NewMint().View(t), false)
	evaluate(t, e, tokentest.NewMint().Extension(token.ExtensionNonTransferable).View(t), false)
	evaluate(t, e, tokentest.NewMint().Address(token.NativeMintID).View(t), false)

	if got := m.Counter(metrics.MetricVerdictsSupported); got != 1 {
		t.Errorf("verdicts_supported = %d, want 1", got)
	}
	if got := m.Counter(metrics.MetricVerdictsUnsupported); got != 2 {
		t.Errorf("verdicts_unsupported = %d, want 2", got)
	}
}

func TestCustomTable(t *testing.T) {
	table := DefaultTable()
	table[token.ExtensionTransferHook] = Always
	delete(table, token.ExtensionTransferFeeConfig)

	e := NewEngine(table, nil)
	hook := tokentest.NewMint().Extension(token.ExtensionTransferHook).View(t)
	if v, _ := e.Evaluate(hook, false); !v.Supported {
		t.Errorf("Expected TransferHook accepted by custom table, got %s", v)
	}

	fee := tokentest.NewMint().Extension(token.ExtensionTransferFeeConfig).View(t)
	if v, _ := e.Evaluate(fee, false); v.Supported || v.Reason != ReasonExtensionNotSupported {
		t.Errorf("Expected removed entry to default to never, got %s", v)
	}
}

func TestCustomTableAdmitsUnnamedExtension(t *testing.T) {
	table := DefaultTable()
	table[token.ExtensionType(28)] = Always

	e := NewEngine(table, nil)
	mint := tokentest.NewMint().ExtensionValue(28, make([]byte, 4)).View(t)
	if v, err := e.Evaluate(mint, false); err != nil || !v.Supported {
		t.Errorf("Expected tag 28 accepted by custom table, got %s, %v", v, err)
	}

	gated := DefaultTable()
	gated[token.ExtensionType(28)] = BadgeGated
	e = NewEngine(gated, nil)
	if v, _ := e.Evaluate(mint, false); v.Supported || v.Reason != ReasonExtensionRequiresBadge {
		t.Errorf("Expected badge gate for tag 28, got %s", v)
	}

	if v, _ := NewEngine(DefaultTable(), nil).Evaluate(mint, true); v.Reason != ReasonUnknownExtension {
		t.Errorf("Expected unknown_extension with default table, got %s", v)
	}
}

func TestTableDefaultsToNever(t *testing.T) {
	table := DefaultTable()
	if got, listed := table.Classify(token.ExtensionType(4242)); got != Never || listed {
		t.Errorf("Classify(unknown) = %s, %v, want never, false", got, listed)
	}
	if got, listed := table.Classify(token.ExtensionCpiGuard); got != Never || listed {
		t.Errorf("Classify(CpiGuard) = %s, %v, want never, false", got, listed)
	}
	if got, listed := table.Classify(token.ExtensionNonTransferable); got != Never || !listed {
		t.Errorf("Classify(NonTransferable) = %s, %v, want never, true", got, listed)
	}
	if got, _ := Table(nil).Classify(token.ExtensionTransferFeeConfig); got != Never {
		t.Errorf("nil table must classify everything as never, got %s", got)
	}
}
