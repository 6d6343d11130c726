package token_test

import (
	"testing"

	"github.com/gagliardetto/solana-go"

	gateerrors "github.com/lugondev/go-tokengate/internal/errors"
	"github.com/lugondev/go-tokengate/internal/token"
	"github.com/lugondev/go-tokengate/internal/token/tokentest"
	"github.com/lugondev/go-tokengate/pkg/types"
)

func TestNewMintView(t *testing.T) {
	freeze := solana.NewWallet().PublicKey()
	b := tokentest.NewMint().FreezeAuthority(freeze)

	mint := b.View(t)

	if !mint.Address.Equals(b.AddressKey()) {
		t.Errorf("Expected address %s, got %s", b.AddressKey(), mint.Address)
	}
	if !mint.Owner.Equals(token.Token2022ProgramID) {
		t.Errorf("Expected Token-2022 owner, got %s", mint.Owner)
	}
	if !mint.HasFreezeAuthority() || !mint.FreezeAuthority.Equals(freeze) {
		t.Errorf("Expected freeze authority %s, got %v", freeze, mint.FreezeAuthority)
	}
	if mint.Decimals != 6 {
		t.Errorf("Expected decimals 6, got %d", mint.Decimals)
	}
	if mint.IsBaselineToken() {
		t.Error("Expected Token-2022 mint not to be baseline")
	}
}

func TestNewMintViewErrors(t *testing.T) {
	address := solana.NewWallet().PublicKey()

	tests := []struct {
		name    string
		account *types.Account
		code    string
	}{
		{"nil account", nil, gateerrors.ErrCodeMintNotFound},
		{
			"foreign owner",
			&types.Account{Owner: solana.SystemProgramID, Data: tokentest.NewMint().Data()},
			gateerrors.ErrCodeMalformedMintState,
		},
		{
			"short data",
			&types.Account{Owner: token.TokenProgramID, Data: make([]byte, 40)},
			gateerrors.ErrCodeMalformedMintState,
		},
		{
			"uninitialized",
			tokentest.NewMint().Uninitialized().Account(),
			gateerrors.ErrCodeMalformedMintState,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := token.NewMintView(address, tt.account)
			if gateerrors.CodeOf(err) != tt.code {
				t.Errorf("Expected code %s, got %v", tt.code, err)
			}
		})
	}
}

func TestExtensionTypesPreservesOrder(t *testing.T) {
	mint := tokentest.NewMint().
		Extension(token.ExtensionTransferHook).
		Extension(token.ExtensionTransferFeeConfig).
		Extension(token.ExtensionMetadataPointer).
		View(t)

	exts, err := mint.ExtensionTypes()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []token.ExtensionType{
		token.ExtensionTransferHook,
		token.ExtensionTransferFeeConfig,
		token.ExtensionMetadataPointer,
	}
	if len(exts) != len(expected) {
		t.Fatalf("Expected %d extensions, got %v", len(expected), exts)
	}
	for i := range expected {
		if exts[i] != expected[i] {
			t.Errorf("Extension %d: expected %s, got %s", i, expected[i], exts[i])
		}
	}
}

func TestExtensionTypesBaselineToken(t *testing.T) {
	mint := tokentest.NewMint().Owner(token.TokenProgramID).View(t)

	exts, err := mint.ExtensionTypes()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(exts) != 0 {
		t.Errorf("Expected no extensions, got %v", exts)
	}
}

func TestParseExtensionTypesUnknownTag(t *testing.T) {
	data := tokentest.NewMint().ExtensionValue(999, []byte{1, 2, 3}).Data()

	exts, err := token.ParseExtensionTypes(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(exts) != 1 || exts[0] != token.ExtensionType(999) {
		t.Fatalf("Expected [Unknown(999)], got %v", exts)
	}
	if exts[0].IsKnown() {
		t.Error("Expected tag 999 to be unknown")
	}
	if exts[0].String() != "Unknown(999)" {
		t.Errorf("Expected Unknown(999), got %s", exts[0].String())
	}
}

func TestParseExtensionTypesEmptyRegion(t *testing.T) {
	exts, err := token.ParseExtensionTypes(tokentest.NewMint().EmptyExtensionRegion().Data())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(exts) != 0 {
		t.Errorf("Expected no extensions, got %v", exts)
	}
}

func TestParseExtensionTypesMalformed(t *testing.T) {
	valid := tokentest.NewMint().Extension(token.ExtensionTransferFeeConfig).Data()

	badPadding := append([]byte(nil), valid...)
	badPadding[100] = 1

	badAccountType := append([]byte(nil), valid...)
	badAccountType[165] = 2

	truncatedValue := append([]byte(nil), valid[:len(valid)-8]...)

	tests := []struct {
		name string
		data []byte
	}{
		{"too short", make([]byte, 20)},
		{"between base and account type", valid[:120]},
		{"multisig length", make([]byte, 355)},
		{"non-zero padding", badPadding},
		{"account type not mint", badAccountType},
		{"truncated value", truncatedValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := token.ParseExtensionTypes(tt.data)
			if !gateerrors.Is(err, gateerrors.ErrMalformedMintState) {
				t.Errorf("Expected ErrMalformedMintState, got %v", err)
			}
		})
	}
}

func TestParseExtensionType(t *testing.T) {
	ext, err := token.ParseExtensionType("TransferHook")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ext != token.ExtensionTransferHook {
		t.Errorf("Expected TransferHook, got %s", ext)
	}

	if _, err := token.ParseExtensionType("Nope"); err == nil {
		t.Error("Expected error for unknown extension name")
	}
}

func TestNativeMint(t *testing.T) {
	mint := tokentest.NewMint().Address(token.NativeMintID).View(t)
	if !mint.IsNativeMint() {
		t.Error("Expected native mint to be detected")
	}
}
