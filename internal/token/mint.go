package token

import (
	"bytes"
	"fmt"

	"github.com/gagliardetto/solana-go"

	gateerrors "github.com/lugondev/go-tokengate/internal/errors"
	"github.com/lugondev/go-tokengate/pkg/types"
	"github.com/lugondev/go-tokengate/pkg/view"
)

// MintView is a read-only snapshot of a mint account.
type MintView struct {
	// Address is the mint's canonical address.
	Address solana.PublicKey

	// Owner is the token program that owns the mint account.
	Owner solana.PublicKey

	// FreezeAuthority is the configured freeze authority, or nil.
	FreezeAuthority *solana.PublicKey

	// Decimals is copied from the base mint state.
	Decimals uint8

	// Data is the raw account data, including any extension region.
	Data []byte
}

// NewMintView decodes the base mint state of account.
//
// Only the base state is decoded here. The extension region is parsed lazily
// by ExtensionTypes so that callers which never reach extension inspection do
// not pay for it.
func NewMintView(address solana.PublicKey, account *types.Account) (*MintView, error) {
	if account == nil {
		return nil, gateerrors.MintNotFound(address.String())
	}
	if !IsTokenProgram(account.Owner) {
		return nil, gateerrors.MalformedMintState(
			fmt.Sprintf("account %s is owned by %s, not a token program", address, account.Owner), nil)
	}

	mv, err := view.NewMintAccountView(account.Data)
	if err != nil {
		return nil, gateerrors.MalformedMintState(
			fmt.Sprintf("mint data too short: %d bytes", len(account.Data)), err)
	}
	if !mv.ValidOptions() {
		return nil, gateerrors.MalformedMintState("invalid option tag in base mint", view.ErrInvalidAccountData)
	}
	if !mv.IsInitialized() {
		return nil, gateerrors.MalformedMintState("mint is not initialized", view.ErrInvalidAccountData)
	}

	mint := &MintView{
		Address:  address,
		Owner:    account.Owner,
		Decimals: mv.Decimals(),
		Data:     account.Data,
	}
	if freeze := mv.FreezeAuthority(); freeze != nil {
		key := *freeze
		mint.FreezeAuthority = &key
	}
	return mint, nil
}

// IsBaselineToken reports whether the mint is owned by the non-extensible Token program.
func (m *MintView) IsBaselineToken() bool {
	return m.Owner.Equals(TokenProgramID)
}

// IsNativeMint reports whether the mint is the Token-2022 wrapped SOL mint.
func (m *MintView) IsNativeMint() bool {
	return m.Address.Equals(NativeMintID)
}

// HasFreezeAuthority reports whether a freeze authority is configured.
func (m *MintView) HasFreezeAuthority() bool {
	return m.FreezeAuthority != nil
}

// ExtensionTypes returns the mint's extension types in stored order.
// Mints of the baseline Token program never carry extensions.
func (m *MintView) ExtensionTypes() ([]ExtensionType, error) {
	if m.IsBaselineToken() {
		return nil, nil
	}
	return ParseExtensionTypes(m.Data)
}

// ParseExtensionTypes walks the Token-2022 TLV region of raw mint data.
//
// A base-size mint has no extensions. Otherwise the data must not be
// multisig-sized, must reach past the account type byte, must have zeroed
// padding after the base mint, must be tagged as a Mint, and every TLV entry
// must fit in the buffer. Any violation yields ErrMalformedMintState.
// Extension types unknown to this package are returned rather than rejected.
func ParseExtensionTypes(data []byte) ([]ExtensionType, error) {
	switch {
	case len(data) < view.MintSize:
		return nil, gateerrors.MalformedMintState(fmt.Sprintf("mint data too short: %d bytes", len(data)), view.ErrInvalidBuffer)
	case len(data) == view.MintSize:
		return nil, nil
	case len(data) == view.MultisigSize:
		return nil, gateerrors.MalformedMintState("data has multisig length", view.ErrInvalidAccountData)
	case len(data) < view.TLVStartOffset:
		return nil, gateerrors.MalformedMintState(fmt.Sprintf("extension region truncated: %d bytes", len(data)), view.ErrInvalidAccountData)
	}

	mv, err := view.NewMintAccountView(data)
	if err != nil {
		return nil, gateerrors.MalformedMintState("base mint", err)
	}
	if !bytes.Equal(mv.Padding(), make([]byte, view.AccountTypeOffset-view.MintSize)) {
		return nil, gateerrors.MalformedMintState("non-zero padding after base mint", view.ErrInvalidAccountData)
	}
	if mv.AccountType() != view.AccountTypeMint {
		return nil, gateerrors.MalformedMintState(
			fmt.Sprintf("account type %d is not a mint", mv.AccountType()), view.ErrInvalidAccountData)
	}

	var extensions []ExtensionType
	if err := mv.WalkTLV(func(typ uint16, _ []byte) bool {
		extensions = append(extensions, ExtensionType(typ))
		return true
	}); err != nil {
		return nil, gateerrors.MalformedMintState("extension TLV entry overruns account data", err)
	}
	return extensions, nil
}
