// Package tokentest builds synthetic mint accounts for tests.
package tokentest

import (
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"

	"github.com/lugondev/go-tokengate/internal/token"
	"github.com/lugondev/go-tokengate/pkg/types"
	"github.com/lugondev/go-tokengate/pkg/view"
)

type entry struct {
	typ   uint16
	value []byte
}

// MintBuilder assembles raw mint account data.
type MintBuilder struct {
	address         solana.PublicKey
	owner           solana.PublicKey
	freezeAuthority *solana.PublicKey
	decimals        uint8
	uninitialized   bool
	entries         []entry
	forceRegion     bool
}

// NewMint starts a Token-2022 mint with a random address and no extensions.
func NewMint() *MintBuilder {
	return &MintBuilder{
		address:  solana.NewWallet().PublicKey(),
		owner:    token.Token2022ProgramID,
		decimals: 6,
	}
}

// Address sets the mint address.
func (b *MintBuilder) Address(address solana.PublicKey) *MintBuilder {
	b.address = address
	return b
}

// Owner sets the owning program.
func (b *MintBuilder) Owner(owner solana.PublicKey) *MintBuilder {
	b.owner = owner
	return b
}

// FreezeAuthority sets a freeze authority.
func (b *MintBuilder) FreezeAuthority(authority solana.PublicKey) *MintBuilder {
	b.freezeAuthority = &authority
	return b
}

// Uninitialized clears the is_initialized flag.
func (b *MintBuilder) Uninitialized() *MintBuilder {
	b.uninitialized = true
	return b
}

// Extension appends an extension entry with a zeroed 32-byte value.
func (b *MintBuilder) Extension(ext token.ExtensionType) *MintBuilder {
	return b.ExtensionValue(uint16(ext), make([]byte, 32))
}

// ExtensionValue appends a raw TLV entry.
func (b *MintBuilder) ExtensionValue(typ uint16, value []byte) *MintBuilder {
	b.entries = append(b.entries, entry{typ: typ, value: value})
	b.forceRegion = true
	return b
}

// EmptyExtensionRegion writes the account type byte with no TLV entries.
func (b *MintBuilder) EmptyExtensionRegion() *MintBuilder {
	b.forceRegion = true
	return b
}

// Data returns the encoded account data.
func (b *MintBuilder) Data() []byte {
	buf := make([]byte, view.MintSize)
	binary.LittleEndian.PutUint32(buf[0:4], 1)
	copy(buf[4:36], b.address[:])
	binary.LittleEndian.PutUint64(buf[36:44], 1_000_000_000)
	buf[44] = b.decimals
	if !b.uninitialized {
		buf[45] = 1
	}
	if b.freezeAuthority != nil {
		binary.LittleEndian.PutUint32(buf[46:50], 1)
		copy(buf[50:82], b.freezeAuthority[:])
	}

	if !b.forceRegion {
		return buf
	}

	full := make([]byte, view.TLVStartOffset)
	copy(full, buf)
	full[view.AccountTypeOffset] = byte(view.AccountTypeMint)
	for _, e := range b.entries {
		header := make([]byte, 4)
		binary.LittleEndian.PutUint16(header[0:2], e.typ)
		binary.LittleEndian.PutUint16(header[2:4], uint16(len(e.value)))
		full = append(full, header...)
		full = append(full, e.value...)
	}
	return full
}

// Account returns the raw account owned by the configured program.
func (b *MintBuilder) Account() *types.Account {
	return &types.Account{
		Lamports: 1_461_600,
		Data:     b.Data(),
		Owner:    b.owner,
	}
}

// AddressKey returns the configured mint address.
func (b *MintBuilder) AddressKey() solana.PublicKey {
	return b.address
}

// View decodes the mint, failing the test on error.
func (b *MintBuilder) View(tb testing.TB) *token.MintView {
	tb.Helper()
	mint, err := token.NewMintView(b.address, b.Account())
	if err != nil {
		tb.Fatalf("failed to build mint view: %v", err)
	}
	return mint
}
