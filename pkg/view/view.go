// Package view provides zero-copy accessors over raw token mint account data.
//
// The accessors never allocate for fixed-size fields; public keys are read
// directly out of the backing buffer. Callers that need owned data should copy.
package view

import (
	"encoding/binary"
	"errors"
	"unsafe"

	"github.com/gagliardetto/solana-go"
)

var (
	ErrInvalidBuffer      = errors.New("invalid buffer size")
	ErrInvalidAccountData = errors.New("invalid account data")
)

// Token mint layout sizes shared by the Token and Token-2022 programs.
const (
	MintSize          = 82
	BaseAccountSize   = 165
	MultisigSize      = 355
	AccountTypeOffset = BaseAccountSize
	TLVStartOffset    = AccountTypeOffset + 1

	tlvTypeSize   = 2
	tlvLengthSize = 2
	tlvHeaderSize = tlvTypeSize + tlvLengthSize
)

// AccountType is the discriminator byte Token-2022 writes after the base state
// when an account carries extensions.
type AccountType uint8

const (
	AccountTypeUninitialized AccountType = iota
	AccountTypeMint
	AccountTypeAccount
)

// MintAccountView reads fields of a token mint without copying the buffer.
type MintAccountView struct {
	buffer []byte
}

// NewMintAccountView wraps buffer. It fails when the buffer cannot hold a base mint.
func NewMintAccountView(buffer []byte) (*MintAccountView, error) {
	if len(buffer) < MintSize {
		return nil, ErrInvalidBuffer
	}
	return &MintAccountView{buffer: buffer}, nil
}

func (v *MintAccountView) option(offset int) (bool, bool) {
	switch binary.LittleEndian.Uint32(v.buffer[offset : offset+4]) {
	case 0:
		return false, true
	case 1:
		return true, true
	default:
		return false, false
	}
}

// MintAuthority returns the mint authority, or nil when unset.
func (v *MintAccountView) MintAuthority() *solana.PublicKey {
	if set, _ := v.option(0); !set {
		return nil
	}
	return (*solana.PublicKey)(unsafe.Pointer(&v.buffer[4]))
}

// Supply returns the total token supply.
func (v *MintAccountView) Supply() uint64 {
	return binary.LittleEndian.Uint64(v.buffer[36:44])
}

// Decimals returns the number of base-10 digits to the right of the decimal place.
func (v *MintAccountView) Decimals() uint8 {
	return v.buffer[44]
}

// IsInitialized reports whether the mint has been initialized.
func (v *MintAccountView) IsInitialized() bool {
	return v.buffer[45] == 1
}

// FreezeAuthority returns the freeze authority, or nil when unset.
func (v *MintAccountView) FreezeAuthority() *solana.PublicKey {
	if set, _ := v.option(46); !set {
		return nil
	}
	return (*solana.PublicKey)(unsafe.Pointer(&v.buffer[50]))
}

// ValidOptions reports whether both COption tags hold 0 or 1.
func (v *MintAccountView) ValidOptions() bool {
	_, mintOK := v.option(0)
	_, freezeOK := v.option(46)
	return mintOK && freezeOK
}

// HasExtensionRegion reports whether the buffer extends past the base mint.
func (v *MintAccountView) HasExtensionRegion() bool {
	return len(v.buffer) > MintSize
}

// AccountType returns the account type byte, or AccountTypeUninitialized when
// the buffer has no extension region.
func (v *MintAccountView) AccountType() AccountType {
	if len(v.buffer) <= AccountTypeOffset {
		return AccountTypeUninitialized
	}
	return AccountType(v.buffer[AccountTypeOffset])
}

// Padding returns the bytes between the base mint and the account type byte.
func (v *MintAccountView) Padding() []byte {
	if len(v.buffer) < AccountTypeOffset {
		return nil
	}
	return v.buffer[MintSize:AccountTypeOffset]
}

// TLVData returns the raw type-length-value region following the account type.
func (v *MintAccountView) TLVData() []byte {
	if len(v.buffer) <= TLVStartOffset {
		return nil
	}
	return v.buffer[TLVStartOffset:]
}

// WalkTLV calls fn for every entry of the TLV region, in stored order.
//
// The walk stops at a zero type or when fewer than two bytes remain, matching
// how Token-2022 tolerates trailing slack. A truncated header or a value that
// overruns the buffer yields ErrInvalidAccountData. Returning false from fn
// stops the walk early without error.
func (v *MintAccountView) WalkTLV(fn func(typ uint16, value []byte) bool) error {
	return WalkTLV(v.TLVData(), fn)
}

// WalkTLV walks a raw TLV region. See MintAccountView.WalkTLV.
func WalkTLV(data []byte, fn func(typ uint16, value []byte) bool) error {
	start := 0
	for start < len(data) {
		if len(data)-start < tlvTypeSize {
			return nil
		}
		typ := binary.LittleEndian.Uint16(data[start : start+tlvTypeSize])
		if typ == 0 {
			return nil
		}
		if len(data)-start < tlvHeaderSize {
			return ErrInvalidAccountData
		}
		length := int(binary.LittleEndian.Uint16(data[start+tlvTypeSize : start+tlvHeaderSize]))
		valueStart := start + tlvHeaderSize
		valueEnd := valueStart + length
		if valueEnd > len(data) {
			return ErrInvalidAccountData
		}
		if !fn(typ, data[valueStart:valueEnd]) {
			return nil
		}
		start = valueEnd
	}
	return nil
}
