// Package account decodes raw accounts held in the program's storage namespace.
//
// A decoder only accepts accounts owned by the program it was built for; any
// other owner, or data that fails to decode, yields nil rather than an error.
// Callers treat a nil result as "no valid record here".
package account

import (
	"github.com/lugondev/go-tokengate/pkg/types"
)

// DecodedAccount represents the decoded data of an account.
//
// Type parameter T is the type of data specific to the account, which is
// determined by the decoder used.
type DecodedAccount[T any] struct {
	// Lamports is the number of lamports in the account.
	Lamports uint64

	// Data is the decoded data specific to the account.
	Data T

	// Owner is the public key of the account's owner.
	Owner types.Pubkey
}

// AccountDecoder converts raw account data into a DecodedAccount.
type AccountDecoder[T any] interface {
	// DecodeAccount returns nil if the account cannot be decoded by this decoder.
	DecodeAccount(account *types.Account) *DecodedAccount[T]
}

// AccountDecoderFunc is a function type that implements AccountDecoder.
type AccountDecoderFunc[T any] func(account *types.Account) *DecodedAccount[T]

// DecodeAccount implements AccountDecoder interface.
func (f AccountDecoderFunc[T]) DecodeAccount(account *types.Account) *DecodedAccount[T] {
	return f(account)
}

// ProgramAccountDecoder decodes accounts owned by one program.
type ProgramAccountDecoder[T any] struct {
	// ProgramID is the expected owner of accounts this decoder handles.
	ProgramID types.Pubkey

	// DecodeFunc is the function that decodes the account data.
	DecodeFunc func(data []byte) (T, error)
}

// NewProgramAccountDecoder creates a new ProgramAccountDecoder.
func NewProgramAccountDecoder[T any](
	programID types.Pubkey,
	decodeFunc func(data []byte) (T, error),
) *ProgramAccountDecoder[T] {
	return &ProgramAccountDecoder[T]{
		ProgramID:  programID,
		DecodeFunc: decodeFunc,
	}
}

// DecodeAccount implements AccountDecoder interface.
func (d *ProgramAccountDecoder[T]) DecodeAccount(account *types.Account) *DecodedAccount[T] {
	if account == nil || !account.IsOwnedBy(d.ProgramID) {
		return nil
	}

	data, err := d.DecodeFunc(account.Data)
	if err != nil {
		return nil
	}

	return &DecodedAccount[T]{
		Lamports: account.Lamports,
		Data:     data,
		Owner:    account.Owner,
	}
}
