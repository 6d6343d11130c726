// Package token reads token mint state owned by the Token and Token-2022 programs.
//
// It produces MintView, the read-only projection the compatibility policy
// engine inspects: owning program, freeze authority, mint address and the
// ordered list of Token-2022 extension types.
package token

import (
	"github.com/gagliardetto/solana-go"
)

// TokenProgramID is the baseline SPL Token program. Its mints cannot carry extensions.
var TokenProgramID = solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")

// Token2022ProgramID is the extensible Token-2022 program.
var Token2022ProgramID = solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")

// NativeMintID is the Token-2022 wrapped SOL mint.
var NativeMintID = solana.MustPublicKeyFromBase58("9pan9bMn5HatX4EJdBwg9VgCa7Uz5HL8N1m5D3NdXejP")

// IsTokenProgram reports whether program is one of the two token programs.
func IsTokenProgram(program solana.PublicKey) bool {
	return program.Equals(TokenProgramID) || program.Equals(Token2022ProgramID)
}
