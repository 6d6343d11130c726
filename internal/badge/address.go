package badge

import (
	"github.com/gagliardetto/solana-go"
)

// SeedPrefix is the first seed of every badge address.
const SeedPrefix = "token_badge"

// DeriveAddress computes the badge address for (configID, mint) under programID.
// It touches no storage.
func DeriveAddress(programID, configID, mint solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{
		[]byte(SeedPrefix),
		configID[:],
		mint[:],
	}, programID)
}
