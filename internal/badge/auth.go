package badge

import (
	"github.com/gagliardetto/solana-go"
)

// Configuration is the protocol-level entity a badge belongs to.
type Configuration struct {
	ID                  solana.PublicKey
	TokenBadgeAuthority solana.PublicKey
}

// CreateBadgeMessage is the payload the badge authority signs to approve a mint.
func CreateBadgeMessage(configID, mint solana.PublicKey) []byte {
	msg := make([]byte, 0, len(SeedPrefix)+64)
	msg = append(msg, SeedPrefix...)
	msg = append(msg, configID[:]...)
	msg = append(msg, mint[:]...)
	return msg
}

// SignCreateBadge produces the authority credential for creating a badge.
func SignCreateBadge(authority solana.PrivateKey, configID, mint solana.PublicKey) (solana.Signature, error) {
	return authority.Sign(CreateBadgeMessage(configID, mint))
}

// VerifyCreateBadge checks sig against the configuration's badge authority.
func (c Configuration) VerifyCreateBadge(sig solana.Signature, mint solana.PublicKey) bool {
	return sig.Verify(c.TokenBadgeAuthority, CreateBadgeMessage(c.ID, mint))
}
