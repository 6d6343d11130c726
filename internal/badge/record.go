package badge

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// RecordLen is the serialized size of a badge record: discriminator,
// configuration id, mint, and reserved space.
const RecordLen = 8 + 32 + 32 + 128

// Discriminator prefixes every badge record.
var Discriminator = accountDiscriminator("TokenBadge")

func accountDiscriminator(name string) [8]byte {
	sum := sha256.Sum256([]byte("account:" + name))
	var d [8]byte
	copy(d[:], sum[:8])
	return d
}

// BadgeRecord marks a mint as vetted for a configuration.
type BadgeRecord struct {
	ConfigurationID solana.PublicKey
	Mint            solana.PublicKey
}

type badgeLayout struct {
	Discriminator   [8]byte
	ConfigurationID solana.PublicKey
	Mint            solana.PublicKey
	Reserved        [128]byte
}

// Marshal encodes the record in its fixed Borsh layout.
func (r *BadgeRecord) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	layout := badgeLayout{
		Discriminator:   Discriminator,
		ConfigurationID: r.ConfigurationID,
		Mint:            r.Mint,
	}
	if err := bin.NewBorshEncoder(&buf).Encode(&layout); err != nil {
		return nil, fmt.Errorf("encode badge record: %w", err)
	}
	if buf.Len() != RecordLen {
		return nil, fmt.Errorf("encode badge record: got %d bytes, want %d", buf.Len(), RecordLen)
	}
	return buf.Bytes(), nil
}

// Matches reports whether the stored pair equals the queried pair.
func (r *BadgeRecord) Matches(configID, mint solana.PublicKey) bool {
	return r.ConfigurationID.Equals(configID) && r.Mint.Equals(mint)
}

// DecodeBadgeRecord parses record bytes, checking length and discriminator.
func DecodeBadgeRecord(data []byte) (*BadgeRecord, error) {
	if len(data) < RecordLen {
		return nil, fmt.Errorf("badge record too short: %d bytes", len(data))
	}

	var layout badgeLayout
	if err := bin.NewBorshDecoder(data).Decode(&layout); err != nil {
		return nil, fmt.Errorf("decode badge record: %w", err)
	}
	if layout.Discriminator != Discriminator {
		return nil, fmt.Errorf("badge record discriminator mismatch")
	}

	return &BadgeRecord{
		ConfigurationID: layout.ConfigurationID,
		Mint:            layout.Mint,
	}, nil
}
