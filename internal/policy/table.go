package policy

import (
	"github.com/lugondev/go-tokengate/internal/token"
)

// Compatibility is how a pool treats a mint extension.
type Compatibility int

const (
	// Never rejects the mint. It is the zero value so unlisted extensions fail closed.
	Never Compatibility = iota
	// Always accepts the extension.
	Always
	// BadgeGated accepts the extension only for badged mints.
	BadgeGated
)

func (c Compatibility) String() string {
	switch c {
	case Always:
		return "always"
	case BadgeGated:
		return "badge_gated"
	default:
		return "never"
	}
}

// Table maps extension types to their compatibility. Missing entries are Never.
type Table map[token.ExtensionType]Compatibility

// Classify returns the compatibility of ext and whether the table lists it.
// Unlisted extensions are Never.
func (t Table) Classify(ext token.ExtensionType) (Compatibility, bool) {
	c, ok := t[ext]
	return c, ok
}

// DefaultTable returns the pool admission table.
//
// The confidential transfer extensions are accepted because the pool only
// moves tokens with non-confidential transfers and its vaults are never
// configured for confidential balances.
func DefaultTable() Table {
	return Table{
		token.ExtensionTransferFeeConfig:             Always,
		token.ExtensionInterestBearingConfig:         Always,
		token.ExtensionTokenMetadata:                 Always,
		token.ExtensionMetadataPointer:               Always,
		token.ExtensionScaledUiAmount:                Always,
		token.ExtensionConfidentialTransferMint:      Always,
		token.ExtensionConfidentialTransferFeeConfig: Always,

		token.ExtensionPermanentDelegate:   BadgeGated,
		token.ExtensionTransferHook:        BadgeGated,
		token.ExtensionMintCloseAuthority:  BadgeGated,
		token.ExtensionDefaultAccountState: BadgeGated,
		token.ExtensionPausable:            BadgeGated,

		token.ExtensionNonTransferable: Never,
	}
}
