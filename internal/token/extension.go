package token

import (
	"fmt"
)

// ExtensionType is the Token-2022 extension discriminator stored in the TLV region.
// Values not listed below are preserved as-is so that callers can reject them.
type ExtensionType uint16

const (
	ExtensionUninitialized ExtensionType = iota
	ExtensionTransferFeeConfig
	ExtensionTransferFeeAmount
	ExtensionMintCloseAuthority
	ExtensionConfidentialTransferMint
	ExtensionConfidentialTransferAccount
	ExtensionDefaultAccountState
	ExtensionImmutableOwner
	ExtensionMemoTransfer
	ExtensionNonTransferable
	ExtensionInterestBearingConfig
	ExtensionCpiGuard
	ExtensionPermanentDelegate
	ExtensionNonTransferableAccount
	ExtensionTransferHook
	ExtensionTransferHookAccount
	ExtensionConfidentialTransferFeeConfig
	ExtensionConfidentialTransferFeeAmount
	ExtensionMetadataPointer
	ExtensionTokenMetadata
	ExtensionGroupPointer
	ExtensionTokenGroup
	ExtensionGroupMemberPointer
	ExtensionTokenGroupMember
	ExtensionConfidentialMintBurn
	ExtensionScaledUiAmount
	ExtensionPausable
	ExtensionPausableAccount
)

var extensionNames = map[ExtensionType]string{
	ExtensionUninitialized:                 "Uninitialized",
	ExtensionTransferFeeConfig:             "TransferFeeConfig",
	ExtensionTransferFeeAmount:             "TransferFeeAmount",
	ExtensionMintCloseAuthority:            "MintCloseAuthority",
	ExtensionConfidentialTransferMint:      "ConfidentialTransferMint",
	ExtensionConfidentialTransferAccount:   "ConfidentialTransferAccount",
	ExtensionDefaultAccountState:           "DefaultAccountState",
	ExtensionImmutableOwner:                "ImmutableOwner",
	ExtensionMemoTransfer:                  "MemoTransfer",
	ExtensionNonTransferable:               "NonTransferable",
	ExtensionInterestBearingConfig:         "InterestBearingConfig",
	ExtensionCpiGuard:                      "CpiGuard",
	ExtensionPermanentDelegate:             "PermanentDelegate",
	ExtensionNonTransferableAccount:        "NonTransferableAccount",
	ExtensionTransferHook:                  "TransferHook",
	ExtensionTransferHookAccount:           "TransferHookAccount",
	ExtensionConfidentialTransferFeeConfig: "ConfidentialTransferFeeConfig",
	ExtensionConfidentialTransferFeeAmount: "ConfidentialTransferFeeAmount",
	ExtensionMetadataPointer:               "MetadataPointer",
	ExtensionTokenMetadata:                 "TokenMetadata",
	ExtensionGroupPointer:                  "GroupPointer",
	ExtensionTokenGroup:                    "TokenGroup",
	ExtensionGroupMemberPointer:            "GroupMemberPointer",
	ExtensionTokenGroupMember:              "TokenGroupMember",
	ExtensionConfidentialMintBurn:          "ConfidentialMintBurn",
	ExtensionScaledUiAmount:                "ScaledUiAmount",
	ExtensionPausable:                      "Pausable",
	ExtensionPausableAccount:               "PausableAccount",
}

// String returns the Token-2022 name of the extension, or Unknown(n).
func (e ExtensionType) String() string {
	if name, ok := extensionNames[e]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", uint16(e))
}

// IsKnown reports whether e is a Token-2022 extension type this package recognizes.
func (e ExtensionType) IsKnown() bool {
	_, ok := extensionNames[e]
	return ok
}

// ParseExtensionType resolves a Token-2022 extension name to its type.
func ParseExtensionType(name string) (ExtensionType, error) {
	for ext, n := range extensionNames {
		if n == name {
			return ext, nil
		}
	}
	return 0, fmt.Errorf("unknown extension type %q", name)
}
