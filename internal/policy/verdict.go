package policy

import (
	"fmt"

	"github.com/lugondev/go-tokengate/internal/token"
)

// Reason explains a verdict. It is informational only.
type Reason string

const (
	ReasonBaselineToken          Reason = "baseline_token"
	ReasonAllowListed            Reason = "allow_listed"
	ReasonExtensionsSupported    Reason = "extensions_supported"
	ReasonNativeMint             Reason = "native_mint"
	ReasonFreezeAuthority        Reason = "freeze_authority_without_badge"
	ReasonExtensionRequiresBadge Reason = "extension_requires_badge"
	ReasonExtensionNotSupported  Reason = "extension_not_supported"
	ReasonUnknownExtension       Reason = "unknown_extension"
)

// Verdict is the admission decision for a mint.
type Verdict struct {
	Supported bool
	Reason    Reason
	// Extension is the extension that decided a rejection, if any.
	Extension *token.ExtensionType
}

func (v Verdict) String() string {
	status := "unsupported"
	if v.Supported {
		status = "supported"
	}
	if v.Extension != nil {
		return fmt.Sprintf("%s (%s: %s)", status, v.Reason, v.Extension)
	}
	return fmt.Sprintf("%s (%s)", status, v.Reason)
}

func accept(reason Reason) Verdict {
	return Verdict{Supported: true, Reason: reason}
}

func reject(reason Reason, ext *token.ExtensionType) Verdict {
	return Verdict{Reason: reason, Extension: ext}
}
