package policy

import (
	"fmt"
	"os"
	"sync"

	"github.com/gagliardetto/solana-go"
	"gopkg.in/yaml.v3"
)

// DefaultAllowListMints are audited mints admitted without extension inspection.
var DefaultAllowListMints = []string{
	"HVbpJAQGNpkgBaYBZQBR1t7yFdvaYVp2vCQQfKKEN4tM",
	"Crn4x1Y2HUKko7ox2EZMT6N2t2ZyH7eKtwkBGVnhEq1g",
	"FrBfWJ4qE5sCzKm3k3JaAtqZcXUh4LvJygDeketsrsH4",
	"2b1kV6DkPAnxd5ixfnxCpjxmKwqjjaYmCZfHsFu24GXo",
}

// AllowList is a set of mints that bypass extension inspection.
type AllowList struct {
	mu    sync.RWMutex
	mints map[solana.PublicKey]struct{}
}

// NewAllowList builds an allow-list from base58 mint addresses.
func NewAllowList(mints ...string) (*AllowList, error) {
	a := &AllowList{mints: make(map[solana.PublicKey]struct{}, len(mints))}
	for _, m := range mints {
		if err := a.AddString(m); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// DefaultAllowList returns the built-in audited mints.
func DefaultAllowList() *AllowList {
	a := &AllowList{mints: make(map[solana.PublicKey]struct{}, len(DefaultAllowListMints))}
	for _, m := range DefaultAllowListMints {
		a.Add(solana.MustPublicKeyFromBase58(m))
	}
	return a
}

type allowListFile struct {
	Mints []string `yaml:"mints"`
}

// LoadAllowListFile reads a YAML document of the form:
//
//	mints:
//	  - <base58 mint>
func LoadAllowListFile(path string) (*AllowList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read allow-list: %w", err)
	}

	var doc allowListFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse allow-list: %w", err)
	}

	return NewAllowList(doc.Mints...)
}

// Add inserts a mint.
func (a *AllowList) Add(mint solana.PublicKey) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.mints[mint] = struct{}{}
}

// AddString inserts a base58 mint address.
func (a *AllowList) AddString(mint string) error {
	key, err := solana.PublicKeyFromBase58(mint)
	if err != nil {
		return fmt.Errorf("invalid allow-list mint %q: %w", mint, err)
	}
	a.Add(key)
	return nil
}

// Merge adds every mint of other.
func (a *AllowList) Merge(other *AllowList) {
	if other == nil {
		return
	}
	for _, m := range other.Mints() {
		a.Add(m)
	}
}

// Contains reports whether mint is allow-listed. A nil list contains nothing.
func (a *AllowList) Contains(mint solana.PublicKey) bool {
	if a == nil {
		return false
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.mints[mint]
	return ok
}

// Mints returns the allow-listed mints in no particular order.
func (a *AllowList) Mints() []solana.PublicKey {
	if a == nil {
		return nil
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]solana.PublicKey, 0, len(a.mints))
	for m := range a.mints {
		out = append(out, m)
	}
	return out
}

// Len returns the number of mints.
func (a *AllowList) Len() int {
	if a == nil {
		return 0
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.mints)
}
