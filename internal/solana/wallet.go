package solana

import (
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/gagliardetto/solana-go"
)

// Wallet is a badge authority or funder keypair.
type Wallet struct {
	privateKey solana.PrivateKey
}

func NewWallet() *Wallet {
	return &Wallet{privateKey: solana.NewWallet().PrivateKey}
}

// WalletFromBase58 parses a base58 private key, as printed by "wallet new".
func WalletFromBase58(key string) (*Wallet, error) {
	pk, err := solana.PrivateKeyFromBase58(key)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	if len(pk) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("invalid private key size: expected %d, got %d", ed25519.PrivateKeySize, len(pk))
	}
	return &Wallet{privateKey: pk}, nil
}

// WalletFromFile reads a solana-keygen keypair file.
func WalletFromFile(path string) (*Wallet, error) {
	pk, err := solana.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keypair %s: %w", path, err)
	}
	if len(pk) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("invalid keypair size in %s: expected %d, got %d", path, ed25519.PrivateKeySize, len(pk))
	}
	return &Wallet{privateKey: pk}, nil
}

// LoadWallet accepts either a keypair file path or a base58 private key.
func LoadWallet(source string) (*Wallet, error) {
	if _, err := os.Stat(source); err == nil {
		return WalletFromFile(source)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat keypair %s: %w", source, err)
	}

	w, err := WalletFromBase58(source)
	if err != nil {
		return nil, fmt.Errorf("%q is neither a keypair file nor a base58 private key", source)
	}
	return w, nil
}

func (w *Wallet) PublicKey() solana.PublicKey {
	return w.privateKey.PublicKey()
}

func (w *Wallet) PrivateKey() solana.PrivateKey {
	return w.privateKey
}

// SaveToFile writes the keypair as a solana-keygen byte array. It never
// overwrites an existing file.
func (w *Wallet) SaveToFile(path string) error {
	keypair := make([]int, len(w.privateKey))
	for i, b := range w.privateKey {
		keypair[i] = int(b)
	}
	data, err := json.Marshal(keypair)
	if err != nil {
		return fmt.Errorf("failed to encode keypair: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create keypair file: %w", err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		f.Close()
		return fmt.Errorf("failed to write keypair file: %w", err)
	}
	return f.Close()
}

func (w *Wallet) String() string {
	return w.PublicKey().String()
}
