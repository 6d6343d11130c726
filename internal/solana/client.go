package solana

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	gateerrors "github.com/lugondev/go-tokengate/internal/errors"
	"github.com/lugondev/go-tokengate/internal/token"
	"github.com/lugondev/go-tokengate/pkg/types"
)

// Client wraps the Solana RPC client
type Client struct {
	rpc        *rpc.Client
	commitment rpc.CommitmentType
}

// NewClient creates a new Solana client
func NewClient(endpoint string) *Client {
	return &Client{
		rpc:        rpc.New(endpoint),
		commitment: rpc.CommitmentFinalized,
	}
}

// WithCommitment sets the commitment used for account reads.
func (c *Client) WithCommitment(commitment string) *Client {
	if commitment != "" {
		c.commitment = rpc.CommitmentType(commitment)
	}
	return c
}

// GetBalance returns the balance of an account in lamports
func (c *Client) GetBalance(ctx context.Context, pubkey solana.PublicKey) (uint64, error) {
	result, err := c.rpc.GetBalance(ctx, pubkey, c.commitment)
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return result.Value, nil
}

// GetBalanceSOL returns the balance in SOL (not lamports)
func (c *Client) GetBalanceSOL(ctx context.Context, pubkey solana.PublicKey) (float64, error) {
	lamports, err := c.GetBalance(ctx, pubkey)
	if err != nil {
		return 0, err
	}
	return float64(lamports) / float64(solana.LAMPORTS_PER_SOL), nil
}

// GetAccount returns the raw account, or nil if it does not exist.
func (c *Client) GetAccount(ctx context.Context, pubkey solana.PublicKey) (*types.Account, error) {
	result, err := c.rpc.GetAccountInfoWithOpts(ctx, pubkey, &rpc.GetAccountInfoOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: c.commitment,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get account info: %w", err)
	}
	if result == nil || result.Value == nil {
		return nil, nil
	}

	account := &types.Account{
		Lamports:   result.Value.Lamports,
		Owner:      result.Value.Owner,
		Executable: result.Value.Executable,
	}
	if result.Value.Data != nil {
		account.Data = result.Value.Data.GetBinary()
	}
	return account, nil
}

// GetMint loads and decodes a mint account.
func (c *Client) GetMint(ctx context.Context, address solana.PublicKey) (*token.MintView, error) {
	account, err := c.GetAccount(ctx, address)
	if err != nil {
		return nil, err
	}
	return token.NewMintView(address, account)
}

// BalanceFunder pays from an on-chain wallet. Debits are reserved locally
// against the wallet's balance and released by Credit.
type BalanceFunder struct {
	client   *Client
	wallet   *Wallet
	mu       sync.Mutex
	reserved uint64
}

func NewBalanceFunder(client *Client, wallet *Wallet) *BalanceFunder {
	return &BalanceFunder{client: client, wallet: wallet}
}

func (f *BalanceFunder) PublicKey() solana.PublicKey {
	return f.wallet.PublicKey()
}

func (f *BalanceFunder) Debit(ctx context.Context, lamports uint64) error {
	balance, err := f.client.GetBalance(ctx, f.wallet.PublicKey())
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if balance < f.reserved || balance-f.reserved < lamports {
		return gateerrors.AllocationFailed(
			fmt.Sprintf("funder %s has %d lamports, needs %d", f.wallet.PublicKey(), balance-min(balance, f.reserved), lamports), nil)
	}
	f.reserved += lamports
	return nil
}

func (f *BalanceFunder) Credit(ctx context.Context, lamports uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if lamports > f.reserved {
		lamports = f.reserved
	}
	f.reserved -= lamports
	return nil
}

// Close closes the client connection
func (c *Client) Close() error {
	// RPC client doesn't have a close method, but we include this for future use
	return nil
}
