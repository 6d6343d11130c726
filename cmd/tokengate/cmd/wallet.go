package cmd

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	solanaclient "github.com/lugondev/go-tokengate/internal/solana"
)

var walletOut string

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Wallet management commands",
	Long:  `Commands for managing badge authority and funder keypairs.`,
}

var walletNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Generate a new wallet",
	Long:  `Generate a new Solana wallet keypair, optionally saving it in Solana CLI keypair format.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		wallet := solanaclient.NewWallet()

		fmt.Fprintln(cmd.OutOrStdout(), "New wallet generated!")
		fmt.Fprintf(cmd.OutOrStdout(), "  Public Key: %s\n", wallet.PublicKey())

		if walletOut != "" {
			if err := wallet.SaveToFile(walletOut); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  Saved to:   %s\n", walletOut)
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "  Private Key: %s\n", wallet.PrivateKey())
		fmt.Fprintln(cmd.OutOrStdout(), "\nWARNING: Save your private key securely. Never share it with anyone!")
		return nil
	},
}

var walletBalanceCmd = &cobra.Command{
	Use:   "balance <address>",
	Short: "Check wallet balance",
	Long:  `Check the SOL balance of a wallet address, e.g. before funding badges.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pubKey, err := solana.PublicKeyFromBase58(args[0])
		if err != nil {
			return fmt.Errorf("invalid address: %w", err)
		}

		ctx, cancel := commandContext()
		defer cancel()

		client := newRPCClient()
		defer client.Close()

		lamports, err := client.GetBalance(ctx, pubKey)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Address: %s\n", pubKey)
		fmt.Fprintf(cmd.OutOrStdout(), "Balance: %.9f SOL (%d lamports)\n", float64(lamports)/float64(solana.LAMPORTS_PER_SOL), lamports)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(walletCmd)
	walletCmd.AddCommand(walletNewCmd)
	walletCmd.AddCommand(walletBalanceCmd)

	walletNewCmd.Flags().StringVarP(&walletOut, "out", "o", "", "write the keypair to this file")
}
