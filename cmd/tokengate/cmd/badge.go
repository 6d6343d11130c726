package cmd

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/lugondev/go-tokengate/internal/badge"
	solanaclient "github.com/lugondev/go-tokengate/internal/solana"
)

var (
	badgeConfiguration string
	badgeAuthorityFile string
	badgeSignature     string
	badgeFunderFile    string
	badgePrepaid       uint64
	badgeLimit         int
	badgeOffset        int
)

var badgeCmd = &cobra.Command{
	Use:   "badge",
	Short: "Token badge commands",
	Long:  `Commands for creating, signing and inspecting token badges.`,
}

var badgeAddressCmd = &cobra.Command{
	Use:   "address <mint>",
	Short: "Derive the badge address for a mint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configID, mint, err := badgeTarget(args[0])
		if err != nil {
			return err
		}
		programID, err := cfg.ProgramID()
		if err != nil {
			return err
		}

		address, bump, err := badge.DeriveAddress(programID, configID, mint)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Address: %s\n", address)
		fmt.Fprintf(cmd.OutOrStdout(), "Bump:    %d\n", bump)
		return nil
	},
}

var badgeSignCmd = &cobra.Command{
	Use:   "sign <mint>",
	Short: "Sign a badge approval with the authority keypair",
	Long: `Produce the authority signature that approves a badge for the mint.
The signature can be passed to "badge create --signature" by another operator.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configID, mint, err := badgeTarget(args[0])
		if err != nil {
			return err
		}
		if badgeAuthorityFile == "" {
			return fmt.Errorf("--authority is required")
		}

		authority, err := solanaclient.LoadWallet(badgeAuthorityFile)
		if err != nil {
			return err
		}

		sig, err := badge.SignCreateBadge(authority.PrivateKey(), configID, mint)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), sig.String())
		return nil
	},
}

var badgeCreateCmd = &cobra.Command{
	Use:   "create <mint>",
	Short: "Create the token badge for a mint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configuration, err := resolveConfiguration(badgeConfiguration)
		if err != nil {
			return err
		}
		mint, err := solana.PublicKeyFromBase58(args[0])
		if err != nil {
			return fmt.Errorf("invalid mint: %w", err)
		}

		sig, err := badgeApproval(configuration, mint)
		if err != nil {
			return err
		}

		ctx, cancel := commandContext()
		defer cancel()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		funder, err := badgeFunder()
		if err != nil {
			return err
		}

		address, err := a.registry.CreateBadge(ctx, configuration, sig, mint, funder)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Token badge created!")
		fmt.Fprintf(cmd.OutOrStdout(), "  Address:       %s\n", address)
		fmt.Fprintf(cmd.OutOrStdout(), "  Configuration: %s\n", configuration.ID)
		fmt.Fprintf(cmd.OutOrStdout(), "  Mint:          %s\n", mint)
		fmt.Fprintf(cmd.OutOrStdout(), "  Rent:          %d lamports\n", badge.RentExemptMinimum(badge.RecordLen))
		return nil
	},
}

var badgeLookupCmd = &cobra.Command{
	Use:   "lookup <mint>",
	Short: "Check whether a mint is badged",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configID, mint, err := badgeTarget(args[0])
		if err != nil {
			return err
		}

		ctx, cancel := commandContext()
		defer cancel()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		found, err := a.registry.Lookup(ctx, configID, mint)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Badged: %v\n", found)
		return nil
	},
}

var badgeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List badges of a configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		configID, err := solana.PublicKeyFromBase58(badgeConfiguration)
		if err != nil {
			return fmt.Errorf("invalid configuration id: %w", err)
		}

		ctx, cancel := commandContext()
		defer cancel()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		records, err := a.registry.ListByConfiguration(ctx, configID, badgeLimit, badgeOffset)
		if err != nil {
			return err
		}

		for _, record := range records {
			address, _, err := badge.DeriveAddress(a.programID, record.ConfigurationID, record.Mint)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", record.Mint, address)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d badge(s)\n", len(records))
		return nil
	},
}

func badgeTarget(mintArg string) (solana.PublicKey, solana.PublicKey, error) {
	configID, err := solana.PublicKeyFromBase58(badgeConfiguration)
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, fmt.Errorf("invalid configuration id: %w", err)
	}
	mint, err := solana.PublicKeyFromBase58(mintArg)
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, fmt.Errorf("invalid mint: %w", err)
	}
	return configID, mint, nil
}

func badgeApproval(configuration badge.Configuration, mint solana.PublicKey) (solana.Signature, error) {
	switch {
	case badgeSignature != "":
		sig, err := solana.SignatureFromBase58(badgeSignature)
		if err != nil {
			return solana.Signature{}, fmt.Errorf("invalid signature: %w", err)
		}
		return sig, nil
	case badgeAuthorityFile != "":
		authority, err := solanaclient.LoadWallet(badgeAuthorityFile)
		if err != nil {
			return solana.Signature{}, err
		}
		return badge.SignCreateBadge(authority.PrivateKey(), configuration.ID, mint)
	default:
		return solana.Signature{}, fmt.Errorf("one of --authority or --signature is required")
	}
}

func badgeFunder() (badge.Funder, error) {
	if badgeFunderFile == "" {
		return nil, fmt.Errorf("--funder is required")
	}
	wallet, err := solanaclient.LoadWallet(badgeFunderFile)
	if err != nil {
		return nil, err
	}
	if badgePrepaid > 0 {
		return badge.NewPrepaidFunder(wallet.PublicKey(), badgePrepaid), nil
	}
	return solanaclient.NewBalanceFunder(newRPCClient(), wallet), nil
}

func init() {
	rootCmd.AddCommand(badgeCmd)
	badgeCmd.AddCommand(badgeAddressCmd)
	badgeCmd.AddCommand(badgeSignCmd)
	badgeCmd.AddCommand(badgeCreateCmd)
	badgeCmd.AddCommand(badgeLookupCmd)
	badgeCmd.AddCommand(badgeListCmd)

	badgeCmd.PersistentFlags().StringVar(&badgeConfiguration, "configuration", "", "configuration id")
	badgeCmd.MarkPersistentFlagRequired("configuration")

	for _, c := range []*cobra.Command{badgeSignCmd, badgeCreateCmd} {
		c.Flags().StringVar(&badgeAuthorityFile, "authority", "", "token badge authority keypair file or base58 private key")
	}
	badgeCreateCmd.Flags().StringVar(&badgeSignature, "signature", "", "authority signature from \"badge sign\"")
	badgeCreateCmd.Flags().StringVar(&badgeFunderFile, "funder", "", "funder keypair file or base58 private key")
	badgeCreateCmd.Flags().Uint64Var(&badgePrepaid, "prepaid", 0, "pay from a prepaid balance of this many lamports instead of the funder's on-chain balance")

	badgeListCmd.Flags().IntVar(&badgeLimit, "limit", 50, "maximum badges to list (0 for all)")
	badgeListCmd.Flags().IntVar(&badgeOffset, "offset", 0, "badges to skip")
}
