package cmd

import (
	"github.com/spf13/cobra"

	"github.com/lugondev/go-tokengate/internal/config"
)

var (
	cfgFile  string
	rpcURL   string
	logLevel string
	cfg      *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tokengate",
	Short: "tokengate - pool mint admission and token badges",
	Long: `tokengate decides which token mints a swap pool may accept.

It provides commands for:
- Evaluating mints against the extension compatibility policy
- Creating and looking up token badges
- Wallet management for badge authorities and funders`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./.tokengate.yaml or $HOME/.tokengate.yaml)")
	rootCmd.PersistentFlags().StringVar(&rpcURL, "rpc", "", "Solana RPC endpoint (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
}

func initConfig() error {
	loaded, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	if rpcURL != "" {
		loaded.Solana.RPC = rpcURL
	}
	if logLevel != "" {
		loaded.Log.Level = logLevel
	}

	cfg = loaded
	return nil
}
