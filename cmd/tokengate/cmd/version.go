package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Version information set at build time
	Version   = "dev"
	GitCommit = "none"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the version, git commit, and build date of the tokengate CLI.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "tokengate CLI\n")
		fmt.Fprintf(cmd.OutOrStdout(), "  Version:    %s\n", Version)
		fmt.Fprintf(cmd.OutOrStdout(), "  Git Commit: %s\n", GitCommit)
		fmt.Fprintf(cmd.OutOrStdout(), "  Build Date: %s\n", BuildDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
