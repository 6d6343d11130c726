package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/lugondev/go-tokengate/internal/gate"
)

var (
	evaluateConfiguration string
	evaluateOutput        string
	evaluateConcurrency   int
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <mint>...",
	Short: "Evaluate mints against the pool admission policy",
	Long: `Read each mint from the RPC endpoint, look up its token badge for the
configuration, and report whether a pool may accept it.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mints, err := parsePublicKeys(args)
		if err != nil {
			return err
		}
		configID, err := solana.PublicKeyFromBase58(evaluateConfiguration)
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

		engine, err := a.newEngine()
		if err != nil {
			return err
		}

		g := gate.New(newRPCClient(), a.registry, engine).
			WithLogger(a.logger).
			WithMetrics(a.metrics).
			WithConcurrency(evaluateConcurrency)

		results, err := g.VerifySupportedMints(ctx, configID, mints)
		if err != nil {
			return err
		}

		return printResults(cmd, results)
	},
}

type resultOutput struct {
	Mint      string `json:"mint"`
	Supported bool   `json:"supported"`
	Badged    bool   `json:"badged"`
	Reason    string `json:"reason,omitempty"`
	Extension string `json:"extension,omitempty"`
	Error     string `json:"error,omitempty"`
}

func printResults(cmd *cobra.Command, results []gate.Result) error {
	outputs := make([]resultOutput, 0, len(results))
	for _, r := range results {
		out := resultOutput{Mint: r.Mint.String(), Badged: r.Badged}
		if r.Err != nil {
			out.Error = r.Err.Error()
		} else {
			out.Supported = r.Verdict.Supported
			out.Reason = string(r.Verdict.Reason)
			if r.Verdict.Extension != nil {
				out.Extension = r.Verdict.Extension.String()
			}
		}
		outputs = append(outputs, out)
	}

	if evaluateOutput == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(outputs)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MINT\tSUPPORTED\tBADGED\tREASON\tEXTENSION")
	for _, out := range outputs {
		reason := out.Reason
		if out.Error != "" {
			reason = "error: " + out.Error
		}
		fmt.Fprintf(w, "%s\t%v\t%v\t%s\t%s\n", out.Mint, out.Supported, out.Badged, reason, out.Extension)
	}
	return w.Flush()
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
	evaluateCmd.Flags().StringVar(&evaluateConfiguration, "configuration", "", "configuration id the pool belongs to")
	evaluateCmd.Flags().StringVarP(&evaluateOutput, "output", "o", "table", "output format: table or json")
	evaluateCmd.Flags().IntVar(&evaluateConcurrency, "concurrency", 8, "mints read in parallel")
	evaluateCmd.MarkFlagRequired("configuration")
}
