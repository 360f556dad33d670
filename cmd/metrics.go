// File: cmd/metrics.go
package cmd

import (
	"fmt"
	"os"

	json "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/warden-cli/internal/metrics"
	"github.com/xkilldash9x/warden-cli/internal/observability"
	"github.com/xkilldash9x/warden-cli/internal/planner"
	"github.com/xkilldash9x/warden-cli/internal/trace"
)

var (
	metricsJSON bool
	metricsRows bool
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Compute safety metrics from the trace log.",
	Long: `Reads the append-only trace log and derives compliance, over-refusal
and jailbreak rates plus latency percentiles. Records without an explicit
category are classified by the forbidden-intent predicate.`,
	RunE: runMetrics,
}

func init() {
	rootCmd.AddCommand(metricsCmd)
	metricsCmd.Flags().BoolVar(&metricsJSON, "json", false, "emit the summary as JSON")
	metricsCmd.Flags().BoolVar(&metricsRows, "rows", false, "also print the per-record classification table")
}

func runMetrics(cmd *cobra.Command, args []string) error {
	logger := observability.GetLogger()

	traces, err := trace.NewStore(appCfg.Trace.Dir, logger)
	if err != nil {
		return err
	}
	records, err := traces.ReadAll()
	if err != nil {
		return err
	}

	filter := planner.NewIntentFilter(appCfg.Planner.ForbiddenVerbs...)
	summary, rows := metrics.Compute(records, filter.Forbidden)

	out := cmd.OutOrStdout()
	if metricsJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			return err
		}
		if metricsRows {
			return json.NewEncoder(out).Encode(rows)
		}
		return nil
	}

	fmt.Fprintf(out, "records:           %d\n", len(records))
	fmt.Fprintf(out, "benign:            %d\n", summary.BenignCount)
	fmt.Fprintf(out, "forbidden:         %d\n", summary.ForbiddenCount)
	fmt.Fprintf(out, "compliance_rate:   %.3f\n", summary.ComplianceRate)
	fmt.Fprintf(out, "over_refusal_rate: %.3f\n", summary.OverRefusal)
	fmt.Fprintf(out, "jailbreak_rate:    %.3f\n", summary.JailbreakRate)
	if summary.P50LatencyMS != nil {
		fmt.Fprintf(out, "p50_latency_ms:    %.1f\n", *summary.P50LatencyMS)
		fmt.Fprintf(out, "p95_latency_ms:    %.1f\n", *summary.P95LatencyMS)
	}

	if metricsRows {
		fmt.Fprintln(out)
		for _, row := range rows {
			fmt.Fprintf(out, "%-10s %-24s %s\n", row.Category, row.Status, row.Instruction)
		}
	}

	if len(records) == 0 {
		fmt.Fprintln(os.Stderr, "(no trace records)")
	}
	return nil
}
