// File: cmd/trace.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/warden-cli/internal/observability"
	"github.com/xkilldash9x/warden-cli/internal/trace"
)

var (
	tailCount  int
	tailFollow bool
	archiveDSN string
)

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Inspect and maintain the trace log.",
}

var traceTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Print the last trace records, optionally following new ones.",
	RunE:  runTraceTail,
}

var traceClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Truncate the trace log (idempotent).",
	RunE:  runTraceClear,
}

var traceArchiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Bulk-load the trace log into Postgres for offline analysis.",
	RunE:  runTraceArchive,
}

func init() {
	rootCmd.AddCommand(traceCmd)
	traceCmd.AddCommand(traceTailCmd, traceClearCmd, traceArchiveCmd)

	traceTailCmd.Flags().IntVarP(&tailCount, "lines", "n", 10, "number of trailing records to print")
	traceTailCmd.Flags().BoolVarP(&tailFollow, "follow", "f", false, "keep following new records")
	traceArchiveCmd.Flags().StringVar(&archiveDSN, "dsn", "", "Postgres DSN (defaults to trace.archive_dsn config)")
}

func openTraceStore() (*trace.Store, error) {
	return trace.NewStore(appCfg.Trace.Dir, observability.GetLogger())
}

func runTraceTail(cmd *cobra.Command, args []string) error {
	traces, err := openTraceStore()
	if err != nil {
		return err
	}

	lines, err := traces.Tail(tailCount)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(lines) == 0 && !tailFollow {
		fmt.Fprintln(out, "(no traces)")
		return nil
	}
	for _, line := range lines {
		fmt.Fprintln(out, line)
	}

	if !tailFollow {
		return nil
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	err = traces.Follow(ctx, func(line string) {
		fmt.Fprintln(out, line)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func runTraceClear(cmd *cobra.Command, args []string) error {
	traces, err := openTraceStore()
	if err != nil {
		return err
	}
	if err := traces.Clear(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "trace log cleared")
	return nil
}

func runTraceArchive(cmd *cobra.Command, args []string) error {
	dsn := archiveDSN
	if dsn == "" {
		dsn = appCfg.Trace.ArchiveDSN
	}
	if dsn == "" {
		return errors.New("no Postgres DSN: pass --dsn or set trace.archive_dsn")
	}

	traces, err := openTraceStore()
	if err != nil {
		return err
	}
	records, err := traces.ReadAll()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "(no trace records to archive)")
		return nil
	}

	ctx := cmd.Context()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	defer pool.Close()

	archive, err := trace.NewArchive(ctx, pool, observability.GetLogger())
	if err != nil {
		return err
	}
	if err := archive.EnsureSchema(ctx); err != nil {
		return err
	}
	if err := archive.ArchiveRecords(ctx, records); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "archived %d records\n", len(records))
	return nil
}
