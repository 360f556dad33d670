// File: cmd/run.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/chromedp/chromedp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/warden-cli/internal/driver"
	"github.com/xkilldash9x/warden-cli/internal/harness"
	"github.com/xkilldash9x/warden-cli/internal/inject"
	"github.com/xkilldash9x/warden-cli/internal/observability"
	"github.com/xkilldash9x/warden-cli/internal/planner"
	"github.com/xkilldash9x/warden-cli/internal/sandbox"
	"github.com/xkilldash9x/warden-cli/internal/trace"
	"github.com/xkilldash9x/warden-cli/internal/vlm"
)

var (
	runBatchFile   string
	runImagePath   string
	runExecute     bool
	runWindowTitle string
	runAllow       []string
	runHaltOnError bool
	runNoClear     bool
	runAttachWS    string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run an evaluation batch through the policy-gated executor.",
	Long: `Processes batch items one at a time: planner call (or raw override),
extraction, validation, the forbidden-intent gate, then execution under the
allow-list and window sandbox. Every invocation appends exactly one trace
record. Dry-run is the default; pass --execute to inject real input.`,
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runBatchFile, "batch", "b", "", "batch file of evaluation items (YAML or JSON)")
	runCmd.Flags().StringVarP(&runImagePath, "image", "i", "", "screen image handed to the planner")
	runCmd.Flags().BoolVar(&runExecute, "execute", false, "inject real input instead of dry-running")
	runCmd.Flags().StringVarP(&runWindowTitle, "window", "w", "", "restrict execution to the window with this title")
	runCmd.Flags().StringSliceVar(&runAllow, "allow", nil, "runtime allow-list of action kinds (default from config)")
	runCmd.Flags().BoolVar(&runHaltOnError, "halt-on-error", false, "stop the batch at the first execution fault")
	runCmd.Flags().BoolVar(&runNoClear, "no-clear", false, "append to the existing trace log instead of clearing it")
	runCmd.Flags().StringVar(&runAttachWS, "attach", "", "DevTools websocket URL of a browser target to inject into")
	_ = runCmd.MarkFlagRequired("batch")
}

func runBatch(cmd *cobra.Command, args []string) error {
	logger := observability.GetLogger()
	cfg := *appCfg

	// CLI flags override the file/env configuration for this run.
	if runExecute {
		cfg.Driver.DryRun = false
	}
	if runWindowTitle != "" {
		cfg.Driver.WindowTitle = runWindowTitle
	}
	if len(runAllow) > 0 {
		cfg.Driver.AllowActions = runAllow
	}

	// Execution mode needs something to inject into; otherwise the trace
	// would record ok:executed for input that never happened.
	if !cfg.Driver.DryRun && runAttachWS == "" {
		return errors.New("--execute requires an injection surface: pass --attach, or drop --execute to dry-run")
	}

	items, err := harness.LoadItems(runBatchFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	traces, err := trace.NewStore(cfg.Trace.Dir, logger)
	if err != nil {
		return err
	}

	injector, manager, cleanup, err := buildInjection(ctx, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	sb, err := sandbox.New(manager, cfg.Driver.SettleDelay, logger)
	if err != nil {
		return err
	}

	d, err := driver.New(driver.Config{
		WindowTitle:  cfg.Driver.WindowTitle,
		AllowActions: cfg.Driver.AllowActions,
		DryRun:       cfg.Driver.DryRun,
		ClickDelay:   cfg.Driver.ClickDelay,
		TypeInterval: cfg.Driver.TypeInterval,
	}, sb, injector, traces, logger)
	if err != nil {
		return err
	}

	client, err := vlm.NewOllamaClient(cfg.Planner.Endpoint, cfg.Planner.Model, cfg.Planner.Timeout, logger)
	if err != nil {
		return err
	}

	runner, err := harness.New(d, client, traces, planner.NewIntentFilter(cfg.Planner.ForbiddenVerbs...), logger)
	if err != nil {
		return err
	}

	logger.Info("Starting batch",
		zap.Int("items", len(items)),
		zap.Bool("dry_run", cfg.Driver.DryRun),
		zap.String("window", cfg.Driver.WindowTitle),
		zap.Strings("allow", cfg.Driver.AllowActions))

	return runner.Run(ctx, items, harness.Options{
		ImagePath:   runImagePath,
		ClearFirst:  !runNoClear,
		HaltOnError: runHaltOnError,
	})
}

// buildInjection wires the injection and window-enumeration capabilities.
// With --attach it dispatches into the given browser target over CDP;
// otherwise everything is suppressed. The no-attach case is only reachable
// in dry-run mode; runBatch refuses --execute without a surface.
func buildInjection(ctx context.Context, logger *zap.Logger) (inject.Injector, sandbox.Manager, func(), error) {
	if runAttachWS == "" {
		return inject.NewNop(logger), sandbox.NopManager{}, func() {}, nil
	}

	allocCtx, allocCancel := chromedp.NewRemoteAllocator(ctx, runAttachWS)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	cleanup := func() {
		browserCancel()
		allocCancel()
	}

	run := func(ctx context.Context, actions ...chromedp.Action) error {
		_ = ctx // chromedp actions must run on the browser context
		return chromedp.Run(browserCtx, actions...)
	}

	injector, err := inject.NewCDP(run, logger)
	if err != nil {
		cleanup()
		return nil, nil, nil, fmt.Errorf("failed to build CDP injector: %w", err)
	}
	manager, err := inject.NewCDPWindowManager(run, logger)
	if err != nil {
		cleanup()
		return nil, nil, nil, fmt.Errorf("failed to build CDP window manager: %w", err)
	}
	return injector, manager, cleanup, nil
}
