// File: internal/driver/driver.go
package driver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/warden-cli/api/schemas"
	"github.com/xkilldash9x/warden-cli/internal/inject"
	"github.com/xkilldash9x/warden-cli/internal/sandbox"
	"github.com/xkilldash9x/warden-cli/internal/trace"
)

// Config holds the executor's constructor-time policy knobs.
type Config struct {
	// WindowTitle restricts execution to the named window; empty means no
	// restriction and no bounds checking.
	WindowTitle string
	// AllowActions is the runtime allow-list, a deny-by-default subset of
	// the action vocabulary. It is independent of the validator's
	// allow-list so evaluation profiles can permit only some kinds.
	AllowActions []string
	// DryRun suppresses all OS input injection. True is the default
	// posture everywhere in this codebase.
	DryRun bool
	// ClickDelay is the pause after a real click before returning.
	ClickDelay time.Duration
	// TypeInterval is the inter-keystroke pause for real typing.
	TypeInterval time.Duration
}

// Driver executes validated actions under policy. Its one hard guarantee:
// exactly one trace record is appended per Run invocation, no matter how
// the invocation concludes - normal return, injection fault, or panic. No
// action may occur, or fail to occur, without a durable record.
type Driver struct {
	cfg      Config
	allow    map[schemas.ActionKind]struct{}
	sandbox  *sandbox.Sandbox
	injector inject.Injector
	traces   *trace.Store
	logger   *zap.Logger

	// now and sleep are swappable for deterministic tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Driver. All dependencies are required.
func New(cfg Config, sb *sandbox.Sandbox, injector inject.Injector, traces *trace.Store, logger *zap.Logger) (*Driver, error) {
	if sb == nil {
		return nil, errors.New("sandbox cannot be nil")
	}
	if injector == nil {
		return nil, errors.New("injector cannot be nil")
	}
	if traces == nil {
		return nil, errors.New("trace store cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	allow := make(map[schemas.ActionKind]struct{}, len(cfg.AllowActions))
	for _, a := range cfg.AllowActions {
		allow[schemas.ActionKind(strings.ToLower(a))] = struct{}{}
	}

	return &Driver{
		cfg:      cfg,
		allow:    allow,
		sandbox:  sb,
		injector: injector,
		traces:   traces,
		logger:   logger.Named("driver"),
		now:      time.Now,
		sleep:    sleepCtx,
	}, nil
}

// Mode returns the execution mode the driver traces under.
func (d *Driver) Mode() schemas.ExecutionMode {
	if d.cfg.DryRun {
		return schemas.ModeDryRun
	}
	return schemas.ModeExecute
}

// Run executes one action under policy. Malformed or policy-refused actions
// are absorbed into blocked:*/ignored:* statuses and return nil; only
// genuine execution-layer faults return an error, and only after the trace
// record has been written. A panic out of the injection capability is
// traced as error:exception and then re-panicked.
func (d *Driver) Run(ctx context.Context, a schemas.Action, ectx map[string]any) (err error) {
	status := schemas.StatusInit
	var handle sandbox.Handle
	start := d.now()

	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("panic: %v", r)
			d.writeTrace(a, schemas.StatusErrorException, &msg, handle, ectx, start)
			panic(r)
		}
		var errText *string
		if err != nil {
			status = schemas.StatusErrorException
			msg := err.Error()
			errText = &msg
		}
		d.writeTrace(a, status, errText, handle, ectx, start)
	}()

	if _, ok := d.allow[a.Kind]; !ok {
		// Deny-by-default: terminal before any window focus is attempted.
		status = schemas.StatusBlockedNotAllowed
		d.logger.Warn("Action blocked by allow-list", zap.String("kind", string(a.Kind)))
		return nil
	}

	handle, err = d.sandbox.Focus(ctx, d.cfg.WindowTitle)
	if err != nil {
		return fmt.Errorf("window focus failed: %w", err)
	}

	switch a.Kind {
	case schemas.KindNoop:
		status = schemas.StatusOKNoop
		d.logger.Info("NOOP")
		return nil

	case schemas.KindClick:
		if a.Coords == nil {
			// Description-only click: advisory, never injectable.
			status = schemas.StatusIgnoredNoCoords
			d.logger.Info("Click ignored: no coords provided", zap.String("target", a.Target))
			return nil
		}
		inBounds, boundsErr := sandbox.InBounds(ctx, handle, a.Coords.X, a.Coords.Y)
		if boundsErr != nil {
			return fmt.Errorf("bounds check failed: %w", boundsErr)
		}
		if !inBounds {
			status = schemas.StatusBlockedOutOfBound
			d.logger.Warn("Click blocked: outside window bounds",
				zap.Int("x", a.Coords.X), zap.Int("y", a.Coords.Y))
			return nil
		}
		d.logger.Info("Click", zap.Int("x", a.Coords.X), zap.Int("y", a.Coords.Y),
			zap.Bool("dry_run", d.cfg.DryRun))
		if !d.cfg.DryRun {
			if err = d.injector.MoveTo(ctx, a.Coords.X, a.Coords.Y); err != nil {
				return fmt.Errorf("pointer move failed: %w", err)
			}
			if err = d.injector.Click(ctx); err != nil {
				return fmt.Errorf("click failed: %w", err)
			}
			if err = d.sleep(ctx, d.cfg.ClickDelay); err != nil {
				return err
			}
		}
		status = d.okStatus()
		return nil

	case schemas.KindType:
		d.logger.Info("Type", zap.Int("chars", len(a.Text)), zap.Bool("dry_run", d.cfg.DryRun))
		if !d.cfg.DryRun {
			if err = d.injector.TypeText(ctx, a.Text, d.cfg.TypeInterval); err != nil {
				return fmt.Errorf("typing failed: %w", err)
			}
		}
		status = d.okStatus()
		return nil

	case schemas.KindHotkey:
		d.logger.Info("Hotkey", zap.Strings("keys", a.Keys), zap.Bool("dry_run", d.cfg.DryRun))
		if !d.cfg.DryRun {
			if err = d.injector.Hotkey(ctx, a.Keys...); err != nil {
				return fmt.Errorf("hotkey failed: %w", err)
			}
		}
		status = d.okStatus()
		return nil
	}

	// Unreachable via the validator's closed vocabulary, but the allow-list
	// is configurable and this must stay terminal rather than fall through.
	status = schemas.StatusIgnoredUnknownPrefix + string(a.Kind)
	d.logger.Warn("Unknown action kind ignored", zap.String("kind", string(a.Kind)))
	return nil
}

func (d *Driver) okStatus() string {
	if d.cfg.DryRun {
		return schemas.StatusOKDryRun
	}
	return schemas.StatusOKExecuted
}

// writeTrace appends the single audit record for one Run invocation. A
// failed append is logged loudly but cannot fail the invocation - by this
// point the outcome already happened.
func (d *Driver) writeTrace(a schemas.Action, status string, errText *string, handle sandbox.Handle, ectx map[string]any, start time.Time) {
	var focused *string
	if handle != nil {
		title := handle.Title()
		focused = &title
	}
	if ectx == nil {
		ectx = map[string]any{}
	}
	duration := d.now().Sub(start).Milliseconds()

	rec := schemas.TraceRecord{
		Timestamp:     start,
		Mode:          d.Mode(),
		WindowTitle:   d.cfg.WindowTitle,
		FocusedWindow: focused,
		Action:        a.Snapshot(),
		Violations:    append([]string(nil), a.Violations...),
		Status:        status,
		Error:         errText,
		Context:       ectx,
		DurationMS:    &duration,
	}
	if err := d.traces.Append(rec); err != nil {
		d.logger.Error("FAILED TO WRITE TRACE RECORD", zap.Error(err), zap.String("status", status))
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
