// File: internal/harness/runner.go
package harness

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/warden-cli/api/schemas"
	"github.com/xkilldash9x/warden-cli/internal/driver"
	"github.com/xkilldash9x/warden-cli/internal/planner"
	"github.com/xkilldash9x/warden-cli/internal/trace"
	"github.com/xkilldash9x/warden-cli/internal/vlm"
)

// Options tunes one batch run.
type Options struct {
	// ImagePath is the screen image handed to the planner for every item.
	ImagePath string
	// ClearFirst truncates the trace log before the batch so metrics are
	// computed over exactly this run.
	ClearFirst bool
	// HaltOnError stops the batch at the first execution-layer fault.
	// Policy refusals never halt; they are expected outcomes.
	HaltOnError bool
}

// Runner processes evaluation items one at a time: model call (or
// override), extraction, validation, the forbidden-intent gate, then
// policy-checked execution. Items are never dispatched concurrently -
// concurrent OS input injection races on cursor and focus, and policy
// decisions must stay strictly ordered with their trace writes.
type Runner struct {
	driver *driver.Driver
	client vlm.Client
	traces *trace.Store
	filter *planner.IntentFilter
	logger *zap.Logger
}

// New creates a Runner. client may only be nil when every item carries a
// raw override; a nil client on a model-bound item fails that item.
func New(d *driver.Driver, client vlm.Client, traces *trace.Store, filter *planner.IntentFilter, logger *zap.Logger) (*Runner, error) {
	if d == nil {
		return nil, errors.New("driver cannot be nil")
	}
	if traces == nil {
		return nil, errors.New("trace store cannot be nil")
	}
	if filter == nil {
		return nil, errors.New("intent filter cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &Runner{
		driver: d,
		client: client,
		traces: traces,
		filter: filter,
		logger: logger.Named("harness"),
	}, nil
}

// Run processes the batch sequentially. A fault during one item aborts only
// that item unless HaltOnError is set.
func (r *Runner) Run(ctx context.Context, items []schemas.BatchItem, opts Options) error {
	if opts.ClearFirst {
		if err := r.traces.Clear(); err != nil {
			return fmt.Errorf("failed to clear trace log: %w", err)
		}
	}

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.runItem(ctx, item, opts); err != nil {
			if opts.HaltOnError {
				return fmt.Errorf("batch halted on item %q: %w", item.ID, err)
			}
			r.logger.Error("Item failed; continuing batch",
				zap.String("id", item.ID), zap.Error(err))
		}
	}
	return nil
}

func (r *Runner) runItem(ctx context.Context, item schemas.BatchItem, opts Options) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	log := r.logger.With(zap.String("id", item.ID))

	raw, llmMS, err := r.rawFor(ctx, item, opts)
	if err != nil {
		return err
	}

	action := planner.ExtractAction(raw, item.Expected)

	// Deny-by-default for forbidden intents: the model's plan is demoted to
	// noop before it ever reaches the executor, and the demotion is tagged
	// so metrics can see the model complied with a forbidden instruction.
	if r.filter.Forbidden(item.Instruction) && action.Kind != schemas.KindNoop {
		log.Warn("Forbidden intent detected; demoting action to noop",
			zap.String("kind", string(action.Kind)))
		demoted := schemas.Noop(action.Violations...)
		demoted.AppendViolation(schemas.ViolationForbiddenIntent)
		action = demoted
	}

	ectx := map[string]any{
		schemas.ContextKeyItemID:      item.ID,
		schemas.ContextKeyInstruction: item.Instruction,
		schemas.ContextKeyImage:       opts.ImagePath,
		schemas.ContextKeyRaw:         raw,
		schemas.ContextKeyLLMMillis:   llmMS,
	}
	if item.Category != "" {
		ectx[schemas.ContextKeyCategory] = item.Category
	}

	return r.driver.Run(ctx, action, ectx)
}

// rawFor returns the planner's raw text for an item: the override verbatim
// (with zero model latency), or one model call.
func (r *Runner) rawFor(ctx context.Context, item schemas.BatchItem, opts Options) (string, int64, error) {
	if item.RawOverride != "" {
		return item.RawOverride, 0, nil
	}
	if r.client == nil {
		return "", 0, fmt.Errorf("item %q requires a model call but no client is configured", item.ID)
	}

	resp, err := r.client.Propose(ctx, vlm.Request{
		ImagePath:   opts.ImagePath,
		Instruction: item.Instruction,
		System:      planner.SystemPrompt(),
	})
	if err != nil {
		return "", 0, fmt.Errorf("model call failed: %w", err)
	}
	return resp.Raw, resp.ElapsedMS, nil
}
