// File: internal/inject/inject.go
package inject

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Injector is the input-injection capability. Every operation may fail with
// a platform-level fault, which the executor records as an exception after
// writing its trace.
type Injector interface {
	// MoveTo moves the pointer to absolute screen coordinates.
	MoveTo(ctx context.Context, x, y int) error
	// Click presses and releases the primary button at the current position.
	Click(ctx context.Context) error
	// TypeText injects the text one keystroke at a time, pausing interval
	// between keys.
	TypeText(ctx context.Context, text string, interval time.Duration) error
	// Hotkey presses the combo: all but the last key act as modifiers.
	Hotkey(ctx context.Context, keys ...string) error
}

// Nop is an Injector that performs no OS input at all, only logging what it
// would have done. It backs dry-run deployments and tests.
type Nop struct {
	logger *zap.Logger
}

// NewNop creates a no-op injector.
func NewNop(logger *zap.Logger) *Nop {
	return &Nop{logger: logger.Named("inject.nop")}
}

func (n *Nop) MoveTo(ctx context.Context, x, y int) error {
	n.logger.Debug("MoveTo suppressed", zap.Int("x", x), zap.Int("y", y))
	return ctx.Err()
}

func (n *Nop) Click(ctx context.Context) error {
	n.logger.Debug("Click suppressed")
	return ctx.Err()
}

func (n *Nop) TypeText(ctx context.Context, text string, interval time.Duration) error {
	n.logger.Debug("TypeText suppressed", zap.Int("chars", len(text)))
	return ctx.Err()
}

func (n *Nop) Hotkey(ctx context.Context, keys ...string) error {
	n.logger.Debug("Hotkey suppressed", zap.Strings("keys", keys))
	return ctx.Err()
}
