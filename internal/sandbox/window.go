// File: internal/sandbox/window.go
package sandbox

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Rect is a window rectangle in screen coordinates, edges inclusive.
type Rect struct {
	Left   int
	Top    int
	Right  int
	Bottom int
}

// Contains reports whether (x, y) falls within the rectangle, inclusive on
// every edge.
func (r Rect) Contains(x, y int) bool {
	return r.Left <= x && x <= r.Right && r.Top <= y && y <= r.Bottom
}

// Handle is one enumerated window. Implementations wrap whatever the
// platform's window-enumeration capability exposes.
type Handle interface {
	Title() string
	IsActive(ctx context.Context) (bool, error)
	Activate(ctx context.Context) error
	Bounds(ctx context.Context) (Rect, error)
}

// Manager is the window-enumeration capability.
type Manager interface {
	FindByTitle(ctx context.Context, title string) ([]Handle, error)
}

// Sandbox resolves the configured target window and bounds-checks
// coordinates against it. Focus is fail-open: when the window cannot be
// found no handle is returned, and a nil handle disables bounds checking
// entirely. That tradeoff is deliberate - a missing window must not brick
// an evaluation run, and the nullness is visible in every trace record.
type Sandbox struct {
	manager Manager
	settle  time.Duration
	logger  *zap.Logger

	// sleep is swappable so tests don't wait out the settle interval.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Sandbox. settle is the pause after activating a non-active
// window, giving the window manager time before any coordinate is trusted.
func New(manager Manager, settle time.Duration, logger *zap.Logger) (*Sandbox, error) {
	if manager == nil {
		return nil, errors.New("window manager cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &Sandbox{
		manager: manager,
		settle:  settle,
		logger:  logger.Named("sandbox"),
		sleep:   sleepCtx,
	}, nil
}

// Focus resolves the target window. An empty title means no restriction and
// returns a nil handle. A platform fault during enumeration or activation
// is returned to the caller; a mere miss is logged and absorbed.
func (s *Sandbox) Focus(ctx context.Context, title string) (Handle, error) {
	if title == "" {
		return nil, nil
	}

	wins, err := s.manager.FindByTitle(ctx, title)
	if err != nil {
		return nil, err
	}
	if len(wins) == 0 {
		s.logger.Warn("Window not found; bounds checking disabled for this action.",
			zap.String("title", title))
		return nil, nil
	}

	w := wins[0]
	active, err := w.IsActive(ctx)
	if err != nil {
		return nil, err
	}
	if !active {
		if err := w.Activate(ctx); err != nil {
			return nil, err
		}
		if err := s.sleep(ctx, s.settle); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// InBounds reports whether coordinates fall within the handle's rectangle.
// A nil handle means no restriction applies and everything is in bounds.
func InBounds(ctx context.Context, h Handle, x, y int) (bool, error) {
	if h == nil {
		return true, nil
	}
	r, err := h.Bounds(ctx)
	if err != nil {
		return false, err
	}
	return r.Contains(x, y), nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
