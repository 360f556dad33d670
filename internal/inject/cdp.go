// File: internal/inject/cdp.go
package inject

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// RunActionsFunc executes chromedp actions against an attached browser
// target. Injecting it (rather than a chromedp.Context) keeps this package
// mockable and agnostic of session management.
type RunActionsFunc func(ctx context.Context, actions ...chromedp.Action) error

// CDP injects input into a browser surface over the Chrome DevTools
// Protocol Input domain. It is the production injector for sandboxed
// browser-window deployments; OS-global injection stays behind the same
// Injector interface.
//
// CDP is not safe for concurrent use; the executor dispatches actions
// strictly sequentially, which is also the only safe way to inject input.
type CDP struct {
	run    RunActionsFunc
	logger *zap.Logger

	// Pointer position carried between MoveTo and Click.
	lastX float64
	lastY float64
}

// NewCDP creates a CDP-backed injector.
func NewCDP(run RunActionsFunc, logger *zap.Logger) (*CDP, error) {
	if run == nil {
		return nil, fmt.Errorf("run function cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	return &CDP{run: run, logger: logger.Named("inject.cdp")}, nil
}

func (c *CDP) MoveTo(ctx context.Context, x, y int) error {
	fx, fy := float64(x), float64(y)
	p := input.DispatchMouseEvent(input.MouseMoved, fx, fy)
	if err := c.run(ctx, p); err != nil {
		return fmt.Errorf("cdp: failed to dispatch mouse move: %w", err)
	}
	c.lastX, c.lastY = fx, fy
	return nil
}

func (c *CDP) Click(ctx context.Context) error {
	down := input.DispatchMouseEvent(input.MousePressed, c.lastX, c.lastY).
		WithButton(input.Left).
		WithClickCount(1)
	up := input.DispatchMouseEvent(input.MouseReleased, c.lastX, c.lastY).
		WithButton(input.Left).
		WithClickCount(1)
	if err := c.run(ctx, down, up); err != nil {
		return fmt.Errorf("cdp: failed to dispatch click: %w", err)
	}
	return nil
}

func (c *CDP) TypeText(ctx context.Context, text string, interval time.Duration) error {
	for _, r := range text {
		if err := c.run(ctx, chromedp.KeyEvent(string(r))); err != nil {
			return fmt.Errorf("cdp: failed to dispatch key event: %w", err)
		}
		if interval > 0 {
			if err := c.run(ctx, chromedp.Sleep(interval)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *CDP) Hotkey(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	// All but the last key are treated as modifiers.
	var modifiers input.Modifier
	for _, k := range keys[:len(keys)-1] {
		m, ok := modifierFor(k)
		if !ok {
			return fmt.Errorf("cdp: unknown modifier key %q", k)
		}
		modifiers |= m
	}

	key := cdpKeyName(keys[len(keys)-1])
	down := input.DispatchKeyEvent(input.KeyDown).
		WithModifiers(modifiers).
		WithKey(key)
	up := input.DispatchKeyEvent(input.KeyUp).
		WithModifiers(modifiers).
		WithKey(key)

	if err := c.run(ctx, down, up); err != nil {
		return fmt.Errorf("cdp: failed to dispatch hotkey sequence: %w", err)
	}
	return nil
}

func modifierFor(key string) (input.Modifier, bool) {
	switch strings.ToLower(key) {
	case "alt":
		return input.ModifierAlt, true
	case "ctrl", "control":
		return input.ModifierCtrl, true
	case "meta", "cmd", "win":
		return input.ModifierMeta, true
	case "shift":
		return input.ModifierShift, true
	}
	return 0, false
}

// cdpKeyName maps lower-cased planner key names onto CDP key values.
// Single characters pass through; named keys get their DOM spelling.
func cdpKeyName(key string) string {
	switch key {
	case "enter", "return":
		return "Enter"
	case "tab":
		return "Tab"
	case "esc", "escape":
		return "Escape"
	case "space":
		return " "
	case "backspace":
		return "Backspace"
	case "delete", "del":
		return "Delete"
	case "up":
		return "ArrowUp"
	case "down":
		return "ArrowDown"
	case "left":
		return "ArrowLeft"
	case "right":
		return "ArrowRight"
	case "home":
		return "Home"
	case "end":
		return "End"
	case "pageup":
		return "PageUp"
	case "pagedown":
		return "PageDown"
	}
	return key
}
