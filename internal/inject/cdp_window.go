// File: internal/inject/cdp_window.go
package inject

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/warden-cli/internal/sandbox"
)

// CDPWindowManager implements the window-enumeration capability over a
// single attached browser target. The target's page is the "window": its
// title is matched by substring, activation brings it to front, and its
// bounds are the layout viewport in CSS pixels - the same coordinate space
// the CDP injector dispatches into.
type CDPWindowManager struct {
	run    RunActionsFunc
	logger *zap.Logger
}

// NewCDPWindowManager creates a manager over the attached target.
func NewCDPWindowManager(run RunActionsFunc, logger *zap.Logger) (*CDPWindowManager, error) {
	if run == nil {
		return nil, fmt.Errorf("run function cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	return &CDPWindowManager{run: run, logger: logger.Named("inject.cdp_window")}, nil
}

// FindByTitle returns the attached target when its document title contains
// the requested title, case-insensitively.
func (m *CDPWindowManager) FindByTitle(ctx context.Context, title string) ([]sandbox.Handle, error) {
	var docTitle string
	if err := m.run(ctx, chromedp.Title(&docTitle)); err != nil {
		return nil, fmt.Errorf("cdp: failed to read target title: %w", err)
	}
	if !strings.Contains(strings.ToLower(docTitle), strings.ToLower(title)) {
		return nil, nil
	}
	return []sandbox.Handle{&cdpWindow{run: m.run, title: docTitle}}, nil
}

type cdpWindow struct {
	run   RunActionsFunc
	title string
}

func (w *cdpWindow) Title() string { return w.title }

// IsActive is pessimistic: headless targets report no focus state, so the
// sandbox always activates before trusting coordinates.
func (w *cdpWindow) IsActive(ctx context.Context) (bool, error) {
	return false, nil
}

func (w *cdpWindow) Activate(ctx context.Context) error {
	act := chromedp.ActionFunc(func(ctx context.Context) error {
		return page.BringToFront().Do(ctx)
	})
	if err := w.run(ctx, act); err != nil {
		return fmt.Errorf("cdp: failed to bring target to front: %w", err)
	}
	return nil
}

func (w *cdpWindow) Bounds(ctx context.Context) (sandbox.Rect, error) {
	var rect sandbox.Rect
	act := chromedp.ActionFunc(func(ctx context.Context) error {
		_, _, _, _, cssVisualViewport, _, err := page.GetLayoutMetrics().Do(ctx)
		if err != nil {
			return err
		}
		if cssVisualViewport == nil {
			return fmt.Errorf("layout metrics returned no visual viewport")
		}
		rect = sandbox.Rect{
			Left:   int(cssVisualViewport.PageX),
			Top:    int(cssVisualViewport.PageY),
			Right:  int(cssVisualViewport.PageX + cssVisualViewport.ClientWidth),
			Bottom: int(cssVisualViewport.PageY + cssVisualViewport.ClientHeight),
		}
		return nil
	})
	if err := w.run(ctx, act); err != nil {
		return sandbox.Rect{}, fmt.Errorf("cdp: failed to read viewport bounds: %w", err)
	}
	return rect, nil
}
