// File: internal/sandbox/nop.go
package sandbox

import "context"

// NopManager is a window-enumeration capability that never finds a window.
// Focus stays fail-open through it, so deployments without an attached
// window surface run with bounds checking disabled - the same posture as an
// empty window title, but explicit in the wiring.
type NopManager struct{}

func (NopManager) FindByTitle(ctx context.Context, title string) ([]Handle, error) {
	return nil, nil
}
