// File: internal/inject/cdp_test.go
package inject

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// recordingRun captures dispatched chromedp actions without a browser.
type recordingRun struct {
	batches [][]chromedp.Action
	err     error
}

func (r *recordingRun) run(ctx context.Context, actions ...chromedp.Action) error {
	if r.err != nil {
		return r.err
	}
	r.batches = append(r.batches, actions)
	return nil
}

func newTestCDP(t *testing.T) (*CDP, *recordingRun) {
	t.Helper()
	rec := &recordingRun{}
	c, err := NewCDP(rec.run, zaptest.NewLogger(t))
	require.NoError(t, err)
	return c, rec
}

func TestNewCDP_Failure(t *testing.T) {
	_, err := NewCDP(nil, zaptest.NewLogger(t))
	assert.Error(t, err)

	_, err = NewCDP((&recordingRun{}).run, nil)
	assert.Error(t, err)
}

func TestCDP_MoveTo_ThenClick(t *testing.T) {
	c, rec := newTestCDP(t)
	ctx := context.Background()

	require.NoError(t, c.MoveTo(ctx, 120, 240))
	require.NoError(t, c.Click(ctx))

	// One move batch, then one press+release batch at the moved-to point.
	require.Len(t, rec.batches, 2)
	assert.Len(t, rec.batches[0], 1)
	require.Len(t, rec.batches[1], 2)
	assert.Equal(t, float64(120), c.lastX)
	assert.Equal(t, float64(240), c.lastY)

	move, ok := rec.batches[0][0].(*input.DispatchMouseEventParams)
	require.True(t, ok)
	assert.Equal(t, input.MouseMoved, move.Type)
	assert.Equal(t, float64(120), move.X)
	assert.Equal(t, float64(240), move.Y)

	// Both click halves must carry the primary button as a single click.
	press, ok := rec.batches[1][0].(*input.DispatchMouseEventParams)
	require.True(t, ok)
	release, ok := rec.batches[1][1].(*input.DispatchMouseEventParams)
	require.True(t, ok)
	assert.Equal(t, input.MousePressed, press.Type)
	assert.Equal(t, input.MouseReleased, release.Type)
	for _, half := range []*input.DispatchMouseEventParams{press, release} {
		assert.Equal(t, input.Left, half.Button)
		assert.EqualValues(t, 1, half.ClickCount)
		assert.Equal(t, float64(120), half.X)
		assert.Equal(t, float64(240), half.Y)
	}
}

func TestCDP_MoveTo_Fault(t *testing.T) {
	c, rec := newTestCDP(t)
	rec.err = errors.New("target detached")

	err := c.MoveTo(context.Background(), 1, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target detached")
	// The pointer position must not advance on failure.
	assert.Zero(t, c.lastX)
	assert.Zero(t, c.lastY)
}

func TestCDP_TypeText_OneEventPerRune(t *testing.T) {
	c, rec := newTestCDP(t)

	require.NoError(t, c.TypeText(context.Background(), "héllo", 0))
	assert.Len(t, rec.batches, 5)
}

func TestCDP_TypeText_IntervalAddsSleeps(t *testing.T) {
	c, rec := newTestCDP(t)

	require.NoError(t, c.TypeText(context.Background(), "ab", time.Millisecond))
	// key, sleep, key, sleep
	assert.Len(t, rec.batches, 4)
}

func TestCDP_Hotkey(t *testing.T) {
	t.Run("modifier plus key", func(t *testing.T) {
		c, rec := newTestCDP(t)
		require.NoError(t, c.Hotkey(context.Background(), "ctrl", "s"))
		require.Len(t, rec.batches, 1)
		assert.Len(t, rec.batches[0], 2) // down + up
	})

	t.Run("bare key", func(t *testing.T) {
		c, rec := newTestCDP(t)
		require.NoError(t, c.Hotkey(context.Background(), "enter"))
		require.Len(t, rec.batches, 1)
	})

	t.Run("empty combo is a no-op", func(t *testing.T) {
		c, rec := newTestCDP(t)
		require.NoError(t, c.Hotkey(context.Background()))
		assert.Empty(t, rec.batches)
	})

	t.Run("unknown modifier rejected", func(t *testing.T) {
		c, rec := newTestCDP(t)
		err := c.Hotkey(context.Background(), "hyper", "x")
		assert.ErrorContains(t, err, "unknown modifier")
		assert.Empty(t, rec.batches)
	})
}

func TestModifierFor(t *testing.T) {
	tests := []struct {
		key  string
		want input.Modifier
		ok   bool
	}{
		{"ctrl", input.ModifierCtrl, true},
		{"Control", input.ModifierCtrl, true},
		{"alt", input.ModifierAlt, true},
		{"shift", input.ModifierShift, true},
		{"cmd", input.ModifierMeta, true},
		{"win", input.ModifierMeta, true},
		{"f5", 0, false},
	}
	for _, tt := range tests {
		got, ok := modifierFor(tt.key)
		assert.Equal(t, tt.ok, ok, tt.key)
		assert.Equal(t, tt.want, got, tt.key)
	}
}

func TestCDPKeyName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"enter", "Enter"},
		{"return", "Enter"},
		{"esc", "Escape"},
		{"space", " "},
		{"pagedown", "PageDown"},
		{"s", "s"},
		{"F5", "F5"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cdpKeyName(tt.in))
	}
}

func TestNop_AllOperationsSucceed(t *testing.T) {
	n := NewNop(zaptest.NewLogger(t))
	ctx := context.Background()

	assert.NoError(t, n.MoveTo(ctx, 1, 2))
	assert.NoError(t, n.Click(ctx))
	assert.NoError(t, n.TypeText(ctx, "abc", 0))
	assert.NoError(t, n.Hotkey(ctx, "ctrl", "s"))
}

func TestNop_HonorsCancelledContext(t *testing.T) {
	n := NewNop(zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, n.Click(ctx))
}
