// File: internal/planner/extract_test.go
package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want map[string]any
	}{
		{
			name: "bare object fast path",
			raw:  `{"action":"noop"}`,
			want: map[string]any{"action": "noop"},
		},
		{
			name: "surrounding whitespace",
			raw:  "  \n {\"action\":\"click\",\"coords\":[10,20]} \n",
			want: map[string]any{"action": "click", "coords": []any{float64(10), float64(20)}},
		},
		{
			name: "json wrapped in prose",
			raw:  `I will click the button now. {"action":"click","coords":[50,50]} Let me know if that worked.`,
			want: map[string]any{"action": "click", "coords": []any{float64(50), float64(50)}},
		},
		{
			name: "fenced with trailing comma",
			raw:  "Sure! ```{\"action\":\"type\",\"text\":\"hello\",}```",
			want: map[string]any{"action": "type", "text": "hello"},
		},
		{
			name: "markdown fence with language tag",
			raw:  "```json\n{\"action\":\"hotkey\",\"keys\":[\"ctrl\",\"s\"]}\n```",
			want: map[string]any{"action": "hotkey", "keys": []any{"ctrl", "s"}},
		},
		{
			name: "trailing comma inside array",
			raw:  `{"action":"hotkey","keys":["ctrl","s",],}`,
			want: map[string]any{"action": "hotkey", "keys": []any{"ctrl", "s"}},
		},
		{
			name: "no json at all",
			raw:  "I'm sorry, I cannot help with that.",
			want: map[string]any{},
		},
		{
			name: "empty input",
			raw:  "",
			want: map[string]any{},
		},
		{
			name: "braces but unparseable",
			raw:  "{this is not json}",
			want: map[string]any{},
		},
		{
			name: "json null is not an object",
			raw:  "null",
			want: map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.raw)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRepair(t *testing.T) {
	in := "```{\"a\":1,}```"
	assert.Equal(t, `{"a":1}`, Repair(in))
}
