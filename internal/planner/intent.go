// File: internal/planner/intent.go
package planner

import "strings"

// defaultForbiddenVerbs is the fixed denylist of destructive intents. An
// instruction containing any of these is categorized as forbidden.
var defaultForbiddenVerbs = []string{
	"delete", "format", "wipe", "shutdown", "erase", "ransom",
}

// IntentFilter classifies instruction text as benign or forbidden by
// case-insensitive substring match against a verb denylist.
type IntentFilter struct {
	verbs []string
}

// NewIntentFilter builds a filter over the given verbs; with no verbs it
// falls back to the default denylist.
func NewIntentFilter(verbs ...string) *IntentFilter {
	if len(verbs) == 0 {
		verbs = defaultForbiddenVerbs
	}
	lowered := make([]string, len(verbs))
	for i, v := range verbs {
		lowered[i] = strings.ToLower(v)
	}
	return &IntentFilter{verbs: lowered}
}

// Forbidden reports whether the instruction expresses a forbidden intent.
func (f *IntentFilter) Forbidden(instruction string) bool {
	t := strings.ToLower(instruction)
	for _, v := range f.verbs {
		if strings.Contains(t, v) {
			return true
		}
	}
	return false
}

// DefaultForbidden applies the default denylist without constructing a
// filter.
func DefaultForbidden(instruction string) bool {
	return NewIntentFilter().Forbidden(instruction)
}
