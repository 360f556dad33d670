// File: api/schemas/actions.go
package schemas

import (
	"fmt"
)

// ActionKind is the closed vocabulary of UI operations the planner may
// request. Anything outside this set is downgraded to noop during
// validation; the executor never sees free-text kinds.
type ActionKind string

const (
	KindClick  ActionKind = "click"
	KindType   ActionKind = "type"
	KindHotkey ActionKind = "hotkey"
	KindNoop   ActionKind = "noop"
)

// AllKinds lists every member of the closed action vocabulary, in the order
// they are documented to the planner.
func AllKinds() []ActionKind {
	return []ActionKind{KindClick, KindType, KindHotkey, KindNoop}
}

// ValidKind reports whether k is a member of the closed vocabulary.
func ValidKind(k ActionKind) bool {
	switch k {
	case KindClick, KindType, KindHotkey, KindNoop:
		return true
	}
	return false
}

// Violation tags recorded on an Action when validation or enforcement
// detects a policy or format concern. Tags never block execution by
// themselves; the executor and the metrics engine decide what they mean.
const (
	ViolationAllowlistAction   = "allowlist:action"
	ViolationClickMissing      = "format:click-missing-coords-or-target"
	ViolationDescOnly          = "desc-only"
	ViolationTypeMissingText   = "format:type-missing-text"
	ViolationHotkeyMissingKeys = "format:hotkey-missing-keys"
	ViolationUnknownFormat     = "format:unknown"
	ViolationFilenameMismatch  = "instruction-mismatch:filename"
	ViolationForbiddenIntent   = "policy:forbidden-intent-noop"
)

// Coords is an integer screen coordinate pair. It marshals as the
// two-element JSON array the planner is prompted to emit ([x, y]).
type Coords struct {
	X int
	Y int
}

// MarshalJSON renders the pair as [x, y].
func (c Coords) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("[%d,%d]", c.X, c.Y)), nil
}

// UnmarshalJSON accepts a two-element numeric array.
func (c *Coords) UnmarshalJSON(data []byte) error {
	var pair [2]int
	if err := jsonAPI.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("coords must be a two-element integer array: %w", err)
	}
	c.X, c.Y = pair[0], pair[1]
	return nil
}

// Action is a validated, executable UI operation. It is the Go rendering of
// a tagged variant over {click, type, hotkey, noop}: Kind selects the
// variant and the per-kind constructors below are the only intended way to
// populate the payload fields. After validation an Action is immutable
// except for Violations, which downstream enforcement may append to via
// AppendViolation.
type Action struct {
	Kind       ActionKind `json:"action"`
	Target     string     `json:"target,omitempty"`
	Coords     *Coords    `json:"coords,omitempty"`
	Text       string     `json:"text,omitempty"`
	Keys       []string   `json:"keys,omitempty"`
	Violations []string   `json:"violations,omitempty"`
}

// Noop returns the empty action carrying the given violation tags.
func Noop(violations ...string) Action {
	return Action{Kind: KindNoop, Violations: violations}
}

// NewClick builds a click action. Either coords or a target description must
// be present; the validator guarantees this before an Action reaches the
// executor.
func NewClick(coords *Coords, target string) Action {
	return Action{Kind: KindClick, Coords: coords, Target: target}
}

// NewType builds a text-typing action.
func NewType(text string) Action {
	return Action{Kind: KindType, Text: text}
}

// NewHotkey builds a key-combo action. Keys are expected to already be
// lower-cased by the validator.
func NewHotkey(keys []string) Action {
	return Action{Kind: KindHotkey, Keys: keys}
}

// Actionful reports whether the action would inject input if executed, i.e.
// it is anything other than noop. The jailbreak metric keys off this.
func (a Action) Actionful() bool {
	return a.Kind == KindClick || a.Kind == KindType || a.Kind == KindHotkey
}

// AppendViolation records an additional concern on the action. This is the
// single permitted mutation after validation; duplicate tags are dropped so
// repeated enforcement passes stay idempotent.
func (a *Action) AppendViolation(tag string) {
	for _, v := range a.Violations {
		if v == tag {
			return
		}
	}
	a.Violations = append(a.Violations, tag)
}

// Snapshot returns a deep copy safe to embed in a trace record after the
// caller resumes mutating (appending violations to) the original.
func (a Action) Snapshot() Action {
	cp := a
	if a.Coords != nil {
		c := *a.Coords
		cp.Coords = &c
	}
	if a.Keys != nil {
		cp.Keys = append([]string(nil), a.Keys...)
	}
	if a.Violations != nil {
		cp.Violations = append([]string(nil), a.Violations...)
	}
	return cp
}

// AsCandidate renders the action back into the untyped mapping shape the
// validator consumes. Validating this mapping yields the same action again;
// the evaluation harness relies on that round trip.
func (a Action) AsCandidate() map[string]any {
	m := map[string]any{"action": string(a.Kind)}
	if a.Target != "" {
		m["target"] = a.Target
	}
	if a.Coords != nil {
		m["coords"] = []any{a.Coords.X, a.Coords.Y}
	}
	if a.Text != "" {
		m["text"] = a.Text
	}
	if len(a.Keys) > 0 {
		keys := make([]any, len(a.Keys))
		for i, k := range a.Keys {
			keys[i] = k
		}
		m["keys"] = keys
	}
	if len(a.Violations) > 0 {
		violations := make([]any, len(a.Violations))
		for i, v := range a.Violations {
			violations[i] = v
		}
		m["violations"] = violations
	}
	return m
}
