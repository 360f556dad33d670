// File: internal/planner/validate.go
package planner

import (
	"strconv"
	"strings"

	"github.com/xkilldash9x/warden-cli/api/schemas"
)

// Validate converts an untyped candidate mapping into a well-formed Action.
// It is a total function: it never fails, defaulting to noop with a
// violation tag on any irregularity. Validating the candidate form of an
// already-validated Action yields the same Action back.
func Validate(candidate map[string]any) schemas.Action {
	prior := asStringSlice(candidate["violations"])

	kind := schemas.ActionKind(strings.ToLower(asString(candidate["action"])))
	if !schemas.ValidKind(kind) {
		return withViolations(schemas.Noop(), prior, schemas.ViolationAllowlistAction)
	}

	switch kind {
	case schemas.KindClick:
		coords := asCoords(candidate["coords"])
		target := asString(candidate["target"])
		if coords == nil && target == "" {
			return withViolations(schemas.Noop(), prior, schemas.ViolationClickMissing)
		}
		a := schemas.NewClick(coords, target)
		if coords == nil {
			// Valid but geometry-less; the executor must not inject for it.
			return withViolations(a, prior, schemas.ViolationDescOnly)
		}
		return withViolations(a, prior)

	case schemas.KindType:
		text, ok := candidate["text"].(string)
		if !ok || text == "" {
			return withViolations(schemas.Noop(), prior, schemas.ViolationTypeMissingText)
		}
		return withViolations(schemas.NewType(text), prior)

	case schemas.KindHotkey:
		keys := asStringSlice(candidate["keys"])
		if len(keys) == 0 {
			return withViolations(schemas.Noop(), prior, schemas.ViolationHotkeyMissingKeys)
		}
		for i, k := range keys {
			keys[i] = strings.ToLower(k)
		}
		return withViolations(schemas.NewHotkey(keys), prior)

	case schemas.KindNoop:
		return withViolations(schemas.Noop(), prior)
	}

	return withViolations(schemas.Noop(), prior, schemas.ViolationUnknownFormat)
}

// ExtractAction is the main entry: raw planner text in, safe Action out.
// When expected is non-empty it also runs the filename-truthfulness check.
func ExtractAction(raw string, expected string) schemas.Action {
	a := Validate(Extract(raw))
	EnforceExpectedFilename(&a, expected)
	return a
}

// EnforceExpectedFilename appends a truthfulness violation when a type
// action's text differs from the externally supplied literal. It never
// alters the action's kind or text; the tag is a signal, not a block.
func EnforceExpectedFilename(a *schemas.Action, expected string) {
	if expected == "" || a.Kind != schemas.KindType {
		return
	}
	if a.Text != expected {
		a.AppendViolation(schemas.ViolationFilenameMismatch)
	}
}

// withViolations rebuilds the action's violation list as prior tags followed
// by newly detected ones, without duplicates.
func withViolations(a schemas.Action, prior []string, tags ...string) schemas.Action {
	for _, v := range prior {
		a.AppendViolation(v)
	}
	for _, t := range tags {
		a.AppendViolation(t)
	}
	return a
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// asStringSlice accepts []string or []any of strings; anything else is nil.
func asStringSlice(v any) []string {
	switch vv := v.(type) {
	case []string:
		return append([]string(nil), vv...)
	case []any:
		out := make([]string, 0, len(vv))
		for _, e := range vv {
			s, ok := e.(string)
			if !ok {
				return nil
			}
			out = append(out, s)
		}
		if len(out) == 0 {
			return nil
		}
		return out
	}
	return nil
}

// asCoords parses a two-element sequence of values coercible to int.
// Anything else is treated as absent coordinates.
func asCoords(v any) *schemas.Coords {
	seq, ok := v.([]any)
	if !ok || len(seq) != 2 {
		return nil
	}
	x, okX := asInt(seq[0])
	y, okY := asInt(seq[1])
	if !okX || !okY {
		return nil
	}
	return &schemas.Coords{X: x, Y: y}
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return i, true
	}
	return 0, false
}
