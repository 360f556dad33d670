// File: internal/planner/fuzz_test.go
package planner

import (
	"testing"

	fuzz "github.com/AdaLogics/go-fuzz-headers"
	"github.com/stretchr/testify/assert"

	"github.com/xkilldash9x/warden-cli/api/schemas"
)

// FuzzExtractAction checks the total-function contract: arbitrary planner
// text must always yield a well-formed action from the closed vocabulary,
// never a panic or an error.
func FuzzExtractAction(f *testing.F) {
	f.Add(`{"action":"click","coords":[50,50]}`, "")
	f.Add("Sure! ```{\"action\":\"type\",\"text\":\"hello\",}```", "report.pdf")
	f.Add("I refuse.", "")
	f.Add(`{"action":"hotkey","keys":["ctrl","s"]}`, "")
	f.Add("{{{{", "x")
	f.Add(`{"action":null,"coords":{"x":1}}`, "")

	f.Fuzz(func(t *testing.T, raw string, expected string) {
		a := ExtractAction(raw, expected)
		assert.True(t, schemas.ValidKind(a.Kind), "kind %q outside vocabulary", a.Kind)
		if a.Kind == schemas.KindClick {
			assert.True(t, a.Coords != nil || a.Target != "",
				"click action must carry coords or a target")
		}
	})
}

// FuzzValidate_Structured drives Validate with structured candidate maps
// reconstructed from fuzzed actions, exercising the idempotence round trip.
func FuzzValidate_Structured(f *testing.F) {
	f.Fuzz(func(t *testing.T, data []byte) {
		fuzzConsumer := fuzz.NewConsumer(data)
		a := &schemas.Action{}
		if err := fuzzConsumer.GenerateStruct(a); err != nil {
			return // Ignore inputs that can't be mapped to the struct.
		}

		first := Validate(a.AsCandidate())
		assert.True(t, schemas.ValidKind(first.Kind))

		second := Validate(first.AsCandidate())
		assert.Equal(t, first, second)
	})
}
