// File: internal/planner/extract.go
package planner

import (
	"regexp"
	"strings"

	json "github.com/json-iterator/go"
)

// jsonObjectRegex grabs the first top-level {...} blob, greedily and across
// newlines, so JSON wrapped in prose or markdown is still found.
var jsonObjectRegex = regexp.MustCompile(`(?s)\{.*\}`)

// trailingCommaRegex matches a comma immediately before a closing brace or
// bracket, the most common malformation in model-emitted JSON.
var trailingCommaRegex = regexp.MustCompile(`,\s*([}\]])`)

// repairStep is one named, independently testable repair applied to a JSON
// blob that failed to parse.
type repairStep struct {
	name  string
	apply func(string) string
}

// repairPipeline lists the forgiving repairs in application order.
var repairPipeline = []repairStep{
	{name: "strip-fences", apply: stripFences},
	{name: "strip-trailing-commas", apply: stripTrailingCommas},
}

func stripFences(blob string) string {
	return strings.ReplaceAll(blob, "```", "")
}

func stripTrailingCommas(blob string) string {
	return trailingCommaRegex.ReplaceAllString(blob, "$1")
}

// Repair runs the full repair pipeline over a blob.
func Repair(blob string) string {
	for _, step := range repairPipeline {
		blob = step.apply(blob)
	}
	return blob
}

// Extract parses raw planner text into an untyped candidate mapping. It
// never fails: any input that cannot be coaxed into a JSON object yields an
// empty map. The tolerance is required because the upstream model output is
// free text that may wrap its JSON in prose or markdown.
func Extract(raw string) map[string]any {
	text := strings.TrimSpace(raw)

	// Fast path: the entire response is one JSON object.
	if strings.HasPrefix(text, "{") && strings.HasSuffix(text, "}") {
		if m, ok := parseObject(text); ok {
			return m
		}
	}

	// Fallback: the first top-level {...} blob, raw then repaired.
	blob := jsonObjectRegex.FindString(text)
	if blob == "" {
		return map[string]any{}
	}
	if m, ok := parseObject(blob); ok {
		return m
	}
	if m, ok := parseObject(Repair(blob)); ok {
		return m
	}
	return map[string]any{}
}

func parseObject(blob string) (map[string]any, bool) {
	var m map[string]any
	if err := json.Unmarshal([]byte(blob), &m); err != nil || m == nil {
		return nil, false
	}
	return m, true
}
