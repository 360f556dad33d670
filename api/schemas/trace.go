// File: api/schemas/trace.go
package schemas

import (
	"strings"
	"time"

	json "github.com/json-iterator/go"
)

// jsonAPI is the shared json-iterator instance for schema (un)marshaling.
var jsonAPI = json.ConfigCompatibleWithStandardLibrary

// ExecutionMode distinguishes simulated from real input injection.
type ExecutionMode string

const (
	ModeDryRun  ExecutionMode = "dry-run"
	ModeExecute ExecutionMode = "execute"
)

// Execution status taxonomy. Callers filter on the prefix before the colon:
// ok:* succeeded (possibly simulated), blocked:* was forbidden by policy or
// the window sandbox, ignored:* was well-formed but not actionable, and
// error:* is the only class that also surfaces as a returned fault.
const (
	StatusInit              = "init"
	StatusOKNoop            = "ok:noop"
	StatusOKDryRun          = "ok:dry-run"
	StatusOKExecuted        = "ok:executed"
	StatusBlockedNotAllowed = "blocked:not-allowed"
	StatusBlockedOutOfBound = "blocked:out-of-bounds"
	StatusIgnoredNoCoords   = "ignored:no-coords"
	StatusErrorException    = "error:exception"

	// StatusIgnoredUnknownPrefix is completed with the offending kind, e.g.
	// "ignored:unknown-action:drag".
	StatusIgnoredUnknownPrefix = "ignored:unknown-action:"
)

// StatusOK reports whether s is a success status.
func StatusOK(s string) bool {
	return strings.HasPrefix(s, "ok:")
}

// StatusBlockedOrIgnored reports whether s records a refusal, either by
// policy (blocked:*) or by non-actionability (ignored:*).
func StatusBlockedOrIgnored(s string) bool {
	return strings.HasPrefix(s, "blocked:") || strings.HasPrefix(s, "ignored:")
}

// Recognized context keys on a TraceRecord. The context bag is open for
// extension but these keys are the stable contract the metrics engine and
// the harness agree on.
const (
	ContextKeyInstruction = "instruction"
	ContextKeyImage       = "image"
	ContextKeyRaw         = "raw"
	ContextKeyLLMMillis   = "llm_ms"
	ContextKeyItemID      = "id"
	ContextKeyCategory    = "category"
)

// Instruction categories for safety evaluation.
const (
	CategoryBenign    = "benign"
	CategoryForbidden = "forbidden"
)

// TraceRecord is one append-only audit entry. The executor writes exactly
// one per invocation, no matter how the invocation concludes; nothing in
// the core ever mutates or deletes a written record.
type TraceRecord struct {
	Timestamp     time.Time      `json:"ts"`
	Mode          ExecutionMode  `json:"mode"`
	WindowTitle   string         `json:"window,omitempty"`
	FocusedWindow *string        `json:"focused_window"`
	Action        Action         `json:"action"`
	Violations    []string       `json:"violations,omitempty"`
	Status        string         `json:"status"`
	Error         *string        `json:"error,omitempty"`
	Context       map[string]any `json:"context"`
	DurationMS    *int64         `json:"duration_ms,omitempty"`
}

// Instruction returns the originating instruction text carried in the
// context bag, or "" when absent.
func (r TraceRecord) Instruction() string {
	if s, ok := r.Context[ContextKeyInstruction].(string); ok {
		return s
	}
	return ""
}

// Category returns the explicit category tag from the context bag, or ""
// when the record is untagged and the category must be derived.
func (r TraceRecord) Category() string {
	if s, ok := r.Context[ContextKeyCategory].(string); ok {
		return s
	}
	return ""
}

// LatencyMS returns the latency sample for this record: the executor's
// duration when present, otherwise the model-call latency from the context
// bag. The second return is false when the record carries neither.
func (r TraceRecord) LatencyMS() (float64, bool) {
	if r.DurationMS != nil {
		return float64(*r.DurationMS), true
	}
	switch v := r.Context[ContextKeyLLMMillis].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// MarshalRecord encodes a record as a single JSONL line, newline excluded.
func MarshalRecord(r TraceRecord) ([]byte, error) {
	return jsonAPI.Marshal(r)
}

// UnmarshalRecord decodes one JSONL line.
func UnmarshalRecord(line []byte) (TraceRecord, error) {
	var r TraceRecord
	err := jsonAPI.Unmarshal(line, &r)
	return r, err
}
