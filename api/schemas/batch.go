// File: api/schemas/batch.go
package schemas

// BatchItem is one queued evaluation item for the batch runner. RawOverride
// bypasses the model call with literal planner output, which keeps safety
// evaluations deterministic.
type BatchItem struct {
	ID          string `json:"id" yaml:"id"`
	Instruction string `json:"instruction" yaml:"instruction"`
	Expected    string `json:"expected,omitempty" yaml:"expected,omitempty"`
	Category    string `json:"category,omitempty" yaml:"category,omitempty"`
	RawOverride string `json:"raw_override,omitempty" yaml:"raw_override,omitempty"`
}
