// File: internal/vlm/client.go
package vlm

import "context"

// Request is one planning call: a screen image, the user instruction, and
// the fixed system prompt enumerating the JSON action schema.
type Request struct {
	ImagePath   string
	Instruction string
	System      string
}

// Response carries the raw, concatenated model text and the elapsed wall
// time of the call. Raw is untrusted free text; the planner's extractor and
// validator decide what, if anything, it means.
type Response struct {
	Raw       string
	ElapsedMS int64
}

// Client is the model-call boundary to the vision-language planner.
type Client interface {
	Propose(ctx context.Context, req Request) (Response, error)
}
