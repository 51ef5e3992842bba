package trace

import (
	"context"
)

// Event is one observability record emitted by the turn pipeline. Events
// are write-only: nothing in the pipeline ever reads one back.
type Event struct {
	TraceID  string                 `json:"trace_id"`
	Name     string                 `json:"name"`
	Input    map[string]interface{} `json:"input,omitempty"`
	Output   map[string]interface{} `json:"output,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Recorder is a fire-and-forget observability sink. Implementations swallow
// their own failures; emitting an event must never affect the caller.
type Recorder interface {
	Generation(ctx context.Context, event Event)
	ToolCall(ctx context.Context, event Event)
	Error(ctx context.Context, traceID, message, kind string, metadata map[string]interface{})
}

// Noop is a Recorder that discards everything.
type Noop struct{}

func (Noop) Generation(context.Context, Event) {}

func (Noop) ToolCall(context.Context, Event) {}

func (Noop) Error(context.Context, string, string, string, map[string]interface{}) {}
