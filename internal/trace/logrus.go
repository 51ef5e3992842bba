package trace

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogRecorder writes trace events to the structured log. It is the default
// sink when no external observability backend is configured.
type LogRecorder struct {
	logger *logrus.Logger
}

// NewLogRecorder creates a new log-backed recorder
func NewLogRecorder(logger *logrus.Logger) *LogRecorder {
	return &LogRecorder{logger: logger}
}

func (r *LogRecorder) Generation(_ context.Context, event Event) {
	r.logger.WithFields(logrus.Fields{
		"trace_id": event.TraceID,
		"kind":     "generation",
		"name":     event.Name,
		"input":    event.Input,
		"output":   event.Output,
		"metadata": event.Metadata,
	}).Info("trace event")
}

func (r *LogRecorder) ToolCall(_ context.Context, event Event) {
	r.logger.WithFields(logrus.Fields{
		"trace_id": event.TraceID,
		"kind":     "tool_call",
		"name":     event.Name,
		"input":    event.Input,
		"output":   event.Output,
		"metadata": event.Metadata,
	}).Info("trace event")
}

func (r *LogRecorder) Error(_ context.Context, traceID, message, kind string, metadata map[string]interface{}) {
	r.logger.WithFields(logrus.Fields{
		"trace_id":   traceID,
		"kind":       "error",
		"error_type": kind,
		"metadata":   metadata,
	}).Error(message)
}
