package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/parleyhq/parley-backend/internal/config"
)

// LangfuseRecorder ships trace events to a Langfuse-compatible ingestion
// endpoint. Every emission runs in its own goroutine and any failure is
// logged and dropped.
type LangfuseRecorder struct {
	host      string
	publicKey string
	secretKey string
	client    *http.Client
	logger    *logrus.Logger
}

// NewLangfuseRecorder creates a new Langfuse recorder. Returns nil when no
// key pair is configured; callers fall back to another sink.
func NewLangfuseRecorder(cfg config.TraceConfig, logger *logrus.Logger) *LangfuseRecorder {
	if cfg.PublicKey == "" || cfg.SecretKey == "" {
		return nil
	}

	return &LangfuseRecorder{
		host:      strings.TrimSuffix(cfg.Host, "/"),
		publicKey: cfg.PublicKey,
		secretKey: cfg.SecretKey,
		client:    &http.Client{Timeout: 10 * time.Second},
		logger:    logger,
	}
}

type ingestionItem struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Body      interface{} `json:"body"`
}

type ingestionBatch struct {
	Batch []ingestionItem `json:"batch"`
}

func (r *LangfuseRecorder) Generation(_ context.Context, event Event) {
	r.ship("generation-create", map[string]interface{}{
		"traceId":  event.TraceID,
		"name":     event.Name,
		"input":    event.Input,
		"output":   event.Output,
		"metadata": event.Metadata,
	})
}

func (r *LangfuseRecorder) ToolCall(_ context.Context, event Event) {
	r.ship("span-create", map[string]interface{}{
		"traceId":  event.TraceID,
		"name":     event.Name,
		"input":    event.Input,
		"output":   event.Output,
		"metadata": event.Metadata,
	})
}

func (r *LangfuseRecorder) Error(_ context.Context, traceID, message, kind string, metadata map[string]interface{}) {
	r.ship("span-create", map[string]interface{}{
		"traceId":       traceID,
		"name":          kind,
		"level":         "ERROR",
		"statusMessage": message,
		"metadata":      metadata,
	})
}

// ship posts one ingestion batch in the background. Detached from the
// caller's context so a finished request cannot cancel the emission.
func (r *LangfuseRecorder) ship(itemType string, body map[string]interface{}) {
	go func() {
		payload, err := json.Marshal(ingestionBatch{
			Batch: []ingestionItem{{
				ID:        uuid.New().String(),
				Type:      itemType,
				Timestamp: time.Now().UTC(),
				Body:      body,
			}},
		})
		if err != nil {
			r.logger.WithError(err).Debug("langfuse payload encoding failed")
			return
		}

		req, err := http.NewRequest(http.MethodPost, r.host+"/api/public/ingestion", bytes.NewReader(payload))
		if err != nil {
			r.logger.WithError(err).Debug("langfuse request failed")
			return
		}
		req.Header.Set("Content-Type", "application/json")
		req.SetBasicAuth(r.publicKey, r.secretKey)

		resp, err := r.client.Do(req)
		if err != nil {
			r.logger.WithError(err).Debug("langfuse ingestion failed")
			return
		}
		resp.Body.Close()

		if resp.StatusCode >= 300 {
			r.logger.WithField("status", resp.StatusCode).Debug("langfuse ingestion rejected")
		}
	}()
}
