package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/EbenEzer-MOMBO/streaming-payment-gateway/internal/domain/ports/adapter"
	"github.com/EbenEzer-MOMBO/streaming-payment-gateway/internal/infra/metrics"
	"github.com/EbenEzer-MOMBO/streaming-payment-gateway/internal/infra/worker"
)

var _ adapter.NotificationSink = (*Notifier)(nil)

// Notifier delivers payment notifications to the downstream collector.
// Delivery is fire-and-forget through the worker pool: the checkout path gets
// its answer before any bytes hit the wire, and delivery failures are logged,
// never surfaced and never retried.
type Notifier struct {
	url    string
	client *http.Client
	pool   *worker.Pool
	log    *zerolog.Logger
}

func NewNotifier(url string, pool *worker.Pool, logger *zerolog.Logger) *Notifier {
	return &Notifier{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		pool:   pool,
		log:    logger,
	}
}

// Notify enqueues one delivery. The returned error only reports a full queue;
// callers treat it as advisory.
func (n *Notifier) Notify(ctx context.Context, payload *adapter.PaymentNotification) error {
	if n.url == "" {
		return nil
	}
	body, err := json.Marshal(payload)
	if err != nil {
		metrics.IncWebhookDelivery("dropped")
		return fmt.Errorf("marshal notification: %w", err)
	}

	eventID := payload.EventID
	if err := n.pool.Submit(func(taskCtx context.Context) error {
		n.deliver(taskCtx, eventID, body)
		return nil
	}); err != nil {
		metrics.IncWebhookDelivery("dropped")
		return fmt.Errorf("enqueue notification: %w", err)
	}
	return nil
}

func (n *Notifier) deliver(ctx context.Context, eventID string, body []byte) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		metrics.IncWebhookDelivery("failed")
		n.log.Warn().Err(err).Str("event_id", eventID).Msg("webhook request build failed")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		metrics.IncWebhookDelivery("failed")
		n.log.Warn().Err(err).Str("event_id", eventID).Msg("webhook delivery failed")
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.IncWebhookDelivery("failed")
		n.log.Warn().Int("status", resp.StatusCode).Str("event_id", eventID).Msg("webhook delivery rejected")
		return
	}
	metrics.IncWebhookDelivery("sent")
	n.log.Debug().Str("event_id", eventID).Msg("webhook delivered")
}
