// Package webhook posts "data changed" events so dashboards can refresh.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"helix/internal/domain"
)

// Event is the JSON body posted to the webhook.
type Event struct {
	Event       string    `json:"event"`
	BatchID     string    `json:"batch_id"`
	Operator    string    `json:"operator,omitempty"`
	RoutingCode string    `json:"routing_code"`
	Succeeded   int       `json:"succeeded"`
	Failed      int       `json:"failed"`
	At          time.Time `json:"at"`
}

// Notifier implements port.ChangeNotifier. Each signal is delivered on its
// own goroutine; failures are logged and dropped.
type Notifier struct {
	url    string
	client *http.Client
	logger *zap.Logger
	wg     sync.WaitGroup
	now    func() time.Time
}

// NewNotifier creates a webhook notifier posting to url.
func NewNotifier(url string, timeout time.Duration, logger *zap.Logger) *Notifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger.Named("webhook"),
		now:    time.Now,
	}
}

// DataChanged posts the event in the background and returns immediately.
func (n *Notifier) DataChanged(ctx context.Context, batch *domain.BatchResult) {
	evt := Event{
		Event:       "data_changed",
		BatchID:     batch.ID,
		Operator:    batch.Operator,
		RoutingCode: batch.Routing.String(),
		Succeeded:   batch.Succeeded,
		Failed:      batch.Failed,
		At:          n.now().UTC(),
	}
	ctx = context.WithoutCancel(ctx)

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		if err := n.post(ctx, evt); err != nil {
			n.logger.Warn("data changed webhook failed", zap.String("batch_id", evt.BatchID), zap.Error(err))
		}
	}()
}

// Close waits for in-flight deliveries.
func (n *Notifier) Close() {
	n.wg.Wait()
}

func (n *Notifier) post(ctx context.Context, evt Event) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting event: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
