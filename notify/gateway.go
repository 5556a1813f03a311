package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mealpedeal-api/logger"

	"go.uber.org/zap"
)

// FailureSink stores messages that could not be delivered for later replay
type FailureSink interface {
	Record(ctx context.Context, msg Message, cause error, attempts int) error
}

// GatewayNotifier posts messages to the messenger gateway's /messages endpoint
type GatewayNotifier struct {
	Endpoint string
	Client   *http.Client
	Attempts int
	Delay    time.Duration
	Failures FailureSink
}

func NewGatewayNotifier(endpoint string, timeout time.Duration, failures FailureSink) *GatewayNotifier {
	return &GatewayNotifier{
		Endpoint: endpoint,
		Client:   &http.Client{Timeout: timeout},
		Attempts: 3,
		Delay:    200 * time.Millisecond,
		Failures: failures,
	}
}

func (g *GatewayNotifier) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.Recipient) == "" {
		return errors.New("recipient is required")
	}
	attempts := g.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
retry:
	for i := 0; i < attempts; i++ {
		if lastErr = g.post(ctx, msg); lastErr == nil {
			return nil
		}
		if i < attempts-1 && g.Delay > 0 {
			select {
			case <-ctx.Done():
				lastErr = ctx.Err()
				break retry
			case <-time.After(g.Delay):
			}
		}
	}
	if g.Failures != nil {
		if err := g.Failures.Record(context.WithoutCancel(ctx), msg, lastErr, attempts); err != nil {
			logger.Error("failed to persist undelivered notification", zap.Error(err))
		}
	}
	return lastErr
}

func (g *GatewayNotifier) post(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	endpoint := strings.TrimRight(g.Endpoint, "/") + "/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := g.Client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		detail, _ := io.ReadAll(io.LimitReader(res.Body, 1<<16))
		return fmt.Errorf("gateway error: status=%d body=%s", res.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}
