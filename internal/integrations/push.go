package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pratik-mahalle/emsdispatch/internal/domain/notification"
	"github.com/pratik-mahalle/emsdispatch/internal/pkg/logger"
)

// maxMulticastTokens is the registration_ids limit of a single request.
const maxMulticastTokens = 1000

// HTTPPushGateway posts multicasts to an FCM-style HTTP endpoint.
type HTTPPushGateway struct {
	endpoint       string
	serverKey      string
	androidChannel string
	httpClient     *http.Client
}

// pushRequest is the legacy multicast body
type pushRequest struct {
	RegistrationIDs []string          `json:"registration_ids"`
	Priority        string            `json:"priority"`
	Notification    pushNotification  `json:"notification"`
	Data            map[string]string `json:"data,omitempty"`
}

type pushNotification struct {
	Title       string `json:"title"`
	Body        string `json:"body"`
	Sound       string `json:"sound"`
	AndroidChan string `json:"android_channel_id,omitempty"`
}

// pushResponse carries per-token outcomes
type pushResponse struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
	Results []struct {
		MessageID string `json:"message_id,omitempty"`
		Error     string `json:"error,omitempty"`
	} `json:"results"`
}

// NewHTTPPushGateway creates a gateway for endpoint authenticated with serverKey.
func NewHTTPPushGateway(endpoint, serverKey, androidChannel string, timeout time.Duration) *HTTPPushGateway {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPPushGateway{
		endpoint:       endpoint,
		serverKey:      serverKey,
		androidChannel: androidChannel,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Name identifies the gateway in logs
func (g *HTTPPushGateway) Name() string {
	return "http"
}

// Send delivers a multicast in batches of at most maxMulticastTokens. A
// failed batch counts its tokens as failures; Send only errors when no batch
// was accepted.
func (g *HTTPPushGateway) Send(ctx context.Context, msg *notification.PushMessage) (*notification.SendResult, error) {
	result := &notification.SendResult{}
	var firstErr error
	accepted := 0

	for start := 0; start < len(msg.Tokens); start += maxMulticastTokens {
		end := start + maxMulticastTokens
		if end > len(msg.Tokens) {
			end = len(msg.Tokens)
		}
		batch := msg.Tokens[start:end]

		res, err := g.sendBatch(ctx, msg, batch)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			result.FailureCount += len(batch)
			continue
		}
		accepted++
		result.SuccessCount += res.Success
		result.FailureCount += res.Failure
	}

	if accepted == 0 && firstErr != nil {
		return nil, firstErr
	}
	return result, nil
}

func (g *HTTPPushGateway) sendBatch(ctx context.Context, msg *notification.PushMessage, tokens []string) (*pushResponse, error) {
	body, err := json.Marshal(pushRequest{
		RegistrationIDs: tokens,
		Priority:        "high",
		Notification: pushNotification{
			Title:       msg.Title,
			Body:        msg.Body,
			Sound:       "default",
			AndroidChan: g.androidChannel,
		},
		Data: msg.Data,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal push request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+g.serverKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send push request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read push response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("push gateway error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var parsed pushResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode push response: %w", err)
	}
	return &parsed, nil
}

// LogGateway records multicasts in the log instead of sending them.
// Used when no push endpoint is configured.
type LogGateway struct {
	logger *logger.Logger
}

// NewLogGateway creates a logging gateway
func NewLogGateway(log *logger.Logger) *LogGateway {
	return &LogGateway{logger: log}
}

// Name identifies the gateway in logs
func (g *LogGateway) Name() string {
	return "log"
}

// Send logs the message and reports every token as delivered
func (g *LogGateway) Send(ctx context.Context, msg *notification.PushMessage) (*notification.SendResult, error) {
	g.logger.WithFields(map[string]interface{}{
		"recipients": len(msg.Tokens),
		"title":      msg.Title,
		"body":       msg.Body,
	}).Info("Push endpoint not configured, notification logged only")
	return &notification.SendResult{SuccessCount: len(msg.Tokens)}, nil
}
