package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// SMSGateway sends alerts through an HTTP SMS gateway.
// Each message is a JSON POST of {"from", "to", "body"}.
type SMSGateway struct {
	url        string
	token      string
	from       string
	httpClient *http.Client
}

type smsRequest struct {
	From string `json:"from,omitempty"`
	To   string `json:"to"`
	Body string `json:"body"`
}

// NewSMSGateway creates a gateway client
func NewSMSGateway(url, token, from string, timeout time.Duration) (*SMSGateway, error) {
	if url == "" {
		return nil, fmt.Errorf("SMS_GATEWAY_URL is not set")
	}
	return &SMSGateway{
		url:        url,
		token:      token,
		from:       from,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Send posts one message to the gateway. Any non-2xx status is a failure.
func (g *SMSGateway) Send(ctx context.Context, destination, body string) error {
	payload, err := json.Marshal(smsRequest{From: g.from, To: destination, Body: body})
	if err != nil {
		return fmt.Errorf("encode sms request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sms gateway request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sms gateway error: status %d: %s", resp.StatusCode, snippet)
	}
	return nil
}

// Close releases idle gateway connections
func (g *SMSGateway) Close() error {
	g.httpClient.CloseIdleConnections()
	return nil
}
