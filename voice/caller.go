package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// CallerConfig holds calling-provider configuration.
type CallerConfig struct {
	// BaseURL is the provider API root.
	BaseURL string
	// APIKey authorizes outbound calls.
	APIKey string
	// Timeout for call-initiation requests. Defaults to 30 seconds.
	Timeout time.Duration
}

// Caller initiates outbound advisor calls through the voice provider. The
// provider reports the call outcome asynchronously via webhook; the caller
// only needs the opaque call ID back.
type Caller struct {
	config     CallerConfig
	httpClient *http.Client
	log        zerolog.Logger
}

// NewCaller creates a call client.
func NewCaller(config CallerConfig, log zerolog.Logger) *Caller {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	return &Caller{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		log: log.With().Str("component", "caller").Logger(),
	}
}

// CallRequest describes one outbound call.
type CallRequest struct {
	PhoneNumber string `json:"phone_number"`
	Task        string `json:"task"`
	WebhookURL  string `json:"webhook_url"`
	Model       string `json:"model"`
}

// StartCall asks the provider to place a call that follows the given script.
// Returns the provider's call ID.
func (c *Caller) StartCall(ctx context.Context, phoneNumber, script, webhookURL string) (string, error) {
	reqBody := CallRequest{
		PhoneNumber: phoneNumber,
		Task:        script,
		WebhookURL:  webhookURL,
		Model:       "enhanced",
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("encode call request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.config.BaseURL+"/v1/calls", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		CallID string `json:"call_id"`
		ID     string `json:"id"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	callID := result.CallID
	if callID == "" {
		callID = result.ID
	}
	c.log.Info().Str("call_id", callID).Msg("call started")
	return callID, nil
}
