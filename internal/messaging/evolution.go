package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds every Evolution API call.
const DefaultTimeout = 10 * time.Second

// Opts holds configuration options for the Evolution API sender.
type Opts struct {
	BaseURL  string
	Instance string
	APIKey   string
	Client   *http.Client
}

// Option defines a configuration option for the Evolution API sender.
type Option func(*Opts)

// WithBaseURL sets the Evolution API root URL.
func WithBaseURL(u string) Option {
	return func(o *Opts) {
		o.BaseURL = u
	}
}

// WithInstance sets the Evolution instance name.
func WithInstance(name string) Option {
	return func(o *Opts) {
		o.Instance = name
	}
}

// WithAPIKey sets the Evolution API key.
func WithAPIKey(key string) Option {
	return func(o *Opts) {
		o.APIKey = key
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *Opts) {
		o.Client = c
	}
}

// EvolutionSender sends text messages through the Evolution API.
type EvolutionSender struct {
	baseURL  string
	instance string
	apiKey   string
	http     *http.Client
}

// NewEvolutionSender creates a sender, applying any provided options.
func NewEvolutionSender(opts ...Option) *EvolutionSender {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: DefaultTimeout}
	}
	slog.Debug("messaging.NewEvolutionSender: sender created",
		"base_url", cfg.BaseURL, "instance", cfg.Instance, "api_key_set", cfg.APIKey != "")
	return &EvolutionSender{
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
		instance: cfg.Instance,
		apiKey:   cfg.APIKey,
		http:     cfg.Client,
	}
}

type sendTextPayload struct {
	Number      string `json:"number"`
	TextMessage struct {
		Text string `json:"text"`
	} `json:"textMessage"`
}

// SendText delivers a text message to the given phone number.
// Literal \n sequences are converted to real newlines before sending.
func (s *EvolutionSender) SendText(ctx context.Context, number, text string) error {
	if s.baseURL == "" || s.instance == "" {
		return fmt.Errorf("evolution sender not configured")
	}
	if number == "" {
		return fmt.Errorf("recipient cannot be empty")
	}

	var payload sendTextPayload
	payload.Number = number
	payload.TextMessage.Text = strings.ReplaceAll(text, `\n`, "\n")

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal send payload: %w", err)
	}

	url := fmt.Sprintf("%s/message/sendText/%s", s.baseURL, s.instance)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", s.apiKey)

	slog.Debug("EvolutionSender.SendText: sending message", "number", number, "body_length", len(text))
	resp, err := s.http.Do(req)
	if err != nil {
		slog.Error("EvolutionSender.SendText: request failed", "error", err, "number", number)
		return fmt.Errorf("failed to send message to %s: %w", number, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Error("EvolutionSender.SendText: non-success status", "status", resp.StatusCode, "number", number)
		return fmt.Errorf("evolution API returned status %d for %s", resp.StatusCode, number)
	}

	slog.Info("EvolutionSender.SendText: message sent", "number", number)
	return nil
}
