// Package glm provides a ZhipuAI GLM-4-Voice-backed voice provider using the
// open platform's non-streaming chat completions API. It implements the
// voice.Provider interface.
package glm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/clayvoice/clayvoice/internal/auth"
	"github.com/clayvoice/clayvoice/internal/observe"
	"github.com/clayvoice/clayvoice/pkg/provider/voice"
)

const (
	// DefaultEndpoint is the chat completions endpoint of the Zhipu open
	// platform.
	DefaultEndpoint = "https://open.bigmodel.cn/api/paas/v4/chat/completions"

	defaultModel = "glm-4-voice"
)

// Compile-time assertion that Client satisfies the voice.Provider interface.
var _ voice.Provider = (*Client)(nil)

// Option is a functional option for configuring the GLM Client.
type Option func(*Client)

// WithEndpoint overrides the chat completions URL. Useful in tests.
func WithEndpoint(url string) Option {
	return func(c *Client) {
		c.endpoint = url
	}
}

// WithModel sets the model identifier (default "glm-4-voice").
func WithModel(model string) Option {
	return func(c *Client) {
		c.model = model
	}
}

// WithHTTPClient replaces the HTTP client, e.g. to set a request timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithClock replaces the token-signing clock. Useful in tests.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// WithMetrics wires metric instruments into the client. Without it no
// metrics are recorded.
func WithMetrics(m *observe.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// Client implements voice.Provider backed by the GLM-4-Voice model.
type Client struct {
	endpoint   string
	model      string
	httpClient *http.Client
	now        func() time.Time
	metrics    *observe.Metrics
}

// New creates a GLM voice client.
func New(opts ...Option) *Client {
	c := &Client{
		endpoint:   DefaultEndpoint,
		model:      defaultModel,
		httpClient: &http.Client{},
		now:        time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// ---- wire types ----

// chatRequest is the JSON body posted to the chat completions endpoint.
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

// chatResponse is the subset of the completion response the client reads.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Audio   *struct {
				Data string `json:"data"`
			} `json:"audio"`
		} `json:"message"`
	} `json:"choices"`
}

// Exchange implements [voice.Provider]. It mints a fresh token for the turn
// (one token per request; the one-hour validity always outlives a single
// exchange), base64-encodes the utterance, assembles the message list, and
// performs one non-streaming completion request with bearer-token auth.
func (c *Client) Exchange(ctx context.Context, req voice.Request) (*voice.Reply, error) {
	apiKey := req.APIKey
	if apiKey == "" {
		apiKey = auth.DefaultAPIKey
	}
	signStart := time.Now()
	token, err := auth.SignToken(apiKey, c.now())
	if err != nil {
		return nil, fmt.Errorf("glm: %w", err)
	}
	if c.metrics != nil {
		c.metrics.SignDuration.Record(ctx, time.Since(signStart).Seconds())
	}

	audioB64 := base64.StdEncoding.EncodeToString(req.AudioWAV)
	body := chatRequest{
		Model:    c.model,
		Messages: BuildMessages(req.SystemPrompt, req.KnowledgeBase, req.History, audioB64),
		Stream:   false,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("glm: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("glm: build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &voice.TransportError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &voice.TransportError{Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &voice.RemoteError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var cr chatResponse
	if err := json.Unmarshal(respBody, &cr); err != nil {
		return nil, fmt.Errorf("glm: decode response: %w", err)
	}

	reply := &voice.Reply{}
	if len(cr.Choices) > 0 {
		msg := cr.Choices[0].Message
		reply.Text = msg.Content
		if msg.Audio != nil {
			reply.AudioChunk = msg.Audio.Data
		}
	}
	return reply, nil
}
