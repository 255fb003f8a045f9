package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/conceptrag/conceptrag/internal/secrets"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL     = "https://api.openai.com/v1"
	defaultModel       = "gpt-4o-mini"
	defaultTimeout     = 60 * time.Second
	defaultMaxRetries  = 3
	defaultBaseBackoff = 200 * time.Millisecond
)

// Config configures the chat-completion client.
type Config struct {
	// BaseURL is the OpenAI-compatible API root, e.g. "https://openrouter.ai/api/v1".
	// Defaults to the OpenAI API.
	BaseURL string
	// APIKey authenticates requests via "Authorization: Bearer <key>".
	APIKey string
	// Model is the chat-completion model name.
	Model string
	// Timeout bounds a single request's round trip.
	Timeout time.Duration
	// MaxRetries is the number of retry attempts after the first try.
	// Defaults to 3.
	MaxRetries int
	// RequestsPerSecond bounds outbound request rate via a shared token
	// bucket. Zero means unlimited.
	RequestsPerSecond float64
	// Burst is the token bucket burst size. Defaults to 1 if RequestsPerSecond is set.
	Burst int
	// Scrubber redacts secrets from content before it is sent to the
	// endpoint. Defaults to secrets.New(nil) (all built-in rules enabled).
	Scrubber secrets.Scrubber
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = defaultMaxRetries
	}
	if c.RequestsPerSecond > 0 && c.Burst <= 0 {
		c.Burst = 1
	}
	if c.Scrubber == nil {
		c.Scrubber = secrets.MustNew(nil)
	}
	return c
}

// Client is a chat-completion client targeting any OpenAI-compatible
// /chat/completions endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
}

// New creates a Client from cfg, applying defaults for unset fields.
func New(cfg Config) *Client {
	cfg = cfg.withDefaults()

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    limiter,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type chatErrorBody struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// Complete sends a single-turn chat completion request and returns the
// model's text response. content is scrubbed of secrets before it leaves
// the process.
func (c *Client) Complete(ctx context.Context, systemPrompt, content string, maxTokens int) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", &LlmError{Category: CategoryTimeout, Message: err.Error()}
		}
	}

	scrubbed := c.cfg.Scrubber.Scrub(content).Scrubbed

	messages := []chatMessage{}
	if systemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: scrubbed})

	req := chatRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: 0.3,
		MaxTokens:   maxTokens,
	}

	backOff := backoff.NewExponentialBackOff()
	backOff.InitialInterval = defaultBaseBackoff

	result, err := backoff.Retry(ctx, func() (string, error) {
		return c.doRequest(ctx, req)
	},
		backoff.WithBackOff(backOff),
		backoff.WithMaxTries(uint(c.cfg.MaxRetries+1)),
		backoff.WithNotify(func(err error, d time.Duration) {}),
	)
	if err != nil {
		return "", err
	}
	return result, nil
}

func (c *Client) doRequest(ctx context.Context, req chatRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", &LlmError{Category: CategoryBadRequest, Message: fmt.Sprintf("marshaling request: %v", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", &LlmError{Category: CategoryBadRequest, Message: fmt.Sprintf("creating request: %v", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return "", &LlmError{Category: CategoryTimeout, Message: err.Error()}
		}
		return "", permanentOrNot(&LlmError{Category: CategoryServer, Message: err.Error()})
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &LlmError{Category: CategoryServer, Message: fmt.Sprintf("reading response: %v", err)}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", &LlmError{Category: CategoryRateLimit, Message: string(respBody), StatusCode: resp.StatusCode}
	case resp.StatusCode == http.StatusRequestTimeout:
		return "", &LlmError{Category: CategoryTimeout, Message: string(respBody), StatusCode: resp.StatusCode}
	case resp.StatusCode >= 500:
		return "", &LlmError{Category: CategoryServer, Message: string(respBody), StatusCode: resp.StatusCode}
	case resp.StatusCode >= 400:
		var errBody chatErrorBody
		msg := string(respBody)
		if jsonErr := json.Unmarshal(respBody, &errBody); jsonErr == nil && errBody.Error.Message != "" {
			msg = errBody.Error.Message
		}
		return "", backoff.Permanent(&LlmError{Category: CategoryBadRequest, Message: msg, StatusCode: resp.StatusCode})
	case resp.StatusCode != http.StatusOK:
		return "", backoff.Permanent(&LlmError{Category: CategoryBadRequest, Message: string(respBody), StatusCode: resp.StatusCode})
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", &LlmError{Category: CategoryServer, Message: fmt.Sprintf("decoding response: %v", err)}
	}
	if len(parsed.Choices) == 0 {
		return "", &LlmError{Category: CategoryServer, Message: "empty choices in response"}
	}

	return parsed.Choices[0].Message.Content, nil
}

// permanentOrNot wraps transient-category errors so backoff retries them
// and leaves everything else for the caller to decide; rate_limit/server/
// timeout are retried by default since they are not wrapped Permanent.
func permanentOrNot(err *LlmError) error {
	if err.Transient() {
		return err
	}
	return backoff.Permanent(err)
}
