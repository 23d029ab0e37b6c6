package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const openRouterURL = "https://openrouter.ai/api/v1"

// Client talks to an OpenAI-compatible chat completions API (OpenRouter by
// default).
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	retry      backoff
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type GenerateRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type Choice struct {
	Message Message `json:"message"`
}

type GenerateResponse struct {
	ID        string   `json:"id"`
	Choices   []Choice `json:"choices"`
	Usage     Usage    `json:"usage"`
	RequestID string   `json:"-"`
}

// Text returns the first choice's content.
func (r *GenerateResponse) Text() string {
	if r == nil || len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}

// NewClient builds an OpenRouter client with the given timeout and
// retry/backoff settings. Zero values fall back to defaults.
func NewClient(apiKey string, httpTimeout time.Duration, retryMax int, baseDelay, maxDelay time.Duration) *Client {
	if httpTimeout <= 0 {
		httpTimeout = 60 * time.Second
	}
	if retryMax <= 0 {
		retryMax = 3
	}
	if baseDelay <= 0 {
		baseDelay = 500 * time.Millisecond
	}
	if maxDelay <= 0 {
		maxDelay = 4 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: httpTimeout},
		apiKey:     apiKey,
		baseURL:    openRouterURL,
		retry:      backoff{maxAttempts: retryMax, baseDelay: baseDelay, maxDelay: maxDelay},
	}
}

// NewClientWithBaseURL points the client at another endpoint (tests,
// self-hosted gateways).
func NewClientWithBaseURL(apiKey string, httpTimeout time.Duration, retryMax int, baseDelay, maxDelay time.Duration, baseURL string) *Client {
	c := NewClient(apiKey, httpTimeout, retryMax, baseDelay, maxDelay)
	if baseURL != "" {
		c.baseURL = baseURL
	}
	return c
}

func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if c.apiKey == "" {
		return nil, errors.New("OPENROUTER_API_KEY is missing")
	}
	if req.Model == "" {
		return nil, errors.New("model cannot be empty")
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	endpoint := c.baseURL + "/chat/completions"

	var out GenerateResponse
	err = c.retry.run(ctx, func() attemptResult {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return attemptResult{err: fmt.Errorf("build request: %w", err)}
		}
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("HTTP-Referer", "https://github.com/KaramelBytes/chartloom")
		httpReq.Header.Set("X-Title", "chartloom")

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return attemptResult{err: fmt.Errorf("http request: %w", err), retry: isRetryableNetErr(err)}
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			apiErr := readAPIError(resp)
			return attemptResult{
				err:   classifyAPIError(apiErr, resp),
				retry: isRetryableStatus(resp.StatusCode),
				wait:  retryAfter(resp),
			}
		}
		out = GenerateResponse{}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return attemptResult{err: fmt.Errorf("decode response: %w", err)}
		}
		out.RequestID = extractRequestID(resp)
		return attemptResult{}
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
