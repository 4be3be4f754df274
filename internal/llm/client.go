// internal/llm/client.go

// Package llm wraps the language-model invocation layer as an opaque
// capability: generate a structured object matching a JSON schema from a
// prompt, or stream text tokens from a prompt. The HTTP implementation
// targets an OpenAI-compatible completion API.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"crisis-atlas/internal/common/config"
	"crisis-atlas/internal/common/logger"
)

var (
	ErrRequestFailed = errors.New("LLM_REQUEST_FAILED")
	ErrBadOutput     = errors.New("LLM_BAD_OUTPUT")
	ErrTimeout       = errors.New("LLM_TIMEOUT")
)

// ObjectRequest asks for a structured object. Schema is a JSON Schema
// document; the response is validated against it before being returned.
type ObjectRequest struct {
	Model       string
	System      string
	Prompt      string
	Schema      string
	Temperature float64
	MaxTokens   int
}

// TextRequest asks for a streamed narrative.
type TextRequest struct {
	Model       string
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// Client is the capability each agent builds on.
type Client interface {
	GenerateObject(ctx context.Context, req ObjectRequest) (json.RawMessage, error)
	StreamText(ctx context.Context, req TextRequest, onDelta func(string)) (string, error)
}

// HTTPClient implements Client against cfg.BaseURL.
type HTTPClient struct {
	config *config.LLMConfig
	client *http.Client
	logger logger.Logger
}

func NewHTTPClient(cfg *config.LLMConfig, log logger.Logger) *HTTPClient {
	return &HTTPClient{
		config: cfg,
		// No client-level timeout: per-call deadlines come from the
		// caller's context so streamed responses are not cut short.
		client: &http.Client{},
		logger: log.WithFields(map[string]interface{}{"component": "llm"}),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Stream         bool            `json:"stream,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

func (c *HTTPClient) GenerateObject(ctx context.Context, req ObjectRequest) (json.RawMessage, error) {
	body := chatRequest{
		Model: req.Model,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.Prompt},
		},
		Temperature:    req.Temperature,
		MaxTokens:      req.MaxTokens,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}

	resp, err := c.post(ctx, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var apiResponse struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, fmt.Errorf("%w: decode error: %v", ErrBadOutput, err)
	}
	if len(apiResponse.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty choices", ErrBadOutput)
	}

	content := strings.TrimSpace(apiResponse.Choices[0].Message.Content)
	raw := json.RawMessage(content)

	if req.Schema != "" {
		result, err := gojsonschema.Validate(
			gojsonschema.NewStringLoader(req.Schema),
			gojsonschema.NewStringLoader(content),
		)
		if err != nil {
			return nil, fmt.Errorf("%w: schema validation: %v", ErrBadOutput, err)
		}
		if !result.Valid() {
			var msgs []string
			for _, desc := range result.Errors() {
				msgs = append(msgs, desc.String())
			}
			return nil, fmt.Errorf("%w: %s", ErrBadOutput, strings.Join(msgs, "; "))
		}
	}

	return raw, nil
}

func (c *HTTPClient) post(ctx context.Context, body chatRequest) (*http.Response, error) {
	payload, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.config.BaseURL+"/v1/chat/completions", bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: status %d", ErrRequestFailed, resp.StatusCode)
	}
	return resp, nil
}
