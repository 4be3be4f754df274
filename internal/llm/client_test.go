// internal/llm/client_test.go
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crisis-atlas/internal/common/config"
	"crisis-atlas/internal/common/logger"
)

func newTestClient(baseURL string) *HTTPClient {
	return NewHTTPClient(&config.LLMConfig{
		BaseURL: baseURL,
		APIKey:  "test-key",
	}, logger.NewNop())
}

func chatResponse(content string) string {
	msg := map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"content": content}},
		},
	}
	b, _ := json.Marshal(msg)
	return string(b)
}

func TestGenerateObject_ValidatesAgainstSchema(t *testing.T) {
	schema := `{"type":"object","properties":{"severity":{"type":"integer"}},"required":["severity"]}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		fmt.Fprint(w, chatResponse(`{"severity": 7}`))
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	raw, err := c.GenerateObject(context.Background(), ObjectRequest{
		Model:  "test-model",
		Prompt: "scenario",
		Schema: schema,
	})
	require.NoError(t, err)

	var out struct {
		Severity int `json:"severity"`
	}
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, 7, out.Severity)
}

func TestGenerateObject_RejectsSchemaViolation(t *testing.T) {
	schema := `{"type":"object","properties":{"severity":{"type":"integer"}},"required":["severity"]}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chatResponse(`{"wrong_field": true}`))
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	_, err := c.GenerateObject(context.Background(), ObjectRequest{Model: "m", Prompt: "p", Schema: schema})
	require.ErrorIs(t, err, ErrBadOutput)
}

func TestGenerateObject_RequestFailedOnStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	_, err := c.GenerateObject(context.Background(), ObjectRequest{Model: "m", Prompt: "p"})
	require.ErrorIs(t, err, ErrRequestFailed)
}

func TestStreamText_AccumulatesDeltas(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)

		w.Header().Set("Content-Type", "text/event-stream")
		for _, delta := range []string{"Trade ", "routes ", "disrupted."} {
			fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", delta)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	c := newTestClient(server.URL)

	var deltas []string
	full, err := c.StreamText(context.Background(), TextRequest{Model: "m", Prompt: "p"}, func(d string) {
		deltas = append(deltas, d)
	})
	require.NoError(t, err)
	assert.Equal(t, "Trade routes disrupted.", full)
	assert.Equal(t, []string{"Trade ", "routes ", "disrupted."}, deltas)
}

func TestStreamText_SkipsMalformedChunks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {not json}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"ok\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	full, err := c.StreamText(context.Background(), TextRequest{Model: "m", Prompt: "p"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", full)
}
