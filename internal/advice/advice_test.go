package advice

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const completionBody = `{
  "id": "gen-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "openai/gpt-4o-mini",
  "choices": [
    {
      "index": 0,
      "finish_reason": "stop",
      "message": {"role": "assistant", "content": "## Cause\nFungal pathogen."}
    }
  ]
}`

type capturedRequest struct {
	Path          string
	Authorization string
	Body          struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content any    `json:"content"`
		} `json:"messages"`
	}
}

func newFakeServer(t *testing.T, status int, body string) (*httptest.Server, *capturedRequest, *atomic.Int32) {
	t.Helper()

	var calls atomic.Int32
	captured := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		captured.Path = r.URL.Path
		captured.Authorization = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&captured.Body)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return srv, captured, &calls
}

func TestClientComplete(t *testing.T) {
	srv, captured, calls := newFakeServer(t, http.StatusOK, completionBody)

	c := New(Options{
		APIKey:  "sk-or-v1-testkey",
		BaseURL: srv.URL + "/api/v1/",
		Model:   "openai/gpt-4o-mini",
		Timeout: 5 * time.Second,
	}, zap.NewNop())
	require.True(t, c.Enabled())

	text, err := c.Complete(context.Background(), "What causes late blight?")
	require.NoError(t, err)
	assert.Equal(t, "## Cause\nFungal pathogen.", text)

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "/api/v1/chat/completions", captured.Path)
	assert.Equal(t, "Bearer sk-or-v1-testkey", captured.Authorization)
	assert.Equal(t, "openai/gpt-4o-mini", captured.Body.Model)
	require.Len(t, captured.Body.Messages, 1)
	assert.Equal(t, "user", captured.Body.Messages[0].Role)
	// content may be sent as a plain string or as a list of text parts
	content, err := json.Marshal(captured.Body.Messages[0].Content)
	require.NoError(t, err)
	assert.Contains(t, string(content), "What causes late blight?")
}

func TestClientNotConfigured(t *testing.T) {
	srv, _, calls := newFakeServer(t, http.StatusOK, completionBody)

	c := New(Options{BaseURL: srv.URL + "/", Model: "openai/gpt-4o-mini"}, zap.NewNop())
	assert.False(t, c.Enabled())

	_, err := c.Complete(context.Background(), "anything")
	require.ErrorIs(t, err, ErrNotConfigured)
	assert.Equal(t, int32(0), calls.Load())
	assert.Equal(t, "LLM Error: OpenRouter API key not configured. Please check environment variables.", Message(err))
	assert.Equal(t, OutcomeConfigMissing, OutcomeOf(err))
}

func TestClientUpstreamStatusError(t *testing.T) {
	srv, _, calls := newFakeServer(t, http.StatusUnauthorized, `{"error":{"message":"No auth credentials found","code":401}}`)

	c := New(Options{APIKey: "bad", BaseURL: srv.URL + "/", Model: "m"}, zap.NewNop())
	_, err := c.Complete(context.Background(), "hi")
	require.Error(t, err)

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, int32(1), calls.Load(), "no retries")
	assert.Equal(t, OutcomeUpstreamFailure, OutcomeOf(err))
	assert.Equal(t, ErrorPrefix+err.Error(), Message(err))
}

func TestClientNoChoices(t *testing.T) {
	srv, _, _ := newFakeServer(t, http.StatusOK, `{"id":"gen-2","object":"chat.completion","choices":[]}`)

	c := New(Options{APIKey: "k", BaseURL: srv.URL + "/", Model: "m"}, zap.NewNop())
	_, err := c.Complete(context.Background(), "hi")
	require.Error(t, err)
	assert.Equal(t, "LLM Error: no choices in response", Message(err))
}

func TestClientTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	c := New(Options{APIKey: "k", BaseURL: srv.URL + "/", Model: "m", Timeout: 50 * time.Millisecond}, zap.NewNop())

	start := time.Now()
	_, err := c.Complete(context.Background(), "hi")
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, OutcomeUpstreamFailure, OutcomeOf(err))
}

func TestOutcomeAndMessage(t *testing.T) {
	assert.Equal(t, OutcomeOK, OutcomeOf(nil))
	assert.Empty(t, Message(nil))

	err := &UpstreamError{Err: errors.New("rate limited")}
	assert.Equal(t, "LLM Error: rate limited", Message(err))
	assert.Equal(t, OutcomeUpstreamFailure, OutcomeOf(err))
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "sk-or-v1-1...", maskKey("sk-or-v1-1234567890"))
	assert.Equal(t, "...", maskKey("short"))
}
