// Package advice talks to the hosted chat-completion service that turns a
// diagnosis or a farmer's question into written agronomic advice.
package advice

import (
	"context"
	"errors"
	"net/http"
	"time"

	oagc "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"
)

// ErrorPrefix marks every degraded advice string returned to API callers.
const ErrorPrefix = "LLM Error: "

// ErrNotConfigured is returned without any network I/O when no API key is set.
var ErrNotConfigured = errors.New("OpenRouter API key not configured. Please check environment variables.")

// UpstreamError wraps any failure of the remote call.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string { return e.Err.Error() }

func (e *UpstreamError) Unwrap() error { return e.Err }

// Outcome classifies the result of an advice call.
type Outcome string

const (
	OutcomeOK              Outcome = "ok"
	OutcomeConfigMissing   Outcome = "config_missing"
	OutcomeUpstreamFailure Outcome = "upstream_failure"
)

// OutcomeOf maps an error returned by a Completer to its Outcome.
func OutcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrNotConfigured):
		return OutcomeConfigMissing
	default:
		return OutcomeUpstreamFailure
	}
}

// Message renders err in the "LLM Error: ..." form callers inspect.
func Message(err error) string {
	if err == nil {
		return ""
	}
	return ErrorPrefix + err.Error()
}

// Completer sends a single prompt and returns the text of the first answer.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	HTTPClient *http.Client // if nil uses http.DefaultClient
}

// Client is a Completer backed by an OpenAI-compatible endpoint (OpenRouter).
type Client struct {
	oac     *oagc.Client
	model   oagc.ChatModel
	timeout time.Duration
	enabled bool
	logger  *zap.Logger
}

var _ Completer = &Client{}

func New(opts Options, logger *zap.Logger) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	c := &Client{
		model:   oagc.ChatModel(opts.Model),
		timeout: opts.Timeout,
		enabled: opts.APIKey != "",
		logger:  logger,
	}
	if !c.enabled {
		logger.Warn("OPENROUTER_API_KEY not set, advice requests will fail")
		return c
	}

	c.oac = oagc.NewClient(
		option.WithAPIKey(opts.APIKey),
		option.WithBaseURL(opts.BaseURL),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	)
	logger.Info("advice client configured",
		zap.String("base_url", opts.BaseURL),
		zap.String("model", opts.Model),
		zap.String("api_key", maskKey(opts.APIKey)))

	return c
}

// Enabled reports whether an API key was provided.
func (c *Client) Enabled() bool { return c.enabled }

func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if !c.enabled {
		return "", ErrNotConfigured
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.oac.Chat.Completions.New(ctx, oagc.ChatCompletionNewParams{
		Model: oagc.F(c.model),
		Messages: oagc.F([]oagc.ChatCompletionMessageParamUnion{
			oagc.UserMessage(prompt),
		}),
	})
	if err != nil {
		return "", &UpstreamError{Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &UpstreamError{Err: errors.New("no choices in response")}
	}

	return resp.Choices[0].Message.Content, nil
}

func maskKey(key string) string {
	if len(key) <= 10 {
		return "..."
	}
	return key[:10] + "..."
}
