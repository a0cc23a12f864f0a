package forecast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/i474232898/weather-friend/internal/logging"
	"github.com/i474232898/weather-friend/internal/weather"
)

const (
	DefaultModel     = "claude-sonnet-4-5-20250929"
	DefaultMaxTokens = 300
)

// ErrEmptyResponse is returned when the provider call succeeds but yields no text.
var ErrEmptyResponse = errors.New("text provider returned no content")

// GenerationError wraps a failed provider call. The provider's own error is
// reachable through errors.As (e.g. *anthropic.Error).
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate forecast: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Composer turns a weather record into forecast text via the Anthropic Messages API.
type Composer struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	baseURL   string
	log       *slog.Logger
}

// Option configures a Composer.
type Option func(*Composer)

func WithModel(model string) Option {
	return func(c *Composer) {
		if model != "" {
			c.model = model
		}
	}
}

func WithMaxTokens(n int) Option {
	return func(c *Composer) {
		if n > 0 {
			c.maxTokens = int64(n)
		}
	}
}

// WithBaseURL sets a custom API endpoint (for testing).
func WithBaseURL(url string) Option {
	return func(c *Composer) {
		c.baseURL = url
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Composer) {
		c.log = l
	}
}

// NewComposer creates a Composer. It is parameterized only by credentials and
// model settings; it knows nothing about where or when forecasts are posted.
func NewComposer(apiKey string, opts ...Option) *Composer {
	c := &Composer{
		model:     DefaultModel,
		maxTokens: DefaultMaxTokens,
		log:       logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}

	clientOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		// A failed generation waits for the next tick or command.
		option.WithMaxRetries(0),
	}
	if c.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(c.baseURL))
	}
	c.client = anthropic.NewClient(clientOpts...)
	c.log = c.log.With("component", "forecast", "model", c.model)
	return c
}

// Compose makes a single generation request and returns the first text block verbatim.
func (c *Composer) Compose(ctx context.Context, rec weather.Record) (string, error) {
	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt(rec))),
		},
	})
	if err != nil {
		c.log.Error("text generation request failed", "err", err)
		return "", &GenerationError{Err: err}
	}

	if len(msg.Content) == 0 {
		return "", ErrEmptyResponse
	}
	first := msg.Content[0]
	if first.Type != "text" {
		return "", fmt.Errorf("%w: first block is %q", ErrEmptyResponse, first.Type)
	}

	c.log.Debug("forecast generated",
		"input_tokens", msg.Usage.InputTokens,
		"output_tokens", msg.Usage.OutputTokens,
	)
	return first.Text, nil
}
