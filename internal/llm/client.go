// Package llm wraps the Groq chat-completion API behind a small adapter.
// Callers treat the model as a black box: a list of role/content messages
// in, raw text out. Failures are returned as errors and must be converted
// to fallback values by the calling engine, never propagated to the user.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("llm-client")

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chat roles.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// ChatOptions tunes a single completion call.
type ChatOptions struct {
	Temperature float32
	MaxTokens   int
	JSONMode    bool
}

// ChatClient is the contract the generation engines consume. The production
// implementation talks to Groq; tests inject fakes.
type ChatClient interface {
	Chat(ctx context.Context, messages []Message, opts ChatOptions) (string, error)
}

// Config holds the provider settings.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Client is the Groq-backed ChatClient. Groq exposes an OpenAI-compatible
// surface, so the go-openai client is pointed at the Groq base URL.
type Client struct {
	api     *openai.Client
	model   string
	breaker *gobreaker.CircuitBreaker
	tracer  trace.Tracer
	logger  zerolog.Logger
}

// NewClient builds a Groq chat client. The circuit breaker trips after
// repeated consecutive failures so a degraded provider fails fast instead
// of stalling every request for the full timeout.
func NewClient(cfg Config, logger zerolog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("groq api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "llama-3.3-70b-versatile"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.groq.com/openai/v1"
	}

	apiCfg := openai.DefaultConfig(cfg.APIKey)
	apiCfg.BaseURL = cfg.BaseURL

	settings := gobreaker.Settings{
		Name:        "groq",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).
				Str("from", from.String()).Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	}

	return &Client{
		api:     openai.NewClientWithConfig(apiCfg),
		model:   cfg.Model,
		breaker: gobreaker.NewCircuitBreaker(settings),
		tracer:  tracer,
		logger:  logger.With().Str("component", "llm").Logger(),
	}, nil
}

// Chat sends the messages to the provider and returns the first choice's
// content as raw text.
func (c *Client) Chat(ctx context.Context, messages []Message, opts ChatOptions) (string, error) {
	ctx, span := c.tracer.Start(ctx, "llm.chat")
	defer span.End()

	span.SetAttributes(
		attribute.String("llm.model", c.model),
		attribute.Int("llm.messages", len(messages)),
	)

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
		Messages:    make([]openai.ChatCompletionMessage, 0, len(messages)),
	}
	if opts.JSONMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.api.CreateChatCompletion(ctx, req)
		if err != nil {
			return nil, mapAPIError(err)
		}
		if len(resp.Choices) == 0 {
			return nil, errors.New("no choices returned from provider")
		}
		c.logger.Debug().
			Int("prompt_tokens", resp.Usage.PromptTokens).
			Int("completion_tokens", resp.Usage.CompletionTokens).
			Msg("chat completion")
		return resp.Choices[0].Message.Content, nil
	})
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	return result.(string), nil
}

// mapAPIError normalizes provider errors into stable messages the engines
// log against.
func mapAPIError(err error) error {
	apiErr := &openai.APIError{}
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case 401:
			return fmt.Errorf("unauthorized: invalid Groq API key")
		case 429:
			return fmt.Errorf("rate limited by Groq API")
		case 500, 502, 503:
			return fmt.Errorf("Groq server error (status %d)", apiErr.HTTPStatusCode)
		default:
			return fmt.Errorf("Groq API error: %w", apiErr)
		}
	}
	return err
}
