// Package openai implements commitsplit.TextGenerator on the OpenAI chat
// completions API. DeepSeek is served by the same client with its own base URL.
package openai

import (
	"context"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/fwojciec/commitsplit"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Compile-time interface verification.
var (
	_ commitsplit.TextGenerator = (*Generator)(nil)
	_ commitsplit.StatusChecker = (*Generator)(nil)
)

// Provider defaults.
const (
	DefaultModel         = openai.GPT4oMini
	DeepSeekBaseURL      = "https://api.deepseek.com/v1"
	DefaultDeepSeekModel = "deepseek-chat"
)

// Generator generates commit messages with a chat completion model.
type Generator struct {
	client      *openai.Client
	config      openai.ClientConfig
	apiKey      string
	name        string
	model       string
	temperature float32
	maxTokens   int
	logger      *zap.Logger
}

// Option configures a Generator.
type Option func(*settings)

type settings struct {
	name        string
	baseURL     string
	model       string
	temperature float32
	maxTokens   int
	httpClient  *http.Client
	logger      *zap.Logger
}

// WithModel sets the model name.
func WithModel(model string) Option {
	return func(s *settings) { s.model = model }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) Option {
	return func(s *settings) { s.temperature = t }
}

// WithMaxTokens bounds the length of the completion.
func WithMaxTokens(n int) Option {
	return func(s *settings) { s.maxTokens = n }
}

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(url string) Option {
	return func(s *settings) { s.baseURL = url }
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(s *settings) { s.httpClient = c }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// NewGenerator returns a generator for the OpenAI API.
func NewGenerator(apiKey string, opts ...Option) (*Generator, error) {
	return newGenerator("openai", apiKey, DefaultModel, opts)
}

// NewDeepSeekGenerator returns a generator for the DeepSeek API.
func NewDeepSeekGenerator(apiKey string, opts ...Option) (*Generator, error) {
	opts = append([]Option{WithBaseURL(DeepSeekBaseURL)}, opts...)
	return newGenerator("deepseek", apiKey, DefaultDeepSeekModel, opts)
}

func newGenerator(name, apiKey, model string, opts []Option) (*Generator, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.WithHint(
			errors.Mark(errors.Newf("%s: missing API key", name), commitsplit.ErrAuthentication),
			"set "+strings.ToUpper(name)+"_API_KEY or pass --offline",
		)
	}
	s := settings{
		name:        name,
		model:       model,
		temperature: 0.3,
		maxTokens:   500,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&s)
	}

	cfg := openai.DefaultConfig(apiKey)
	if s.baseURL != "" {
		cfg.BaseURL = s.baseURL
	}
	if s.httpClient != nil {
		cfg.HTTPClient = s.httpClient
	}
	return &Generator{
		client:      openai.NewClientWithConfig(cfg),
		config:      cfg,
		apiKey:      apiKey,
		name:        s.name,
		model:       s.model,
		temperature: s.temperature,
		maxTokens:   s.maxTokens,
		logger:      s.logger,
	}, nil
}

// Name returns the provider name.
func (g *Generator) Name() string {
	return g.name
}

// Generate sends the request as a system and a user message and returns the
// first choice.
func (g *Generator) Generate(ctx context.Context, req commitsplit.GenerationRequest) (string, error) {
	prompt := commitsplit.RenderPrompt(req)
	g.logger.Debug("requesting completion",
		zap.String("provider", g.name),
		zap.String("model", g.model),
		zap.Int("prompt_bytes", len(prompt)),
	)

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.SystemInstruction},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
	})
	if err != nil {
		return "", g.wrap(err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.Newf("%s: response has no choices", g.name)
	}

	g.logger.Debug("completion received",
		zap.String("provider", g.name),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)
	return resp.Choices[0].Message.Content, nil
}

// wrap marks API failures with the matching commitsplit sentinel.
func (g *Generator) wrap(err error) error {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	err = errors.Wrapf(err, "%s", g.name)
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.WithHint(errors.Mark(err, commitsplit.ErrAuthentication),
			"check the "+strings.ToUpper(g.name)+"_API_KEY value")
	case http.StatusTooManyRequests:
		return errors.WithHint(errors.Mark(err, commitsplit.ErrRateLimited),
			"wait a moment and try again, or use --offline")
	case http.StatusNotFound:
		return errors.WithHint(errors.Mark(err, commitsplit.ErrNotFound),
			"check the configured model name")
	}
	return err
}
