// Package gemini implements commitsplit.TextGenerator with Google's Gemini API.
package gemini

import (
	"context"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/fwojciec/commitsplit"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// Compile-time interface verification.
var (
	_ commitsplit.TextGenerator = (*Generator)(nil)
	_ commitsplit.StatusChecker = (*Generator)(nil)
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// Generator generates commit messages with a Gemini model.
type Generator struct {
	client      *genai.Client
	model       string
	temperature float32
	logger      *zap.Logger
}

// Option configures a Generator.
type Option func(*settings)

type settings struct {
	model       string
	temperature float32
	baseURL     string
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

// WithBaseURL overrides the API endpoint.
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

// NewGenerator creates a Gemini API client.
func NewGenerator(ctx context.Context, apiKey string, opts ...Option) (*Generator, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.WithHint(
			errors.Mark(errors.New("gemini: missing API key"), commitsplit.ErrAuthentication),
			"set GEMINI_API_KEY or pass --offline",
		)
	}
	s := settings{model: DefaultModel, temperature: 0.3, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&s)
	}

	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: s.httpClient,
	}
	if s.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: s.baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "create gemini client")
	}
	return &Generator{
		client:      client,
		model:       s.model,
		temperature: s.temperature,
		logger:      s.logger,
	}, nil
}

// Name returns the provider name.
func (g *Generator) Name() string {
	return "gemini"
}

// Generate sends the rendered prompt with the system instruction and returns
// the text of the first candidate.
func (g *Generator) Generate(ctx context.Context, req commitsplit.GenerationRequest) (string, error) {
	prompt := commitsplit.RenderPrompt(req)
	g.logger.Debug("requesting content", zap.String("model", g.model), zap.Int("prompt_bytes", len(prompt)))

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.SystemInstruction, genai.RoleUser),
		Temperature:       genai.Ptr(g.temperature),
	})
	if err != nil {
		return "", wrap(err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("gemini: response has no candidates")
	}
	if resp.UsageMetadata != nil {
		g.logger.Debug("content received",
			zap.Int32("prompt_tokens", resp.UsageMetadata.PromptTokenCount),
			zap.Int32("candidate_tokens", resp.UsageMetadata.CandidatesTokenCount),
		)
	}
	return resp.Text(), nil
}

// Status checks the API key by looking up the configured model.
func (g *Generator) Status(ctx context.Context) (commitsplit.ProviderStatus, error) {
	st := commitsplit.ProviderStatus{Provider: g.Name()}
	if _, err := g.client.Models.Get(ctx, g.model, nil); err != nil {
		err = wrap(err)
		if errors.Is(err, commitsplit.ErrAuthentication) {
			st.State = commitsplit.ProviderInvalidKey
			return st, nil
		}
		return st, err
	}
	st.State = commitsplit.ProviderActive
	return st, nil
}

// wrap marks API failures with the matching commitsplit sentinel.
func wrap(err error) error {
	var apiErr genai.APIError
	code := 0
	if errors.As(err, &apiErr) {
		code = apiErr.Code
	}

	err = errors.Wrap(err, "gemini")
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.WithHint(errors.Mark(err, commitsplit.ErrAuthentication), "check the GEMINI_API_KEY value")
	case http.StatusBadRequest:
		if strings.Contains(strings.ToLower(apiErr.Message), "api key") {
			return errors.WithHint(errors.Mark(err, commitsplit.ErrAuthentication), "check the GEMINI_API_KEY value")
		}
	case http.StatusTooManyRequests:
		return errors.WithHint(errors.Mark(err, commitsplit.ErrRateLimited), "wait a moment and try again, or use --offline")
	case http.StatusNotFound:
		return errors.WithHint(errors.Mark(err, commitsplit.ErrNotFound), "check the configured model name")
	}
	return err
}
