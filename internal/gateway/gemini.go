package gateway

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// GeminiClient implements Generator against Google's Gemini API. It maps the
// engine's structured request onto a plain-text prompt and surfaces the
// completion through the same normalized Response as the REST backend.
type GeminiClient struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

// GeminiConfig holds Gemini backend settings.
type GeminiConfig struct {
	APIKey string
	Model  string
	Logger *zap.Logger
}

// NewGeminiClient creates the Gemini backend client.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiClient{
		client: client,
		model:  cfg.Model,
		logger: cfg.Logger,
	}, nil
}

func (c *GeminiClient) Name() string { return "gemini" }

// Generate sends the flattened request to Gemini. The backend produces plain
// text only; work-item normalization from text is handled downstream.
func (c *GeminiClient) Generate(ctx context.Context, req Request) (*Response, error) {
	prompt := flattenRequest(req)

	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, newError(KindTimeout, "gemini did not respond in time", err)
		}
		return nil, newError(KindBackend, "gemini generation failed", err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		c.logger.Debug("gemini returned empty completion", zap.String("model", c.model))
	}

	return &Response{Text: text}, nil
}

// flattenRequest renders the structured request as a prompt: mode framing
// first, gathered context fields in stable order, then the user message.
func flattenRequest(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Consultation mode: %s\n", req.Mode)

	if len(req.Context) > 0 {
		keys := make([]string, 0, len(req.Context))
		for k := range req.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteString("Known context:\n")
		for _, k := range keys {
			fmt.Fprintf(&b, "- %s: %s\n", k, req.Context[k])
		}
	}

	b.WriteString("\n")
	b.WriteString(req.Message)
	return b.String()
}
