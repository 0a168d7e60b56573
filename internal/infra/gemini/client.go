// Package gemini drafts channel narratives with the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"channel-insight-service/internal/domain"
)

// Config holds generator settings.
type Config struct {
	APIKey          string
	Model           string
	FallbackModels  []string
	Temperature     float32
	MaxOutputTokens int32
	Timeout         time.Duration
}

type generateFunc func(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

// Generator implements domain.NarrativeGenerator. Models are tried in order
// until one returns text.
type Generator struct {
	generate    generateFunc
	models      []string
	temperature float32
	maxTokens   int32
	timeout     time.Duration
	logger      *zap.Logger
}

// New creates a Gemini-backed generator.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return newGenerator(client.Models.GenerateContent, cfg, logger), nil
}

func newGenerator(fn generateFunc, cfg Config, logger *zap.Logger) *Generator {
	models := make([]string, 0, 1+len(cfg.FallbackModels))
	seen := map[string]bool{}
	for _, m := range append([]string{cfg.Model}, cfg.FallbackModels...) {
		if m = strings.TrimSpace(m); m != "" && !seen[m] {
			seen[m] = true
			models = append(models, m)
		}
	}

	return &Generator{
		generate:    fn,
		models:      models,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxOutputTokens,
		timeout:     cfg.Timeout,
		logger:      logger,
	}
}

// Model returns the preferred model.
func (g *Generator) Model() string {
	if len(g.models) == 0 {
		return ""
	}
	return g.models[0]
}

// Generate drafts a narrative for req.
func (g *Generator) Generate(ctx context.Context, req domain.NarrativeRequest) (domain.Draft, error) {
	if req.Analysis == nil || req.Analysis.Snapshot.IsEmpty() {
		return domain.Draft{}, fmt.Errorf("narrative needs a non-empty analysis: %w", domain.ErrInvalidSnapshot)
	}
	if len(g.models) == 0 {
		return domain.Draft{}, errors.New("no gemini model configured")
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	prompt := BuildPrompt(req)
	temperature := g.temperature
	genConfig := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: g.maxTokens,
	}
	contents := []*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}}

	var errs []error
	for _, model := range g.models {
		resp, err := g.generate(ctx, model, contents, genConfig)
		if err != nil {
			g.logger.Warn("gemini generation failed", zap.String("model", model), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", model, err))
			if ctx.Err() != nil {
				break
			}
			continue
		}

		text := extractText(resp)
		if text == "" {
			g.logger.Warn("gemini returned no text", zap.String("model", model))
			errs = append(errs, fmt.Errorf("%s: empty response", model))
			continue
		}

		g.logger.Info("narrative generated",
			zap.String("model", model),
			zap.String("channel_id", req.Analysis.ChannelID),
			zap.Int("length", len(text)),
		)
		return domain.Draft{Content: text, Model: model}, nil
	}

	return domain.Draft{}, fmt.Errorf("all gemini models failed: %w: %w", domain.ErrUnavailable, errors.Join(errs...))
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return ""
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		b.WriteString(part.Text)
	}

	return strings.TrimSpace(b.String())
}
