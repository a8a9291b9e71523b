// Package advisor turns threshold crossings into actionable guidance. The
// primary generator calls an OpenAI-compatible chat endpoint (OpenRouter by
// default); every failure path lands on a deterministic local fallback so an
// alert never goes out without advice attached.
package advisor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ENACT/enact/internal/models"
)

// Generator produces advisory text for a crossed threshold. Implementations
// may fail; callers are expected to substitute Fallback output.
type Generator interface {
	Advise(ctx context.Context, currentGrams float64, thresholdType models.ThresholdType, limitGrams float64) (text, model string, err error)
}

// Config holds chat-completion settings for the OpenAI-backed generator.
type Config struct {
	APIKey      string
	BaseURL     string
	Models      []string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// DefaultConfig targets OpenRouter's free models with a short per-call
// timeout so an unreachable provider cannot stall a threshold check.
func DefaultConfig() Config {
	return Config{
		BaseURL: "https://openrouter.ai/api/v1",
		Models: []string{
			"qwen/qwen3-coder:free",
			"mistralai/mistral-7b-instruct:free",
			"google/gemini-2.0-flash-exp:free",
		},
		Temperature: 0.7,
		MaxTokens:   800,
		Timeout:     5 * time.Second,
	}
}

// ConfigFromEnv builds a Config from environment variables.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	cfg.APIKey = os.Getenv("OPENROUTER_API_KEY")

	if base := os.Getenv("OPENROUTER_BASE_URL"); base != "" {
		cfg.BaseURL = base
	}
	if model := os.Getenv("OPENROUTER_MODEL"); model != "" {
		cfg.Models = []string{model}
	}
	return cfg
}

// OpenAIGenerator asks a chat model for tailored reduction advice.
type OpenAIGenerator struct {
	client *openai.Client
	cfg    Config
	logger *slog.Logger
}

// NewOpenAIGenerator constructs a generator. Returns an error when no API
// key is configured; callers then wire the fallback-only path.
func NewOpenAIGenerator(cfg Config, logger *slog.Logger) (*OpenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("advisory generator: no API key configured")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
		logger: logger,
	}, nil
}

const advisorSystemPrompt = "You are an expert in digital sustainability and reducing carbon footprints from online activities. Provide clear, actionable advice."

// Advise tries each configured model in order and returns the first
// non-empty completion. Timeouts, transport errors, and empty payloads all
// move on to the next model; exhausting the list is an error.
func (g *OpenAIGenerator) Advise(ctx context.Context, currentGrams float64, thresholdType models.ThresholdType, limitGrams float64) (string, string, error) {
	prompt := buildPrompt(currentGrams, thresholdType, limitGrams)

	for _, model := range g.cfg.Models {
		callCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)

		resp, err := g.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
			Model:       model,
			Temperature: g.cfg.Temperature,
			MaxTokens:   g.cfg.MaxTokens,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: advisorSystemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
		})
		cancel()

		if err != nil {
			g.logger.Debug("advisory model failed, trying next",
				"model", model,
				"error", err.Error())
			continue
		}

		if len(resp.Choices) == 0 {
			continue
		}
		text := strings.TrimSpace(resp.Choices[0].Message.Content)
		if text == "" {
			continue
		}

		usedModel := resp.Model
		if usedModel == "" {
			usedModel = model
		}
		return text, usedModel, nil
	}

	return "", "", fmt.Errorf("all advisory models failed or returned empty output")
}

func buildPrompt(currentGrams float64, thresholdType models.ThresholdType, limitGrams float64) string {
	return fmt.Sprintf(`You are an eco-friendly digital activity advisor. The user has reached a %s carbon emission threshold (%.2fg CO2, limit: %gg CO2).

Provide practical, actionable suggestions to reduce digital carbon footprint:

1. Specific activity recommendations (2-3 items)
2. Behavioral changes they can make immediately (2-3 items)
3. Tools or settings optimizations (2-3 items)
4. A brief motivational message

Keep it concise, friendly, and actionable. Format with clear sections.`, thresholdType, currentGrams, limitGrams)
}
