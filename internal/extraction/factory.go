package extraction

import (
	"context"
	"fmt"
	"log/slog"
)

// OracleConfig selects and configures an oracle backend
type OracleConfig struct {
	// Backend is "gemini" or "ollama"
	Backend     string
	GeminiKey   string
	GeminiModel string
	OllamaURL   string
	OllamaModel string
}

// NewOracle builds the configured backend
func NewOracle(ctx context.Context, cfg OracleConfig) (Oracle, error) {
	switch cfg.Backend {
	case "gemini", "":
		slog.Info("Initializing Gemini oracle...", "model", cfg.GeminiModel)
		gemini, err := NewGemini(ctx, cfg.GeminiKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		return gemini, nil
	case "ollama":
		slog.Info("Initializing Ollama oracle...", "url", cfg.OllamaURL, "model", cfg.OllamaModel)
		ollama, err := NewOllama(cfg.OllamaURL, cfg.OllamaModel)
		if err != nil {
			return nil, err
		}
		return ollama, nil
	default:
		return nil, fmt.Errorf("invalid oracle %q, want gemini or ollama: %w", cfg.Backend, ErrConfiguration)
	}
}
