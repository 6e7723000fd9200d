// Package model adapts concrete generative-model APIs to a single Provider
// capability. Nothing outside this package sees a provider's wire types.
package model

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	config "github.com/xilidan/lingua/config/transcriber"
	"github.com/xilidan/lingua/services/transcriber/prompt"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Provider performs one remote call and returns the raw text payload, which
// is expected to be JSON matching spec.Schema.
type Provider interface {
	Generate(ctx context.Context, spec prompt.Spec) (string, error)
	Name() string
}

func New(ctx context.Context, cfg *config.ModelConfig, log *slog.Logger) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case ProviderGemini, "":
		return NewGemini(ctx, cfg.APIKey, cfg.Name, cfg.BaseURL, log)
	case ProviderOpenAI:
		return NewOpenAI(cfg.APIKey, cfg.BaseURL, cfg.Name, cfg.AudioName, log), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
	}
}
