package gemini

import (
	"github.com/mikey/llm-email-triage/internal/config"
	"go.uber.org/zap"
)

// Factory creates Gemini tier clients
type Factory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewFactory creates a new factory for Gemini clients
func NewFactory(cfg *config.Config, logger *zap.Logger) *Factory {
	return &Factory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateClient creates a tier client for the given tier configuration
func (f *Factory) CreateClient(tier config.TierConfig) (*GeminiClient, error) {
	geminiCfg := f.cfg.GetGemini()

	return NewGeminiClient(
		geminiCfg.APIKey,
		tier.Name,
		tier.Model,
		geminiCfg.MaxTokens,
		geminiCfg.Temperature,
		geminiCfg.TopP,
		f.logger,
	)
}
