package factory

import (
	"fmt"

	"github.com/mikey/llm-email-triage/internal/adapters/bedrock"
	"github.com/mikey/llm-email-triage/internal/adapters/breaker"
	"github.com/mikey/llm-email-triage/internal/adapters/gemini"
	"github.com/mikey/llm-email-triage/internal/adapters/openai"
	"github.com/mikey/llm-email-triage/internal/config"
	"github.com/mikey/llm-email-triage/internal/core"
	"go.uber.org/zap"
)

// tierOrder is the escalation order of the configured tiers
var tierOrder = []string{"primary", "secondary"}

// TierFactory creates the ordered list of classification tiers
type TierFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewTierFactory creates a new tier factory
func NewTierFactory(cfg *config.Config, logger *zap.Logger) *TierFactory {
	return &TierFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateTiers builds the configured tier clients in escalation order,
// each wrapped with a circuit breaker when the breaker is enabled
func (f *TierFactory) CreateTiers() ([]core.TierClassifier, error) {
	breakerCfg, err := f.cfg.GetBreaker()
	if err != nil {
		return nil, err
	}

	tiers := make([]core.TierClassifier, 0, len(tierOrder))
	for _, name := range tierOrder {
		tierCfg := f.cfg.GetTier(name)
		client, err := f.createClient(tierCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create tier %s: %w", name, err)
		}

		if breakerCfg.Enabled {
			tiers = append(tiers, breaker.Wrap(client, breakerCfg, f.logger))
		} else {
			tiers = append(tiers, client)
		}

		f.logger.Info("Configured classification tier",
			zap.String("tier", name),
			zap.String("provider", tierCfg.Provider),
			zap.String("model", tierCfg.Model))
	}
	return tiers, nil
}

// createClient creates one tier client based on its provider
func (f *TierFactory) createClient(tier config.TierConfig) (core.TierClassifier, error) {
	switch tier.Provider {
	case "gemini":
		return gemini.NewFactory(f.cfg, f.logger).CreateClient(tier)
	case "openai":
		return openai.NewFactory(f.cfg, f.logger).CreateClient(tier)
	case "bedrock":
		return bedrock.NewFactory(f.cfg, f.logger).CreateClient(tier)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", tier.Provider)
	}
}
