package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/llm-email-triage/internal/adapters/httpapi"
	"github.com/mikey/llm-email-triage/internal/adapters/smtpingress"
	"github.com/mikey/llm-email-triage/internal/config"
	"github.com/mikey/llm-email-triage/internal/core"
	"github.com/mikey/llm-email-triage/internal/factory"
	"github.com/mikey/llm-email-triage/internal/heuristic"
	"github.com/mikey/llm-email-triage/internal/logging"
	"github.com/mikey/llm-email-triage/internal/nlp"
	"github.com/mikey/llm-email-triage/internal/prompt"
	"github.com/mikey/llm-email-triage/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register text processing
	if err := container.Provide(utils.NewTextProcessor); err != nil {
		return nil, err
	}
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger, text *utils.TextProcessor) *nlp.Preprocessor {
		return nlp.NewPreprocessor(logger, text, cfg.GetInt("prompt.max_content_chars"))
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(nlp.NewExtractor); err != nil {
		return nil, err
	}

	// Register prompt builder
	if err := container.Provide(func(pre *nlp.Preprocessor) core.PromptBuilder {
		return prompt.NewBuilder(pre)
	}); err != nil {
		return nil, err
	}

	// Register heuristic fallback
	if err := container.Provide(func(features *nlp.Extractor, logger *zap.Logger) core.HeuristicClassifier {
		return heuristic.New(features, logger)
	}); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewTierFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewStoreFactory); err != nil {
		return nil, err
	}

	// Register classification tiers
	if err := container.Provide(func(f *factory.TierFactory) ([]core.TierClassifier, error) {
		return f.CreateTiers()
	}); err != nil {
		return nil, err
	}

	// Register profile store
	if err := container.Provide(func(f *factory.StoreFactory) (core.ProfileStore, error) {
		return f.CreateProfileStore()
	}); err != nil {
		return nil, err
	}

	// Register pipeline
	if err := container.Provide(func(
		cfg *config.Config,
		tiers []core.TierClassifier,
		fallback core.HeuristicClassifier,
		builder core.PromptBuilder,
		logger *zap.Logger,
	) (*core.Pipeline, error) {
		pipelineCfg, err := cfg.GetPipeline()
		if err != nil {
			return nil, err
		}
		return core.NewPipeline(
			tiers,
			fallback,
			builder,
			logger,
			pipelineCfg.Timeout,
			pipelineCfg.TierTimeout,
			pipelineCfg.HeuristicEnabled,
		), nil
	}); err != nil {
		return nil, err
	}

	// Register HTTP server
	if err := container.Provide(func(
		cfg *config.Config,
		pipeline *core.Pipeline,
		profiles core.ProfileStore,
		logger *zap.Logger,
	) *httpapi.Server {
		return httpapi.NewServer(
			pipeline,
			profiles,
			logger,
			cfg.GetString("server.listen_address"),
			cfg.GetInt("server.max_content_length"),
			cfg.GetInt64("server.max_upload_bytes"),
		)
	}); err != nil {
		return nil, err
	}

	// Register SMTP ingress
	if err := container.Provide(func(
		cfg *config.Config,
		pipeline *core.Pipeline,
		logger *zap.Logger,
	) *smtpingress.Ingress {
		return smtpingress.NewIngress(pipeline, cfg.GetSMTP(), logger)
	}); err != nil {
		return nil, err
	}

	return container, nil
}
