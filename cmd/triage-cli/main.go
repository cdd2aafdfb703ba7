package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/mikey/llm-email-triage/internal/config"
	"github.com/mikey/llm-email-triage/internal/core"
	"github.com/mikey/llm-email-triage/internal/factory"
	"github.com/mikey/llm-email-triage/internal/heuristic"
	"github.com/mikey/llm-email-triage/internal/logging"
	"github.com/mikey/llm-email-triage/internal/nlp"
	"github.com/mikey/llm-email-triage/internal/prompt"
	"github.com/mikey/llm-email-triage/internal/utils"
	"go.uber.org/zap"
)

var (
	// Tier flags
	provider       = flag.String("provider", "gemini", "LLM provider for both tiers (gemini, openai, bedrock)")
	primaryModel   = flag.String("primary-model", "gemini-2.5-flash-lite", "Model for the primary tier")
	secondaryModel = flag.String("secondary-model", "gemini-2.5-flash", "Model for the secondary tier")
	maxTokens      = flag.Int("max-tokens", 1024, "Maximum tokens for the model reply")
	temperature    = flag.Float64("temperature", 0.1, "Temperature for generation")
	topP           = flag.Float64("top-p", 0.8, "Top-p for generation")

	// Provider flags
	geminiAPIKey  = flag.String("gemini-api-key", "", "API key for Google Gemini")
	openaiAPIKey  = flag.String("openai-api-key", "", "API key for OpenAI")
	bedrockRegion = flag.String("bedrock-region", "us-east-1", "AWS region for Bedrock")

	// Pipeline flags
	timeout          = flag.Duration("timeout", 30*time.Second, "Overall classification deadline")
	tierTimeout      = flag.Duration("tier-timeout", 12*time.Second, "Per-tier deadline")
	heuristicEnabled = flag.Bool("heuristic", true, "Enable the heuristic fallback")

	// Input flags
	inputFile  = flag.String("file", "", "Input email text file (use stdin if not specified)")
	subject    = flag.String("subject", "", "Email subject (optional, also parsed from the content)")
	sender     = flag.String("sender", "", "Sender address (optional)")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	jsonLog    = flag.Bool("json-log", false, "Output logs in JSON format")
	configFile = flag.Bool("config", false, "Load configuration from the usual config locations instead of flags")
)

func main() {
	flag.Parse()

	logger, err := logging.InitConsoleLogger(*verbose, *jsonLog)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	var cfg *config.Config
	if *configFile {
		cfg, err = config.New()
		if err != nil {
			logger.Fatal("Failed to load configuration", zap.Error(err))
		}
		logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
	} else {
		cfg = createConfigFromFlags()
	}

	// Build the tier chain directly, without the daemon's container
	tierFactory := factory.NewTierFactory(cfg, logger)
	tiers, err := tierFactory.CreateTiers()
	if err != nil {
		logger.Fatal("Failed to create classification tiers", zap.Error(err))
	}

	textProcessor := utils.NewTextProcessor(logger)
	preprocessor := nlp.NewPreprocessor(logger, textProcessor, cfg.GetInt("prompt.max_content_chars"))
	builder := prompt.NewBuilder(preprocessor)
	fallback := heuristic.New(nlp.NewExtractor(logger), logger)

	pipelineCfg, err := cfg.GetPipeline()
	if err != nil {
		logger.Fatal("Invalid pipeline configuration", zap.Error(err))
	}
	pipeline := core.NewPipeline(tiers, fallback, builder, logger,
		pipelineCfg.Timeout, pipelineCfg.TierTimeout, pipelineCfg.HeuristicEnabled)

	// Read email text from file or stdin
	var reader io.Reader
	if *inputFile != "" {
		file, err := os.Open(*inputFile)
		if err != nil {
			logger.Fatal("Failed to open input file", zap.Error(err), zap.String("file", *inputFile))
		}
		defer file.Close()
		reader = file
		logger.Info("Reading email from file", zap.String("file", *inputFile))
	} else {
		reader = os.Stdin
		logger.Info("Reading email from stdin")
	}

	content, err := io.ReadAll(reader)
	if err != nil {
		logger.Fatal("Failed to read email content", zap.Error(err))
	}

	email := &core.Email{
		ID:        uuid.NewString(),
		Content:   string(content),
		Subject:   *subject,
		Sender:    *sender,
		Timestamp: time.Now().UTC(),
	}

	fmt.Printf("\n=== Email Summary ===\n")
	fmt.Printf("Sender: %s\n", *sender)
	fmt.Printf("Subject: %s\n", *subject)
	fmt.Printf("Content length: %d bytes\n", len(content))

	startTime := time.Now()
	result, err := pipeline.Process(context.Background(), email, nil)
	if err != nil {
		logger.Fatal("Failed to classify email", zap.Error(err))
	}
	duration := time.Since(startTime)

	fmt.Printf("\n=== Results ===\n")
	fmt.Printf("Category: %s\n", result.Category)
	if result.Confidence != nil {
		fmt.Printf("Confidence: %.4f\n", *result.Confidence)
	} else {
		fmt.Printf("Confidence: n/a\n")
	}
	fmt.Printf("Reasoning: %s\n", result.Reasoning)
	fmt.Printf("Tier: %s\n", result.Tier)
	fmt.Printf("Processing time: %v\n", duration)

	fmt.Printf("\n=== Suggested Reply ===\n")
	fmt.Printf("To: %s\n", result.SuggestedResponse.To)
	fmt.Printf("Subject: %s\n", result.SuggestedResponse.Subject)
	fmt.Printf("\n%s\n", result.SuggestedResponse.Body)

	// Close any resources that need closing
	for _, tier := range tiers {
		if closer, ok := tier.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				logger.Error("Failed to close tier client", zap.Error(err))
			}
		}
	}
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags() *config.Config {
	v := config.NewEmptyViper()

	v.Set("tiers.primary.provider", *provider)
	v.Set("tiers.primary.model", *primaryModel)
	v.Set("tiers.secondary.provider", *provider)
	v.Set("tiers.secondary.model", *secondaryModel)

	switch *provider {
	case "gemini":
		v.Set("gemini.api_key", *geminiAPIKey)
		v.Set("gemini.max_tokens", *maxTokens)
		v.Set("gemini.temperature", *temperature)
		v.Set("gemini.top_p", *topP)
	case "openai":
		v.Set("openai.api_key", *openaiAPIKey)
		v.Set("openai.max_tokens", *maxTokens)
		v.Set("openai.temperature", *temperature)
		v.Set("openai.top_p", *topP)
	case "bedrock":
		v.Set("bedrock.region", *bedrockRegion)
		v.Set("bedrock.max_tokens", *maxTokens)
		v.Set("bedrock.temperature", *temperature)
		v.Set("bedrock.top_p", *topP)
	}

	v.Set("pipeline.timeout", timeout.String())
	v.Set("pipeline.tier_timeout", tierTimeout.String())
	v.Set("pipeline.heuristic_enabled", *heuristicEnabled)

	// The breaker only matters for long-lived processes
	v.Set("breaker.enabled", false)

	return config.NewFromViper(v)
}
