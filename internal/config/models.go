package config

import (
	"fmt"
	"time"
)

// TierConfig represents the configuration for one classification tier
type TierConfig struct {
	Name     string
	Provider string
	Model    string
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// PipelineConfig represents the orchestrator configuration
type PipelineConfig struct {
	Timeout          time.Duration
	TierTimeout      time.Duration
	HeuristicEnabled bool
}

// BreakerConfig represents the circuit breaker configuration
type BreakerConfig struct {
	Enabled             bool
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
}

// StoreConfig represents the company profile store configuration
type StoreConfig struct {
	Type       string
	SQLitePath string
	MySQLDSN   string
}

// SMTPConfig represents the inbound SMTP ingress configuration
type SMTPConfig struct {
	Enabled          bool
	ListenAddress    string
	RelayAddress     string
	CategoryHeader   string
	ConfidenceHeader string
	TierHeader       string
}

// GetTier returns the configuration for the named tier ("primary", "secondary")
func (c *Config) GetTier(name string) TierConfig {
	return TierConfig{
		Name:     name,
		Provider: c.GetString(fmt.Sprintf("tiers.%s.provider", name)),
		Model:    c.GetString(fmt.Sprintf("tiers.%s.model", name)),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
	}
}

// GetPipeline returns the pipeline configuration
func (c *Config) GetPipeline() (PipelineConfig, error) {
	timeout, err := c.GetDuration("pipeline.timeout")
	if err != nil {
		return PipelineConfig{}, fmt.Errorf("invalid pipeline timeout: %w", err)
	}
	tierTimeout, err := c.GetDuration("pipeline.tier_timeout")
	if err != nil {
		return PipelineConfig{}, fmt.Errorf("invalid tier timeout: %w", err)
	}
	return PipelineConfig{
		Timeout:          timeout,
		TierTimeout:      tierTimeout,
		HeuristicEnabled: c.GetBool("pipeline.heuristic_enabled"),
	}, nil
}

// GetBreaker returns the circuit breaker configuration
func (c *Config) GetBreaker() (BreakerConfig, error) {
	openTimeout, err := c.GetDuration("breaker.open_timeout")
	if err != nil {
		return BreakerConfig{}, fmt.Errorf("invalid breaker open timeout: %w", err)
	}
	return BreakerConfig{
		Enabled:             c.GetBool("breaker.enabled"),
		ConsecutiveFailures: uint32(c.GetInt("breaker.consecutive_failures")),
		OpenTimeout:         openTimeout,
	}, nil
}

// GetStore returns the profile store configuration
func (c *Config) GetStore() StoreConfig {
	return StoreConfig{
		Type:       c.GetString("store.type"),
		SQLitePath: c.GetString("store.sqlite_path"),
		MySQLDSN:   c.GetString("store.mysql_dsn"),
	}
}

// GetSMTP returns the SMTP ingress configuration
func (c *Config) GetSMTP() SMTPConfig {
	return SMTPConfig{
		Enabled:          c.GetBool("server.smtp.enabled"),
		ListenAddress:    c.GetString("server.smtp.listen_address"),
		RelayAddress:     c.GetString("server.smtp.relay_address"),
		CategoryHeader:   c.GetString("server.smtp.category_header"),
		ConfidenceHeader: c.GetString("server.smtp.confidence_header"),
		TierHeader:       c.GetString("server.smtp.tier_header"),
	}
}
