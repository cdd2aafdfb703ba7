package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"github.com/mikey/llm-email-triage/internal/core"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// GeminiClient is a classification tier backed by Google Gemini
type GeminiClient struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	tierName  string
	modelName string
	logger    *zap.Logger
}

// triageReply represents the structured reply requested from the model
type triageReply struct {
	Category   string   `json:"category"`
	Confidence *float64 `json:"confidence"`
	Reasoning  string   `json:"reasoning"`
	Response   struct {
		To      string `json:"to"`
		Subject string `json:"subject"`
		Body    string `json:"body"`
	} `json:"response"`
}

// NewGeminiClient creates a new Gemini tier client
func NewGeminiClient(
	apiKey string,
	tierName string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	logger *zap.Logger,
) (*GeminiClient, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.SetTopP(topP)
	model.SetMaxOutputTokens(int32(maxTokens))

	return &GeminiClient{
		client:    client,
		model:     model,
		tierName:  tierName,
		modelName: modelName,
		logger:    logger,
	}, nil
}

// Name identifies the tier
func (c *GeminiClient) Name() string {
	return c.tierName
}

// Close closes the Gemini client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// Classify sends the prompt to Gemini and parses the structured verdict
func (c *GeminiClient) Classify(ctx context.Context, prompt string) (*core.Verdict, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return nil, core.NewProviderTimeout(c.tierName, err)
		}
		return nil, core.NewProviderUnavailable(c.tierName, err)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, core.NewProviderMalformedReply(c.tierName, errors.New("empty response from Gemini"))
	}

	responseText := fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0])

	verdict, err := parseVerdict(responseText, c.modelName)
	if err != nil {
		c.logger.Debug("Failed to parse Gemini reply",
			zap.String("tier", c.tierName),
			zap.Error(err))
		return nil, core.NewProviderMalformedReply(c.tierName, err)
	}

	return verdict, nil
}

// parseVerdict parses the model's reply, tolerating surrounding prose by
// extracting the outermost JSON object
func parseVerdict(responseText, modelName string) (*core.Verdict, error) {
	var reply triageReply
	if err := json.Unmarshal([]byte(responseText), &reply); err != nil {
		jsonStart := -1
		jsonEnd := -1

		for i := 0; i < len(responseText); i++ {
			if responseText[i] == '{' {
				jsonStart = i
				break
			}
		}
		for i := len(responseText) - 1; i >= 0; i-- {
			if responseText[i] == '}' {
				jsonEnd = i + 1
				break
			}
		}

		if jsonStart < 0 || jsonStart >= jsonEnd {
			return nil, fmt.Errorf("failed to extract JSON from reply: %w", err)
		}
		if err := json.Unmarshal([]byte(responseText[jsonStart:jsonEnd]), &reply); err != nil {
			return nil, fmt.Errorf("failed to parse reply as JSON: %w", err)
		}
	}

	return verdictFromReply(reply, modelName)
}

// verdictFromReply validates the parsed reply against the tier contract.
// A well-formed reply with a wrong category token is a parse failure, not
// a silent default.
func verdictFromReply(reply triageReply, modelName string) (*core.Verdict, error) {
	category := core.Category(reply.Category)
	if !category.Valid() {
		return nil, fmt.Errorf("invalid category token %q", reply.Category)
	}
	if reply.Reasoning == "" {
		return nil, errors.New("reply has empty reasoning")
	}
	if reply.Response.To == "" || reply.Response.Subject == "" || reply.Response.Body == "" {
		return nil, errors.New("reply has incomplete suggested response")
	}
	if reply.Confidence != nil && (*reply.Confidence < 0 || *reply.Confidence > 1) {
		return nil, fmt.Errorf("confidence %v outside [0,1]", *reply.Confidence)
	}

	return &core.Verdict{
		Category:   category,
		Confidence: reply.Confidence,
		Reasoning:  reply.Reasoning,
		Response: core.StructuredResponse{
			To:      reply.Response.To,
			Subject: reply.Response.Subject,
			Body:    reply.Response.Body,
		},
		Model: modelName,
	}, nil
}
