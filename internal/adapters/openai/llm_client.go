package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mikey/llm-email-triage/internal/core"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIClient is a classification tier backed by OpenAI chat completions
type OpenAIClient struct {
	client      *openai.Client
	tierName    string
	modelName   string
	maxTokens   int
	temperature float32
	topP        float32
	logger      *zap.Logger
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

// NewOpenAIClient creates a new OpenAI tier client
func NewOpenAIClient(
	client *openai.Client,
	tierName string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	logger *zap.Logger,
) *OpenAIClient {
	return &OpenAIClient{
		client:      client,
		tierName:    tierName,
		modelName:   modelName,
		maxTokens:   maxTokens,
		temperature: temperature,
		topP:        topP,
		logger:      logger,
	}
}

// Name identifies the tier
func (c *OpenAIClient) Name() string {
	return c.tierName
}

// buildRequest assembles the chat completion request for one prompt. The
// response format pins the reply to a JSON object so parsing never has to
// fight prose-only replies.
func (c *OpenAIClient) buildRequest(prompt string) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "Você é um assistente de triagem de emails. Responda somente com JSON.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		TopP:        c.topP,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}
}

// Classify sends the prompt to OpenAI and parses the structured verdict
func (c *OpenAIClient) Classify(ctx context.Context, prompt string) (*core.Verdict, error) {
	resp, err := c.client.CreateChatCompletion(ctx, c.buildRequest(prompt))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return nil, core.NewProviderTimeout(c.tierName, err)
		}
		return nil, core.NewProviderUnavailable(c.tierName, err)
	}

	if len(resp.Choices) == 0 {
		return nil, core.NewProviderMalformedReply(c.tierName, errors.New("empty response from OpenAI"))
	}

	verdict, err := parseVerdict(resp.Choices[0].Message.Content, c.modelName)
	if err != nil {
		c.logger.Debug("Failed to parse OpenAI reply",
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

// verdictFromReply validates the parsed reply against the tier contract
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
