package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/mikey/llm-email-triage/internal/core"
	"go.uber.org/zap"
)

// BedrockClient is a classification tier backed by Amazon Bedrock
type BedrockClient struct {
	client      *bedrockruntime.Client
	tierName    string
	modelID     string
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

// NewBedrockClient creates a new Bedrock tier client
func NewBedrockClient(
	client *bedrockruntime.Client,
	tierName string,
	modelID string,
	maxTokens int,
	temperature float32,
	topP float32,
	logger *zap.Logger,
) *BedrockClient {
	return &BedrockClient{
		client:      client,
		tierName:    tierName,
		modelID:     modelID,
		maxTokens:   maxTokens,
		temperature: temperature,
		topP:        topP,
		logger:      logger,
	}
}

// Name identifies the tier
func (c *BedrockClient) Name() string {
	return c.tierName
}

func (c *BedrockClient) isAnthropicModel() bool {
	return strings.HasPrefix(c.modelID, "anthropic.")
}

func (c *BedrockClient) isAmazonTitanModel() bool {
	return strings.HasPrefix(c.modelID, "amazon.titan")
}

// Classify sends the prompt to Bedrock and parses the structured verdict
func (c *BedrockClient) Classify(ctx context.Context, prompt string) (*core.Verdict, error) {
	var payload []byte
	var err error

	if c.isAnthropicModel() {
		payload, err = json.Marshal(map[string]interface{}{
			"prompt":               prompt,
			"max_tokens_to_sample": c.maxTokens,
			"temperature":          c.temperature,
			"top_p":                c.topP,
		})
	} else if c.isAmazonTitanModel() {
		payload, err = json.Marshal(map[string]interface{}{
			"inputText": prompt,
			"textGenerationConfig": map[string]interface{}{
				"maxTokenCount": c.maxTokens,
				"temperature":   c.temperature,
				"topP":          c.topP,
			},
		})
	} else {
		payload, err = json.Marshal(map[string]interface{}{
			"prompt":      prompt,
			"max_tokens":  c.maxTokens,
			"temperature": c.temperature,
			"top_p":       c.topP,
		})
	}
	if err != nil {
		return nil, core.NewProviderUnavailable(c.tierName, fmt.Errorf("failed to marshal request payload: %w", err))
	}

	resp, err := c.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     &c.modelID,
		Body:        payload,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return nil, core.NewProviderTimeout(c.tierName, err)
		}
		return nil, core.NewProviderUnavailable(c.tierName, err)
	}

	responseText, err := c.extractText(resp.Body)
	if err != nil {
		return nil, core.NewProviderMalformedReply(c.tierName, err)
	}

	verdict, err := parseVerdict(responseText, c.modelID)
	if err != nil {
		c.logger.Debug("Failed to parse Bedrock reply",
			zap.String("tier", c.tierName),
			zap.Error(err))
		return nil, core.NewProviderMalformedReply(c.tierName, err)
	}

	return verdict, nil
}

// extractText pulls the generated text from the model-specific envelope
func (c *BedrockClient) extractText(body []byte) (string, error) {
	if c.isAnthropicModel() {
		var claudeResp struct {
			Completion string `json:"completion"`
		}
		if err := json.Unmarshal(body, &claudeResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Claude response: %w", err)
		}
		return claudeResp.Completion, nil
	}

	if c.isAmazonTitanModel() {
		var titanResp struct {
			Results []struct {
				OutputText string `json:"outputText"`
			} `json:"results"`
		}
		if err := json.Unmarshal(body, &titanResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Titan response: %w", err)
		}
		if len(titanResp.Results) == 0 {
			return "", errors.New("empty response from Titan model")
		}
		return titanResp.Results[0].OutputText, nil
	}

	var genericResp struct {
		Output   string `json:"output"`
		Text     string `json:"text"`
		Response string `json:"response"`
	}
	if err := json.Unmarshal(body, &genericResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal generic response: %w", err)
	}
	switch {
	case genericResp.Output != "":
		return genericResp.Output, nil
	case genericResp.Text != "":
		return genericResp.Text, nil
	case genericResp.Response != "":
		return genericResp.Response, nil
	default:
		return string(body), nil
	}
}

// parseVerdict parses the model's reply, tolerating surrounding prose by
// extracting the outermost JSON object
func parseVerdict(responseText, modelID string) (*core.Verdict, error) {
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

	return verdictFromReply(reply, modelID)
}

// verdictFromReply validates the parsed reply against the tier contract
func verdictFromReply(reply triageReply, modelID string) (*core.Verdict, error) {
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
		Model: modelID,
	}, nil
}
