// Package heuristic implements the deterministic last-resort classifier.
// It runs only when every LLM tier has failed, never blocks and never
// fails, and marks its results with a fixed low confidence so consumers
// can tell them apart from AI verdicts.
package heuristic

import (
	"strings"

	"github.com/mikey/llm-email-triage/internal/core"
	"github.com/mikey/llm-email-triage/internal/nlp"
	"github.com/mikey/llm-email-triage/internal/normalize"
	"go.uber.org/zap"
)

const (
	// Confidence is the fixed reduced-trust score for heuristic verdicts
	Confidence = 0.3

	// Reasoning is the fixed justification attached to every heuristic
	// verdict; consumers look for this marker to detect the fallback
	Reasoning = "Heuristic fallback used - classification not verified by AI"

	defaultRecipient = "cliente@email.com"
	defaultSubject   = "Re: Seu contato"
)

// productiveKeywords is matched accent-folded, so "dúvida" and "duvida"
// both hit
var productiveKeywords = []string{
	"problema", "duvida", "solicitacao", "urgente", "help", "suporte",
}

const productiveBody = "Prezado(a),\n\n" +
	"Recebemos sua mensagem e nossa equipe irá analisá-la. " +
	"Retornaremos o contato em breve.\n\n" +
	"Atenciosamente,\nEquipe de Suporte"

const unproductiveBody = "Prezado(a),\n\n" +
	"Agradecemos seu contato.\n\n" +
	"Atenciosamente,\nEquipe"

// Classifier is the keyword-based fallback classifier
type Classifier struct {
	features *nlp.Extractor
	logger   *zap.Logger
}

// New creates a new heuristic classifier
func New(features *nlp.Extractor, logger *zap.Logger) *Classifier {
	return &Classifier{
		features: features,
		logger:   logger,
	}
}

// Classify categorizes an email without any network call. Productive when
// the content carries a known action keyword or the feature extractor
// finds a clear technical/business/support signal; unproductive otherwise.
func (c *Classifier) Classify(email *core.Email) *core.Verdict {
	category := core.CategoryUnproductive

	folded := nlp.Fold(email.Content)
	for _, kw := range productiveKeywords {
		if strings.Contains(folded, kw) {
			category = core.CategoryProductive
			break
		}
	}

	if category == core.CategoryUnproductive {
		if f := c.features.Extract(email.Content, email.Subject); f.Category == "productive" {
			category = core.CategoryProductive
		}
	}

	c.logger.Debug("Heuristic verdict",
		zap.String("category", string(category)),
		zap.Float64("confidence", Confidence))

	confidence := Confidence
	return &core.Verdict{
		Category:   category,
		Confidence: &confidence,
		Reasoning:  Reasoning,
		Response:   cannedResponse(email, category),
		Model:      "heuristic",
	}
}

// cannedResponse returns one of the two fixed reply templates. Recipient
// and subject resolve the same way the prompt path does: explicit fields
// first, then what the normalizer finds in the content, then the defaults.
func cannedResponse(email *core.Email, category core.Category) core.StructuredResponse {
	n := normalize.Normalize(email.Content)

	to := defaultRecipient
	if strings.Contains(email.Sender, "@") {
		to = email.Sender
	} else if n.SenderEmail != "" {
		to = n.SenderEmail
	}

	subject := defaultSubject
	if email.Subject != "" {
		subject = "Re: " + email.Subject
	} else if n.Subject != "" {
		subject = "Re: " + n.Subject
	}

	body := unproductiveBody
	if category == core.CategoryProductive {
		body = productiveBody
	}

	return core.StructuredResponse{
		To:      to,
		Subject: subject,
		Body:    body,
	}
}
