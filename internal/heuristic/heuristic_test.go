package heuristic

import (
	"strings"
	"testing"

	"github.com/mikey/llm-email-triage/internal/core"
	"github.com/mikey/llm-email-triage/internal/nlp"
	"go.uber.org/zap"
)

func newClassifier() *Classifier {
	logger := zap.NewNop()
	return New(nlp.NewExtractor(logger), logger)
}

func TestClassifyKeywordProductive(t *testing.T) {
	c := newClassifier()

	v := c.Classify(&core.Email{Content: "Preciso de ajuda com um problema urgente"})
	if v.Category != core.CategoryProductive {
		t.Fatalf("expected productive, got %q", v.Category)
	}
	if v.Confidence == nil || *v.Confidence != Confidence {
		t.Fatalf("expected fixed confidence %.1f, got %v", Confidence, v.Confidence)
	}
	if v.Reasoning != Reasoning {
		t.Fatalf("expected fallback reasoning marker, got %q", v.Reasoning)
	}
	if v.Model != "heuristic" {
		t.Fatalf("expected model heuristic, got %q", v.Model)
	}
	if !strings.Contains(v.Response.Body, "Recebemos sua mensagem") {
		t.Fatalf("expected productive reply template, got %q", v.Response.Body)
	}
}

func TestClassifySocialUnproductive(t *testing.T) {
	c := newClassifier()

	v := c.Classify(&core.Email{Content: "Feliz aniversário! Parabéns pela conquista"})
	if v.Category != core.CategoryUnproductive {
		t.Fatalf("expected unproductive, got %q", v.Category)
	}
	if !strings.Contains(v.Response.Body, "Agradecemos seu contato") {
		t.Fatalf("expected unproductive reply template, got %q", v.Response.Body)
	}
}

func TestClassifyMatchesAccentedKeywords(t *testing.T) {
	c := newClassifier()

	v := c.Classify(&core.Email{Content: "Tenho uma dúvida sobre o contrato"})
	if v.Category != core.CategoryProductive {
		t.Fatalf("expected accented keyword to match, got %q", v.Category)
	}
}

func TestClassifyDeterministic(t *testing.T) {
	c := newClassifier()
	email := &core.Email{Content: "Bom dia, tudo bem com vocês?"}

	first := c.Classify(email)
	for i := 0; i < 5; i++ {
		if v := c.Classify(email); v.Category != first.Category {
			t.Fatalf("classification changed between identical calls")
		}
	}
}

func TestCannedResponseAddressing(t *testing.T) {
	c := newClassifier()

	v := c.Classify(&core.Email{
		Content: "Preciso de suporte",
		Subject: "Acesso ao sistema",
		Sender:  "ana@cliente.com",
	})
	if v.Response.To != "ana@cliente.com" {
		t.Fatalf("expected reply addressed to the sender, got %q", v.Response.To)
	}
	if v.Response.Subject != "Re: Acesso ao sistema" {
		t.Fatalf("unexpected reply subject %q", v.Response.Subject)
	}

	v = c.Classify(&core.Email{Content: "Preciso de suporte"})
	if v.Response.To != "cliente@email.com" {
		t.Fatalf("expected default recipient, got %q", v.Response.To)
	}
	if v.Response.Subject != "Re: Seu contato" {
		t.Fatalf("expected default subject, got %q", v.Response.Subject)
	}
}

func TestCannedResponseUsesNormalizedFields(t *testing.T) {
	c := newClassifier()

	// No explicit sender or subject; both live inside the content
	v := c.Classify(&core.Email{
		Content: "Assunto: Problema no acesso\n\nNão consigo entrar no sistema.\n\nAtenciosamente,\nMaria Souza\nmaria@cliente.com",
	})
	if v.Response.To != "maria@cliente.com" {
		t.Fatalf("expected reply addressed to the extracted sender, got %q", v.Response.To)
	}
	if v.Response.Subject != "Re: Problema no acesso" {
		t.Fatalf("expected reply subject from the extracted subject, got %q", v.Response.Subject)
	}
}
