package gemini

import (
	"strings"
	"testing"

	"github.com/mikey/llm-email-triage/internal/core"
)

const validReply = `{
  "category": "productive",
  "confidence": 0.87,
  "reasoning": "O remetente relata um problema de acesso.",
  "response": {
    "to": "joao@cliente.com",
    "subject": "Re: Problema no acesso",
    "body": "Olá, vamos verificar.\n\nAtenciosamente,\nEquipe de Suporte"
  }
}`

func TestParseVerdict(t *testing.T) {
	v, err := parseVerdict(validReply, "gemini-2.5-flash-lite")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Category != core.CategoryProductive {
		t.Fatalf("unexpected category %q", v.Category)
	}
	if v.Confidence == nil || *v.Confidence != 0.87 {
		t.Fatalf("unexpected confidence %v", v.Confidence)
	}
	if v.Model != "gemini-2.5-flash-lite" {
		t.Fatalf("unexpected model %q", v.Model)
	}
}

func TestParseVerdictWithSurroundingProse(t *testing.T) {
	wrapped := "Claro! Aqui está a classificação:\n```json\n" + validReply + "\n```\nEspero ter ajudado."

	v, err := parseVerdict(wrapped, "gemini-2.5-flash-lite")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Category != core.CategoryProductive {
		t.Fatalf("unexpected category %q", v.Category)
	}
}

func TestParseVerdictRejectsUnknownCategory(t *testing.T) {
	reply := strings.Replace(validReply, `"productive"`, `"spam"`, 1)

	if _, err := parseVerdict(reply, "gemini-2.5-flash-lite"); err == nil {
		t.Fatalf("expected error for unknown category token")
	}
}

func TestParseVerdictRejectsOutOfRangeConfidence(t *testing.T) {
	reply := strings.Replace(validReply, "0.87", "1.5", 1)

	if _, err := parseVerdict(reply, "gemini-2.5-flash-lite"); err == nil {
		t.Fatalf("expected error for confidence outside [0,1]")
	}
}

func TestParseVerdictRejectsIncompleteResponse(t *testing.T) {
	reply := strings.Replace(validReply, `"joao@cliente.com"`, `""`, 1)

	if _, err := parseVerdict(reply, "gemini-2.5-flash-lite"); err == nil {
		t.Fatalf("expected error for incomplete suggested response")
	}
}

func TestParseVerdictAllowsMissingConfidence(t *testing.T) {
	reply := strings.Replace(validReply, `"confidence": 0.87,`, "", 1)

	v, err := parseVerdict(reply, "gemini-2.5-flash-lite")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Confidence != nil {
		t.Fatalf("expected nil confidence, got %v", *v.Confidence)
	}
}

func TestParseVerdictRejectsGarbage(t *testing.T) {
	if _, err := parseVerdict("desculpe, não consegui processar", "gemini-2.5-flash-lite"); err == nil {
		t.Fatalf("expected error for non-JSON reply")
	}
}
