package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"go.uber.org/zap"
)

func TestTruncateTextKeepsShortInput(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	if got := tp.TruncateText("curto", 100); got != "curto" {
		t.Fatalf("short input must pass through, got %q", got)
	}
}

func TestTruncateTextRespectsRuneBoundaries(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	// "ção" is multibyte; cut inside the rune and the result must stay valid
	text := strings.Repeat("solicitação ", 20)
	for max := 10; max < 30; max++ {
		got := tp.TruncateText(text, max)
		if !utf8.ValidString(got) {
			t.Fatalf("truncated text is not valid UTF-8 at max %d: %q", max, got)
		}
	}
}

func TestTruncateTextAddsMarker(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	got := tp.TruncateText(strings.Repeat("a", 50), 10)
	if !strings.HasSuffix(got, "[... conteúdo truncado ...]") {
		t.Fatalf("expected truncation marker, got %q", got)
	}
}

func TestSanitizeUTF8DropsInvalidBytes(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	got := tp.SanitizeUTF8("ol\xffá")
	if !utf8.ValidString(got) {
		t.Fatalf("sanitized text is not valid UTF-8: %q", got)
	}
	if got != "olá" {
		t.Fatalf("expected invalid byte to be dropped, got %q", got)
	}
}
