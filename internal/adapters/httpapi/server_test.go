package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mikey/llm-email-triage/internal/adapters/store"
	"github.com/mikey/llm-email-triage/internal/core"
	"go.uber.org/zap"
)

type stubTier struct {
	name    string
	verdict *core.Verdict
	err     error
}

func (s *stubTier) Name() string { return s.name }

func (s *stubTier) Classify(_ context.Context, _ string) (*core.Verdict, error) {
	return s.verdict, s.err
}

type stubHeuristic struct{}

func (stubHeuristic) Classify(_ *core.Email) *core.Verdict {
	conf := 0.3
	return &core.Verdict{
		Category:   core.CategoryProductive,
		Confidence: &conf,
		Reasoning:  "Heuristic fallback used - classification not verified by AI",
		Response: core.StructuredResponse{
			To:      "cliente@email.com",
			Subject: "Re: Seu contato",
			Body:    "Prezado(a),\n\nRecebemos sua mensagem.",
		},
		Model: "heuristic",
	}
}

type stubBuilder struct{}

func (stubBuilder) Build(_ *core.Email, _ *core.CompanyProfile) string { return "prompt" }

func newTestServer(t *testing.T, tiers []core.TierClassifier) *Server {
	t.Helper()
	logger := zap.NewNop()
	pipeline := core.NewPipeline(tiers, stubHeuristic{}, stubBuilder{}, logger,
		2*time.Second, time.Second, true)
	profiles := store.NewMemoryStore(logger)
	return NewServer(pipeline, profiles, logger, "127.0.0.1:0", 10000, 1<<20)
}

func doJSON(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)
	return w
}

func TestClassifyEmail(t *testing.T) {
	conf := 0.92
	tier := &stubTier{
		name: "primary",
		verdict: &core.Verdict{
			Category:   core.CategoryProductive,
			Confidence: &conf,
			Reasoning:  "pedido de suporte com prazo",
			Response: core.StructuredResponse{
				To:      "joao@example.com",
				Subject: "Re: Dúvida sobre fatura",
				Body:    "Olá,\n\nVamos verificar.\n\nAtenciosamente,\nEquipe de Suporte",
			},
			Model: "gemini-2.5-flash-lite",
		},
	}
	s := newTestServer(t, []core.TierClassifier{tier})

	w := doJSON(t, s, http.MethodPost, "/classify-email",
		`{"content":"Preciso de ajuda com um problema urgente","sender":"joao@example.com"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp classifyResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Category != "productive" {
		t.Fatalf("expected productive, got %q", resp.Category)
	}
	if resp.Tier != "primary" {
		t.Fatalf("expected tier primary, got %q", resp.Tier)
	}
	if resp.Confidence == nil || *resp.Confidence != 0.92 {
		t.Fatalf("expected confidence 0.92, got %v", resp.Confidence)
	}
	if resp.SuggestedResponse.To != "joao@example.com" {
		t.Fatalf("unexpected reply recipient %q", resp.SuggestedResponse.To)
	}
	if _, err := time.Parse(time.RFC3339, resp.ProcessedAt); err != nil {
		t.Fatalf("processedAt is not RFC3339: %v", err)
	}
}

func TestClassifyEmailEmptyContent(t *testing.T) {
	s := newTestServer(t, nil)

	w := doJSON(t, s, http.MethodPost, "/classify-email", `{"content":"   "}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestClassifyEmailContentTooLong(t *testing.T) {
	s := newTestServer(t, nil)

	body, _ := json.Marshal(map[string]string{"content": strings.Repeat("a", 10001)})
	w := doJSON(t, s, http.MethodPost, "/classify-email", string(body))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestClassifyEmailFallsBackToHeuristic(t *testing.T) {
	tier := &stubTier{
		name: "primary",
		err:  core.NewProviderUnavailable("primary", context.DeadlineExceeded),
	}
	s := newTestServer(t, []core.TierClassifier{tier})

	w := doJSON(t, s, http.MethodPost, "/classify-email", `{"content":"Preciso de ajuda"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp classifyResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Tier != "heuristic" {
		t.Fatalf("expected heuristic tier, got %q", resp.Tier)
	}
}

func TestCompanyConfigRoundTrip(t *testing.T) {
	s := newTestServer(t, nil)

	w := doJSON(t, s, http.MethodPost, "/company-config",
		`{"company_name":"Acme Corp","custom_instructions":"Responder em tom formal"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var created struct {
		ConfigID string `json:"config_id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(created.ConfigID) != 8 {
		t.Fatalf("expected 8-char config id, got %q", created.ConfigID)
	}

	// Re-save with the same id keeps the id and updates fields
	w = doJSON(t, s, http.MethodPost, "/company-config",
		`{"company_name":"Acme Corp","custom_instructions":"Tom informal","config_id":"`+created.ConfigID+`"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var updated struct {
		ConfigID string `json:"config_id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &updated); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if updated.ConfigID != created.ConfigID {
		t.Fatalf("expected id %q to be preserved, got %q", created.ConfigID, updated.ConfigID)
	}

	w = doJSON(t, s, http.MethodGet, "/company-config/"+created.ConfigID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Tom informal") {
		t.Fatalf("expected updated instructions in response: %s", w.Body.String())
	}
}

func TestCompanyConfigNotFound(t *testing.T) {
	s := newTestServer(t, nil)

	w := doJSON(t, s, http.MethodGet, "/company-config/MISSING1", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestExtractText(t *testing.T) {
	s := newTestServer(t, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "email.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := fw.Write([]byte("Preciso de ajuda com minha conta")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/extract-text", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Text     string `json:"text"`
		Filename string `json:"filename"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Text != "Preciso de ajuda com minha conta" {
		t.Fatalf("unexpected text %q", resp.Text)
	}
	if resp.Filename != "email.txt" {
		t.Fatalf("unexpected filename %q", resp.Filename)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)

	w := doJSON(t, s, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "healthy") {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}
