package core

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeTier struct {
	name    string
	verdict *Verdict
	err     error
	block   bool
	calls   int32
}

func (f *fakeTier) Name() string { return f.name }

func (f *fakeTier) Classify(ctx context.Context, _ string) (*Verdict, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.block {
		<-ctx.Done()
		return nil, NewProviderTimeout(f.name, ctx.Err())
	}
	return f.verdict, f.err
}

func (f *fakeTier) callCount() int32 {
	return atomic.LoadInt32(&f.calls)
}

type fakeHeuristic struct {
	calls int32
}

func (f *fakeHeuristic) Classify(_ *Email) *Verdict {
	atomic.AddInt32(&f.calls, 1)
	conf := 0.3
	return &Verdict{
		Category:   CategoryProductive,
		Confidence: &conf,
		Reasoning:  "Heuristic fallback used - classification not verified by AI",
		Response: StructuredResponse{
			To:      "cliente@email.com",
			Subject: "Re: Seu contato",
			Body:    "Prezado(a),\n\nRecebemos sua mensagem.",
		},
		Model: "heuristic",
	}
}

type fixedBuilder struct{}

func (fixedBuilder) Build(_ *Email, _ *CompanyProfile) string { return "prompt" }

func tierVerdict(category Category, confidence float64) *Verdict {
	return &Verdict{
		Category:   category,
		Confidence: &confidence,
		Reasoning:  "clear support request",
		Response: StructuredResponse{
			To:      "sender@example.com",
			Subject: "Re: Pedido",
			Body:    "Olá",
		},
		Model: "test-model",
	}
}

func newPipeline(tiers []TierClassifier, fallback HeuristicClassifier, heuristicEnabled bool) *Pipeline {
	return NewPipeline(tiers, fallback, fixedBuilder{}, zap.NewNop(),
		time.Second, 200*time.Millisecond, heuristicEnabled)
}

func TestProcessPrimarySuccessSkipsRest(t *testing.T) {
	primary := &fakeTier{name: "primary", verdict: tierVerdict(CategoryProductive, 0.9)}
	secondary := &fakeTier{name: "secondary", verdict: tierVerdict(CategoryProductive, 0.8)}
	fallback := &fakeHeuristic{}
	p := newPipeline([]TierClassifier{primary, secondary}, fallback, true)

	result, err := p.Process(context.Background(), &Email{Content: "Preciso de ajuda"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Tier != "primary" {
		t.Fatalf("expected tier primary, got %q", result.Tier)
	}
	if secondary.callCount() != 0 {
		t.Fatalf("secondary tier should not be invoked, got %d calls", secondary.callCount())
	}
	if atomic.LoadInt32(&fallback.calls) != 0 {
		t.Fatalf("heuristic should not be invoked")
	}
	if result.ID == "" {
		t.Fatalf("result must carry an id")
	}
}

func TestProcessEscalatesToSecondary(t *testing.T) {
	primary := &fakeTier{name: "primary", err: NewProviderUnavailable("primary", errors.New("503"))}
	secondary := &fakeTier{name: "secondary", verdict: tierVerdict(CategoryUnproductive, 0.7)}
	p := newPipeline([]TierClassifier{primary, secondary}, &fakeHeuristic{}, true)

	result, err := p.Process(context.Background(), &Email{Content: "Obrigado por tudo"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Tier != "secondary" {
		t.Fatalf("expected tier secondary, got %q", result.Tier)
	}
	if result.Category != CategoryUnproductive {
		t.Fatalf("expected unproductive, got %q", result.Category)
	}
	if primary.callCount() != 1 {
		t.Fatalf("primary should be tried once, got %d", primary.callCount())
	}
}

func TestProcessFallsBackToHeuristic(t *testing.T) {
	primary := &fakeTier{name: "primary", err: NewProviderTimeout("primary", context.DeadlineExceeded)}
	secondary := &fakeTier{name: "secondary", err: NewProviderMalformedReply("secondary", errors.New("bad json"))}
	fallback := &fakeHeuristic{}
	p := newPipeline([]TierClassifier{primary, secondary}, fallback, true)

	result, err := p.Process(context.Background(), &Email{Content: "Preciso de ajuda"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Tier != "heuristic" {
		t.Fatalf("expected tier heuristic, got %q", result.Tier)
	}
	if result.Confidence == nil || *result.Confidence != 0.3 {
		t.Fatalf("expected fallback confidence 0.3, got %v", result.Confidence)
	}
	if result.Reasoning != "Heuristic fallback used - classification not verified by AI" {
		t.Fatalf("unexpected fallback reasoning %q", result.Reasoning)
	}
}

func TestProcessEmptyContent(t *testing.T) {
	p := newPipeline(nil, &fakeHeuristic{}, true)

	if _, err := p.Process(context.Background(), &Email{Content: "   \n\t"}, nil); !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("expected ErrEmptyContent, got %v", err)
	}
}

func TestProcessExhaustedWithoutHeuristic(t *testing.T) {
	primary := &fakeTier{name: "primary", err: NewProviderUnavailable("primary", errors.New("down"))}
	p := newPipeline([]TierClassifier{primary}, &fakeHeuristic{}, false)

	if _, err := p.Process(context.Background(), &Email{Content: "Preciso de ajuda"}, nil); !errors.Is(err, ErrPipelineExhausted) {
		t.Fatalf("expected ErrPipelineExhausted, got %v", err)
	}
}

func TestProcessAbandonsHungTier(t *testing.T) {
	hung := &fakeTier{name: "primary", block: true}
	fallback := &fakeHeuristic{}
	p := newPipeline([]TierClassifier{hung}, fallback, true)

	start := time.Now()
	result, err := p.Process(context.Background(), &Email{Content: "Preciso de ajuda"}, nil)
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Tier != "heuristic" {
		t.Fatalf("expected heuristic result, got tier %q", result.Tier)
	}
	// tier timeout is 200ms; allow generous scheduling slack
	if elapsed > time.Second {
		t.Fatalf("hung tier was not abandoned, took %v", elapsed)
	}
}

func TestProcessResultTiming(t *testing.T) {
	primary := &fakeTier{name: "primary", verdict: tierVerdict(CategoryProductive, 0.9)}
	p := newPipeline([]TierClassifier{primary}, &fakeHeuristic{}, true)

	before := time.Now()
	result, err := p.Process(context.Background(), &Email{Content: "Preciso de ajuda"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ProcessedAt.Before(before) {
		t.Fatalf("ProcessedAt %v precedes the start of processing %v", result.ProcessedAt, before)
	}
}
