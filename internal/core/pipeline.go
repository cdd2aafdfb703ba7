package core

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Pipeline drives the classification fallback chain: each configured tier
// is tried in order under one overall deadline, and the heuristic closes
// the chain when every tier fails. Stateless across calls; concurrent
// Process invocations are independent.
type Pipeline struct {
	tiers            []TierClassifier
	heuristic        HeuristicClassifier
	builder          PromptBuilder
	logger           *zap.Logger
	timeout          time.Duration
	tierTimeout      time.Duration
	heuristicEnabled bool
}

// NewPipeline creates a new classification pipeline
func NewPipeline(
	tiers []TierClassifier,
	heuristic HeuristicClassifier,
	builder PromptBuilder,
	logger *zap.Logger,
	timeout time.Duration,
	tierTimeout time.Duration,
	heuristicEnabled bool,
) *Pipeline {
	return &Pipeline{
		tiers:            tiers,
		heuristic:        heuristic,
		builder:          builder,
		logger:           logger,
		timeout:          timeout,
		tierTimeout:      tierTimeout,
		heuristicEnabled: heuristicEnabled,
	}
}

// Process classifies an email and generates a suggested reply. It returns
// exactly one result for any non-empty input: tier failures escalate down
// the chain and the heuristic cannot fail. ErrPipelineExhausted is only
// possible when the heuristic is disabled by configuration.
func (p *Pipeline) Process(ctx context.Context, email *Email, profile *CompanyProfile) (*ClassificationResult, error) {
	if strings.TrimSpace(email.Content) == "" {
		return nil, ErrEmptyContent
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	prompt := p.builder.Build(email, profile)

	for _, tier := range p.tiers {
		tierCtx, tierCancel := context.WithTimeout(ctx, p.tierTimeout)
		verdict, err := p.attempt(tierCtx, tier, prompt)
		tierCancel()

		if err == nil {
			p.logger.Info("Tier classified email",
				zap.String("tier", tier.Name()),
				zap.String("category", string(verdict.Category)),
				zap.Duration("elapsed", time.Since(start)))
			return p.assemble(email, verdict, tier.Name(), start), nil
		}

		var provErr *ProviderError
		if errors.As(err, &provErr) {
			p.logger.Warn("Tier failed, escalating",
				zap.String("tier", tier.Name()),
				zap.String("kind", provErr.Kind.String()),
				zap.Error(provErr.Err))
		} else {
			p.logger.Warn("Tier failed with untyped error, escalating",
				zap.String("tier", tier.Name()),
				zap.Error(err))
		}

		// Overall deadline reached mid-tier: skip straight to the fallback
		if ctx.Err() != nil {
			p.logger.Warn("Pipeline deadline reached, skipping remaining tiers",
				zap.Duration("elapsed", time.Since(start)))
			break
		}
	}

	if !p.heuristicEnabled {
		return nil, ErrPipelineExhausted
	}

	verdict := p.heuristic.Classify(email)
	p.logger.Info("Heuristic fallback classified email",
		zap.String("category", string(verdict.Category)),
		zap.Duration("elapsed", time.Since(start)))
	return p.assemble(email, verdict, "heuristic", start), nil
}

// attempt runs one tier call in its own goroutine so a hung provider is
// abandoned at the deadline; the remote request is not aborted, only the
// wait on it.
func (p *Pipeline) attempt(ctx context.Context, tier TierClassifier, prompt string) (*Verdict, error) {
	type outcome struct {
		verdict *Verdict
		err     error
	}
	ch := make(chan outcome, 1)

	go func() {
		verdict, err := tier.Classify(ctx, prompt)
		ch <- outcome{verdict: verdict, err: err}
	}()

	select {
	case o := <-ch:
		if o.err != nil {
			return nil, o.err
		}
		if o.verdict == nil {
			return nil, NewProviderMalformedReply(tier.Name(), errors.New("tier returned no verdict"))
		}
		return o.verdict, nil
	case <-ctx.Done():
		return nil, NewProviderTimeout(tier.Name(), ctx.Err())
	}
}

// assemble builds the final result from a tier verdict
func (p *Pipeline) assemble(email *Email, verdict *Verdict, tier string, start time.Time) *ClassificationResult {
	processedAt := time.Now()
	if processedAt.Before(start) {
		processedAt = start
	}
	return &ClassificationResult{
		ID:                uuid.NewString(),
		Email:             *email,
		Category:          verdict.Category,
		Confidence:        verdict.Confidence,
		Reasoning:         verdict.Reasoning,
		SuggestedResponse: verdict.Response,
		Tier:              tier,
		ProcessedAt:       processedAt,
	}
}
