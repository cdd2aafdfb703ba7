// Package breaker wraps a classification tier with a circuit breaker so a
// provider that keeps failing is skipped immediately instead of burning
// the pipeline deadline on every request.
package breaker

import (
	"context"
	"errors"

	"github.com/mikey/llm-email-triage/internal/config"
	"github.com/mikey/llm-email-triage/internal/core"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Tier decorates a TierClassifier with a circuit breaker
type Tier struct {
	inner  core.TierClassifier
	cb     *gobreaker.CircuitBreaker
	logger *zap.Logger
}

// Wrap decorates a tier with a circuit breaker configured from cfg
func Wrap(inner core.TierClassifier, cfg config.BreakerConfig, logger *zap.Logger) *Tier {
	settings := gobreaker.Settings{
		Name:    inner.Name(),
		Timeout: cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Tier circuit breaker state changed",
				zap.String("tier", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &Tier{
		inner:  inner,
		cb:     gobreaker.NewCircuitBreaker(settings),
		logger: logger,
	}
}

// Name identifies the wrapped tier
func (t *Tier) Name() string {
	return t.inner.Name()
}

// Classify delegates to the wrapped tier through the breaker. An open
// breaker surfaces as a ProviderError so the pipeline escalates without
// waiting.
func (t *Tier) Classify(ctx context.Context, prompt string) (*core.Verdict, error) {
	result, err := t.cb.Execute(func() (interface{}, error) {
		return t.inner.Classify(ctx, prompt)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, core.NewProviderUnavailable(t.inner.Name(), err)
		}
		return nil, err
	}

	verdict, ok := result.(*core.Verdict)
	if !ok || verdict == nil {
		return nil, core.NewProviderMalformedReply(t.inner.Name(), errors.New("tier returned no verdict"))
	}
	return verdict, nil
}
