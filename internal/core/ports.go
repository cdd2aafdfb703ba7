package core

import (
	"context"
)

// TierClassifier is one stage in the classification fallback chain. All
// tiers share the same contract; only the underlying provider and model
// differ. Failures must be reported as *ProviderError.
type TierClassifier interface {
	// Name identifies the tier in logs and results
	Name() string

	// Classify sends the prompt to the provider and parses the reply
	Classify(ctx context.Context, prompt string) (*Verdict, error)
}

// HeuristicClassifier is the deterministic last-resort classifier. It
// never fails and never blocks.
type HeuristicClassifier interface {
	Classify(email *Email) *Verdict
}

// PromptBuilder assembles the classification-and-response prompt from an
// email and an optional company profile. Deterministic for equal inputs.
type PromptBuilder interface {
	Build(email *Email, profile *CompanyProfile) string
}

// ProfileStore persists company profiles keyed by an opaque config id
type ProfileStore interface {
	// Save stores a profile. An empty ConfigID gets a newly assigned id;
	// an existing id overwrites the prior values.
	Save(ctx context.Context, profile *CompanyProfile) (*CompanyProfile, error)

	// Get retrieves a profile by config id, or ErrProfileNotFound
	Get(ctx context.Context, configID string) (*CompanyProfile, error)

	// Delete removes a profile
	Delete(ctx context.Context, configID string) error

	// Close releases any underlying resources
	Close() error
}
