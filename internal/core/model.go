package core

import (
	"fmt"
	"time"
)

// Category is the triage decision for an email
type Category string

const (
	// CategoryProductive marks an email that requires action or a response
	CategoryProductive Category = "productive"
	// CategoryUnproductive marks a social or personal email with no action needed
	CategoryUnproductive Category = "unproductive"
)

// Valid reports whether c is one of the two known categories
func (c Category) Valid() bool {
	return c == CategoryProductive || c == CategoryUnproductive
}

// Email represents an inbound email submitted for classification.
// Immutable once created; Subject and Sender are best-effort and may be empty.
type Email struct {
	ID        string
	Content   string
	Subject   string
	Sender    string
	Timestamp time.Time
}

// CompanyProfile is an optional named configuration merged into the
// classification prompt so generated replies carry the company's tone
type CompanyProfile struct {
	ConfigID           string
	CompanyName        string
	CustomInstructions string
	CreatedAt          time.Time
}

// StructuredResponse is the generated reply broken into discrete fields
type StructuredResponse struct {
	To      string
	Subject string
	Body    string
}

// Verdict is what a single tier produces: the decision plus the reply.
// Confidence is nil when the tier did not report one.
type Verdict struct {
	Category   Category
	Confidence *float64
	Reasoning  string
	Response   StructuredResponse
	Model      string
}

// ClassificationResult is the pipeline's output for one email
type ClassificationResult struct {
	ID                string
	Email             Email
	Category          Category
	Confidence        *float64
	Reasoning         string
	SuggestedResponse StructuredResponse
	Tier              string
	ProcessedAt       time.Time
}

// Reclassify applies a user-initiated category override. Only the category
// changes; Reasoning and SuggestedResponse keep describing the original
// decision.
func (r *ClassificationResult) Reclassify(category Category) error {
	if !category.Valid() {
		return fmt.Errorf("invalid category %q", category)
	}
	r.Category = category
	return nil
}
