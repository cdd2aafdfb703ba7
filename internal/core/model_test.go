package core

import "testing"

func TestReclassify(t *testing.T) {
	result := &ClassificationResult{
		Category:  CategoryProductive,
		Reasoning: "clear support request",
	}

	if err := result.Reclassify(CategoryUnproductive); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Category != CategoryUnproductive {
		t.Fatalf("expected category to change, got %q", result.Category)
	}
	if result.Reasoning != "clear support request" {
		t.Fatalf("reasoning must not change on reclassification")
	}
}

func TestReclassifyInvalidCategory(t *testing.T) {
	result := &ClassificationResult{Category: CategoryProductive}

	if err := result.Reclassify(Category("spam")); err == nil {
		t.Fatalf("expected error for unknown category")
	}
	if result.Category != CategoryProductive {
		t.Fatalf("category must not change on invalid input, got %q", result.Category)
	}
}

func TestCategoryValid(t *testing.T) {
	if !CategoryProductive.Valid() || !CategoryUnproductive.Valid() {
		t.Fatalf("known categories must be valid")
	}
	if Category("").Valid() || Category("Productive").Valid() {
		t.Fatalf("unknown category tokens must be invalid")
	}
}
