package engine

import (
	"math/rand"
	"testing"

	"flag-quiz-service/internal/domain"
)

func TestBuildOptionsAlwaysHoldsCorrectAnswer(t *testing.T) {
	catalog := domain.DefaultCatalog()
	for seed := int64(1); seed <= 50; seed++ {
		rnd := rand.New(rand.NewSource(seed))
		for idx := range catalog {
			options := buildOptions(catalog, idx, rnd)
			assertOptionSet(t, options, catalog[idx].Country)
		}
	}
}

func TestBuildOptionsSkipsDuplicateCountries(t *testing.T) {
	catalog := domain.Catalog{
		{ImageRef: "a1", Country: "A"},
		{ImageRef: "a2", Country: "A"},
		{ImageRef: "a3", Country: "A"},
		{ImageRef: "b", Country: "B"},
		{ImageRef: "c", Country: "C"},
		{ImageRef: "d", Country: "D"},
	}
	for seed := int64(1); seed <= 20; seed++ {
		options := buildOptions(catalog, 0, rand.New(rand.NewSource(seed)))
		assertOptionSet(t, options, "A")
	}
}

func TestBuildOptionsIsRepeatableForSameIndex(t *testing.T) {
	catalog := domain.DefaultCatalog()
	rnd := rand.New(rand.NewSource(7))
	first := buildOptions(catalog, 3, rnd)
	second := buildOptions(catalog, 3, rnd)
	assertOptionSet(t, first, "Italy")
	assertOptionSet(t, second, "Italy")
}

func assertOptionSet(t *testing.T, options []string, correct string) {
	t.Helper()
	if len(options) != domain.OptionCount {
		t.Fatalf("expected %d options, got %v", domain.OptionCount, options)
	}
	seen := make(map[string]bool, len(options))
	for _, opt := range options {
		if seen[opt] {
			t.Fatalf("duplicate option %q in %v", opt, options)
		}
		seen[opt] = true
	}
	if !seen[correct] {
		t.Fatalf("correct answer %q missing from %v", correct, options)
	}
}
