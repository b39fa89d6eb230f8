package ai

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/spigell/talent-matcher/internal/fairness"
	"github.com/spigell/talent-matcher/internal/talent"
)

func TestNewContextKeepsBestCandidates(t *testing.T) {
	t.Parallel()

	pool := &talent.Pool{RequirementID: uuid.New()}
	for i, score := range []float64{0.2, 0.9, 0.5, 0.7, 0.1, 0.8} {
		pool.Items = append(pool.Items, &talent.ScoredCandidate{
			Candidate: &talent.Candidate{Name: string(rune('A' + i))},
			Result:    &talent.MatchResult{OverallScore: score},
		})
	}

	c := NewContext(&talent.Requirement{Title: "Analyst"}, pool, nil)
	if c.Position != "Analyst" {
		t.Fatalf("unexpected position %q", c.Position)
	}
	if len(c.TopCandidates) != topCandidatesLimit {
		t.Fatalf("expected %d candidates, got %d", topCandidatesLimit, len(c.TopCandidates))
	}
	if c.TopCandidates[0].Name != "B" || c.TopCandidates[0].OverallScore != 0.9 {
		t.Fatalf("unexpected leader %+v", c.TopCandidates[0])
	}

	if got := NewContext(nil, nil, nil).Position; got != "All positions" {
		t.Fatalf("unexpected default position %q", got)
	}
}

func TestSuggestions(t *testing.T) {
	t.Parallel()

	if got := Suggestions(nil); len(got) != 5 {
		t.Fatalf("expected base suggestions, got %v", got)
	}

	busy := &Context{Insights: &fairness.Insights{
		TotalCandidates: 25,
		DiversityScore:  20,
		BiasAlerts:      []talent.BiasAlert{{Category: talent.AlertGender}},
	}}
	got := Suggestions(busy)
	if len(got) != suggestionsLimit {
		t.Fatalf("expected %d suggestions, got %d", suggestionsLimit, len(got))
	}
	if got[5] != "What do the bias alerts mean and how should I address them?" {
		t.Fatalf("unexpected sixth suggestion %q", got[5])
	}
}

func TestNotConfigured(t *testing.T) {
	t.Parallel()

	answer, err := NotConfigured().Ask(context.Background(), "anything", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer.Text != NotConfiguredAnswer {
		t.Fatalf("unexpected answer %q", answer.Text)
	}
}
