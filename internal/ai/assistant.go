// Package ai defines the recruiter assistant that answers questions about a
// candidate pool.
package ai

import (
	"context"

	"github.com/spigell/talent-matcher/internal/fairness"
	"github.com/spigell/talent-matcher/internal/talent"
)

const (
	// NotConfiguredAnswer is returned when no language model is configured.
	NotConfiguredAnswer = "AI Assistant is not configured. Please set up your Gemini API key."

	topCandidatesLimit = 5
	largePoolSize      = 10
	lowDiversityScore  = 50
	suggestionsLimit   = 6
)

// CandidateSummary is the part of a scored candidate shared with the model.
type CandidateSummary struct {
	Name            string   `json:"name"`
	OverallScore    float64  `json:"match_score"`
	SkillsScore     float64  `json:"skill_match"`
	ExperienceScore float64  `json:"experience_match"`
	Skills          []string `json:"skills"`
	ExperienceYears *int     `json:"experience_years,omitempty"`
	Education       string   `json:"education,omitempty"`
	Status          string   `json:"status,omitempty"`
}

// Context is the dashboard state a question is answered against.
type Context struct {
	Position      string             `json:"position"`
	Insights      *fairness.Insights `json:"insights"`
	TopCandidates []CandidateSummary `json:"top_candidates"`
}

// Answer is the assistant reply with follow-up questions.
type Answer struct {
	Text            string   `json:"response"`
	Recommendations []string `json:"recommendations,omitempty"`
	Suggestions     []string `json:"suggestions"`
}

type Assistant interface {
	Ask(ctx context.Context, question string, dashboard *Context) (*Answer, error)
}

// NewContext builds the assistant context from a scored pool. The best
// candidates by overall score are included.
func NewContext(req *talent.Requirement, pool *talent.Pool, insights *fairness.Insights) *Context {
	c := &Context{Position: "All positions", Insights: insights, TopCandidates: []CandidateSummary{}}
	if req != nil && req.Title != "" {
		c.Position = req.Title
	}
	if pool == nil {
		return c
	}

	for _, item := range pool.Top(topCandidatesLimit).Items {
		var summary CandidateSummary
		if item.Candidate != nil {
			summary.Name = item.Candidate.Name
			summary.Skills = item.Candidate.Skills
			summary.ExperienceYears = item.Candidate.ExperienceYears
			summary.Education = item.Candidate.Education
			summary.Status = string(item.Candidate.Status)
		}
		if item.Result != nil {
			summary.OverallScore = item.Result.OverallScore
			summary.SkillsScore = item.Result.SkillsMatchScore
			summary.ExperienceScore = item.Result.ExperienceMatchScore
		}
		c.TopCandidates = append(c.TopCandidates, summary)
	}
	return c
}

// Suggestions returns follow-up questions that fit the dashboard state.
func Suggestions(dashboard *Context) []string {
	suggestions := []string{
		"What are the top candidates for this position?",
		"Are there any bias concerns in the current candidate pool?",
		"How diverse is our candidate selection?",
		"Which candidates have the best skill matches?",
		"What skills are most common among high-scoring candidates?",
	}
	if dashboard == nil || dashboard.Insights == nil {
		return suggestions
	}

	insights := dashboard.Insights
	if len(insights.BiasAlerts)+len(insights.ShortlistAlerts) > 0 {
		suggestions = append(suggestions, "What do the bias alerts mean and how should I address them?")
	}
	if insights.TotalCandidates > largePoolSize {
		suggestions = append(suggestions, "How can I narrow down this large candidate pool?")
	}
	if insights.DiversityScore < lowDiversityScore {
		suggestions = append(suggestions, "How can I improve diversity in my candidate selection?")
	}

	if len(suggestions) > suggestionsLimit {
		suggestions = suggestions[:suggestionsLimit]
	}
	return suggestions
}

type notConfigured struct{}

// NotConfigured returns an assistant that always replies with NotConfiguredAnswer.
func NotConfigured() Assistant {
	return notConfigured{}
}

func (notConfigured) Ask(_ context.Context, _ string, dashboard *Context) (*Answer, error) {
	return &Answer{Text: NotConfiguredAnswer, Suggestions: Suggestions(dashboard)}, nil
}
