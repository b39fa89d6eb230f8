package talent

import (
	"github.com/google/uuid"
)

// Importance ranks a missing skill.
type Importance string

const (
	ImportanceHigh   Importance = "high"
	ImportanceMedium Importance = "medium"
)

// SkillGap describes a required skill the candidate lacks.
type SkillGap struct {
	Skill      string     `json:"skill"`
	Importance Importance `json:"importance"`
	Suggestion string     `json:"suggestion"`
}

// Weights are the fusion weights of the overall score.
type Weights struct {
	Skills         float64 `json:"skills_weight"`
	Experience     float64 `json:"experience_weight"`
	TextSimilarity float64 `json:"text_similarity_weight"`
}

// MatchResult is the outcome of matching one candidate against one requirement.
// A result is never edited: rescoring produces a new one that replaces the old.
type MatchResult struct {
	RequirementID        uuid.UUID  `json:"requirement_id"`
	CandidateID          uuid.UUID  `json:"candidate_id"`
	OverallScore         float64    `json:"overall_score"`
	SkillsMatchScore     float64    `json:"skills_match_score"`
	ExperienceMatchScore float64    `json:"experience_match_score"`
	TextSimilarityScore  float64    `json:"text_similarity_score"`
	MatchedSkills        []string   `json:"matched_skills"`
	MissingSkills        []string   `json:"missing_skills"`
	SkillGaps            []SkillGap `json:"skill_gaps"`
	Weights              Weights    `json:"breakdown"`
}

// ScoredCandidate couples a candidate with its latest match result.
type ScoredCandidate struct {
	Candidate *Candidate   `json:"candidate"`
	Result    *MatchResult `json:"result,omitempty"`
}

// OverallScore returns the overall score or 0 when the candidate is not scored yet.
func (s *ScoredCandidate) OverallScore() float64 {
	if s == nil || s.Result == nil {
		return 0
	}
	return s.Result.OverallScore
}

// DiversityMetrics summarizes one candidate pool snapshot.
// Distributions map a category label to a percentage of the pool.
type DiversityMetrics struct {
	Gender          map[string]float64 `json:"gender_distribution"`
	Experience      map[string]float64 `json:"experience_distribution"`
	Education       map[string]float64 `json:"education_distribution"`
	TotalCandidates int                `json:"total_candidates"`
}

// AlertCategory names the attribute a bias alert is about.
type AlertCategory string

const (
	AlertGender     AlertCategory = "gender"
	AlertExperience AlertCategory = "experience"
)

// Severity of a bias alert.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// BiasAlert is a threshold-triggered fairness signal.
type BiasAlert struct {
	Category    AlertCategory `json:"type"`
	Description string        `json:"description"`
	Severity    Severity      `json:"severity"`
}
