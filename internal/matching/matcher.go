// Package matching scores candidates against job requirements.
package matching

import (
	"github.com/spigell/talent-matcher/internal/logger"
	"github.com/spigell/talent-matcher/internal/similarity"
	"github.com/spigell/talent-matcher/internal/talent"
	"go.uber.org/zap"
)

// Matcher runs the skill, experience and text scorers and fuses their output.
// It holds no mutable state and may be shared between goroutines.
type Matcher struct {
	taxonomy   *Taxonomy
	vectorizer *similarity.Vectorizer
	weights    talent.Weights
	logger     *zap.Logger
}

// NewMatcher returns a matcher over the default taxonomy, vectorizer and weights.
func NewMatcher(log *zap.Logger) *Matcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Matcher{
		taxonomy:   DefaultTaxonomy(),
		vectorizer: similarity.DefaultVectorizer(),
		weights:    DefaultWeights,
		logger:     log,
	}
}

// Taxonomy returns the skill taxonomy the matcher uses.
func (m *Matcher) Taxonomy() *Taxonomy {
	return m.taxonomy
}

// Match scores one candidate against one requirement.
func (m *Matcher) Match(req *talent.Requirement, cand *talent.Candidate) *talent.MatchResult {
	skills := MatchSkills(m.taxonomy, req.RequiredSkills, cand.Skills)
	experience := MatchExperience(req.RequiredExperience, cand.ExperienceYears)
	text := m.vectorizer.Similarity(req.Description, cand.RawText)

	result := aggregate(m.weights, skills, experience, text)
	result.RequirementID = req.ID
	result.CandidateID = cand.ID

	m.logger.Debug("candidate scored",
		append(logger.MatchFields(req.ID.String(), cand.ID.String()),
			zap.Float64("overall", result.OverallScore),
			zap.Float64("skills", result.SkillsMatchScore),
			zap.Float64("experience", result.ExperienceMatchScore),
			zap.Float64("text", result.TextSimilarityScore),
			zap.Int("missing", len(result.MissingSkills)),
		)...,
	)

	return result
}
