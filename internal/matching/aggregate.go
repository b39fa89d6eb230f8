package matching

import (
	"fmt"
	"math"

	"github.com/spigell/talent-matcher/internal/talent"
	"github.com/spigell/talent-matcher/internal/utils"
)

// DefaultWeights are the fixed fusion weights. Changing them is a policy decision.
var DefaultWeights = talent.Weights{
	Skills:         0.5,
	Experience:     0.3,
	TextSimilarity: 0.2,
}

const weightTolerance = 1e-9

// ValidateWeights rejects weight sets that do not sum to 1.0 or contain negatives.
func ValidateWeights(w talent.Weights) error {
	if w.Skills < 0 || w.Experience < 0 || w.TextSimilarity < 0 {
		return fmt.Errorf("weights must be non-negative: %+v", w)
	}
	if sum := w.Skills + w.Experience + w.TextSimilarity; math.Abs(sum-1.0) > weightTolerance {
		return fmt.Errorf("weights must sum to 1.0, got %v", sum)
	}
	return nil
}

// Aggregate fuses the three component scores into one result using DefaultWeights.
func Aggregate(skills SkillMatch, experience, similarity float64) *talent.MatchResult {
	return aggregate(DefaultWeights, skills, experience, similarity)
}

func aggregate(w talent.Weights, skills SkillMatch, experience, similarity float64) *talent.MatchResult {
	// Explicit conversions keep each product rounded on its own so the sum does
	// not depend on whether the platform fuses multiply-add.
	overall := float64(skills.Score*w.Skills) + float64(experience*w.Experience) + float64(similarity*w.TextSimilarity)

	return &talent.MatchResult{
		OverallScore:         utils.Round(overall, 2),
		SkillsMatchScore:     skills.Score,
		ExperienceMatchScore: experience,
		TextSimilarityScore:  similarity,
		MatchedSkills:        skills.Matched,
		MissingSkills:        skills.Missing,
		SkillGaps:            skills.Gaps,
		Weights:              w,
	}
}
