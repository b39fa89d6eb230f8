package matching

import (
	"fmt"
	"strings"

	"github.com/spigell/talent-matcher/internal/talent"
	"github.com/spigell/talent-matcher/internal/utils"
)

const (
	exactStrength     = 1.0
	synonymStrength   = 0.9
	substringStrength = 0.8
	tokenScale        = 0.7
	minTokenOverlap   = 0.5

	// AcceptThreshold is the minimum strength for a required skill to count as matched.
	AcceptThreshold = 0.6

	highImportanceSpan = 5
)

// SkillMatch is the outcome of comparing required and possessed skills.
type SkillMatch struct {
	Score   float64
	Matched []string
	Missing []string
	Gaps    []talent.SkillGap
	// Strengths holds the best strength per required skill, in requirement order.
	Strengths []float64
}

// MatchSkills compares required skills with the skills a candidate has.
// Skills are compared lower-cased and trimmed; the normalized forms are reported.
func MatchSkills(tax *Taxonomy, required, possessed []string) SkillMatch {
	if len(required) == 0 || len(possessed) == 0 {
		return SkillMatch{
			Score:   0,
			Matched: []string{},
			Missing: normalizeAll(required),
			Gaps:    []talent.SkillGap{},
		}
	}

	req := normalizeAll(required)
	have := normalizeAll(possessed)

	exact := make(map[string]struct{}, len(have))
	for _, skill := range have {
		exact[skill] = struct{}{}
	}

	result := SkillMatch{
		Matched:   make([]string, 0, len(req)),
		Missing:   make([]string, 0),
		Gaps:      make([]talent.SkillGap, 0),
		Strengths: make([]float64, len(req)),
	}

	var total float64
	for i, skill := range req {
		strength := exactStrength
		if _, ok := exact[skill]; !ok {
			strength = bestStrength(tax, skill, have)
		}
		result.Strengths[i] = strength
		total += strength

		if strength >= AcceptThreshold {
			result.Matched = append(result.Matched, skill)
		}
	}

	for i, skill := range req {
		if result.Strengths[i] >= AcceptThreshold {
			continue
		}
		result.Missing = append(result.Missing, skill)
		result.Gaps = append(result.Gaps, newGap(skill, i))
	}

	result.Score = utils.Round(min(total/float64(len(req)), 1.0), 2)

	return result
}

func bestStrength(tax *Taxonomy, required string, possessed []string) float64 {
	best := 0.0
	for _, candidate := range possessed {
		// A blank entry is a substring of everything and must not match.
		if candidate == "" {
			continue
		}
		best = max(best, pairStrength(tax, required, candidate))
	}
	return best
}

// pairStrength scores one required/possessed pair that are not equal.
func pairStrength(tax *Taxonomy, required, possessed string) float64 {
	strength := 0.0

	if strings.Contains(possessed, required) || strings.Contains(required, possessed) {
		strength = max(strength, substringStrength)
	}

	if tax.Related(required, possessed) {
		strength = max(strength, synonymStrength)
	}

	if overlap := tokenOverlap(required, possessed); overlap >= minTokenOverlap {
		strength = max(strength, overlap*tokenScale)
	}

	return strength
}

// tokenOverlap is the number of shared whitespace tokens divided by the size
// of the larger token set.
func tokenOverlap(a, b string) float64 {
	ta, tb := tokenSet(a), tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	shared := 0
	for token := range ta {
		if _, ok := tb[token]; ok {
			shared++
		}
	}
	if shared == 0 {
		return 0
	}

	return float64(shared) / float64(max(len(ta), len(tb)))
}

func tokenSet(s string) map[string]struct{} {
	fields := strings.Fields(s)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

func newGap(skill string, position int) talent.SkillGap {
	importance := talent.ImportanceMedium
	if position < highImportanceSpan {
		importance = talent.ImportanceHigh
	}
	return talent.SkillGap{
		Skill:      skill,
		Importance: importance,
		Suggestion: fmt.Sprintf("Consider learning %s", skill),
	}
}

func normalizeAll(skills []string) []string {
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		out = append(out, normalizeSkill(s))
	}
	return out
}
