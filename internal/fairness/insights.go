package fairness

import (
	"sort"

	"github.com/google/uuid"
	"github.com/spigell/talent-matcher/internal/talent"
	"github.com/spigell/talent-matcher/internal/utils"
)

const (
	topSkillsLimit  = 10
	criticalGapMark = 0.7
	otherCategory   = "other"
)

// Categorizer assigns a skill to a taxonomy category.
type Categorizer interface {
	Category(skill string) string
}

type SkillCount struct {
	Skill string `json:"skill"`
	Count int    `json:"count"`
}

// HeatmapCell describes how well the pool covers one required skill.
// Supply is the share of scored candidates matching the skill.
type HeatmapCell struct {
	Skill    string  `json:"skill"`
	Category string  `json:"category"`
	Supply   float64 `json:"supply"`
	Gap      float64 `json:"gap"`
}

type Heatmap struct {
	Skills       []HeatmapCell `json:"skills"`
	TotalSkills  int           `json:"total_skills"`
	CriticalGaps int           `json:"critical_gaps"`
}

// Insights is the recruiter dashboard summary of a pool.
type Insights struct {
	RequirementID         uuid.UUID                `json:"requirement_id"`
	TotalCandidates       int                      `json:"total_candidates"`
	ShortlistedCandidates int                      `json:"shortlisted_candidates"`
	AverageScore          float64                  `json:"average_score"`
	TopSkills             []SkillCount             `json:"top_skills"`
	SkillGaps             []SkillCount             `json:"skill_gaps"`
	Heatmap               Heatmap                  `json:"skills_heatmap"`
	DiversityMetrics      *talent.DiversityMetrics `json:"diversity_metrics,omitempty"`
	DiversityScore        float64                  `json:"diversity_score"`
	BiasAlerts            []talent.BiasAlert       `json:"bias_alerts"`
	ShortlistAlerts       []talent.BiasAlert       `json:"shortlist_alerts"`
}

// BuildInsights summarizes the pool. A nil categorizer puts every skill in "other".
func BuildInsights(categories Categorizer, pool *talent.Pool) *Insights {
	pool = profiled(pool)
	metrics, alerts := Analyze(PoolAudit(), pool)

	insights := &Insights{
		TotalCandidates:  pool.Len(),
		TopSkills:        []SkillCount{},
		SkillGaps:        []SkillCount{},
		Heatmap:          Heatmap{Skills: []HeatmapCell{}},
		DiversityMetrics: metrics,
		DiversityScore:   DiversityScore(metrics),
		BiasAlerts:       alerts,
		ShortlistAlerts:  ShortlistCheck().Alerts(pool),
	}
	if pool == nil || pool.Len() == 0 {
		return insights
	}
	insights.RequirementID = pool.RequirementID

	matched := make(map[string]int)
	missing := make(map[string]int)
	var required []string
	seen := make(map[string]struct{})
	scored := 0
	sum := 0.0

	for _, item := range pool.Items {
		if item.Candidate.IsShortlisted() {
			insights.ShortlistedCandidates++
		}
		sum += item.OverallScore()
		if item.Result == nil {
			continue
		}
		scored++
		for _, skill := range item.Result.MatchedSkills {
			matched[skill]++
			if _, ok := seen[skill]; !ok {
				seen[skill] = struct{}{}
				required = append(required, skill)
			}
		}
		for _, skill := range item.Result.MissingSkills {
			missing[skill]++
			if _, ok := seen[skill]; !ok {
				seen[skill] = struct{}{}
				required = append(required, skill)
			}
		}
	}

	insights.AverageScore = utils.Round(sum/float64(pool.Len()), 2)
	insights.TopSkills = topCounts(matched, topSkillsLimit)
	insights.SkillGaps = topCounts(missing, topSkillsLimit)
	insights.Heatmap = buildHeatmap(categories, required, matched, scored)

	return insights
}

func buildHeatmap(categories Categorizer, required []string, matched map[string]int, scored int) Heatmap {
	heatmap := Heatmap{Skills: make([]HeatmapCell, 0, len(required))}
	if scored == 0 {
		return heatmap
	}

	for _, skill := range required {
		supply := utils.Round(float64(matched[skill])/float64(scored), 2)
		category := otherCategory
		if categories != nil {
			category = categories.Category(skill)
		}
		cell := HeatmapCell{
			Skill:    skill,
			Category: category,
			Supply:   supply,
			Gap:      utils.Round(1-supply, 2),
		}
		if cell.Gap > criticalGapMark {
			heatmap.CriticalGaps++
		}
		heatmap.Skills = append(heatmap.Skills, cell)
	}

	sort.SliceStable(heatmap.Skills, func(i, j int) bool {
		if heatmap.Skills[i].Gap != heatmap.Skills[j].Gap {
			return heatmap.Skills[i].Gap > heatmap.Skills[j].Gap
		}
		return heatmap.Skills[i].Skill < heatmap.Skills[j].Skill
	})
	heatmap.TotalSkills = len(heatmap.Skills)

	return heatmap
}

// topCounts returns the most frequent entries, ties broken by name.
func topCounts(counts map[string]int, limit int) []SkillCount {
	out := make([]SkillCount, 0, len(counts))
	for skill, n := range counts {
		out = append(out, SkillCount{Skill: skill, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Skill < out[j].Skill
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
