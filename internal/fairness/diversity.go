package fairness

import (
	"math"
	"strings"

	"github.com/spigell/talent-matcher/internal/talent"
	"github.com/spigell/talent-matcher/internal/utils"
)

// NeutralDiversityScore is reported when there are no metrics to score.
const NeutralDiversityScore = 75.0

const (
	genderWeight     = 0.4
	experienceWeight = 0.35
	educationWeight  = 0.25
)

const (
	EducationBachelor = "Bachelor's"
	EducationMaster   = "Master's"
	EducationPhD      = "PhD"
	EducationOther    = "Other"
)

// ComputeDiversity computes pool-audit distributions. An empty pool yields nil.
func ComputeDiversity(pool *talent.Pool) *talent.DiversityMetrics {
	return computeDiversity(PoolAudit(), pool)
}

// DetectBias evaluates the pool-audit alert rules.
func DetectBias(pool *talent.Pool) []talent.BiasAlert {
	return PoolAudit().Alerts(pool)
}

// Analyze computes metrics and alerts for either policy.
func Analyze(policy Policy, pool *talent.Pool) (*talent.DiversityMetrics, []talent.BiasAlert) {
	return computeDiversity(policy, pool), policy.Alerts(pool)
}

func computeDiversity(policy Policy, pool *talent.Pool) *talent.DiversityMetrics {
	pool = profiled(pool)
	total := pool.Len()
	if total == 0 {
		return nil
	}

	gender := make(map[string]int)
	experience := make(map[string]int)
	for _, band := range policy.ExperienceBands() {
		experience[band] = 0
	}
	education := make(map[string]int)

	for _, item := range pool.Items {
		gender[genderBucket(item.Candidate)]++
		experience[policy.ExperienceBand(item.Candidate.ExperienceYears)]++
		education[ClassifyEducation(item.Candidate.Education)]++
	}

	return &talent.DiversityMetrics{
		Gender:          percentages(gender, total),
		Experience:      percentages(experience, total),
		Education:       percentages(education, total),
		TotalCandidates: total,
	}
}

// ClassifyEducation maps a free-text education entry to a degree level.
func ClassifyEducation(raw string) string {
	lower := strings.ToLower(raw)
	switch {
	case strings.Contains(lower, "bachelor"):
		return EducationBachelor
	case strings.Contains(lower, "master"):
		return EducationMaster
	case strings.Contains(lower, "phd"), strings.Contains(lower, "doctorate"):
		return EducationPhD
	default:
		return EducationOther
	}
}

func percentages(counts map[string]int, total int) map[string]float64 {
	out := make(map[string]float64, len(counts))
	for k, v := range counts {
		out[k] = utils.Round(float64(v)*100/float64(total), 1)
	}
	return out
}

// Entropy returns the Shannon entropy in bits of a percentage distribution.
func Entropy(dist map[string]float64) float64 {
	h := 0.0
	for _, k := range sortedKeys(dist) {
		if pct := dist[k]; pct > 0 {
			p := pct / 100
			h -= p * math.Log2(p)
		}
	}
	return h
}

// NormalizedEntropy scores a distribution on a 0-100 scale against the
// maximum entropy of its non-empty buckets. A single bucket scores 0.
func NormalizedEntropy(dist map[string]float64) float64 {
	n := 0
	for _, pct := range dist {
		if pct > 0 {
			n++
		}
	}
	maxEntropy := math.Log2(float64(n))
	if n == 0 || maxEntropy <= 0 {
		return 0
	}
	return min(Entropy(dist)/maxEntropy*100, 100)
}

// DiversityScore combines the normalized entropy of the three axes into a
// 0-100 score rounded to 1 decimal.
func DiversityScore(m *talent.DiversityMetrics) float64 {
	if m == nil {
		return NeutralDiversityScore
	}

	score := float64(NormalizedEntropy(m.Gender)*genderWeight) +
		float64(NormalizedEntropy(m.Experience)*experienceWeight) +
		float64(NormalizedEntropy(m.Education)*educationWeight)

	return utils.Round(min(score, 100), 1)
}
