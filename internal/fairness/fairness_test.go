package fairness

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/spigell/talent-matcher/internal/talent"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type person struct {
	gender    string
	years     *int
	education string
	score     float64
}

func poolOf(people ...person) *talent.Pool {
	pool := &talent.Pool{RequirementID: uuid.New()}
	for _, p := range people {
		pool.Items = append(pool.Items, &talent.ScoredCandidate{
			Candidate: &talent.Candidate{
				ID:              uuid.New(),
				Gender:          p.gender,
				ExperienceYears: p.years,
				Education:       p.education,
				Status:          talent.StatusPending,
			},
			Result: &talent.MatchResult{OverallScore: p.score},
		})
	}
	return pool
}

func repeat(n int, p person) []person {
	out := make([]person, n)
	for i := range out {
		out[i] = p
	}
	return out
}

func TestPoolAuditLowRepresentation(t *testing.T) {
	t.Parallel()

	pool := poolOf(append(repeat(9, person{gender: "male", years: talent.Years(4)}), person{gender: "female", years: talent.Years(4)})...)

	alerts := DetectBias(pool)
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %+v", alerts)
	}

	alert := alerts[0]
	if alert.Category != talent.AlertGender {
		t.Fatalf("expected gender alert, got %s", alert.Category)
	}
	if alert.Description != "Low representation of female candidates (10.0%)" {
		t.Fatalf("unexpected description %q", alert.Description)
	}
	// Exactly 10% sits on the medium side of the boundary.
	if alert.Severity != talent.SeverityMedium {
		t.Fatalf("expected medium severity at 10.0%%, got %s", alert.Severity)
	}
}

func TestPoolAuditBoundaries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		pool     *talent.Pool
		alerts   int
		severity talent.Severity
	}{
		{
			name:   "exactly twenty percent is not low",
			pool:   poolOf(append(repeat(8, person{gender: "male"}), repeat(2, person{gender: "female"})...)...),
			alerts: 0,
		},
		{
			name:     "between ten and twenty percent is low",
			pool:     poolOf(append(repeat(7, person{gender: "male"}), person{gender: "female"})...),
			alerts:   1,
			severity: talent.SeverityLow,
		},
		{
			name:   "pool of five is too small",
			pool:   poolOf(append(repeat(4, person{gender: "male"}), person{gender: "female"})...),
			alerts: 0,
		},
		{
			name:     "missing gender is reported as unknown",
			pool:     poolOf(append(repeat(11, person{gender: "male"}), person{})...),
			alerts:   1,
			severity: talent.SeverityMedium,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			alerts := DetectBias(tt.pool)
			if len(alerts) != tt.alerts {
				t.Fatalf("expected %d alerts, got %+v", tt.alerts, alerts)
			}
			if tt.alerts > 0 && alerts[0].Severity != tt.severity {
				t.Fatalf("expected severity %s, got %s", tt.severity, alerts[0].Severity)
			}
		})
	}
}

func TestPoolAuditSeniorConcentration(t *testing.T) {
	t.Parallel()

	senior := poolOf(append(repeat(9, person{gender: "a", years: talent.Years(16)}), person{gender: "a", years: talent.Years(3)})...)
	alerts := DetectBias(senior)
	if len(alerts) != 1 || alerts[0].Description != "High concentration of senior candidates (9/10)" {
		t.Fatalf("unexpected alerts %+v", alerts)
	}

	edge := poolOf(append(repeat(8, person{gender: "a", years: talent.Years(20)}), repeat(2, person{gender: "a"})...)...)
	if alerts := DetectBias(edge); len(alerts) != 0 {
		t.Fatalf("exactly 80%% senior must not alert, got %+v", alerts)
	}
}

func TestShortlistCheck(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		pool   *talent.Pool
		expect []talent.BiasAlert
	}{
		{
			name: "too small",
			pool: poolOf(person{gender: "male", score: 0.9}, person{gender: "male", score: 0.8}),
		},
		{
			name: "dominant gender and senior top",
			pool: poolOf(
				person{gender: "male", years: talent.Years(12), score: 0.9},
				person{gender: "male", years: talent.Years(14), score: 0.8},
				person{gender: "male", years: talent.Years(11), score: 0.7},
				person{gender: "male", score: 0.6},
				person{gender: "male", years: talent.Years(15), score: 0.5},
				person{gender: "female", years: talent.Years(1), score: 0.1},
			),
			expect: []talent.BiasAlert{
				{Category: talent.AlertGender, Description: "Top candidates are 100% male", Severity: talent.SeverityHigh},
				{Category: talent.AlertExperience, Description: "Top candidates have high average experience (13.0 years)", Severity: talent.SeverityMedium},
			},
		},
		{
			name: "four of five is not dominant",
			pool: poolOf(
				person{gender: "female", years: talent.Years(4), score: 0.9},
				person{gender: "female", years: talent.Years(4), score: 0.8},
				person{gender: "female", years: talent.Years(4), score: 0.7},
				person{gender: "female", years: talent.Years(4), score: 0.6},
				person{gender: "male", years: talent.Years(4), score: 0.5},
			),
		},
		{
			// Zero years is known experience and counts toward the average.
			name: "junior top with zero years counted",
			pool: poolOf(
				person{years: talent.Years(0), score: 0.9},
				person{years: talent.Years(1), score: 0.8},
				person{years: talent.Years(2), score: 0.7},
			),
			expect: []talent.BiasAlert{
				{Category: talent.AlertExperience, Description: "Top candidates have low average experience (1.0 years)", Severity: talent.SeverityMedium},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ShortlistCheck().Alerts(tt.pool)
			if len(got) != len(tt.expect) {
				t.Fatalf("expected %+v, got %+v", tt.expect, got)
			}
			for i := range got {
				if got[i] != tt.expect[i] {
					t.Fatalf("alert %d: expected %+v, got %+v", i, tt.expect[i], got[i])
				}
			}
		})
	}
}

func TestExperienceBands(t *testing.T) {
	t.Parallel()

	tests := []struct {
		years     int
		audit     string
		shortlist string
	}{
		{years: 0, audit: "0-2", shortlist: "0-2"},
		{years: 2, audit: "2-5", shortlist: "0-2"},
		{years: 5, audit: "5-10", shortlist: "3-5"},
		{years: 10, audit: "10+", shortlist: "6-10"},
		{years: 11, audit: "10+", shortlist: "10+"},
	}

	for _, tt := range tests {
		if got := PoolAudit().ExperienceBand(talent.Years(tt.years)); got != tt.audit {
			t.Fatalf("audit band for %d: expected %s, got %s", tt.years, tt.audit, got)
		}
		if got := ShortlistCheck().ExperienceBand(talent.Years(tt.years)); got != tt.shortlist {
			t.Fatalf("shortlist band for %d: expected %s, got %s", tt.years, tt.shortlist, got)
		}
	}

	if PoolAudit().ExperienceBand(nil) != unknownBucket {
		t.Fatalf("nil experience must be unknown")
	}
}

func TestComputeDiversityClosure(t *testing.T) {
	t.Parallel()

	pool := poolOf(
		person{gender: "female", years: talent.Years(1), education: "Bachelor of Science"},
		person{gender: "male", years: talent.Years(3), education: "MSc, Master in CS"},
		person{gender: "nonbinary", years: talent.Years(7), education: "PhD Physics"},
		person{years: talent.Years(12), education: "Bootcamp"},
		person{gender: "female", education: ""},
		person{gender: "male", years: talent.Years(4), education: "Doctorate"},
	)

	for _, policy := range []Policy{PoolAudit(), ShortlistCheck()} {
		metrics, _ := Analyze(policy, pool)
		if metrics.TotalCandidates != 6 {
			t.Fatalf("expected 6 candidates, got %d", metrics.TotalCandidates)
		}
		for axis, dist := range map[string]map[string]float64{
			"gender":     metrics.Gender,
			"experience": metrics.Experience,
			"education":  metrics.Education,
		} {
			sum := 0.0
			for _, pct := range dist {
				sum += pct
			}
			if math.Abs(sum-100) > 0.1+1e-9 {
				t.Fatalf("%s %s distribution sums to %v", policy.Name(), axis, sum)
			}
		}
		for _, band := range policy.ExperienceBands() {
			if _, ok := metrics.Experience[band]; !ok {
				t.Fatalf("%s is missing band %s", policy.Name(), band)
			}
		}
	}

	metrics := ComputeDiversity(pool)
	if metrics.Education[EducationPhD] != 33.3 || metrics.Education[EducationOther] != 33.3 {
		t.Fatalf("unexpected education distribution %v", metrics.Education)
	}
	if metrics.Gender[unknownBucket] != 16.7 {
		t.Fatalf("expected unknown gender bucket, got %v", metrics.Gender)
	}
}

func TestEmptyPool(t *testing.T) {
	t.Parallel()

	for _, pool := range []*talent.Pool{nil, {}} {
		if m := ComputeDiversity(pool); m != nil {
			t.Fatalf("expected nil metrics, got %+v", m)
		}
		if alerts := DetectBias(pool); len(alerts) != 0 {
			t.Fatalf("expected no alerts, got %+v", alerts)
		}
	}

	if got := DiversityScore(nil); got != NeutralDiversityScore {
		t.Fatalf("expected neutral score, got %v", got)
	}
}

func TestDiversityScore(t *testing.T) {
	t.Parallel()

	gender := map[string]float64{"male": 60, "female": 40}
	if got := math.Round(NormalizedEntropy(gender)*10) / 10; got != 97.1 {
		t.Fatalf("expected 97.1, got %v", got)
	}
	if got := Entropy(gender); math.Abs(got-0.971) > 0.001 {
		t.Fatalf("expected ~0.971 bits, got %v", got)
	}

	single := map[string]float64{"male": 100, "female": 0}
	if got := NormalizedEntropy(single); got != 0 {
		t.Fatalf("single bucket must score 0, got %v", got)
	}

	balanced := &talent.DiversityMetrics{
		Gender:     map[string]float64{"a": 50, "b": 50},
		Experience: map[string]float64{"0-2": 25, "2-5": 25, "5-10": 25, "10+": 25, "unknown": 0},
		Education:  map[string]float64{EducationOther: 100},
	}
	if got := DiversityScore(balanced); got != 75.0 {
		t.Fatalf("expected 75.0, got %v", got)
	}
}

func TestAnalyzerLogsAlerts(t *testing.T) {
	t.Parallel()

	core, observed := observer.New(zapcore.InfoLevel)
	analyzer := NewAnalyzer(zap.New(core))

	pool := poolOf(append(repeat(9, person{gender: "male", score: 0.5}), person{gender: "female", score: 0.4})...)
	reports := analyzer.RunAll(pool)

	if len(reports) != 2 || reports[0].Policy != PoolAuditName || reports[1].Policy != ShortlistCheckName {
		t.Fatalf("unexpected reports %+v", reports)
	}
	if len(reports[0].Alerts) != 1 {
		t.Fatalf("expected one pool alert, got %+v", reports[0].Alerts)
	}

	warnings := observed.FilterMessage("bias alert").All()
	if len(warnings) != 1+len(reports[1].Alerts) {
		t.Fatalf("expected a warning per alert, got %d", len(warnings))
	}
	if warnings[0].ContextMap()["policy"] != PoolAuditName {
		t.Fatalf("expected policy field on warning")
	}
}

type staticCategories map[string]string

func (s staticCategories) Category(skill string) string {
	if c, ok := s[skill]; ok {
		return c
	}
	return "other"
}

func TestBuildInsights(t *testing.T) {
	t.Parallel()

	pool := poolOf(
		person{gender: "female", score: 0.9},
		person{gender: "male", score: 0.6},
		person{gender: "male", score: 0.3},
	)
	pool.Items[0].Result.MatchedSkills = []string{"python", "sql"}
	pool.Items[1].Result.MatchedSkills = []string{"python"}
	pool.Items[1].Result.MissingSkills = []string{"sql"}
	pool.Items[2].Result.MissingSkills = []string{"python", "sql"}
	pool.Items[0].Candidate.Status = talent.StatusShortlisted

	insights := BuildInsights(staticCategories{"python": "programming", "sql": "database"}, pool)

	if insights.TotalCandidates != 3 || insights.ShortlistedCandidates != 1 {
		t.Fatalf("unexpected counts %+v", insights)
	}
	if insights.AverageScore != 0.6 {
		t.Fatalf("expected average 0.6, got %v", insights.AverageScore)
	}
	if insights.TopSkills[0] != (SkillCount{Skill: "python", Count: 2}) {
		t.Fatalf("unexpected top skills %+v", insights.TopSkills)
	}
	if insights.SkillGaps[0] != (SkillCount{Skill: "sql", Count: 2}) {
		t.Fatalf("unexpected skill gaps %+v", insights.SkillGaps)
	}

	cells := insights.Heatmap.Skills
	if len(cells) != 2 || cells[0].Skill != "sql" || cells[0].Category != "database" {
		t.Fatalf("unexpected heatmap %+v", cells)
	}
	if cells[0].Supply != 0.33 || cells[0].Gap != 0.67 {
		t.Fatalf("unexpected sql cell %+v", cells[0])
	}
	if insights.Heatmap.CriticalGaps != 0 {
		t.Fatalf("expected no critical gaps, got %d", insights.Heatmap.CriticalGaps)
	}

	empty := BuildInsights(nil, &talent.Pool{})
	if empty.DiversityScore != NeutralDiversityScore || len(empty.TopSkills) != 0 {
		t.Fatalf("unexpected empty insights %+v", empty)
	}
}

func TestAnalysisSkipsItemsWithoutCandidate(t *testing.T) {
	t.Parallel()

	pool := poolOf(
		person{gender: "female", years: talent.Years(20), education: "PhD", score: 0.9},
		person{gender: "female", years: talent.Years(18), education: "Master", score: 0.8},
		person{gender: "female", years: talent.Years(16), education: "Bachelor", score: 0.7},
	)
	pool.Items = append(pool.Items,
		&talent.ScoredCandidate{Result: &talent.MatchResult{OverallScore: 0.95}},
		nil,
	)

	metrics := ComputeDiversity(pool)
	if metrics == nil || metrics.TotalCandidates != 3 {
		t.Fatalf("expected metrics over 3 candidates, got %+v", metrics)
	}
	if metrics.Gender["female"] != 100 {
		t.Fatalf("expected 100%% female, got %v", metrics.Gender)
	}

	alerts := DetectBias(pool)
	if len(alerts) != 1 || alerts[0].Category != talent.AlertExperience {
		t.Fatalf("expected one experience alert, got %+v", alerts)
	}

	shortlist := ShortlistCheck().Alerts(pool)
	if len(shortlist) != 2 {
		t.Fatalf("expected gender and experience alerts on the top candidates, got %+v", shortlist)
	}

	insights := BuildInsights(nil, pool)
	if insights.TotalCandidates != 3 || insights.AverageScore != 0.8 {
		t.Fatalf("unexpected insights %+v", insights)
	}
}
