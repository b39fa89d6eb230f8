// Package fairness computes diversity distributions and bias alerts over
// scored candidate pools.
package fairness

import (
	"fmt"
	"sort"

	"github.com/spigell/talent-matcher/internal/talent"
)

const (
	unknownBucket = "unknown"

	PoolAuditName      = "pool_audit"
	ShortlistCheckName = "shortlist_check"
)

// Policy is one bias-detection variant. Variants differ in experience bands
// and alert thresholds and are intentionally not unified.
type Policy interface {
	Name() string
	// ExperienceBands lists every band label, in display order.
	ExperienceBands() []string
	// ExperienceBand returns the band for the given years, "unknown" when nil.
	ExperienceBand(years *int) string
	// Alerts evaluates the threshold rules over the pool.
	Alerts(pool *talent.Pool) []talent.BiasAlert
}

// PoolAudit checks the representation of the full candidate pool.
func PoolAudit() Policy { return poolAudit{} }

// ShortlistCheck checks the top five candidates by overall score.
func ShortlistCheck() Policy { return shortlistCheck{} }

// PolicyByName resolves a policy by its name.
func PolicyByName(name string) (Policy, error) {
	switch name {
	case PoolAuditName, "":
		return PoolAudit(), nil
	case ShortlistCheckName:
		return ShortlistCheck(), nil
	default:
		return nil, fmt.Errorf("unknown fairness policy %q", name)
	}
}

type poolAudit struct{}

const (
	auditMinPool        = 5
	auditLowShare       = 20.0
	auditVeryLowShare   = 10.0
	auditSeniorYears    = 15
	auditSeniorFraction = 0.8
)

func (poolAudit) Name() string { return PoolAuditName }

func (poolAudit) ExperienceBands() []string {
	return []string{"0-2", "2-5", "5-10", "10+", unknownBucket}
}

// Lower bound inclusive, upper bound exclusive.
func (poolAudit) ExperienceBand(years *int) string {
	switch {
	case years == nil:
		return unknownBucket
	case *years < 2:
		return "0-2"
	case *years < 5:
		return "2-5"
	case *years < 10:
		return "5-10"
	default:
		return "10+"
	}
}

func (poolAudit) Alerts(pool *talent.Pool) []talent.BiasAlert {
	alerts := []talent.BiasAlert{}
	pool = profiled(pool)
	total := pool.Len()
	if total == 0 {
		return alerts
	}

	counts := make(map[string]int)
	senior := 0
	for _, item := range pool.Items {
		counts[genderBucket(item.Candidate)]++
		if y := item.Candidate.ExperienceYears; y != nil && *y > auditSeniorYears {
			senior++
		}
	}

	if total > auditMinPool {
		for _, gender := range sortedKeys(counts) {
			share := float64(counts[gender]) * 100 / float64(total)
			if share >= auditLowShare {
				continue
			}
			severity := talent.SeverityLow
			if share <= auditVeryLowShare {
				severity = talent.SeverityMedium
			}
			alerts = append(alerts, talent.BiasAlert{
				Category:    talent.AlertGender,
				Description: fmt.Sprintf("Low representation of %s candidates (%.1f%%)", gender, share),
				Severity:    severity,
			})
		}
	}

	if float64(senior) > float64(total)*auditSeniorFraction {
		alerts = append(alerts, talent.BiasAlert{
			Category:    talent.AlertExperience,
			Description: fmt.Sprintf("High concentration of senior candidates (%d/%d)", senior, total),
			Severity:    talent.SeverityMedium,
		})
	}

	return alerts
}

type shortlistCheck struct{}

const (
	shortlistMinPool      = 3
	shortlistSize         = 5
	shortlistDominant     = 0.8
	shortlistOverwhelming = 0.9
	shortlistHighAvgYears = 10.0
	shortlistLowAvgYears  = 2.0
)

func (shortlistCheck) Name() string { return ShortlistCheckName }

func (shortlistCheck) ExperienceBands() []string {
	return []string{"0-2", "3-5", "6-10", "10+", unknownBucket}
}

// Upper bound inclusive.
func (shortlistCheck) ExperienceBand(years *int) string {
	switch {
	case years == nil:
		return unknownBucket
	case *years <= 2:
		return "0-2"
	case *years <= 5:
		return "3-5"
	case *years <= 10:
		return "6-10"
	default:
		return "10+"
	}
}

func (shortlistCheck) Alerts(pool *talent.Pool) []talent.BiasAlert {
	alerts := []talent.BiasAlert{}
	pool = profiled(pool)
	if pool.Len() < shortlistMinPool {
		return alerts
	}

	top := pool.Top(shortlistSize)

	counts := make(map[string]int)
	known := 0
	var years []int
	for _, item := range top.Items {
		if g := item.Candidate.Gender; g != "" {
			counts[g]++
			known++
		}
		if y := item.Candidate.ExperienceYears; y != nil {
			years = append(years, *y)
		}
	}

	for _, gender := range sortedKeys(counts) {
		share := float64(counts[gender]) / float64(known)
		if share <= shortlistDominant {
			continue
		}
		severity := talent.SeverityMedium
		if share > shortlistOverwhelming {
			severity = talent.SeverityHigh
		}
		alerts = append(alerts, talent.BiasAlert{
			Category:    talent.AlertGender,
			Description: fmt.Sprintf("Top candidates are %.0f%% %s", share*100, gender),
			Severity:    severity,
		})
	}

	if len(years) > 0 {
		sum := 0
		for _, y := range years {
			sum += y
		}
		avg := float64(sum) / float64(len(years))

		switch {
		case avg > shortlistHighAvgYears:
			alerts = append(alerts, talent.BiasAlert{
				Category:    talent.AlertExperience,
				Description: fmt.Sprintf("Top candidates have high average experience (%.1f years)", avg),
				Severity:    talent.SeverityMedium,
			})
		case avg < shortlistLowAvgYears:
			alerts = append(alerts, talent.BiasAlert{
				Category:    talent.AlertExperience,
				Description: fmt.Sprintf("Top candidates have low average experience (%.1f years)", avg),
				Severity:    talent.SeverityMedium,
			})
		}
	}

	return alerts
}

// profiled drops items without a candidate profile. Such items carry no
// demographics and are left out of every share and count.
func profiled(pool *talent.Pool) *talent.Pool {
	if pool == nil {
		return nil
	}
	for i, item := range pool.Items {
		if item != nil && item.Candidate != nil {
			continue
		}
		kept := &talent.Pool{RequirementID: pool.RequirementID, Items: append([]*talent.ScoredCandidate(nil), pool.Items[:i]...)}
		for _, rest := range pool.Items[i+1:] {
			if rest != nil && rest.Candidate != nil {
				kept.Items = append(kept.Items, rest)
			}
		}
		return kept
	}
	return pool
}

func genderBucket(c *talent.Candidate) string {
	if c == nil || c.Gender == "" {
		return unknownBucket
	}
	return c.Gender
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
