package fairness

import (
	"github.com/spigell/talent-matcher/internal/logger"
	"github.com/spigell/talent-matcher/internal/talent"
	"go.uber.org/zap"
)

// Report is the outcome of one policy run over a pool snapshot.
type Report struct {
	Policy         string                   `json:"policy"`
	Metrics        *talent.DiversityMetrics `json:"diversity_metrics,omitempty"`
	Alerts         []talent.BiasAlert       `json:"bias_alerts"`
	DiversityScore float64                  `json:"diversity_score"`
}

// Analyzer runs fairness policies and logs what they find.
type Analyzer struct {
	logger *zap.Logger
}

func NewAnalyzer(log *zap.Logger) *Analyzer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Analyzer{logger: log}
}

// Run analyzes the pool under the given policy.
func (a *Analyzer) Run(policy Policy, pool *talent.Pool) *Report {
	metrics, alerts := Analyze(policy, pool)
	report := &Report{
		Policy:         policy.Name(),
		Metrics:        metrics,
		Alerts:         alerts,
		DiversityScore: DiversityScore(metrics),
	}

	var requirementID string
	if pool != nil {
		requirementID = pool.RequirementID.String()
	}
	log := logger.WithFields(a.logger, logger.PoolFields(requirementID, policy.Name(), pool.Len())...)

	for _, alert := range alerts {
		log.Warn("bias alert",
			zap.String("type", string(alert.Category)),
			zap.String("severity", string(alert.Severity)),
			zap.String("description", alert.Description),
		)
	}
	log.Info("fairness analysis finished",
		zap.Int("alerts", len(alerts)),
		zap.Float64("diversity_score", report.DiversityScore),
	)

	return report
}

// RunAll runs both policies, pool audit first.
func (a *Analyzer) RunAll(pool *talent.Pool) []*Report {
	return []*Report{
		a.Run(PoolAudit(), pool),
		a.Run(ShortlistCheck(), pool),
	}
}
