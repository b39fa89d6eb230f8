package filtering

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/talent-matcher/internal/talent"
)

type minimumScoreFilter struct {
	disabled bool
	reason   string
	minimum  float64
}

// NewMinimumScore creates a filter that removes candidates scoring below the configured minimum.
func NewMinimumScore() Filter {
	return &minimumScoreFilter{}
}

func (f *minimumScoreFilter) Name() string { return "minimum_score" }

func (f *minimumScoreFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *minimumScoreFilter) IsEnabled() bool { return !f.disabled }

func (f *minimumScoreFilter) Validate(cfg *Config) error {
	f.minimum = 0
	if cfg != nil {
		f.minimum = cfg.MinimumScore
	}
	if f.minimum < 0 || f.minimum > 1 {
		return fmt.Errorf("minimum score must be within [0,1], got %v", f.minimum)
	}
	return nil
}

func (f *minimumScoreFilter) Apply(_ context.Context, deps Deps, p *talent.Pool) (*talent.Pool, Step, error) {
	initial := p.Len()
	if f.minimum == 0 {
		return p, Step{Initial: initial, Dropped: 0, Left: p.Len()}, nil
	}

	var ids []uuid.UUID
	for _, item := range p.Items {
		if item.OverallScore() < f.minimum {
			ids = append(ids, item.Candidate.ID)
		}
	}

	excluded := p.Exclude(ids)
	if len(excluded) > 0 {
		deps.Logger.Info("excluding candidates below minimum score",
			zap.Float64("minimum_score", f.minimum),
			zap.Stringers("excluded_candidates", excluded),
			zap.Int("candidates_left", p.Len()),
		)
	}

	return p, Step{Initial: initial, Dropped: len(excluded), Left: p.Len()}, nil
}

func (f *minimumScoreFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"minimum_score": strconv.FormatFloat(f.minimum, 'f', 2, 64)},
	}
}

type statusFilter struct {
	statuses []talent.Status
}

// NewStatus creates a filter that removes candidates in excluded statuses.
// Rejected candidates are excluded when nothing is configured.
func NewStatus() Filter {
	return &statusFilter{}
}

func (f *statusFilter) Name() string { return "status" }

func (f *statusFilter) Disable(string) {}

func (f *statusFilter) IsEnabled() bool { return true }

func (f *statusFilter) Validate(cfg *Config) error {
	f.statuses = []talent.Status{talent.StatusRejected}
	if cfg == nil || len(cfg.ExcludeStatuses) == 0 {
		return nil
	}

	f.statuses = f.statuses[:0]
	for _, raw := range cfg.ExcludeStatuses {
		status, err := talent.ParseStatus(string(raw))
		if err != nil {
			return err
		}
		f.statuses = append(f.statuses, status)
	}
	return nil
}

func (f *statusFilter) Apply(_ context.Context, deps Deps, p *talent.Pool) (*talent.Pool, Step, error) {
	initial := p.Len()

	var ids []uuid.UUID
	for _, item := range p.Items {
		for _, status := range f.statuses {
			if item.Candidate.Status == status {
				ids = append(ids, item.Candidate.ID)
				break
			}
		}
	}

	excluded := p.Exclude(ids)
	if len(excluded) > 0 {
		deps.Logger.Info("excluding candidates by status",
			zap.Strings("statuses", f.statusNames()),
			zap.Stringers("excluded_candidates", excluded),
			zap.Int("candidates_left", p.Len()),
		)
	}

	return p, Step{Initial: initial, Dropped: len(excluded), Left: p.Len()}, nil
}

func (f *statusFilter) statusNames() []string {
	names := make([]string, 0, len(f.statuses))
	for _, s := range f.statuses {
		names = append(names, string(s))
	}
	return names
}

func (f *statusFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: true,
		Details: map[string]string{"statuses": strings.Join(f.statusNames(), ",")},
	}
}

type excludeFileFilter struct {
	path string
}

// NewExcludeFile creates a filter that removes candidates contained in the exclude file.
func NewExcludeFile() Filter {
	return &excludeFileFilter{}
}

func (f *excludeFileFilter) Name() string { return "exclude_file" }

func (f *excludeFileFilter) Disable(string) {}

func (f *excludeFileFilter) IsEnabled() bool { return true }

func (f *excludeFileFilter) Validate(cfg *Config) error {
	f.path = ""
	if cfg != nil {
		f.path = strings.TrimSpace(cfg.ExcludeFile)
	}
	return nil
}

func (f *excludeFileFilter) Apply(_ context.Context, deps Deps, p *talent.Pool) (*talent.Pool, Step, error) {
	initial := p.Len()
	if f.path == "" {
		return p, Step{Initial: initial, Dropped: 0, Left: p.Len()}, nil
	}

	excluded, err := talent.GetExcludedCandidatesFromFile(f.path)
	if err != nil {
		return p, Step{}, fmt.Errorf("getting excluded candidates from file: %w", err)
	}

	removed := p.Exclude(excluded.CandidateIDs())
	if len(removed) > 0 {
		deps.Logger.Info("excluding candidates based on exclude file",
			zap.String("path", f.path),
			zap.Stringers("excluded_candidates", removed),
			zap.Int("candidates_left", p.Len()),
		)
	}

	return p, Step{Initial: initial, Dropped: len(removed), Left: p.Len()}, nil
}

func (f *excludeFileFilter) Status() Status {
	details := map[string]string{}
	if f.path != "" {
		details["path"] = f.path
	}
	return Status{Name: f.Name(), Enabled: true, Details: details}
}

type topFilter struct {
	limit int
}

// NewTop creates a filter that ranks the pool and keeps the best candidates.
// A zero limit keeps everyone but still ranks.
func NewTop() Filter {
	return &topFilter{}
}

func (f *topFilter) Name() string { return "top" }

func (f *topFilter) Disable(string) {}

func (f *topFilter) IsEnabled() bool { return true }

func (f *topFilter) Validate(cfg *Config) error {
	f.limit = 0
	if cfg != nil {
		f.limit = cfg.Top
	}
	if f.limit < 0 {
		return fmt.Errorf("top must not be negative, got %d", f.limit)
	}
	return nil
}

func (f *topFilter) Apply(_ context.Context, deps Deps, p *talent.Pool) (*talent.Pool, Step, error) {
	initial := p.Len()

	ranked := p.Ranked()
	if f.limit > 0 {
		ranked = ranked.Top(f.limit)
	}

	if dropped := initial - ranked.Len(); dropped > 0 {
		deps.Logger.Info("keeping top candidates",
			zap.Int("top", f.limit),
			zap.Int("dropped", dropped),
		)
	}

	return ranked, Step{Initial: initial, Dropped: initial - ranked.Len(), Left: ranked.Len()}, nil
}

func (f *topFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: true, Details: map[string]string{"top": strconv.Itoa(f.limit)}}
}
