package talent

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Pool is an ordered set of scored candidates for one requirement.
type Pool struct {
	RequirementID uuid.UUID          `json:"requirement_id"`
	Items         []*ScoredCandidate `json:"items"`
}

// ExcludedCandidates is the content of an exclude file.
type ExcludedCandidates struct {
	Items []*ExcludedCandidate
}

type ExcludedCandidate struct {
	ID         uuid.UUID
	Name       string
	Reason     string
	ExcludedAt time.Time
}

func (p *Pool) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Items)
}

func (p *Pool) FindByID(id uuid.UUID) *ScoredCandidate {
	for _, item := range p.Items {
		if item.Candidate != nil && item.Candidate.ID == id {
			return item
		}
	}
	return nil
}

// Exclude removes candidates with the given ids, keeping the order of the rest.
// It returns the ids that were actually removed.
func (p *Pool) Exclude(ids []uuid.UUID) []uuid.UUID {
	if len(ids) == 0 {
		return nil
	}

	targets := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		targets[id] = struct{}{}
	}

	var excluded []uuid.UUID
	kept := p.Items[:0]
	for _, item := range p.Items {
		if item.Candidate != nil {
			if _, ok := targets[item.Candidate.ID]; ok {
				excluded = append(excluded, item.Candidate.ID)
				continue
			}
		}
		kept = append(kept, item)
	}
	clear(p.Items[len(kept):])
	p.Items = kept

	return excluded
}

// Ranked returns a copy of the pool sorted by overall score, highest first.
// Candidates with equal scores keep their relative order.
func (p *Pool) Ranked() *Pool {
	items := slices.Clone(p.Items)
	slices.SortStableFunc(items, func(a, b *ScoredCandidate) int {
		sa, sb := a.OverallScore(), b.OverallScore()
		switch {
		case sa > sb:
			return -1
		case sa < sb:
			return 1
		default:
			return 0
		}
	})
	return &Pool{RequirementID: p.RequirementID, Items: items}
}

// Top returns the n highest scoring candidates.
func (p *Pool) Top(n int) *Pool {
	ranked := p.Ranked()
	if n >= 0 && n < ranked.Len() {
		ranked.Items = ranked.Items[:n]
	}
	return ranked
}

func (p *Pool) IDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, p.Len())
	for _, item := range p.Items {
		if item.Candidate != nil {
			ids = append(ids, item.Candidate.ID)
		}
	}
	return ids
}

func (p *Pool) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "pool_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		return "", err
	}
	return file.Name(), nil
}

// ReportByStatus groups candidate summaries by their recruitment status.
func (p *Pool) ReportByStatus() map[Status][]map[string]string {
	report := make(map[Status][]map[string]string)
	for _, item := range p.Items {
		if item.Candidate == nil {
			continue
		}
		status := item.Candidate.Status
		if status == "" {
			status = StatusPending
		}
		entry := map[string]string{
			"id":    item.Candidate.ID.String(),
			"name":  item.Candidate.Name,
			"email": item.Candidate.Email,
			"score": fmt.Sprintf("%.2f", item.OverallScore()),
		}
		if item.Result != nil && len(item.Result.MissingSkills) > 0 {
			entry["missing"] = fmt.Sprintf("%v", item.Result.MissingSkills)
		}
		report[status] = append(report[status], entry)
	}
	return report
}

func (p *Pool) ToExcluded(reason string) *ExcludedCandidates {
	excluded := &ExcludedCandidates{}
	for _, item := range p.Items {
		if item.Candidate == nil {
			continue
		}
		excluded.Items = append(excluded.Items, &ExcludedCandidate{
			ID:         item.Candidate.ID,
			Name:       item.Candidate.Name,
			Reason:     reason,
			ExcludedAt: time.Now().UTC(),
		})
	}
	return excluded
}

// GetExcludedCandidatesFromFile reads an exclude file. A missing or empty file
// yields an empty list.
func GetExcludedCandidatesFromFile(path string) (*ExcludedCandidates, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &ExcludedCandidates{}, nil
		}
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if stat.Size() == 0 {
		return &ExcludedCandidates{}, nil
	}

	var excluded ExcludedCandidates
	if err := json.NewDecoder(file).Decode(&excluded); err != nil {
		return nil, err
	}
	return &excluded, nil
}

func (e *ExcludedCandidates) Append(s *ExcludedCandidates) {
	e.Items = append(e.Items, s.Items...)
}

func (e *ExcludedCandidates) CandidateIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(e.Items))
	for _, candidate := range e.Items {
		ids = append(ids, candidate.ID)
	}
	return ids
}

func (e *ExcludedCandidates) ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}
