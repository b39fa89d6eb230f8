// Package worker consumes rescoring requests and refreshes stored match results
// and fairness analytics for a requirement.
package worker

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/talent-matcher/internal/fairness"
	"github.com/spigell/talent-matcher/internal/logger"
	"github.com/spigell/talent-matcher/internal/matching"
	"github.com/spigell/talent-matcher/internal/notify"
	"github.com/spigell/talent-matcher/internal/talent"
)

// Repository is the storage used by the worker.
type Repository interface {
	GetRequirement(ctx context.Context, id uuid.UUID) (*talent.Requirement, error)
	ListCandidates(ctx context.Context) ([]*talent.Candidate, error)
	SaveMatchResults(ctx context.Context, results []*talent.MatchResult) error
	ReplaceFairness(ctx context.Context, requirementID uuid.UUID, report *fairness.Report) error
}

// Events announces the rescoring state of a requirement.
type Events interface {
	RequirementStatus(ctx context.Context, event notify.RequirementEvent) error
}

// DocumentLoader returns the text of a resume document.
type DocumentLoader interface {
	Load(ctx context.Context, path string) (string, error)
}

type Deps struct {
	Repository Repository
	Events     Events
	Matcher    *matching.Matcher
	Analyzer   *fairness.Analyzer
	// Documents is optional. Without it candidates keep an empty raw text.
	Documents DocumentLoader
	Logger    *zap.Logger
}

// Summary describes a finished rescoring run.
type Summary struct {
	RequirementID uuid.UUID
	Scored        int
	Alerts        int
}

type Handler struct {
	deps    Deps
	workers int
	logger  *zap.Logger
}

// NewHandler creates a handler. workers limits concurrent scoring of one requirement.
func NewHandler(deps Deps, workers int) *Handler {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if deps.Matcher == nil {
		deps.Matcher = matching.NewMatcher(log)
	}
	if deps.Analyzer == nil {
		deps.Analyzer = fairness.NewAnalyzer(log)
	}
	return &Handler{deps: deps, workers: workers, logger: log}
}

// Handle decodes a queue message and rescores the requirement it names.
func (h *Handler) Handle(ctx context.Context, body []byte) error {
	msg, id, err := DecodeMessage(body)
	if err != nil {
		return err
	}

	h.logger.Info("rescoring requested",
		zap.String(logger.FieldRequirement, id.String()),
		zap.Time("published_at", msg.PublishedAt),
	)

	_, err = h.Process(ctx, id)
	return err
}

// Process rescores every candidate against the requirement, stores the results
// and refreshes fairness analytics. State changes are published as events.
func (h *Handler) Process(ctx context.Context, id uuid.UUID) (*Summary, error) {
	h.publish(ctx, notify.RequirementEvent{
		RequirementID: id,
		Status:        notify.StateProcessing,
		Message:       "rescoring started",
	})

	summary, err := h.process(ctx, id)
	if err != nil {
		h.publish(ctx, notify.RequirementEvent{
			RequirementID: id,
			Status:        notify.StateFailed,
			Message:       "rescoring failed",
		})
		return nil, err
	}

	h.publish(ctx, notify.RequirementEvent{
		RequirementID: id,
		Status:        notify.StateCompleted,
		Message:       "rescoring completed",
		Scored:        summary.Scored,
		Alerts:        summary.Alerts,
	})

	h.logger.Info("rescoring completed",
		zap.String(logger.FieldRequirement, id.String()),
		zap.Int("scored", summary.Scored),
		zap.Int("alerts", summary.Alerts),
	)

	return summary, nil
}

func (h *Handler) process(ctx context.Context, id uuid.UUID) (*Summary, error) {
	req, err := h.deps.Repository.GetRequirement(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get requirement %s: %w", id, err)
	}

	candidates, err := h.deps.Repository.ListCandidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}

	h.loadDocuments(ctx, candidates)

	pool, err := h.deps.Matcher.ScorePool(ctx, req, candidates, h.workers)
	if err != nil {
		return nil, fmt.Errorf("score candidates: %w", err)
	}

	results := make([]*talent.MatchResult, 0, pool.Len())
	for _, item := range pool.Items {
		results = append(results, item.Result)
	}
	if err := h.deps.Repository.SaveMatchResults(ctx, results); err != nil {
		return nil, fmt.Errorf("save match results: %w", err)
	}

	summary := &Summary{RequirementID: id, Scored: len(results)}
	for _, report := range h.deps.Analyzer.RunAll(pool) {
		if err := h.deps.Repository.ReplaceFairness(ctx, id, report); err != nil {
			return nil, fmt.Errorf("save %s report: %w", report.Policy, err)
		}
		summary.Alerts += len(report.Alerts)
	}

	return summary, nil
}

// loadDocuments fills the raw text of candidates that only have a resume path.
// A document that cannot be read leaves the text empty.
func (h *Handler) loadDocuments(ctx context.Context, candidates []*talent.Candidate) {
	if h.deps.Documents == nil {
		return
	}

	for _, c := range candidates {
		if c.RawText != "" || c.ResumePath == "" {
			continue
		}

		text, err := h.deps.Documents.Load(ctx, c.ResumePath)
		if err != nil {
			h.logger.Warn("skipping resume document",
				zap.String(logger.FieldCandidate, c.ID.String()),
				zap.String("path", c.ResumePath),
				zap.Error(err),
			)
			continue
		}
		c.RawText = text
	}
}

func (h *Handler) publish(ctx context.Context, event notify.RequirementEvent) {
	if h.deps.Events == nil {
		return
	}
	if err := h.deps.Events.RequirementStatus(ctx, event); err != nil {
		h.logger.Warn("failed to publish requirement status",
			zap.String(logger.FieldRequirement, event.RequirementID.String()),
			zap.String("status", string(event.Status)),
			zap.Error(err),
		)
	}
}
