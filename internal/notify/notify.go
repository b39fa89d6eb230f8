// Package notify publishes candidate and requirement status events.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/talent-matcher/internal/logger"
	"github.com/spigell/talent-matcher/internal/talent"
)

const (
	CandidateExchange   = "candidate_updates"
	RequirementExchange = "requirement_updates"

	defaultPosition = "the position"
	defaultReason   = "Profile did not align with current position requirements"
)

// Publisher delivers a JSON payload to an exchange.
type Publisher interface {
	Publish(ctx context.Context, exchange, routingKey string, payload any) error
}

// CandidateEvent is published when a candidate enters the shortlist or is rejected.
// Delivery to the candidate is handled by downstream consumers.
type CandidateEvent struct {
	CandidateID    uuid.UUID     `json:"candidate_id"`
	RequirementID  uuid.UUID     `json:"requirement_id,omitzero"`
	Name           string        `json:"name"`
	Email          string        `json:"email,omitempty"`
	Position       string        `json:"position"`
	PreviousStatus talent.Status `json:"previous_status"`
	Status         talent.Status `json:"status"`
	Reasons        []string      `json:"reasons,omitempty"`
	Timestamp      time.Time     `json:"timestamp"`
}

// RequirementState is the rescoring state of a requirement.
type RequirementState string

const (
	StateProcessing RequirementState = "processing"
	StateCompleted  RequirementState = "completed"
	StateFailed     RequirementState = "failed"
)

type RequirementEvent struct {
	RequirementID uuid.UUID        `json:"requirement_id"`
	Status        RequirementState `json:"status"`
	Message       string           `json:"message"`
	Scored        int              `json:"scored,omitempty"`
	Alerts        int              `json:"alerts,omitempty"`
	Timestamp     time.Time        `json:"timestamp"`
}

// RejectionReasons explains a rejection from the candidate's latest match result.
func RejectionReasons(result *talent.MatchResult) []string {
	var reasons []string
	if result != nil {
		if result.SkillsMatchScore < 0.5 {
			reasons = append(reasons, "Skills alignment did not meet the minimum requirements")
		}
		if result.ExperienceMatchScore < 0.4 {
			reasons = append(reasons, "Experience level does not match the position requirements")
		}
		if result.OverallScore < 0.6 {
			reasons = append(reasons, "Overall profile compatibility was below our threshold")
		}
	}
	if len(reasons) == 0 {
		reasons = []string{defaultReason}
	}
	return reasons
}

// Notifier turns status changes into published events.
type Notifier struct {
	publisher Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewNotifier(publisher Publisher, log *zap.Logger) *Notifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Notifier{publisher: publisher, logger: log, now: time.Now}
}

// CandidateStatusChanged publishes an event for a transition from previous to
// the candidate's current status. It returns false when the transition is not
// one candidates are told about.
func (n *Notifier) CandidateStatusChanged(ctx context.Context, c *talent.Candidate, previous talent.Status, req *talent.Requirement, result *talent.MatchResult) (bool, error) {
	if c.Status == previous || (c.Status != talent.StatusShortlisted && c.Status != talent.StatusRejected) {
		return false, nil
	}

	event := CandidateEvent{
		CandidateID:    c.ID,
		Name:           c.Name,
		Email:          c.Email,
		Position:       defaultPosition,
		PreviousStatus: previous,
		Status:         c.Status,
		Timestamp:      n.now().UTC(),
	}
	if req != nil {
		event.RequirementID = req.ID
		if req.Title != "" {
			event.Position = req.Title
		}
	}
	if c.Status == talent.StatusRejected {
		event.Reasons = RejectionReasons(result)
	}

	routingKey := fmt.Sprintf("candidate.%s", c.ID)
	if err := n.publisher.Publish(ctx, CandidateExchange, routingKey, event); err != nil {
		return false, fmt.Errorf("publish candidate event: %w", err)
	}

	n.logger.Info("candidate status event published",
		append(logger.MatchFields(event.RequirementID.String(), c.ID.String()),
			zap.String("status", string(c.Status)),
			zap.String("previous_status", string(previous)),
		)...,
	)

	return true, nil
}

// RequirementStatus publishes the rescoring state of a requirement.
func (n *Notifier) RequirementStatus(ctx context.Context, event RequirementEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = n.now().UTC()
	}

	routingKey := fmt.Sprintf("requirement.%s", event.RequirementID)
	if err := n.publisher.Publish(ctx, RequirementExchange, routingKey, event); err != nil {
		return fmt.Errorf("publish requirement event: %w", err)
	}
	return nil
}
