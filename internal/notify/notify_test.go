package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/talent-matcher/internal/talent"
)

type published struct {
	exchange   string
	routingKey string
	payload    any
}

type recorder struct {
	messages []published
	err      error
}

func (r *recorder) Publish(_ context.Context, exchange, routingKey string, payload any) error {
	if r.err != nil {
		return r.err
	}
	r.messages = append(r.messages, published{exchange: exchange, routingKey: routingKey, payload: payload})
	return nil
}

func TestRejectionReasons(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		result *talent.MatchResult
		expect []string
	}{
		{
			name:   "no result",
			expect: []string{"Profile did not align with current position requirements"},
		},
		{
			name:   "strong profile",
			result: &talent.MatchResult{SkillsMatchScore: 0.9, ExperienceMatchScore: 1, OverallScore: 0.85},
			expect: []string{"Profile did not align with current position requirements"},
		},
		{
			name:   "weak everywhere",
			result: &talent.MatchResult{SkillsMatchScore: 0.2, ExperienceMatchScore: 0.2, OverallScore: 0.3},
			expect: []string{
				"Skills alignment did not meet the minimum requirements",
				"Experience level does not match the position requirements",
				"Overall profile compatibility was below our threshold",
			},
		},
		{
			name:   "thresholds are strict",
			result: &talent.MatchResult{SkillsMatchScore: 0.5, ExperienceMatchScore: 0.4, OverallScore: 0.59},
			expect: []string{"Overall profile compatibility was below our threshold"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expect, RejectionReasons(tt.result))
		})
	}
}

func TestCandidateStatusChanged(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	n := NewNotifier(rec, nil)
	n.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }

	req := &talent.Requirement{ID: uuid.New(), Title: "Data Engineer"}
	cand := &talent.Candidate{ID: uuid.New(), Name: "Ann", Email: "ann@example.com", Status: talent.StatusPending}

	_, err := cand.Transition(talent.StatusRejected)
	require.NoError(t, err)

	sent, err := n.CandidateStatusChanged(context.Background(), cand, talent.StatusPending, req, &talent.MatchResult{SkillsMatchScore: 0.3, ExperienceMatchScore: 1, OverallScore: 0.7})
	require.NoError(t, err)
	require.True(t, sent)
	require.Len(t, rec.messages, 1)

	msg := rec.messages[0]
	assert.Equal(t, CandidateExchange, msg.exchange)
	assert.Equal(t, "candidate."+cand.ID.String(), msg.routingKey)

	event, ok := msg.payload.(CandidateEvent)
	require.True(t, ok)
	assert.Equal(t, "Data Engineer", event.Position)
	assert.Equal(t, []string{"Skills alignment did not meet the minimum requirements"}, event.Reasons)
	assert.Equal(t, talent.StatusPending, event.PreviousStatus)

	sent, err = n.CandidateStatusChanged(context.Background(), cand, talent.StatusRejected, req, nil)
	require.NoError(t, err)
	assert.False(t, sent, "same status must not publish")

	cand.Status = talent.StatusAccepted
	sent, err = n.CandidateStatusChanged(context.Background(), cand, talent.StatusShortlisted, nil, nil)
	require.NoError(t, err)
	assert.False(t, sent, "accepted is not announced")
	assert.Len(t, rec.messages, 1)
}

func TestShortlistEventHasNoReasons(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	cand := &talent.Candidate{ID: uuid.New(), Status: talent.StatusShortlisted}

	sent, err := NewNotifier(rec, nil).CandidateStatusChanged(context.Background(), cand, talent.StatusPending, nil, nil)
	require.NoError(t, err)
	require.True(t, sent)

	event := rec.messages[0].payload.(CandidateEvent)
	assert.Empty(t, event.Reasons)
	assert.Equal(t, "the position", event.Position)
}

func TestRequirementStatus(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	id := uuid.New()
	require.NoError(t, NewNotifier(rec, nil).RequirementStatus(context.Background(), RequirementEvent{RequirementID: id, Status: StateCompleted}))

	assert.Equal(t, RequirementExchange, rec.messages[0].exchange)
	assert.Equal(t, "requirement."+id.String(), rec.messages[0].routingKey)
	assert.False(t, rec.messages[0].payload.(RequirementEvent).Timestamp.IsZero())

	failing := &recorder{err: errors.New("broker down")}
	err := NewNotifier(failing, nil).RequirementStatus(context.Background(), RequirementEvent{RequirementID: id})
	assert.ErrorContains(t, err, "broker down")
}
