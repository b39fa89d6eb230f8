// Package store persists requirements, candidates, match results and
// fairness snapshots in PostgreSQL.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/spigell/talent-matcher/internal/fairness"
	"github.com/spigell/talent-matcher/internal/talent"
)

//go:embed schema.sql
var schema string

var ErrNotFound = errors.New("record not found")

type Store struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}

func New(db *sqlx.DB, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{db: db, logger: log}
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates missing tables and indexes.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	s.logger.Info("schema is up to date")
	return nil
}

type requirementRow struct {
	ID                 uuid.UUID     `db:"id"`
	Title              string        `db:"title"`
	Description        string        `db:"description"`
	RequiredSkills     jsonList      `db:"required_skills"`
	RequiredExperience sql.NullInt64 `db:"required_experience"`
	CreatedAt          time.Time     `db:"created_at"`
}

func (r requirementRow) toRequirement() *talent.Requirement {
	return &talent.Requirement{
		ID:                 r.ID,
		Title:              r.Title,
		Description:        r.Description,
		RequiredSkills:     []string(r.RequiredSkills),
		RequiredExperience: fromNullInt(r.RequiredExperience),
		CreatedAt:          r.CreatedAt,
	}
}

type candidateRow struct {
	ID              uuid.UUID     `db:"id"`
	Name            string        `db:"name"`
	Email           string        `db:"email"`
	Phone           string        `db:"phone"`
	RawText         string        `db:"raw_text"`
	ResumePath      string        `db:"resume_path"`
	Skills          jsonList      `db:"extracted_skills"`
	ExperienceYears sql.NullInt64 `db:"experience_years"`
	Gender          string        `db:"gender"`
	Education       string        `db:"education"`
	Status          string        `db:"status"`
	CreatedAt       time.Time     `db:"created_at"`
}

func newCandidateRow(c *talent.Candidate) candidateRow {
	status := c.Status
	if status == "" {
		status = talent.StatusPending
	}
	return candidateRow{
		ID:              c.ID,
		Name:            c.Name,
		Email:           c.Email,
		Phone:           c.Phone,
		RawText:         c.RawText,
		ResumePath:      c.ResumePath,
		Skills:          jsonList(c.Skills),
		ExperienceYears: toNullInt(c.ExperienceYears),
		Gender:          c.Gender,
		Education:       c.Education,
		Status:          string(status),
		CreatedAt:       createdAt(c.CreatedAt),
	}
}

func (r candidateRow) toCandidate() *talent.Candidate {
	return &talent.Candidate{
		ID:              r.ID,
		Name:            r.Name,
		Email:           r.Email,
		Phone:           r.Phone,
		RawText:         r.RawText,
		ResumePath:      r.ResumePath,
		Skills:          []string(r.Skills),
		ExperienceYears: fromNullInt(r.ExperienceYears),
		Gender:          r.Gender,
		Education:       r.Education,
		Status:          talent.Status(r.Status),
		CreatedAt:       r.CreatedAt,
	}
}

type matchRow struct {
	RequirementID        uuid.UUID                 `db:"requirement_id"`
	CandidateID          uuid.UUID                 `db:"candidate_id"`
	OverallScore         float64                   `db:"overall_score"`
	SkillsMatchScore     float64                   `db:"skills_match_score"`
	ExperienceMatchScore float64                   `db:"experience_match_score"`
	TextSimilarityScore  float64                   `db:"text_similarity_score"`
	MatchedSkills        jsonList                  `db:"matched_skills"`
	MissingSkills        jsonList                  `db:"missing_skills"`
	SkillGaps            jsonDoc[[]talent.SkillGap] `db:"skill_gaps"`
	Breakdown            jsonDoc[talent.Weights]   `db:"breakdown"`
}

func newMatchRow(r *talent.MatchResult) matchRow {
	return matchRow{
		RequirementID:        r.RequirementID,
		CandidateID:          r.CandidateID,
		OverallScore:         r.OverallScore,
		SkillsMatchScore:     r.SkillsMatchScore,
		ExperienceMatchScore: r.ExperienceMatchScore,
		TextSimilarityScore:  r.TextSimilarityScore,
		MatchedSkills:        jsonList(r.MatchedSkills),
		MissingSkills:        jsonList(r.MissingSkills),
		SkillGaps:            jsonDoc[[]talent.SkillGap]{V: r.SkillGaps},
		Breakdown:            jsonDoc[talent.Weights]{V: r.Weights},
	}
}

func (r matchRow) toResult() *talent.MatchResult {
	return &talent.MatchResult{
		RequirementID:        r.RequirementID,
		CandidateID:          r.CandidateID,
		OverallScore:         r.OverallScore,
		SkillsMatchScore:     r.SkillsMatchScore,
		ExperienceMatchScore: r.ExperienceMatchScore,
		TextSimilarityScore:  r.TextSimilarityScore,
		MatchedSkills:        []string(r.MatchedSkills),
		MissingSkills:        []string(r.MissingSkills),
		SkillGaps:            r.SkillGaps.V,
		Weights:              r.Breakdown.V,
	}
}

const upsertRequirement = `
	INSERT INTO requirements (id, title, description, required_skills, required_experience, created_at)
	VALUES (:id, :title, :description, :required_skills, :required_experience, :created_at)
	ON CONFLICT (id) DO UPDATE SET
		title = EXCLUDED.title,
		description = EXCLUDED.description,
		required_skills = EXCLUDED.required_skills,
		required_experience = EXCLUDED.required_experience`

// SaveRequirement inserts or replaces a requirement.
func (s *Store) SaveRequirement(ctx context.Context, req *talent.Requirement) error {
	row := requirementRow{
		ID:                 req.ID,
		Title:              req.Title,
		Description:        req.Description,
		RequiredSkills:     jsonList(req.RequiredSkills),
		RequiredExperience: toNullInt(req.RequiredExperience),
		CreatedAt:          createdAt(req.CreatedAt),
	}
	if _, err := s.db.NamedExecContext(ctx, upsertRequirement, row); err != nil {
		return fmt.Errorf("save requirement %s: %w", req.ID, err)
	}
	return nil
}

func (s *Store) GetRequirement(ctx context.Context, id uuid.UUID) (*talent.Requirement, error) {
	var row requirementRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, title, description, required_skills, required_experience, created_at
		FROM requirements WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("requirement %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get requirement %s: %w", id, err)
	}
	return row.toRequirement(), nil
}

const upsertCandidate = `
	INSERT INTO candidates (id, name, email, phone, raw_text, resume_path, extracted_skills,
		experience_years, gender, education, status, created_at)
	VALUES (:id, :name, :email, :phone, :raw_text, :resume_path, :extracted_skills,
		:experience_years, :gender, :education, :status, :created_at)
	ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name,
		email = EXCLUDED.email,
		phone = EXCLUDED.phone,
		raw_text = EXCLUDED.raw_text,
		resume_path = EXCLUDED.resume_path,
		extracted_skills = EXCLUDED.extracted_skills,
		experience_years = EXCLUDED.experience_years,
		gender = EXCLUDED.gender,
		education = EXCLUDED.education,
		status = EXCLUDED.status`

// SaveCandidate inserts or replaces a candidate profile.
func (s *Store) SaveCandidate(ctx context.Context, c *talent.Candidate) error {
	if _, err := s.db.NamedExecContext(ctx, upsertCandidate, newCandidateRow(c)); err != nil {
		return fmt.Errorf("save candidate %s: %w", c.ID, err)
	}
	return nil
}

const candidateColumns = `id, name, email, phone, raw_text, resume_path, extracted_skills,
	experience_years, gender, education, status, created_at`

func (s *Store) GetCandidate(ctx context.Context, id uuid.UUID) (*talent.Candidate, error) {
	var row candidateRow
	err := s.db.GetContext(ctx, &row, `SELECT `+candidateColumns+` FROM candidates WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("candidate %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get candidate %s: %w", id, err)
	}
	return row.toCandidate(), nil
}

// ListCandidates returns every candidate, oldest first.
func (s *Store) ListCandidates(ctx context.Context) ([]*talent.Candidate, error) {
	var rows []candidateRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT `+candidateColumns+` FROM candidates ORDER BY created_at, id`); err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}

	out := make([]*talent.Candidate, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toCandidate())
	}
	return out, nil
}

// UpdateCandidateStatus stores a new status for the candidate.
func (s *Store) UpdateCandidateStatus(ctx context.Context, id uuid.UUID, status talent.Status) error {
	res, err := s.db.ExecContext(ctx, `UPDATE candidates SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("update candidate %s status: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("candidate %s: %w", id, ErrNotFound)
	}
	return nil
}

// StatusCounts returns the number of candidates per status.
func (s *Store) StatusCounts(ctx context.Context) (map[talent.Status]int, error) {
	var rows []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}
	if err := s.db.SelectContext(ctx, &rows, `SELECT status, COUNT(*) AS count FROM candidates GROUP BY status`); err != nil {
		return nil, fmt.Errorf("count candidates by status: %w", err)
	}

	out := make(map[talent.Status]int, len(rows))
	for _, row := range rows {
		out[talent.Status(row.Status)] = row.Count
	}
	return out, nil
}

const upsertMatch = `
	INSERT INTO match_results (requirement_id, candidate_id, overall_score, skills_match_score,
		experience_match_score, text_similarity_score, matched_skills, missing_skills, skill_gaps, breakdown)
	VALUES (:requirement_id, :candidate_id, :overall_score, :skills_match_score,
		:experience_match_score, :text_similarity_score, :matched_skills, :missing_skills, :skill_gaps, :breakdown)
	ON CONFLICT (requirement_id, candidate_id) DO UPDATE SET
		overall_score = EXCLUDED.overall_score,
		skills_match_score = EXCLUDED.skills_match_score,
		experience_match_score = EXCLUDED.experience_match_score,
		text_similarity_score = EXCLUDED.text_similarity_score,
		matched_skills = EXCLUDED.matched_skills,
		missing_skills = EXCLUDED.missing_skills,
		skill_gaps = EXCLUDED.skill_gaps,
		breakdown = EXCLUDED.breakdown,
		scored_at = now()`

// SaveMatchResults replaces the stored results of the given pairs in one transaction.
func (s *Store) SaveMatchResults(ctx context.Context, results []*talent.MatchResult) error {
	if len(results) == 0 {
		return nil
	}

	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		for _, r := range results {
			if _, err := tx.NamedExecContext(ctx, upsertMatch, newMatchRow(r)); err != nil {
				return fmt.Errorf("save match %s/%s: %w", r.RequirementID, r.CandidateID, err)
			}
		}
		return nil
	})
}

// LoadPool returns the scored candidates of a requirement, best first.
func (s *Store) LoadPool(ctx context.Context, requirementID uuid.UUID) (*talent.Pool, error) {
	var rows []struct {
		matchRow
		Candidate candidateRow `db:"c"`
	}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT m.requirement_id, m.candidate_id, m.overall_score, m.skills_match_score,
			m.experience_match_score, m.text_similarity_score, m.matched_skills, m.missing_skills,
			m.skill_gaps, m.breakdown,
			c.id AS "c.id", c.name AS "c.name", c.email AS "c.email", c.phone AS "c.phone",
			c.raw_text AS "c.raw_text", c.resume_path AS "c.resume_path",
			c.extracted_skills AS "c.extracted_skills", c.experience_years AS "c.experience_years",
			c.gender AS "c.gender", c.education AS "c.education", c.status AS "c.status",
			c.created_at AS "c.created_at"
		FROM match_results m
		JOIN candidates c ON c.id = m.candidate_id
		WHERE m.requirement_id = $1
		ORDER BY m.overall_score DESC, c.created_at, c.id`, requirementID)
	if err != nil {
		return nil, fmt.Errorf("load pool %s: %w", requirementID, err)
	}

	pool := &talent.Pool{RequirementID: requirementID, Items: make([]*talent.ScoredCandidate, 0, len(rows))}
	for _, row := range rows {
		pool.Items = append(pool.Items, &talent.ScoredCandidate{
			Candidate: row.Candidate.toCandidate(),
			Result:    row.toResult(),
		})
	}
	return pool, nil
}

// ReplaceFairness stores a fresh fairness snapshot for the requirement. Alerts of
// the report's policy are replaced as a whole. Metrics are kept for the pool audit only.
func (s *Store) ReplaceFairness(ctx context.Context, requirementID uuid.UUID, report *fairness.Report) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM bias_alerts WHERE requirement_id = $1 AND policy = $2`,
			requirementID, report.Policy); err != nil {
			return fmt.Errorf("delete alerts: %w", err)
		}

		for _, alert := range report.Alerts {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO bias_alerts (requirement_id, policy, type, description, severity)
				VALUES ($1, $2, $3, $4, $5)`,
				requirementID, report.Policy, string(alert.Category), alert.Description, string(alert.Severity)); err != nil {
				return fmt.Errorf("insert alert: %w", err)
			}
		}

		if report.Policy != fairness.PoolAuditName {
			return nil
		}

		if report.Metrics == nil {
			if _, err := tx.ExecContext(ctx, `DELETE FROM diversity_metrics WHERE requirement_id = $1`, requirementID); err != nil {
				return fmt.Errorf("delete metrics: %w", err)
			}
			return nil
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO diversity_metrics (requirement_id, gender_distribution, experience_distribution,
				education_distribution, total_candidates, diversity_score)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (requirement_id) DO UPDATE SET
				gender_distribution = EXCLUDED.gender_distribution,
				experience_distribution = EXCLUDED.experience_distribution,
				education_distribution = EXCLUDED.education_distribution,
				total_candidates = EXCLUDED.total_candidates,
				diversity_score = EXCLUDED.diversity_score,
				computed_at = now()`,
			requirementID,
			jsonMap(report.Metrics.Gender),
			jsonMap(report.Metrics.Experience),
			jsonMap(report.Metrics.Education),
			report.Metrics.TotalCandidates,
			report.DiversityScore,
		); err != nil {
			return fmt.Errorf("save metrics: %w", err)
		}
		return nil
	})
}

// ListAlerts returns the stored alerts of a requirement for one policy.
func (s *Store) ListAlerts(ctx context.Context, requirementID uuid.UUID, policy string) ([]talent.BiasAlert, error) {
	var rows []struct {
		Type        string `db:"type"`
		Description string `db:"description"`
		Severity    string `db:"severity"`
	}
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT type, description, severity FROM bias_alerts
		WHERE requirement_id = $1 AND policy = $2 ORDER BY id`, requirementID, policy); err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}

	out := make([]talent.BiasAlert, 0, len(rows))
	for _, row := range rows {
		out = append(out, talent.BiasAlert{
			Category:    talent.AlertCategory(row.Type),
			Description: row.Description,
			Severity:    talent.Severity(row.Severity),
		})
	}
	return out, nil
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Warn("rollback failed", zap.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func toNullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func fromNullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func createdAt(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}
