package talent

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the recruitment status of a candidate.
type Status string

const (
	StatusPending     Status = "pending"
	StatusShortlisted Status = "shortlisted"
	StatusRejected    Status = "rejected"
	StatusAccepted    Status = "accepted"
)

var ErrInvalidStatus = errors.New("invalid candidate status")

// ParseStatus validates the provided raw status value.
func ParseStatus(raw string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(raw)))
	switch status {
	case StatusPending, StatusShortlisted, StatusRejected, StatusAccepted:
		return status, nil
	case "":
		return StatusPending, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
}

// Requirement is a published job requirement. RequiredSkills keeps the order of
// the source posting: the first entries are the most important ones.
type Requirement struct {
	ID                 uuid.UUID `json:"id" db:"id"`
	Title              string    `json:"title" db:"title" validate:"required"`
	Description        string    `json:"description" db:"description"`
	RequiredSkills     []string  `json:"required_skills" db:"required_skills"`
	RequiredExperience *int      `json:"required_experience,omitempty" db:"required_experience" validate:"omitempty,min=0"`
	CreatedAt          time.Time `json:"created_at,omitzero" db:"created_at"`
}

// Candidate is a candidate profile with pre-extracted attributes.
// Gender and Education are empty when unknown.
type Candidate struct {
	ID              uuid.UUID `json:"id" db:"id"`
	Name            string    `json:"name" db:"name"`
	Email           string    `json:"email,omitempty" db:"email" validate:"omitempty,email"`
	Phone           string    `json:"phone,omitempty" db:"phone"`
	RawText         string    `json:"raw_text,omitempty" db:"raw_text"`
	ResumePath      string    `json:"resume_path,omitempty" db:"resume_path"`
	Skills          []string  `json:"extracted_skills" db:"extracted_skills"`
	ExperienceYears *int      `json:"experience_years,omitempty" db:"experience_years" validate:"omitempty,min=0"`
	Gender          string    `json:"gender,omitempty" db:"gender"`
	Education       string    `json:"education,omitempty" db:"education"`
	Status          Status    `json:"status,omitempty" db:"status" validate:"omitempty,oneof=pending shortlisted rejected accepted"`
	CreatedAt       time.Time `json:"created_at,omitzero" db:"created_at"`
}

// Transition moves the candidate into the next status. It reports whether the
// change is one that candidates are notified about.
func (c *Candidate) Transition(next Status) (bool, error) {
	if _, err := ParseStatus(string(next)); err != nil || next == "" {
		return false, fmt.Errorf("%w: %q", ErrInvalidStatus, next)
	}

	previous := c.Status
	c.Status = next

	if previous == next {
		return false, nil
	}

	return next == StatusShortlisted || next == StatusRejected, nil
}

// IsShortlisted reports whether the candidate is on the shortlist.
func (c *Candidate) IsShortlisted() bool {
	return c.Status == StatusShortlisted
}

// Years returns a pointer to the provided value. It is handy for literals.
func Years(v int) *int {
	return &v
}
