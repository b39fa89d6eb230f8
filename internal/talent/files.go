package talent

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

// Validate checks the struct tags of a requirement or candidate.
func Validate(v any) error {
	return validate.Struct(v)
}

// LoadRequirement reads a requirement from a JSON file.
func LoadRequirement(path string) (*Requirement, error) {
	var req Requirement
	if err := readJSON(path, &req); err != nil {
		return nil, err
	}

	if err := Validate(&req); err != nil {
		return nil, fmt.Errorf("requirement %s: %w", path, err)
	}

	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}

	return &req, nil
}

// LoadCandidates reads a JSON array of candidate profiles.
func LoadCandidates(path string) ([]*Candidate, error) {
	var candidates []*Candidate
	if err := readJSON(path, &candidates); err != nil {
		return nil, err
	}

	for idx, c := range candidates {
		if c == nil {
			return nil, fmt.Errorf("candidate #%d in %s is null", idx, path)
		}
		if err := prepareCandidate(c); err != nil {
			return nil, fmt.Errorf("candidate #%d in %s: %w", idx, path, err)
		}
	}

	return candidates, nil
}

// LoadPool reads a scored pool previously written by DumpToTmpFile or the score command.
func LoadPool(path string) (*Pool, error) {
	var pool Pool
	if err := readJSON(path, &pool); err != nil {
		return nil, err
	}

	for idx, item := range pool.Items {
		if item == nil || item.Candidate == nil {
			return nil, fmt.Errorf("pool item #%d in %s has no candidate", idx, path)
		}
		if err := prepareCandidate(item.Candidate); err != nil {
			return nil, fmt.Errorf("pool item #%d in %s: %w", idx, path, err)
		}
	}

	return &pool, nil
}

func prepareCandidate(c *Candidate) error {
	if err := Validate(c); err != nil {
		return err
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Status == "" {
		c.Status = StatusPending
	}
	return nil
}

func readJSON(path string, dst any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}

	return nil
}
