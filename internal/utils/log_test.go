package utils

import "testing"

func TestTruncateForLog(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		limit  int
		expect string
	}{
		{
			name:   "returns empty when limit non-positive",
			input:  "hello world",
			limit:  0,
			expect: "",
		},
		{
			name:   "shorter than limit",
			input:  "hello",
			limit:  10,
			expect: "hello",
		},
		{
			name:   "truncates and adds ellipsis",
			input:  "hello world",
			limit:  5,
			expect: "hello...",
		},
		{
			name:   "trims surrounding whitespace",
			input:  "  spaced  ",
			limit:  5,
			expect: "space...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := TruncateForLog(tt.input, tt.limit); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestRound(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input  float64
		places int
		expect float64
	}{
		{input: 0.755, places: 2, expect: 0.76},
		{input: 0.7649999, places: 2, expect: 0.76},
		{input: 2.675, places: 2, expect: 2.67},
		{input: 66.66666, places: 1, expect: 66.7},
		{input: 1, places: 2, expect: 1},
		{input: 0, places: 1, expect: 0},
	}

	for _, tt := range tests {
		if got := Round(tt.input, tt.places); got != tt.expect {
			t.Fatalf("Round(%v, %d): expected %v, got %v", tt.input, tt.places, tt.expect, got)
		}
	}
}
