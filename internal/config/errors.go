package config

import (
	"fmt"
	"strings"
)

// Problem is a single invalid or missing setting.
type Problem struct {
	Key    string
	Reason string
}

// ValidationError collects every configuration problem found at startup.
type ValidationError struct {
	Problems []Problem
}

func (e *ValidationError) add(key, reason string) {
	e.Problems = append(e.Problems, Problem{Key: key, Reason: reason})
}

// HasProblems reports whether any setting failed validation.
func (e *ValidationError) HasProblems() bool {
	return e != nil && len(e.Problems) > 0
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, fmt.Sprintf("%s %s", p.Key, p.Reason))
	}
	return "invalid configuration: " + strings.Join(parts, "; ")
}
