package service

import (
	"fmt"
	"strings"
	"time"
)

// Failure records one row or section the backend (or provider) rejected
// while the pass kept going.
type Failure struct {
	Level string // "utility", "schedule", "detail"
	Key   string
	Err   error
}

func (f Failure) String() string {
	return fmt.Sprintf("%s %s: %v", f.Level, f.Key, f.Err)
}

// Summary is the result of one sync run.
type Summary struct {
	StartedAt       time.Time
	Duration        time.Duration
	Utilities       int
	Schedules       int
	DetailRecords   int
	SectionsSkipped int
	Failures        []Failure
}

// Failed reports whether any row failed during the pass.
func (s *Summary) Failed() bool {
	return len(s.Failures) > 0
}

// Err folds accumulated failures into a single error, or nil on full success.
func (s *Summary) Err() error {
	if !s.Failed() {
		return nil
	}

	parts := make([]string, 0, len(s.Failures))
	for _, f := range s.Failures {
		parts = append(parts, f.String())
	}
	return fmt.Errorf("%d row(s) failed: %s", len(s.Failures), strings.Join(parts, "; "))
}
