package store

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrNotFound is returned when no run has been recorded for a trigger.
	ErrNotFound = errors.New("no runs recorded")
)

// Trigger identifies which path started a pipeline run.
type Trigger string

const (
	TriggerCommand  Trigger = "command"
	TriggerSchedule Trigger = "schedule"
)

// Outcome is how a pipeline run ended.
type Outcome string

const (
	OutcomeDelivered Outcome = "delivered"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
)

// Run is the metadata of one pipeline run. Forecast text is never kept.
type Run struct {
	ID        string        `json:"id"`
	Trigger   Trigger       `json:"trigger"`
	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"durationNs"`
	Outcome   Outcome       `json:"outcome"`
	Error     string        `json:"error,omitempty"`
}

// RunLog is a concurrency-safe in-memory log of recent runs.
type RunLog struct {
	mu   sync.RWMutex
	runs []Run // oldest first

	// retention configuration
	maxHistory int           // max number of runs kept
	maxAge     time.Duration // optional max age for runs

	now func() time.Time
}

// NewRunLog creates a RunLog with optional limits.
// If maxHistory or maxAge is <= 0, that limit is not enforced.
func NewRunLog(maxHistory int, maxAge time.Duration) *RunLog {
	return &RunLog{
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// Record appends a run and enforces retention.
func (l *RunLog) Record(run Run) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.runs = append(l.runs, run)

	// Enforce retention by count.
	if l.maxHistory > 0 && len(l.runs) > l.maxHistory {
		over := len(l.runs) - l.maxHistory
		l.runs = l.runs[over:]
	}

	// Enforce retention by age.
	if l.maxAge > 0 {
		cutoff := l.now().Add(-l.maxAge)
		i := 0
		for ; i < len(l.runs); i++ {
			if !l.runs[i].StartedAt.Before(cutoff) {
				break
			}
		}
		if i > 0 {
			l.runs = append([]Run(nil), l.runs[i:]...)
		}
	}
}

// Recent returns up to limit runs, newest first.
func (l *RunLog) Recent(limit int) []Run {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if limit <= 0 || limit > len(l.runs) {
		limit = len(l.runs)
	}

	out := make([]Run, 0, limit)
	for i := len(l.runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, l.runs[i])
	}
	return out
}

// Last returns the most recent run for a trigger.
func (l *RunLog) Last(trigger Trigger) (Run, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for i := len(l.runs) - 1; i >= 0; i-- {
		if l.runs[i].Trigger == trigger {
			return l.runs[i], nil
		}
	}
	return Run{}, ErrNotFound
}
