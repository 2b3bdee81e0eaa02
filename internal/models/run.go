package models

import (
	"fmt"
	"time"
)

// Outcome classifies how a triggered action ended.
type Outcome int

const (
	// Succeeded means a non-empty response was rendered.
	Succeeded Outcome = iota
	// Empty means the backend answered null or a non-positive counter.
	Empty
	// Failed covers transport errors, timeouts, non-2xx statuses and malformed payloads.
	Failed
	// Refused means a precondition rejected the activation; no request was issued.
	Refused
	// Ignored means the activation hit the re-entrancy guard.
	Ignored
)

func (o Outcome) String() string {
	switch o {
	case Succeeded:
		return "succeeded"
	case Empty:
		return "empty"
	case Failed:
		return "failed"
	case Refused:
		return "refused"
	case Ignored:
		return "ignored"
	default:
		return "unknown"
	}
}

// ParseOutcome is the inverse of [Outcome.String].
func ParseOutcome(s string) (Outcome, error) {
	for _, o := range []Outcome{Succeeded, Empty, Failed, Refused, Ignored} {
		if o.String() == s {
			return o, nil
		}
	}
	return 0, fmt.Errorf("unknown outcome %q", s)
}

// Run is one completed backend request.
type Run struct {
	ID         string
	Sequence   int
	Action     string
	Endpoint   string
	URL        string
	Outcome    Outcome
	StatusCode int
	Duration   time.Duration
	Error      string
	CreatedAt  time.Time
}

// Validate checks the fields the history relies on.
func (r *Run) Validate() error {
	if r.Action == "" {
		return fmt.Errorf("run action is required")
	}
	if r.Endpoint == "" {
		return fmt.Errorf("run endpoint is required")
	}
	if r.CreatedAt.IsZero() {
		return fmt.Errorf("run created_at is required")
	}
	return nil
}
