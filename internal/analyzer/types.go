// Package analyzer owns the request lifecycle of the analyzer widget: the Draft
// being composed, the Attempt submitted to the analysis service, and the
// Result or Failure that the presentation layer renders.
//
// The package contains no scoring logic. Scores and verdicts come from an
// external service reached through a Scorer.
package analyzer

import (
	"context"
	"time"
)

// Status is the lifecycle state of the current Attempt.
type Status int

const (
	StatusIdle      Status = iota // Nothing submitted yet, or the last attempt was abandoned
	StatusPending                 // Request in flight
	StatusSucceeded               // Result available
	StatusFailed                  // Failure available
)

// String returns the display name for each status
func (s Status) String() string {
	names := []string{"idle", "pending", "succeeded", "failed"}
	if int(s) >= 0 && int(s) < len(names) {
		return names[s]
	}
	return "unknown"
}

// MarshalText renders the status by name in JSON output.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// AtRest reports whether the status is one where editing the draft leaves the
// lifecycle untouched.
func (s Status) AtRest() bool {
	return s != StatusPending
}

// Attempt is one submit-to-resolution cycle.
type Attempt struct {
	ID            string    `json:"id"`
	Seq           uint64    `json:"seq"`
	SubmittedText string    `json:"submitted_text"`
	SubmittedAt   time.Time `json:"submitted_at"`
	Status        Status    `json:"status"`
}

// Result is the analysis service's assessment of one Attempt.
// Verdict is an opaque label; the client displays it verbatim.
type Result struct {
	PlagiarismScore float64    `json:"plagiarism_score"`
	FakeNewsScore   float64    `json:"fake_news_score"`
	Verdict         string     `json:"verdict"`
	CheckedAt       *time.Time `json:"checked_at,omitempty"`
}

// Scorer performs the single outbound call for an Attempt.
type Scorer interface {
	Analyze(ctx context.Context, text string) (*Result, error)
}

// ScorerFunc adapts a plain function to a Scorer.
type ScorerFunc func(ctx context.Context, text string) (*Result, error)

// Analyze calls f.
func (f ScorerFunc) Analyze(ctx context.Context, text string) (*Result, error) {
	return f(ctx, text)
}

// Snapshot is a copy of everything a renderer needs. Result and Failure are
// never both set.
type Snapshot struct {
	Draft   string   `json:"draft"`
	Status  Status   `json:"status"`
	Attempt *Attempt `json:"attempt,omitempty"`
	Result  *Result  `json:"result,omitempty"`
	Failure *Failure `json:"failure,omitempty"`
}

// CanSubmit reports whether Submit would accept the snapshot's draft.
func (s Snapshot) CanSubmit() bool {
	return s.Status != StatusPending && !isBlank(s.Draft)
}

type attemptIDKey struct{}

// WithAttemptID tags ctx with the identity of the attempt a request belongs to.
func WithAttemptID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, attemptIDKey{}, id)
}

// AttemptIDFromContext returns the attempt identity set by WithAttemptID.
func AttemptIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(attemptIDKey{}).(string)
	return id, ok && id != ""
}
