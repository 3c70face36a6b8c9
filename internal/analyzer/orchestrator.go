package analyzer

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Orchestrator drives one analyzer widget. It owns the Draft and the current
// Attempt, and applies completions only when they belong to that Attempt.
//
// State transitions:
//
//	Idle      --Submit-->   Pending
//	Pending   --Complete--> Succeeded | Failed   (current attempt only)
//	Pending   --Abandon-->  Idle
//	Succeeded --Submit-->   Pending
//	Failed    --Submit-->   Pending
//
// Completions for any other attempt are dropped.
type Orchestrator struct {
	mu      sync.Mutex
	scorer  Scorer
	logger  *zap.Logger
	now     func() time.Time
	seq     uint64
	draft   string
	current *Attempt
	result  *Result
	failure *Failure

	inflight sync.WaitGroup
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger used for lifecycle events.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock overrides the time source used to stamp attempts.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// New creates an orchestrator with an empty draft.
func New(scorer Scorer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		scorer: scorer,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Request is an accepted submission waiting to be sent.
type Request struct {
	Attempt Attempt
	scorer  Scorer
}

// Completion is the outcome of one Request, addressed to its attempt.
type Completion struct {
	AttemptID string
	Result    *Result
	Err       error
}

// Do performs the request's single network call. It never retries.
func (r *Request) Do(ctx context.Context) Completion {
	ctx = WithAttemptID(ctx, r.Attempt.ID)
	res, err := r.scorer.Analyze(ctx, r.Attempt.SubmittedText)
	if err == nil && res == nil {
		err = &MalformedError{Reason: "empty result"}
	}
	return Completion{AttemptID: r.Attempt.ID, Result: res, Err: err}
}

// UpdateDraft replaces the draft text. The current attempt is untouched.
func (o *Orchestrator) UpdateDraft(text string) {
	o.mu.Lock()
	o.draft = text
	o.mu.Unlock()
}

// Draft returns the current draft text.
func (o *Orchestrator) Draft() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.draft
}

// Status returns the lifecycle status of the current attempt.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.statusLocked()
}

func (o *Orchestrator) statusLocked() Status {
	if o.current == nil {
		return StatusIdle
	}
	return o.current.Status
}

// Submit starts a new attempt from the draft. It returns nil without changing
// anything when the draft is blank or an attempt is already pending.
//
// The draft is sent exactly as composed, surrounding whitespace included.
func (o *Orchestrator) Submit() *Request {
	o.mu.Lock()
	defer o.mu.Unlock()

	if isBlank(o.draft) {
		o.logger.Debug("submit skipped: blank draft")
		return nil
	}
	if o.statusLocked() == StatusPending {
		o.logger.Debug("submit skipped: attempt already pending", zap.String("attempt_id", o.current.ID))
		return nil
	}

	o.seq++
	attempt := &Attempt{
		ID:            uuid.NewString(),
		Seq:           o.seq,
		SubmittedText: o.draft,
		SubmittedAt:   o.now(),
		Status:        StatusPending,
	}
	o.current = attempt
	o.result = nil
	o.failure = nil

	o.logger.Info("attempt submitted",
		zap.String("attempt_id", attempt.ID),
		zap.Uint64("seq", attempt.Seq),
		zap.Int("text_len", len(attempt.SubmittedText)))

	return &Request{Attempt: *attempt, scorer: o.scorer}
}

// Complete applies a completion to the attempt it belongs to. It returns
// false, leaving all state as it was, when the completion is stale: its
// attempt was superseded or abandoned, or has already resolved.
func (o *Orchestrator) Complete(c Completion) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.current == nil || o.current.ID != c.AttemptID || o.current.Status != StatusPending {
		o.logger.Debug("stale completion dropped", zap.String("attempt_id", c.AttemptID))
		return false
	}

	if c.Err == nil && c.Result == nil {
		c.Err = &MalformedError{Reason: "empty result"}
	}
	if c.Err != nil {
		o.current.Status = StatusFailed
		o.failure = failureFrom(c.Err)
		o.logger.Warn("attempt failed",
			zap.String("attempt_id", c.AttemptID),
			zap.Stringer("kind", o.failure.Kind),
			zap.Error(c.Err))
		return true
	}

	res := *c.Result
	o.current.Status = StatusSucceeded
	o.result = &res
	o.logger.Info("attempt succeeded",
		zap.String("attempt_id", c.AttemptID),
		zap.Float64("plagiarism_score", res.PlagiarismScore),
		zap.Float64("fake_news_score", res.FakeNewsScore))
	return true
}

// Abandon withdraws a pending attempt and returns to idle. The request is not
// cancelled; its completion will arrive later and be dropped as stale.
func (o *Orchestrator) Abandon() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.statusLocked() != StatusPending {
		return false
	}
	o.logger.Info("attempt abandoned", zap.String("attempt_id", o.current.ID))
	o.current = nil
	o.result = nil
	o.failure = nil
	return true
}

// Dispatch submits the draft and sends the request on its own goroutine.
// notify runs after the completion has been applied; it is not called for
// stale completions. Dispatch reports whether a submission was accepted.
func (o *Orchestrator) Dispatch(ctx context.Context, notify func(Snapshot)) bool {
	req := o.Submit()
	if req == nil {
		return false
	}

	o.inflight.Add(1)
	go func() {
		defer o.inflight.Done()
		if o.Complete(req.Do(ctx)) && notify != nil {
			notify(o.Snapshot())
		}
	}()
	return true
}

// Wait blocks until every request started by Dispatch has returned.
func (o *Orchestrator) Wait() {
	o.inflight.Wait()
}

// Snapshot returns a copy of the state for rendering.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	snap := Snapshot{
		Draft:  o.draft,
		Status: o.statusLocked(),
	}
	if o.current != nil {
		a := *o.current
		snap.Attempt = &a
	}
	if o.result != nil {
		r := *o.result
		snap.Result = &r
	}
	if o.failure != nil {
		f := *o.failure
		snap.Failure = &f
	}
	return snap
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
