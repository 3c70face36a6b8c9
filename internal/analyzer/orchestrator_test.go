package analyzer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// =============================================================================
// TEST SCORER
// =============================================================================

// recordingScorer counts outbound calls and answers from respond.
type recordingScorer struct {
	mu      sync.Mutex
	texts   []string
	ids     []string
	respond func(text string) (*Result, error)
}

func (s *recordingScorer) Analyze(ctx context.Context, text string) (*Result, error) {
	id, _ := AttemptIDFromContext(ctx)
	s.mu.Lock()
	s.texts = append(s.texts, text)
	s.ids = append(s.ids, id)
	respond := s.respond
	s.mu.Unlock()

	if respond == nil {
		return &Result{PlagiarismScore: 0.42, FakeNewsScore: 0.87, Verdict: "Likely original"}, nil
	}
	return respond(text)
}

func (s *recordingScorer) calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.texts...)
}

// gatedScorer blocks each call until its text is released.
type gatedScorer struct {
	mu    sync.Mutex
	gates map[string]chan struct{}
}

func newGatedScorer(texts ...string) *gatedScorer {
	g := &gatedScorer{gates: make(map[string]chan struct{})}
	for _, t := range texts {
		g.gates[t] = make(chan struct{})
	}
	return g
}

func (g *gatedScorer) release(text string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	close(g.gates[text])
}

func (g *gatedScorer) Analyze(ctx context.Context, text string) (*Result, error) {
	g.mu.Lock()
	gate := g.gates[text]
	g.mu.Unlock()
	<-gate
	return &Result{PlagiarismScore: 0.1, FakeNewsScore: 0.2, Verdict: "verdict for " + text}, nil
}

// =============================================================================
// SUBMIT TESTS
// =============================================================================

func TestSubmit_BlankDraftIsNoOp(t *testing.T) {
	t.Parallel()

	for _, draft := range []string{"", " ", "\n\t  \n", "\u00a0"} {
		scorer := &recordingScorer{}
		o := New(scorer)
		o.UpdateDraft(draft)

		before := o.Snapshot()
		req := o.Submit()

		assert.Nil(t, req, "draft %q should be rejected", draft)
		assert.Empty(t, cmp.Diff(before, o.Snapshot()), "draft %q changed state", draft)
		assert.False(t, o.Dispatch(context.Background(), nil))
		assert.Empty(t, scorer.calls())
	}
}

func TestSubmit_SnapshotsDraft(t *testing.T) {
	t.Parallel()
	scorer := &recordingScorer{}
	o := New(scorer)

	o.UpdateDraft("  the moon landing was staged  ")
	req := o.Submit()
	require.NotNil(t, req)

	// Edits after submission must not reach the attempt.
	o.UpdateDraft("something else entirely")

	assert.Equal(t, "  the moon landing was staged  ", req.Attempt.SubmittedText)
	snap := o.Snapshot()
	require.NotNil(t, snap.Attempt)
	assert.Equal(t, "  the moon landing was staged  ", snap.Attempt.SubmittedText)
	assert.Equal(t, "something else entirely", snap.Draft)
	assert.Equal(t, StatusPending, snap.Status)

	c := req.Do(context.Background())
	require.True(t, o.Complete(c))

	assert.Equal(t, []string{"  the moon landing was staged  "}, scorer.calls())
	assert.Equal(t, "  the moon landing was staged  ", o.Snapshot().Attempt.SubmittedText)
}

func TestSubmit_WhilePendingIsNoOp(t *testing.T) {
	t.Parallel()
	scorer := &recordingScorer{}
	o := New(scorer)
	o.UpdateDraft("claim")

	first := o.Submit()
	require.NotNil(t, first)
	second := o.Submit()
	assert.Nil(t, second)

	require.True(t, o.Complete(first.Do(context.Background())))
	assert.Len(t, scorer.calls(), 1)
}

func TestDispatch_DoubleClickSendsOneRequest(t *testing.T) {
	t.Parallel()
	gate := newGatedScorer("claim")
	o := New(gate)
	o.UpdateDraft("claim")

	assert.True(t, o.Dispatch(context.Background(), nil))
	assert.False(t, o.Dispatch(context.Background(), nil))

	gate.release("claim")
	o.Wait()
	assert.Equal(t, StatusSucceeded, o.Status())
}

func TestSubmit_FreshIdentityEachAttempt(t *testing.T) {
	t.Parallel()
	o := New(&recordingScorer{})
	o.UpdateDraft("claim")

	seen := map[string]bool{}
	var lastSeq uint64
	for i := 0; i < 5; i++ {
		req := o.Submit()
		require.NotNil(t, req)
		assert.False(t, seen[req.Attempt.ID], "attempt id reused")
		seen[req.Attempt.ID] = true
		assert.Greater(t, req.Attempt.Seq, lastSeq)
		lastSeq = req.Attempt.Seq
		require.True(t, o.Complete(req.Do(context.Background())))
	}
}

func TestRequest_CarriesAttemptID(t *testing.T) {
	t.Parallel()
	scorer := &recordingScorer{}
	o := New(scorer)
	o.UpdateDraft("claim")

	req := o.Submit()
	require.NotNil(t, req)
	req.Do(context.Background())

	scorer.mu.Lock()
	defer scorer.mu.Unlock()
	assert.Equal(t, []string{req.Attempt.ID}, scorer.ids)
}

func TestSubmit_UsesClock(t *testing.T) {
	t.Parallel()
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	o := New(&recordingScorer{}, WithClock(func() time.Time { return fixed }))
	o.UpdateDraft("claim")

	req := o.Submit()
	require.NotNil(t, req)
	assert.Equal(t, fixed, req.Attempt.SubmittedAt)
}

// =============================================================================
// COMPLETION TESTS
// =============================================================================

func TestComplete_Success(t *testing.T) {
	t.Parallel()
	o := New(&recordingScorer{})
	o.UpdateDraft("claim")

	req := o.Submit()
	require.NotNil(t, req)
	require.True(t, o.Complete(req.Do(context.Background())))

	snap := o.Snapshot()
	assert.Equal(t, StatusSucceeded, snap.Status)
	assert.Nil(t, snap.Failure)
	require.NotNil(t, snap.Result)
	assert.Equal(t, "42%", FormatPercent(snap.Result.PlagiarismScore))
	assert.Equal(t, "87%", FormatPercent(snap.Result.FakeNewsScore))
	assert.Equal(t, "Likely original", snap.Result.Verdict)
}

func TestComplete_FailureKinds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		kind     FailureKind
		contains string
		code     int
	}{
		{"status", &StatusError{Code: 503}, FailureProtocol, "503", 503},
		{"malformed", &MalformedError{Code: 200, Field: "verdict", Reason: "is missing"}, FailureMalformed, "200", 200},
		{"transport", &TransportError{Err: errors.New("connection refused")}, FailureTransport, "Could not reach", 0},
		{"wrapped status", errors.Join(errors.New("outer"), &StatusError{Code: 404}), FailureProtocol, "404", 404},
		{"unknown", errors.New("boom"), FailureTransport, "Something went wrong", 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			o := New(&recordingScorer{respond: func(string) (*Result, error) { return nil, tt.err }})
			o.UpdateDraft("keep me")

			req := o.Submit()
			require.NotNil(t, req)
			require.True(t, o.Complete(req.Do(context.Background())))

			snap := o.Snapshot()
			assert.Equal(t, StatusFailed, snap.Status)
			assert.Nil(t, snap.Result)
			require.NotNil(t, snap.Failure)
			assert.Equal(t, tt.kind, snap.Failure.Kind)
			assert.NotEmpty(t, snap.Failure.Message)
			assert.Contains(t, snap.Failure.Message, tt.contains)
			assert.Equal(t, tt.code, snap.Failure.StatusCode)
			assert.Equal(t, "keep me", snap.Draft)
		})
	}
}

func TestComplete_NilResultIsMalformed(t *testing.T) {
	t.Parallel()
	o := New(&recordingScorer{respond: func(string) (*Result, error) { return nil, nil }})
	o.UpdateDraft("claim")

	req := o.Submit()
	require.NotNil(t, req)
	require.True(t, o.Complete(req.Do(context.Background())))
	assert.Equal(t, FailureMalformed, o.Snapshot().Failure.Kind)
}

func TestComplete_EmptyCompletionIsMalformed(t *testing.T) {
	t.Parallel()
	o := New(&recordingScorer{})
	o.UpdateDraft("claim")

	req := o.Submit()
	require.NotNil(t, req)
	require.NotPanics(t, func() {
		require.True(t, o.Complete(Completion{AttemptID: req.Attempt.ID}))
	})

	snap := o.Snapshot()
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Nil(t, snap.Result)
	require.NotNil(t, snap.Failure)
	assert.Equal(t, FailureMalformed, snap.Failure.Kind)
}

func TestComplete_ResolvesOnce(t *testing.T) {
	t.Parallel()
	o := New(&recordingScorer{})
	o.UpdateDraft("claim")

	req := o.Submit()
	require.NotNil(t, req)
	c := req.Do(context.Background())
	require.True(t, o.Complete(c))

	before := o.Snapshot()
	assert.False(t, o.Complete(Completion{AttemptID: c.AttemptID, Err: &StatusError{Code: 500}}))
	assert.Empty(t, cmp.Diff(before, o.Snapshot()))
}

func TestSubmit_ClearsPreviousOutcome(t *testing.T) {
	t.Parallel()
	fail := true
	o := New(&recordingScorer{respond: func(string) (*Result, error) {
		if fail {
			return nil, &StatusError{Code: 500}
		}
		return &Result{Verdict: "ok"}, nil
	}})
	o.UpdateDraft("claim")

	req := o.Submit()
	require.True(t, o.Complete(req.Do(context.Background())))
	require.NotNil(t, o.Snapshot().Failure)

	fail = false
	req = o.Submit()
	require.NotNil(t, req)
	pending := o.Snapshot()
	assert.Nil(t, pending.Failure)
	assert.Nil(t, pending.Result)

	require.True(t, o.Complete(req.Do(context.Background())))
	done := o.Snapshot()
	assert.Nil(t, done.Failure)
	require.NotNil(t, done.Result)

	req = o.Submit()
	require.NotNil(t, req)
	assert.Nil(t, o.Snapshot().Result)
	req.Do(context.Background())
}

// =============================================================================
// STALE RESPONSE TESTS
// =============================================================================

func TestComplete_StaleResponseDropped(t *testing.T) {
	t.Parallel()
	o := New(&recordingScorer{respond: func(text string) (*Result, error) {
		if text == "A" {
			return nil, &StatusError{Code: 500}
		}
		return &Result{PlagiarismScore: 0.5, FakeNewsScore: 0.1, Verdict: "B verdict"}, nil
	}})

	o.UpdateDraft("A")
	reqA := o.Submit()
	require.NotNil(t, reqA)
	require.True(t, o.Abandon())

	o.UpdateDraft("B")
	reqB := o.Submit()
	require.NotNil(t, reqB)

	// B resolves first, A arrives afterwards.
	require.True(t, o.Complete(reqB.Do(context.Background())))
	assert.False(t, o.Complete(reqA.Do(context.Background())))

	snap := o.Snapshot()
	assert.Equal(t, StatusSucceeded, snap.Status)
	assert.Equal(t, reqB.Attempt.ID, snap.Attempt.ID)
	assert.Nil(t, snap.Failure)
	require.NotNil(t, snap.Result)
	assert.Equal(t, "B verdict", snap.Result.Verdict)
}

func TestComplete_StaleWhileNewerPending(t *testing.T) {
	t.Parallel()
	o := New(&recordingScorer{})

	o.UpdateDraft("A")
	reqA := o.Submit()
	require.True(t, o.Abandon())
	o.UpdateDraft("B")
	reqB := o.Submit()
	require.NotNil(t, reqB)

	assert.False(t, o.Complete(Completion{AttemptID: reqA.Attempt.ID, Err: &StatusError{Code: 502}}))

	snap := o.Snapshot()
	assert.Equal(t, StatusPending, snap.Status)
	assert.Nil(t, snap.Failure)
	assert.Nil(t, snap.Result)
}

func TestDispatch_OutOfOrderCompletion(t *testing.T) {
	t.Parallel()
	gate := newGatedScorer("A", "B")
	o := New(gate)

	var (
		mu       sync.Mutex
		notified []Snapshot
	)
	notify := func(s Snapshot) {
		mu.Lock()
		notified = append(notified, s)
		mu.Unlock()
	}

	o.UpdateDraft("A")
	require.True(t, o.Dispatch(context.Background(), notify))
	require.True(t, o.Abandon())
	o.UpdateDraft("B")
	require.True(t, o.Dispatch(context.Background(), notify))

	gate.release("B")
	require.Eventually(t, func() bool { return o.Status() == StatusSucceeded }, time.Second, 5*time.Millisecond)
	gate.release("A")
	o.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, notified, 1)
	assert.Equal(t, "verdict for B", notified[0].Result.Verdict)
	assert.Equal(t, "verdict for B", o.Snapshot().Result.Verdict)
}

// =============================================================================
// ABANDON / DRAFT TESTS
// =============================================================================

func TestAbandon_OnlyWhilePending(t *testing.T) {
	t.Parallel()
	o := New(&recordingScorer{})
	assert.False(t, o.Abandon())

	o.UpdateDraft("claim")
	req := o.Submit()
	require.True(t, o.Complete(req.Do(context.Background())))
	assert.False(t, o.Abandon())
	assert.Equal(t, StatusSucceeded, o.Status())
}

func TestAbandon_ReturnsToIdle(t *testing.T) {
	t.Parallel()
	o := New(&recordingScorer{})
	o.UpdateDraft("claim")
	req := o.Submit()
	require.NotNil(t, req)

	require.True(t, o.Abandon())
	snap := o.Snapshot()
	assert.Equal(t, StatusIdle, snap.Status)
	assert.Nil(t, snap.Attempt)
	assert.Equal(t, "claim", snap.Draft)
	assert.False(t, o.Complete(req.Do(context.Background())))
}

func TestUpdateDraft_LeavesRestingStates(t *testing.T) {
	t.Parallel()
	o := New(&recordingScorer{})

	o.UpdateDraft("x")
	assert.Equal(t, StatusIdle, o.Status())

	req := o.Submit()
	require.True(t, o.Complete(req.Do(context.Background())))
	o.UpdateDraft("")
	o.UpdateDraft("new text")
	assert.Equal(t, StatusSucceeded, o.Status())
	assert.NotNil(t, o.Snapshot().Result)
}

func TestSnapshot_IsACopy(t *testing.T) {
	t.Parallel()
	o := New(&recordingScorer{})
	o.UpdateDraft("claim")
	req := o.Submit()
	require.True(t, o.Complete(req.Do(context.Background())))

	snap := o.Snapshot()
	snap.Result.Verdict = "tampered"
	snap.Attempt.SubmittedText = "tampered"

	fresh := o.Snapshot()
	assert.Equal(t, "Likely original", fresh.Result.Verdict)
	assert.Equal(t, "claim", fresh.Attempt.SubmittedText)
}

func TestSnapshot_CanSubmit(t *testing.T) {
	t.Parallel()
	assert.False(t, Snapshot{Draft: "  "}.CanSubmit())
	assert.False(t, Snapshot{Draft: "x", Status: StatusPending}.CanSubmit())
	assert.True(t, Snapshot{Draft: "x", Status: StatusFailed}.CanSubmit())
}

func TestStatus_String(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "idle", StatusIdle.String())
	assert.Equal(t, "pending", StatusPending.String())
	assert.Equal(t, "succeeded", StatusSucceeded.String())
	assert.Equal(t, "failed", StatusFailed.String())
	assert.Equal(t, "unknown", Status(42).String())
	assert.True(t, StatusFailed.AtRest())
	assert.False(t, StatusPending.AtRest())
}
