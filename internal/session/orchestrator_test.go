package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/prepstem/ieltsmock-backend/internal/scoring"
)

type fakeVerifier struct{ accept string }

func (v fakeVerifier) Verify(code string) bool { return code == v.accept }

type countingReporter struct {
	calls int32
	last  atomic.Value // scoring.Result
	err   error
	done  chan struct{}
}

func newCountingReporter() *countingReporter {
	return &countingReporter{done: make(chan struct{}, 8)}
}

func (r *countingReporter) ReportResult(_ context.Context, report Report) error {
	atomic.AddInt32(&r.calls, 1)
	r.last.Store(report)
	r.done <- struct{}{}
	return r.err
}

func (r *countingReporter) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(time.Second):
		t.Fatal("reporter was never invoked")
	}
}

func testConfig(numQuestions int, gated bool) Config {
	key := &scoring.AnswerKey{NumQuestions: numQuestions, Entries: make(map[int]scoring.KeyEntry)}
	for n := 1; n <= numQuestions; n++ {
		key.Entries[n] = scoring.KeyEntry{Number: n, Mode: scoring.ModeLiteral, Accepted: []string{"right"}}
	}
	return Config{
		SectionID:          "listening-mock-1",
		Key:                key,
		BandTable:          []scoring.BandRow{{Min: 0, Max: numQuestions, Band: 5}},
		DurationSeconds:    3600,
		RequiresAccessGate: gated,
		NumQuestions:       numQuestions,
	}
}

func identity() Identity {
	return Identity{FirstName: "Aidana", LastName: "Serik", Phone: "+77001234567"}
}

func runningSession(t *testing.T, reporter Reporter) *Orchestrator {
	t.Helper()
	o := New("sess-1", testConfig(4, false), fakeVerifier{}, reporter, zerolog.Nop())
	if err := o.SetIdentity(identity()); err != nil {
		t.Fatalf("SetIdentity: %v", err)
	}
	if err := o.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	t.Cleanup(o.Close)
	return o
}

func TestGatingFlow(t *testing.T) {
	o := New("sess-g", testConfig(2, true), fakeVerifier{accept: "1234"}, nil, zerolog.Nop())

	if got := o.State().Phase; got != PhaseGating {
		t.Fatalf("initial phase = %s, want gating", got)
	}

	// Wrong code lands in the dead-end, retry loops back.
	if err := o.VerifyCode("0000"); !errors.Is(err, ErrWrongCode) {
		t.Fatalf("VerifyCode(wrong) = %v, want ErrWrongCode", err)
	}
	if got := o.State().Phase; got != PhaseWrongCode {
		t.Errorf("phase after wrong code = %s, want wrong_code", got)
	}

	if err := o.VerifyCode("1234"); err != nil {
		t.Fatalf("VerifyCode(correct) = %v", err)
	}
	if got := o.State().Phase; got != PhaseIntake {
		t.Errorf("phase after correct code = %s, want intake", got)
	}

	// Identity before the gate would have been rejected; now it advances.
	if err := o.SetIdentity(identity()); err != nil {
		t.Fatalf("SetIdentity: %v", err)
	}
	if got := o.State().Phase; got != PhaseIntro {
		t.Errorf("phase = %s, want intro", got)
	}
}

func TestUngatedSessionSkipsGating(t *testing.T) {
	o := New("sess-u", testConfig(2, false), fakeVerifier{}, nil, zerolog.Nop())
	if got := o.State().Phase; got != PhaseIntake {
		t.Errorf("initial phase = %s, want intake", got)
	}
	var pe *PhaseError
	if err := o.VerifyCode("1234"); !errors.As(err, &pe) {
		t.Errorf("VerifyCode on ungated session = %v, want PhaseError", err)
	}
}

func TestIntakeRequiresAllFields(t *testing.T) {
	tests := []struct {
		name string
		id   Identity
	}{
		{name: "missing first name", id: Identity{LastName: "Serik", Phone: "+7700"}},
		{name: "missing last name", id: Identity{FirstName: "Aidana", Phone: "+7700"}},
		{name: "missing phone", id: Identity{FirstName: "Aidana", LastName: "Serik"}},
		{name: "all empty", id: Identity{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			o := New("sess-i", testConfig(2, false), fakeVerifier{}, nil, zerolog.Nop())
			if err := o.SetIdentity(tc.id); !errors.Is(err, ErrIdentityIncomplete) {
				t.Errorf("SetIdentity = %v, want ErrIdentityIncomplete", err)
			}
			if got := o.State().Phase; got != PhaseIntake {
				t.Errorf("phase = %s, want intake (no transition on incomplete identity)", got)
			}
		})
	}
}

func TestSetAnswer(t *testing.T) {
	o := runningSession(t, nil)

	if err := o.SetAnswer(2, "right"); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}
	snap := o.State()
	if snap.Answers[1] != "right" {
		t.Errorf("answers[1] = %q, want %q", snap.Answers[1], "right")
	}
	if len(snap.Answers) != 4 {
		t.Errorf("answer vector length = %d, want 4", len(snap.Answers))
	}

	// Out-of-range never resizes.
	if err := o.SetAnswer(0, "x"); !errors.Is(err, ErrQuestionOutOfRange) {
		t.Errorf("SetAnswer(0) = %v, want ErrQuestionOutOfRange", err)
	}
	if err := o.SetAnswer(5, "x"); !errors.Is(err, ErrQuestionOutOfRange) {
		t.Errorf("SetAnswer(5) = %v, want ErrQuestionOutOfRange", err)
	}
	if got := len(o.State().Answers); got != 4 {
		t.Errorf("answer vector length after out-of-range writes = %d, want 4", got)
	}
}

func TestSetAnswerRejectedBeforeRunning(t *testing.T) {
	o := New("sess-b", testConfig(2, false), fakeVerifier{}, nil, zerolog.Nop())
	if err := o.SetAnswer(1, "x"); !errors.Is(err, ErrNotRunning) {
		t.Errorf("SetAnswer before running = %v, want ErrNotRunning", err)
	}
}

func TestSubmitScoresAndReportsOnce(t *testing.T) {
	reporter := newCountingReporter()
	o := runningSession(t, reporter)

	o.SetAnswer(1, "right")
	o.SetAnswer(3, " RIGHT ")
	o.SetAnswer(4, "wrong")

	result, err := o.Submit()
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if result.Correct != 2 {
		t.Errorf("Correct = %d, want 2", result.Correct)
	}
	if result.Band != 5 {
		t.Errorf("Band = %v, want 5", result.Band)
	}

	reporter.wait(t)
	if got := atomic.LoadInt32(&reporter.calls); got != 1 {
		t.Errorf("reporter invoked %d times, want 1", got)
	}

	// Post-submit tampering is rejected.
	if err := o.SetAnswer(4, "right"); !errors.Is(err, ErrNotRunning) {
		t.Errorf("SetAnswer after submit = %v, want ErrNotRunning", err)
	}
}

func TestSubmitIdempotentUnderRace(t *testing.T) {
	reporter := newCountingReporter()
	o := runningSession(t, reporter)
	o.SetAnswer(1, "right")

	// Simulate the clock expiring on the same tick as a flurry of manual
	// submits: all paths funnel through the same one-shot guard.
	var wg sync.WaitGroup
	results := make([]scoring.Result, 6)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = o.Submit()
		}(i)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		o.onExpire()
	}()
	wg.Wait()

	reporter.wait(t)
	time.Sleep(10 * time.Millisecond)
	if got := atomic.LoadInt32(&reporter.calls); got != 1 {
		t.Errorf("reporter invoked %d times, want exactly 1", got)
	}

	final, err := o.Submit()
	if err != nil {
		t.Fatalf("repeat Submit: %v", err)
	}
	for i := 0; i < 5; i++ {
		if results[i] != final {
			t.Errorf("submit %d returned %+v, want stable %+v", i, results[i], final)
		}
	}
}

func TestReporterFailureDoesNotAffectState(t *testing.T) {
	reporter := newCountingReporter()
	reporter.err = errors.New("webhook down")
	o := runningSession(t, reporter)

	if _, err := o.Submit(); err != nil {
		t.Fatalf("Submit with failing reporter: %v", err)
	}
	reporter.wait(t)

	snap := o.State()
	if snap.Phase != PhaseSubmitted || snap.Result == nil {
		t.Errorf("session state disturbed by reporter failure: %+v", snap)
	}
}

func TestNoReportWithoutReporter(t *testing.T) {
	o := runningSession(t, nil)
	if _, err := o.Submit(); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if got := o.State().Phase; got != PhaseSubmitted {
		t.Errorf("phase = %s, want submitted", got)
	}
}

func TestManagerLifecycle(t *testing.T) {
	m := NewManager(time.Hour, zerolog.Nop())

	o := New("sess-m", testConfig(2, false), fakeVerifier{}, nil, zerolog.Nop())
	m.Put(o)

	got, err := m.Get("sess-m")
	if err != nil || got != o {
		t.Fatalf("Get = %v, %v", got, err)
	}
	if _, err := m.Get("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get(missing) = %v, want ErrSessionNotFound", err)
	}

	m.Remove("sess-m")
	if _, err := m.Get("sess-m"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("session still present after Remove")
	}
	if m.Count() != 0 {
		t.Errorf("Count = %d, want 0", m.Count())
	}
}

func TestManagerReapsFinishedSessions(t *testing.T) {
	m := NewManager(0, zerolog.Nop()) // zero retention: reap immediately

	o := New("sess-r", testConfig(1, false), fakeVerifier{}, nil, zerolog.Nop())
	o.SetIdentity(identity())
	o.Begin()
	o.Submit()
	m.Put(o)

	time.Sleep(time.Millisecond)
	m.reap()
	if _, err := m.Get("sess-r"); !errors.Is(err, ErrSessionNotFound) {
		t.Error("finished session survived the reaper")
	}
}

// The server calls StartReaper inline during startup, so it must hand
// control straight back to its caller and do the reaping in the background.
func TestStartReaperReturnsToCaller(t *testing.T) {
	m := NewManager(0, zerolog.Nop())

	o := New("sess-bg", testConfig(1, false), fakeVerifier{}, nil, zerolog.Nop())
	o.SetIdentity(identity())
	o.Begin()
	o.Submit()
	m.Put(o)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	returned := make(chan struct{})
	go func() {
		m.StartReaper(ctx, 2*time.Millisecond)
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(300 * time.Millisecond):
		t.Fatal("StartReaper blocked its caller")
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if _, err := m.Get("sess-bg"); errors.Is(err, ErrSessionNotFound) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("background reaper never removed the finished session")
}
