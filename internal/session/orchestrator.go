// Package session owns the test-session lifecycle: the countdown clock and
// the per-candidate state machine that gates admission, collects identity,
// runs the timed answer phase and performs the one-shot submit.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/prepstem/ieltsmock-backend/internal/scoring"
)

// Phase enumerates the session state machine.
type Phase string

const (
	PhaseGating    Phase = "gating"
	PhaseWrongCode Phase = "wrong_code"
	PhaseIntake    Phase = "intake"
	PhaseIntro     Phase = "intro"
	PhaseRunning   Phase = "running"
	PhaseSubmitted Phase = "submitted"
)

// Domain errors.
var (
	ErrWrongCode          = errors.New("wrong access code")
	ErrIdentityIncomplete = errors.New("first name, last name and phone are all required")
	ErrQuestionOutOfRange = errors.New("question number out of range")
	ErrNotRunning         = errors.New("session is not running")
)

// PhaseError reports an operation attempted in the wrong phase.
type PhaseError struct {
	Op   string
	Have Phase
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s not allowed in phase %s", e.Op, e.Have)
}

// Identity is the candidate's intake data, immutable once set.
type Identity struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

func (id Identity) complete() bool {
	return id.FirstName != "" && id.LastName != "" && id.Phone != ""
}

// Report is the outcome of one finished session as handed to the Reporter.
type Report struct {
	SessionID   string         `json:"session_id"`
	SectionID   string         `json:"section_id"`
	Identity    Identity       `json:"identity"`
	Result      scoring.Result `json:"result"`
	Expired     bool           `json:"expired"`
	SubmittedAt time.Time      `json:"submitted_at"`
}

// Reporter delivers a finished result to the operator. Best effort: the
// orchestrator logs failures and never lets them affect session state.
type Reporter interface {
	ReportResult(ctx context.Context, report Report) error
}

// CodeVerifier is the admission check consulted in the gating phase.
type CodeVerifier interface {
	Verify(code string) bool
}

// Config parameterizes one orchestrator per test variant. One tested state
// machine, many configured instances.
type Config struct {
	SectionID          string
	Key                *scoring.AnswerKey
	BandTable          []scoring.BandRow
	DurationSeconds    int
	RequiresAccessGate bool
	NumQuestions       int
}

const reportTimeout = 5 * time.Second

// Orchestrator drives a single candidate session. All methods are safe for
// concurrent use; the clock's expiry goroutine and HTTP/WebSocket handlers
// funnel through the same mutex and the same one-shot submit.
type Orchestrator struct {
	mu sync.Mutex

	id       string
	cfg      Config
	verifier CodeVerifier
	reporter Reporter
	log      zerolog.Logger

	phase      Phase
	identity   Identity
	answers    []string
	clock      *Clock
	expired    bool
	submitted  bool
	result     *scoring.Result
	startedAt  time.Time
	finishedAt time.Time
}

// New creates an orchestrator for one candidate. The answer vector is sized
// once here and never resized.
func New(id string, cfg Config, verifier CodeVerifier, reporter Reporter, log zerolog.Logger) *Orchestrator {
	phase := PhaseIntake
	if cfg.RequiresAccessGate {
		phase = PhaseGating
	}
	return &Orchestrator{
		id:       id,
		cfg:      cfg,
		verifier: verifier,
		reporter: reporter,
		log:      log.With().Str("component", "session").Str("session_id", id).Logger(),
		phase:    phase,
		answers:  make([]string, cfg.NumQuestions),
		clock:    NewClock(),
	}
}

// ID returns the session identifier.
func (o *Orchestrator) ID() string { return o.id }

// SectionID returns the configured test section.
func (o *Orchestrator) SectionID() string { return o.cfg.SectionID }

// VerifyCode runs the gating check. A wrong code lands in PhaseWrongCode,
// from which the next attempt is allowed again (retry loops back to gating).
func (o *Orchestrator) VerifyCode(code string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.phase != PhaseGating && o.phase != PhaseWrongCode {
		return &PhaseError{Op: "verify code", Have: o.phase}
	}
	if !o.verifier.Verify(code) {
		o.phase = PhaseWrongCode
		return ErrWrongCode
	}
	o.phase = PhaseIntake
	return nil
}

// SetIdentity records the candidate's intake fields and advances to the
// intro phase. All three fields must be non-empty.
func (o *Orchestrator) SetIdentity(identity Identity) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.phase != PhaseIntake {
		return &PhaseError{Op: "set identity", Have: o.phase}
	}
	if !identity.complete() {
		return ErrIdentityIncomplete
	}
	o.identity = identity
	o.phase = PhaseIntro
	return nil
}

// Begin starts the running phase and the countdown. Clock expiry forces an
// automatic submit through the same one-shot path as a manual submit.
func (o *Orchestrator) Begin() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.phase != PhaseIntro {
		return &PhaseError{Op: "begin", Have: o.phase}
	}
	if err := o.clock.Start(o.cfg.DurationSeconds, o.onExpire); err != nil {
		return fmt.Errorf("start clock: %w", err)
	}
	o.phase = PhaseRunning
	o.startedAt = time.Now()
	return nil
}

// SetAnswer replaces the slot for questionNumber (1-based) with value. Valid
// only while running; the vector is copied on write so snapshots taken by
// State never observe a partial update.
func (o *Orchestrator) SetAnswer(questionNumber int, value string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.phase != PhaseRunning {
		return ErrNotRunning
	}
	idx := questionNumber - 1
	if idx < 0 || idx >= len(o.answers) {
		return ErrQuestionOutOfRange
	}

	next := make([]string, len(o.answers))
	copy(next, o.answers)
	next[idx] = value
	o.answers = next
	return nil
}

// Submit finishes the session: evaluate once, store the result and report it
// once. A repeat call, including the clock firing on the same tick as a manual
// click, returns the stored result without re-evaluating or re-reporting.
func (o *Orchestrator) Submit() (scoring.Result, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.submitted {
		return *o.result, nil
	}
	if o.phase != PhaseRunning {
		return scoring.Result{}, ErrNotRunning
	}
	return o.submitLocked(), nil
}

// onExpire is the clock callback: reaching zero while running forces submit.
func (o *Orchestrator) onExpire() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.submitted || o.phase != PhaseRunning {
		return
	}
	o.expired = true
	o.submitLocked()
	o.log.Info().Msg("Session expired, auto-submitted")
}

// submitLocked performs the one-shot submit. Caller holds o.mu and has
// already checked the guard.
func (o *Orchestrator) submitLocked() scoring.Result {
	o.submitted = true
	o.phase = PhaseSubmitted
	o.finishedAt = time.Now()
	o.clock.Cancel()

	result := scoring.Evaluate(o.answers, o.cfg.Key, o.cfg.BandTable)
	o.result = &result

	o.log.Info().
		Int("correct", result.Correct).
		Float64("band", result.Band).
		Bool("expired", o.expired).
		Msg("Session submitted")

	if o.reporter != nil && o.identity.complete() {
		report := Report{
			SessionID:   o.id,
			SectionID:   o.cfg.SectionID,
			Identity:    o.identity,
			Result:      result,
			Expired:     o.expired,
			SubmittedAt: o.finishedAt,
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
			defer cancel()
			if err := o.reporter.ReportResult(ctx, report); err != nil {
				o.log.Error().Err(err).Msg("Result report failed")
			}
		}()
	}

	return result
}

// Close tears the session down, stopping the clock so no expiry callback can
// fire against a disposed session.
func (o *Orchestrator) Close() {
	o.clock.Cancel()
}

// Snapshot is a read-only view of the session for handlers.
type Snapshot struct {
	ID               string          `json:"id"`
	SectionID        string          `json:"section_id"`
	Phase            Phase           `json:"phase"`
	Identity         Identity        `json:"identity"`
	Answers          []string        `json:"answers"`
	RemainingSeconds int             `json:"remaining_seconds"`
	Expired          bool            `json:"expired"`
	Submitted        bool            `json:"submitted"`
	Result           *scoring.Result `json:"result,omitempty"`
}

// State returns a consistent snapshot of the session.
func (o *Orchestrator) State() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	answers := make([]string, len(o.answers))
	copy(answers, o.answers)

	snap := Snapshot{
		ID:               o.id,
		SectionID:        o.cfg.SectionID,
		Phase:            o.phase,
		Identity:         o.identity,
		Answers:          answers,
		RemainingSeconds: o.clock.Remaining(),
		Expired:          o.expired,
		Submitted:        o.submitted,
	}
	if o.result != nil {
		r := *o.result
		snap.Result = &r
	}
	return snap
}

// finished reports whether the session is terminal and when it got there.
// Used by the manager's reaper.
func (o *Orchestrator) finished() (time.Time, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.finishedAt, o.submitted
}
