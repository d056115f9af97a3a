package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/prepstem/ieltsmock-backend/internal/catalog"
	"github.com/prepstem/ieltsmock-backend/internal/config"
	"github.com/prepstem/ieltsmock-backend/internal/gate"
	"github.com/prepstem/ieltsmock-backend/internal/scoring"
	"github.com/prepstem/ieltsmock-backend/internal/session"
)

// Domain errors.
var (
	ErrSectionNotFound = errors.New("test section not found")
	ErrWrongAccessCode = session.ErrWrongCode
)

// resultCacheTTL keeps submitted results readable after the manager reaps
// the in-memory session.
const resultCacheTTL = 24 * time.Hour

// kvCache is the slice of the Redis API the session service touches.
// *redis.Client satisfies it; tests supply an in-memory fake.
type kvCache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// SessionService creates and drives candidate test sessions. It binds the
// catalog's per-section parameters to fresh orchestrator instances and
// mirrors answer updates into Redis for operator monitoring.
type SessionService struct {
	catalog  *catalog.Catalog
	gate     *gate.Gate
	manager  *session.Manager
	reporter session.Reporter
	rdb      kvCache
	log      zerolog.Logger
}

// NewSessionService creates a new SessionService.
func NewSessionService(
	cat *catalog.Catalog,
	g *gate.Gate,
	manager *session.Manager,
	reporter session.Reporter,
	rdb kvCache,
	log zerolog.Logger,
) *SessionService {
	return &SessionService{
		catalog:  cat,
		gate:     g,
		manager:  manager,
		reporter: reporter,
		rdb:      rdb,
		log:      log.With().Str("component", "session_service").Logger(),
	}
}

// Create runs the gating check (for gated variants), records the candidate's
// intake identity and registers a new session in the intro phase.
func (s *SessionService) Create(ctx context.Context, sectionID, accessCode string, identity session.Identity) (*session.Orchestrator, error) {
	sec, ok := s.catalog.Get(sectionID)
	if !ok {
		return nil, ErrSectionNotFound
	}

	cfg := session.Config{
		SectionID:          sec.ID,
		Key:                sec.AnswerKey(),
		BandTable:          sec.BandTable,
		DurationSeconds:    sec.DurationMinutes * 60,
		RequiresAccessGate: sec.RequiresAccessCode,
		NumQuestions:       len(sec.Questions),
	}

	o := session.New(uuid.New().String(), cfg, s.gate, s.reporter, s.log)

	if sec.RequiresAccessCode {
		if err := o.VerifyCode(accessCode); err != nil {
			return nil, err
		}
	}
	if err := o.SetIdentity(identity); err != nil {
		return nil, err
	}

	s.manager.Put(o)
	s.log.Info().
		Str("session_id", o.ID()).
		Str("section_id", sec.ID).
		Msg("Session created")
	return o, nil
}

// Start moves a session from intro to running.
func (s *SessionService) Start(ctx context.Context, sessionID string) (session.Snapshot, error) {
	o, err := s.manager.Get(sessionID)
	if err != nil {
		return session.Snapshot{}, err
	}
	if err := o.Begin(); err != nil {
		return session.Snapshot{}, err
	}
	return o.State(), nil
}

// SetAnswer updates one answer slot and mirrors it into Redis. The mirror is
// advisory; a Redis failure never fails the candidate's update.
func (s *SessionService) SetAnswer(ctx context.Context, sessionID string, questionNumber int, value string) error {
	o, err := s.manager.Get(sessionID)
	if err != nil {
		return err
	}
	if err := o.SetAnswer(questionNumber, value); err != nil {
		return err
	}

	key := config.CacheKey.SessionAnswersKey(sessionID)
	if err := s.rdb.HSet(ctx, key, strconv.Itoa(questionNumber), value).Err(); err != nil {
		s.log.Warn().Err(err).Str("session_id", sessionID).Msg("Answer mirror failed")
	}
	return nil
}

// Submit finishes the session through the orchestrator's one-shot guard and
// caches the result for the session's result view. A repeat call after the
// manager has reaped the session is answered from that cache.
func (s *SessionService) Submit(ctx context.Context, sessionID string) (scoring.Result, error) {
	o, err := s.manager.Get(sessionID)
	if errors.Is(err, session.ErrSessionNotFound) {
		return s.cachedResult(ctx, sessionID)
	}
	if err != nil {
		return scoring.Result{}, err
	}
	result, err := o.Submit()
	if err != nil {
		return scoring.Result{}, err
	}

	if raw, marshalErr := json.Marshal(result); marshalErr == nil {
		key := config.CacheKey.SessionResultKey(sessionID)
		if err := s.rdb.Set(ctx, key, raw, resultCacheTTL).Err(); err != nil {
			s.log.Warn().Err(err).Str("session_id", sessionID).Msg("Result cache failed")
		}
	}
	return result, nil
}

// State returns the session snapshot for reload recovery. After the manager
// has reaped the session only the scored outcome survives, so the snapshot
// collapses to the submitted phase with the cached result.
func (s *SessionService) State(ctx context.Context, sessionID string) (session.Snapshot, error) {
	o, err := s.manager.Get(sessionID)
	if errors.Is(err, session.ErrSessionNotFound) {
		result, cacheErr := s.cachedResult(ctx, sessionID)
		if cacheErr != nil {
			return session.Snapshot{}, err
		}
		return session.Snapshot{
			ID:        sessionID,
			Phase:     session.PhaseSubmitted,
			Submitted: true,
			Result:    &result,
		}, nil
	}
	if err != nil {
		return session.Snapshot{}, err
	}
	return o.State(), nil
}

// cachedResult reads the post-retention result view.
func (s *SessionService) cachedResult(ctx context.Context, sessionID string) (scoring.Result, error) {
	raw, err := s.rdb.Get(ctx, config.CacheKey.SessionResultKey(sessionID)).Result()
	if err != nil {
		return scoring.Result{}, session.ErrSessionNotFound
	}

	var result scoring.Result
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		s.log.Warn().Err(err).Str("session_id", sessionID).Msg("Corrupt cached result")
		return scoring.Result{}, session.ErrSessionNotFound
	}
	return result, nil
}

// VerifyCode is the standalone admission check used before any session
// exists. Returns true/false; network problems at the transport layer are
// the handler's concern.
func (s *SessionService) VerifyCode(code string) bool {
	return s.gate.Verify(code)
}

// QueueReporter forwards finished-session reports onto the Redis worker
// queues: one copy for PostgreSQL persistence, one for operator messaging.
// Satisfies session.Reporter. The queue push is the only work done in the
// submit path; delivery happens in the workers.
type QueueReporter struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewQueueReporter creates a QueueReporter.
func NewQueueReporter(rdb *redis.Client, log zerolog.Logger) *QueueReporter {
	return &QueueReporter{rdb: rdb, log: log.With().Str("component", "queue_reporter").Logger()}
}

// ReportResult pushes the report onto both worker queues.
func (r *QueueReporter) ReportResult(ctx context.Context, report session.Report) error {
	raw, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	if err := r.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, raw).Err(); err != nil {
		return fmt.Errorf("queue persist: %w", err)
	}
	if err := r.rdb.RPush(ctx, config.WorkerKey.ReportResultsQueue, raw).Err(); err != nil {
		return fmt.Errorf("queue report: %w", err)
	}
	return nil
}
