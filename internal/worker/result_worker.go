package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/prepstem/ieltsmock-backend/internal/config"
	"github.com/prepstem/ieltsmock-backend/internal/model"
	"github.com/prepstem/ieltsmock-backend/internal/repository"
	"github.com/prepstem/ieltsmock-backend/internal/scoring"
	"github.com/prepstem/ieltsmock-backend/internal/session"
)

const (
	ResultBatchSize    = 50
	ResultBatchTimeout = 2 * time.Second
	ResultPollTimeout  = 1 * time.Second
)

// ResultWorker consumes persist_results_queue and writes finished session
// results to PostgreSQL in batches.
type ResultWorker struct {
	resultRepo *repository.ResultRepository
	rdb        *redis.Client
	log        zerolog.Logger
}

// NewResultWorker creates a new ResultWorker.
func NewResultWorker(resultRepo *repository.ResultRepository, rdb *redis.Client, log zerolog.Logger) *ResultWorker {
	return &ResultWorker{
		resultRepo: resultRepo,
		rdb:        rdb,
		log:        log.With().Str("component", "result_worker").Logger(),
	}
}

// Start begins the worker loop with batching. Call in a goroutine.
func (w *ResultWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ResultWorker started")

	batch := make([]*model.Result, 0, ResultBatchSize)
	lastFlush := time.Now()

	for {
		// Should flush?
		if len(batch) > 0 &&
			(len(batch) >= ResultBatchSize || time.Since(lastFlush) >= ResultBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, ResultPollTimeout, config.WorkerKey.PersistResultsQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var report session.Report
			if err := json.Unmarshal([]byte(item[1]), &report); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, resultFromReport(&report))
		}
	}
}

func resultFromReport(r *session.Report) *model.Result {
	return &model.Result{
		SessionID:   r.SessionID,
		SectionID:   r.SectionID,
		FirstName:   r.Identity.FirstName,
		LastName:    r.Identity.LastName,
		Phone:       r.Identity.Phone,
		Correct:     r.Result.Correct,
		Band:        r.Result.Band,
		Expired:     r.Expired,
		SubmittedAt: r.SubmittedAt,
	}
}

// flushSafe writes the batch in one statement, falling back to per-row
// inserts and requeueing only what could not be persisted at all.
func (w *ResultWorker) flushSafe(ctx context.Context, batch []*model.Result) {
	if len(batch) == 0 {
		return
	}

	if err := w.resultRepo.BulkCreate(ctx, batch); err != nil {
		w.log.Warn().Err(err).Msg("bulk result insert failed, using fallback")

		for _, res := range batch {
			if err := w.resultRepo.Create(ctx, res); err != nil {
				w.log.Error().Err(err).Str("session_id", res.SessionID).Msg("single insert failed, requeueing")
				raw, _ := json.Marshal(reportFromResult(res))
				w.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, raw)
			}
		}
		return
	}

	// After a successful flush, drop the per-session answer mirrors.
	w.clearAnswerMirrors(ctx, batch)
}

func reportFromResult(res *model.Result) session.Report {
	return session.Report{
		SessionID: res.SessionID,
		SectionID: res.SectionID,
		Identity: session.Identity{
			FirstName: res.FirstName,
			LastName:  res.LastName,
			Phone:     res.Phone,
		},
		Result:      scoring.Result{Correct: res.Correct, Band: res.Band},
		Expired:     res.Expired,
		SubmittedAt: res.SubmittedAt,
	}
}

func (w *ResultWorker) clearAnswerMirrors(ctx context.Context, batch []*model.Result) {
	pipe := w.rdb.Pipeline()
	for _, res := range batch {
		pipe.Del(ctx, config.CacheKey.SessionAnswersKey(res.SessionID))
	}
	_, _ = pipe.Exec(ctx)
}
