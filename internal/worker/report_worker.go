package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/prepstem/ieltsmock-backend/internal/config"
	"github.com/prepstem/ieltsmock-backend/internal/notify"
	"github.com/prepstem/ieltsmock-backend/internal/session"
)

const reportPollTimeout = 1 * time.Second

// ReportWorker consumes report_results_queue and forwards finished session
// results to the Telegram notifier. Delivery is best-effort: a failed send
// is logged and dropped, never retried.
type ReportWorker struct {
	notifier *notify.Notifier
	rdb      *redis.Client
	log      zerolog.Logger
}

// NewReportWorker creates a new ReportWorker.
func NewReportWorker(notifier *notify.Notifier, rdb *redis.Client, log zerolog.Logger) *ReportWorker {
	return &ReportWorker{
		notifier: notifier,
		rdb:      rdb,
		log:      log.With().Str("component", "report_worker").Logger(),
	}
}

// Start begins the worker loop. Call in a goroutine.
func (w *ReportWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ReportWorker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Draining remaining reports...")
			w.drain()
			return

		default:
			item, err := w.rdb.BLPop(ctx, reportPollTimeout, config.WorkerKey.ReportResultsQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			w.deliver(ctx, item[1])
		}
	}
}

func (w *ReportWorker) deliver(ctx context.Context, raw string) {
	var report session.Report
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		w.log.Error().Err(err).Msg("Invalid JSON payload")
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := w.notifier.ReportResult(sendCtx, report); err != nil {
		w.log.Warn().Err(err).Str("session_id", report.SessionID).Msg("result notification failed, dropping")
	}
}

// drain sends whatever is still queued, each with its own short deadline.
func (w *ReportWorker) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for {
		raw, err := w.rdb.LPop(ctx, config.WorkerKey.ReportResultsQueue).Result()
		if err != nil {
			return
		}
		w.deliver(ctx, raw)
	}
}
