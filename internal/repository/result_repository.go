package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prepstem/ieltsmock-backend/internal/model"
)

// ResultRepository persists submitted session results.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// Create inserts a single result. Re-inserting the same session is an upsert
// so a requeued payload never duplicates a row.
func (r *ResultRepository) Create(ctx context.Context, res *model.Result) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO results (session_id, section_id, first_name, last_name, phone, correct, band, expired, submitted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (session_id) DO NOTHING`,
		res.SessionID, res.SectionID, res.FirstName, res.LastName, res.Phone,
		res.Correct, res.Band, res.Expired, res.SubmittedAt,
	)
	return err
}

// BulkCreate inserts a batch of results with one UNNEST statement.
func (r *ResultRepository) BulkCreate(ctx context.Context, batch []*model.Result) error {
	n := len(batch)
	if n == 0 {
		return nil
	}

	sessionIDs := make([]string, 0, n)
	sectionIDs := make([]string, 0, n)
	firstNames := make([]string, 0, n)
	lastNames := make([]string, 0, n)
	phones := make([]string, 0, n)
	corrects := make([]int, 0, n)
	bands := make([]float64, 0, n)
	expireds := make([]bool, 0, n)
	submittedAts := make([]time.Time, 0, n)

	for _, res := range batch {
		sessionIDs = append(sessionIDs, res.SessionID)
		sectionIDs = append(sectionIDs, res.SectionID)
		firstNames = append(firstNames, res.FirstName)
		lastNames = append(lastNames, res.LastName)
		phones = append(phones, res.Phone)
		corrects = append(corrects, res.Correct)
		bands = append(bands, res.Band)
		expireds = append(expireds, res.Expired)
		submittedAts = append(submittedAts, res.SubmittedAt)
	}

	query := `
		INSERT INTO results (session_id, section_id, first_name, last_name, phone, correct, band, expired, submitted_at)
		SELECT u.session_id, u.section_id, u.first_name, u.last_name, u.phone, u.correct, u.band, u.expired, u.submitted_at
		FROM UNNEST(
			$1::text[],
			$2::text[],
			$3::text[],
			$4::text[],
			$5::text[],
			$6::int[],
			$7::float8[],
			$8::bool[],
			$9::timestamptz[]
		) AS u (session_id, section_id, first_name, last_name, phone, correct, band, expired, submitted_at)
		ON CONFLICT (session_id) DO NOTHING
	`

	_, err := r.pool.Exec(ctx, query,
		sessionIDs, sectionIDs, firstNames, lastNames, phones, corrects, bands, expireds, submittedAts)
	return err
}

// List returns paginated results, newest first, optionally filtered by
// section.
func (r *ResultRepository) List(ctx context.Context, limit, offset int, sectionID *string) ([]model.Result, int64, error) {
	where := ""
	args := []interface{}{}
	if sectionID != nil && *sectionID != "" {
		where = "WHERE section_id = $1"
		args = append(args, *sectionID)
	}

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM results %s", where)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count results: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, session_id, section_id, first_name, last_name, phone, correct, band, expired, submitted_at
		FROM results %s
		ORDER BY submitted_at DESC
		LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var results []model.Result
	for rows.Next() {
		var res model.Result
		if err := rows.Scan(
			&res.ID, &res.SessionID, &res.SectionID, &res.FirstName, &res.LastName,
			&res.Phone, &res.Correct, &res.Band, &res.Expired, &res.SubmittedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan result: %w", err)
		}
		results = append(results, res)
	}

	return results, total, rows.Err()
}
