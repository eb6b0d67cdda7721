package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createJob = `-- name: CreateJob :exec
INSERT INTO migration_jobs (id, tenant_id, source_url, platform, confidence, created_at, created_by_ip, created_by_ua)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

type CreateJobParams struct {
	ID          pgtype.UUID        `json:"id"`
	TenantID    pgtype.UUID        `json:"tenant_id"`
	SourceUrl   string             `json:"source_url"`
	Platform    string             `json:"platform"`
	Confidence  string             `json:"confidence"`
	CreatedAt   pgtype.Timestamptz `json:"created_at"`
	CreatedByIp string             `json:"created_by_ip"`
	CreatedByUa string             `json:"created_by_ua"`
}

func (q *Queries) CreateJob(ctx context.Context, arg CreateJobParams) error {
	_, err := q.db.Exec(ctx, createJob,
		arg.ID,
		arg.TenantID,
		arg.SourceUrl,
		arg.Platform,
		arg.Confidence,
		arg.CreatedAt,
		arg.CreatedByIp,
		arg.CreatedByUa,
	)
	return err
}

const getJob = `-- name: GetJob :one
SELECT id, tenant_id, source_url, platform, confidence, created_at, completed_at, created_by_ip, created_by_ua
FROM migration_jobs
WHERE id = $1
`

func (q *Queries) GetJob(ctx context.Context, id pgtype.UUID) (MigrationJob, error) {
	row := q.db.QueryRow(ctx, getJob, id)
	var i MigrationJob
	err := row.Scan(
		&i.ID,
		&i.TenantID,
		&i.SourceUrl,
		&i.Platform,
		&i.Confidence,
		&i.CreatedAt,
		&i.CompletedAt,
		&i.CreatedByIp,
		&i.CreatedByUa,
	)
	return i, err
}

const listJobsByTenant = `-- name: ListJobsByTenant :many
SELECT id, tenant_id, source_url, platform, confidence, created_at, completed_at, created_by_ip, created_by_ua
FROM migration_jobs
WHERE tenant_id = $1
ORDER BY created_at DESC
`

func (q *Queries) ListJobsByTenant(ctx context.Context, tenantID pgtype.UUID) ([]MigrationJob, error) {
	rows, err := q.db.Query(ctx, listJobsByTenant, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MigrationJob
	for rows.Next() {
		var i MigrationJob
		if err := rows.Scan(
			&i.ID,
			&i.TenantID,
			&i.SourceUrl,
			&i.Platform,
			&i.Confidence,
			&i.CreatedAt,
			&i.CompletedAt,
			&i.CreatedByIp,
			&i.CreatedByUa,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertStage = `-- name: UpsertStage :exec
INSERT INTO migration_stages (job_id, name, ord, status, stats, errors, started_at, finished_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (job_id, name) DO UPDATE SET
    status      = EXCLUDED.status,
    stats       = EXCLUDED.stats,
    errors      = EXCLUDED.errors,
    started_at  = EXCLUDED.started_at,
    finished_at = EXCLUDED.finished_at
`

type UpsertStageParams struct {
	JobID      pgtype.UUID        `json:"job_id"`
	Name       string             `json:"name"`
	Ord        int32              `json:"ord"`
	Status     string             `json:"status"`
	Stats      []byte             `json:"stats"`
	Errors     []byte             `json:"errors"`
	StartedAt  pgtype.Timestamptz `json:"started_at"`
	FinishedAt pgtype.Timestamptz `json:"finished_at"`
}

func (q *Queries) UpsertStage(ctx context.Context, arg UpsertStageParams) error {
	_, err := q.db.Exec(ctx, upsertStage,
		arg.JobID,
		arg.Name,
		arg.Ord,
		arg.Status,
		arg.Stats,
		arg.Errors,
		arg.StartedAt,
		arg.FinishedAt,
	)
	return err
}

const listStagesByJobs = `-- name: ListStagesByJobs :many
SELECT job_id, name, ord, status, stats, errors, started_at, finished_at
FROM migration_stages
WHERE job_id = ANY($1::uuid[])
ORDER BY job_id, ord
`

func (q *Queries) ListStagesByJobs(ctx context.Context, jobIDs []pgtype.UUID) ([]MigrationStage, error) {
	rows, err := q.db.Query(ctx, listStagesByJobs, jobIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MigrationStage
	for rows.Next() {
		var i MigrationStage
		if err := rows.Scan(
			&i.JobID,
			&i.Name,
			&i.Ord,
			&i.Status,
			&i.Stats,
			&i.Errors,
			&i.StartedAt,
			&i.FinishedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const markJobCompleted = `-- name: MarkJobCompleted :execrows
UPDATE migration_jobs
SET completed_at = $2
WHERE id = $1 AND completed_at IS NULL
`

type MarkJobCompletedParams struct {
	ID          pgtype.UUID        `json:"id"`
	CompletedAt pgtype.Timestamptz `json:"completed_at"`
}

func (q *Queries) MarkJobCompleted(ctx context.Context, arg MarkJobCompletedParams) (int64, error) {
	result, err := q.db.Exec(ctx, markJobCompleted, arg.ID, arg.CompletedAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const failStaleStages = `-- name: FailStaleStages :execrows
UPDATE migration_stages
SET status      = 'error',
    finished_at = now(),
    errors      = errors || jsonb_build_array($2::text)
WHERE status = 'processing'
  AND started_at < $1
  AND NOT (job_id = ANY(COALESCE($3::uuid[], '{}')))
`

type FailStaleStagesParams struct {
	Cutoff  pgtype.Timestamptz `json:"cutoff"`
	Reason  string             `json:"reason"`
	Exclude []pgtype.UUID      `json:"exclude"`
}

func (q *Queries) FailStaleStages(ctx context.Context, arg FailStaleStagesParams) (int64, error) {
	result, err := q.db.Exec(ctx, failStaleStages, arg.Cutoff, arg.Reason, arg.Exclude)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
