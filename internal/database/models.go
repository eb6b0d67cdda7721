package database

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type MigrationJob struct {
	ID          pgtype.UUID        `json:"id"`
	TenantID    pgtype.UUID        `json:"tenant_id"`
	SourceUrl   string             `json:"source_url"`
	Platform    string             `json:"platform"`
	Confidence  string             `json:"confidence"`
	CreatedAt   pgtype.Timestamptz `json:"created_at"`
	CompletedAt pgtype.Timestamptz `json:"completed_at"`
	CreatedByIp string             `json:"created_by_ip"`
	CreatedByUa string             `json:"created_by_ua"`
}

type MigrationStage struct {
	JobID      pgtype.UUID        `json:"job_id"`
	Name       string             `json:"name"`
	Ord        int32              `json:"ord"`
	Status     string             `json:"status"`
	Stats      []byte             `json:"stats"`
	Errors     []byte             `json:"errors"`
	StartedAt  pgtype.Timestamptz `json:"started_at"`
	FinishedAt pgtype.Timestamptz `json:"finished_at"`
}

type Category struct {
	ID          pgtype.UUID `json:"id"`
	TenantID    pgtype.UUID `json:"tenant_id"`
	Slug        string      `json:"slug"`
	Name        string      `json:"name"`
	SourceUrl   string      `json:"source_url"`
	Description string      `json:"description"`
	ImageUrl    string      `json:"image_url"`
}

type Page struct {
	ID        pgtype.UUID `json:"id"`
	TenantID  pgtype.UUID `json:"tenant_id"`
	Slug      string      `json:"slug"`
	Title     string      `json:"title"`
	SourceUrl string      `json:"source_url"`
	Content   string      `json:"content"`
}

// UpsertRow is returned by every upsert: the row id and whether the row was
// inserted rather than updated.
type UpsertRow struct {
	ID      pgtype.UUID `json:"id"`
	Created bool        `json:"created"`
}
