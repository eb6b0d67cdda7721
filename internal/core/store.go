package core

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// JobStore persists migration jobs and their stage records.
type JobStore interface {
	CreateJob(ctx context.Context, job Job) error
	// GetJob returns ErrJobNotFound for unknown ids.
	GetJob(ctx context.Context, id uuid.UUID) (Job, error)
	ListJobs(ctx context.Context, tenantID uuid.UUID) ([]Job, error)
	SaveStage(ctx context.Context, jobID uuid.UUID, stage StageState) error
	// MarkJobCompleted sets completed_at only if it is unset and reports
	// whether this call did it.
	MarkJobCompleted(ctx context.Context, jobID uuid.UUID, at time.Time) (bool, error)
	// FailStaleStages moves stages stuck in processing since before cutoff
	// to error, ignoring the excluded jobs, and returns how many moved.
	FailStaleStages(ctx context.Context, cutoff time.Time, reason string, exclude []uuid.UUID) (int, error)
}

// ImportCounts is the result of a canonical import call.
type ImportCounts struct {
	Imported int                    `json:"imported"`
	Updated  int                    `json:"updated"`
	Failed   int                    `json:"failed"`
	Failures []PartialInsertFailure `json:"failures,omitempty"`
}

// CatalogStore receives normalized catalog entities.
type CatalogStore interface {
	// ImportEntities upserts a batch of one kind. Products are keyed by
	// (tenant, slug), customers by (tenant, email) and orders by
	// (tenant, number). A failing entity is counted and skipped.
	ImportEntities(ctx context.Context, tenantID uuid.UUID, platform Platform, kind Kind, batch EntityBatch) (ImportCounts, error)
}

// UpsertResult identifies an upserted row.
type UpsertResult struct {
	ID      uuid.UUID
	Created bool
}

// StoredCategory is a category as persisted for a tenant.
type StoredCategory struct {
	ID uuid.UUID
	CanonicalCategory
}

// StoredPage is a page as persisted for a tenant.
type StoredPage struct {
	ID uuid.UUID
	CanonicalPage
}

// ContentStore persists the storefront structure written by the stages.
type ContentStore interface {
	MenuStore

	SaveBranding(ctx context.Context, tenantID uuid.UUID, b Branding) error
	// UpsertCategory and UpsertPage update on (tenant, slug) conflict.
	UpsertCategory(ctx context.Context, tenantID uuid.UUID, c CanonicalCategory) (UpsertResult, error)
	UpsertPage(ctx context.Context, tenantID uuid.UUID, p CanonicalPage) (UpsertResult, error)
	ListCategories(ctx context.Context, tenantID uuid.UUID) ([]StoredCategory, error)
	ListPages(ctx context.Context, tenantID uuid.UUID) ([]StoredPage, error)
	// ReplaceContentBlocks deletes the page's blocks and inserts blocks.
	ReplaceContentBlocks(ctx context.Context, tenantID uuid.UUID, page string, blocks []ContentBlock) (int, error)
}
