package core

// pgstore.go is the PostgreSQL implementation of JobStore, CatalogStore and
// ContentStore.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	db "github.com/JonMunkholm/storemigrate/internal/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PgStore persists jobs, catalog entities and storefront content in
// PostgreSQL.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a store over pool.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

func pgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

func pgOptUUID(id *uuid.UUID) pgtype.UUID {
	if id == nil {
		return pgtype.UUID{}
	}
	return pgUUID(*id)
}

func pgTime(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: *t, Valid: true}
}

func fromPgTime(t pgtype.Timestamptz) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func pgNumeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

func pgNullNumeric(d decimal.NullDecimal) pgtype.Numeric {
	if !d.Valid {
		return pgtype.Numeric{}
	}
	return pgNumeric(d.Decimal)
}

func mustJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		// Only plain structs, slices and maps are encoded here.
		panic(fmt.Sprintf("encode %T: %v", v, err))
	}
	return b
}

// =============================================================================
// JOBS
// =============================================================================

func (s *PgStore) CreateJob(ctx context.Context, job Job) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	q := db.New(tx)
	err = q.CreateJob(ctx, db.CreateJobParams{
		ID:          pgUUID(job.ID),
		TenantID:    pgUUID(job.TenantID),
		SourceUrl:   job.SourceURL,
		Platform:    string(job.Platform),
		Confidence:  string(job.Confidence),
		CreatedAt:   pgTime(&job.CreatedAt),
		CreatedByIp: job.CreatedByIP,
		CreatedByUa: job.CreatedByUA,
	})
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	for _, st := range job.Stages {
		if err := q.UpsertStage(ctx, stageParams(job.ID, st)); err != nil {
			return fmt.Errorf("insert stage %s: %w", st.Name, err)
		}
	}
	return tx.Commit(ctx)
}

func stageParams(jobID uuid.UUID, st StageState) db.UpsertStageParams {
	errs := st.Errors
	if errs == nil {
		errs = []string{}
	}
	return db.UpsertStageParams{
		JobID:      pgUUID(jobID),
		Name:       string(st.Name),
		Ord:        int32(st.Order),
		Status:     string(st.Status),
		Stats:      mustJSON(st.Stats),
		Errors:     mustJSON(errs),
		StartedAt:  pgTime(st.StartedAt),
		FinishedAt: pgTime(st.FinishedAt),
	}
}

func (s *PgStore) GetJob(ctx context.Context, id uuid.UUID) (Job, error) {
	q := db.New(s.pool)
	row, err := q.GetJob(ctx, pgUUID(id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Job{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	if err != nil {
		return Job{}, fmt.Errorf("get job: %w", err)
	}
	stages, err := q.ListStagesByJobs(ctx, []pgtype.UUID{row.ID})
	if err != nil {
		return Job{}, fmt.Errorf("list stages: %w", err)
	}
	return jobFromRow(row, stages)
}

// ListJobs loads jobs and their stages in two queries.
func (s *PgStore) ListJobs(ctx context.Context, tenantID uuid.UUID) ([]Job, error) {
	q := db.New(s.pool)
	rows, err := q.ListJobsByTenant(ctx, pgUUID(tenantID))
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	if len(rows) == 0 {
		return []Job{}, nil
	}

	ids := make([]pgtype.UUID, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	stages, err := q.ListStagesByJobs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list stages: %w", err)
	}
	byJob := make(map[[16]byte][]db.MigrationStage, len(rows))
	for _, st := range stages {
		byJob[st.JobID.Bytes] = append(byJob[st.JobID.Bytes], st)
	}

	jobs := make([]Job, 0, len(rows))
	for _, r := range rows {
		job, err := jobFromRow(r, byJob[r.ID.Bytes])
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func jobFromRow(row db.MigrationJob, stages []db.MigrationStage) (Job, error) {
	job := Job{
		ID:          uuid.UUID(row.ID.Bytes),
		TenantID:    uuid.UUID(row.TenantID.Bytes),
		SourceURL:   row.SourceUrl,
		Platform:    Platform(row.Platform),
		Confidence:  Confidence(row.Confidence),
		CreatedAt:   row.CreatedAt.Time,
		CompletedAt: fromPgTime(row.CompletedAt),
		CreatedByIP: row.CreatedByIp,
		CreatedByUA: row.CreatedByUa,
		Stages:      make([]StageState, 0, len(stages)),
	}
	for _, st := range stages {
		state := StageState{
			Name:       StageName(st.Name),
			Order:      int(st.Ord),
			Status:     StageStatus(st.Status),
			StartedAt:  fromPgTime(st.StartedAt),
			FinishedAt: fromPgTime(st.FinishedAt),
		}
		if err := json.Unmarshal(st.Stats, &state.Stats); err != nil {
			return Job{}, fmt.Errorf("decode stats of %s: %w", st.Name, err)
		}
		if err := json.Unmarshal(st.Errors, &state.Errors); err != nil {
			return Job{}, fmt.Errorf("decode errors of %s: %w", st.Name, err)
		}
		if state.Errors == nil {
			state.Errors = []string{}
		}
		job.Stages = append(job.Stages, state)
	}
	return job, nil
}

func (s *PgStore) SaveStage(ctx context.Context, jobID uuid.UUID, stage StageState) error {
	return db.New(s.pool).UpsertStage(ctx, stageParams(jobID, stage))
}

func (s *PgStore) MarkJobCompleted(ctx context.Context, jobID uuid.UUID, at time.Time) (bool, error) {
	n, err := db.New(s.pool).MarkJobCompleted(ctx, db.MarkJobCompletedParams{
		ID:          pgUUID(jobID),
		CompletedAt: pgTime(&at),
	})
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *PgStore) FailStaleStages(ctx context.Context, cutoff time.Time, reason string, exclude []uuid.UUID) (int, error) {
	ids := make([]pgtype.UUID, len(exclude))
	for i, id := range exclude {
		ids[i] = pgUUID(id)
	}
	n, err := db.New(s.pool).FailStaleStages(ctx, db.FailStaleStagesParams{
		Cutoff:  pgTime(&cutoff),
		Reason:  reason,
		Exclude: ids,
	})
	return int(n), err
}

// =============================================================================
// CATALOG
// =============================================================================

// ImportEntities upserts the batch in one transaction. Each entity runs
// under its own savepoint so a failing row is rolled back and counted while
// the rest of the batch commits.
func (s *PgStore) ImportEntities(ctx context.Context, tenantID uuid.UUID, platform Platform, kind Kind, batch EntityBatch) (ImportCounts, error) {
	var counts ImportCounts

	type entity struct {
		key    string
		upsert func(*db.Queries) (db.UpsertRow, error)
	}
	var entities []entity
	tenant := pgUUID(tenantID)

	switch kind {
	case KindProduct:
		for _, p := range batch.Products {
			params := productParams(tenant, platform, p)
			entities = append(entities, entity{p.Slug, func(q *db.Queries) (db.UpsertRow, error) {
				return q.UpsertProduct(ctx, params)
			}})
		}
	case KindCustomer:
		for _, c := range batch.Customers {
			params := customerParams(tenant, platform, c)
			entities = append(entities, entity{params.CustomerKey, func(q *db.Queries) (db.UpsertRow, error) {
				return q.UpsertCustomer(ctx, params)
			}})
		}
	case KindOrder:
		for _, o := range batch.Orders {
			params := orderParams(tenant, platform, o)
			entities = append(entities, entity{o.Number, func(q *db.Queries) (db.UpsertRow, error) {
				return q.UpsertOrder(ctx, params)
			}})
		}
	default:
		return counts, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return counts, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)
	q := db.New(tx)

	for i, e := range entities {
		if err := ctx.Err(); err != nil {
			return ImportCounts{}, err
		}

		savepointName := fmt.Sprintf("sp_%d", i)
		if _, err := tx.Exec(ctx, "SAVEPOINT "+savepointName); err != nil {
			return ImportCounts{}, fmt.Errorf("create savepoint: %w", err)
		}

		row, err := e.upsert(q)
		if err != nil {
			_, _ = tx.Exec(ctx, "ROLLBACK TO SAVEPOINT "+savepointName)
			counts.Failed++
			counts.Failures = append(counts.Failures, PartialInsertFailure{Key: e.key, Err: err.Error()})
			continue
		}
		_, _ = tx.Exec(ctx, "RELEASE SAVEPOINT "+savepointName)

		if row.Created {
			counts.Imported++
		} else {
			counts.Updated++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return ImportCounts{}, fmt.Errorf("commit: %w", err)
	}
	return counts, nil
}

func productParams(tenant pgtype.UUID, platform Platform, p CanonicalProduct) db.UpsertProductParams {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return db.UpsertProductParams{
		TenantID:       tenant,
		Platform:       string(platform),
		Slug:           p.Slug,
		Handle:         p.Handle,
		Name:           p.Name,
		Description:    p.Description,
		Sku:            p.SKU,
		Price:          pgNumeric(p.Price),
		CompareAtPrice: pgNullNumeric(p.CompareAtPrice),
		StockQuantity:  int32(p.StockQuantity),
		Vendor:         p.Vendor,
		Category:       p.Category,
		Tags:           tags,
		Active:         p.Active,
		Images:         mustJSON(p.Images),
		Variants:       mustJSON(p.Variants),
	}
}

func customerParams(tenant pgtype.UUID, platform Platform, c CanonicalCustomer) db.UpsertCustomerParams {
	return db.UpsertCustomerParams{
		TenantID:         tenant,
		Platform:         string(platform),
		CustomerKey:      customerKey(c),
		Name:             c.Name,
		Email:            c.Email,
		Phone:            c.Phone,
		Document:         c.Document,
		AcceptsMarketing: c.AcceptsMarketing,
		Address:          mustJSON(c.Address),
	}
}

func orderParams(tenant pgtype.UUID, platform Platform, o CanonicalOrder) db.UpsertOrderParams {
	return db.UpsertOrderParams{
		TenantID:      tenant,
		Platform:      string(platform),
		Number:        o.Number,
		CustomerName:  o.CustomerName,
		CustomerEmail: o.CustomerEmail,
		Status:        o.Status,
		Currency:      o.Currency,
		Total:         pgNumeric(o.Total),
		Shipping:      pgNullNumeric(o.Shipping),
		PlacedAt:      pgTime(o.PlacedAt),
		Items:         mustJSON(o.Items),
	}
}

// =============================================================================
// CONTENT
// =============================================================================

func (s *PgStore) SaveBranding(ctx context.Context, tenantID uuid.UUID, b Branding) error {
	fonts := b.Fonts
	if fonts == nil {
		fonts = []string{}
	}
	return db.New(s.pool).UpsertBranding(ctx, db.UpsertBrandingParams{
		TenantID:       pgUUID(tenantID),
		StoreName:      b.StoreName,
		LogoUrl:        b.LogoURL,
		FaviconUrl:     b.FaviconURL,
		PrimaryColor:   b.PrimaryColor,
		SecondaryColor: b.SecondaryColor,
		Fonts:          fonts,
	})
}

func (s *PgStore) UpsertCategory(ctx context.Context, tenantID uuid.UUID, c CanonicalCategory) (UpsertResult, error) {
	row, err := db.New(s.pool).UpsertCategory(ctx, db.UpsertCategoryParams{
		TenantID:    pgUUID(tenantID),
		Slug:        c.Slug,
		Name:        c.Name,
		SourceUrl:   c.SourceURL,
		Description: c.Description,
		ImageUrl:    c.ImageURL,
	})
	if err != nil {
		return UpsertResult{}, err
	}
	return UpsertResult{ID: uuid.UUID(row.ID.Bytes), Created: row.Created}, nil
}

func (s *PgStore) UpsertPage(ctx context.Context, tenantID uuid.UUID, p CanonicalPage) (UpsertResult, error) {
	row, err := db.New(s.pool).UpsertPage(ctx, db.UpsertPageParams{
		TenantID:  pgUUID(tenantID),
		Slug:      p.Slug,
		Title:     p.Title,
		SourceUrl: p.SourceURL,
		Content:   p.Content,
	})
	if err != nil {
		return UpsertResult{}, err
	}
	return UpsertResult{ID: uuid.UUID(row.ID.Bytes), Created: row.Created}, nil
}

func (s *PgStore) ListCategories(ctx context.Context, tenantID uuid.UUID) ([]StoredCategory, error) {
	rows, err := db.New(s.pool).ListCategories(ctx, pgUUID(tenantID))
	if err != nil {
		return nil, err
	}
	out := make([]StoredCategory, len(rows))
	for i, r := range rows {
		out[i] = StoredCategory{
			ID: uuid.UUID(r.ID.Bytes),
			CanonicalCategory: CanonicalCategory{
				Name:        r.Name,
				Slug:        r.Slug,
				SourceURL:   r.SourceUrl,
				Description: r.Description,
				ImageURL:    r.ImageUrl,
			},
		}
	}
	return out, nil
}

func (s *PgStore) ListPages(ctx context.Context, tenantID uuid.UUID) ([]StoredPage, error) {
	rows, err := db.New(s.pool).ListPages(ctx, pgUUID(tenantID))
	if err != nil {
		return nil, err
	}
	out := make([]StoredPage, len(rows))
	for i, r := range rows {
		out[i] = StoredPage{
			ID: uuid.UUID(r.ID.Bytes),
			CanonicalPage: CanonicalPage{
				Title:     r.Title,
				Slug:      r.Slug,
				SourceURL: r.SourceUrl,
				Content:   r.Content,
			},
		}
	}
	return out, nil
}

func (s *PgStore) UpsertMenu(ctx context.Context, tenantID uuid.UUID, location, name string) (uuid.UUID, error) {
	id, err := db.New(s.pool).UpsertMenu(ctx, db.UpsertMenuParams{
		TenantID: pgUUID(tenantID),
		Location: location,
		Name:     name,
	})
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.UUID(id.Bytes), nil
}

func (s *PgStore) DeleteMenuItems(ctx context.Context, menuID uuid.UUID) error {
	return db.New(s.pool).DeleteMenuItems(ctx, pgUUID(menuID))
}

func (s *PgStore) InsertMenuItem(ctx context.Context, item MenuItem) (uuid.UUID, error) {
	id, err := db.New(s.pool).InsertMenuItem(ctx, db.InsertMenuItemParams{
		MenuID:    pgUUID(item.MenuID),
		ParentID:  pgOptUUID(item.ParentID),
		Label:     item.Label,
		Url:       item.URL,
		ItemType:  string(item.ItemType),
		RefID:     pgOptUUID(item.RefID),
		SortOrder: int32(item.SortOrder),
	})
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.UUID(id.Bytes), nil
}

// ReplaceContentBlocks deletes the page's blocks and inserts the new set in
// one transaction.
func (s *PgStore) ReplaceContentBlocks(ctx context.Context, tenantID uuid.UUID, page string, blocks []ContentBlock) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	q := db.New(tx)
	tenant := pgUUID(tenantID)
	if err := q.DeleteContentBlocks(ctx, db.DeleteContentBlocksParams{TenantID: tenant, Page: page}); err != nil {
		return 0, fmt.Errorf("delete blocks: %w", err)
	}
	for _, b := range blocks {
		err := q.InsertContentBlock(ctx, db.InsertContentBlockParams{
			TenantID: tenant,
			Page:     page,
			Kind:     b.Kind,
			Position: int32(b.Position),
			Title:    b.Title,
			Body:     b.Body,
			ImageUrl: b.ImageURL,
			LinkUrl:  b.LinkURL,
		})
		if err != nil {
			return 0, fmt.Errorf("insert block %d: %w", b.Position, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(blocks), nil
}

// Ping checks database connectivity for the health endpoint.
func (s *PgStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// customerKey is the natural key of a customer: the email, or the
// lowercased name when there is none.
func customerKey(c CanonicalCustomer) string {
	if c.Email != "" {
		return c.Email
	}
	return "name:" + strings.ToLower(c.Name)
}
