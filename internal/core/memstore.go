package core

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process JobStore, CatalogStore and ContentStore. It
// backs tests and the offline CLI, and mirrors the upsert keys of the
// PostgreSQL store.
type MemoryStore struct {
	mu sync.Mutex

	jobs       map[uuid.UUID]Job
	products   map[string]CanonicalProduct // tenant|slug
	customers  map[string]CanonicalCustomer
	orders     map[string]CanonicalOrder
	branding   map[uuid.UUID]Branding
	categories map[string]StoredCategory
	pages      map[string]StoredPage
	menus      map[string]uuid.UUID // tenant|location
	menuItems  map[uuid.UUID][]MenuItem
	blocks     map[string][]ContentBlock

	// FailOn, when set, is consulted before every write. Returning an error
	// makes that write fail. op is e.g. "category", "menu_item"; key is the
	// entity's natural key.
	FailOn func(op, key string) error
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs:       make(map[uuid.UUID]Job),
		products:   make(map[string]CanonicalProduct),
		customers:  make(map[string]CanonicalCustomer),
		orders:     make(map[string]CanonicalOrder),
		branding:   make(map[uuid.UUID]Branding),
		categories: make(map[string]StoredCategory),
		pages:      make(map[string]StoredPage),
		menus:      make(map[string]uuid.UUID),
		menuItems:  make(map[uuid.UUID][]MenuItem),
		blocks:     make(map[string][]ContentBlock),
	}
}

func tenantKey(tenantID uuid.UUID, key string) string {
	return tenantID.String() + "|" + key
}

func (m *MemoryStore) fail(op, key string) error {
	if m.FailOn == nil {
		return nil
	}
	return m.FailOn(op, key)
}

// =============================================================================
// JOBS
// =============================================================================

func (m *MemoryStore) CreateJob(ctx context.Context, job Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.ID] = job.Clone()
	return nil
}

func (m *MemoryStore) GetJob(ctx context.Context, id uuid.UUID) (Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return Job{}, ErrJobNotFound
	}
	return job.Clone(), nil
}

func (m *MemoryStore) ListJobs(ctx context.Context, tenantID uuid.UUID) ([]Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var jobs []Job
	for _, job := range m.jobs {
		if job.TenantID == tenantID {
			jobs = append(jobs, job.Clone())
		}
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].CreatedAt.After(jobs[j].CreatedAt) })
	return jobs, nil
}

func (m *MemoryStore) SaveStage(ctx context.Context, jobID uuid.UUID, stage StageState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return ErrJobNotFound
	}
	if stage.Order < 0 || stage.Order >= len(job.Stages) {
		return ErrUnknownStage
	}
	snapshot := Job{Stages: []StageState{stage}}.Clone()
	job.Stages[stage.Order] = snapshot.Stages[0]
	m.jobs[jobID] = job
	return nil
}

func (m *MemoryStore) MarkJobCompleted(ctx context.Context, jobID uuid.UUID, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return false, ErrJobNotFound
	}
	if job.CompletedAt != nil {
		return false, nil
	}
	job.CompletedAt = &at
	m.jobs[jobID] = job
	return true, nil
}

func (m *MemoryStore) FailStaleStages(ctx context.Context, cutoff time.Time, reason string, exclude []uuid.UUID) (int, error) {
	skip := make(map[uuid.UUID]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, job := range m.jobs {
		if skip[id] {
			continue
		}
		for i := range job.Stages {
			st := &job.Stages[i]
			if st.Status != StatusProcessing || st.StartedAt == nil || !st.StartedAt.Before(cutoff) {
				continue
			}
			now := time.Now()
			st.Status = StatusError
			st.FinishedAt = &now
			st.Errors = append(st.Errors, reason)
			n++
		}
		m.jobs[id] = job
	}
	return n, nil
}

// =============================================================================
// CATALOG
// =============================================================================

func (m *MemoryStore) ImportEntities(ctx context.Context, tenantID uuid.UUID, platform Platform, kind Kind, batch EntityBatch) (ImportCounts, error) {
	var counts ImportCounts
	record := func(key string, created bool, err error) {
		switch {
		case err != nil:
			counts.Failed++
			counts.Failures = append(counts.Failures, PartialInsertFailure{Key: key, Err: err.Error()})
		case created:
			counts.Imported++
		default:
			counts.Updated++
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	switch kind {
	case KindProduct:
		for _, p := range batch.Products {
			if err := ctx.Err(); err != nil {
				return counts, err
			}
			key := tenantKey(tenantID, p.Slug)
			err := m.fail("product", p.Slug)
			_, exists := m.products[key]
			if err == nil {
				m.products[key] = p
			}
			record(p.Slug, !exists, err)
		}
	case KindCustomer:
		for _, c := range batch.Customers {
			if err := ctx.Err(); err != nil {
				return counts, err
			}
			natural := customerKey(c)
			key := tenantKey(tenantID, natural)
			err := m.fail("customer", natural)
			_, exists := m.customers[key]
			if err == nil {
				m.customers[key] = c
			}
			record(natural, !exists, err)
		}
	case KindOrder:
		for _, o := range batch.Orders {
			if err := ctx.Err(); err != nil {
				return counts, err
			}
			key := tenantKey(tenantID, o.Number)
			err := m.fail("order", o.Number)
			_, exists := m.orders[key]
			if err == nil {
				m.orders[key] = o
			}
			record(o.Number, !exists, err)
		}
	default:
		return counts, ErrUnknownKind
	}
	return counts, nil
}

// Products returns the tenant's imported products sorted by slug.
func (m *MemoryStore) Products(tenantID uuid.UUID) []CanonicalProduct {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := tenantKey(tenantID, "")
	var out []CanonicalProduct
	for k, p := range m.products {
		if strings.HasPrefix(k, prefix) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out
}

// =============================================================================
// CONTENT
// =============================================================================

func (m *MemoryStore) SaveBranding(ctx context.Context, tenantID uuid.UUID, b Branding) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("branding", tenantID.String()); err != nil {
		return err
	}
	m.branding[tenantID] = b
	return nil
}

// Branding returns the tenant's saved branding.
func (m *MemoryStore) Branding(tenantID uuid.UUID) (Branding, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.branding[tenantID]
	return b, ok
}

func (m *MemoryStore) UpsertCategory(ctx context.Context, tenantID uuid.UUID, c CanonicalCategory) (UpsertResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("category", c.Slug); err != nil {
		return UpsertResult{}, err
	}
	key := tenantKey(tenantID, c.Slug)
	if existing, ok := m.categories[key]; ok {
		existing.CanonicalCategory = c
		m.categories[key] = existing
		return UpsertResult{ID: existing.ID}, nil
	}
	stored := StoredCategory{ID: uuid.New(), CanonicalCategory: c}
	m.categories[key] = stored
	return UpsertResult{ID: stored.ID, Created: true}, nil
}

func (m *MemoryStore) UpsertPage(ctx context.Context, tenantID uuid.UUID, p CanonicalPage) (UpsertResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("page", p.Slug); err != nil {
		return UpsertResult{}, err
	}
	key := tenantKey(tenantID, p.Slug)
	if existing, ok := m.pages[key]; ok {
		existing.CanonicalPage = p
		m.pages[key] = existing
		return UpsertResult{ID: existing.ID}, nil
	}
	stored := StoredPage{ID: uuid.New(), CanonicalPage: p}
	m.pages[key] = stored
	return UpsertResult{ID: stored.ID, Created: true}, nil
}

func (m *MemoryStore) ListCategories(ctx context.Context, tenantID uuid.UUID) ([]StoredCategory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := tenantKey(tenantID, "")
	var out []StoredCategory
	for k, c := range m.categories {
		if strings.HasPrefix(k, prefix) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

func (m *MemoryStore) ListPages(ctx context.Context, tenantID uuid.UUID) ([]StoredPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := tenantKey(tenantID, "")
	var out []StoredPage
	for k, p := range m.pages {
		if strings.HasPrefix(k, prefix) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

func (m *MemoryStore) UpsertMenu(ctx context.Context, tenantID uuid.UUID, location, name string) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("menu", location); err != nil {
		return uuid.Nil, err
	}
	key := tenantKey(tenantID, location)
	if id, ok := m.menus[key]; ok {
		return id, nil
	}
	id := uuid.New()
	m.menus[key] = id
	return id, nil
}

func (m *MemoryStore) DeleteMenuItems(ctx context.Context, menuID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.menuItems, menuID)
	return nil
}

func (m *MemoryStore) InsertMenuItem(ctx context.Context, item MenuItem) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("menu_item", item.Label); err != nil {
		return uuid.Nil, err
	}
	if item.ParentID != nil && !m.hasMenuItem(item.MenuID, *item.ParentID) {
		return uuid.Nil, errors.New("parent menu item does not exist")
	}
	item.ID = uuid.New()
	m.menuItems[item.MenuID] = append(m.menuItems[item.MenuID], item)
	return item.ID, nil
}

func (m *MemoryStore) hasMenuItem(menuID, id uuid.UUID) bool {
	for _, it := range m.menuItems[menuID] {
		if it.ID == id {
			return true
		}
	}
	return false
}

// MenuItems returns the items of the tenant's menu at location in insertion
// order.
func (m *MemoryStore) MenuItems(tenantID uuid.UUID, location string) []MenuItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.menus[tenantKey(tenantID, location)]
	if !ok {
		return nil
	}
	return append([]MenuItem(nil), m.menuItems[id]...)
}

func (m *MemoryStore) ReplaceContentBlocks(ctx context.Context, tenantID uuid.UUID, page string, blocks []ContentBlock) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("content_blocks", page); err != nil {
		return 0, err
	}
	m.blocks[tenantKey(tenantID, page)] = append([]ContentBlock(nil), blocks...)
	return len(blocks), nil
}

// ContentBlocks returns the tenant's blocks for page.
func (m *MemoryStore) ContentBlocks(tenantID uuid.UUID, page string) []ContentBlock {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ContentBlock(nil), m.blocks[tenantKey(tenantID, page)]...)
}

// CategoryCount returns how many categories the tenant has.
func (m *MemoryStore) CategoryCount(tenantID uuid.UUID) int {
	cats, _ := m.ListCategories(context.Background(), tenantID)
	return len(cats)
}
