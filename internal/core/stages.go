package core

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Default chunking for stage persistence.
const (
	DefaultChunkSize        = 25
	DefaultChunkConcurrency = 4
)

// HomePage is the content-blocks page key for the storefront home page.
const HomePage = "home"

// StageConfig tunes the stage handlers.
type StageConfig struct {
	ChunkSize        int
	ChunkConcurrency int
	MaxMenuDepth     int
}

// stageHandlers implements the five structure-import stages on top of a
// ContentStore.
type stageHandlers struct {
	content ContentStore
	cfg     StageConfig
}

// NewStageHandlers returns the handler for every stage in StageOrder.
func NewStageHandlers(content ContentStore, cfg StageConfig) map[StageName]StageFunc {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.ChunkConcurrency <= 0 {
		cfg.ChunkConcurrency = DefaultChunkConcurrency
	}
	if cfg.ChunkConcurrency > cfg.ChunkSize {
		cfg.ChunkConcurrency = cfg.ChunkSize
	}
	h := &stageHandlers{content: content, cfg: cfg}
	return map[StageName]StageFunc{
		StageBranding:      h.branding,
		StageCategories:    h.categories,
		StagePages:         h.pages,
		StageMenus:         h.menus,
		StageContentBlocks: h.contentBlocks,
	}
}

// =============================================================================
// BRANDING
// =============================================================================

func (h *stageHandlers) branding(ctx context.Context, rc *RunContext, state StageState) (StageState, error) {
	src, err := rc.Source(ctx)
	if err != nil {
		return state, err
	}

	b := MergeBranding(src.Branding, Branding{})
	if src.HTML != "" {
		fallback, err := BrandingFromHTML(src.HTML, rc.Job.SourceURL)
		if err != nil {
			state.AddError("read branding from html: %v", err)
		} else {
			b = MergeBranding(src.Branding, fallback)
		}
	}

	if b.IsZero() {
		state.AddError("no branding found on source store")
		state.Status = StatusSkipped
		return state, nil
	}

	state.Stats.Processed = 1
	if err := h.content.SaveBranding(ctx, rc.Job.TenantID, b); err != nil {
		return state, fmt.Errorf("save branding: %w", err)
	}
	state.Stats.Updated = 1
	return state, nil
}

// =============================================================================
// CATEGORIES AND PAGES
// =============================================================================

func (h *stageHandlers) categories(ctx context.Context, rc *RunContext, state StageState) (StageState, error) {
	src, err := rc.Source(ctx)
	if err != nil {
		return state, err
	}

	taken := make(map[string]bool)
	var batch []CanonicalCategory
	for _, c := range src.Categories {
		state.Stats.Processed++
		slug := Slugify(slugSource(firstNonEmpty(c.Slug, pathSegment(c.URL), c.Name)))
		if c.Name == "" || slug == "" {
			state.Stats.Failed++
			state.AddError("category %q (%s): missing name or slug", c.Name, c.URL)
			continue
		}
		if taken[slug] {
			state.Stats.Count("duplicates", 1)
			continue
		}
		taken[slug] = true
		batch = append(batch, CanonicalCategory{
			Name:        c.Name,
			Slug:        slug,
			SourceURL:   c.URL,
			Description: c.Description,
			ImageURL:    c.ImageURL,
		})
	}

	stats, failures, err := persistChunks(ctx, h.cfg, batch, func(ctx context.Context, c CanonicalCategory) (UpsertResult, string, error) {
		res, err := h.content.UpsertCategory(ctx, rc.Job.TenantID, c)
		return res, c.Slug, err
	})
	return foldPersist(state, stats, failures, err, rc)
}

func (h *stageHandlers) pages(ctx context.Context, rc *RunContext, state StageState) (StageState, error) {
	src, err := rc.Source(ctx)
	if err != nil {
		return state, err
	}

	taken := make(map[string]bool)
	var batch []CanonicalPage
	for _, p := range src.InstitutionalPages {
		state.Stats.Processed++
		slug := Slugify(slugSource(firstNonEmpty(p.Slug, pathSegment(p.URL), p.Title)))
		if p.Title == "" || slug == "" {
			state.Stats.Failed++
			state.AddError("page %q (%s): missing title or slug", p.Title, p.URL)
			continue
		}
		if taken[slug] {
			state.Stats.Count("duplicates", 1)
			continue
		}
		taken[slug] = true

		content := p.Content
		if content == "" && p.URL != "" {
			if ctx.Err() != nil {
				return state, ctx.Err()
			}
			content, err = fetchPageContent(ctx, rc, p.URL)
			if err != nil {
				// The page is still created; its body can be filled in later.
				state.Stats.Count("content_missing", 1)
				state.AddError("page %q: fetch content: %v", p.Title, err)
				rc.Logger.Warn("page content fetch failed", "url", p.URL, "error", err)
			}
		}
		batch = append(batch, CanonicalPage{Title: p.Title, Slug: slug, SourceURL: p.URL, Content: content})
	}

	stats, failures, err := persistChunks(ctx, h.cfg, batch, func(ctx context.Context, p CanonicalPage) (UpsertResult, string, error) {
		res, err := h.content.UpsertPage(ctx, rc.Job.TenantID, p)
		return res, p.Slug, err
	})
	return foldPersist(state, stats, failures, err, rc)
}

func fetchPageContent(ctx context.Context, rc *RunContext, url string) (string, error) {
	res, err := rc.Fetch(ctx, url)
	if err != nil {
		return "", err
	}
	return MainContent(res.HTML)
}

func foldPersist(state StageState, stats StageStats, failures []PartialInsertFailure, err error, rc *RunContext) (StageState, error) {
	state.Stats.Created += stats.Created
	state.Stats.Updated += stats.Updated
	state.Stats.Failed += stats.Failed
	for _, f := range failures {
		state.AddError("%s", f.String())
		rc.Logger.Warn("item persist failed", "key", f.Key, "error", f.Err)
	}
	return state, err
}

// persistChunks upserts items in chunks of cfg.ChunkSize. At most
// cfg.ChunkConcurrency chunks are in flight; each chunk's stats are folded
// in once it has finished. No new item is written after ctx is cancelled.
func persistChunks[T any](ctx context.Context, cfg StageConfig, items []T, upsert func(context.Context, T) (UpsertResult, string, error)) (StageStats, []PartialInsertFailure, error) {
	var (
		mu       sync.Mutex
		total    StageStats
		failures []PartialInsertFailure
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.ChunkConcurrency)

	for start := 0; start < len(items); start += cfg.ChunkSize {
		end := min(start+cfg.ChunkSize, len(items))
		chunk := items[start:end]

		g.Go(func() error {
			var stats StageStats
			var chunkFailures []PartialInsertFailure
			for _, item := range chunk {
				if err := gctx.Err(); err != nil {
					return err
				}
				res, key, err := upsert(gctx, item)
				if err != nil {
					if gctx.Err() != nil {
						return gctx.Err()
					}
					stats.Failed++
					chunkFailures = append(chunkFailures, PartialInsertFailure{Key: key, Err: err.Error()})
					continue
				}
				if res.Created {
					stats.Created++
				} else {
					stats.Updated++
				}
			}

			mu.Lock()
			total.Add(stats)
			failures = append(failures, chunkFailures...)
			mu.Unlock()
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	return total, failures, err
}

// =============================================================================
// MENUS
// =============================================================================

// buildLookup indexes categories and pages, but only for stages that
// completed. A skipped stage leaves its links external.
func (h *stageHandlers) buildLookup(ctx context.Context, job Job) (*RefLookup, error) {
	lookup := NewRefLookup()

	if job.StageStatus(StageCategories) == StatusCompleted {
		cats, err := h.content.ListCategories(ctx, job.TenantID)
		if err != nil {
			return nil, fmt.Errorf("list categories: %w", err)
		}
		for _, c := range cats {
			lookup.AddCategory(c.ID, c.Slug, c.Name)
		}
	}
	if job.StageStatus(StagePages) == StatusCompleted {
		pages, err := h.content.ListPages(ctx, job.TenantID)
		if err != nil {
			return nil, fmt.Errorf("list pages: %w", err)
		}
		for _, p := range pages {
			lookup.AddPage(p.ID, p.Slug, p.Title)
		}
	}
	return lookup, nil
}

func (h *stageHandlers) menus(ctx context.Context, rc *RunContext, state StageState) (StageState, error) {
	src, err := rc.Source(ctx)
	if err != nil {
		return state, err
	}
	if len(src.MenuItems) == 0 && len(src.FooterMenuItems) == 0 {
		state.AddError("no navigation menus found on source store")
		state.Status = StatusSkipped
		return state, nil
	}

	lookup, err := h.buildLookup(ctx, rc.Job)
	if err != nil {
		return state, err
	}
	builder := NewMenuTreeBuilder(h.content, lookup, h.cfg.MaxMenuDepth, rc.Logger)

	menus := []struct {
		location, name string
		entries        []NavEntry
	}{
		{MenuHeader, "Main menu", src.MenuItems},
		{MenuFooter, "Footer menu", src.FooterMenuItems},
	}
	for _, m := range menus {
		if len(m.entries) == 0 {
			continue
		}
		state.Stats.Processed += countEntries(m.entries)

		res, err := builder.Build(ctx, rc.Job.TenantID, m.location, m.name, m.entries)
		state.Stats.Created += res.Inserted
		state.Stats.Failed += res.Failed
		for t, n := range res.ByType {
			state.Stats.Count(string(t), n)
		}
		state.Errors = append(state.Errors, res.Errors...)
		if len(res.Unresolved) > 0 {
			rc.Logger.Debug("menu links kept external", "menu", m.location, "count", len(res.Unresolved))
		}
		if err != nil {
			return state, err
		}
	}
	return state, nil
}

// =============================================================================
// CONTENT BLOCKS
// =============================================================================

func (h *stageHandlers) contentBlocks(ctx context.Context, rc *RunContext, state StageState) (StageState, error) {
	src, err := rc.Source(ctx)
	if err != nil {
		return state, err
	}

	blocks, err := ContentBlocks(src.HTML, rc.Job.SourceURL)
	if err != nil {
		return state, fmt.Errorf("read content blocks: %w", err)
	}
	state.Stats.Processed = len(blocks)
	if len(blocks) == 0 {
		state.AddError("no content blocks found on home page")
		state.Status = StatusSkipped
		return state, nil
	}

	n, err := h.content.ReplaceContentBlocks(ctx, rc.Job.TenantID, HomePage, blocks)
	if err != nil {
		return state, fmt.Errorf("replace content blocks: %w", err)
	}
	state.Stats.Created = n
	for _, b := range blocks {
		state.Stats.Count(b.Kind, 1)
	}
	return state, nil
}
