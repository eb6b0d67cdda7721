package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const homeHTML = `<html><head><title>Acme</title><meta name="theme-color" content="#112233"></head>
<body>
<div class="slideshow"><a href="/collections/shoes"><img src="/b1.jpg" alt="Summer"></a></div>
<section><h2>About us</h2><p>Since 1990.</p></section>
</body></html>`

func storefrontSource() *fakeExtractor {
	return &fakeExtractor{
		source: &ExtractionResult{
			HTML:     homeHTML,
			Branding: &Branding{StoreName: "Acme Official", LogoURL: "https://acme.com/logo.png"},
			Categories: []ExtractedCategory{
				{Name: "Shoes", URL: "https://acme.com/collections/shoes"},
				{Name: "Shoes again", URL: "https://acme.com/collections/shoes"},
				{Name: "", URL: "https://acme.com/collections/nameless"},
				{Name: "Bags", URL: "https://acme.com/collections/bags"},
			},
			InstitutionalPages: []ExtractedPage{
				{Title: "About", URL: "https://acme.com/pages/about", Content: "<p>Hi</p>"},
				{Title: "Shipping", URL: "https://acme.com/pages/shipping"},
			},
			MenuItems: []NavEntry{
				{Label: "Shoes", URL: "/collections/shoes"},
				{Label: "About", URL: "/pages/about"},
				{Label: "Blog", URL: "https://blog.acme.com"},
			},
			FooterMenuItems: []NavEntry{
				{Label: "Shipping", URL: "/pages/shipping"},
			},
		},
		pages: map[string]*ExtractionResult{
			"https://acme.com/pages/shipping": {HTML: `<html><body><main><p>Ships fast</p></main></body></html>`},
		},
	}
}

func stageFor(t *testing.T, store *MemoryStore, job Job, name StageName) StageState {
	t.Helper()
	stored, err := store.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	st, err := stored.Stage(name)
	require.NoError(t, err)
	return *st
}

func TestStageHandlers_FullRun(t *testing.T) {
	store := NewMemoryStore()
	job := createTestJob(t, store)
	ext := storefrontSource()
	p := NewPipeline(store, NewStageHandlers(store, StageConfig{ChunkSize: 1, ChunkConcurrency: 2}), ext, PipelineOptions{})

	require.NoError(t, p.Run(context.Background(), &job))
	assert.NotNil(t, job.CompletedAt)

	t.Run("branding", func(t *testing.T) {
		b, ok := store.Branding(job.TenantID)
		require.True(t, ok)
		assert.Equal(t, "Acme Official", b.StoreName, "extracted branding wins over markup")
		assert.Equal(t, "#112233", b.PrimaryColor, "markup fills the gaps")
		assert.Equal(t, StageStats{Processed: 1, Updated: 1}, stageFor(t, store, job, StageBranding).Stats)
	})

	t.Run("categories", func(t *testing.T) {
		st := stageFor(t, store, job, StageCategories)
		assert.Equal(t, StatusCompleted, st.Status)
		assert.Equal(t, 4, st.Stats.Processed)
		assert.Equal(t, 2, st.Stats.Created)
		assert.Equal(t, 1, st.Stats.Failed)
		assert.Equal(t, 1, st.Stats.Extra["duplicates"])
		assert.Len(t, st.Errors, 1)
		assert.Equal(t, 2, store.CategoryCount(job.TenantID))
	})

	t.Run("pages", func(t *testing.T) {
		pages, err := store.ListPages(context.Background(), job.TenantID)
		require.NoError(t, err)
		require.Len(t, pages, 2)
		assert.Equal(t, "about", pages[0].Slug)
		assert.Equal(t, "<p>Hi</p>", pages[0].Content)
		assert.Equal(t, "shipping", pages[1].Slug)
		assert.Equal(t, "<p>Ships fast</p>", pages[1].Content, "missing content is fetched")
	})

	t.Run("menus", func(t *testing.T) {
		st := stageFor(t, store, job, StageMenus)
		assert.Equal(t, 4, st.Stats.Processed)
		assert.Equal(t, 4, st.Stats.Created)
		assert.Equal(t, map[string]int{"category": 1, "page": 2, "external": 1}, st.Stats.Extra)

		header := store.MenuItems(job.TenantID, MenuHeader)
		require.Len(t, header, 3)
		assert.Equal(t, ItemCategory, header[0].ItemType)
		assert.Equal(t, "/categoria/shoes", header[0].URL)
		assert.Equal(t, ItemPage, header[1].ItemType)
		assert.Equal(t, ItemExternal, header[2].ItemType)

		footer := store.MenuItems(job.TenantID, MenuFooter)
		require.Len(t, footer, 1)
		assert.Equal(t, "/pagina/shipping", footer[0].URL)
	})

	t.Run("content blocks", func(t *testing.T) {
		blocks := store.ContentBlocks(job.TenantID, HomePage)
		require.Len(t, blocks, 2)
		assert.Equal(t, "https://acme.com/b1.jpg", blocks[0].ImageURL)
		assert.Equal(t, "https://acme.com/collections/shoes", blocks[0].LinkURL)
		assert.Equal(t, "About us", blocks[1].Title)

		st := stageFor(t, store, job, StageContentBlocks)
		assert.Equal(t, map[string]int{"banner": 1, "text": 1}, st.Stats.Extra)
	})

	assert.Equal(t, 2, ext.callCount(), "one source extraction plus one page fetch")
}

func TestStageHandlers_RerunUpdates(t *testing.T) {
	store := NewMemoryStore()
	first := createTestJob(t, store)
	handlers := NewStageHandlers(store, StageConfig{})
	p := NewPipeline(store, handlers, storefrontSource(), PipelineOptions{})
	require.NoError(t, p.Run(context.Background(), &first))

	second := NewJob(first.TenantID, first.SourceURL, unknownDetection, testNow)
	require.NoError(t, store.CreateJob(context.Background(), second))
	require.NoError(t, p.Run(context.Background(), &second))

	st := stageFor(t, store, second, StageCategories)
	assert.Equal(t, 0, st.Stats.Created)
	assert.Equal(t, 2, st.Stats.Updated, "categories are upserted by slug")
	assert.Equal(t, 2, store.CategoryCount(first.TenantID))
	assert.Len(t, store.MenuItems(first.TenantID, MenuHeader), 3, "menus are rebuilt, not appended")
}

func TestStageHandlers_SkippedStagesLeaveLinksExternal(t *testing.T) {
	store := NewMemoryStore()
	job := createTestJob(t, store)
	p := NewPipeline(store, NewStageHandlers(store, StageConfig{}), storefrontSource(), PipelineOptions{})
	ctx := context.Background()

	require.NoError(t, p.RunStage(ctx, &job, StageBranding))
	require.NoError(t, p.SkipStage(ctx, &job, StageCategories))
	require.NoError(t, p.SkipStage(ctx, &job, StagePages))
	require.NoError(t, p.RunStage(ctx, &job, StageMenus))

	st := stageFor(t, store, job, StageMenus)
	assert.Equal(t, map[string]int{"external": 4}, st.Stats.Extra)
}

func TestStageHandlers_MenusResolveAgainstWhateverWasImported(t *testing.T) {
	store := NewMemoryStore()
	job := createTestJob(t, store)
	p := NewPipeline(store, NewStageHandlers(store, StageConfig{}), storefrontSource(), PipelineOptions{})
	ctx := context.Background()

	require.NoError(t, p.RunStage(ctx, &job, StageBranding))
	require.NoError(t, p.RunStage(ctx, &job, StageCategories))
	require.NoError(t, p.SkipStage(ctx, &job, StagePages))
	require.NoError(t, p.RunStage(ctx, &job, StageMenus))

	st := stageFor(t, store, job, StageMenus)
	assert.Equal(t, map[string]int{"category": 1, "external": 3}, st.Stats.Extra)

	header := store.MenuItems(job.TenantID, MenuHeader)
	require.Len(t, header, 3)
	assert.Equal(t, ItemCategory, header[0].ItemType)
	assert.Equal(t, "/categoria/shoes", header[0].URL)
	assert.Equal(t, ItemExternal, header[1].ItemType, "pages were skipped")
	assert.Nil(t, header[1].RefID)

	footer := store.MenuItems(job.TenantID, MenuFooter)
	require.Len(t, footer, 1)
	assert.Equal(t, ItemExternal, footer[0].ItemType)
}

func TestStageHandlers_NothingToImport(t *testing.T) {
	store := NewMemoryStore()
	job := createTestJob(t, store)
	p := NewPipeline(store, NewStageHandlers(store, StageConfig{}), &fakeExtractor{}, PipelineOptions{})

	require.NoError(t, p.Run(context.Background(), &job))

	assert.Equal(t, StatusSkipped, stageFor(t, store, job, StageBranding).Status)
	assert.Equal(t, StatusCompleted, stageFor(t, store, job, StageCategories).Status, "an empty list completes")
	assert.Equal(t, StatusSkipped, stageFor(t, store, job, StageMenus).Status)
	assert.Equal(t, StatusSkipped, stageFor(t, store, job, StageContentBlocks).Status)
	assert.NotNil(t, job.CompletedAt)
}

func TestStageHandlers_ExtractionFailure(t *testing.T) {
	store := NewMemoryStore()
	job := createTestJob(t, store)
	p := NewPipeline(store, NewStageHandlers(store, StageConfig{}), &fakeExtractor{err: errors.New("connection refused")}, PipelineOptions{})

	err := p.RunStage(context.Background(), &job, StageBranding)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	st := stageFor(t, store, job, StageBranding)
	assert.Equal(t, StatusError, st.Status)
	assert.Contains(t, st.Errors[len(st.Errors)-1], "connection refused")
}

func TestStageHandlers_PartialPersistFailure(t *testing.T) {
	store := NewMemoryStore()
	store.FailOn = func(op, key string) error {
		if op == "category" && key == "bags" {
			return errors.New("unique violation")
		}
		return nil
	}
	job := createTestJob(t, store)
	p := NewPipeline(store, NewStageHandlers(store, StageConfig{}), storefrontSource(), PipelineOptions{})
	ctx := context.Background()

	require.NoError(t, p.RunStage(ctx, &job, StageBranding))
	require.NoError(t, p.RunStage(ctx, &job, StageCategories), "one failed row does not fail the stage")

	st := stageFor(t, store, job, StageCategories)
	assert.Equal(t, StatusCompleted, st.Status)
	assert.Equal(t, 1, st.Stats.Created)
	assert.Equal(t, 2, st.Stats.Failed)
	assert.Contains(t, st.Errors, "insert failed for bags: unique violation")
}

func TestPersistChunks(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}
	cfg := StageConfig{ChunkSize: 3, ChunkConcurrency: 2}

	stats, failures, err := persistChunks(context.Background(), cfg, items, func(_ context.Context, n int) (UpsertResult, string, error) {
		switch {
		case n == 5:
			return UpsertResult{}, "five", errors.New("bad")
		case n%2 == 0:
			return UpsertResult{Created: true}, "", nil
		}
		return UpsertResult{}, "", nil
	})
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Created)
	assert.Equal(t, 3, stats.Updated)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, []PartialInsertFailure{{Key: "five", Err: "bad"}}, failures)
}

func TestPersistChunks_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	_, _, err := persistChunks(ctx, StageConfig{ChunkSize: 2, ChunkConcurrency: 1}, []int{1, 2, 3}, func(context.Context, int) (UpsertResult, string, error) {
		called = true
		return UpsertResult{}, "", nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called, "nothing is written after cancellation")
}
