// Package core provides the business logic for migrating a storefront from
// another e-commerce platform.
//
// This package contains all domain logic independent of any transport or
// storage layer. It is used by the web handlers, the CLI and tests without
// modification; persistence is reached only through the [JobStore],
// [CatalogStore] and [ContentStore] interfaces.
//
// # Architecture
//
// The package is organized around two flows:
//
//   - File import: an uploaded export is parsed ([ParseFile]), shaped
//     ([DetectShape]), consolidated when it spreads a product over several
//     rows ([Consolidate]) and normalized into canonical entities
//     ([Normalize]) before [CatalogStore.ImportEntities] persists it.
//   - Structure import: a [Job] drives five stages in a fixed order
//     ([StageOrder]). Each stage reads the source store through an
//     [Extractor] and writes branding, categories, pages, menus and
//     content blocks through a [ContentStore].
//
// # Alias Registry
//
// Each platform registers per-kind alias tables at init time using
// [RegisterAliases]; see package platforms. The normalizer tries a
// platform's aliases in order and falls back to the union of all tables
// when the platform is unknown:
//
//	core.RegisterAliases(core.AliasTable{
//	    Platform: core.PlatformShopify,
//	    Kind:     core.KindProduct,
//	    Fields: map[string][]string{
//	        core.FieldName:  {"Title", "title"},
//	        core.FieldPrice: {"Variant Price", "variants.0.price"},
//	    },
//	})
//
// # Stage Lifecycle
//
// A stage moves pending -> processing -> completed | error, and pending or
// error -> skipped. Starting or skipping a stage requires every earlier stage
// to be completed or skipped ([ErrStageGated]). Every transition is persisted
// before the next one, and the job's done notification fires once when the
// terminal stage settles.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - PARSE001-PARSE005: File errors (quoting, format, spreadsheets)
//   - MAP001-MAP002: Normalization errors
//   - STAGE001-STAGE003: Stage lifecycle errors
//   - JOB001-JOB006: Migration job errors
//   - NET001, IMP001-IMP003: Collaborator and import limiter errors
//   - DB001-DB007, RATE001, REQ001-REQ002: Database, throttling and request errors
package core
