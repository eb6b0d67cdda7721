package core

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// Menu locations written by the menus stage.
const (
	MenuHeader = "header"
	MenuFooter = "footer"
)

// DefaultMaxMenuDepth caps nesting when no limit is configured.
const DefaultMaxMenuDepth = 6

// MenuItem is one persisted navigation entry.
type MenuItem struct {
	ID        uuid.UUID  `json:"id"`
	MenuID    uuid.UUID  `json:"menu_id"`
	ParentID  *uuid.UUID `json:"parent_id,omitempty"`
	Label     string     `json:"label"`
	URL       string     `json:"url"`
	ItemType  ItemType   `json:"item_type"`
	RefID     *uuid.UUID `json:"ref_id,omitempty"`
	SortOrder int        `json:"sort_order"`
}

// MenuStore persists menus. Menus are upserted by (tenant, location); their
// items are replaced on every build.
type MenuStore interface {
	UpsertMenu(ctx context.Context, tenantID uuid.UUID, location, name string) (uuid.UUID, error)
	DeleteMenuItems(ctx context.Context, menuID uuid.UUID) error
	InsertMenuItem(ctx context.Context, item MenuItem) (uuid.UUID, error)
}

// MenuBuildResult reports one menu build.
type MenuBuildResult struct {
	MenuID     uuid.UUID             `json:"menu_id"`
	Inserted   int                   `json:"inserted"`
	Failed     int                   `json:"failed"`
	ByType     map[ItemType]int      `json:"by_type"`
	Unresolved []ReferenceUnresolved `json:"unresolved,omitempty"`
	Errors     []string              `json:"errors,omitempty"`
}

// MenuTreeBuilder writes a navigation tree, linking entries to imported
// categories and pages through a RefLookup.
type MenuTreeBuilder struct {
	store    MenuStore
	lookup   *RefLookup
	maxDepth int
	logger   *slog.Logger
}

// NewMenuTreeBuilder creates a builder. A nil lookup resolves every link as
// external; maxDepth <= 0 uses DefaultMaxMenuDepth.
func NewMenuTreeBuilder(store MenuStore, lookup *RefLookup, maxDepth int, logger *slog.Logger) *MenuTreeBuilder {
	if lookup == nil {
		lookup = NewRefLookup()
	}
	if maxDepth <= 0 {
		maxDepth = DefaultMaxMenuDepth
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MenuTreeBuilder{store: store, lookup: lookup, maxDepth: maxDepth, logger: logger}
}

// Build upserts the menu at location, clears its previous items and inserts
// entries depth-first. Parents are inserted before their children. A failed
// item is counted with its whole subtree; siblings continue. The returned
// error is non-nil only when the menu itself cannot be prepared or ctx is
// cancelled.
func (b *MenuTreeBuilder) Build(ctx context.Context, tenantID uuid.UUID, location, name string, entries []NavEntry) (MenuBuildResult, error) {
	res := MenuBuildResult{ByType: make(map[ItemType]int)}

	menuID, err := b.store.UpsertMenu(ctx, tenantID, location, name)
	if err != nil {
		return res, fmt.Errorf("upsert menu %s: %w", location, err)
	}
	res.MenuID = menuID

	if err := b.store.DeleteMenuItems(ctx, menuID); err != nil {
		return res, fmt.Errorf("clear menu %s: %w", location, err)
	}

	err = b.insertLevel(ctx, menuID, nil, entries, 1, &res)
	return res, err
}

func (b *MenuTreeBuilder) insertLevel(ctx context.Context, menuID uuid.UUID, parentID *uuid.UUID, entries []NavEntry, depth int, res *MenuBuildResult) error {
	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		if entry.Label == "" {
			res.Failed += 1 + countEntries(entry.Children)
			res.Errors = append(res.Errors, fmt.Sprintf("menu item #%d without label (%s)", i, entry.URL))
			continue
		}

		target := b.lookup.Resolve(entry.URL, entry.Label)
		if target.ItemType == ItemExternal && entry.URL != "" {
			res.Unresolved = append(res.Unresolved, ReferenceUnresolved{Label: entry.Label, URL: entry.URL})
		}

		id, err := b.store.InsertMenuItem(ctx, MenuItem{
			MenuID:    menuID,
			ParentID:  parentID,
			Label:     entry.Label,
			URL:       target.URL,
			ItemType:  target.ItemType,
			RefID:     target.RefID,
			SortOrder: i,
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			failed := 1 + countEntries(entry.Children)
			res.Failed += failed
			res.Errors = append(res.Errors, fmt.Sprintf("menu item %q: %v", entry.Label, err))
			b.logger.Warn("menu item insert failed",
				"label", entry.Label,
				"skipped_children", failed-1,
				"error", err,
			)
			continue
		}
		res.Inserted++
		res.ByType[target.ItemType]++

		if len(entry.Children) == 0 {
			continue
		}
		if depth >= b.maxDepth {
			dropped := countEntries(entry.Children)
			res.Failed += dropped
			res.Errors = append(res.Errors, fmt.Sprintf("menu item %q: %d nested items exceed depth %d", entry.Label, dropped, b.maxDepth))
			continue
		}
		parent := id
		if err := b.insertLevel(ctx, menuID, &parent, entry.Children, depth+1, res); err != nil {
			return err
		}
	}
	return nil
}

// countEntries counts entries including all descendants.
func countEntries(entries []NavEntry) int {
	n := len(entries)
	for _, e := range entries {
		n += countEntries(e.Children)
	}
	return n
}
