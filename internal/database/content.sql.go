package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const upsertBranding = `-- name: UpsertBranding :exec
INSERT INTO store_branding (tenant_id, store_name, logo_url, favicon_url, primary_color, secondary_color, fonts)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (tenant_id) DO UPDATE SET
    store_name      = EXCLUDED.store_name,
    logo_url        = EXCLUDED.logo_url,
    favicon_url     = EXCLUDED.favicon_url,
    primary_color   = EXCLUDED.primary_color,
    secondary_color = EXCLUDED.secondary_color,
    fonts           = EXCLUDED.fonts,
    updated_at      = now()
`

type UpsertBrandingParams struct {
	TenantID       pgtype.UUID `json:"tenant_id"`
	StoreName      string      `json:"store_name"`
	LogoUrl        string      `json:"logo_url"`
	FaviconUrl     string      `json:"favicon_url"`
	PrimaryColor   string      `json:"primary_color"`
	SecondaryColor string      `json:"secondary_color"`
	Fonts          []string    `json:"fonts"`
}

func (q *Queries) UpsertBranding(ctx context.Context, arg UpsertBrandingParams) error {
	_, err := q.db.Exec(ctx, upsertBranding,
		arg.TenantID,
		arg.StoreName,
		arg.LogoUrl,
		arg.FaviconUrl,
		arg.PrimaryColor,
		arg.SecondaryColor,
		arg.Fonts,
	)
	return err
}

const upsertCategory = `-- name: UpsertCategory :one
INSERT INTO categories (tenant_id, slug, name, source_url, description, image_url)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (tenant_id, slug) DO UPDATE SET
    name        = EXCLUDED.name,
    source_url  = EXCLUDED.source_url,
    description = EXCLUDED.description,
    image_url   = EXCLUDED.image_url,
    updated_at  = now()
RETURNING id, (xmax = 0) AS created
`

type UpsertCategoryParams struct {
	TenantID    pgtype.UUID `json:"tenant_id"`
	Slug        string      `json:"slug"`
	Name        string      `json:"name"`
	SourceUrl   string      `json:"source_url"`
	Description string      `json:"description"`
	ImageUrl    string      `json:"image_url"`
}

func (q *Queries) UpsertCategory(ctx context.Context, arg UpsertCategoryParams) (UpsertRow, error) {
	row := q.db.QueryRow(ctx, upsertCategory,
		arg.TenantID,
		arg.Slug,
		arg.Name,
		arg.SourceUrl,
		arg.Description,
		arg.ImageUrl,
	)
	var i UpsertRow
	err := row.Scan(&i.ID, &i.Created)
	return i, err
}

const listCategories = `-- name: ListCategories :many
SELECT id, tenant_id, slug, name, source_url, description, image_url
FROM categories
WHERE tenant_id = $1
ORDER BY slug
`

func (q *Queries) ListCategories(ctx context.Context, tenantID pgtype.UUID) ([]Category, error) {
	rows, err := q.db.Query(ctx, listCategories, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Category
	for rows.Next() {
		var i Category
		if err := rows.Scan(
			&i.ID,
			&i.TenantID,
			&i.Slug,
			&i.Name,
			&i.SourceUrl,
			&i.Description,
			&i.ImageUrl,
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

const upsertPage = `-- name: UpsertPage :one
INSERT INTO pages (tenant_id, slug, title, source_url, content)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (tenant_id, slug) DO UPDATE SET
    title      = EXCLUDED.title,
    source_url = EXCLUDED.source_url,
    content    = CASE WHEN EXCLUDED.content = '' THEN pages.content ELSE EXCLUDED.content END,
    updated_at = now()
RETURNING id, (xmax = 0) AS created
`

type UpsertPageParams struct {
	TenantID  pgtype.UUID `json:"tenant_id"`
	Slug      string      `json:"slug"`
	Title     string      `json:"title"`
	SourceUrl string      `json:"source_url"`
	Content   string      `json:"content"`
}

func (q *Queries) UpsertPage(ctx context.Context, arg UpsertPageParams) (UpsertRow, error) {
	row := q.db.QueryRow(ctx, upsertPage,
		arg.TenantID,
		arg.Slug,
		arg.Title,
		arg.SourceUrl,
		arg.Content,
	)
	var i UpsertRow
	err := row.Scan(&i.ID, &i.Created)
	return i, err
}

const listPages = `-- name: ListPages :many
SELECT id, tenant_id, slug, title, source_url, content
FROM pages
WHERE tenant_id = $1
ORDER BY slug
`

func (q *Queries) ListPages(ctx context.Context, tenantID pgtype.UUID) ([]Page, error) {
	rows, err := q.db.Query(ctx, listPages, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Page
	for rows.Next() {
		var i Page
		if err := rows.Scan(
			&i.ID,
			&i.TenantID,
			&i.Slug,
			&i.Title,
			&i.SourceUrl,
			&i.Content,
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

const upsertMenu = `-- name: UpsertMenu :one
INSERT INTO menus (tenant_id, location, name)
VALUES ($1, $2, $3)
ON CONFLICT (tenant_id, location) DO UPDATE SET name = EXCLUDED.name
RETURNING id
`

type UpsertMenuParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	Location string      `json:"location"`
	Name     string      `json:"name"`
}

func (q *Queries) UpsertMenu(ctx context.Context, arg UpsertMenuParams) (pgtype.UUID, error) {
	row := q.db.QueryRow(ctx, upsertMenu, arg.TenantID, arg.Location, arg.Name)
	var id pgtype.UUID
	err := row.Scan(&id)
	return id, err
}

const deleteMenuItems = `-- name: DeleteMenuItems :exec
DELETE FROM menu_items WHERE menu_id = $1
`

func (q *Queries) DeleteMenuItems(ctx context.Context, menuID pgtype.UUID) error {
	_, err := q.db.Exec(ctx, deleteMenuItems, menuID)
	return err
}

const insertMenuItem = `-- name: InsertMenuItem :one
INSERT INTO menu_items (menu_id, parent_id, label, url, item_type, ref_id, sort_order)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id
`

type InsertMenuItemParams struct {
	MenuID    pgtype.UUID `json:"menu_id"`
	ParentID  pgtype.UUID `json:"parent_id"`
	Label     string      `json:"label"`
	Url       string      `json:"url"`
	ItemType  string      `json:"item_type"`
	RefID     pgtype.UUID `json:"ref_id"`
	SortOrder int32       `json:"sort_order"`
}

func (q *Queries) InsertMenuItem(ctx context.Context, arg InsertMenuItemParams) (pgtype.UUID, error) {
	row := q.db.QueryRow(ctx, insertMenuItem,
		arg.MenuID,
		arg.ParentID,
		arg.Label,
		arg.Url,
		arg.ItemType,
		arg.RefID,
		arg.SortOrder,
	)
	var id pgtype.UUID
	err := row.Scan(&id)
	return id, err
}

const deleteContentBlocks = `-- name: DeleteContentBlocks :exec
DELETE FROM content_blocks WHERE tenant_id = $1 AND page = $2
`

type DeleteContentBlocksParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	Page     string      `json:"page"`
}

func (q *Queries) DeleteContentBlocks(ctx context.Context, arg DeleteContentBlocksParams) error {
	_, err := q.db.Exec(ctx, deleteContentBlocks, arg.TenantID, arg.Page)
	return err
}

const insertContentBlock = `-- name: InsertContentBlock :exec
INSERT INTO content_blocks (tenant_id, page, kind, position, title, body, image_url, link_url)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

type InsertContentBlockParams struct {
	TenantID pgtype.UUID `json:"tenant_id"`
	Page     string      `json:"page"`
	Kind     string      `json:"kind"`
	Position int32       `json:"position"`
	Title    string      `json:"title"`
	Body     string      `json:"body"`
	ImageUrl string      `json:"image_url"`
	LinkUrl  string      `json:"link_url"`
}

func (q *Queries) InsertContentBlock(ctx context.Context, arg InsertContentBlockParams) error {
	_, err := q.db.Exec(ctx, insertContentBlock,
		arg.TenantID,
		arg.Page,
		arg.Kind,
		arg.Position,
		arg.Title,
		arg.Body,
		arg.ImageUrl,
		arg.LinkUrl,
	)
	return err
}
