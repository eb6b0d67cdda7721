package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const upsertProduct = `-- name: UpsertProduct :one
INSERT INTO products (
    tenant_id, platform, slug, handle, name, description, sku, price, compare_at_price,
    stock_quantity, vendor, category, tags, active, images, variants
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
ON CONFLICT (tenant_id, slug) DO UPDATE SET
    platform         = EXCLUDED.platform,
    handle           = EXCLUDED.handle,
    name             = EXCLUDED.name,
    description      = EXCLUDED.description,
    sku              = EXCLUDED.sku,
    price            = EXCLUDED.price,
    compare_at_price = EXCLUDED.compare_at_price,
    stock_quantity   = EXCLUDED.stock_quantity,
    vendor           = EXCLUDED.vendor,
    category         = EXCLUDED.category,
    tags             = EXCLUDED.tags,
    active           = EXCLUDED.active,
    images           = EXCLUDED.images,
    variants         = EXCLUDED.variants,
    updated_at       = now()
RETURNING id, (xmax = 0) AS created
`

type UpsertProductParams struct {
	TenantID       pgtype.UUID    `json:"tenant_id"`
	Platform       string         `json:"platform"`
	Slug           string         `json:"slug"`
	Handle         string         `json:"handle"`
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	Sku            string         `json:"sku"`
	Price          pgtype.Numeric `json:"price"`
	CompareAtPrice pgtype.Numeric `json:"compare_at_price"`
	StockQuantity  int32          `json:"stock_quantity"`
	Vendor         string         `json:"vendor"`
	Category       string         `json:"category"`
	Tags           []string       `json:"tags"`
	Active         bool           `json:"active"`
	Images         []byte         `json:"images"`
	Variants       []byte         `json:"variants"`
}

func (q *Queries) UpsertProduct(ctx context.Context, arg UpsertProductParams) (UpsertRow, error) {
	row := q.db.QueryRow(ctx, upsertProduct,
		arg.TenantID,
		arg.Platform,
		arg.Slug,
		arg.Handle,
		arg.Name,
		arg.Description,
		arg.Sku,
		arg.Price,
		arg.CompareAtPrice,
		arg.StockQuantity,
		arg.Vendor,
		arg.Category,
		arg.Tags,
		arg.Active,
		arg.Images,
		arg.Variants,
	)
	var i UpsertRow
	err := row.Scan(&i.ID, &i.Created)
	return i, err
}

const upsertCustomer = `-- name: UpsertCustomer :one
INSERT INTO customers (
    tenant_id, platform, customer_key, name, email, phone, document, accepts_marketing, address
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (tenant_id, customer_key) DO UPDATE SET
    platform          = EXCLUDED.platform,
    name              = EXCLUDED.name,
    email             = EXCLUDED.email,
    phone             = EXCLUDED.phone,
    document          = EXCLUDED.document,
    accepts_marketing = EXCLUDED.accepts_marketing,
    address           = EXCLUDED.address,
    updated_at        = now()
RETURNING id, (xmax = 0) AS created
`

type UpsertCustomerParams struct {
	TenantID         pgtype.UUID `json:"tenant_id"`
	Platform         string      `json:"platform"`
	CustomerKey      string      `json:"customer_key"`
	Name             string      `json:"name"`
	Email            string      `json:"email"`
	Phone            string      `json:"phone"`
	Document         string      `json:"document"`
	AcceptsMarketing bool        `json:"accepts_marketing"`
	Address          []byte      `json:"address"`
}

func (q *Queries) UpsertCustomer(ctx context.Context, arg UpsertCustomerParams) (UpsertRow, error) {
	row := q.db.QueryRow(ctx, upsertCustomer,
		arg.TenantID,
		arg.Platform,
		arg.CustomerKey,
		arg.Name,
		arg.Email,
		arg.Phone,
		arg.Document,
		arg.AcceptsMarketing,
		arg.Address,
	)
	var i UpsertRow
	err := row.Scan(&i.ID, &i.Created)
	return i, err
}

const upsertOrder = `-- name: UpsertOrder :one
INSERT INTO orders (
    tenant_id, platform, number, customer_name, customer_email, status, currency,
    total, shipping, placed_at, items
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (tenant_id, number) DO UPDATE SET
    platform       = EXCLUDED.platform,
    customer_name  = EXCLUDED.customer_name,
    customer_email = EXCLUDED.customer_email,
    status         = EXCLUDED.status,
    currency       = EXCLUDED.currency,
    total          = EXCLUDED.total,
    shipping       = EXCLUDED.shipping,
    placed_at      = EXCLUDED.placed_at,
    items          = EXCLUDED.items,
    updated_at     = now()
RETURNING id, (xmax = 0) AS created
`

type UpsertOrderParams struct {
	TenantID      pgtype.UUID        `json:"tenant_id"`
	Platform      string             `json:"platform"`
	Number        string             `json:"number"`
	CustomerName  string             `json:"customer_name"`
	CustomerEmail string             `json:"customer_email"`
	Status        string             `json:"status"`
	Currency      string             `json:"currency"`
	Total         pgtype.Numeric     `json:"total"`
	Shipping      pgtype.Numeric     `json:"shipping"`
	PlacedAt      pgtype.Timestamptz `json:"placed_at"`
	Items         []byte             `json:"items"`
}

func (q *Queries) UpsertOrder(ctx context.Context, arg UpsertOrderParams) (UpsertRow, error) {
	row := q.db.QueryRow(ctx, upsertOrder,
		arg.TenantID,
		arg.Platform,
		arg.Number,
		arg.CustomerName,
		arg.CustomerEmail,
		arg.Status,
		arg.Currency,
		arg.Total,
		arg.Shipping,
		arg.PlacedAt,
		arg.Items,
	)
	var i UpsertRow
	err := row.Scan(&i.ID, &i.Created)
	return i, err
}
