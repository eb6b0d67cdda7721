package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind discriminates the entity type of an uploaded file.
type Kind string

const (
	KindProduct  Kind = "product"
	KindCustomer Kind = "customer"
	KindOrder    Kind = "order"
)

// Kinds lists the importable entity kinds.
var Kinds = []Kind{KindProduct, KindCustomer, KindOrder}

// ParseKind accepts singular or plural names ("products", "Order").
func ParseKind(s string) (Kind, error) {
	k := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s")
	for _, known := range Kinds {
		if string(known) == k {
			return known, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// wrapperKey is the key a structured export may nest its records under.
func (k Kind) wrapperKey() string { return string(k) + "s" }

// RawRow maps header name to cell text for one data row. Header order lives
// on the owning Table.
type RawRow map[string]string

// Table is a parsed delimited or spreadsheet file.
type Table struct {
	Headers []string
	Rows    []RawRow
}

// Record is one source object handed to the normalizer. Tabular rows become
// records with string values; JSON objects keep their decoded structure.
type Record map[string]any

// ToRecord converts a tabular row into a normalizer record.
func (r RawRow) ToRecord() Record {
	rec := make(Record, len(r))
	for k, v := range r {
		rec[k] = v
	}
	return rec
}

// VariantOption is one option axis value, e.g. Size=M.
type VariantOption struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Variant is one purchasable option set of a product.
type Variant struct {
	Options        []VariantOption     `json:"options"`
	SKU            string              `json:"sku,omitempty"`
	Barcode        string              `json:"barcode,omitempty"`
	Price          decimal.NullDecimal `json:"price"`
	CompareAtPrice decimal.NullDecimal `json:"compare_at_price"`
	StockQuantity  int                 `json:"stock_quantity"`
	ImageURL       string              `json:"image_url,omitempty"`
}

// Title joins option values the way storefronts label variants ("M / Blue").
func (v Variant) Title() string {
	values := make([]string, 0, len(v.Options))
	for _, o := range v.Options {
		values = append(values, o.Value)
	}
	return strings.Join(values, " / ")
}

// CanonicalProduct is the platform-independent product representation.
type CanonicalProduct struct {
	Handle         string              `json:"handle"`
	Name           string              `json:"name"`
	Slug           string              `json:"slug"`
	Description    string              `json:"description,omitempty"`
	SKU            string              `json:"sku,omitempty"`
	Price          decimal.Decimal     `json:"price"`
	CompareAtPrice decimal.NullDecimal `json:"compare_at_price"`
	StockQuantity  int                 `json:"stock_quantity"`
	Vendor         string              `json:"vendor,omitempty"`
	Category       string              `json:"category,omitempty"`
	Tags           []string            `json:"tags,omitempty"`
	Active         bool                `json:"active"`
	Images         []string            `json:"images"`
	Variants       []Variant           `json:"variants"`
}

// Address is a postal address attached to a customer.
type Address struct {
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

// CanonicalCustomer is the platform-independent customer representation.
type CanonicalCustomer struct {
	Name             string  `json:"name"`
	Email            string  `json:"email,omitempty"`
	Phone            string  `json:"phone,omitempty"`
	Document         string  `json:"document,omitempty"`
	AcceptsMarketing bool    `json:"accepts_marketing"`
	Address          Address `json:"address"`
}

// OrderItem is one line of an order.
type OrderItem struct {
	Name     string          `json:"name"`
	SKU      string          `json:"sku,omitempty"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// CanonicalOrder is the platform-independent order representation.
type CanonicalOrder struct {
	Number        string              `json:"number"`
	CustomerName  string              `json:"customer_name,omitempty"`
	CustomerEmail string              `json:"customer_email,omitempty"`
	Status        string              `json:"status,omitempty"`
	Currency      string              `json:"currency,omitempty"`
	Total         decimal.Decimal     `json:"total"`
	Shipping      decimal.NullDecimal `json:"shipping"`
	PlacedAt      *time.Time          `json:"placed_at,omitempty"`
	Items         []OrderItem         `json:"items"`
}

// CanonicalCategory is an imported storefront category.
type CanonicalCategory struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	SourceURL   string `json:"source_url,omitempty"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

// CanonicalPage is an imported institutional page.
type CanonicalPage struct {
	Title     string `json:"title"`
	Slug      string `json:"slug"`
	SourceURL string `json:"source_url,omitempty"`
	Content   string `json:"content,omitempty"`
}

// Branding is the visual identity captured from the source storefront.
type Branding struct {
	StoreName      string            `json:"store_name,omitempty"`
	LogoURL        string            `json:"logo_url,omitempty"`
	FaviconURL     string            `json:"favicon_url,omitempty"`
	PrimaryColor   string            `json:"primary_color,omitempty"`
	SecondaryColor string            `json:"secondary_color,omitempty"`
	Fonts          []string          `json:"fonts,omitempty"`
	Extra          map[string]string `json:"extra,omitempty"`
}

// IsZero reports whether no branding attribute was captured.
func (b Branding) IsZero() bool {
	return b.StoreName == "" && b.LogoURL == "" && b.FaviconURL == "" &&
		b.PrimaryColor == "" && b.SecondaryColor == "" && len(b.Fonts) == 0
}

// ContentBlock is a home-page section captured from the source storefront.
type ContentBlock struct {
	Kind     string `json:"kind"` // banner, image, text
	Position int    `json:"position"`
	Title    string `json:"title,omitempty"`
	Body     string `json:"body,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
	LinkURL  string `json:"link_url,omitempty"`
}
