package core

import "context"

// Extraction formats understood by the content-extraction service.
const (
	FormatHTML     = "html"
	FormatBranding = "branding"
	FormatLinks    = "links"
)

// ExtractionOptions tunes one extraction request.
type ExtractionOptions struct {
	Formats  []string `json:"formats"`
	WaitTime int      `json:"wait_time,omitempty"` // milliseconds
}

// ExtractionRequest asks the extraction service to render and scrape a URL.
type ExtractionRequest struct {
	URL     string            `json:"url"`
	Options ExtractionOptions `json:"options"`
}

// NavEntry is one navigation link, optionally with nested children.
type NavEntry struct {
	Label    string     `json:"label"`
	URL      string     `json:"url"`
	Children []NavEntry `json:"children,omitempty"`
}

// ExtractedCategory is a category link discovered on the source store.
type ExtractedCategory struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Slug        string `json:"slug,omitempty"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

// ExtractedPage is an institutional page discovered on the source store.
type ExtractedPage struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Slug    string `json:"slug,omitempty"`
	Content string `json:"content,omitempty"`
}

// ExtractionResult is the extraction service's response.
type ExtractionResult struct {
	HTML               string              `json:"html"`
	Branding           *Branding           `json:"branding,omitempty"`
	MenuItems          []NavEntry          `json:"menu_items"`
	FooterMenuItems    []NavEntry          `json:"footer_menu_items"`
	Categories         []ExtractedCategory `json:"categories"`
	InstitutionalPages []ExtractedPage     `json:"institutional_pages"`
}

// Extractor turns a URL into raw HTML plus structured storefront data.
type Extractor interface {
	Extract(ctx context.Context, req ExtractionRequest) (*ExtractionResult, error)
}
