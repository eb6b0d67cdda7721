package core

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// ItemType classifies a menu item's target.
type ItemType string

const (
	ItemCategory ItemType = "category"
	ItemPage     ItemType = "page"
	ItemExternal ItemType = "external"
)

// Target URL prefixes for resolved links on the new storefront.
const (
	CategoryPathPrefix = "/categoria/"
	PagePathPrefix     = "/pagina/"
)

// urlShapes are tried in order; the first pattern that matches supplies the
// path segment. Category shapes precede page shapes.
var urlShapes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)/(?:collections|categoria|categorias|category|categories|c)/([^/?#]+)`),
	regexp.MustCompile(`(?i)/(?:pages|pagina|paginas|policies|institucional)/([^/?#]+)`),
}

// ImportedRef is an already-imported category or page.
type ImportedRef struct {
	ID   uuid.UUID `json:"id"`
	Slug string    `json:"slug"`
}

// RefLookup indexes imported categories and pages by slug and by
// label-derived slug.
type RefLookup struct {
	categories map[string]ImportedRef
	pages      map[string]ImportedRef
}

// NewRefLookup returns an empty lookup. An empty lookup resolves every link
// as external.
func NewRefLookup() *RefLookup {
	return &RefLookup{
		categories: make(map[string]ImportedRef),
		pages:      make(map[string]ImportedRef),
	}
}

// AddCategory indexes a category under its slug and its name.
func (l *RefLookup) AddCategory(id uuid.UUID, slug, name string) {
	addRef(l.categories, ImportedRef{ID: id, Slug: slug}, name)
}

// AddPage indexes a page under its slug and its title.
func (l *RefLookup) AddPage(id uuid.UUID, slug, title string) {
	addRef(l.pages, ImportedRef{ID: id, Slug: slug}, title)
}

// Len returns the number of indexed categories and pages keys.
func (l *RefLookup) Len() (categories, pages int) {
	return len(l.categories), len(l.pages)
}

func addRef(m map[string]ImportedRef, ref ImportedRef, label string) {
	for _, key := range []string{strings.ToLower(ref.Slug), labelSlug(label)} {
		if key == "" {
			continue
		}
		if _, exists := m[key]; !exists {
			m[key] = ref
		}
	}
}

// Resolution is where a navigation link points on the new storefront.
type Resolution struct {
	ItemType ItemType   `json:"item_type"`
	RefID    *uuid.UUID `json:"ref_id,omitempty"`
	URL      string     `json:"url"`
}

// Match maps a link to an imported category or page. It extracts a slug
// from the URL shape and looks it up in categories then pages; failing
// that, it retries both with the slug derived from the label. ok is false
// when nothing matches.
func (l *RefLookup) Match(rawURL, label string) (Resolution, bool) {
	if seg := pathSegment(rawURL); seg != "" {
		if res, ok := l.find(seg); ok {
			return res, true
		}
	}
	if key := labelSlug(label); key != "" {
		if res, ok := l.find(key); ok {
			return res, true
		}
	}
	return Resolution{}, false
}

// Resolve is Match with the external fallback: unmatched links keep their
// original URL.
func (l *RefLookup) Resolve(rawURL, label string) Resolution {
	if res, ok := l.Match(rawURL, label); ok {
		return res
	}
	return Resolution{ItemType: ItemExternal, URL: rawURL}
}

func (l *RefLookup) find(key string) (Resolution, bool) {
	if ref, ok := l.categories[key]; ok {
		id := ref.ID
		return Resolution{ItemType: ItemCategory, RefID: &id, URL: CategoryPathPrefix + ref.Slug}, true
	}
	if ref, ok := l.pages[key]; ok {
		id := ref.ID
		return Resolution{ItemType: ItemPage, RefID: &id, URL: PagePathPrefix + ref.Slug}, true
	}
	return Resolution{}, false
}

// pathSegment returns the lowercased, unescaped segment captured by the
// first matching URL shape. Only the path is matched; a shape inside the
// query or fragment never counts.
func pathSegment(rawURL string) string {
	path := urlPath(rawURL)
	for _, shape := range urlShapes {
		m := shape.FindStringSubmatch(path)
		if m == nil {
			continue
		}
		seg := m[1]
		if unescaped, err := url.PathUnescape(seg); err == nil {
			seg = unescaped
		}
		return strings.ToLower(strings.TrimSpace(seg))
	}
	return ""
}

// urlPath returns the escaped path of rawURL. Unparseable input is cut at
// the first query or fragment marker.
func urlPath(rawURL string) string {
	if u, err := url.Parse(strings.TrimSpace(rawURL)); err == nil {
		return u.EscapedPath()
	}
	if i := strings.IndexAny(rawURL, "?#"); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}
