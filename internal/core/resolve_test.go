package core

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLookup() (*RefLookup, uuid.UUID, uuid.UUID) {
	catID, pageID := uuid.New(), uuid.New()
	l := NewRefLookup()
	l.AddCategory(catID, "calcados", "Calçados")
	l.AddPage(pageID, "sobre-nos", "Sobre Nós")
	return l, catID, pageID
}

func TestRefLookup_Resolve(t *testing.T) {
	l, catID, pageID := testLookup()

	tests := []struct {
		name     string
		url      string
		label    string
		wantType ItemType
		wantRef  uuid.UUID
		wantURL  string
	}{
		{"category by url", "https://shop.com/collections/calcados", "Shoes", ItemCategory, catID, "/categoria/calcados"},
		{"url shape is case-insensitive", "https://shop.com/COLLECTIONS/Calcados?page=2", "", ItemCategory, catID, "/categoria/calcados"},
		{"percent-encoded segment matches the label key", "/categoria/cal%C3%A7ados", "", ItemCategory, catID, "/categoria/calcados"},
		{"page by url", "/pages/sobre-nos", "About", ItemPage, pageID, "/pagina/sobre-nos"},
		{"label fallback", "/p/123", "Sobre   Nós", ItemPage, pageID, "/pagina/sobre-nos"},
		{"query string never supplies the segment", "https://shop.com/pages/sobre-nos?from=/collections/calcados", "Sobre", ItemPage, pageID, "/pagina/sobre-nos"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := l.Resolve(tt.url, tt.label)
			assert.Equal(t, tt.wantType, got.ItemType)
			require.NotNil(t, got.RefID)
			assert.Equal(t, tt.wantRef, *got.RefID)
			assert.Equal(t, tt.wantURL, got.URL)
		})
	}
}

func TestRefLookup_External(t *testing.T) {
	l, _, _ := testLookup()

	got := l.Resolve("https://blog.example.com/post", "Blog")
	assert.Equal(t, Resolution{ItemType: ItemExternal, URL: "https://blog.example.com/post"}, got)

	_, ok := l.Match("https://blog.example.com/post", "Blog")
	assert.False(t, ok)

	empty := NewRefLookup()
	assert.Equal(t, ItemExternal, empty.Resolve("/collections/calcados", "Calçados").ItemType)
}

func TestRefLookup_Precedence(t *testing.T) {
	first, second, page := uuid.New(), uuid.New(), uuid.New()
	l := NewRefLookup()
	l.AddCategory(first, "sale", "Sale")
	l.AddCategory(second, "sale", "Offers")
	l.AddPage(page, "sale", "Sale")

	got := l.Resolve("/anything", "Sale")
	assert.Equal(t, ItemCategory, got.ItemType, "categories are searched before pages")
	assert.Equal(t, first, *got.RefID, "the first registration of a key wins")

	got = l.Resolve("/x", "Offers")
	assert.Equal(t, second, *got.RefID)

	cats, pages := l.Len()
	assert.Equal(t, 2, cats)
	assert.Equal(t, 1, pages)
}

func TestPathSegment(t *testing.T) {
	tests := map[string]string{
		"https://a.com/collections/shirts":        "shirts",
		"https://a.com/c/shirts#top":              "shirts",
		"/categorias/Camisetas/":                  "camisetas",
		"https://a.com/policies/refund-policy":    "refund-policy",
		"https://a.com/institucional/quem-somos?": "quem-somos",
		"https://a.com/products/tee":              "",
		"https://a.com/search?q=/collections/x":   "",
		"https://a.com/products/tee#/pages/faq":   "",
		"/pages/faq?ref=%zz":                      "faq",
		"":                                        "",
	}
	for input, want := range tests {
		assert.Equal(t, want, pathSegment(input), "pathSegment(%q)", input)
	}
}
