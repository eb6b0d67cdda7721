package core

// htmlextract.go reads storefront HTML with goquery. It backs the branding
// fallback, institutional page content and home page content blocks.

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	logoSelectors = []string{
		"header [class*='logo'] img",
		"[class*='logo'] img",
		"img[class*='logo']",
		"header img",
	}
	contentSelectors = []string{
		"main .rte",
		"#MainContent",
		".page-content",
		"main article",
		"article",
		"main",
		"#content",
	}
	bannerSelectors = []string{
		"[class*='slideshow'] img",
		"[class*='slider'] img",
		"[class*='banner'] img",
		"[class*='hero'] img",
	}
)

func parseHTML(html string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

// BrandingFromHTML derives branding from page markup: site name, logo,
// favicon, theme color and Google Fonts families. Relative URLs are resolved
// against baseURL.
func BrandingFromHTML(html, baseURL string) (Branding, error) {
	doc, err := parseHTML(html)
	if err != nil {
		return Branding{}, err
	}

	var b Branding
	b.StoreName = attr(doc.Find("meta[property='og:site_name']"), "content")
	if b.StoreName == "" {
		b.StoreName = strings.TrimSpace(doc.Find("title").First().Text())
	}

	for _, sel := range logoSelectors {
		if src := imageSource(doc.Find(sel).First()); src != "" {
			b.LogoURL = absoluteURL(baseURL, src)
			break
		}
	}

	doc.Find("link[rel]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		rel := strings.ToLower(attr(s, "rel"))
		if strings.Contains(rel, "icon") {
			b.FaviconURL = absoluteURL(baseURL, attr(s, "href"))
			return false
		}
		return true
	})

	b.PrimaryColor = attr(doc.Find("meta[name='theme-color']"), "content")
	if b.PrimaryColor == "" {
		b.PrimaryColor = attr(doc.Find("meta[name='msapplication-TileColor']"), "content")
	}

	seen := make(map[string]bool)
	doc.Find("link[href*='fonts.googleapis.com']").Each(func(_ int, s *goquery.Selection) {
		for _, family := range googleFontFamilies(attr(s, "href")) {
			if !seen[family] {
				seen[family] = true
				b.Fonts = append(b.Fonts, family)
			}
		}
	})
	return b, nil
}

// MergeBranding fills the empty fields of primary from fallback.
func MergeBranding(primary *Branding, fallback Branding) Branding {
	var b Branding
	if primary != nil {
		b = *primary
	}
	setIfEmpty(&b.StoreName, fallback.StoreName)
	setIfEmpty(&b.LogoURL, fallback.LogoURL)
	setIfEmpty(&b.FaviconURL, fallback.FaviconURL)
	setIfEmpty(&b.PrimaryColor, fallback.PrimaryColor)
	setIfEmpty(&b.SecondaryColor, fallback.SecondaryColor)
	if len(b.Fonts) == 0 {
		b.Fonts = fallback.Fonts
	}
	return b
}

// MainContent returns the inner HTML of the page's main content region with
// scripts, styles and navigation removed.
func MainContent(html string) (string, error) {
	doc, err := parseHTML(html)
	if err != nil {
		return "", err
	}
	doc.Find("script, style, noscript, nav, header, footer, form").Remove()

	region := doc.Find("body")
	for _, sel := range contentSelectors {
		if s := doc.Find(sel).First(); s.Length() > 0 && strings.TrimSpace(s.Text()) != "" {
			region = s
			break
		}
	}
	out, err := region.Html()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// ContentBlocks extracts home page sections: banner images (with their
// link), then headed text sections. Positions follow document order within
// each group.
func ContentBlocks(html, baseURL string) ([]ContentBlock, error) {
	doc, err := parseHTML(html)
	if err != nil {
		return nil, err
	}
	doc.Find("script, style, noscript").Remove()

	var blocks []ContentBlock
	seen := make(map[string]bool)

	for _, sel := range bannerSelectors {
		doc.Find(sel).Each(func(_ int, img *goquery.Selection) {
			src := imageSource(img)
			if src == "" {
				return
			}
			src = absoluteURL(baseURL, src)
			if seen[src] {
				return
			}
			seen[src] = true

			block := ContentBlock{
				Kind:     "banner",
				Position: len(blocks),
				Title:    attr(img, "alt"),
				ImageURL: src,
			}
			if href := attr(img.Closest("a"), "href"); href != "" {
				block.LinkURL = absoluteURL(baseURL, href)
			}
			blocks = append(blocks, block)
		})
	}

	doc.Find("main section, body > section, [class*='section']").Each(func(_ int, s *goquery.Selection) {
		title := strings.TrimSpace(s.Find("h1, h2, h3").First().Text())
		body := collapseSpace(s.Find("p").First().Text())
		if title == "" || body == "" {
			return
		}
		key := "text:" + title
		if seen[key] {
			return
		}
		seen[key] = true
		blocks = append(blocks, ContentBlock{
			Kind:     "text",
			Position: len(blocks),
			Title:    title,
			Body:     body,
		})
	})
	return blocks, nil
}

func attr(s *goquery.Selection, name string) string {
	v, _ := s.Attr(name)
	return strings.TrimSpace(v)
}

// imageSource prefers lazy-load attributes over a placeholder src.
func imageSource(img *goquery.Selection) string {
	for _, name := range []string{"data-src", "data-srcset", "src", "srcset"} {
		v := attr(img, name)
		if v == "" || strings.HasPrefix(v, "data:") {
			continue
		}
		if strings.HasSuffix(name, "srcset") {
			v, _, _ = strings.Cut(v, " ")
		}
		return v
	}
	return ""
}

// absoluteURL resolves ref against base; protocol-relative URLs get https.
func absoluteURL(base, ref string) string {
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "//") {
		return "https:" + ref
	}
	b, err := url.Parse(base)
	if err != nil || b.Host == "" {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

// googleFontFamilies lists family names in a Google Fonts stylesheet URL.
func googleFontFamilies(href string) []string {
	u, err := url.Parse(href)
	if err != nil {
		return nil
	}
	var families []string
	for _, f := range u.Query()["family"] {
		for _, part := range strings.Split(f, "|") {
			name, _, _ := strings.Cut(part, ":")
			if name = strings.TrimSpace(name); name != "" {
				families = append(families, name)
			}
		}
	}
	return families
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
