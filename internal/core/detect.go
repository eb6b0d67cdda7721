package core

import "strings"

// Platform names the source storefront platform.
type Platform string

const (
	PlatformShopify     Platform = "shopify"
	PlatformWooCommerce Platform = "woocommerce"
	PlatformNuvemshop   Platform = "nuvemshop"
	PlatformVTEX        Platform = "vtex"
	PlatformTray        Platform = "tray"
	PlatformUnknown     Platform = "unknown"
)

// KnownPlatforms lists detectable platforms in priority order.
var KnownPlatforms = []Platform{
	PlatformShopify,
	PlatformWooCommerce,
	PlatformNuvemshop,
	PlatformVTEX,
	PlatformTray,
}

// Confidence qualifies a detection result.
type Confidence string

const (
	ConfidenceHigh Confidence = "high"
	ConfidenceLow  Confidence = "low"
)

// Detection is the outcome of platform detection.
type Detection struct {
	Platform   Platform   `json:"platform"`
	Confidence Confidence `json:"confidence"`
}

var unknownDetection = Detection{Platform: PlatformUnknown, Confidence: ConfidenceLow}

type platformMarker struct {
	marker   string // lowercase
	platform Platform
}

// markupMarkers are evaluated in order; the first hit wins.
var markupMarkers = []platformMarker{
	{"cdn.shopify.com", PlatformShopify},
	{"myshopify.com", PlatformShopify},
	{"shopify.theme", PlatformShopify},
	{"shopify-section", PlatformShopify},

	{"wp-content/plugins/woocommerce", PlatformWooCommerce},
	{"woocommerce", PlatformWooCommerce},
	{"wc-block", PlatformWooCommerce},

	{"nuvemshop", PlatformNuvemshop},
	{"tiendanube", PlatformNuvemshop},
	{"mitiendanube.com", PlatformNuvemshop},

	{"vteximg.com.br", PlatformVTEX},
	{"vtexassets.com", PlatformVTEX},
	{"vtex.render", PlatformVTEX},
	{"vtexcommercestable", PlatformVTEX},

	{"tray.com.br", PlatformTray},
	{"traycdn", PlatformTray},
	{"tcdn.com.br", PlatformTray},
}

// DetectPlatform classifies raw storefront markup. It performs a
// case-insensitive substring search over an ordered marker list and returns
// on the first match.
func DetectPlatform(markup string) Detection {
	if markup == "" {
		return unknownDetection
	}
	lower := strings.ToLower(markup)
	for _, m := range markupMarkers {
		if strings.Contains(lower, m.marker) {
			return Detection{Platform: m.platform, Confidence: ConfidenceHigh}
		}
	}
	return unknownDetection
}

type headerSignature struct {
	platform Platform
	headers  []string // lowercase prefixes; all must be present
}

// headerSignatures identify a platform's export files by their columns.
var headerSignatures = []headerSignature{
	{PlatformShopify, []string{"handle", "variant sku"}},
	{PlatformShopify, []string{"handle", "body (html)"}},
	{PlatformShopify, []string{"lineitem name"}},
	{PlatformWooCommerce, []string{"regular price"}},
	{PlatformWooCommerce, []string{"billing_first_name"}},
	{PlatformNuvemshop, []string{"identificador url"}},
	{PlatformNuvemshop, []string{"url identifier"}},
	{PlatformVTEX, []string{"_idsku"}},
	{PlatformVTEX, []string{"_skuid"}},
	{PlatformTray, []string{"id produto", "referência"}},
}

// DetectFromHeaders classifies an uploaded export by its header row using
// the same first-match-wins rule as DetectPlatform.
func DetectFromHeaders(headers []string) Detection {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = strings.ToLower(strings.TrimSpace(h))
	}

	for _, sig := range headerSignatures {
		if hasAllPrefixes(normalized, sig.headers) {
			return Detection{Platform: sig.platform, Confidence: ConfidenceHigh}
		}
	}
	return unknownDetection
}

func hasAllPrefixes(headers, want []string) bool {
	for _, w := range want {
		found := false
		for _, h := range headers {
			if strings.HasPrefix(h, w) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// ParsePlatform maps a user-supplied hint to a Platform. Anything
// unrecognized is PlatformUnknown.
func ParsePlatform(s string) Platform {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "woo", "wc":
		return PlatformWooCommerce
	case "tiendanube":
		return PlatformNuvemshop
	}
	for _, p := range KnownPlatforms {
		if string(p) == s {
			return p
		}
	}
	return PlatformUnknown
}
