package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectPlatform(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   Platform
	}{
		{"shopify cdn", `<script src="https://cdn.shopify.com/s/files/1/theme.js"></script>`, PlatformShopify},
		{"shopify case-insensitive", `<LINK HREF="//CDN.SHOPIFY.COM/x.css">`, PlatformShopify},
		{"woocommerce plugin path", `<link href="/wp-content/plugins/woocommerce/assets/css/woo.css">`, PlatformWooCommerce},
		{"nuvemshop", `<script>window.LS = {platform: "nuvemshop"}</script>`, PlatformNuvemshop},
		{"tiendanube", `<img src="https://acme.mitiendanube.com/logo.png">`, PlatformNuvemshop},
		{"vtex assets", `<img src="https://acme.vteximg.com.br/arquivos/logo.png">`, PlatformVTEX},
		{"tray cdn", `<img src="https://images.tcdn.com.br/img/logo.png">`, PlatformTray},
		{"first marker wins", `<div class="shopify-section woocommerce"></div>`, PlatformShopify},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectPlatform(tt.markup)
			assert.Equal(t, Detection{Platform: tt.want, Confidence: ConfidenceHigh}, got)
		})
	}
}

func TestDetectPlatform_Unknown(t *testing.T) {
	for _, markup := range []string{"", "<html><body>hand rolled</body></html>"} {
		got := DetectPlatform(markup)
		assert.Equal(t, PlatformUnknown, got.Platform)
		assert.Equal(t, ConfidenceLow, got.Confidence)
	}
}

func TestDetectFromHeaders(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		want    Platform
	}{
		{"shopify products", []string{"Handle", "Title", "Body (HTML)"}, PlatformShopify},
		{"shopify orders", []string{"Name", "Email", "Lineitem name"}, PlatformShopify},
		{"woocommerce products", []string{"ID", "Type", "SKU", "Regular price"}, PlatformWooCommerce},
		{"nuvemshop", []string{"Identificador URL", "Nome"}, PlatformNuvemshop},
		{"vtex spreadsheet", []string{"_IDSKU (Não alterável)", "_NomeSku"}, PlatformVTEX},
		{"tray", []string{" ID Produto ", "Referência", "Nome"}, PlatformTray},
		{"unknown", []string{"name", "price"}, PlatformUnknown},
		{"empty", nil, PlatformUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectFromHeaders(tt.headers).Platform)
		})
	}
}

func TestParsePlatform(t *testing.T) {
	tests := map[string]Platform{
		"Shopify":     PlatformShopify,
		" vtex ":      PlatformVTEX,
		"woo":         PlatformWooCommerce,
		"wc":          PlatformWooCommerce,
		"tiendanube":  PlatformNuvemshop,
		"woocommerce": PlatformWooCommerce,
		"":            PlatformUnknown,
		"magento":     PlatformUnknown,
	}
	for input, want := range tests {
		assert.Equal(t, want, ParsePlatform(input), "ParsePlatform(%q)", input)
	}
}
