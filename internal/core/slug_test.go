package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Calçados Femininos", "calcados-femininos"},
		{"  Hello, World!  ", "hello-world"},
		{"Camiseta 100% Algodão", "camiseta-100-algodao"},
		{"ÀÉÎÕÜ", "aeiou"},
		{"already-a-slug", "already-a-slug"},
		{"---", ""},
		{"日本", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.input))
		})
	}
}

func TestUniqueSlug(t *testing.T) {
	taken := map[string]bool{}

	assert.Equal(t, "sale", uniqueSlug("sale", taken))
	assert.Equal(t, "sale-2", uniqueSlug("sale", taken))
	assert.Equal(t, "sale-3", uniqueSlug("sale", taken))
	assert.Equal(t, "other", uniqueSlug("other", taken))
}

func TestLabelSlug(t *testing.T) {
	assert.Equal(t, "sale-items", labelSlug("  Sale   Items "))
	assert.Equal(t, "início", labelSlug("Início"))
}
