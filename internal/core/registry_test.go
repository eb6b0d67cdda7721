package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/JonMunkholm/storemigrate/internal/core"
)

func TestRegisteredPlatforms(t *testing.T) {
	assert.Equal(t, []core.Platform{
		core.PlatformNuvemshop,
		core.PlatformShopify,
		core.PlatformTray,
		core.PlatformVTEX,
		core.PlatformWooCommerce,
	}, core.AliasPlatforms())
	assert.Equal(t, len(core.KnownPlatforms)*len(core.Kinds), core.AliasTableCount())
}

func TestRegisterAliases_DuplicatePanics(t *testing.T) {
	assert.Panics(t, func() {
		core.RegisterAliases(core.AliasTable{Platform: core.PlatformShopify, Kind: core.KindProduct})
	})
}

func TestAliasesFor(t *testing.T) {
	shopify := core.AliasesFor(core.PlatformShopify, core.KindProduct)
	assert.Equal(t, core.PlatformShopify, shopify.Platform)
	assert.Equal(t, []string{"Title", "title"}, shopify.Fields[core.FieldName])

	generic := core.AliasesFor(core.PlatformUnknown, core.KindProduct)
	assert.Equal(t, core.PlatformUnknown, generic.Platform)
	assert.Contains(t, generic.Fields[core.FieldName], "Title")
	assert.Contains(t, generic.Fields[core.FieldName], "Nome")
}

func TestGenericAliases_Deduplicates(t *testing.T) {
	generic := core.GenericAliases(core.KindProduct)

	names := generic.Fields[core.FieldName]
	count := 0
	for _, n := range names {
		if n == "name" {
			count++
		}
	}
	assert.Equal(t, 1, count, "aliases shared by platforms appear once")
	assert.Equal(t, "Title", names[0], "platforms contribute in priority order")
}
