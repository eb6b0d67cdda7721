package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/JonMunkholm/storemigrate/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shopifyProducts = "Handle,Title,Body (HTML),Vendor,Option1 Name,Option1 Value,Variant SKU,Variant Price,Variant Inventory Qty\n" +
	"tee,Tee,<p>Soft</p>,Acme,Size,S,TEE-S,10.00,3\n" +
	"tee,,,,,M,TEE-M,10.00,2\n" +
	"cap,Cap,,Acme,Title,Default Title,CAP,5.00,1\n"

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestDetectCmd(t *testing.T) {
	t.Run("markup", func(t *testing.T) {
		path := writeFile(t, "home.html", `<script src="https://cdn.shopify.com/s/x.js"></script>`)
		out, err := run(t, "detect", path)
		require.NoError(t, err)

		var got detectOutput
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, "home.html", got.File)
		assert.Equal(t, "markup", got.Source)
		assert.Equal(t, core.PlatformShopify, got.Platform)
	})

	t.Run("export headers", func(t *testing.T) {
		path := writeFile(t, "products.csv", shopifyProducts)
		out, err := run(t, "detect", path)
		require.NoError(t, err)

		var got detectOutput
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, "headers", got.Source)
		assert.Equal(t, core.PlatformShopify, got.Platform)
	})

	t.Run("bad kind", func(t *testing.T) {
		path := writeFile(t, "x.csv", "a\n1\n")
		_, err := run(t, "detect", "--kind", "widget", path)
		assert.ErrorIs(t, err, core.ErrUnknownKind)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := run(t, "detect", filepath.Join(t.TempDir(), "nope.csv"))
		assert.Error(t, err)
	})
}

func TestNormalizeCmd(t *testing.T) {
	path := writeFile(t, "products.csv", shopifyProducts)

	out, err := run(t, "normalize", "--entities", path)
	require.NoError(t, err)

	var got normalizeOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, core.KindProduct, got.Kind)
	assert.Equal(t, core.PlatformShopify, got.Platform)
	assert.Equal(t, core.ShapeFlattenedVariants, got.Shape)
	assert.Equal(t, 3, got.Rows)
	assert.Equal(t, 2, got.Normalized)
	require.NotNil(t, got.Entities)
	require.Len(t, got.Entities.Products, 2)
	assert.Equal(t, "tee", got.Entities.Products[0].Handle)
	assert.Len(t, got.Entities.Products[0].Variants, 2)
}

func TestNormalizeCmd_Flags(t *testing.T) {
	path := writeFile(t, "customers.csv", "Email,First Name,Last Name\nana@x.com,Ana,Silva\n")

	out, err := run(t, "normalize", "--kind", "customers", "--platform", "shopify", path)
	require.NoError(t, err)

	var got normalizeOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, core.KindCustomer, got.Kind)
	assert.Equal(t, 1, got.Normalized)
	assert.Nil(t, got.Entities, "entities are opt-in")

	_, err = run(t, "normalize", "--platform", "magento", path)
	assert.ErrorContains(t, err, "unknown platform")
}

func TestStagesCmd(t *testing.T) {
	out, err := run(t, "stages")
	require.NoError(t, err)

	assert.Contains(t, out, "ORDER")
	for _, name := range core.StageOrder {
		assert.Contains(t, out, string(name))
	}

	_, err = run(t, "stages", "extra")
	assert.Error(t, err)
}

func TestPrintError(t *testing.T) {
	var buf bytes.Buffer
	_, err := run(t, "detect", "--kind", "widget", writeFile(t, "x.csv", "a\n1\n"))
	require.Error(t, err)

	printError(&buf, err)
	out := buf.String()
	assert.Contains(t, out, "Error: unknown entity kind")
	assert.Contains(t, out, "(Code: MAP001)")

	buf.Reset()
	printError(&buf, errors.New("something odd"))
	assert.Equal(t, "Error: something odd\n", buf.String())
}
