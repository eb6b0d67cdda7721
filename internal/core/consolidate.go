package core

import (
	"sort"
	"strconv"
	"strings"
)

// defaultOptionValue marks a product without real variant options in
// Shopify-style exports.
const defaultOptionValue = "default title"

// ConsolidatedProduct is one product rebuilt from a flattened export group.
type ConsolidatedProduct struct {
	Handle   string
	Fields   RawRow // seed row: the first titled row of the group
	Images   []string
	Variants []Record
	Rows     int

	seeded      bool
	optionNames map[int]string
	pending     []pendingVariant
	seenImages  map[string]bool
}

type pendingVariant struct {
	values map[int]string
	fields Record
}

// ConsolidationResult is the outcome of Consolidate.
type ConsolidationResult struct {
	Products []ConsolidatedProduct
	Warnings []ConsolidationWarning
}

// Record flattens the product into a normalizer record. Images and variants
// are attached under the canonical "images" and "variants" keys.
func (p ConsolidatedProduct) Record() Record {
	rec := p.Fields.ToRecord()
	rec[FieldImages] = append([]string(nil), p.Images...)
	rec[FieldVariants] = append([]Record(nil), p.Variants...)
	return rec
}

// flattenedColumns locates the columns Consolidate cares about.
type flattenedColumns struct {
	handle       string
	title        string
	images       []string
	optionNames  map[int]string // option index -> header
	optionValues map[int]string
	variant      map[string]string // header -> canonical variant field
}

var flattenedVariantFields = map[string]string{
	"variantsku":            FieldSKU,
	"variantprice":          FieldPrice,
	"variantcompareatprice": FieldCompareAtPrice,
	"variantinventoryqty":   FieldStock,
	"variantbarcode":        FieldBarcode,
	"variantimage":          FieldImage,
}

var imageColumnKeys = map[string]bool{
	"imagesrc":     true,
	"imageurl":     true,
	"image":        true,
	"imagem":       true,
	"urlimagem":    true,
	"variantimage": true,
}

func resolveFlattenedColumns(headers []string) flattenedColumns {
	cols := flattenedColumns{
		optionNames:  make(map[int]string),
		optionValues: make(map[int]string),
		variant:      make(map[string]string),
	}
	for _, h := range headers {
		key := normKey(h)
		switch key {
		case "handle":
			if cols.handle == "" {
				cols.handle = h
			}
			continue
		case "title":
			if cols.title == "" {
				cols.title = h
			}
			continue
		}
		if imageColumnKeys[strings.TrimRight(key, "0123456789")] {
			cols.images = append(cols.images, h)
		}
		if field, ok := flattenedVariantFields[key]; ok {
			cols.variant[h] = field
		}
		if idx, part, ok := parseOptionColumn(key); ok {
			if part == "name" {
				cols.optionNames[idx] = h
			} else {
				cols.optionValues[idx] = h
			}
		}
	}
	return cols
}

// parseOptionColumn recognizes "option1name" / "option2value".
func parseOptionColumn(key string) (int, string, bool) {
	if !strings.HasPrefix(key, "option") {
		return 0, "", false
	}
	rest := strings.TrimPrefix(key, "option")
	for _, part := range []string{"name", "value"} {
		if digits, ok := strings.CutSuffix(rest, part); ok {
			n, err := strconv.Atoi(digits)
			if err != nil || n <= 0 {
				return 0, "", false
			}
			return n, part, true
		}
	}
	return 0, "", false
}

// Consolidate merges flattened multi-row product exports. Rows are grouped
// by Handle in input order; the first titled row seeds the product and
// every row of the group contributes its image URLs (deduplicated, order
// preserved) and its variant options. A row without a Handle takes one
// derived from its Title. Rows with neither are dropped with a warning.
func Consolidate(table *Table) ConsolidationResult {
	cols := resolveFlattenedColumns(table.Headers)

	var res ConsolidationResult
	groups := make(map[string]*ConsolidatedProduct)
	var order []string

	for i, row := range table.Rows {
		rowNum := i + 2 // line 1 is the header
		handle := strings.TrimSpace(row[cols.handle])
		title := strings.TrimSpace(row[cols.title])

		if handle == "" {
			if title == "" {
				res.Warnings = append(res.Warnings, ConsolidationWarning{Row: rowNum, Reason: "row has neither handle nor title"})
				continue
			}
			handle = Slugify(title)
			if handle == "" {
				res.Warnings = append(res.Warnings, ConsolidationWarning{Row: rowNum, Reason: "title does not yield a handle"})
				continue
			}
		}

		g, ok := groups[handle]
		if !ok {
			g = &ConsolidatedProduct{
				Handle:      handle,
				optionNames: make(map[int]string),
				seenImages:  make(map[string]bool),
			}
			groups[handle] = g
			order = append(order, handle)
		}
		g.Rows++

		if g.Fields == nil || (!g.seeded && title != "") {
			g.Fields = copyRow(row)
			if cols.handle != "" {
				g.Fields[cols.handle] = handle
			}
			g.seeded = title != ""
		}
		for idx, col := range cols.optionNames {
			if name := strings.TrimSpace(row[col]); name != "" && g.optionNames[idx] == "" {
				g.optionNames[idx] = name
			}
		}

		for _, col := range cols.images {
			g.addImage(row[col])
		}
		if pv, ok := variantFromRow(row, cols); ok {
			g.pending = append(g.pending, pv)
		}
	}

	res.Products = make([]ConsolidatedProduct, 0, len(order))
	for _, handle := range order {
		g := groups[handle]
		g.finalizeVariants()
		res.Products = append(res.Products, *g)
	}
	return res
}

func (p *ConsolidatedProduct) addImage(url string) {
	url = strings.TrimSpace(url)
	if url == "" || p.seenImages[url] {
		return
	}
	p.seenImages[url] = true
	p.Images = append(p.Images, url)
}

// finalizeVariants names option values once the whole group has been seen,
// since option names usually live only on the seed row.
func (p *ConsolidatedProduct) finalizeVariants() {
	for _, pv := range p.pending {
		indexes := sortedKeys(pv.values)
		options := make([]VariantOption, 0, len(indexes))
		for _, idx := range indexes {
			name := p.optionNames[idx]
			if name == "" {
				name = "Option " + strconv.Itoa(idx)
			}
			options = append(options, VariantOption{Name: name, Value: pv.values[idx]})
		}
		rec := pv.fields
		rec[FieldOptions] = options
		p.Variants = append(p.Variants, rec)
	}
	p.pending = nil
}

// variantFromRow extracts a variant when the row carries at least one real
// option value.
func variantFromRow(row RawRow, cols flattenedColumns) (pendingVariant, bool) {
	values := make(map[int]string)
	for idx, col := range cols.optionValues {
		v := strings.TrimSpace(row[col])
		if v == "" || strings.EqualFold(v, defaultOptionValue) {
			continue
		}
		values[idx] = v
	}
	if len(values) == 0 {
		return pendingVariant{}, false
	}

	fields := make(Record, len(cols.variant)+1)
	for col, field := range cols.variant {
		if v := strings.TrimSpace(row[col]); v != "" {
			fields[field] = v
		}
	}
	return pendingVariant{values: values, fields: fields}, true
}

func copyRow(row RawRow) RawRow {
	out := make(RawRow, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}

func sortedKeys(m map[int]string) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// normKey lowercases and drops everything but letters and digits, so
// "Image Src", "image_src" and "ImageSrc" compare equal.
func normKey(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
