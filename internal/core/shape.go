package core

import "strings"

// SourceShape tags how an uploaded file lays out its entities. It is
// computed once per file by DetectShape and passed along explicitly.
type SourceShape string

const (
	// ShapeStructured is a JSON document: one record per object.
	ShapeStructured SourceShape = "structured"
	// ShapeTabular is a delimited or spreadsheet file: one record per row.
	ShapeTabular SourceShape = "tabular"
	// ShapeFlattenedVariants is a product export that spreads one product
	// over several rows sharing a Handle (Shopify-style).
	ShapeFlattenedVariants SourceShape = "flattened-variants"
)

// DetectShape classifies a tabular product file. A product table carrying
// both a handle and a title column is a flattened-variants export; any other
// table is plain tabular.
func DetectShape(kind Kind, headers []string) SourceShape {
	if kind != KindProduct {
		return ShapeTabular
	}
	var hasHandle, hasTitle bool
	for _, h := range headers {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "handle":
			hasHandle = true
		case "title":
			hasTitle = true
		}
	}
	if hasHandle && hasTitle {
		return ShapeFlattenedVariants
	}
	return ShapeTabular
}

// PrepareRecords converts a parsed table into normalizer records according
// to its shape. Flattened exports are consolidated first.
func PrepareRecords(shape SourceShape, table *Table) ([]Record, []ConsolidationWarning) {
	if shape == ShapeFlattenedVariants {
		res := Consolidate(table)
		records := make([]Record, len(res.Products))
		for i, p := range res.Products {
			records[i] = p.Record()
		}
		return records, res.Warnings
	}

	records := make([]Record, len(table.Rows))
	for i, row := range table.Rows {
		records[i] = row.ToRecord()
	}
	return records, nil
}
