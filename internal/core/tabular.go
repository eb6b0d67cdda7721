package core

// tabular.go turns uploaded exports into header-keyed rows.
//
// Delimited text goes through encoding/csv in lazy mode so ragged rows and
// stray quotes survive. encoding/csv silently accepts a quoted field that
// is still open at end of input, so checkQuotes runs first and rejects that
// case with a ParseError.

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseDelimited parses comma-separated text with a header row. Each data
// row yields one RawRow holding every header key: missing trailing cells
// become "", extra cells are ignored. Empty lines and records whose cells
// are all blank are not data rows and are dropped. Header names are made
// unique with a numeric suffix.
func ParseDelimited(data []byte) (*Table, error) {
	data = prepareInput(data)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &ParseError{Msg: "empty file", Err: ErrEmptyFile}
	}

	if err := checkQuotes(data); err != nil {
		return nil, err
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		var csvErr *csv.ParseError
		if errors.As(err, &csvErr) {
			return nil, &ParseError{Line: csvErr.Line, Msg: csvErr.Err.Error(), Err: err}
		}
		return nil, &ParseError{Msg: err.Error(), Err: err}
	}

	return buildTable(records)
}

// ParseXLSX reads the first sheet of a workbook. The first non-empty row is
// the header.
func ParseXLSX(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &ParseError{Msg: "spreadsheet: " + err.Error(), Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &ParseError{Msg: "empty file: workbook has no sheets", Err: ErrEmptyFile}
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &ParseError{Msg: "spreadsheet: " + err.Error(), Err: err}
	}

	return buildTable(rows)
}

// ParseStructured decodes a JSON export. Accepted shapes: a single object,
// an array of objects, or either of those nested under the kind's plural
// key ("products", "customers", "orders") or under "data". Array elements
// that are not objects become empty records so the normalizer counts them.
func ParseStructured(data []byte, kind Kind) ([]Record, error) {
	data = prepareInput(data)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &ParseError{Msg: "empty file", Err: ErrEmptyFile}
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return nil, &ParseError{Line: lineAt(data, syntaxErr.Offset), Msg: "invalid json: " + err.Error(), Err: err}
		}
		return nil, &ParseError{Msg: "invalid json: " + err.Error(), Err: err}
	}

	if obj, ok := doc.(map[string]any); ok {
		if inner, ok := unwrapKey(obj, kind.wrapperKey(), "data"); ok {
			doc = inner
		}
	}

	switch v := doc.(type) {
	case map[string]any:
		return []Record{Record(v)}, nil
	case []any:
		records := make([]Record, 0, len(v))
		for _, item := range v {
			obj, _ := item.(map[string]any)
			records = append(records, Record(obj))
		}
		return records, nil
	default:
		return nil, &ParseError{Msg: fmt.Sprintf("invalid json: expected object or array, got %T", doc)}
	}
}

// unwrapKey returns the container stored under the first of keys present in
// obj, matching keys case-insensitively ("Products" for Tray).
func unwrapKey(obj map[string]any, keys ...string) (any, bool) {
	for _, key := range keys {
		for k, v := range obj {
			if !strings.EqualFold(k, key) {
				continue
			}
			switch v.(type) {
			case []any, map[string]any:
				return v, true
			}
			return nil, false
		}
	}
	return nil, false
}

// prepareInput strips a UTF-8 byte-order mark and decodes input that is not
// valid UTF-8.
func prepareInput(data []byte) []byte {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return data
	}
	// Legacy exports (Tray, older VTEX and WooCommerce plugins) are often
	// Windows-1252.
	if decoded, err := charmap.Windows1252.NewDecoder().Bytes(data); err == nil {
		return decoded
	}
	return bytes.ToValidUTF8(data, []byte("\uFFFD"))
}

// checkQuotes scans with the same quoting rules encoding/csv applies in lazy
// mode and fails if input ends inside a quoted field. A field is quoted only
// when its first byte is a quote. Inside it, a doubled quote is an escape
// and a quote followed by a delimiter, line break or end of input closes
// the field; any other quote is literal.
func checkQuotes(data []byte) error {
	line := 1
	openedAt := 0
	inQuotes := false
	fieldStart := true

	for i := 0; i < len(data); i++ {
		c := data[i]

		if inQuotes {
			switch c {
			case '\n':
				line++
			case '"':
				rest := data[i+1:]
				switch {
				case len(rest) > 0 && rest[0] == '"':
					i++
				case len(rest) == 0, rest[0] == ',', rest[0] == '\n',
					bytes.HasPrefix(rest, []byte("\r\n")), bytes.Equal(rest, []byte("\r")):
					inQuotes = false
				}
			}
			continue
		}

		switch c {
		case '"':
			if fieldStart {
				inQuotes = true
				openedAt = line
			}
			fieldStart = false
		case ',':
			fieldStart = true
		case '\n':
			line++
			fieldStart = true
		default:
			fieldStart = false
		}
	}

	if inQuotes {
		return &ParseError{Line: openedAt, Msg: "unterminated quoted field"}
	}
	return nil
}

// buildTable drops blank records, promotes the first remaining record to
// headers and keys every later record by them. GetRows keeps fully blank
// rows and csv keeps whitespace-only ones, so both go through here.
func buildTable(all [][]string) (*Table, error) {
	records := make([][]string, 0, len(all))
	for _, rec := range all {
		if !isBlankRecord(rec) {
			records = append(records, rec)
		}
	}
	if len(records) == 0 {
		return nil, &ParseError{Msg: "empty file: no header row", Err: ErrEmptyFile}
	}

	headers := normalizeHeaders(records[0])
	rows := make([]RawRow, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(RawRow, len(headers))
		for i, h := range headers {
			if i < len(rec) {
				row[h] = strings.TrimSpace(rec[i])
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}

	return &Table{Headers: headers, Rows: rows}, nil
}

// normalizeHeaders trims names, fills blanks with column_N and suffixes
// duplicates so each header stays addressable.
func normalizeHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	used := make(map[string]bool, len(raw))
	suffix := make(map[string]int, len(raw))
	for i, h := range raw {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))
		if h == "" {
			h = fmt.Sprintf("column_%d", i+1)
		}
		name := h
		for n := max(suffix[h], 1); used[name]; {
			n++
			name = fmt.Sprintf("%s_%d", h, n)
			suffix[h] = n
		}
		used[name] = true
		headers[i] = name
	}
	return headers
}

func isBlankRecord(rec []string) bool {
	for _, cell := range rec {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func lineAt(data []byte, offset int64) int {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	return bytes.Count(data[:offset], []byte("\n")) + 1
}
