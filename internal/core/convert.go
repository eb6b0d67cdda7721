package core

// convert.go turns messy export cells into typed values.
//
// Storefront exports mix locales: "1,234.56" from US stores, "1.234,56" and
// "R$ 10,00" from Brazilian ones, accounting negatives like "(12.00)" and
// Excel formula wrappers like ="0012". Every Parse* function reports ok=false
// instead of failing so a bad cell never aborts a batch.

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// numericRegex validates a plain decimal after separator cleanup.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)

var currencyTokens = []string{"R$", "US$", "BRL", "USD", "EUR", "$", "€", "£"}

// timestampLayouts are tried in order. Day-first layouts precede
// month-first ones because most supported platforms export dd/mm/yyyy.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
	"01/02/2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// ParseMoney parses a monetary amount in US or Brazilian notation.
func ParseMoney(s string) (decimal.Decimal, bool) {
	s = CleanCell(s)
	if s == "" {
		return decimal.Decimal{}, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	for _, tok := range currencyTokens {
		s = strings.ReplaceAll(s, tok, "")
	}
	s = strings.Map(func(r rune) rune {
		if r == ' ' || r == '\u00a0' || r == '\t' {
			return -1
		}
		return r
	}, s)
	if strings.HasPrefix(s, "-") {
		negative = !negative
		s = s[1:]
	}

	s = normalizeSeparators(s)
	if !numericRegex.MatchString(s) {
		return decimal.Decimal{}, false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}

// normalizeSeparators rewrites s so '.' is the only decimal separator and
// thousands separators are gone. When both separators appear, the last one
// is the decimal separator. A lone comma followed by exactly three digits
// is a thousands separator; any other lone comma is decimal.
func normalizeSeparators(s string) string {
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")

	case lastComma >= 0:
		if strings.Count(s, ",") > 1 || len(s)-lastComma-1 == 3 {
			return strings.ReplaceAll(s, ",", "")
		}
		return strings.Replace(s, ",", ".", 1)

	case strings.Count(s, ".") > 1:
		return strings.ReplaceAll(s, ".", "")
	}
	return s
}

// ParseNullMoney wraps ParseMoney for optional amounts.
func ParseNullMoney(s string) decimal.NullDecimal {
	d, ok := ParseMoney(s)
	return decimal.NullDecimal{Decimal: d, Valid: ok}
}

// ParseQuantity parses a stock or item quantity. Decimal quantities such as
// "3.0" are truncated; negative stock is kept as reported.
func ParseQuantity(s string) (int, bool) {
	s = CleanCell(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	d, ok := ParseMoney(s)
	if !ok {
		return 0, false
	}
	return int(d.IntPart()), true
}

// ParseBool accepts English and Portuguese truthy/falsy spellings.
func ParseBool(s string) (bool, bool) {
	switch strings.ToLower(CleanCell(s)) {
	case "true", "t", "yes", "y", "1", "sim", "s", "active", "ativo", "published", "publish", "visible", "enabled":
		return true, true
	case "false", "f", "no", "n", "0", "nao", "não", "draft", "archived", "inactive", "inativo", "hidden", "disabled":
		return false, true
	}
	return false, false
}

// ParseTimestamp parses the date formats storefront exports use.
func ParseTimestamp(s string) (time.Time, bool) {
	s = CleanCell(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// CleanCell removes common spreadsheet artifacts from a cell value:
// surrounding whitespace, the ="..." formula wrapper and stray quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.TrimSpace(strings.Trim(s, `"'`))
}
