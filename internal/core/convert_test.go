package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// ----------------------------------------------------------------------------
// ParseMoney Tests
// ----------------------------------------------------------------------------

func TestParseMoney(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		wantOK bool
		want   string // decimal representation of the expected amount
	}{
		// Valid: plain numbers
		{
			name:   "integer",
			input:  "123",
			wantOK: true,
			want:   "123",
		},
		{
			name:   "decimal",
			input:  "19.90",
			wantOK: true,
			want:   "19.9",
		},
		{
			name:   "leading dot",
			input:  ".5",
			wantOK: true,
			want:   "0.5",
		},
		{
			name:   "negative",
			input:  "-5.5",
			wantOK: true,
			want:   "-5.5",
		},

		// Valid: US notation
		{
			name:   "US thousands and decimal",
			input:  "1,234.56",
			wantOK: true,
			want:   "1234.56",
		},
		{
			name:   "US millions",
			input:  "$1,000,000",
			wantOK: true,
			want:   "1000000",
		},
		{
			name:   "lone comma with three digits is thousands",
			input:  "1,234",
			wantOK: true,
			want:   "1234",
		},

		// Valid: Brazilian notation
		{
			name:   "BR thousands and decimal",
			input:  "1.234,56",
			wantOK: true,
			want:   "1234.56",
		},
		{
			name:   "BR currency prefix",
			input:  "R$ 10,00",
			wantOK: true,
			want:   "10",
		},
		{
			name:   "BRL code",
			input:  "BRL 12,5",
			wantOK: true,
			want:   "12.5",
		},
		{
			name:   "dotted millions",
			input:  "1.000.000",
			wantOK: true,
			want:   "1000000",
		},

		// Valid: other symbols and wrappers
		{
			name:   "euro with comma decimal",
			input:  "€ 3,50",
			wantOK: true,
			want:   "3.5",
		},
		{
			name:   "US dollar code",
			input:  "US$ 5",
			wantOK: true,
			want:   "5",
		},
		{
			name:   "accounting negative",
			input:  "(12.00)",
			wantOK: true,
			want:   "-12",
		},
		{
			name:   "excel formula wrapper",
			input:  `="19.90"`,
			wantOK: true,
			want:   "19.9",
		},
		{
			name:   "non-breaking space",
			input:  "1\u00a0234,00",
			wantOK: true,
			want:   "1234",
		},

		// Invalid
		{
			name:   "empty",
			input:  "",
			wantOK: false,
		},
		{
			name:   "whitespace only",
			input:  "   ",
			wantOK: false,
		},
		{
			name:   "letters",
			input:  "abc",
			wantOK: false,
		},
		{
			name:   "trailing letters",
			input:  "12a",
			wantOK: false,
		},
		{
			name:   "sign only",
			input:  "-",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseMoney(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseMoney(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if !tt.wantOK {
				return
			}
			want := decimal.RequireFromString(tt.want)
			if !got.Equal(want) {
				t.Errorf("ParseMoney(%q) = %s, want %s", tt.input, got, want)
			}
		})
	}
}

func TestParseNullMoney(t *testing.T) {
	if got := ParseNullMoney(""); got.Valid {
		t.Errorf("ParseNullMoney(\"\").Valid = true, want false")
	}

	got := ParseNullMoney("29,90")
	if !got.Valid {
		t.Fatal("ParseNullMoney(\"29,90\").Valid = false, want true")
	}
	if !got.Decimal.Equal(decimal.RequireFromString("29.90")) {
		t.Errorf("ParseNullMoney(\"29,90\") = %s, want 29.9", got.Decimal)
	}
}

// ----------------------------------------------------------------------------
// ParseQuantity Tests
// ----------------------------------------------------------------------------

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		input  string
		want   int
		wantOK bool
	}{
		{"5", 5, true},
		{"  7 ", 7, true},
		{"-2", -2, true},
		{"3.0", 3, true},
		{"1,234", 1234, true},
		{`="12"`, 12, true},
		{"", 0, false},
		{"abc", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseQuantity(tt.input)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ParseQuantity(%q) = (%d, %v), want (%d, %v)", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// ParseBool Tests
// ----------------------------------------------------------------------------

func TestParseBool(t *testing.T) {
	tests := []struct {
		input  string
		want   bool
		wantOK bool
	}{
		// English
		{"true", true, true},
		{"TRUE", true, true},
		{"yes", true, true},
		{"1", true, true},
		{"false", false, true},
		{"no", false, true},
		{"0", false, true},

		// Portuguese
		{"Sim", true, true},
		{"ativo", true, true},
		{"não", false, true},
		{"nao", false, true},
		{"inativo", false, true},

		// Storefront status words
		{"published", true, true},
		{"draft", false, true},
		{"archived", false, true},

		// Unrecognized
		{"", false, false},
		{"maybe", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseBool(tt.input)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ParseBool(%q) = (%v, %v), want (%v, %v)", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// ParseTimestamp Tests
// ----------------------------------------------------------------------------

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   time.Time
		wantOK bool
	}{
		{
			name:   "RFC3339",
			input:  "2024-03-05T10:30:00Z",
			want:   time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "ISO without zone",
			input:  "2024-03-05T10:30:00",
			want:   time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "date only",
			input:  "2024-03-05",
			want:   time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "day first",
			input:  "05/03/2024",
			want:   time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "day first with time",
			input:  "05/03/2024 14:15",
			want:   time.Date(2024, 3, 5, 14, 15, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "month name",
			input:  "Mar 5, 2024",
			want:   time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "empty",
			input:  "",
			wantOK: false,
		},
		{
			name:   "garbage",
			input:  "yesterday",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseTimestamp(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseTimestamp(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if tt.wantOK && !got.Equal(tt.want) {
				t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// CleanCell Tests
// ----------------------------------------------------------------------------

func TestCleanCell(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		// Basic cleaning
		{
			name:  "simple string unchanged",
			input: "hello",
			want:  "hello",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},

		// Whitespace trimming
		{
			name:  "leading whitespace",
			input: "  hello",
			want:  "hello",
		},
		{
			name:  "surrounded by whitespace",
			input: "  hello  ",
			want:  "hello",
		},

		// Excel formula prefix handling
		{
			name:  "Excel formula with quotes",
			input: `="hello"`,
			want:  "hello",
		},
		{
			name:  "Excel formula number as text",
			input: `="00123"`,
			want:  "00123",
		},
		{
			name:  "bare equals sign",
			input: "=SUM(A1)",
			want:  "SUM(A1)",
		},

		// Quote handling
		{
			name:  "double quotes removed",
			input: `"hello"`,
			want:  "hello",
		},
		{
			name:  "single quotes removed",
			input: "'hello'",
			want:  "hello",
		},
		{
			name:  "leading single quote (Excel text prefix)",
			input: "'12345",
			want:  "12345",
		},

		// Combined cleaning
		{
			name:  "excel formula with whitespace",
			input: `  ="test"  `,
			want:  "test",
		},

		// Edge cases
		{
			name:  "only quotes",
			input: `""`,
			want:  "",
		},
		{
			name:  "equals with quoted number",
			input: `="0"`,
			want:  "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CleanCell(tt.input)
			if got != tt.want {
				t.Errorf("CleanCell(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
