package tabular

import (
	"bytes"
	"encoding/json"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// CellKind tells which side of the Cell union is populated.
type CellKind uint8

const (
	KindString CellKind = iota
	KindNumber
)

// Cell is one parsed value at a (row, column) position. It holds either a
// number or a string, never both.
type Cell struct {
	kind CellKind
	num  float64
	str  string
}

// NumberCell returns a numeric cell.
func NumberCell(v float64) Cell {
	return Cell{kind: KindNumber, num: v}
}

// StringCell returns a text cell.
func StringCell(v string) Cell {
	return Cell{kind: KindString, str: v}
}

// ParseCell applies the coercion rule: trimmed, non-empty, fully numeric text
// becomes a number; anything else stays as the trimmed string.
func ParseCell(raw string) Cell {
	v := strings.TrimSpace(raw)
	if n, ok := parseNumber(v); ok {
		return NumberCell(n)
	}
	return StringCell(v)
}

// parseNumber accepts finite decimal literals and unsigned 0x, 0b and 0o
// integer literals. Spellings like "inf", "NaN", values that overflow a
// float64 and digit separators stay text.
func parseNumber(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	if f, ok := parseRadixInt(s); ok {
		return f, true
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= '0' && c <= '9') || c == '.' || c == '-' || c == '+' || c == 'e' || c == 'E' {
			continue
		}
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

var radixPrefixes = map[string]int{
	"0x": 16,
	"0b": 2,
	"0o": 8,
}

func parseRadixInt(s string) (float64, bool) {
	if len(s) < 3 {
		return 0, false
	}
	base, ok := radixPrefixes[strings.ToLower(s[:2])]
	if !ok || s[2] == '+' || s[2] == '-' {
		return 0, false
	}
	n, ok := new(big.Int).SetString(s[2:], base)
	if !ok {
		return 0, false
	}
	f, _ := new(big.Float).SetInt(n).Float64()
	if math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func (c Cell) Kind() CellKind {
	return c.kind
}

func (c Cell) IsNumber() bool {
	return c.kind == KindNumber
}

// Number returns the numeric value and whether the cell holds one.
func (c Cell) Number() (float64, bool) {
	return c.num, c.kind == KindNumber
}

// IsEmpty reports whether the cell is the empty string.
func (c Cell) IsEmpty() bool {
	return c.kind == KindString && c.str == ""
}

// String returns the display form of the cell.
func (c Cell) String() string {
	if c.kind == KindNumber {
		return strconv.FormatFloat(c.num, 'f', -1, 64)
	}
	return c.str
}

func (c Cell) MarshalJSON() ([]byte, error) {
	if c.kind == KindNumber {
		return json.Marshal(c.num)
	}
	return json.Marshal(c.str)
}

func (c *Cell) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*c = StringCell("")
		return nil
	}

	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = StringCell(s)
		return nil
	}

	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*c = NumberCell(f)
	return nil
}

// ParseRow converts raw fields into cells.
func ParseRow(record []string) []Cell {
	row := make([]Cell, len(record))
	for i, v := range record {
		row[i] = ParseCell(v)
	}
	return row
}
