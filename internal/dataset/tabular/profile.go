package tabular

import (
	"context"
	"strings"
)

// ColumnType is the coarse classification of a column.
type ColumnType string

const (
	ColumnNumber  ColumnType = "number"
	ColumnBoolean ColumnType = "boolean"
	ColumnString  ColumnType = "string"
	ColumnUnknown ColumnType = "unknown"
)

const (
	// ProfileSampleRows is how many parsed rows the sniffer looks at.
	ProfileSampleRows = 100

	// typeThreshold is the share of values a type must exceed (strictly).
	typeThreshold = 0.8

	sampleValueCount = 5
)

//nolint:gochecknoglobals // read-only lookup
var booleanLike = map[string]struct{}{
	"true":  {},
	"false": {},
	"1":     {},
	"0":     {},
	"yes":   {},
	"no":    {},
}

// ColumnProfile summarizes one column of a sample. Min, Max and Mean are set
// only for number columns.
type ColumnProfile struct {
	Name         string     `json:"name"`
	Type         ColumnType `json:"type"`
	NullCount    int        `json:"nullCount"`
	UniqueValues int        `json:"uniqueValues"`
	SampleValues []Cell     `json:"sampleValues"`
	Min          *float64   `json:"min,omitempty"`
	Max          *float64   `json:"max,omitempty"`
	Mean         *float64   `json:"mean,omitempty"`
}

// Analysis is the column profile of a file sample.
type Analysis struct {
	ColumnCount int             `json:"columnCount"`
	RowCount    int             `json:"rowCount"`
	Columns     []ColumnProfile `json:"columns"`
}

// AnalysisResult is the boundary value of AnalyzeFile.
type AnalysisResult struct {
	Success bool      `json:"success"`
	Message string    `json:"message,omitempty"`
	Data    *Analysis `json:"data,omitempty"`
}

// AnalyzeFile parses the first ProfileSampleRows rows of the file and profiles
// every column.
func AnalyzeFile(ctx context.Context, path string) AnalysisResult {
	res := ParseFile(ctx, path, Window{Limit: ProfileSampleRows})
	if !res.Success {
		return AnalysisResult{Success: false, Message: res.Message}
	}

	analysis := ProfileColumns(res.Data)
	return AnalysisResult{Success: true, Data: &analysis}
}

// ProfileColumns classifies each column over at most the first
// ProfileSampleRows rows of t.
func ProfileColumns(t *Table) Analysis {
	rows := t.Rows
	if len(rows) > ProfileSampleRows {
		rows = rows[:ProfileSampleRows]
	}

	out := Analysis{
		ColumnCount: len(t.Headers),
		RowCount:    len(rows),
		Columns:     make([]ColumnProfile, 0, len(t.Headers)),
	}

	for idx, name := range t.Headers {
		values := columnValues(rows, idx)
		out.Columns = append(out.Columns, profileColumn(name, values, len(rows)))
	}

	return out
}

// columnValues collects the non-empty values of column idx.
func columnValues(rows [][]Cell, idx int) []Cell {
	values := make([]Cell, 0, len(rows))
	for _, row := range rows {
		if idx >= len(row) || row[idx].IsEmpty() {
			continue
		}
		values = append(values, row[idx])
	}
	return values
}

func profileColumn(name string, values []Cell, total int) ColumnProfile {
	p := ColumnProfile{
		Name:         name,
		Type:         DetectType(values),
		NullCount:    total - len(values),
		UniqueValues: countUnique(values),
		SampleValues: values[:min(sampleValueCount, len(values))],
	}

	if p.Type != ColumnNumber {
		return p
	}

	var (
		lo, hi, sum float64
		n           int
	)
	for _, v := range values {
		f, ok := v.Number()
		if !ok {
			continue
		}
		if n == 0 || f < lo {
			lo = f
		}
		if n == 0 || f > hi {
			hi = f
		}
		sum += f
		n++
	}
	if n > 0 {
		mean := sum / float64(n)
		p.Min, p.Max, p.Mean = &lo, &hi, &mean
	}

	return p
}

// DetectType classifies non-empty values. A type wins only when strictly
// more than 80% of the values fit it, so a "number" column may still carry
// some text.
func DetectType(values []Cell) ColumnType {
	if len(values) == 0 {
		return ColumnUnknown
	}

	var numeric, boolean int
	for _, v := range values {
		if v.IsNumber() {
			numeric++
		}
		if _, ok := booleanLike[strings.ToLower(v.String())]; ok {
			boolean++
		}
	}

	total := float64(len(values))
	if float64(numeric)/total > typeThreshold {
		return ColumnNumber
	}
	if float64(boolean)/total > typeThreshold {
		return ColumnBoolean
	}
	return ColumnString
}

func countUnique(values []Cell) int {
	type key struct {
		kind CellKind
		val  string
	}

	seen := make(map[key]struct{}, len(values))
	for _, v := range values {
		seen[key{kind: v.Kind(), val: v.String()}] = struct{}{}
	}
	return len(seen)
}
