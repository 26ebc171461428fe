package tabular

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	ErrFileNotFound = errors.New("File not found")                     //nolint:stylecheck,revive // user-facing message
	ErrNoHeaders    = errors.New("No headers found in the CSV file")   //nolint:stylecheck,revive // user-facing message
	ErrNoDataRows   = errors.New("No data rows found in the CSV file") //nolint:stylecheck,revive // user-facing message
)

// DecodeError is a fault raised by the underlying reader or CSV decoder in the
// middle of a stream.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return "Error parsing CSV file: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Window selects which data rows a parse materializes. A Limit of zero (or
// less) means all remaining rows.
type Window struct {
	Offset int
	Limit  int
}

// Table is the parsed form of a delimited file.
type Table struct {
	Headers   []string `json:"headers"`
	Rows      [][]Cell `json:"rows"`
	TotalRows int      `json:"totalRows"`
	// HasMoreData is set whenever the window filled up to its limit, even
	// if the last row of the file was the last row of the window.
	HasMoreData bool `json:"hasMoreData"`

	// MismatchedRows counts accepted rows whose field count differed from the
	// header. Such rows are padded or truncated to the header width.
	MismatchedRows int `json:"-"`
}

// Result is the outcome of a parse at the package boundary. Failures are
// values, not errors.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    *Table `json:"data,omitempty"`
}

// Err returns the failure as an error, or nil on success.
func (r Result) Err() error {
	if r.Success {
		return nil
	}
	return errors.New(r.Message)
}

func failure(err error) Result {
	return Result{Success: false, Message: err.Error()}
}

// ParseFile decodes the file at path with the delimiter chosen by its
// extension and returns the rows selected by w.
//
// Every row up to end of file is decoded even when the window ends earlier;
// skipping and draining cost the same as reading.
func ParseFile(ctx context.Context, path string, w Window) Result {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return failure(ErrFileNotFound)
		}
		return failure(&DecodeError{Err: err})
	}
	defer f.Close()

	table, err := Parse(ctx, f, Delimiter(path), w)
	if err != nil {
		var derr *DecodeError
		if errors.As(err, &derr) {
			slog.ErrorContext(ctx, "csv parsing error", "path", path, "error", derr.Err)
		}
		return failure(err)
	}

	return Result{Success: true, Data: table}
}

// Parse reads delimited text from r. The first record is the header; data
// records are skipped until w.Offset have been seen, then collected until
// w.Limit is reached, then drained.
func Parse(ctx context.Context, r io.Reader, comma rune, w Window) (*Table, error) {
	if w.Offset < 0 {
		w.Offset = 0
	}

	cr := csv.NewReader(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	// TSV has no quoting convention; stray quotes in text are data.
	cr.LazyQuotes = comma == '\t'

	record, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeaders
	}
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	headers := uniqueHeaders(record)

	var (
		skipped    int
		mismatched int
		rows       = make([][]Cell, 0, initialCap(w.Limit))
	)

	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &DecodeError{Err: err}
		}

		if skipped < w.Offset {
			skipped++
			continue
		}

		if w.Limit > 0 && len(rows) == w.Limit {
			continue
		}

		if len(record) != len(headers) {
			mismatched++
		}
		rows = append(rows, alignRow(record, len(headers)))
	}

	if len(rows) == 0 {
		return nil, ErrNoDataRows
	}

	if mismatched > 0 {
		slog.WarnContext(ctx, "rows have inconsistent column count", "rows", mismatched, "columns", len(headers))
	}

	return &Table{
		Headers:        headers,
		Rows:           rows,
		TotalRows:      len(rows),
		HasMoreData:    w.Limit > 0 && len(rows) == w.Limit,
		MismatchedRows: mismatched,
	}, nil
}

func initialCap(limit int) int {
	if limit > 0 && limit < 1024 {
		return limit
	}
	return 64
}

// alignRow converts the record into cells ordered by header position,
// padding short records with empty strings and dropping extra fields.
func alignRow(record []string, width int) []Cell {
	row := make([]Cell, width)
	for i := range row {
		if i < len(record) {
			row[i] = ParseCell(record[i])
		} else {
			row[i] = StringCell("")
		}
	}
	return row
}

// uniqueHeaders copies the header record. Repeated names get a numeric
// suffix so every column stays addressable by name.
func uniqueHeaders(record []string) []string {
	headers := make([]string, len(record))
	used := make(map[string]bool, len(record))
	for i, h := range record {
		name := h
		for n := 1; used[name]; n++ {
			name = h + "_" + strconv.Itoa(n)
		}
		used[name] = true
		headers[i] = name
	}
	return headers
}
