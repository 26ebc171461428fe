package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // driver "pgx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/Ansh30a/BioInformatics/internal/dataset/entity"
	"github.com/Ansh30a/BioInformatics/internal/dataset/usecase"
	"github.com/Ansh30a/BioInformatics/internal/pkg/pkgerror"
)

var (
	_ usecase.Store = (*InMemoryStore)(nil)
	_ usecase.Store = (*SQLStore)(nil)
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

//nolint:gochecknoglobals // schema is static
var schema = []string{
	`CREATE TABLE IF NOT EXISTS datasets (
		id                TEXT PRIMARY KEY,
		name              TEXT NOT NULL,
		description       TEXT NOT NULL,
		type              TEXT NOT NULL,
		file_name         TEXT NOT NULL,
		file_path         TEXT NOT NULL,
		file_size         BIGINT NOT NULL,
		uploaded_by       TEXT NOT NULL,
		sample_count      BIGINT NOT NULL,
		gene_count        BIGINT NOT NULL,
		conditions        TEXT NOT NULL,
		metadata          TEXT NOT NULL,
		column_defs       TEXT NOT NULL,
		preview           TEXT NOT NULL,
		is_public         BIGINT NOT NULL,
		status            TEXT NOT NULL,
		processing_errors TEXT NOT NULL,
		created_at        BIGINT NOT NULL,
		updated_at        BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS analyses (
		id           TEXT PRIMARY KEY,
		dataset_id   TEXT NOT NULL REFERENCES datasets(id),
		kind         TEXT NOT NULL,
		status       TEXT NOT NULL,
		params       TEXT NOT NULL,
		results      TEXT NOT NULL,
		error        TEXT NOT NULL,
		performed_at BIGINT NOT NULL,
		completed_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS analyses_dataset_id_idx ON analyses (dataset_id)`,
}

const datasetColumns = `id, name, description, type, file_name, file_path, file_size, uploaded_by,
	sample_count, gene_count, conditions, metadata, column_defs, preview, is_public, status,
	processing_errors, created_at, updated_at`

const analysisColumns = `id, dataset_id, kind, status, params, results, error, performed_at, completed_at`

// SQLStore persists datasets and analyses through database/sql. It runs on
// SQLite (modernc) and on PostgreSQL (pgx stdlib).
type SQLStore struct {
	db     *sql.DB
	driver string
}

// OpenSQL opens the database, checks the connection and creates the schema.
func OpenSQL(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		// a single connection keeps writers from tripping over SQLITE_BUSY
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLStore{db: db, driver: driver}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}

	return s, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) CreateDataset(ctx context.Context, ds entity.Dataset) error {
	enc := &encoder{}
	args := []any{
		ds.ID, ds.Name, ds.Description, string(ds.Type), ds.FileName, ds.FilePath, ds.FileSize, ds.UploadedBy,
		ds.SampleCount, ds.GeneCount, enc.json(nonNil(ds.Conditions)), enc.json(ds.Metadata), enc.json(ds.Columns),
		enc.json(ds.Preview), boolInt(ds.IsPublic), string(ds.Status), enc.json(nonNil(ds.ProcessingErrors)),
		millis(ds.CreatedAt), millis(ds.UpdatedAt),
	}
	if enc.err != nil {
		return enc.err
	}

	q := `INSERT INTO datasets (` + datasetColumns + `) VALUES (` + placeholders(len(args)) + `)`
	if _, err := s.db.ExecContext(ctx, s.rebind(q), args...); err != nil {
		if isUniqueViolation(err) {
			return pkgerror.NewBusiness("dataset already exists", pkgerror.CodeConflict)
		}
		return err
	}
	return nil
}

func (s *SQLStore) GetDataset(ctx context.Context, id string) (entity.Dataset, error) {
	q := `SELECT ` + datasetColumns + ` FROM datasets WHERE id = ?`
	row := s.db.QueryRowContext(ctx, s.rebind(q), id)

	var (
		ds                                               entity.Dataset
		typ, status                                      string
		conditions, metadata, columns, preview, procErrs string
		isPublic, createdAt, updatedAt                   int64
	)
	err := row.Scan(&ds.ID, &ds.Name, &ds.Description, &typ, &ds.FileName, &ds.FilePath, &ds.FileSize, &ds.UploadedBy,
		&ds.SampleCount, &ds.GeneCount, &conditions, &metadata, &columns, &preview, &isPublic, &status,
		&procErrs, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Dataset{}, pkgerror.ErrNotFound
	}
	if err != nil {
		return entity.Dataset{}, err
	}

	dec := &decoder{}
	dec.json(conditions, &ds.Conditions)
	dec.json(metadata, &ds.Metadata)
	dec.json(columns, &ds.Columns)
	dec.json(preview, &ds.Preview)
	dec.json(procErrs, &ds.ProcessingErrors)
	if dec.err != nil {
		return entity.Dataset{}, dec.err
	}

	ds.Type = entity.DatasetType(typ)
	ds.Status = entity.DatasetStatus(status)
	ds.IsPublic = isPublic != 0
	ds.CreatedAt = fromMillis(createdAt)
	ds.UpdatedAt = fromMillis(updatedAt)

	return ds, nil
}

func (s *SQLStore) CreateAnalysis(ctx context.Context, a entity.Analysis) error {
	var exists int
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT 1 FROM datasets WHERE id = ?`), a.DatasetID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return pkgerror.ErrNotFound
	}
	if err != nil {
		return err
	}

	q := `INSERT INTO analyses (` + analysisColumns + `) VALUES (` + placeholders(9) + `)`
	_, err = s.db.ExecContext(ctx, s.rebind(q), analysisArgs(a)...)
	if isUniqueViolation(err) {
		return pkgerror.NewBusiness("analysis already exists", pkgerror.CodeConflict)
	}
	return err
}

// UpdateAnalysis applies fn to the stored record inside a transaction.
func (s *SQLStore) UpdateAnalysis(ctx context.Context, id string, fn func(a *entity.Analysis)) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	q := `SELECT ` + analysisColumns + ` FROM analyses WHERE id = ?`
	if s.driver == DriverPostgres {
		q += ` FOR UPDATE`
	}

	a, err := scanAnalysis(tx.QueryRowContext(ctx, s.rebind(q), id))
	if errors.Is(err, sql.ErrNoRows) {
		return pkgerror.ErrNotFound
	}
	if err != nil {
		return err
	}

	fn(&a)

	args := analysisArgs(a)
	q = `UPDATE analyses SET dataset_id = ?, kind = ?, status = ?, params = ?, results = ?, error = ?,
		performed_at = ?, completed_at = ? WHERE id = ?`
	if _, err := tx.ExecContext(ctx, s.rebind(q), append(args[1:], id)...); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *SQLStore) ListAnalyses(ctx context.Context, datasetID string) ([]entity.Analysis, error) {
	q := `SELECT ` + analysisColumns + ` FROM analyses WHERE dataset_id = ? ORDER BY performed_at DESC, id`
	rows, err := s.db.QueryContext(ctx, s.rebind(q), datasetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []entity.Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(sc scanner) (entity.Analysis, error) {
	var (
		a                        entity.Analysis
		kind, status             string
		params, results          string
		performedAt, completedAt int64
	)
	if err := sc.Scan(&a.ID, &a.DatasetID, &kind, &status, &params, &results, &a.Err, &performedAt, &completedAt); err != nil {
		return entity.Analysis{}, err
	}

	a.Kind = entity.AnalysisKind(kind)
	a.Status = entity.AnalysisStatus(status)
	if params != "" {
		a.Params = json.RawMessage(params)
	}
	if results != "" {
		a.Results = json.RawMessage(results)
	}
	a.PerformedAt = fromMillis(performedAt)
	a.CompletedAt = fromMillis(completedAt)

	return a, nil
}

func analysisArgs(a entity.Analysis) []any {
	return []any{
		a.ID, a.DatasetID, string(a.Kind), string(a.Status), string(a.Params), string(a.Results), a.Err,
		millis(a.PerformedAt), millis(a.CompletedAt),
	}
}

// rebind rewrites "?" placeholders to "$n" for PostgreSQL.
func (s *SQLStore) rebind(q string) string {
	if s.driver != DriverPostgres {
		return q
	}

	var b strings.Builder
	b.Grow(len(q) + 8)
	n := 0
	for i := 0; i < len(q); i++ {
		if q[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(q[i])
	}
	return b.String()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// pgUniqueViolation is the SQLSTATE postgres reports for a duplicate key.
const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return false
}

type encoder struct {
	err error
}

func (e *encoder) json(v any) string {
	if e.err != nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		e.err = err
		return ""
	}
	return string(b)
}

type decoder struct {
	err error
}

func (d *decoder) json(s string, v any) {
	if d.err != nil || s == "" {
		return
	}
	d.err = json.Unmarshal([]byte(s), v)
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func millis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
