package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ansh30a/BioInformatics/internal/dataset/entity"
	"github.com/Ansh30a/BioInformatics/internal/dataset/tabular"
	"github.com/Ansh30a/BioInformatics/internal/dataset/usecase"
	"github.com/Ansh30a/BioInformatics/internal/pkg/pkgerror"
)

func openSQLite(t *testing.T) *SQLStore {
	t.Helper()
	s, err := OpenSQL(context.Background(), DriverSQLite, filepath.Join(t.TempDir(), "biodata.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleDataset(id string) entity.Dataset {
	at := time.UnixMilli(1700000000123)
	return entity.Dataset{
		ID:          id,
		Name:        "Liver study",
		Description: "bulk rna",
		Type:        entity.DatasetTypeGeneExpression,
		FileName:    "liver.csv",
		FilePath:    "/data/u1/1-liver.csv",
		FileSize:    2048,
		UploadedBy:  "u1",
		SampleCount: 2,
		GeneCount:   2,
		Conditions:  []string{"control", "treated"},
		Metadata:    entity.Metadata{Organism: "human", PubmedID: "123"},
		Columns: []entity.ColumnDef{
			{Name: "sample", Type: tabular.ColumnString},
			{Name: "BRCA1", Type: tabular.ColumnNumber},
			{Name: "condition", Type: tabular.ColumnString},
		},
		Preview: entity.Preview{
			Headers: []string{"sample", "BRCA1", "condition"},
			Rows: [][]tabular.Cell{
				{tabular.StringCell("S1"), tabular.NumberCell(1.5), tabular.StringCell("control")},
				{tabular.StringCell("S2"), tabular.NumberCell(2), tabular.StringCell("treated")},
			},
			TotalRows: 2,
		},
		IsPublic:         true,
		Status:           entity.DatasetStatusReady,
		ProcessingErrors: []string{"1 rows had a column count different from the header and were padded or truncated"},
		CreatedAt:        at,
		UpdatedAt:        at,
	}
}

func forEachStore(t *testing.T, fn func(t *testing.T, s usecase.Store)) {
	t.Run("memory", func(t *testing.T) { fn(t, NewInMemoryStore()) })
	t.Run("sqlite", func(t *testing.T) { fn(t, openSQLite(t)) })
}

func isCode(err error, code pkgerror.Code) bool {
	var perr *pkgerror.Error
	return errors.As(err, &perr) && perr.Code() == code
}

func TestStore_DatasetRoundTrip(t *testing.T) {
	forEachStore(t, func(t *testing.T, s usecase.Store) {
		ctx := context.Background()
		want := sampleDataset("ds-1")

		require.NoError(t, s.CreateDataset(ctx, want))

		got, err := s.GetDataset(ctx, "ds-1")
		require.NoError(t, err)
		assert.Equal(t, want.Preview, got.Preview)
		assert.Equal(t, want.Columns, got.Columns)
		assert.Equal(t, want.Conditions, got.Conditions)
		assert.Equal(t, want.Metadata, got.Metadata)
		assert.Equal(t, want.ProcessingErrors, got.ProcessingErrors)
		assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
		assert.Equal(t, want.FileSize, got.FileSize)
		assert.True(t, got.IsPublic)
		assert.Equal(t, entity.DatasetStatusReady, got.Status)
	})
}

func TestStore_DatasetErrors(t *testing.T) {
	forEachStore(t, func(t *testing.T, s usecase.Store) {
		ctx := context.Background()

		_, err := s.GetDataset(ctx, "missing")
		assert.ErrorIs(t, err, pkgerror.ErrNotFound)

		require.NoError(t, s.CreateDataset(ctx, sampleDataset("ds-1")))
		err = s.CreateDataset(ctx, sampleDataset("ds-1"))
		assert.True(t, isCode(err, pkgerror.CodeConflict), "got %v", err)
	})
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "postgres duplicate key", err: &pgconn.PgError{Code: "23505"}, want: true},
		{name: "wrapped postgres duplicate key", err: fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), want: true},
		{name: "postgres foreign key", err: &pgconn.PgError{Code: "23503"}, want: false},
		{name: "plain text mentioning unique", err: errors.New("UNIQUE constraint failed: datasets.id"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isUniqueViolation(tt.err))
		})
	}
}

func TestStore_Analyses(t *testing.T) {
	forEachStore(t, func(t *testing.T, s usecase.Store) {
		ctx := context.Background()
		require.NoError(t, s.CreateDataset(ctx, sampleDataset("ds-1")))

		base := time.UnixMilli(1700000000000)
		for i, id := range []string{"a-1", "a-2"} {
			require.NoError(t, s.CreateAnalysis(ctx, entity.Analysis{
				ID:          id,
				DatasetID:   "ds-1",
				Kind:        entity.AnalysisCorrelation,
				Status:      entity.AnalysisStatusPending,
				Params:      json.RawMessage(`{"method":"pearson"}`),
				PerformedAt: base.Add(time.Duration(i) * time.Second),
			}))
		}

		err := s.CreateAnalysis(ctx, entity.Analysis{ID: "a-3", DatasetID: "missing"})
		assert.ErrorIs(t, err, pkgerror.ErrNotFound)

		done := base.Add(time.Minute)
		require.NoError(t, s.UpdateAnalysis(ctx, "a-1", func(a *entity.Analysis) {
			a.Status = entity.AnalysisStatusDone
			a.Results = json.RawMessage(`{"matrix":[[1]]}`)
			a.CompletedAt = done
		}))

		err = s.UpdateAnalysis(ctx, "nope", func(*entity.Analysis) {})
		assert.ErrorIs(t, err, pkgerror.ErrNotFound)

		items, err := s.ListAnalyses(ctx, "ds-1")
		require.NoError(t, err)
		require.Len(t, items, 2)

		byID := map[string]entity.Analysis{}
		for _, a := range items {
			byID[a.ID] = a
		}
		assert.Equal(t, entity.AnalysisStatusDone, byID["a-1"].Status)
		assert.JSONEq(t, `{"matrix":[[1]]}`, string(byID["a-1"].Results))
		assert.True(t, done.Equal(byID["a-1"].CompletedAt))
		assert.JSONEq(t, `{"method":"pearson"}`, string(byID["a-2"].Params))
		assert.Empty(t, byID["a-2"].Results)
		assert.True(t, byID["a-2"].CompletedAt.IsZero())
	})
}

func TestOpenSQL_UnsupportedDriver(t *testing.T) {
	_, err := OpenSQL(context.Background(), "mysql", "")
	assert.EqualError(t, err, `unsupported database driver "mysql"`)
}

func TestRebind(t *testing.T) {
	pg := &SQLStore{driver: DriverPostgres}
	assert.Equal(t, "SELECT a FROM t WHERE x = $1 AND y = $2", pg.rebind("SELECT a FROM t WHERE x = ? AND y = ?"))

	lite := &SQLStore{driver: DriverSQLite}
	assert.Equal(t, "x = ?", lite.rebind("x = ?"))

	assert.Equal(t, "?, ?, ?", placeholders(3))
}
