package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/Ansh30a/BioInformatics/internal/dataset/entity"
	"github.com/Ansh30a/BioInformatics/internal/dataset/tabular"
	"github.com/Ansh30a/BioInformatics/internal/pkg/pkgerror"
)

func (u *Usecase) Dataset(ctx context.Context, id string) (entity.Dataset, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return entity.Dataset{}, pkgerror.NewInvalidInput(errors.New("dataset id is required"))
	}

	ds, err := u.store.GetDataset(ctx, id)
	if err != nil {
		return entity.Dataset{}, mapStoreErr(err)
	}
	return ds, nil
}

// Data re-reads the stored file and returns the rows selected by w.
func (u *Usecase) Data(ctx context.Context, id string, w DataWindow) (DataResult, error) {
	if w.Offset < 0 {
		return DataResult{}, pkgerror.NewInvalidInput(errors.New("offset must not be negative"))
	}
	if w.Limit < 0 {
		return DataResult{}, pkgerror.NewInvalidInput(errors.New("limit must be positive"))
	}
	if w.Limit == 0 {
		w.Limit = u.defaultLimit
	}

	ds, err := u.Dataset(ctx, id)
	if err != nil {
		return DataResult{}, err
	}

	res := tabular.ParseFile(ctx, ds.FilePath, tabular.Window{Offset: w.Offset, Limit: w.Limit})
	if !res.Success {
		slog.ErrorContext(ctx, "failed to read dataset file", "dataset_id", ds.ID, "reason", res.Message)
		return DataResult{}, pkgerror.NewServerMsg(res.Err(), "Error reading dataset file")
	}

	return DataResult{
		Headers:     res.Data.Headers,
		Rows:        res.Data.Rows,
		HasMoreData: res.Data.HasMoreData,
		TotalRows:   ds.Preview.TotalRows,
		SampleCount: ds.SampleCount,
		GeneCount:   ds.GeneCount,
	}, nil
}

// Profile sniffs column types over the first rows of the stored file.
func (u *Usecase) Profile(ctx context.Context, id string) (tabular.Analysis, error) {
	ds, err := u.Dataset(ctx, id)
	if err != nil {
		return tabular.Analysis{}, err
	}

	res := tabular.AnalyzeFile(ctx, ds.FilePath)
	if !res.Success {
		slog.ErrorContext(ctx, "failed to profile dataset file", "dataset_id", ds.ID, "reason", res.Message)
		return tabular.Analysis{}, pkgerror.NewServerMsg(errors.New(res.Message), "Error reading dataset file")
	}
	return *res.Data, nil
}
