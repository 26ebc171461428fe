package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/Ansh30a/BioInformatics/internal/dataset/entity"
	"github.com/Ansh30a/BioInformatics/internal/pkg/pkgerror"
	"github.com/Ansh30a/BioInformatics/internal/pkg/pkgmetric"
)

const (
	defaultCorrelationMethod = "pearson"
	defaultPValueThreshold   = 0.05
	defaultClusters          = 3
	defaultClusterMethod     = "kmeans"
)

// RequestAnalysis records a pending analysis and runs it in the background.
// The returned record is the pending one; poll AnalysisHistory for the result.
func (u *Usecase) RequestAnalysis(ctx context.Context, in AnalysisInput) (entity.Analysis, error) {
	if u.analytics == nil || u.runner == nil || u.id == nil {
		return entity.Analysis{}, pkgerror.NewServer(errors.New("missing dependency"))
	}

	params, err := analysisParams(in)
	if err != nil {
		return entity.Analysis{}, err
	}

	ds, err := u.Dataset(ctx, in.DatasetID)
	if err != nil {
		return entity.Analysis{}, err
	}

	raw, err := json.Marshal(params)
	if err != nil {
		return entity.Analysis{}, pkgerror.NewServer(err)
	}

	a := entity.Analysis{
		ID:          u.id.Generate(),
		DatasetID:   ds.ID,
		Kind:        in.Kind,
		Status:      entity.AnalysisStatusPending,
		Params:      raw,
		PerformedAt: u.clock.Now(),
	}
	if err := u.store.CreateAnalysis(ctx, a); err != nil {
		return entity.Analysis{}, normalizeErr(err)
	}

	u.runner.Go(u.rootCtx, func(ctx context.Context) error {
		if err := u.runAnalysis(ctx, ds, a.ID, in.Kind, params); err != nil {
			slog.ErrorContext(ctx, "analysis failed", "analysis_id", a.ID, "dataset_id", ds.ID, "kind", in.Kind, "error", err)
			return err
		}
		return nil
	})

	return a, nil
}

func (u *Usecase) AnalysisHistory(ctx context.Context, datasetID string) ([]entity.Analysis, error) {
	if _, err := u.Dataset(ctx, datasetID); err != nil {
		return nil, err
	}

	items, err := u.store.ListAnalyses(ctx, datasetID)
	if err != nil {
		return nil, normalizeErr(err)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].PerformedAt.After(items[j].PerformedAt)
	})
	return items, nil
}

func (u *Usecase) runAnalysis(ctx context.Context, ds entity.Dataset, analysisID string, kind entity.AnalysisKind, params map[string]any) error {
	content, err := os.ReadFile(ds.FilePath)
	if err == nil {
		body := make(map[string]any, len(params)+2)
		for k, v := range params {
			body[k] = v
		}
		body["fileContent"] = string(content)
		body["fileName"] = filepath.Base(ds.FileName)

		var results json.RawMessage
		results, err = u.analytics.Analyze(ctx, kind, body)
		if err == nil {
			u.finishAnalysis(ctx, analysisID, kind, entity.AnalysisStatusDone, results, "")
			return nil
		}
	}

	u.finishAnalysis(ctx, analysisID, kind, entity.AnalysisStatusFailed, nil, err.Error())
	return err
}

func (u *Usecase) finishAnalysis(ctx context.Context, id string, kind entity.AnalysisKind, status entity.AnalysisStatus, results json.RawMessage, msg string) {
	u.metrics.IncCounter("biodata_analysis_total", 1, pkgmetric.Labels{"kind": string(kind), "status": string(status)})

	// The outcome is stored even when shutdown canceled the analysis.
	ctx = context.WithoutCancel(ctx)
	completedAt := u.clock.Now()
	if err := u.store.UpdateAnalysis(ctx, id, func(a *entity.Analysis) {
		a.Status = status
		a.Results = results
		a.Err = msg
		a.CompletedAt = completedAt
	}); err != nil {
		slog.ErrorContext(ctx, "failed to store analysis result", "analysis_id", id, "error", err)
	}
}

// analysisParams applies the per-kind defaults and required fields.
func analysisParams(in AnalysisInput) (map[string]any, error) {
	switch in.Kind {
	case entity.AnalysisBasicStats:
		columns := in.Columns
		if columns == nil {
			columns = []string{}
		}
		return map[string]any{"columns": columns}, nil

	case entity.AnalysisCorrelation:
		method := in.Method
		if method == "" {
			method = defaultCorrelationMethod
		}
		return map[string]any{"method": method}, nil

	case entity.AnalysisDifferentialExpression:
		if in.Condition1 == "" || in.Condition2 == "" {
			return nil, pkgerror.NewBadRequest("Both condition1 and condition2 are required")
		}
		threshold := in.PValueThreshold
		if threshold <= 0 {
			threshold = defaultPValueThreshold
		}
		return map[string]any{
			"condition1":      in.Condition1,
			"condition2":      in.Condition2,
			"pValueThreshold": threshold,
		}, nil

	case entity.AnalysisClustering:
		n := in.NClusters
		if n <= 0 {
			n = defaultClusters
		}
		method := in.Method
		if method == "" {
			method = defaultClusterMethod
		}
		return map[string]any{"nClusters": n, "method": method}, nil

	default:
		return nil, pkgerror.NewBusiness("analysis type not supported", pkgerror.CodeNotFound)
	}
}
