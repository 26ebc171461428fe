package inbound

import (
	"context"

	"github.com/Ansh30a/BioInformatics/internal/dataset/entity"
	"github.com/Ansh30a/BioInformatics/internal/dataset/tabular"
	"github.com/Ansh30a/BioInformatics/internal/dataset/usecase"
	"github.com/Ansh30a/BioInformatics/internal/pkg/pkgrouter"
)

type uc interface {
	Upload(ctx context.Context, in usecase.UploadInput) (entity.Dataset, error)
	Dataset(ctx context.Context, id string) (entity.Dataset, error)
	Data(ctx context.Context, id string, w usecase.DataWindow) (usecase.DataResult, error)
	Profile(ctx context.Context, id string) (tabular.Analysis, error)
	RequestAnalysis(ctx context.Context, in usecase.AnalysisInput) (entity.Analysis, error)
	AnalysisHistory(ctx context.Context, datasetID string) ([]entity.Analysis, error)
}

// RegisterHTTPEndpoint mounts the dataset routes. maxUpload caps the size of
// the uploaded file in bytes.
func RegisterHTTPEndpoint(r *pkgrouter.Router, uc uc, maxUpload int64) {
	end := &HTTPEndpoint{uc: uc, maxUpload: maxUpload}

	r.POST("/datasets/upload", end.Upload)

	r.GET("/datasets/:id", end.Dataset)
	r.GET("/datasets/:id/data", end.Data) // ?offset=&limit=
	r.GET("/datasets/:id/profile", end.Profile)

	// Analyses live under their own prefix: httprouter cannot mix the static
	// "upload" segment with ":id" on the same POST tree.
	r.POST("/analysis/:id/:kind", end.RequestAnalysis)
	r.GET("/analysis/:id/history", end.AnalysisHistory)
}
