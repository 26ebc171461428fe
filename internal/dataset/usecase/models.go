package usecase

import (
	"io"

	"github.com/Ansh30a/BioInformatics/internal/dataset/entity"
	"github.com/Ansh30a/BioInformatics/internal/dataset/tabular"
)

type UploadInput struct {
	FileName    string
	Content     io.Reader
	Name        string
	Description string
	Type        string
	Owner       string
	IsPublic    bool
	Metadata    entity.Metadata
}

// IngestInput describes a file that is already on disk.
type IngestInput struct {
	Path        string
	FileName    string
	FileSize    int64
	Name        string
	Description string
	Type        entity.DatasetType
	Owner       string
	IsPublic    bool
	Metadata    entity.Metadata
}

// DataWindow selects rows of a stored dataset. A zero Limit means the
// configured default.
type DataWindow struct {
	Offset int
	Limit  int
}

type DataResult struct {
	Headers     []string
	Rows        [][]tabular.Cell
	HasMoreData bool
	TotalRows   int
	SampleCount int
	GeneCount   int
}

type AnalysisInput struct {
	DatasetID string
	Kind      entity.AnalysisKind

	Columns         []string
	Method          string
	Condition1      string
	Condition2      string
	PValueThreshold float64
	NClusters       int
}
