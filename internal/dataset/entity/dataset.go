package entity

import (
	"time"

	"github.com/Ansh30a/BioInformatics/internal/dataset/tabular"
)

type Dataset struct {
	ID          string
	Name        string
	Description string
	Type        DatasetType
	FileName    string
	FilePath    string
	FileSize    int64
	UploadedBy  string
	SampleCount int
	GeneCount   int
	Conditions  []string
	Metadata    Metadata
	Columns     []ColumnDef
	Preview     Preview
	IsPublic    bool
	Status      DatasetStatus

	// ProcessingErrors holds non-fatal notes raised while ingesting.
	ProcessingErrors []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

type Metadata struct {
	Organism  string `json:"organism,omitempty"`
	Tissue    string `json:"tissue,omitempty"`
	Platform  string `json:"platform,omitempty"`
	StudyType string `json:"studyType,omitempty"`
	PubmedID  string `json:"pubmedId,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

type ColumnDef struct {
	Name       string             `json:"name"`
	Type       tabular.ColumnType `json:"type"`
	IsRequired bool               `json:"isRequired"`
}

// Preview is the first rows of a dataset kept with the record. TotalRows is
// the full row count, not the preview length.
type Preview struct {
	Headers   []string         `json:"headers"`
	Rows      [][]tabular.Cell `json:"rows"`
	TotalRows int              `json:"totalRows"`
}
