package inbound

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/Ansh30a/BioInformatics/internal/dataset/entity"
	"github.com/Ansh30a/BioInformatics/internal/dataset/tabular"
)

type Dataset struct {
	ID               string               `json:"id"`
	Name             string               `json:"name"`
	Description      string               `json:"description,omitempty"`
	Type             entity.DatasetType   `json:"type"`
	FileName         string               `json:"fileName"`
	FileSize         int64                `json:"fileSize"`
	UploadedBy       string               `json:"uploadedBy"`
	SampleCount      int                  `json:"sampleCount"`
	GeneCount        int                  `json:"geneCount"`
	Conditions       []string             `json:"conditions"`
	Metadata         entity.Metadata      `json:"metadata"`
	Columns          []entity.ColumnDef   `json:"columns"`
	DataPreview      entity.Preview       `json:"dataPreview"`
	IsPublic         bool                 `json:"isPublic"`
	Status           entity.DatasetStatus `json:"status"`
	ProcessingErrors []string             `json:"processingErrors,omitempty"`
	CreatedAt        time.Time            `json:"createdAt"`
	UpdatedAt        time.Time            `json:"updatedAt"`
}

type Analysis struct {
	ID           string                `json:"id"`
	DatasetID    string                `json:"datasetId"`
	AnalysisType entity.AnalysisKind   `json:"analysisType"`
	Status       entity.AnalysisStatus `json:"status"`
	Params       json.RawMessage       `json:"params,omitempty"`
	Results      json.RawMessage       `json:"results,omitempty"`
	Error        string                `json:"error,omitempty"`
	PerformedAt  time.Time             `json:"performedAt"`
	CompletedAt  *time.Time            `json:"completedAt,omitempty"`
}

type AnalysisRequest struct {
	Columns         []string `json:"columns"`
	Method          string   `json:"method"`
	Condition1      string   `json:"condition1"`
	Condition2      string   `json:"condition2"`
	PValueThreshold float64  `json:"pValueThreshold"`
	NClusters       int      `json:"nClusters"`
}

type UploadResponse struct {
	Dataset Dataset `json:"dataset"`
}

func (UploadResponse) StatusCode() int {
	return http.StatusCreated
}

func (UploadResponse) Message() string {
	return "Dataset uploaded and processed successfully"
}

type DatasetResponse struct {
	Dataset Dataset `json:"dataset"`
}

type DataMetadata struct {
	TotalRows   int `json:"totalRows"`
	SampleCount int `json:"sampleCount"`
	GeneCount   int `json:"geneCount"`
}

type DataResponse struct {
	Headers     []string         `json:"headers"`
	Rows        [][]tabular.Cell `json:"rows"`
	HasMoreData bool             `json:"hasMoreData"`
	Metadata    DataMetadata     `json:"metadata"`
	offset      int
	limit       int
}

func (r DataResponse) Meta() map[string]any {
	meta := map[string]any{"offset": r.offset}
	if r.limit > 0 {
		meta["limit"] = r.limit
	}
	return meta
}

type ProfileResponse struct {
	tabular.Analysis
}

type AnalysisAcceptedResponse struct {
	Analysis Analysis `json:"analysis"`
}

func (AnalysisAcceptedResponse) StatusCode() int {
	return http.StatusAccepted
}

func (AnalysisAcceptedResponse) Message() string {
	return "Analysis accepted"
}

type AnalysisHistoryResponse struct {
	Analyses []Analysis `json:"analyses"`
}

func toHTTPDataset(ds entity.Dataset) Dataset {
	return Dataset{
		ID:               ds.ID,
		Name:             ds.Name,
		Description:      ds.Description,
		Type:             ds.Type,
		FileName:         ds.FileName,
		FileSize:         ds.FileSize,
		UploadedBy:       ds.UploadedBy,
		SampleCount:      ds.SampleCount,
		GeneCount:        ds.GeneCount,
		Conditions:       nonNil(ds.Conditions),
		Metadata:         ds.Metadata,
		Columns:          ds.Columns,
		DataPreview:      ds.Preview,
		IsPublic:         ds.IsPublic,
		Status:           ds.Status,
		ProcessingErrors: ds.ProcessingErrors,
		CreatedAt:        ds.CreatedAt,
		UpdatedAt:        ds.UpdatedAt,
	}
}

func toHTTPAnalysis(a entity.Analysis) Analysis {
	out := Analysis{
		ID:           a.ID,
		DatasetID:    a.DatasetID,
		AnalysisType: a.Kind,
		Status:       a.Status,
		Params:       a.Params,
		Results:      a.Results,
		Error:        a.Err,
		PerformedAt:  a.PerformedAt,
	}
	if !a.CompletedAt.IsZero() {
		completed := a.CompletedAt
		out.CompletedAt = &completed
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
