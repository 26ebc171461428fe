package inbound

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/Ansh30a/BioInformatics/internal/dataset/entity"
	"github.com/Ansh30a/BioInformatics/internal/dataset/usecase"
	"github.com/Ansh30a/BioInformatics/internal/pkg/pkgerror"
	"github.com/Ansh30a/BioInformatics/internal/pkg/pkgrouter"
)

const (
	// HeaderUserID names the uploader. Authentication happens in front of
	// this service.
	HeaderUserID = "X-User-ID"

	anonymousOwner = "anonymous"
	filePartName   = "dataset"

	// multipartMemory is how much of a form is held in memory before parts
	// spill to temporary files.
	multipartMemory = 8 << 20
	// formOverhead leaves room for the boundary and text fields on top of the
	// file size limit.
	formOverhead = 1 << 20

	maxAnalysisBody = 1 << 20
)

//nolint:gochecknoglobals // read-only lookup
var analysisKinds = map[string]entity.AnalysisKind{
	"stats":        entity.AnalysisBasicStats,
	"correlation":  entity.AnalysisCorrelation,
	"differential": entity.AnalysisDifferentialExpression,
	"clustering":   entity.AnalysisClustering,
}

type HTTPEndpoint struct {
	uc        uc
	maxUpload int64
}

func (h *HTTPEndpoint) Upload(ctx context.Context, r *http.Request) (any, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || !strings.EqualFold(mediaType, "multipart/form-data") {
		return nil, pkgerror.NewBadRequest("No file uploaded")
	}

	r.Body = http.MaxBytesReader(nil, r.Body, h.maxUpload+formOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, pkgerror.NewBadRequest(usecase.FileTooLargeMessage(h.maxUpload))
		}
		return nil, pkgerror.NewInvalidFormat()
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, header, err := r.FormFile(filePartName)
	if err != nil {
		return nil, pkgerror.NewBadRequest("No file uploaded")
	}
	defer file.Close()

	form := r.MultipartForm.Value
	value := func(key string) string {
		if v := form[key]; len(v) > 0 {
			return v[0]
		}
		return ""
	}

	isPublic, _ := strconv.ParseBool(value("isPublic"))

	ds, err := h.uc.Upload(ctx, usecase.UploadInput{
		FileName:    header.Filename,
		Content:     file,
		Name:        value("name"),
		Description: value("description"),
		Type:        value("type"),
		Owner:       owner(r),
		IsPublic:    isPublic,
		Metadata: entity.Metadata{
			Organism:  value("organism"),
			Tissue:    value("tissue"),
			Platform:  value("platform"),
			StudyType: value("studyType"),
			PubmedID:  value("pubmedId"),
			Notes:     value("notes"),
		},
	})
	if err != nil {
		return nil, err
	}

	return UploadResponse{Dataset: toHTTPDataset(ds)}, nil
}

func (h *HTTPEndpoint) Dataset(ctx context.Context, r *http.Request) (any, error) {
	ds, err := h.uc.Dataset(ctx, pkgrouter.GetParam(ctx, "id"))
	if err != nil {
		return nil, err
	}

	return DatasetResponse{Dataset: toHTTPDataset(ds)}, nil
}

func (h *HTTPEndpoint) Data(ctx context.Context, r *http.Request) (any, error) {
	window, err := parseWindow(r.URL.Query().Get("offset"), r.URL.Query().Get("limit"))
	if err != nil {
		return nil, err
	}

	result, err := h.uc.Data(ctx, pkgrouter.GetParam(ctx, "id"), window)
	if err != nil {
		return nil, err
	}

	return DataResponse{
		Headers:     result.Headers,
		Rows:        result.Rows,
		HasMoreData: result.HasMoreData,
		Metadata: DataMetadata{
			TotalRows:   result.TotalRows,
			SampleCount: result.SampleCount,
			GeneCount:   result.GeneCount,
		},
		offset: window.Offset,
		limit:  window.Limit,
	}, nil
}

func (h *HTTPEndpoint) Profile(ctx context.Context, r *http.Request) (any, error) {
	analysis, err := h.uc.Profile(ctx, pkgrouter.GetParam(ctx, "id"))
	if err != nil {
		return nil, err
	}

	return ProfileResponse{Analysis: analysis}, nil
}

func (h *HTTPEndpoint) RequestAnalysis(ctx context.Context, r *http.Request) (any, error) {
	kind, ok := analysisKinds[strings.ToLower(pkgrouter.GetParam(ctx, "kind"))]
	if !ok {
		return nil, pkgerror.NewBusiness("Unknown analysis type", pkgerror.CodeNotFound)
	}

	var req AnalysisRequest
	if r.Body != nil {
		dec := json.NewDecoder(io.LimitReader(r.Body, maxAnalysisBody))
		if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			return nil, pkgerror.NewInvalidFormat()
		}
	}

	a, err := h.uc.RequestAnalysis(ctx, usecase.AnalysisInput{
		DatasetID:       pkgrouter.GetParam(ctx, "id"),
		Kind:            kind,
		Columns:         req.Columns,
		Method:          req.Method,
		Condition1:      req.Condition1,
		Condition2:      req.Condition2,
		PValueThreshold: req.PValueThreshold,
		NClusters:       req.NClusters,
	})
	if err != nil {
		return nil, err
	}

	return AnalysisAcceptedResponse{Analysis: toHTTPAnalysis(a)}, nil
}

func (h *HTTPEndpoint) AnalysisHistory(ctx context.Context, r *http.Request) (any, error) {
	list, err := h.uc.AnalysisHistory(ctx, pkgrouter.GetParam(ctx, "id"))
	if err != nil {
		return nil, err
	}

	analyses := make([]Analysis, 0, len(list))
	for _, a := range list {
		analyses = append(analyses, toHTTPAnalysis(a))
	}

	return AnalysisHistoryResponse{Analyses: analyses}, nil
}

func owner(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(HeaderUserID)); id != "" {
		return id
	}
	return anonymousOwner
}

// parseWindow reads the data window. Absent values fall back to offset 0 and
// the configured default limit.
func parseWindow(offsetRaw, limitRaw string) (usecase.DataWindow, error) {
	var w usecase.DataWindow

	if offsetRaw != "" {
		value, err := strconv.Atoi(offsetRaw)
		if err != nil || value < 0 {
			return w, pkgerror.NewInvalidInput(errors.New("offset must be a non-negative integer"))
		}
		w.Offset = value
	}

	if limitRaw != "" {
		value, err := strconv.Atoi(limitRaw)
		if err != nil || value < 1 {
			return w, pkgerror.NewInvalidInput(errors.New("limit must be a positive integer"))
		}
		w.Limit = value
	}

	return w, nil
}
