package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Ansh30a/BioInformatics/internal/dataset/entity"
	"github.com/Ansh30a/BioInformatics/internal/dataset/tabular"
	"github.com/Ansh30a/BioInformatics/internal/pkg/pkgerror"
	"github.com/Ansh30a/BioInformatics/internal/pkg/pkgmetric"
)

const (
	maxNameLen        = 100
	maxDescriptionLen = 500
	conditionColumn   = "condition"
)

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9.-]`)

// Upload stores the content under the owner's directory and ingests it. Any
// failure after the file is written removes it again.
func (u *Usecase) Upload(ctx context.Context, in UploadInput) (entity.Dataset, error) {
	if u.store == nil || u.id == nil || u.fileID == nil {
		return entity.Dataset{}, pkgerror.NewServer(errors.New("missing dependency"))
	}

	if !tabular.IsSupported(in.FileName) {
		return entity.Dataset{}, pkgerror.NewBadRequest(
			"Invalid file type. Only " + strings.Join(tabular.SupportedExtensions, ", ") + " files are allowed.")
	}
	if in.Content == nil {
		return entity.Dataset{}, pkgerror.NewBadRequest("No file uploaded")
	}

	path, size, err := u.storeFile(ctx, in.Owner, in.FileName, in.Content)
	if err != nil {
		return entity.Dataset{}, err
	}

	typ, err := validateFields(in.Name, in.Description, in.Type)
	if err != nil {
		u.removeFile(ctx, path, "validation failed")
		return entity.Dataset{}, err
	}

	return u.Ingest(ctx, IngestInput{
		Path:        path,
		FileName:    in.FileName,
		FileSize:    size,
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Type:        typ,
		Owner:       in.Owner,
		IsPublic:    in.IsPublic,
		Metadata:    trimMetadata(in.Metadata),
	})
}

// FileTooLargeMessage is the rejection for uploads above maxBytes.
func FileTooLargeMessage(maxBytes int64) string {
	return fmt.Sprintf("File too large. Maximum size is %dMB.", maxBytes>>20)
}

// Ingest parses the whole file, derives the dataset summary and persists it.
// A parse or persistence failure deletes the file and stores nothing.
func (u *Usecase) Ingest(ctx context.Context, in IngestInput) (entity.Dataset, error) {
	start := u.clock.Now()
	ds, rows, err := u.ingest(ctx, in)

	status := "ok"
	if err != nil {
		status = "failed"
	}
	labels := pkgmetric.Labels{"status": status}
	u.metrics.IncCounter("biodata_ingest_total", 1, labels)
	u.metrics.ObserveHistogram("biodata_ingest_duration_seconds", u.clock.Now().Sub(start).Seconds(), labels)
	if err == nil {
		u.metrics.IncCounter("biodata_ingest_rows_total", float64(rows), nil)
	}

	return ds, err
}

func (u *Usecase) ingest(ctx context.Context, in IngestInput) (entity.Dataset, int, error) {
	res := tabular.ParseFile(ctx, in.Path, tabular.Window{})
	if !res.Success {
		slog.WarnContext(ctx, "dataset rejected", "file", in.FileName, "reason", res.Message)
		u.removeFile(ctx, in.Path, "parse failed")
		return entity.Dataset{}, 0, pkgerror.NewBadRequest(res.Message)
	}
	table := res.Data

	var notes []string
	if table.MismatchedRows > 0 {
		notes = append(notes, fmt.Sprintf("%d rows had a column count different from the header and were padded or truncated", table.MismatchedRows))
	}

	now := u.clock.Now()
	ds := entity.Dataset{
		ID:               u.id.Generate(),
		Name:             in.Name,
		Description:      in.Description,
		Type:             in.Type,
		FileName:         in.FileName,
		FilePath:         in.Path,
		FileSize:         in.FileSize,
		UploadedBy:       in.Owner,
		SampleCount:      len(table.Rows),
		GeneCount:        len(table.Headers) - 1,
		Conditions:       conditions(table),
		Metadata:         in.Metadata,
		Columns:          columnDefs(table),
		Preview:          preview(table),
		IsPublic:         in.IsPublic,
		Status:           entity.DatasetStatusReady,
		ProcessingErrors: notes,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := u.store.CreateDataset(ctx, ds); err != nil {
		u.removeFile(ctx, in.Path, "persist failed")
		return entity.Dataset{}, 0, normalizeErr(err)
	}

	slog.InfoContext(ctx, "dataset ingested", "dataset_id", ds.ID, "rows", ds.SampleCount, "columns", len(table.Headers))
	return ds, len(table.Rows), nil
}

// storeFile writes content to <dir>/<owner>/<id>-<name>, refusing anything
// larger than the upload cap.
func (u *Usecase) storeFile(ctx context.Context, owner, name string, content io.Reader) (string, int64, error) {
	dir := filepath.Join(u.storageDir, sanitize(owner))
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", 0, pkgerror.NewServer(err)
	}

	path := filepath.Join(dir, strconv.FormatInt(u.fileID.Generate(), 10)+"-"+sanitize(filepath.Base(name)))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return "", 0, pkgerror.NewServer(err)
	}

	n, err := io.Copy(f, io.LimitReader(content, u.maxUploadSize+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		u.removeFile(ctx, path, "write failed")
		return "", 0, pkgerror.NewServer(err)
	}

	if n > u.maxUploadSize {
		u.removeFile(ctx, path, "too large")
		return "", 0, pkgerror.NewBadRequest(FileTooLargeMessage(u.maxUploadSize))
	}

	return path, n, nil
}

// removeFile deletes a stored file. When that fails the path is handed to
// the cleanup consumer so no orphan is left behind.
func (u *Usecase) removeFile(ctx context.Context, path, reason string) {
	err := u.remove(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return
	}

	slog.WarnContext(ctx, "failed to remove file", "path", path, "reason", reason, "error", err)
	if u.events == nil {
		return
	}

	event := entity.FileCleanupEvent{
		EventID: u.id.Generate(),
		Path:    path,
		Reason:  reason,
	}
	if pubErr := u.events.Publish(ctx, event); pubErr != nil {
		slog.ErrorContext(ctx, "failed to publish cleanup event", "path", path, "event_id", event.EventID, "error", pubErr)
	}
}

func validateFields(name, description, typ string) (entity.DatasetType, error) {
	name = strings.TrimSpace(name)
	typ = strings.TrimSpace(typ)

	if name == "" || typ == "" {
		return "", pkgerror.NewBadRequest("Dataset name and type are required")
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return "", pkgerror.NewBadRequest("Dataset name cannot exceed 100 characters")
	}
	if utf8.RuneCountInString(strings.TrimSpace(description)) > maxDescriptionLen {
		return "", pkgerror.NewBadRequest("Description cannot exceed 500 characters")
	}

	dt := entity.DatasetType(typ)
	if !dt.Valid() {
		return "", pkgerror.NewBadRequest(fmt.Sprintf("`%s` is not a valid dataset type", typ))
	}
	return dt, nil
}

func trimMetadata(m entity.Metadata) entity.Metadata {
	return entity.Metadata{
		Organism:  strings.TrimSpace(m.Organism),
		Tissue:    strings.TrimSpace(m.Tissue),
		Platform:  strings.TrimSpace(m.Platform),
		StudyType: strings.TrimSpace(m.StudyType),
		PubmedID:  strings.TrimSpace(m.PubmedID),
		Notes:     strings.TrimSpace(m.Notes),
	}
}

func sanitize(name string) string {
	s := unsafeNameChars.ReplaceAllString(name, "_")
	if s == "" || s == "." || s == ".." {
		return "_"
	}
	return s
}

// conditions lists the distinct non-empty values of the column named exactly
// "condition", in first-seen order.
func conditions(t *tabular.Table) []string {
	idx := -1
	for i, h := range t.Headers {
		if h == conditionColumn {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	seen := make(map[string]struct{})
	var out []string
	for _, row := range t.Rows {
		v := strings.TrimSpace(row[idx].String())
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func columnDefs(t *tabular.Table) []entity.ColumnDef {
	profile := tabular.ProfileColumns(t)
	defs := make([]entity.ColumnDef, 0, len(profile.Columns))
	for _, c := range profile.Columns {
		typ := c.Type
		if typ == tabular.ColumnUnknown {
			typ = tabular.ColumnString
		}
		defs = append(defs, entity.ColumnDef{Name: c.Name, Type: typ})
	}
	return defs
}

func preview(t *tabular.Table) entity.Preview {
	n := min(PreviewRows, len(t.Rows))
	rows := make([][]tabular.Cell, n)
	copy(rows, t.Rows[:n])
	return entity.Preview{
		Headers:   t.Headers,
		Rows:      rows,
		TotalRows: len(t.Rows),
	}
}
