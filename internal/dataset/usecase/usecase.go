package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"time"

	"github.com/Ansh30a/BioInformatics/internal/dataset/entity"
	"github.com/Ansh30a/BioInformatics/internal/pkg/pkgerror"
	"github.com/Ansh30a/BioInformatics/internal/pkg/pkgmetric"
	"github.com/Ansh30a/BioInformatics/internal/pkg/pkguid"
)

const (
	DefaultMaxUploadSize int64 = 100 << 20
	DefaultDataLimit           = 1000
	PreviewRows                = 10
)

type Store interface {
	CreateDataset(ctx context.Context, ds entity.Dataset) error
	GetDataset(ctx context.Context, id string) (entity.Dataset, error)
	CreateAnalysis(ctx context.Context, a entity.Analysis) error
	UpdateAnalysis(ctx context.Context, id string, fn func(a *entity.Analysis)) error
	ListAnalyses(ctx context.Context, datasetID string) ([]entity.Analysis, error)
}

type CleanupPublisher interface {
	Publish(ctx context.Context, event entity.FileCleanupEvent) error
}

type Runner interface {
	Go(ctx context.Context, f func(ctx context.Context) error)
}

type Clock interface {
	Now() time.Time
}

// AnalyticsClient runs one analysis on the external analytics service and
// returns its result payload.
type AnalyticsClient interface {
	Analyze(ctx context.Context, kind entity.AnalysisKind, body map[string]any) (json.RawMessage, error)
}

type Dependency struct {
	Store     Store
	Events    CleanupPublisher
	Runner    Runner
	Clock     Clock
	Metrics   pkgmetric.Recorder
	Analytics AnalyticsClient
	ID        pkguid.StringID
	FileID    pkguid.NumberID
	RootCtx   context.Context

	StorageDir    string
	MaxUploadSize int64
	DefaultLimit  int
}

type Usecase struct {
	store     Store
	events    CleanupPublisher
	runner    Runner
	clock     Clock
	metrics   pkgmetric.Recorder
	analytics AnalyticsClient
	id        pkguid.StringID
	fileID    pkguid.NumberID
	rootCtx   context.Context

	storageDir    string
	maxUploadSize int64
	defaultLimit  int

	remove func(name string) error
}

func New(dep Dependency) *Usecase {
	root := dep.RootCtx
	if root == nil {
		root = context.Background()
	}

	clock := dep.Clock
	if clock == nil {
		clock = realClock{}
	}

	metrics := dep.Metrics
	if metrics == nil {
		metrics = pkgmetric.Noop{}
	}

	maxSize := dep.MaxUploadSize
	if maxSize <= 0 {
		maxSize = DefaultMaxUploadSize
	}

	limit := dep.DefaultLimit
	if limit <= 0 {
		limit = DefaultDataLimit
	}

	return &Usecase{
		store:         dep.Store,
		events:        dep.Events,
		runner:        dep.Runner,
		clock:         clock,
		metrics:       metrics,
		analytics:     dep.Analytics,
		id:            dep.ID,
		fileID:        dep.FileID,
		rootCtx:       root,
		storageDir:    dep.StorageDir,
		maxUploadSize: maxSize,
		defaultLimit:  limit,
		remove:        os.Remove,
	}
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

func mapStoreErr(err error) error {
	if errors.Is(err, pkgerror.ErrNotFound) {
		return pkgerror.NewBusiness("Dataset not found", pkgerror.CodeNotFound)
	}
	return normalizeErr(err)
}

func normalizeErr(err error) error {
	var perr *pkgerror.Error
	if errors.As(err, &perr) {
		return perr
	}
	return pkgerror.NewServer(err)
}
