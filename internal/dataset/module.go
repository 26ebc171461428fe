package dataset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Ansh30a/BioInformatics/internal/dataset/event"
	"github.com/Ansh30a/BioInformatics/internal/dataset/inbound"
	"github.com/Ansh30a/BioInformatics/internal/dataset/outbound"
	"github.com/Ansh30a/BioInformatics/internal/dataset/store"
	"github.com/Ansh30a/BioInformatics/internal/dataset/usecase"
	"github.com/Ansh30a/BioInformatics/internal/pkg/pkgconfig"
	"github.com/Ansh30a/BioInformatics/internal/pkg/pkgmetric"
	"github.com/Ansh30a/BioInformatics/internal/pkg/pkgrouter"
	"github.com/Ansh30a/BioInformatics/internal/pkg/pkgroutine"
	"github.com/Ansh30a/BioInformatics/internal/pkg/pkguid"
)

const (
	driverMemory       = "memory"
	defaultStorageDir  = "./uploads"
	defaultAnalytics   = "http://localhost:8000"
	defaultBusBuffer   = 512
	defaultEventRetry  = 3
	defaultBackoff     = 200 * time.Millisecond
	defaultCallTimeout = 5 * time.Minute
)

type Dependency struct {
	Config    pkgconfig.Config
	Goroutine *pkgroutine.Manager
	Router    *pkgrouter.Router
	Context   context.Context
	ID        pkguid.StringID
	FileID    pkguid.NumberID
	Metrics   pkgmetric.Recorder
}

// New wires the dataset module onto the router and returns its closer.
func New(dep Dependency) (func(context.Context) error, error) {
	cfg := dep.Config

	if dep.ID == nil {
		dep.ID = pkguid.NewUUID()
	}
	if dep.FileID == nil {
		node := int64(-1)
		if cfg.GetString("snowflake.node") != "" {
			node = cfg.GetInt("snowflake.node")
		}
		sf, err := pkguid.NewSnowflake(node)
		if err != nil {
			return nil, fmt.Errorf("file id generator: %w", err)
		}
		dep.FileID = sf
	}

	storageDir := cfg.GetString("dataset.storage.dir")
	if storageDir == "" {
		storageDir = defaultStorageDir
	}
	if err := os.MkdirAll(storageDir, 0o750); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}

	storage, closeStore, err := openStore(dep.Context, cfg.GetString("database.driver"), cfg.GetString("database.dsn"))
	if err != nil {
		return nil, err
	}

	bus := event.NewBus(defaultBusBuffer)
	consumer := event.NewCleanupConsumer(bus, event.FileRemover{}, event.ConsumerConfig{
		Workers:     int(cfg.GetInt("event.workers")),
		MaxRetries:  intOr(cfg.GetInt("event.max_retries"), defaultEventRetry),
		BaseBackoff: durationOr(cfg.GetDuration("event.base_backoff"), defaultBackoff),
	})
	consumer.Start()

	baseURL := cfg.GetString("analytics.base_url")
	if baseURL == "" {
		baseURL = defaultAnalytics
	}

	maxUpload := cfg.GetInt("dataset.upload.max_size_bytes")
	if maxUpload <= 0 {
		maxUpload = usecase.DefaultMaxUploadSize
	}

	uc := usecase.New(usecase.Dependency{
		Store:         storage,
		Events:        bus,
		Runner:        dep.Goroutine,
		Metrics:       dep.Metrics,
		Analytics:     outbound.NewAnalyticsClient(baseURL, durationOr(cfg.GetDuration("analytics.timeout"), defaultCallTimeout)),
		ID:            dep.ID,
		FileID:        dep.FileID,
		RootCtx:       dep.Context,
		StorageDir:    storageDir,
		MaxUploadSize: maxUpload,
		DefaultLimit:  int(cfg.GetInt("dataset.data.default_limit")),
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc, maxUpload)

	return func(ctx context.Context) error {
		return errors.Join(consumer.Stop(ctx), closeStore())
	}, nil
}

func openStore(ctx context.Context, driver, dsn string) (usecase.Store, func() error, error) {
	if driver == "" || driver == driverMemory {
		slog.WarnContext(ctx, "datasets are kept in memory and lost on restart")
		return store.NewInMemoryStore(), func() error { return nil }, nil
	}

	s, err := store.OpenSQL(ctx, driver, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s store: %w", driver, err)
	}
	return s, s.Close, nil
}

func intOr(v int64, def int) int {
	if v <= 0 {
		return def
	}
	return int(v)
}

func durationOr(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}
