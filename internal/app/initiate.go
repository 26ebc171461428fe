package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/rs/cors"

	"github.com/Ansh30a/BioInformatics/internal/pkg/pkgconfig"
	"github.com/Ansh30a/BioInformatics/internal/pkg/pkglog"
	"github.com/Ansh30a/BioInformatics/internal/pkg/pkgmetric"
	"github.com/Ansh30a/BioInformatics/internal/pkg/pkgrouter"
	"github.com/Ansh30a/BioInformatics/internal/pkg/pkgroutine"
	"github.com/Ansh30a/BioInformatics/internal/pkg/pkguid"
)

func (a *App) initConfig() {
	path := "/config/config.yaml"
	if os.Getenv("LOCAL") == "true" {
		path = "./config/config.yaml"
	}

	cfg, err := pkgconfig.NewViper(path)
	if err != nil {
		slog.Error("failed to init config", "error", err)
		os.Exit(1)
	}

	if tz := cfg.GetString("tz"); tz != "" {
		//nolint:errcheck,gosec // ignore error
		os.Setenv("TZ", tz)
	}

	pkglog.InitLogging(pkglog.Options{
		Level:  cfg.GetString("log.level"),
		Format: cfg.GetString("log.format"),
	})

	a.config = cfg
}

func (a *App) initLibraries() {
	a.goroutine = pkgroutine.NewManager(int(a.config.GetInt("goroutine.max")))
	a.uuid = pkguid.NewUUID()

	sf, err := pkguid.NewSnowflake(a.snowflakeNode())
	if err != nil {
		slog.Error("failed to init snowflake", "error", err)
		os.Exit(1)
	}
	a.snowflake = sf

	a.metrics = pkgmetric.Noop{}
	if a.config.GetBool("metrics.datadog.enabled") {
		dd := pkgmetric.NewDatadog(a.ctx, pkgmetric.DatadogOptions{
			Job:        a.config.GetString("metrics.datadog.job"),
			Tags:       a.config.GetArray("metrics.datadog.tags"),
			FlushEvery: a.config.GetDuration("metrics.datadog.flush_every"),
		})
		a.metrics = dd
		a.closerFn["Datadog"] = func(context.Context) error {
			return dd.Close()
		}
	}
}

// snowflakeNode reads "snowflake.node"; an absent key means a random node.
func (a *App) snowflakeNode() int64 {
	if a.config.GetString("snowflake.node") == "" {
		return -1
	}
	return a.config.GetInt("snowflake.node")
}

func (a *App) initHTTPServer() {
	a.router = pkgrouter.NewRouter(a.uuid)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{pkgrouter.HeaderCorrelationID},
	})

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("server.address.http"),
		Handler:           corsHandler.Handler(a.router),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func (a *App) initClosers() {
	a.closerFn["HTTP Server"] = func(ctx context.Context) error {
		return a.httpServer.Shutdown(ctx)
	}
	a.closerFn["Config"] = func(context.Context) error {
		return a.config.Close()
	}
}
