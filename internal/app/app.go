package app

import (
	"context"
	"net/http"

	"github.com/Ansh30a/BioInformatics/internal/pkg/pkgconfig"
	"github.com/Ansh30a/BioInformatics/internal/pkg/pkglog"
	"github.com/Ansh30a/BioInformatics/internal/pkg/pkgmetric"
	"github.com/Ansh30a/BioInformatics/internal/pkg/pkgrouter"
	"github.com/Ansh30a/BioInformatics/internal/pkg/pkgroutine"
	"github.com/Ansh30a/BioInformatics/internal/pkg/pkguid"
)

type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config pkgconfig.Config

	// libraries
	uuid      pkguid.StringID
	snowflake pkguid.NumberID
	goroutine *pkgroutine.Manager
	metrics   pkgmetric.Recorder

	// server
	router     *pkgrouter.Router
	httpServer *http.Server

	closerFn map[string]func(context.Context) error
}

func New() *App {
	pkglog.InitLogging(pkglog.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:      ctx,
		cancel:   cancel,
		closerFn: map[string]func(context.Context) error{},
	}

	app.initConfig()
	app.initLibraries()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
