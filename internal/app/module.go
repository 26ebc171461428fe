package app

import (
	"log/slog"
	"os"

	"github.com/Ansh30a/BioInformatics/internal/dataset"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.dataset.enabled") {
		closer, err := dataset.New(dataset.Dependency{
			Config:    a.config,
			Router:    a.router,
			Goroutine: a.goroutine,
			Context:   a.ctx,
			ID:        a.uuid,
			FileID:    a.snowflake,
			Metrics:   a.metrics,
		})
		if err != nil {
			slog.Error("failed to init module dataset", "error", err)
			os.Exit(1)
		}
		if closer != nil {
			a.closerFn["Dataset"] = closer
		}
	}
}
