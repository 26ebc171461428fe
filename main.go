package main

import (
	"context"
	"time"

	"github.com/Ansh30a/BioInformatics/internal/app"
)

func main() {
	application := app.New()
	wait := application.Start()
	<-wait

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	application.Stop(ctx)
}
