package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/babypal/internal/cli"
	"github.com/dmitrijs2005/babypal/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadEnvConfig()
	app := cli.NewApp(cfg, cli.PostgresOpener)

	err := app.Command().ExecuteContext(ctx)
	app.Close()

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
