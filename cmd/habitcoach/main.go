package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/habitcoach/internal/cli"
	"github.com/julianstephens/habitcoach/internal/config"
	"github.com/julianstephens/habitcoach/internal/constants"
	"github.com/julianstephens/habitcoach/internal/logger"
	"github.com/julianstephens/habitcoach/internal/ml"
	"github.com/julianstephens/habitcoach/internal/storage"
	"github.com/julianstephens/habitcoach/internal/storage/postgres"
	"github.com/julianstephens/habitcoach/internal/storage/sqlite"
)

var CLI struct {
	Version kong.VersionFlag

	Serve    cli.ServeCmd    `cmd:"" default:"1" help:"Run the API server with the scheduler."`
	Migrate  cli.MigrateCmd  `cmd:"" help:"Apply database migrations."`
	Train    cli.TrainCmd    `cmd:"" help:"Train the maintenance-probability model."`
	Batch    cli.BatchCmd    `cmd:"" help:"Run the prediction batch for a day."`
	Dispatch cli.DispatchCmd `cmd:"" help:"Deliver due notifications once."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Habit tracking backend with streaks, predictions, and reports"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
		kong.Vars{"version": constants.Version},
	)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(logger.Config{Debug: cfg.Debug, LogDir: cfg.LogDir}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var store storage.Provider
	if cfg.IsPostgres() {
		store = postgres.New(cfg.DatabaseURL)
	} else {
		store = sqlite.NewStore(cfg.DatabaseURL)
	}
	if err := store.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	model := ml.NewModel()
	if _, err := model.Load(ml.LatestArtifactPath(cfg.ModelDir)); err != nil {
		logger.Warn("Failed to load model artifact", "error", err)
	}

	appCtx := &cli.Context{
		Config: cfg,
		Store:  store,
		Model:  model,
	}
	if err := ctx.Run(appCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
