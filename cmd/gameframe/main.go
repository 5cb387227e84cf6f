package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/zeusync/gameframe/internal/config"
	"github.com/zeusync/gameframe/internal/core/observability/log"
	"github.com/zeusync/gameframe/internal/injector"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to a .yaml or .toml config file")
	entities := flag.Int("entities", 32, "number of demo entities to spawn")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return err
		}
	}

	app, cleanup, err := injector.InitializeApp(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if err = setupDemo(app, *entities); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app.Log.Info("gameframe starting",
		log.Int("entities", *entities),
		log.Int("frame_rate", cfg.Host.FrameRate),
		log.Bool("inspector", cfg.Inspector.Enabled),
		log.Bool("scripting", cfg.Scripting.Enabled))

	if err = app.Host.Run(ctx); err != nil {
		return err
	}
	app.Log.Info("gameframe stopped")
	return nil
}
