// Command catalogctl administers a musicatlas deployment: role grants, catalog imports and media maintenance.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"musicatlas/internal/app/artists"
	"musicatlas/internal/app/genres"
	"musicatlas/internal/app/songs"
	"musicatlas/internal/app/users"
	"musicatlas/internal/auth"
	"musicatlas/internal/bootstrap"
	"musicatlas/internal/config"
	"musicatlas/internal/logging"
)

func main() {
	logging.SetGlobalLogger(logging.New(logging.Config{Level: "warn", Format: "text", Output: os.Stderr}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner := NewRunner(RunnerOpts{Open: openEnvironment})
	defer runner.Close()

	app := &cli.Command{
		Name:     "catalogctl",
		Usage:    "Administer the music catalog",
		Commands: runner.register(),
	}
	if err := app.Run(ctx, os.Args); err != nil {
		log.Error().Err(err).Msg("catalogctl failed")
		runner.Close()
		os.Exit(1)
	}
}

func openEnvironment(ctx context.Context) (*Environment, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	catalog, closeCatalog, err := bootstrap.OpenCatalog(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	closeFn := func() {
		if err := closeCatalog(context.Background()); err != nil {
			log.Warn().Err(err).Msg("close store")
		}
	}

	transfer, err := bootstrap.OpenMedia(ctx, cfg.Media, nil)
	if err != nil {
		closeFn()
		return nil, fmt.Errorf("open media: %w", err)
	}

	provider, err := auth.NewService(catalog.Credentials, auth.Config{
		Secret: cfg.Security.JWTSecret,
		TTL:    cfg.Security.SessionTTL,
	})
	if err != nil {
		closeFn()
		return nil, err
	}

	artistSvc := artists.New(catalog.Artists, transfer)
	return &Environment{
		Catalog: catalog,
		Coordinators: bootstrap.Coordinators{
			Genres:  genres.New(catalog.Genres, transfer),
			Artists: artistSvc,
			Songs:   songs.New(catalog.Songs, artistSvc, transfer),
		},
		Roles: users.New(provider, catalog.Profiles),
		Media: transfer,
		Close: closeFn,
	}, nil
}
