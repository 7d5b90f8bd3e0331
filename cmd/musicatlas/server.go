package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"musicatlas/internal/app"
	"musicatlas/internal/app/artists"
	"musicatlas/internal/app/genres"
	"musicatlas/internal/app/songs"
	"musicatlas/internal/app/users"
	"musicatlas/internal/auth"
	"musicatlas/internal/bootstrap"
	"musicatlas/internal/config"
	"musicatlas/internal/http/middleware"
	"musicatlas/internal/httpapi"
	"musicatlas/internal/metrics"
)

type application struct {
	handler http.Handler
	close   func()
}

func newApplication(ctx context.Context, cfg *config.Config) (*application, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	catalog, closeCatalog, err := bootstrap.OpenCatalog(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	closeAll := func() {
		if err := closeCatalog(context.Background()); err != nil {
			log.Warn().Err(err).Msg("close store")
		}
	}

	transfer, err := bootstrap.OpenMedia(ctx, cfg.Media, m)
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("open media: %w", err)
	}

	opts := []app.Option{app.WithMetrics(m)}
	genreSvc := genres.New(catalog.Genres, transfer, opts...)
	artistSvc := artists.New(catalog.Artists, transfer, opts...)
	songSvc := songs.New(catalog.Songs, artistSvc, transfer, opts...)

	provider, err := auth.NewService(catalog.Credentials, auth.Config{
		Secret: cfg.Security.JWTSecret,
		TTL:    cfg.Security.SessionTTL,
	})
	if err != nil {
		closeAll()
		return nil, err
	}
	accounts := users.New(provider, catalog.Profiles)

	if cfg.Store.Driver == config.StoreMemory {
		if err := seedDemoCatalog(ctx, bootstrap.Coordinators{Genres: genreSvc, Artists: artistSvc, Songs: songSvc}); err != nil {
			closeAll()
			return nil, err
		}
	}

	server := httpapi.New(httpapi.Services{
		Accounts: accounts,
		Genres:   genreSvc,
		Artists:  artistSvc,
		Songs:    songSvc,
		Media:    transfer,
	}, httpapi.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Limiter:        middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		Metrics:        m,
		MaxUploadBytes: cfg.Media.MaxAudioBytes + cfg.Media.MaxImageBytes + 1<<20,
	})

	return &application{handler: server.Routes(), close: closeAll}, nil
}

func seedDemoCatalog(ctx context.Context, c bootstrap.Coordinators) error {
	seed, err := bootstrap.ParseSeed(bootstrap.DemoSeed)
	if err != nil {
		return err
	}
	sum, err := bootstrap.Apply(ctx, c, seed)
	if err != nil {
		return fmt.Errorf("bootstrap demo catalog: %w", err)
	}
	log.Info().
		Int("genres", sum.Genres).
		Int("artists", sum.Artists).
		Int("songs", sum.Songs).
		Msg("demo catalog loaded")
	return nil
}
