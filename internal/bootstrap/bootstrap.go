// Package bootstrap opens the store and media backends selected by configuration.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"musicatlas/internal/config"
	"musicatlas/internal/media"
	"musicatlas/internal/media/memhost"
	"musicatlas/internal/media/s3host"
	"musicatlas/internal/metrics"
	"musicatlas/internal/store"
	"musicatlas/internal/store/memory"
	"musicatlas/internal/store/mongostore"
	"musicatlas/internal/store/postgres"
)

// memoryMediaBase is used when the in-memory host runs without a public base URL.
const memoryMediaBase = "http://localhost/media"

// CloseFunc releases a backend.
type CloseFunc func(ctx context.Context) error

// OpenCatalog connects the document store named by cfg.Driver.
func OpenCatalog(ctx context.Context, cfg config.StoreConfig) (store.Catalog, CloseFunc, error) {
	switch cfg.Driver {
	case config.StorePostgres:
		db, err := OpenDatabase(ctx, cfg.DatabaseURL)
		if err != nil {
			return store.Catalog{}, nil, err
		}
		log.Info().Str("driver", cfg.Driver).Msg("document store connected")
		return postgres.NewCatalog(db), func(context.Context) error { return db.Close() }, nil

	case config.StoreMongo:
		client, db, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return store.Catalog{}, nil, err
		}
		if err := mongostore.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(ctx)
			return store.Catalog{}, nil, err
		}
		log.Info().Str("driver", cfg.Driver).Str("database", cfg.MongoDatabase).Msg("document store connected")
		return mongostore.NewCatalog(db), client.Disconnect, nil

	case config.StoreMemory:
		log.Warn().Msg("using in-memory document store; data is lost on restart")
		return memory.NewCatalog(), func(context.Context) error { return nil }, nil
	}
	return store.Catalog{}, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}

// OpenMedia builds the media transfer service for the host named by cfg.Driver.
func OpenMedia(ctx context.Context, cfg config.MediaConfig, m *metrics.Metrics) (*media.Service, error) {
	var (
		host media.Host
		base = cfg.PublicBaseURL
	)

	switch cfg.Driver {
	case config.MediaS3:
		s3, err := s3host.New(ctx, s3host.Config{
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			Endpoint:  cfg.S3Endpoint,
			PathStyle: cfg.S3PathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("open s3 media host: %w", err)
		}
		host = s3
	case config.MediaMemory:
		host = memhost.New()
		if base == "" {
			base = memoryMediaBase
		}
		log.Warn().Msg("using in-memory media host; uploads are lost on restart")
	default:
		return nil, fmt.Errorf("unknown media driver %q", cfg.Driver)
	}

	if base == "" {
		return nil, errors.New("media public base url is required")
	}
	return media.NewService(host, media.Config{
		PublicBaseURL: base,
		MaxImageBytes: cfg.MaxImageBytes,
		MaxAudioBytes: cfg.MaxAudioBytes,
		Metrics:       m,
	})
}
