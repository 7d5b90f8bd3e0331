package app

import (
	"context"
	"strings"
	"time"

	"musicatlas/internal/logging"
	"musicatlas/internal/media"
	"musicatlas/internal/metrics"
	"musicatlas/internal/models"
	"musicatlas/internal/store"
)

// Config carries the collaborators every coordinator accepts.
type Config struct {
	Now     func() time.Time
	Metrics *metrics.Metrics
}

// Option adjusts a Config.
type Option func(*Config)

// WithClock overrides the clock used for server-assigned timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Config) { c.Now = now }
}

// WithMetrics records coordinator calls.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Config) { c.Metrics = m }
}

// NewConfig applies opts over the defaults.
func NewConfig(opts ...Option) Config {
	cfg := Config{Now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Finish wraps err for kind and op and records the outcome.
func (c Config) Finish(kind Kind, op Op, err error) error {
	c.Metrics.ObserveCatalog(string(kind), string(op), err)
	return Wrap(kind, op, err)
}

// CheckID rejects an empty record identifier.
func CheckID(id string) error {
	if strings.TrimSpace(id) == "" {
		return &models.ValidationError{Field: models.FieldID, Reason: "is required"}
	}
	return nil
}

// Existing returns the record stored under id, or a not-found error naming collection.
func Existing[T store.Record[T]](ctx context.Context, records store.Collection[T], collection, id string) (T, error) {
	record, ok, err := records.GetByID(ctx, id)
	if err != nil {
		return record, err
	}
	if !ok {
		return record, store.NotFound(collection, id)
	}
	return record, nil
}

// UploadIfPresent uploads file when it is non-nil and returns its URL.
func UploadIfPresent(ctx context.Context, transfer media.Transfer, file *media.File, folder media.Folder) (string, error) {
	if file == nil {
		return "", nil
	}
	return transfer.Upload(ctx, *file, folder)
}

// Replace uploads file and then retires oldURL. The old object is only
// touched once the new one is stored, so a failed upload leaves the record
// pointing at live media. If retiring fails the new object is orphaned and
// the error is returned.
func Replace(ctx context.Context, transfer media.Transfer, file media.File, folder media.Folder, oldURL string) (string, error) {
	newURL, err := transfer.Upload(ctx, file, folder)
	if err != nil {
		return "", err
	}
	if oldURL == "" {
		return newURL, nil
	}
	if err := transfer.Delete(ctx, oldURL); err != nil {
		logging.WithContext(ctx).Warn().
			Str("orphan_url", newURL).
			Str("old_url", oldURL).
			Err(err).
			Msg("media replaced but old object not retired")
		return "", err
	}
	return newURL, nil
}

// Retire deletes every non-empty URL in order and stops at the first failure.
func Retire(ctx context.Context, transfer media.Transfer, urls ...string) error {
	for _, url := range urls {
		if url == "" {
			continue
		}
		if err := transfer.Delete(ctx, url); err != nil {
			return err
		}
	}
	return nil
}

// LogOrphans reports uploaded objects left without a record.
func LogOrphans(ctx context.Context, kind Kind, err error, urls ...string) {
	for _, url := range urls {
		if url == "" {
			continue
		}
		logging.WithContext(ctx).Warn().
			Str("kind", string(kind)).
			Str("orphan_url", url).
			Err(err).
			Msg("media uploaded but record not written")
	}
}
