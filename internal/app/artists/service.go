package artists

import (
	"context"

	"musicatlas/internal/app"
	"musicatlas/internal/media"
	"musicatlas/internal/models"
	"musicatlas/internal/store"
)

// Service coordinates artist records with their portrait images.
type Service interface {
	Add(ctx context.Context, artist models.Artist, image *media.File) (models.Artist, error)
	Update(ctx context.Context, id string, patch models.ArtistPatch, image *media.File) error
	Delete(ctx context.Context, id, imageURL string) error
	Get(ctx context.Context, id string) (models.Artist, error)
	ListByGenre(ctx context.Context, genreID string) ([]models.Artist, error)
}

type service struct {
	artists  store.Collection[models.Artist]
	transfer media.Transfer
	cfg      app.Config
}

// New wires a Service over the artist collection and media transfer client.
func New(artists store.Collection[models.Artist], transfer media.Transfer, opts ...app.Option) Service {
	return &service{artists: artists, transfer: transfer, cfg: app.NewConfig(opts...)}
}

func (s *service) Add(ctx context.Context, artist models.Artist, image *media.File) (models.Artist, error) {
	created, err := s.add(ctx, artist, image)
	return created, s.cfg.Finish(app.KindArtist, app.OpAdd, err)
}

func (s *service) add(ctx context.Context, artist models.Artist, image *media.File) (models.Artist, error) {
	if err := ctx.Err(); err != nil {
		return models.Artist{}, err
	}
	if err := artist.Validate(); err != nil {
		return models.Artist{}, err
	}

	imageURL, err := app.UploadIfPresent(ctx, s.transfer, image, media.FolderArtists)
	if err != nil {
		return models.Artist{}, err
	}

	artist.ImageURL = imageURL
	created, err := s.artists.Create(ctx, artist)
	if err != nil {
		app.LogOrphans(ctx, app.KindArtist, err, imageURL)
		return models.Artist{}, err
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, id string, patch models.ArtistPatch, image *media.File) error {
	return s.cfg.Finish(app.KindArtist, app.OpUpdate, s.update(ctx, id, patch, image))
}

func (s *service) update(ctx context.Context, id string, patch models.ArtistPatch, image *media.File) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := patch.Validate(); err != nil {
		return err
	}

	fields := store.Fields(patch.Fields())
	if image != nil {
		current, ok, err := s.artists.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return store.NotFound(store.Artists, id)
		}

		imageURL, err := app.Replace(ctx, s.transfer, *image, media.FolderArtists, current.ImageURL)
		if err != nil {
			return err
		}
		fields[models.FieldImageURL] = imageURL
	}

	if err := s.artists.Update(ctx, id, fields); err != nil {
		if url, ok := fields[models.FieldImageURL].(string); ok {
			app.LogOrphans(ctx, app.KindArtist, err, url)
		}
		return err
	}
	return nil
}

func (s *service) Delete(ctx context.Context, id, imageURL string) error {
	return s.cfg.Finish(app.KindArtist, app.OpDelete, s.delete(ctx, id, imageURL))
}

func (s *service) delete(ctx context.Context, id, imageURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := app.CheckID(id); err != nil {
		return err
	}
	if _, err := app.Existing(ctx, s.artists, store.Artists, id); err != nil {
		return err
	}
	if err := app.Retire(ctx, s.transfer, imageURL); err != nil {
		return err
	}
	return s.artists.Delete(ctx, id)
}

func (s *service) Get(ctx context.Context, id string) (models.Artist, error) {
	if err := ctx.Err(); err != nil {
		return models.Artist{}, err
	}
	artist, ok, err := s.artists.GetByID(ctx, id)
	if err != nil {
		return models.Artist{}, app.Wrap(app.KindArtist, app.OpGet, err)
	}
	if !ok {
		return models.Artist{}, app.Wrap(app.KindArtist, app.OpGet, store.NotFound(store.Artists, id))
	}
	return artist, nil
}

// ListByGenre returns the artists whose genreId equals genreID.
func (s *service) ListByGenre(ctx context.Context, genreID string) ([]models.Artist, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	artists, err := s.artists.QueryByField(ctx, models.FieldGenreID, genreID)
	if err != nil {
		return nil, app.Wrap(app.KindArtist, app.OpList, err)
	}
	return artists, nil
}
