package genres

import (
	"context"

	"musicatlas/internal/app"
	"musicatlas/internal/media"
	"musicatlas/internal/models"
	"musicatlas/internal/store"
)

// Service coordinates genre records with their cover images.
type Service interface {
	Add(ctx context.Context, genre models.Genre, image *media.File) (models.Genre, error)
	Update(ctx context.Context, id string, patch models.GenrePatch, image *media.File) error
	Delete(ctx context.Context, id, imageURL string) error
	Get(ctx context.Context, id string) (models.Genre, error)
	List(ctx context.Context) ([]models.Genre, error)
}

type service struct {
	genres   store.Collection[models.Genre]
	transfer media.Transfer
	cfg      app.Config
}

// New wires a Service over the genre collection and media transfer client.
func New(genres store.Collection[models.Genre], transfer media.Transfer, opts ...app.Option) Service {
	return &service{genres: genres, transfer: transfer, cfg: app.NewConfig(opts...)}
}

func (s *service) Add(ctx context.Context, genre models.Genre, image *media.File) (models.Genre, error) {
	created, err := s.add(ctx, genre, image)
	return created, s.cfg.Finish(app.KindGenre, app.OpAdd, err)
}

func (s *service) add(ctx context.Context, genre models.Genre, image *media.File) (models.Genre, error) {
	if err := ctx.Err(); err != nil {
		return models.Genre{}, err
	}
	if err := genre.Validate(); err != nil {
		return models.Genre{}, err
	}

	imageURL, err := app.UploadIfPresent(ctx, s.transfer, image, media.FolderGenres)
	if err != nil {
		return models.Genre{}, err
	}

	genre.ImageURL = imageURL
	genre.CreatedAt = s.cfg.Now().UTC()
	created, err := s.genres.Create(ctx, genre)
	if err != nil {
		app.LogOrphans(ctx, app.KindGenre, err, imageURL)
		return models.Genre{}, err
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, id string, patch models.GenrePatch, image *media.File) error {
	return s.cfg.Finish(app.KindGenre, app.OpUpdate, s.update(ctx, id, patch, image))
}

func (s *service) update(ctx context.Context, id string, patch models.GenrePatch, image *media.File) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := patch.Validate(); err != nil {
		return err
	}

	fields := store.Fields(patch.Fields())
	if image != nil {
		current, ok, err := s.genres.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return store.NotFound(store.Genres, id)
		}

		imageURL, err := app.Replace(ctx, s.transfer, *image, media.FolderGenres, current.ImageURL)
		if err != nil {
			return err
		}
		fields[models.FieldImageURL] = imageURL
	}

	if err := s.genres.Update(ctx, id, fields); err != nil {
		if url, ok := fields[models.FieldImageURL].(string); ok {
			app.LogOrphans(ctx, app.KindGenre, err, url)
		}
		return err
	}
	return nil
}

func (s *service) Delete(ctx context.Context, id, imageURL string) error {
	return s.cfg.Finish(app.KindGenre, app.OpDelete, s.delete(ctx, id, imageURL))
}

func (s *service) delete(ctx context.Context, id, imageURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := app.CheckID(id); err != nil {
		return err
	}
	if _, err := app.Existing(ctx, s.genres, store.Genres, id); err != nil {
		return err
	}
	if err := app.Retire(ctx, s.transfer, imageURL); err != nil {
		return err
	}
	return s.genres.Delete(ctx, id)
}

func (s *service) Get(ctx context.Context, id string) (models.Genre, error) {
	if err := ctx.Err(); err != nil {
		return models.Genre{}, err
	}
	genre, ok, err := s.genres.GetByID(ctx, id)
	if err != nil {
		return models.Genre{}, app.Wrap(app.KindGenre, app.OpGet, err)
	}
	if !ok {
		return models.Genre{}, app.Wrap(app.KindGenre, app.OpGet, store.NotFound(store.Genres, id))
	}
	return genre, nil
}

func (s *service) List(ctx context.Context) ([]models.Genre, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	genres, err := s.genres.List(ctx)
	if err != nil {
		return nil, app.Wrap(app.KindGenre, app.OpList, err)
	}
	return genres, nil
}
