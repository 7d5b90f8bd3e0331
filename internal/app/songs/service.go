package songs

import (
	"context"
	"errors"
	"strings"

	"musicatlas/internal/app"
	"musicatlas/internal/media"
	"musicatlas/internal/models"
	"musicatlas/internal/store"
)

// ArtistLookup resolves the artist a song belongs to.
type ArtistLookup interface {
	Get(ctx context.Context, id string) (models.Artist, error)
}

// Media carries the optional files of a song operation.
type Media struct {
	Image *media.File
	Audio *media.File
}

// Service coordinates song records with their cover image and audio file.
type Service interface {
	Add(ctx context.Context, song models.Song, files Media) (models.Song, error)
	Update(ctx context.Context, id string, patch models.SongPatch, files Media) error
	Delete(ctx context.Context, id, imageURL, audioURL string) error
	Get(ctx context.Context, id string) (models.Song, error)
	ListByArtist(ctx context.Context, artistID string) ([]models.Song, error)
}

type service struct {
	songs    store.Collection[models.Song]
	artists  ArtistLookup
	transfer media.Transfer
	cfg      app.Config
}

// New wires a Service. artists may be nil, in which case songs must name their genre.
func New(songs store.Collection[models.Song], artists ArtistLookup, transfer media.Transfer, opts ...app.Option) Service {
	return &service{songs: songs, artists: artists, transfer: transfer, cfg: app.NewConfig(opts...)}
}

func (s *service) Add(ctx context.Context, song models.Song, files Media) (models.Song, error) {
	created, err := s.add(ctx, song, files)
	return created, s.cfg.Finish(app.KindSong, app.OpAdd, err)
}

func (s *service) add(ctx context.Context, song models.Song, files Media) (models.Song, error) {
	if err := ctx.Err(); err != nil {
		return models.Song{}, err
	}
	if err := s.fillGenre(ctx, &song); err != nil {
		return models.Song{}, err
	}
	if err := song.Validate(); err != nil {
		return models.Song{}, err
	}

	imageURL, err := app.UploadIfPresent(ctx, s.transfer, files.Image, media.FolderSongs)
	if err != nil {
		return models.Song{}, err
	}
	audioURL, err := app.UploadIfPresent(ctx, s.transfer, files.Audio, media.FolderSongs)
	if err != nil {
		app.LogOrphans(ctx, app.KindSong, err, imageURL)
		return models.Song{}, err
	}

	song.ImageURL = imageURL
	song.AudioURL = audioURL
	song.ReleaseDate = s.cfg.Now().UTC()
	created, err := s.songs.Create(ctx, song)
	if err != nil {
		app.LogOrphans(ctx, app.KindSong, err, imageURL, audioURL)
		return models.Song{}, err
	}
	return created, nil
}

// fillGenre copies the artist's genre onto a song that names none.
func (s *service) fillGenre(ctx context.Context, song *models.Song) error {
	if s.artists == nil || strings.TrimSpace(song.GenreID) != "" || strings.TrimSpace(song.ArtistID) == "" {
		return nil
	}
	artist, err := s.artists.Get(ctx, song.ArtistID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return &models.ValidationError{Field: models.FieldArtistID, Reason: "does not exist"}
		}
		return err
	}
	song.GenreID = artist.GenreID
	return nil
}

func (s *service) Update(ctx context.Context, id string, patch models.SongPatch, files Media) error {
	return s.cfg.Finish(app.KindSong, app.OpUpdate, s.update(ctx, id, patch, files))
}

func (s *service) update(ctx context.Context, id string, patch models.SongPatch, files Media) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := patch.Validate(); err != nil {
		return err
	}

	fields := store.Fields(patch.Fields())
	var uploaded []string
	if files.Image != nil || files.Audio != nil {
		if err := app.CheckID(id); err != nil {
			return err
		}
		current, err := app.Existing(ctx, s.songs, store.Songs, id)
		if err != nil {
			return err
		}

		// All new objects are stored before any old one is retired.
		imageURL, err := app.UploadIfPresent(ctx, s.transfer, files.Image, media.FolderSongs)
		if err != nil {
			return err
		}
		audioURL, err := app.UploadIfPresent(ctx, s.transfer, files.Audio, media.FolderSongs)
		if err != nil {
			app.LogOrphans(ctx, app.KindSong, err, imageURL)
			return err
		}

		var retired []string
		if files.Image != nil {
			fields[models.FieldImageURL] = imageURL
			uploaded = append(uploaded, imageURL)
			retired = append(retired, current.ImageURL)
		}
		if files.Audio != nil {
			fields[models.FieldAudioURL] = audioURL
			uploaded = append(uploaded, audioURL)
			retired = append(retired, current.AudioURL)
		}
		if err := app.Retire(ctx, s.transfer, retired...); err != nil {
			app.LogOrphans(ctx, app.KindSong, err, uploaded...)
			return err
		}
	}

	if err := s.songs.Update(ctx, id, fields); err != nil {
		app.LogOrphans(ctx, app.KindSong, err, uploaded...)
		return err
	}
	return nil
}

func (s *service) Delete(ctx context.Context, id, imageURL, audioURL string) error {
	return s.cfg.Finish(app.KindSong, app.OpDelete, s.delete(ctx, id, imageURL, audioURL))
}

func (s *service) delete(ctx context.Context, id, imageURL, audioURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := app.CheckID(id); err != nil {
		return err
	}
	if _, err := app.Existing(ctx, s.songs, store.Songs, id); err != nil {
		return err
	}
	if err := app.Retire(ctx, s.transfer, imageURL, audioURL); err != nil {
		return err
	}
	return s.songs.Delete(ctx, id)
}

func (s *service) Get(ctx context.Context, id string) (models.Song, error) {
	if err := ctx.Err(); err != nil {
		return models.Song{}, err
	}
	song, ok, err := s.songs.GetByID(ctx, id)
	if err != nil {
		return models.Song{}, app.Wrap(app.KindSong, app.OpGet, err)
	}
	if !ok {
		return models.Song{}, app.Wrap(app.KindSong, app.OpGet, store.NotFound(store.Songs, id))
	}
	return song, nil
}

// ListByArtist returns the songs whose artistId equals artistID.
func (s *service) ListByArtist(ctx context.Context, artistID string) ([]models.Song, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	songs, err := s.songs.QueryByField(ctx, models.FieldArtistID, artistID)
	if err != nil {
		return nil, app.Wrap(app.KindSong, app.OpList, err)
	}
	return songs, nil
}
