package genres

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"musicatlas/internal/app"
	"musicatlas/internal/app/apptest"
	"musicatlas/internal/media"
	"musicatlas/internal/models"
	"musicatlas/internal/store"
)

var created = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

func newService() (Service, *apptest.Journal, *apptest.Transfer, *apptest.Collection[models.Genre]) {
	journal := &apptest.Journal{}
	transfer := apptest.NewTransfer(journal)
	genres := apptest.NewCollection[models.Genre](journal, store.Genres)
	svc := New(genres, transfer, app.WithClock(func() time.Time { return created }))
	return svc, journal, transfer, genres
}

func cover() *media.File {
	return &media.File{Name: "cover.png", ContentType: "image/png", Body: strings.NewReader("png")}
}

func TestAddStoresImageURLAndCreatedAt(t *testing.T) {
	svc, journal, _, genres := newService()

	genre, err := svc.Add(context.Background(), models.Genre{Name: "Trip Hop", Description: "Bristol", Color: "#334455"}, cover())
	require.NoError(t, err)

	assert.Equal(t, []string{"upload genres", "create"}, journal.Events())
	assert.Equal(t, "https://media.test/genres/1", genre.ImageURL)
	assert.Equal(t, created, genre.CreatedAt)

	stored, ok, err := genres.GetByID(context.Background(), genre.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Trip Hop", stored.Name)
	assert.Equal(t, genre.ImageURL, stored.ImageURL)
}

func TestAddRejectsEmptyName(t *testing.T) {
	svc, journal, _, _ := newService()

	_, err := svc.Add(context.Background(), models.Genre{Name: " "}, cover())
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Empty(t, journal.Events())
}

func TestAddCreateFailureIsReported(t *testing.T) {
	svc, journal, transfer, genres := newService()
	genres.CreateErr = errors.New("store unavailable")

	_, err := svc.Add(context.Background(), models.Genre{Name: "Ambient"}, cover())
	require.Error(t, err)

	var opErr *app.OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, app.KindGenre, opErr.Kind)
	assert.Equal(t, []string{"upload genres", "create"}, journal.Events())
	assert.True(t, transfer.Live("https://media.test/genres/1"), "uploaded object is left in place")
}

func TestUpdateReplacesImage(t *testing.T) {
	svc, journal, transfer, genres := newService()
	transfer.Seed("https://media.test/genres/old")
	existing := genres.Insert(models.Genre{Name: "Ambient", Description: "calm", ImageURL: "https://media.test/genres/old"})

	err := svc.Update(context.Background(), existing.ID, models.GenrePatch{Description: models.Some("drones")}, cover())
	require.NoError(t, err)

	assert.Equal(t, []string{"upload genres", "delete https://media.test/genres/old", "update"}, journal.Events())
	stored, _, _ := genres.GetByID(context.Background(), existing.ID)
	assert.Equal(t, "drones", stored.Description)
	assert.Equal(t, "Ambient", stored.Name)
	assert.Equal(t, "https://media.test/genres/1", stored.ImageURL)
	assert.False(t, transfer.Live("https://media.test/genres/old"))
}

func TestUpdateMissingWithoutMediaReturnsNotFound(t *testing.T) {
	svc, _, _, _ := newService()

	err := svc.Update(context.Background(), "missing", models.GenrePatch{Name: models.Some("x")}, nil)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteWithoutImageDeletesRecord(t *testing.T) {
	svc, journal, _, genres := newService()
	existing := genres.Insert(models.Genre{Name: "Ambient"})

	require.NoError(t, svc.Delete(context.Background(), existing.ID, ""))
	assert.Equal(t, []string{"delete record"}, journal.Events())

	_, err := svc.Get(context.Background(), existing.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteRejectsEmptyID(t *testing.T) {
	svc, journal, transfer, _ := newService()
	transfer.Seed("cover.png")

	err := svc.Delete(context.Background(), "", "cover.png")
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Empty(t, journal.Events())
	assert.True(t, transfer.Live("cover.png"))
}

func TestDeleteUnknownGenreKeepsImage(t *testing.T) {
	svc, journal, transfer, _ := newService()
	transfer.Seed("cover.png")

	err := svc.Delete(context.Background(), "missing", "cover.png")
	assert.ErrorIs(t, err, store.ErrNotFound)

	var opErr *app.OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, app.OpDelete, opErr.Op)
	assert.Empty(t, journal.Events())
	assert.True(t, transfer.Live("cover.png"))
}

func TestListReturnsAllGenres(t *testing.T) {
	svc, _, _, genres := newService()
	genres.Insert(models.Genre{Name: "Ambient"})
	genres.Insert(models.Genre{Name: "Jazz"})

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Ambient", list[0].Name)
	assert.Equal(t, "Jazz", list[1].Name)
}
