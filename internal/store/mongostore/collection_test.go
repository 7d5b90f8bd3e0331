package mongostore

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"musicatlas/internal/models"
	"musicatlas/internal/store"
)

func newMockCollection[T store.Record[T]](mt *mtest.T, name string) *Collection[T] {
	c := NewCollection[T](mt.DB, name)
	c.newID = func() string { return "id-1" }
	return c
}

func TestCollection(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("create assigns id", func(mt *mtest.T) {
		c := newMockCollection[models.Genre](mt, store.Genres)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		created, err := c.Create(context.Background(), models.Genre{Name: "Ambient"})
		if err != nil {
			mt.Fatalf("Create: %v", err)
		}
		if created.ID != "id-1" {
			mt.Fatalf("expected id-1, got %q", created.ID)
		}
	})

	mt.Run("create maps duplicate key", func(mt *mtest.T) {
		c := newMockCollection[models.Credential](mt, store.Credentials)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))

		_, err := c.Create(context.Background(), models.Credential{Email: "a@b.c"})
		if !errors.Is(err, store.ErrConflict) {
			mt.Fatalf("expected ErrConflict, got %v", err)
		}
	})

	mt.Run("get by id decodes document", func(mt *mtest.T) {
		c := newMockCollection[models.Artist](mt, store.Artists)
		ns := mt.DB.Name() + "." + store.Artists
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "a1"},
			{Key: "name", Value: "Massive Attack"},
			{Key: "genreId", Value: "g1"},
		}))

		got, ok, err := c.GetByID(context.Background(), "a1")
		if err != nil || !ok {
			mt.Fatalf("GetByID: ok=%v err=%v", ok, err)
		}
		if got.ID != "a1" || got.Name != "Massive Attack" || got.GenreID != "g1" {
			mt.Fatalf("unexpected artist: %+v", got)
		}
	})

	mt.Run("get by id missing is absent", func(mt *mtest.T) {
		c := newMockCollection[models.Artist](mt, store.Artists)
		ns := mt.DB.Name() + "." + store.Artists
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, ok, err := c.GetByID(context.Background(), "missing")
		if err != nil {
			mt.Fatalf("unexpected error: %v", err)
		}
		if ok {
			mt.Fatalf("expected record to be absent")
		}
	})

	mt.Run("query by field collects batches", func(mt *mtest.T) {
		c := newMockCollection[models.Song](mt, store.Songs)
		ns := mt.DB.Name() + "." + store.Songs
		first := mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "s1"}, {Key: "name", Value: "Angel"}, {Key: "artistId", Value: "a1"},
		})
		second := mtest.CreateCursorResponse(1, ns, mtest.NextBatch, bson.D{
			{Key: "_id", Value: "s2"}, {Key: "name", Value: "Teardrop"}, {Key: "artistId", Value: "a1"},
		})
		end := mtest.CreateCursorResponse(0, ns, mtest.NextBatch)
		mt.AddMockResponses(first, second, end)

		got, err := c.QueryByField(context.Background(), models.FieldArtistID, "a1")
		if err != nil {
			mt.Fatalf("QueryByField: %v", err)
		}
		if len(got) != 2 || got[0].ID != "s1" || got[1].Name != "Teardrop" {
			mt.Fatalf("unexpected songs: %+v", got)
		}
	})

	mt.Run("update unmatched returns not found", func(mt *mtest.T) {
		c := newMockCollection[models.Song](mt, store.Songs)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		err := c.Update(context.Background(), "s1", store.Fields{models.FieldDuration: 200})
		if !errors.Is(err, store.ErrNotFound) {
			mt.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	mt.Run("update matched succeeds", func(mt *mtest.T) {
		c := newMockCollection[models.Song](mt, store.Songs)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		if err := c.Update(context.Background(), "s1", store.Fields{models.FieldDuration: 200}); err != nil {
			mt.Fatalf("Update: %v", err)
		}
	})

	mt.Run("delete reports missing document", func(mt *mtest.T) {
		c := newMockCollection[models.Genre](mt, store.Genres)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		err := c.Delete(context.Background(), "g1")
		if !errors.Is(err, store.ErrNotFound) {
			mt.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	mt.Run("find failure is wrapped", func(mt *mtest.T) {
		c := newMockCollection[models.Genre](mt, store.Genres)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Message: "bad query",
		}))

		_, err := c.List(context.Background())
		var cmdErr mongo.CommandError
		if !errors.As(err, &cmdErr) {
			mt.Fatalf("expected wrapped command error, got %v", err)
		}
	})

	mt.Run("ensure indexes makes profile and email keys unique", func(mt *mtest.T) {
		for i := 0; i < 4; i++ {
			mt.AddMockResponses(mtest.CreateSuccessResponse())
		}

		if err := EnsureIndexes(context.Background(), mt.DB); err != nil {
			mt.Fatalf("EnsureIndexes: %v", err)
		}

		unique := map[string]bool{}
		for evt := mt.GetStartedEvent(); evt != nil; evt = mt.GetStartedEvent() {
			if evt.CommandName != "createIndexes" {
				continue
			}
			collection, _ := evt.Command.Lookup("createIndexes").StringValueOK()
			flag, _ := evt.Command.Lookup("indexes", "0", "unique").BooleanOK()
			unique[collection] = flag
		}
		want := map[string]bool{store.Artists: false, store.Songs: false, store.Profiles: true, store.Credentials: true}
		for collection, flag := range want {
			if unique[collection] != flag {
				mt.Fatalf("%s unique = %v, want %v (seen %v)", collection, unique[collection], flag, unique)
			}
		}
	})
}
