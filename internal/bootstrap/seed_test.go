package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"musicatlas/internal/app/artists"
	"musicatlas/internal/app/genres"
	"musicatlas/internal/app/songs"
	"musicatlas/internal/config"
	"musicatlas/internal/store"
)

func newCoordinators(t *testing.T) (Coordinators, store.Catalog) {
	t.Helper()
	catalog, closeFn, err := OpenCatalog(context.Background(), config.StoreConfig{Driver: config.StoreMemory})
	if err != nil {
		t.Fatalf("OpenCatalog: %v", err)
	}
	t.Cleanup(func() { _ = closeFn(context.Background()) })

	transfer, err := OpenMedia(context.Background(), config.MediaConfig{Driver: config.MediaMemory}, nil)
	if err != nil {
		t.Fatalf("OpenMedia: %v", err)
	}
	return Coordinators{
		Genres:  genres.New(catalog.Genres, transfer),
		Artists: artists.New(catalog.Artists, transfer),
		Songs:   songs.New(catalog.Songs, nil, transfer),
	}, catalog
}

func TestApplyDemoSeedIsIdempotent(t *testing.T) {
	c, catalog := newCoordinators(t)
	seed, err := ParseSeed(DemoSeed)
	if err != nil {
		t.Fatalf("ParseSeed: %v", err)
	}

	sum, err := Apply(context.Background(), c, seed)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if sum != (Summary{Genres: 2, Artists: 3, Songs: 4}) {
		t.Fatalf("first apply = %+v", sum)
	}

	again, err := Apply(context.Background(), c, seed)
	if err != nil {
		t.Fatalf("second Apply: %v", err)
	}
	if again != (Summary{}) {
		t.Fatalf("second apply created records: %+v", again)
	}

	all, err := catalog.Songs.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	for _, song := range all {
		if song.GenreID == "" || song.ArtistID == "" {
			t.Fatalf("song %q not linked: %+v", song.Name, song)
		}
	}
}

func TestLoadSeedRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.toml")
	if err := os.WriteFile(path, []byte("[[genre]]\nname = \"Jazz\"\ncolour = \"#fff\"\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := LoadSeed(path); err == nil {
		t.Fatal("expected unknown key error")
	}
}

func TestOpenMediaMemoryDefaultsBaseURL(t *testing.T) {
	svc, err := OpenMedia(context.Background(), config.MediaConfig{Driver: config.MediaMemory}, nil)
	if err != nil {
		t.Fatalf("OpenMedia: %v", err)
	}
	obj, err := svc.Resolve(memoryMediaBase + "/image/upload/genres/genres_1.png")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if obj.Key() != "image/genres/genres_1.png" {
		t.Fatalf("key = %q", obj.Key())
	}
}

func TestOpenCatalogUnknownDriver(t *testing.T) {
	if _, _, err := OpenCatalog(context.Background(), config.StoreConfig{Driver: "cassandra"}); err == nil {
		t.Fatal("expected error")
	}
}
