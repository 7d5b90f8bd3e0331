package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"musicatlas/internal/app/artists"
	"musicatlas/internal/app/genres"
	"musicatlas/internal/app/songs"
	"musicatlas/internal/models"
)

// Seed is a catalog document in TOML form.
type Seed struct {
	Genres []SeedGenre `toml:"genre"`
}

type SeedGenre struct {
	Name        string       `toml:"name"`
	Description string       `toml:"description"`
	Color       string       `toml:"color"`
	Artists     []SeedArtist `toml:"artist"`
}

type SeedArtist struct {
	Name    string     `toml:"name"`
	Country string     `toml:"country"`
	Bio     string     `toml:"bio"`
	Songs   []SeedSong `toml:"song"`
}

type SeedSong struct {
	Name     string `toml:"name"`
	Duration int    `toml:"duration"`
}

// Coordinators are the services a seed is applied through.
type Coordinators struct {
	Genres  genres.Service
	Artists artists.Service
	Songs   songs.Service
}

// Summary counts the records a seed created.
type Summary struct {
	Genres  int
	Artists int
	Songs   int
}

// LoadSeed reads a seed file.
func LoadSeed(path string) (Seed, error) {
	var seed Seed
	meta, err := toml.DecodeFile(path, &seed)
	if err != nil {
		return Seed{}, fmt.Errorf("decode seed %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Seed{}, fmt.Errorf("decode seed %s: unknown keys %v", path, undecoded)
	}
	return seed, nil
}

// ParseSeed decodes a seed held in memory.
func ParseSeed(data string) (Seed, error) {
	var seed Seed
	if _, err := toml.Decode(data, &seed); err != nil {
		return Seed{}, fmt.Errorf("decode seed: %w", err)
	}
	return seed, nil
}

// Apply adds every record of seed that is not already present, matching by name within its parent.
func Apply(ctx context.Context, c Coordinators, seed Seed) (Summary, error) {
	var sum Summary

	existingGenres, err := c.Genres.List(ctx)
	if err != nil {
		return sum, err
	}

	for _, g := range seed.Genres {
		genre, found := findByName(existingGenres, g.Name, func(x models.Genre) string { return x.Name })
		if !found {
			genre, err = c.Genres.Add(ctx, models.Genre{Name: g.Name, Description: g.Description, Color: g.Color}, nil)
			if err != nil {
				return sum, fmt.Errorf("seed genre %q: %w", g.Name, err)
			}
			sum.Genres++
		}

		existingArtists, err := c.Artists.ListByGenre(ctx, genre.ID)
		if err != nil {
			return sum, err
		}
		for _, a := range g.Artists {
			artist, found := findByName(existingArtists, a.Name, func(x models.Artist) string { return x.Name })
			if !found {
				artist, err = c.Artists.Add(ctx, models.Artist{Name: a.Name, Country: a.Country, Bio: a.Bio, GenreID: genre.ID}, nil)
				if err != nil {
					return sum, fmt.Errorf("seed artist %q: %w", a.Name, err)
				}
				sum.Artists++
			}

			existingSongs, err := c.Songs.ListByArtist(ctx, artist.ID)
			if err != nil {
				return sum, err
			}
			for _, s := range a.Songs {
				if _, found := findByName(existingSongs, s.Name, func(x models.Song) string { return x.Name }); found {
					continue
				}
				song := models.Song{Name: s.Name, Duration: s.Duration, ArtistID: artist.ID, GenreID: genre.ID}
				if _, err := c.Songs.Add(ctx, song, songs.Media{}); err != nil {
					return sum, fmt.Errorf("seed song %q: %w", s.Name, err)
				}
				sum.Songs++
			}
		}
	}
	return sum, nil
}

func findByName[T any](list []T, name string, nameOf func(T) string) (T, bool) {
	for _, item := range list {
		if strings.EqualFold(strings.TrimSpace(nameOf(item)), strings.TrimSpace(name)) {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// DemoSeed is loaded into the in-memory store so the API is usable out of the box.
const DemoSeed = `
[[genre]]
name = "Trip Hop"
description = "Downtempo born in Bristol"
color = "#5B4B8A"

  [[genre.artist]]
  name = "Portishead"
  country = "UK"
  bio = "Bristol trio formed in 1991."

    [[genre.artist.song]]
    name = "Glory Box"
    duration = 306

    [[genre.artist.song]]
    name = "Roads"
    duration = 305

  [[genre.artist]]
  name = "Massive Attack"
  country = "UK"
  bio = "Collective from the Bristol Wild Bunch scene."

    [[genre.artist.song]]
    name = "Teardrop"
    duration = 330

[[genre]]
name = "Jazz"
description = "Improvisation and swing"
color = "#C08A2B"

  [[genre.artist]]
  name = "Miles Davis"
  country = "US"
  bio = "Trumpeter and bandleader."

    [[genre.artist.song]]
    name = "So What"
    duration = 562
`
