package models

import (
	"strings"
	"time"
)

// Document field names shared by every store backend.
const (
	FieldID          = "id"
	FieldName        = "name"
	FieldDescription = "description"
	FieldColor       = "color"
	FieldCountry     = "country"
	FieldBio         = "bio"
	FieldGenreID     = "genreId"
	FieldArtistID    = "artistId"
	FieldDuration    = "duration"
	FieldImageURL    = "imageUrl"
	FieldAudioURL    = "audioUrl"
	FieldUserID      = "userId"
	FieldRole        = "role"
	FieldEmail       = "email"
)

// Genre is a top-level catalog category.
type Genre struct {
	ID          string    `json:"id" bson:"_id"`
	Name        string    `json:"name" bson:"name"`
	Description string    `json:"description" bson:"description"`
	Color       string    `json:"color,omitempty" bson:"color,omitempty"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	ImageURL    string    `json:"imageUrl,omitempty" bson:"imageUrl,omitempty"`
}

// WithID returns a copy of the genre carrying the given identifier.
func (g Genre) WithID(id string) Genre {
	g.ID = id
	return g
}

// Validate checks the fields required to create a genre.
func (g Genre) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return invalid(FieldName, "is required")
	}
	return nil
}

// Artist belongs to exactly one genre.
type Artist struct {
	ID       string `json:"id" bson:"_id"`
	Name     string `json:"name" bson:"name"`
	Country  string `json:"country" bson:"country"`
	Bio      string `json:"bio" bson:"bio"`
	GenreID  string `json:"genreId" bson:"genreId"`
	ImageURL string `json:"imageUrl,omitempty" bson:"imageUrl,omitempty"`
}

// WithID returns a copy of the artist carrying the given identifier.
func (a Artist) WithID(id string) Artist {
	a.ID = id
	return a
}

// Validate checks the fields required to create an artist.
func (a Artist) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return invalid(FieldName, "is required")
	}
	if strings.TrimSpace(a.GenreID) == "" {
		return invalid(FieldGenreID, "is required")
	}
	return nil
}

// Song belongs to one artist and carries a denormalized genre reference.
type Song struct {
	ID          string    `json:"id" bson:"_id"`
	Name        string    `json:"name" bson:"name"`
	Duration    int       `json:"duration" bson:"duration"`
	ReleaseDate time.Time `json:"releaseDate" bson:"releaseDate"`
	ArtistID    string    `json:"artistId" bson:"artistId"`
	GenreID     string    `json:"genreId" bson:"genreId"`
	ImageURL    string    `json:"imageUrl,omitempty" bson:"imageUrl,omitempty"`
	AudioURL    string    `json:"audioUrl,omitempty" bson:"audioUrl,omitempty"`
}

// WithID returns a copy of the song carrying the given identifier.
func (s Song) WithID(id string) Song {
	s.ID = id
	return s
}

// Validate checks the fields required to create a song.
func (s Song) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return invalid(FieldName, "is required")
	}
	if s.Duration < 0 {
		return invalid(FieldDuration, "must not be negative")
	}
	if strings.TrimSpace(s.ArtistID) == "" {
		return invalid(FieldArtistID, "is required")
	}
	if strings.TrimSpace(s.GenreID) == "" {
		return invalid(FieldGenreID, "is required")
	}
	return nil
}
