package models

import "strings"

// GenrePatch lists the genre fields a partial update may change.
type GenrePatch struct {
	Name        Optional[string] `json:"name"`
	Description Optional[string] `json:"description"`
	Color       Optional[string] `json:"color"`
}

// Validate rejects present fields holding invalid values.
func (p GenrePatch) Validate() error {
	return requireNonEmpty(FieldName, p.Name)
}

// Fields returns only the present fields keyed by document field name.
func (p GenrePatch) Fields() map[string]any {
	fields := make(map[string]any)
	put(fields, FieldName, p.Name)
	put(fields, FieldDescription, p.Description)
	put(fields, FieldColor, p.Color)
	return fields
}

// ArtistPatch lists the artist fields a partial update may change.
type ArtistPatch struct {
	Name    Optional[string] `json:"name"`
	Country Optional[string] `json:"country"`
	Bio     Optional[string] `json:"bio"`
	GenreID Optional[string] `json:"genreId"`
}

// Validate rejects present fields holding invalid values.
func (p ArtistPatch) Validate() error {
	if err := requireNonEmpty(FieldName, p.Name); err != nil {
		return err
	}
	return requireNonEmpty(FieldGenreID, p.GenreID)
}

// Fields returns only the present fields keyed by document field name.
func (p ArtistPatch) Fields() map[string]any {
	fields := make(map[string]any)
	put(fields, FieldName, p.Name)
	put(fields, FieldCountry, p.Country)
	put(fields, FieldBio, p.Bio)
	put(fields, FieldGenreID, p.GenreID)
	return fields
}

// SongPatch lists the song fields a partial update may change.
type SongPatch struct {
	Name     Optional[string] `json:"name"`
	Duration Optional[int]    `json:"duration"`
	ArtistID Optional[string] `json:"artistId"`
	GenreID  Optional[string] `json:"genreId"`
}

// Validate rejects present fields holding invalid values.
func (p SongPatch) Validate() error {
	if err := requireNonEmpty(FieldName, p.Name); err != nil {
		return err
	}
	if d, ok := p.Duration.Get(); ok && d < 0 {
		return invalid(FieldDuration, "must not be negative")
	}
	if err := requireNonEmpty(FieldArtistID, p.ArtistID); err != nil {
		return err
	}
	return requireNonEmpty(FieldGenreID, p.GenreID)
}

// Fields returns only the present fields keyed by document field name.
func (p SongPatch) Fields() map[string]any {
	fields := make(map[string]any)
	put(fields, FieldName, p.Name)
	put(fields, FieldDuration, p.Duration)
	put(fields, FieldArtistID, p.ArtistID)
	put(fields, FieldGenreID, p.GenreID)
	return fields
}

func requireNonEmpty(field string, o Optional[string]) error {
	if v, ok := o.Get(); ok && strings.TrimSpace(v) == "" {
		return invalid(field, "must not be empty")
	}
	return nil
}

func put[T any](fields map[string]any, name string, o Optional[T]) {
	if v, ok := o.Get(); ok {
		fields[name] = v
	}
}
