package models

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestSongPatchFieldsOnlyIncludesPresentValues(t *testing.T) {
	var patch SongPatch
	if err := json.Unmarshal([]byte(`{"duration": 200}`), &patch); err != nil {
		t.Fatalf("unmarshal patch: %v", err)
	}

	got := patch.Fields()
	want := map[string]any{FieldDuration: 200}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestPatchNullIsPresentZeroValue(t *testing.T) {
	var patch GenrePatch
	if err := json.Unmarshal([]byte(`{"color": null}`), &patch); err != nil {
		t.Fatalf("unmarshal patch: %v", err)
	}

	color, ok := patch.Color.Get()
	if !ok || color != "" {
		t.Fatalf("expected present empty color, got %q (present=%v)", color, ok)
	}
	if patch.Name.IsSet() {
		t.Fatalf("expected name to be absent")
	}
}

func TestPatchValidate(t *testing.T) {
	tests := []struct {
		name  string
		patch interface{ Validate() error }
		field string
	}{
		{name: "empty genre name", patch: GenrePatch{Name: Some("  ")}, field: FieldName},
		{name: "empty artist genre", patch: ArtistPatch{GenreID: Some("")}, field: FieldGenreID},
		{name: "negative duration", patch: SongPatch{Duration: Some(-1)}, field: FieldDuration},
		{name: "empty song artist", patch: SongPatch{ArtistID: Some("")}, field: FieldArtistID},
		{name: "absent fields are fine", patch: SongPatch{}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			err := tc.patch.Validate()
			if tc.field == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tc.field {
				t.Fatalf("expected field %q, got %q", tc.field, verr.Field)
			}
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected error to match ErrValidation")
			}
		})
	}
}

func TestSongValidate(t *testing.T) {
	song := Song{Name: "Teardrop", Duration: 330, ArtistID: "a1"}
	if err := song.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected missing genre to fail validation, got %v", err)
	}

	song.GenreID = "g1"
	if err := song.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
