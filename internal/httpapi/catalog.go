package httpapi

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"musicatlas/internal/app/songs"
	"musicatlas/internal/models"
)

type genreRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

type artistRequest struct {
	Name    string `json:"name"`
	Country string `json:"country"`
	Bio     string `json:"bio"`
	GenreID string `json:"genreId"`
}

type songRequest struct {
	Name     string `json:"name"`
	Duration int    `json:"duration"`
	ArtistID string `json:"artistId"`
	GenreID  string `json:"genreId"`
}

const (
	imagePart = "image"
	audioPart = "audio"
)

// Genres

func (s *Server) handleListGenres(w http.ResponseWriter, r *http.Request) {
	list, err := s.genres.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Genres []models.Genre `json:"genres"`
	}{Genres: nonNil(list)})
}

func (s *Server) handleGetGenre(w http.ResponseWriter, r *http.Request) {
	genre, err := s.genres.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, genre)
}

func (s *Server) handleCreateGenre(w http.ResponseWriter, r *http.Request) {
	var req genreRequest
	p, err := s.readPayload(w, r, &req, imagePart)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	defer p.close()

	genre, err := s.genres.Add(r.Context(), models.Genre{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
	}, p.file(imagePart))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, genre)
}

func (s *Server) handleUpdateGenre(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var patch models.GenrePatch
	p, err := s.readPayload(w, r, &patch, imagePart)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	defer p.close()

	if err := s.genres.Update(r.Context(), id, patch, p.file(imagePart)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.handleGetGenre(w, r)
}

func (s *Server) handleDeleteGenre(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	genre, err := s.genres.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := s.genres.Delete(r.Context(), id, genre.ImageURL); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListGenreArtists(w http.ResponseWriter, r *http.Request) {
	s.writeArtistsByGenre(w, r, mux.Vars(r)["id"])
}

// Artists

func (s *Server) handleListArtists(w http.ResponseWriter, r *http.Request) {
	genreID := strings.TrimSpace(r.URL.Query().Get(models.FieldGenreID))
	if genreID == "" {
		writeServiceError(w, r, &models.ValidationError{Field: models.FieldGenreID, Reason: "query parameter is required"})
		return
	}
	s.writeArtistsByGenre(w, r, genreID)
}

func (s *Server) writeArtistsByGenre(w http.ResponseWriter, r *http.Request, genreID string) {
	list, err := s.artists.ListByGenre(r.Context(), genreID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Artists []models.Artist `json:"artists"`
	}{Artists: nonNil(list)})
}

func (s *Server) handleGetArtist(w http.ResponseWriter, r *http.Request) {
	artist, err := s.artists.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, artist)
}

func (s *Server) handleCreateArtist(w http.ResponseWriter, r *http.Request) {
	var req artistRequest
	p, err := s.readPayload(w, r, &req, imagePart)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	defer p.close()

	artist, err := s.artists.Add(r.Context(), models.Artist{
		Name:    req.Name,
		Country: req.Country,
		Bio:     req.Bio,
		GenreID: req.GenreID,
	}, p.file(imagePart))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, artist)
}

func (s *Server) handleUpdateArtist(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var patch models.ArtistPatch
	p, err := s.readPayload(w, r, &patch, imagePart)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	defer p.close()

	if err := s.artists.Update(r.Context(), id, patch, p.file(imagePart)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.handleGetArtist(w, r)
}

func (s *Server) handleDeleteArtist(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	artist, err := s.artists.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := s.artists.Delete(r.Context(), id, artist.ImageURL); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListArtistSongs(w http.ResponseWriter, r *http.Request) {
	list, err := s.songs.ListByArtist(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Songs []models.Song `json:"songs"`
	}{Songs: nonNil(list)})
}

// Songs

func (s *Server) handleGetSong(w http.ResponseWriter, r *http.Request) {
	song, err := s.songs.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, song)
}

func (s *Server) handleCreateSong(w http.ResponseWriter, r *http.Request) {
	var req songRequest
	p, err := s.readPayload(w, r, &req, imagePart, audioPart)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	defer p.close()

	song, err := s.songs.Add(r.Context(), models.Song{
		Name:     req.Name,
		Duration: req.Duration,
		ArtistID: req.ArtistID,
		GenreID:  req.GenreID,
	}, songs.Media{Image: p.file(imagePart), Audio: p.file(audioPart)})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, song)
}

func (s *Server) handleUpdateSong(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var patch models.SongPatch
	p, err := s.readPayload(w, r, &patch, imagePart, audioPart)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	defer p.close()

	files := songs.Media{Image: p.file(imagePart), Audio: p.file(audioPart)}
	if err := s.songs.Update(r.Context(), id, patch, files); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.handleGetSong(w, r)
}

func (s *Server) handleDeleteSong(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	song, err := s.songs.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := s.songs.Delete(r.Context(), id, song.ImageURL, song.AudioURL); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
