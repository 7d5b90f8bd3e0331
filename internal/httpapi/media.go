package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"musicatlas/internal/media"
	"musicatlas/internal/models"
)

const filePart = "file"

type mediaRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleUploadMedia(w http.ResponseWriter, r *http.Request) {
	var ignored struct{}
	p, err := s.readPayload(w, r, &ignored, filePart)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	defer p.close()

	file := p.file(filePart)
	if file == nil {
		writeServiceError(w, r, &models.ValidationError{Field: filePart, Reason: "is required"})
		return
	}
	folder := media.Folder(strings.TrimSpace(r.FormValue("folder")))

	url, err := s.media.Upload(r.Context(), *file, folder)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mediaRequest{URL: url})
}

func (s *Server) handleDeleteMedia(w http.ResponseWriter, r *http.Request) {
	var req mediaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeServiceError(w, r, &models.ValidationError{Field: "url", Reason: "is required"})
		return
	}

	if err := s.media.Delete(r.Context(), req.URL); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Message string `json:"message"`
		URL     string `json:"url"`
	}{Message: "Deleted", URL: req.URL})
}
