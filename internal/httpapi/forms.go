package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"musicatlas/internal/media"
	"musicatlas/internal/models"
)

const multipartMemory = 8 << 20

// payload is the decoded body of a create or update request.
type payload struct {
	files  map[string]*media.File
	form   *multipart.Form
	opened []multipart.File
}

// file returns the upload sent under name, or nil.
func (p *payload) file(name string) *media.File {
	if p == nil {
		return nil
	}
	return p.files[name]
}

func (p *payload) close() {
	if p == nil {
		return
	}
	for _, f := range p.opened {
		_ = f.Close()
	}
	if p.form != nil {
		_ = p.form.RemoveAll()
	}
}

// readPayload decodes a JSON body into dst, or a multipart form whose "data"
// field holds the JSON document and whose named file parts carry media.
func (s *Server) readPayload(w http.ResponseWriter, r *http.Request, dst any, fileFields ...string) (*payload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)

	contentType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if contentType != "multipart/form-data" {
		if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
			return nil, &models.ValidationError{Field: "body", Reason: "invalid JSON payload"}
		}
		return &payload{}, nil
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("%w: request body over %d bytes", media.ErrTooLarge, tooLarge.Limit)
		}
		return nil, &models.ValidationError{Field: "body", Reason: "invalid multipart form"}
	}
	p := &payload{files: make(map[string]*media.File), form: r.MultipartForm}

	if data := r.FormValue("data"); strings.TrimSpace(data) != "" {
		if err := json.Unmarshal([]byte(data), dst); err != nil {
			p.close()
			return nil, &models.ValidationError{Field: "data", Reason: "invalid JSON payload"}
		}
	}

	for _, field := range fileFields {
		file, header, err := r.FormFile(field)
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		if err != nil {
			p.close()
			return nil, &models.ValidationError{Field: field, Reason: "unreadable file part"}
		}
		p.opened = append(p.opened, file)
		p.files[field] = &media.File{
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Body:        file,
		}
	}
	return p, nil
}
