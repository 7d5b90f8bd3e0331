package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"musicatlas/internal/metrics"
)

const (
	DefaultMaxImageBytes int64 = 5 << 20
	DefaultMaxAudioBytes int64 = 50 << 20
)

// extensions doubles as the content type allow list.
var extensions = map[string]string{
	"image/jpeg":   ".jpg",
	"image/png":    ".png",
	"image/webp":   ".webp",
	"image/gif":    ".gif",
	"audio/mpeg":   ".mp3",
	"audio/mp3":    ".mp3",
	"audio/wav":    ".wav",
	"audio/x-wav":  ".wav",
	"audio/wave":   ".wav",
	"audio/ogg":    ".ogg",
	"audio/flac":   ".flac",
	"audio/x-flac": ".flac",
	"audio/mp4":    ".m4a",
	"audio/x-m4a":  ".m4a",
}

var audioExtensions = []string{".mp3", ".wav", ".ogg", ".flac", ".m4a"}

var objectPattern = regexp.MustCompile(`/(genres|artists|songs)/([^/]+)\.([A-Za-z0-9]+)$`)

// Config configures a Service.
type Config struct {
	// PublicBaseURL prefixes every returned URL, e.g. https://cdn.example.com/musicatlas.
	PublicBaseURL string
	MaxImageBytes int64
	MaxAudioBytes int64
	Metrics       *metrics.Metrics
	Now           func() time.Time
}

// Service implements Transfer on top of a Host.
type Service struct {
	host     Host
	baseURL  string
	maxImage int64
	maxAudio int64
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewService validates cfg and returns a Service writing to host.
func NewService(host Host, cfg Config) (*Service, error) {
	if host == nil {
		return nil, errors.New("media host is required")
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/")
	if base == "" {
		return nil, errors.New("media public base url is required")
	}

	s := &Service{
		host:     host,
		baseURL:  base,
		maxImage: cfg.MaxImageBytes,
		maxAudio: cfg.MaxAudioBytes,
		metrics:  cfg.Metrics,
		now:      cfg.Now,
	}
	if s.maxImage <= 0 {
		s.maxImage = DefaultMaxImageBytes
	}
	if s.maxAudio <= 0 {
		s.maxAudio = DefaultMaxAudioBytes
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// Upload stores file under folder and returns its public URL.
func (s *Service) Upload(ctx context.Context, file File, folder Folder) (string, error) {
	start := time.Now()
	url, n, err := s.upload(ctx, file, folder)
	s.metrics.ObserveMedia(OpUpload, err, time.Since(start))
	if err != nil {
		return "", &TransferError{Op: OpUpload, Folder: folder, Err: err}
	}
	s.metrics.AddUploadedBytes(n)
	return url, nil
}

func (s *Service) upload(ctx context.Context, file File, folder Folder) (string, int, error) {
	if !folder.Valid() {
		return "", 0, fmt.Errorf("%w: %q", ErrUnknownFolder, folder)
	}
	if file.Body == nil {
		return "", 0, ErrEmptyFile
	}

	contentType, _, err := mime.ParseMediaType(file.ContentType)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %q", ErrUnsupportedType, file.ContentType)
	}
	ext, ok := extensions[contentType]
	if !ok {
		return "", 0, fmt.Errorf("%w: %q", ErrUnsupportedType, contentType)
	}

	category := CategoryFor(contentType)
	limit := s.maxImage
	if category == CategoryVideo {
		limit = s.maxAudio
	}
	if file.Size > limit {
		return "", 0, fmt.Errorf("%w: %d > %d bytes", ErrTooLarge, file.Size, limit)
	}

	data, err := io.ReadAll(io.LimitReader(file.Body, limit+1))
	if err != nil {
		return "", 0, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return "", 0, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, limit)
	}
	if len(data) == 0 {
		return "", 0, ErrEmptyFile
	}

	name := fmt.Sprintf("%s_%d%s", folder, s.now().UnixNano(), ext)
	key := path.Join(string(category), string(folder), name)
	if err := s.host.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return "", 0, fmt.Errorf("store %s: %w", key, err)
	}

	return fmt.Sprintf("%s/%s/upload/%s/%s", s.baseURL, category, folder, name), len(data), nil
}

// Object identifies a stored object derived from its URL.
type Object struct {
	Category Category
	Folder   Folder
	Name     string
	Ext      string
}

// Key is the host key of the object.
func (o Object) Key() string {
	return path.Join(string(o.Category), string(o.Folder), o.Name+"."+o.Ext)
}

// Resolve derives the object identifier from a URL previously returned by Upload.
func (s *Service) Resolve(url string) (Object, error) {
	if !strings.HasPrefix(url, s.baseURL+"/") {
		return Object{}, fmt.Errorf("%w: outside %s", ErrUnresolvableURL, s.baseURL)
	}
	m := objectPattern.FindStringSubmatch(url)
	if m == nil {
		return Object{}, ErrUnresolvableURL
	}

	obj := Object{
		Category: CategoryImage,
		Folder:   Folder(m[1]),
		Name:     m[2],
		Ext:      m[3],
	}
	if isAudio(url, obj.Ext) {
		obj.Category = CategoryVideo
	}
	return obj, nil
}

// Delete retires the object behind url. An object that is already gone counts as deleted.
func (s *Service) Delete(ctx context.Context, url string) error {
	start := time.Now()
	err := s.delete(ctx, url)
	s.metrics.ObserveMedia(OpDelete, err, time.Since(start))
	if err != nil {
		return &TransferError{Op: OpDelete, URL: url, Err: err}
	}
	return nil
}

func (s *Service) delete(ctx context.Context, url string) error {
	obj, err := s.Resolve(url)
	if err != nil {
		return err
	}

	existed, err := s.host.Delete(ctx, obj.Key())
	if err != nil {
		return fmt.Errorf("remove %s: %w", obj.Key(), err)
	}
	if !existed {
		log.Debug().Str("key", obj.Key()).Msg("media object already absent")
	}
	return nil
}

func isAudio(url, ext string) bool {
	if strings.Contains(strings.ToLower(url), ".mp3") {
		return true
	}
	ext = "." + strings.ToLower(ext)
	for _, audio := range audioExtensions {
		if ext == audio {
			return true
		}
	}
	return false
}
