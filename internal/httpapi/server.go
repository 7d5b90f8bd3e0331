// Package httpapi exposes the catalog, account and media workflows over HTTP.
package httpapi

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"musicatlas/internal/app/artists"
	"musicatlas/internal/app/genres"
	"musicatlas/internal/app/songs"
	"musicatlas/internal/app/users"
	"musicatlas/internal/http/middleware"
	"musicatlas/internal/media"
	"musicatlas/internal/metrics"
)

// AccountService captures the account operations needed by the HTTP handlers.
type AccountService interface {
	SignUp(ctx context.Context, email, password, username string) (string, users.Session, error)
	SignIn(ctx context.Context, email, password string) (string, users.Session, error)
	SignOut(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (users.Session, error)
}

// Services groups the workflows served by a Server.
type Services struct {
	Accounts AccountService
	Genres   genres.Service
	Artists  artists.Service
	Songs    songs.Service
	// Media backs the standalone upload and delete endpoints.
	Media media.Transfer
}

// Options tune the HTTP surface.
type Options struct {
	AllowedOrigins []string
	// Limiter throttles admin mutations; nil disables limiting.
	Limiter *middleware.RateLimiter
	Metrics *metrics.Metrics
	// MaxUploadBytes bounds a multipart request body.
	MaxUploadBytes int64
}

// Server wires HTTP handlers to the underlying services.
type Server struct {
	accounts  AccountService
	genres    genres.Service
	artists   artists.Service
	songs     songs.Service
	media     media.Transfer
	opts      Options
	authorize func(http.Handler) http.Handler
}

// New configures a Server.
func New(services Services, opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 64 << 20
	}
	return &Server{
		accounts:  services.Accounts,
		genres:    services.Genres,
		artists:   services.Artists,
		songs:     services.Songs,
		media:     services.Media,
		opts:      opts,
		authorize: middleware.Authenticate(services.Accounts),
	}
}

// Routes exposes the HTTP handlers.
func (s *Server) Routes() http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods(http.MethodGet)
	router.Handle("/metrics", s.opts.Metrics.Handler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()

	// Accounts
	api.HandleFunc("/auth/signup", s.handleSignup).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)
	api.Handle("/auth/logout", s.session(s.handleLogout)).Methods(http.MethodPost)
	api.Handle("/me", s.session(s.handleMe)).Methods(http.MethodGet)

	// Genres
	api.Handle("/genres", s.session(s.handleListGenres)).Methods(http.MethodGet)
	api.Handle("/genres", s.admin(s.handleCreateGenre)).Methods(http.MethodPost)
	api.Handle("/genres/{id}", s.session(s.handleGetGenre)).Methods(http.MethodGet)
	api.Handle("/genres/{id}", s.admin(s.handleUpdateGenre)).Methods(http.MethodPatch)
	api.Handle("/genres/{id}", s.admin(s.handleDeleteGenre)).Methods(http.MethodDelete)
	api.Handle("/genres/{id}/artists", s.session(s.handleListGenreArtists)).Methods(http.MethodGet)

	// Artists
	api.Handle("/artists", s.admin(s.handleCreateArtist)).Methods(http.MethodPost)
	api.Handle("/artists", s.session(s.handleListArtists)).Methods(http.MethodGet)
	api.Handle("/artists/{id}", s.session(s.handleGetArtist)).Methods(http.MethodGet)
	api.Handle("/artists/{id}", s.admin(s.handleUpdateArtist)).Methods(http.MethodPatch)
	api.Handle("/artists/{id}", s.admin(s.handleDeleteArtist)).Methods(http.MethodDelete)
	api.Handle("/artists/{id}/songs", s.session(s.handleListArtistSongs)).Methods(http.MethodGet)

	// Songs
	api.Handle("/songs", s.admin(s.handleCreateSong)).Methods(http.MethodPost)
	api.Handle("/songs/{id}", s.session(s.handleGetSong)).Methods(http.MethodGet)
	api.Handle("/songs/{id}", s.admin(s.handleUpdateSong)).Methods(http.MethodPatch)
	api.Handle("/songs/{id}", s.admin(s.handleDeleteSong)).Methods(http.MethodDelete)

	// Media
	api.Handle("/media", s.admin(s.handleUploadMedia)).Methods(http.MethodPost)
	api.Handle("/media", s.admin(s.handleDeleteMedia)).Methods(http.MethodDelete)

	// Middleware registered with router.Use only runs for matched routes,
	// so CORS wraps the router to also answer preflight requests.
	var handler http.Handler = router
	handler = middleware.CORS(s.opts.AllowedOrigins)(handler)
	handler = middleware.RequestLogging(s.opts.Metrics)(handler)
	handler = middleware.Recovery()(handler)
	return handler
}

// session requires an authenticated caller.
func (s *Server) session(h http.HandlerFunc) http.Handler {
	return s.authorize(h)
}

// admin requires an authenticated admin and applies the mutation rate limit.
func (s *Server) admin(h http.HandlerFunc) http.Handler {
	var next http.Handler = h
	if s.opts.Limiter != nil {
		next = s.opts.Limiter.Middleware(next)
	}
	return s.authorize(middleware.RequireAdmin(next))
}
